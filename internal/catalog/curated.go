package catalog

func denoise(level int) *int { return &level }

func curated() []Model {
	return []Model{
		{Name: "realesrgan-x4plus", Family: RealESRGAN, Scale: 4, Description: "General purpose, live action"},
		{Name: "realesrgan-x4plus-anime", Family: RealESRGAN, Scale: 4, Description: "Anime stills and illustrations"},
		{Name: "realesr-animevideov3-x4", Family: RealESRGAN, Scale: 4, Description: "Anime video"},
		{Name: "realesr-animevideov3-x3", Family: RealESRGAN, Scale: 3, Description: "Anime video"},
		{Name: "realesr-animevideov3-x2", Family: RealESRGAN, Scale: 2, Description: "Anime video"},
		{Name: "realcugan_se_x2", Family: RealCUGAN, Scale: 2, DenoiseLevel: denoise(1), Description: "Real-CUGAN SE"},
		{Name: "waifu2x_cunet_x2", Family: Waifu2x, Scale: 2, DenoiseLevel: denoise(1), Description: "waifu2x CUnet"},
	}
}
