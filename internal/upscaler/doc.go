// Package upscaler invokes the ncnn-vulkan upscaler binaries.
//
// The three families (realesrgan, realcugan, waifu2x) differ in flag names and
// in whether paths are directories or sequence patterns. BuildArgs absorbs
// those differences so the pipeline calls one Run regardless of family.
package upscaler
