package catalog

import (
	"errors"
	"slices"
	"testing"

	"pixy/internal/config"
	"pixy/internal/services"
)

func TestCuratedCatalog(t *testing.T) {
	c := NewCurated()
	want := []string{
		"realesrgan-x4plus",
		"realesrgan-x4plus-anime",
		"realesr-animevideov3-x4",
		"realesr-animevideov3-x3",
		"realesr-animevideov3-x2",
		"realcugan_se_x2",
		"waifu2x_cunet_x2",
	}
	if got := c.Names(); !slices.Equal(got, want) {
		t.Fatalf("Names() = %v, want %v", got, want)
	}

	m, ok := c.Lookup("realesr-animevideov3-x3")
	if !ok || m.Scale != 3 || m.Family != RealESRGAN || m.DenoiseLevel != nil {
		t.Fatalf("unexpected model %+v", m)
	}
	cugan, _ := c.Lookup("realcugan_se_x2")
	if cugan.Family != RealCUGAN || cugan.DenoiseLevel == nil || *cugan.DenoiseLevel != 1 {
		t.Fatalf("unexpected realcugan model %+v", cugan)
	}
	waifu, _ := c.Lookup("waifu2x_cunet_x2")
	if waifu.Family != Waifu2x || waifu.Scale != 2 {
		t.Fatalf("unexpected waifu2x model %+v", waifu)
	}
	for _, m := range c.All() {
		if m.Scale < 1 {
			t.Fatalf("model %s has scale %d", m.Name, m.Scale)
		}
	}
}

func TestAllReturnsCopy(t *testing.T) {
	c := NewCurated()
	all := c.All()
	all[0].Name = "mutated"
	if first, _ := c.Lookup("realesrgan-x4plus"); first.Name != "realesrgan-x4plus" {
		t.Fatal("All() must not expose internal state")
	}
}

func TestResolveUnknownModel(t *testing.T) {
	_, err := NewCurated().Resolve("nope")
	if !errors.Is(err, services.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestModelValidate(t *testing.T) {
	level := 2
	tests := []struct {
		name  string
		model Model
		ok    bool
	}{
		{"valid", Model{Name: "a", Family: RealESRGAN, Scale: 4}, true},
		{"zero scale", Model{Name: "a", Family: Waifu2x, Scale: 0}, false},
		{"no name", Model{Family: Waifu2x, Scale: 2}, false},
		{"denoise on esrgan", Model{Name: "a", Family: RealESRGAN, Scale: 4, DenoiseLevel: &level}, false},
		{"denoise on cugan", Model{Name: "a", Family: RealCUGAN, Scale: 2, DenoiseLevel: &level}, true},
	}
	for _, tt := range tests {
		err := tt.model.Validate()
		if tt.ok && err != nil {
			t.Errorf("%s: unexpected error %v", tt.name, err)
		}
		if !tt.ok && !errors.Is(err, services.ErrInvalidArgument) {
			t.Errorf("%s: expected ErrInvalidArgument, got %v", tt.name, err)
		}
	}
}

func TestLoadMergesConfiguredModels(t *testing.T) {
	level := 3
	cfg := config.Default()
	cfg.Models = []config.Model{
		{Name: "custom-x2", Family: "realcugan", Scale: 2, DenoiseLevel: &level, Path: "/models/cugan"},
		{Name: "realesrgan-x4plus", Family: "realesrgan", Scale: 4, Description: "override"},
	}
	c, err := Load(&cfg)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if len(c.All()) != 8 {
		t.Fatalf("expected 8 models, got %d", len(c.All()))
	}
	custom, ok := c.Lookup("custom-x2")
	if !ok || custom.Family != RealCUGAN || *custom.DenoiseLevel != 3 || custom.Path != "/models/cugan" {
		t.Fatalf("unexpected custom model %+v", custom)
	}
	override, _ := c.Lookup("realesrgan-x4plus")
	if override.Description != "override" {
		t.Fatalf("expected configured model to replace curated entry, got %+v", override)
	}
	if c.Names()[0] != "realesrgan-x4plus" {
		t.Fatal("override must keep its original position")
	}
	if NewCurated().All()[0].Description == "override" {
		t.Fatal("With must not mutate the base catalog")
	}
}

func TestFromConfigRejectsUnknownFamily(t *testing.T) {
	_, err := FromConfig([]config.Model{{Name: "x", Family: "esrgan", Scale: 2}})
	if !errors.Is(err, services.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestFamilyString(t *testing.T) {
	for _, f := range []Family{RealESRGAN, RealCUGAN, Waifu2x} {
		parsed, err := ParseFamily(f.String())
		if err != nil || parsed != f {
			t.Fatalf("round trip failed for %v: %v %v", f, parsed, err)
		}
	}
}
