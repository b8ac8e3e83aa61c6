package upscaler

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"pixy/internal/catalog"
	"pixy/internal/deps"
	"pixy/internal/procexec"
	"pixy/internal/services"
)

// BinaryName returns the executable name for a family.
func BinaryName(family catalog.Family) (string, error) {
	switch family {
	case catalog.RealESRGAN:
		return "realesrgan-ncnn-vulkan", nil
	case catalog.RealCUGAN:
		return "realcugan-ncnn-vulkan", nil
	case catalog.Waifu2x:
		return "waifu2x-ncnn-vulkan", nil
	default:
		return "", unknownFamily(family)
	}
}

// Binary is an upscaler executable and the family whose dialect it speaks.
type Binary struct {
	Family catalog.Family
	Path   string
}

// Find resolves the executable for family with the given resolver.
func Find(resolver *deps.Resolver, family catalog.Family) (Binary, error) {
	name, err := BinaryName(family)
	if err != nil {
		return Binary{}, err
	}
	path, err := resolver.Resolve(name)
	if err != nil {
		return Binary{}, err
	}
	return Binary{Family: family, Path: path}, nil
}

// Request describes one sequence-to-sequence upscale.
type Request struct {
	Input    string
	Output   string
	GPU      int
	TileSize *int
	Threads  *int
	Model    catalog.Model
}

// BuildArgs returns the family-specific argument list.
//
// realesrgan takes input/output directories, a model name, and an optional
// load:proc:save thread triple. realcugan and waifu2x take the sequence
// patterns directly plus an optional denoise level from the model.
func BuildArgs(bin Binary, req Request) ([]string, error) {
	switch bin.Family {
	case catalog.RealESRGAN:
		args := []string{
			"-i", SequenceDirArg(req.Input),
			"-o", SequenceDirArg(req.Output),
			"-n", req.Model.Name,
			"-g", strconv.Itoa(req.GPU),
		}
		if req.Model.Path != "" {
			args = append(args, "-m", req.Model.Path)
		}
		if req.TileSize != nil {
			args = append(args, "-t", strconv.Itoa(*req.TileSize))
		}
		if req.Threads != nil {
			n := strconv.Itoa(*req.Threads)
			args = append(args, "-j", n+":"+n+":"+n)
		}
		return args, nil
	case catalog.RealCUGAN, catalog.Waifu2x:
		args := []string{
			"-i", req.Input,
			"-o", req.Output,
			"-g", strconv.Itoa(req.GPU),
		}
		if req.TileSize != nil {
			args = append(args, "-t", strconv.Itoa(*req.TileSize))
		}
		if req.Model.DenoiseLevel != nil {
			args = append(args, "-n", strconv.Itoa(*req.Model.DenoiseLevel))
		}
		return args, nil
	default:
		return nil, unknownFamily(bin.Family)
	}
}

// SequenceDirArg strips the filename component of a printf-style sequence
// pattern ("frames/%08d.png" becomes "frames"). Other paths are returned unchanged.
func SequenceDirArg(path string) string {
	if strings.Contains(path, "%") {
		return filepath.Dir(path)
	}
	return path
}

// Invoker runs upscaler binaries.
type Invoker struct {
	Runner procexec.Runner
}

// Run upscales req.Input into req.Output with bin. Partial output from a
// failed run is left in place.
func (i Invoker) Run(ctx context.Context, bin Binary, req Request) error {
	args, err := BuildArgs(bin, req)
	if err != nil {
		return err
	}
	name, _ := BinaryName(bin.Family)
	runner := i.Runner
	if runner == nil {
		runner = procexec.ExecRunner{}
	}
	_, err = runner.Run(ctx, procexec.Command{Name: name, Path: bin.Path, Args: args})
	return err
}

func unknownFamily(family catalog.Family) error {
	return services.Wrap(services.ErrInvalidArgument, "upscale", "family", fmt.Sprintf("unsupported upscaler family %v", family), nil)
}
