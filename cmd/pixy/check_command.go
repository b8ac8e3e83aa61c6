package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"pixy/internal/deps"
	"pixy/internal/preflight"
)

var toolRequirements = []deps.Requirement{
	{Name: "FFmpeg", Command: deps.FFmpeg, Description: "frame extraction and final encode"},
	{Name: "FFprobe", Command: deps.FFprobe, Description: "frame rate and stream inspection"},
	{Name: "Real-ESRGAN", Command: "realesrgan-ncnn-vulkan", Description: "realesrgan models", Optional: true},
	{Name: "Real-CUGAN", Command: "realcugan-ncnn-vulkan", Description: "realcugan models", Optional: true},
	{Name: "waifu2x", Command: "waifu2x-ncnn-vulkan", Description: "waifu2x models", Optional: true},
}

func newCheckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Check tool availability and environment readiness",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			failed := false

			for _, line := range renderSectionHeader("Tools", colorize) {
				fmt.Fprintln(out, line)
			}
			upscalers := 0
			for _, status := range ctx.resolver().CheckBinaries(toolRequirements) {
				kind, detail := statusOK, status.Path
				switch {
				case status.Available && status.Optional:
					upscalers++
				case !status.Available && status.Optional:
					kind, detail = statusWarn, status.Detail
				case !status.Available:
					kind, detail = statusError, status.Detail
					failed = true
				}
				fmt.Fprintln(out, renderStatusLine(status.Name, kind, detail, colorize))
			}
			if upscalers == 0 {
				fmt.Fprintln(out, renderStatusLine("Upscalers", statusError, "no ncnn-vulkan upscaler found", colorize))
				failed = true
			}

			fmt.Fprintln(out)
			for _, line := range renderSectionHeader("Environment", colorize) {
				fmt.Fprintln(out, line)
			}
			results := preflight.RunAll(cmd.Context(), cfg, ctx.resolver(), preflight.Inputs{SkipTools: true})
			for _, r := range results {
				kind := statusOK
				if !r.Passed {
					kind = statusError
					failed = true
				}
				fmt.Fprintln(out, renderStatusLine(r.Name, kind, r.Detail, colorize))
			}

			if failed {
				return errors.New("one or more checks failed")
			}
			return nil
		},
	}
}
