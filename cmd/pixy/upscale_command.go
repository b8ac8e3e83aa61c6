package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"pixy/internal/config"
	"pixy/internal/cropdetect"
	"pixy/internal/deps"
	"pixy/internal/encoder"
	"pixy/internal/frames"
	"pixy/internal/history"
	"pixy/internal/logging"
	"pixy/internal/media/ffprobe"
	"pixy/internal/pipeline"
	"pixy/internal/preflight"
	"pixy/internal/procexec"
	"pixy/internal/services"
	"pixy/internal/upscaler"
	"pixy/internal/workspace"
)

type upscaleFlags struct {
	input       string
	output      string
	model       string
	scale       int
	width       int
	height      int
	gpu         int
	tileSize    int
	threads     int
	encoder     string
	preset      string
	tune        string
	crf         int
	pixFmt      string
	frameFormat string
	prefilter   string
	container   string
	frameRate   string
	autoCrop    bool
	keepWork    bool
	skipChecks  bool
}

func newUpscaleCommand(ctx *commandContext) *cobra.Command {
	var flags upscaleFlags

	cmd := &cobra.Command{
		Use:   "upscale",
		Short: "Upscale a video file",
		Long: "Extract every frame with ffmpeg, upscale the sequence with the selected model, and\n" +
			"re-encode it while copying audio, subtitle, and attachment streams from the input.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			job, err := buildJob(cmd, ctx, cfg, flags)
			if err != nil {
				return err
			}
			return runUpscale(cmd, ctx, cfg, job, flags.skipChecks)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&flags.input, "input", "i", "", "Input video file")
	f.StringVarP(&flags.output, "output", "o", "", "Output video file")
	f.StringVarP(&flags.model, "model", "m", "", "Upscaler model name (see pixy models)")
	f.IntVar(&flags.scale, "scale", 0, "Expected scale factor (informational; the model decides)")
	f.IntVar(&flags.width, "width", 0, "Final output width")
	f.IntVar(&flags.height, "height", 0, "Final output height")
	f.IntVar(&flags.gpu, "gpu", 0, "GPU index (see pixy devices)")
	f.IntVar(&flags.tileSize, "tile-size", 0, "Upscaler tile size")
	f.IntVar(&flags.threads, "threads", 0, "Upscaler load/proc/save thread count")
	f.StringVar(&flags.encoder, "encoder", "", "Video encoder (hevc-nvenc, libx264, ...)")
	f.StringVar(&flags.preset, "preset", "", "Encoder preset")
	f.StringVar(&flags.tune, "tune", "", "Encoder tune")
	f.IntVar(&flags.crf, "crf", 0, "Encoder quality (-crf)")
	f.StringVar(&flags.pixFmt, "pix-fmt", "", "Output pixel format")
	f.StringVar(&flags.frameFormat, "frame-format", "", "Intermediate frame format (png, webp, bmp)")
	f.StringVar(&flags.prefilter, "prefilter", "", "Filter applied during extraction (none, yadif, hqdn3d, deband)")
	f.StringVar(&flags.container, "container", "", "Output container extension when --output has none")
	f.StringVar(&flags.frameRate, "framerate", "", "Source frame rate; probed from the input when omitted")
	f.BoolVar(&flags.autoCrop, "auto-crop", false, "Detect and remove black bars before upscaling")
	f.BoolVar(&flags.keepWork, "keep-work", false, "Keep the job work directory after a successful run")
	f.BoolVar(&flags.skipChecks, "skip-checks", false, "Skip preflight checks")
	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("output")
	_ = cmd.MarkFlagRequired("model")
	return cmd
}

// buildJob merges flags over config defaults, then fills the frame rate and
// crop from the input when they were not given.
func buildJob(cmd *cobra.Command, ctx *commandContext, cfg *config.Config, flags upscaleFlags) (pipeline.Job, error) {
	cat, err := ctx.catalog()
	if err != nil {
		return pipeline.Job{}, err
	}
	model, err := cat.Resolve(flags.model)
	if err != nil {
		return pipeline.Job{}, err
	}

	changed := cmd.Flags().Changed
	intFlag := func(name string, value int) *int {
		if !changed(name) {
			return nil
		}
		return &value
	}
	pick := func(name, value, fallback string) string {
		if changed(name) {
			return value
		}
		return fallback
	}

	kind, err := encoder.ParseKind(pick("encoder", flags.encoder, cfg.Defaults.Encoder))
	if err != nil {
		return pipeline.Job{}, err
	}
	prefilter, err := frames.ParsePrefilter(pick("prefilter", flags.prefilter, cfg.Defaults.Prefilter))
	if err != nil {
		return pipeline.Job{}, err
	}
	var quality *uint8
	crf := cfg.Defaults.CRF
	if changed("crf") {
		crf = &flags.crf
	}
	if crf != nil {
		if *crf < 0 || *crf > 255 {
			return pipeline.Job{}, services.Wrap(services.ErrInvalidArgument, "", "crf", fmt.Sprintf("crf %d out of range", *crf), nil)
		}
		q := uint8(*crf)
		quality = &q
	}
	gpu := cfg.Defaults.GPU
	if changed("gpu") {
		gpu = flags.gpu
	}

	job := pipeline.Job{
		ID:           uuid.NewString(),
		Input:        flags.input,
		Output:       flags.output,
		Model:        model,
		GPU:          gpu,
		TileSize:     intFlag("tile-size", flags.tileSize),
		Threads:      intFlag("threads", flags.threads),
		TargetWidth:  intFlag("width", flags.width),
		TargetHeight: intFlag("height", flags.height),
		Scale:        intFlag("scale", flags.scale),
		Extract: frames.Options{
			Prefilter: prefilter,
			Format:    pick("frame-format", flags.frameFormat, cfg.Defaults.FrameFormat),
		},
		Encoder: encoder.Options{
			Encoder: kind,
			Preset:  pick("preset", flags.preset, cfg.Defaults.Preset),
			Tune:    pick("tune", flags.tune, cfg.Defaults.Tune),
			Quality: quality,
			PixFmt:  pick("pix-fmt", flags.pixFmt, cfg.Defaults.PixFmt),
		},
		Container:   pick("container", flags.container, cfg.Defaults.Container),
		FrameRate:   strings.TrimSpace(flags.frameRate),
		KeepWorkDir: flags.keepWork || cfg.Defaults.KeepWorkDir,
	}
	if err := job.Validate(); err != nil {
		return pipeline.Job{}, err
	}

	logger := ctx.loggerValue()
	if job.FrameRate == "" {
		job.FrameRate = probeFrameRate(cmd.Context(), logger, ctx.resolver(), job.Input)
	}
	if flags.autoCrop || cfg.Defaults.AutoCrop {
		job.Crop = detectCrop(cmd.Context(), logger, job.Input)
	}
	return job, nil
}

func probeFrameRate(ctx context.Context, logger *slog.Logger, resolver *deps.Resolver, input string) string {
	result, err := ffprobe.Prober{Resolver: resolver}.Inspect(ctx, input)
	if err != nil {
		logging.WarnWithContext(logger, "frame rate probe failed", "framerate_probe_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "pass --framerate explicitly"),
		)
		return ""
	}
	rate, ok := result.FrameRate()
	if !ok {
		logging.WarnWithContext(logger, "input reports no frame rate", "framerate_missing",
			logging.String("input", input),
			logging.String(logging.FieldErrorHint, "pass --framerate explicitly"),
		)
		return ""
	}
	return rate
}

func detectCrop(ctx context.Context, logger *slog.Logger, input string) string {
	result, err := cropdetect.Detect(ctx, input)
	if err != nil {
		logging.WarnWithContext(logger, "crop detection failed; continuing uncropped", "crop_detection_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "black bars are upscaled too"),
		)
		return ""
	}
	logger.Info("crop detection", logging.String("result", result.Describe()), logging.String("message", result.Message))
	return result.Filter()
}

func runUpscale(cmd *cobra.Command, ctx *commandContext, cfg *config.Config, job pipeline.Job, skipChecks bool) error {
	runCtx := cmd.Context()
	logger := ctx.loggerValue()
	resolver := ctx.resolver()
	out := cmd.OutOrStdout()

	if !skipChecks {
		binary, err := upscaler.BinaryName(job.Model.Family)
		if err != nil {
			return err
		}
		results := preflight.RunAll(runCtx, cfg, resolver, preflight.Inputs{
			Input:  job.Input,
			Output: pipeline.OutputPath(job),
			Tools:  []string{deps.FFmpeg, deps.FFprobe, binary},
		})
		if preflight.Failed(results) {
			colorize := shouldColorize(cmd.ErrOrStderr())
			for _, r := range results {
				if !r.Passed {
					fmt.Fprintln(cmd.ErrOrStderr(), renderStatusLine(r.Name, statusError, r.Detail, colorize))
				}
			}
			return errors.New("preflight checks failed (use --skip-checks to override)")
		}
	}

	store := openHistory(cfg, logger)
	if store != nil {
		defer store.Close()
	}
	recordHistory(runCtx, logger, store, func(ctx context.Context) error {
		_, err := store.Begin(ctx, history.Entry{
			ID:      job.ID,
			Input:   job.Input,
			Output:  pipeline.OutputPath(job),
			Model:   job.Model.Name,
			Encoder: job.Encoder.Encoder.String(),
			WorkDir: filepath.Join(cfg.Paths.WorkDir, job.ID),
		})
		return err
	})

	orch := &pipeline.Orchestrator{
		Runner:    procexec.ExecRunner{},
		Resolver:  resolver,
		Workspace: workspace.NewManager(cfg.Paths.WorkDir),
		Logger:    logger,
		Progress: func(p pipeline.Progress) {
			printProgress(cmd.ErrOrStderr(), p)
			if p.Fraction == 0 || p.Stage != pipeline.StageEncode {
				recordHistory(runCtx, logger, store, func(ctx context.Context) error {
					return store.UpdateStage(ctx, job.ID, nextStage(p))
				})
			}
		},
	}

	result, runErr := orch.Run(runCtx, job)
	recordHistory(context.WithoutCancel(runCtx), logger, store, func(ctx context.Context) error {
		return store.Finish(ctx, job.ID, runErr)
	})
	if runErr != nil {
		if result.WorkDir != "" {
			fmt.Fprintf(cmd.ErrOrStderr(), "Work directory kept at %s\n", result.WorkDir)
		}
		return runErr
	}

	fmt.Fprintf(out, "Wrote %s in %s\n", result.Output, formatElapsed(result.Elapsed))
	if result.Kept {
		fmt.Fprintf(out, "Work directory: %s\n", result.WorkDir)
	}
	return nil
}

// nextStage is the stage that starts after the boundary p reports.
func nextStage(p pipeline.Progress) string {
	if p.Fraction == 0 {
		return p.Stage
	}
	switch p.Stage {
	case pipeline.StageExtract:
		return pipeline.StageUpscale
	case pipeline.StageUpscale:
		return pipeline.StageEncode
	default:
		return p.Stage
	}
}

func printProgress(w io.Writer, p pipeline.Progress) {
	fmt.Fprintf(w, "[%3.0f%%] %s\n", p.Fraction*100, p.Stage)
}

func openHistory(cfg *config.Config, logger *slog.Logger) *history.Store {
	store, err := history.Open(cfg)
	if err != nil {
		logging.WarnWithContext(logger, "job history unavailable", "history_open_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "this run is not recorded"),
		)
		return nil
	}
	return store
}

// recordHistory runs fn against store, logging failures. History never fails a job.
func recordHistory(ctx context.Context, logger *slog.Logger, store *history.Store, fn func(context.Context) error) {
	if store == nil {
		return
	}
	if err := fn(ctx); err != nil {
		logging.WarnWithContext(logger, "job history write failed", "history_write_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "history may be incomplete"),
		)
	}
}
