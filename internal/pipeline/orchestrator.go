package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"pixy/internal/deps"
	"pixy/internal/frames"
	"pixy/internal/logging"
	"pixy/internal/procexec"
	"pixy/internal/services"
	"pixy/internal/upscaler"
	"pixy/internal/workspace"
)

// Stage names, also used as the services stage label for each invocation.
const (
	StageExtract = "extract"
	StageUpscale = "upscale"
	StageEncode  = "encode"
)

// Progress is a stage boundary notification. Fraction is in [0,1].
type Progress struct {
	Stage    string  `json:"stage"`
	Fraction float64 `json:"fraction"`
}

// Result describes a finished run, successful or not.
type Result struct {
	JobID    string           `json:"job_id"`
	Output   string           `json:"output"`
	WorkDir  string           `json:"work_dir"`
	Kept     bool             `json:"work_dir_kept"`
	Commands []procexec.Entry `json:"commands"`
	Elapsed  time.Duration    `json:"elapsed"`
}

// Orchestrator runs extract, upscale, and encode for one job at a time.
type Orchestrator struct {
	Runner    procexec.Runner
	Resolver  *deps.Resolver
	Workspace *workspace.Manager
	Logger    *slog.Logger
	// Progress, when set, is called synchronously at each stage boundary.
	Progress func(Progress)
}

// Run executes job. Stages run strictly in order and the first failure aborts
// the run. A failed run keeps its work directory for inspection; a successful
// one removes it unless job.KeepWorkDir is set.
func (o *Orchestrator) Run(ctx context.Context, job Job) (Result, error) {
	start := time.Now()
	if err := job.Validate(); err != nil {
		return Result{}, err
	}
	if o.Workspace == nil {
		return Result{}, services.Wrap(services.ErrInvalidArgument, "pipeline", "run", "workspace manager not configured", nil)
	}

	dir, err := o.Workspace.Acquire(job.ID)
	if err != nil {
		return Result{}, err
	}
	ctx = services.WithJobID(ctx, dir.JobID)

	logger := logging.WithContext(ctx, logging.NewComponentLogger(o.Logger, "pipeline"))
	var jobLog io.Closer
	if teed, closer, logErr := logging.OpenJobLog(logger, dir.LogPath()); logErr == nil {
		logger, jobLog = teed, closer
	} else {
		logging.WarnWithContext(logger, "job log unavailable", "job_log_open_failed",
			logging.Error(logErr),
			logging.String(logging.FieldImpact, "job details only go to the main log"),
		)
	}

	recorder := procexec.NewRecording(o.Runner)
	result := Result{JobID: dir.JobID, Output: OutputPath(job), WorkDir: dir.Root}

	logger.Info("upscale job started",
		logging.String(logging.FieldEventType, "job_started"),
		logging.String("input", job.Input),
		logging.String("output", result.Output),
		logging.String("work_dir", dir.Root),
		logging.Group("job",
			logging.String("model", job.Model.Name),
			logging.Int("scale", job.Model.Scale),
			logging.Int("gpu", job.GPU),
			logging.String("encoder", job.Encoder.Encoder.Codec()),
			logging.Bool("keep_work_dir", job.KeepWorkDir),
		),
	)

	runErr := o.runStages(ctx, logger, recorder, dir, job)

	result.Commands = recorder.Entries()
	result.Elapsed = time.Since(start)

	if runErr != nil {
		logging.ErrorWithContext(logger, "upscale job failed", "job_failed",
			logging.Error(runErr),
			logging.String("error_kind", services.Kind(runErr)),
			logging.String(logging.FieldErrorHint, "inspect the work directory and job.log"),
			logging.String("work_dir", dir.Root),
		)
		closeQuietly(jobLog)
		_ = dir.Release()
		result.Kept = true
		return result, runErr
	}

	logger.Info("upscale job finished",
		logging.String(logging.FieldEventType, "job_finished"),
		logging.String("output", result.Output),
		logging.Duration("elapsed", result.Elapsed),
	)
	closeQuietly(jobLog)
	if job.KeepWorkDir {
		_ = dir.Release()
		result.Kept = true
		return result, nil
	}
	if err := dir.Remove(); err != nil {
		logging.WarnWithContext(logger, "failed to remove work directory", "work_dir_cleanup_failed",
			logging.Error(err),
			logging.String("work_dir", dir.Root),
			logging.String(logging.FieldErrorHint, "run pixy work prune"),
			logging.String(logging.FieldImpact, "disk space is not reclaimed"),
		)
		result.Kept = true
	}
	return result, nil
}

func (o *Orchestrator) runStages(ctx context.Context, logger *slog.Logger, runner procexec.Runner, dir *workspace.Dir, job Job) error {
	sampler := logging.NewProgressSampler(5)
	report := func(stage string, fraction float64) {
		if sampler.ShouldLog(fraction*100, stage) {
			logger.Info("progress",
				logging.String(logging.FieldStage, stage),
				logging.Float64("fraction", fraction),
			)
		}
		if o.Progress != nil {
			o.Progress(Progress{Stage: stage, Fraction: fraction})
		}
	}

	bin := job.Upscaler
	if bin.Path == "" {
		found, err := upscaler.Find(o.Resolver, job.Model.Family)
		if err != nil {
			return err
		}
		bin = found
	}

	if err := os.MkdirAll(filepath.Dir(OutputPath(job)), 0o755); err != nil {
		return services.Wrap(services.ErrIO, StageEncode, "create output dir", filepath.Dir(OutputPath(job)), err)
	}

	report(StageExtract, 0)
	extractor := frames.Extractor{Resolver: o.Resolver, Runner: runner}
	pattern, err := extractor.Extract(services.WithStage(ctx, StageExtract), job.Input, dir.Frames, job.extractOptions())
	if err != nil {
		return err
	}
	report(StageExtract, 1.0/3)

	if err := ctx.Err(); err != nil {
		return err
	}
	upscaled := filepath.Join(dir.Upscaled, filepath.Base(pattern))
	req := upscaler.Request{
		Input:    pattern,
		Output:   upscaled,
		GPU:      job.GPU,
		TileSize: job.TileSize,
		Threads:  job.Threads,
		Model:    job.Model,
	}
	if err := (upscaler.Invoker{Runner: runner}).Run(services.WithStage(ctx, StageUpscale), bin, req); err != nil {
		return err
	}
	report(StageUpscale, 2.0/3)

	if err := ctx.Err(); err != nil {
		return err
	}
	ffmpeg, err := o.Resolver.Resolve(deps.FFmpeg)
	if err != nil {
		return err
	}
	rate := job.FrameRate
	if rate == "" {
		rate = FallbackFrameRate
		logging.WarnWithContext(logger, "source frame rate unknown; encoding at fixed rate", "framerate_fallback",
			logging.String("framerate", rate),
			logging.Alert("fixed_framerate"),
			logging.String(logging.FieldErrorHint, "pass --framerate or make sure ffprobe can read the input"),
			logging.String(logging.FieldImpact, "output duration may not match the source"),
		)
	}
	cmd := procexec.Command{Name: deps.FFmpeg, Path: ffmpeg, Args: EncodeArgs(job, upscaled, rate)}
	logger.Debug("encode command", logging.String("command", cmd.String()))
	if _, err := runner.Run(services.WithStage(ctx, StageEncode), cmd); err != nil {
		return err
	}
	report(StageEncode, 1)
	return nil
}

func closeQuietly(c io.Closer) {
	if c != nil {
		_ = c.Close()
	}
}

// IsCancelled reports whether err came from context cancellation.
func IsCancelled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
