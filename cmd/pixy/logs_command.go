package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"pixy/internal/history"
	"pixy/internal/logging"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var lines int
	var follow bool

	cmd := &cobra.Command{
		Use:   "logs [job-id]",
		Short: "Show the pixy log, or the log of one job",
		Long: "Without arguments, print the end of pixy.log in the log directory. With a job id\n" +
			"(or unique prefix), print that job's job.log from its work directory, which only\n" +
			"exists while the directory is kept.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			path := filepath.Join(cfg.Paths.LogDir, logging.LogFileName)
			if len(args) == 1 {
				path, err = jobLogPath(cmd, ctx, args[0])
				if err != nil {
					return err
				}
			}

			tail, offset, err := logging.Tail(path, lines)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, line := range tail {
				fmt.Fprintln(out, line)
			}
			if !follow {
				return nil
			}
			return logging.Follow(cmd.Context(), path, offset, 250*time.Millisecond, func(line string) {
				fmt.Fprintln(out, line)
			})
		},
	}

	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of trailing lines to show")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing lines as they are written")
	return cmd
}

func jobLogPath(cmd *cobra.Command, ctx *commandContext, id string) (string, error) {
	var path string
	err := withHistory(ctx, func(store *history.Store) error {
		run, err := store.Get(cmd.Context(), id)
		if errors.Is(err, history.ErrNotFound) {
			return fmt.Errorf("no job matches %q", id)
		}
		if err != nil {
			return err
		}
		if run.WorkDir == "" {
			return fmt.Errorf("job %s has no recorded work directory", run.ID)
		}
		path = filepath.Join(run.WorkDir, "job.log")
		return nil
	})
	return path, err
}
