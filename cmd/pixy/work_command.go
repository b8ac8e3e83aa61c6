package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"pixy/internal/workspace"
)

func newWorkCommand(ctx *commandContext) *cobra.Command {
	workCmd := &cobra.Command{
		Use:   "work",
		Short: "Inspect and clean job work directories",
	}
	workCmd.AddCommand(newWorkListCommand(ctx))
	workCmd.AddCommand(newWorkPruneCommand(ctx))
	return workCmd
}

func newWorkListCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List job work directories",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			entries, err := workspace.NewManager(cfg.Paths.WorkDir).List()
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, entries)
			}
			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintf(out, "No work directories under %s\n", cfg.Paths.WorkDir)
				return nil
			}
			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				state := "idle"
				if e.Locked {
					state = "running"
				}
				rows = append(rows, []string{e.JobID, state, e.ModTime.Local().Format("2006-01-02 15:04"), e.Path})
			}
			fmt.Fprintln(out, renderTable([]string{"Job", "State", "Modified", "Path"}, rows, nil))
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newWorkPruneCommand(ctx *commandContext) *cobra.Command {
	var olderThan time.Duration

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete idle work directories left by failed or kept jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			result, err := workspace.NewManager(cfg.Paths.WorkDir).Prune(olderThan)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, e := range result.Removed {
				fmt.Fprintf(out, "Removed %s\n", e.Path)
			}
			for _, e := range result.Skipped {
				fmt.Fprintf(out, "Skipped %s (job running)\n", e.Path)
			}
			fmt.Fprintf(out, "Pruned %d work director%s\n", len(result.Removed), plural(len(result.Removed), "y", "ies"))
			return nil
		},
	}
	cmd.Flags().DurationVar(&olderThan, "older-than", 24*time.Hour, "Only prune directories untouched for at least this long")
	return cmd
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
