package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newModelsCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "models",
		Short: "List available upscaler models",
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := ctx.catalog()
			if err != nil {
				return err
			}
			models := cat.All()
			if jsonOutput {
				return writeJSON(cmd, models)
			}
			rows := make([][]string, 0, len(models))
			for _, m := range models {
				denoise := "-"
				if m.DenoiseLevel != nil {
					denoise = strconv.Itoa(*m.DenoiseLevel)
				}
				rows = append(rows, []string{m.Name, m.Family.String(), strconv.Itoa(m.Scale) + "x", denoise, orDash(m.Description)})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Model", "Family", "Scale", "Denoise", "Description"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}
