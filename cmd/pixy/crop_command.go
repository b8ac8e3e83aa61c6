package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"pixy/internal/cropdetect"
)

func newCropCommand() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "crop <file>",
		Short: "Detect black bars and suggest a crop filter",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := cropdetect.Detect(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, result)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Source:   %dx%d (HDR: %s)\n", result.Width, result.Height, yesNo(result.HDR))
			fmt.Fprintf(out, "Samples:  %d\n", result.Samples)
			fmt.Fprintf(out, "Result:   %s\n", result.Describe())
			if filter := result.Filter(); filter != "" {
				fmt.Fprintf(out, "Filter:   %s\n", filter)
			}
			if result.MultipleRatios {
				fmt.Fprintln(out, "Note:     multiple aspect ratios detected; cropping skipped")
			}
			if hint := result.Suggestion(); hint != "" {
				fmt.Fprintf(out, "Hint:     %s\n", hint)
			}
			if len(result.Candidates) > 0 {
				rows := make([][]string, 0, len(result.Candidates))
				for _, c := range result.Candidates {
					rows = append(rows, []string{c.Crop, strconv.Itoa(c.Count), fmt.Sprintf("%.1f%%", c.Percent)})
				}
				fmt.Fprintln(out, renderTable([]string{"Crop", "Samples", "Share"}, rows,
					[]columnAlignment{alignLeft, alignRight, alignRight}))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}
