package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"pixy/internal/media/ffprobe"
)

func newProbeCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "probe <file>",
		Short: "Show the streams of a media file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prober := ffprobe.Prober{Resolver: ctx.resolver()}
			result, err := prober.Inspect(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if jsonOutput {
				_, err := out.Write(result.RawJSON())
				return err
			}

			rows := make([][]string, 0, len(result.Streams))
			for _, s := range result.Streams {
				detail := ""
				switch s.CodecType {
				case "video":
					detail = fmt.Sprintf("%dx%d %s", s.Width, s.Height, s.PixFmt)
				case "audio":
					detail = fmt.Sprintf("%d ch %s Hz", s.Channels, s.SampleRate)
				}
				rows = append(rows, []string{
					strconv.Itoa(s.Index),
					s.CodecType,
					orDash(s.CodecName),
					orDash(strings.TrimSpace(detail)),
					orDash(ffprobe.LanguageName(s.Language())),
				})
			}
			fmt.Fprintf(out, "File:      %s\n", args[0])
			fmt.Fprintf(out, "Format:    %s\n", orDash(result.Format.FormatName))
			fmt.Fprintf(out, "Duration:  %.2fs\n", result.DurationSeconds())
			if rate, ok := result.FrameRate(); ok {
				fmt.Fprintf(out, "Framerate: %s\n", rate)
			}
			fmt.Fprintln(out, renderTable(
				[]string{"#", "Type", "Codec", "Detail", "Lang"},
				rows,
				[]columnAlignment{alignRight},
			))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the raw ffprobe JSON")
	return cmd
}
