package cmd

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"squash/internal/tui"
	"squash/internal/workflow"
	"squash/pkg/imgutil"
)

var (
	compressQuality int
	compressWidth   int
	compressHeight  int
	compressOutput  string
)

var compressCmd = &cobra.Command{
	Use:   "compress [flags] [path]",
	Short: "Compress one image once at a fixed quality",
	Long: "Compress one image once at a fixed quality. --width and --height cap the output\n" +
		"size while keeping the aspect ratio; images are never enlarged.",
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if compressWidth < 0 || compressHeight < 0 {
			return fmt.Errorf("--width and --height must not be negative")
		}
		quality := cfg.Compress.DefaultQuality
		if cmd.Flags().Changed("quality") {
			quality = compressQuality
		}
		if quality < 1 || quality > 100 {
			return fmt.Errorf("--quality must be within 1..100, got %d", quality)
		}

		ctl := newController(acquirerFor(args), workflow.WithDefaultQuality(quality))
		up, out, err := ctl.CompressFile(cmd.Context(), compressWidth, compressHeight)
		if workflow.IsNoInput(err) {
			fmt.Fprintln(cmd.OutOrStdout(), tui.RenderOutcome(workflow.Outcome{Kind: workflow.KindNoInput}))
			return nil
		}
		if err != nil {
			return err
		}

		before := imgutil.ByteCount(up.Image)
		after := imgutil.ByteCount(out)
		fmt.Fprintln(cmd.OutOrStdout(), tui.RenderSummary([]tui.SummaryRow{
			{Label: "Source", Value: up.FileName},
			{Label: "Quality", Value: fmt.Sprint(quality)},
			{Label: "Size before", Value: humanize.Bytes(uint64(before))},
			{Label: "Size after", Value: humanize.Bytes(uint64(after))},
		}))

		path, err := writeResult(compressOutput, up.FileName, out)
		if err != nil {
			return err
		}
		printWritten(cmd, path, out)
		return nil
	},
}

func init() {
	compressCmd.Flags().IntVarP(&compressQuality, "quality", "q", 50, "JPEG quality, 1..100 (default from compress.default_quality)")
	compressCmd.Flags().IntVar(&compressWidth, "width", 0, "maximum output width in pixels, 0 for no cap")
	compressCmd.Flags().IntVar(&compressHeight, "height", 0, "maximum output height in pixels, 0 for no cap")
	compressCmd.Flags().StringVarP(&compressOutput, "output", "o", "", "output file (default <name>-squashed.<ext>)")

	rootCmd.AddCommand(compressCmd)
}
