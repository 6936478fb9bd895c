package cmd

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"squash/internal/acquire"
	"squash/internal/tui"
	"squash/internal/workflow"
	"squash/pkg/imgutil"
)

var uploadCmd = &cobra.Command{
	Use:   "upload [path]",
	Short: "Read one image and report its orientation and size",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctl := newController(acquirerFor(args))
		up, err := ctl.UploadFile(cmd.Context())
		if workflow.IsNoInput(err) {
			fmt.Fprintln(cmd.OutOrStdout(), tui.RenderOutcome(workflow.Outcome{Kind: workflow.KindNoInput}))
			return nil
		}
		if err != nil {
			return err
		}
		printUpload(cmd, up)
		return nil
	},
}

var uploadMultipleCmd = &cobra.Command{
	Use:   "upload-multiple [path...]",
	Short: "Read several images and report each one",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctl := newController(acquirerFor(args))
		uploads, err := ctl.UploadMultipleFiles(cmd.Context())
		if workflow.IsNoInput(err) {
			fmt.Fprintln(cmd.OutOrStdout(), tui.RenderOutcome(workflow.Outcome{Kind: workflow.KindNoInput}))
			return nil
		}
		if err != nil {
			return err
		}
		for i, up := range uploads {
			if i > 0 {
				fmt.Fprintln(cmd.OutOrStdout())
			}
			printUpload(cmd, up)
		}
		return nil
	},
}

func printUpload(cmd *cobra.Command, up acquire.Upload) {
	fmt.Fprintln(cmd.OutOrStdout(), uploadNameStyle.Render(up.FileName))
	fmt.Fprintln(cmd.OutOrStdout(), tui.RenderSummary([]tui.SummaryRow{
		{Label: "Format", Value: up.Kind.String()},
		{Label: "Orientation", Value: up.Orientation.String()},
		{Label: "Size", Value: humanize.Bytes(uint64(imgutil.ByteCount(up.Image)))},
		{Label: "Data", Value: up.Image.Prefix(50) + "..."},
	}))
}

var uploadNameStyle = lipgloss.NewStyle().Bold(true).Foreground(tui.ColorAccentAlt)

func init() {
	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(uploadMultipleCmd)
}
