package cmd

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"squash/internal/acquire"
	"squash/internal/capture"
	"squash/internal/search"
	"squash/internal/tui"
	"squash/pkg/imgutil"
)

var (
	captureURL        string
	captureStill      string
	captureFacing     string
	captureCompress   bool
	captureMaxSize    string
	captureBestEffort bool
	captureOutput     string
)

var captureCmd = &cobra.Command{
	Use:   "capture [flags]",
	Short: "Take a snapshot from a camera stream and optionally compress it",
	Long: "Open an MJPEG camera stream (--url, or capture.url in the config), wait for the first\n" +
		"frame, take one snapshot and release the camera. --still replays an image file as\n" +
		"the camera. --compress runs one pass at the default quality; --max-size runs the\n" +
		"budget search instead.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		constraints := cfg.Capture.Constraints()
		if cmd.Flags().Changed("facing") {
			facing, err := capture.ParseFacing(captureFacing)
			if err != nil {
				return fmt.Errorf("--%w", err)
			}
			constraints.Facing = facing
		}

		source, err := captureSource(cmd)
		if err != nil {
			return err
		}
		session := capture.NewSession(source,
			capture.WithReadyTimeout(cfg.Capture.ReadyTimeout),
			capture.WithSnapshotQuality(cfg.Capture.SnapshotQuality),
			capture.WithLogger(logs.Logger()),
		)
		acq := acquire.NewCapture(session, constraints)

		if captureMaxSize != "" {
			budget, err := parseBudget(captureMaxSize)
			if err != nil {
				return err
			}
			out := runMaxSize(cmd, acq, search.Budget{MaxBytes: budget, AcceptBestEffort: captureBestEffort}, false)
			return reportMaxSize(cmd, out, budget, captureOutput)
		}

		ctl := newController(acq)
		var (
			up  acquire.Upload
			img imgutil.DataURL
		)
		if captureCompress {
			up, img, err = ctl.CompressFile(cmd.Context(), 0, 0)
		} else {
			up, err = ctl.UploadFile(cmd.Context())
			img = up.Image
		}
		if err != nil {
			return err
		}

		rows := []tui.SummaryRow{
			{Label: "Snapshot", Value: up.FileName},
			{Label: "Size", Value: humanize.Bytes(uint64(imgutil.ByteCount(up.Image)))},
		}
		if captureCompress {
			rows = append(rows, tui.SummaryRow{Label: "Compressed", Value: humanize.Bytes(uint64(imgutil.ByteCount(img)))})
		}
		fmt.Fprintln(cmd.OutOrStdout(), tui.RenderSummary(rows))

		path, err := writeResult(captureOutput, up.FileName, img)
		if err != nil {
			return err
		}
		printWritten(cmd, path, img)
		return nil
	},
}

func captureSource(cmd *cobra.Command) (capture.Source, error) {
	if captureStill != "" {
		if cmd.Flags().Changed("url") {
			return nil, fmt.Errorf("--still cannot be used with --url")
		}
		return capture.NewStillSourceFromFile(captureStill)
	}
	url := cfg.Capture.URL
	if cmd.Flags().Changed("url") {
		url = captureURL
	}
	if url == "" {
		return nil, fmt.Errorf("no camera configured: pass --url, set capture.url, or use --still")
	}
	return &capture.MJPEGSource{URL: url, Logger: logs.Logger()}, nil
}

func init() {
	captureCmd.Flags().StringVar(&captureURL, "url", "", "MJPEG stream URL (default from capture.url)")
	captureCmd.Flags().StringVar(&captureStill, "still", "", "use an image file as the camera")
	captureCmd.Flags().StringVar(&captureFacing, "facing", "user", "preferred camera: user or environment")
	captureCmd.Flags().BoolVar(&captureCompress, "compress", false, "compress the snapshot once at the default quality")
	captureCmd.Flags().StringVar(&captureMaxSize, "max-size", "", "search for an encoding within this byte budget")
	captureCmd.Flags().BoolVar(&captureBestEffort, "best-effort", false, "with --max-size, keep the closest result")
	captureCmd.Flags().StringVarP(&captureOutput, "output", "o", "", "output file (default capture-<time>-squashed.jpg)")

	rootCmd.AddCommand(captureCmd)
}
