package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"squash/internal/acquire"
	"squash/internal/compressor"
	"squash/internal/workflow"
	"squash/pkg/imgutil"
)

// acquirerFor reads the given paths, or opens the picker when there are none.
func acquirerFor(args []string) acquire.Acquirer {
	if len(args) == 0 {
		return acquire.NewPicker(".")
	}
	return acquire.NewPaths(args...)
}

func newController(acq acquire.Acquirer, opts ...workflow.Option) *workflow.Controller {
	base := []workflow.Option{
		workflow.WithLogger(logs.Logger()),
		workflow.WithSchedule(cfg.Search.Schedule()),
		workflow.WithDefaultQuality(cfg.Compress.DefaultQuality),
	}
	return workflow.New(acq, compressor.NewImaging(), append(base, opts...)...)
}

// writeResult decodes img to out, or to "<source>-squashed.<ext>" in the
// working directory when out is empty, and returns the path written.
func writeResult(out, source string, img imgutil.DataURL) (string, error) {
	data, err := img.Bytes()
	if err != nil {
		return "", err
	}
	if out == "" {
		out = defaultOutput(source, img.Kind())
	}
	if err := writeAtomic(out, data); err != nil {
		return "", fmt.Errorf("write %s: %w", out, err)
	}
	return out, nil
}

// writeAtomic writes through a temp file in the destination directory so
// a failed write never leaves a truncated image behind.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "squash-*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Chmod(0o644); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func defaultOutput(source string, kind imgutil.Kind) string {
	base := filepath.Base(source)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stem == "" || stem == "." {
		stem = "image"
	}
	return stem + "-squashed" + extension(kind)
}

func extension(kind imgutil.Kind) string {
	switch kind {
	case imgutil.KindPNG:
		return ".png"
	case imgutil.KindGIF:
		return ".gif"
	case imgutil.KindWebP:
		return ".webp"
	case imgutil.KindBMP:
		return ".bmp"
	default:
		return ".jpg"
	}
}

func printWritten(cmd *cobra.Command, path string, img imgutil.DataURL) {
	shown := path
	if abs, err := filepath.Abs(path); err == nil {
		shown = abs
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Written %s to: %s\n", humanize.Bytes(uint64(imgutil.ByteCount(img))), shown)
}
