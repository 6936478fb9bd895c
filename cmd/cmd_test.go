package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"squash/internal/imagetest"
	"squash/internal/search"
	"squash/pkg/imgutil"
)

func TestParseBudget(t *testing.T) {
	n, err := parseBudget("100KB")
	require.NoError(t, err)
	assert.Equal(t, 100000, n)

	n, err = parseBudget("1MiB")
	require.NoError(t, err)
	assert.Equal(t, 1<<20, n)

	_, err = parseBudget("")
	assert.Error(t, err)
	_, err = parseBudget("0")
	assert.Error(t, err)
	_, err = parseBudget("lots")
	assert.Error(t, err)
}

func TestDefaultOutput(t *testing.T) {
	assert.Equal(t, "photo-squashed.jpg", defaultOutput("/tmp/photo.jpeg", imgutil.KindJPEG))
	assert.Equal(t, "shot-squashed.png", defaultOutput("shot.png", imgutil.KindPNG))
	assert.Equal(t, "image-squashed.jpg", defaultOutput("", imgutil.KindJPEG))
}

func workspace(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("SQUASH_CONFIG_DIR", "")
	t.Chdir(dir)

	src := filepath.Join(dir, "noise.jpg")
	require.NoError(t, os.WriteFile(src, imagetest.JPEG(imagetest.Noise(64, 48, 7), 95), 0o644))
	return dir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestCompressCommandWritesOutput(t *testing.T) {
	dir := workspace(t)
	dest := filepath.Join(dir, "out", "small.jpg")

	out, err := execute(t, "compress", "noise.jpg", "--width", "32", "-o", dest)
	require.NoError(t, err)

	assert.Contains(t, out, "Size after")
	kind, err := imgutil.SniffFile(dest)
	require.NoError(t, err)
	assert.Equal(t, imgutil.KindJPEG, kind)
}

func TestMaxSizeCommand(t *testing.T) {
	dir := workspace(t)
	dest := filepath.Join(dir, "fit.jpg")

	out, err := execute(t, "maxsize", "--max-size", "1MB", "noise.jpg", "-o", dest)
	require.NoError(t, err)
	assert.Contains(t, out, "satisfied")
	assert.FileExists(t, dest)

	_, err = execute(t, "maxsize", "--max-size", "10B", "noise.jpg")
	assert.ErrorIs(t, err, search.ErrBudgetExhausted)
}

func TestCaptureCommandFromStill(t *testing.T) {
	dir := workspace(t)
	dest := filepath.Join(dir, "snap.jpg")

	out, err := execute(t, "capture", "--still", "noise.jpg", "--facing", "environment", "--compress", "-o", dest)
	require.NoError(t, err)
	assert.Contains(t, out, "Compressed")
	assert.FileExists(t, dest)
}

func TestCaptureCommandRejectsUnknownFacing(t *testing.T) {
	dir := workspace(t)
	dest := filepath.Join(dir, "never.jpg")

	_, err := execute(t, "capture", "--still", "noise.jpg", "--facing", "sideways", "-o", dest)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sideways")
	assert.NoFileExists(t, dest)
}

func TestWriteAtomicLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a", "b.bin")

	require.NoError(t, writeAtomic(path, []byte("first")))
	require.NoError(t, writeAtomic(path, []byte("second")))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second", string(got))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
