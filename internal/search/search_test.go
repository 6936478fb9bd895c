package search

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"squash/internal/compressor"
	"squash/internal/imagetest"
	"squash/internal/orientation"
	"squash/pkg/imgutil"
)

const header = "data:image/jpeg;base64,"

// sizedImage builds a data URL whose ByteCount is exactly size and whose
// payload starts with the call number, so equal sizes stay distinguishable.
func sizedImage(call, size int) imgutil.DataURL {
	tag := fmt.Sprintf("%04d", call)
	return imgutil.DataURL(header + tag + strings.Repeat("A", size-len(header)-len(tag)))
}

type call struct {
	Quality   int
	MaxWidth  int
	MaxHeight int
}

// scripted returns sizes in order and repeats the last one once the
// script runs out.
type scripted struct {
	sizes []int
	calls []call
}

func (s *scripted) Compress(_ context.Context, _ imgutil.DataURL, _ orientation.Orientation, quality, maxWidth, maxHeight int) (imgutil.DataURL, error) {
	s.calls = append(s.calls, call{Quality: quality, MaxWidth: maxWidth, MaxHeight: maxHeight})
	n := len(s.calls)
	size := s.sizes[len(s.sizes)-1]
	if n <= len(s.sizes) {
		size = s.sizes[n-1]
	}
	return sizedImage(n, size), nil
}

func newSearcher(t *testing.T, c compressor.Compressor, opts ...Option) *Searcher {
	t.Helper()
	s, err := New(c, DefaultSchedule(), opts...)
	require.NoError(t, err)
	return s
}

var source = Input{Image: sizedImage(0, 500000), Orientation: orientation.Up}

func TestRunStopsAtFirstAttemptWithinBudget(t *testing.T) {
	fake := &scripted{sizes: []int{480000, 300000, 150000, 90000, 80000}}
	s := newSearcher(t, fake)

	res, err := s.Run(context.Background(), source, Budget{MaxBytes: 100000})
	require.NoError(t, err)

	assert.Equal(t, Satisfied, res.Outcome)
	assert.Equal(t, 90000, imgutil.ByteCount(res.Image))
	assert.Equal(t, 30, res.Best.Quality)
	assert.Len(t, fake.calls, 4)
	assert.NoError(t, res.Err())

	want := []call{{Quality: 90}, {Quality: 70}, {Quality: 50}, {Quality: 30}}
	if diff := cmp.Diff(want, fake.calls); diff != "" {
		t.Fatalf("compress calls mismatch (-want +got):\n%s", diff)
	}
}

func TestRunBestEffortAtQualityFloor(t *testing.T) {
	fake := &scripted{sizes: []int{480000, 300000, 150000, 90000, 80000}}
	s := newSearcher(t, fake)

	res, err := s.Run(context.Background(), source, Budget{MaxBytes: 1000, AcceptBestEffort: true})
	require.NoError(t, err)

	assert.Equal(t, BestEffort, res.Outcome)
	assert.Equal(t, 80000, imgutil.ByteCount(res.Image))
	assert.Len(t, fake.calls, 5, "unknown source dimensions leave only the quality knob")
	assert.NoError(t, res.Err())
}

func TestRunExhaustedCarriesBestImage(t *testing.T) {
	fake := &scripted{sizes: []int{480000, 300000, 150000, 90000, 80000}}
	s := newSearcher(t, fake)

	res, err := s.Run(context.Background(), source, Budget{MaxBytes: 1000})
	require.NoError(t, err)

	assert.Equal(t, Exhausted, res.Outcome)
	assert.Equal(t, 80000, imgutil.ByteCount(res.Image))
	assert.ErrorIs(t, res.Err(), ErrBudgetExhausted)
}

func TestRunShrinksDimensionsUntilIterationCap(t *testing.T) {
	fake := &scripted{sizes: []int{480000, 300000, 150000, 90000, 80000}}
	s := newSearcher(t, fake)

	in := source
	in.Width, in.Height = 4000, 3000
	res, err := s.Run(context.Background(), in, Budget{MaxBytes: 1000, AcceptBestEffort: true})
	require.NoError(t, err)

	assert.Equal(t, BestEffort, res.Outcome)
	assert.Len(t, fake.calls, DefaultSchedule().MaxIterations)
	assert.Equal(t, 5, res.Best.Index, "ties keep the earliest smallest attempt")
	assert.Equal(t, sizedImage(5, 80000), res.Image)

	assert.Equal(t, call{Quality: 10, MaxWidth: 3000, MaxHeight: 2250}, fake.calls[5])
	assert.Equal(t, call{Quality: 10, MaxWidth: 2250, MaxHeight: 1687}, fake.calls[6])
}

func TestRunReturnsSmallestNotLast(t *testing.T) {
	fake := &scripted{sizes: []int{9000, 4000, 7000, 6000, 5000}}
	s := newSearcher(t, fake)

	res, err := s.Run(context.Background(), source, Budget{MaxBytes: 100, AcceptBestEffort: true})
	require.NoError(t, err)

	require.Equal(t, BestEffort, res.Outcome)
	for _, a := range res.Attempts {
		assert.LessOrEqual(t, res.Best.Size, a.Size)
	}
	assert.Equal(t, 2, res.Best.Index)
}

func TestRunParametersAreMonotonic(t *testing.T) {
	for _, budget := range []int{1, 50, 5000, 50000} {
		t.Run(fmt.Sprint(budget), func(t *testing.T) {
			fake := &scripted{sizes: []int{90000, 70000, 60000, 40000, 20000, 10000, 8000, 4000, 2000, 1000}}
			s := newSearcher(t, fake)

			in := source
			in.Width, in.Height = 640, 480
			res, err := s.Run(context.Background(), in, Budget{MaxBytes: budget, AcceptBestEffort: true})
			require.NoError(t, err)
			require.LessOrEqual(t, len(res.Attempts), DefaultSchedule().MaxIterations)

			for i := 1; i < len(res.Attempts); i++ {
				prev, cur := res.Attempts[i-1], res.Attempts[i]
				assert.LessOrEqual(t, cur.Quality, prev.Quality)
				assert.True(t, capAtMost(cur.MaxWidth, prev.MaxWidth), "width cap grew: %d -> %d", prev.MaxWidth, cur.MaxWidth)
				assert.True(t, capAtMost(cur.MaxHeight, prev.MaxHeight), "height cap grew: %d -> %d", prev.MaxHeight, cur.MaxHeight)
				assert.False(t, cur.Quality == prev.Quality && cur.MaxWidth == prev.MaxWidth && cur.MaxHeight == prev.MaxHeight, "attempt %d repeated parameters", cur.Index)
			}
		})
	}
}

// capAtMost treats 0 as "uncapped".
func capAtMost(cur, prev int) bool {
	if prev == 0 {
		return true
	}
	return cur != 0 && cur <= prev
}

func TestRunAbortsOnPrimitiveFailure(t *testing.T) {
	boom := &compressor.PrimitiveError{Stage: "decode", Quality: 70, Err: errors.New("corrupt")}
	calls := 0
	fake := compressor.Func(func(_ context.Context, _ imgutil.DataURL, _ orientation.Orientation, quality, _, _ int) (imgutil.DataURL, error) {
		calls++
		if calls == 2 {
			return "", boom
		}
		return sizedImage(calls, 400000), nil
	})
	s := newSearcher(t, fake)

	res, err := s.Run(context.Background(), source, Budget{MaxBytes: 1000, AcceptBestEffort: true})
	require.Error(t, err)

	var perr *compressor.PrimitiveError
	assert.True(t, errors.As(err, &perr))
	assert.Equal(t, 2, calls)
	assert.Len(t, res.Attempts, 1)
}

func TestRunStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	fake := &scripted{sizes: []int{480000}}
	s := newSearcher(t, fake, WithObserver(func(Attempt) { cancel() }))

	_, err := s.Run(ctx, source, Budget{MaxBytes: 1000})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, fake.calls, 1)
}

func TestRunObserverSeesEveryAttempt(t *testing.T) {
	fake := &scripted{sizes: []int{480000, 300000, 90000}}
	var seen []int
	s := newSearcher(t, fake, WithObserver(func(a Attempt) { seen = append(seen, a.Index) }))

	_, err := s.Run(context.Background(), source, Budget{MaxBytes: 100000})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, seen)
}

func TestRunRejectsInvalidBudget(t *testing.T) {
	s := newSearcher(t, &scripted{sizes: []int{1}})
	_, err := s.Run(context.Background(), source, Budget{MaxBytes: 0})
	assert.ErrorIs(t, err, ErrInvalidBudget)
}

func TestNewValidatesSchedule(t *testing.T) {
	bad := DefaultSchedule()
	bad.MaxIterations = 0
	bad.ScaleFactor = 1
	_, err := New(&scripted{sizes: []int{1}}, bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max iterations")
	assert.Contains(t, err.Error(), "scale factor")

	_, err = New(nil, DefaultSchedule())
	assert.Error(t, err)
}

func TestRunWithImagingCompressor(t *testing.T) {
	data := imagetest.JPEG(imagetest.Noise(96, 64, 11), 100)
	in := Input{
		Image:       imgutil.Encode(imgutil.KindJPEG, data),
		Orientation: orientation.Up,
		Width:       96,
		Height:      64,
	}
	s := newSearcher(t, compressor.NewImaging())

	target := imgutil.ByteCount(in.Image) / 3
	res, err := s.Run(context.Background(), in, Budget{MaxBytes: target})
	require.NoError(t, err)

	assert.Equal(t, Satisfied, res.Outcome)
	assert.LessOrEqual(t, imgutil.ByteCount(res.Image), target)
}
