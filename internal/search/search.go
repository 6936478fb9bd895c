// Package search drives the compressor until an encoded image fits a
// byte budget.
//
// Each attempt re-encodes the original source with a quality that never
// increases and a dimension cap that never grows. The search stops at the
// first attempt within budget, at the iteration cap, or when the schedule
// has no further reduction to offer. It keeps the smallest attempt seen so
// that an unmet budget can still report the closest image.
package search

import (
	"context"
	"fmt"

	"squash/internal/compressor"
	"squash/pkg/imgutil"
)

// Observer is called after every attempt, in order.
type Observer func(Attempt)

type Option func(*Searcher)

// WithObserver registers fn to receive every attempt.
func WithObserver(fn Observer) Option {
	return func(s *Searcher) {
		s.observer = fn
	}
}

// WithMeasure replaces imgutil.ByteCount as the size measure.
func WithMeasure(fn func(imgutil.DataURL) int) Option {
	return func(s *Searcher) {
		s.measure = fn
	}
}

type Searcher struct {
	compressor compressor.Compressor
	schedule   Schedule
	measure    func(imgutil.DataURL) int
	observer   Observer
}

func New(c compressor.Compressor, schedule Schedule, opts ...Option) (*Searcher, error) {
	if c == nil {
		return nil, fmt.Errorf("search: compressor is required")
	}
	if err := schedule.Validate(); err != nil {
		return nil, fmt.Errorf("search: invalid schedule: %w", err)
	}

	s := &Searcher{
		compressor: c,
		schedule:   schedule,
		measure:    imgutil.ByteCount,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Schedule returns the step schedule the searcher was built with.
func (s *Searcher) Schedule() Schedule {
	return s.schedule
}

// Run searches for an encoding of in within budget. A compressor failure
// aborts the search at once; the attempts made so far are returned with
// the error.
func (s *Searcher) Run(ctx context.Context, in Input, budget Budget) (Result, error) {
	if budget.MaxBytes <= 0 {
		return Result{}, ErrInvalidBudget
	}

	var (
		res  Result
		best = -1
		cur  = s.schedule.first()
	)

	for i := 0; i < s.schedule.MaxIterations; i++ {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		out, err := s.compressor.Compress(ctx, in.Image, in.Orientation, cur.quality, cur.maxWidth, cur.maxHeight)
		if err != nil {
			return res, fmt.Errorf("attempt %d: %w", i+1, err)
		}

		attempt := Attempt{
			Index:     i + 1,
			Quality:   cur.quality,
			MaxWidth:  cur.maxWidth,
			MaxHeight: cur.maxHeight,
			Image:     out,
			Size:      s.measure(out),
		}
		res.Attempts = append(res.Attempts, attempt)
		if s.observer != nil {
			s.observer(attempt)
		}

		if best < 0 || attempt.Size < res.Attempts[best].Size {
			best = len(res.Attempts) - 1
		}

		if attempt.Size <= budget.MaxBytes {
			res.Outcome = Satisfied
			res.Best = attempt
			res.Image = attempt.Image
			return res, nil
		}

		next, ok := s.schedule.next(cur, in.Width, in.Height)
		if !ok {
			break
		}
		cur = next
	}

	res.Best = res.Attempts[best]
	res.Image = res.Best.Image
	if budget.AcceptBestEffort {
		res.Outcome = BestEffort
	} else {
		res.Outcome = Exhausted
	}
	return res, nil
}
