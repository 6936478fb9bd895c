package search

import (
	"errors"
	"fmt"

	"squash/internal/orientation"
	"squash/pkg/imgutil"
)

var (
	ErrBudgetExhausted = errors.New("size budget could not be met")
	ErrInvalidBudget   = errors.New("size budget must be positive")
)

// Budget is the byte limit for one adaptive search.
type Budget struct {
	MaxBytes         int
	AcceptBestEffort bool
}

// Input is the image handed to a search. Width and Height are the
// displayed dimensions of the source; when zero the search only lowers
// quality and never caps dimensions.
type Input struct {
	Image       imgutil.DataURL
	Orientation orientation.Orientation
	Width       int
	Height      int
}

// Attempt records one call to the compressor. A MaxWidth/MaxHeight of 0
// means the dimensions were not capped.
type Attempt struct {
	Index     int
	Quality   int
	MaxWidth  int
	MaxHeight int
	Image     imgutil.DataURL
	Size      int
}

// Outcome tags how a search finished.
type Outcome int

const (
	Satisfied Outcome = iota
	BestEffort
	Exhausted
)

func (o Outcome) String() string {
	switch o {
	case Satisfied:
		return "satisfied"
	case BestEffort:
		return "best-effort"
	case Exhausted:
		return "exhausted"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Result is the terminal state of a search. Image is the attempt that
// met the budget, or the smallest attempt seen when it was not met.
type Result struct {
	Outcome  Outcome
	Image    imgutil.DataURL
	Best     Attempt
	Attempts []Attempt
}

// Size is the byte count of Image.
func (r Result) Size() int {
	return r.Best.Size
}

// Err returns ErrBudgetExhausted for an Exhausted result.
func (r Result) Err() error {
	if r.Outcome == Exhausted {
		return fmt.Errorf("%w: best attempt is %d bytes after %d attempts", ErrBudgetExhausted, r.Best.Size, len(r.Attempts))
	}
	return nil
}
