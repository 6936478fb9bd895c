package workflow

import (
	"errors"
	"fmt"
	"strings"

	"squash/internal/acquire"
	"squash/internal/search"
	"squash/pkg/imgutil"
)

// ErrNoInput marks an acquisition the user dismissed.
var ErrNoInput = acquire.ErrNoFileSelected

var (
	ErrBusy  = errors.New("an adaptive compression is already in progress")
	errPanic = errors.New("panic during compression")
)

// Kind tags the terminal result of a workflow run.
type Kind int

const (
	KindSatisfied Kind = iota
	KindBestEffort
	KindNoInput
	KindBudgetExhausted
	KindUnexpectedFailure
)

func (k Kind) String() string {
	switch k {
	case KindSatisfied:
		return "satisfied"
	case KindBestEffort:
		return "best-effort"
	case KindNoInput:
		return "no-input"
	case KindBudgetExhausted:
		return "budget-exhausted"
	case KindUnexpectedFailure:
		return "unexpected-failure"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Outcome is returned uniformly for every run: success, the closest
// image to an unmet budget, a dismissed acquisition, or a failure.
type Outcome struct {
	Kind   Kind
	RunID  string
	Image  imgutil.DataURL
	Upload acquire.Upload
	Search search.Result
	Err    error
}

// HasImage reports whether Image carries a usable result.
func (o Outcome) HasImage() bool {
	switch o.Kind {
	case KindSatisfied, KindBestEffort, KindBudgetExhausted:
		return o.Image != ""
	default:
		return false
	}
}

func (o Outcome) String() string {
	switch o.Kind {
	case KindSatisfied, KindBestEffort, KindBudgetExhausted:
		return fmt.Sprintf("%s: %d bytes after %d attempts", o.Kind, imgutil.ByteCount(o.Image), len(o.Search.Attempts))
	case KindUnexpectedFailure:
		return fmt.Sprintf("%s: %v", o.Kind, o.Err)
	default:
		return o.Kind.String()
	}
}

// IsNoInput reports whether err means no file or frame was selected. Errors
// from foreign acquirers are matched on their message.
func IsNoInput(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrNoInput) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "no file selected")
}

// Classify maps a failed run to its outcome kind.
func Classify(err error) Kind {
	if IsNoInput(err) {
		return KindNoInput
	}
	return KindUnexpectedFailure
}
