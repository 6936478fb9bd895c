// Package workflow sequences acquisition, compression and result
// publication, and owns the flag that tells callers an adaptive
// compression is running.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"squash/internal/acquire"
	"squash/internal/compressor"
	"squash/internal/orientation"
	"squash/internal/search"
	"squash/pkg/imgutil"
)

const DefaultQuality = 50

// State is the lifecycle of the controller's most recent run.
type State int

const (
	Idle State = iota
	InProgress
	Completed
)

func (s State) String() string {
	switch s {
	case InProgress:
		return "in-progress"
	case Completed:
		return "completed"
	default:
		return "idle"
	}
}

// Status is a snapshot of the controller. Last is set once State is
// Completed.
type Status struct {
	State State
	Last  Outcome
}

// Event reports run progress to an observer such as the terminal UI.
// Exactly one of Attempt or Outcome is set, except for the event that
// raises the in-progress flag, which carries neither.
type Event struct {
	RunID      string
	InProgress bool
	Attempt    *search.Attempt
	Outcome    *Outcome
}

type Option func(*Controller)

func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		c.logger = l
	}
}

func WithSchedule(s search.Schedule) Option {
	return func(c *Controller) {
		c.schedule = s
	}
}

// WithEvents sends run events to ch. Sends block, so ch must be drained.
func WithEvents(ch chan<- Event) Option {
	return func(c *Controller) {
		c.events = ch
	}
}

func WithDefaultQuality(q int) Option {
	return func(c *Controller) {
		c.defaultQuality = q
	}
}

// Controller is the single writer of the in-progress flag.
type Controller struct {
	acquirer       acquire.Acquirer
	compressor     compressor.Compressor
	schedule       search.Schedule
	defaultQuality int
	logger         *slog.Logger
	events         chan<- Event

	inProgress atomic.Bool

	mu     sync.Mutex
	status Status
}

func New(acq acquire.Acquirer, c compressor.Compressor, opts ...Option) *Controller {
	ctl := &Controller{
		acquirer:       acq,
		compressor:     c,
		schedule:       search.DefaultSchedule(),
		defaultQuality: DefaultQuality,
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		opt(ctl)
	}
	return ctl
}

// InProgress reports whether an adaptive run that asked for progress
// reporting is currently executing.
func (c *Controller) InProgress() bool {
	return c.inProgress.Load()
}

func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// UploadFile acquires one image and logs what was received.
func (c *Controller) UploadFile(ctx context.Context) (acquire.Upload, error) {
	up, err := c.acquirer.Acquire(ctx)
	if err != nil {
		c.logFailure(c.logger, err)
		return acquire.Upload{}, err
	}
	c.logger.Info("upload: image received",
		"file", up.FileName,
		"orientation", up.Orientation.String(),
		"preview", up.Image.Prefix(50),
		"chars", len(up.Image),
	)
	return up, nil
}

// UploadMultipleFiles acquires several images. The acquirer must
// implement acquire.MultiAcquirer.
func (c *Controller) UploadMultipleFiles(ctx context.Context) ([]acquire.Upload, error) {
	multi, ok := c.acquirer.(acquire.MultiAcquirer)
	if !ok {
		return nil, fmt.Errorf("acquirer %T cannot select multiple files", c.acquirer)
	}
	uploads, err := multi.AcquireMultiple(ctx)
	if err != nil {
		c.logFailure(c.logger, err)
		return nil, err
	}
	c.logger.Info("upload: files selected", "count", len(uploads))
	return uploads, nil
}

// RunSingleShot compresses img once with the exact parameters given.
func (c *Controller) RunSingleShot(ctx context.Context, img imgutil.DataURL, o orientation.Orientation, quality, maxWidth, maxHeight int) (imgutil.DataURL, error) {
	out, err := c.compressor.Compress(ctx, img, o, quality, maxWidth, maxHeight)
	if err != nil {
		return "", err
	}
	c.logger.Debug("compress: single shot",
		"quality", quality,
		"max_width", maxWidth,
		"max_height", maxHeight,
		"bytes_before", imgutil.ByteCount(img),
		"bytes_after", imgutil.ByteCount(out),
	)
	return out, nil
}

// CompressFile acquires an image and compresses it once at the default
// quality, optionally capped to maxWidth x maxHeight.
func (c *Controller) CompressFile(ctx context.Context, maxWidth, maxHeight int) (acquire.Upload, imgutil.DataURL, error) {
	up, err := c.UploadFile(ctx)
	if err != nil {
		return acquire.Upload{}, "", err
	}
	c.logger.Info("compress: size before", "bytes", imgutil.ByteCount(up.Image))

	out, err := c.RunSingleShot(ctx, up.Image, up.Orientation, c.defaultQuality, maxWidth, maxHeight)
	if err != nil {
		c.logFailure(c.logger, err)
		return up, "", err
	}
	c.logger.Info("compress: size after", "bytes", imgutil.ByteCount(out))
	return up, out, nil
}

// UploadAndGetImageWithMaxSize acquires an image and searches for an
// encoding of at most maxBytes.
func (c *Controller) UploadAndGetImageWithMaxSize(ctx context.Context, maxBytes int, acceptBestEffort, reportProgress bool) Outcome {
	return c.RunAdaptive(ctx, search.Budget{MaxBytes: maxBytes, AcceptBestEffort: acceptBestEffort}, reportProgress)
}

// RunAdaptive acquires an image and runs the size search on it. When
// reportProgress is set the in-progress flag is raised for the length of
// the run and lowered exactly once on the way out, whatever the outcome,
// including a panic in the acquirer or compressor.
func (c *Controller) RunAdaptive(ctx context.Context, budget search.Budget, reportProgress bool) (out Outcome) {
	runID := uuid.NewString()
	logger := c.logger.With("run_id", runID)

	finish, err := c.begin(runID, reportProgress)
	if err != nil {
		out = Outcome{Kind: KindUnexpectedFailure, RunID: runID, Err: err}
		logger.Error("maxsize: refused", "error", err)
		return out
	}
	defer func() {
		if r := recover(); r != nil {
			out = c.failed(logger, runID, out.Upload, fmt.Errorf("%w: %v", errPanic, r))
		}
		finish(out)
	}()

	up, err := c.acquirer.Acquire(ctx)
	if err != nil {
		return c.failed(logger, runID, acquire.Upload{}, err)
	}
	out.Upload = up
	logger = logger.With("file", up.FileName)

	in := search.Input{Image: up.Image, Orientation: up.Orientation}
	if w, h, err := compressor.Dimensions(up.Image, up.Orientation); err == nil {
		in.Width, in.Height = w, h
	} else {
		logger.Debug("maxsize: source dimensions unknown", "error", err)
	}

	searcher, err := search.New(c.compressor, c.schedule, search.WithObserver(func(a search.Attempt) {
		logger.Debug("maxsize: attempt", "index", a.Index, "quality", a.Quality, "max_width", a.MaxWidth, "max_height", a.MaxHeight, "bytes", a.Size)
		c.emit(Event{RunID: runID, InProgress: c.InProgress(), Attempt: &a})
	}))
	if err != nil {
		return c.failed(logger, runID, up, err)
	}

	res, err := searcher.Run(ctx, in, budget)
	if err != nil {
		out = c.failed(logger, runID, up, err)
		out.Search = res
		return out
	}

	out = Outcome{RunID: runID, Upload: up, Image: res.Image, Search: res}
	switch res.Outcome {
	case search.Satisfied:
		out.Kind = KindSatisfied
		logger.Info("maxsize: budget met", "bytes", res.Size(), "max_bytes", budget.MaxBytes, "attempts", len(res.Attempts))
	case search.BestEffort:
		out.Kind = KindBestEffort
		logger.Warn("maxsize: budget not met, returning closest image", "bytes", res.Size(), "max_bytes", budget.MaxBytes, "attempts", len(res.Attempts))
	default:
		out.Kind = KindBudgetExhausted
		out.Err = res.Err()
		logger.Warn("maxsize: budget not met", "bytes", res.Size(), "max_bytes", budget.MaxBytes, "attempts", len(res.Attempts))
	}
	return out
}

// begin raises the in-progress flag when reportProgress is set and
// returns the matching release. The release lowers the flag, records the
// outcome and publishes it.
func (c *Controller) begin(runID string, reportProgress bool) (func(Outcome), error) {
	if reportProgress {
		if !c.inProgress.CompareAndSwap(false, true) {
			return nil, ErrBusy
		}
		c.setStatus(Status{State: InProgress})
		c.emit(Event{RunID: runID, InProgress: true})
	}

	var once sync.Once
	return func(out Outcome) {
		once.Do(func() {
			if reportProgress {
				c.inProgress.Store(false)
			}
			c.setStatus(Status{State: Completed, Last: out})
			c.emit(Event{RunID: runID, InProgress: false, Outcome: &out})
		})
	}, nil
}

func (c *Controller) failed(logger *slog.Logger, runID string, up acquire.Upload, err error) Outcome {
	c.logFailure(logger, err)
	return Outcome{Kind: Classify(err), RunID: runID, Upload: up, Err: err}
}

func (c *Controller) logFailure(logger *slog.Logger, err error) {
	if IsNoInput(err) {
		logger.Info("no file selected")
		return
	}
	var perr *compressor.PrimitiveError
	if errors.As(err, &perr) {
		logger.Error("compression failed", "stage", perr.Stage, "quality", perr.Quality, "error", perr.Err)
		return
	}
	logger.Error("unexpected error", "error", err)
}

func (c *Controller) setStatus(s Status) {
	c.mu.Lock()
	c.status = s
	c.mu.Unlock()
}

func (c *Controller) emit(e Event) {
	if c.events == nil {
		return
	}
	c.events <- e
}
