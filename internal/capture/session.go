// Package capture owns a video stream for the length of a capture session
// and turns its current frame into an encoded still.
package capture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"

	"squash/pkg/imgutil"
)

const (
	DefaultReadyTimeout    = 5 * time.Second
	DefaultSnapshotQuality = 95
)

type Option func(*Session)

func WithReadyTimeout(d time.Duration) Option {
	return func(s *Session) {
		s.readyTimeout = d
	}
}

func WithSnapshotQuality(q int) Option {
	return func(s *Session) {
		s.quality = q
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Session) {
		s.logger = l
	}
}

// Session holds at most one open stream.
type Session struct {
	source       Source
	readyTimeout time.Duration
	quality      int
	logger       *slog.Logger

	mu     sync.Mutex
	id     string
	stream Stream
	closed chan struct{}
}

func NewSession(source Source, opts ...Option) *Session {
	s := &Session{
		source:       source,
		readyTimeout: DefaultReadyTimeout,
		quality:      DefaultSnapshotQuality,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open requests a stream matching c. A stream that is already open is
// stopped first. On failure the session is left closed.
func (s *Session) Open(ctx context.Context, c Constraints) error {
	s.Close()

	stream, err := s.source.GetStream(ctx, c)
	if err != nil {
		var derr *DeviceError
		if !errors.As(err, &derr) {
			err = &DeviceError{Source: "stream", Err: err}
		}
		s.logger.Error("capture: open failed", "error", err)
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stream != nil {
		// Lost a race with a concurrent Open; keep the first stream.
		stream.StopAllTracks()
		return nil
	}
	s.id = uuid.NewString()
	s.stream = stream
	s.closed = make(chan struct{})
	s.logger.Debug("capture: stream opened", "session_id", s.id, "width", c.Width, "height", c.Height, "facing", c.Facing)
	return nil
}

// IsOpen reports whether a stream is held.
func (s *Session) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stream != nil
}

// Snapshot waits for the stream's first decoded frame and encodes the
// current frame as a JPEG data URL.
func (s *Session) Snapshot(ctx context.Context) (imgutil.DataURL, error) {
	s.mu.Lock()
	stream, closed := s.stream, s.closed
	s.mu.Unlock()
	if stream == nil {
		return "", ErrNotOpen
	}

	timer := time.NewTimer(s.readyTimeout)
	defer timer.Stop()

	select {
	case <-stream.Ready():
	case <-closed:
		return "", ErrNotOpen
	case <-timer.C:
		return "", fmt.Errorf("%w after %s", ErrNotReady, s.readyTimeout)
	case <-ctx.Done():
		return "", ctx.Err()
	}

	frame, err := stream.Frame()
	if err != nil {
		var derr *DeviceError
		if !errors.As(err, &derr) {
			err = &DeviceError{Source: "stream", Err: err}
		}
		s.logger.Error("capture: no frame", "error", err)
		return "", err
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, frame, imaging.JPEG, imaging.JPEGQuality(s.quality)); err != nil {
		return "", fmt.Errorf("encode snapshot: %w", err)
	}
	return imgutil.Encode(imgutil.KindJPEG, buf.Bytes()), nil
}

// Close stops every track of the held stream. It is a no-op when nothing
// is open.
func (s *Session) Close() {
	s.mu.Lock()
	stream, closed, id := s.stream, s.closed, s.id
	s.stream, s.closed, s.id = nil, nil, ""
	s.mu.Unlock()

	if stream == nil {
		return
	}
	close(closed)
	stream.StopAllTracks()
	s.logger.Debug("capture: stream closed", "session_id", id)
}
