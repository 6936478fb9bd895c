package acquire

import (
	"context"
	"fmt"
	"time"

	"squash/internal/capture"
	"squash/internal/orientation"
	"squash/pkg/imgutil"
)

// Capture takes one still from a capture session. The stream is opened
// for the snapshot and released right after it.
type Capture struct {
	session     *capture.Session
	constraints capture.Constraints
	now         func() time.Time
}

func NewCapture(session *capture.Session, c capture.Constraints) *Capture {
	return &Capture{session: session, constraints: c, now: time.Now}
}

func (c *Capture) Acquire(ctx context.Context) (Upload, error) {
	if err := c.session.Open(ctx, c.constraints); err != nil {
		return Upload{}, err
	}
	defer c.session.Close()

	img, err := c.session.Snapshot(ctx)
	if err != nil {
		return Upload{}, fmt.Errorf("snapshot: %w", err)
	}

	return Upload{
		Image:       img,
		Orientation: orientation.Up,
		FileName:    fmt.Sprintf("capture-%s.jpg", c.now().Format("20060102-150405")),
		Kind:        imgutil.KindJPEG,
	}, nil
}
