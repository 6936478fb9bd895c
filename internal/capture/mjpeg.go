package capture

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
)

// MJPEGSource reads a multipart/x-mixed-replace JPEG stream over HTTP,
// the format served by most IP and USB webcam bridges. Constraints are
// passed as width, height and facing query parameters.
type MJPEGSource struct {
	URL    string
	Client *http.Client
	Logger *slog.Logger
}

func (s *MJPEGSource) GetStream(ctx context.Context, c Constraints) (Stream, error) {
	u, err := url.Parse(s.URL)
	if err != nil {
		return nil, &DeviceError{Source: s.URL, Err: err}
	}
	q := u.Query()
	if c.Width > 0 {
		q.Set("width", strconv.Itoa(c.Width))
	}
	if c.Height > 0 {
		q.Set("height", strconv.Itoa(c.Height))
	}
	if c.Facing != "" {
		q.Set("facing", string(c.Facing))
	}
	u.RawQuery = q.Encode()

	// The stream outlives the call that opened it.
	streamCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	req, err := http.NewRequestWithContext(streamCtx, http.MethodGet, u.String(), nil)
	if err != nil {
		cancel()
		return nil, &DeviceError{Source: s.URL, Err: err}
	}

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}

	stop := context.AfterFunc(ctx, cancel)
	resp, err := client.Do(req)
	stop()
	if err != nil {
		cancel()
		return nil, &DeviceError{Source: s.URL, Err: fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)}
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		cancel()
		return nil, &DeviceError{Source: s.URL, Err: fmt.Errorf("%w: %s", ErrDeviceUnavailable, resp.Status)}
	}

	mediaType, params, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if err != nil || !strings.HasPrefix(mediaType, "multipart/") || params["boundary"] == "" {
		resp.Body.Close()
		cancel()
		return nil, &DeviceError{Source: s.URL, Err: fmt.Errorf("unexpected content type %q", resp.Header.Get("Content-Type"))}
	}

	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}

	st := &mjpegStream{
		cancel: cancel,
		body:   resp.Body,
		ready:  make(chan struct{}),
		done:   make(chan struct{}),
		logger: logger,
	}
	go st.read(multipart.NewReader(resp.Body, params["boundary"]))
	return st, nil
}

type mjpegStream struct {
	cancel context.CancelFunc
	body   io.ReadCloser
	logger *slog.Logger

	ready     chan struct{}
	readyOnce sync.Once
	done      chan struct{}
	stopOnce  sync.Once

	mu    sync.Mutex
	frame image.Image
	err   error
}

// read decodes parts until the stream ends. Ready is closed on the first
// decoded frame, or on exit so that a stream that dies early reports its
// cause through Frame instead of leaving Snapshot to time out.
func (st *mjpegStream) read(mr *multipart.Reader) {
	defer close(st.done)
	defer st.readyOnce.Do(func() { close(st.ready) })

	for {
		part, err := mr.NextPart()
		if err != nil {
			st.mu.Lock()
			if st.err == nil && !errors.Is(err, context.Canceled) {
				st.err = fmt.Errorf("%w: stream ended: %w", ErrDeviceUnavailable, err)
			}
			st.mu.Unlock()
			return
		}

		img, _, err := image.Decode(part)
		part.Close()
		if err != nil {
			st.logger.Debug("capture: skipping undecodable frame", "error", err)
			continue
		}

		st.mu.Lock()
		st.frame = img
		st.mu.Unlock()
		st.readyOnce.Do(func() { close(st.ready) })
	}
}

func (st *mjpegStream) Ready() <-chan struct{} {
	return st.ready
}

func (st *mjpegStream) Frame() (image.Image, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.frame != nil {
		return st.frame, nil
	}
	if st.err != nil {
		return nil, st.err
	}
	return nil, ErrNotReady
}

func (st *mjpegStream) StopAllTracks() {
	st.stopOnce.Do(func() {
		st.cancel()
		st.body.Close()
		<-st.done
	})
}
