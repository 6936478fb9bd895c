package acquire

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Paths acquires images from a fixed list of file paths, typically the
// command line arguments. An empty list behaves like a dismissed picker.
type Paths struct {
	paths []string
}

func NewPaths(paths ...string) *Paths {
	return &Paths{paths: paths}
}

// Acquire reads the first path.
func (p *Paths) Acquire(ctx context.Context) (Upload, error) {
	if len(p.paths) == 0 {
		return Upload{}, ErrNoFileSelected
	}
	if err := ctx.Err(); err != nil {
		return Upload{}, err
	}
	return FromFile(p.paths[0])
}

// AcquireMultiple reads every path concurrently and returns the uploads
// in argument order. The first failure cancels the remaining reads.
func (p *Paths) AcquireMultiple(ctx context.Context) ([]Upload, error) {
	if len(p.paths) == 0 {
		return nil, ErrNoFileSelected
	}

	uploads := make([]Upload, len(p.paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i, path := range p.paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			up, err := FromFile(path)
			if err != nil {
				return err
			}
			uploads[i] = up
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return uploads, nil
}
