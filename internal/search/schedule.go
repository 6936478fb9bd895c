package search

import (
	"errors"
	"fmt"
)

// Schedule fixes how quality and dimension caps step down between
// attempts. Quality drops by QualityStep until MinQuality; after that
// each attempt scales the dimension cap by ScaleFactor until the shorter
// side would fall below MinDimension.
type Schedule struct {
	StartQuality  int
	QualityStep   int
	MinQuality    int
	MaxIterations int
	ScaleFactor   float64
	MinDimension  int
}

func DefaultSchedule() Schedule {
	return Schedule{
		StartQuality:  90,
		QualityStep:   20,
		MinQuality:    10,
		MaxIterations: 10,
		ScaleFactor:   0.75,
		MinDimension:  16,
	}
}

func (s Schedule) Validate() error {
	var errs []error
	if s.MaxIterations <= 0 {
		errs = append(errs, fmt.Errorf("max iterations must be positive, got %d", s.MaxIterations))
	}
	if s.MinQuality < 1 || s.MinQuality > 100 {
		errs = append(errs, fmt.Errorf("min quality must be within 1..100, got %d", s.MinQuality))
	}
	if s.StartQuality < s.MinQuality || s.StartQuality > 100 {
		errs = append(errs, fmt.Errorf("start quality must be within %d..100, got %d", s.MinQuality, s.StartQuality))
	}
	if s.QualityStep <= 0 {
		errs = append(errs, fmt.Errorf("quality step must be positive, got %d", s.QualityStep))
	}
	if s.ScaleFactor <= 0 || s.ScaleFactor >= 1 {
		errs = append(errs, fmt.Errorf("scale factor must be within (0, 1), got %v", s.ScaleFactor))
	}
	if s.MinDimension < 1 {
		errs = append(errs, fmt.Errorf("min dimension must be positive, got %d", s.MinDimension))
	}
	return errors.Join(errs...)
}

type step struct {
	quality   int
	maxWidth  int
	maxHeight int
}

func (s Schedule) first() step {
	return step{quality: s.StartQuality}
}

// next returns the parameters for the attempt after cur, or false when
// neither quality nor dimensions can be lowered further.
func (s Schedule) next(cur step, srcWidth, srcHeight int) (step, bool) {
	if cur.quality > s.MinQuality {
		cur.quality = max(cur.quality-s.QualityStep, s.MinQuality)
		return cur, true
	}

	if srcWidth <= 0 || srcHeight <= 0 {
		return cur, false
	}

	w, h := cur.maxWidth, cur.maxHeight
	if w == 0 || h == 0 {
		w, h = srcWidth, srcHeight
	}
	nw := int(float64(w) * s.ScaleFactor)
	nh := int(float64(h) * s.ScaleFactor)
	if min(nw, nh) < s.MinDimension || (nw >= w && nh >= h) {
		return cur, false
	}

	cur.maxWidth, cur.maxHeight = nw, nh
	return cur, true
}
