package cloud

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"
)

// Series is a per-timestep trace (PUE, solar output, brown price). Reads past
// the end return the last value and log a warning once per series.
type Series struct {
	name     string
	values   []float64
	constant bool
	warned   bool
}

// NewSeries wraps values. Panics on an empty series.
func NewSeries(name string, values []float64) *Series {
	if len(values) == 0 {
		panic(fmt.Sprintf("NewSeries: %s is empty", name))
	}
	return &Series{name: name, values: values}
}

// ConstantSeries returns a single-valued series.
func ConstantSeries(name string, v float64) *Series {
	s := NewSeries(name, []float64{v})
	s.constant = true
	return s
}

// Name returns the series name.
func (s *Series) Name() string { return s.name }

// Len returns the number of recorded timesteps.
func (s *Series) Len() int { return len(s.values) }

// At returns the value at timestep t, clamped to the recorded range.
func (s *Series) At(t int64) float64 {
	if t < 0 {
		return s.values[0]
	}
	if t >= int64(len(s.values)) {
		if !s.warned && !s.constant {
			logrus.Warnf("Trace %s exhausted at t=%d (%d values), using last value", s.name, t, len(s.values))
		}
		s.warned = true
		return s.values[len(s.values)-1]
	}
	return s.values[t]
}

// Max returns the largest value.
func (s *Series) Max() float64 {
	return floats.Max(s.values)
}
