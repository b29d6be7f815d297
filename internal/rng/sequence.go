package rng

// Sequence replays a fixed list of draws, wrapping around at the end.
// UniformRange maps the next draw u to lo + u*(hi-lo), so a draw of 0.5
// lands on the midpoint.
//
// An empty Sequence always draws 0.
type Sequence struct {
	values []float64
	pos    int
	draws  int
}

// NewSequence creates a Sequence over values.
// Values are expected in [0, 1).
func NewSequence(values ...float64) *Sequence {
	return &Sequence{values: values}
}

// Constant returns a Sequence that always draws v.
func Constant(v float64) *Sequence {
	return NewSequence(v)
}

func (s *Sequence) next() float64 {
	s.draws++
	if len(s.values) == 0 {
		return 0
	}
	v := s.values[s.pos]
	s.pos = (s.pos + 1) % len(s.values)
	return v
}

func (s *Sequence) Uniform01() float64 {
	return s.next()
}

func (s *Sequence) UniformRange(lo, hi float64) float64 {
	return lo + s.next()*(hi-lo)
}

// Draws returns how many values have been consumed so far.
func (s *Sequence) Draws() int {
	return s.draws
}
