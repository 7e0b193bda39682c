package tensor

import "fmt"

// Slice selects a strided range along one axis.
type Slice struct {
	start   int
	stop    int
	step    int
	hasStop bool
}

// All selects the whole axis.
func All() Slice {
	return Slice{step: 1}
}

// From selects start.. to the end of the axis.
func From(start int) Slice {
	return Slice{start: start, step: 1}
}

// To selects ..stop.
func To(stop int) Slice {
	return Slice{stop: stop, step: 1, hasStop: true}
}

// Between selects start..stop.
func Between(start, stop int) Slice {
	return Slice{start: start, stop: stop, step: 1, hasStop: true}
}

// Index selects the single element i while keeping the axis.
func Index(i int) Slice {
	if i == -1 {
		return From(-1)
	}
	return Between(i, i+1)
}

// By returns s with the given step. A negative step walks the range from its
// last element backwards.
func (s Slice) By(step int) Slice {
	s.step = step
	return s
}

// String formats the slice in start..stop;step notation.
func (s Slice) String() string {
	stop := ""
	if s.hasStop {
		stop = fmt.Sprint(s.stop)
	}
	if s.step == 1 {
		return fmt.Sprintf("%d..%s", s.start, stop)
	}
	return fmt.Sprintf("%d..%s;%d", s.start, stop, s.step)
}

// resolve converts the slice to absolute [start, end) bounds on an axis of
// length n.
func (s Slice) resolve(n int) (start, end int, err error) {
	if s.step == 0 {
		return 0, 0, fmt.Errorf("%w: zero step", ErrInvalidSlice)
	}

	start = s.start
	if start < 0 {
		start += n
	}
	end = n
	if s.hasStop {
		end = s.stop
		if end < 0 {
			end += n
		}
	}

	if start < 0 || start > n || end < 0 || end > n {
		return 0, 0, fmt.Errorf("%w: %v out of bounds for axis of length %d", ErrInvalidSlice, s, n)
	}
	if end < start {
		end = start
	}
	return start, end, nil
}
