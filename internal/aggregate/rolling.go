// Package aggregate implements the worker's rolling aggregation window
// (§4.11), the input the alert evaluator reads from.
package aggregate

import "container/list"

// sample is one (timestamp_ms, value) pair in a RollingSeries.
type sample struct {
	ts    int64
	value float64
}

// RollingSeries keeps a time-ordered deque of samples bounded to the last
// windowMs. Push evicts everything older than now-windowMs before
// returning, so the deque is always fully within [now-window, now].
type RollingSeries struct {
	windowMs int64
	samples  *list.List // of sample
}

// NewRollingSeries creates an empty series with the given retention window.
func NewRollingSeries(windowMs int64) *RollingSeries {
	return &RollingSeries{windowMs: windowMs, samples: list.New()}
}

// Push appends a new sample and evicts everything that has aged out of the
// window as of nowMs.
func (s *RollingSeries) Push(nowMs int64, value float64) {
	s.samples.PushBack(sample{ts: nowMs, value: value})
	cutoff := nowMs - s.windowMs
	for e := s.samples.Front(); e != nil; {
		next := e.Next()
		if e.Value.(sample).ts < cutoff {
			s.samples.Remove(e)
		} else {
			break
		}
		e = next
	}
}

// Count returns the number of samples currently in the window.
func (s *RollingSeries) Count() int {
	return s.samples.Len()
}

// Avg returns the mean of the window's samples; the second return is false
// if the window is empty.
func (s *RollingSeries) Avg() (float64, bool) {
	if s.samples.Len() == 0 {
		return 0, false
	}
	var sum float64
	for e := s.samples.Front(); e != nil; e = e.Next() {
		sum += e.Value.(sample).value
	}
	return sum / float64(s.samples.Len()), true
}

// Min returns the smallest value in the window.
func (s *RollingSeries) Min() (float64, bool) {
	if s.samples.Len() == 0 {
		return 0, false
	}
	min := s.samples.Front().Value.(sample).value
	for e := s.samples.Front().Next(); e != nil; e = e.Next() {
		if v := e.Value.(sample).value; v < min {
			min = v
		}
	}
	return min, true
}

// Max returns the largest value in the window.
func (s *RollingSeries) Max() (float64, bool) {
	if s.samples.Len() == 0 {
		return 0, false
	}
	max := s.samples.Front().Value.(sample).value
	for e := s.samples.Front().Next(); e != nil; e = e.Next() {
		if v := e.Value.(sample).value; v > max {
			max = v
		}
	}
	return max, true
}

// Last returns the most recently pushed value still in the window.
func (s *RollingSeries) Last() (float64, bool) {
	if s.samples.Len() == 0 {
		return 0, false
	}
	return s.samples.Back().Value.(sample).value, true
}
