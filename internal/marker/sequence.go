package marker

import "iter"

// State is the position of a Sequence in its lifecycle:
// NotStarted -> (Matching -> Suspended)* -> Exhausted.
type State int

const (
	NotStarted State = iota
	Matching
	Suspended
	Exhausted
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "not-started"
	case Matching:
		return "matching"
	case Suspended:
		return "suspended"
	case Exhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// Sequence is a single-pass cursor over the marks of one text. Each call to
// Next finds exactly one more mark and stops; nothing is buffered. Once
// exhausted, a Sequence never searches again: scanning the text anew needs a
// new call to the Marker.
//
// Usage mirrors bufio.Scanner:
//
//	seq := m(text)
//	for seq.Next() {
//		use(seq.Mark())
//	}
//	if err := seq.Err(); err != nil { ... }
type Sequence struct {
	advance func() (Mark, bool, error)
	release func()
	state   State
	cur     Mark
	err     error
}

func newSequence(advance func() (Mark, bool, error), release func()) *Sequence {
	return &Sequence{advance: advance, release: release}
}

// Next advances to the next mark. It returns false when the text holds no
// more marks or the advance failed; Err tells the two apart. A panic raised
// by an external scan routine propagates out of Next and leaves the sequence
// exhausted.
func (s *Sequence) Next() bool {
	if s.state == Exhausted {
		return false
	}

	s.state = Matching
	defer func() {
		if s.state == Matching {
			s.finish()
		}
	}()

	m, ok, err := s.advance()
	if err != nil || !ok {
		s.err = err
		s.finish()
		return false
	}
	s.cur = m
	s.state = Suspended
	return true
}

// Mark returns the mark found by the last successful Next. It is only
// meaningful until Next is called again.
func (s *Sequence) Mark() Mark {
	return s.cur
}

// Err returns the error that ended the sequence, if any.
func (s *Sequence) Err() error {
	return s.err
}

// State reports where the sequence is in its lifecycle.
func (s *Sequence) State() State {
	return s.state
}

// Fill advances like Next and, when a mark was found, writes it into slots.
// Slots are never written once the sequence is exhausted.
func (s *Sequence) Fill(slots Slots) bool {
	if !s.Next() {
		return false
	}
	slots.write(s.cur)
	return true
}

// All adapts the remaining marks for use with range. Breaking out of the loop
// closes the sequence.
func (s *Sequence) All() iter.Seq[Mark] {
	return func(yield func(Mark) bool) {
		for s.Next() {
			if !yield(s.cur) {
				s.Close()
				return
			}
		}
	}
}

// Close abandons the sequence. It is only needed when stopping before
// exhaustion, and releases the coroutine behind function markers.
func (s *Sequence) Close() error {
	if s.state != Exhausted {
		s.finish()
	}
	return nil
}

func (s *Sequence) finish() {
	s.state = Exhausted
	s.cur = Mark{}
	if s.release != nil {
		s.release()
		s.release = nil
	}
}
