package marker

import (
	"fmt"
	"iter"

	"github.com/zjrosen/marks/internal/pattern"
)

// Null marks nothing.
var Null Marker = func(string) *Sequence {
	return newSequence(func() (Mark, bool, error) {
		return Mark{}, false, nil
	}, nil)
}

// FromCompiled wraps a compiled pattern. The single or multiple adapter is
// chosen here, once, rather than per match.
func FromCompiled(c *pattern.Compiled) Marker {
	if c.Kind() == pattern.KindMultiple {
		return fromMultiple(c)
	}
	return fromSingle(c)
}

func fromSingle(c *pattern.Compiled) Marker {
	color := c.Color()
	return func(text string) *Sequence {
		sc := c.Scan(text)
		return newSequence(func() (Mark, bool, error) {
			m, ok, err := nextSpan(sc)
			if !ok {
				return Mark{}, false, err
			}
			return Mark{Start: m.Start, End: m.End - 1, Color: color}, true, nil
		}, nil)
	}
}

func fromMultiple(c *pattern.Compiled) Marker {
	return func(text string) *Sequence {
		sc := c.Scan(text)
		return newSequence(func() (Mark, bool, error) {
			m, ok, err := nextSpan(sc)
			if !ok {
				return Mark{}, false, err
			}
			color, found := c.ColorOf(m.Group)
			if !found {
				return Mark{}, false, fmt.Errorf("match at %d of %q has no alternative", m.Start, c.Expr())
			}
			return Mark{Start: m.Start, End: m.End - 1, Color: color}, true, nil
		}, nil)
	}
}

// nextSpan returns the next match covering at least one rune. Empty matches
// have no inclusive end and are stepped over.
func nextSpan(sc *pattern.Scanner) (pattern.Match, bool, error) {
	for {
		m, ok, err := sc.Next()
		if err != nil || !ok {
			return pattern.Match{}, false, err
		}
		if m.End > m.Start {
			return m, true, nil
		}
	}
}

// FromFunction wraps an external scan routine. The routine is called on the
// first advance and only driven as far as the caller advances the returned
// sequences. A routine that returns a nil iterator fails with ErrNilScan.
func FromFunction(fn ScanFunc) Marker {
	return func(text string) *Sequence {
		var next func() (Mark, bool)
		var stop func()
		return newSequence(func() (Mark, bool, error) {
			if next == nil {
				marks := fn(text)
				if marks == nil {
					return Mark{}, false, ErrNilScan
				}
				next, stop = iter.Pull(marks)
			}
			m, ok := next()
			return m, ok, nil
		}, func() {
			if stop != nil {
				stop()
			}
		})
	}
}
