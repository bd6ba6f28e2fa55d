package pattern

import (
	"github.com/dlclark/regexp2"
)

// Match is one match found by a Scanner. Offsets are in runes and End is
// exclusive.
type Match struct {
	Start int
	End   int
	// Group names the alternative that produced the match. Empty for
	// single-pattern compilations.
	Group string
}

// Scanner walks the non-overlapping matches of a Compiled over one text,
// left to right. After an empty match at p, a non-empty match starting at p
// is still reported before the search moves past p. A Scanner is single use
// and not safe for concurrent use.
type Scanner struct {
	c          *Compiled
	text       string
	runes      []rune
	pos        int  // rune offset the next search starts from
	afterEmpty bool // the previous match was empty and ended at pos
	started    bool
	done       bool
}

// Scan returns a Scanner over text. Nothing is searched until Next is called.
func (c *Compiled) Scan(text string) *Scanner {
	return &Scanner{c: c, text: text}
}

// Next finds the next match. It returns false once the text is exhausted or
// after an engine error; every later call returns false without searching.
func (s *Scanner) Next() (Match, bool, error) {
	if s.done {
		return Match{}, false, nil
	}
	if !s.started {
		s.started = true
		s.runes = []rune(s.text)
	}

	m, err := s.find()
	if err != nil {
		s.done = true
		return Match{}, false, &ScanError{Expr: s.c.Expr(), Offset: s.pos, Err: err}
	}
	if m == nil {
		s.done = true
		return Match{}, false, nil
	}

	s.pos = m.Index + m.Length
	s.afterEmpty = m.Length == 0
	return Match{
		Start: m.Index,
		End:   m.Index + m.Length,
		Group: s.c.groupOf(m),
	}, true, nil
}

func (s *Scanner) find() (*regexp2.Match, error) {
	if !s.afterEmpty {
		return s.c.re.FindRunesMatchStartingAt(s.runes, s.pos)
	}
	m, err := s.c.guard.FindRunesMatchStartingAt(s.runes, s.pos)
	if err != nil || m != nil {
		return m, err
	}
	if s.pos >= len(s.runes) {
		return nil, nil
	}
	return s.c.re.FindRunesMatchStartingAt(s.runes, s.pos+1)
}

// groupOf returns the first alternative group, in declaration order, that
// took part in m.
func (c *Compiled) groupOf(m *regexp2.Match) string {
	for _, name := range c.groups {
		if g := m.GroupByName(name); g != nil && len(g.Captures) > 0 {
			return name
		}
	}
	return ""
}
