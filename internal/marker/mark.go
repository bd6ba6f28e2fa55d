// Package marker turns pattern definitions and external scan routines into
// lazy markers: functions that walk a text and report colored spans one at a
// time, without building the full list of matches.
package marker

import (
	"iter"

	"github.com/zjrosen/marks/internal/pattern"
)

// Color is the color code reported with each mark.
type Color = pattern.Color

// Mark is one colored span. Start and End are rune offsets into the scanned
// text and End is inclusive.
type Mark struct {
	Start int   `json:"start"`
	End   int   `json:"end"`
	Color Color `json:"color"`
}

// Len returns the number of runes covered by m.
func (m Mark) Len() int {
	return m.End - m.Start + 1
}

// Slots are host-owned destinations for the fields of the current mark. Nil
// slots are skipped.
type Slots struct {
	Left  *int
	Right *int
	Color *Color
}

func (s Slots) write(m Mark) {
	if s.Left != nil {
		*s.Left = m.Start
	}
	if s.Right != nil {
		*s.Right = m.End
	}
	if s.Color != nil {
		*s.Color = m.Color
	}
}

// Marker scans text and returns the sequence of its marks. A Marker holds no
// per-scan state and may be called concurrently; each returned Sequence is
// single use.
type Marker func(text string) *Sequence

// ScanFunc is the contract for externally supplied scanning routines. Marks
// it yields are passed through unchecked.
type ScanFunc func(text string) iter.Seq[Mark]

// Collect drains a fresh sequence of m over text.
func Collect(m Marker, text string) ([]Mark, error) {
	seq := m(text)
	defer seq.Close()

	var marks []Mark
	for seq.Next() {
		marks = append(marks, seq.Mark())
	}
	return marks, seq.Err()
}
