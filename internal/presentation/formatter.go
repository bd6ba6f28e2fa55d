package presentation

import (
	"encoding/json"
	"io"

	"github.com/zjrosen/marks/internal/marker"
)

// Formatter handles output formatting
type Formatter struct {
	writer io.Writer
}

// NewFormatter creates a new formatter
func NewFormatter(writer io.Writer) *Formatter {
	return &Formatter{
		writer: writer,
	}
}

// FormatMarkers formats a list of markers as JSON
func (f *Formatter) FormatMarkers(markers []MarkerDTO) error {
	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(markers)
}

// StreamMarks writes one JSON object per line for each mark of seq, as the
// sequence produces them.
func (f *Formatter) StreamMarks(text string, seq *marker.Sequence) error {
	defer seq.Close()

	runes := []rune(text)
	encoder := json.NewEncoder(f.writer)
	for seq.Next() {
		if err := encoder.Encode(FromMark(seq.Mark(), runes)); err != nil {
			return err
		}
	}
	return seq.Err()
}
