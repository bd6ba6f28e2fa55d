package presentation

import (
	"github.com/zjrosen/marks/internal/config"
	"github.com/zjrosen/marks/internal/marker"
)

// MarkerDTO represents a configured marker for presentation
type MarkerDTO struct {
	Name       string       `json:"name"`
	Type       string       `json:"type"`
	Definition string       `json:"definition"`
	Flags      []string     `json:"flags"`
	Patterns   []PatternDTO `json:"patterns,omitempty"`
	Path       string       `json:"path,omitempty"`
	Error      string       `json:"error,omitempty"` // set when the config entry does not parse
}

// PatternDTO represents one (color, pattern) pair
type PatternDTO struct {
	Color   int    `json:"color"`
	Pattern string `json:"pattern"`
}

// MarkDTO represents one mark together with the text it covers
type MarkDTO struct {
	Start int    `json:"start"`
	End   int    `json:"end"`
	Color int    `json:"color"`
	Text  string `json:"text"`
}

// FromMarkerConfig converts a configured marker to a DTO, normalizing the
// one-line and field-by-field forms into the same shape.
func FromMarkerConfig(m config.MarkerConfig) MarkerDTO {
	dto := MarkerDTO{Name: m.Name, Flags: []string{}}

	def, err := m.Definition()
	if err != nil {
		dto.Type = m.Type
		dto.Definition = m.Spec
		dto.Error = err.Error()
		return dto
	}

	dto.Type = def.Type
	dto.Definition = def.String()
	dto.Path = def.Path
	if names := def.Flags.Names(); len(names) > 0 {
		dto.Flags = names
	}
	for _, p := range def.Pairs {
		dto.Patterns = append(dto.Patterns, PatternDTO{Color: int(p.Color), Pattern: p.Pattern})
	}
	return dto
}

// FromMarkerConfigs converts a list of configured markers to DTOs.
func FromMarkerConfigs(markers []config.MarkerConfig) []MarkerDTO {
	dtos := make([]MarkerDTO, len(markers))
	for i, m := range markers {
		dtos[i] = FromMarkerConfig(m)
	}
	return dtos
}

// FromMark converts a mark to a DTO. runes is the scanned text; the covered
// text is clipped to it.
func FromMark(m marker.Mark, runes []rune) MarkDTO {
	dto := MarkDTO{Start: m.Start, End: m.End, Color: int(m.Color)}
	start := max(m.Start, 0)
	end := min(m.End+1, len(runes))
	if start < end {
		dto.Text = string(runes[start:end])
	}
	return dto
}
