package marker

import (
	"strconv"
	"strings"

	"github.com/zjrosen/marks/internal/pattern"
)

// Spec describes what a marker highlights. It is one of RegexSpec,
// MultiRegexSpec, LiteralSpec or FunctionSpec.
type Spec interface {
	// Key identifies the spec for caching. Equal specs have equal keys.
	Key() string
	isSpec()
}

// RegexSpec marks every match of one pattern in one color.
type RegexSpec struct {
	Pattern string
	Color   Color
	Flags   pattern.Flags
}

// MultiRegexSpec marks matches of several patterns, each with its own color.
// Earlier alternatives win ties at the same position.
type MultiRegexSpec struct {
	Alternatives []pattern.Alternative
	Flags        pattern.Flags
}

// LiteralSpec marks every occurrence of Text verbatim.
type LiteralSpec struct {
	Text  string
	Color Color
	Flags pattern.Flags
}

// FunctionSpec marks with an external scan routine found at Path. Relative
// paths are resolved by the loader.
type FunctionSpec struct {
	Path string
}

func (RegexSpec) isSpec()      {}
func (MultiRegexSpec) isSpec() {}
func (LiteralSpec) isSpec()    {}
func (FunctionSpec) isSpec()   {}

func (s RegexSpec) Key() string {
	return joinKey("regex", s.Flags.String(), strconv.Itoa(int(s.Color)), s.Pattern)
}

func (s MultiRegexSpec) Key() string {
	parts := []string{"multi", s.Flags.String()}
	for _, alt := range s.Alternatives {
		parts = append(parts, strconv.Itoa(int(alt.Color)), alt.Pattern)
	}
	return joinKey(parts...)
}

func (s LiteralSpec) Key() string {
	return joinKey("literal", s.Flags.String(), strconv.Itoa(int(s.Color)), s.Text)
}

func (s FunctionSpec) Key() string {
	return joinKey("function", s.Path)
}

func joinKey(parts ...string) string {
	quoted := make([]string, len(parts))
	for i, p := range parts {
		quoted[i] = strconv.Quote(p)
	}
	return strings.Join(quoted, " ")
}
