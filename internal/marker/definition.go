package marker

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kballard/go-shellquote"

	"github.com/zjrosen/marks/internal/pattern"
)

// Marker type tags accepted by Definition.
const (
	TypeRegex    = "regex"
	TypeIRegex   = "iregex"
	TypeText     = "text"
	TypeIText    = "itext"
	TypeFunction = "function"
)

// Pair is one (color, pattern) entry of a regex or text definition.
type Pair struct {
	Color   Color
	Pattern string
}

// Definition is the host-facing description of a marker: a type tag, its
// argument and matching flags.
type Definition struct {
	Type  string
	Pairs []Pair // regex, iregex, text, itext
	Path  string // function
	Flags pattern.Flags
}

// Spec converts d into a Spec. A single pair becomes a RegexSpec (or
// LiteralSpec for text types); several pairs become a MultiRegexSpec.
func (d Definition) Spec() (Spec, error) {
	switch d.Type {
	case TypeRegex, TypeIRegex, TypeText, TypeIText:
	case TypeFunction:
		if strings.TrimSpace(d.Path) == "" {
			return nil, fmt.Errorf("%w: function marker needs a path", ErrInvalidDefinition)
		}
		return FunctionSpec{Path: d.Path}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMarkerType, d.Type)
	}

	flags := d.Flags
	if strings.HasPrefix(d.Type, "i") {
		flags |= pattern.IgnoreCase
	}
	literal := strings.HasSuffix(d.Type, TypeText)

	switch len(d.Pairs) {
	case 0:
		return nil, &pattern.Error{Err: pattern.ErrNoAlternatives}
	case 1:
		p := d.Pairs[0]
		if literal {
			return LiteralSpec{Text: p.Pattern, Color: p.Color, Flags: flags}, nil
		}
		return RegexSpec{Pattern: p.Pattern, Color: p.Color, Flags: flags}, nil
	}

	alts := make([]pattern.Alternative, len(d.Pairs))
	for i, p := range d.Pairs {
		expr := p.Pattern
		if literal {
			expr = pattern.Escape(expr)
		}
		alts[i] = pattern.Alternative{Color: p.Color, Pattern: expr}
	}
	return MultiRegexSpec{Alternatives: alts, Flags: flags}, nil
}

// String renders d in the syntax read by ParseDefinition.
func (d Definition) String() string {
	if d.Type == TypeFunction {
		return d.Type + " " + quoteField(d.Path)
	}
	parts := []string{d.Type}
	for _, p := range d.Pairs {
		parts = append(parts, strconv.Itoa(int(p.Color)), quoteField(p.Pattern))
	}
	return strings.Join(parts, " ")
}

// ParseDefinition reads a definition written as
//
//	regex|iregex|text|itext COLOR PATTERN [COLOR PATTERN ...]
//	function PATH
//
// Fields are separated by whitespace; quotes and backslashes work as in a
// POSIX shell. Colors are clamped into the renderable range here, at the
// host boundary.
func ParseDefinition(s string) (Definition, error) {
	fields, err := shellquote.Split(s)
	if err != nil {
		return Definition{}, fmt.Errorf("%w: %w", ErrInvalidDefinition, err)
	}
	if len(fields) == 0 {
		return Definition{}, fmt.Errorf("%w: empty", ErrInvalidDefinition)
	}

	d := Definition{Type: fields[0]}
	args := fields[1:]

	switch d.Type {
	case TypeFunction:
		d.Path = strings.Join(args, " ")
		if d.Path == "" {
			return Definition{}, fmt.Errorf("%w: function marker needs a path", ErrInvalidDefinition)
		}
		return d, nil
	case TypeRegex, TypeIRegex, TypeText, TypeIText:
	default:
		return Definition{}, fmt.Errorf("%w: %q", ErrUnknownMarkerType, d.Type)
	}

	if len(args) == 0 || len(args)%2 != 0 {
		return Definition{}, fmt.Errorf("%w: colors and patterns are not given in pairs: %s",
			ErrInvalidDefinition, strings.Join(args, " "))
	}
	for i := 0; i < len(args); i += 2 {
		n, err := strconv.Atoi(args[i])
		if err != nil {
			return Definition{}, fmt.Errorf("%w: color %q is not an integer", ErrInvalidDefinition, args[i])
		}
		d.Pairs = append(d.Pairs, Pair{Color: pattern.Clamp(Color(n)), Pattern: args[i+1]})
	}
	return d, nil
}

func quoteField(s string) string {
	if s != "" && !strings.ContainsAny(s, " \t\n'\"\\") {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
