// Package pattern compiles marker definitions into a single matcher plus a
// table mapping each alternative to its color.
//
// Matching is delegated to regexp2, a backtracking engine whose syntax and
// alternation semantics follow the Perl/Python family. Offsets reported by
// this package are rune offsets into the scanned text.
package pattern

import (
	"fmt"
	"strings"
	"time"

	"github.com/dlclark/regexp2"

	"github.com/zjrosen/marks/internal/log"
)

// Color is the mark color code. Hosts render 1, 2 and 3.
type Color int

const (
	MinColor Color = 1
	MaxColor Color = 3
)

// Clamp forces c into [MinColor, MaxColor].
func Clamp(c Color) Color {
	return max(MinColor, min(c, MaxColor))
}

// MaxAlternatives bounds the number of alternatives of a multi-pattern marker.
const MaxAlternatives = 1000

// groupPrefix names the capture group wrapping each alternative.
const groupPrefix = "mcg"

// Kind tells single-pattern and multi-pattern compilations apart.
type Kind int

const (
	KindSingle Kind = iota
	KindMultiple
)

func (k Kind) String() string {
	switch k {
	case KindSingle:
		return "single"
	case KindMultiple:
		return "multiple"
	default:
		return "unknown"
	}
}

// Alternative is one colored branch of a multi-pattern marker.
type Alternative struct {
	Color   Color
	Pattern string
}

// Compiled is an immutable compiled marker. It is safe for concurrent use;
// every Scan gets its own cursor state.
type Compiled struct {
	re      *regexp2.Regexp
	guard   *regexp2.Regexp // re anchored at the search start, never empty
	kind    Kind
	color   Color
	groups  []string
	colorOf map[string]Color
}

// Kind reports whether c came from a single pattern or an alternation.
func (c *Compiled) Kind() Kind { return c.kind }

// Expr returns the expression handed to the engine.
func (c *Compiled) Expr() string { return c.re.String() }

// Color returns the clamped color of a single-pattern compilation.
func (c *Compiled) Color() Color { return c.color }

// Groups returns the alternative group names in declaration order.
func (c *Compiled) Groups() []string {
	return append([]string(nil), c.groups...)
}

// ColorOf returns the color declared for the named alternative group.
func (c *Compiled) ColorOf(group string) (Color, bool) {
	color, ok := c.colorOf[group]
	return color, ok
}

// Compiler compiles patterns with shared engine settings.
type Compiler struct {
	// Timeout bounds a single search step. Zero means no limit.
	Timeout time.Duration
}

// Single compiles expr and clamps color into [MinColor, MaxColor].
func (cm Compiler) Single(expr string, color Color, flags Flags) (*Compiled, error) {
	re, guard, err := cm.compile(expr, flags)
	if err != nil {
		return nil, err
	}
	c := &Compiled{re: re, guard: guard, kind: KindSingle, color: Clamp(color)}
	log.Debug(log.CatPattern, "compiled single", "expr", expr, "color", c.color, "flags", flags)
	return c, nil
}

// Multiple builds one alternation from alts, wrapping the i-th alternative in
// a group named mcg{i}. Colors are used exactly as given.
func (cm Compiler) Multiple(alts []Alternative, flags Flags) (*Compiled, error) {
	if len(alts) == 0 {
		return nil, &Error{Err: ErrNoAlternatives}
	}
	if len(alts) > MaxAlternatives {
		return nil, &Error{
			Expr: alts[0].Pattern,
			Err:  fmt.Errorf("%w: %d > %d", ErrTooManyAlternatives, len(alts), MaxAlternatives),
		}
	}

	var b strings.Builder
	groups := make([]string, len(alts))
	colorOf := make(map[string]Color, len(alts))
	for i, alt := range alts {
		name := fmt.Sprintf("%s%d", groupPrefix, i)
		groups[i] = name
		colorOf[name] = alt.Color
		if i > 0 {
			b.WriteByte('|')
		}
		fmt.Fprintf(&b, "(?<%s>%s)", name, alt.Pattern)
	}

	re, guard, err := cm.compile(b.String(), flags)
	if err != nil {
		return nil, err
	}
	log.Debug(log.CatPattern, "compiled alternation", "alternatives", len(alts), "flags", flags)
	return &Compiled{re: re, guard: guard, kind: KindMultiple, groups: groups, colorOf: colorOf}, nil
}

// Literal escapes text so that every character matches itself, then compiles
// it as a single pattern.
func (cm Compiler) Literal(text string, color Color, flags Flags) (*Compiled, error) {
	return cm.Single(Escape(text), color, flags)
}

// compile returns the matcher for expr and its non-empty guard: the same
// expression anchored with \G at the search start and rejected when it ends
// there. After an empty match at p the guard finds a longer match at p.
func (cm Compiler) compile(expr string, flags Flags) (re, guard *regexp2.Regexp, err error) {
	re, err = regexp2.Compile(expr, flags.options())
	if err != nil {
		log.Debug(log.CatPattern, "compile failed", "expr", expr, "error", err)
		return nil, nil, &Error{Expr: expr, Err: err}
	}

	body := expr
	if flags&Verbose != 0 {
		// a trailing # comment would swallow the closing parenthesis
		body += "\n"
	}
	guard, err = regexp2.Compile(`\G(?:`+body+`)(?!\G)`, flags.options())
	if err != nil {
		return nil, nil, &Error{Expr: expr, Err: err}
	}

	if cm.Timeout > 0 {
		re.MatchTimeout = cm.Timeout
		guard.MatchTimeout = cm.Timeout
	}
	return re, guard, nil
}

// Escape quotes every metacharacter in s.
func Escape(s string) string {
	return regexp2.Escape(s)
}

// CompileSingle compiles with a zero-value Compiler.
func CompileSingle(expr string, color Color, flags Flags) (*Compiled, error) {
	return Compiler{}.Single(expr, color, flags)
}

// CompileMultiple compiles with a zero-value Compiler.
func CompileMultiple(alts []Alternative, flags Flags) (*Compiled, error) {
	return Compiler{}.Multiple(alts, flags)
}

// CompileLiteral compiles with a zero-value Compiler.
func CompileLiteral(text string, color Color, flags Flags) (*Compiled, error) {
	return Compiler{}.Literal(text, color, flags)
}
