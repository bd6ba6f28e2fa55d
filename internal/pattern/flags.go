package pattern

import (
	"fmt"
	"strings"

	"github.com/dlclark/regexp2"
)

// Flags tune how a pattern is compiled. The zero value is Unicode-aware and
// case-sensitive.
type Flags uint8

const (
	IgnoreCase Flags = 1 << iota // case-insensitive matching
	Multiline                    // ^ and $ match at line boundaries
	DotAll                       // . matches newlines
	Verbose                      // whitespace and # comments in the pattern are ignored
	RE2                          // accept RE2 syntax such as (?P<name>...)
)

var flagNames = []struct {
	flag  Flags
	names []string
}{
	{IgnoreCase, []string{"ignorecase", "i"}},
	{Multiline, []string{"multiline", "m"}},
	{DotAll, []string{"dotall", "s"}},
	{Verbose, []string{"verbose", "x"}},
	{RE2, []string{"re2"}},
}

// ParseFlags converts flag names (as written in config files) into Flags.
func ParseFlags(names []string) (Flags, error) {
	var f Flags
	for _, raw := range names {
		name := strings.ToLower(strings.TrimSpace(raw))
		if name == "" {
			continue
		}
		found := false
		for _, fn := range flagNames {
			for _, n := range fn.names {
				if n == name {
					f |= fn.flag
					found = true
				}
			}
		}
		if !found {
			return 0, fmt.Errorf("unknown pattern flag %q", raw)
		}
	}
	return f, nil
}

// Names returns the canonical names of the set flags, in a stable order.
func (f Flags) Names() []string {
	var names []string
	for _, fn := range flagNames {
		if f&fn.flag != 0 {
			names = append(names, fn.names[0])
		}
	}
	return names
}

func (f Flags) String() string {
	if f == 0 {
		return "unicode"
	}
	return strings.Join(f.Names(), "|")
}

func (f Flags) options() regexp2.RegexOptions {
	opts := regexp2.None
	if f&IgnoreCase != 0 {
		opts |= regexp2.IgnoreCase
	}
	if f&Multiline != 0 {
		opts |= regexp2.Multiline
	}
	if f&DotAll != 0 {
		opts |= regexp2.Singleline
	}
	if f&Verbose != 0 {
		opts |= regexp2.IgnorePatternWhitespace
	}
	if f&RE2 != 0 {
		opts |= regexp2.RE2
	}
	return opts
}
