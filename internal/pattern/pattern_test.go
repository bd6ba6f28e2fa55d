package pattern

import (
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func scanAll(t *testing.T, c *Compiled, text string) []Match {
	t.Helper()
	var out []Match
	s := c.Scan(text)
	for {
		m, ok, err := s.Next()
		require.NoError(t, err)
		if !ok {
			return out
		}
		out = append(out, m)
	}
}

func TestCompileSingle_ClampsColor(t *testing.T) {
	tests := []struct {
		name  string
		color Color
		want  Color
	}{
		{name: "zero clamps up", color: 0, want: 1},
		{name: "negative clamps up", color: -7, want: 1},
		{name: "in range kept", color: 2, want: 2},
		{name: "above range clamps down", color: 5, want: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := CompileSingle("cat", tt.color, 0)
			require.NoError(t, err)
			require.Equal(t, KindSingle, c.Kind())
			require.Equal(t, tt.want, c.Color())
		})
	}
}

func TestCompileSingle_InvalidPattern(t *testing.T) {
	_, err := CompileSingle("(unclosed", 1, 0)
	require.Error(t, err)

	var perr *Error
	require.True(t, errors.As(err, &perr))
	require.Equal(t, "(unclosed", perr.Expr)
	require.Contains(t, err.Error(), "(unclosed")
}

func TestScanner_SinglePattern(t *testing.T) {
	c, err := CompileSingle("cat", 2, 0)
	require.NoError(t, err)

	got := scanAll(t, c, "cat dog cat")
	require.Equal(t, []Match{{Start: 0, End: 3}, {Start: 8, End: 11}}, got)
}

func TestScanner_RuneOffsets(t *testing.T) {
	c, err := CompileSingle(`w.rld`, 1, 0)
	require.NoError(t, err)

	got := scanAll(t, c, "héllo wörld")
	require.Equal(t, []Match{{Start: 6, End: 11}}, got)
}

func TestScanner_UnicodeWordClass(t *testing.T) {
	c, err := CompileSingle(`\w+`, 1, 0)
	require.NoError(t, err)

	got := scanAll(t, c, "über straße")
	require.Equal(t, []Match{{Start: 0, End: 4}, {Start: 5, End: 11}}, got)
}

func TestScanner_IgnoreCase(t *testing.T) {
	c, err := CompileSingle("cat", 1, IgnoreCase)
	require.NoError(t, err)

	got := scanAll(t, c, "Cat CAT cat")
	require.Len(t, got, 3)
}

func TestScanner_ExhaustedStaysExhausted(t *testing.T) {
	c, err := CompileSingle("a", 1, 0)
	require.NoError(t, err)

	s := c.Scan("a")
	_, ok, err := s.Next()
	require.NoError(t, err)
	require.True(t, ok)

	for i := 0; i < 3; i++ {
		_, ok, err = s.Next()
		require.NoError(t, err)
		require.False(t, ok)
	}
}

func TestScanner_EmptyMatchesTerminate(t *testing.T) {
	c, err := CompileSingle("x*", 1, 0)
	require.NoError(t, err)

	got := scanAll(t, c, "abc")
	require.NotEmpty(t, got)
	require.LessOrEqual(t, len(got), 4)
	for _, m := range got {
		require.Equal(t, m.Start, m.End)
	}
}

func TestScanner_NonEmptyMatchAfterEmptyAtSamePosition(t *testing.T) {
	tests := []struct {
		name string
		expr string
		text string
		want []Match
	}{
		{
			name: "lazy star",
			expr: `a*?`,
			text: "aaa",
			want: []Match{
				{Start: 0, End: 0}, {Start: 0, End: 1},
				{Start: 1, End: 1}, {Start: 1, End: 2},
				{Start: 2, End: 2}, {Start: 2, End: 3},
				{Start: 3, End: 3},
			},
		},
		{
			name: "lookahead alternative",
			expr: `(?=b)|b`,
			text: "abab",
			want: []Match{
				{Start: 1, End: 1}, {Start: 1, End: 2},
				{Start: 3, End: 3}, {Start: 3, End: 4},
			},
		},
		{
			name: "empty after non-empty",
			expr: `x*`,
			text: "axxb",
			want: []Match{
				{Start: 0, End: 0}, {Start: 1, End: 3},
				{Start: 3, End: 3}, {Start: 4, End: 4},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := CompileSingle(tt.expr, 1, 0)
			require.NoError(t, err)
			require.Equal(t, tt.want, scanAll(t, c, tt.text))
		})
	}
}

func TestScanner_MultipleRetriesLaterAlternativeAfterEmpty(t *testing.T) {
	c, err := CompileMultiple([]Alternative{
		{Color: 1, Pattern: `\d*`},
		{Color: 2, Pattern: `foo`},
	}, 0)
	require.NoError(t, err)

	got := scanAll(t, c, "foo 12")
	require.Equal(t, []Match{
		{Start: 0, End: 0, Group: "mcg0"},
		{Start: 0, End: 3, Group: "mcg1"},
		{Start: 3, End: 3, Group: "mcg0"},
		{Start: 4, End: 6, Group: "mcg0"},
		{Start: 6, End: 6, Group: "mcg0"},
	}, got)
}

func TestCompileSingle_VerboseTrailingComment(t *testing.T) {
	c, err := CompileSingle("a+ # run of a", 1, Verbose)
	require.NoError(t, err)

	got := scanAll(t, c, "baab")
	require.Equal(t, []Match{{Start: 1, End: 3}}, got)
}

func TestCompileMultiple_GroupsAndColors(t *testing.T) {
	c, err := CompileMultiple([]Alternative{
		{Color: 1, Pattern: "cat"},
		{Color: 2, Pattern: "dog"},
	}, 0)
	require.NoError(t, err)

	require.Equal(t, KindMultiple, c.Kind())
	require.Equal(t, []string{"mcg0", "mcg1"}, c.Groups())
	require.Equal(t, "(?<mcg0>cat)|(?<mcg1>dog)", c.Expr())

	got := scanAll(t, c, "cat dog")
	require.Equal(t, []Match{
		{Start: 0, End: 3, Group: "mcg0"},
		{Start: 4, End: 7, Group: "mcg1"},
	}, got)
}

func TestCompileMultiple_ColorsNotClamped(t *testing.T) {
	c, err := CompileMultiple([]Alternative{
		{Color: 0, Pattern: "a"},
		{Color: 7, Pattern: "b"},
	}, 0)
	require.NoError(t, err)

	color, ok := c.ColorOf("mcg0")
	require.True(t, ok)
	assert.Equal(t, Color(0), color)

	color, ok = c.ColorOf("mcg1")
	require.True(t, ok)
	assert.Equal(t, Color(7), color)

	_, ok = c.ColorOf("mcg2")
	assert.False(t, ok)
}

func TestCompileMultiple_FirstAlternativeWins(t *testing.T) {
	c, err := CompileMultiple([]Alternative{
		{Color: 1, Pattern: "ab"},
		{Color: 2, Pattern: "abc"},
	}, 0)
	require.NoError(t, err)

	got := scanAll(t, c, "abc")
	require.Equal(t, []Match{{Start: 0, End: 2, Group: "mcg0"}}, got)
}

func TestCompileMultiple_EmptyCaptureStillCounts(t *testing.T) {
	c, err := CompileMultiple([]Alternative{
		{Color: 1, Pattern: "q?"},
		{Color: 2, Pattern: "z"},
	}, 0)
	require.NoError(t, err)

	m, ok, err := c.Scan("z").Next()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "mcg0", m.Group)
	require.Equal(t, 0, m.End-m.Start)
}

func TestCompileMultiple_Errors(t *testing.T) {
	_, err := CompileMultiple(nil, 0)
	require.ErrorIs(t, err, ErrNoAlternatives)

	var perr *Error
	require.True(t, errors.As(err, &perr))

	alts := make([]Alternative, MaxAlternatives+1)
	for i := range alts {
		alts[i] = Alternative{Color: 1, Pattern: "x"}
	}
	_, err = CompileMultiple(alts, 0)
	require.ErrorIs(t, err, ErrTooManyAlternatives)

	_, err = CompileMultiple([]Alternative{{Color: 1, Pattern: "ok"}, {Color: 2, Pattern: "[bad"}}, 0)
	require.True(t, errors.As(err, &perr))
}

func TestCompileLiteral_EscapesMetacharacters(t *testing.T) {
	c, err := CompileLiteral("a.b", 1, 0)
	require.NoError(t, err)

	got := scanAll(t, c, "a.b axb")
	require.Equal(t, []Match{{Start: 0, End: 3}}, got)
}

func TestScanner_TimeoutSurfacesAsScanError(t *testing.T) {
	c, err := Compiler{Timeout: 10 * time.Millisecond}.Single(`(x+x+)+y`, 1, 0)
	require.NoError(t, err)

	s := c.Scan(strings.Repeat("x", 64))
	_, ok, err := s.Next()
	require.False(t, ok)
	require.Error(t, err)

	var serr *ScanError
	require.True(t, errors.As(err, &serr))
	require.Equal(t, 0, serr.Offset)

	// the scanner is finished after a fault
	_, ok, err = s.Next()
	require.NoError(t, err)
	require.False(t, ok)
}

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name    string
		in      []string
		want    Flags
		wantErr bool
	}{
		{name: "empty", in: nil, want: 0},
		{name: "long names", in: []string{"ignorecase", "multiline"}, want: IgnoreCase | Multiline},
		{name: "short names", in: []string{"i", "s", "x"}, want: IgnoreCase | DotAll | Verbose},
		{name: "case and space insensitive", in: []string{" RE2 ", ""}, want: RE2},
		{name: "unknown", in: []string{"bogus"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFlags(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestFlags_String(t *testing.T) {
	require.Equal(t, "unicode", Flags(0).String())
	require.Equal(t, "ignorecase|dotall", (IgnoreCase | DotAll).String())
}

func TestClamp_Property(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		c := Color(rapid.IntRange(-1000, 1000).Draw(t, "color"))
		got := Clamp(c)
		if got < MinColor || got > MaxColor {
			t.Fatalf("Clamp(%d) = %d out of range", c, got)
		}
		if c >= MinColor && c <= MaxColor && got != c {
			t.Fatalf("Clamp(%d) = %d changed an in-range color", c, got)
		}
	})
}

func TestLiteral_MatchesFirstOccurrence_Property(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		needle := rapid.StringN(1, 12, -1).Draw(t, "needle")
		prefix := rapid.String().Draw(t, "prefix")
		text := prefix + needle

		c, err := CompileLiteral(needle, 1, 0)
		if err != nil {
			t.Fatalf("literal %q did not compile: %v", needle, err)
		}
		m, ok, err := c.Scan(text).Next()
		if err != nil || !ok {
			t.Fatalf("literal %q not found in %q (err %v)", needle, text, err)
		}

		idx := strings.Index(text, needle)
		wantStart := utf8.RuneCountInString(text[:idx])
		if m.Start != wantStart || m.End-m.Start != utf8.RuneCountInString(needle) {
			t.Fatalf("got [%d,%d) want start %d len %d", m.Start, m.End, wantStart, utf8.RuneCountInString(needle))
		}
	})
}
