package plugin

import (
	"errors"
	"fmt"
	"iter"
	"slices"
	"strings"
	"sync"

	"github.com/zjrosen/marks/internal/marker"
)

var (
	ErrEmptyName     = errors.New("routine name cannot be empty")
	ErrNilRoutine    = errors.New("routine cannot be nil")
	ErrAlreadyExists = errors.New("routine already registered")
)

// Registry maps names to scan routines compiled into the host.
type Registry struct {
	mu    sync.RWMutex
	funcs map[string]marker.ScanFunc
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{funcs: make(map[string]marker.ScanFunc)}
}

// Register adds fn under name.
func (r *Registry) Register(name string, fn marker.ScanFunc) error {
	if strings.TrimSpace(name) == "" {
		return ErrEmptyName
	}
	if fn == nil {
		return fmt.Errorf("%w: %s", ErrNilRoutine, name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.funcs[name]; ok {
		return fmt.Errorf("%w: %s", ErrAlreadyExists, name)
	}
	r.funcs[name] = fn
	return nil
}

// Lookup returns the routine registered under name.
func (r *Registry) Lookup(name string) (marker.ScanFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.funcs[name]
	return fn, ok
}

// Names returns the registered names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.funcs))
	for name := range r.funcs {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Builtins returns a Registry holding the routines shipped with marks.
func Builtins() *Registry {
	r := NewRegistry()
	_ = r.Register("builtin:trailing-whitespace", TrailingWhitespace)
	return r
}

// TrailingWhitespace marks runs of spaces and tabs that end a line, in
// color 3.
func TrailingWhitespace(text string) iter.Seq[marker.Mark] {
	return func(yield func(marker.Mark) bool) {
		start := -1
		i := 0
		for _, r := range text {
			switch {
			case r == ' ' || r == '\t':
				if start < 0 {
					start = i
				}
			case r == '\n' || r == '\r':
				if start >= 0 && !yield(marker.Mark{Start: start, End: i - 1, Color: 3}) {
					return
				}
				start = -1
			default:
				start = -1
			}
			i++
		}
		if start >= 0 {
			yield(marker.Mark{Start: start, End: i - 1, Color: 3})
		}
	}
}
