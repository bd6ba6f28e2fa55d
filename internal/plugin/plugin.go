// Package plugin resolves and loads the scan routines behind function
// markers.
//
// A function marker names either an entry of a Registry (routines compiled
// into the host) or a Go plugin file. Relative plugin paths are resolved
// against the configuration directory. A plugin must export a symbol named
// Marker holding a func(string) iter.Seq[marker.Mark], either as a function
// or as a variable of that type.
package plugin

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	goplugin "plugin"
	"strings"

	"github.com/zjrosen/marks/internal/log"
	"github.com/zjrosen/marks/internal/marker"
)

// Symbol is the name a plugin must export.
const Symbol = "Marker"

var (
	// ErrPathNotFound is returned when the resolved module path does not exist.
	ErrPathNotFound = errors.New("marker module not found")
	// ErrMissingMarker is returned when a module has no usable Marker symbol.
	ErrMissingMarker = errors.New("marker module does not export a Marker routine")
	// ErrLoad is returned when a module exists but cannot be loaded.
	ErrLoad = errors.New("cannot load marker module")
)

// Symbols is the part of a loaded module the Loader needs.
type Symbols interface {
	Lookup(name string) (goplugin.Symbol, error)
}

// Opener loads the module at path.
type Opener func(path string) (Symbols, error)

// OpenGoPlugin opens a Go plugin built with -buildmode=plugin.
func OpenGoPlugin(path string) (Symbols, error) {
	p, err := goplugin.Open(path)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Resolve returns path unchanged when absolute, expands a leading ~/ to the
// home directory, and otherwise joins it onto configDir.
func Resolve(configDir, path string) string {
	if rest, ok := strings.CutPrefix(path, "~/"); ok {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, rest)
		}
	}
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(configDir, path)
}

// Loader implements marker.Loader.
type Loader struct {
	configDir string
	registry  *Registry
	open      Opener
}

// Option configures a Loader.
type Option func(*Loader)

// WithRegistry consults r before touching the filesystem.
func WithRegistry(r *Registry) Option {
	return func(l *Loader) { l.registry = r }
}

// WithOpener replaces the Go plugin opener.
func WithOpener(o Opener) Option {
	return func(l *Loader) { l.open = o }
}

// NewLoader returns a Loader resolving relative paths against configDir.
func NewLoader(configDir string, opts ...Option) *Loader {
	l := &Loader{configDir: configDir, open: OpenGoPlugin}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load returns the scan routine named by path.
func (l *Loader) Load(ctx context.Context, path string) (marker.ScanFunc, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if l.registry != nil {
		if fn, ok := l.registry.Lookup(path); ok {
			log.Debug(log.CatPlugin, "using registered routine", "name", path)
			return fn, nil
		}
	}

	resolved := Resolve(l.configDir, path)
	if _, err := os.Stat(resolved); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrPathNotFound, resolved)
		}
		return nil, fmt.Errorf("%w %s: %v", ErrLoad, resolved, err)
	}

	syms, err := l.open(resolved)
	if err != nil {
		log.ErrorErr(log.CatPlugin, "open failed", err, "path", resolved)
		return nil, fmt.Errorf("%w %s: %v", ErrLoad, resolved, err)
	}

	sym, err := syms.Lookup(Symbol)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMissingMarker, resolved, err)
	}
	fn, ok := asScanFunc(sym)
	if !ok {
		return nil, fmt.Errorf("%w: %s: %s has type %T", ErrMissingMarker, resolved, Symbol, sym)
	}

	log.Debug(log.CatPlugin, "loaded routine", "path", resolved)
	return fn, nil
}

func asScanFunc(sym goplugin.Symbol) (marker.ScanFunc, bool) {
	switch v := sym.(type) {
	case func(string) iter.Seq[marker.Mark]:
		return v, v != nil
	case marker.ScanFunc:
		return v, v != nil
	case *func(string) iter.Seq[marker.Mark]:
		if v == nil || *v == nil {
			return nil, false
		}
		return *v, true
	case *marker.ScanFunc:
		if v == nil || *v == nil {
			return nil, false
		}
		return *v, true
	default:
		return nil, false
	}
}
