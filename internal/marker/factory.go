package marker

import (
	"context"
	"fmt"
	"time"

	"github.com/zjrosen/marks/internal/cachemanager"
	"github.com/zjrosen/marks/internal/log"
	"github.com/zjrosen/marks/internal/pattern"
)

// Loader obtains the scan routine of a function marker. Resolving the path
// and loading code are the loader's business.
type Loader interface {
	Load(ctx context.Context, path string) (ScanFunc, error)
}

// Factory builds markers from specs. A Factory is safe for concurrent use.
type Factory struct {
	compiler pattern.Compiler
	loader   Loader
	markers  *cachemanager.ReadThroughCache[string, Marker, Spec]
}

// Option configures a Factory.
type Option func(*Factory)

// WithCompiler sets the pattern compiler settings.
func WithCompiler(c pattern.Compiler) Option {
	return func(f *Factory) { f.compiler = c }
}

// WithLoader enables function markers.
func WithLoader(l Loader) Option {
	return func(f *Factory) { f.loader = l }
}

// WithCache keeps built markers in c, keyed by Spec.Key. A marker unused
// for ttl is dropped.
func WithCache(c cachemanager.CacheManager[string, Marker], ttl time.Duration) Option {
	return func(f *Factory) {
		f.markers = cachemanager.NewReadThroughCache[string, Marker, Spec](c, f.build, ttl)
	}
}

// NewFactory returns a Factory. Without WithLoader, function markers fail
// with ErrNoLoader.
func NewFactory(opts ...Option) *Factory {
	f := &Factory{}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Build dispatches on the definition's type tag. Regex and text types with
// one pair build single-pattern markers, with more pairs multi-pattern
// markers; function types load an external routine. Any other tag fails
// with ErrUnknownMarkerType.
func (f *Factory) Build(ctx context.Context, def Definition) (Marker, error) {
	spec, err := def.Spec()
	if err != nil {
		log.Debug(log.CatMarker, "rejected definition", "type", def.Type, "error", err)
		return nil, err
	}
	return f.New(ctx, spec)
}

// New builds the marker described by spec.
func (f *Factory) New(ctx context.Context, spec Spec) (Marker, error) {
	if spec == nil {
		return nil, fmt.Errorf("%w: nil spec", ErrInvalidDefinition)
	}
	if f.markers == nil {
		return f.build(ctx, spec)
	}
	return f.markers.Lookup(ctx, spec.Key(), spec)
}

// Flush forgets every cached marker so the next New builds afresh.
func (f *Factory) Flush(ctx context.Context) error {
	if f.markers == nil {
		return nil
	}
	return f.markers.Invalidate(ctx)
}

func (f *Factory) build(ctx context.Context, spec Spec) (Marker, error) {
	var (
		c   *pattern.Compiled
		err error
	)

	switch s := spec.(type) {
	case RegexSpec:
		c, err = f.compiler.Single(s.Pattern, s.Color, s.Flags)
	case MultiRegexSpec:
		c, err = f.compiler.Multiple(s.Alternatives, s.Flags)
	case LiteralSpec:
		c, err = f.compiler.Literal(s.Text, s.Color, s.Flags)
	case FunctionSpec:
		return f.buildFunction(ctx, s)
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownMarkerType, spec)
	}
	if err != nil {
		return nil, err
	}

	log.Debug(log.CatMarker, "built marker", "kind", c.Kind(), "expr", c.Expr())
	return FromCompiled(c), nil
}

func (f *Factory) buildFunction(ctx context.Context, s FunctionSpec) (Marker, error) {
	if f.loader == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoLoader, s.Path)
	}
	fn, err := f.loader.Load(ctx, s.Path)
	if err != nil {
		return nil, err
	}
	if fn == nil {
		return nil, fmt.Errorf("%w: loader returned no routine for %s", ErrInvalidDefinition, s.Path)
	}
	log.Debug(log.CatMarker, "built function marker", "path", s.Path)
	return FromFunction(fn), nil
}
