package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zjrosen/marks/internal/cachemanager"
	"github.com/zjrosen/marks/internal/config"
	"github.com/zjrosen/marks/internal/log"
	"github.com/zjrosen/marks/internal/marker"
	"github.com/zjrosen/marks/internal/pattern"
	"github.com/zjrosen/marks/internal/plugin"
	"github.com/zjrosen/marks/internal/presentation"
	"github.com/zjrosen/marks/internal/render"
	"github.com/zjrosen/marks/internal/watcher"
)

var markCmd = &cobra.Command{
	Use:   "mark [file]",
	Short: "Highlight the marks of a file or stdin",
	Long: `Scan a file (or stdin) with a marker and print it with every mark colored,
or print the marks themselves as JSON lines.

The marker is chosen with --marker NAME from the config file, or given inline
with --definition. Without either, the first configured marker is used.

Definitions:
  regex|iregex|text|itext COLOR PATTERN [COLOR PATTERN ...]
  function PATH

Examples:
  # Highlight errors and warnings in a log
  marks mark app.log -D "iregex 1 error 2 warn"

  # Use a named marker from the config
  marks mark app.log --marker log-levels

  # Emit marks as JSON lines
  tail -n 100 app.log | marks mark --json -D "text 3 TODO"

  # Re-highlight whenever the file (or config) changes
  marks mark app.log --watch`,
	Args: cobra.MaximumNArgs(1),
	RunE: runMark,
}

type markOptions struct {
	markerName string
	definition string
	json       bool
	watch      bool
	keepANSI   bool
}

var markOpts markOptions

func init() {
	markCmd.Flags().StringVarP(&markOpts.markerName, "marker", "m", "", "name of a configured marker")
	markCmd.Flags().StringVarP(&markOpts.definition, "definition", "D", "", `inline marker definition, e.g. "itext 1 error"`)
	markCmd.Flags().BoolVar(&markOpts.json, "json", false, "print marks as JSON lines instead of highlighted text")
	markCmd.Flags().BoolVarP(&markOpts.watch, "watch", "w", false, "re-mark the file whenever it or the config changes")
	markCmd.Flags().BoolVar(&markOpts.keepANSI, "keep-ansi", false, "scan input escape sequences instead of stripping them")
	markCmd.MarkFlagsMutuallyExclusive("marker", "definition")
	rootCmd.AddCommand(markCmd)
}

func runMark(cmd *cobra.Command, args []string) error {
	if markOpts.watch && len(args) == 0 {
		return fmt.Errorf("--watch needs a file argument")
	}

	c, err := loadedConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	factory := newFactory(c)
	out := cmd.OutOrStdout()

	if !markOpts.watch {
		text, err := readInput(cmd.InOrStdin(), args)
		if err != nil {
			return err
		}
		return markOnce(ctx, out, factory, c, markOpts, text)
	}
	return watchAndMark(ctx, out, factory, c, args[0])
}

// newFactory builds the marker factory shared by every run of the command.
func newFactory(c config.Config) *marker.Factory {
	opts := []marker.Option{
		marker.WithCompiler(pattern.Compiler{Timeout: c.Engine.Timeout}),
		marker.WithLoader(plugin.NewLoader(c.ConfigDir, plugin.WithRegistry(plugin.Builtins()))),
	}
	if c.Cache.TTL > 0 {
		cache := cachemanager.NewInMemoryCacheManager[string, marker.Marker]("markers", c.Cache.TTL, 2*c.Cache.TTL)
		opts = append(opts, marker.WithCache(cache, c.Cache.TTL))
	}
	return marker.NewFactory(opts...)
}

// rebuildFactory replaces old with a factory for a reloaded config. Markers
// cached by old were built under the previous engine and plugin settings.
func rebuildFactory(ctx context.Context, old *marker.Factory, c config.Config) *marker.Factory {
	if err := old.Flush(ctx); err != nil {
		log.ErrorErr(log.CatCache, "dropping cached markers", err)
	}
	return newFactory(c)
}

// selectDefinition picks the definition named by opts, falling back to the
// first configured marker. Engine-wide flags are added to pattern markers.
func selectDefinition(c config.Config, opts markOptions) (marker.Definition, error) {
	var (
		def marker.Definition
		err error
	)

	switch {
	case opts.definition != "":
		def, err = marker.ParseDefinition(opts.definition)
	case opts.markerName != "":
		m, ok := c.FindMarker(opts.markerName)
		if !ok {
			return marker.Definition{}, fmt.Errorf("no marker named %q in config", opts.markerName)
		}
		def, err = m.Definition()
	case len(c.Markers) > 0:
		def, err = c.Markers[0].Definition()
	default:
		return marker.Definition{}, fmt.Errorf("no marker given and none configured")
	}
	if err != nil {
		return marker.Definition{}, err
	}

	if def.Type != marker.TypeFunction {
		def.Flags |= c.EngineFlags()
	}
	return def, nil
}

func readInput(stdin io.Reader, args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", args[0], err)
	}
	return string(data), nil
}

// markOnce builds the selected marker and writes text with its marks.
func markOnce(ctx context.Context, w io.Writer, factory *marker.Factory, c config.Config, opts markOptions, text string) error {
	def, err := selectDefinition(c, opts)
	if err != nil {
		return err
	}
	m, err := factory.Build(ctx, def)
	if err != nil {
		return fmt.Errorf("building marker: %w", err)
	}

	if !opts.keepANSI {
		text = render.Strip(text)
	}
	log.Debug(log.CatCLI, "marking", "definition", def.String(), "runes", len([]rune(text)))

	seq := m(text)
	if opts.json {
		return presentation.NewFormatter(w).StreamMarks(text, seq)
	}
	styles := render.NewStyles(c.Theme.Color1, c.Theme.Color2, c.Theme.Color3)
	return render.New(styles).Render(w, text, seq)
}

func watchAndMark(ctx context.Context, w io.Writer, factory *marker.Factory, c config.Config, path string) error {
	paths := []string{path}
	if used := viper.ConfigFileUsed(); used != "" {
		paths = append(paths, used)
	}

	fw, err := watcher.New(watcher.DefaultConfig(paths...))
	if err != nil {
		return err
	}
	defer func() { _ = fw.Stop() }()

	changes, err := fw.Start()
	if err != nil {
		return err
	}

	run := func() {
		text, err := readInput(nil, []string{path})
		if err == nil {
			// Clear the screen between renders.
			_, _ = io.WriteString(w, "\x1b[H\x1b[2J")
			err = markOnce(ctx, w, factory, c, markOpts, text)
		}
		if err != nil {
			log.ErrorErr(log.CatCLI, "marking failed", err, "file", path)
			_, _ = fmt.Fprintf(w, "\nmarks: %v\n", err)
		}
	}

	run()
	for {
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()
		case <-changes:
			if reloaded, err := reloadConfig(); err == nil {
				c = reloaded
				factory = rebuildFactory(ctx, factory, c)
			} else {
				log.ErrorErr(log.CatConfig, "keeping previous config", err)
			}
			run()
		}
	}
}
