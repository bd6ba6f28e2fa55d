package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zjrosen/marks/internal/config"
	"github.com/zjrosen/marks/internal/log"
)

// localConfigPath is checked before the user config directory.
const localConfigPath = ".marks/config.yaml"

var (
	version   = "dev"
	cfgFile   string
	debugFlag bool
	logFile   string
	cfg       config.Config
	cfgErr    error

	logCleanup func()
)

var rootCmd = &cobra.Command{
	Use:   "marks",
	Short: "Highlight text with lazy pattern and function markers",
	Long: `marks scans text with markers and highlights every span they report.

A marker is a regular expression, a set of expressions with one color each,
a literal string, or a scan routine loaded from a Go plugin. Markers are
defined on the command line or by name in the config file.`,
	Version:           version,
	SilenceUsage:      true,
	PersistentPreRunE: setupLogging,
	PersistentPostRun: func(*cobra.Command, []string) {
		if logCleanup != nil {
			logCleanup()
			logCleanup = nil
		}
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: .marks/config.yaml, then ~/.config/marks/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&debugFlag, "debug", "d", false,
		"write debug logs (also enabled by MARKS_DEBUG)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "",
		"debug log path (default: $MARKS_LOG or marks-debug.log)")
}

func initConfig() {
	v := viper.GetViper()
	config.SetDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		// Config lookup order:
		// 1. .marks/config.yaml (current directory)
		// 2. ~/.config/marks/config.yaml (user config)
		if _, err := os.Stat(localConfigPath); err == nil {
			v.SetConfigFile(localConfigPath)
		} else {
			v.AddConfigPath(config.DefaultConfigDir())
			v.SetConfigName("config")
			v.SetConfigType("yaml")
		}
	}

	cfgErr = nil
	if err := v.ReadInConfig(); err != nil {
		// Running without any config file is fine: defaults apply.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			cfgErr = fmt.Errorf("reading config: %w", err)
			return
		}
	}

	cfg, cfgErr = config.Load(v)
}

// loadedConfig returns the validated configuration.
func loadedConfig() (config.Config, error) {
	if cfgErr != nil {
		return config.Config{}, cfgErr
	}
	if err := config.Validate(cfg); err != nil {
		return config.Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// reloadConfig re-reads the config file in use, for --watch.
func reloadConfig() (config.Config, error) {
	initConfig()
	return loadedConfig()
}

// configPath returns the file that config-editing commands write to.
func configPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	if used := viper.ConfigFileUsed(); used != "" {
		return used
	}
	return filepath.Join(config.DefaultConfigDir(), "config.yaml")
}

func setupLogging(cmd *cobra.Command, _ []string) error {
	if os.Getenv("MARKS_DEBUG") == "" && !debugFlag {
		return nil
	}

	path := logFile
	if path == "" {
		path = os.Getenv("MARKS_LOG")
	}
	if path == "" {
		path = "marks-debug.log"
	}

	cleanup, err := log.Init(path)
	if err != nil {
		return fmt.Errorf("initializing logging: %w", err)
	}
	logCleanup = cleanup
	log.Info(log.CatCLI, "marks starting", "command", cmd.Name(), "config", viper.ConfigFileUsed())
	return nil
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string (called from main with ldflags)
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}
