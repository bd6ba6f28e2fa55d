package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zjrosen/marks/internal/config"
	"github.com/zjrosen/marks/internal/presentation"
)

var markersListCmd = &cobra.Command{
	Use:   "markers:list",
	Short: "List configured markers",
	Long: `List all configured markers as JSON.

Markers written as a one-line spec and markers spelled out field by field are
shown in the same shape. Entries that do not parse carry an "error" field.

Examples:
  marks markers:list
  marks markers:list | jq '.[].name'`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if cfgErr != nil {
			return cfgErr
		}
		formatter := presentation.NewFormatter(cmd.OutOrStdout())
		return formatter.FormatMarkers(presentation.FromMarkerConfigs(cfg.Markers))
	},
}

var markersAddCmd = &cobra.Command{
	Use:   "markers:add <name> <definition...>",
	Short: "Add a named marker to the config file",
	Long: `Add a named marker to the config file. The remaining arguments form the
definition, so quoting the whole definition is optional.

Examples:
  marks markers:add todo itext 3 TODO 1 FIXME
  marks markers:add ws function builtin:trailing-whitespace
  marks markers:add ids "regex 2 '[A-Z]+-[0-9]+'"`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfgErr != nil {
			return cfgErr
		}
		m := config.MarkerConfig{Name: args[0], Spec: strings.Join(args[1:], " ")}
		path := configPath()
		if err := config.AddMarker(path, m, cfg.Markers); err != nil {
			return err
		}
		_, err := fmt.Fprintf(cmd.OutOrStdout(), "added marker %q to %s\n", m.Name, path)
		return err
	},
}

var markersRemoveCmd = &cobra.Command{
	Use:   "markers:remove <name>",
	Short: "Remove a named marker from the config file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfgErr != nil {
			return cfgErr
		}
		path := configPath()
		if err := config.RemoveMarker(path, args[0], cfg.Markers); err != nil {
			return err
		}
		_, err := fmt.Fprintf(cmd.OutOrStdout(), "removed marker %q from %s\n", args[0], path)
		return err
	},
}

func init() {
	rootCmd.AddCommand(markersListCmd)
	rootCmd.AddCommand(markersAddCmd)
	rootCmd.AddCommand(markersRemoveCmd)
}
