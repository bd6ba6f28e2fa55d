package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/zjrosen/marks/internal/config"
)

var forceInit bool

var configInitCmd = &cobra.Command{
	Use:   "config:init [path]",
	Short: "Write a commented default config file",
	Long: `Write the default configuration, with comments, to path.

Without a path the file goes to ~/.config/marks/config.yaml. Existing files
are left alone unless --force is given.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := filepath.Join(config.DefaultConfigDir(), "config.yaml")
		if len(args) == 1 {
			path = args[0]
		}

		if _, err := os.Stat(path); err == nil && !forceInit {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
		if err := config.WriteDefaultConfig(path); err != nil {
			return err
		}
		_, err := fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
		return err
	},
}

func init() {
	configInitCmd.Flags().BoolVarP(&forceInit, "force", "f", false, "overwrite an existing file")
	rootCmd.AddCommand(configInitCmd)
}
