package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jaspreet-dot-casa/devstrap/pkg/config"
	"github.com/jaspreet-dot-casa/devstrap/pkg/ui"
)

// newConfigCmd creates the config subcommand
func newConfigCmd(c *cli) *cobra.Command {
	var write bool

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show the effective configuration",
		Long: `Print the settings devstrap would use after applying the config file,
DEVSTRAP_* environment variables and flags. With --write they are saved to
the default config file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()

			if write {
				path := config.FilePath()
				if _, err := os.Stat(path); err == nil {
					return fmt.Errorf("%s already exists", path)
				}
				if err := c.cfg.Save(path); err != nil {
					return err
				}
				fmt.Fprintf(out, "Wrote %s\n", path)
				return nil
			}

			data, err := c.cfg.YAML()
			if err != nil {
				return err
			}
			source := "defaults"
			if c.cfg.File != "" {
				source = c.cfg.File
			}
			fmt.Fprintln(out, ui.DimStyle.Render("# source: "+source))
			fmt.Fprint(out, data)
			return nil
		},
	}

	cmd.Flags().BoolVar(&write, "write", false, "save the effective settings to the default config file")
	return cmd
}
