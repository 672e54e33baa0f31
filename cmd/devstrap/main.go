// Package main provides the devstrap CLI, which provisions a Debian-family
// workstation with a fixed developer toolchain.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/jaspreet-dot-casa/devstrap/pkg/config"
	"github.com/jaspreet-dot-casa/devstrap/pkg/executor"
	"github.com/jaspreet-dot-casa/devstrap/pkg/logging"
	"github.com/jaspreet-dot-casa/devstrap/pkg/preflight"
)

// version is set via -ldflags during build
var version = "dev"

func main() {
	rootCmd := newRootCmd()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(executor.ExitCode(err))
	}
}

// cli holds state shared by every subcommand.
type cli struct {
	v          *viper.Viper
	configFile string
	cfg        *config.Config
	run        runOptions
	closeLog   func()
	// isTerminal reports whether stdout is attached to a terminal.
	isTerminal func() bool
}

// currentIdentity returns the invoking user.
var currentIdentity = preflight.CurrentIdentity

// provisionAnnotation marks commands that change the host.
const provisionAnnotation = "provisions"

// flagKeys maps command-line flags onto config keys.
var flagKeys = map[string]string{
	"verbose": config.KeyVerbose,
	"profile": config.KeyProfile,
	"dry-run": config.KeyDryRun,
	"dedupe":  config.KeyDedupe,
}

// newRootCmd creates the root command for devstrap
func newRootCmd() *cobra.Command {
	c := &cli{
		v: config.New(),
		isTerminal: func() bool {
			return term.IsTerminal(int(os.Stdout.Fd()))
		},
	}

	rootCmd := &cobra.Command{
		Use:   "devstrap",
		Short: "Developer workstation provisioner",
		Long: `devstrap provisions a Debian-based workstation with a fixed developer
toolchain. Run it as a regular user with sudo rights; it elevates per command.

Steps run in this order and stop at the first failure:
  - System update and prerequisites
  - Build tools, Python, Poetry, UV
  - Node.js, Docker, Kubernetes tools, Terraform
  - Utilities

Running devstrap with no subcommand is the same as "devstrap run".`,
		Version:           version,
		Annotations:       map[string]string{provisionAnnotation: "true"},
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.setup,
		PersistentPostRun: func(*cobra.Command, []string) { c.teardown() },
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.runProvision(cmd)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&c.configFile, "config", "", "config file (default $XDG_CONFIG_HOME/devstrap/config.yaml)")
	flags.CountP("verbose", "v", "increase verbosity (-v info and commands, -vv debug)")
	flags.String("profile", "", "shell profile receiving PATH exports (default from $SHELL)")
	addRunFlags(rootCmd, &c.run)

	rootCmd.AddCommand(
		newRunCmd(c),
		newListCmd(c),
		newDoctorCmd(c),
		newConfigCmd(c),
		newHistoryCmd(),
		newVersionCmd(),
	)

	return rootCmd
}

// setup binds the flags of the command being run, loads the configuration
// and starts logging. Provisioning as root is refused before any of that,
// so the refusal leaves no log file behind.
func (c *cli) setup(cmd *cobra.Command, _ []string) error {
	if cmd.Annotations[provisionAnnotation] == "true" {
		id, err := currentIdentity()
		if err != nil {
			return err
		}
		if id.IsRoot() {
			return preflight.ErrRunningAsRoot
		}
	}

	for name, key := range flagKeys {
		if f := cmd.Flags().Lookup(name); f != nil {
			if err := c.v.BindPFlag(key, f); err != nil {
				return fmt.Errorf("failed to bind --%s: %w", name, err)
			}
		}
	}

	cfg, err := config.Load(c.v, c.configFile)
	if err != nil {
		return err
	}
	c.cfg = cfg

	// The progress view owns the terminal, so logs go to the file only.
	console := cmd.ErrOrStderr()
	if c.useTUI() {
		console = nil
	}
	c.closeLog = logging.SetupLogger(cfg.Verbose, console)
	return nil
}

func (c *cli) teardown() {
	if c.closeLog != nil {
		c.closeLog()
		c.closeLog = nil
	}
}

// useTUI reports whether the progress view was requested and can be shown.
func (c *cli) useTUI() bool {
	return c.run.tui && c.isTerminal()
}

// newVersionCmd creates the version subcommand
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the devstrap version",
		// Skip config loading and logging.
		PersistentPreRun: func(*cobra.Command, []string) {},
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "devstrap version %s\n", version)
		},
	}
}
