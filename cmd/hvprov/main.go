package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/jbweber/hvprov/internal/config"
	"github.com/jbweber/hvprov/internal/hostapi"
	"github.com/jbweber/hvprov/internal/hostgroup"
	"github.com/jbweber/hvprov/internal/output"
)

var (
	version = "dev"
	commit  = "unknown"
)

// app carries the dependencies and resolved settings shared by commands.
type app struct {
	loader hostapi.Loader
	runner hostgroup.Runner

	settingsPath string
	noHeaders    bool
	settings     *config.Settings
}

func main() {
	a := &app{
		loader: hostapi.SystemLoader{},
		runner: hostgroup.ExecRunner{},
	}

	if err := fang.Execute(
		context.Background(),
		newRootCommand(a),
		fang.WithVersion(fmt.Sprintf("%s (commit: %s)", version, commit)),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		os.Exit(exitCode(err))
	}
}

func newRootCommand(a *app) *cobra.Command {
	defaults := config.Default()

	root := &cobra.Command{
		Use:   "hvprov",
		Short: "hvprov - Hyper-V guest provisioning tool",
		Long: `hvprov provisions a Hyper-V guest from a single JSON configuration
document (hypervm.json).

It opens or creates the host network, replaces the guest endpoint, creates
the compute system and initializes the device host, then reports the outcome
of every stage.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	root.PersistentFlags().StringVar(&a.settingsPath, "settings", "", "YAML settings file")
	root.PersistentFlags().String("log-level", defaults.LogLevel, "log level (debug, info, warn, error)")
	root.PersistentFlags().StringP("output", "o", defaults.Output, "output format (table, yaml, json)")
	root.PersistentFlags().BoolVar(&a.noHeaders, "no-headers", false, "omit table headers")

	root.AddCommand(newProvisionCommand(a))
	root.AddCommand(newBindingsCommand(a))
	root.AddCommand(newValidateCommand(a))
	root.AddCommand(newConfigCommand(a))

	return root
}

// setup resolves settings for the command being run and installs the logger
// in its context.
func (a *app) setup(cmd *cobra.Command) error {
	s, err := config.Load(a.settingsPath, cmd.Flags())
	if err != nil {
		return err
	}
	a.settings = s

	level, err := log.ParseLevel(s.LogLevel)
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	logger := log.NewWithOptions(a.console(cmd), log.Options{
		Prefix:          "hvprov",
		Level:           level,
		ReportTimestamp: true,
	})

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(log.WithContext(ctx, logger))
	return nil
}

// console is where the prompt, banners and log lines go. With the table
// format they share stdout with the report; yaml and json keep stdout to the
// report alone.
func (a *app) console(cmd *cobra.Command) io.Writer {
	if a.settings != nil && output.Format(a.settings.Output) == output.FormatTable {
		return cmd.OutOrStdout()
	}
	return cmd.ErrOrStderr()
}

// exitCode maps a command error to the process exit status.
func exitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return 1
}
