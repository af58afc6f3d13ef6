package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/jbweber/hvprov/internal/config"
	"github.com/jbweber/hvprov/internal/document"
	"github.com/jbweber/hvprov/internal/hostapi"
	"github.com/jbweber/hvprov/internal/hostgroup"
	"github.com/jbweber/hvprov/internal/output"
	"github.com/jbweber/hvprov/internal/provision"
)

const (
	pathPrompt       = "Enter the path of hypervm.json (without quotes): "
	bannerStarted    = "----Execution started----"
	bannerFinished   = "----Execution finished----"
	bannerNoSuchFile = "----No such file exists----"

	// exitNoSuchFile is the only non-zero status of a provisioning run.
	exitNoSuchFile = 2
)

func newProvisionCommand(a *app) *cobra.Command {
	defaults := config.Default()

	cmd := &cobra.Command{
		Use:   "provision [hypervm.json]",
		Short: "Provision a guest from a configuration document",
		Long: `Provision the network, endpoint, compute system and device host
described by a configuration document.

Without an argument the path is read from standard input. Stage failures are
reported but do not change the exit status; only a missing configuration
file does.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var path string
			if len(args) == 1 {
				path = args[0]
			} else {
				p, err := promptPath(cmd.InOrStdin(), a.console(cmd))
				if err != nil {
					return err
				}
				path = p
			}
			return a.provision(cmd.Context(), cmd, path)
		},
	}

	cmd.Flags().String("policy", defaults.Policy, "what to do after a stage fails (continue, stop)")
	cmd.Flags().Duration("wait-timeout", defaults.WaitTimeout, "how long to wait for the compute system (0 waits forever)")
	cmd.Flags().String("compute-system-id", defaults.ComputeSystemID, "identity of the compute system")
	cmd.Flags().Bool("device-host", defaults.DeviceHost, "initialize the device host")
	cmd.Flags().Bool("add-to-group", defaults.AddToGroup, "add the current user to the Hyper-V group first")
	cmd.Flags().String("group", defaults.Group, "local group used with --add-to-group")

	return cmd
}

// promptPath asks for the configuration path and reads one line from in.
func promptPath(in io.Reader, out io.Writer) (string, error) {
	fmt.Fprint(out, pathPrompt)

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read configuration path: %w", err)
	}
	return cleanPath(line), nil
}

// cleanPath strips the line ending, surrounding space and quotes pasted
// along with the path.
func cleanPath(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	return s
}

func (a *app) provision(ctx context.Context, cmd *cobra.Command, path string) error {
	logger := log.FromContext(ctx)
	console := a.console(cmd)

	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintln(console, bannerNoSuchFile)
		return &ExitError{Code: exitNoSuchFile, Err: fmt.Errorf("configuration file %q does not exist", path)}
	}

	formatter, err := output.New(output.Format(a.settings.Output), a.noHeaders)
	if err != nil {
		return err
	}
	opts, err := provision.OptionsFromSettings(a.settings, path)
	if err != nil {
		return err
	}

	fmt.Fprintln(console, bannerStarted)

	doc, err := document.LoadFromFile(path)
	if err != nil {
		logger.Error("Failed to load configuration document, continuing with an empty one", "path", path, "err", err)
		doc = document.Empty()
	}

	if a.settings.AddToGroup {
		if err := hostgroup.AddCurrentUser(ctx, a.runner, a.settings.Group); err != nil {
			logger.Warn("Failed to add user to group", "group", a.settings.Group, "err", err)
		}
	}

	table, _ := hostapi.Bind(a.loader)
	for _, e := range table.Missing() {
		logger.Debug("Entry point unavailable", "entry", string(e))
	}

	report := provision.Run(ctx, doc, table, opts)

	text, err := formatter.FormatReport(report)
	if err != nil {
		return fmt.Errorf("failed to format report: %w", err)
	}
	fmt.Fprint(cmd.OutOrStdout(), text)

	fmt.Fprintln(console, bannerFinished)
	return nil
}
