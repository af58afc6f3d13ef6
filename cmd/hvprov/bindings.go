package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jbweber/hvprov/internal/hostapi"
	"github.com/jbweber/hvprov/internal/output"
)

func newBindingsCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "bindings",
		Short: "Show which host entry points resolve",
		Long: `Load the host libraries and list every entry point hvprov uses with
whether it could be resolved on this host.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter, err := output.New(output.Format(a.settings.Output), a.noHeaders)
			if err != nil {
				return err
			}

			text, err := formatter.FormatBindings(hostapi.Resolve(a.loader).States())
			if err != nil {
				return fmt.Errorf("failed to format bindings: %w", err)
			}
			fmt.Fprint(cmd.OutOrStdout(), text)
			return nil
		},
	}
}
