package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jbweber/hvprov/internal/document"
)

func newValidateCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <hypervm.json>",
		Short: "Check a configuration document without touching the host",
		Long: `Check that a configuration document parses and carries every path the
provisioning stages read, with the expected shape and valid GUIDs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := document.LoadFromFile(args[0])
			if err != nil {
				return &ExitError{Code: 1, Err: err}
			}
			if err := doc.Validate(); err != nil {
				return &ExitError{Code: 1, Err: err}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s: valid\n", doc.Source())
			return nil
		},
	}
}
