// Package versioncmder
package versioncmder

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/skim/pkg/cliui"
	"github.com/papercomputeco/skim/pkg/utils"
)

func NewVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "displays version",
		Long:  "displays the version, commit, and build time of this CLI",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s %s\n", cliui.KeyStyle.Render("Version:"), utils.Version)
			fmt.Fprintf(out, "%s %s\n", cliui.KeyStyle.Render("Sha:"), utils.Sha)
			fmt.Fprintf(out, "%s %s\n", cliui.KeyStyle.Render("Built at:"), utils.Buildtime)
			return nil
		},
	}

	return cmd
}
