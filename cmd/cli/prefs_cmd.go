package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"platehub/pkg/models"
)

func prefsCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prefs",
		Short: "Show or change preferences",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Show default mode and recent regions",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				t, err := a.collection(cmd.Context())
				if err != nil {
					return err
				}
				p := t.Preferences()
				out := cmd.OutOrStdout()
				if a.jsonOut {
					return a.printJSON(out, p)
				}
				fmt.Fprintf(out, "default mode: %s\n", p.DefaultMode)
				fmt.Fprintf(out, "recent regions: %s\n", strings.Join(p.RecentRegions, " "))
				return nil
			},
		},
		&cobra.Command{
			Use:   "mode MODE",
			Short: "Set the mode new games start with",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				t, err := a.collection(cmd.Context())
				if err != nil {
					return err
				}
				if err := t.SetDefaultMode(cmd.Context(), models.GameMode(args[0])); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "default mode: %s\n", t.Preferences().DefaultMode)
				return nil
			},
		},
	)
	return cmd
}
