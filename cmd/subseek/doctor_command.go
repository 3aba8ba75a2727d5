package main

import (
	"github.com/spf13/cobra"

	"subseek/internal/preflight"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	var folder string
	var offline bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check configuration, folders, and provider connectivity",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			results := preflight.RunAll(cmd.Context(), cfg, preflight.Options{Folder: folder, Network: !offline})
			renderPreflight(cmd.OutOrStdout(), results, shouldColorize(cmd.OutOrStdout()))
			return preflight.Err(results)
		},
	}

	cmd.Flags().StringVar(&folder, "folder", "", "Also check that this folder is writable")
	cmd.Flags().BoolVar(&offline, "offline", false, "Skip provider connectivity checks")
	return cmd
}
