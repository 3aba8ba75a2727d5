package main

import (
	"github.com/spf13/cobra"

	"subseek/internal/config"
	"subseek/internal/preflight"
)

func newBatchCommand(ctx *commandContext) *cobra.Command {
	var langFlag string
	var force bool
	var jsonOutput bool
	var workers int

	cmd := &cobra.Command{
		Use:   "batch <folder>",
		Short: "Download subtitles for every video in a folder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lang, err := ctx.language(langFlag)
			if err != nil {
				return err
			}
			folder, err := config.ExpandPath(args[0])
			if err != nil {
				return err
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if workers > 0 {
				cfg.Batch.Workers = workers
			}
			if err := preflight.Err(preflight.RunAll(cmd.Context(), cfg, preflight.Options{Folder: folder})); err != nil {
				return err
			}
			eng, err := ctx.buildEngine(force)
			if err != nil {
				return err
			}

			result, err := ctx.newCoordinator(eng, force).RunFolder(cmd.Context(), folder, lang)
			if err != nil {
				return err
			}
			if jsonOutput {
				if err := writeJSON(cmd, toResultJSON(result)); err != nil {
					return err
				}
			} else {
				renderResult(cmd.OutOrStdout(), result, shouldColorize(cmd.OutOrStdout()))
			}
			return result.Err()
		},
	}

	cmd.Flags().StringVarP(&langFlag, "lang", "l", "", "Subtitle language (defaults to subtitles.default_language)")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Process videos that already have subtitles and replace them")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "Override batch.workers")
	return cmd
}
