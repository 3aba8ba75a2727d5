package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"subseek/internal/config"
	"subseek/internal/identity"
	"subseek/internal/preflight"
	"subseek/internal/scan"
	"subseek/internal/services"
)

func newFetchCommand(ctx *commandContext) *cobra.Command {
	var langFlag string
	var force bool
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "fetch <video>...",
		Short: "Download the best subtitle for one or more videos",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lang, err := ctx.language(langFlag)
			if err != nil {
				return err
			}
			files, err := videoFilesFromArgs(args)
			if err != nil {
				return err
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := preflight.Err(preflight.RunAll(cmd.Context(), cfg, preflight.Options{})); err != nil {
				return err
			}
			eng, err := ctx.buildEngine(force)
			if err != nil {
				return err
			}

			result := ctx.newCoordinator(eng, force).Run(cmd.Context(), files, lang)
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
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Replace existing subtitles")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func videoFilesFromArgs(args []string) ([]*identity.VideoFile, error) {
	if len(args) == 0 {
		return nil, errNoVideos
	}
	files := make([]*identity.VideoFile, 0, len(args))
	for _, arg := range args {
		path, err := config.ExpandPath(arg)
		if err != nil {
			return nil, err
		}
		info, err := os.Stat(path)
		if err != nil {
			return nil, services.Wrap(services.ErrValidation, "cli", "fetch", fmt.Sprintf("inspect %q", path), err)
		}
		if info.IsDir() {
			return nil, services.Wrap(services.ErrValidation, "cli", "fetch",
				fmt.Sprintf("%s is a directory; use `subseek batch`", path), nil)
		}
		files = append(files, identity.NewVideoFile(path, scan.HasSubtitle(path)))
	}
	return files, nil
}
