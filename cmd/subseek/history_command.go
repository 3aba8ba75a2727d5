package main

import (
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"subseek/internal/config"
	"subseek/internal/language"
	"subseek/internal/ledger"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var jsonOutput bool
	var video string
	var recent bool

	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "Show recent batch runs or the outcomes of one run",
		Long: "Without arguments, list recent runs. Pass a run id to list its outcomes,\n" +
			"--video to list every outcome recorded for one video, or --recent to list\n" +
			"the latest outcomes across runs.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openLedger()
			if err != nil {
				return err
			}
			switch {
			case len(args) == 1:
				return showRun(cmd, store, args[0], jsonOutput)
			case video != "":
				path, err := config.ExpandPath(video)
				if err != nil {
					return err
				}
				entries, err := store.ForVideo(cmd.Context(), path)
				if err != nil {
					return err
				}
				return showEntries(cmd, entries, jsonOutput)
			case recent:
				entries, err := store.Recent(cmd.Context(), limit)
				if err != nil {
					return err
				}
				return showEntries(cmd, entries, jsonOutput)
			}
			runs, err := store.Runs(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, runs)
			}
			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs recorded yet.")
				return nil
			}
			rows := make([][]string, 0, len(runs))
			for _, run := range runs {
				rows = append(rows, []string{
					run.ID,
					run.StartedAt.Local().Format("2006-01-02 15:04"),
					run.Language,
					strconv.Itoa(run.Counts.Downloaded),
					strconv.Itoa(run.Counts.NotFound),
					strconv.Itoa(run.Counts.Errors),
					strconv.Itoa(run.Counts.Skipped),
					runState(run),
					run.Folder,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Run", "Started", "Lang", "Downloaded", "Not found", "Errors", "Skipped", "State", "Folder"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignLeft, alignLeft},
				nil,
			))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of runs (or outcomes with --recent) to show")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().StringVar(&video, "video", "", "Show every recorded outcome for this video")
	cmd.Flags().BoolVar(&recent, "recent", false, "Show the latest outcomes across runs")
	return cmd
}

func showRun(cmd *cobra.Command, store *ledger.Store, runID string, jsonOutput bool) error {
	run, err := store.GetRun(cmd.Context(), runID)
	if err != nil {
		return err
	}
	if run == nil {
		return fmt.Errorf("run %s not found", runID)
	}
	entries, err := store.Entries(cmd.Context(), runID)
	if err != nil {
		return err
	}
	if jsonOutput {
		return writeJSON(cmd, struct {
			Run     *ledger.Run    `json:"run"`
			Entries []ledger.Entry `json:"entries"`
		}{run, entries})
	}
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)
	fmt.Fprintf(out, "Run %s (%s, %s)\n", run.ID, language.DisplayName(run.Language), runState(*run))
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			e.VideoPath,
			paint(outcomeLabel(e.Kind), statusKindColor(outcomeStatus(e.Kind)), colorize),
			entryProvider(e),
			e.Step,
			ledgerDetail(e),
		})
	}
	fmt.Fprintln(out, renderTable([]string{"Video", "Status", "Provider", "Step", "Detail"}, rows, nil, nil))
	return nil
}

// showEntries lists outcomes that may span several runs.
func showEntries(cmd *cobra.Command, entries []ledger.Entry, jsonOutput bool) error {
	if jsonOutput {
		if entries == nil {
			entries = []ledger.Entry{}
		}
		return writeJSON(cmd, entries)
	}
	out := cmd.OutOrStdout()
	if len(entries) == 0 {
		fmt.Fprintln(out, "No outcomes recorded.")
		return nil
	}
	colorize := shouldColorize(out)
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			e.RecordedAt.Local().Format("2006-01-02 15:04"),
			e.RunID,
			filepath.Base(e.VideoPath),
			e.Language,
			paint(outcomeLabel(e.Kind), statusKindColor(outcomeStatus(e.Kind)), colorize),
			entryProvider(e),
			ledgerDetail(e),
		})
	}
	fmt.Fprintln(out, renderTable([]string{"Recorded", "Run", "Video", "Lang", "Status", "Provider", "Detail"}, rows, nil, nil))
	return nil
}

func entryProvider(e ledger.Entry) string {
	if e.Source != "" {
		return e.Provider + "/" + e.Source
	}
	return e.Provider
}

func ledgerDetail(e ledger.Entry) string {
	if e.SubtitlePath != "" {
		return e.SubtitlePath
	}
	return e.ErrorMessage
}

func runState(run ledger.Run) string {
	switch {
	case run.FinishedAt == nil:
		return "running"
	case run.Cancelled:
		return "cancelled"
	default:
		return "finished in " + run.FinishedAt.Sub(run.StartedAt).Round(time.Second).String()
	}
}
