package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"subseek/internal/identity"
	"subseek/internal/language"
	"subseek/internal/providers"
	"subseek/internal/ranking"
	"subseek/internal/resolver"
	"subseek/internal/services"
)

type candidateJSON struct {
	Index      int      `json:"index"`
	Provider   string   `json:"provider"`
	Source     string   `json:"source,omitempty"`
	Match      string   `json:"match"`
	Release    string   `json:"release"`
	Score      float64  `json:"score"`
	Confidence float64  `json:"confidence"`
	Acceptance float64  `json:"acceptance"`
	Downloads  int      `json:"downloads"`
	Tags       []string `json:"tags,omitempty"`
}

type searchJSON struct {
	Video      string          `json:"video"`
	Identity   string          `json:"identity"`
	Language   string          `json:"language"`
	Hash       string          `json:"hash,omitempty"`
	Chain      []string        `json:"chain"`
	Candidates []candidateJSON `json:"candidates"`
	Errors     []string        `json:"errors,omitempty"`
	Selected   string          `json:"selected,omitempty"`
}

func newSearchCommand(ctx *commandContext) *cobra.Command {
	var langFlag string
	var selectIndex int
	var limit int
	var force bool
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "search <video>",
		Short: "List ranked subtitle candidates and optionally download one",
		Long: "Search every configured provider for the video and list the merged ranking.\n" +
			"Pass --select N to download the N-th candidate of the listing.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lang, err := ctx.language(langFlag)
			if err != nil {
				return err
			}
			files, err := videoFilesFromArgs(args)
			if err != nil {
				return err
			}
			video := files[0]
			eng, err := ctx.buildEngine(force)
			if err != nil {
				return err
			}

			id := video.Identity()
			chain := resolver.Names(eng.resolver.Steps(id))
			scored, perrs := eng.resolver.Candidates(cmd.Context(), id, lang)
			if limit > 0 && len(scored) > limit && selectIndex <= 0 {
				scored = scored[:limit]
			}

			var selected string
			if selectIndex > 0 {
				if selectIndex > len(scored) {
					return services.Wrap(services.ErrValidation, "cli", "search",
						fmt.Sprintf("candidate %d out of range (%d candidates)", selectIndex, len(scored)), nil)
				}
				selected, err = eng.materializer.Materialize(cmd.Context(), scored[selectIndex-1].Candidate, video.Path)
				if err != nil {
					return err
				}
			}

			if jsonOutput {
				result := toSearchJSON(video, id, scored, perrs, selected)
				result.Language = lang
				result.Chain = chain
				return writeJSON(cmd, result)
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			fmt.Fprintf(out, "%s [%s]\n", id.String(), language.DisplayName(lang))
			fmt.Fprintf(out, "Chain: %s\n", strings.Join(chain, " > "))
			renderCandidates(out, scored)
			for _, perr := range perrs {
				fmt.Fprintln(out, renderStatusLine(perr.Provider, statusWarn, perr.Reason+" ("+perr.Op+")", colorize))
			}
			if selected != "" {
				fmt.Fprintln(out, renderStatusLine("Downloaded", statusOK, selected, colorize))
			} else if len(scored) > 0 {
				fmt.Fprintf(out, "Download one with: subseek search --select <#> %s\n", strconv.Quote(video.Path))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&langFlag, "lang", "l", "", "Subtitle language (defaults to subtitles.default_language)")
	cmd.Flags().IntVarP(&selectIndex, "select", "s", 0, "Download the candidate with this listing number")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of candidates to list")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Replace an existing subtitle when downloading")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func renderCandidates(w io.Writer, scored []ranking.Scored) {
	if len(scored) == 0 {
		fmt.Fprintln(w, "No candidates found.")
		return
	}
	rows := make([][]string, 0, len(scored))
	for i, s := range scored {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			providerLabel(s.Candidate),
			string(s.Candidate.Match),
			fmt.Sprintf("%.2f", s.Acceptance),
			fmt.Sprintf("%.2f", s.Score),
			fmt.Sprintf("%.2f", s.Candidate.Confidence),
			strconv.Itoa(s.Candidate.Downloads),
			s.Candidate.Label(),
		})
	}
	fmt.Fprintln(w, renderTable(
		[]string{"#", "Provider", "Match", "Accept", "Score", "Conf", "Downloads", "Release"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignLeft},
		nil,
	))
}

func toSearchJSON(video *identity.VideoFile, id identity.Identity, scored []ranking.Scored, perrs []*providers.ProviderError, selected string) searchJSON {
	out := searchJSON{
		Video:      video.Path,
		Identity:   id.String(),
		Hash:       id.Hash,
		Candidates: make([]candidateJSON, 0, len(scored)),
		Selected:   selected,
	}
	for i, s := range scored {
		out.Candidates = append(out.Candidates, candidateJSON{
			Index:      i + 1,
			Provider:   s.Candidate.Provider,
			Source:     s.Candidate.Source,
			Match:      string(s.Candidate.Match),
			Release:    s.Candidate.Label(),
			Score:      s.Score,
			Confidence: s.Candidate.Confidence,
			Acceptance: s.Acceptance,
			Downloads:  s.Candidate.Downloads,
			Tags:       s.Candidate.TagList(),
		})
	}
	for _, perr := range perrs {
		out.Errors = append(out.Errors, strings.TrimSpace(perr.Error()))
	}
	return out
}
