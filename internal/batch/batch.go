package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"subseek/internal/identity"
	"subseek/internal/ledger"
	"subseek/internal/logging"
	"subseek/internal/providers"
	"subseek/internal/services"
)

// DefaultWorkers is the worker pool size used when Options.Workers is unset.
const DefaultWorkers = 3

// Resolver finds the best candidate for one identity.
type Resolver interface {
	Resolve(ctx context.Context, id identity.Identity, lang string) providers.Outcome
}

// Materializer downloads a candidate and writes it next to a video.
type Materializer interface {
	Materialize(ctx context.Context, c providers.Candidate, videoPath string) (string, error)
}

// Recorder persists run history. *ledger.Store satisfies it.
type Recorder interface {
	StartRun(ctx context.Context, run ledger.Run) error
	Record(ctx context.Context, e ledger.Entry) error
	FinishRun(ctx context.Context, runID string, counts ledger.Counts, cancelled bool) error
}

// Options configures a Coordinator.
type Options struct {
	Workers int
	// Force processes videos that already have a subtitle.
	Force bool
	// LockDir holds folder lock files; empty places the lock in the folder.
	LockDir         string
	VideoExtensions []string
	Recorder        Recorder
	Logger          *slog.Logger
	// NewRunID overrides run id generation.
	NewRunID func() string
}

// Coordinator runs the per-file flow over a set of videos.
type Coordinator struct {
	resolver     Resolver
	materializer Materializer
	opts         Options
	logger       *slog.Logger
}

// Entry is the result for one video.
type Entry struct {
	Video        *identity.VideoFile
	Kind         string
	Outcome      providers.Outcome
	SubtitlePath string
	Written      bool
	Err          error
}

// Result is the outcome of one run, entries in input order.
type Result struct {
	RunID     string
	Language  string
	Entries   []Entry
	Counts    ledger.Counts
	Cancelled bool
	Duration  time.Duration
}

// New creates a Coordinator.
func New(resolver Resolver, materializer Materializer, opts Options) *Coordinator {
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	if opts.NewRunID == nil {
		opts.NewRunID = uuid.NewString
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Coordinator{
		resolver:     resolver,
		materializer: materializer,
		opts:         opts,
		logger:       logging.NewComponentLogger(logger, "batch"),
	}
}

// Run processes files for lang. It never fails as a whole: per-file
// problems are reported in the entries.
func (c *Coordinator) Run(ctx context.Context, files []*identity.VideoFile, lang string) Result {
	return c.run(ctx, "", files, lang)
}

func (c *Coordinator) run(ctx context.Context, folder string, files []*identity.VideoFile, lang string) Result {
	started := time.Now()
	result := Result{
		RunID:    c.opts.NewRunID(),
		Language: lang,
		Entries:  make([]Entry, len(files)),
	}
	ctx = services.WithRunID(ctx, result.RunID)
	logger := logging.WithContext(ctx, c.logger)
	logger.Info("batch run started",
		logging.Int("files", len(files)),
		logging.String("language", lang),
		logging.Int("workers", c.opts.Workers),
	)

	// History writes must survive cancellation of the run itself.
	recordCtx := context.WithoutCancel(ctx)
	recording := c.startRecording(recordCtx, logger, result.RunID, folder, lang, started)

	var g errgroup.Group
	g.SetLimit(c.opts.Workers)
	for i, file := range files {
		if err := ctx.Err(); err != nil {
			for j := i; j < len(files); j++ {
				result.Entries[j] = Entry{Video: files[j], Kind: services.KindSkipped, Err: err}
			}
			result.Cancelled = true
			break
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				result.Entries[i] = Entry{Video: file, Kind: services.KindSkipped, Err: err}
				return nil
			}
			entry := c.processFile(context.WithoutCancel(ctx), file, lang)
			result.Entries[i] = entry
			if recording {
				c.record(recordCtx, logger, result.RunID, lang, entry)
			}
			return nil
		})
	}
	_ = g.Wait()
	if ctx.Err() != nil {
		result.Cancelled = true
	}

	for _, entry := range result.Entries {
		switch entry.Kind {
		case services.KindDownloaded:
			result.Counts.Downloaded++
		case services.KindNotFound:
			result.Counts.NotFound++
		case services.KindSkipped:
			result.Counts.Skipped++
		default:
			result.Counts.Errors++
		}
	}
	result.Duration = time.Since(started)

	if recording {
		if err := c.opts.Recorder.FinishRun(recordCtx, result.RunID, result.Counts, result.Cancelled); err != nil {
			logging.WarnWithContext(logger, "failed to finish run in history", "ledger_finish_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "run summary missing from history"),
			)
		}
	}
	logger.Info("batch run finished",
		logging.Int("downloaded", result.Counts.Downloaded),
		logging.Int("not_found", result.Counts.NotFound),
		logging.Int("errors", result.Counts.Errors),
		logging.Int("skipped", result.Counts.Skipped),
		logging.Bool("cancelled", result.Cancelled),
		logging.Duration("duration", result.Duration),
	)
	return result
}

func (c *Coordinator) processFile(ctx context.Context, file *identity.VideoFile, lang string) Entry {
	entry := Entry{Video: file}
	ctx = services.WithVideoPath(ctx, file.Path)
	logger := logging.WithContext(ctx, c.logger)

	if file.HasSubtitle && !c.opts.Force {
		entry.Kind = services.KindSkipped
		logger.Debug("subtitle already present", logging.Args(logging.DecisionAttrs("skip", "skipped", "has_subtitle")...)...)
		return entry
	}

	outcome := c.resolver.Resolve(ctx, file.Identity(), lang)
	entry.Outcome = outcome
	if !outcome.IsFound() {
		var cause error
		if last := outcome.LastError(); last != nil {
			cause = last
		}
		entry.Err = services.Wrap(services.ErrNotFound, "batch", "resolve", file.Name, cause)
		entry.Kind = services.FailureKind(entry.Err)
		logger.Info("no acceptable subtitle", logging.Args(logging.DecisionAttrs("resolve", "not_found", "no candidate above threshold")...)...)
		return entry
	}

	path, err := c.materializer.Materialize(ctx, outcome.Candidate, file.Path)
	if err != nil {
		entry.Err = err
		entry.Kind = services.FailureKind(err)
		logging.WarnWithContext(logger, "subtitle download failed", "download_failed",
			logging.Error(err),
			logging.String(logging.FieldProvider, outcome.Candidate.Provider),
			logging.String(logging.FieldImpact, "video left without subtitle"),
		)
		return entry
	}
	entry.Kind = services.KindDownloaded
	entry.SubtitlePath = path
	entry.Written = true
	logger.Info("subtitle written",
		logging.String("subtitle", path),
		logging.String(logging.FieldProvider, outcome.Candidate.Provider),
		logging.String(logging.FieldStep, outcome.Step),
		logging.Float64("score", outcome.Score),
	)
	return entry
}

func (c *Coordinator) startRecording(ctx context.Context, logger *slog.Logger, runID, folder, lang string, started time.Time) bool {
	if c.opts.Recorder == nil {
		return false
	}
	err := c.opts.Recorder.StartRun(ctx, ledger.Run{ID: runID, Folder: folder, Language: lang, StartedAt: started})
	if err != nil {
		logging.WarnWithContext(logger, "history unavailable for this run", "ledger_start_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check paths.ledger_path permissions"),
			logging.String(logging.FieldImpact, "run will not appear in history"),
		)
		return false
	}
	return true
}

func (c *Coordinator) record(ctx context.Context, logger *slog.Logger, runID, lang string, e Entry) {
	row := ledger.Entry{
		RunID:        runID,
		VideoPath:    e.Video.Path,
		Language:     lang,
		Kind:         e.Kind,
		SubtitlePath: e.SubtitlePath,
	}
	if e.Outcome.IsFound() {
		row.Provider = e.Outcome.Candidate.Provider
		row.Source = e.Outcome.Candidate.Source
		row.Release = e.Outcome.Candidate.Release
		row.Score = e.Outcome.Score
		row.Step = e.Outcome.Step
	}
	if e.Err != nil {
		row.ErrorMessage = e.Err.Error()
	}
	if err := c.opts.Recorder.Record(ctx, row); err != nil {
		logging.WarnWithContext(logger, "failed to record outcome", "ledger_record_failed",
			logging.Error(err),
			logging.String(logging.FieldVideo, e.Video.Path),
		)
	}
}

// Failures returns the entries that ended in error.
func (r Result) Failures() []Entry {
	var out []Entry
	for _, e := range r.Entries {
		if e.Kind == services.KindError {
			out = append(out, e)
		}
	}
	return out
}

// Err summarizes a run for exit-code purposes: nil when no file errored.
func (r Result) Err() error {
	failures := r.Failures()
	if len(failures) == 0 {
		return nil
	}
	errs := make([]error, 0, len(failures))
	for _, f := range failures {
		errs = append(errs, fmt.Errorf("%s: %w", f.Video.Name, f.Err))
	}
	return errors.Join(errs...)
}
