package resolver

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"subseek/internal/identity"
	"subseek/internal/logging"
	"subseek/internal/providers"
	"subseek/internal/ranking"
	"subseek/internal/services"
)

// DefaultStepTimeout bounds every provider call.
const DefaultStepTimeout = 10 * time.Second

// Thresholds are the minimum acceptance scores per step kind.
type Thresholds struct {
	Hash float64
	Name float64
}

// DefaultThresholds returns 0.5 for hash steps and 0.3 for name steps.
func DefaultThresholds() Thresholds {
	return Thresholds{Hash: 0.5, Name: 0.3}
}

func (t Thresholds) forKind(kind providers.MatchKind) float64 {
	if kind == providers.MatchHash {
		return t.Hash
	}
	return t.Name
}

// Options configures a Resolver. Zero values select defaults.
type Options struct {
	Thresholds Thresholds
	Weights    ranking.Weights
	// StepTimeout is the default per-step bound.
	StepTimeout time.Duration
	// Timeouts overrides StepTimeout per provider id.
	Timeouts map[string]time.Duration
	Logger   *slog.Logger
}

// Resolver resolves identities against an ordered provider list. It is safe
// for concurrent use when the providers are.
type Resolver struct {
	providers  []providers.Provider
	thresholds Thresholds
	weights    ranking.Weights
	timeout    time.Duration
	timeouts   map[string]time.Duration
	logger     *slog.Logger
}

// New builds a resolver consulting ordered providers in the given order.
func New(ordered []providers.Provider, opts Options) *Resolver {
	thresholds := opts.Thresholds
	if thresholds == (Thresholds{}) {
		thresholds = DefaultThresholds()
	}
	weights := opts.Weights
	if weights == (ranking.Weights{}) {
		weights = ranking.DefaultWeights()
	}
	timeout := opts.StepTimeout
	if timeout <= 0 {
		timeout = DefaultStepTimeout
	}
	return &Resolver{
		providers:  append([]providers.Provider(nil), ordered...),
		thresholds: thresholds,
		weights:    weights,
		timeout:    timeout,
		timeouts:   opts.Timeouts,
		logger:     logging.NewComponentLogger(opts.Logger, "resolver"),
	}
}

// Steps returns the chain that Resolve would walk for id.
func (r *Resolver) Steps(id identity.Identity) []Step {
	return BuildSteps(r.providers, id)
}

// Resolve walks the chain and returns the first acceptable candidate. Provider
// errors are collected on the outcome; the status is then NotFound unless a
// later step succeeds.
func (r *Resolver) Resolve(ctx context.Context, id identity.Identity, lang string) providers.Outcome {
	logger := logging.WithContext(ctx, r.logger)
	r.noteAmbiguity(logger, id)

	var errs []*providers.ProviderError
	for _, step := range r.Steps(id) {
		if err := ctx.Err(); err != nil {
			errs = append(errs, providers.NewProviderError(step.Provider, step.Name, "", err))
			break
		}
		stepLogger := logger.With(logging.String(logging.FieldStep, step.Name))
		scored, perr := r.runStep(ctx, step, id, lang)
		if perr != nil {
			errs = append(errs, perr)
			logging.WarnWithContext(stepLogger, "provider step failed", "provider_step_failed",
				logging.String(logging.FieldProvider, step.Provider),
				logging.String("reason", perr.Reason),
				logging.Error(perr),
				logging.String(logging.FieldImpact, "continuing with the next provider step"),
				logging.String(logging.FieldErrorHint, hintFor(perr.Reason)),
			)
			continue
		}
		if len(scored) == 0 {
			stepLogger.Debug("provider step returned no candidates")
			continue
		}
		top := scored[0]
		threshold := r.thresholds.forKind(step.Kind)
		if top.Acceptance < threshold {
			stepLogger.Info("top candidate below threshold",
				logging.Args(append(logging.DecisionAttrs("candidate_acceptance", "rejected", "score below threshold"),
					logging.String("candidate", top.Candidate.Label()),
					logging.Float64("score", top.Acceptance),
					logging.Float64("threshold", threshold),
					logging.Int("candidates", len(scored)),
				)...)...,
			)
			continue
		}
		stepLogger.Info("candidate accepted",
			logging.Args(append(logging.DecisionAttrs("candidate_acceptance", "accepted", "score meets threshold"),
				logging.String("candidate", top.Candidate.Label()),
				logging.String(logging.FieldProvider, top.Candidate.Provider),
				logging.Float64("score", top.Acceptance),
				logging.Float64("threshold", threshold),
			)...)...,
		)
		out := providers.Found(top.Candidate, top.Acceptance, step.Name)
		out.Errors = errs
		return out
	}

	out := providers.NotFound()
	out.Errors = errs
	if len(errs) > 0 {
		out.Err = errs[len(errs)-1]
	}
	logger.Info("no acceptable subtitle",
		logging.String("identity", id.String()),
		logging.Int("provider_errors", len(errs)),
	)
	return out
}

// Candidates runs every step and returns the merged ranking, for manual
// selection. Provider failures are returned alongside partial results.
func (r *Resolver) Candidates(ctx context.Context, id identity.Identity, lang string) ([]ranking.Scored, []*providers.ProviderError) {
	logger := logging.WithContext(ctx, r.logger)
	r.noteAmbiguity(logger, id)

	var (
		all  []providers.Candidate
		errs []*providers.ProviderError
	)
	for _, step := range r.Steps(id) {
		if err := ctx.Err(); err != nil {
			errs = append(errs, providers.NewProviderError(step.Provider, step.Name, "", err))
			break
		}
		cands, err := r.attempt(ctx, step, id, lang)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		all = append(all, cands...)
	}
	ranker := ranking.Ranker{Weights: r.weights, Language: lang}
	return ranker.Rank(all, id), errs
}

func (r *Resolver) runStep(ctx context.Context, step Step, id identity.Identity, lang string) ([]ranking.Scored, *providers.ProviderError) {
	cands, err := r.attempt(ctx, step, id, lang)
	if err != nil {
		return nil, err
	}
	ranker := ranking.Ranker{Weights: r.weights, Language: lang}
	return ranker.Rank(cands, id), nil
}

func (r *Resolver) attempt(ctx context.Context, step Step, id identity.Identity, lang string) ([]providers.Candidate, *providers.ProviderError) {
	timeout := r.timeout
	if t, ok := r.timeouts[step.Provider]; ok && t > 0 {
		timeout = t
	}
	stepCtx, cancel := context.WithTimeout(services.WithStep(ctx, step.Name), timeout)
	defer cancel()

	start := time.Now()
	cands, err := step.Attempt(stepCtx, id, lang)
	r.logger.Debug("provider step finished",
		logging.String(logging.FieldStep, step.Name),
		logging.Int("candidates", len(cands)),
		logging.Duration("elapsed", time.Since(start)),
	)
	if err != nil {
		perr := providers.AsProviderError(step.Provider, step.Name, err)
		if errors.Is(stepCtx.Err(), context.DeadlineExceeded) {
			perr.Reason = providers.ReasonTimeout
		}
		return nil, perr
	}
	for i := range cands {
		if cands[i].Provider == "" {
			cands[i].Provider = step.Provider
		}
		if cands[i].Match == "" {
			cands[i].Match = step.Kind
		}
		cands[i].Priority = max(cands[i].Priority, step.Priority)
	}
	return cands, nil
}

func (r *Resolver) noteAmbiguity(logger *slog.Logger, id identity.Identity) {
	if !id.Ambiguous {
		return
	}
	logging.WarnWithContext(logger, "filename could not be parsed reliably", "parse_ambiguity",
		logging.String("title", id.Title),
		logging.Error(services.Wrap(services.ErrParseAmbiguity, "resolver", "extract identity", "no season/episode or year marker", nil)),
		logging.String(logging.FieldImpact, "searching with the raw filename as title"),
		logging.String(logging.FieldErrorHint, "rename the file to include a year or SxxEyy marker"),
	)
}

func hintFor(reason string) string {
	switch reason {
	case providers.ReasonAuth:
		return "check the API key and user token in the config"
	case providers.ReasonQuota:
		return "provider quota exhausted; wait or use a user token"
	case providers.ReasonTimeout:
		return "provider timed out; raise timeout_seconds or retry later"
	default:
		return "check network connectivity and provider status"
	}
}
