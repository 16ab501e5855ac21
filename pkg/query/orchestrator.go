package query

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cercalo-ai/cercalo-engine/pkg/llm"
	"github.com/cercalo-ai/cercalo-engine/pkg/logging"
	"github.com/cercalo-ai/cercalo-engine/pkg/models"
	"github.com/cercalo-ai/cercalo-engine/pkg/retry"
	"github.com/cercalo-ai/cercalo-engine/pkg/schema"
	"github.com/cercalo-ai/cercalo-engine/pkg/store"
)

const (
	// DefaultMaxResults caps the result set to bound response size.
	DefaultMaxResults = 50

	// DefaultTranslateTimeout bounds the whole translation phase,
	// including retries. The orchestrator never waits indefinitely on
	// the model collaborator.
	DefaultTranslateTimeout = 60 * time.Second
)

// ExecutionSink receives completed execution records for persistence.
// The orchestrator never reads a record back.
type ExecutionSink interface {
	Save(ctx context.Context, exec *models.QueryExecution) error
}

// NoopSink discards execution records. Used when no audit store is
// configured.
type NoopSink struct{}

// Save implements ExecutionSink.
func (NoopSink) Save(ctx context.Context, exec *models.QueryExecution) error { return nil }

// Orchestrator is the query entry point. It decides the resolution path,
// delegates, executes against the record store, and packages the result
// with full provenance in an execution record.
type Orchestrator struct {
	catalog    *schema.Catalog
	matcher    *Matcher
	executor   *Executor
	translator *Translator
	resolver   *Resolver
	store      store.EntityStore
	limiter    *llm.RateLimiter
	breaker    *llm.CircuitBreaker
	retryCfg   *retry.Config
	sink       ExecutionSink
	logger     *zap.Logger

	maxResults       int
	translateTimeout time.Duration
}

// Options tunes orchestrator limits. Zero values take the defaults.
type Options struct {
	MaxResults       int
	TranslateTimeout time.Duration
}

// NewOrchestrator wires the engine together. All collaborators are
// required except sink, which defaults to NoopSink.
func NewOrchestrator(
	catalog *schema.Catalog,
	matcher *Matcher,
	executor *Executor,
	translator *Translator,
	resolver *Resolver,
	entityStore store.EntityStore,
	limiter *llm.RateLimiter,
	breaker *llm.CircuitBreaker,
	retryCfg *retry.Config,
	sink ExecutionSink,
	logger *zap.Logger,
	opts Options,
) *Orchestrator {
	if sink == nil {
		sink = NoopSink{}
	}
	if retryCfg == nil {
		retryCfg = retry.DefaultConfig()
	}
	if opts.MaxResults <= 0 {
		opts.MaxResults = DefaultMaxResults
	}
	if opts.TranslateTimeout <= 0 {
		opts.TranslateTimeout = DefaultTranslateTimeout
	}

	return &Orchestrator{
		catalog:          catalog,
		matcher:          matcher,
		executor:         executor,
		translator:       translator,
		resolver:         resolver,
		store:            entityStore,
		limiter:          limiter,
		breaker:          breaker,
		retryCfg:         retryCfg,
		sink:             sink,
		logger:           logger.Named("orchestrator"),
		maxResults:       opts.MaxResults,
		translateTimeout: opts.TranslateTimeout,
	}
}

// Run resolves one query: pattern check first, model translation only
// when no pattern matches. Failures are captured into the execution
// record rather than returned; the record always comes back non-nil
// with a terminal status.
func (o *Orchestrator) Run(ctx context.Context, userID, text, category string) *models.QueryExecution {
	exec := &models.QueryExecution{
		ID:        uuid.New(),
		UserID:    userID,
		Text:      text,
		Category:  category,
		StartedAt: time.Now(),
	}
	defer o.finish(ctx, exec)

	o.logger.Info("query received",
		zap.String("query_id", exec.ID.String()),
		zap.String("category", category),
		zap.String("text", logging.SanitizeQueryText(text)))

	if match, ok := o.matcher.Match(text); ok {
		o.runMulti(ctx, exec, match)
		return exec
	}
	o.runSingle(ctx, exec)
	return exec
}

// runMulti executes a matched correlation pattern. The model call is
// skipped entirely; cost and latency are first-class concerns on this
// path.
func (o *Orchestrator) runMulti(ctx context.Context, exec *models.QueryExecution, match *Match) {
	exec.Path = models.PathMulti
	exec.PatternID = match.Pattern.ID
	exec.Entity = match.Pattern.Primary
	exec.FilterOrPattern = match.Pattern.ID

	ids, err := o.executor.Execute(ctx, match)
	if err != nil {
		kind := classifyKind(err)
		if kind == models.ErrorKindStoreExecution {
			err = fmt.Errorf("%w: %w", ErrStoreExecution, err)
		}
		o.fail(exec, kind, err)
		return
	}

	rows, err := o.store.SearchIDs(ctx, match.Pattern.Primary, ids, o.maxResults)
	if err != nil {
		o.fail(exec, models.ErrorKindStoreExecution, fmt.Errorf("%w: %w", ErrStoreExecution, err))
		return
	}

	o.succeed(exec, rows)
}

// runSingle resolves the target entity, translates the text into a
// filter, repairs and validates it, and searches the store.
func (o *Orchestrator) runSingle(ctx context.Context, exec *models.QueryExecution) {
	exec.Path = models.PathSingle

	entity, err := o.catalog.Resolve(exec.Category)
	if err != nil {
		o.fail(exec, models.ErrorKindSchemaMismatch, err)
		return
	}
	exec.Entity = entity

	desc, err := o.catalog.Describe(entity)
	if err != nil {
		o.fail(exec, models.ErrorKindSchemaMismatch, err)
		return
	}

	raw, err := o.translate(ctx, exec.UserID, exec.Text, desc)
	exec.RawResponse = raw
	if err != nil {
		// Classified by type so provider 429s and the local budget both
		// land on the rate-limited kind, not just the limiter singleton.
		if llm.GetErrorType(err) == llm.ErrorTypeRateLimit {
			o.fail(exec, models.ErrorKindRateLimited, err)
		} else {
			o.fail(exec, models.ErrorKindTranslationUnavailable, fmt.Errorf("%w: %w", ErrTranslationUnavailable, err))
		}
		return
	}

	result, err := o.resolver.Resolve(raw, desc)
	if err != nil {
		o.fail(exec, models.ErrorKindUnparseableFilter, err)
		return
	}
	if result.Lenient {
		exec.AddNote("filter recovered by lenient parse")
	}
	for _, repair := range result.Repairs {
		exec.AddNote(repair)
	}
	exec.FilterOrPattern = result.Filter.String()

	rows, err := o.store.Search(ctx, entity, result.Filter, o.maxResults)
	if err != nil {
		o.fail(exec, models.ErrorKindStoreExecution, fmt.Errorf("%w: %w", ErrStoreExecution, err))
		return
	}

	o.succeed(exec, rows)
}

// translate calls the model behind the resilience chain: per-user rate
// limit, circuit breaker, bounded retry with exponential backoff. Only
// transient failures are retried; the whole phase shares one timeout.
func (o *Orchestrator) translate(ctx context.Context, userID, text string, desc *models.EntityDescriptor) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, o.translateTimeout)
	defer cancel()

	var raw string
	err := retry.DoIfRetryable(ctx, o.retryCfg, func() error {
		if allowed, berr := o.breaker.Allow(); !allowed {
			// Circuit open: fail fast, the cooldown outlasts any backoff.
			return llm.NewError(llm.ErrorTypeEndpoint, berr.Error(), false, berr)
		}
		if lerr := o.limiter.Allow(ctx, userID); lerr != nil {
			return lerr
		}

		out, terr := o.translator.Translate(ctx, text, desc)
		if terr != nil {
			o.breaker.RecordFailure()
			return terr
		}
		o.breaker.RecordSuccess()
		raw = out
		return nil
	})
	if err != nil {
		return "", err
	}
	return raw, nil
}

func (o *Orchestrator) succeed(exec *models.QueryExecution, rows []models.Row) {
	exec.Results = rows
	exec.ResultCount = len(rows)
	exec.Status = models.StatusSuccess
}

func (o *Orchestrator) fail(exec *models.QueryExecution, kind models.ErrorKind, err error) {
	exec.Status = models.StatusError
	exec.ErrorKind = kind
	exec.ErrorDetail = err.Error()

	o.logger.Warn("query failed",
		zap.String("query_id", exec.ID.String()),
		zap.String("path", string(exec.Path)),
		zap.String("error_kind", string(kind)),
		zap.String("error", logging.SanitizeError(err)))
}

// finish stamps the record and hands it to the sink. Persistence is
// best effort; an audit failure never fails the query.
func (o *Orchestrator) finish(ctx context.Context, exec *models.QueryExecution) {
	exec.FinishedAt = time.Now()

	if err := o.sink.Save(ctx, exec); err != nil {
		o.logger.Warn("failed to persist execution record",
			zap.String("query_id", exec.ID.String()),
			zap.Error(err))
	}

	o.logger.Info("query finished",
		zap.String("query_id", exec.ID.String()),
		zap.String("path", string(exec.Path)),
		zap.String("status", string(exec.Status)),
		zap.Int("results", exec.ResultCount),
		zap.Duration("elapsed", exec.FinishedAt.Sub(exec.StartedAt)))
}

// classifyKind maps an executor error to an error kind for the record.
func classifyKind(err error) models.ErrorKind {
	if errors.Is(err, ErrSchemaMismatch) || errors.Is(err, schema.ErrUnknownEntity) {
		return models.ErrorKindSchemaMismatch
	}
	return models.ErrorKindStoreExecution
}
