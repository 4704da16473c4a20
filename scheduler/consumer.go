package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	apperrors "github.com/goliatone/go-errors"
	rcron "github.com/robfig/cron/v3"
)

// Workflow is a stateless handler bound to a job kind. Execute re-enters
// the corresponding flow's pipeline exactly as a synchronous request would.
type Workflow interface {
	Kind() JobKind
	Execute(ctx context.Context, job Job) error
}

// Logger interface shared across packages
type Logger interface {
	Info(msg string, args ...any)
	Error(msg string, args ...any)
}

// Option defines the functional option signature.
type Option func(*Consumer)

func WithSchedule(spec string) Option {
	return func(c *Consumer) {
		c.schedule = spec
	}
}

func WithBatchSize(n int) Option {
	return func(c *Consumer) {
		if n > 0 {
			c.batchSize = n
		}
	}
}

func WithLogger(l Logger) Option {
	return func(c *Consumer) {
		c.logger = l
	}
}

func WithErrorHandler(h func(error)) Option {
	return func(c *Consumer) {
		if h == nil {
			h = func(error) {}
		}
		c.errorHandler = h
	}
}

// WithRetryPolicy binds a retry policy to one job kind.
func WithRetryPolicy(kind JobKind, policy RetryPolicy) Option {
	return func(c *Consumer) {
		c.policies[kind] = policy
	}
}

// WithDefaultRetryPolicy sets the policy for kinds without an explicit one.
func WithDefaultRetryPolicy(policy RetryPolicy) Option {
	return func(c *Consumer) {
		c.defaultPolicy = policy
	}
}

// WithClock overrides the consumer's time source.
func WithClock(now func() time.Time) Option {
	return func(c *Consumer) {
		if now != nil {
			c.now = now
		}
	}
}

// Consumer polls the job store for due jobs and executes the workflow
// registered for each job's kind. Workflow errors never escape the
// consumer; they are routed through the job kind's retry policy.
type Consumer struct {
	mu        sync.Mutex
	store     JobStore
	workflows map[JobKind]Workflow

	policies      map[JobKind]RetryPolicy
	defaultPolicy RetryPolicy

	cron      *rcron.Cron
	schedule  string
	batchSize int
	now       func() time.Time

	logger       Logger
	errorHandler func(error)
}

// NewConsumer constructs a consumer from various options, applying
// defaults if unset.
func NewConsumer(store JobStore, opts ...Option) *Consumer {
	c := &Consumer{
		store:     store,
		workflows: make(map[JobKind]Workflow),
		policies:  make(map[JobKind]RetryPolicy),
		defaultPolicy: RetryPolicy{
			MaxRetries: 3,
			Strategy: ExponentialBackoffStrategy{
				Base:   30 * time.Second,
				Factor: 2,
				Max:    15 * time.Minute,
			},
		},
		schedule:  "@every 5s",
		batchSize: 50,
		now:       func() time.Time { return time.Now().UTC() },
		errorHandler: func(err error) {
			log.Printf("consumer error: %v\n", err)
		},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Register binds a workflow to its job kind.
func (c *Consumer) Register(w Workflow) error {
	if w == nil {
		return apperrors.New("workflow cannot be nil", apperrors.CategoryBadInput).
			WithTextCode("NIL_WORKFLOW")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.workflows[w.Kind()]; exists {
		return apperrors.New(fmt.Sprintf("workflow for kind %q already registered", w.Kind()), apperrors.CategoryConflict).
			WithTextCode("WORKFLOW_ALREADY_REGISTERED")
	}
	c.workflows[w.Kind()] = w
	return nil
}

// Start begins polling on the configured cron schedule.
func (c *Consumer) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cron != nil {
		return nil
	}
	c.cron = rcron.New()
	if _, err := c.cron.AddFunc(c.schedule, func() {
		if err := c.RunOnce(ctx); err != nil {
			c.errorHandler(err)
		}
	}); err != nil {
		c.cron = nil
		return fmt.Errorf("failed to add polling job: %w", err)
	}
	c.cron.Start()
	return nil
}

// Stop stops polling. In-flight jobs run to completion.
func (c *Consumer) Stop(_ context.Context) error {
	c.mu.Lock()
	cron := c.cron
	c.cron = nil
	c.mu.Unlock()
	if cron != nil {
		<-cron.Stop().Done()
	}
	return nil
}

// RunOnce executes one polling pass: fetch due pending jobs and run each
// through its workflow. Exposed so tests and callers can drive the
// consumer without the cron loop.
func (c *Consumer) RunOnce(ctx context.Context) error {
	jobs, err := c.store.FindDue(ctx, c.now(), c.batchSize)
	if err != nil {
		return apperrors.Wrap(err, apperrors.CategoryExternal, "fetch due jobs").
			WithTextCode("JOB_FETCH_FAILED")
	}
	for _, job := range jobs {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.process(ctx, job)
	}
	return nil
}

func (c *Consumer) process(ctx context.Context, job Job) {
	if err := c.store.UpdateStatus(ctx, job.ID, JobStatusRunning); err != nil {
		c.errorHandler(err)
		return
	}

	c.mu.Lock()
	wf, ok := c.workflows[job.Kind]
	c.mu.Unlock()
	if !ok {
		c.failJob(ctx, job, apperrors.New(
			fmt.Sprintf("no workflow registered for job kind %q", job.Kind),
			apperrors.CategoryBadInput,
		).WithTextCode(ErrCodeUnknownJobKind))
		return
	}

	err := wf.Execute(ctx, job)
	if err == nil {
		if uerr := c.store.UpdateStatus(ctx, job.ID, JobStatusFinished); uerr != nil {
			c.errorHandler(uerr)
		}
		return
	}

	if IsFatal(err) {
		c.failJob(ctx, job, err)
		return
	}
	c.handleFailure(ctx, job, err)
}

// handleFailure is the generic error handler: requeue with backoff until
// the kind's retry budget is exhausted, then mark permanently failed.
func (c *Consumer) handleFailure(ctx context.Context, job Job, cause error) {
	retry := job.RetryCount + 1
	policy := c.policyFor(job.Kind)

	at, ok := policy.NextRun(c.now(), retry)
	if !ok {
		c.failJob(ctx, job, cause)
		return
	}

	if err := c.store.Requeue(ctx, job.ID, at, retry); err != nil {
		c.errorHandler(err)
		return
	}
	if c.logger != nil {
		c.logger.Info("requeued job %s (%s), retry %d of %d at %s",
			job.ID, job.Kind, retry, policy.MaxRetries, at.Format(time.RFC3339))
	}
	c.errorHandler(apperrors.Wrap(cause, apperrors.CategoryHandler,
		fmt.Sprintf("job %s failed, attempt %d of %d", job.ID, retry, policy.MaxRetries+1)).
		WithTextCode("JOB_ATTEMPT_FAILED"))
}

func (c *Consumer) failJob(ctx context.Context, job Job, cause error) {
	if err := c.store.UpdateStatus(ctx, job.ID, JobStatusFailed); err != nil {
		c.errorHandler(err)
	}
	if c.logger != nil {
		c.logger.Error("job %s (%s) permanently failed: %v", job.ID, job.Kind, cause)
	}
	c.errorHandler(apperrors.Wrap(cause, apperrors.CategoryHandler,
		fmt.Sprintf("job %s permanently failed", job.ID)).
		WithTextCode("JOB_FAILED"))
}

func (c *Consumer) policyFor(kind JobKind) RetryPolicy {
	if p, ok := c.policies[kind]; ok {
		return p
	}
	return c.defaultPolicy
}
