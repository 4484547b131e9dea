// Package worker runs translation jobs in the background.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/nerdneilsfield/go-doc-translator/internal/job"
	"github.com/nerdneilsfield/go-doc-translator/internal/llm"
	"github.com/nerdneilsfield/go-doc-translator/internal/translator"
)

const startProgress = 0.05

// Dispatcher translates the stored input of a job.
type Dispatcher interface {
	Dispatch(ctx context.Context, jobID, filename string, client llm.Client, progress translator.ProgressFunc) (string, error)
}

// Runner drives jobs from pending to completed or failed, one goroutine per
// job.
type Runner struct {
	store      *job.Store
	dispatcher Dispatcher
	client     llm.Client
	logger     *zap.Logger
	observer   func(job.Job)

	wg sync.WaitGroup
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithObserver registers fn to receive every stored job update.
func WithObserver(fn func(job.Job)) Option {
	return func(r *Runner) {
		r.observer = fn
	}
}

// New creates a runner.
func New(store *job.Store, dispatcher Dispatcher, client llm.Client, opts ...Option) *Runner {
	r := &Runner{
		store:      store,
		dispatcher: dispatcher,
		client:     client,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Submit starts the job in its own goroutine. The job outlives ctx's
// cancellation but keeps its values.
func (r *Runner) Submit(ctx context.Context, id string) {
	ctx = context.WithoutCancel(ctx)
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		_, _ = r.Run(ctx, id)
	}()
}

// Wait blocks until every submitted job has finished.
func (r *Runner) Wait() {
	r.wg.Wait()
}

// Run processes the job synchronously and returns its final state. A failed
// translation is recorded on the job and returned as the error.
func (r *Runner) Run(ctx context.Context, id string) (final job.Job, err error) {
	logger := r.logger.With(zap.String("jobID", id))

	j, ok := r.store.Get(id)
	if !ok {
		return job.Job{}, fmt.Errorf("%w: %s", job.ErrJobNotFound, id)
	}

	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("job panicked", zap.Any("panic", rec), zap.Stack("stack"))
			err = fmt.Errorf("internal error: %v", rec)
			final = r.fail(logger, id, err)
		}
	}()

	if _, err := r.update(logger, id, job.Changes{}.
		WithStatus(job.StatusProcessing).
		WithProgress(startProgress).
		WithMessage("Starting translation")); err != nil {
		return r.current(id), err
	}
	logger.Info("job started", zap.String("filename", j.Filename))

	progress := func(fraction float64, message string) {
		_, _ = r.update(logger, id, job.Changes{}.WithProgress(fraction).WithMessage(message))
	}

	out, err := r.dispatcher.Dispatch(ctx, id, j.Filename, r.client, progress)
	if err != nil {
		return r.fail(logger, id, err), err
	}

	done, err := r.update(logger, id, job.Changes{}.
		WithStatus(job.StatusCompleted).
		WithProgress(1).
		WithResultPath(out))
	if err != nil {
		return r.current(id), err
	}
	logger.Info("job completed", zap.String("output", out), zap.String("message", done.Message))
	return done, nil
}

func (r *Runner) fail(logger *zap.Logger, id string, cause error) job.Job {
	logger.Error("job failed", zap.Error(cause))
	failed, err := r.update(logger, id, job.Changes{}.
		WithStatus(job.StatusFailed).
		WithProgress(1).
		WithMessage(FailureMessage(cause)))
	if err != nil {
		return r.current(id)
	}
	return failed
}

func (r *Runner) update(logger *zap.Logger, id string, c job.Changes) (job.Job, error) {
	j, err := r.store.Update(id, c)
	if err != nil {
		logger.Warn("job update rejected", zap.Error(err))
		return j, err
	}
	if r.observer != nil {
		r.observer(j)
	}
	return j, nil
}

func (r *Runner) current(id string) job.Job {
	j, _ := r.store.Get(id)
	return j
}

// FailureMessage is the message stored on a failed job.
func FailureMessage(err error) string {
	var pe *llm.ProviderError
	if errors.As(err, &pe) && pe.IsRetryable() {
		return err.Error() + " (temporary provider failure, try again later)"
	}
	return err.Error()
}
