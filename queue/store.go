package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"fileconverter/converter"
	"fileconverter/formats"
	"fileconverter/models"
)

var ErrJobNotFound = errors.New("job not found")

// Dispatcher resolves and runs converters. Satisfied by
// *converter.Dispatcher; narrowed to an interface so tests can stand in
// failing or slow adapters.
type Dispatcher interface {
	Resolve(category formats.Category, source, target string) (converter.Handle, error)
	Invoke(ctx context.Context, h converter.Handle, in converter.Payload) (converter.Payload, error)
}

type Options struct {
	Workers          int
	ProgressInterval time.Duration
}

// Store owns the job collection for one session and is the sole writer of
// job state. Jobs are processed concurrently; bookkeeping is serialized
// under one mutex. Callers only ever see copies.
type Store struct {
	mu       sync.Mutex
	jobs     []*models.Job
	index    map[string]*models.Job
	cancels  map[string]context.CancelFunc
	done     map[string]chan struct{}
	watchers map[string][]chan int

	dispatcher Dispatcher
	pool       *Pool
	logger     *zap.Logger
	interval   time.Duration

	baseCtx    context.Context
	baseCancel context.CancelFunc
}

func NewStore(dispatcher Dispatcher, logger *zap.Logger, opts Options) *Store {
	if opts.ProgressInterval <= 0 {
		opts.ProgressInterval = 500 * time.Millisecond
	}
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Store{
		index:      make(map[string]*models.Job),
		cancels:    make(map[string]context.CancelFunc),
		done:       make(map[string]chan struct{}),
		watchers:   make(map[string][]chan int),
		dispatcher: dispatcher,
		pool:       NewPool(opts.Workers),
		logger:     logger,
		interval:   opts.ProgressInterval,
		baseCtx:    ctx,
		baseCancel: cancel,
	}
}

// Close stops accepting progress for new work and waits for in-flight
// conversions to settle.
func (s *Store) Close() {
	s.baseCancel()
	s.pool.Wait()
}

// Submit creates a job for one file and schedules it immediately: creation
// implies start. It returns a snapshot synchronously while the conversion
// continues in the background. An unsupported (source, target) pair still
// produces a job; it fails during dispatch rather than here.
func (s *Store) Submit(file models.SourceFile, category formats.Category, targetFormat string) (models.Job, error) {
	source, err := formats.FormatFromExtension(file.Name)
	if err != nil {
		return models.Job{}, err
	}
	if category == "" {
		category = source.Category
	}

	now := time.Now().UTC()
	job := &models.Job{
		ID:           uuid.New().String(),
		Source:       file,
		Category:     category,
		SourceFormat: source.ID,
		TargetFormat: targetFormat,
		Status:       models.StatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	jobCtx, cancel := context.WithCancel(s.baseCtx)

	s.mu.Lock()
	s.jobs = append(s.jobs, job)
	s.index[job.ID] = job
	s.cancels[job.ID] = cancel
	s.done[job.ID] = make(chan struct{})
	snapshot := job.Clone()
	s.mu.Unlock()

	s.logger.Info("Job submitted",
		zap.String("job_id", job.ID),
		zap.String("filename", file.Name),
		zap.String("source_format", job.SourceFormat),
		zap.String("target_format", targetFormat),
	)

	s.pool.Go(jobCtx, func(ctx context.Context) {
		s.processJob(ctx, job.ID)
	})
	return snapshot, nil
}

// SubmitBatch creates one independent job per file, all with the same
// target format. Jobs share nothing once created.
func (s *Store) SubmitBatch(files []models.SourceFile, targetFormat string) ([]models.Job, error) {
	jobs := make([]models.Job, 0, len(files))
	for _, f := range files {
		job, err := s.Submit(f, "", targetFormat)
		if err != nil {
			return jobs, fmt.Errorf("submit %q: %w", f.Name, err)
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

// processJob drives one job to a terminal state. Every adapter failure and
// panic is absorbed here; nothing escapes to affect sibling jobs.
func (s *Store) processJob(ctx context.Context, id string) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Panic recovered in job",
				zap.String("job_id", id),
				zap.Any("error", r),
			)
			s.failJob(id, fmt.Sprintf("internal error: %v", r))
		}
	}()

	job, err := s.Get(id)
	if err != nil {
		// Removed before a worker slot opened up.
		return
	}

	s.mutate(id, func(j *models.Job) {
		j.Status = models.StatusProcessing
		j.Progress = 0
	})

	stop := make(chan struct{})
	defer close(stop)
	go s.estimateProgress(id, stop)

	handle, err := s.dispatcher.Resolve(job.Category, job.SourceFormat, job.TargetFormat)
	if err != nil {
		s.failJob(id, err.Error())
		return
	}

	out, err := s.dispatcher.Invoke(ctx, handle, converter.Payload{
		Filename: job.Source.Name,
		MIME:     job.Source.MIME,
		Data:     job.Source.Data,
	})
	if err != nil {
		s.failJob(id, err.Error())
		return
	}

	s.mutate(id, func(j *models.Job) {
		j.Status = models.StatusCompleted
		j.Progress = 100
		j.Result = out.Data
		j.ResultName = out.Filename
		j.ResultMIME = out.MIME
		now := time.Now().UTC()
		j.CompletedAt = &now
	})
}

// estimateProgress synthesizes progress while the adapter works: a small
// bump per tick, capped below completion until the result is actually
// ready. Adapters expose no granular progress of their own.
func (s *Store) estimateProgress(id string, stop <-chan struct{}) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.mutate(id, func(j *models.Job) {
				if j.Status == models.StatusProcessing && j.Progress < 90 {
					j.Progress += 10
				}
			})
		}
	}
}

func (s *Store) failJob(id, message string) {
	s.mutate(id, func(j *models.Job) {
		if j.Terminal() {
			return
		}
		j.Status = models.StatusFailed
		j.ErrorMessage = message
		now := time.Now().UTC()
		j.CompletedAt = &now
	})
	s.logger.Warn("Job failed",
		zap.String("job_id", id),
		zap.String("error", message),
	)
}

// mutate applies fn to the job under the lock, stamps UpdatedAt, pushes
// the progress value to watchers and, on a transition into a terminal
// state, releases everyone waiting. No-op if the job has been removed.
func (s *Store) mutate(id string, fn func(*models.Job)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.index[id]
	if !ok {
		return
	}
	wasTerminal := job.Terminal()
	prevProgress := job.Progress
	fn(job)
	job.UpdatedAt = time.Now().UTC()

	if job.Progress != prevProgress || (!wasTerminal && job.Terminal()) {
		for _, ch := range s.watchers[id] {
			select {
			case ch <- job.Progress:
			default:
			}
		}
	}
	if !wasTerminal && job.Terminal() {
		s.finishLocked(id)
	}
}

// finishLocked closes the job's wait and watcher channels. Callers hold
// the lock and guarantee it runs at most once per job.
func (s *Store) finishLocked(id string) {
	if d, ok := s.done[id]; ok {
		close(d)
	}
	for _, ch := range s.watchers[id] {
		close(ch)
	}
	delete(s.watchers, id)
	if cancel, ok := s.cancels[id]; ok {
		cancel()
		delete(s.cancels, id)
	}
}

// UpdateFields is a partial job update; nil fields are left untouched.
type UpdateFields struct {
	Status       *models.JobStatus
	Progress     *int
	ErrorMessage *string
	Result       []byte
}

// Update merges fields into the job with the given id. The merge is
// normalized afterwards, so callers cannot produce a job that violates the
// lifecycle invariants.
func (s *Store) Update(id string, fields UpdateFields) error {
	s.mu.Lock()
	_, ok := s.index[id]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	s.mutate(id, func(j *models.Job) {
		if fields.Status != nil {
			j.Status = *fields.Status
		}
		if fields.Progress != nil {
			j.Progress = *fields.Progress
		}
		if fields.ErrorMessage != nil {
			j.ErrorMessage = *fields.ErrorMessage
		}
		if fields.Result != nil {
			j.Result = fields.Result
		}
		normalize(j)
	})
	return nil
}

// normalize repairs a merged job so the lifecycle invariants hold: progress
// stays in range, full progress is reserved for completed jobs, and
// terminal jobs carry a completion time.
func normalize(j *models.Job) {
	if j.Progress < 0 {
		j.Progress = 0
	}
	switch {
	case j.Status == models.StatusCompleted:
		j.Progress = 100
	case j.Progress > 99:
		j.Progress = 99
	}
	if j.Terminal() && j.CompletedAt == nil {
		now := time.Now().UTC()
		j.CompletedAt = &now
	}
}

// Remove deletes the job from the collection, in any status. An in-flight
// conversion gets its context cancelled; adapters that honor cancellation
// stop early, the rest run to completion and have their result discarded.
func (s *Store) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.index[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	if !job.Terminal() {
		s.finishLocked(id)
	}
	delete(s.index, id)
	delete(s.done, id)
	for i, j := range s.jobs {
		if j.ID == id {
			s.jobs = append(s.jobs[:i], s.jobs[i+1:]...)
			break
		}
	}
	s.logger.Info("Job removed", zap.String("job_id", id))
	return nil
}

// Get returns a read-only snapshot of one job.
func (s *Store) Get(id string) (models.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.index[id]
	if !ok {
		return models.Job{}, fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	return job.Clone(), nil
}

// List returns snapshots of all jobs in insertion order.
func (s *Store) List() []models.Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Job, 0, len(s.jobs))
	for _, j := range s.jobs {
		out = append(out, j.Clone())
	}
	return out
}

// Watch returns a channel of progress values for one job. Values arrive in
// the order emitted and never decrease; the channel closes when the job
// reaches a terminal state or is removed. Slow consumers may miss
// intermediate values but never observe a regression.
func (s *Store) Watch(id string) (<-chan int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.index[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	ch := make(chan int, 128)
	if job.Terminal() {
		ch <- job.Progress
		close(ch)
		return ch, nil
	}
	s.watchers[id] = append(s.watchers[id], ch)
	return ch, nil
}

// Wait blocks until the job reaches a terminal state, the job is removed,
// or the context is cancelled.
func (s *Store) Wait(ctx context.Context, id string) (models.Job, error) {
	s.mu.Lock()
	d, ok := s.done[id]
	s.mu.Unlock()
	if !ok {
		return models.Job{}, fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	select {
	case <-d:
	case <-ctx.Done():
		return models.Job{}, ctx.Err()
	}
	return s.Get(id)
}
