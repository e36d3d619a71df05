package tasks

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/discwatch/internal/models"
	"github.com/desertthunder/discwatch/internal/shared"
	"golang.org/x/time/rate"
)

const recentBatches = 10

// SchedulerOpts contains configuration for a [Scheduler].
type SchedulerOpts struct {
	Engine         *Engine
	Store          WatchStore
	History        CheckHistory          // Optional pass history
	Settings       *shared.WatchSettings // Defaults to the engine's settings
	Logger         *log.Logger           // Defaults to the engine's logger
	Progress       chan<- ProgressUpdate // Optional, written without blocking
	DisablePolling bool                  // Only run triggered checks
}

// Scheduler runs watch passes on a fixed pool of workers fed by a bounded queue.
//
// Worker count, queue size and rate limit are read from the settings snapshot at [Scheduler.Start].
// A trigger for an artist that is already being checked is a no-op for that artist.
type Scheduler struct {
	engine   *Engine
	store    WatchStore
	history  CheckHistory
	settings *shared.WatchSettings
	logger   *log.Logger
	progress chan<- ProgressUpdate
	polling  bool

	mu       sync.RWMutex
	running  bool
	ctx      context.Context
	cancel   context.CancelFunc
	jobs     chan checkJob
	limiter  *rate.Limiter
	workers  int
	wg       sync.WaitGroup
	recent   []*BatchReport
	lastPoll time.Time
}

type checkJob struct {
	artistID string
	batch    *Batch
}

// NewScheduler creates a stopped [Scheduler].
func NewScheduler(opts SchedulerOpts) *Scheduler {
	if opts.Settings == nil {
		opts.Settings = opts.Engine.settings
	}
	if opts.Logger == nil {
		opts.Logger = opts.Engine.logger
	}
	if opts.Store == nil {
		opts.Store = opts.Engine.store
	}

	return &Scheduler{
		engine:   opts.Engine,
		store:    opts.Store,
		history:  opts.History,
		settings: opts.Settings,
		logger:   opts.Logger,
		progress: opts.Progress,
		polling:  !opts.DisablePolling,
	}
}

// Start launches the worker pool and, unless disabled, the periodic poller.
// Workers stop when ctx is cancelled or [Scheduler.Stop] is called.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler already running")
	}

	cfg := s.settings.Snapshot()
	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}

	ctx, cancel := context.WithCancel(ctx)
	s.ctx = ctx
	s.cancel = cancel
	s.jobs = make(chan checkJob, cfg.QueueCapacity())
	s.limiter = rate.NewLimiter(limit, 1)
	s.workers = cfg.WorkerCount()
	s.running = true

	for i := 0; i < s.workers; i++ {
		s.wg.Add(1)
		go s.worker(ctx, i)
	}

	if s.polling {
		s.wg.Add(1)
		go s.poll(ctx)
	}

	s.logger.Info("scheduler started", "workers", s.workers, "queue", cap(s.jobs), "rate", cfg.RateLimit)
	return nil
}

// Stop cancels running passes, waits for the workers and feeders to exit and fails any checks still queued.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.cancel()
	s.mu.Unlock()

	s.wg.Wait()

	for {
		select {
		case job := <-s.jobs:
			s.engine.coord.ReleaseArtistLock(job.artistID)
			s.finish(job.batch, job.artistID, nil, fmt.Errorf("%w: scheduler stopped", shared.ErrServiceUnavailable))
		default:
			s.logger.Info("scheduler stopped")
			return
		}
	}
}

// Running reports whether the worker pool is up.
func (s *Scheduler) Running() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// TriggerCheck queues a pass for artistID, or for every watched artist when artistID is empty, and returns
// without waiting for the passes to run.
//
// Fails with [shared.ErrFeatureDisabled] when the watch feature is off and [shared.ErrArtistNotWatched] for
// an unknown artist. A single-artist trigger fails with [shared.ErrQueueFull] when no slot is free; a bulk
// trigger hands its artists to a feeder that waits for free slots, so every watched artist gets a pass.
// Artists already being checked are reported as skipped in the batch.
func (s *Scheduler) TriggerCheck(ctx context.Context, artistID string) (*Batch, error) {
	cfg := s.settings.Snapshot()
	if !cfg.Enabled {
		return nil, shared.ErrFeatureDisabled
	}
	if !s.Running() {
		return nil, fmt.Errorf("%w: scheduler is not running", shared.ErrServiceUnavailable)
	}

	if artistID != "" {
		return s.triggerOne(ctx, artistID)
	}

	artists, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list watched artists: %w", err)
	}
	ids := make([]string, 0, len(artists))
	for _, a := range artists {
		ids = append(ids, a.ID)
	}

	batch := newBatch(ids)
	pending := make([]string, 0, len(ids))
	for _, id := range ids {
		if !s.engine.coord.TryAcquireArtistLock(id) {
			s.logger.Debug("check already running", "artist", id)
			sendProgress(s.progress, skippedUpdate(id))
			s.skip(batch, id)
			continue
		}
		pending = append(pending, id)
	}

	if len(pending) > 0 {
		if err := s.startFeeder(batch, pending, len(ids)); err != nil {
			for _, id := range pending {
				s.engine.coord.ReleaseArtistLock(id)
				s.finish(batch, id, nil, err)
			}
		}
	}

	s.logger.Info("check triggered", "batch", batch.ID, "artists", len(ids), "pending", len(pending))
	return batch, nil
}

func (s *Scheduler) triggerOne(ctx context.Context, artistID string) (*Batch, error) {
	if _, err := s.store.Get(ctx, artistID); err != nil {
		return nil, notWatched(artistID, err)
	}

	batch := newBatch([]string{artistID})
	if !s.engine.coord.TryAcquireArtistLock(artistID) {
		s.logger.Debug("check already running", "artist", artistID)
		sendProgress(s.progress, skippedUpdate(artistID))
		s.skip(batch, artistID)
		return batch, nil
	}

	if err := s.tryEnqueue(checkJob{artistID: artistID, batch: batch}); err != nil {
		s.engine.coord.ReleaseArtistLock(artistID)
		return nil, err
	}
	sendProgress(s.progress, queuedUpdate(artistID, 1, 1))

	s.logger.Info("check triggered", "batch", batch.ID, "artist", artistID)
	return batch, nil
}

func (s *Scheduler) tryEnqueue(job checkJob) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.running {
		return fmt.Errorf("%w: scheduler is not running", shared.ErrServiceUnavailable)
	}

	select {
	case s.jobs <- job:
		return nil
	default:
		return shared.ErrQueueFull
	}
}

// startFeeder registers the feeder with the wait group while the scheduler is known to be running,
// so [Scheduler.Stop] always waits for it.
func (s *Scheduler) startFeeder(batch *Batch, ids []string, total int) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.running {
		return fmt.Errorf("%w: scheduler is not running", shared.ErrServiceUnavailable)
	}

	s.wg.Add(1)
	go s.feed(s.ctx, batch, ids, total)
	return nil
}

// feed blocks on the job queue for each artist in turn. On shutdown the artists not yet queued fail.
func (s *Scheduler) feed(ctx context.Context, batch *Batch, ids []string, total int) {
	defer s.wg.Done()

	offset := total - len(ids)
	for i, id := range ids {
		select {
		case s.jobs <- checkJob{artistID: id, batch: batch}:
			sendProgress(s.progress, queuedUpdate(id, offset+i+1, total))
		case <-ctx.Done():
			for _, rest := range ids[i:] {
				s.engine.coord.ReleaseArtistLock(rest)
				s.finish(batch, rest, nil, fmt.Errorf("%w: scheduler stopped", shared.ErrServiceUnavailable))
			}
			return
		}
	}
}

func (s *Scheduler) worker(ctx context.Context, n int) {
	defer s.wg.Done()
	s.logger.Debug("worker started", "worker", n)

	for {
		select {
		case <-ctx.Done():
			return
		case job := <-s.jobs:
			s.run(ctx, job)
		}
	}
}

func (s *Scheduler) run(ctx context.Context, job checkJob) {
	defer s.engine.coord.ReleaseArtistLock(job.artistID)

	started := time.Now().UTC()
	result, err := s.safeCheck(ctx, job.artistID)
	if err != nil {
		s.logger.Error("check failed", "artist", job.artistID, "batch", job.batch.ID, "err", err)
		sendProgress(s.progress, failedUpdate(job.artistID, err))
	} else {
		sendProgress(s.progress, completedUpdate(job.artistID, result))
	}

	s.record(ctx, job, result, err, started)
	s.finish(job.batch, job.artistID, result, err)
}

// safeCheck runs one pass and turns a panic into an error for that artist alone.
func (s *Scheduler) safeCheck(ctx context.Context, artistID string) (result *models.CheckResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("panic during check", "artist", artistID, "panic", r, "stack", string(debug.Stack()))
			result, err = nil, fmt.Errorf("internal error while checking %s", artistID)
		}
	}()

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return s.engine.Check(ctx, s.progress, artistID)
}

func (s *Scheduler) record(ctx context.Context, job checkJob, result *models.CheckResult, checkErr error, started time.Time) {
	if s.history == nil {
		return
	}

	run := &models.CheckRun{
		ArtistID:   job.artistID,
		BatchID:    job.batch.ID,
		Status:     models.CheckCompleted,
		StartedAt:  started,
		FinishedAt: time.Now().UTC(),
	}
	if result != nil {
		run.NewAlbums = len(result.Reconciliation.NewAlbums)
		run.Queued = len(result.Dispatch.Queued)
		run.Duplicates = len(result.Dispatch.Duplicates)
		run.Failed = len(result.Dispatch.Failed)
		if result.Dispatch.Discarded {
			run.Status = models.CheckDiscarded
		}
	}
	if checkErr != nil {
		run.Status = models.CheckFailed
		run.Error = checkErr.Error()
	}

	// Recorded even when ctx was cancelled by shutdown.
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := s.history.Create(rctx, run); err != nil {
		s.logger.Warn("failed to record check run", "artist", job.artistID, "err", err)
	}
}

func (s *Scheduler) skip(b *Batch, artistID string) {
	if report := b.skip(artistID); report != nil {
		s.batchDone(report)
	}
}

func (s *Scheduler) finish(b *Batch, artistID string, result *models.CheckResult, err error) {
	if report := b.complete(artistID, result, err); report != nil {
		s.batchDone(report)
	}
}

func (s *Scheduler) batchDone(report *BatchReport) {
	s.mu.Lock()
	s.recent = append(s.recent, report)
	if len(s.recent) > recentBatches {
		s.recent = s.recent[len(s.recent)-recentBatches:]
	}
	s.mu.Unlock()

	sendProgress(s.progress, batchDoneUpdate(report))
}

// poll triggers a bulk check every poll interval while the feature is enabled.
// The interval is re-read from the settings after every tick so runtime changes apply to the next wait.
func (s *Scheduler) poll(ctx context.Context) {
	defer s.wg.Done()

	for {
		wait := s.settings.Snapshot().Interval()
		if wait <= 0 {
			wait = time.Minute
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		cfg := s.settings.Snapshot()
		if !cfg.Enabled || cfg.Interval() <= 0 {
			continue
		}

		s.mu.Lock()
		s.lastPoll = time.Now().UTC()
		s.mu.Unlock()

		if _, err := s.TriggerCheck(ctx, ""); err != nil {
			s.logger.Warn("periodic check not started", "err", err)
		}
	}
}

// SchedulerStatus is a read-only view of the scheduler.
type SchedulerStatus struct {
	Running       bool           `json:"running"`
	Enabled       bool           `json:"enabled"`
	Workers       int            `json:"workers"`
	QueueDepth    int            `json:"queue_depth"`
	QueueCapacity int            `json:"queue_capacity"`
	Checking      []string       `json:"checking"`
	InFlight      int            `json:"in_flight"`
	PollInterval  string         `json:"poll_interval"`
	LastPoll      *time.Time     `json:"last_poll,omitempty"`
	RecentBatches []*BatchReport `json:"recent_batches"`
}

// Status reports queue depth, artists being checked and recently finished batches.
// It is available regardless of the feature flag.
func (s *Scheduler) Status() SchedulerStatus {
	cfg := s.settings.Snapshot()
	snap := s.engine.coord.Snapshot()

	s.mu.RLock()
	defer s.mu.RUnlock()

	status := SchedulerStatus{
		Running:       s.running,
		Enabled:       cfg.Enabled,
		Workers:       s.workers,
		Checking:      snap.Checking,
		InFlight:      snap.InFlight,
		PollInterval:  cfg.PollInterval,
		RecentBatches: append([]*BatchReport{}, s.recent...),
	}
	if s.jobs != nil {
		status.QueueDepth = len(s.jobs)
		status.QueueCapacity = cap(s.jobs)
	}
	if !s.lastPoll.IsZero() {
		t := s.lastPoll
		status.LastPoll = &t
	}
	return status
}
