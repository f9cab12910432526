package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/copyforge-hq/titan/pkg/notify"
	"github.com/copyforge-hq/titan/pkg/queue"
	"github.com/copyforge-hq/titan/pkg/telemetry/metrics"

	"github.com/robfig/cron/v3"
)

// Default sweeper tuning.
const (
	DefaultSweepInterval   = 30 * time.Second
	DefaultRetentionPeriod = 7 * 24 * time.Hour
)

// SweeperConfig tunes the periodic maintenance jobs.
type SweeperConfig struct {
	// SweepInterval is how often QUEUED jobs are checked for expiry.
	SweepInterval time.Duration

	// CleanupSchedule is a cron expression for the retention cleanup
	// (e.g., "0 3 * * *"). Empty disables scheduled cleanup.
	CleanupSchedule string

	// RetentionPeriod is how long terminal jobs are kept.
	RetentionPeriod time.Duration
}

func (c *SweeperConfig) applyDefaults() {
	if c.SweepInterval <= 0 {
		c.SweepInterval = DefaultSweepInterval
	}
	if c.RetentionPeriod <= 0 {
		c.RetentionPeriod = DefaultRetentionPeriod
	}
}

// Sweeper runs the expiry sweep and the retention cleanup on a cron
// schedule. The expiry sweep moves overdue QUEUED jobs to EXPIRED before a
// worker can claim them; the cleanup deletes terminal jobs older than the
// retention window.
type Sweeper struct {
	store     queue.Store
	publisher notify.Publisher
	collector *metrics.Collector
	logger    *slog.Logger
	cfg       SweeperConfig

	cron *cron.Cron
	ctx  context.Context
}

// NewSweeper creates a sweeper. The collector may be nil; a nil publisher
// defaults to NopPublisher.
func NewSweeper(
	store queue.Store,
	publisher notify.Publisher,
	collector *metrics.Collector,
	cfg SweeperConfig,
	logger *slog.Logger,
) *Sweeper {
	if publisher == nil {
		publisher = notify.NopPublisher{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	cfg.applyDefaults()

	return &Sweeper{
		store:     store,
		publisher: publisher,
		collector: collector,
		logger:    logger.With("component", "sweeper"),
		cfg:       cfg,
		cron:      cron.New(),
	}
}

// Start registers the cron entries and begins the schedule.
func (s *Sweeper) Start(ctx context.Context) error {
	s.ctx = ctx

	spec := fmt.Sprintf("@every %s", s.cfg.SweepInterval)
	if _, err := s.cron.AddFunc(spec, s.sweep); err != nil {
		return fmt.Errorf("failed to schedule expiry sweep: %w", err)
	}

	if s.cfg.CleanupSchedule != "" {
		if _, err := s.cron.AddFunc(s.cfg.CleanupSchedule, s.cleanup); err != nil {
			return fmt.Errorf("failed to schedule cleanup %q: %w", s.cfg.CleanupSchedule, err)
		}
	}

	s.cron.Start()
	s.logger.Info("sweeper started",
		"sweep_interval", s.cfg.SweepInterval,
		"cleanup_schedule", s.cfg.CleanupSchedule,
		"retention", s.cfg.RetentionPeriod)
	return nil
}

// Stop halts the schedule and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
	s.logger.Info("sweeper stopped")
}

// sweep expires overdue QUEUED jobs and refreshes the depth gauges.
func (s *Sweeper) sweep() {
	expired, err := s.store.MarkExpired(s.ctx, time.Now())
	if err != nil {
		s.logger.Error("expiry sweep failed", "error", err)
		return
	}

	for _, jobID := range expired {
		if s.collector != nil {
			if job, err := s.store.Get(s.ctx, jobID); err == nil {
				s.collector.RecordJobOutcome(queue.StatusExpired, job.Priority, 0)
			}
		}
		s.publisher.Notify(s.ctx, jobID, queue.StatusExpired, nil)
	}
	if len(expired) > 0 {
		s.logger.Info("expired queued jobs", "count", len(expired))
	}

	s.updateDepthGauges()
}

// cleanup deletes terminal jobs older than the retention window.
func (s *Sweeper) cleanup() {
	olderThan := time.Now().Add(-s.cfg.RetentionPeriod)
	removed, err := s.store.Cleanup(s.ctx, olderThan)
	if err != nil {
		s.logger.Error("retention cleanup failed", "error", err)
		return
	}
	if removed > 0 {
		s.logger.Info("retention cleanup removed jobs", "count", removed, "older_than", olderThan)
	}
}

func (s *Sweeper) updateDepthGauges() {
	if s.collector == nil {
		return
	}
	counts, err := s.store.QueuedDepth(s.ctx)
	if err != nil {
		s.logger.Error("failed to count queue depth", "error", err)
		return
	}
	for _, priority := range []queue.Priority{queue.PriorityPremium, queue.PriorityStandard, queue.PriorityBatch} {
		s.collector.UpdateQueueDepth(priority, counts[priority])
	}
}
