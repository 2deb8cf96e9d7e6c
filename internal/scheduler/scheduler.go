// Package scheduler runs the daily price refresh and net-worth snapshot job.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gurnoorsh/wealthwise/internal/logger"
	"github.com/gurnoorsh/wealthwise/internal/models"
)

// ErrRunInProgress is returned by RunNow while another run is executing.
var ErrRunInProgress = errors.New("snapshot run already in progress")

type State int32

const (
	Idle State = iota
	Running
)

func (s State) String() string {
	if s == Running {
		return "running"
	}
	return "idle"
}

type InstrumentLister interface {
	DistinctInstruments(ctx context.Context) ([]models.Instrument, error)
}

type UserLister interface {
	ListIDs(ctx context.Context) ([]uint, error)
}

type PriceRefresher interface {
	FetchAndStore(ctx context.Context, symbol string, class models.AssetClass) (*models.PriceObservation, error)
}

type SnapshotTaker interface {
	CaptureSnapshot(ctx context.Context, userID uint) (*models.NetWorthSnapshot, bool, error)
}

// Deps are the collaborators a run drives.
type Deps struct {
	Instruments InstrumentLister
	Users       UserLister
	Prices      PriceRefresher
	Snapshots   SnapshotTaker
}

// Config sets the daily fire time and the pacing between upstream fetches.
type Config struct {
	Hour        int
	Minute      int
	Location    *time.Location
	PacingDelay time.Duration
	Jitter      time.Duration
}

type Scheduler struct {
	deps   Deps
	cfg    Config
	pacer  *Pacer
	logger *zap.Logger
	now    func() time.Time

	// runMu is held for the whole of a run so runs never overlap.
	runMu sync.Mutex
	state atomic.Int32

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func New(deps Deps, cfg Config, log *zap.Logger) *Scheduler {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &Scheduler{
		deps:   deps,
		cfg:    cfg,
		pacer:  NewPacer(cfg.PacingDelay, cfg.Jitter),
		logger: logger.OrNop(log).Named("scheduler"),
		now:    time.Now,
	}
}

func (s *Scheduler) State() State {
	return State(s.state.Load())
}

// NextRun returns the first hour:minute in loc strictly after now.
func NextRun(now time.Time, hour, minute int, loc *time.Location) time.Time {
	local := now.In(loc)
	next := time.Date(local.Year(), local.Month(), local.Day(), hour, minute, 0, 0, loc)
	if !next.After(local) {
		next = time.Date(local.Year(), local.Month(), local.Day()+1, hour, minute, 0, 0, loc)
	}
	return next
}

// Start launches the daily schedule. Calling Start on a started scheduler is a no-op.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}

	loopCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	go s.loop(loopCtx, s.done)

	s.logger.Info("scheduler started",
		zap.Int("hour", s.cfg.Hour),
		zap.Int("minute", s.cfg.Minute),
		zap.String("timezone", s.cfg.Location.String()))
}

// Shutdown stops the schedule and waits for the loop to exit, abandoning an
// in-flight scheduled run at its next symbol or user boundary. Calling it on a
// stopped scheduler is a no-op.
func (s *Scheduler) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	if s.cancel == nil {
		s.mu.Unlock()
		return nil
	}
	s.cancel()
	done := s.done
	s.cancel = nil
	s.done = nil
	s.mu.Unlock()

	select {
	case <-done:
		s.logger.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	for {
		now := s.now()
		next := NextRun(now, s.cfg.Hour, s.cfg.Minute, s.cfg.Location)
		s.logger.Debug("next snapshot run scheduled", zap.Time("at", next))

		timer := time.NewTimer(next.Sub(now))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		if _, err := s.RunNow(ctx); err != nil {
			s.logger.Warn("scheduled run skipped", zap.Error(err))
		}
	}
}

// RunNow executes one run synchronously. It returns ErrRunInProgress when a run
// is already executing; otherwise the report is always returned.
func (s *Scheduler) RunNow(ctx context.Context) (*RunReport, error) {
	if !s.runMu.TryLock() {
		return nil, ErrRunInProgress
	}
	defer s.runMu.Unlock()

	s.state.Store(int32(Running))
	defer s.state.Store(int32(Idle))

	return s.run(ctx), nil
}

func (s *Scheduler) run(ctx context.Context) *RunReport {
	report := &RunReport{
		RunID:            uuid.NewString(),
		StartedAt:        s.now().UTC(),
		PriceFailures:    []ItemFailure{},
		SnapshotFailures: []ItemFailure{},
	}
	log := s.logger.With(zap.String("run_id", report.RunID))
	log.Info("snapshot run started")

	if !s.refreshPrices(ctx, log, report) {
		return s.finish(log, report)
	}
	s.captureSnapshots(ctx, log, report)
	return s.finish(log, report)
}

// refreshPrices fetches every held instrument in turn. It returns false when
// the run was abandoned.
func (s *Scheduler) refreshPrices(ctx context.Context, log *zap.Logger, report *RunReport) bool {
	instruments, err := s.deps.Instruments.DistinctInstruments(ctx)
	if err != nil {
		log.Error("failed to list instruments", zap.Error(err))
		report.PriceFailures = append(report.PriceFailures, ItemFailure{Item: "instruments", Err: err})
		if ctx.Err() != nil {
			report.Abandoned = true
			return false
		}
		return true
	}
	report.Instruments = len(instruments)

	for _, inst := range instruments {
		if ctx.Err() != nil {
			report.Abandoned = true
			return false
		}
		if err := s.pacer.Wait(ctx); err != nil {
			report.Abandoned = true
			return false
		}

		if _, err := s.deps.Prices.FetchAndStore(ctx, inst.Symbol, inst.AssetClass); err != nil {
			if ctx.Err() != nil {
				report.Abandoned = true
				return false
			}
			log.Warn("price refresh failed",
				zap.String("symbol", inst.Symbol),
				zap.String("asset_class", string(inst.AssetClass)),
				zap.Error(err))
			report.PriceFailures = append(report.PriceFailures, ItemFailure{Item: inst.String(), Err: err})
			continue
		}
		report.PricesStored++
	}
	return true
}

func (s *Scheduler) captureSnapshots(ctx context.Context, log *zap.Logger, report *RunReport) {
	users, err := s.deps.Users.ListIDs(ctx)
	if err != nil {
		log.Error("failed to list users", zap.Error(err))
		report.SnapshotFailures = append(report.SnapshotFailures, ItemFailure{Item: "users", Err: err})
		report.Abandoned = ctx.Err() != nil
		return
	}
	report.Users = len(users)

	for _, userID := range users {
		if ctx.Err() != nil {
			report.Abandoned = true
			return
		}

		_, created, err := s.deps.Snapshots.CaptureSnapshot(ctx, userID)
		switch {
		case err != nil && ctx.Err() != nil:
			report.Abandoned = true
			return
		case err != nil:
			log.Warn("snapshot failed", zap.Uint("user_id", userID), zap.Error(err))
			report.SnapshotFailures = append(report.SnapshotFailures, ItemFailure{Item: fmt.Sprintf("user %d", userID), Err: err})
		case created:
			report.SnapshotsCreated++
		default:
			report.SnapshotsSkipped++
		}
	}
}

func (s *Scheduler) finish(log *zap.Logger, report *RunReport) *RunReport {
	report.FinishedAt = s.now().UTC()
	fields := []zap.Field{
		zap.Int("instruments", report.Instruments),
		zap.Int("prices_stored", report.PricesStored),
		zap.Int("price_failures", len(report.PriceFailures)),
		zap.Int("users", report.Users),
		zap.Int("snapshots_created", report.SnapshotsCreated),
		zap.Int("snapshots_skipped", report.SnapshotsSkipped),
		zap.Int("snapshot_failures", len(report.SnapshotFailures)),
		zap.Duration("duration", report.Duration()),
	}
	if report.Abandoned {
		log.Warn("snapshot run abandoned", fields...)
	} else {
		log.Info("snapshot run completed", fields...)
	}
	return report
}
