// Package resttimer runs the single rest countdown between sets and
// exercises. State is persisted on every change so an interrupted process can
// recover the countdown from the wall clock rather than from missed ticks.
package resttimer

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/meltforce/ironlog/internal/models"
	"github.com/meltforce/ironlog/internal/storage"
)

// Callback receives the timer state at the moment of completion or
// cancellation. Completion means the rest period elapsed naturally;
// cancellation means it was abandoned. The two are never conflated.
type Callback func(models.TimerState)

// Service owns the process-wide rest timer. Starting a new timer supersedes
// any prior one.
type Service struct {
	mu    sync.Mutex
	kv    storage.KV
	log   *slog.Logger
	now   func() time.Time
	state *models.TimerState

	onComplete Callback
	onCancel   Callback
}

// New creates a stopped timer service.
func New(kv storage.KV, log *slog.Logger) *Service {
	return &Service{kv: kv, log: log, now: time.Now}
}

// OnComplete registers the natural-expiry callback.
func (s *Service) OnComplete(fn Callback) { s.onComplete = fn }

// OnCancel registers the abandonment callback.
func (s *Service) OnCancel(fn Callback) { s.onCancel = fn }

// Start begins a countdown of duration seconds, superseding any active timer.
func (s *Service) Start(ctx context.Context, duration int, typ models.TimerType, exerciseID string, setIndex int) models.TimerState {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = &models.TimerState{
		IsActive:   true,
		TimeLeft:   duration,
		Duration:   duration,
		Type:       typ,
		ExerciseID: exerciseID,
		SetIndex:   setIndex,
		StartTime:  s.now(),
	}
	s.persist(ctx)
	return *s.state
}

// State returns a snapshot of the active timer, if any.
func (s *Service) State() (models.TimerState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == nil {
		return models.TimerState{}, false
	}
	return *s.state, true
}

// Tick decrements the countdown by one second. At zero it fires completion
// exactly once and clears the persisted state.
func (s *Service) Tick(ctx context.Context) {
	s.mu.Lock()
	if s.state == nil || !s.state.IsActive || s.state.Paused {
		s.mu.Unlock()
		return
	}
	if s.state.TimeLeft > 0 {
		s.state.TimeLeft--
	}
	if s.state.TimeLeft > 0 {
		s.persist(ctx)
		s.mu.Unlock()
		return
	}
	done := *s.state
	s.state = nil
	s.clearPersisted(ctx)
	s.mu.Unlock()

	if s.onComplete != nil {
		s.onComplete(done)
	}
}

// Run drives Tick once per second until ctx is done.
func (s *Service) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Pause freezes the countdown; no decrementing and no completion while paused.
func (s *Service) Pause(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == nil {
		return
	}
	s.state.Paused = true
	s.persist(ctx)
}

// Resume unfreezes a paused countdown. StartTime is re-anchored so a later
// wall-clock recovery measures elapsed time from the resume point.
func (s *Service) Resume(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == nil || !s.state.Paused {
		return
	}
	s.state.Paused = false
	s.state.StartTime = s.now()
	s.state.Duration = s.state.TimeLeft
	s.persist(ctx)
}

// Cancel abandons the rest period: clears state and fires the cancellation
// callback (never the completion one).
func (s *Service) Cancel(ctx context.Context) {
	s.mu.Lock()
	if s.state == nil {
		s.mu.Unlock()
		return
	}
	cancelled := *s.state
	s.state = nil
	s.clearPersisted(ctx)
	s.mu.Unlock()

	if s.onCancel != nil {
		s.onCancel(cancelled)
	}
}

// Clear drops any active timer without firing callbacks. Used when a session
// finishes or is discarded.
func (s *Service) Clear(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = nil
	s.clearPersisted(ctx)
}

// Recover reattaches to a persisted timer after a restart or app resume.
// A running timer is adjusted by wall-clock elapsed time (ticks stop firing
// while suspended); a paused timer restores TimeLeft verbatim. A countdown
// that expired while away fires completion immediately.
func (s *Service) Recover(ctx context.Context) (models.TimerState, bool) {
	s.mu.Lock()

	var persisted models.TimerState
	found, err := storage.GetJSON(ctx, s.kv, storage.KeyRestTimer, &persisted)
	if err != nil {
		s.log.Warn("timer recovery read failed", "error", err)
		s.mu.Unlock()
		return models.TimerState{}, false
	}
	if !found || !persisted.IsActive {
		s.mu.Unlock()
		return models.TimerState{}, false
	}

	if !persisted.Paused {
		elapsed := int(s.now().Sub(persisted.StartTime).Seconds())
		left := persisted.Duration - elapsed
		if left < 0 {
			left = 0
		}
		persisted.TimeLeft = left
	}

	if persisted.TimeLeft == 0 {
		s.state = nil
		s.clearPersisted(ctx)
		s.mu.Unlock()
		if s.onComplete != nil {
			s.onComplete(persisted)
		}
		return persisted, true
	}

	s.state = &persisted
	s.persist(ctx)
	s.mu.Unlock()
	return persisted, true
}

// persist writes the current state. Timer persistence is non-critical: a
// failure costs at most one second of recovery precision, so it is logged
// and swallowed.
func (s *Service) persist(ctx context.Context) {
	if err := storage.SetJSON(ctx, s.kv, storage.KeyRestTimer, s.state); err != nil {
		s.log.Warn("timer persist failed", "error", err)
	}
}

func (s *Service) clearPersisted(ctx context.Context) {
	if err := s.kv.Remove(ctx, storage.KeyRestTimer); err != nil {
		s.log.Warn("timer state clear failed", "error", err)
	}
}
