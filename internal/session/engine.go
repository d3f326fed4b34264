// Package session owns the active workout: the phase state machine, set and
// exercise progression, the aerobic and abdominal sub-flows, and completion
// into history. At most one session is active per installation.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/meltforce/ironlog/internal/catalog"
	"github.com/meltforce/ironlog/internal/models"
	"github.com/meltforce/ironlog/internal/resttimer"
	"github.com/meltforce/ironlog/internal/stats"
	"github.com/meltforce/ironlog/internal/storage"
)

var (
	// ErrNoActiveSession is returned by FinishWorkout when nothing is
	// running. Other mutating calls on a nil session are silent no-ops.
	ErrNoActiveSession = errors.New("no active workout session")

	// ErrAlreadyCompletedToday rejects a second run of the same workout day
	// on one calendar date.
	ErrAlreadyCompletedToday = errors.New("workout already completed today")
)

// historyCap bounds stored history; oldest sessions are evicted first.
const historyCap = 100

// backupInterval is how often the active session is snapshotted while running.
const backupInterval = 30 * time.Second

// Engine drives the active workout session.
type Engine struct {
	mu      sync.Mutex
	kv      storage.KV
	catalog *catalog.Catalog
	stats   *stats.Aggregator
	timer   *resttimer.Service
	log     *slog.Logger
	now     func() time.Time

	active   *models.WorkoutSession
	template *models.WorkoutDay

	// Ephemeral run flags, not part of persisted history.
	warmupCompleted    bool
	abdominalCompleted bool

	// modified maps session exercise id to the exercise's name at the time
	// of its first structural edit, for template matching on promotion.
	modified map[string]string
}

// New creates an Engine. The timer is notified after every completed set and
// exercise so rest countdowns start without the caller's involvement.
func New(kv storage.KV, cat *catalog.Catalog, agg *stats.Aggregator, timer *resttimer.Service, log *slog.Logger) *Engine {
	return &Engine{
		kv:       kv,
		catalog:  cat,
		stats:    agg,
		timer:    timer,
		log:      log,
		now:      time.Now,
		modified: make(map[string]string),
	}
}

// Phase returns the current phase, recomputed on every call.
func (e *Engine) Phase() Phase {
	e.mu.Lock()
	defer e.mu.Unlock()
	return ComputePhase(e.active, e.template, e.warmupCompleted, e.abdominalCompleted)
}

// Active returns a snapshot of the running session, if any.
func (e *Engine) Active() (models.WorkoutSession, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.active == nil {
		return models.WorkoutSession{}, false
	}
	return snapshotSession(e.active), true
}

// StartWorkout begins a session for the given workout day. It fails when
// history already holds a completed session for that day on today's calendar
// date (exact date match, not a rolling window); in that case any running
// session is left untouched. Otherwise a previous session is silently
// replaced.
func (e *Engine) StartWorkout(ctx context.Context, workoutDayID string) (models.WorkoutSession, error) {
	today := models.FormatDate(e.now())

	history, err := e.History(ctx)
	if err != nil {
		return models.WorkoutSession{}, err
	}
	for _, past := range history {
		if past.WorkoutDayID == workoutDayID && past.Completed && past.Date == today {
			return models.WorkoutSession{}, fmt.Errorf("%w: %s on %s", ErrAlreadyCompletedToday, workoutDayID, today)
		}
	}

	day, err := e.catalog.FindWorkout(ctx, workoutDayID)
	if err != nil {
		return models.WorkoutSession{}, err
	}

	sess := &models.WorkoutSession{
		ID:           models.NewSessionID(),
		WorkoutDayID: day.ID,
		Date:         today,
		StartTime:    e.now(),
		Exercises:    resetAll(day.Exercises),
		Abdominal:    resetAll(day.Abdominal),
		Aerobic:      models.CloneAerobic(day.Aerobic),
	}
	if sess.Aerobic != nil {
		sess.Aerobic.Completed = false
		sess.Aerobic.ActualDuration = 0
		sess.Aerobic.Skipped = false
		sess.Aerobic.Distance = nil
	}

	e.mu.Lock()
	if e.active != nil {
		e.log.Warn("replacing active session", "old", e.active.ID, "new", sess.ID)
	}
	tpl := models.CloneWorkoutDay(day)
	e.active = sess
	e.template = &tpl
	e.warmupCompleted = false
	e.abdominalCompleted = false
	e.modified = make(map[string]string)
	e.persistBackup(ctx)
	out := snapshotSession(sess)
	e.mu.Unlock()

	e.log.Info("workout started", "session", sess.ID, "day", day.ID, "exercises", len(sess.Exercises))
	return out, nil
}

// CompleteWarmup marks the warm-up stage done.
func (e *Engine) CompleteWarmup(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.active == nil {
		return
	}
	e.warmupCompleted = true
	e.persistBackup(ctx)
}

// CompleteSet merges a partial set record into the exercise at setIndex,
// creating intermediate empty slots for sparse writes. CurrentSet advances
// (monotonically, capped at Sets) only when the patch marks the set
// completed. The exercise's own Completed flag is never touched here; that
// requires an explicit CompleteExercise call.
//
// Dropset contract: for an exercise with HasDropset, the caller collects the
// drop entries for the final set and passes them in the patch's DropsetData;
// this method stores whatever it is given and does not branch on dropset
// state itself.
func (e *Engine) CompleteSet(ctx context.Context, exerciseID string, setIndex int, patch models.SetDataPatch) error {
	e.mu.Lock()
	if e.active == nil {
		e.mu.Unlock()
		return nil
	}
	ex, _ := e.findExercise(exerciseID)
	if ex == nil {
		e.mu.Unlock()
		return fmt.Errorf("exercise %s not in active session", exerciseID)
	}
	if setIndex < 0 {
		e.mu.Unlock()
		return fmt.Errorf("negative set index %d", setIndex)
	}

	for len(ex.SetData) <= setIndex {
		ex.SetData = append(ex.SetData, models.SetData{})
	}
	merged := patch.Merge(ex.SetData[setIndex])

	completedNow := patch.Completed != nil && *patch.Completed
	var startRest *restRequest
	if completedNow {
		if merged.RestStartTime == nil {
			t := e.now()
			merged.RestStartTime = &t
		}
		next := setIndex + 1
		if next > ex.Sets {
			next = ex.Sets
		}
		if next > ex.CurrentSet {
			ex.CurrentSet = next
		}
		if ex.RestTime > 0 {
			typ := models.RestBetweenSets
			if setIndex >= ex.Sets-1 {
				typ = models.RestBetweenExercises
			}
			startRest = &restRequest{duration: ex.RestTime, typ: typ, exerciseID: ex.ID, setIndex: setIndex}
		}
	}
	ex.SetData[setIndex] = merged

	e.active.TotalVolume = e.active.Volume()
	e.persistBackup(ctx)
	e.mu.Unlock()

	if startRest != nil {
		e.timer.Start(ctx, startRest.duration, startRest.typ, startRest.exerciseID, startRest.setIndex)
	}
	return nil
}

type restRequest struct {
	duration   int
	typ        models.TimerType
	exerciseID string
	setIndex   int
}

// CompleteExercise marks the exercise done and forces CurrentSet to Sets.
// Irreversible for the session. It deliberately does not verify that every
// set was completed; callers present the action only once SetData shows the
// right count. That leniency is part of the contract.
func (e *Engine) CompleteExercise(ctx context.Context, exerciseID string) error {
	e.mu.Lock()
	if e.active == nil {
		e.mu.Unlock()
		return nil
	}
	ex, _ := e.findExercise(exerciseID)
	if ex == nil {
		e.mu.Unlock()
		return fmt.Errorf("exercise %s not in active session", exerciseID)
	}
	ex.Completed = true
	ex.CurrentSet = ex.Sets
	rest := ex.RestTime
	e.persistBackup(ctx)
	e.mu.Unlock()

	if rest > 0 {
		e.timer.Start(ctx, rest, models.RestBetweenExercises, exerciseID, ex.Sets-1)
	}
	return nil
}

// SkipExercise abandons the remaining sets. A main exercise keeps only its
// completed set entries; an abdominal exercise discards all set data, partial
// progress included. The asymmetry is inherited behavior, kept distinct on
// purpose pending product clarification.
func (e *Engine) SkipExercise(ctx context.Context, exerciseID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.active == nil {
		return nil
	}
	ex, abdominal := e.findExercise(exerciseID)
	if ex == nil {
		return fmt.Errorf("exercise %s not in active session", exerciseID)
	}

	if abdominal {
		ex.SetData = nil
	} else {
		var kept []models.SetData
		for _, sd := range ex.SetData {
			if sd.Completed {
				kept = append(kept, sd)
			}
		}
		ex.SetData = kept
	}
	ex.Completed = true
	ex.Skipped = true
	ex.CurrentSet = ex.Sets

	e.active.TotalVolume = e.active.Volume()
	e.persistBackup(ctx)
	return nil
}

// CompleteAbdominal marks the abdominal block done.
func (e *Engine) CompleteAbdominal(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.active == nil {
		return
	}
	e.abdominalCompleted = true
	e.persistBackup(ctx)
}

// CompleteAerobic records the cardio block as done with the actual minutes
// and optional distance.
func (e *Engine) CompleteAerobic(ctx context.Context, actualMinutes int, distance *float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.active == nil || e.active.Aerobic == nil {
		return
	}
	a := e.active.Aerobic
	a.Completed = true
	a.ActualDuration = actualMinutes
	if distance != nil {
		d := *distance
		a.Distance = &d
	}
	e.persistBackup(ctx)
}

// SkipAerobic abandons the cardio block. Skipped and Completed are mutually
// exclusive by convention.
func (e *Engine) SkipAerobic(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.active == nil || e.active.Aerobic == nil {
		return
	}
	a := e.active.Aerobic
	a.Completed = false
	a.Skipped = true
	a.ActualDuration = 0
	e.persistBackup(ctx)
}

// UpdateExercise applies a structural edit to a session exercise and marks it
// for permanent promotion. Numbers typed into set data never travel this way.
func (e *Engine) UpdateExercise(ctx context.Context, exerciseID string, patch models.ExercisePatch) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.active == nil {
		return nil
	}
	if patch.IsZero() {
		return nil
	}
	ex, _ := e.findExercise(exerciseID)
	if ex == nil {
		return fmt.Errorf("exercise %s not in active session", exerciseID)
	}

	if _, seen := e.modified[exerciseID]; !seen {
		e.modified[exerciseID] = ex.Name
	}
	*ex = patch.Apply(*ex)
	e.persistBackup(ctx)
	return nil
}

// FinishWorkout seals the active session: stamps the end time and calendar
// date, recomputes volume, appends to capped history and rebuilds the stats
// cache. An aerobic block left neither completed nor skipped is explicitly
// marked skipped with zero duration. History and stats write failures
// propagate; the session stays active so the caller can retry.
func (e *Engine) FinishWorkout(ctx context.Context, notes string) (models.WorkoutSession, error) {
	e.mu.Lock()
	if e.active == nil {
		e.mu.Unlock()
		return models.WorkoutSession{}, ErrNoActiveSession
	}

	now := e.now()
	sess := e.active
	sess.Date = models.FormatDate(now)
	sess.EndTime = now
	sess.TotalVolume = sess.Volume()
	sess.Completed = true
	if notes != "" {
		sess.Notes = notes
	}
	if sess.Aerobic != nil && !sess.Aerobic.Completed && !sess.Aerobic.Skipped {
		sess.Aerobic.Skipped = true
		sess.Aerobic.ActualDuration = 0
	}
	finished := snapshotSession(sess)
	e.mu.Unlock()

	history, err := e.History(ctx)
	if err != nil {
		return models.WorkoutSession{}, err
	}
	history = append(history, finished)
	if len(history) > historyCap {
		history = history[len(history)-historyCap:]
	}
	if err := storage.SetJSON(ctx, e.kv, storage.KeyHistory, history); err != nil {
		return models.WorkoutSession{}, fmt.Errorf("appending history: %w", err)
	}
	if err := e.stats.Save(ctx, e.stats.Rebuild(history, now)); err != nil {
		return models.WorkoutSession{}, fmt.Errorf("updating stats: %w", err)
	}

	e.mu.Lock()
	e.active = nil
	e.template = nil
	e.warmupCompleted = false
	e.abdominalCompleted = false
	e.modified = make(map[string]string)
	e.clearBackup(ctx)
	e.mu.Unlock()
	e.timer.Clear(ctx)

	e.log.Info("workout finished", "session", finished.ID, "volume", finished.TotalVolume,
		"duration", finished.EndTime.Sub(finished.StartTime).Round(time.Second).String())
	return finished, nil
}

// CancelWorkout discards the active session and any rest timer without
// touching history. Irrecoverable.
func (e *Engine) CancelWorkout(ctx context.Context) {
	e.mu.Lock()
	if e.active != nil {
		e.log.Info("workout cancelled", "session", e.active.ID)
	}
	e.active = nil
	e.template = nil
	e.warmupCompleted = false
	e.abdominalCompleted = false
	e.modified = make(map[string]string)
	e.clearBackup(ctx)
	e.mu.Unlock()
	e.timer.Clear(ctx)
}

// History returns stored sessions, oldest first.
func (e *Engine) History(ctx context.Context) ([]models.WorkoutSession, error) {
	var history []models.WorkoutSession
	if _, err := storage.GetJSON(ctx, e.kv, storage.KeyHistory, &history); err != nil {
		return nil, err
	}
	return history, nil
}

// findExercise locates a session exercise by id in either list. Callers hold
// the mutex.
func (e *Engine) findExercise(id string) (ex *models.Exercise, abdominal bool) {
	for i := range e.active.Exercises {
		if e.active.Exercises[i].ID == id {
			return &e.active.Exercises[i], false
		}
	}
	for i := range e.active.Abdominal {
		if e.active.Abdominal[i].ID == id {
			return &e.active.Abdominal[i], true
		}
	}
	return nil, false
}

func resetAll(in []models.Exercise) []models.Exercise {
	out := models.CloneExercises(in)
	for i := range out {
		out[i] = models.ResetRunState(out[i])
	}
	return out
}

func snapshotSession(s *models.WorkoutSession) models.WorkoutSession {
	out := *s
	out.Exercises = models.CloneExercises(s.Exercises)
	out.Abdominal = models.CloneExercises(s.Abdominal)
	out.Aerobic = models.CloneAerobic(s.Aerobic)
	return out
}
