package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/meltforce/ironlog/internal/catalog"
	"github.com/meltforce/ironlog/internal/models"
	"github.com/meltforce/ironlog/internal/resttimer"
	"github.com/meltforce/ironlog/internal/stats"
	"github.com/meltforce/ironlog/internal/storage"
)

func testLog() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fp(v float64) *float64 { return &v }
func ip(v int) *int         { return &v }
func bp(v bool) *bool       { return &v }

func engineDefaults() []models.WorkoutDay {
	return []models.WorkoutDay{
		{
			ID: "monday", Name: "Chest", Day: "monday", Warmup: "5 min treadmill",
			Exercises: []models.Exercise{
				{ID: "monday_1", Name: "Bench Press", Sets: 4, TargetReps: "8", RestTime: 120},
				{ID: "monday_2", Name: "Cable Fly", Sets: 3, TargetReps: "12", RestTime: 90, HasDropset: true},
			},
			Abdominal: []models.Exercise{
				{ID: "monday_ab1", Name: "Plank", Sets: 3, IsTimeBased: true, TimePerSet: 60},
			},
			Aerobic: &models.AerobicExercise{Type: models.AerobicTreadmill, Duration: 20, Timing: models.AerobicAfter},
		},
		{
			ID: "tuesday", Name: "Back", Day: "tuesday",
			Exercises: []models.Exercise{
				{ID: "tuesday_1", Name: "Deadlift", Sets: 3, TargetReps: "5", RestTime: 180},
			},
		},
	}
}

// newTestEngine wires an engine over an in-memory store with a frozen clock.
func newTestEngine(t *testing.T, kv *storage.MemoryKV, at time.Time) (*Engine, *resttimer.Service) {
	t.Helper()
	log := testLog()
	timer := resttimer.New(kv, log)
	e := New(kv, catalog.New(kv, engineDefaults(), log), stats.New(kv, log), timer, log)
	e.now = func() time.Time { return at }
	return e, timer
}

// TestStartWorkoutRejectsSecondRunToday verifies the same day cannot be
// completed twice on one calendar date and a failed start leaves the current
// session alone.
func TestStartWorkoutRejectsSecondRunToday(t *testing.T) {
	kv := storage.NewMemory()
	at := time.Date(2026, 3, 2, 18, 0, 0, 0, time.UTC)
	e, _ := newTestEngine(t, kv, at)
	ctx := context.Background()

	if _, err := e.StartWorkout(ctx, "monday"); err != nil {
		t.Fatalf("StartWorkout: %v", err)
	}
	if _, err := e.FinishWorkout(ctx, ""); err != nil {
		t.Fatalf("FinishWorkout: %v", err)
	}

	if _, err := e.StartWorkout(ctx, "monday"); !errors.Is(err, ErrAlreadyCompletedToday) {
		t.Fatalf("second start same day: got %v, want ErrAlreadyCompletedToday", err)
	}

	// A different day is fine, and a rejected start must not disturb it.
	if _, err := e.StartWorkout(ctx, "tuesday"); err != nil {
		t.Fatalf("StartWorkout tuesday: %v", err)
	}
	if _, err := e.StartWorkout(ctx, "monday"); !errors.Is(err, ErrAlreadyCompletedToday) {
		t.Fatal("monday should still be rejected")
	}
	active, ok := e.Active()
	if !ok || active.WorkoutDayID != "tuesday" {
		t.Errorf("rejected start disturbed the running session: %+v ok=%v", active, ok)
	}

	// Next calendar day the same workout is allowed again.
	e.CancelWorkout(ctx)
	e.now = func() time.Time { return at.Add(24 * time.Hour) }
	if _, err := e.StartWorkout(ctx, "monday"); err != nil {
		t.Errorf("start next day: %v", err)
	}
}

// TestStartWorkoutResetsRunState verifies sessions begin with clean exercises
// even if the stored template carries leftovers.
func TestStartWorkoutResetsRunState(t *testing.T) {
	kv := storage.NewMemory()
	e, _ := newTestEngine(t, kv, time.Now())
	sess, err := e.StartWorkout(context.Background(), "monday")
	if err != nil {
		t.Fatalf("StartWorkout: %v", err)
	}
	for _, ex := range sess.Exercises {
		if ex.Completed || ex.Skipped || ex.CurrentSet != 0 || len(ex.SetData) != 0 {
			t.Errorf("exercise %s not reset: %+v", ex.ID, ex)
		}
	}
	if sess.Aerobic.Completed || sess.Aerobic.Skipped || sess.Aerobic.ActualDuration != 0 {
		t.Errorf("aerobic not reset: %+v", sess.Aerobic)
	}
	if sess.Date != models.FormatDate(e.now()) {
		t.Errorf("session date = %q, want today", sess.Date)
	}
}

// TestCompleteSetAdvancesAndStartsRest verifies set completion stamps the
// rest start, advances CurrentSet monotonically, and arms the right timer
// kind, while leaving the exercise's own Completed flag alone.
func TestCompleteSetAdvancesAndStartsRest(t *testing.T) {
	kv := storage.NewMemory()
	e, timer := newTestEngine(t, kv, time.Now())
	ctx := context.Background()
	if _, err := e.StartWorkout(ctx, "monday"); err != nil {
		t.Fatalf("StartWorkout: %v", err)
	}
	e.CompleteWarmup(ctx)

	patch := models.SetDataPatch{Weight: fp(60), Reps: ip(8), Completed: bp(true)}
	if err := e.CompleteSet(ctx, "monday_1", 0, patch); err != nil {
		t.Fatalf("CompleteSet: %v", err)
	}

	active, _ := e.Active()
	ex := active.Exercises[0]
	if ex.CurrentSet != 1 {
		t.Errorf("CurrentSet = %d, want 1", ex.CurrentSet)
	}
	if ex.Completed {
		t.Error("set completion must not complete the exercise")
	}
	if ex.SetData[0].RestStartTime == nil {
		t.Error("RestStartTime not stamped")
	}
	if state, ok := timer.State(); !ok || state.Type != models.RestBetweenSets || state.Duration != 120 {
		t.Errorf("expected 120s between-sets timer, got %+v ok=%v", state, ok)
	}

	// Final set arms the longer between-exercises rest.
	for i := 1; i < 4; i++ {
		if err := e.CompleteSet(ctx, "monday_1", i, patch); err != nil {
			t.Fatalf("CompleteSet %d: %v", i, err)
		}
	}
	active, _ = e.Active()
	if got := active.Exercises[0].CurrentSet; got != 4 {
		t.Errorf("CurrentSet after final set = %d, want 4", got)
	}
	if state, ok := timer.State(); !ok || state.Type != models.RestBetweenExercises {
		t.Errorf("expected between-exercises timer after final set, got %+v ok=%v", state, ok)
	}
	if active.TotalVolume != 4*60*8 {
		t.Errorf("TotalVolume = %v, want %v", active.TotalVolume, 4*60*8)
	}
}

// TestCompleteSetSparseWrite verifies writing a high set index grows the
// slice with empty slots rather than failing.
func TestCompleteSetSparseWrite(t *testing.T) {
	kv := storage.NewMemory()
	e, _ := newTestEngine(t, kv, time.Now())
	ctx := context.Background()
	if _, err := e.StartWorkout(ctx, "monday"); err != nil {
		t.Fatalf("StartWorkout: %v", err)
	}

	if err := e.CompleteSet(ctx, "monday_1", 2, models.SetDataPatch{Weight: fp(50)}); err != nil {
		t.Fatalf("CompleteSet: %v", err)
	}
	active, _ := e.Active()
	ex := active.Exercises[0]
	if len(ex.SetData) != 3 {
		t.Fatalf("SetData length = %d, want 3", len(ex.SetData))
	}
	if ex.SetData[0].Weight != nil || ex.SetData[1].Weight != nil {
		t.Error("filler slots should be empty")
	}
	if ex.CurrentSet != 0 {
		t.Error("CurrentSet must not advance on a non-completing patch")
	}
}

// TestCompleteExerciseLeniency verifies the explicit completion call works
// regardless of how many sets carry data.
func TestCompleteExerciseLeniency(t *testing.T) {
	kv := storage.NewMemory()
	e, _ := newTestEngine(t, kv, time.Now())
	ctx := context.Background()
	if _, err := e.StartWorkout(ctx, "monday"); err != nil {
		t.Fatalf("StartWorkout: %v", err)
	}

	if err := e.CompleteExercise(ctx, "monday_1"); err != nil {
		t.Fatalf("CompleteExercise: %v", err)
	}
	active, _ := e.Active()
	ex := active.Exercises[0]
	if !ex.Completed || ex.CurrentSet != ex.Sets {
		t.Errorf("exercise not sealed: %+v", ex)
	}
	if ex.Skipped {
		t.Error("explicit completion is not a skip")
	}
}

// TestSkipExerciseKeepsCompletedSets verifies skipping a main exercise
// truncates to the completed entries while an abdominal skip discards
// everything.
func TestSkipExerciseKeepsCompletedSets(t *testing.T) {
	kv := storage.NewMemory()
	e, _ := newTestEngine(t, kv, time.Now())
	ctx := context.Background()
	if _, err := e.StartWorkout(ctx, "monday"); err != nil {
		t.Fatalf("StartWorkout: %v", err)
	}

	done := models.SetDataPatch{Weight: fp(60), Reps: ip(8), Completed: bp(true)}
	if err := e.CompleteSet(ctx, "monday_1", 0, done); err != nil {
		t.Fatal(err)
	}
	if err := e.CompleteSet(ctx, "monday_1", 1, done); err != nil {
		t.Fatal(err)
	}
	if err := e.CompleteSet(ctx, "monday_1", 2, models.SetDataPatch{Weight: fp(60)}); err != nil {
		t.Fatal(err)
	}

	if err := e.SkipExercise(ctx, "monday_1"); err != nil {
		t.Fatalf("SkipExercise: %v", err)
	}
	active, _ := e.Active()
	ex := active.Exercises[0]
	if len(ex.SetData) != 2 {
		t.Errorf("kept %d set entries, want the 2 completed ones", len(ex.SetData))
	}
	if !ex.Completed || !ex.Skipped || ex.CurrentSet != ex.Sets {
		t.Errorf("skip flags wrong: %+v", ex)
	}

	// Abdominal skip throws partial progress away.
	if err := e.CompleteSet(ctx, "monday_ab1", 0, models.SetDataPatch{TimeCompleted: bp(true), Completed: bp(true)}); err != nil {
		t.Fatal(err)
	}
	if err := e.SkipExercise(ctx, "monday_ab1"); err != nil {
		t.Fatalf("SkipExercise abdominal: %v", err)
	}
	active, _ = e.Active()
	ab := active.Abdominal[0]
	if len(ab.SetData) != 0 {
		t.Errorf("abdominal skip kept %d set entries, want none", len(ab.SetData))
	}
	if !ab.Completed || !ab.Skipped {
		t.Errorf("abdominal skip flags wrong: %+v", ab)
	}
}

// TestMutationsWithoutSessionAreNoOps verifies only FinishWorkout complains
// when nothing is running.
func TestMutationsWithoutSessionAreNoOps(t *testing.T) {
	kv := storage.NewMemory()
	e, _ := newTestEngine(t, kv, time.Now())
	ctx := context.Background()

	e.CompleteWarmup(ctx)
	if err := e.CompleteSet(ctx, "monday_1", 0, models.SetDataPatch{Completed: bp(true)}); err != nil {
		t.Errorf("CompleteSet without session: %v", err)
	}
	if err := e.SkipExercise(ctx, "monday_1"); err != nil {
		t.Errorf("SkipExercise without session: %v", err)
	}
	e.CompleteAerobic(ctx, 10, nil)
	e.CancelWorkout(ctx)

	if _, err := e.FinishWorkout(ctx, ""); !errors.Is(err, ErrNoActiveSession) {
		t.Errorf("FinishWorkout without session: got %v, want ErrNoActiveSession", err)
	}
}

// TestFinishWorkoutSealsSession verifies the end-of-workout bookkeeping: end
// time, volume, implicit aerobic skip, history append, and state teardown.
func TestFinishWorkoutSealsSession(t *testing.T) {
	kv := storage.NewMemory()
	start := time.Date(2026, 3, 2, 18, 0, 0, 0, time.UTC)
	e, timer := newTestEngine(t, kv, start)
	ctx := context.Background()

	if _, err := e.StartWorkout(ctx, "monday"); err != nil {
		t.Fatalf("StartWorkout: %v", err)
	}
	done := models.SetDataPatch{Weight: fp(60), Reps: ip(8), Completed: bp(true)}
	if err := e.CompleteSet(ctx, "monday_1", 0, done); err != nil {
		t.Fatal(err)
	}

	e.now = func() time.Time { return start.Add(45 * time.Minute) }
	finished, err := e.FinishWorkout(ctx, "solid session")
	if err != nil {
		t.Fatalf("FinishWorkout: %v", err)
	}

	if !finished.Completed {
		t.Error("session not marked completed")
	}
	if finished.EndTime.Sub(finished.StartTime) != 45*time.Minute {
		t.Errorf("duration = %v, want 45m", finished.EndTime.Sub(finished.StartTime))
	}
	if finished.TotalVolume != 480 {
		t.Errorf("TotalVolume = %v, want 480", finished.TotalVolume)
	}
	if finished.Notes != "solid session" {
		t.Errorf("notes = %q", finished.Notes)
	}
	if !finished.Aerobic.Skipped || finished.Aerobic.Completed || finished.Aerobic.ActualDuration != 0 {
		t.Errorf("untouched aerobic should be implicitly skipped: %+v", finished.Aerobic)
	}

	if _, ok := e.Active(); ok {
		t.Error("session still active after finish")
	}
	if _, ok := timer.State(); ok {
		t.Error("rest timer survived finish")
	}
	history, err := e.History(ctx)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 1 || history[0].ID != finished.ID {
		t.Errorf("history = %+v, want the finished session", history)
	}

	// Stats were rebuilt alongside.
	st, err := e.stats.Load(ctx)
	if err != nil {
		t.Fatalf("stats load: %v", err)
	}
	if st.TotalWorkouts != 1 {
		t.Errorf("TotalWorkouts = %d, want 1", st.TotalWorkouts)
	}
}

// TestFinishWorkoutStorageFailureKeepsSession verifies a history write
// failure propagates and leaves the session active for a retry.
func TestFinishWorkoutStorageFailureKeepsSession(t *testing.T) {
	kv := storage.NewMemory()
	e, _ := newTestEngine(t, kv, time.Now())
	ctx := context.Background()

	if _, err := e.StartWorkout(ctx, "monday"); err != nil {
		t.Fatalf("StartWorkout: %v", err)
	}

	kv.FailWrites = fmt.Errorf("disk full")
	if _, err := e.FinishWorkout(ctx, ""); err == nil {
		t.Fatal("expected history write failure to propagate")
	}
	if _, ok := e.Active(); !ok {
		t.Fatal("session lost after failed finish")
	}

	kv.FailWrites = nil
	if _, err := e.FinishWorkout(ctx, ""); err != nil {
		t.Errorf("retry after recovery failed: %v", err)
	}
}

// TestHistoryCapEvictsOldest verifies the hundred-session cap drops the
// oldest entries first.
func TestHistoryCapEvictsOldest(t *testing.T) {
	kv := storage.NewMemory()
	e, _ := newTestEngine(t, kv, time.Now())
	ctx := context.Background()

	old := make([]models.WorkoutSession, historyCap)
	for i := range old {
		old[i] = models.WorkoutSession{ID: fmt.Sprintf("session_%03d", i), WorkoutDayID: "tuesday", Completed: true, Date: "2026-01-01"}
	}
	if err := storage.SetJSON(ctx, kv, storage.KeyHistory, old); err != nil {
		t.Fatalf("seed history: %v", err)
	}

	if _, err := e.StartWorkout(ctx, "monday"); err != nil {
		t.Fatalf("StartWorkout: %v", err)
	}
	finished, err := e.FinishWorkout(ctx, "")
	if err != nil {
		t.Fatalf("FinishWorkout: %v", err)
	}

	history, err := e.History(ctx)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != historyCap {
		t.Fatalf("history length = %d, want %d", len(history), historyCap)
	}
	if history[0].ID == "session_000" {
		t.Error("oldest entry not evicted")
	}
	if history[len(history)-1].ID != finished.ID {
		t.Error("newest entry missing")
	}
}

// TestBackupRestore verifies a fresh engine over the same store picks the
// session back up with its flags intact.
func TestBackupRestore(t *testing.T) {
	kv := storage.NewMemory()
	at := time.Date(2026, 3, 2, 18, 0, 0, 0, time.UTC)
	e, _ := newTestEngine(t, kv, at)
	ctx := context.Background()

	sess, err := e.StartWorkout(ctx, "monday")
	if err != nil {
		t.Fatalf("StartWorkout: %v", err)
	}
	e.CompleteWarmup(ctx)
	done := models.SetDataPatch{Weight: fp(60), Reps: ip(8), Completed: bp(true)}
	if err := e.CompleteSet(ctx, "monday_1", 0, done); err != nil {
		t.Fatal(err)
	}

	// Simulate a process restart.
	e2, _ := newTestEngine(t, kv, at.Add(5*time.Minute))
	recovered, err := e2.Restore(ctx)
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if !recovered {
		t.Fatal("no session recovered")
	}

	active, ok := e2.Active()
	if !ok || active.ID != sess.ID {
		t.Fatalf("recovered wrong session: %+v ok=%v", active, ok)
	}
	if len(active.Exercises[0].SetData) != 1 || !active.Exercises[0].SetData[0].Completed {
		t.Error("set progress lost in recovery")
	}
	if got := e2.Phase(); got != PhaseExercises {
		t.Errorf("recovered phase = %s, want %s (warmup already done)", got, PhaseExercises)
	}
}

// TestRestoreNothingToRecover verifies a clean store recovers nothing.
func TestRestoreNothingToRecover(t *testing.T) {
	e, _ := newTestEngine(t, storage.NewMemory(), time.Now())
	recovered, err := e.Restore(context.Background())
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if recovered {
		t.Error("recovered a session from an empty store")
	}
}

// TestCancelWorkoutDiscardsEverything verifies cancellation clears the
// session, the backup, and the rest timer without touching history.
func TestCancelWorkoutDiscardsEverything(t *testing.T) {
	kv := storage.NewMemory()
	e, timer := newTestEngine(t, kv, time.Now())
	ctx := context.Background()

	if _, err := e.StartWorkout(ctx, "monday"); err != nil {
		t.Fatalf("StartWorkout: %v", err)
	}
	done := models.SetDataPatch{Weight: fp(60), Reps: ip(8), Completed: bp(true)}
	if err := e.CompleteSet(ctx, "monday_1", 0, done); err != nil {
		t.Fatal(err)
	}

	e.CancelWorkout(ctx)

	if _, ok := e.Active(); ok {
		t.Error("session survived cancellation")
	}
	if _, ok := timer.State(); ok {
		t.Error("timer survived cancellation")
	}
	history, err := e.History(ctx)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 0 {
		t.Errorf("cancelled session leaked into history: %+v", history)
	}
	if recovered, _ := e.Restore(ctx); recovered {
		t.Error("backup survived cancellation")
	}
}

// TestAerobicCompletionRecordsActuals verifies minutes and distance land on
// the session.
func TestAerobicCompletionRecordsActuals(t *testing.T) {
	kv := storage.NewMemory()
	e, _ := newTestEngine(t, kv, time.Now())
	ctx := context.Background()

	if _, err := e.StartWorkout(ctx, "monday"); err != nil {
		t.Fatalf("StartWorkout: %v", err)
	}
	e.CompleteAerobic(ctx, 25, fp(4.2))

	active, _ := e.Active()
	a := active.Aerobic
	if !a.Completed || a.ActualDuration != 25 {
		t.Errorf("aerobic actuals wrong: %+v", a)
	}
	if a.Distance == nil || *a.Distance != 4.2 {
		t.Errorf("distance = %v, want 4.2", a.Distance)
	}
}
