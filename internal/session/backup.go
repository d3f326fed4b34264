package session

import (
	"context"
	"time"

	"github.com/meltforce/ironlog/internal/models"
	"github.com/meltforce/ironlog/internal/storage"
)

// backup is the full-state snapshot written on every mutation and every 30
// seconds while a session runs, so an app kill loses almost nothing.
type backup struct {
	Session            *models.WorkoutSession `json:"session"`
	Template           *models.WorkoutDay     `json:"template"`
	WarmupCompleted    bool                   `json:"warmup_completed"`
	AbdominalCompleted bool                   `json:"abdominal_completed"`
	Modified           map[string]string      `json:"modified,omitempty"`
	SavedAt            time.Time              `json:"saved_at"`
}

// persistBackup snapshots the engine state. Best-effort: a failure is logged
// and never interrupts the session. Callers hold the mutex.
func (e *Engine) persistBackup(ctx context.Context) {
	if e.active == nil {
		return
	}
	snap := backup{
		Session:            e.active,
		Template:           e.template,
		WarmupCompleted:    e.warmupCompleted,
		AbdominalCompleted: e.abdominalCompleted,
		Modified:           e.modified,
		SavedAt:            e.now(),
	}
	if err := storage.SetJSON(ctx, e.kv, storage.KeySessionBackup, snap); err != nil {
		e.log.Warn("session backup failed", "error", err)
	}
}

// clearBackup removes the snapshot. Callers hold the mutex.
func (e *Engine) clearBackup(ctx context.Context) {
	if err := e.kv.Remove(ctx, storage.KeySessionBackup); err != nil {
		e.log.Warn("session backup clear failed", "error", err)
	}
}

// Restore reattaches to a snapshotted session after a restart. Returns true
// when a session was recovered.
func (e *Engine) Restore(ctx context.Context) (bool, error) {
	var snap backup
	found, err := storage.GetJSON(ctx, e.kv, storage.KeySessionBackup, &snap)
	if err != nil {
		return false, err
	}
	if !found || snap.Session == nil || snap.Template == nil {
		return false, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.active = snap.Session
	e.template = snap.Template
	e.warmupCompleted = snap.WarmupCompleted
	e.abdominalCompleted = snap.AbdominalCompleted
	e.modified = snap.Modified
	if e.modified == nil {
		e.modified = make(map[string]string)
	}
	e.log.Info("recovered active session", "session", snap.Session.ID, "saved_at", snap.SavedAt)
	return true, nil
}

// RunBackups snapshots the active session periodically until ctx is done.
// Fire-and-forget by design.
func (e *Engine) RunBackups(ctx context.Context) {
	ticker := time.NewTicker(backupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.mu.Lock()
			e.persistBackup(ctx)
			e.mu.Unlock()
		}
	}
}
