// Package storage provides the key-value persistence layer shared by the
// catalog, session engine, rest timer and stats aggregator. Values are JSON
// documents keyed by well-known names; the backend is SQLite by default with
// an optional Postgres mode.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNotFound is returned by Get when the key has no value.
var ErrNotFound = errors.New("key not found")

// KV is the durable string key-value store every service wraps. Writes must
// be visible to reads issued after the call returns, and must survive process
// restarts.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
	Close() error
}

// Well-known keys.
const (
	KeyCustomWorkouts = "custom_workouts"
	KeyHistory        = "workout_history"
	KeyStats          = "workout_stats"
	KeySessionBackup  = "session_backup"
	KeyRestTimer      = "rest_timer"
)

// GetJSON unmarshals the value at key into v. Returns false with a nil error
// when the key is absent.
func GetJSON(ctx context.Context, kv KV, key string, v any) (bool, error) {
	raw, err := kv.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("reading %s: %w", key, err)
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return false, fmt.Errorf("decoding %s: %w", key, err)
	}
	return true, nil
}

// SetJSON marshals v and stores it at key.
func SetJSON(ctx context.Context, kv KV, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}
	if err := kv.Set(ctx, key, string(data)); err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	return nil
}
