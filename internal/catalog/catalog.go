// Package catalog merges the built-in weekly plan with the user's custom
// workout overlay. Defaults are never mutated: editing a default produces an
// override copy that shadows it, deleting one produces a soft-delete marker.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/meltforce/ironlog/internal/models"
	"github.com/meltforce/ironlog/internal/storage"
)

// ErrWorkoutNotFound is returned when an id resolves to no effective workout.
var ErrWorkoutNotFound = errors.New("workout not found")

// ErrMalformedImport is returned when an import payload is not a JSON array.
var ErrMalformedImport = errors.New("import payload must be a JSON array of workouts")

// Catalog serves the effective workout list. Defaults come from the plan
// loaded at startup; the custom overlay lives in the KV store.
type Catalog struct {
	kv       storage.KV
	defaults []models.WorkoutDay
	log      *slog.Logger
	now      func() time.Time
}

// New creates a Catalog over the given default plan.
func New(kv storage.KV, defaults []models.WorkoutDay, log *slog.Logger) *Catalog {
	return &Catalog{
		kv:       kv,
		defaults: defaults,
		log:      log,
		now:      time.Now,
	}
}

// Defaults returns the immutable built-in plan.
func (c *Catalog) Defaults() []models.WorkoutDay {
	return c.defaults
}

// LoadCustom reads the custom overlay store, including soft-delete markers.
func (c *Catalog) LoadCustom(ctx context.Context) ([]models.WorkoutDay, error) {
	var custom []models.WorkoutDay
	if _, err := storage.GetJSON(ctx, c.kv, storage.KeyCustomWorkouts, &custom); err != nil {
		return nil, err
	}
	return custom, nil
}

func (c *Catalog) saveCustom(ctx context.Context, custom []models.WorkoutDay) error {
	return storage.SetJSON(ctx, c.kv, storage.KeyCustomWorkouts, custom)
}

// GetAllWorkouts returns the effective list: defaults that are not shadowed,
// followed by all custom workouts (markers excluded). A default is shadowed
// when a custom entry shares its exact id, when an override encodes it as
// base id, or when a soft-delete marker names it.
func (c *Catalog) GetAllWorkouts(ctx context.Context) ([]models.WorkoutDay, error) {
	custom, err := c.LoadCustom(ctx)
	if err != nil {
		return nil, err
	}

	shadowed := make(map[string]bool)
	for _, w := range custom {
		if w.ID != "" {
			shadowed[w.ID] = true
		}
		id := models.ParseWorkoutID(w.ID)
		if base, ok := id.ShadowedBase(); ok {
			shadowed[base] = true
		}
		if w.IsDeleted && w.OriginalID != "" {
			shadowed[w.OriginalID] = true
		}
	}

	var out []models.WorkoutDay
	for _, d := range c.defaults {
		if !shadowed[d.ID] {
			out = append(out, models.CloneWorkoutDay(d))
		}
	}
	for _, w := range custom {
		if w.IsDeleted {
			continue
		}
		out = append(out, models.CloneWorkoutDay(w))
	}
	return out, nil
}

// FindWorkout resolves an id against the effective list.
func (c *Catalog) FindWorkout(ctx context.Context, id string) (models.WorkoutDay, error) {
	all, err := c.GetAllWorkouts(ctx)
	if err != nil {
		return models.WorkoutDay{}, err
	}
	for _, w := range all {
		if w.ID == id {
			return w, nil
		}
	}
	return models.WorkoutDay{}, fmt.Errorf("%w: %s", ErrWorkoutNotFound, id)
}

// SaveWorkout upserts a workout into the custom store by exact id, minting a
// base-less custom id when the workout has none.
func (c *Catalog) SaveWorkout(ctx context.Context, w models.WorkoutDay) (models.WorkoutDay, error) {
	if w.ID == "" {
		w.ID = models.NewCustomID(c.now().UnixMilli()).String()
	}
	custom, err := c.LoadCustom(ctx)
	if err != nil {
		return models.WorkoutDay{}, err
	}
	replaced := false
	for i, existing := range custom {
		if existing.ID == w.ID {
			custom[i] = w
			replaced = true
			break
		}
	}
	if !replaced {
		custom = append(custom, w)
	}
	if err := c.saveCustom(ctx, custom); err != nil {
		return models.WorkoutDay{}, err
	}
	return w, nil
}

// DeleteWorkout removes a custom workout outright. Deleting a default inserts
// a soft-delete marker instead; the default list is never touched.
func (c *Catalog) DeleteWorkout(ctx context.Context, id string) error {
	wid := models.ParseWorkoutID(id)
	custom, err := c.LoadCustom(ctx)
	if err != nil {
		return err
	}

	if wid.IsCustom() {
		kept := custom[:0]
		for _, w := range custom {
			if w.ID != id {
				kept = append(kept, w)
			}
		}
		return c.saveCustom(ctx, kept)
	}

	marker := models.WorkoutDay{
		ID:         models.NewSoftDeleteID(id, c.now().UnixMilli()).String(),
		IsDeleted:  true,
		OriginalID: id,
	}
	return c.saveCustom(ctx, append(custom, marker))
}

// ConvertToCustom deep-clones a default day into an override that shadows it
// from then on. Child ids are regenerated and run state cleared.
func (c *Catalog) ConvertToCustom(ctx context.Context, def models.WorkoutDay) (models.WorkoutDay, error) {
	clone := models.ResetWorkoutDay(def)
	clone.ID = models.NewOverrideID(def.ID, c.now().UnixMilli()).String()
	regenerateChildIDs(&clone)
	c.log.Info("converting default workout to custom", "original", def.ID, "custom", clone.ID)
	return c.SaveWorkout(ctx, clone)
}

// Duplicate deep-clones any workout under a fresh base-less id, so the copy
// never shadows a default. An optional name overrides the source's.
func (c *Catalog) Duplicate(ctx context.Context, src models.WorkoutDay, name string) (models.WorkoutDay, error) {
	clone := models.ResetWorkoutDay(src)
	clone.ID = models.NewCustomID(c.now().UnixMilli()).String()
	regenerateChildIDs(&clone)
	if name != "" {
		clone.Name = name
	}
	return c.SaveWorkout(ctx, clone)
}

// Export serializes the entire custom store (markers included) as JSON.
func (c *Catalog) Export(ctx context.Context) ([]byte, error) {
	custom, err := c.LoadCustom(ctx)
	if err != nil {
		return nil, err
	}
	if custom == nil {
		custom = []models.WorkoutDay{}
	}
	return json.MarshalIndent(custom, "", "  ")
}

// Import appends workouts from an exported JSON array to the custom store.
// Every imported workout and its children get fresh ids so imports never
// collide with existing entries. Only the top-level shape is validated;
// malformed nested fields surface later as zero values.
func (c *Catalog) Import(ctx context.Context, data []byte) (int, error) {
	trimmed := strings.TrimSpace(string(data))
	if !strings.HasPrefix(trimmed, "[") {
		return 0, ErrMalformedImport
	}
	var imported []models.WorkoutDay
	if err := json.Unmarshal(data, &imported); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrMalformedImport, err)
	}

	custom, err := c.LoadCustom(ctx)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, w := range imported {
		if w.IsDeleted {
			continue
		}
		clone := models.ResetWorkoutDay(w)
		clone.ID = models.NewCustomID(c.now().UnixMilli()).String()
		regenerateChildIDs(&clone)
		custom = append(custom, clone)
		count++
	}
	if err := c.saveCustom(ctx, custom); err != nil {
		return 0, err
	}
	c.log.Info("imported custom workouts", "count", count)
	return count, nil
}

func regenerateChildIDs(w *models.WorkoutDay) {
	for i := range w.Exercises {
		w.Exercises[i].ID = models.NewExerciseID()
	}
	for i := range w.Abdominal {
		w.Abdominal[i].ID = models.NewExerciseID()
	}
}
