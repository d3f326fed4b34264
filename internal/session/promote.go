package session

import (
	"context"
	"strings"

	"github.com/meltforce/ironlog/internal/models"
)

// ApplyPermanentChanges writes structural edits made during the session back
// into the workout template. A default day is first converted to a custom
// override; unmodified exercises keep their pre-session definition either
// way. Session-only numbers (logged weights and reps) never reach the
// template. Returns false when nothing was modified.
//
// Session exercises are matched to template exercises by case-insensitive
// name, using the name each exercise had before its first edit so renames
// still land. Positional matching is the fallback, and only when the template
// was not converted (conversion regenerates child ids and any positional
// correspondence with the session is no longer trustworthy beyond names).
func (e *Engine) ApplyPermanentChanges(ctx context.Context) (bool, error) {
	e.mu.Lock()
	if e.active == nil || len(e.modified) == 0 {
		e.mu.Unlock()
		return false, nil
	}
	sess := snapshotSession(e.active)
	tpl := models.CloneWorkoutDay(*e.template)
	modified := make(map[string]string, len(e.modified))
	for id, name := range e.modified {
		modified[id] = name
	}
	e.mu.Unlock()

	converted := false
	if !models.ParseWorkoutID(tpl.ID).IsCustom() {
		custom, err := e.catalog.ConvertToCustom(ctx, tpl)
		if err != nil {
			return false, err
		}
		tpl = custom
		converted = true
	}

	promote(sess.Exercises, tpl.Exercises, modified, converted)
	promote(sess.Abdominal, tpl.Abdominal, modified, converted)

	saved, err := e.catalog.SaveWorkout(ctx, tpl)
	if err != nil {
		return false, err
	}

	e.mu.Lock()
	if e.active != nil {
		e.template = &saved
		if e.active.WorkoutDayID != saved.ID {
			e.active.WorkoutDayID = saved.ID
		}
	}
	e.persistBackup(ctx)
	e.mu.Unlock()

	e.log.Info("promoted session edits to template", "workout", saved.ID, "exercises", len(modified))
	return true, nil
}

// promote copies the structural fields of each modified session exercise onto
// its counterpart in the template list.
func promote(sessList, tplList []models.Exercise, modified map[string]string, converted bool) {
	for i, sessEx := range sessList {
		originalName, isModified := modified[sessEx.ID]
		if !isModified {
			continue
		}
		idx := matchTemplateExercise(tplList, originalName, i, converted)
		if idx < 0 {
			continue
		}
		tplList[idx] = applyStructural(tplList[idx], sessEx)
	}
}

func matchTemplateExercise(tplList []models.Exercise, name string, pos int, converted bool) int {
	lower := strings.ToLower(name)
	for i := range tplList {
		if strings.ToLower(tplList[i].Name) == lower {
			return i
		}
	}
	if !converted && pos < len(tplList) {
		return pos
	}
	return -1
}

// applyStructural carries the planned parameters over, leaving the template
// exercise's id and run state alone.
func applyStructural(tpl, sess models.Exercise) models.Exercise {
	out := tpl
	out.Name = sess.Name
	out.Sets = sess.Sets
	out.TargetReps = sess.TargetReps
	out.RestTime = sess.RestTime
	out.Notes = sess.Notes
	out.HasDropset = sess.HasDropset
	out.IsTimeBased = sess.IsTimeBased
	out.TimePerSet = sess.TimePerSet
	out.IsBilateral = sess.IsBilateral
	if sess.SuggestedWeight != nil {
		w := *sess.SuggestedWeight
		out.SuggestedWeight = &w
	}
	out.Completed = false
	out.CurrentSet = 0
	out.SetData = nil
	out.Skipped = false
	return out
}
