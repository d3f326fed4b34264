// Package stats derives aggregates from workout history: totals, weekly
// volume, personal records and suggested next loads. Everything here is a
// read-only view over history; the cached WorkoutStats document can be
// rebuilt from scratch at any time.
package stats

import (
	"context"
	"log/slog"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/meltforce/ironlog/internal/models"
	"github.com/meltforce/ironlog/internal/storage"
)

// Aggregator computes and caches WorkoutStats.
type Aggregator struct {
	kv  storage.KV
	log *slog.Logger
}

// New creates an Aggregator over the given store.
func New(kv storage.KV, log *slog.Logger) *Aggregator {
	return &Aggregator{kv: kv, log: log}
}

// Rebuild computes the full stats document from history. WeeklyVolume covers
// the 7 calendar days ending at now.
func (a *Aggregator) Rebuild(history []models.WorkoutSession, now time.Time) models.WorkoutStats {
	weekStart := now.AddDate(0, 0, -7)
	avg, weekVol := PeriodStats(history, weekStart, now)

	return models.WorkoutStats{
		TotalWorkouts:   len(history),
		AverageTime:     avg,
		WeeklyVolume:    weekVol,
		PersonalRecords: PersonalRecords(history),
	}
}

// Save persists the cached stats document.
func (a *Aggregator) Save(ctx context.Context, s models.WorkoutStats) error {
	return storage.SetJSON(ctx, a.kv, storage.KeyStats, s)
}

// Load reads the cached stats document; a missing cache yields an empty one.
func (a *Aggregator) Load(ctx context.Context) (models.WorkoutStats, error) {
	var s models.WorkoutStats
	found, err := storage.GetJSON(ctx, a.kv, storage.KeyStats, &s)
	if err != nil {
		return models.WorkoutStats{}, err
	}
	if !found || s.PersonalRecords == nil {
		s.PersonalRecords = make(map[string]models.PersonalRecord)
	}
	return s, nil
}

// PeriodStats filters history to sessions whose date falls in [from, to] and
// returns the rounded mean session length in minutes and the summed volume.
// Sessions with unparseable dates are skipped.
func PeriodStats(history []models.WorkoutSession, from, to time.Time) (averageMinutes int, volume float64) {
	var totalMinutes float64
	count := 0
	for _, sess := range history {
		day, err := models.ParseDate(sess.Date)
		if err != nil {
			continue
		}
		if day.Before(from.Truncate(24*time.Hour)) || day.After(to) {
			continue
		}
		volume += sess.TotalVolume
		if !sess.EndTime.IsZero() && sess.EndTime.After(sess.StartTime) {
			totalMinutes += sess.EndTime.Sub(sess.StartTime).Minutes()
			count++
		}
	}
	if count > 0 {
		averageMinutes = int(math.Round(totalMinutes / float64(count)))
	}
	return averageMinutes, volume
}

// PersonalRecords scans all completed sets in history and keeps, per exercise
// name, the best (weight, reps) tuple ordered lexicographically: strictly
// greater weight wins, equal weight needs strictly greater reps.
func PersonalRecords(history []models.WorkoutSession) map[string]models.PersonalRecord {
	records := make(map[string]models.PersonalRecord)
	for _, sess := range history {
		for _, ex := range sess.Exercises {
			name := strings.ToLower(ex.Name)
			for _, sd := range ex.SetData {
				if !sd.Completed || sd.Weight == nil || sd.Reps == nil {
					continue
				}
				candidate := models.PersonalRecord{
					Weight: *sd.Weight,
					Reps:   *sd.Reps,
					Date:   sess.Date,
				}
				current, ok := records[name]
				if !ok || candidate.Beats(current) {
					records[name] = candidate
				}
			}
		}
	}
	return records
}

// SuggestNext proposes a starting weight and reps for the named exercise by
// averaging over the 3 most recent completed sessions containing it
// (case-insensitive). Each session contributes its own mean across completed
// sets. Returns false when the name has no history.
func SuggestNext(history []models.WorkoutSession, exerciseName string) (models.Suggestion, bool) {
	name := strings.ToLower(exerciseName)

	var weights, reps []float64
	for _, sess := range sortedByDateDesc(history) {
		if !sess.Completed {
			continue
		}
		w, r, ok := sessionMeans(sess, name)
		if !ok {
			continue
		}
		weights = append(weights, w)
		reps = append(reps, r)
		if len(weights) == 3 {
			break
		}
	}
	if len(weights) == 0 {
		return models.Suggestion{}, false
	}

	return models.Suggestion{
		Weight: math.Round(mean(weights)),
		Reps:   int(math.Round(mean(reps))),
	}, true
}

func sessionMeans(sess models.WorkoutSession, lowerName string) (weight, reps float64, ok bool) {
	var ws, rs []float64
	for _, ex := range sess.Exercises {
		if strings.ToLower(ex.Name) != lowerName {
			continue
		}
		for _, sd := range ex.SetData {
			if sd.Completed && sd.Weight != nil && sd.Reps != nil {
				ws = append(ws, *sd.Weight)
				rs = append(rs, float64(*sd.Reps))
			}
		}
	}
	if len(ws) == 0 {
		return 0, 0, false
	}
	return mean(ws), mean(rs), true
}

// sortedByDateDesc orders sessions newest first. Canonical dates sort
// lexicographically.
func sortedByDateDesc(history []models.WorkoutSession) []models.WorkoutSession {
	out := append([]models.WorkoutSession(nil), history...)
	slices.SortStableFunc(out, func(a, b models.WorkoutSession) int {
		return strings.Compare(b.Date, a.Date)
	})
	return out
}

func mean(vals []float64) float64 {
	var sum float64
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}
