package models

// PersonalRecord is the best (weight, reps) tuple ever logged for an exercise
// name, ordered lexicographically: higher weight wins, equal weight needs
// strictly more reps.
type PersonalRecord struct {
	Weight float64 `json:"weight"`
	Reps   int     `json:"reps"`
	Date   string  `json:"date"` // canonical YYYY-MM-DD of the record session
}

// Beats reports whether the candidate strictly improves on r.
func (r PersonalRecord) Beats(other PersonalRecord) bool {
	if r.Weight != other.Weight {
		return r.Weight > other.Weight
	}
	return r.Reps > other.Reps
}

// WorkoutStats is a derived aggregate over workout history. It is a
// best-effort cache: always recomputable from history, never hand-edited.
type WorkoutStats struct {
	TotalWorkouts   int                       `json:"total_workouts"`
	AverageTime     int                       `json:"average_time"` // minutes
	WeeklyVolume    float64                   `json:"weekly_volume"`
	PersonalRecords map[string]PersonalRecord `json:"personal_records"`
}

// Suggestion is a proposed starting load for the next run of an exercise,
// averaged over recent history.
type Suggestion struct {
	Weight float64 `json:"weight"`
	Reps   int     `json:"reps"`
}
