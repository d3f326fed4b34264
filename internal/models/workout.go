package models

import (
	"time"

	"github.com/google/uuid"
)

// AerobicType identifies the cardio machine or activity.
type AerobicType string

const (
	AerobicTreadmill AerobicType = "treadmill"
	AerobicBike      AerobicType = "bike"
	AerobicTransport AerobicType = "transport"
	AerobicRowing    AerobicType = "rowing"
)

// Intensity is the planned effort level of an aerobic block.
type Intensity string

const (
	IntensityLight    Intensity = "light"
	IntensityModerate Intensity = "moderate"
	IntensityIntense  Intensity = "intense"
)

// AerobicTiming places the aerobic block relative to the main exercises.
type AerobicTiming string

const (
	AerobicBefore AerobicTiming = "before"
	AerobicAfter  AerobicTiming = "after"
)

// DropsetEntry is one reduced-weight continuation performed right after the
// final working set.
type DropsetEntry struct {
	Weight float64 `json:"weight"`
	Reps   int     `json:"reps"`
}

// SetData records what actually happened in one set of an exercise. Weight and
// Reps are nil for time-based exercises. DropsetData is only ever populated on
// the last set of an exercise with HasDropset.
type SetData struct {
	Weight        *float64       `json:"weight,omitempty"`
	Reps          *int           `json:"reps,omitempty"`
	Completed     bool           `json:"completed"`
	RestStartTime *time.Time     `json:"rest_start_time,omitempty"`
	DropsetData   []DropsetEntry `json:"dropset_data,omitempty"`

	// Time-based variants.
	TimeCompleted      bool `json:"time_completed,omitempty"`
	LeftSideCompleted  bool `json:"left_side_completed,omitempty"`
	RightSideCompleted bool `json:"right_side_completed,omitempty"`
}

// Exercise is one strength exercise: the planned parameters plus, on session
// copies only, the run state accumulated while executing it. Template copies
// held by the catalog always carry zeroed run state.
type Exercise struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Sets            int      `json:"sets"`
	TargetReps      string   `json:"target_reps"`
	SuggestedWeight *float64 `json:"suggested_weight,omitempty"`
	RestTime        int      `json:"rest_time"`
	Notes           string   `json:"notes,omitempty"`
	HasDropset      bool     `json:"has_dropset,omitempty"`

	// Time-based variants (abdominal exercises only).
	IsTimeBased bool `json:"is_time_based,omitempty"`
	TimePerSet  int  `json:"time_per_set,omitempty"`
	IsBilateral bool `json:"is_bilateral,omitempty"`

	// Run state. CurrentSet is monotonically non-decreasing within a session
	// and capped at Sets.
	Completed  bool      `json:"completed"`
	CurrentSet int       `json:"current_set"`
	SetData    []SetData `json:"set_data,omitempty"`
	Skipped    bool      `json:"skipped,omitempty"`
}

// AerobicExercise is the cardio block of a workout day, with run state.
type AerobicExercise struct {
	Type      AerobicType   `json:"type"`
	Duration  int           `json:"duration"` // planned minutes
	Intensity Intensity     `json:"intensity"`
	Timing    AerobicTiming `json:"timing"`

	Completed      bool     `json:"completed"`
	ActualDuration int      `json:"actual_duration"`
	Skipped        bool     `json:"skipped,omitempty"`
	Distance       *float64 `json:"distance,omitempty"`
}

// WorkoutDay is a reusable day template. Defaults are immutable; only custom
// copies (ids of kind New/Override) are ever edited. The _isDeleted/_originalId
// pair is a soft-delete marker stored in the custom overlay to suppress a
// default without touching the default list.
type WorkoutDay struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	Day       string           `json:"day"`
	Exercises []Exercise       `json:"exercises"`
	Aerobic   *AerobicExercise `json:"aerobic,omitempty"`
	Abdominal []Exercise       `json:"abdominal,omitempty"`
	Warmup    string           `json:"warmup,omitempty"`

	IsDeleted  bool   `json:"_isDeleted,omitempty"`
	OriginalID string `json:"_originalId,omitempty"`
}

// WorkoutSession is one execution of a WorkoutDay. Exercises, Abdominal and
// Aerobic are deep copies taken at start time; mutating them never touches the
// template.
type WorkoutSession struct {
	ID           string           `json:"id"`
	WorkoutDayID string           `json:"workout_day_id"`
	Date         string           `json:"date"` // canonical YYYY-MM-DD
	StartTime    time.Time        `json:"start_time"`
	EndTime      time.Time        `json:"end_time,omitzero"`
	Exercises    []Exercise       `json:"exercises"`
	Abdominal    []Exercise       `json:"abdominal,omitempty"`
	Aerobic      *AerobicExercise `json:"aerobic,omitempty"`
	TotalVolume  float64          `json:"total_volume"`
	Notes        string           `json:"notes,omitempty"`
	Completed    bool             `json:"completed"`
}

// NewSessionID returns a fresh session identifier.
func NewSessionID() string {
	return "session_" + uuid.NewString()
}

// CloneExercise returns a deep copy of e.
func CloneExercise(e Exercise) Exercise {
	out := e
	if e.SuggestedWeight != nil {
		w := *e.SuggestedWeight
		out.SuggestedWeight = &w
	}
	out.SetData = make([]SetData, len(e.SetData))
	for i, sd := range e.SetData {
		out.SetData[i] = CloneSetData(sd)
	}
	if len(out.SetData) == 0 {
		out.SetData = nil
	}
	return out
}

// CloneSetData returns a deep copy of sd.
func CloneSetData(sd SetData) SetData {
	out := sd
	if sd.Weight != nil {
		w := *sd.Weight
		out.Weight = &w
	}
	if sd.Reps != nil {
		r := *sd.Reps
		out.Reps = &r
	}
	if sd.RestStartTime != nil {
		t := *sd.RestStartTime
		out.RestStartTime = &t
	}
	if sd.DropsetData != nil {
		out.DropsetData = append([]DropsetEntry(nil), sd.DropsetData...)
	}
	return out
}

// CloneExercises deep-copies a slice of exercises.
func CloneExercises(in []Exercise) []Exercise {
	if in == nil {
		return nil
	}
	out := make([]Exercise, len(in))
	for i, e := range in {
		out[i] = CloneExercise(e)
	}
	return out
}

// CloneAerobic deep-copies an aerobic block.
func CloneAerobic(a *AerobicExercise) *AerobicExercise {
	if a == nil {
		return nil
	}
	out := *a
	if a.Distance != nil {
		d := *a.Distance
		out.Distance = &d
	}
	return &out
}

// CloneWorkoutDay returns a deep copy of w.
func CloneWorkoutDay(w WorkoutDay) WorkoutDay {
	out := w
	out.Exercises = CloneExercises(w.Exercises)
	out.Abdominal = CloneExercises(w.Abdominal)
	out.Aerobic = CloneAerobic(w.Aerobic)
	return out
}

// ResetRunState zeroes the mutable run state of an exercise, leaving the
// planned parameters intact.
func ResetRunState(e Exercise) Exercise {
	e.Completed = false
	e.CurrentSet = 0
	e.SetData = nil
	e.Skipped = false
	return e
}

// ResetWorkoutDay returns a copy of w with all run state cleared, ready to be
// stored as a template.
func ResetWorkoutDay(w WorkoutDay) WorkoutDay {
	out := CloneWorkoutDay(w)
	for i := range out.Exercises {
		out.Exercises[i] = ResetRunState(out.Exercises[i])
	}
	for i := range out.Abdominal {
		out.Abdominal[i] = ResetRunState(out.Abdominal[i])
	}
	if out.Aerobic != nil {
		out.Aerobic.Completed = false
		out.Aerobic.ActualDuration = 0
		out.Aerobic.Skipped = false
		out.Aerobic.Distance = nil
	}
	return out
}

// Volume is the training volume of the session: weight x reps summed over all
// completed sets. Dropset continuations are deliberately excluded.
func (s *WorkoutSession) Volume() float64 {
	var total float64
	for _, ex := range s.Exercises {
		for _, sd := range ex.SetData {
			if sd.Completed && sd.Weight != nil && sd.Reps != nil {
				total += *sd.Weight * float64(*sd.Reps)
			}
		}
	}
	return total
}
