package models

import "time"

// TimerType distinguishes what the rest period follows.
type TimerType string

const (
	RestBetweenSets      TimerType = "rest-between-sets"
	RestBetweenExercises TimerType = "rest-between-exercises"
)

// TimerState is the persisted state of the single rest timer. StartTime and
// Duration let a resumed process recompute TimeLeft from the wall clock, so a
// countdown survives suspension where tick callbacks stop firing.
type TimerState struct {
	IsActive   bool      `json:"is_active"`
	TimeLeft   int       `json:"time_left"` // seconds
	Duration   int       `json:"duration"`  // seconds, as started
	Type       TimerType `json:"type"`
	ExerciseID string    `json:"exercise_id,omitempty"`
	SetIndex   int       `json:"set_index"`
	Paused     bool      `json:"paused,omitempty"`
	StartTime  time.Time `json:"start_time"`
}
