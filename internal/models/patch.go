package models

// ExercisePatch is a structural edit to an exercise's planned parameters.
// Only the fields listed here may be promoted back into a template; numbers
// typed during a run (weights, reps) never travel through a patch.
type ExercisePatch struct {
	Name            *string  `json:"name,omitempty"`
	Sets            *int     `json:"sets,omitempty"`
	TargetReps      *string  `json:"target_reps,omitempty"`
	SuggestedWeight *float64 `json:"suggested_weight,omitempty"`
	RestTime        *int     `json:"rest_time,omitempty"`
	Notes           *string  `json:"notes,omitempty"`
	HasDropset      *bool    `json:"has_dropset,omitempty"`
	IsTimeBased     *bool    `json:"is_time_based,omitempty"`
	TimePerSet      *int     `json:"time_per_set,omitempty"`
	IsBilateral     *bool    `json:"is_bilateral,omitempty"`
}

// IsZero reports whether the patch changes nothing.
func (p ExercisePatch) IsZero() bool {
	return p == ExercisePatch{}
}

// Apply returns a copy of e with the patch fields applied.
func (p ExercisePatch) Apply(e Exercise) Exercise {
	out := CloneExercise(e)
	if p.Name != nil {
		out.Name = *p.Name
	}
	if p.Sets != nil {
		out.Sets = *p.Sets
	}
	if p.TargetReps != nil {
		out.TargetReps = *p.TargetReps
	}
	if p.SuggestedWeight != nil {
		w := *p.SuggestedWeight
		out.SuggestedWeight = &w
	}
	if p.RestTime != nil {
		out.RestTime = *p.RestTime
	}
	if p.Notes != nil {
		out.Notes = *p.Notes
	}
	if p.HasDropset != nil {
		out.HasDropset = *p.HasDropset
	}
	if p.IsTimeBased != nil {
		out.IsTimeBased = *p.IsTimeBased
	}
	if p.TimePerSet != nil {
		out.TimePerSet = *p.TimePerSet
	}
	if p.IsBilateral != nil {
		out.IsBilateral = *p.IsBilateral
	}
	return out
}

// SetDataPatch is a partial update merged into one SetData slot by
// Engine.CompleteSet.
type SetDataPatch struct {
	Weight             *float64       `json:"weight,omitempty"`
	Reps               *int           `json:"reps,omitempty"`
	Completed          *bool          `json:"completed,omitempty"`
	DropsetData        []DropsetEntry `json:"dropset_data,omitempty"`
	TimeCompleted      *bool          `json:"time_completed,omitempty"`
	LeftSideCompleted  *bool          `json:"left_side_completed,omitempty"`
	RightSideCompleted *bool          `json:"right_side_completed,omitempty"`
}

// Merge returns sd with the patch fields applied.
func (p SetDataPatch) Merge(sd SetData) SetData {
	out := CloneSetData(sd)
	if p.Weight != nil {
		w := *p.Weight
		out.Weight = &w
	}
	if p.Reps != nil {
		r := *p.Reps
		out.Reps = &r
	}
	if p.Completed != nil {
		out.Completed = *p.Completed
	}
	if p.DropsetData != nil {
		out.DropsetData = append([]DropsetEntry(nil), p.DropsetData...)
	}
	if p.TimeCompleted != nil {
		out.TimeCompleted = *p.TimeCompleted
	}
	if p.LeftSideCompleted != nil {
		out.LeftSideCompleted = *p.LeftSideCompleted
	}
	if p.RightSideCompleted != nil {
		out.RightSideCompleted = *p.RightSideCompleted
	}
	return out
}
