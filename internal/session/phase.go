package session

import "github.com/meltforce/ironlog/internal/models"

// Phase is the current stage of a guided workout. It is always computed from
// session state, never stored, so any upstream flag flip (an aerobic skip, an
// exercise completion) reclassifies it immediately.
type Phase string

const (
	PhaseNone          Phase = "none"
	PhaseWarmup        Phase = "warmup"
	PhaseAerobicBefore Phase = "aerobic-before"
	PhaseExercises     Phase = "exercises"
	PhaseAbdominal     Phase = "abdominal"
	PhaseAerobicAfter  Phase = "aerobic-after"
	PhaseFinished      Phase = "finished"
)

// ComputePhase classifies the session. The check order is fixed; a stage that
// has been passed (including via skip) never recurs, because every check
// looks only at done/skipped flags that are never unset.
func ComputePhase(sess *models.WorkoutSession, tpl *models.WorkoutDay, warmupDone, abdominalDone bool) Phase {
	if sess == nil || tpl == nil {
		return PhaseNone
	}
	if tpl.Warmup != "" && !warmupDone {
		return PhaseWarmup
	}
	if aerobicPending(sess, models.AerobicBefore) {
		return PhaseAerobicBefore
	}
	for _, ex := range sess.Exercises {
		if !ex.Completed {
			return PhaseExercises
		}
	}
	if len(tpl.Abdominal) > 0 && !abdominalDone {
		return PhaseAbdominal
	}
	if aerobicPending(sess, models.AerobicAfter) {
		return PhaseAerobicAfter
	}
	return PhaseFinished
}

func aerobicPending(sess *models.WorkoutSession, timing models.AerobicTiming) bool {
	a := sess.Aerobic
	return a != nil && a.Timing == timing && !a.Completed && !a.Skipped
}
