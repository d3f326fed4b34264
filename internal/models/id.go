package models

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// IDKind classifies a workout identifier.
type IDKind int

const (
	// KindDefault is a built-in plan day ("monday", "push_a", ...).
	KindDefault IDKind = iota
	// KindNew is a user-created workout with no relation to any default.
	KindNew
	// KindOverride is a user-edited copy of a default; it shadows that
	// default in the merged list.
	KindOverride
	// KindSoftDelete is a marker record suppressing a default without
	// replacing it.
	KindSoftDelete
)

// WorkoutID is the structured form of a workout identifier. The string
// encoding is kept for storage and wire compatibility:
//
//	default:     <id>
//	new:         custom_<ts>_<rand>
//	override:    custom_<base>_<ts>_<rand>
//	soft delete: custom_deleted_<base>_<ts>
type WorkoutID struct {
	Kind   IDKind
	Base   string // default id shadowed by Override/SoftDelete
	Suffix string // ts or ts_rand tail of custom ids
}

// ParseWorkoutID decodes the string form. Unrecognized custom shapes fall
// back to KindNew so they never accidentally shadow a default.
func ParseWorkoutID(s string) WorkoutID {
	if !strings.HasPrefix(s, "custom_") {
		return WorkoutID{Kind: KindDefault, Base: s}
	}
	parts := strings.Split(s, "_")
	if len(parts) >= 4 && parts[1] == "deleted" {
		return WorkoutID{Kind: KindSoftDelete, Base: parts[2], Suffix: strings.Join(parts[3:], "_")}
	}
	if len(parts) == 3 && isNumeric(parts[1]) {
		return WorkoutID{Kind: KindNew, Suffix: strings.Join(parts[1:], "_")}
	}
	if len(parts) >= 4 {
		return WorkoutID{Kind: KindOverride, Base: parts[1], Suffix: strings.Join(parts[2:], "_")}
	}
	return WorkoutID{Kind: KindNew, Suffix: strings.Join(parts[1:], "_")}
}

// String encodes the identifier back to its storage form.
func (id WorkoutID) String() string {
	switch id.Kind {
	case KindNew:
		return "custom_" + id.Suffix
	case KindOverride:
		return fmt.Sprintf("custom_%s_%s", id.Base, id.Suffix)
	case KindSoftDelete:
		return fmt.Sprintf("custom_deleted_%s_%s", id.Base, id.Suffix)
	default:
		return id.Base
	}
}

// IsCustom reports whether the id is user-owned (mutable and deletable).
func (id WorkoutID) IsCustom() bool {
	return id.Kind != KindDefault
}

// ShadowedBase returns the default id this identifier shadows, if any.
func (id WorkoutID) ShadowedBase() (string, bool) {
	if id.Kind == KindOverride || id.Kind == KindSoftDelete {
		return id.Base, true
	}
	return "", false
}

// NewCustomID mints a base-less user workout id (never shadows a default).
func NewCustomID(unixMillis int64) WorkoutID {
	return WorkoutID{Kind: KindNew, Suffix: newSuffix(unixMillis)}
}

// NewOverrideID mints an id that shadows the given default.
func NewOverrideID(base string, unixMillis int64) WorkoutID {
	return WorkoutID{Kind: KindOverride, Base: base, Suffix: newSuffix(unixMillis)}
}

// NewSoftDeleteID mints a marker id suppressing the given default.
func NewSoftDeleteID(base string, unixMillis int64) WorkoutID {
	return WorkoutID{Kind: KindSoftDelete, Base: base, Suffix: fmt.Sprintf("%d", unixMillis)}
}

// NewExerciseID mints a child exercise id.
func NewExerciseID() string {
	return "ex_" + uuid.NewString()[:8]
}

func newSuffix(unixMillis int64) string {
	return fmt.Sprintf("%d_%s", unixMillis, uuid.NewString()[:8])
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
