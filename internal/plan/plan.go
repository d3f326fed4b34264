// Package plan loads the built-in weekly workout plan from YAML. The parsed
// days become the immutable defaults the catalog overlays user edits on.
package plan

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/meltforce/ironlog/internal/models"
)

// File-level YAML shapes; converted to models below.
type planFile struct {
	Days []planDay `yaml:"days"`
}

type planDay struct {
	ID        string         `yaml:"id"`
	Name      string         `yaml:"name"`
	Day       string         `yaml:"day"`
	Warmup    string         `yaml:"warmup"`
	Exercises []planExercise `yaml:"exercises"`
	Abdominal []planExercise `yaml:"abdominal"`
	Aerobic   *planAerobic   `yaml:"aerobic"`
}

type planExercise struct {
	ID              string   `yaml:"id"`
	Name            string   `yaml:"name"`
	Sets            int      `yaml:"sets"`
	TargetReps      string   `yaml:"target_reps"`
	SuggestedWeight *float64 `yaml:"suggested_weight"`
	RestTime        int      `yaml:"rest_time"`
	Notes           string   `yaml:"notes"`
	HasDropset      bool     `yaml:"has_dropset"`
	IsTimeBased     bool     `yaml:"is_time_based"`
	TimePerSet      int      `yaml:"time_per_set"`
	IsBilateral     bool     `yaml:"is_bilateral"`
}

type planAerobic struct {
	Type      string `yaml:"type"`
	Duration  int    `yaml:"duration"`
	Intensity string `yaml:"intensity"`
	Timing    string `yaml:"timing"`
}

// Parse decodes and validates a YAML plan.
func Parse(data []byte) ([]models.WorkoutDay, error) {
	var f planFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing plan: %w", err)
	}
	if len(f.Days) == 0 {
		return nil, fmt.Errorf("plan has no days")
	}

	days := make([]models.WorkoutDay, 0, len(f.Days))
	for _, d := range f.Days {
		if d.ID == "" {
			return nil, fmt.Errorf("plan day %q has no id", d.Name)
		}
		day := models.WorkoutDay{
			ID:     d.ID,
			Name:   d.Name,
			Day:    d.Day,
			Warmup: d.Warmup,
		}
		var err error
		if day.Exercises, err = convertExercises(d.ID, "", d.Exercises); err != nil {
			return nil, err
		}
		if day.Abdominal, err = convertExercises(d.ID, "ab", d.Abdominal); err != nil {
			return nil, err
		}
		if d.Aerobic != nil {
			day.Aerobic = &models.AerobicExercise{
				Type:      models.AerobicType(d.Aerobic.Type),
				Duration:  d.Aerobic.Duration,
				Intensity: models.Intensity(d.Aerobic.Intensity),
				Timing:    models.AerobicTiming(d.Aerobic.Timing),
			}
		}
		days = append(days, day)
	}
	return days, nil
}

// Load reads a plan from a YAML file on disk.
func Load(path string) ([]models.WorkoutDay, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading plan file: %w", err)
	}
	return Parse(data)
}

func convertExercises(dayID, prefix string, in []planExercise) ([]models.Exercise, error) {
	if len(in) == 0 {
		return nil, nil
	}
	out := make([]models.Exercise, 0, len(in))
	for i, pe := range in {
		if pe.Name == "" {
			return nil, fmt.Errorf("plan day %s: exercise %d has no name", dayID, i)
		}
		if pe.Sets <= 0 {
			return nil, fmt.Errorf("plan day %s: exercise %q needs a positive set count", dayID, pe.Name)
		}
		id := pe.ID
		if id == "" {
			if prefix != "" {
				id = fmt.Sprintf("%s_%s%d", dayID, prefix, i+1)
			} else {
				id = fmt.Sprintf("%s_%d", dayID, i+1)
			}
		}
		out = append(out, models.Exercise{
			ID:              id,
			Name:            pe.Name,
			Sets:            pe.Sets,
			TargetReps:      pe.TargetReps,
			SuggestedWeight: pe.SuggestedWeight,
			RestTime:        pe.RestTime,
			Notes:           pe.Notes,
			HasDropset:      pe.HasDropset,
			IsTimeBased:     pe.IsTimeBased,
			TimePerSet:      pe.TimePerSet,
			IsBilateral:     pe.IsBilateral,
		})
	}
	return out, nil
}
