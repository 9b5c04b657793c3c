// Package affect maps biosignal-derived affect scores and context labels to
// target parameters for catalog recommendation queries.
package affect

import "strings"

// Scores holds the normalized affect indicators produced by one analysis
// run. Values are nominally in [0,1] but upstream analysis may emit
// out-of-range values; nothing here assumes the bounds hold.
type Scores struct {
	Engagement        float64 `json:"engagement"`
	Arousal           float64 `json:"arousal"`
	Valence           float64 `json:"valence"`
	OverallPreference float64 `json:"overallPreference"`
	Focus             float64 `json:"focus"`
	Relax             float64 `json:"relax"`
	Stress            float64 `json:"stress"`
}

// Targets are the recommendation query parameters derived from a context
// label and, when available, the most recent affect scores.
type Targets struct {
	Valence float64 `json:"targetValence"`
	Energy  float64 `json:"targetEnergy"`
	Mood    string  `json:"mood"`

	// EEGModifier is informational only: the overall-preference score of the
	// latest analysis, or 1.0 when no analysis exists.
	EEGModifier float64 `json:"eegModifier"`
}

// contextTargets is the base (valence, energy) table per context label.
var contextTargets = map[string]Targets{
	"study":   {Valence: 0.3, Energy: 0.4, Mood: "Study"},
	"workout": {Valence: 0.8, Energy: 0.9, Mood: "Workout"},
	"relax":   {Valence: 0.4, Energy: 0.2, Mood: "Relax"},
	"focus":   {Valence: 0.5, Energy: 0.5, Mood: "Focus"},
	"party":   {Valence: 0.9, Energy: 0.85, Mood: "Party"},
}

// defaultSeedGenres is substituted when a user has no stored genres.
var defaultSeedGenres = []string{"pop", "rock", "indie"}

// MapContextToTargets derives recommendation targets from a context label
// and the latest affect scores. Pure and deterministic.
//
// Without scores the base table applies. With scores, a state classification
// overrides the base, in precedence order: high arousal with low valence
// wins ("Stress Relief"), then focus dominance ("Focus"), then "Relax".
func MapContextToTargets(contextLabel string, latest *Scores) Targets {
	targets, ok := contextTargets[strings.ToLower(contextLabel)]
	if !ok {
		targets = Targets{Valence: 0.5, Energy: 0.5, Mood: "General"}
	}
	targets.EEGModifier = 1.0

	if latest == nil {
		return targets
	}
	targets.EEGModifier = latest.OverallPreference

	switch {
	case latest.Arousal > 0.7 && latest.Valence < 0.4:
		// Stressed regardless of the focus/relax balance.
		targets.Mood = "Stress Relief"
		targets.Energy = 0.2
		targets.Valence = 0.8
	case latest.Focus > latest.Relax:
		targets.Mood = "Focus"
		targets.Energy = 0.6
		targets.Valence = 0.5
	default:
		targets.Mood = "Relax"
		targets.Energy = 0.3
		targets.Valence = 0.6
	}
	return targets
}

// SeedGenres selects up to the first 5 preferred genres, in preference
// order. The fixed default list is substituted when none are stored, so the
// result is never empty.
func SeedGenres(preferred []string) []string {
	if len(preferred) == 0 {
		return defaultSeedGenres
	}
	if len(preferred) > 5 {
		preferred = preferred[:5]
	}
	return preferred
}
