package affect

import (
	"reflect"
	"testing"
)

func TestMapContextToTargetsBaseTable(t *testing.T) {
	tests := []struct {
		context string
		valence float64
		energy  float64
		mood    string
	}{
		{"study", 0.3, 0.4, "Study"},
		{"workout", 0.8, 0.9, "Workout"},
		{"relax", 0.4, 0.2, "Relax"},
		{"focus", 0.5, 0.5, "Focus"},
		{"party", 0.9, 0.85, "Party"},
		{"STUDY", 0.3, 0.4, "Study"},
		{"driving", 0.5, 0.5, "General"},
		{"", 0.5, 0.5, "General"},
	}
	for _, tt := range tests {
		t.Run(tt.context, func(t *testing.T) {
			got := MapContextToTargets(tt.context, nil)
			if got.Valence != tt.valence || got.Energy != tt.energy || got.Mood != tt.mood {
				t.Errorf("MapContextToTargets(%q, nil) = %+v, want valence %v energy %v mood %q",
					tt.context, got, tt.valence, tt.energy, tt.mood)
			}
			if got.EEGModifier != 1.0 {
				t.Errorf("EEGModifier = %v, want 1.0 without scores", got.EEGModifier)
			}
		})
	}
}

func TestMapContextToTargetsWithScores(t *testing.T) {
	tests := []struct {
		name    string
		scores  Scores
		valence float64
		energy  float64
		mood    string
	}{
		{
			name:    "stressed wins over focus dominance",
			scores:  Scores{Arousal: 0.8, Valence: 0.2, Focus: 0.9, Relax: 0.1},
			valence: 0.8, energy: 0.2, mood: "Stress Relief",
		},
		{
			name:    "focused",
			scores:  Scores{Arousal: 0.3, Valence: 0.6, Focus: 0.7, Relax: 0.2},
			valence: 0.5, energy: 0.6, mood: "Focus",
		},
		{
			name:    "relaxed",
			scores:  Scores{Arousal: 0.3, Valence: 0.6, Focus: 0.2, Relax: 0.7},
			valence: 0.6, energy: 0.3, mood: "Relax",
		},
		{
			name:    "high arousal but positive valence is not stress",
			scores:  Scores{Arousal: 0.9, Valence: 0.8, Focus: 0.6, Relax: 0.3},
			valence: 0.5, energy: 0.6, mood: "Focus",
		},
		{
			name:    "equal focus and relax falls to relax",
			scores:  Scores{Arousal: 0.5, Valence: 0.5, Focus: 0.5, Relax: 0.5},
			valence: 0.6, energy: 0.3, mood: "Relax",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapContextToTargets("study", &tt.scores)
			if got.Valence != tt.valence || got.Energy != tt.energy || got.Mood != tt.mood {
				t.Errorf("got %+v, want valence %v energy %v mood %q", got, tt.valence, tt.energy, tt.mood)
			}
		})
	}
}

func TestMapContextToTargetsEEGModifier(t *testing.T) {
	scores := Scores{OverallPreference: 0.72, Focus: 0.6, Relax: 0.3}
	got := MapContextToTargets("relax", &scores)
	if got.EEGModifier != 0.72 {
		t.Errorf("EEGModifier = %v, want 0.72", got.EEGModifier)
	}
}

func TestMapContextToTargetsDeterministic(t *testing.T) {
	scores := Scores{Arousal: 0.8, Valence: 0.2}
	first := MapContextToTargets("party", &scores)
	second := MapContextToTargets("party", &scores)
	if first != second {
		t.Errorf("repeated calls differ: %+v vs %+v", first, second)
	}
}

func TestSeedGenres(t *testing.T) {
	tests := []struct {
		name      string
		preferred []string
		want      []string
	}{
		{"empty uses defaults", nil, []string{"pop", "rock", "indie"}},
		{"preference order kept", []string{"jazz", "blues"}, []string{"jazz", "blues"}},
		{"truncated to five", []string{"a", "b", "c", "d", "e", "f", "g"}, []string{"a", "b", "c", "d", "e"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SeedGenres(tt.preferred); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SeedGenres(%v) = %v, want %v", tt.preferred, got, tt.want)
			}
		})
	}
}
