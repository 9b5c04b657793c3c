package affect

import "testing"

func TestClusterMoodsTooFewRuns(t *testing.T) {
	history := []Scores{{Valence: 0.5}, {Valence: 0.6}}
	moods, err := ClusterMoods(history, 3)
	if err != nil {
		t.Fatalf("ClusterMoods() error = %v", err)
	}
	if moods != nil {
		t.Errorf("moods = %+v, want nil for short history", moods)
	}
}

func TestClusterMoodsSeparatesStates(t *testing.T) {
	var history []Scores
	// Tight groups of stressed and relaxed runs; k-means should separate them.
	for range 10 {
		history = append(history, Scores{Valence: 0.2, Arousal: 0.9, Focus: 0.3, Relax: 0.1})
	}
	for range 10 {
		history = append(history, Scores{Valence: 0.7, Arousal: 0.2, Focus: 0.2, Relax: 0.8})
	}

	moods, err := ClusterMoods(history, 2)
	if err != nil {
		t.Fatalf("ClusterMoods() error = %v", err)
	}
	if len(moods) != 2 {
		t.Fatalf("len(moods) = %d, want 2", len(moods))
	}

	names := map[string]int{}
	total := 0
	for _, m := range moods {
		names[m.Name] += m.Count
		total += m.Count
		for _, feature := range []string{"valence", "arousal", "focus", "relax"} {
			if _, ok := m.Centroid[feature]; !ok {
				t.Errorf("centroid missing %q: %+v", feature, m.Centroid)
			}
		}
	}
	if total != len(history) {
		t.Errorf("total cluster count = %d, want %d", total, len(history))
	}
	if names["Stressed"] != 10 || names["Relaxed"] != 10 {
		t.Errorf("cluster names = %v, want 10 Stressed and 10 Relaxed", names)
	}
}

func TestMoodClusterName(t *testing.T) {
	tests := []struct {
		name     string
		centroid map[string]float64
		want     string
	}{
		{"stressed", map[string]float64{"arousal": 0.8, "valence": 0.2, "focus": 0.9, "relax": 0.1}, "Stressed"},
		{"focused", map[string]float64{"arousal": 0.4, "valence": 0.6, "focus": 0.7, "relax": 0.3}, "Focused"},
		{"relaxed", map[string]float64{"arousal": 0.3, "valence": 0.7, "focus": 0.2, "relax": 0.8}, "Relaxed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := moodClusterName(tt.centroid); got != tt.want {
				t.Errorf("moodClusterName() = %q, want %q", got, tt.want)
			}
		})
	}
}
