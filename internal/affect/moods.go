package affect

import (
	"fmt"

	"github.com/muesli/clusters"
	"github.com/muesli/kmeans"
)

// MoodCluster groups analysis runs with similar affect profiles.
type MoodCluster struct {
	Name     string             `json:"name"`
	Count    int                `json:"count"`
	Centroid map[string]float64 `json:"centroid"`
}

// moodFeatures are the affect dimensions used for clustering.
var moodFeatures = []string{"valence", "arousal", "focus", "relax"}

// scoresObservation adapts Scores to the clusters.Observation interface.
type scoresObservation struct {
	coords clusters.Coordinates
}

func (o scoresObservation) Coordinates() clusters.Coordinates {
	return o.coords
}

func (o scoresObservation) Distance(point clusters.Coordinates) float64 {
	return o.coords.Distance(point)
}

// ClusterMoods groups a user's affect history into up to k mood clusters
// using k-means over (valence, arousal, focus, relax). Returns nil when the
// history is too small to cluster.
func ClusterMoods(history []Scores, k int) ([]MoodCluster, error) {
	if k <= 0 {
		k = 3
	}
	if len(history) < k {
		return nil, nil
	}

	var obs clusters.Observations
	for _, s := range history {
		obs = append(obs, scoresObservation{
			coords: clusters.Coordinates{s.Valence, s.Arousal, s.Focus, s.Relax},
		})
	}

	km := kmeans.New()
	result, err := km.Partition(obs, k)
	if err != nil {
		return nil, fmt.Errorf("clustering affect history: %w", err)
	}

	var moods []MoodCluster
	for _, cluster := range result {
		if len(cluster.Observations) == 0 {
			continue
		}
		centroid := make(map[string]float64, len(moodFeatures))
		for i, name := range moodFeatures {
			centroid[name] = cluster.Center[i]
		}
		moods = append(moods, MoodCluster{
			Name:     moodClusterName(centroid),
			Count:    len(cluster.Observations),
			Centroid: centroid,
		})
	}
	return moods, nil
}

// moodClusterName labels a centroid with the same state classification the
// mapper applies to individual runs.
func moodClusterName(centroid map[string]float64) string {
	switch {
	case centroid["arousal"] > 0.7 && centroid["valence"] < 0.4:
		return "Stressed"
	case centroid["focus"] > centroid["relax"]:
		return "Focused"
	default:
		return "Relaxed"
	}
}
