package services

import (
	"math"
	"strings"

	"github.com/desertthunder/lineup/internal/models"
)

// featureProfile nudges synthetic features for artists whose genres contain keyword.
type featureProfile struct {
	keyword          string
	danceability     float64
	energy           float64
	valence          float64
	acousticness     float64
	instrumentalness float64
	speechiness      float64
	tempo            float64
}

// featureProfiles is checked in order; every matching profile applies.
var featureProfiles = []featureProfile{
	{keyword: "techno", danceability: 0.2, energy: 0.2, instrumentalness: 0.4, tempo: 130},
	{keyword: "house", danceability: 0.25, energy: 0.15, instrumentalness: 0.3, tempo: 124},
	{keyword: "electro", danceability: 0.15, energy: 0.15, instrumentalness: 0.2, tempo: 125},
	{keyword: "hip hop", danceability: 0.15, speechiness: 0.25, tempo: 95},
	{keyword: "hip-hop", danceability: 0.15, speechiness: 0.25, tempo: 95},
	{keyword: "rap", danceability: 0.1, speechiness: 0.3, tempo: 98},
	{keyword: "r&b", danceability: 0.1, valence: 0.05, tempo: 96},
	{keyword: "soul", valence: 0.1, acousticness: 0.1, tempo: 100},
	{keyword: "pop", danceability: 0.1, valence: 0.15, energy: 0.05, tempo: 118},
	{keyword: "rock", energy: 0.2, valence: -0.05, tempo: 128},
	{keyword: "punk", energy: 0.3, danceability: -0.05, tempo: 160},
	{keyword: "metal", energy: 0.35, valence: -0.15, tempo: 140},
	{keyword: "folk", acousticness: 0.4, energy: -0.2, tempo: 105},
	{keyword: "singer-songwriter", acousticness: 0.35, energy: -0.15, speechiness: 0.02, tempo: 100},
	{keyword: "jazz", acousticness: 0.25, instrumentalness: 0.25, tempo: 110},
	{keyword: "classical", acousticness: 0.5, instrumentalness: 0.5, energy: -0.3, danceability: -0.2, tempo: 90},
	{keyword: "ambient", instrumentalness: 0.45, energy: -0.3, danceability: -0.15, tempo: 85},
	{keyword: "reggae", danceability: 0.15, valence: 0.15, tempo: 80},
	{keyword: "afro", danceability: 0.2, valence: 0.15, energy: 0.1, tempo: 108},
	{keyword: "latin", danceability: 0.2, valence: 0.2, energy: 0.1, tempo: 102},
	{keyword: "indie", acousticness: 0.1, tempo: 120},
}

// SyntheticFeatures estimates audio features from genre keywords and popularity.
//
// The result is a deterministic heuristic, not measured data, and must be stored with the
// synthetic flag set.
func SyntheticFeatures(genres []string, popularity int) models.AudioFeatures {
	f := models.AudioFeatures{
		Danceability:     0.5,
		Energy:           0.55,
		Valence:          0.45,
		Acousticness:     0.25,
		Instrumentalness: 0.1,
		Speechiness:      0.06,
		Liveness:         0.18,
	}

	joined := strings.ToLower(strings.Join(genres, " | "))
	var tempos []float64
	for _, p := range featureProfiles {
		if !strings.Contains(joined, p.keyword) {
			continue
		}
		f.Danceability += p.danceability
		f.Energy += p.energy
		f.Valence += p.valence
		f.Acousticness += p.acousticness
		f.Instrumentalness += p.instrumentalness
		f.Speechiness += p.speechiness
		if p.tempo > 0 {
			tempos = append(tempos, p.tempo)
		}
	}

	// Popular artists skew slightly more energetic and danceable.
	boost := float64(clampInt(popularity, 0, 100)-50) / 500
	f.Energy += boost
	f.Danceability += boost / 2

	f.Tempo = 120
	if len(tempos) > 0 {
		f.Tempo = mean(tempos)
	}

	f.Danceability = clamp01(f.Danceability)
	f.Energy = clamp01(f.Energy)
	f.Valence = clamp01(f.Valence)
	f.Acousticness = clamp01(f.Acousticness)
	f.Instrumentalness = clamp01(f.Instrumentalness)
	f.Speechiness = clamp01(f.Speechiness)
	f.Liveness = clamp01(f.Liveness)
	f.Tempo = math.Round(f.Tempo*10) / 10
	return f
}

// AverageFeatures returns the mean of real audio features, or nil for an empty input.
func AverageFeatures(features []SpotifyAudioFeatures) *models.AudioFeatures {
	if len(features) == 0 {
		return nil
	}

	var sum models.AudioFeatures
	for _, f := range features {
		sum.Danceability += f.Danceability
		sum.Energy += f.Energy
		sum.Valence += f.Valence
		sum.Tempo += f.Tempo
		sum.Acousticness += f.Acousticness
		sum.Instrumentalness += f.Instrumentalness
		sum.Speechiness += f.Speechiness
		sum.Liveness += f.Liveness
	}

	n := float64(len(features))
	return &models.AudioFeatures{
		Danceability:     sum.Danceability / n,
		Energy:           sum.Energy / n,
		Valence:          sum.Valence / n,
		Tempo:            sum.Tempo / n,
		Acousticness:     sum.Acousticness / n,
		Instrumentalness: sum.Instrumentalness / n,
		Speechiness:      sum.Speechiness / n,
		Liveness:         sum.Liveness / n,
	}
}

func mean(vals []float64) float64 {
	var total float64
	for _, v := range vals {
		total += v
	}
	return total / float64(len(vals))
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

func clampInt(v, lo, hi int) int {
	return max(lo, min(hi, v))
}
