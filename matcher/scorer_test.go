package matcher

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func defaultWeights() Weights {
	return Weights{
		Text:               0.5,
		Image:              0.2,
		Proximity:          0.3,
		CategoryRequired:   true,
		TimeWindowDays:     30,
		ProximityDecayDays: 3,
		SuggestThreshold:   0.55,
		StoreThreshold:     0.30,
		PhashCutoff:        16,
	}
}

func TestScoreSamePair(t *testing.T) {
	w := defaultWeights()
	embedding := []float32{0.6, 0.8, 0, 0}
	lost := Signals{
		Title:         "Blue Hydro Flask",
		Description:   "32oz blue water bottle with stickers",
		Category:      "bottles",
		LocationID:    3,
		Ts:            1000000,
		TextEmbedding: embedding,
	}
	found := lost
	found.Ts = lost.Ts + 3600

	score := Score(lost, found, w)
	require.Greater(t, score, w.SuggestThreshold)
	require.LessOrEqual(t, score, 1.0)
}

func TestScoreDeterministic(t *testing.T) {
	w := defaultWeights()
	lost := Signals{Title: "black umbrella", Category: "accessories", LocationID: 1, Ts: 500}
	found := Signals{Title: "umbrella black small", Category: "accessories", LocationID: 2, Ts: 900}

	first := Score(lost, found, w)
	for i := 0; i < 10; i++ {
		require.Equal(t, first, Score(lost, found, w))
	}
}

func TestScoreCategoryMismatchCapped(t *testing.T) {
	w := defaultWeights()
	embedding := []float32{1, 0}
	lost := Signals{Title: "silver keys", Category: "keys", LocationID: 1, Ts: 1000, TextEmbedding: embedding}
	found := Signals{Title: "silver keys", Category: "jewelry", LocationID: 1, Ts: 2000, TextEmbedding: embedding}

	score := Score(lost, found, w)
	require.Less(t, score, w.SuggestThreshold)

	// The same pair with matching categories clears the threshold.
	found.Category = "keys"
	require.Greater(t, Score(lost, found, w), w.SuggestThreshold)
}

func TestScoreFoundPredatesLastSeen(t *testing.T) {
	w := defaultWeights()
	embedding := []float32{1, 0}
	lost := Signals{Title: "laptop", Category: "electronics", LocationID: 1, Ts: 5000, TextEmbedding: embedding}
	found := Signals{Title: "laptop", Category: "electronics", LocationID: 1, Ts: 4000, TextEmbedding: embedding}

	// Proximity contributes zero, leaving only the text term.
	score := Score(lost, found, w)
	require.InDelta(t, 0.7, score, 1e-9)
}

func TestScoreProximityDecay(t *testing.T) {
	w := defaultWeights()
	embedding := []float32{1, 0}
	lost := Signals{Title: "scarf", Category: "clothing", LocationID: 1, Ts: 0, TextEmbedding: embedding}

	near := Signals{Title: "scarf", Category: "clothing", LocationID: 1, Ts: secondsPerDay, TextEmbedding: embedding}
	far := near
	far.Ts = 10 * secondsPerDay
	elsewhere := near
	elsewhere.LocationID = 2

	require.Greater(t, Score(lost, near, w), Score(lost, far, w))
	require.Greater(t, Score(lost, near, w), Score(lost, elsewhere, w))
}

func TestScorePhashCutoffSkipsImage(t *testing.T) {
	w := defaultWeights()
	text := []float32{1, 0}
	image := []float32{0, 1}
	lost := Signals{
		Title: "red backpack", Category: "accessories", LocationID: 1, Ts: 1000,
		TextEmbedding: text, ImageEmbedding: image,
		Phash: 0x0000000000000000, HasPhash: true,
	}
	found := lost
	found.Ts = 2000
	found.Phash = 0xFFFFFFFFFFFFFFFF // 64 bits apart, far over the cutoff

	withoutImage := lost
	withoutImage.ImageEmbedding = nil
	withoutImage.HasPhash = false
	foundWithoutImage := found
	foundWithoutImage.ImageEmbedding = nil
	foundWithoutImage.HasPhash = false

	// The rejected image signal falls back to the photo-less scoring path.
	require.Equal(t, Score(withoutImage, foundWithoutImage, w), Score(lost, found, w))
}

func TestScoreImageEmbeddingContributes(t *testing.T) {
	w := defaultWeights()
	text := []float32{1, 0}
	image := []float32{0.6, 0.8}
	lost := Signals{
		Title: "airpods case", Category: "electronics", LocationID: 1, Ts: 1000,
		TextEmbedding: text, ImageEmbedding: image, Phash: 0xF0F0, HasPhash: true,
	}
	found := lost
	found.Ts = 2000
	found.Phash = 0xF0F1 // 1 bit apart, passes the pre-filter

	score := Score(lost, found, w)
	require.Greater(t, score, w.SuggestThreshold)
}

func TestScoreJaccardFallback(t *testing.T) {
	w := defaultWeights()
	lost := Signals{
		Title:       "Blue Hydro Flask",
		Description: "blue 32oz water bottle",
		Category:    "bottles",
		LocationID:  1,
		Ts:          1000,
	}
	overlapping := Signals{
		Title:       "blue water bottle",
		Description: "hydro flask 32oz",
		Category:    "bottles",
		LocationID:  1,
		Ts:          2000,
	}
	unrelated := Signals{
		Title:       "graphing calculator",
		Description: "TI-84 in a case",
		Category:    "bottles",
		LocationID:  1,
		Ts:          2000,
	}

	require.Greater(t, Score(lost, overlapping, w), Score(lost, unrelated, w))
}

func TestTokenJaccard(t *testing.T) {
	tests := []struct {
		a, b string
		want float64
	}{
		{"blue bottle", "blue bottle", 1},
		{"blue bottle", "BLUE Bottle!", 1},
		{"blue bottle", "red scarf", 0},
		{"", "anything", 0},
		{"a b c d", "c d e f", 1.0 / 3.0},
	}
	for _, tt := range tests {
		require.InDelta(t, tt.want, tokenJaccard(tt.a, tt.b), 1e-9, "%q vs %q", tt.a, tt.b)
	}
}
