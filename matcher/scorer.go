package matcher

import (
	"math"
	"regexp"
	"strings"

	"github.com/JaCARYK/beartracks/matcher/embedding"
	"github.com/JaCARYK/beartracks/matcher/phash"
)

// Signals is the scoring view of one item. Lost reports carry their
// last-seen timestamp in Ts; found reports carry the found timestamp.
type Signals struct {
	Title          string
	Description    string
	Category       string
	LocationID     int32
	Ts             int64
	TextEmbedding  []float32
	ImageEmbedding []float32
	Phash          uint64
	HasPhash       bool
}

const (
	secondsPerDay = 86400

	// Location factor for candidates turned in somewhere other than where
	// the item was last seen. Items travel, so a different drop-off point
	// dampens rather than disqualifies.
	otherLocationFactor = 0.25

	// Margin keeping a category-mismatched score strictly below the
	// suggest threshold.
	categoryCapMargin = 1e-3
)

var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}]+`)

// Score rates how likely the lost and found reports describe the same
// physical item, in [0, 1]. It is a pure function of its inputs; the
// same pair and weights always produce the same score.
func Score(lost, found Signals, w Weights) float64 {
	textWeight, imageWeight := w.Text, w.Image

	imageSim, imageUsable := imageSimilarity(lost, found, w.PhashCutoff)
	if !imageUsable {
		// No usable visual signal. Fold the image weight into text so a
		// photo-less pair is not penalized for what it cannot show.
		textWeight += imageWeight
		imageWeight = 0
	}

	textSim := textSimilarity(lost, found)
	proximity := proximityScore(lost, found, w.ProximityDecayDays)

	total := textWeight + imageWeight + w.Proximity
	if total <= 0 {
		return 0
	}
	score := (textWeight*textSim + imageWeight*imageSim + w.Proximity*proximity) / total

	if w.CategoryRequired && lost.Category != found.Category {
		cap := w.SuggestThreshold - categoryCapMargin
		if cap < 0 {
			cap = 0
		}
		if score > cap {
			score = cap
		}
	}
	return clamp01(score)
}

func textSimilarity(lost, found Signals) float64 {
	if len(lost.TextEmbedding) > 0 && len(found.TextEmbedding) > 0 {
		return clamp01(embedding.Cosine(lost.TextEmbedding, found.TextEmbedding))
	}
	return tokenJaccard(lost.Title+" "+lost.Description, found.Title+" "+found.Description)
}

// imageSimilarity reports the visual similarity and whether a visual
// comparison was possible at all. A perceptual-hash distance beyond the
// cutoff rules the pair out cheaply before any embedding math.
func imageSimilarity(lost, found Signals, cutoff int) (float64, bool) {
	if lost.HasPhash && found.HasPhash && phash.Distance(lost.Phash, found.Phash) > cutoff {
		return 0, false
	}
	if len(lost.ImageEmbedding) == 0 || len(found.ImageEmbedding) == 0 {
		return 0, false
	}
	return clamp01(embedding.Cosine(lost.ImageEmbedding, found.ImageEmbedding)), true
}

// proximityScore combines where and when. A find that predates the
// last-seen moment cannot be the same item and scores zero.
func proximityScore(lost, found Signals, decayDays float64) float64 {
	if found.Ts < lost.Ts {
		return 0
	}
	factor := otherLocationFactor
	if lost.LocationID == found.LocationID {
		factor = 1.0
	}
	if decayDays <= 0 {
		return factor
	}
	deltaDays := float64(found.Ts-lost.Ts) / secondsPerDay
	return factor * math.Exp(-deltaDays/decayDays)
}

func tokenJaccard(a, b string) float64 {
	setA := tokenSet(a)
	setB := tokenSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}
	intersection := 0
	for token := range setA {
		if _, ok := setB[token]; ok {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	return float64(intersection) / float64(union)
}

func tokenSet(text string) map[string]struct{} {
	set := map[string]struct{}{}
	for _, token := range tokenPattern.FindAllString(strings.ToLower(text), -1) {
		set[token] = struct{}{}
	}
	return set
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
