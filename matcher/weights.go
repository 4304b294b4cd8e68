// Package matcher scores lost/found item pairs and maintains the match
// index for each new or edited report.
package matcher

import (
	"github.com/JaCARYK/beartracks/internal/profile"
)

// Weights holds the scoring tunables. Every knob comes from the profile
// so deployments can retune without code changes.
type Weights struct {
	Text      float64
	Image     float64
	Proximity float64

	CategoryRequired   bool
	TimeWindowDays     int
	ProximityDecayDays float64
	SuggestThreshold   float64
	StoreThreshold     float64
	PhashCutoff        int
}

func WeightsFromProfile(p *profile.Profile) Weights {
	return Weights{
		Text:               p.MatchTextWeight,
		Image:              p.MatchImageWeight,
		Proximity:          p.MatchProximityWeight,
		CategoryRequired:   p.MatchCategoryRequired,
		TimeWindowDays:     p.MatchTimeWindowDays,
		ProximityDecayDays: p.MatchProximityDecay,
		SuggestThreshold:   p.MatchSuggestThreshold,
		StoreThreshold:     p.MatchStoreThreshold,
		PhashCutoff:        p.MatchPhashCutoff,
	}
}
