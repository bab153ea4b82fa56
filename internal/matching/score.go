// Package matching holds the pure compatibility scoring and ranking rules
// shared by match creation and suggestions.
package matching

import (
	"math"
	"sort"

	"github.com/spec-kit/match-service/internal/domain"
)

const (
	industryHit  = 0.6
	industryMiss = 0.2
	// stageSpan is the stage distance at which the stage component reaches zero.
	stageSpan = 5.0

	MinScore = 0
	MaxScore = 100
)

// Score computes the compatibility of a startup and an incubator in [0,100].
// The stage component is clamped to [0,1] before it is combined, so the
// practical maximum is 80 and distant stages bottom out at the industry term.
func Score(startup domain.StartupProfile, incubator domain.IncubatorProfile) int {
	industry := industryMiss
	if incubator.Focuses(startup.Industry) {
		industry = industryHit
	}

	stage := 1 - math.Abs(float64(startup.Stage-incubator.PreferredStage))/stageSpan
	stage = clamp(stage, 0, 1)

	score := int(math.Round((industry + stage) * 50))
	if score < MinScore {
		return MinScore
	}
	if score > MaxScore {
		return MaxScore
	}
	return score
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// Candidate is a scored counterpart.
type Candidate struct {
	Participant domain.Participant
	Score       int
}

// Rank orders candidates by descending score in place. Equal scores keep
// their input order.
func Rank(candidates []Candidate) []Candidate {
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
	return candidates
}
