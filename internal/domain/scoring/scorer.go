package scoring

import (
	"fmt"
	"math"

	"github.com/turtacn/GovMatch-Engine/pkg/errors"
	"github.com/turtacn/GovMatch-Engine/pkg/types/match"
)

// AlgorithmVersion tags every score produced by this package.  Bump it when
// factor anchors or the category mapping change so historical scores remain
// distinguishable from re-scores.
const AlgorithmVersion = "v1.2.0"

// factorForCategory is the fixed category ↔ factor mapping.
var factorForCategory = map[match.Category]match.Factor{
	match.CategoryPastPerformance:     match.FactorPastPerformance,
	match.CategoryTechnicalCapability: match.FactorIndustryAlignment,
	match.CategoryStrategicFit:        match.FactorGeography,
	match.CategoryCredibility:         match.FactorCertifications,
}

// ValidateWeights checks a caller-supplied weight set: every weight must be
// non-negative and the four must sum to exactly 100.
func ValidateWeights(w match.Weights) error {
	if w.PastPerformance < 0 || w.TechnicalCapability < 0 || w.StrategicFit < 0 || w.Credibility < 0 {
		return errors.New(errors.ErrCodeInvalidWeights, "category weights must be non-negative")
	}
	if sum := w.Sum(); sum != 100 {
		return errors.New(errors.ErrCodeInvalidWeights, "category weights must sum to 100").
			WithDetail(fmt.Sprintf("sum=%d", sum))
	}
	return nil
}

// Score computes a deterministic MatchScore for one profile/opportunity pair.
// It is synchronous, performs no I/O, and completes in bounded time
// independent of external data size.  Pass nil weights for the production
// defaults; non-nil weights that do not sum to 100 fail with a validation
// error before any factor runs.
//
// The result's overall score is the weighted sum of category scores rounded
// to the nearest integer and clamped to [0, 100]; category weights always
// sum to 100 and each category records its contribution.
func Score(p *match.Profile, o *match.Opportunity, weights *match.Weights) (*match.MatchScore, error) {
	if p == nil {
		return nil, errors.Validation("profile is required")
	}
	if o == nil {
		return nil, errors.Validation("opportunity is required")
	}

	w := match.DefaultWeights()
	if weights != nil {
		if err := ValidateWeights(*weights); err != nil {
			return nil, err
		}
		w = *weights
	}

	factors := EvaluateAll(p, o)

	categories := make(map[match.Category]match.CategoryScore, 4)
	var weightedSum float64
	for _, cat := range match.AllCategories() {
		fr := factors[factorForCategory[cat]]
		weight := w.For(cat)
		contribution := fr.Score * float64(weight) / 100.0
		categories[cat] = match.CategoryScore{
			Score:        fr.Score,
			Weight:       weight,
			Contribution: contribution,
		}
		weightedSum += contribution
	}

	overall := int(clampScore(math.Round(weightedSum)))

	return &match.MatchScore{
		ProfileID:        p.ID,
		OpportunityID:    o.ID,
		OrgID:            p.OrgID,
		OverallScore:     overall,
		Confidence:       Confidence(p, o),
		Categories:       categories,
		FactorEvidence:   factors,
		AlgorithmVersion: AlgorithmVersion,
		Method:           match.MethodCalculation,
		Recommendations:  recommendations(categories),
	}, nil
}

// confidenceSignals lists the optional inputs whose presence raises scoring
// confidence.  Confidence reflects data completeness, not score magnitude.
func confidenceSignals(p *match.Profile, o *match.Opportunity) []bool {
	return []bool{
		p.PrimaryNAICS != "",
		len(p.SecondaryNAICS) > 0,
		p.State != "",
		len(p.Certifications) > 0,
		len(p.PastProjects) > 0,
		p.Narrative != "",
		len(o.NAICSCodes) > 0,
		o.Description != "",
	}
}

// Confidence maps input completeness to [20, 100].  A fully empty pair still
// produces a usable floor so downstream consumers never divide by zero.
func Confidence(p *match.Profile, o *match.Opportunity) int {
	populated := 0
	for _, present := range confidenceSignals(p, o) {
		if present {
			populated++
		}
	}
	c := 20 + populated*10
	if c > 100 {
		c = 100
	}
	return c
}

// recommendations derives pursuit guidance from weak categories.  Purely
// deterministic; the enrichment client may append LLM-derived entries later.
func recommendations(categories map[match.Category]match.CategoryScore) []string {
	var recs []string
	if cs, ok := categories[match.CategoryPastPerformance]; ok && cs.Score < 40 {
		recs = append(recs, "Document prior contract history to strengthen past performance")
	}
	if cs, ok := categories[match.CategoryTechnicalCapability]; ok && cs.Score < 40 {
		recs = append(recs, "Industry codes do not align; consider teaming with a prime in this sector")
	}
	if cs, ok := categories[match.CategoryStrategicFit]; ok && cs.Score < 40 {
		recs = append(recs, "Performance location is outside your operating area; budget for travel or local hires")
	}
	if cs, ok := categories[match.CategoryCredibility]; ok && cs.Score == 0 {
		recs = append(recs, "Opportunity requires a set-aside certification the profile does not hold")
	}
	return recs
}
