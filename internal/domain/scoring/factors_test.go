package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/turtacn/GovMatch-Engine/pkg/types/match"
)

func vaProfile() *match.Profile {
	return &match.Profile{
		ID:           "prof-1",
		OrgID:        "org-1",
		PrimaryNAICS: "541511",
		State:        "VA",
	}
}

func TestEvaluateIndustryAlignment(t *testing.T) {
	tests := []struct {
		name      string
		primary   string
		secondary []string
		oppCodes  []string
		want      float64
	}{
		{"PrimaryMatch", "541511", nil, []string{"541511"}, industryPrimaryMatch},
		{"SecondaryMatch", "541511", []string{"541611"}, []string{"541611"}, industrySecondaryMatch},
		{"SectorPrefixOnly", "541511", nil, []string{"549999"}, industrySectorMatch},
		{"NoOverlap", "541511", nil, []string{"999999"}, industryNoOverlap},
		{"EmptyProfileCode", "", nil, []string{"541511"}, industryNoOverlap},
		{"EmptyOpportunityCodes", "541511", nil, nil, industryNoOverlap},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &match.Profile{PrimaryNAICS: tt.primary, SecondaryNAICS: tt.secondary}
			o := &match.Opportunity{NAICSCodes: tt.oppCodes}
			res := EvaluateIndustryAlignment(p, o)
			assert.Equal(t, tt.want, res.Score)
			assert.NotEmpty(t, res.Details)
		})
	}
}

func TestEvaluateIndustryAlignment_PrimaryBeatsSecondary(t *testing.T) {
	// When both match, primary wins the tie-break.
	p := &match.Profile{PrimaryNAICS: "541511", SecondaryNAICS: []string{"541512"}}
	o := &match.Opportunity{NAICSCodes: []string{"541512", "541511"}}
	res := EvaluateIndustryAlignment(p, o)
	assert.Equal(t, industryPrimaryMatch, res.Score)
	assert.Equal(t, "primary", res.Evidence["match_kind"])
}

func TestEvaluateGeography(t *testing.T) {
	tests := []struct {
		name         string
		profileState string
		oppState     string
		want         float64
	}{
		{"SameState", "VA", "VA", geoSameState},
		{"SameStateCaseInsensitive", "va", "VA", geoSameState},
		{"DifferentState", "VA", "CA", geoOtherState},
		{"NationwideEmpty", "VA", "", geoNationwide},
		{"NationwideUS", "VA", "US", geoNationwide},
		{"UnknownProfileState", "", "CA", geoUnknownProfile},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &match.Profile{State: tt.profileState}
			o := &match.Opportunity{State: tt.oppState}
			assert.Equal(t, tt.want, EvaluateGeography(p, o).Score)
		})
	}
}

func TestEvaluateGeography_NationwideIgnoresProfile(t *testing.T) {
	o := &match.Opportunity{State: "US"}
	a := EvaluateGeography(&match.Profile{State: "VA"}, o)
	b := EvaluateGeography(&match.Profile{State: ""}, o)
	assert.Equal(t, a.Score, b.Score)
}

func TestEvaluateCertifications_RequiredSetAside(t *testing.T) {
	o := &match.Opportunity{SetAside: "8(a)"}

	t.Run("Held", func(t *testing.T) {
		p := &match.Profile{Certifications: []string{"8a"}}
		res := EvaluateCertifications(p, o)
		assert.Equal(t, certRequiredHeld, res.Score)
	})

	t.Run("Missing", func(t *testing.T) {
		p := &match.Profile{Certifications: []string{"WOSB"}}
		res := EvaluateCertifications(p, o)
		assert.Zero(t, res.Score)
	})

	t.Run("NoneHeld", func(t *testing.T) {
		res := EvaluateCertifications(&match.Profile{}, o)
		assert.Zero(t, res.Score)
	})
}

func TestEvaluateCertifications_OpenCompetition(t *testing.T) {
	o := &match.Opportunity{}

	none := EvaluateCertifications(&match.Profile{}, o)
	assert.Equal(t, certNoneHeld, none.Score)
	assert.NotZero(t, none.Score, "absent data yields a nonzero neutral score")

	two := EvaluateCertifications(&match.Profile{Certifications: []string{"WOSB", "HUBZone"}}, o)
	assert.Equal(t, certBase+2*certPerCertBonus, two.Score)

	many := EvaluateCertifications(&match.Profile{
		Certifications: []string{"a", "b", "c", "d", "e", "f", "g"},
	}, o)
	assert.Equal(t, certBase+certBonusCap, many.Score, "per-cert bonus is capped")
}

func TestEvaluatePastPerformance(t *testing.T) {
	o := &match.Opportunity{}

	t.Run("NoHistoryFloor", func(t *testing.T) {
		res := EvaluatePastPerformance(&match.Profile{}, o)
		assert.Equal(t, pastPerfFloor, res.Score)
	})

	t.Run("ValueScale", func(t *testing.T) {
		small := EvaluatePastPerformance(&match.Profile{
			PastProjects: []match.PastProject{{ValueUSD: 50_000}},
		}, o)
		large := EvaluatePastPerformance(&match.Profile{
			PastProjects: []match.PastProject{{ValueUSD: 12_000_000}},
		}, o)
		assert.Greater(t, large.Score, small.Score)
		assert.LessOrEqual(t, large.Score, 100.0)
	})

	t.Run("ProjectCountBonusCapped", func(t *testing.T) {
		projects := make([]match.PastProject, 10)
		for i := range projects {
			projects[i] = match.PastProject{ValueUSD: 10}
		}
		res := EvaluatePastPerformance(&match.Profile{PastProjects: projects}, o)
		assert.Equal(t, pastPerfBase+pastPerfProjectCap+10, res.Score)
	})
}

// Spec scenario: a matching-code, matching-state opportunity must strictly
// beat a mismatched one on both the industry and geography sub-scores.
func TestFactorOrdering_MatchedBeatsMismatched(t *testing.T) {
	p := vaProfile()
	oppA := &match.Opportunity{ID: "opp-a", NAICSCodes: []string{"541511"}, State: "VA"}
	oppB := &match.Opportunity{ID: "opp-b", NAICSCodes: []string{"999999"}, State: "CA"}

	indA := EvaluateIndustryAlignment(p, oppA)
	indB := EvaluateIndustryAlignment(p, oppB)
	assert.Greater(t, indA.Score, indB.Score)

	geoA := EvaluateGeography(p, oppA)
	geoB := EvaluateGeography(p, oppB)
	assert.Greater(t, geoA.Score, geoB.Score)
}

func TestEvaluateAll_TotalOverEmptyInputs(t *testing.T) {
	factors := EvaluateAll(&match.Profile{}, &match.Opportunity{})
	assert.Len(t, factors, 4)
	for factor, res := range factors {
		assert.GreaterOrEqual(t, res.Score, 0.0, "factor %s", factor)
		assert.LessOrEqual(t, res.Score, 100.0, "factor %s", factor)
		assert.NotZero(t, res.Score, "empty optional data must not zero factor %s", factor)
	}
}

func TestNormalizeCert(t *testing.T) {
	assert.Equal(t, normalizeCert("8(a)"), normalizeCert("8A"))
	assert.Equal(t, normalizeCert("SDVO-SB"), normalizeCert("sdvosb"))
}
