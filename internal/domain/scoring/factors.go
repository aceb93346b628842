// Package scoring implements the deterministic half of the match engine:
// pure factor evaluators for the four scoring dimensions and the weighted
// scorer that combines them into a MatchScore.  Nothing in this package
// performs I/O; every function is total over well-formed inputs and absent
// optional data yields a neutral low-but-nonzero score, never an error.
package scoring

import (
	"fmt"
	"strings"

	"github.com/turtacn/GovMatch-Engine/pkg/types/match"
)

// Factor score anchors.  Absent data never maps to zero so that sparse
// profiles are ranked, not rejected.
const (
	industryPrimaryMatch   = 100.0
	industrySecondaryMatch = 70.0
	industrySectorMatch    = 30.0 // same 2-digit sector prefix only
	industryNoOverlap      = 10.0

	geoSameState      = 100.0
	geoNationwide     = 60.0 // fixed mid value regardless of profile location
	geoOtherState     = 25.0
	geoUnknownProfile = 40.0

	certRequiredHeld    = 100.0
	certRequiredMissing = 0.0 // the only zero in the factor set
	certBase            = 50.0
	certPerCertBonus    = 10.0
	certBonusCap        = 40.0
	certNoneHeld        = 40.0

	pastPerfFloor       = 25.0 // entrants with no history are not zeroed out
	pastPerfBase        = 40.0
	pastPerfPerProject  = 5.0
	pastPerfProjectCap  = 20.0
)

// pastPerfValueTiers maps cumulative prior-contract value to a bonus.
// Evaluated highest tier first.
var pastPerfValueTiers = []struct {
	minUSD float64
	bonus  float64
}{
	{10_000_000, 40},
	{1_000_000, 30},
	{100_000, 20},
	{1, 10},
}

// EvaluateIndustryAlignment scores how well the profile's NAICS codes line up
// with the opportunity's.  Exact primary-code match scores highest, a
// secondary-code match lower; with no code overlap a shared 2-digit sector
// prefix still earns partial credit.
func EvaluateIndustryAlignment(p *match.Profile, o *match.Opportunity) match.FactorResult {
	res := match.FactorResult{
		Weight:   match.DefaultWeights().TechnicalCapability,
		Evidence: map[string]string{},
	}

	if p.PrimaryNAICS == "" || len(o.NAICSCodes) == 0 {
		res.Score = industryNoOverlap
		res.Details = "insufficient industry code data"
		return res
	}

	for _, code := range o.NAICSCodes {
		if code == p.PrimaryNAICS {
			res.Score = industryPrimaryMatch
			res.Details = fmt.Sprintf("primary NAICS %s matches opportunity", code)
			res.Evidence["matched_code"] = code
			res.Evidence["match_kind"] = "primary"
			return res
		}
	}

	for _, code := range o.NAICSCodes {
		for _, sec := range p.SecondaryNAICS {
			if code == sec {
				res.Score = industrySecondaryMatch
				res.Details = fmt.Sprintf("secondary NAICS %s matches opportunity", code)
				res.Evidence["matched_code"] = code
				res.Evidence["match_kind"] = "secondary"
				return res
			}
		}
	}

	// Partial credit for operating in the same 2-digit sector.
	profileSector := sectorPrefix(p.PrimaryNAICS)
	for _, code := range o.NAICSCodes {
		if profileSector != "" && sectorPrefix(code) == profileSector {
			res.Score = industrySectorMatch
			res.Details = fmt.Sprintf("same %s-sector as opportunity code %s", profileSector, code)
			res.Evidence["matched_sector"] = profileSector
			res.Evidence["match_kind"] = "sector"
			return res
		}
	}

	res.Score = industryNoOverlap
	res.Details = "no industry code overlap"
	return res
}

func sectorPrefix(naics string) string {
	if len(naics) < 2 {
		return ""
	}
	return naics[:2]
}

// EvaluateGeography scores performance-location proximity.  Nationwide or
// multi-location opportunities score a fixed mid value regardless of the
// profile's jurisdiction.
func EvaluateGeography(p *match.Profile, o *match.Opportunity) match.FactorResult {
	res := match.FactorResult{
		Weight:   match.DefaultWeights().StrategicFit,
		Evidence: map[string]string{},
	}

	switch {
	case o.Nationwide():
		res.Score = geoNationwide
		res.Details = "nationwide or multi-location performance"
		res.Evidence["opportunity_state"] = "nationwide"
	case p.State == "":
		res.Score = geoUnknownProfile
		res.Details = "profile jurisdiction unknown"
		res.Evidence["opportunity_state"] = o.State
	case strings.EqualFold(p.State, o.State):
		res.Score = geoSameState
		res.Details = fmt.Sprintf("profile operates in performance state %s", o.State)
		res.Evidence["opportunity_state"] = o.State
		res.Evidence["profile_state"] = p.State
	default:
		res.Score = geoOtherState
		res.Details = fmt.Sprintf("profile state %s differs from performance state %s", p.State, o.State)
		res.Evidence["opportunity_state"] = o.State
		res.Evidence["profile_state"] = p.State
	}
	return res
}

// EvaluateCertifications scores set-aside eligibility.  When the opportunity
// requires a set-aside the check is binary: full credit if the profile holds
// a matching certification, zero if not — the only zero the factor set can
// produce.  Open-competition opportunities earn a base score plus a bonus
// per held certification.
func EvaluateCertifications(p *match.Profile, o *match.Opportunity) match.FactorResult {
	res := match.FactorResult{
		Weight:   match.DefaultWeights().Credibility,
		Evidence: map[string]string{},
	}

	if o.SetAside != "" {
		res.Evidence["required_set_aside"] = o.SetAside
		for _, cert := range p.Certifications {
			if normalizeCert(cert) == normalizeCert(o.SetAside) {
				res.Score = certRequiredHeld
				res.Details = fmt.Sprintf("profile holds required set-aside %s", o.SetAside)
				res.Evidence["matched_certification"] = cert
				return res
			}
		}
		res.Score = certRequiredMissing
		res.Details = fmt.Sprintf("profile lacks required set-aside %s", o.SetAside)
		return res
	}

	if len(p.Certifications) == 0 {
		res.Score = certNoneHeld
		res.Details = "open competition, no certifications held"
		return res
	}

	bonus := certPerCertBonus * float64(len(p.Certifications))
	if bonus > certBonusCap {
		bonus = certBonusCap
	}
	res.Score = certBase + bonus
	res.Details = fmt.Sprintf("open competition, %d certifications held", len(p.Certifications))
	res.Evidence["certifications_held"] = strings.Join(p.Certifications, ",")
	return res
}

// normalizeCert canonicalizes a set-aside code for comparison: upper-case
// with parentheses, hyphens, and spaces removed, so "8(a)" and "8A" match.
func normalizeCert(code string) string {
	replacer := strings.NewReplacer("(", "", ")", "", "-", "", " ", "")
	return strings.ToUpper(replacer.Replace(code))
}

// EvaluatePastPerformance scores presence and dollar-value scale of prior
// project history.  Absence of any history yields a fixed low floor rather
// than zero, to avoid unfairly penalizing entrants.
func EvaluatePastPerformance(p *match.Profile, o *match.Opportunity) match.FactorResult {
	res := match.FactorResult{
		Weight:   match.DefaultWeights().PastPerformance,
		Evidence: map[string]string{},
	}

	if len(p.PastProjects) == 0 {
		res.Score = pastPerfFloor
		res.Details = "no prior project history"
		return res
	}

	var totalValue float64
	for _, proj := range p.PastProjects {
		if proj.ValueUSD > 0 {
			totalValue += proj.ValueUSD
		}
	}

	projectBonus := pastPerfPerProject * float64(len(p.PastProjects))
	if projectBonus > pastPerfProjectCap {
		projectBonus = pastPerfProjectCap
	}

	var valueBonus float64
	for _, tier := range pastPerfValueTiers {
		if totalValue >= tier.minUSD {
			valueBonus = tier.bonus
			break
		}
	}

	res.Score = clampScore(pastPerfBase + projectBonus + valueBonus)
	res.Details = fmt.Sprintf("%d prior projects totaling $%.0f", len(p.PastProjects), totalValue)
	res.Evidence["project_count"] = fmt.Sprintf("%d", len(p.PastProjects))
	res.Evidence["total_value_usd"] = fmt.Sprintf("%.0f", totalValue)
	return res
}

// EvaluateAll runs every factor evaluator and returns results keyed by factor.
func EvaluateAll(p *match.Profile, o *match.Opportunity) map[match.Factor]match.FactorResult {
	return map[match.Factor]match.FactorResult{
		match.FactorIndustryAlignment: EvaluateIndustryAlignment(p, o),
		match.FactorGeography:         EvaluateGeography(p, o),
		match.FactorCertifications:    EvaluateCertifications(p, o),
		match.FactorPastPerformance:   EvaluatePastPerformance(p, o),
	}
}

// clampScore bounds a factor or category score to [0, 100].
func clampScore(s float64) float64 {
	if s < 0 {
		return 0
	}
	if s > 100 {
		return 100
	}
	return s
}
