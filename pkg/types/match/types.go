// Package match defines the wire-level data model for the match scoring
// engine: capability profiles, contract opportunities, computed match scores,
// and user feedback.  All score fields use fixed-point percentages (0–100
// integers) rather than 0–1 fractions so rounding behaviour stays consistent
// across the deterministic and LLM scoring paths.
package match

import (
	"time"
)

// ID is a string alias for UUID v4.
type ID string

// OrgID is a string alias for an owning-organization identifier.
type OrgID string

// Method identifies which scoring path produced a MatchScore.
type Method string

const (
	// MethodCalculation is the deterministic weighted-factor path.
	MethodCalculation Method = "calculation"
	// MethodLLM is a score produced entirely by the language-model provider.
	MethodLLM Method = "llm"
	// MethodHybrid is the deterministic score with a bounded LLM adjustment.
	MethodHybrid Method = "hybrid"
)

// Valid reports whether m is a known scoring method.
func (m Method) Valid() bool {
	switch m {
	case MethodCalculation, MethodLLM, MethodHybrid:
		return true
	}
	return false
}

// Category is one of the four weighted scoring dimensions.
type Category string

const (
	CategoryPastPerformance     Category = "past_performance"
	CategoryTechnicalCapability Category = "technical_capability"
	CategoryStrategicFit        Category = "strategic_fit"
	CategoryCredibility         Category = "credibility"
)

// AllCategories returns the canonical ordered list of scoring categories.
func AllCategories() []Category {
	return []Category{
		CategoryPastPerformance,
		CategoryTechnicalCapability,
		CategoryStrategicFit,
		CategoryCredibility,
	}
}

// Factor identifies a single evaluation dimension feeding one category.
type Factor string

const (
	FactorIndustryAlignment Factor = "industry_alignment"
	FactorGeography         Factor = "geography"
	FactorCertifications    Factor = "certifications"
	FactorPastPerformance   Factor = "past_performance"
)

// Outcome records how a pursued opportunity ultimately ended.
type Outcome string

const (
	OutcomeWon       Outcome = "won"
	OutcomeLost      Outcome = "lost"
	OutcomeNoBid     Outcome = "no_bid"
	OutcomeWithdrawn Outcome = "withdrawn"
)

// Valid reports whether o is a known outcome.
func (o Outcome) Valid() bool {
	switch o {
	case OutcomeWon, OutcomeLost, OutcomeNoBid, OutcomeWithdrawn:
		return true
	}
	return false
}

// PastProject is one itemized prior-contract entry in a profile's
// past-performance narrative.
type PastProject struct {
	Title       string  `json:"title"`
	ValueUSD    float64 `json:"value_usd"`
	Description string  `json:"description"`
}

// Profile is a business capability record: the subject of matching.
// It is a read-only snapshot during a scoring call.
type Profile struct {
	ID              ID            `json:"id"`
	OrgID           OrgID         `json:"org_id"`
	PrimaryNAICS    string        `json:"primary_naics"`
	SecondaryNAICS  []string      `json:"secondary_naics,omitempty"`
	State           string        `json:"state"`
	Certifications  []string      `json:"certifications,omitempty"`
	PastProjects    []PastProject `json:"past_projects,omitempty"`
	Narrative       string        `json:"narrative,omitempty"`
	CompletenessPct int           `json:"completeness_pct"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// Opportunity is a contract solicitation record being matched against.
// It is a read-only snapshot during a scoring call.
type Opportunity struct {
	ID ID `json:"id"`
	// NAICSCodes lists the industry classification codes on the solicitation;
	// the first entry is treated as primary.
	NAICSCodes []string `json:"naics_codes"`
	// State is the two-letter performance-location jurisdiction.  Empty or
	// "US" means nationwide / multiple locations.
	State             string    `json:"state,omitempty"`
	EstimatedValueMin float64   `json:"estimated_value_min,omitempty"`
	EstimatedValueMax float64   `json:"estimated_value_max,omitempty"`
	Deadline          time.Time `json:"deadline,omitempty"`
	// SetAside is the procurement eligibility classification required to bid
	// (e.g. "8(a)", "WOSB", "SDVOSB").  Empty means full and open competition.
	SetAside          string `json:"set_aside,omitempty"`
	ClearanceRequired bool   `json:"clearance_required,omitempty"`
	Description       string `json:"description,omitempty"`
}

// Nationwide reports whether the opportunity has no single performance
// location, in which case geographic proximity scores a fixed mid value.
func (o *Opportunity) Nationwide() bool {
	return o.State == "" || o.State == "US" || o.State == "USA"
}

// FactorResult is the output of one factor evaluator: a bounded sub-score
// with structured evidence.  Evidence keys have a fixed schema per factor;
// free-text findings go into the Evidence map.
type FactorResult struct {
	Score    float64           `json:"score"`  // 0–100
	Weight   int               `json:"weight"` // fixed-point percent
	Details  string            `json:"details"`
	Evidence map[string]string `json:"evidence,omitempty"`
}

// CategoryScore is one weighted dimension of the overall score.
type CategoryScore struct {
	Score        float64 `json:"score"`        // 0–100
	Weight       int     `json:"weight"`       // fixed-point percent, all four sum to 100
	Contribution float64 `json:"contribution"` // Score × Weight / 100
}

// Weights holds caller-configurable category weights.  The four values must
// sum to exactly 100.
type Weights struct {
	PastPerformance     int `json:"past_performance"`
	TechnicalCapability int `json:"technical_capability"`
	StrategicFit        int `json:"strategic_fit"`
	Credibility         int `json:"credibility"`
}

// Sum returns the total of all four weights.
func (w Weights) Sum() int {
	return w.PastPerformance + w.TechnicalCapability + w.StrategicFit + w.Credibility
}

// For returns the weight assigned to the given category.
func (w Weights) For(c Category) int {
	switch c {
	case CategoryPastPerformance:
		return w.PastPerformance
	case CategoryTechnicalCapability:
		return w.TechnicalCapability
	case CategoryStrategicFit:
		return w.StrategicFit
	case CategoryCredibility:
		return w.Credibility
	}
	return 0
}

// DefaultWeights returns the production default category weights.
func DefaultWeights() Weights {
	return Weights{
		PastPerformance:     35,
		TechnicalCapability: 35,
		StrategicFit:        15,
		Credibility:         15,
	}
}

// SemanticAnalysis carries LLM-derived implicit context about an opportunity.
type SemanticAnalysis struct {
	ImplicitRequirements []string `json:"implicit_requirements,omitempty"`
	CompetitiveLandscape string   `json:"competitive_landscape,omitempty"`
}

// StrategicInsights carries LLM-derived pursuit guidance.
type StrategicInsights struct {
	WinProbabilityPct int      `json:"win_probability_pct"` // 0–100
	Rationale         string   `json:"rationale,omitempty"`
	Gaps              []string `json:"gaps,omitempty"`
	TeamingPartners   []string `json:"teaming_partners,omitempty"`
}

// MatchScore is the computed compatibility artifact.  It is created by a
// scoring call and mutated only by re-scoring under a new algorithm version;
// feedback is attached externally and never alters the algorithmic fields.
type MatchScore struct {
	ID            ID    `json:"id"`
	ProfileID     ID    `json:"profile_id"`
	OpportunityID ID    `json:"opportunity_id"`
	OrgID         OrgID `json:"org_id"`

	OverallScore int `json:"overall_score"` // 0–100
	Confidence   int `json:"confidence"`    // 0–100

	Categories       map[Category]CategoryScore `json:"categories"`
	FactorEvidence   map[Factor]FactorResult    `json:"factor_evidence"`
	AlgorithmVersion string                     `json:"algorithm_version"`
	Method           Method                     `json:"method"`

	Semantic  *SemanticAnalysis  `json:"semantic,omitempty"`
	Strategic *StrategicInsights `json:"strategic,omitempty"`
	// HybridDelta is the bounded adjustment applied to the deterministic
	// overall score when Method is hybrid; zero otherwise.
	HybridDelta int `json:"hybrid_delta,omitempty"`
	// Degraded marks a score that requested enrichment but fell back to the
	// deterministic path after a provider failure or quota denial.
	Degraded bool `json:"degraded,omitempty"`

	Recommendations []string `json:"recommendations,omitempty"`

	ProcessingTime time.Duration `json:"processing_time"`
	CostUSD        float64       `json:"cost_usd,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
}

// Feedback links a MatchScore to a user correction.  Records are append-only;
// many may reference one score.
type Feedback struct {
	ID      ID    `json:"id"`
	ScoreID ID    `json:"score_id"`
	OrgID   OrgID `json:"org_id"`
	// Rating is a 1–5 user assessment of score quality; nil when the record
	// only carries a comment or an outcome.
	Rating    *int      `json:"rating,omitempty"`
	Comment   string    `json:"comment,omitempty"`
	Outcome   Outcome   `json:"outcome,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
