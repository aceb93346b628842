package enrichment

import (
	"bytes"
	"encoding/json"
	"strings"
	"text/template"

	"github.com/turtacn/GovMatch-Engine/pkg/errors"
	"github.com/turtacn/GovMatch-Engine/pkg/types/match"
)

// ---------------------------------------------------------------------------
// Prompt construction
// ---------------------------------------------------------------------------

const systemPrompt = `You are a capture-strategy analyst for government contractors.
Given a contractor capability profile, a contract opportunity, and a
calculation-based match score, produce a JSON object with these fields:

  "implicit_requirements":  array of strings, requirements implied but not
                            stated in the opportunity text
  "competitive_landscape":  short string describing likely competition
  "win_probability_pct":    integer 0-100
  "rationale":              short string explaining the probability
  "capability_gaps":        array of strings
  "teaming_partners":       array of strings, partner archetypes worth pursuing
  "score_adjustment":       integer, suggested delta to the overall score
  "recommendations":        array of strings, concrete pursuit actions

Respond with the JSON object only.`

var userPromptTmpl = template.Must(template.New("enrich").
	Funcs(template.FuncMap{"join": strings.Join}).
	Parse(`## Capability Profile
Primary NAICS: {{.Profile.PrimaryNAICS}}
Secondary NAICS: {{join .Profile.SecondaryNAICS ", "}}
State: {{.Profile.State}}
Certifications: {{join .Profile.Certifications ", "}}
Past projects: {{len .Profile.PastProjects}}
{{- range .Profile.PastProjects}}
  - {{.Title}} (${{printf "%.0f" .ValueUSD}}): {{.Description}}
{{- end}}
Narrative: {{.Profile.Narrative}}

## Opportunity
NAICS: {{join .Opportunity.NAICSCodes ", "}}
Performance state: {{if .Opportunity.State}}{{.Opportunity.State}}{{else}}nationwide{{end}}
Set-aside: {{if .Opportunity.SetAside}}{{.Opportunity.SetAside}}{{else}}open competition{{end}}
Estimated value: ${{printf "%.0f" .Opportunity.EstimatedValueMin}} - ${{printf "%.0f" .Opportunity.EstimatedValueMax}}
Description: {{.Opportunity.Description}}

## Calculation Score
Overall: {{.Base.OverallScore}}/100 (confidence {{.Base.Confidence}})
{{- range $cat, $cs := .Base.Categories}}
  {{$cat}}: {{printf "%.0f" $cs.Score}} (weight {{$cs.Weight}})
{{- end}}`))

type promptInput struct {
	Profile     *match.Profile
	Opportunity *match.Opportunity
	Base        *match.MatchScore
}

// BuildPrompt renders the user prompt for one profile/opportunity/base-score
// triple.  Rendering is deterministic: text/template visits the category map
// in sorted key order.
func BuildPrompt(p *match.Profile, o *match.Opportunity, base *match.MatchScore) (string, error) {
	var buf bytes.Buffer
	if err := userPromptTmpl.Execute(&buf, promptInput{Profile: p, Opportunity: o, Base: base}); err != nil {
		return "", errors.Wrap(err, errors.ErrCodeInternal, "render enrichment prompt")
	}
	return buf.String(), nil
}

// ---------------------------------------------------------------------------
// Response parsing
// ---------------------------------------------------------------------------

// llmPayload mirrors the JSON schema the system prompt demands.
type llmPayload struct {
	ImplicitRequirements []string `json:"implicit_requirements"`
	CompetitiveLandscape string   `json:"competitive_landscape"`
	WinProbabilityPct    int      `json:"win_probability_pct"`
	Rationale            string   `json:"rationale"`
	CapabilityGaps       []string `json:"capability_gaps"`
	TeamingPartners      []string `json:"teaming_partners"`
	ScoreAdjustment      int      `json:"score_adjustment"`
	Recommendations      []string `json:"recommendations"`
}

// ParseResponse extracts the structured payload from raw model output.
// Models wrap JSON in markdown fences often enough that we strip them before
// decoding; anything that still fails to decode is a provider-parse error.
func ParseResponse(raw string) (*llmPayload, error) {
	body := stripFences(raw)
	if body == "" {
		return nil, errors.New(errors.ErrCodeProviderParse, "empty model response")
	}

	var payload llmPayload
	if err := json.Unmarshal([]byte(body), &payload); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeProviderParse, "decode model response")
	}
	if payload.WinProbabilityPct < 0 {
		payload.WinProbabilityPct = 0
	}
	if payload.WinProbabilityPct > 100 {
		payload.WinProbabilityPct = 100
	}
	return &payload, nil
}

// stripFences removes a surrounding markdown code fence and trims to the
// outermost JSON object.
func stripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return ""
	}
	return s[start : end+1]
}
