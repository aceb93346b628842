package postgres

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/turtacn/GovMatch-Engine/internal/domain/scoring"
	"github.com/turtacn/GovMatch-Engine/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/GovMatch-Engine/pkg/errors"
	"github.com/turtacn/GovMatch-Engine/pkg/types/match"
)

// Store is the PostgreSQL RecordStore.  Structured sub-documents (category
// breakdowns, factor evidence, semantic analysis) live in JSONB columns;
// everything the engine filters or joins on is a plain column.
type Store struct {
	pool *pgxpool.Pool
	log  logging.Logger
}

var _ scoring.RecordStore = (*Store)(nil)

// NewStore wraps a connection pool.
func NewStore(pool *pgxpool.Pool, log logging.Logger) *Store {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Store{pool: pool, log: log.Named("store.postgres")}
}

// ─────────────────────────────────────────────────────────────────────────────
// Profiles and opportunities
// ─────────────────────────────────────────────────────────────────────────────

func (s *Store) GetProfile(ctx context.Context, id match.ID) (*match.Profile, error) {
	var (
		p             match.Profile
		secondaryJSON []byte
		certsJSON     []byte
		projectsJSON  []byte
	)
	err := s.pool.QueryRow(ctx, `
		SELECT id, org_id, primary_naics, secondary_naics, state,
		       certifications, past_projects, narrative, completeness_pct, updated_at
		FROM profiles WHERE id = $1`, id).
		Scan(&p.ID, &p.OrgID, &p.PrimaryNAICS, &secondaryJSON, &p.State,
			&certsJSON, &projectsJSON, &p.Narrative, &p.CompletenessPct, &p.UpdatedAt)
	if stderrors.Is(err, pgx.ErrNoRows) {
		return nil, errors.New(errors.ErrCodeProfileNotFound, "profile not found").WithDetail(string(id))
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStoreQuery, "query profile")
	}
	if err := decodeJSONColumns(map[string]struct {
		data []byte
		dest interface{}
	}{
		"secondary_naics": {secondaryJSON, &p.SecondaryNAICS},
		"certifications":  {certsJSON, &p.Certifications},
		"past_projects":   {projectsJSON, &p.PastProjects},
	}); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) GetOpportunity(ctx context.Context, id match.ID) (*match.Opportunity, error) {
	var (
		o         match.Opportunity
		codesJSON []byte
		deadline  *time.Time
	)
	err := s.pool.QueryRow(ctx, `
		SELECT id, naics_codes, state, estimated_value_min, estimated_value_max,
		       deadline, set_aside, clearance_required, description
		FROM opportunities WHERE id = $1`, id).
		Scan(&o.ID, &codesJSON, &o.State, &o.EstimatedValueMin, &o.EstimatedValueMax,
			&deadline, &o.SetAside, &o.ClearanceRequired, &o.Description)
	if stderrors.Is(err, pgx.ErrNoRows) {
		return nil, errors.New(errors.ErrCodeOpportunityNotFound, "opportunity not found").WithDetail(string(id))
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStoreQuery, "query opportunity")
	}
	if deadline != nil {
		o.Deadline = *deadline
	}
	if err := decodeJSONColumns(map[string]struct {
		data []byte
		dest interface{}
	}{
		"naics_codes": {codesJSON, &o.NAICSCodes},
	}); err != nil {
		return nil, err
	}
	return &o, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Scores
// ─────────────────────────────────────────────────────────────────────────────

const scoreColumns = `id, profile_id, opportunity_id, org_id, overall_score, confidence,
	categories, factor_evidence, algorithm_version, method, semantic, strategic,
	hybrid_delta, degraded, recommendations, processing_time_ms, cost_usd, created_at`

func (s *Store) SaveScore(ctx context.Context, score *match.MatchScore) error {
	categoriesJSON, _ := json.Marshal(score.Categories)
	evidenceJSON, _ := json.Marshal(score.FactorEvidence)
	recsJSON, _ := json.Marshal(score.Recommendations)

	var semanticJSON, strategicJSON []byte
	if score.Semantic != nil {
		semanticJSON, _ = json.Marshal(score.Semantic)
	}
	if score.Strategic != nil {
		strategicJSON, _ = json.Marshal(score.Strategic)
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO match_scores (`+scoreColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)`,
		score.ID, score.ProfileID, score.OpportunityID, score.OrgID,
		score.OverallScore, score.Confidence, categoriesJSON, evidenceJSON,
		score.AlgorithmVersion, score.Method, semanticJSON, strategicJSON,
		score.HybridDelta, score.Degraded, recsJSON,
		score.ProcessingTime.Milliseconds(), score.CostUSD, score.CreatedAt,
	)
	if err != nil {
		s.log.Error("save score failed",
			logging.String("score_id", string(score.ID)),
			logging.Err(err),
		)
		return errors.Persistence("insert match score", err)
	}
	return nil
}

func (s *Store) GetScore(ctx context.Context, id match.ID) (*match.MatchScore, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+scoreColumns+` FROM match_scores WHERE id = $1`, id)
	score, err := scanScore(row)
	if stderrors.Is(err, pgx.ErrNoRows) {
		return nil, errors.New(errors.ErrCodeScoreNotFound, "score not found").WithDetail(string(id))
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStoreQuery, "query score")
	}
	return score, nil
}

func (s *Store) RecentScores(ctx context.Context, orgID match.OrgID, since time.Time) ([]*match.MatchScore, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+scoreColumns+` FROM match_scores
		WHERE org_id = $1 AND created_at >= $2
		ORDER BY created_at DESC`, orgID, since)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStoreQuery, "query recent scores")
	}
	defer rows.Close()

	var out []*match.MatchScore
	for rows.Next() {
		score, err := scanScore(rows)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeStoreQuery, "scan score row")
		}
		out = append(out, score)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStoreQuery, "iterate score rows")
	}
	return out, nil
}

func scanScore(row pgx.Row) (*match.MatchScore, error) {
	var (
		score          match.MatchScore
		categoriesJSON []byte
		evidenceJSON   []byte
		semanticJSON   []byte
		strategicJSON  []byte
		recsJSON       []byte
		processingMs   int64
	)
	err := row.Scan(&score.ID, &score.ProfileID, &score.OpportunityID, &score.OrgID,
		&score.OverallScore, &score.Confidence, &categoriesJSON, &evidenceJSON,
		&score.AlgorithmVersion, &score.Method, &semanticJSON, &strategicJSON,
		&score.HybridDelta, &score.Degraded, &recsJSON,
		&processingMs, &score.CostUSD, &score.CreatedAt)
	if err != nil {
		return nil, err
	}
	score.ProcessingTime = time.Duration(processingMs) * time.Millisecond

	if len(categoriesJSON) > 0 {
		if err := json.Unmarshal(categoriesJSON, &score.Categories); err != nil {
			return nil, err
		}
	}
	if len(evidenceJSON) > 0 {
		if err := json.Unmarshal(evidenceJSON, &score.FactorEvidence); err != nil {
			return nil, err
		}
	}
	if len(semanticJSON) > 0 {
		score.Semantic = &match.SemanticAnalysis{}
		if err := json.Unmarshal(semanticJSON, score.Semantic); err != nil {
			return nil, err
		}
	}
	if len(strategicJSON) > 0 {
		score.Strategic = &match.StrategicInsights{}
		if err := json.Unmarshal(strategicJSON, score.Strategic); err != nil {
			return nil, err
		}
	}
	if len(recsJSON) > 0 {
		if err := json.Unmarshal(recsJSON, &score.Recommendations); err != nil {
			return nil, err
		}
	}
	return &score, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Feedback
// ─────────────────────────────────────────────────────────────────────────────

func (s *Store) SaveFeedback(ctx context.Context, fb *match.Feedback) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO match_feedback (id, score_id, org_id, rating, comment, outcome, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		fb.ID, fb.ScoreID, fb.OrgID, fb.Rating, fb.Comment, fb.Outcome, fb.CreatedAt,
	)
	if err != nil {
		return errors.Persistence("insert feedback", err)
	}
	return nil
}

func (s *Store) FeedbackForScore(ctx context.Context, scoreID match.ID) ([]*match.Feedback, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, score_id, org_id, rating, comment, outcome, created_at
		FROM match_feedback WHERE score_id = $1
		ORDER BY created_at ASC`, scoreID)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStoreQuery, "query feedback")
	}
	defer rows.Close()

	var out []*match.Feedback
	for rows.Next() {
		var fb match.Feedback
		if err := rows.Scan(&fb.ID, &fb.ScoreID, &fb.OrgID, &fb.Rating, &fb.Comment, &fb.Outcome, &fb.CreatedAt); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeStoreQuery, "scan feedback row")
		}
		out = append(out, &fb)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStoreQuery, "iterate feedback rows")
	}
	return out, nil
}

func decodeJSONColumns(cols map[string]struct {
	data []byte
	dest interface{}
}) error {
	for name, col := range cols {
		if len(col.data) == 0 {
			continue
		}
		if err := json.Unmarshal(col.data, col.dest); err != nil {
			return errors.Wrap(err, errors.ErrCodeSerialization, "decode column "+name)
		}
	}
	return nil
}
