package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	appscoring "github.com/turtacn/GovMatch-Engine/internal/application/scoring"
	"github.com/turtacn/GovMatch-Engine/internal/interfaces/http/middleware"
	"github.com/turtacn/GovMatch-Engine/pkg/errors"
	"github.com/turtacn/GovMatch-Engine/pkg/types/match"
)

// MatchHandler serves the scoring API.
type MatchHandler struct {
	svc appscoring.Service
}

// NewMatchHandler builds the handler.
func NewMatchHandler(svc appscoring.Service) *MatchHandler {
	return &MatchHandler{svc: svc}
}

// ─────────────────────────────────────────────────────────────────────────────
// Request / response DTOs
// ─────────────────────────────────────────────────────────────────────────────

type weightsDTO struct {
	PastPerformance     int `json:"past_performance"`
	TechnicalCapability int `json:"technical_capability"`
	StrategicFit        int `json:"strategic_fit"`
	Credibility         int `json:"credibility"`
}

func (w *weightsDTO) toWeights() *match.Weights {
	if w == nil {
		return nil
	}
	return &match.Weights{
		PastPerformance:     w.PastPerformance,
		TechnicalCapability: w.TechnicalCapability,
		StrategicFit:        w.StrategicFit,
		Credibility:         w.Credibility,
	}
}

type scoreRequest struct {
	ProfileID     string      `json:"profile_id" binding:"required"`
	OpportunityID string      `json:"opportunity_id" binding:"required"`
	Weights       *weightsDTO `json:"weights,omitempty"`
	Enrich        bool        `json:"enrich,omitempty"`
}

type batchRequest struct {
	ProfileID      string      `json:"profile_id" binding:"required"`
	OpportunityIDs []string    `json:"opportunity_ids" binding:"required"`
	Weights        *weightsDTO `json:"weights,omitempty"`
	Enrich         bool        `json:"enrich,omitempty"`
}

type batchResponse struct {
	Scores   map[string]*match.MatchScore `json:"scores"`
	Failures map[string]errorResponse     `json:"failures,omitempty"`
	Elapsed  string                       `json:"elapsed"`
}

type feedbackRequest struct {
	Rating  *int   `json:"rating,omitempty"`
	Comment string `json:"comment,omitempty"`
	Outcome string `json:"outcome,omitempty"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Endpoints
// ─────────────────────────────────────────────────────────────────────────────

// Score handles POST /api/v1/matches/score.
func (h *MatchHandler) Score(c *gin.Context) {
	var req scoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errors.Validation(err.Error()))
		return
	}

	score, err := h.svc.ScoreOpportunity(c.Request.Context(), &appscoring.ScoreInput{
		ProfileID:     match.ID(req.ProfileID),
		OpportunityID: match.ID(req.OpportunityID),
		OrgID:         match.OrgID(middleware.OrgID(c)),
		Weights:       req.Weights.toWeights(),
		Enrich:        req.Enrich,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, score)
}

// Batch handles POST /api/v1/matches/batch.
func (h *MatchHandler) Batch(c *gin.Context) {
	var req batchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errors.Validation(err.Error()))
		return
	}

	ids := make([]match.ID, len(req.OpportunityIDs))
	for i, id := range req.OpportunityIDs {
		ids[i] = match.ID(id)
	}

	result, err := h.svc.ScoreBatch(c.Request.Context(), &appscoring.BatchInput{
		ProfileID:      match.ID(req.ProfileID),
		OpportunityIDs: ids,
		OrgID:          match.OrgID(middleware.OrgID(c)),
		Weights:        req.Weights.toWeights(),
		Enrich:         req.Enrich,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	resp := batchResponse{
		Scores:  make(map[string]*match.MatchScore, len(result.Scores)),
		Elapsed: result.Elapsed.String(),
	}
	for id, score := range result.Scores {
		resp.Scores[string(id)] = score
	}
	if len(result.Failures) > 0 {
		resp.Failures = make(map[string]errorResponse, len(result.Failures))
		for id, ferr := range result.Failures {
			code := errors.GetCode(ferr)
			resp.Failures[string(id)] = errorResponse{
				Code:    string(code),
				Message: errors.DefaultMessageForCode(code),
			}
		}
	}
	c.JSON(http.StatusOK, resp)
}

// GetScore handles GET /api/v1/scores/:id.
func (h *MatchHandler) GetScore(c *gin.Context) {
	score, err := h.svc.GetScore(c.Request.Context(),
		match.OrgID(middleware.OrgID(c)), match.ID(c.Param("id")))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, score)
}

// RecentScores handles GET /api/v1/scores/recent?window=24h.
func (h *MatchHandler) RecentScores(c *gin.Context) {
	window := 24 * time.Hour
	if raw := c.Query("window"); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil || parsed <= 0 {
			respondError(c, errors.Validation("window must be a positive duration"))
			return
		}
		window = parsed
	}

	scores, err := h.svc.RecentScores(c.Request.Context(),
		match.OrgID(middleware.OrgID(c)), window)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"scores": scores, "window": window.String()})
}

// Feedback handles POST /api/v1/scores/:id/feedback.
func (h *MatchHandler) Feedback(c *gin.Context) {
	var req feedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errors.Validation(err.Error()))
		return
	}

	fb, err := h.svc.RecordFeedback(c.Request.Context(), &appscoring.FeedbackInput{
		ScoreID: match.ID(c.Param("id")),
		OrgID:   match.OrgID(middleware.OrgID(c)),
		Rating:  req.Rating,
		Comment: req.Comment,
		Outcome: match.Outcome(req.Outcome),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, fb)
}
