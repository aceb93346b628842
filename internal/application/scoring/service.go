package scoring

import (
	"context"
	"crypto/sha256"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	domain "github.com/turtacn/GovMatch-Engine/internal/domain/scoring"
	"github.com/turtacn/GovMatch-Engine/internal/infrastructure/cache"
	"github.com/turtacn/GovMatch-Engine/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/GovMatch-Engine/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/GovMatch-Engine/internal/intelligence/enrichment"
	"github.com/turtacn/GovMatch-Engine/pkg/errors"
	"github.com/turtacn/GovMatch-Engine/pkg/types/match"
)

// ─────────────────────────────────────────────────────────────────────────────
// Service interface and inputs
// ─────────────────────────────────────────────────────────────────────────────

// Service is the match engine's application API.
type Service interface {
	ScoreOpportunity(ctx context.Context, in *ScoreInput) (*match.MatchScore, error)
	ScoreBatch(ctx context.Context, in *BatchInput) (*BatchResult, error)
	RecordFeedback(ctx context.Context, in *FeedbackInput) (*match.Feedback, error)
	GetScore(ctx context.Context, orgID match.OrgID, scoreID match.ID) (*match.MatchScore, error)
	RecentScores(ctx context.Context, orgID match.OrgID, window time.Duration) ([]*match.MatchScore, error)
}

// ScoreInput requests one profile/opportunity score.
type ScoreInput struct {
	ProfileID     match.ID
	OpportunityID match.ID
	OrgID         match.OrgID
	// Weights overrides the default category weights; nil uses defaults.
	Weights *match.Weights
	// Enrich requests LLM enrichment.  Quota denial or provider failure
	// silently degrades to the calculation score.
	Enrich bool
}

func (in *ScoreInput) validate() error {
	if in == nil {
		return errors.Validation("score input is required")
	}
	if in.ProfileID == "" || in.OpportunityID == "" || in.OrgID == "" {
		return errors.Validation("profile id, opportunity id, and org id are required")
	}
	if in.Weights != nil {
		return domain.ValidateWeights(*in.Weights)
	}
	return nil
}

// BatchInput requests scores for one profile against many opportunities.
type BatchInput struct {
	ProfileID      match.ID
	OpportunityIDs []match.ID
	OrgID          match.OrgID
	Weights        *match.Weights
	Enrich         bool
}

// BatchResult carries per-opportunity outcomes.  Failures never abort the
// batch; every requested opportunity appears in exactly one of the two maps.
type BatchResult struct {
	Scores   map[match.ID]*match.MatchScore
	Failures map[match.ID]error
	Elapsed  time.Duration
}

// FeedbackInput appends one feedback record to a score.
type FeedbackInput struct {
	ScoreID match.ID
	OrgID   match.OrgID
	// Rating is 1-5; nil means no rating given.
	Rating  *int
	Comment string
	Outcome match.Outcome
}

func (in *FeedbackInput) validate() error {
	if in == nil {
		return errors.Validation("feedback input is required")
	}
	if in.ScoreID == "" || in.OrgID == "" {
		return errors.Validation("score id and org id are required")
	}
	if in.Rating != nil && (*in.Rating < 1 || *in.Rating > 5) {
		return errors.New(errors.ErrCodeInvalidRating, "rating must be between 1 and 5").
			WithDetail(strconv.Itoa(*in.Rating))
	}
	if in.Outcome != "" && !in.Outcome.Valid() {
		return errors.Validation("unknown outcome " + string(in.Outcome))
	}
	if in.Rating == nil && in.Comment == "" && in.Outcome == "" {
		return errors.Validation("feedback must carry a rating, comment, or outcome")
	}
	return nil
}

// Options tunes the service.
type Options struct {
	BatchMaxSize      int
	BatchConcurrency  int
	CacheTTL          time.Duration
	RecentScoresTTL   time.Duration
	EnrichmentEnabled bool
}

func (o *Options) normalize() {
	if o.BatchMaxSize <= 0 {
		o.BatchMaxSize = 50
	}
	if o.BatchConcurrency <= 0 {
		o.BatchConcurrency = 5
	}
	if o.CacheTTL <= 0 {
		o.CacheTTL = time.Hour
	}
	if o.RecentScoresTTL <= 0 {
		o.RecentScoresTTL = time.Minute
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// MatchService
// ─────────────────────────────────────────────────────────────────────────────

// MatchService is the production Service implementation.
type MatchService struct {
	store    domain.RecordStore
	cache    cache.Cache
	enricher *enrichment.Client
	quota    QuotaGuard
	notifier Notifier
	metrics  *prometheus.EngineMetrics
	log      logging.Logger
	opts     Options
}

var _ Service = (*MatchService)(nil)

// NewMatchService wires the engine together.  enricher, quota, notifier, and
// metrics may be nil: a nil enricher disables enrichment, a nil quota allows
// everything, a nil notifier drops events, nil metrics records nothing.
func NewMatchService(store domain.RecordStore, scoreCache cache.Cache, enricher *enrichment.Client,
	quota QuotaGuard, notifier Notifier, metrics *prometheus.EngineMetrics,
	log logging.Logger, opts Options) *MatchService {
	opts.normalize()
	if notifier == nil {
		notifier = NopNotifier{}
	}
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &MatchService{
		store:    store,
		cache:    scoreCache,
		enricher: enricher,
		quota:    quota,
		notifier: notifier,
		metrics:  metrics,
		log:      log.Named("match"),
		opts:     opts,
	}
}

// scoreCacheKey builds `score:{org}:{digest}`.  The digest covers everything
// that changes the result: the pair, the algorithm version, the requested
// method, and any weight override.  The org prefix makes per-org
// invalidation a single prefix delete.
func scoreCacheKey(in *ScoreInput, enrich bool) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%s|%s|%t", in.ProfileID, in.OpportunityID, domain.AlgorithmVersion, enrich)
	if in.Weights != nil {
		w := *in.Weights
		fmt.Fprintf(h, "|%d,%d,%d,%d", w.PastPerformance, w.TechnicalCapability, w.StrategicFit, w.Credibility)
	}
	return fmt.Sprintf("score:%s:%x", in.OrgID, h.Sum(nil)[:16])
}

func recentCacheKey(orgID match.OrgID, window time.Duration) string {
	return fmt.Sprintf("recent:%s:%d", orgID, int64(window.Seconds()))
}

// ScoreOpportunity returns the match score for one pair, computing it at
// most once across concurrent callers.  Identical requests within the cache
// TTL are served from cache.
func (s *MatchService) ScoreOpportunity(ctx context.Context, in *ScoreInput) (*match.MatchScore, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	enrich := in.Enrich && s.opts.EnrichmentEnabled && s.enricher != nil
	key := scoreCacheKey(in, enrich)

	var out match.MatchScore
	computed := false
	err := s.cache.GetOrCompute(ctx, key, &out, s.opts.CacheTTL, func(ctx context.Context) (interface{}, error) {
		computed = true
		return s.computeAndPersist(ctx, in, enrich)
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		if computed {
			s.metrics.CacheMissesTotal.WithLabelValues().Inc()
		} else {
			s.metrics.CacheHitsTotal.WithLabelValues().Inc()
		}
	}
	return &out, nil
}

// computeAndPersist is the cache-miss path: load, score, optionally enrich,
// persist, notify.  A persistence failure fails the call; the score is not
// served from memory if it could not be recorded.
func (s *MatchService) computeAndPersist(ctx context.Context, in *ScoreInput, enrich bool) (*match.MatchScore, error) {
	start := time.Now()

	profile, err := s.store.GetProfile(ctx, in.ProfileID)
	if err != nil {
		return nil, err
	}
	if profile.OrgID != in.OrgID {
		// Cross-org access reads as absence, not as a permission error.
		return nil, errors.New(errors.ErrCodeProfileNotFound, "profile not found").
			WithDetail(string(in.ProfileID))
	}

	opp, err := s.store.GetOpportunity(ctx, in.OpportunityID)
	if err != nil {
		return nil, err
	}

	score, err := domain.Score(profile, opp, in.Weights)
	if err != nil {
		return nil, err
	}

	if enrich {
		score = s.enrichWithQuota(ctx, profile, opp, score)
	}

	score.ID = match.ID(uuid.New().String())
	score.CreatedAt = time.Now().UTC()
	score.ProcessingTime = time.Since(start)

	if err := s.store.SaveScore(ctx, score); err != nil {
		return nil, err
	}
	s.notifier.ScoreComputed(ctx, score)

	if s.metrics != nil {
		s.metrics.ScoresComputedTotal.
			WithLabelValues(string(score.Method), strconv.FormatBool(score.Degraded)).Inc()
		s.metrics.ScoreDuration.
			WithLabelValues(string(score.Method)).Observe(time.Since(start).Seconds())
	}
	s.log.Info("score computed",
		logging.String("score_id", string(score.ID)),
		logging.String("profile_id", string(score.ProfileID)),
		logging.String("opportunity_id", string(score.OpportunityID)),
		logging.Int("overall", score.OverallScore),
		logging.String("method", string(score.Method)),
		logging.Bool("degraded", score.Degraded),
		logging.Duration("elapsed", score.ProcessingTime),
	)
	return score, nil
}

// enrichWithQuota runs enrichment when quota allows, otherwise marks the
// calculation score degraded.  Either way the caller gets a usable score.
func (s *MatchService) enrichWithQuota(ctx context.Context, p *match.Profile, o *match.Opportunity, base *match.MatchScore) *match.MatchScore {
	if s.quota != nil {
		if ok, reason := s.quota.Allow(ctx, base.OrgID); !ok {
			base.Degraded = true
			if s.metrics != nil {
				s.metrics.QuotaDeniedTotal.WithLabelValues().Inc()
			}
			s.log.Warn("enrichment skipped by quota",
				logging.String("org_id", string(base.OrgID)),
				logging.String("reason", reason),
			)
			return base
		}
	}

	llmStart := time.Now()
	enriched, usage := s.enricher.Enrich(ctx, p, o, base)
	if s.metrics != nil {
		outcome := "ok"
		if enriched.Degraded {
			outcome = "degraded"
		}
		s.metrics.LLMRequestsTotal.WithLabelValues(outcome).Inc()
		s.metrics.LLMDuration.WithLabelValues().Observe(time.Since(llmStart).Seconds())
		s.metrics.LLMCostUSDTotal.WithLabelValues().Add(enriched.CostUSD)
		if usage != nil {
			s.metrics.LLMTokensTotal.WithLabelValues("input").Add(float64(usage.InputTokens))
			s.metrics.LLMTokensTotal.WithLabelValues("output").Add(float64(usage.OutputTokens))
		}
	}
	if !enriched.Degraded && s.quota != nil {
		s.quota.Record(ctx, base.OrgID, enriched.CostUSD)
	}
	return enriched
}

// ScoreBatch scores one profile against up to BatchMaxSize opportunities
// with bounded concurrency.  A failing opportunity lands in Failures with
// its error; the rest of the batch is unaffected.
func (s *MatchService) ScoreBatch(ctx context.Context, in *BatchInput) (*BatchResult, error) {
	if in == nil || in.ProfileID == "" || in.OrgID == "" {
		return nil, errors.Validation("profile id and org id are required")
	}
	if len(in.OpportunityIDs) == 0 {
		return nil, errors.Validation("at least one opportunity id is required")
	}
	if len(in.OpportunityIDs) > s.opts.BatchMaxSize {
		return nil, errors.New(errors.ErrCodeBatchTooLarge,
			fmt.Sprintf("batch size %d exceeds limit %d", len(in.OpportunityIDs), s.opts.BatchMaxSize))
	}
	if in.Weights != nil {
		if err := domain.ValidateWeights(*in.Weights); err != nil {
			return nil, err
		}
	}

	// Dedupe while preserving request order.
	seen := make(map[match.ID]struct{}, len(in.OpportunityIDs))
	ids := make([]match.ID, 0, len(in.OpportunityIDs))
	for _, id := range in.OpportunityIDs {
		if _, dup := seen[id]; !dup {
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}

	start := time.Now()
	result := &BatchResult{
		Scores:   make(map[match.ID]*match.MatchScore, len(ids)),
		Failures: make(map[match.ID]error),
	}

	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		sem = make(chan struct{}, s.opts.BatchConcurrency)
	)
	for _, oppID := range ids {
		wg.Add(1)
		go func(oppID match.ID) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			if err := ctx.Err(); err != nil {
				mu.Lock()
				result.Failures[oppID] = err
				mu.Unlock()
				return
			}

			score, err := s.ScoreOpportunity(ctx, &ScoreInput{
				ProfileID:     in.ProfileID,
				OpportunityID: oppID,
				OrgID:         in.OrgID,
				Weights:       in.Weights,
				Enrich:        in.Enrich,
			})
			mu.Lock()
			if err != nil {
				result.Failures[oppID] = err
			} else {
				result.Scores[oppID] = score
			}
			mu.Unlock()
		}(oppID)
	}
	wg.Wait()
	result.Elapsed = time.Since(start)

	if s.metrics != nil {
		outcome := "ok"
		if len(result.Failures) > 0 {
			outcome = "partial"
		}
		if len(result.Scores) == 0 {
			outcome = "failed"
		}
		s.metrics.BatchesTotal.WithLabelValues(outcome).Inc()
		s.metrics.BatchSize.WithLabelValues().Observe(float64(len(ids)))
		s.metrics.BatchDuration.WithLabelValues().Observe(result.Elapsed.Seconds())
		for _, err := range result.Failures {
			s.metrics.BatchFailuresTotal.WithLabelValues(string(errors.GetCode(err))).Inc()
		}
	}
	s.log.Info("batch scored",
		logging.String("profile_id", string(in.ProfileID)),
		logging.Int("requested", len(in.OpportunityIDs)),
		logging.Int("scored", len(result.Scores)),
		logging.Int("failed", len(result.Failures)),
		logging.Duration("elapsed", result.Elapsed),
	)
	return result, nil
}

// RecordFeedback appends one feedback record and invalidates the org's
// cached scores so the next read reflects any downstream re-weighting.
// Feedback never mutates the referenced score.
func (s *MatchService) RecordFeedback(ctx context.Context, in *FeedbackInput) (*match.Feedback, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	score, err := s.store.GetScore(ctx, in.ScoreID)
	if err != nil {
		return nil, err
	}
	if score.OrgID != in.OrgID {
		return nil, errors.New(errors.ErrCodeScoreNotFound, "score not found").
			WithDetail(string(in.ScoreID))
	}

	fb := &match.Feedback{
		ID:        match.ID(uuid.New().String()),
		ScoreID:   in.ScoreID,
		OrgID:     in.OrgID,
		Rating:    in.Rating,
		Comment:   in.Comment,
		Outcome:   in.Outcome,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.SaveFeedback(ctx, fb); err != nil {
		return nil, err
	}

	s.invalidateOrg(ctx, in.OrgID, "feedback")
	s.notifier.FeedbackRecorded(ctx, fb)

	if s.metrics != nil {
		s.metrics.FeedbackTotal.
			WithLabelValues(strconv.FormatBool(in.Rating != nil), string(in.Outcome)).Inc()
	}
	return fb, nil
}

// GetScore fetches a persisted score, scoped to the caller's org.
func (s *MatchService) GetScore(ctx context.Context, orgID match.OrgID, scoreID match.ID) (*match.MatchScore, error) {
	if orgID == "" || scoreID == "" {
		return nil, errors.Validation("org id and score id are required")
	}
	score, err := s.store.GetScore(ctx, scoreID)
	if err != nil {
		return nil, err
	}
	if score.OrgID != orgID {
		return nil, errors.New(errors.ErrCodeScoreNotFound, "score not found").
			WithDetail(string(scoreID))
	}
	return score, nil
}

// RecentScores lists the org's scores created within the window, newest
// first, served through a short-lived cache.
func (s *MatchService) RecentScores(ctx context.Context, orgID match.OrgID, window time.Duration) ([]*match.MatchScore, error) {
	if orgID == "" {
		return nil, errors.Validation("org id is required")
	}
	if window <= 0 {
		window = 24 * time.Hour
	}

	var out []*match.MatchScore
	err := s.cache.GetOrCompute(ctx, recentCacheKey(orgID, window), &out, s.opts.RecentScoresTTL,
		func(ctx context.Context) (interface{}, error) {
			return s.store.RecentScores(ctx, orgID, time.Now().UTC().Add(-window))
		})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// invalidateOrg drops the org's cached scores and listings.  Best effort: a
// cache outage costs staleness for one TTL, not a failed write.
func (s *MatchService) invalidateOrg(ctx context.Context, orgID match.OrgID, reason string) {
	for _, prefix := range []string{fmt.Sprintf("score:%s:", orgID), fmt.Sprintf("recent:%s:", orgID)} {
		if _, err := s.cache.DeleteByPrefix(ctx, prefix); err != nil {
			s.log.Warn("cache invalidation failed",
				logging.String("prefix", prefix),
				logging.Err(err),
			)
		}
	}
	if s.metrics != nil {
		s.metrics.CacheInvalidated.WithLabelValues(reason).Inc()
	}
}
