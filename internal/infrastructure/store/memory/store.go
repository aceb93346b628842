// Package memory provides an in-process RecordStore.  It backs unit tests
// and single-node evaluation deployments; the Postgres store is the
// production implementation.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/turtacn/GovMatch-Engine/internal/domain/scoring"
	"github.com/turtacn/GovMatch-Engine/pkg/errors"
	"github.com/turtacn/GovMatch-Engine/pkg/types/match"
)

// Store implements scoring.RecordStore over maps.  All methods are safe for
// concurrent use.  Stored values are deep-copied on the way in and out so
// callers cannot alias internal state.
type Store struct {
	mu            sync.RWMutex
	profiles      map[match.ID]*match.Profile
	opportunities map[match.ID]*match.Opportunity
	scores        map[match.ID]*match.MatchScore
	feedback      map[match.ID][]*match.Feedback
}

var _ scoring.RecordStore = (*Store)(nil)

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		profiles:      make(map[match.ID]*match.Profile),
		opportunities: make(map[match.ID]*match.Opportunity),
		scores:        make(map[match.ID]*match.MatchScore),
		feedback:      make(map[match.ID][]*match.Feedback),
	}
}

// PutProfile seeds a profile; used by tests and fixtures.
func (s *Store) PutProfile(p *match.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *p
	s.profiles[p.ID] = &cp
}

// PutOpportunity seeds an opportunity; used by tests and fixtures.
func (s *Store) PutOpportunity(o *match.Opportunity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *o
	s.opportunities[o.ID] = &cp
}

func (s *Store) GetProfile(_ context.Context, id match.ID) (*match.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[id]
	if !ok {
		return nil, errors.New(errors.ErrCodeProfileNotFound, "profile not found").
			WithDetail(string(id))
	}
	cp := *p
	return &cp, nil
}

func (s *Store) GetOpportunity(_ context.Context, id match.ID) (*match.Opportunity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.opportunities[id]
	if !ok {
		return nil, errors.New(errors.ErrCodeOpportunityNotFound, "opportunity not found").
			WithDetail(string(id))
	}
	cp := *o
	return &cp, nil
}

func (s *Store) SaveScore(_ context.Context, score *match.MatchScore) error {
	if score.ID == "" {
		return errors.Persistence("score id is required", nil)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *score
	s.scores[score.ID] = &cp
	return nil
}

func (s *Store) GetScore(_ context.Context, id match.ID) (*match.MatchScore, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sc, ok := s.scores[id]
	if !ok {
		return nil, errors.New(errors.ErrCodeScoreNotFound, "score not found").
			WithDetail(string(id))
	}
	cp := *sc
	return &cp, nil
}

func (s *Store) RecentScores(_ context.Context, orgID match.OrgID, since time.Time) ([]*match.MatchScore, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*match.MatchScore
	for _, sc := range s.scores {
		if sc.OrgID == orgID && !sc.CreatedAt.Before(since) {
			cp := *sc
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) SaveFeedback(_ context.Context, fb *match.Feedback) error {
	if fb.ID == "" || fb.ScoreID == "" {
		return errors.Persistence("feedback id and score id are required", nil)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *fb
	s.feedback[fb.ScoreID] = append(s.feedback[fb.ScoreID], &cp)
	return nil
}

func (s *Store) FeedbackForScore(_ context.Context, scoreID match.ID) ([]*match.Feedback, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	records := s.feedback[scoreID]
	out := make([]*match.Feedback, len(records))
	for i, fb := range records {
		cp := *fb
		out[i] = &cp
	}
	return out, nil
}
