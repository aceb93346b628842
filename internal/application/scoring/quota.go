package scoring

import (
	"context"
	"sync"
	"time"

	"github.com/turtacn/GovMatch-Engine/pkg/types/match"
)

type quotaWindow struct {
	day   string
	calls int
	spend float64
}

// DailyQuotaGuard enforces per-organization daily call and spend limits.
// Counters reset at UTC midnight.  State is process-local; in a multi-node
// deployment each node gets its own allowance, which keeps the guard cheap
// and is acceptable because the limits are a cost brake, not billing.
type DailyQuotaGuard struct {
	mu             sync.Mutex
	windows        map[match.OrgID]*quotaWindow
	dailyCallLimit int
	dailyBudgetUSD float64
	now            func() time.Time
}

var _ QuotaGuard = (*DailyQuotaGuard)(nil)

// NewDailyQuotaGuard builds a guard.  Non-positive limits disable the
// corresponding check.
func NewDailyQuotaGuard(dailyCallLimit int, dailyBudgetUSD float64) *DailyQuotaGuard {
	return &DailyQuotaGuard{
		windows:        make(map[match.OrgID]*quotaWindow),
		dailyCallLimit: dailyCallLimit,
		dailyBudgetUSD: dailyBudgetUSD,
		now:            time.Now,
	}
}

func (g *DailyQuotaGuard) window(orgID match.OrgID) *quotaWindow {
	day := g.now().UTC().Format("2006-01-02")
	w, ok := g.windows[orgID]
	if !ok || w.day != day {
		w = &quotaWindow{day: day}
		g.windows[orgID] = w
	}
	return w
}

func (g *DailyQuotaGuard) Allow(_ context.Context, orgID match.OrgID) (bool, string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	w := g.window(orgID)
	if g.dailyCallLimit > 0 && w.calls >= g.dailyCallLimit {
		return false, "daily call limit reached"
	}
	if g.dailyBudgetUSD > 0 && w.spend >= g.dailyBudgetUSD {
		return false, "daily budget exhausted"
	}
	return true, ""
}

func (g *DailyQuotaGuard) Record(_ context.Context, orgID match.OrgID, costUSD float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	w := g.window(orgID)
	w.calls++
	w.spend += costUSD
}
