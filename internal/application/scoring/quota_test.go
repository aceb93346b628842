package scoring

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDailyQuotaGuard_CallLimit(t *testing.T) {
	ctx := context.Background()
	g := NewDailyQuotaGuard(2, 0)

	ok, _ := g.Allow(ctx, "org-1")
	assert.True(t, ok)

	g.Record(ctx, "org-1", 0.01)
	g.Record(ctx, "org-1", 0.01)

	ok, reason := g.Allow(ctx, "org-1")
	assert.False(t, ok)
	assert.Equal(t, "daily call limit reached", reason)

	// Other orgs are unaffected.
	ok, _ = g.Allow(ctx, "org-2")
	assert.True(t, ok)
}

func TestDailyQuotaGuard_Budget(t *testing.T) {
	ctx := context.Background()
	g := NewDailyQuotaGuard(0, 0.05)

	g.Record(ctx, "org-1", 0.05)
	ok, reason := g.Allow(ctx, "org-1")
	assert.False(t, ok)
	assert.Equal(t, "daily budget exhausted", reason)
}

func TestDailyQuotaGuard_ResetsAtMidnightUTC(t *testing.T) {
	ctx := context.Background()
	g := NewDailyQuotaGuard(1, 0)

	day := time.Date(2026, 3, 1, 23, 0, 0, 0, time.UTC)
	g.now = func() time.Time { return day }
	g.Record(ctx, "org-1", 0)

	ok, _ := g.Allow(ctx, "org-1")
	assert.False(t, ok)

	g.now = func() time.Time { return day.Add(2 * time.Hour) }
	ok, _ = g.Allow(ctx, "org-1")
	assert.True(t, ok, "counters reset on the next UTC day")
}

func TestDailyQuotaGuard_UnlimitedWhenZero(t *testing.T) {
	ctx := context.Background()
	g := NewDailyQuotaGuard(0, 0)
	for i := 0; i < 100; i++ {
		g.Record(ctx, "org-1", 1)
	}
	ok, _ := g.Allow(ctx, "org-1")
	assert.True(t, ok)
}
