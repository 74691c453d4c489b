package services

import (
	"fmt"
	"sync"
	"time"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// SystemClock reads the wall clock.
type SystemClock struct{}

// Now returns the current time.
func (SystemClock) Now() time.Time { return time.Now() }

// UsageGovernor tracks per-day query count and spend and gates new queries.
// Days are UTC calendar dates; a new day starts from zero. Counters live
// in memory only and are lost on restart.
type UsageGovernor struct {
	mu         sync.Mutex
	clock      driven.Clock
	maxQueries int
	maxCostUSD float64
	days       map[string]*domain.DailyUsage
}

// NewUsageGovernor creates a governor. A nil clock uses the wall clock.
func NewUsageGovernor(limits domain.LimitSettings, clock driven.Clock) *UsageGovernor {
	if clock == nil {
		clock = SystemClock{}
	}
	return &UsageGovernor{
		clock:      clock,
		maxQueries: limits.MaxDailyQueries,
		maxCostUSD: limits.MaxDailyCostUSD,
		days:       make(map[string]*domain.DailyUsage),
	}
}

// today returns the current day's record, creating it lazily.
// Caller must hold the lock.
func (g *UsageGovernor) today() *domain.DailyUsage {
	now := g.clock.Now().UTC()
	period := now.Format(domain.PeriodLayout)
	day, ok := g.days[period]
	if !ok {
		day = &domain.DailyUsage{Period: period, StartedAt: now}
		g.days[period] = day
	}
	return day
}

// Admit reports whether a new query may start.
func (g *UsageGovernor) Admit() domain.Admission {
	g.mu.Lock()
	defer g.mu.Unlock()

	day := g.today()
	if day.Queries >= g.maxQueries {
		return domain.Admission{
			Reason: fmt.Sprintf("Daily query limit (%d) reached. Try again tomorrow.", g.maxQueries),
		}
	}
	if day.CostUSD >= g.maxCostUSD {
		return domain.Admission{
			Reason: fmt.Sprintf("Daily cost limit ($%.2f) reached. Try again tomorrow.", g.maxCostUSD),
		}
	}
	return domain.Admission{Allowed: true}
}

// Record adds one completed query and returns the updated day.
func (g *UsageGovernor) Record(inputTokens, outputTokens int, costUSD float64) domain.DailyUsage {
	g.mu.Lock()
	defer g.mu.Unlock()

	day := g.today()
	day.Queries++
	day.InputTokens += inputTokens
	day.OutputTokens += outputTokens
	day.CostUSD += costUSD
	return *day
}

// Snapshot returns today's usage and limits. DocumentsStored is left zero.
func (g *UsageGovernor) Snapshot() domain.UsageSnapshot {
	g.mu.Lock()
	defer g.mu.Unlock()

	day := g.today()
	return domain.UsageSnapshot{
		Period:       day.Period,
		Queries:      day.Queries,
		InputTokens:  day.InputTokens,
		OutputTokens: day.OutputTokens,
		TotalTokens:  day.TotalTokens(),
		CostUSD:      day.CostUSD,
		MaxQueries:   g.maxQueries,
		MaxCostUSD:   g.maxCostUSD,
	}
}

// Reset clears today's counters.
func (g *UsageGovernor) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.clock.Now().UTC()
	period := now.Format(domain.PeriodLayout)
	g.days[period] = &domain.DailyUsage{Period: period, StartedAt: now}
}
