package domain

import "time"

// PeriodLayout formats the UTC calendar day that keys daily usage.
const PeriodLayout = "2006-01-02"

// DailyUsage holds the counters for one UTC calendar day.
type DailyUsage struct {
	Period       string    `json:"period"`
	Queries      int       `json:"queries"`
	InputTokens  int       `json:"input_tokens"`
	OutputTokens int       `json:"output_tokens"`
	CostUSD      float64   `json:"cost_usd"`
	StartedAt    time.Time `json:"started_at"`
}

// TotalTokens returns input plus output tokens.
func (u DailyUsage) TotalTokens() int {
	return u.InputTokens + u.OutputTokens
}

// UsageSnapshot is today's usage together with the configured ceilings.
type UsageSnapshot struct {
	Period          string  `json:"period"`
	Queries         int     `json:"queries_today"`
	InputTokens     int     `json:"input_tokens"`
	OutputTokens    int     `json:"output_tokens"`
	TotalTokens     int     `json:"total_tokens_used"`
	CostUSD         float64 `json:"total_cost_usd"`
	MaxQueries      int     `json:"max_queries"`
	MaxCostUSD      float64 `json:"max_cost_usd"`
	DocumentsStored int     `json:"documents_stored"`
}

// Admission is the governor's decision for a new query.
type Admission struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}
