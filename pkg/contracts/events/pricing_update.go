package events

import "time"

// MarketPrice é o preço justo calculado para uma linha cotada.
type MarketPrice struct {
	Market      string  `json:"market"`
	Line        float64 `json:"line"`
	Side        string  `json:"side"`
	Probability float64 `json:"probability"` // líquida de push
	FairOdds    float64 `json:"fair_odds"`
	MarketOdds  float64 `json:"market_odds,omitempty"` // 0 = sem cotação (degradação display-only)
}

// PricingUpdate é o resultado de um ciclo de pricing de uma partida,
// cacheado no Redis e transmitido via Pub/Sub para o dashboard.
type PricingUpdate struct {
	FixtureID string `json:"fixture_id"`
	HomeTeam  string `json:"home_team"`
	AwayTeam  string `json:"away_team"`
	Minute    int    `json:"minute"`
	Score     Score  `json:"score"`

	// 1X2 combinado (Poisson + Monte Carlo)
	ProbHome float64 `json:"prob_home"`
	ProbDraw float64 `json:"prob_draw"`
	ProbAway float64 `json:"prob_away"`

	LambdaHome float64 `json:"lambda_home"`
	LambdaAway float64 `json:"lambda_away"`

	Markets []MarketPrice `json:"markets"`

	Trust     string    `json:"trust"` // HIGH_CONSENSUS | SINGLE_SOURCE
	UpdatedAt time.Time `json:"updated_at"`
}
