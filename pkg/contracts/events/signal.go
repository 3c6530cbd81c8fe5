package events

import "time"

// SignalDetected é publicado no tópico "pricing_signals" quando o edge de uma
// linha cotada supera o threshold do mercado.
type SignalDetected struct {
	FixtureID  string  `json:"fixture_id"`
	Market     string  `json:"market"`
	Line       float64 `json:"line"`
	Side       string  `json:"side"`
	FairOdds   float64 `json:"fair_odds"`
	MarketOdds float64 `json:"market_odds"`
	Edge       float64 `json:"edge"`      // market/fair - 1
	StakePct   float64 `json:"stake_pct"` // fração do bankroll (Kelly amortecido)

	// Anotação de psicologia de mercado (display only)
	Psychology string `json:"psychology,omitempty"` // PANIC_OVERREACTION | HYPE_TRAP

	TsUnixMs int64 `json:"ts_unix_ms"`
}

// WagerPlaced é publicado após débito do stake e inserção do wager aberto.
type WagerPlaced struct {
	WagerID    string  `json:"wager_id"`
	FixtureID  string  `json:"fixture_id"`
	Market     string  `json:"market"`
	Line       float64 `json:"line"`
	Side       string  `json:"side"`
	Odds       float64 `json:"odds"`
	StakeCents int64   `json:"stake_cents"`
	Score      Score   `json:"score_at_placement"`
	TsUnixMs   int64   `json:"ts_unix_ms"`
}

// WagerSettled é publicado após o crédito do retorno no ledger.
type WagerSettled struct {
	WagerID     string    `json:"wager_id"`
	FixtureID   string    `json:"fixture_id"`
	Outcome     string    `json:"outcome"`      // Win | HalfWin | Push | HalfLoss | Loss
	PayoffCents int64     `json:"payoff_cents"` // lucro líquido (negativo em perda)
	ReturnCents int64     `json:"return_cents"` // stake + payoff creditado
	FinalScore  Score     `json:"final_score"`
	SettledAt   time.Time `json:"settled_at"`
}
