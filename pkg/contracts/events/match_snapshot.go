package events

import "time"

// Score é o placar corrente (gols já marcados).
type Score struct {
	Home int `json:"home"`
	Away int `json:"away"`
}

// Quote é uma cotação de mercado recebida do fornecedor.
// Line em gols (ex.: -0.75, 2.5); Side: Home/Away para AH, Over/Under para OU.
type Quote struct {
	Market string  `json:"market"` // "AH" | "OU"
	Line   float64 `json:"line"`
	Side   string  `json:"side"`
	Odds   float64 `json:"odds"`
}

// MatchSnapshot é o pacote publicado no tópico "match_snapshots" a cada ciclo
// de polling do fornecedor. SecondaryScore vem de uma fonte shadow quando
// disponível (consenso multi-fonte); nil = fonte única.
type MatchSnapshot struct {
	FixtureID string `json:"fixture_id"`
	League    string `json:"league,omitempty"`
	HomeTeam  string `json:"home_team"`
	AwayTeam  string `json:"away_team"`

	Minute         int    `json:"minute"`
	Score          Score  `json:"score"`
	SecondaryScore *Score `json:"secondary_score,omitempty"`
	RedCardsHome   int    `json:"red_cards_home"`
	RedCardsAway   int    `json:"red_cards_away"`

	// Expectativa de gols pré-jogo (base do pricing)
	BaseXGHome float64 `json:"base_xg_home"`
	BaseXGAway float64 `json:"base_xg_away"`

	// Deltas acumulados de estatísticas de pressão
	HomeDangerousAttacks int `json:"home_da"`
	AwayDangerousAttacks int `json:"away_da"`
	HomeShotsOnTarget    int `json:"home_sot"`
	AwayShotsOnTarget    int `json:"away_sot"`
	HomeCorners          int `json:"home_corners"`
	AwayCorners          int `json:"away_corners"`

	// Contexto opcional (campos ausentes assumem defaults neutros)
	Motivation struct {
		Home string `json:"home,omitempty"`
		Away string `json:"away,omitempty"`
	} `json:"motivation,omitempty"`
	Style struct {
		Home string `json:"home,omitempty"`
		Away string `json:"away,omitempty"`
	} `json:"style,omitempty"`
	Weather         string  `json:"weather,omitempty"`
	FatigueHome     float64 `json:"fatigue_home,omitempty"`
	FatigueAway     float64 `json:"fatigue_away,omitempty"`
	Referee         string  `json:"referee,omitempty"`
	RefereePenalty  float64 `json:"referee_penalty,omitempty"` // fator dinâmico; 0 = desconhecido
	HomeMissingKeys bool    `json:"home_missing_keys,omitempty"`
	AwayMissingKeys bool    `json:"away_missing_keys,omitempty"`

	Quotes []Quote `json:"quotes,omitempty"`

	Timestamp time.Time `json:"timestamp"` // hora do dado na origem
	Source    string    `json:"source"`
}

// MatchResult é publicado no tópico "match_results" quando um jogo encerra.
type MatchResult struct {
	FixtureID  string    `json:"fixture_id"`
	FinalScore Score     `json:"final_score"`
	FinishedAt time.Time `json:"finished_at"`
	Source     string    `json:"source"`
}
