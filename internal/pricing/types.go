package pricing

import "time"

// Side identifica o lado de um mercado de duas saídas.
type Side string

const (
	SideHome  Side = "Home"
	SideAway  Side = "Away"
	SideOver  Side = "Over"
	SideUnder Side = "Under"
)

// MarketKind é o tipo de mercado apostável.
type MarketKind string

const (
	MarketAsianHandicap MarketKind = "AH"
	MarketOverUnder     MarketKind = "OU"
)

// Score é o placar corrente de uma partida.
type Score struct {
	Home int
	Away int
}

func (s Score) Total() int { return s.Home + s.Away }
func (s Score) Diff() int  { return s.Home - s.Away }

// RateParams são os parâmetros de gols esperados restantes (lambda) por lado.
// Efêmeros: derivados a cada chamada de pricing a partir do xG base e do snapshot.
type RateParams struct {
	Home float64
	Away float64
}

// PricingContext agrupa os insumos opcionais de ajuste contextual.
// Campos zero assumem defaults neutros (fator 1.0), conforme documentado em
// cada etapa do pipeline de ajuste.
type PricingContext struct {
	League   string
	HomeTeam string // usado no bônus de "fortaleza" do mandante

	// Fatores de momentum já calculados a partir das estatísticas de pressão
	// (1.0 = neutro; o pipeline limita a ±50%)
	HomeMomentum float64
	AwayMomentum float64

	MotivationHome string
	MotivationAway string
	StyleHome      string
	StyleAway      string
	Weather        string

	FatigueHome float64 // 0..1
	FatigueAway float64 // 0..1

	Referee        string
	RefereePenalty float64 // estatística dinâmica; 0 = desconhecida, cai na tabela estática

	HomeMissingKeys bool
	AwayMissingKeys bool
}

// MatchSnapshot é a visão imutável de uma partida em um ciclo de polling.
type MatchSnapshot struct {
	FixtureID string
	Minute    int
	Score     Score

	RedCardsHome int
	RedCardsAway int

	Ctx PricingContext

	Timestamp time.Time // hora do dado na origem
}

// PressureStats são contadores acumulados de pressão ofensiva, usados para
// derivar o momentum por deltas entre ciclos.
type PressureStats struct {
	DangerousAttacks int
	ShotsOnTarget    int
	Corners          int
}
