package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func neutralSnapshot() MatchSnapshot {
	return MatchSnapshot{FixtureID: "fx-1", Minute: 0}
}

func TestAdjustedRatesNeutral(t *testing.T) {
	adj := NewAdjuster(DefaultTables())

	// minuto 0, sem contexto: todos os fatores neutros
	rates := adj.AdjustedRates(1.5, 1.2, neutralSnapshot())
	assert.InDelta(t, 1.5, rates.Home, 1e-9)
	assert.InDelta(t, 1.2, rates.Away, 1e-9)
}

func TestAdjustedRatesTimeDecay(t *testing.T) {
	adj := NewAdjuster(DefaultTables())

	snap := neutralSnapshot()
	snap.Minute = 45
	rates := adj.AdjustedRates(2.0, 2.0, snap)

	// metade do jogo restante, intensidade pré-intervalo 1.1
	assert.InDelta(t, 2.0*0.5*1.1, rates.Home, 1e-9)
	assert.InDelta(t, 2.0*0.5*1.1, rates.Away, 1e-9)
}

func TestAdjustedRatesGameState(t *testing.T) {
	adj := NewAdjuster(DefaultTables())

	// antes dos 60' o estado de jogo não entra
	snap := neutralSnapshot()
	snap.Minute = 50
	snap.Score = Score{Home: 0, Away: 1}
	rates := adj.AdjustedRates(1.8, 1.8, snap)
	assert.InDelta(t, rates.Home, rates.Away, 1e-9)

	// depois dos 60': quem perde por 1 se lança, quem ganha recua
	snap.Minute = 70
	rates = adj.AdjustedRates(1.8, 1.8, snap)
	ratio, _ := TimeDecay(70)
	assert.InDelta(t, 1.8*ratio*1.15, rates.Home, 1e-9)
	assert.InDelta(t, 1.8*ratio*0.90, rates.Away, 1e-9)
}

func TestAdjustedRatesRedCards(t *testing.T) {
	adj := NewAdjuster(DefaultTables())

	snap := neutralSnapshot()
	snap.RedCardsHome = 1
	rates := adj.AdjustedRates(2.0, 2.0, snap)

	assert.InDelta(t, 2.0*0.6, rates.Home, 1e-9)
	assert.InDelta(t, 2.0*1.2, rates.Away, 1e-9)

	// dois vermelhos compõem
	snap.RedCardsHome = 2
	rates = adj.AdjustedRates(2.0, 2.0, snap)
	assert.InDelta(t, 2.0*0.36, rates.Home, 1e-9)
	assert.InDelta(t, 2.0*1.44, rates.Away, 1e-9)
}

func TestAdjustedRatesMomentumClamp(t *testing.T) {
	adj := NewAdjuster(DefaultTables())

	snap := neutralSnapshot()
	snap.Ctx.HomeMomentum = 3.0 // fora do limite ±50%
	snap.Ctx.AwayMomentum = 0.1
	rates := adj.AdjustedRates(2.0, 2.0, snap)

	assert.InDelta(t, 2.0*1.5, rates.Home, 1e-9)
	assert.InDelta(t, 2.0*0.5, rates.Away, 1e-9)
}

func TestAdjustedRatesFatigueCrossTerms(t *testing.T) {
	adj := NewAdjuster(DefaultTables())

	snap := neutralSnapshot()
	snap.Ctx.FatigueHome = 1.0
	rates := adj.AdjustedRates(2.0, 2.0, snap)

	// ataque do cansado cai 15%, a defesa dele vaza 15% a favor do adversário
	assert.InDelta(t, 2.0*0.85, rates.Home, 1e-9)
	assert.InDelta(t, 2.0*1.15, rates.Away, 1e-9)
}

func TestAdjustedRatesKeyPlayersAndFortress(t *testing.T) {
	adj := NewAdjuster(DefaultTables())

	snap := neutralSnapshot()
	snap.Ctx.HomeMissingKeys = true
	snap.Ctx.HomeTeam = "Liverpool"
	rates := adj.AdjustedRates(2.0, 2.0, snap)

	assert.InDelta(t, 2.0*0.82*1.15, rates.Home, 1e-9)
	assert.InDelta(t, 2.0, rates.Away, 1e-9) // fortaleza só beneficia o mandante
}

func TestAdjustedRatesClamp(t *testing.T) {
	adj := NewAdjuster(DefaultTables())

	rates := adj.AdjustedRates(40.0, 0.001, neutralSnapshot())
	assert.Equal(t, 5.0, rates.Home)
	assert.Equal(t, 0.1, rates.Away)
}

func TestAdjustedRatesDeterministic(t *testing.T) {
	adj := NewAdjuster(DefaultTables())

	snap := neutralSnapshot()
	snap.Minute = 67
	snap.Score = Score{Home: 1, Away: 2}
	snap.Ctx = PricingContext{
		League:         "Premier League Russia",
		HomeTeam:       "Liverpool",
		HomeMomentum:   1.3,
		AwayMomentum:   0.9,
		MotivationHome: MotivationTitleRace,
		MotivationAway: MotivationMidTable,
		StyleHome:      StylePossession,
		StyleAway:      StyleCounter,
		Weather:        WeatherRain,
		FatigueHome:    0.4,
		FatigueAway:    0.7,
		Referee:        "Anthony Taylor",
	}
	snap.RedCardsAway = 1

	first := adj.AdjustedRates(1.6, 1.1, snap)
	for i := 0; i < 100; i++ {
		assert.Equal(t, first, adj.AdjustedRates(1.6, 1.1, snap))
	}
}
