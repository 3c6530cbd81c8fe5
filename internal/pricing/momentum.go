package pricing

// MomentumTracker deriva fatores de momentum a partir de deltas de
// estatísticas de pressão entre ciclos de polling. Estado explícito por
// fixture; Forget remove a entrada quando a partida encerra.
type MomentumTracker struct {
	weights PressureWeights
	last    map[string]pressurePair
}

type pressurePair struct {
	home PressureStats
	away PressureStats
}

func NewMomentumTracker(w PressureWeights) *MomentumTracker {
	return &MomentumTracker{
		weights: w,
		last:    make(map[string]pressurePair),
	}
}

// Update registra os acumulados atuais e devolve os fatores de momentum
// home/away. Primeira observação de um fixture devolve neutro (1.0, 1.0).
// Deltas negativos (correção retroativa do fornecedor) são zerados.
func (m *MomentumTracker) Update(fixtureID string, home, away PressureStats) (float64, float64) {
	prev, seen := m.last[fixtureID]
	m.last[fixtureID] = pressurePair{home: home, away: away}
	if !seen {
		return 1.0, 1.0
	}

	hp := m.pressureIndex(delta(home, prev.home))
	ap := m.pressureIndex(delta(away, prev.away))

	// índice ~10 de pressão vira +100% antes do clamp do pipeline
	return 1.0 + hp/10.0, 1.0 + ap/10.0
}

// Forget descarta o estado do fixture (política de eviction: jogo encerrado).
func (m *MomentumTracker) Forget(fixtureID string) {
	delete(m.last, fixtureID)
}

func (m *MomentumTracker) pressureIndex(d PressureStats) float64 {
	return float64(d.DangerousAttacks)*m.weights.DangerousAttacks +
		float64(d.ShotsOnTarget)*m.weights.ShotsOnTarget +
		float64(d.Corners)*m.weights.Corners
}

func delta(cur, prev PressureStats) PressureStats {
	return PressureStats{
		DangerousAttacks: nonNegative(cur.DangerousAttacks - prev.DangerousAttacks),
		ShotsOnTarget:    nonNegative(cur.ShotsOnTarget - prev.ShotsOnTarget),
		Corners:          nonNegative(cur.Corners - prev.Corners),
	}
}

func nonNegative(v int) int {
	if v < 0 {
		return 0
	}
	return v
}
