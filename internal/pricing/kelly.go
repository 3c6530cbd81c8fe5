package pricing

// Staking dimensiona o stake por critério de Kelly fracionário com teto duro.
// Saída sempre em fração do bankroll; conversão para dinheiro é
// responsabilidade do ledger.
type Staking struct {
	Fraction float64 // amortecimento (default de política: 0.25)
	MaxStake float64 // teto por aposta (default de política: 0.05)
}

// StakeFraction calcula f = (b·p - q)/b, aplica o amortecimento e o teto.
// Edge implícito não-positivo, odds degeneradas ou probabilidade inválida
// devolvem 0 — nunca erro.
func (s Staking) StakeFraction(modelProb, marketOdds float64) float64 {
	if marketOdds <= 1.01 || modelProb <= 0 || modelProb >= 1 {
		return 0
	}

	b := marketOdds - 1.0
	p := modelProb
	q := 1.0 - p

	fullKelly := (b*p - q) / b
	if fullKelly <= 0 {
		return 0
	}

	stake := fullKelly * s.Fraction
	if stake > s.MaxStake {
		stake = s.MaxStake
	}
	return stake
}
