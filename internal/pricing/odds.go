package pricing

// Limites do conversor de odds justas: piso evita odds infinitesimais quando
// a probabilidade beira 1, teto evita odds infinitas quando beira 0.
const (
	MinFairOdds = 1.01
	MaxFairOdds = 99.0
)

// FairOdds converte uma probabilidade efetiva (já líquida de push) em odds
// decimais justas. Probabilidade não-positiva devolve o teto.
func FairOdds(probability float64) float64 {
	if probability <= 0 {
		return MaxFairOdds
	}
	odds := 1.0 / probability
	if odds < MinFairOdds {
		return MinFairOdds
	}
	if odds > MaxFairOdds {
		return MaxFairOdds
	}
	return odds
}
