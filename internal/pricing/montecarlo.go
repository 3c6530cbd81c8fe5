package pricing

import (
	"math"
	"math/rand"
)

// Ensemble é o estimador estocástico independente das mesmas probabilidades
// do modelo fechado, pensado para capturar variância de cauda gorda que o
// Poisson puro subestima. A fonte aleatória é injetada: produção usa seed de
// relógio, testes fixam a seed e obtêm frequências bit-idênticas.
type Ensemble struct {
	trials int
	rng    *rand.Rand
}

// NewEnsemble cria um ensemble com n trials (ex.: 500) e a fonte dada.
func NewEnsemble(trials int, src rand.Source) *Ensemble {
	if trials <= 0 {
		trials = 500
	}
	return &Ensemble{trials: trials, rng: rand.New(src)}
}

// EnsembleResult são as frequências empíricas das simulações.
type EnsembleResult struct {
	Outcome OneXTwo
	// Over[line] = frequência de cauda P(total final > linha). Só equivale à
	// probabilidade efetiva do mercado em linhas meias (.5), que não têm
	// massa de push para separar.
	Over map[Line]float64
}

// Run simula trials finais de partida somando gols adicionais Poisson ao
// placar corrente e tabula 1X2 e Over para as linhas pedidas.
func (e *Ensemble) Run(rates RateParams, current Score, ouLines []Line) EnsembleResult {
	var homeWins, draws, awayWins int
	overCounts := make(map[Line]int, len(ouLines))

	for t := 0; t < e.trials; t++ {
		h := current.Home + poissonSample(e.rng, rates.Home)
		a := current.Away + poissonSample(e.rng, rates.Away)

		switch {
		case h > a:
			homeWins++
		case h == a:
			draws++
		default:
			awayWins++
		}

		totQ := Line(4 * (h + a))
		for _, line := range ouLines {
			if totQ > line {
				overCounts[line]++
			}
		}
	}

	n := float64(e.trials)
	res := EnsembleResult{
		Outcome: OneXTwo{
			Home: float64(homeWins) / n,
			Draw: float64(draws) / n,
			Away: float64(awayWins) / n,
		},
		Over: make(map[Line]float64, len(ouLines)),
	}
	for _, line := range ouLines {
		res.Over[line] = float64(overCounts[line]) / n
	}
	return res
}

// Blend combina a estimativa fechada com a empírica: w·poisson + (1-w)·mc.
func Blend(poisson, monteCarlo, poissonWeight float64) float64 {
	return poissonWeight*poisson + (1-poissonWeight)*monteCarlo
}

// poissonSample usa o método multiplicativo de Knuth; adequado para os
// lambdas limitados do pipeline (<= 5).
func poissonSample(rng *rand.Rand, lambda float64) int {
	limit := math.Exp(-lambda)
	k := 0
	p := 1.0
	for {
		p *= rng.Float64()
		if p <= limit {
			return k
		}
		k++
	}
}
