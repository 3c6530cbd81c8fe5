package pricing

// SignalEvaluator compara odds justas com as cotadas e filtra por threshold.
// Thresholds separados por mercado: totais historicamente toleram edge maior
// que handicaps (defaults 0.05 e 0.03, configuráveis).
type SignalEvaluator struct {
	AHThreshold float64
	OUThreshold float64
}

// Evaluate devolve o edge (market/fair - 1) e se ele cruza o threshold do
// mercado. Entradas degeneradas (odds de mercado <= 1.01, fair <= 0) nunca
// geram sinal nem erro.
func (s SignalEvaluator) Evaluate(market MarketKind, fairOdds, marketOdds float64) (edge float64, ok bool) {
	if marketOdds <= 1.01 || fairOdds <= 0 {
		return 0, false
	}

	edge = marketOdds/fairOdds - 1.0

	threshold := s.AHThreshold
	if market == MarketOverUnder {
		threshold = s.OUThreshold
	}
	return edge, edge >= threshold
}

// Classificação de psicologia de mercado (anotação de display; não altera o
// fluxo de sinal).
const (
	PsychologyPanic = "PANIC_OVERREACTION"
	PsychologyHype  = "HYPE_TRAP"
)

// ClassifyPsychology detecta sobre-reação do mercado comparando a
// probabilidade do modelo com a implícita na cotação: pânico quando o modelo
// vê muito mais chance do que o preço (>25pp), hype quando o mercado está
// caro demais (>30pp).
func ClassifyPsychology(modelProb, marketOdds float64) (kind string, confidence float64) {
	if marketOdds <= 1.01 {
		return "", 0
	}
	implied := 1.0 / marketOdds

	if modelProb-implied > 0.25 {
		return PsychologyPanic, modelProb - implied
	}
	if implied-modelProb > 0.30 {
		return PsychologyHype, implied - modelProb
	}
	return "", 0
}
