package pricing

// TimeDecay converte o minuto decorrido na fração de jogo restante e no
// multiplicador de intensidade de fim de jogo. Sem efeitos colaterais.
//
// A intensidade é uma função degrau de duas faixas: sprint final (>75') e
// pressão pré-intervalo (40'..45']. Mantida sem interpolação de propósito.
func TimeDecay(minute int) (remainingRatio, intensity float64) {
	remaining := 90 - minute
	if remaining < 0 {
		remaining = 0
	}
	remainingRatio = float64(remaining) / 90.0

	intensity = 1.0
	switch {
	case minute > 75:
		intensity = 1.2
	case minute > 40 && minute <= 45:
		intensity = 1.1
	}
	return remainingRatio, intensity
}
