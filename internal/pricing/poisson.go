package pricing

import "math"

// Truncamento da grade conjunta: além de 12 gols adicionais por lado a massa
// é desprezível para lambdas <= 5. A grade é normalizada, então as
// probabilidades derivadas somam exatamente a massa total.
const maxGridGoals = 12

// OneXTwo são as probabilidades de resultado final da partida.
type OneXTwo struct {
	Home float64
	Draw float64
	Away float64
}

// MarketProb é o resultado de pricing de uma linha: probabilidade efetiva de
// vitória (líquida de push) e as massas brutas que a geraram.
type MarketProb struct {
	Effective float64 // win / (total - push)
	WinMass   float64
	PushMass  float64
}

// PoissonModel calcula probabilidades de mercados a partir da grade conjunta
// de Poissons independentes por lado. Stateless; todos os métodos são puros.
type PoissonModel struct{}

// grid devolve os PMFs truncados de cada lado e a massa total conjunta.
func (PoissonModel) grid(rates RateParams) (hpmf, apmf []float64, total float64) {
	hpmf = poissonPMF(rates.Home)
	apmf = poissonPMF(rates.Away)
	var hsum, asum float64
	for i := 0; i <= maxGridGoals; i++ {
		hsum += hpmf[i]
		asum += apmf[i]
	}
	return hpmf, apmf, hsum * asum
}

// OutcomeProbs calcula 1X2 considerando o placar corrente.
// Normalizado pela massa da grade: soma exatamente 1.
func (m PoissonModel) OutcomeProbs(rates RateParams, current Score) OneXTwo {
	hpmf, apmf, total := m.grid(rates)

	var home, draw, away float64
	for i := 0; i <= maxGridGoals; i++ {
		for j := 0; j <= maxGridGoals; j++ {
			p := hpmf[i] * apmf[j]
			switch {
			case current.Home+i > current.Away+j:
				home += p
			case current.Home+i == current.Away+j:
				draw += p
			default:
				away += p
			}
		}
	}
	return OneXTwo{Home: home / total, Draw: draw / total, Away: away / total}
}

// HandicapProb calcula a probabilidade efetiva de vitória de uma seleção
// em um handicap asiático. line é sempre cotada para o mandante; a seleção
// Away opera com a linha espelhada. Linhas de quarto são divididas nas duas
// meias-linhas adjacentes com peso igual.
func (m PoissonModel) HandicapProb(rates RateParams, current Score, line Line, side Side) MarketProb {
	if line.IsQuarter() {
		lo, hi := line.Split()
		a := m.handicapHalf(rates, current, lo, side)
		b := m.handicapHalf(rates, current, hi, side)
		return MarketProb{
			Effective: (a.Effective + b.Effective) / 2,
			WinMass:   (a.WinMass + b.WinMass) / 2,
			PushMass:  (a.PushMass + b.PushMass) / 2,
		}
	}
	return m.handicapHalf(rates, current, line, side)
}

// handicapHalf avalia uma linha inteira ou meia (sem split).
// Condição de vitória do mandante: diff > -line - (curH - curA), com diff os
// gols adicionais (i - j). Comparação exata em unidades de quarto.
func (m PoissonModel) handicapHalf(rates RateParams, current Score, line Line, side Side) MarketProb {
	hpmf, apmf, total := m.grid(rates)

	// threshold em unidades de quarto, do ponto de vista do mandante
	thresholdQ := int(-line) - 4*current.Diff()

	var win, push float64
	for i := 0; i <= maxGridGoals; i++ {
		for j := 0; j <= maxGridGoals; j++ {
			p := hpmf[i] * apmf[j]
			diffQ := 4 * (i - j)
			switch {
			case diffQ > thresholdQ:
				win += p
			case diffQ == thresholdQ:
				push += p
			}
		}
	}

	if side == SideAway {
		// vitória do visitante = massa que não é win nem push do mandante
		win = total - win - push
	}
	return effective(win, push, total)
}

// TotalsProb calcula a probabilidade efetiva de Over/Under de uma linha de
// total de gols, considerando os gols já marcados. Linhas de quarto são
// divididas como no handicap.
func (m PoissonModel) TotalsProb(rates RateParams, current Score, line Line, side Side) MarketProb {
	if line.IsQuarter() {
		lo, hi := line.Split()
		a := m.totalsHalf(rates, current, lo, side)
		b := m.totalsHalf(rates, current, hi, side)
		return MarketProb{
			Effective: (a.Effective + b.Effective) / 2,
			WinMass:   (a.WinMass + b.WinMass) / 2,
			PushMass:  (a.PushMass + b.PushMass) / 2,
		}
	}
	return m.totalsHalf(rates, current, line, side)
}

func (m PoissonModel) totalsHalf(rates RateParams, current Score, line Line, side Side) MarketProb {
	hpmf, apmf, total := m.grid(rates)

	// threshold de gols futuros em unidades de quarto
	thresholdQ := int(line) - 4*current.Total()

	var over, push float64
	for i := 0; i <= maxGridGoals; i++ {
		for j := 0; j <= maxGridGoals; j++ {
			p := hpmf[i] * apmf[j]
			totQ := 4 * (i + j)
			switch {
			case totQ > thresholdQ:
				over += p
			case totQ == thresholdQ:
				push += p
			}
		}
	}

	win := over
	if side == SideUnder {
		win = total - over - push
	}
	return effective(win, push, total)
}

// effective normaliza a massa de vitória pela massa não-push.
func effective(win, push, total float64) MarketProb {
	denom := total - push
	eff := 0.0
	if denom > 0 {
		eff = win / denom
	}
	return MarketProb{Effective: eff, WinMass: win, PushMass: push}
}

// poissonPMF devolve pmf(0..maxGridGoals) por recorrência estável:
// p(0) = e^-λ; p(k) = p(k-1)·λ/k.
func poissonPMF(lambda float64) []float64 {
	pmf := make([]float64, maxGridGoals+1)
	pmf[0] = math.Exp(-lambda)
	for k := 1; k <= maxGridGoals; k++ {
		pmf[k] = pmf[k-1] * lambda / float64(k)
	}
	return pmf
}
