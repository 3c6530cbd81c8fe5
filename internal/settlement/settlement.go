// Package settlement resolve wagers contra placares finais.
//
// Todas as funções são puras: mesmo (placar na aposta, placar final, linha,
// seleção) produz sempre o mesmo resultado. Linhas em unidades de quarto de
// gol tornam as comparações win/push/loss inteiras e exatas — sem os epsilons
// inconsistentes de implementações ad hoc.
package settlement

import (
	"math"

	"github.com/kentsang666/football-ai-live/internal/pricing"
)

// Outcome é o estado terminal de um wager.
type Outcome string

const (
	Win      Outcome = "Win"
	HalfWin  Outcome = "HalfWin"
	Push     Outcome = "Push"
	HalfLoss Outcome = "HalfLoss"
	Loss     Outcome = "Loss"
)

// resultado de uma meia-linha: +1 win, 0 push, -1 loss
type halfResult int

// SettleHandicap resolve um handicap asiático. line é a linha cotada para o
// mandante no momento da aposta; placed é o placar na colocação e final o
// placar encerrado. Linhas de quarto são divididas nas duas meias-linhas
// adjacentes com meio stake cada.
func SettleHandicap(line pricing.Line, selection pricing.Side, placed, final pricing.Score) Outcome {
	absQ := line.Abs()

	if line.IsQuarter() {
		lo, hi := absQ.Split()
		r1 := settleHandicapHalf(lo, line, selection, placed, final)
		r2 := settleHandicapHalf(hi, line, selection, placed, final)
		return combine(r1, r2)
	}
	return single(settleHandicapHalf(absQ, line, selection, placed, final))
}

// settleHandicapHalf resolve uma meia-linha (inteira ou meia) de módulo absQ.
// O sinal da linha original + seleção determinam se a seleção é a favorita
// (dá gols, compare = +absQ) ou a azarona (recebe, compare = -absQ).
func settleHandicapHalf(absQ, line pricing.Line, selection pricing.Side, placed, final pricing.Score) halfResult {
	var compareQ int
	switch {
	case line == 0:
		compareQ = 0
	case line < 0: // mandante dá gols
		if selection == pricing.SideHome {
			compareQ = int(absQ)
		} else {
			compareQ = -int(absQ)
		}
	default: // visitante dá gols
		if selection == pricing.SideHome {
			compareQ = -int(absQ)
		} else {
			compareQ = int(absQ)
		}
	}

	var selDelta, oppDelta int
	if selection == pricing.SideHome {
		selDelta = final.Home - placed.Home
		oppDelta = final.Away - placed.Away
	} else {
		selDelta = final.Away - placed.Away
		oppDelta = final.Home - placed.Home
	}

	deltaQ := 4 * (selDelta - oppDelta)
	switch {
	case deltaQ > compareQ:
		return 1
	case deltaQ < compareQ:
		return -1
	default:
		return 0
	}
}

// SettleTotals resolve um mercado de total de gols contra o total final.
// A linha de totais é absoluta (não relativa ao placar na aposta).
func SettleTotals(line pricing.Line, selection pricing.Side, final pricing.Score) Outcome {
	if line.IsQuarter() {
		lo, hi := line.Split()
		r1 := settleTotalsHalf(lo, selection, final)
		r2 := settleTotalsHalf(hi, selection, final)
		return combine(r1, r2)
	}
	return single(settleTotalsHalf(line, selection, final))
}

func settleTotalsHalf(line pricing.Line, selection pricing.Side, final pricing.Score) halfResult {
	totalQ := 4 * final.Total()
	lineQ := int(line)

	var r halfResult
	switch {
	case totalQ > lineQ:
		r = 1
	case totalQ < lineQ:
		r = -1
	}
	if selection == pricing.SideUnder {
		r = -r
	}
	return r
}

// single mapeia o resultado de uma linha cheia.
func single(r halfResult) Outcome {
	switch r {
	case 1:
		return Win
	case -1:
		return Loss
	default:
		return Push
	}
}

// combine soma as duas metades de uma linha de quarto.
func combine(a, b halfResult) Outcome {
	switch a + b {
	case 2:
		return Win
	case 1:
		return HalfWin
	case -1:
		return HalfLoss
	case -2:
		return Loss
	default:
		return Push
	}
}

// PayoffCents calcula o lucro líquido em cents de um stake resolvido com o
// outcome dado às odds cotadas. Negativo em perda, zero em push. O crédito
// de ledger correspondente é stake + payoff.
func PayoffCents(outcome Outcome, stakeCents int64, odds float64) int64 {
	switch outcome {
	case Win:
		return int64(math.Round(float64(stakeCents) * (odds - 1.0)))
	case HalfWin:
		return int64(math.Round(float64(stakeCents) / 2 * (odds - 1.0)))
	case Push:
		return 0
	case HalfLoss:
		// metade do stake devolvida; arredonda a perda para baixo do lado da casa
		return -(stakeCents - stakeCents/2)
	case Loss:
		return -stakeCents
	default:
		return 0
	}
}
