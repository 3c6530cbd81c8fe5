package pricing

import "math"

// Limites do pipeline de ajuste.
const (
	// lambda final por lado fica em [0.1, 5.0] gols restantes, evitando
	// parâmetros de Poisson degenerados
	minLambda = 0.1
	maxLambda = 5.0

	// momentum limitado a ±50%
	minMomentum = 0.5
	maxMomentum = 1.5

	// penalidade por ausência de jogadores-chave
	keyPlayerPenalty = 0.82

	// efeito máximo da fadiga: ataque -15%, vazamento defensivo +15%
	fatigueAttackDrop  = 0.15
	fatigueDefenseLeak = 0.15

	// cartão vermelho: ataque do punido e boost do adversário, por cartão
	redCardAttackFactor = 0.6
	redCardBoostFactor  = 1.2
)

// Adjuster aplica a cadeia ordenada de fatores multiplicativos sobre os
// xG base, produzindo os lambdas de pricing. Funções puras sobre as tabelas.
type Adjuster struct {
	Tables *Tables
}

func NewAdjuster(t *Tables) *Adjuster { return &Adjuster{Tables: t} }

// AdjustedRates calcula (lambda_home, lambda_away) para o snapshot.
// Ordem fixa de aplicação (documentada, reprodutível):
//  1. decaimento de tempo + intensidade
//  2. momentum (clamp ±50%)
//  3. correção de estado de jogo (só após 60')
//  4. volatilidade da liga
//  5. ausência de jogadores-chave
//  6. viés do árbitro
//  7. fadiga (cross-terms: ataque próprio, vazamento adversário)
//  8. motivação
//  9. confronto de estilos
// 10. clima
// 11. fortaleza do mandante
// 12. cartões vermelhos
// Clamp final em [0.1, 5.0].
func (a *Adjuster) AdjustedRates(baseHome, baseAway float64, snap MatchSnapshot) RateParams {
	ctx := snap.Ctx
	t := a.Tables

	// 1. tempo restante e intensidade
	ratio, intensity := TimeDecay(snap.Minute)

	// 2. momentum limitado
	homeMom := clamp(defaultNeutral(ctx.HomeMomentum), minMomentum, maxMomentum)
	awayMom := clamp(defaultNeutral(ctx.AwayMomentum), minMomentum, maxMomentum)

	// 3. estado de jogo: quem perde se lança, quem ganha recua
	gsHome, gsAway := gameStateFactors(snap.Minute, snap.Score)

	// 4. liga
	league := t.leagueFactor(ctx.League)

	// 5. desfalques
	starHome, starAway := 1.0, 1.0
	if ctx.HomeMissingKeys {
		starHome = keyPlayerPenalty
	}
	if ctx.AwayMissingKeys {
		starAway = keyPlayerPenalty
	}

	// 6. árbitro (afeta os dois lados igualmente — pênaltis)
	ref := t.refereeFactor(ctx.Referee, ctx.RefereePenalty)

	// 7. fadiga: ataque próprio cai, defesa vaza a favor do adversário
	hAtt := 1.0 - clamp(ctx.FatigueHome, 0, 1)*fatigueAttackDrop
	hLeak := 1.0 + clamp(ctx.FatigueHome, 0, 1)*fatigueDefenseLeak
	aAtt := 1.0 - clamp(ctx.FatigueAway, 0, 1)*fatigueAttackDrop
	aLeak := 1.0 + clamp(ctx.FatigueAway, 0, 1)*fatigueDefenseLeak

	// 8. motivação
	motHome := t.motivationFactor(ctx.MotivationHome)
	motAway := t.motivationFactor(ctx.MotivationAway)

	// 9. estilos
	styleHome, styleAway := t.clashFactors(ctx.StyleHome, ctx.StyleAway)

	// 10. clima
	weather := t.weatherFactor(ctx.Weather)

	// 11. fortaleza só beneficia o mandante
	fortress := t.fortressFactor(ctx.HomeTeam)

	// 12. vermelhos
	redHome := math.Pow(redCardAttackFactor, float64(snap.RedCardsHome)) *
		math.Pow(redCardBoostFactor, float64(snap.RedCardsAway))
	redAway := math.Pow(redCardAttackFactor, float64(snap.RedCardsAway)) *
		math.Pow(redCardBoostFactor, float64(snap.RedCardsHome))

	lambdaHome := baseHome * ratio * intensity * homeMom * gsHome * league *
		starHome * ref * hAtt * aLeak * motHome * styleHome * weather * fortress * redHome
	lambdaAway := baseAway * ratio * intensity * awayMom * gsAway * league *
		starAway * ref * aAtt * hLeak * motAway * styleAway * weather * redAway

	return RateParams{
		Home: clamp(lambdaHome, minLambda, maxLambda),
		Away: clamp(lambdaAway, minLambda, maxLambda),
	}
}

// gameStateFactors aplica a correção assimétrica por diferença de gols,
// somente depois dos 60 minutos: atrás por 1 ×1.15, atrás por 2+ ×1.10,
// à frente ×0.90.
func gameStateFactors(minute int, score Score) (float64, float64) {
	if minute <= 60 {
		return 1.0, 1.0
	}
	diff := score.Diff()
	switch {
	case diff == 0:
		return 1.0, 1.0
	case diff == -1:
		return 1.15, 0.90
	case diff < -1:
		return 1.10, 0.90
	case diff == 1:
		return 0.90, 1.15
	default: // diff > 1
		return 0.90, 1.10
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// defaultNeutral trata momentum zero-value como neutro (campo opcional).
func defaultNeutral(v float64) float64 {
	if v == 0 {
		return 1.0
	}
	return v
}
