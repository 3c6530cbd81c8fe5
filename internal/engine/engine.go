// Package engine orquestra o ciclo de pricing ao vivo: guarda de integridade,
// ajuste contextual, modelo de Poisson + ensemble Monte Carlo, detecção de
// sinal e colocação de ordens de papel no ledger.
package engine

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/kentsang666/football-ai-live/internal/guard"
	"github.com/kentsang666/football-ai-live/internal/ledger"
	"github.com/kentsang666/football-ai-live/internal/pricing"
	"github.com/kentsang666/football-ai-live/pkg/contracts/events"
)

// Engine executa um ciclo de pricing por snapshot. Falha em uma partida não
// derruba o ciclo das demais. Cache, broadcast e writers Kafka são opcionais
// (nil desliga a integração; o modo standalone roda só com o ledger).
type Engine struct {
	Log      *zap.Logger
	Guard    *guard.Guard
	Momentum *pricing.MomentumTracker
	Adjuster *pricing.Adjuster
	Model    pricing.PoissonModel
	Ensemble *pricing.Ensemble

	Evaluator pricing.SignalEvaluator
	Staking   pricing.Staking

	// peso da parte fechada no blend Poisson/Monte Carlo (default de política: 0.7)
	BlendWeight float64

	Store ledger.Store

	Cache     *PriceCache
	Broadcast *Broadcaster
	Signals   MessageWriter // tópico pricing_signals
	Wagers    MessageWriter // tópico wager_placed

	OnPriced func()       // métricas (counter++)
	OnSignal func()       // métricas
	OnOrder  func()       // métricas
	OnSkip   func(string) // métricas por motivo de skip
	OnError  func(string) // métricas por fase
}

// RunCycle precifica todos os snapshots do ciclo de polling.
func (e *Engine) RunCycle(ctx context.Context, snaps []events.MatchSnapshot) {
	for _, snap := range snaps {
		if ctx.Err() != nil {
			return
		}
		e.priceFixture(ctx, snap)
	}
}

func (e *Engine) priceFixture(ctx context.Context, ev events.MatchSnapshot) {
	log := e.Log.With(zap.String("fixture", ev.FixtureID))

	// 1. frescor do feed
	if err := e.Guard.CheckFreshness(ev.Timestamp); err != nil {
		log.Warn("snapshot rejected", zap.Error(err))
		e.skip("stale")
		return
	}

	// 2. consenso entre fontes de placar: divergência suspende o fixture
	var secondary *pricing.Score
	if ev.SecondaryScore != nil {
		s := toPricingScore(*ev.SecondaryScore)
		secondary = &s
	}
	score := toPricingScore(ev.Score)
	trust, err := e.Guard.Consensus(ev.FixtureID, score, secondary)
	if err != nil {
		log.Warn("score conflict, fixture suspended", zap.Error(err))
		e.skip("conflict")
		return
	}

	// 3. janela pós-evento: mercado ainda digerindo o gol
	if err := e.Guard.ObserveScore(ev.FixtureID, score); err != nil {
		log.Debug("pricing frozen", zap.Error(err))
		e.skip("freeze")
		return
	}

	// 4. momentum por deltas de pressão
	hStats, aStats := pressureStats(ev)
	homeMom, awayMom := e.Momentum.Update(ev.FixtureID, hStats, aStats)

	// 5. cadeia de ajustes contextuais sobre o xG base
	snap := toPricingSnapshot(ev, homeMom, awayMom)
	rates := e.Adjuster.AdjustedRates(ev.BaseXGHome, ev.BaseXGAway, snap)

	// 6. modelo fechado + ensemble estocástico
	outcome := e.Model.OutcomeProbs(rates, score)
	mc := e.Ensemble.Run(rates, score, blendableLines(ev.Quotes))

	update := events.PricingUpdate{
		FixtureID:  ev.FixtureID,
		HomeTeam:   ev.HomeTeam,
		AwayTeam:   ev.AwayTeam,
		Minute:     ev.Minute,
		Score:      ev.Score,
		ProbHome:   pricing.Blend(outcome.Home, mc.Outcome.Home, e.BlendWeight),
		ProbDraw:   pricing.Blend(outcome.Draw, mc.Outcome.Draw, e.BlendWeight),
		ProbAway:   pricing.Blend(outcome.Away, mc.Outcome.Away, e.BlendWeight),
		LambdaHome: rates.Home,
		LambdaAway: rates.Away,
		Trust:      string(trust),
		UpdatedAt:  time.Now().UTC(),
	}

	// 7. precifica cada linha cotada e age nos edges
	for _, q := range ev.Quotes {
		prob, ok := e.quoteProb(rates, score, q, mc)
		if !ok {
			e.skip("unknown_market")
			continue
		}
		fair := pricing.FairOdds(prob)
		update.Markets = append(update.Markets, events.MarketPrice{
			Market:      q.Market,
			Line:        q.Line,
			Side:        q.Side,
			Probability: prob,
			FairOdds:    fair,
			MarketOdds:  q.Odds,
		})
		e.act(ctx, ev, q, prob, fair)
	}

	e.publish(ctx, log, update)
	if e.OnPriced != nil {
		e.OnPriced()
	}
}

// quoteProb calcula a probabilidade do modelo para uma linha cotada.
// Só linhas de total meias (.5) combinam a parte fechada com a frequência
// empírica do ensemble: são as únicas sem massa de push, então a frequência
// de cauda P(total > linha) estima a mesma grandeza que o modelo fechado.
// Linhas inteiras e de quarto ficam só no fechado — o quarto divide em duas
// meias-linhas e a inteira dessas carrega push, que a frequência bruta não
// separa da massa de derrota.
func (e *Engine) quoteProb(rates pricing.RateParams, current pricing.Score, q events.Quote, mc pricing.EnsembleResult) (float64, bool) {
	line := pricing.LineFromFloat(q.Line)
	side := pricing.Side(q.Side)

	switch pricing.MarketKind(q.Market) {
	case pricing.MarketAsianHandicap:
		if side != pricing.SideHome && side != pricing.SideAway {
			return 0, false
		}
		return e.Model.HandicapProb(rates, current, line, side).Effective, true

	case pricing.MarketOverUnder:
		if side != pricing.SideOver && side != pricing.SideUnder {
			return 0, false
		}
		p := e.Model.TotalsProb(rates, current, line, side).Effective
		if mcOver, ok := mc.Over[line]; ok && line.IsHalf() {
			empirical := mcOver
			if side == pricing.SideUnder {
				empirical = 1 - mcOver
			}
			p = pricing.Blend(p, empirical, e.BlendWeight)
		}
		return p, true
	}
	return 0, false
}

// blendableLines seleciona as linhas de total meias para o ensemble.
func blendableLines(quotes []events.Quote) []pricing.Line {
	var out []pricing.Line
	seen := make(map[pricing.Line]bool)
	for _, q := range quotes {
		if pricing.MarketKind(q.Market) != pricing.MarketOverUnder {
			continue
		}
		line := pricing.LineFromFloat(q.Line)
		if !line.IsHalf() { // inteira e quarto têm push; ficam no modelo fechado
			continue
		}
		if !seen[line] {
			seen[line] = true
			out = append(out, line)
		}
	}
	return out
}

// act publica o sinal e coloca a ordem quando o edge cruza o threshold.
func (e *Engine) act(ctx context.Context, ev events.MatchSnapshot, q events.Quote, prob, fair float64) {
	edge, ok := e.Evaluator.Evaluate(pricing.MarketKind(q.Market), fair, q.Odds)
	if !ok {
		return
	}

	stakePct := e.Staking.StakeFraction(prob, q.Odds)
	psy, _ := pricing.ClassifyPsychology(prob, q.Odds)

	now := time.Now().UTC()
	sig := events.SignalDetected{
		FixtureID:  ev.FixtureID,
		Market:     q.Market,
		Line:       q.Line,
		Side:       q.Side,
		FairOdds:   fair,
		MarketOdds: q.Odds,
		Edge:       edge,
		StakePct:   stakePct,
		Psychology: psy,
		TsUnixMs:   now.UnixMilli(),
	}
	e.write(ctx, e.Signals, ev.FixtureID, sig, "signal_publish")
	if e.OnSignal != nil {
		e.OnSignal()
	}

	if stakePct <= 0 {
		return
	}

	balance, err := e.Store.BalanceCents(ctx)
	if err != nil {
		e.Log.Error("balance read failed", zap.Error(err))
		e.fail("balance")
		return
	}

	w := ledger.Wager{
		ID:          uuid.New().String(),
		FixtureID:   ev.FixtureID,
		Market:      pricing.MarketKind(q.Market),
		Line:        pricing.LineFromFloat(q.Line),
		Side:        pricing.Side(q.Side),
		Odds:        q.Odds,
		StakeCents:  int64(stakePct * float64(balance)),
		PlacedScore: toPricingScore(ev.Score),
		PlacedAt:    now,
	}

	switch err := e.Store.PlaceOrder(ctx, w); {
	case err == nil:
	case errors.Is(err, ledger.ErrDuplicateOrder):
		e.skip("duplicate")
		return
	case errors.Is(err, ledger.ErrStakeTooSmall):
		e.skip("min_stake")
		return
	case errors.Is(err, ledger.ErrInsufficientFunds):
		e.Log.Warn("order rejected, insufficient funds",
			zap.String("fixture", ev.FixtureID), zap.Int64("stake_cents", w.StakeCents))
		e.skip("funds")
		return
	default:
		e.Log.Error("order placement failed", zap.Error(err))
		e.fail("place_order")
		return
	}

	e.Log.Info("paper order placed",
		zap.String("fixture", ev.FixtureID),
		zap.String("market", q.Market),
		zap.Float64("line", q.Line),
		zap.String("side", q.Side),
		zap.Float64("odds", q.Odds),
		zap.Float64("edge", edge),
		zap.Int64("stake_cents", w.StakeCents))

	placed := events.WagerPlaced{
		WagerID:    w.ID,
		FixtureID:  w.FixtureID,
		Market:     q.Market,
		Line:       q.Line,
		Side:       q.Side,
		Odds:       q.Odds,
		StakeCents: w.StakeCents,
		Score:      ev.Score,
		TsUnixMs:   now.UnixMilli(),
	}
	e.write(ctx, e.Wagers, w.FixtureID, placed, "wager_publish")
	if e.OnOrder != nil {
		e.OnOrder()
	}
}

// publish atualiza o cache e o canal de broadcast; falhas não interrompem o
// ciclo (o dashboard degrada, o pricing continua).
func (e *Engine) publish(ctx context.Context, log *zap.Logger, up events.PricingUpdate) {
	if e.Cache != nil {
		if err := e.Cache.SetCurrent(ctx, up); err != nil {
			log.Warn("redis set failed", zap.Error(err))
			e.fail("cache")
		}
	}
	if e.Broadcast != nil {
		b, _ := json.Marshal(WSUpdate{FixtureID: up.FixtureID, Payload: up})
		bctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
		defer cancel()
		if err := e.Broadcast.Publish(bctx, ChannelPricingBroadcast, b); err != nil {
			log.Warn("ws broadcast publish failed", zap.Error(err))
			e.fail("broadcast")
		}
	}
}

func (e *Engine) write(ctx context.Context, w MessageWriter, key string, payload any, stage string) {
	if w == nil {
		return
	}
	b, err := json.Marshal(payload)
	if err != nil {
		e.fail(stage)
		return
	}
	if err := w.WriteMessages(ctx, kafka.Message{Key: []byte(key), Value: b}); err != nil {
		e.Log.Warn("kafka write failed", zap.String("stage", stage), zap.Error(err))
		e.fail(stage)
	}
}

func (e *Engine) skip(reason string) {
	if e.OnSkip != nil {
		e.OnSkip(reason)
	}
}

func (e *Engine) fail(stage string) {
	if e.OnError != nil {
		e.OnError(stage)
	}
}
