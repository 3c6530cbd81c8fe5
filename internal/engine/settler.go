package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/kentsang666/football-ai-live/internal/guard"
	"github.com/kentsang666/football-ai-live/internal/ledger"
	"github.com/kentsang666/football-ai-live/internal/pricing"
	"github.com/kentsang666/football-ai-live/internal/settlement"
	"github.com/kentsang666/football-ai-live/pkg/contracts/events"
)

// Settler consome match_results e liquida os wagers abertos do fixture.
// Falha persistente de crédito vai para a DLQ com alerta: dinheiro de papel
// preso é bug de contabilidade, nunca é descartado em silêncio.
type Settler struct {
	Log    *zap.Logger
	Reader MessageReader
	Store  ledger.Store

	Guard    *guard.Guard             // opcional: eviction de estado pós-jogo
	Momentum *pricing.MomentumTracker // opcional: idem
	Feed     *KafkaFeed               // opcional: idem

	Settled MessageWriter // tópico wager_settled
	DLQ     MessageWriter // tópico wager_settled_dlq

	MaxAttempts int           // tentativas de crédito antes da DLQ
	RetryDelay  time.Duration // espera entre tentativas

	OnConsumed func()       // métricas (counter++)
	OnSettled  func()       // métricas
	OnError    func(string) // métricas por fase
}

// Run inicia o loop de consumo; bloqueia até o contexto encerrar.
func (s *Settler) Run(ctx context.Context) error {
	for {
		m, err := s.Reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.Log.Warn("kafka read failed", zap.Error(err))
			if s.OnError != nil {
				s.OnError("read")
			}
			time.Sleep(500 * time.Millisecond)
			continue
		}

		if s.OnConsumed != nil {
			s.OnConsumed()
		}

		var res events.MatchResult
		if err := json.Unmarshal(m.Value, &res); err != nil {
			s.Log.Warn("invalid result message", zap.Error(err))
			if s.OnError != nil {
				s.OnError("decode")
			}
			continue
		}

		s.HandleResult(ctx, res)
	}
}

// HandleResult liquida todos os wagers abertos do fixture encerrado e limpa o
// estado por-fixture dos componentes do pipeline.
func (s *Settler) HandleResult(ctx context.Context, res events.MatchResult) {
	log := s.Log.With(zap.String("fixture", res.FixtureID))

	open, err := s.Store.OpenWagers(ctx, res.FixtureID)
	if err != nil {
		log.Error("open wagers read failed", zap.Error(err))
		if s.OnError != nil {
			s.OnError("open_wagers")
		}
		return
	}

	final := toPricingScore(res.FinalScore)
	for _, w := range open {
		outcome, err := resolve(w, final)
		if err != nil {
			log.Error("unresolvable wager", zap.String("wager", w.ID), zap.Error(err))
			s.toDLQ(ctx, w, res, err)
			continue
		}
		payoff := settlement.PayoffCents(outcome, w.StakeCents, w.Odds)

		settled, err := s.creditWithRetry(ctx, w.ID, outcome, payoff, res.FinishedAt)
		if errors.Is(err, ledger.ErrNotFound) {
			// já liquidado (reentrega do tópico): idempotência barata
			log.Debug("wager already settled", zap.String("wager", w.ID))
			continue
		}
		if err != nil {
			log.Error("settlement credit failed, sending to DLQ",
				zap.String("wager", w.ID), zap.Error(err))
			s.toDLQ(ctx, w, res, err)
			continue
		}

		log.Info("wager settled",
			zap.String("wager", w.ID),
			zap.String("outcome", string(outcome)),
			zap.Int64("payoff_cents", payoff))

		ev := events.WagerSettled{
			WagerID:     settled.ID,
			FixtureID:   settled.FixtureID,
			Outcome:     string(outcome),
			PayoffCents: payoff,
			ReturnCents: settled.StakeCents + payoff,
			FinalScore:  res.FinalScore,
			SettledAt:   res.FinishedAt,
		}
		s.writeEvent(ctx, s.Settled, settled.FixtureID, ev, "settled_publish")
		if s.OnSettled != nil {
			s.OnSettled()
		}
	}

	// eviction do estado por-fixture
	if s.Guard != nil {
		s.Guard.Forget(res.FixtureID)
	}
	if s.Momentum != nil {
		s.Momentum.Forget(res.FixtureID)
	}
	if s.Feed != nil {
		s.Feed.Drop(res.FixtureID)
	}
}

// resolve aplica a máquina de liquidação pura ao wager.
func resolve(w ledger.Wager, final pricing.Score) (settlement.Outcome, error) {
	switch w.Market {
	case pricing.MarketAsianHandicap:
		return settlement.SettleHandicap(w.Line, w.Side, w.PlacedScore, final), nil
	case pricing.MarketOverUnder:
		return settlement.SettleTotals(w.Line, w.Side, final), nil
	}
	return "", fmt.Errorf("unknown market %q", w.Market)
}

func (s *Settler) creditWithRetry(ctx context.Context, wagerID string, outcome settlement.Outcome, payoff int64, at time.Time) (ledger.Wager, error) {
	attempts := s.MaxAttempts
	if attempts <= 0 {
		attempts = 3
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		w, err := s.Store.SettleWager(ctx, wagerID, string(outcome), payoff, at)
		if err == nil {
			return w, nil
		}
		if errors.Is(err, ledger.ErrNotFound) {
			return ledger.Wager{}, err
		}
		lastErr = err
		if s.OnError != nil {
			s.OnError("credit_retry")
		}
		select {
		case <-ctx.Done():
			return ledger.Wager{}, ctx.Err()
		case <-time.After(s.RetryDelay):
		}
	}
	return ledger.Wager{}, lastErr
}

// dlqEntry carrega contexto suficiente para reprocessamento manual.
type dlqEntry struct {
	Wager     ledger.Wager       `json:"wager"`
	Result    events.MatchResult `json:"result"`
	Error     string             `json:"error"`
	FailedAt  time.Time          `json:"failed_at"`
	Service   string             `json:"service"`
	Retriable bool               `json:"retriable"`
}

func (s *Settler) toDLQ(ctx context.Context, w ledger.Wager, res events.MatchResult, cause error) {
	if s.OnError != nil {
		s.OnError("dlq")
	}
	entry := dlqEntry{
		Wager:     w,
		Result:    res,
		Error:     cause.Error(),
		FailedAt:  time.Now().UTC(),
		Service:   "settlement-worker",
		Retriable: !errors.Is(cause, ledger.ErrNotFound),
	}
	s.writeEvent(ctx, s.DLQ, w.FixtureID, entry, "dlq_publish")
}

func (s *Settler) writeEvent(ctx context.Context, w MessageWriter, key string, payload any, stage string) {
	if w == nil {
		return
	}
	b, err := json.Marshal(payload)
	if err != nil {
		if s.OnError != nil {
			s.OnError(stage)
		}
		return
	}
	if err := w.WriteMessages(ctx, kafka.Message{Key: []byte(key), Value: b}); err != nil {
		s.Log.Warn("kafka write failed", zap.String("stage", stage), zap.Error(err))
		if s.OnError != nil {
			s.OnError(stage)
		}
	}
}
