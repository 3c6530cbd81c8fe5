package engine

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kentsang666/football-ai-live/internal/ledger"
	"github.com/kentsang666/football-ai-live/internal/pricing"
	"github.com/kentsang666/football-ai-live/pkg/contracts/events"
)

func placeWager(t *testing.T, store ledger.Store, fixture string, market pricing.MarketKind, line float64, side pricing.Side, odds float64, placed pricing.Score) ledger.Wager {
	t.Helper()
	w := ledger.Wager{
		ID:          uuid.New().String(),
		FixtureID:   fixture,
		Market:      market,
		Line:        pricing.LineFromFloat(line),
		Side:        side,
		Odds:        odds,
		StakeCents:  10_000,
		PlacedScore: placed,
		PlacedAt:    time.Now().UTC(),
	}
	require.NoError(t, store.PlaceOrder(context.Background(), w))
	return w
}

func newTestSettler(store ledger.Store) (*Settler, *captureWriter, *captureWriter) {
	settled := &captureWriter{}
	dlq := &captureWriter{}
	s := &Settler{
		Log:         zap.NewNop(),
		Store:       store,
		Settled:     settled,
		DLQ:         dlq,
		MaxAttempts: 2,
		RetryDelay:  time.Millisecond,
	}
	return s, settled, dlq
}

func TestHandleResultSettlesOpenWagers(t *testing.T) {
	ctx := context.Background()
	store := ledger.NewMemory(1_000_000, 1000)
	s, settledW, dlq := newTestSettler(store)

	// handicap -0.75 a 0-0, final 1-0: HalfWin
	w := placeWager(t, store, "fx-1", pricing.MarketAsianHandicap, -0.75, pricing.SideHome, 1.95, pricing.Score{})

	s.HandleResult(ctx, events.MatchResult{
		FixtureID:  "fx-1",
		FinalScore: events.Score{Home: 1},
		FinishedAt: time.Now().UTC(),
	})

	open, _ := store.OpenWagers(ctx, "fx-1")
	assert.Empty(t, open)

	// HalfWin de 10000 a 1.95: payoff 4750, crédito 14750
	bal, _ := store.BalanceCents(ctx)
	assert.Equal(t, int64(1_000_000-10_000+14_750), bal)

	require.Equal(t, 1, settledW.count())
	var ev events.WagerSettled
	require.NoError(t, json.Unmarshal(settledW.msgs[0].Value, &ev))
	assert.Equal(t, w.ID, ev.WagerID)
	assert.Equal(t, "HalfWin", ev.Outcome)
	assert.Equal(t, int64(4750), ev.PayoffCents)
	assert.Equal(t, int64(14_750), ev.ReturnCents)

	assert.Zero(t, dlq.count())
}

func TestHandleResultSettlesTotals(t *testing.T) {
	ctx := context.Background()
	store := ledger.NewMemory(1_000_000, 1000)
	s, settledW, _ := newTestSettler(store)

	placeWager(t, store, "fx-2", pricing.MarketOverUnder, 2.5, pricing.SideOver, 2.0, pricing.Score{})

	s.HandleResult(ctx, events.MatchResult{
		FixtureID:  "fx-2",
		FinalScore: events.Score{Home: 1, Away: 1},
		FinishedAt: time.Now().UTC(),
	})

	require.Equal(t, 1, settledW.count())
	var ev events.WagerSettled
	require.NoError(t, json.Unmarshal(settledW.msgs[0].Value, &ev))
	assert.Equal(t, "Loss", ev.Outcome)
	assert.Equal(t, int64(0), ev.ReturnCents)

	bal, _ := store.BalanceCents(ctx)
	assert.Equal(t, int64(990_000), bal)
}

func TestHandleResultIgnoresOtherFixtures(t *testing.T) {
	ctx := context.Background()
	store := ledger.NewMemory(1_000_000, 1000)
	s, settledW, _ := newTestSettler(store)

	placeWager(t, store, "fx-1", pricing.MarketOverUnder, 2.5, pricing.SideOver, 2.0, pricing.Score{})
	placeWager(t, store, "fx-2", pricing.MarketOverUnder, 2.5, pricing.SideOver, 2.0, pricing.Score{})

	s.HandleResult(ctx, events.MatchResult{
		FixtureID:  "fx-1",
		FinalScore: events.Score{Home: 2, Away: 1},
		FinishedAt: time.Now().UTC(),
	})

	assert.Equal(t, 1, settledW.count())
	open, _ := store.OpenWagers(ctx, "fx-2")
	assert.Len(t, open, 1)
}

// failingStore simula indisponibilidade do banco no crédito
type failingStore struct {
	ledger.Store
}

func (f *failingStore) SettleWager(context.Context, string, string, int64, time.Time) (ledger.Wager, error) {
	return ledger.Wager{}, errors.New("connection refused")
}

func TestHandleResultSendsToDLQOnPersistentFailure(t *testing.T) {
	ctx := context.Background()
	mem := ledger.NewMemory(1_000_000, 1000)
	s, settledW, dlq := newTestSettler(&failingStore{Store: mem})

	w := placeWager(t, mem, "fx-1", pricing.MarketAsianHandicap, -0.5, pricing.SideHome, 1.9, pricing.Score{})

	var errs []string
	s.OnError = func(stage string) { errs = append(errs, stage) }

	s.HandleResult(ctx, events.MatchResult{
		FixtureID:  "fx-1",
		FinalScore: events.Score{Home: 1},
		FinishedAt: time.Now().UTC(),
	})

	assert.Zero(t, settledW.count())
	require.Equal(t, 1, dlq.count())

	var entry dlqEntry
	require.NoError(t, json.Unmarshal(dlq.msgs[0].Value, &entry))
	assert.Equal(t, w.ID, entry.Wager.ID)
	assert.True(t, entry.Retriable)
	assert.Contains(t, errs, "credit_retry")

	// o wager segue aberto para reprocessamento
	open, _ := mem.OpenWagers(ctx, "fx-1")
	assert.Len(t, open, 1)
}

func TestHandleResultCleansPipelineState(t *testing.T) {
	ctx := context.Background()
	store := ledger.NewMemory(1_000_000, 1000)
	s, _, _ := newTestSettler(store)

	tracker := pricing.NewMomentumTracker(pricing.DefaultTables().Pressure)
	tracker.Update("fx-1", pricing.PressureStats{ShotsOnTarget: 3}, pricing.PressureStats{})
	s.Momentum = tracker

	feed := NewKafkaFeed(zap.NewNop(), nil)
	feed.latest["fx-1"] = events.MatchSnapshot{FixtureID: "fx-1"}
	s.Feed = feed

	s.HandleResult(ctx, events.MatchResult{
		FixtureID:  "fx-1",
		FinalScore: events.Score{},
		FinishedAt: time.Now().UTC(),
	})

	assert.Empty(t, feed.Latest())

	// estado de momentum zerado: próxima observação volta a ser neutra
	h, _ := tracker.Update("fx-1", pricing.PressureStats{ShotsOnTarget: 9}, pricing.PressureStats{})
	assert.Equal(t, 1.0, h)
}

func TestSettlerRunConsumesResults(t *testing.T) {
	store := ledger.NewMemory(1_000_000, 1000)
	s, settledW, _ := newTestSettler(store)

	placeWager(t, store, "fx-1", pricing.MarketOverUnder, 2.5, pricing.SideOver, 2.0, pricing.Score{})

	res := events.MatchResult{
		FixtureID:  "fx-1",
		FinalScore: events.Score{Home: 3, Away: 1},
		FinishedAt: time.Now().UTC(),
	}
	s.Reader = &scriptedReader{msgs: []kafka.Message{
		{Value: marshal(t, res)},
		{Value: []byte("not json")},
	}}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.Eventually(t, func() bool { return settledW.count() == 1 }, 2*time.Second, 10*time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}
