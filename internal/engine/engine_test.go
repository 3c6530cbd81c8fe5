package engine

import (
	"context"
	"encoding/json"
	"math/rand"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kentsang666/football-ai-live/internal/guard"
	"github.com/kentsang666/football-ai-live/internal/ledger"
	"github.com/kentsang666/football-ai-live/internal/pricing"
	"github.com/kentsang666/football-ai-live/pkg/contracts/events"
)

// captureWriter acumula as mensagens publicadas
type captureWriter struct {
	mu   sync.Mutex
	msgs []kafka.Message
}

func (c *captureWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msgs = append(c.msgs, msgs...)
	return nil
}

func (c *captureWriter) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.msgs)
}

func newTestEngine(store ledger.Store) (*Engine, *captureWriter, *captureWriter, *[]string) {
	signals := &captureWriter{}
	wagers := &captureWriter{}
	var skips []string

	e := &Engine{
		Log:         zap.NewNop(),
		Guard:       guard.New(30*time.Second, time.Minute, nil),
		Momentum:    pricing.NewMomentumTracker(pricing.DefaultTables().Pressure),
		Adjuster:    pricing.NewAdjuster(pricing.DefaultTables()),
		Ensemble:    pricing.NewEnsemble(500, rand.NewSource(1)),
		Evaluator:   pricing.SignalEvaluator{AHThreshold: 0.03, OUThreshold: 0.05},
		Staking:     pricing.Staking{Fraction: 0.25, MaxStake: 0.05},
		BlendWeight: 0.7,
		Store:       store,
		Signals:     signals,
		Wagers:      wagers,
		OnSkip:      func(reason string) { skips = append(skips, reason) },
	}
	return e, signals, wagers, &skips
}

// cotação generosa o suficiente para cruzar qualquer threshold
func valueSnapshot() events.MatchSnapshot {
	return events.MatchSnapshot{
		FixtureID:  "fx-1",
		HomeTeam:   "Casa FC",
		AwayTeam:   "Fora FC",
		Minute:     10,
		BaseXGHome: 1.5,
		BaseXGAway: 1.1,
		Quotes: []events.Quote{
			{Market: "AH", Line: -0.5, Side: "Home", Odds: 5.0},
		},
		Timestamp: time.Now(),
		Source:    "test",
	}
}

func TestRunCyclePlacesOrderOnEdge(t *testing.T) {
	ctx := context.Background()
	store := ledger.NewMemory(1_000_000, 1000)
	e, signals, wagers, _ := newTestEngine(store)

	e.RunCycle(ctx, []events.MatchSnapshot{valueSnapshot()})

	open, err := store.OpenWagers(ctx, "fx-1")
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, pricing.SideHome, open[0].Side)
	assert.Equal(t, pricing.LineFromFloat(-0.5), open[0].Line)
	assert.Greater(t, open[0].StakeCents, int64(0))

	assert.Equal(t, 1, signals.count())
	assert.Equal(t, 1, wagers.count())

	bal, _ := store.BalanceCents(ctx)
	assert.Equal(t, int64(1_000_000)-open[0].StakeCents, bal)
}

func TestRunCycleSuppressesOrdersOnScoreConflict(t *testing.T) {
	ctx := context.Background()
	store := ledger.NewMemory(1_000_000, 1000)
	e, signals, wagers, skips := newTestEngine(store)

	snap := valueSnapshot()
	snap.SecondaryScore = &events.Score{Home: 1} // fonte shadow diverge

	e.RunCycle(ctx, []events.MatchSnapshot{snap})

	// mesmo com edge gritante: nada publicado, nada apostado
	open, _ := store.OpenWagers(ctx, "")
	assert.Empty(t, open)
	assert.Zero(t, signals.count())
	assert.Zero(t, wagers.count())
	assert.Contains(t, *skips, "conflict")

	bal, _ := store.BalanceCents(ctx)
	assert.Equal(t, int64(1_000_000), bal)
}

func TestRunCycleSkipsStaleSnapshot(t *testing.T) {
	ctx := context.Background()
	store := ledger.NewMemory(1_000_000, 1000)
	e, signals, _, skips := newTestEngine(store)

	snap := valueSnapshot()
	snap.Timestamp = time.Now().Add(-45 * time.Second)

	e.RunCycle(ctx, []events.MatchSnapshot{snap})

	open, _ := store.OpenWagers(ctx, "")
	assert.Empty(t, open)
	assert.Zero(t, signals.count())
	assert.Contains(t, *skips, "stale")
}

func TestRunCycleFreezesAfterGoal(t *testing.T) {
	ctx := context.Background()
	store := ledger.NewMemory(1_000_000, 1000)
	e, _, _, skips := newTestEngine(store)

	first := valueSnapshot()
	e.RunCycle(ctx, []events.MatchSnapshot{first})

	// gol: o ciclo seguinte congela o fixture
	second := valueSnapshot()
	second.Score = events.Score{Home: 1}
	second.Quotes = []events.Quote{{Market: "AH", Line: -1.5, Side: "Home", Odds: 8.0}}
	e.RunCycle(ctx, []events.MatchSnapshot{second})

	assert.Contains(t, *skips, "freeze")
	open, _ := store.OpenWagers(ctx, "fx-1")
	assert.Len(t, open, 1) // só a ordem do primeiro ciclo
}

func TestRunCycleRejectsDuplicateOrder(t *testing.T) {
	ctx := context.Background()
	store := ledger.NewMemory(1_000_000, 1000)
	e, signals, wagers, skips := newTestEngine(store)

	snap := valueSnapshot()
	e.RunCycle(ctx, []events.MatchSnapshot{snap, snap})

	open, _ := store.OpenWagers(ctx, "fx-1")
	assert.Len(t, open, 1)
	assert.Equal(t, 1, wagers.count())
	assert.Equal(t, 2, signals.count()) // o sinal repete, a ordem não
	assert.Contains(t, *skips, "duplicate")
}

func TestRunCycleNoSignalWithoutEdge(t *testing.T) {
	ctx := context.Background()
	store := ledger.NewMemory(1_000_000, 1000)
	e, signals, wagers, _ := newTestEngine(store)

	snap := valueSnapshot()
	snap.Quotes = []events.Quote{
		{Market: "AH", Line: -0.5, Side: "Home", Odds: 1.10}, // bem abaixo do justo
	}
	e.RunCycle(ctx, []events.MatchSnapshot{snap})

	assert.Zero(t, signals.count())
	assert.Zero(t, wagers.count())

	bal, _ := store.BalanceCents(ctx)
	assert.Equal(t, int64(1_000_000), bal)
}

func TestRunCycleSkipsUnknownMarket(t *testing.T) {
	ctx := context.Background()
	store := ledger.NewMemory(1_000_000, 1000)
	e, _, _, skips := newTestEngine(store)

	snap := valueSnapshot()
	snap.Quotes = []events.Quote{{Market: "BTTS", Line: 0, Side: "Yes", Odds: 1.9}}
	e.RunCycle(ctx, []events.MatchSnapshot{snap})

	assert.Contains(t, *skips, "unknown_market")
}

func TestQuoteProbBlendsTotals(t *testing.T) {
	store := ledger.NewMemory(1_000_000, 1000)
	e, _, _, _ := newTestEngine(store)

	rates := pricing.RateParams{Home: 1.4, Away: 1.2}
	current := pricing.Score{}
	line := pricing.LineFromFloat(2.5)

	closed := pricing.PoissonModel{}.TotalsProb(rates, current, line, pricing.SideOver).Effective
	mc := e.Ensemble.Run(rates, current, []pricing.Line{line})

	q := events.Quote{Market: "OU", Line: 2.5, Side: "Over", Odds: 2.0}
	got, ok := e.quoteProb(rates, current, q, mc)
	require.True(t, ok)
	assert.InDelta(t, pricing.Blend(closed, mc.Over[line], 0.7), got, 1e-9)

	// Over + Under do mesmo mercado continuam complementares após o blend
	qu := events.Quote{Market: "OU", Line: 2.5, Side: "Under", Odds: 2.0}
	under, ok := e.quoteProb(rates, current, qu, mc)
	require.True(t, ok)
	assert.InDelta(t, 1.0, got+under, 1e-9)
}

func TestBlendableLines(t *testing.T) {
	quotes := []events.Quote{
		{Market: "OU", Line: 2.5, Side: "Over"},
		{Market: "OU", Line: 2.5, Side: "Under"}, // dedup
		{Market: "OU", Line: 3.0, Side: "Over"},  // inteira: push, fica de fora
		{Market: "OU", Line: 3.25, Side: "Over"}, // quarto: push na meia-linha inteira, fica de fora
		{Market: "AH", Line: -0.5, Side: "Home"}, // outro mercado
	}
	lines := blendableLines(quotes)
	assert.ElementsMatch(t, []pricing.Line{
		pricing.LineFromFloat(2.5),
	}, lines)
}

// A frequência de cauda de uma linha de quarto estima grandeza diferente da
// probabilidade efetiva (a meia-linha inteira do split carrega push), então o
// blend empurraria o preço de forma sistemática. A linha de quarto tem que
// sair do ciclo no valor fechado exato, mesmo que a tabela do ensemble a
// contenha.
func TestQuoteProbQuarterLineStaysClosedForm(t *testing.T) {
	store := ledger.NewMemory(1_000_000, 1000)
	e, _, _, _ := newTestEngine(store)

	rates := pricing.RateParams{Home: 1.4, Away: 1.2}
	current := pricing.Score{}
	quarter := pricing.LineFromFloat(2.25)

	closed := pricing.PoissonModel{}.TotalsProb(rates, current, quarter, pricing.SideOver).Effective

	// tabela adversarial: mesmo com a linha presente e um valor absurdo,
	// o quarto não pode ser combinado
	mc := pricing.EnsembleResult{Over: map[pricing.Line]float64{quarter: 0.99}}

	q := events.Quote{Market: "OU", Line: 2.25, Side: "Over", Odds: 2.0}
	got, ok := e.quoteProb(rates, current, q, mc)
	require.True(t, ok)
	assert.InDelta(t, closed, got, 1e-12)

	qu := events.Quote{Market: "OU", Line: 2.25, Side: "Under", Odds: 2.0}
	under, ok := e.quoteProb(rates, current, qu, mc)
	require.True(t, ok)
	assert.InDelta(t, 1.0, got+under, 1e-9)
}

// scriptedReader entrega as mensagens enfileiradas e depois bloqueia
type scriptedReader struct {
	msgs []kafka.Message
	i    int
}

func (r *scriptedReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	if r.i < len(r.msgs) {
		m := r.msgs[r.i]
		r.i++
		return m, nil
	}
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func marshal(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

func TestKafkaFeedKeepsLatestSnapshot(t *testing.T) {
	base := time.Now()
	older := valueSnapshot()
	older.Timestamp = base
	newer := valueSnapshot()
	newer.Score = events.Score{Home: 1}
	newer.Timestamp = base.Add(5 * time.Second)

	reader := &scriptedReader{msgs: []kafka.Message{
		{Value: marshal(t, older)},
		{Value: marshal(t, newer)},
		{Value: marshal(t, older)}, // reentrega atrasada: deve ser descartada
		{Value: []byte("not json")},
	}}

	feed := NewKafkaFeed(zap.NewNop(), reader)
	var consumed atomic.Int64
	feed.OnConsumed = func() { consumed.Add(1) }

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- feed.Run(ctx) }()

	require.Eventually(t, func() bool {
		return len(feed.Latest()) == 1 && consumed.Load() >= 4
	}, 2*time.Second, 10*time.Millisecond)

	got := feed.Latest()
	require.Len(t, got, 1)
	assert.Equal(t, events.Score{Home: 1}, got[0].Score)

	feed.Drop("fx-1")
	assert.Empty(t, feed.Latest())

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}
