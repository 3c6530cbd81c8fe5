package engine

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/kentsang666/football-ai-live/pkg/contracts/events"
)

// MessageReader abstrai o kafka.Reader para os testes.
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

// MessageWriter abstrai o kafka.Writer para os testes.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// SnapshotSource fornece a visão mais recente de cada partida ao vivo.
type SnapshotSource interface {
	Latest() []events.MatchSnapshot
}

// KafkaFeed consome match_snapshots e mantém só o último snapshot por fixture:
// o ciclo de pricing trabalha sempre sobre o estado corrente, snapshots
// intermediários perdidos não importam.
type KafkaFeed struct {
	Log    *zap.Logger
	Reader MessageReader

	OnConsumed func()       // métricas (counter++)
	OnError    func(string) // métricas por fase

	mu     sync.RWMutex
	latest map[string]events.MatchSnapshot
}

func NewKafkaFeed(log *zap.Logger, reader MessageReader) *KafkaFeed {
	return &KafkaFeed{
		Log:    log,
		Reader: reader,
		latest: make(map[string]events.MatchSnapshot),
	}
}

// Run inicia o loop de consumo; bloqueia até o contexto encerrar.
func (f *KafkaFeed) Run(ctx context.Context) error {
	for {
		m, err := f.Reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			f.Log.Warn("kafka read failed", zap.Error(err))
			if f.OnError != nil {
				f.OnError("read")
			}
			time.Sleep(500 * time.Millisecond)
			continue
		}

		if f.OnConsumed != nil {
			f.OnConsumed()
		}

		var snap events.MatchSnapshot
		if err := json.Unmarshal(m.Value, &snap); err != nil {
			f.Log.Warn("invalid snapshot message", zap.Error(err))
			if f.OnError != nil {
				f.OnError("decode")
			}
			continue
		}
		if snap.FixtureID == "" {
			if f.OnError != nil {
				f.OnError("decode")
			}
			continue
		}

		f.mu.Lock()
		// descarta snapshot fora de ordem (rebalanceamento de partição)
		if prev, ok := f.latest[snap.FixtureID]; !ok || !snap.Timestamp.Before(prev.Timestamp) {
			f.latest[snap.FixtureID] = snap
		}
		f.mu.Unlock()
	}
}

// Latest devolve uma cópia dos snapshots correntes.
func (f *KafkaFeed) Latest() []events.MatchSnapshot {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]events.MatchSnapshot, 0, len(f.latest))
	for _, s := range f.latest {
		out = append(out, s)
	}
	return out
}

// Drop remove o fixture encerrado do estado do feed.
func (f *KafkaFeed) Drop(fixtureID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.latest, fixtureID)
}
