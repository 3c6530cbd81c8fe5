// Package guard protege o pipeline de pricing contra dados ruins: feed
// atrasado, janela pós-evento e divergência entre fontes de placar.
package guard

import (
	"errors"
	"sync"
	"time"

	"github.com/kentsang666/football-ai-live/internal/pricing"
)

var (
	ErrStaleData       = errors.New("stale feed data")
	ErrPostEventFreeze = errors.New("post-event freeze window")
	ErrScoreConflict   = errors.New("score conflict between sources")
)

// TrustLevel classifica a confiança no placar usado para precificar.
type TrustLevel string

const (
	TrustHighConsensus TrustLevel = "HIGH_CONSENSUS"
	TrustSingleSource  TrustLevel = "SINGLE_SOURCE"
	TrustConflict      TrustLevel = "CONFLICT_SCORE"
)

// Clock abstrai o relógio para testes determinísticos.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock é o relógio de produção.
func SystemClock() Clock { return systemClock{} }

// Guard aplica as três verificações por fixture. Estado protegido por mutex:
// o engine chama de um único loop, o dashboard pode consultar concorrente.
type Guard struct {
	maxLatency time.Duration
	freeze     time.Duration
	clock      Clock

	mu        sync.Mutex
	lastScore map[string]pricing.Score
	lastEvent map[string]time.Time
	lastTrust map[string]TrustLevel
}

// New cria o guard com a latência máxima tolerada do feed e a duração da
// janela de congelamento pós-evento (defaults de política: 30s e 60s).
func New(maxLatency, freeze time.Duration, clock Clock) *Guard {
	if clock == nil {
		clock = SystemClock()
	}
	return &Guard{
		maxLatency: maxLatency,
		freeze:     freeze,
		clock:      clock,
		lastScore:  make(map[string]pricing.Score),
		lastEvent:  make(map[string]time.Time),
		lastTrust:  make(map[string]TrustLevel),
	}
}

// Consensus compara o placar primário com o secundário opcional e registra o
// nível apurado do fixture. Divergência devolve ErrScoreConflict: nenhum
// preço deve ser publicado nem ordem colocada até as fontes convergirem.
func (g *Guard) Consensus(fixtureID string, primary pricing.Score, secondary *pricing.Score) (TrustLevel, error) {
	trust := TrustSingleSource
	var err error
	if secondary != nil {
		if primary == *secondary {
			trust = TrustHighConsensus
		} else {
			trust, err = TrustConflict, ErrScoreConflict
		}
	}

	g.mu.Lock()
	g.lastTrust[fixtureID] = trust
	g.mu.Unlock()
	return trust, err
}

// Trust devolve o último nível de confiança apurado do fixture.
func (g *Guard) Trust(fixtureID string) (TrustLevel, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	t, ok := g.lastTrust[fixtureID]
	return t, ok
}

// CheckFreshness rejeita snapshots mais velhos que a latência máxima.
func (g *Guard) CheckFreshness(timestamp time.Time) error {
	if g.clock.Now().Sub(timestamp) > g.maxLatency {
		return ErrStaleData
	}
	return nil
}

// ObserveScore registra o placar do ciclo e devolve ErrPostEventFreeze
// enquanto durar a janela aberta por uma mudança de placar. O ciclo que
// detecta o gol já congela: o mercado ainda está digerindo o evento.
func (g *Guard) ObserveScore(fixtureID string, score pricing.Score) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.clock.Now()

	prev, seen := g.lastScore[fixtureID]
	g.lastScore[fixtureID] = score
	if seen && prev != score {
		g.lastEvent[fixtureID] = now
		return ErrPostEventFreeze
	}

	if evt, ok := g.lastEvent[fixtureID]; ok && now.Sub(evt) < g.freeze {
		return ErrPostEventFreeze
	}
	return nil
}

// Forget descarta o estado do fixture encerrado.
func (g *Guard) Forget(fixtureID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.lastScore, fixtureID)
	delete(g.lastEvent, fixtureID)
	delete(g.lastTrust, fixtureID)
}
