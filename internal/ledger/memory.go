package ledger

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Memory é a implementação em memória do Store, usada pelo modo standalone e
// pelos testes. Um mutex cobre saldo, wagers e ledger juntos.
type Memory struct {
	mu sync.Mutex

	balanceCents int64
	minStake     int64

	wagers  map[string]*Wager // por ID
	openKey map[string]string // Key() -> ID do wager aberto

	entries []Entry
	seq     int64
}

// NewMemory cria o store com o bankroll inicial e registra a entry INIT.
func NewMemory(initialCents, minStakeCents int64) *Memory {
	m := &Memory{
		balanceCents: initialCents,
		minStake:     minStakeCents,
		wagers:       make(map[string]*Wager),
		openKey:      make(map[string]string),
	}
	m.append(initialCents, "INIT")
	return m
}

// append registra uma entry; chamada sempre com o mutex em posse.
func (m *Memory) append(delta int64, desc string) {
	m.seq++
	m.entries = append(m.entries, Entry{
		Seq:          m.seq,
		DeltaCents:   delta,
		BalanceCents: m.balanceCents,
		Description:  desc,
		CreatedAt:    time.Now().UTC(),
	})
}

func (m *Memory) PlaceOrder(_ context.Context, w Wager) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if w.StakeCents < m.minStake {
		return ErrStakeTooSmall
	}
	if _, dup := m.openKey[w.Key()]; dup {
		return ErrDuplicateOrder
	}
	if m.balanceCents < w.StakeCents {
		return ErrInsufficientFunds
	}

	w.Status = StatusOpen
	m.balanceCents -= w.StakeCents
	m.wagers[w.ID] = &w
	m.openKey[w.Key()] = w.ID
	m.append(-w.StakeCents, "stake:"+w.Key())
	return nil
}

func (m *Memory) OpenWagers(_ context.Context, fixtureID string) ([]Wager, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []Wager
	for _, id := range m.openKey {
		w := m.wagers[id]
		if fixtureID == "" || w.FixtureID == fixtureID {
			out = append(out, *w)
		}
	}
	return out, nil
}

func (m *Memory) SettleWager(_ context.Context, wagerID, outcome string, payoffCents int64, settledAt time.Time) (Wager, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	w, ok := m.wagers[wagerID]
	if !ok || w.Status != StatusOpen {
		return Wager{}, ErrNotFound
	}

	w.Status = StatusSettled
	w.Outcome = outcome
	w.PayoffCents = payoffCents
	w.SettledAt = settledAt
	delete(m.openKey, w.Key())

	// crédito = stake devolvido + lucro (payoff negativo devolve só a sobra)
	credit := w.StakeCents + payoffCents
	m.balanceCents += credit
	m.append(credit, fmt.Sprintf("settle:%s:%s", w.Key(), outcome))

	return *w, nil
}

func (m *Memory) BalanceCents(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.balanceCents, nil
}

func (m *Memory) Entries(context.Context) ([]Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Entry, len(m.entries))
	copy(out, m.entries)
	return out, nil
}
