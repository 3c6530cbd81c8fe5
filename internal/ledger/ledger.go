// Package ledger mantém o bankroll de paper-trading e os wagers abertos.
//
// Todo dinheiro é int64 em cents. A invariante de conservação é exata:
// balance == inicial - Σ stakes abertos + Σ (stake + payoff) liquidados,
// verificável somando os deltas do ledger.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kentsang666/football-ai-live/internal/pricing"
)

var (
	ErrDuplicateOrder    = errors.New("duplicate order")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrStakeTooSmall     = errors.New("stake below minimum")
	ErrNotFound          = errors.New("not found")
)

// WagerStatus é o ciclo de vida de um wager.
type WagerStatus string

const (
	StatusOpen    WagerStatus = "OPEN"
	StatusSettled WagerStatus = "SETTLED"
)

// Wager é uma aposta de papel registrada contra o bankroll.
type Wager struct {
	ID        string
	FixtureID string

	Market pricing.MarketKind
	Line   pricing.Line
	Side   pricing.Side
	Odds   float64

	StakeCents  int64
	PlacedScore pricing.Score // placar no momento da colocação; insumo da liquidação
	PlacedAt    time.Time

	Status      WagerStatus
	Outcome     string // vazio enquanto aberto
	PayoffCents int64  // lucro líquido; negativo em perda
	SettledAt   time.Time
}

// Key identifica o mercado apostado: duas ordens com a mesma chave enquanto a
// primeira está aberta são duplicatas.
func (w Wager) Key() string {
	return fmt.Sprintf("%s|%s|%s|%s", w.FixtureID, w.Market, w.Line, w.Side)
}

// Entry é uma linha do ledger de bankroll. BalanceCents é o saldo resultante,
// então a cadeia de entries reconta o saldo do zero.
type Entry struct {
	Seq          int64
	DeltaCents   int64
	BalanceCents int64
	Description  string
	CreatedAt    time.Time
}

// Store é o contrato de persistência do portfólio. Implementações garantem
// atomicidade: ou o wager entra e o stake sai do saldo, ou nada acontece.
type Store interface {
	// PlaceOrder valida (duplicata, piso de stake, saldo) e registra o wager
	// debitando o stake, tudo na mesma seção crítica.
	PlaceOrder(ctx context.Context, w Wager) error

	// OpenWagers lista os wagers abertos de um fixture. fixtureID vazio lista todos.
	OpenWagers(ctx context.Context, fixtureID string) ([]Wager, error)

	// SettleWager fecha um wager aberto creditando stake + payoff atomicamente.
	// Payoff negativo credita só a sobra; Loss total credita zero.
	SettleWager(ctx context.Context, wagerID, outcome string, payoffCents int64, settledAt time.Time) (Wager, error)

	BalanceCents(ctx context.Context) (int64, error)
	Entries(ctx context.Context) ([]Entry, error)
}
