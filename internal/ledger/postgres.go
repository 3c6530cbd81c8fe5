package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/kentsang666/football-ai-live/internal/pricing"
)

// Postgres implementa o Store em banco, com lock pessimista na linha do
// bankroll para serializar débitos e créditos.
//
// Schema esperado:
//
//	CREATE TABLE bankroll (
//	    id            TEXT PRIMARY KEY,
//	    balance_cents BIGINT NOT NULL,
//	    version       BIGINT NOT NULL
//	);
//	CREATE TABLE wagers (
//	    id            TEXT PRIMARY KEY,
//	    fixture_id    TEXT NOT NULL,
//	    market        TEXT NOT NULL,
//	    line_quarters INT  NOT NULL,
//	    side          TEXT NOT NULL,
//	    odds          DOUBLE PRECISION NOT NULL,
//	    stake_cents   BIGINT NOT NULL,
//	    placed_home   INT NOT NULL,
//	    placed_away   INT NOT NULL,
//	    placed_at     TIMESTAMPTZ NOT NULL,
//	    status        TEXT NOT NULL,
//	    outcome       TEXT,
//	    payoff_cents  BIGINT,
//	    settled_at    TIMESTAMPTZ
//	);
//	CREATE UNIQUE INDEX wagers_open_key ON wagers(fixture_id, market, line_quarters, side)
//	    WHERE status = 'OPEN';
//	CREATE TABLE bankroll_ledger (
//	    seq           BIGSERIAL PRIMARY KEY,
//	    delta_cents   BIGINT NOT NULL,
//	    balance_cents BIGINT NOT NULL,
//	    description   TEXT NOT NULL,
//	    created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
//	);
type Postgres struct {
	db       *sql.DB
	minStake int64
}

const bankrollID = "paper"

func NewPostgres(db *sql.DB, minStakeCents int64) *Postgres {
	return &Postgres{db: db, minStake: minStakeCents}
}

// Init garante a linha do bankroll e a entry INIT; idempotente.
func (p *Postgres) Init(ctx context.Context, initialCents int64) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO bankroll(id, balance_cents, version) VALUES($1,$2,1)
		 ON CONFLICT (id) DO NOTHING`, bankrollID, initialCents)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 1 {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO bankroll_ledger(delta_cents, balance_cents, description) VALUES($1,$1,'INIT')`,
			initialCents); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (p *Postgres) PlaceOrder(ctx context.Context, w Wager) error {
	if w.StakeCents < p.minStake {
		return ErrStakeTooSmall
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var balance int64
	if err = tx.QueryRowContext(ctx,
		`SELECT balance_cents FROM bankroll WHERE id=$1 FOR UPDATE`, bankrollID).Scan(&balance); err != nil {
		return err
	}

	// Dedup: mesma chave de mercado ainda aberta
	var exists string
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM wagers WHERE fixture_id=$1 AND market=$2 AND line_quarters=$3 AND side=$4 AND status='OPEN'`,
		w.FixtureID, w.Market, int(w.Line), w.Side).Scan(&exists)
	if err == nil {
		return ErrDuplicateOrder
	} else if err != sql.ErrNoRows {
		return err
	}

	if balance < w.StakeCents {
		return ErrInsufficientFunds
	}

	if _, err = tx.ExecContext(ctx,
		`UPDATE bankroll SET balance_cents = balance_cents - $1, version = version + 1 WHERE id=$2`,
		w.StakeCents, bankrollID); err != nil {
		return err
	}

	if _, err = tx.ExecContext(ctx, `
		INSERT INTO wagers(id, fixture_id, market, line_quarters, side, odds, stake_cents,
		                   placed_home, placed_away, placed_at, status)
		VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,'OPEN')`,
		w.ID, w.FixtureID, w.Market, int(w.Line), w.Side, w.Odds, w.StakeCents,
		w.PlacedScore.Home, w.PlacedScore.Away, w.PlacedAt); err != nil {
		return err
	}

	if _, err = tx.ExecContext(ctx,
		`INSERT INTO bankroll_ledger(delta_cents, balance_cents, description) VALUES($1,$2,$3)`,
		-w.StakeCents, balance-w.StakeCents, "stake:"+w.Key()); err != nil {
		return err
	}

	return tx.Commit()
}

func (p *Postgres) OpenWagers(ctx context.Context, fixtureID string) ([]Wager, error) {
	q := `SELECT id, fixture_id, market, line_quarters, side, odds, stake_cents,
	             placed_home, placed_away, placed_at
	      FROM wagers WHERE status='OPEN'`
	args := []any{}
	if fixtureID != "" {
		q += ` AND fixture_id=$1`
		args = append(args, fixtureID)
	}

	rows, err := p.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Wager
	for rows.Next() {
		var w Wager
		var lineQ int
		if err := rows.Scan(&w.ID, &w.FixtureID, &w.Market, &lineQ, &w.Side, &w.Odds,
			&w.StakeCents, &w.PlacedScore.Home, &w.PlacedScore.Away, &w.PlacedAt); err != nil {
			return nil, err
		}
		w.Line = pricing.Line(lineQ)
		w.Status = StatusOpen
		out = append(out, w)
	}
	return out, rows.Err()
}

func (p *Postgres) SettleWager(ctx context.Context, wagerID, outcome string, payoffCents int64, settledAt time.Time) (Wager, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return Wager{}, err
	}
	defer tx.Rollback()

	var balance int64
	if err = tx.QueryRowContext(ctx,
		`SELECT balance_cents FROM bankroll WHERE id=$1 FOR UPDATE`, bankrollID).Scan(&balance); err != nil {
		return Wager{}, err
	}

	var w Wager
	var lineQ int
	err = tx.QueryRowContext(ctx, `
		SELECT id, fixture_id, market, line_quarters, side, odds, stake_cents, placed_home, placed_away, placed_at
		FROM wagers WHERE id=$1 AND status='OPEN' FOR UPDATE`, wagerID).
		Scan(&w.ID, &w.FixtureID, &w.Market, &lineQ, &w.Side, &w.Odds,
			&w.StakeCents, &w.PlacedScore.Home, &w.PlacedScore.Away, &w.PlacedAt)
	if err == sql.ErrNoRows {
		return Wager{}, ErrNotFound
	} else if err != nil {
		return Wager{}, err
	}
	w.Line = pricing.Line(lineQ)

	if _, err = tx.ExecContext(ctx,
		`UPDATE wagers SET status='SETTLED', outcome=$1, payoff_cents=$2, settled_at=$3 WHERE id=$4`,
		outcome, payoffCents, settledAt, wagerID); err != nil {
		return Wager{}, err
	}

	credit := w.StakeCents + payoffCents
	if _, err = tx.ExecContext(ctx,
		`UPDATE bankroll SET balance_cents = balance_cents + $1, version = version + 1 WHERE id=$2`,
		credit, bankrollID); err != nil {
		return Wager{}, err
	}

	if _, err = tx.ExecContext(ctx,
		`INSERT INTO bankroll_ledger(delta_cents, balance_cents, description) VALUES($1,$2,$3)`,
		credit, balance+credit, fmt.Sprintf("settle:%s:%s", w.Key(), outcome)); err != nil {
		return Wager{}, err
	}

	if err = tx.Commit(); err != nil {
		return Wager{}, err
	}

	w.Status = StatusSettled
	w.Outcome = outcome
	w.PayoffCents = payoffCents
	w.SettledAt = settledAt
	return w, nil
}

func (p *Postgres) BalanceCents(ctx context.Context) (int64, error) {
	var balance int64
	err := p.db.QueryRowContext(ctx,
		`SELECT balance_cents FROM bankroll WHERE id=$1`, bankrollID).Scan(&balance)
	if err == sql.ErrNoRows {
		return 0, ErrNotFound
	}
	return balance, err
}

func (p *Postgres) Entries(ctx context.Context) ([]Entry, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT seq, delta_cents, balance_cents, description, created_at FROM bankroll_ledger ORDER BY seq`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Seq, &e.DeltaCents, &e.BalanceCents, &e.Description, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
