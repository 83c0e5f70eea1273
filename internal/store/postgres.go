package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"storefront/internal/db"
	"storefront/internal/payments"
)

type Postgres struct {
	pool *pgxpool.Pool
	q    db.Querier
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool, q: pool}
}

const intentColumns = `id, status, amount, currency, last_payment_error, receipt_email, metadata, next_action, updated_at`

func (s *Postgres) Intent(ctx context.Context, id string) (*payments.Intent, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	in, err := scanIntent(s.q.QueryRow(ctx, `SELECT `+intentColumns+` FROM payment_intents WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get intent: %w", err)
	}
	return in, nil
}

func (s *Postgres) SaveIntent(ctx context.Context, in *payments.Intent) (*payments.Intent, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	metadata, err := json.Marshal(in.Metadata)
	if err != nil {
		return nil, false, fmt.Errorf("encode metadata: %w", err)
	}
	if in.Metadata == nil {
		metadata = []byte(`{}`)
	}
	var nextAction []byte
	if in.NextAction != nil {
		if nextAction, err = json.Marshal(in.NextAction); err != nil {
			return nil, false, fmt.Errorf("encode next action: %w", err)
		}
	}
	updatedAt := in.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}

	var (
		stored  *payments.Intent
		changed bool
	)
	err = db.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		var prevStatus, prevError string
		found := true
		err := tx.QueryRow(ctx, `
			SELECT status, last_payment_error FROM payment_intents WHERE id = $1 FOR UPDATE
		`, in.ID).Scan(&prevStatus, &prevError)
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			found = false
		case err != nil:
			return fmt.Errorf("lock intent: %w", err)
		}

		if found && payments.Status(prevStatus).Final() && prevStatus != string(in.Status) {
			stored, err = scanIntent(tx.QueryRow(ctx, `SELECT `+intentColumns+` FROM payment_intents WHERE id = $1`, in.ID))
			if err != nil {
				return fmt.Errorf("get intent: %w", err)
			}
			return nil
		}

		stored, err = scanIntent(tx.QueryRow(ctx, `
			INSERT INTO payment_intents (id, status, amount, currency, last_payment_error, receipt_email, metadata, next_action, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (id) DO UPDATE SET
				status = EXCLUDED.status,
				amount = EXCLUDED.amount,
				currency = EXCLUDED.currency,
				last_payment_error = EXCLUDED.last_payment_error,
				receipt_email = COALESCE(NULLIF(EXCLUDED.receipt_email, ''), payment_intents.receipt_email),
				metadata = payment_intents.metadata || EXCLUDED.metadata,
				next_action = EXCLUDED.next_action,
				updated_at = GREATEST(EXCLUDED.updated_at, payment_intents.updated_at + interval '1 microsecond')
			RETURNING `+intentColumns,
			in.ID, string(in.Status), in.Amount, in.Currency, in.LastError, in.ReceiptEmail, metadata, nextAction, updatedAt))
		if err != nil {
			return fmt.Errorf("save intent: %w", err)
		}
		changed = !found || prevStatus != string(in.Status) || prevError != in.LastError
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return stored, changed, nil
}

func (s *Postgres) ActiveIntent(ctx context.Context, sessionID string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	var id string
	err := s.q.QueryRow(ctx, `SELECT intent_id FROM checkout_sessions WHERE session_id = $1`, sessionID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", fmt.Errorf("%w: session %s", ErrNotFound, sessionID)
	}
	if err != nil {
		return "", fmt.Errorf("get session: %w", err)
	}
	return id, nil
}

func (s *Postgres) BindSession(ctx context.Context, sessionID, intentID string) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	_, err := s.q.Exec(ctx, `
		INSERT INTO checkout_sessions (session_id, intent_id, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (session_id) DO UPDATE SET intent_id = EXCLUDED.intent_id, updated_at = now()
	`, sessionID, intentID)
	if err != nil {
		return fmt.Errorf("bind session: %w", err)
	}
	return nil
}

func (s *Postgres) ListIntents(ctx context.Context, filter ListFilter) ([]*payments.Intent, int, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	limit := filter.Limit
	if limit <= 0 {
		limit = 15
	}

	var (
		out   []*payments.Intent
		total int
	)
	// count and page in one transaction
	err := db.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, `
			SELECT count(*) FROM payment_intents WHERE ($1 = '' OR status = $1)
		`, string(filter.Status)).Scan(&total); err != nil {
			return fmt.Errorf("count intents: %w", err)
		}

		rows, err := tx.Query(ctx, `
			SELECT `+intentColumns+`
			FROM payment_intents
			WHERE ($1 = '' OR status = $1)
			ORDER BY created_at DESC, id DESC
			LIMIT $2 OFFSET $3
		`, string(filter.Status), limit, max(filter.Offset, 0))
		if err != nil {
			return fmt.Errorf("list intents: %w", err)
		}
		out, err = collectIntents(rows)
		return err
	})
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (s *Postgres) PendingIntents(ctx context.Context, updatedBefore time.Time, limit int) ([]*payments.Intent, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	statuses := make([]string, len(unresolved))
	for i, st := range unresolved {
		statuses[i] = string(st)
	}
	rows, err := s.q.Query(ctx, `
		SELECT `+intentColumns+`
		FROM payment_intents
		WHERE status = ANY($1) AND updated_at < $2
		ORDER BY updated_at ASC
		LIMIT $3
	`, statuses, updatedBefore, limit)
	if err != nil {
		return nil, fmt.Errorf("pending intents: %w", err)
	}
	return collectIntents(rows)
}

func (s *Postgres) SeenDelivery(ctx context.Context, eventID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	var seen bool
	err := s.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM webhook_deliveries WHERE event_id = $1)`, eventID).Scan(&seen)
	if err != nil {
		return false, fmt.Errorf("check delivery: %w", err)
	}
	return seen, nil
}

func (s *Postgres) RecordDelivery(ctx context.Context, eventID, eventType string) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	_, err := s.q.Exec(ctx, `
		INSERT INTO webhook_deliveries (event_id, event_type) VALUES ($1, $2)
		ON CONFLICT (event_id) DO NOTHING
	`, eventID, eventType)
	if err != nil {
		return fmt.Errorf("record delivery: %w", err)
	}
	return nil
}

func (s *Postgres) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Postgres) Close() {
	s.pool.Close()
}

func scanIntent(row pgx.Row) (*payments.Intent, error) {
	var (
		in         payments.Intent
		status     string
		metadata   []byte
		nextAction []byte
	)
	if err := row.Scan(&in.ID, &status, &in.Amount, &in.Currency, &in.LastError, &in.ReceiptEmail,
		&metadata, &nextAction, &in.UpdatedAt); err != nil {
		return nil, err
	}
	in.Status = payments.Status(status)
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &in.Metadata); err != nil {
			return nil, fmt.Errorf("decode metadata: %w", err)
		}
	}
	if len(nextAction) > 0 {
		in.NextAction = &payments.NextAction{}
		if err := json.Unmarshal(nextAction, in.NextAction); err != nil {
			return nil, fmt.Errorf("decode next action: %w", err)
		}
	}
	return &in, nil
}

func collectIntents(rows pgx.Rows) ([]*payments.Intent, error) {
	defer rows.Close()

	var out []*payments.Intent
	for rows.Next() {
		in, err := scanIntent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan intent: %w", err)
		}
		out = append(out, in)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
