package order

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const (
	pingTimeout  = 1 * time.Second
	queryTimeout = 3 * time.Second
)

type PostgresLog struct {
	pool *pgxpool.Pool
	log  *zap.Logger
}

func NewPostgresLog(pool *pgxpool.Pool, log *zap.Logger) *PostgresLog {
	if log == nil {
		log = zap.NewNop()
	}
	return &PostgresLog{pool: pool, log: log}
}

func (l *PostgresLog) EnsureSchema(ctx context.Context) error {
	return withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		_, err := l.pool.Exec(ctx, `
			CREATE TABLE IF NOT EXISTS pos_orders (
				id  TEXT PRIMARY KEY,
				ts  BIGINT NOT NULL,
				doc JSONB NOT NULL
			)
		`)
		return errors.Wrap(err, "create pos_orders")
	})
}

func (l *PostgresLog) Ping(ctx context.Context) error {
	return withTimeout(ctx, pingTimeout, func(ctx context.Context) error {
		return l.pool.Ping(ctx)
	})
}

func (l *PostgresLog) AddOrder(ctx context.Context, o Order) error {
	data, err := json.Marshal(o)
	if err != nil {
		return errors.Wrap(err, "encode order")
	}

	return withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		_, err := l.pool.Exec(ctx, `
			INSERT INTO pos_orders (id, ts, doc)
			VALUES ($1, $2, $3)
			ON CONFLICT (id) DO UPDATE
			SET ts = EXCLUDED.ts, doc = EXCLUDED.doc
		`, o.ID, o.Timestamp, string(data))
		return err
	})
}

func (l *PostgresLog) AllOrders(ctx context.Context) ([]Order, error) {
	var out []Order

	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		rows, err := l.pool.Query(ctx, `
			SELECT id, doc
			FROM pos_orders
			ORDER BY ts DESC
		`)
		if err != nil {
			return err
		}
		defer rows.Close()

		out = make([]Order, 0, 64)
		for rows.Next() {
			var (
				id  string
				doc []byte
			)
			if err := rows.Scan(&id, &doc); err != nil {
				return err
			}
			o, err := decodeOrder(doc)
			if err != nil {
				l.log.Warn("skipping unreadable order", zap.String("id", id), zap.Error(err))
				continue
			}
			out = append(out, o)
		}
		return rows.Err()
	})

	if err != nil {
		return nil, err
	}
	return out, nil
}

func (l *PostgresLog) ClearOrders(ctx context.Context) error {
	return withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		_, err := l.pool.Exec(ctx, `DELETE FROM pos_orders`)
		return err
	})
}

func withTimeout(parent context.Context, d time.Duration, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(parent, d)
	defer cancel()
	return fn(ctx)
}
