// Package pgstore keeps record-store tables in a single PostgreSQL table with jsonb fields.
package pgstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/md-rashed-zaman/bookingassistant/services/booking-service/internal/recordstore"
)

const schema = `
CREATE TABLE IF NOT EXISTS records (
	table_name text NOT NULL,
	id         text NOT NULL,
	fields     jsonb NOT NULL DEFAULT '{}'::jsonb,
	created_at timestamptz NOT NULL DEFAULT now(),
	PRIMARY KEY (table_name, id)
);
CREATE INDEX IF NOT EXISTS records_email_idx ON records (table_name, lower(fields->>'Email'));
`

// Querier is satisfied by *pgxpool.Pool and pgx.Tx.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Store struct {
	db Querier
}

func New(db Querier) *Store {
	return &Store{db: db}
}

func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, schema)
	return err
}

func (s *Store) FetchAll(ctx context.Context, table string, filter recordstore.Filter) ([]recordstore.Record, error) {
	sql, args := selectQuery(table, filter)
	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	defer rows.Close()

	var out []recordstore.Record
	for rows.Next() {
		var (
			rec    recordstore.Record
			raw    []byte
			create time.Time
		)
		if err := rows.Scan(&rec.ID, &raw, &create); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(raw, &rec.Fields); err != nil {
			return nil, fmt.Errorf("decode %s/%s: %w", table, rec.ID, err)
		}
		rec.CreatedAt = create.UTC()
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *Store) CreateRecord(ctx context.Context, table string, fields recordstore.Fields) (recordstore.Record, error) {
	raw, err := json.Marshal(fields)
	if err != nil {
		return recordstore.Record{}, err
	}
	rec := recordstore.Record{ID: "rec" + uuid.NewString(), Fields: fields}
	err = s.db.QueryRow(ctx, `
		INSERT INTO records (table_name, id, fields)
		VALUES ($1, $2, $3)
		RETURNING created_at
	`, table, rec.ID, raw).Scan(&rec.CreatedAt)
	if err != nil {
		return recordstore.Record{}, fmt.Errorf("insert %s: %w", table, err)
	}
	rec.CreatedAt = rec.CreatedAt.UTC()
	return rec, nil
}

func selectQuery(table string, f recordstore.Filter) (string, []any) {
	const base = `SELECT id, fields, created_at FROM records WHERE table_name = $1`
	const order = ` ORDER BY created_at, id`
	switch f.Op {
	case recordstore.OpEqualFold:
		return base + ` AND lower(fields->>$2) = lower($3)` + order, []any{table, f.Field, f.Value}
	case recordstore.OpEquals:
		return base + ` AND fields->>$2 = $3` + order, []any{table, f.Field, f.Value}
	case recordstore.OpNotEquals:
		return base + ` AND coalesce(fields->>$2, '') <> $3` + order, []any{table, f.Field, f.Value}
	default:
		return base + order, []any{table}
	}
}
