// Package pgstore provides a PostgreSQL implementation of protocol.Store.
package pgstore

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/linnemanlabs/mikey/internal/protocol"
)

var tracer = otel.Tracer("github.com/linnemanlabs/mikey/internal/protocol/pgstore")

//go:embed schema.sql
var schema string

// Store persists the protocol catalog in PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// New applies the schema on pool and returns a ready Store.
// The caller owns the pool.
func New(ctx context.Context, pool *pgxpool.Pool) (*Store, error) {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{pool: pool}, nil
}

const protocolColumns = `id, name, version, tier, purpose, triggers, keywords, status, implemented_by, content`

func startSpan(ctx context.Context, name, op string) (context.Context, trace.Span) {
	return tracer.Start(ctx, name, trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", op),
	))
}

func fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

// Get retrieves a protocol by ID.
func (s *Store) Get(ctx context.Context, id string) (*protocol.Protocol, bool, error) {
	ctx, span := startSpan(ctx, "pgstore.Get", "SELECT")
	defer span.End()

	query := `SELECT ` + protocolColumns + ` FROM protocols WHERE id = $1`
	p, err := scanProtocol(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fail(span, err)
	}
	return p, true, nil
}

// List returns every protocol in catalog order.
func (s *Store) List(ctx context.Context) ([]*protocol.Protocol, error) {
	ctx, span := startSpan(ctx, "pgstore.List", "SELECT")
	defer span.End()

	rows, err := s.pool.Query(ctx, `SELECT `+protocolColumns+` FROM protocols ORDER BY ordinal, id`)
	if err != nil {
		return nil, fail(span, fmt.Errorf("query protocols: %w", err))
	}
	defer rows.Close()

	var out []*protocol.Protocol
	for rows.Next() {
		p, err := scanProtocol(rows)
		if err != nil {
			return nil, fail(span, err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fail(span, fmt.Errorf("iterate protocols: %w", err))
	}
	span.SetAttributes(attribute.Int("mikey.protocols.count", len(out)))
	return out, nil
}

// Put inserts or updates a protocol. New IDs go to the end of the catalog.
func (s *Store) Put(ctx context.Context, p *protocol.Protocol) error {
	ctx, span := startSpan(ctx, "pgstore.Put", "UPSERT")
	defer span.End()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fail(span, fmt.Errorf("begin tx: %w", err))
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is harmless

	var ordinal int
	if err := tx.QueryRow(ctx, `SELECT COALESCE(MAX(ordinal), 0) + 1 FROM protocols`).Scan(&ordinal); err != nil {
		return fail(span, fmt.Errorf("next ordinal: %w", err))
	}
	if err := upsertProtocol(ctx, tx, p, ordinal); err != nil {
		return fail(span, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fail(span, fmt.Errorf("commit: %w", err))
	}
	return nil
}

// Replace swaps the whole catalog for ps in a single transaction.
func (s *Store) Replace(ctx context.Context, ps []*protocol.Protocol) error {
	ctx, span := startSpan(ctx, "pgstore.Replace", "REPLACE")
	defer span.End()
	span.SetAttributes(attribute.Int("mikey.protocols.count", len(ps)))

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fail(span, fmt.Errorf("begin tx: %w", err))
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is harmless

	if _, err := tx.Exec(ctx, `DELETE FROM protocols`); err != nil {
		return fail(span, fmt.Errorf("clear protocols: %w", err))
	}
	for i, p := range ps {
		if err := upsertProtocol(ctx, tx, p, i+1); err != nil {
			return fail(span, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fail(span, fmt.Errorf("commit: %w", err))
	}
	return nil
}

// upsertProtocol writes p. On conflict the existing ordinal is kept.
func upsertProtocol(ctx context.Context, tx pgx.Tx, p *protocol.Protocol, ordinal int) error {
	triggersJSON, err := json.Marshal(nonNil(p.Triggers))
	if err != nil {
		return fmt.Errorf("marshal triggers %s: %w", p.ID, err)
	}
	keywordsJSON, err := json.Marshal(nonNil(p.Keywords))
	if err != nil {
		return fmt.Errorf("marshal keywords %s: %w", p.ID, err)
	}

	query := `INSERT INTO protocols (
		id, ordinal, name, version, tier, purpose, triggers, keywords, status, implemented_by, content, updated_at
	) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11, now())
	ON CONFLICT (id) DO UPDATE SET
		name           = EXCLUDED.name,
		version        = EXCLUDED.version,
		tier           = EXCLUDED.tier,
		purpose        = EXCLUDED.purpose,
		triggers       = EXCLUDED.triggers,
		keywords       = EXCLUDED.keywords,
		status         = EXCLUDED.status,
		implemented_by = EXCLUDED.implemented_by,
		content        = EXCLUDED.content,
		updated_at     = now()`

	_, err = tx.Exec(ctx, query,
		p.ID, ordinal, p.Name, p.Version, int(p.Tier), p.Purpose,
		triggersJSON, keywordsJSON, string(p.Status), p.ImplementedBy, p.Content,
	)
	if err != nil {
		return fmt.Errorf("upsert protocol %s: %w", p.ID, err)
	}
	return nil
}

// scanProtocol scans a single row. pgx.ErrNoRows is returned unwrapped.
func scanProtocol(row pgx.Row) (*protocol.Protocol, error) {
	var (
		p            protocol.Protocol
		tier         int
		status       string
		triggersJSON []byte
		keywordsJSON []byte
	)

	err := row.Scan(
		&p.ID, &p.Name, &p.Version, &tier, &p.Purpose,
		&triggersJSON, &keywordsJSON, &status, &p.ImplementedBy, &p.Content,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan: %w", err)
	}

	p.Tier = protocol.Tier(tier)
	p.Status = protocol.Status(status)

	if err := json.Unmarshal(triggersJSON, &p.Triggers); err != nil {
		return nil, fmt.Errorf("unmarshal triggers %s: %w", p.ID, err)
	}
	if err := json.Unmarshal(keywordsJSON, &p.Keywords); err != nil {
		return nil, fmt.Errorf("unmarshal keywords %s: %w", p.ID, err)
	}
	return &p, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

var _ protocol.Store = (*Store)(nil)
