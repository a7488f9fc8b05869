// Package pgx implements the TicketStore on PostgreSQL with pgvector
// embeddings.
package pgx

import (
	"context"
	"fmt"
	"sync"

	"github.com/ticketwise/backend/pkg/store"
	"github.com/ticketwise/backend/pkg/ticket"

	pgxv5 "github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pgvector/pgvector-go"
)

type pgxIConn interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, optionsAndArgs ...any) (pgxv5.Rows, error)
	QueryRow(ctx context.Context, sql string, optionsAndArgs ...any) pgxv5.Row
	Begin(ctx context.Context) (pgxv5.Tx, error)
}

// TicketDBStore implements store.TicketStore using PostgreSQL. Writes are
// serialized; the corpus swap runs in a single transaction.
type TicketDBStore struct {
	conn   pgxIConn
	dbLock sync.Mutex
}

// NewTicketDBStore creates a TicketDBStore over an existing connection or
// pool. The connection must have pgvector types registered.
func NewTicketDBStore(conn pgxIConn) *TicketDBStore {
	return &TicketDBStore{
		conn:   conn,
		dbLock: sync.Mutex{},
	}
}

// ReplaceAll swaps the persisted corpus inside one transaction. The old
// corpus stays visible until commit.
func (s *TicketDBStore) ReplaceAll(ctx context.Context, modelVersion string, records []store.Record) error {
	s.dbLock.Lock()
	defer s.dbLock.Unlock()

	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM tickets`); err != nil {
		return fmt.Errorf("clear tickets: %w", err)
	}

	rows := make([][]any, 0, len(records))
	for _, r := range records {
		rows = append(rows, []any{
			r.Ticket.ID,
			r.Ticket.Issue,
			r.Ticket.Category,
			r.Ticket.Description,
			r.Ticket.Resolution,
			r.Ticket.Resolved,
			r.Ticket.CreatedAt,
			modelVersion,
			pgvector.NewVector(r.Embedding),
		})
	}

	_, err = tx.CopyFrom(ctx,
		pgxv5.Identifier{"tickets"},
		[]string{"id", "issue", "category", "description", "resolution", "resolved", "created_at", "model_version", "embedding"},
		pgxv5.CopyFromRows(rows),
	)
	if err != nil {
		return fmt.Errorf("copy tickets: %w", err)
	}

	return tx.Commit(ctx)
}

// LoadAll returns all persisted tickets embedded under modelVersion,
// ordered by id for reproducible index builds.
func (s *TicketDBStore) LoadAll(ctx context.Context, modelVersion string) ([]store.Record, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT id, issue, category, description, resolution, resolved, created_at, embedding
		FROM tickets
		WHERE model_version = $1
		ORDER BY id ASC
	`, modelVersion)
	if err != nil {
		return nil, fmt.Errorf("query tickets: %w", err)
	}
	defer rows.Close()

	var records []store.Record
	for rows.Next() {
		var t ticket.Ticket
		var emb pgvector.Vector
		if err := rows.Scan(&t.ID, &t.Issue, &t.Category, &t.Description, &t.Resolution, &t.Resolved, &t.CreatedAt, &emb); err != nil {
			return nil, fmt.Errorf("scan ticket: %w", err)
		}
		records = append(records, store.Record{
			Ticket:    t,
			Embedding: emb.Slice(),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// Count returns the number of persisted tickets across model versions.
func (s *TicketDBStore) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.conn.QueryRow(ctx, `SELECT COUNT(*) FROM tickets`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count tickets: %w", err)
	}
	return count, nil
}
