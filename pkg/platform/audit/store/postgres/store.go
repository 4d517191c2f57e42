package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	audit "credchain/pkg/platform/audit"
	"credchain/pkg/platform/audit/outbox"
	txcontext "credchain/pkg/platform/tx"
)

// Store implements audit.Store using the transactional outbox pattern.
// Events land in audit_outbox and are relayed to Kafka by outbox.Relay.
type Store struct {
	db *sql.DB
}

// New creates a PostgreSQL audit store that writes to the outbox.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *Store) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

// payload is the JSON published to Kafka.
type payload struct {
	ID        string            `json:"id"`
	Category  string            `json:"category"`
	Timestamp string            `json:"timestamp"`
	Action    string            `json:"action"`
	ActorID   string            `json:"actor_id,omitempty"`
	ActorRole string            `json:"actor_role,omitempty"`
	Subject   string            `json:"subject,omitempty"`
	Reason    string            `json:"reason,omitempty"`
	IP        string            `json:"ip,omitempty"`
	UserAgent string            `json:"user_agent,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// Append writes an audit event to the outbox. When ctx carries a transaction
// the row commits or rolls back with it.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	entryID := uuid.New()
	ts := event.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	body, err := json.Marshal(payload{
		ID:        entryID.String(),
		Category:  string(audit.AuditEvent(event.Action).Category()),
		Timestamp: ts.UTC().Format(time.RFC3339Nano),
		Action:    event.Action,
		ActorID:   event.ActorID,
		ActorRole: event.ActorRole,
		Subject:   event.Subject,
		Reason:    event.Reason,
		IP:        event.IP,
		UserAgent: event.UserAgent,
		RequestID: event.RequestID,
		Metadata:  event.Metadata,
	})
	if err != nil {
		return fmt.Errorf("marshal audit payload: %w", err)
	}

	aggregateType, aggregateID := "audit", entryID.String()
	if event.Subject != "" {
		aggregateType, aggregateID = "subject", event.Subject
	}

	query := `
		INSERT INTO audit_outbox (id, aggregate_type, aggregate_id, event_type, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err = s.execer(ctx).ExecContext(ctx, query, entryID, aggregateType, aggregateID, event.Action, string(body), ts)
	if err != nil {
		return fmt.Errorf("insert outbox entry: %w", err)
	}
	return nil
}

// Claim locks up to limit unpublished rows, hands them to fn and marks them
// published in the same transaction. Rows locked by another relay are skipped.
func (s *Store) Claim(ctx context.Context, limit int, fn func(context.Context, []outbox.Entry) error) (int, error) {
	var claimed int
	err := txcontext.Run(ctx, s.db, func(ctx context.Context) error {
		entries, err := s.fetchUnpublished(ctx, limit)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			return nil
		}
		if err := fn(ctx, entries); err != nil {
			return fmt.Errorf("publish outbox entries: %w", err)
		}
		ids := make([]uuid.UUID, len(entries))
		for i, e := range entries {
			ids[i] = e.ID
		}
		if err := s.markPublished(ctx, ids); err != nil {
			return err
		}
		claimed = len(entries)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return claimed, nil
}

func (s *Store) fetchUnpublished(ctx context.Context, limit int) ([]outbox.Entry, error) {
	query := `
		SELECT id, aggregate_type, aggregate_id, event_type, payload, created_at
		FROM audit_outbox
		WHERE published_at IS NULL
		ORDER BY created_at
		LIMIT $1
		FOR UPDATE SKIP LOCKED
	`
	rows, err := s.execer(ctx).QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query outbox: %w", err)
	}
	defer rows.Close()

	var entries []outbox.Entry
	for rows.Next() {
		var e outbox.Entry
		if err := rows.Scan(&e.ID, &e.AggregateType, &e.AggregateID, &e.EventType, &e.Payload, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan outbox entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outbox: %w", err)
	}
	return entries, nil
}

func (s *Store) markPublished(ctx context.Context, ids []uuid.UUID) error {
	strs := make([]string, len(ids))
	for i, id := range ids {
		strs[i] = id.String()
	}
	_, err := s.execer(ctx).ExecContext(ctx,
		`UPDATE audit_outbox SET published_at = now() WHERE id = ANY($1::uuid[])`,
		pq.Array(strs),
	)
	if err != nil {
		return fmt.Errorf("mark outbox published: %w", err)
	}
	return nil
}

// CountUnpublished reports the relay backlog.
func (s *Store) CountUnpublished(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM audit_outbox WHERE published_at IS NULL`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count outbox: %w", err)
	}
	return n, nil
}
