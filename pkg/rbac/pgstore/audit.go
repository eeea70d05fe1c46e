package pgstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/authkit/pkg/audit"
)

const insertAuditEvent = `
	INSERT INTO audit_events (
		id, organization_id, actor_id, action, resource, resource_id,
		result, error, request_id, ip, user_agent, metadata, created_at, hash
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

// AuditStorage writes audit events to the audit_events table. Wrap it in
// audit.NewAsyncStorage to keep inserts off the request path.
type AuditStorage struct {
	pool *pgxpool.Pool
}

var _ audit.BatchStorage = (*AuditStorage)(nil)

func NewAuditStorage(pool *pgxpool.Pool) *AuditStorage {
	return &AuditStorage{pool: pool}
}

func (s *AuditStorage) Store(ctx context.Context, event audit.Event) error {
	args, err := auditArgs(event)
	if err != nil {
		return err
	}
	if _, err := s.pool.Exec(ctx, insertAuditEvent, args...); err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

// StoreBatch inserts all events in one transaction.
func (s *AuditStorage) StoreBatch(ctx context.Context, events []audit.Event) error {
	if len(events) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, event := range events {
		args, err := auditArgs(event)
		if err != nil {
			return err
		}
		batch.Queue(insertAuditEvent, args...)
	}

	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("insert audit events: %w", err)
		}
		return nil
	})
}

func auditArgs(e audit.Event) ([]any, error) {
	var metadata []byte
	if len(e.Metadata) > 0 {
		var err error
		if metadata, err = json.Marshal(e.Metadata); err != nil {
			return nil, fmt.Errorf("encode audit metadata: %w", err)
		}
	}
	return []any{
		e.ID, e.OrganizationID, e.ActorID, e.Action, e.Resource, e.ResourceID,
		string(e.Result), e.Error, e.RequestID, e.IP, e.UserAgent, metadata, e.CreatedAt, e.Hash,
	}, nil
}
