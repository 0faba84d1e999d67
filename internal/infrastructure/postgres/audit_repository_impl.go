package postgres

import (
	"context"
	"encoding/json"

	"github.com/oksasatya/go-ddd-auth-service/internal/domain/entity"
	"github.com/oksasatya/go-ddd-auth-service/internal/domain/repository"
)

// AuditRepository appends audit events to audit_logs.
type AuditRepository struct {
	pool DB
}

func NewAuditRepository(pool DB) *AuditRepository {
	return &AuditRepository{pool: pool}
}

func (r *AuditRepository) Record(ctx context.Context, ev entity.AuditEvent) error {
	meta := ev.Metadata
	if meta == nil {
		meta = map[string]any{}
	}
	b, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	var userID any
	if ev.UserID != "" {
		userID = ev.UserID
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO audit_logs (user_id, email, action, ip, user_agent, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, userID, ev.Email, ev.Action, ev.IP, ev.UserAgent, b, ev.CreatedAt)
	return err
}

var _ repository.AuditSink = (*AuditRepository)(nil)
