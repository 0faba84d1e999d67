package repository

import (
	"context"

	"github.com/oksasatya/go-ddd-auth-service/internal/domain/entity"
)

// AuditSink receives audit events. Implementations must not block for long.
type AuditSink interface {
	Record(ctx context.Context, ev entity.AuditEvent) error
}
