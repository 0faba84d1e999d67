package search

import (
	"context"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/google/uuid"

	"github.com/oksasatya/go-ddd-auth-service/internal/domain/entity"
	"github.com/oksasatya/go-ddd-auth-service/internal/domain/repository"
	"github.com/oksasatya/go-ddd-auth-service/pkg/helpers"
)

// AuditIndexer mirrors audit events into an Elasticsearch index for searching.
type AuditIndexer struct {
	es    *elasticsearch.Client
	index string
}

func NewAuditIndexer(es *elasticsearch.Client, index string) *AuditIndexer {
	return &AuditIndexer{es: es, index: index}
}

type auditDoc struct {
	UserID    string         `json:"user_id,omitempty"`
	Email     string         `json:"email,omitempty"`
	Action    string         `json:"action"`
	IP        string         `json:"ip,omitempty"`
	UserAgent string         `json:"user_agent,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"@timestamp"`
}

func (a *AuditIndexer) Record(ctx context.Context, ev entity.AuditEvent) error {
	return helpers.ESIndexJSON(ctx, a.es, a.index, uuid.NewString(), auditDoc{
		UserID:    ev.UserID,
		Email:     ev.Email,
		Action:    ev.Action,
		IP:        ev.IP,
		UserAgent: ev.UserAgent,
		Metadata:  ev.Metadata,
		CreatedAt: ev.CreatedAt,
	})
}

var _ repository.AuditSink = (*AuditIndexer)(nil)
