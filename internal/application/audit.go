package application

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-ddd-auth-service/internal/domain/entity"
	repo "github.com/oksasatya/go-ddd-auth-service/internal/domain/repository"
)

// MultiAuditSink fans an event out to every sink; one failing sink does not stop the others.
type MultiAuditSink []repo.AuditSink

func (m MultiAuditSink) Record(ctx context.Context, ev entity.AuditEvent) error {
	var errs []error
	for _, s := range m {
		if s == nil {
			continue
		}
		if err := s.Record(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// auditor is embedded by the services to record events without failing the caller.
type auditor struct {
	Audit  repo.AuditSink
	Logger *logrus.Logger
}

func (a auditor) record(ctx context.Context, action string, u *entity.User, email string, meta RequestMeta, extra map[string]any) {
	if a.Audit == nil {
		return
	}
	ev := entity.AuditEvent{
		Email:     email,
		Action:    action,
		IP:        meta.IP,
		UserAgent: meta.UserAgent,
		Metadata:  extra,
		CreatedAt: time.Now().UTC(),
	}
	if u != nil {
		ev.UserID = u.ID
		ev.Email = u.Email
	}
	if err := a.Audit.Record(ctx, ev); err != nil && a.Logger != nil {
		a.Logger.WithError(err).WithField("action", action).Warn("audit record failed")
	}
}
