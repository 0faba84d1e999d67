package application

import (
	"context"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"

	"github.com/oksasatya/go-ddd-auth-service/internal/domain/entity"
)

type failingAudit struct{ err error }

func (f failingAudit) Record(context.Context, entity.AuditEvent) error { return f.err }

func TestMultiAuditSink(t *testing.T) {
	a, b := &captureAudit{}, &captureAudit{}
	boom := errors.New("es down")
	sink := MultiAuditSink{a, failingAudit{err: boom}, nil, b}

	err := sink.Record(context.Background(), entity.AuditEvent{Action: entity.AuditLogout})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{entity.AuditLogout}, a.actions())
	assert.Equal(t, []string{entity.AuditLogout}, b.actions())
}

func TestAuditorLogsFailures(t *testing.T) {
	logger, hook := test.NewNullLogger()
	au := auditor{Audit: failingAudit{err: errors.New("db down")}, Logger: logger}

	au.record(context.Background(), entity.AuditLoginFailed, nil, "a@b.com", RequestMeta{IP: "1.2.3.4"}, nil)

	entry := hook.LastEntry()
	if assert.NotNil(t, entry) {
		assert.Equal(t, logrus.WarnLevel, entry.Level)
		assert.Equal(t, entity.AuditLoginFailed, entry.Data["action"])
	}
}

func TestAuditorFillsUser(t *testing.T) {
	c := &captureAudit{}
	au := auditor{Audit: c}
	au.record(context.Background(), entity.AuditLoginSuccess, &entity.User{ID: "u1", Email: "a@b.com"}, "", RequestMeta{IP: "1.2.3.4", UserAgent: "ua"}, map[string]any{"remember": true})

	if assert.Len(t, c.events, 1) {
		ev := c.events[0]
		assert.Equal(t, "u1", ev.UserID)
		assert.Equal(t, "a@b.com", ev.Email)
		assert.Equal(t, "1.2.3.4", ev.IP)
		assert.Equal(t, true, ev.Metadata["remember"])
		assert.False(t, ev.CreatedAt.IsZero())
	}
}

func TestValidationErrorMessage(t *testing.T) {
	e := NewValidationError()
	e.Add("password", "too short")
	e.Add(NonFieldErrors, "mismatch")
	assert.Equal(t, "validation failed: non_field_errors: mismatch; password: too short", e.Error())
	assert.True(t, e.HasErrors())
}
