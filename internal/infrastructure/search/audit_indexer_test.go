package search

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-ddd-auth-service/internal/domain/entity"
	"github.com/oksasatya/go-ddd-auth-service/pkg/helpers"
)

func TestAuditIndexerRecord(t *testing.T) {
	var gotDoc map[string]any
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		gotPath = r.URL.Path
		b, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(b, &gotDoc)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"result":"created"}`))
	}))
	defer srv.Close()

	es, err := helpers.NewESClient([]string{srv.URL}, "", "")
	require.NoError(t, err)

	idx := NewAuditIndexer(es, "auth-audit")
	err = idx.Record(context.Background(), entity.AuditEvent{
		Email:     "a@b.com",
		Action:    entity.AuditResetUnknown,
		IP:        "10.0.0.1",
		CreatedAt: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(gotPath, "/auth-audit/_doc/"), gotPath)
	assert.Equal(t, entity.AuditResetUnknown, gotDoc["action"])
	assert.Equal(t, "a@b.com", gotDoc["email"])
	assert.Equal(t, "2025-01-02T03:04:05Z", gotDoc["@timestamp"])
	assert.NotContains(t, gotDoc, "user_id")
}
