package auditlog

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/agilabus/ftms-backend-go/internal/domain/audit"
	"github.com/agilabus/ftms-backend-go/internal/pkg/outbound"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLog_DeliversEvent(t *testing.T) {
	var mu sync.Mutex
	var received []map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/audit-logs", r.URL.Path)
		assert.Equal(t, "audit-key", r.Header.Get("X-API-Key"))

		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		mu.Lock()
		received = append(received, payload)
		mu.Unlock()
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	dispatcher := outbound.NewDispatcher(8, 1, time.Millisecond, time.Second)
	dispatcher.Start()

	client := NewClient(srv.URL, "audit-key", 5*time.Second, dispatcher)
	client.Log(context.Background(), audit.Event{
		Module:   "payroll_period",
		Action:   audit.ActionCreate,
		Actor:    audit.Actor{ID: "user-1", Name: "Test Admin", Role: "admin"},
		RecordID: "period-1",
		After:    map[string]string{"code": "2026-01A"},
		Meta:     audit.RequestMeta{IP: "10.0.0.1", UserAgent: "go-test"},
	})

	dispatcher.Stop()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, received, 1)
	payload := received[0]
	assert.Equal(t, "payroll_period", payload["module"])
	assert.Equal(t, "CREATE", payload["action"])
	assert.Equal(t, "user-1", payload["user_id"])
	assert.Equal(t, "period-1", payload["record_id"])
	assert.Equal(t, "10.0.0.1", payload["ip_address"])
	assert.NotEmpty(t, payload["event_id"])
	assert.NotEmpty(t, payload["occurred_at"])
}

func TestLog_RetriesKeepEventID(t *testing.T) {
	var mu sync.Mutex
	var ids []string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		mu.Lock()
		ids = append(ids, payload["event_id"].(string))
		failFirst := len(ids) == 1
		mu.Unlock()

		if failFirst {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	dispatcher := outbound.NewDispatcher(8, 2, time.Millisecond, time.Second)
	dispatcher.Start()

	client := NewClient(srv.URL, "audit-key", 5*time.Second, dispatcher)
	client.Log(context.Background(), audit.Event{
		Module: "payroll_period",
		Action: audit.ActionDelete,
		Actor:  audit.Actor{ID: "user-1"},
		Reason: "duplicate entry",
	})

	dispatcher.Stop()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, ids, 2)
	assert.Equal(t, ids[0], ids[1])
}
