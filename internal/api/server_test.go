// internal/api/server_test.go
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"notification-service/internal/common/logger"
	"notification-service/internal/models"
	"notification-service/internal/service"
	"notification-service/internal/store"
)

func newTestServer(t *testing.T) (*Server, *store.MemoryStore) {
	t.Helper()
	st := store.NewMemoryStore()
	svc := service.New(st, logger.NewNoOpLogger())
	return NewServer(svc, st, logger.NewTestLogger(t)), st
}

func doRequest(s *Server, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestServer_Health(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(s, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"OK"`)
}

func TestServer_SendNotification(t *testing.T) {
	s, st := newTestServer(t)

	rec := doRequest(s, http.MethodPost, "/v1/notifications",
		`{"recipient":"rider-001","channel":"email","subject":"Hi","message":"hello"}`)
	assert.Equal(t, http.StatusAccepted, rec.Code)

	var n models.Notification
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &n))
	assert.NotEmpty(t, n.ID)
	assert.Equal(t, models.StatusQueued, n.Status)
	assert.Equal(t, "rider-001", n.Recipient)

	persisted, err := st.FindByID(context.Background(), n.ID)
	assert.NoError(t, err)
	assert.Equal(t, models.StatusQueued, persisted.Status)
}

func TestServer_SendNotification_BadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "malformed JSON", body: `{not json`},
		{name: "unsupported channel", body: `{"recipient":"r","channel":"fax","message":"m"}`},
		{name: "missing recipient", body: `{"channel":"sms","message":"m"}`},
		{name: "missing message", body: `{"recipient":"r","channel":"sms"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, st := newTestServer(t)

			rec := doRequest(s, http.MethodPost, "/v1/notifications", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), `"error"`)

			all, err := st.FindAll(context.Background(), 10)
			assert.NoError(t, err)
			assert.Empty(t, all)
		})
	}
}

func TestServer_GetNotification(t *testing.T) {
	s, _ := newTestServer(t)

	created := doRequest(s, http.MethodPost, "/v1/notifications",
		`{"recipient":"rider-001","channel":"push","message":"hello"}`)
	assert.Equal(t, http.StatusAccepted, created.Code)

	var n models.Notification
	assert.NoError(t, json.Unmarshal(created.Body.Bytes(), &n))

	rec := doRequest(s, http.MethodGet, "/v1/notifications/"+n.ID, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	var got models.Notification
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, n.ID, got.ID)
}

func TestServer_GetNotification_NotFound(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(s, http.MethodGet, "/v1/notifications/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "not found")
}

func TestServer_ListNotifications(t *testing.T) {
	s, _ := newTestServer(t)

	for i := 0; i < 3; i++ {
		rec := doRequest(s, http.MethodPost, "/v1/notifications",
			`{"recipient":"rider-001","channel":"sms","message":"hello"}`)
		assert.Equal(t, http.StatusAccepted, rec.Code)
	}

	rec := doRequest(s, http.MethodGet, "/v1/notifications", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	var list []*models.Notification
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list, 3)
}

func TestServer_ListNotifications_Limit(t *testing.T) {
	s, _ := newTestServer(t)

	for i := 0; i < 5; i++ {
		doRequest(s, http.MethodPost, "/v1/notifications",
			`{"recipient":"rider-001","channel":"sms","message":"hello"}`)
	}

	rec := doRequest(s, http.MethodGet, "/v1/notifications?limit=2", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	var list []*models.Notification
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list, 2)
}

func TestServer_GetByRecipient(t *testing.T) {
	s, _ := newTestServer(t)

	doRequest(s, http.MethodPost, "/v1/notifications",
		`{"recipient":"rider-001","channel":"sms","message":"hello"}`)
	doRequest(s, http.MethodPost, "/v1/notifications",
		`{"recipient":"driver-007","channel":"push","message":"hello"}`)

	rec := doRequest(s, http.MethodGet, "/v1/notifications/recipient/rider-001", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	var list []*models.Notification
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list, 1)
	assert.Equal(t, "rider-001", list[0].Recipient)
}

func TestServer_CorrelationID(t *testing.T) {
	s, _ := newTestServer(t)

	// Caller-provided id is echoed back.
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Correlation-Id", "corr-123")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, "corr-123", rec.Header().Get("X-Correlation-Id"))

	// Missing id gets generated.
	rec = doRequest(s, http.MethodGet, "/health", "")
	assert.NotEmpty(t, rec.Header().Get("X-Correlation-Id"))
}

func TestServer_Metrics(t *testing.T) {
	s, _ := newTestServer(t)

	doRequest(s, http.MethodPost, "/v1/notifications",
		`{"recipient":"rider-001","channel":"email","message":"hello"}`)

	rec := doRequest(s, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "notifications_total")
	assert.Contains(t, rec.Body.String(), `notifications_by_status{status="queued"}`)
}
