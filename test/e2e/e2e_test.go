// test/e2e/e2e_test.go
package e2e

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notification-service/internal/api"
	"notification-service/internal/channel"
	"notification-service/internal/common/logger"
	"notification-service/internal/dispatch"
	"notification-service/internal/events"
	"notification-service/internal/models"
	"notification-service/internal/service"
	"notification-service/internal/store"
)

// recordingSender accepts everything and remembers what it delivered.
type recordingSender struct {
	delivered []string
}

func (s *recordingSender) Attempt(ctx context.Context, n *models.Notification) (bool, error) {
	s.delivered = append(s.delivered, n.ID)
	return true, nil
}

// pipeline wires the full service in process: HTTP API and event router in
// front, memory store in the middle, dispatch cycles driven manually.
type pipeline struct {
	st         *store.MemoryStore
	svc        *service.Service
	dispatcher *dispatch.Dispatcher
	server     *httptest.Server
	router     *events.Router
	sender     *recordingSender
}

func newPipeline(t *testing.T) *pipeline {
	t.Helper()

	log := logger.NewTestLogger(t)
	st := store.NewMemoryStore()
	svc := service.New(st, log)

	sender := &recordingSender{}
	reg := channel.NewRegistry()
	reg.Register(models.ChannelEmail, sender)
	reg.Register(models.ChannelSMS, sender)
	reg.Register(models.ChannelPush, sender)

	d := dispatch.New(dispatch.Config{
		Interval:       50 * time.Millisecond,
		BatchSize:      10,
		AttemptTimeout: time.Second,
	}, st, reg, nil, nil, log)

	router := events.NewRouter(
		events.NewTripTranslator(svc, log),
		events.NewPaymentTranslator(svc, log),
		events.NewDriverTranslator(svc, log),
		log,
	)

	srv := httptest.NewServer(api.NewServer(svc, st, log).Handler())
	t.Cleanup(srv.Close)

	return &pipeline{st: st, svc: svc, dispatcher: d, server: srv, router: router, sender: sender}
}

func (p *pipeline) post(t *testing.T, path, body string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Post(p.server.URL+path, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	var out json.RawMessage
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp, out
}

func (p *pipeline) get(t *testing.T, path string, out interface{}) *http.Response {
	t.Helper()
	resp, err := http.Get(p.server.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	return resp
}

func TestSubmitDispatchQuery(t *testing.T) {
	p := newPipeline(t)
	ctx := context.Background()

	// 1. Submit through the HTTP API.
	resp, body := p.post(t, "/v1/notifications",
		`{"recipient":"rider-001","channel":"email","subject":"Hi","message":"hello"}`)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	var created models.Notification
	require.NoError(t, json.Unmarshal(body, &created))
	assert.Equal(t, models.StatusQueued, created.Status)

	// 2. A dispatch cycle delivers it.
	p.dispatcher.RunOnce(ctx)
	assert.Equal(t, []string{created.ID}, p.sender.delivered)

	// 3. The terminal state is visible through the API.
	var got models.Notification
	resp2 := p.get(t, "/v1/notifications/"+created.ID, &got)
	require.Equal(t, http.StatusOK, resp2.StatusCode)
	assert.Equal(t, models.StatusSent, got.Status)

	var byRecipient []*models.Notification
	p.get(t, "/v1/notifications/recipient/rider-001", &byRecipient)
	assert.Len(t, byRecipient, 1)
}

func TestEventToDelivery(t *testing.T) {
	p := newPipeline(t)
	ctx := context.Background()

	payload, err := json.Marshal(map[string]interface{}{
		"eventType": "trip.completed",
		"data": map[string]interface{}{
			"tripId":   "t-1",
			"riderId":  "rider-001",
			"driverId": "driver-007",
			"fare":     18.0,
		},
	})
	require.NoError(t, err)

	// Event translation queues two notifications.
	p.router.Route(ctx, "trip-events", payload)

	counts, err := p.st.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, counts.Queued)

	// One cycle drains both.
	p.dispatcher.RunOnce(ctx)

	counts, err = p.st.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, counts.Sent)
	assert.Equal(t, 0, counts.Queued)
}
