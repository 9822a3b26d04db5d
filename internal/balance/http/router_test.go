package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/balancebot/internal/balance/domain"
	balancehttp "github.com/aussiebroadwan/balancebot/internal/balance/http"
	"github.com/aussiebroadwan/balancebot/internal/balance/service"
	"github.com/aussiebroadwan/balancebot/pkg/httpx"
)

const secret = "s3cret"

type recordingHandler struct {
	mu      sync.Mutex
	events  []domain.WebhookEvent
	outcome service.Outcome
}

func (h *recordingHandler) Handle(_ context.Context, ev domain.WebhookEvent) service.Outcome {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, ev)
	return h.outcome
}

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

func newRouter(t *testing.T, events balancehttp.EventHandler, st balancehttp.Pinger, configure func(*balancehttp.Router)) *balancehttp.Router {
	t.Helper()
	r := balancehttp.NewRouter("test", st, slog.New(slog.DiscardHandler))
	r.Webhook = events
	r.WebhookSecret = secret
	if configure != nil {
		configure(r)
	}
	r.ApplyRoutes()
	return r
}

func post(r http.Handler, target, body string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

const txBody = `{"type":"transaction.created","data":{"id":"tx_1","account_id":"acc_1","amount":-500,"merchant":{"name":"Cafe"}}}`

func TestWebhookAuthentication(t *testing.T) {
	events := &recordingHandler{outcome: service.OutcomeProcessed}
	r := newRouter(t, events, pinger{}, nil)

	t.Run("missing secret", func(t *testing.T) {
		rec := post(r, "/monzo_webhook", txBody, nil)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Equal(t, "Unauthorized", rec.Body.String())
	})

	t.Run("wrong secret", func(t *testing.T) {
		rec := post(r, "/monzo_webhook", txBody, map[string]string{balancehttp.SecretHeader: "nope"})
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("query secret disabled by default", func(t *testing.T) {
		rec := post(r, "/monzo_webhook?secret_key="+secret, txBody, nil)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("header secret", func(t *testing.T) {
		rec := post(r, "/monzo_webhook", txBody, map[string]string{balancehttp.SecretHeader: secret})
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "Processed", rec.Body.String())
		require.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	})

	require.Len(t, events.events, 1)
	ev := events.events[0]
	require.Equal(t, domain.EventTypeTransactionCreated, ev.Type)
	require.Equal(t, "tx_1", ev.Data.ID)
	require.Equal(t, "acc_1", ev.Data.AccountID)
	require.Equal(t, int64(-500), ev.Data.Amount)
	require.Equal(t, "Cafe", ev.Data.MerchantName())
}

func TestWebhookQuerySecretWhenAllowed(t *testing.T) {
	events := &recordingHandler{outcome: service.OutcomeDuplicate}
	r := newRouter(t, events, pinger{}, func(r *balancehttp.Router) { r.AllowQuerySecret = true })

	rec := post(r, "/monzo_webhook?secret_key="+secret, txBody, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "Duplicate", rec.Body.String())

	rec = post(r, "/monzo_webhook?secret_key=wrong", txBody, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestWebhookInvalidJSON(t *testing.T) {
	events := &recordingHandler{outcome: service.OutcomeProcessed}
	r := newRouter(t, events, pinger{}, nil)

	rec := post(r, "/monzo_webhook", `{"type":`, map[string]string{balancehttp.SecretHeader: secret})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "Invalid JSON", rec.Body.String())
	require.Empty(t, events.events)
}

func TestWebhookRejectsOtherMethods(t *testing.T) {
	r := newRouter(t, &recordingHandler{}, pinger{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/monzo_webhook", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestWebhookRateLimited(t *testing.T) {
	r := newRouter(t, &recordingHandler{outcome: service.OutcomeReceived}, pinger{}, func(r *balancehttp.Router) {
		r.WebhookLimit = httpx.RateLimitConfig{RequestsPerWindow: 2, Window: time.Minute, Burst: 2}
	})

	hdr := map[string]string{balancehttp.SecretHeader: secret}
	require.Equal(t, http.StatusOK, post(r, "/monzo_webhook", txBody, hdr).Code)
	require.Equal(t, http.StatusOK, post(r, "/monzo_webhook", txBody, hdr).Code)
	require.Equal(t, http.StatusTooManyRequests, post(r, "/monzo_webhook", txBody, hdr).Code)
}

func TestHealth(t *testing.T) {
	get := func(r http.Handler, path string) (*httptest.ResponseRecorder, balancehttp.HealthResponse) {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		var body balancehttp.HealthResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		return rec, body
	}

	t.Run("ready", func(t *testing.T) {
		r := newRouter(t, &recordingHandler{}, pinger{}, nil)

		rec, body := get(r, "/livez")
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "ok", body.Status)
		require.Equal(t, "test", body.Version)
		require.Nil(t, body.Checks)

		rec, body = get(r, "/readyz")
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "ok", body.Checks.Store)
	})

	t.Run("store down", func(t *testing.T) {
		r := newRouter(t, &recordingHandler{}, pinger{err: errors.New("connection refused")}, nil)

		rec, _ := get(r, "/livez")
		require.Equal(t, http.StatusOK, rec.Code)

		rec, body := get(r, "/readyz")
		require.Equal(t, http.StatusServiceUnavailable, rec.Code)
		require.Equal(t, "degraded", body.Status)
		require.Equal(t, "error: connection refused", body.Checks.Store)
	})
}

func TestMetricsRoute(t *testing.T) {
	r := newRouter(t, &recordingHandler{}, pinger{}, nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)

	r = newRouter(t, &recordingHandler{}, pinger{}, func(r *balancehttp.Router) {
		r.Metrics = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("# metrics"))
		})
	})
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "# metrics", rec.Body.String())
}
