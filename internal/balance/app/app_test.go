package app

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeMonzo serves the calls made while handling one low-balance webhook.
func fakeMonzo(t *testing.T, balance int64) (*httptest.Server, *atomic.Int32) {
	t.Helper()

	var feeds atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("POST /oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprint(w, `{"access_token":"at","refresh_token":"rt-2","expires_in":21600}`)
	})
	mux.HandleFunc("GET /transactions/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprintf(w, `{"transaction":{"id":%q,"account_id":"acc_1","amount":-500}}`, r.PathValue("id"))
	})
	mux.HandleFunc("PATCH /transactions/{id}", func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, `{}`)
	})
	mux.HandleFunc("GET /balance", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprintf(w, `{"balance":%d,"currency":"GBP"}`, balance)
	})
	mux.HandleFunc("POST /feed", func(w http.ResponseWriter, r *http.Request) {
		feeds.Add(1)
		_, _ = fmt.Fprint(w, `{}`)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &feeds
}

func newTestApp(t *testing.T, apiURL string, mutate func(*Config)) *Application {
	t.Helper()

	cfg := validConfig()
	cfg.MonzoClientID = "cid"
	cfg.MonzoClientSecret = "csecret"
	cfg.MonzoRefreshToken = "rt-1"
	cfg.MonzoAPIURL = apiURL
	cfg.SeenTTL = 10 * time.Minute
	cfg.MetricsEnabled = true
	cfg.LogLevel = "error"
	cfg.Env = "test"
	if mutate != nil {
		mutate(&cfg)
	}

	app, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.db.Close() })
	return app
}

func deliver(app *Application, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/monzo_webhook", strings.NewReader(body))
	req.Header.Set("X-Webhook-Secret", "secret")
	rec := httptest.NewRecorder()
	app.Handler().ServeHTTP(rec, req)
	return rec
}

func TestWebhookEndToEnd(t *testing.T) {
	backends := map[string]func(*Config){
		"memory": nil,
		"sqlite": func(c *Config) {
			c.StateBackend = BackendSQLite
			c.DatabaseFile = filepath.Join(t.TempDir(), "state.db")
		},
	}

	for name, mutate := range backends {
		t.Run(name, func(t *testing.T) {
			srv, feeds := fakeMonzo(t, 500)
			app := newTestApp(t, srv.URL, mutate)

			body := `{"type":"transaction.created","data":{"id":"tx_1","account_id":"acc_1","amount":-500}}`

			rec := deliver(app, body)
			require.Equal(t, http.StatusOK, rec.Code)
			require.Equal(t, "Processed", rec.Body.String())
			require.Equal(t, int32(1), feeds.Load())

			rec = deliver(app, body)
			require.Equal(t, "Duplicate", rec.Body.String())
			require.Equal(t, int32(1), feeds.Load())

			rec = deliver(app, `{"type":"account.updated","data":{}}`)
			require.Equal(t, "Received", rec.Body.String())

			rec = httptest.NewRecorder()
			app.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
			require.Equal(t, http.StatusOK, rec.Code)
			require.Contains(t, rec.Body.String(), `balancebot_webhook_events_total{outcome="Duplicate"} 1`)
		})
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := validConfig()
	cfg.WebhookSecret = ""

	_, err := New(cfg)
	require.ErrorContains(t, err, "WEBHOOK_SECRET")
}
