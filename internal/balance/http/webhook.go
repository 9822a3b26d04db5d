package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/aussiebroadwan/balancebot/internal/balance/domain"
	"github.com/aussiebroadwan/balancebot/pkg/cryptox"
	"github.com/aussiebroadwan/balancebot/pkg/httpx"
	"github.com/aussiebroadwan/balancebot/pkg/slogx"
)

const (
	// SecretHeader carries the shared webhook secret.
	SecretHeader = "X-Webhook-Secret"
	// SecretQueryParam is the legacy location of the secret.
	SecretQueryParam = "secret_key"

	maxWebhookBody = 1 << 20
)

// WebhookHandler serves POST /monzo_webhook. Once a request is authenticated
// and decoded it is always answered with 200 and the processing outcome, so
// the provider never redelivers because of a processing error.
type WebhookHandler struct {
	Events           EventHandler
	Secret           string
	AllowQuerySecret bool
}

func (h *WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	// 1. Authenticate
	if !h.authenticated(r) {
		log.Warn("webhook rejected: bad secret")
		httpx.WriteText(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	// 2. Decode the envelope
	var ev domain.WebhookEvent
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxWebhookBody)).Decode(&ev); err != nil {
		log.Warn("webhook rejected: invalid body", slog.Any("error", err))
		httpx.WriteText(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	// 3. Process
	outcome := h.Events.Handle(ctx, ev)
	httpx.WriteText(w, http.StatusOK, string(outcome))
}

func (h *WebhookHandler) authenticated(r *http.Request) bool {
	if cryptox.SecretEqual(r.Header.Get(SecretHeader), h.Secret) {
		return true
	}
	return h.AllowQuerySecret && cryptox.SecretEqual(r.URL.Query().Get(SecretQueryParam), h.Secret)
}
