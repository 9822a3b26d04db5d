package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/balancebot/internal/balance/domain"
	"github.com/aussiebroadwan/balancebot/internal/balance/service"
	"github.com/aussiebroadwan/balancebot/pkg/httpx"
	"github.com/aussiebroadwan/balancebot/pkg/slogx"
)

// EventHandler processes a decoded webhook event.
type EventHandler interface {
	Handle(ctx context.Context, ev domain.WebhookEvent) service.Outcome
}

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store   Pinger
	Webhook EventHandler

	// WebhookSecret is required on every webhook call. AllowQuerySecret
	// additionally accepts it as ?secret_key= for providers that cannot
	// set headers.
	WebhookSecret    string
	AllowQuerySecret bool
	WebhookLimit     httpx.RateLimitConfig

	// Metrics is mounted on /metrics when set.
	Metrics http.Handler
}

func NewRouter(buildVersion string, st Pinger, logger *slog.Logger) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
		WebhookLimit: httpx.WebhookLimit,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerWebhook()
	r.registerSystem()
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerWebhook() {
	h := &WebhookHandler{
		Events:           r.Webhook,
		Secret:           r.WebhookSecret,
		AllowQuerySecret: r.AllowQuerySecret,
	}

	r.Mux.Handle("/monzo_webhook",
		httpx.Chain(h,
			httpx.AllowMethods(http.MethodPost),
			httpx.RateLimitByIP(r.WebhookLimit),
		),
	)
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez", LivezHandler(r.startTime, r.buildVersion))
	r.Mux.Handle("GET /readyz", ReadyzHandler(r.startTime, r.buildVersion, r.store))

	if r.Metrics != nil {
		r.Mux.Handle("GET /metrics", r.Metrics)
	}
}
