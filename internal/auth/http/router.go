package http

import (
	"log/slog"
	"net/http"
	"net/netip"
	"time"

	"github.com/aussiebroadwan/codegrant/internal/auth/service"
	"github.com/aussiebroadwan/codegrant/internal/auth/store"
	"github.com/aussiebroadwan/codegrant/internal/auth/telemetry"
	"github.com/aussiebroadwan/codegrant/pkg/httpx"
	"github.com/aussiebroadwan/codegrant/pkg/slogx"
)

// maxBodyBytes caps request bodies on the grant endpoints.
const maxBodyBytes = 64 << 10

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	store        store.Store

	Grants  *service.GrantService
	Metrics *telemetry.Metrics

	// IssuerToken guards POST /v1/oauth2/codes. When empty the endpoint
	// rejects every request.
	IssuerToken string

	// TrustedProxies may set X-Forwarded-For and X-Real-IP for rate limiting.
	TrustedProxies []netip.Prefix
}

func NewRouter(buildVersion string, st store.Store, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slogx.Discard()
	}

	r := &Router{
		Mux:          http.NewServeMux(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerOAuth2()
	r.registerSystem()
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerOAuth2() {
	// POST /authorize - strict, every call is a password check upstream
	authorizeHandler := &AuthorizeHandler{Grants: r.Grants}
	r.Mux.Handle("POST /v1/oauth2/authorize",
		httpx.Chain(authorizeHandler,
			httpx.LimitBody(maxBodyBytes),
			httpx.RateLimitByIP(httpx.StrictLimit, r.TrustedProxies),
		),
	)

	// POST /codes - moderate, callers are trusted services
	codesHandler := &CodesHandler{Grants: r.Grants}
	r.Mux.Handle("POST /v1/oauth2/codes",
		httpx.Chain(codesHandler,
			httpx.LimitBody(maxBodyBytes),
			httpx.RequireBearerToken(r.IssuerToken),
			httpx.RateLimitByIP(httpx.ModerateLimit, r.TrustedProxies),
		),
	)

	// POST /token - strict by IP and client
	tokenHandler := &TokenHandler{Grants: r.Grants}
	r.Mux.Handle("POST /v1/oauth2/token",
		httpx.Chain(tokenHandler,
			httpx.LimitBody(maxBodyBytes),
			httpx.RateLimitByIPAndClient(httpx.StrictLimit, r.TrustedProxies),
		),
	)
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.PublicLimit, r.TrustedProxies),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store),
			httpx.RateLimitByIP(httpx.PublicLimit, r.TrustedProxies),
		),
	)
	r.Mux.Handle("GET /metrics",
		httpx.Chain(r.metricsHandler(),
			httpx.RateLimitByIP(httpx.PublicLimit, r.TrustedProxies),
		),
	)
}

func (r *Router) metricsHandler() http.Handler {
	if r.Metrics == nil {
		return http.NotFoundHandler()
	}
	return r.Metrics.Handler()
}
