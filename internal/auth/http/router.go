package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/taskflow/internal/auth/service"
	"github.com/aussiebroadwan/taskflow/internal/auth/store"
	"github.com/aussiebroadwan/taskflow/pkg/httpx"
	"github.com/aussiebroadwan/taskflow/pkg/jwtx"
	"github.com/aussiebroadwan/taskflow/pkg/slogx"

	_ "github.com/aussiebroadwan/taskflow/api/auth" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	keys         *jwtx.KeyManager
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	limiters     httpx.LimiterFactory

	store                store.Store
	TokenService         *service.TokenService
	UserService          *service.UserService
	PasswordResetService *service.PasswordResetService
}

// NewRouter creates a router. Browser clients from corsOrigins may call the
// API; a nil limiters falls back to in-memory rate limiting.
func NewRouter(
	keys *jwtx.KeyManager,
	buildVersion string,
	st store.Store,
	limiters httpx.LimiterFactory,
	logger *slog.Logger,
	corsOrigins ...string,
) *Router {
	if limiters == nil {
		limiters = httpx.MemoryLimiters()
	}

	r := &Router{
		Mux:          http.NewServeMux(),
		keys:         keys,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		limiters:     limiters,
		logger:       logger,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger, "/livez", "/readyz"),
		httpx.CORS(corsOrigins...),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerPasswordReset()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			TaskFlow Authentication API
//	@version		0.1.0
//	@description	Email and password accounts with short-lived JWT access tokens and single-use rotating refresh tokens.
//	@description
//	@description				Send the access token as "Authorization: Bearer". When it expires, protected endpoints answer 401 with code TOKEN_EXPIRED; call /api/auth/refresh with the refresh token to get a new pair.
//
//	@contact.name				AussieBroadWAN Team
//	@contact.url				https://github.com/aussiebroadwan/taskflow
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:3001
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT access token. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

// limit builds a rate limit middleware for a named profile.
func (r *Router) limit(name string, cfg httpx.RateLimitConfig, key httpx.KeyExtractor) httpx.Middleware {
	return httpx.RateLimitMiddleware(r.limiters(name, cfg), cfg, key)
}

func (r *Router) registerAuth() {
	h := &AuthHandler{
		Users:  r.UserService,
		Tokens: r.TokenService,
	}

	// Credential endpoints - strict limit. Login is keyed by IP + email so
	// one address cannot be brute forced from behind a shared IP.
	r.Mux.Handle("POST /api/auth/signup",
		httpx.Chain(http.HandlerFunc(h.HandleSignup),
			r.limit("signup", httpx.StrictLimit, httpx.IPKeyExtractor),
		),
	)
	r.Mux.Handle("POST /api/auth/login",
		httpx.Chain(http.HandlerFunc(h.HandleLogin),
			r.limit("login", httpx.StrictLimit,
				httpx.CompositeKeyExtractor("|", httpx.IPKeyExtractor, httpx.JSONFieldKeyExtractor("email")),
			),
		),
	)

	// Session endpoints - auth limit by IP
	r.Mux.Handle("POST /api/auth/refresh",
		httpx.Chain(http.HandlerFunc(h.HandleRefresh),
			r.limit("refresh", httpx.AuthLimit, httpx.IPKeyExtractor),
		),
	)
	r.Mux.Handle("POST /api/auth/logout",
		httpx.Chain(http.HandlerFunc(h.HandleLogout),
			r.limit("logout", httpx.AuthLimit, httpx.IPKeyExtractor),
		),
	)

	// Authenticated endpoint
	r.Mux.Handle("GET /api/auth/me",
		httpx.Chain(http.HandlerFunc(h.HandleMe),
			httpx.AuthnMiddleware(r.keys.Verifier),
			r.limit("me", httpx.PublicLimit, httpx.IPKeyExtractor),
		),
	)
}

func (r *Router) registerPasswordReset() {
	h := &PasswordResetHandler{Resets: r.PasswordResetService}

	r.Mux.Handle("POST /api/auth/forgot-password",
		httpx.Chain(http.HandlerFunc(h.HandleForgotPassword),
			r.limit("forgot-password", httpx.StrictLimit, httpx.IPKeyExtractor),
		),
	)
	r.Mux.Handle("POST /api/auth/reset-password",
		httpx.Chain(http.HandlerFunc(h.HandleResetPassword),
			r.limit("reset-password", httpx.StrictLimit, httpx.IPKeyExtractor),
		),
	)
}

func (r *Router) registerSystem() {
	// Health check endpoints - public limits (monitoring systems may poll frequently)
	public := r.limit("public", httpx.PublicLimit, httpx.IPKeyExtractor)

	r.Mux.Handle("GET /api/health", httpx.Chain(HealthHandler(time.Now), public))
	r.Mux.Handle("GET /livez", httpx.Chain(LivezHandler(r.startTime, r.buildVersion), public))
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store, r.keys), public),
	)

	// JWKS only exists for asymmetric keys
	if r.keys.PublishesJWKS() {
		r.Mux.Handle("GET /.well-known/jwks.json",
			httpx.Chain(JWKSHandler(r.keys.KeySet), public),
		)
	}
}
