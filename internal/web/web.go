// Package web exposes the lineup JSON API: program proxying, sync sessions, linking,
// enrichment and the audio preview proxy.
//
// # Routes
//
//	GET  /health
//	GET  /metrics
//	GET  /program-proxy?page&from&to&types&section
//	POST /sync                      simple sync in the background
//	GET  /sync/history?limit
//	POST /sync/comprehensive        {sessionId?, options?}
//	GET  /sync/comprehensive?sessionId
//	POST /link                      {mode, artistId?, sessionId?}
//	GET  /link/progress?sessionId
//	GET  /link?artistId | ?eventId | (none)
//	POST /enrich                    {artistId, artistName?, forceOverride?}
//	GET  /audio-proxy?url
//
// Long-running work (sync, comprehensive sync, linking) is started in the background and
// answered with 202; clients poll the session endpoints for progress.
//
// # Errors
//
// Failures are written as {"error": "..."} with a status derived from the shared
// sentinel errors (see [StatusFor]).
package web

import (
	"context"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/lineup/internal/metrics"
	"github.com/desertthunder/lineup/internal/repositories"
	"github.com/desertthunder/lineup/internal/server"
	"github.com/desertthunder/lineup/internal/services"
	"github.com/desertthunder/lineup/internal/shared"
	"github.com/desertthunder/lineup/internal/tasks"
)

// ProgramProxy forwards program queries to the festival API.
// [services.FestivalClient] is the production implementation.
type ProgramProxy interface {
	Proxy(ctx context.Context, q services.ProgramQuery) (*services.APIResponse, error)
}

// Deps are the collaborators of an [API].
type Deps struct {
	DB      *shared.Database
	Engine  *tasks.Engine
	Program ProgramProxy
	Config  *shared.Config
	Logger  *log.Logger
	// AudioClient fetches audio previews; nil uses [http.DefaultClient].
	AudioClient *http.Client
}

// API serves the JSON endpoints.
type API struct {
	db      *shared.Database
	engine  *tasks.Engine
	links   *repositories.LinkRepository
	program ProgramProxy
	config  *shared.Config
	audio   *AudioProxy
	logger  *log.Logger
}

// NewAPI creates an API. A nil Config uses [shared.DefaultConfig].
func NewAPI(deps Deps) *API {
	cfg := deps.Config
	if cfg == nil {
		cfg = shared.DefaultConfig()
	}
	logger := deps.Logger
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	logger = shared.WithLogger(logger, "component", "api")

	return &API{
		db:      deps.DB,
		engine:  deps.Engine,
		links:   repositories.NewLinkRepository(deps.DB),
		program: deps.Program,
		config:  cfg,
		audio:   NewAudioProxy(deps.AudioClient, logger),
		logger:  logger,
	}
}

// Register adds every route to r.
func (a *API) Register(r server.Router) {
	r.Handle(http.MethodGet, "/health", http.HandlerFunc(a.health))
	r.Handle(http.MethodGet, "/metrics", metrics.Handler())
	r.Handle(http.MethodGet, "/program-proxy", http.HandlerFunc(a.programProxy))

	r.Handle(http.MethodPost, "/sync", http.HandlerFunc(a.startSync))
	r.Handle(http.MethodGet, "/sync/history", http.HandlerFunc(a.syncHistory))
	r.Handle(http.MethodPost, "/sync/comprehensive", http.HandlerFunc(a.startComprehensive))
	r.Handle(http.MethodGet, "/sync/comprehensive", http.HandlerFunc(a.comprehensiveStatus))

	r.Handle(http.MethodPost, "/link", http.HandlerFunc(a.startLinking))
	r.Handle(http.MethodGet, "/link/progress", http.HandlerFunc(a.linkProgress))
	r.Handle(http.MethodGet, "/link", http.HandlerFunc(a.linkQuery))

	r.Handle(http.MethodPost, "/enrich", http.HandlerFunc(a.enrich))

	r.Handler(a.audio)
}

// NewRouter builds the middleware stack and registers the API on it.
func NewRouter(api *API) *server.BasicRouter {
	r := server.NewBasicRouter()
	r.Use(
		server.Recover(api.logger),
		server.RequestID(),
		server.Logging(api.logger),
		server.CORS(api.config.Server.AllowedOrigins),
		server.RateLimit(api.config.Server.RateLimitPerMinute),
	)
	api.Register(r)
	return r
}
