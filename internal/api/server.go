package api

import (
	"crypto/subtle"
	"strings"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/MowgiAU/fuiji-fruit-bot-redesign-sub000/internal/accrual"
	"github.com/MowgiAU/fuiji-fruit-bot-redesign-sub000/internal/backup"
	"github.com/MowgiAU/fuiji-fruit-bot-redesign-sub000/internal/config"
	"github.com/MowgiAU/fuiji-fruit-bot-redesign-sub000/internal/ingest"
	"github.com/MowgiAU/fuiji-fruit-bot-redesign-sub000/internal/leaderboard"
	"github.com/MowgiAU/fuiji-fruit-bot-redesign-sub000/internal/logging"
	"github.com/MowgiAU/fuiji-fruit-bot-redesign-sub000/internal/settings"
	"github.com/MowgiAU/fuiji-fruit-bot-redesign-sub000/internal/store"
	"github.com/MowgiAU/fuiji-fruit-bot-redesign-sub000/internal/voice"
)

// Deps is the service surface the admin API exposes.
type Deps struct {
	Store       *store.Store
	Settings    *settings.Store
	Engine      *accrual.Engine
	Leaderboard *leaderboard.Service
	Backups     *backup.Manager
	Ingestor    *ingest.Ingestor
	Voice       *voice.Tracker
}

// Server is the loopback admin HTTP API for the dashboard.
type Server struct {
	deps   Deps
	token  string
	listen string
	srv    *fasthttp.Server
}

func NewServer(cfg config.APIConfig, deps Deps) *Server {
	s := &Server{
		deps:   deps,
		token:  cfg.AdminToken,
		listen: cfg.Listen,
	}
	s.srv = &fasthttp.Server{
		Handler:            s.route,
		Name:               "leveling-admin",
		ReadTimeout:        10 * time.Second,
		WriteTimeout:       10 * time.Second,
		MaxRequestBodySize: 8 * 1024 * 1024,
	}
	return s
}

// Start begins serving in a background goroutine.
func (s *Server) Start() {
	go func() {
		logging.Info("API: listening on %s", s.listen)
		if err := s.srv.ListenAndServe(s.listen); err != nil {
			logging.Error("API: server stopped: %v", err)
		}
	}()
}

func (s *Server) Stop() error {
	return s.srv.Shutdown()
}

func (s *Server) route(ctx *fasthttp.RequestCtx) {
	ctx.Response.Header.SetContentType("application/json")

	if !s.authorized(ctx) {
		writeError(ctx, fasthttp.StatusUnauthorized, "invalid or missing admin token")
		return
	}

	path := string(ctx.Path())
	method := string(ctx.Method())

	switch {
	case path == "/api/status" && method == fasthttp.MethodGet:
		s.handleStatus(ctx)
	case path == "/api/backups" && method == fasthttp.MethodGet:
		s.handleBackupList(ctx)
	case path == "/api/backups" && method == fasthttp.MethodPost:
		s.handleBackupCreate(ctx)
	case path == "/api/backups/restore" && method == fasthttp.MethodPost:
		s.handleBackupRestore(ctx)
	case path == "/api/sync" && method == fasthttp.MethodPost:
		s.handleSync(ctx)
	case strings.HasPrefix(path, "/api/guilds/"):
		s.routeGuild(ctx, strings.TrimPrefix(path, "/api/guilds/"), method)
	default:
		writeError(ctx, fasthttp.StatusNotFound, "unknown route")
	}
}

func (s *Server) routeGuild(ctx *fasthttp.RequestCtx, rest, method string) {
	parts := strings.SplitN(rest, "/", 2)
	if len(parts) != 2 || parts[0] == "" {
		writeError(ctx, fasthttp.StatusNotFound, "unknown route")
		return
	}
	guildID, resource := parts[0], parts[1]

	switch {
	case resource == "settings" && method == fasthttp.MethodGet:
		s.handleSettingsGet(ctx, guildID)
	case resource == "settings" && method == fasthttp.MethodPut:
		s.handleSettingsPut(ctx, guildID)
	case resource == "leaderboard" && method == fasthttp.MethodGet:
		s.handleLeaderboard(ctx, guildID)
	case resource == "actions" && method == fasthttp.MethodGet:
		s.handleActions(ctx, guildID)
	case resource == "xp" && method == fasthttp.MethodPost:
		s.handleXP(ctx, guildID)
	default:
		writeError(ctx, fasthttp.StatusNotFound, "unknown route")
	}
}

func (s *Server) authorized(ctx *fasthttp.RequestCtx) bool {
	if s.token == "" {
		return false
	}
	got := ctx.Request.Header.Peek("X-Admin-Token")
	return subtle.ConstantTimeCompare(got, []byte(s.token)) == 1
}
