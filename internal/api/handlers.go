package api

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/valyala/fasthttp"

	"github.com/MowgiAU/fuiji-fruit-bot-redesign-sub000/internal/backup"
	"github.com/MowgiAU/fuiji-fruit-bot-redesign-sub000/internal/database"
	"github.com/MowgiAU/fuiji-fruit-bot-redesign-sub000/internal/leaderboard"
	"github.com/MowgiAU/fuiji-fruit-bot-redesign-sub000/internal/logging"
	"github.com/MowgiAU/fuiji-fruit-bot-redesign-sub000/internal/metrics"
	"github.com/MowgiAU/fuiji-fruit-bot-redesign-sub000/pkg/util"
)

// apiActor is recorded as the acting moderator for dashboard-origin changes.
const apiActor = "api"

func writeJSON(ctx *fasthttp.RequestCtx, status int, v interface{}) {
	body, err := json.Marshal(v)
	if err != nil {
		writeError(ctx, fasthttp.StatusInternalServerError, "failed to encode response")
		return
	}
	ctx.SetStatusCode(status)
	ctx.SetBody(body)
}

func writeError(ctx *fasthttp.RequestCtx, status int, message string) {
	ctx.SetStatusCode(status)
	body, _ := json.Marshal(map[string]string{"error": message})
	ctx.SetBody(body)
}

func (s *Server) handleStatus(ctx *fasthttp.RequestCtx) {
	counters := metrics.Get()
	sys := metrics.CollectSystemStats()

	writeJSON(ctx, fasthttp.StatusOK, map[string]interface{}{
		"uptimeSec":       int64(counters.Uptime().Seconds()),
		"events":          counters.Events(),
		"eventsPerSecond": counters.EventsPerSecond(),
		"grants":          counters.Grants(),
		"grantFailures":   counters.GrantFailures(),
		"levelUps":        counters.LevelUps(),
		"dropped":         counters.Dropped(),
		"exempt":          counters.Exempt(),
		"cooldownHits":    counters.CooldownHits(),
		"queueDepth":      s.deps.Ingestor.QueueLen(),
		"voiceSessions":   s.deps.Voice.ActiveSessions(),
		"trackedUsers":    s.deps.Store.UserCount(),
		"system": map[string]interface{}{
			"cpuPercent": sys.CPUPercent,
			"memUsedMb":  sys.MemUsedMB,
			"memTotalMb": sys.MemTotalMB,
			"heapMb":     sys.HeapAllocMB,
			"goroutines": sys.Goroutines,
		},
	})
}

func (s *Server) handleSettingsGet(ctx *fasthttp.RequestCtx, guildID string) {
	if !util.IsSnowflake(guildID) {
		writeError(ctx, fasthttp.StatusBadRequest, "invalid guild id")
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, s.deps.Settings.Get(guildID))
}

func (s *Server) handleSettingsPut(ctx *fasthttp.RequestCtx, guildID string) {
	if !util.IsSnowflake(guildID) {
		writeError(ctx, fasthttp.StatusBadRequest, "invalid guild id")
		return
	}

	gs := s.deps.Settings.Get(guildID)
	if err := json.Unmarshal(ctx.PostBody(), &gs); err != nil {
		writeError(ctx, fasthttp.StatusBadRequest, "body does not parse: "+err.Error())
		return
	}
	if err := s.deps.Settings.Update(guildID, gs); err != nil {
		writeError(ctx, fasthttp.StatusUnprocessableEntity, err.Error())
		return
	}

	database.Audit(guildID, apiActor, "", database.ActionSettingsUpdate, "dashboard settings update")
	writeJSON(ctx, fasthttp.StatusOK, s.deps.Settings.Get(guildID))
}

func (s *Server) handleLeaderboard(ctx *fasthttp.RequestCtx, guildID string) {
	if !util.IsSnowflake(guildID) {
		writeError(ctx, fasthttp.StatusBadRequest, "invalid guild id")
		return
	}

	dim, err := leaderboard.ParseDimension(string(ctx.QueryArgs().Peek("dimension")))
	if err != nil {
		writeError(ctx, fasthttp.StatusBadRequest, err.Error())
		return
	}
	limit, _ := strconv.Atoi(string(ctx.QueryArgs().Peek("limit")))

	entries, err := s.deps.Leaderboard.Top(guildID, dim, limit)
	if err != nil {
		writeError(ctx, fasthttp.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, map[string]interface{}{
		"guildId":   guildID,
		"dimension": string(dim),
		"entries":   entries,
	})
}

type actionResponse struct {
	ID        int64  `json:"id"`
	GuildID   string `json:"guildId"`
	ActorID   string `json:"actorId"`
	TargetID  string `json:"targetId"`
	Action    string `json:"action"`
	Detail    string `json:"detail"`
	Timestamp int64  `json:"timestamp"`
}

func (s *Server) handleActions(ctx *fasthttp.RequestCtx, guildID string) {
	if !util.IsSnowflake(guildID) {
		writeError(ctx, fasthttp.StatusBadRequest, "invalid guild id")
		return
	}

	limit, _ := strconv.Atoi(string(ctx.QueryArgs().Peek("limit")))
	db := database.GetDB()
	if db == nil {
		writeError(ctx, fasthttp.StatusServiceUnavailable, "audit log unavailable")
		return
	}

	actions, err := db.GetRecentActions(guildID, limit)
	if err != nil {
		writeError(ctx, fasthttp.StatusInternalServerError, err.Error())
		return
	}

	out := make([]actionResponse, 0, len(actions))
	for _, a := range actions {
		out = append(out, actionResponse{
			ID: a.ID, GuildID: a.GuildID, ActorID: a.ActorID, TargetID: a.TargetID,
			Action: a.Action, Detail: a.Detail, Timestamp: a.Timestamp,
		})
	}
	writeJSON(ctx, fasthttp.StatusOK, map[string]interface{}{"actions": out})
}

type xpRequest struct {
	UserID string `json:"userId"`
	Mode   string `json:"mode"` // "set" or "adjust"
	Amount int64  `json:"amount"`
}

func (s *Server) handleXP(ctx *fasthttp.RequestCtx, guildID string) {
	if !util.IsSnowflake(guildID) {
		writeError(ctx, fasthttp.StatusBadRequest, "invalid guild id")
		return
	}

	var req xpRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		writeError(ctx, fasthttp.StatusBadRequest, "body does not parse: "+err.Error())
		return
	}
	if !util.IsSnowflake(req.UserID) {
		writeError(ctx, fasthttp.StatusBadRequest, "invalid user id")
		return
	}

	switch req.Mode {
	case "set":
		result, err := s.deps.Engine.SetXP(req.UserID, guildID, req.Amount)
		if err != nil {
			writeError(ctx, fasthttp.StatusUnprocessableEntity, err.Error())
			return
		}
		database.Audit(guildID, apiActor, req.UserID, database.ActionXPSet, fmt.Sprintf("xp=%d", req.Amount))
		writeJSON(ctx, fasthttp.StatusOK, result)
	case "adjust":
		result, err := s.deps.Engine.AdjustXP(req.UserID, guildID, req.Amount)
		if err != nil {
			writeError(ctx, fasthttp.StatusUnprocessableEntity, err.Error())
			return
		}
		database.Audit(guildID, apiActor, req.UserID, database.ActionXPAdjust, fmt.Sprintf("delta=%d result=%d", req.Amount, result.XP))
		writeJSON(ctx, fasthttp.StatusOK, result)
	default:
		writeError(ctx, fasthttp.StatusBadRequest, `mode must be "set" or "adjust"`)
	}
}

func (s *Server) handleBackupList(ctx *fasthttp.RequestCtx) {
	metas, err := s.deps.Backups.List()
	if err != nil {
		writeError(ctx, fasthttp.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, map[string]interface{}{"backups": metas})
}

type backupCreateRequest struct {
	Reason string `json:"reason"`
}

func (s *Server) handleBackupCreate(ctx *fasthttp.RequestCtx) {
	var req backupCreateRequest
	json.Unmarshal(ctx.PostBody(), &req)
	if req.Reason == "" {
		req.Reason = "dashboard backup"
	}

	meta, err := s.deps.Backups.Create(backup.TagManual, req.Reason)
	if err != nil {
		writeError(ctx, fasthttp.StatusInternalServerError, err.Error())
		return
	}

	database.Audit("", apiActor, "", database.ActionBackupCreate, meta.ID)
	writeJSON(ctx, fasthttp.StatusCreated, meta)
}

type backupRestoreRequest struct {
	ID string `json:"id"`
}

func (s *Server) handleBackupRestore(ctx *fasthttp.RequestCtx) {
	var req backupRestoreRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil || req.ID == "" {
		writeError(ctx, fasthttp.StatusBadRequest, "missing snapshot id")
		return
	}

	meta, err := s.deps.Backups.Restore(req.ID)
	if err != nil {
		writeError(ctx, fasthttp.StatusUnprocessableEntity, err.Error())
		return
	}

	database.Audit("", apiActor, "", database.ActionBackupRestore, meta.ID)
	logging.Warn("API: record store restored from %s", meta.ID)
	writeJSON(ctx, fasthttp.StatusOK, meta)
}

func (s *Server) handleSync(ctx *fasthttp.RequestCtx) {
	repaired, err := s.deps.Store.Repair()
	if err != nil {
		writeError(ctx, fasthttp.StatusInternalServerError, err.Error())
		return
	}
	if s.deps.Voice != nil {
		s.deps.Voice.RunTickOnce()
	}

	database.Audit("", apiActor, "", database.ActionDataSync, fmt.Sprintf("repaired=%d", repaired))
	writeJSON(ctx, fasthttp.StatusOK, map[string]interface{}{"repaired": repaired})
}
