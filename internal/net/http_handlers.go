package net

import (
	"context"
	nethttp "net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/moxitooo/zzzmeika/internal/game"
	"github.com/moxitooo/zzzmeika/internal/leaderboard"
	"github.com/moxitooo/zzzmeika/internal/telemetry"
	"github.com/moxitooo/zzzmeika/logging"
	"github.com/moxitooo/zzzmeika/logging/persistence"
	"github.com/moxitooo/zzzmeika/server"
)

// Diagnoser reports the live hub state.
type Diagnoser interface {
	Diagnostics() server.Diagnostics
}

type HTTPHandlerConfig struct {
	ClientDir string
	Logger    telemetry.Logger
	Publisher logging.Publisher
	Records   server.Leaderboard
	WebSocket nethttp.Handler
	// Metrics, when set, is embedded in the diagnostics document.
	Metrics func() map[string]uint64
	// RequestTimeout bounds records API calls.
	RequestTimeout time.Duration
}

const defaultRequestTimeout = 5 * time.Second

// NewHTTPHandler builds the HTTP surface: health, diagnostics, the websocket
// upgrade, the records API and the static client as fallback.
func NewHTTPHandler(hub Diagnoser, cfg HTTPHandlerConfig) nethttp.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = telemetry.NopLogger()
	}
	publisher := cfg.Publisher
	if publisher == nil {
		publisher = logging.NopPublisher()
	}
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}

	router := gin.New()
	router.Use(gin.Recovery(), allowCORS())

	router.GET("/health", func(c *gin.Context) {
		c.String(nethttp.StatusOK, "ok")
	})

	router.GET("/diagnostics", func(c *gin.Context) {
		diag := hub.Diagnostics()
		payload := gin.H{
			"status":        "ok",
			"serverTime":    time.Now().UnixMilli(),
			"sessions":      diag.Sessions,
			"pendingTimers": diag.PendingTimers,
			"rooms":         diag.Rooms,
			"telemetry":     diag.Telemetry,
		}
		if cfg.Metrics != nil {
			payload["metrics"] = cfg.Metrics()
		}
		c.JSON(nethttp.StatusOK, payload)
	})

	if cfg.WebSocket != nil {
		router.GET("/ws", gin.WrapH(cfg.WebSocket))
	}

	records := &recordsAPI{
		store:     cfg.Records,
		logger:    logger,
		publisher: publisher,
		timeout:   timeout,
	}
	router.GET("/api/records", records.list)
	router.POST("/api/records", records.create)

	if cfg.ClientDir != "" {
		router.NoRoute(gin.WrapH(nethttp.FileServer(nethttp.Dir(cfg.ClientDir))))
	}

	return router
}

func allowCORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.Writer.Header()
		header.Set("Access-Control-Allow-Origin", "*")
		header.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		header.Set("Access-Control-Allow-Headers", "Content-Type")
		if c.Request.Method == nethttp.MethodOptions {
			c.AbortWithStatus(nethttp.StatusNoContent)
			return
		}
		c.Next()
	}
}

type recordsAPI struct {
	store     server.Leaderboard
	logger    telemetry.Logger
	publisher logging.Publisher
	timeout   time.Duration
}

type createRecordRequest struct {
	PlayerName  string `json:"playerName" binding:"required"`
	Score       int    `json:"score" binding:"required,gt=0"`
	SnakeLength int    `json:"snakeLength"`
	FoodEaten   int    `json:"foodEaten"`
	GameMode    string `json:"gameMode"`
	FieldSize   string `json:"fieldSize"`
}

func (a *recordsAPI) list(c *gin.Context) {
	if a.store == nil {
		c.JSON(nethttp.StatusServiceUnavailable, gin.H{"success": false, "error": "leaderboard unavailable"})
		return
	}

	limit, err := strconv.Atoi(c.Query("limit"))
	if err != nil || limit <= 0 {
		limit = leaderboard.DefaultTopLimit
	}
	mode := c.DefaultQuery("mode", string(game.ModeClassic))
	size := c.DefaultQuery("size", string(game.FieldMedium))

	ctx, cancel := context.WithTimeout(c.Request.Context(), a.timeout)
	defer cancel()
	records, err := a.store.Top(ctx, limit, mode, size)
	if err != nil {
		a.logger.Printf("list records: %v", err)
		c.JSON(nethttp.StatusInternalServerError, gin.H{"success": false, "error": "database error"})
		return
	}
	if records == nil {
		records = []leaderboard.Record{}
	}

	c.JSON(nethttp.StatusOK, gin.H{
		"success":   true,
		"records":   records,
		"total":     len(records),
		"gameMode":  mode,
		"fieldSize": size,
	})
}

func (a *recordsAPI) create(c *gin.Context) {
	if a.store == nil {
		c.JSON(nethttp.StatusServiceUnavailable, gin.H{"success": false, "error": "leaderboard unavailable"})
		return
	}

	traceID := uuid.NewString()
	c.Header("X-Request-ID", traceID)
	extra := map[string]any{logging.ExtraTraceID: traceID}
	actor := logging.EntityRef{ID: "records_api", Kind: logging.EntityKindServer}

	var req createRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(nethttp.StatusBadRequest, gin.H{"success": false, "error": "missing required fields: playerName, score"})
		return
	}
	name := strings.TrimSpace(req.PlayerName)
	if name == "" {
		c.JSON(nethttp.StatusBadRequest, gin.H{"success": false, "error": "missing required fields: playerName, score"})
		return
	}

	rec := leaderboard.Record{
		PlayerName:  name,
		Score:       req.Score,
		SnakeLength: req.SnakeLength,
		FoodEaten:   req.FoodEaten,
		GameMode:    req.GameMode,
		FieldSize:   req.FieldSize,
	}
	if rec.SnakeLength <= 0 {
		rec.SnakeLength = 1
	}
	if rec.FoodEaten <= 0 {
		rec.FoodEaten = rec.Score / 10
	}
	if rec.GameMode == "" {
		rec.GameMode = string(game.ModeClassic)
	}
	if rec.FieldSize == "" {
		rec.FieldSize = string(game.FieldMedium)
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), a.timeout)
	defer cancel()

	info := persistence.RecordPayload{
		PlayerName: rec.PlayerName,
		Score:      rec.Score,
		GameMode:   rec.GameMode,
		FieldSize:  rec.FieldSize,
	}
	id, inserted, err := a.store.AddRecord(ctx, rec)
	if err != nil {
		a.logger.Printf("add record for %s: %v", rec.PlayerName, err)
		persistence.StoreFailed(ctx, a.publisher, actor, persistence.FailurePayload{Op: "add_record", Error: err.Error()}, extra)
		c.JSON(nethttp.StatusInternalServerError, gin.H{"success": false, "error": "database error"})
		return
	}
	if !inserted {
		persistence.RecordDuplicate(ctx, a.publisher, actor, info, extra)
		c.JSON(nethttp.StatusOK, gin.H{"success": true, "message": "duplicate record (already saved)"})
		return
	}

	info.RecordID = id
	persistence.RecordStored(ctx, a.publisher, actor, info, extra)
	if removed, err := a.store.Cleanup(ctx); err != nil {
		a.logger.Printf("leaderboard cleanup: %v", err)
		persistence.StoreFailed(ctx, a.publisher, actor, persistence.FailurePayload{Op: "cleanup", Error: err.Error()}, extra)
	} else if removed > 0 {
		persistence.Cleanup(ctx, a.publisher, actor, persistence.CleanupPayload{Removed: removed}, extra)
	}

	c.JSON(nethttp.StatusOK, gin.H{"success": true, "message": "record saved", "recordId": id})
}
