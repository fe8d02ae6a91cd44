package collection

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"platehub/internal/activity"
	"platehub/internal/auth"
	"platehub/internal/catalog"
	"platehub/internal/sync"
	"platehub/pkg/models"
	"platehub/pkg/utils"
)

// Handler serves the per-player game routes. Activity and Hub are optional.
type Handler struct {
	Trackers *Registry
	Catalog  *catalog.Store
	Activity *activity.Repo
	Hub      *sync.Hub
	Log      *slog.Logger
}

func NewHandler(trackers *Registry, store *catalog.Store, act *activity.Repo, hub *sync.Hub, log *slog.Logger) *Handler {
	if log == nil {
		log = utils.DiscardLogger()
	}
	return &Handler{Trackers: trackers, Catalog: store, Activity: act, Hub: hub, Log: log}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/games", h.listGames)
	rg.POST("/games", h.createGame)
	rg.GET("/games/:id", h.getGame)
	rg.DELETE("/games/:id", h.deleteGame)
	rg.POST("/games/:id/plates", h.collect)
	rg.DELETE("/games/:id/plates/:region/:title", h.remove)
	rg.GET("/games/:id/stats", h.stats)
	rg.GET("/preferences", h.getPreferences)
	rg.PUT("/preferences", h.putPreferences)
}

// tracker resolves the caller's tracker or writes the error response.
func (h *Handler) tracker(c *gin.Context) (*Tracker, string, bool) {
	claims := auth.MustGetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return nil, "", false
	}
	t, err := h.Trackers.Get(c.Request.Context(), claims.PlayerID)
	if err != nil {
		h.Log.Error("open tracker failed", "player_id", claims.PlayerID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "load collection failed"})
		return nil, "", false
	}
	return t, claims.PlayerID, true
}

func writeError(c *gin.Context, err error) {
	var capErr *CapacityError
	var dupErr *DuplicateError
	switch {
	case errors.Is(err, ErrGameNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, ErrInvalidMode), errors.Is(err, ErrInvalidRecord):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.As(err, &capErr):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "max_games": capErr.Max})
	case errors.As(err, &dupErr):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func (h *Handler) broadcast(ev sync.CollectionEvent) {
	if h.Hub == nil {
		return
	}
	ev.At = time.Now().UTC()
	go h.Hub.Broadcast(ev)
}

func (h *Handler) record(c *gin.Context, entry models.ActivityEntry) {
	if h.Activity == nil {
		return
	}
	if err := h.Activity.Add(c.Request.Context(), entry); err != nil {
		h.Log.Warn("record activity failed", "player_id", entry.PlayerID, "game_id", entry.GameID, "error", err)
	}
}

func (h *Handler) listGames(c *gin.Context) {
	t, _, ok := h.tracker(c)
	if !ok {
		return
	}
	games := t.Games()
	c.JSON(http.StatusOK, gin.H{
		"total":     len(games),
		"max_games": t.Config().MaxGames,
		"items":     games,
	})
}

type createReq struct {
	Name string `json:"name"`
	Mode string `json:"mode"`
}

func (h *Handler) createGame(c *gin.Context) {
	t, playerID, ok := h.tracker(c)
	if !ok {
		return
	}

	var req createReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	mode := models.GameMode("")
	if strings.TrimSpace(req.Mode) != "" {
		if mode = models.ParseGameMode(req.Mode); mode == "" {
			writeError(c, ErrInvalidMode)
			return
		}
	}

	g, err := t.CreateGame(c.Request.Context(), mode, req.Name)
	if err != nil {
		writeError(c, err)
		return
	}

	h.broadcast(sync.CollectionEvent{Type: sync.EventGameCreated, PlayerID: playerID, GameID: g.ID})
	c.JSON(http.StatusCreated, g)
}

func (h *Handler) getGame(c *gin.Context) {
	t, _, ok := h.tracker(c)
	if !ok {
		return
	}
	g, err := t.Game(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, g)
}

func (h *Handler) deleteGame(c *gin.Context) {
	t, playerID, ok := h.tracker(c)
	if !ok {
		return
	}
	id := c.Param("id")
	if err := t.DeleteGame(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	if h.Activity != nil {
		if err := h.Activity.DeleteGame(c.Request.Context(), playerID, id); err != nil {
			h.Log.Warn("drop activity failed", "game_id", id, "error", err)
		}
	}

	h.broadcast(sync.CollectionEvent{Type: sync.EventGameDeleted, PlayerID: playerID, GameID: id})
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}

type collectReq struct {
	Region string `json:"region"`
	Title  string `json:"title"`
}

func (h *Handler) collect(c *gin.Context) {
	t, playerID, ok := h.tracker(c)
	if !ok {
		return
	}

	var req collectReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(req.Region) == "" || strings.TrimSpace(req.Title) == "" {
		writeError(c, ErrInvalidRecord)
		return
	}

	rec, found := h.Catalog.Lookup(req.Region, req.Title)
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "plate not in catalog"})
		return
	}

	gameID := c.Param("id")
	res, err := t.Collect(c.Request.Context(), gameID, rec)
	if err != nil {
		writeError(c, err)
		return
	}

	if res.Outcome == Collected {
		action := activity.ActionCollect
		if res.Replaced != nil {
			action = activity.ActionReplace
		}
		h.record(c, models.ActivityEntry{
			PlayerID: playerID,
			GameID:   gameID,
			Action:   action,
			Region:   res.Record.Region,
			Title:    res.Record.Title,
			At:       res.Record.CollectedAt,
		})
	}

	stats := res.Stats
	ev := sync.CollectionEvent{
		Type:     sync.EventPlateCollected,
		PlayerID: playerID,
		GameID:   gameID,
		Region:   res.Record.Region,
		Title:    res.Record.Title,
		Outcome:  string(res.Outcome),
		Stats:    &stats,
	}
	if res.Replaced != nil {
		ev.Replaced = res.Replaced.Title
	}
	h.broadcast(ev)

	c.JSON(http.StatusOK, gin.H{
		"outcome":  res.Outcome,
		"record":   res.Record,
		"replaced": res.Replaced,
		"stats":    stats,
	})
}

func (h *Handler) remove(c *gin.Context) {
	t, playerID, ok := h.tracker(c)
	if !ok {
		return
	}

	gameID := c.Param("id")
	region, title := c.Param("region"), c.Param("title")
	res, err := t.RemovePlate(c.Request.Context(), gameID, region, title)
	if err != nil {
		writeError(c, err)
		return
	}
	if res.Outcome == NotFound {
		c.JSON(http.StatusNotFound, gin.H{"outcome": res.Outcome, "error": "plate not in game"})
		return
	}

	h.record(c, models.ActivityEntry{
		PlayerID: playerID,
		GameID:   gameID,
		Action:   activity.ActionRemove,
		Region:   res.Record.Region,
		Title:    res.Record.Title,
	})
	h.broadcast(sync.CollectionEvent{
		Type:     sync.EventPlateRemoved,
		PlayerID: playerID,
		GameID:   gameID,
		Region:   res.Record.Region,
		Title:    res.Record.Title,
		Outcome:  string(res.Outcome),
	})
	c.JSON(http.StatusOK, gin.H{"outcome": res.Outcome, "record": res.Record})
}

func (h *Handler) stats(c *gin.Context) {
	t, _, ok := h.tracker(c)
	if !ok {
		return
	}
	s, err := t.Stats(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}

func (h *Handler) getPreferences(c *gin.Context) {
	t, _, ok := h.tracker(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, t.Preferences())
}

type preferencesReq struct {
	DefaultMode string `json:"default_mode"`
}

func (h *Handler) putPreferences(c *gin.Context) {
	t, _, ok := h.tracker(c)
	if !ok {
		return
	}
	var req preferencesReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if err := t.SetDefaultMode(c.Request.Context(), models.GameMode(req.DefaultMode)); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, t.Preferences())
}
