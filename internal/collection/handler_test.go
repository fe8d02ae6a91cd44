package collection

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"platehub/internal/activity"
	"platehub/internal/auth"
	"platehub/internal/catalog"
	"platehub/pkg/database"
	"platehub/pkg/models"
)

type handlerEnv struct {
	router   *gin.Engine
	activity *activity.Repo
}

func newHandlerEnv(t *testing.T, cfg Config) handlerEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.OpenMigrated(database.Config{Path: filepath.Join(t.TempDir(), "api.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	store := catalog.NewStore([]models.PlateRecord{
		{Region: "CA", Title: "Sequoia", Image: "ca_sequoia.png", Rarity: "rare"},
		{Region: "CA", Title: "Gold Rush", Image: "ca_gold.png", Rarity: "common"},
		{Region: "NV", Title: "Home Means Nevada", Image: "nv.png"},
	})
	act := activity.NewRepo(db)
	h := NewHandler(NewRegistry(SQLiteOpener(db, cfg)), store, act, nil, nil)

	r := gin.New()
	players := r.Group("/players", func(c *gin.Context) {
		c.Set(auth.CtxClaimsKey, &auth.Claims{PlayerID: c.GetHeader("X-Player")})
		c.Next()
	})
	h.RegisterRoutes(players)
	return handlerEnv{router: r, activity: act}
}

func (e handlerEnv) do(t *testing.T, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Player", "p1")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	var out map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return w, out
}

func TestHandlerGameFlow(t *testing.T) {
	env := newHandlerEnv(t, DefaultConfig())

	w, body := env.do(t, http.MethodPost, "/players/games", gin.H{"name": "road trip"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	id := body["id"].(string)
	assert.Equal(t, string(models.ModeOnePerRegion), body["mode"])

	w, body = env.do(t, http.MethodPost, "/players/games/"+id+"/plates", gin.H{"region": "ca", "title": "sequoia"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "collected", body["outcome"])

	w, body = env.do(t, http.MethodPost, "/players/games/"+id+"/plates", gin.H{"region": "CA", "title": "Gold Rush"})
	require.Equal(t, http.StatusOK, w.Code)
	replaced := body["replaced"].(map[string]any)
	assert.Equal(t, "Sequoia", replaced["title"])
	stats := body["stats"].(map[string]any)
	assert.EqualValues(t, 1, stats["total_count"])
	assert.EqualValues(t, 1, stats["score"])

	w, body = env.do(t, http.MethodPost, "/players/games/"+id+"/plates", gin.H{"region": "CA", "title": "Gold Rush"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "already_present", body["outcome"])

	w, _ = env.do(t, http.MethodPost, "/players/games/"+id+"/plates", gin.H{"region": "ZZ", "title": "Nowhere"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, body = env.do(t, http.MethodGet, "/players/games/"+id+"/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, body["total_count"])
	assert.EqualValues(t, 1, body["distinct_regions"])

	w, _ = env.do(t, http.MethodDelete, "/players/games/"+id+"/plates/NV/Home%20Means%20Nevada", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, body = env.do(t, http.MethodDelete, "/players/games/"+id+"/plates/ca/gold%20rush", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "removed", body["outcome"])
	assert.Equal(t, "Gold Rush", body["record"].(map[string]any)["title"])

	items, total, err := env.activity.List(context.Background(), "p1", id, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Equal(t, activity.ActionRemove, items[0].Action)
	assert.Equal(t, "CA", items[0].Region)
	assert.Equal(t, "Gold Rush", items[0].Title)

	w, body = env.do(t, http.MethodGet, "/players/preferences", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []any{"CA"}, body["recent_regions"])

	w, _ = env.do(t, http.MethodDelete, "/players/games/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w, _ = env.do(t, http.MethodGet, "/players/games/"+id, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandlerErrorMapping(t *testing.T) {
	env := newHandlerEnv(t, Config{MaxGames: 1})

	w, _ := env.do(t, http.MethodPost, "/players/games", gin.H{"mode": "sometimes"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = env.do(t, http.MethodPost, "/players/games", gin.H{"name": "only", "mode": "unlimited"})
	require.Equal(t, http.StatusCreated, w.Code)

	w, body := env.do(t, http.MethodPost, "/players/games", gin.H{"name": "second"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.EqualValues(t, 1, body["max_games"])

	w, _ = env.do(t, http.MethodGet, "/players/games/missing/stats", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = env.do(t, http.MethodPut, "/players/preferences", gin.H{"default_mode": "bogus"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, body = env.do(t, http.MethodPut, "/players/preferences", gin.H{"default_mode": "unlimited"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "unlimited", body["default_mode"])
}
