package auth

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"platehub/pkg/database"
)

var testTokens = TokenService{Secret: []byte("test-secret"), Issuer: "platehub-test", Duration: time.Hour}

func newTestRouter(t *testing.T) (*gin.Engine, *Repo) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.OpenMigrated(database.Config{Path: filepath.Join(t.TempDir(), "auth.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repo := NewRepo(db)
	h := NewHandler(repo, testTokens)
	r := gin.New()
	h.RegisterRoutes(r.Group("/auth"))
	h.RegisterPlayerRoutes(r.Group("/players", AuthMiddleware(testTokens, repo)))
	return r, repo
}

func do(r http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type tokenResp struct {
	Token  string `json:"token"`
	Player struct {
		ID     string `json:"id"`
		Handle string `json:"handle"`
	} `json:"player"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) tokenResp {
	t.Helper()
	var out tokenResp
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestRegisterLoginMeLogout(t *testing.T) {
	r, _ := newTestRouter(t)

	w := do(r, http.MethodPost, "/auth/register", "", gin.H{"handle": "spotter", "password": "plates4ever"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	reg := decode(t, w)
	assert.NotEmpty(t, reg.Token)
	assert.Equal(t, "spotter", reg.Player.Handle)

	w = do(r, http.MethodPost, "/auth/register", "", gin.H{"handle": "SPOTTER", "password": "plates4ever"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(r, http.MethodPost, "/auth/login", "", gin.H{"handle": "spotter", "password": "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(r, http.MethodPost, "/auth/login", "", gin.H{"handle": "Spotter", "password": "plates4ever"})
	require.Equal(t, http.StatusOK, w.Code)
	token := decode(t, w).Token

	w = do(r, http.MethodGet, "/players/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), reg.Player.ID)

	w = do(r, http.MethodPost, "/auth/logout", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodGet, "/players/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRegisterValidation(t *testing.T) {
	r, _ := newTestRouter(t)

	w := do(r, http.MethodPost, "/auth/register", "", gin.H{"handle": "x", "password": "plates4ever"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodPost, "/auth/register", "", gin.H{"handle": "spotter", "password": "short"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMiddlewareRejectsMissingToken(t *testing.T) {
	r, _ := newTestRouter(t)
	w := do(r, http.MethodGet, "/players/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestTokenServiceParse(t *testing.T) {
	p := &Player{ID: "p1", Handle: "spotter", TokenVersion: 2}
	tok, exp, err := testTokens.Sign(p)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, time.Minute)

	claims, err := testTokens.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, "p1", claims.PlayerID)
	assert.Equal(t, 2, claims.TokenVersion)

	other := testTokens
	other.Secret = []byte("another-secret")
	_, err = other.Parse(tok)
	assert.Error(t, err)

	other = testTokens
	other.Issuer = "someone-else"
	_, err = other.Parse(tok)
	assert.Error(t, err)

	expired := testTokens
	expired.Duration = -time.Minute
	tok, _, err = expired.Sign(p)
	require.NoError(t, err)
	_, err = testTokens.Parse(tok)
	assert.Error(t, err)
}

func TestLoginThrottledPerHandle(t *testing.T) {
	r, _ := newTestRouter(t)
	w := do(r, http.MethodPost, "/auth/register", "", gin.H{"handle": "spotter", "password": "correct-horse"})
	require.Equal(t, http.StatusCreated, w.Code)

	for i := 0; i < 5; i++ {
		w = do(r, http.MethodPost, "/auth/login", "", gin.H{"handle": "spotter", "password": "wrong-pass"})
		require.Equal(t, http.StatusUnauthorized, w.Code)
	}
	w = do(r, http.MethodPost, "/auth/login", "", gin.H{"handle": "SPOTTER", "password": "correct-horse"})
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	w = do(r, http.MethodPost, "/auth/register", "", gin.H{"handle": "other", "password": "correct-horse"})
	require.Equal(t, http.StatusCreated, w.Code)
	w = do(r, http.MethodPost, "/auth/login", "", gin.H{"handle": "other", "password": "correct-horse"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestLoginLimiterForget(t *testing.T) {
	l := NewLoginLimiter(time.Hour, 1)
	assert.True(t, l.Allow("a"))
	assert.False(t, l.Allow("A "))
	l.Forget("a")
	assert.True(t, l.Allow("a"))
}

func TestLoginLimiterDropsIdleHandles(t *testing.T) {
	l := NewLoginLimiter(10*time.Millisecond, 2)
	for i := 0; i < 100; i++ {
		l.Allow(fmt.Sprintf("handle-%d", i))
	}
	// ItemCount includes expired entries until the janitor runs
	assert.Eventually(t, func() bool { return l.Len() == 0 }, 2*time.Second, 10*time.Millisecond)

	assert.True(t, l.Allow("handle-1"))
	assert.Equal(t, 1, l.Len())
}
