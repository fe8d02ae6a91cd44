package auth

import (
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var handlePattern = regexp.MustCompile(`^[A-Za-z0-9_.-]{3,30}$`)

type Handler struct {
	Repo    *Repo
	Tokens  TokenService
	Limiter *LoginLimiter // nil disables throttling
}

func NewHandler(repo *Repo, tokens TokenService) *Handler {
	return &Handler{Repo: repo, Tokens: tokens, Limiter: NewLoginLimiter(12*time.Second, 5)}
}

// RegisterRoutes mounts the public /auth endpoints.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/register", h.register)
	rg.POST("/login", h.login)
	rg.POST("/change-password", AuthMiddleware(h.Tokens, h.Repo), h.changePassword)
	rg.POST("/logout", AuthMiddleware(h.Tokens, h.Repo), h.logout)
}

// RegisterPlayerRoutes mounts endpoints on an already authenticated group.
func (h *Handler) RegisterPlayerRoutes(rg *gin.RouterGroup) {
	rg.GET("/me", h.me)
}

type credentialsReq struct {
	Handle   string `json:"handle"`
	Password string `json:"password"`
}

func playerJSON(p *Player) gin.H {
	return gin.H{
		"id":         p.ID,
		"handle":     p.Handle,
		"created_at": p.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func (h *Handler) issue(c *gin.Context, status int, p *Player) {
	token, exp, err := h.Tokens.Sign(p)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token failed"})
		return
	}
	c.JSON(status, gin.H{
		"player":     playerJSON(p),
		"token":      token,
		"expires_at": exp.UTC().Format(time.RFC3339),
	})
}

func (h *Handler) register(c *gin.Context) {
	var req credentialsReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	req.Handle = strings.TrimSpace(req.Handle)
	if !handlePattern.MatchString(req.Handle) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "handle must be 3-30 letters, digits, '.', '_' or '-'"})
		return
	}
	if len(req.Password) < 8 || len(req.Password) > 72 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "password must be 8-72 chars"})
		return
	}

	if p, _ := h.Repo.GetByHandle(c.Request.Context(), req.Handle); p != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "handle already exists"})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "hash failed"})
		return
	}

	p := &Player{
		ID:           uuid.NewString(),
		Handle:       req.Handle,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}
	if err := h.Repo.CreatePlayer(c.Request.Context(), *p); err != nil {
		// unique index also catches concurrent registrations
		c.JSON(http.StatusConflict, gin.H{"error": "create player failed"})
		return
	}

	h.issue(c, http.StatusCreated, p)
}

func (h *Handler) login(c *gin.Context) {
	var req credentialsReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(req.Handle) == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "handle and password required"})
		return
	}
	if h.Limiter != nil && !h.Limiter.Allow(req.Handle) {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many login attempts"})
		return
	}

	p, err := h.Repo.GetByHandle(c.Request.Context(), req.Handle)
	if err != nil || p == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(p.PasswordHash), []byte(req.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}
	if h.Limiter != nil {
		h.Limiter.Forget(req.Handle)
	}

	h.issue(c, http.StatusOK, p)
}

type changePasswordReq struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

func (h *Handler) changePassword(c *gin.Context) {
	var req changePasswordReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.OldPassword == "" || req.NewPassword == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "old and new password required"})
		return
	}
	if len(req.NewPassword) < 8 || len(req.NewPassword) > 72 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "password must be 8-72 chars"})
		return
	}

	claims := MustGetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	p, err := h.Repo.GetByID(c.Request.Context(), claims.PlayerID)
	if err != nil || p == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(p.PasswordHash), []byte(req.OldPassword)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "hash failed"})
		return
	}
	if err := h.Repo.UpdatePasswordAndBumpTokenVersion(c.Request.Context(), p.ID, string(hash)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update password failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "password updated"})
}

func (h *Handler) logout(c *gin.Context) {
	claims := MustGetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}
	if err := h.Repo.BumpTokenVersion(c.Request.Context(), claims.PlayerID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "logout failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "logged out"})
}

func (h *Handler) me(c *gin.Context) {
	claims := MustGetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	p, err := h.Repo.GetByID(c.Request.Context(), claims.PlayerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "get failed"})
		return
	}
	if p == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.JSON(http.StatusOK, playerJSON(p))
}
