package catalog

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	Store *Store
}

func NewHandler(store *Store) *Handler {
	return &Handler{Store: store}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.list)                    // GET /plates
	rg.GET("/regions", h.regions)         // GET /plates/regions
	rg.GET("/categories", h.categories)   // GET /plates/categories
	rg.GET("/:region/:title", h.getByKey) // GET /plates/CA/Sequoia
}

func (h *Handler) list(c *gin.Context) {
	q := ListQuery{
		Region:   c.Query("region"),
		Category: c.Query("category"),
		Q:        c.Query("q"),
		Limit:    parseInt(c.Query("limit"), 20),
		Offset:   parseInt(c.Query("offset"), 0),
	}

	items, total := h.Store.List(q)
	c.JSON(http.StatusOK, gin.H{
		"total":  total,
		"limit":  q.Limit,
		"offset": q.Offset,
		"items":  items,
	})
}

func (h *Handler) regions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"items": h.Store.Regions()})
}

func (h *Handler) categories(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"items": h.Store.Categories()})
}

func (h *Handler) getByKey(c *gin.Context) {
	rec, ok := h.Store.Lookup(c.Param("region"), c.Param("title"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.JSON(http.StatusOK, rec)
}

func parseInt(s string, def int) int {
	if strings.TrimSpace(s) == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
