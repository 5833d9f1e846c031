// Package server is a reference implementation of the articles API, backed
// by pkg/storage. It serves local runs of the terminal UI and acts as the
// remote in tests.
package server

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/irfansharif/simplepedia/pkg/article"
	"github.com/irfansharif/simplepedia/pkg/storage"
)

// BasePath is where the articles collection is mounted.
const BasePath = "/api/articles"

// Error codes sent in the "code" field of error bodies.
const (
	CodeBadRequest     = "bad_request"
	CodeTitleRequired  = "title_required"
	CodeDuplicateTitle = "duplicate_title"
	CodeIDMismatch     = "id_mismatch"
	CodeNotFound       = "not_found"
	CodeInternal       = "internal"
)

// ErrorBody is the JSON body of every non-2xx response.
type ErrorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

type handler struct {
	store *storage.Store
	log   zerolog.Logger
}

// NewRouter creates and configures the gin router.
func NewRouter(store *storage.Store, log zerolog.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(recoveryMiddleware(log))
	router.Use(loggingMiddleware(log))
	router.Use(corsMiddleware())

	h := &handler{store: store, log: log}

	router.GET("/health", h.health)

	articles := router.Group(BasePath)
	{
		articles.GET("", h.list)
		articles.GET("/", h.list)
		articles.POST("", h.create)
		articles.POST("/", h.create)
		articles.GET("/:id", h.get)
		articles.PUT("/:id", h.update)
		articles.DELETE("/:id", h.remove)
	}

	return router
}

func (h *handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"articles":  h.store.Count(),
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

func (h *handler) list(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.List())
}

func (h *handler) get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	a, err := h.store.Get(id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

func (h *handler) create(c *gin.Context) {
	var a article.Article
	if err := c.ShouldBindJSON(&a); err != nil {
		abort(c, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}
	created, err := h.store.Create(a)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *handler) update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var a article.Article
	if err := c.ShouldBindJSON(&a); err != nil {
		abort(c, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}
	if a.ID != id {
		h.fail(c, article.ErrIDMismatch)
		return
	}
	updated, err := h.store.Replace(a)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *handler) remove(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.store.Delete(id); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// fail maps a store error onto a status code and error body.
func (h *handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, article.ErrTitleRequired):
		abort(c, http.StatusBadRequest, CodeTitleRequired, err.Error())
	case errors.Is(err, article.ErrIDMismatch):
		abort(c, http.StatusBadRequest, CodeIDMismatch, err.Error())
	case errors.Is(err, article.ErrDuplicateTitle):
		abort(c, http.StatusConflict, CodeDuplicateTitle, err.Error())
	case errors.Is(err, article.ErrNotFound):
		abort(c, http.StatusNotFound, CodeNotFound, err.Error())
	default:
		h.log.Error().Err(err).Msg("Request failed")
		abort(c, http.StatusInternalServerError, CodeInternal, "internal server error")
	}
}

func abort(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, ErrorBody{Error: msg, Code: code})
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		abort(c, http.StatusBadRequest, CodeBadRequest, "invalid article id")
		return 0, false
	}
	return id, true
}

// recoveryMiddleware handles panics
func recoveryMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.Error().Interface("error", err).Msg("Panic recovered")
				abort(c, http.StatusInternalServerError, CodeInternal, "internal server error")
			}
		}()
		c.Next()
	}
}

// loggingMiddleware logs requests
func loggingMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		statusCode := c.Writer.Status()
		event := log.Info()
		if statusCode >= 400 {
			event = log.Warn()
		}
		if statusCode >= 500 {
			event = log.Error()
		}

		event.
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", statusCode).
			Dur("duration", time.Since(start)).
			Str("request_id", c.GetHeader("X-Request-ID")).
			Msg("Request completed")
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
