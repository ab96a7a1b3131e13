package api

import (
	"context"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"

	"coursepilot/internal/rag"
	"coursepilot/internal/tools"
	"coursepilot/pkg/logging"
)

const maxQueryLength = 5000

// QueryService is the RAG surface the handlers depend on.
// Satisfied by rag.System.
type QueryService interface {
	Query(ctx context.Context, query, sessionID string) (string, []tools.Source, error)
	Analytics(ctx context.Context) (*rag.Analytics, error)
}

// Handlers serves the course query API.
type Handlers struct {
	service  QueryService
	sessions rag.Sessions
	logger   logging.Logger
}

func NewHandlers(service QueryService, sessions rag.Sessions, logger logging.Logger) *Handlers {
	return &Handlers{
		service:  service,
		sessions: sessions,
		logger:   logger,
	}
}

// RegisterRoutes attaches the API endpoints to the router.
func (h *Handlers) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api")
	api.POST("/query", h.HandleQuery)
	api.GET("/courses", h.HandleCourses)
	api.DELETE("/sessions/:id", h.HandleClearSession)
}

type queryRequest struct {
	Query     string `json:"query"`
	SessionID string `json:"session_id"`
}

type queryResponse struct {
	Answer    string         `json:"answer"`
	Sources   []tools.Source `json:"sources"`
	SessionID string         `json:"session_id"`
}

// HandleQuery answers a question about course materials, creating a session
// when the request carries none.
func (h *Handlers) HandleQuery(c *gin.Context) {
	var req queryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if strings.TrimSpace(req.Query) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Query cannot be empty"})
		return
	}
	if utf8.RuneCountInString(req.Query) > maxQueryLength {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Query too long (max 5000 characters)"})
		return
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = h.sessions.Create()
	}

	answer, sources, err := h.service.Query(c.Request.Context(), req.Query, sessionID)
	if err != nil {
		h.logger.WithError(err).WithField("session_id", sessionID).Error("Query processing failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Query processing failed"})
		return
	}

	if sources == nil {
		sources = []tools.Source{}
	}
	c.JSON(http.StatusOK, queryResponse{
		Answer:    answer,
		Sources:   sources,
		SessionID: sessionID,
	})
}

// HandleCourses reports catalog analytics.
func (h *Handlers) HandleCourses(c *gin.Context) {
	analytics, err := h.service.Analytics(c.Request.Context())
	if err != nil {
		h.logger.WithError(err).Error("Course analytics failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load course analytics"})
		return
	}
	if analytics.CourseTitles == nil {
		analytics.CourseTitles = []string{}
	}
	c.JSON(http.StatusOK, analytics)
}

// HandleClearSession drops a conversation's history.
func (h *Handlers) HandleClearSession(c *gin.Context) {
	h.sessions.Clear(c.Param("id"))
	c.Status(http.StatusNoContent)
}
