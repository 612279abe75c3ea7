package handlers

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pairline/pairline/internal/logging"
	"github.com/pairline/pairline/internal/models"
	"github.com/pairline/pairline/internal/observability"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

const sessionEventsLimit = 100

// CreateSession godoc
// @Summary Create or resume a pairing session
// @Description Returns the browser's existing live session or creates a new one with a fresh pairing code
// @Tags sessions
// @Accept json
// @Produce json
// @Param data body models.CreateSessionRequest true "Browser identity"
// @Success 200 {object} models.SessionSummaryResponse
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /sessions [post]
func CreateSession(c *gin.Context) {
	ctx, span := otel.Tracer("").Start(c.Request.Context(), "CreateSession")
	defer span.End()

	var req models.CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "browser_id is required"})
		return
	}

	session, err := sessionStore.CreateSession(ctx, req.BrowserID)
	if err != nil {
		if err == models.ErrCodeSpaceExhausted {
			logging.Logger.Error("pairing code space exhausted", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "no pairing codes available, try again shortly"})
			return
		}
		logging.Logger.Error("failed to create session", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to create session"})
		return
	}

	c.JSON(http.StatusOK, sessionSummary(session, nil))
}

// GetSession godoc
// @Summary Get a session summary
// @Description Returns the session's current state and its recorded events, newest first
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} models.SessionSummaryResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /sessions/{id} [get]
func GetSession(c *gin.Context) {
	ctx, span := otel.Tracer("").Start(c.Request.Context(), "GetSession")
	defer span.End()

	sessionID := c.Param("id")

	session, err := sessionStore.GetSession(ctx, sessionID)
	if err != nil {
		if err == models.ErrSessionNotFound {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "session not found"})
			return
		}
		logging.Logger.Error("failed to get session",
			zap.String("session_id", sessionID),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to get session"})
		return
	}

	events, err := sessionStore.ListEvents(ctx, sessionID, sessionEventsLimit)
	if err != nil {
		logging.Logger.Error("failed to list session events",
			zap.String("session_id", sessionID),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to get session"})
		return
	}

	c.JSON(http.StatusOK, sessionSummary(session, events))
}

// StreamSession godoc
// @Summary Stream session events
// @Description Server-sent event stream of the session's live events, preceded by a snapshot of its current state
// @Tags sessions
// @Produce text/event-stream
// @Param id path string true "Session ID"
// @Success 200 {string} string "SSE stream"
// @Failure 404 {object} ErrorResponse
// @Router /sessions/{id}/stream [get]
func StreamSession(c *gin.Context) {
	ctx := c.Request.Context()
	sessionID := c.Param("id")

	session, err := sessionStore.GetSession(ctx, sessionID)
	if err != nil {
		if err == models.ErrSessionNotFound {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "session not found"})
			return
		}
		logging.Logger.Error("failed to get session for stream",
			zap.String("session_id", sessionID),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to get session"})
		return
	}

	events, err := sessionStore.ListEvents(ctx, sessionID, sessionEventsLimit)
	if err != nil {
		logging.Logger.Error("failed to list events for stream",
			zap.String("session_id", sessionID),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to get session"})
		return
	}

	sub := broadcaster.Subscribe(ctx, sessionID)
	defer sub.Close()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	observability.ActiveConnections.Inc()
	defer observability.ActiveConnections.Dec()

	heartbeat := time.NewTicker(15 * time.Second)
	defer heartbeat.Stop()

	messages := sub.Channel()

	// Snapshot first so a late subscriber does not miss prior progress
	c.SSEvent("snapshot", sessionSummary(session, events))
	c.Writer.Flush()

	c.Stream(func(w io.Writer) bool {
		select {
		case msg, ok := <-messages:
			if !ok {
				return false
			}
			c.SSEvent("event", msg.Payload)
			return true
		case <-heartbeat.C:
			c.SSEvent("heartbeat", time.Now().Unix())
			return true
		case <-ctx.Done():
			return false
		}
	})
}

func sessionSummary(session *models.Session, events []models.Event) models.SessionSummaryResponse {
	if events == nil {
		events = []models.Event{}
	}
	return models.SessionSummaryResponse{
		ID:          session.ID,
		Code:        session.Code,
		Status:      session.Status,
		CallerName:  session.CallerName,
		CallerPhone: session.CallerPhone,
		CreatedAt:   session.CreatedAt,
		ExpiresAt:   session.ExpiresAt,
		Events:      events,
	}
}
