package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pairline/pairline/internal/logging"
	"github.com/pairline/pairline/internal/models"
	"github.com/pairline/pairline/internal/observability"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

// HandleTranscript godoc
// @Summary Process a caller utterance
// @Description Accepts one transcribed utterance from the telephony collaborator and returns the next prompt to speak
// @Tags voice
// @Accept json
// @Produce json
// @Param data body models.TranscriptRequest true "Transcribed utterance"
// @Success 200 {object} models.TranscriptResponse
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /voice/transcript [post]
func HandleTranscript(c *gin.Context) {
	ctx, span := otel.Tracer("").Start(c.Request.Context(), "HandleTranscript")
	defer span.End()

	var req models.TranscriptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "call_id and caller are required"})
		return
	}

	resp, err := conversation.HandleTranscript(ctx, req.CallID, req.Caller, req.Step, req.Transcript)
	if err != nil {
		logging.Logger.Error("failed to handle transcript",
			zap.String("call_id", req.CallID),
			zap.String("caller", observability.MaskPhone(req.Caller)),
			zap.String("step", req.Step),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to process transcript"})
		return
	}

	c.JSON(http.StatusOK, resp)
}

// HandleDialStatus godoc
// @Summary Process a call status report
// @Description Accepts an asynchronous call leg status report from the telephony collaborator
// @Tags voice
// @Accept json
// @Produce json
// @Param data body models.DialStatusRequest true "Call leg status"
// @Success 200 {object} SuccessResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /voice/status [post]
func HandleDialStatus(c *gin.Context) {
	ctx, span := otel.Tracer("").Start(c.Request.Context(), "HandleDialStatus")
	defer span.End()

	var req models.DialStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "call_id and status are required"})
		return
	}

	if err := conversation.HandleDialStatus(ctx, req.CallID, req.SessionID, req.Status); err != nil {
		if err == models.ErrUnknownCallLeg {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "unknown call leg"})
			return
		}
		logging.Logger.Error("failed to handle dial status",
			zap.String("call_id", req.CallID),
			zap.String("status", req.Status),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to process status"})
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "status processed"})
}
