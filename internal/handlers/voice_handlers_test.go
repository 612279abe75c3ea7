package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/pairline/pairline/internal/models"
	"github.com/pairline/pairline/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleTranscript_MissingFields(t *testing.T) {
	router, _ := setupIntegration(t)

	w := postJSON(t, router, "/v1/voice/transcript", map[string]string{"transcript": "hello"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleTranscript_Flow(t *testing.T) {
	router, store := setupIntegration(t)

	session, err := store.CreateSession(t.Context(), "browser-1")
	require.NoError(t, err)

	// Name step
	w := postJSON(t, router, "/v1/voice/transcript", models.TranscriptRequest{
		CallID:     "call-1",
		Caller:     "+15550001111",
		Transcript: "hi this is Chris",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.TranscriptResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, services.StepCode, resp.NextStep)
	assert.Contains(t, resp.Prompt, "Chris")

	// Code step pairs against the created session
	w = postJSON(t, router, "/v1/voice/transcript", models.TranscriptRequest{
		CallID:     "call-1",
		Caller:     "+15550001111",
		Step:       services.StepCode,
		Transcript: session.Code,
	})
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, services.StepVertical, resp.NextStep)

	paired, err := store.GetSession(t.Context(), session.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionStatusPaired, paired.Status)
	assert.Equal(t, "Chris", paired.CallerName)
}

func TestHandleDialStatus_MissingFields(t *testing.T) {
	router, _ := setupIntegration(t)

	w := postJSON(t, router, "/v1/voice/status", map[string]string{"call_id": "call-1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleDialStatus_UnknownLeg(t *testing.T) {
	router, _ := setupIntegration(t)

	w := postJSON(t, router, "/v1/voice/status", models.DialStatusRequest{
		CallID: "mystery",
		Status: services.CallStatusAnswered,
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleDialStatus_WithSessionID(t *testing.T) {
	router, store := setupIntegration(t)

	session, err := store.CreateSession(t.Context(), "browser-1")
	require.NoError(t, err)
	_, err = store.PairSession(t.Context(), session.ID, "+15550001111", "Chris", "call-1")
	require.NoError(t, err)

	w := postJSON(t, router, "/v1/voice/status", models.DialStatusRequest{
		CallID:    "callback-leg",
		SessionID: session.ID,
		Status:    services.CallStatusAnswered,
	})
	require.Equal(t, http.StatusOK, w.Code)

	active, err := store.GetSession(t.Context(), session.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionStatusActive, active.Status)
}
