package models

import (
	"time"
)

// CreateSessionRequest represents the request body for creating a session
type CreateSessionRequest struct {
	BrowserID string `json:"browser_id" binding:"required"`
}

// SessionSummaryResponse represents the read-only session view for the web UI
type SessionSummaryResponse struct {
	ID          string    `json:"id"`
	Code        string    `json:"code"`
	Status      string    `json:"status"`
	CallerName  string    `json:"caller_name,omitempty"`
	CallerPhone string    `json:"caller_phone,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	ExpiresAt   time.Time `json:"expires_at"`
	Events      []Event   `json:"events"`
}

// TranscriptRequest represents one caller utterance reported by the
// telephony collaborator
type TranscriptRequest struct {
	CallID     string `json:"call_id" binding:"required"`
	Caller     string `json:"caller" binding:"required"`
	Step       string `json:"step"`
	Transcript string `json:"transcript"`
}

// TranscriptResponse carries the next prompt to speak and the step the
// collaborator should report the next utterance against
type TranscriptResponse struct {
	Prompt   string `json:"prompt"`
	NextStep string `json:"next_step"`
	Done     bool   `json:"done"`
}

// DialStatusRequest represents an asynchronous status callback for a call leg
type DialStatusRequest struct {
	CallID    string `json:"call_id" binding:"required"`
	SessionID string `json:"session_id"`
	Status    string `json:"status" binding:"required"`
}
