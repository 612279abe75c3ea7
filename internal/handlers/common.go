package handlers

import (
	"github.com/pairline/pairline/internal/services"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// SuccessResponse represents a success response
type SuccessResponse struct {
	Message string `json:"message"`
}

// Package-level collaborators, wired once at startup
var (
	sessionStore *services.SessionStore
	broadcaster  *services.Broadcaster
	conversation *services.Conversation
)

// Init wires the handler package to its services. Must be called before any
// route is registered.
func Init(store *services.SessionStore, b *services.Broadcaster, conv *services.Conversation) {
	sessionStore = store
	broadcaster = b
	conversation = conv
}
