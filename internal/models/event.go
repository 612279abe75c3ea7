package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Event is an append-only record attached to a session. Events are never
// mutated or deleted individually, only together with their session.
type Event struct {
	ID        primitive.ObjectID     `bson:"_id,omitempty" json:"id"`
	SessionID string                 `bson:"session_id" json:"session_id"`
	Type      string                 `bson:"type" json:"type"`
	Payload   map[string]interface{} `bson:"payload,omitempty" json:"payload,omitempty"`
	CreatedAt time.Time              `bson:"created_at" json:"created_at"`
}

// Constants for event types
const (
	EventPaired               = "paired"
	EventVerticalSelected     = "vertical_selected"
	EventPainSelected         = "pain_selected"
	EventCallbackPreparing    = "callback_preparing"
	EventCallbackDialing      = "callback_dialing"
	EventCallbackAnswered     = "callback_answered"
	EventCallbackFailed       = "callback_failed"
	EventScheduleRequested    = "schedule_requested"
	EventAppointmentScheduled = "appointment_scheduled"
	EventScheduleDeclined     = "schedule_declined"
	EventDemoCompleted        = "demo_completed"
)
