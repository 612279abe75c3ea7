package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pairline/pairline/internal/config"
	"github.com/pairline/pairline/internal/models"
	"github.com/pairline/pairline/internal/observability"
	"github.com/pairline/pairline/internal/speech"
	"go.uber.org/zap"
)

// Conversation step names, reported to and by the telephony collaborator
const (
	StepName     = "name"
	StepCode     = "code"
	StepVertical = "vertical"
	StepPain     = "pain"
	StepPhone    = "phone"
	StepSchedule = "schedule"
	StepDone     = "done"
)

// Caller-facing prompts
const (
	promptAskName        = "Hi! Thanks for calling the demo line. What's your name?"
	promptAskCode        = "Great to meet you, %s. Please read me the four digit code on your screen."
	promptRetryCode      = "I didn't catch a valid code there. Please read the four digits on your screen one at a time."
	promptCodeExhausted  = "I still couldn't match that code. Please refresh the webpage for a fresh code and call back. Goodbye!"
	promptLockedOut      = "Too many failed attempts. Please wait about %d minutes and try again. Goodbye!"
	promptAskVertical    = "You're all set, %s — your screen just updated. Which industry are you in: real estate, insurance, or mortgage?"
	promptRetryVertical  = "Sorry, I didn't catch that. Are you in real estate, insurance, mortgage, or something else?"
	promptAskPain        = "Got it. What's the biggest problem with your phones right now: spam flags, awkward delays, low answer rates, or speed to lead?"
	promptRetryPain      = "Sorry, I missed that. Is it spam flags, awkward delays, low answer rates, or speed to lead?"
	promptAskPhone       = "That's exactly what we fix. What's the best number to call you back on right now?"
	promptRetryPhone     = "Sorry, I need a ten digit phone number. What's the best number to reach you?"
	promptCallbackComing = "Perfect. Hang up now and we'll ring you back at that number in a few seconds. Watch your screen!"
	promptScheduled      = "You're booked for %s. The details are on your screen. Thanks for trying the demo!"
	promptDeclined       = "No problem at all. Everything you saw is saved on your screen. Thanks for trying the demo!"
	promptStepExhausted  = "Thanks for trying the demo. Head back to the webpage to continue. Goodbye!"
	promptAlreadyDone    = "This demo is finished. Check your screen for the results. Goodbye!"
)

// affirmationTokens classify a schedule answer as a yes
var affirmationTokens = map[string]bool{
	"yes": true, "yeah": true, "sure": true, "okay": true,
	"yep": true, "absolutely": true, "definitely": true,
}

// PairingStore is the slice of the session store the conversation drives
type PairingStore interface {
	FindSessionByCode(ctx context.Context, code string) (*models.Session, error)
	PairSession(ctx context.Context, sessionID, callerID, callerName, callID string) (*models.Session, error)
	ExtendSession(ctx context.Context, sessionID string) error
	UpdateSessionPhone(ctx context.Context, sessionID, number string) error
	MarkActive(ctx context.Context, sessionID string) error
}

// AttemptLimiter guards the code step against repeated failures
type AttemptLimiter interface {
	Check(ctx context.Context, callerID string) (RateLimitStatus, error)
	RecordFailure(ctx context.Context, callerID string) (RateLimitStatus, error)
	Clear(ctx context.Context, callerID string) error
}

// EventSink records a state-advancing event durably and fans it out live
type EventSink interface {
	Emit(ctx context.Context, sessionID, eventType string, payload map[string]interface{}) error
}

// Conversation drives the scripted call flow: name, code, vertical, pain,
// phone, callback, schedule. One instance serves every call leg; per-leg
// working memory lives in the call-state store.
type Conversation struct {
	store   PairingStore
	limiter AttemptLimiter
	events  EventSink
	dialer  Dialer
	calls   *CallStateStore
	cfg     *config.Config
	logger  *zap.Logger

	// seams for tests
	schedule func(d time.Duration, f func())
	now      func() time.Time
}

// NewConversation wires the conversation state machine
func NewConversation(store PairingStore, limiter AttemptLimiter, events EventSink, dialer Dialer, calls *CallStateStore, cfg *config.Config, logger *zap.Logger) *Conversation {
	return &Conversation{
		store:   store,
		limiter: limiter,
		events:  events,
		dialer:  dialer,
		calls:   calls,
		cfg:     cfg,
		logger:  logger,
		schedule: func(d time.Duration, f func()) {
			time.AfterFunc(d, f)
		},
		now: time.Now,
	}
}

// HandleTranscript processes one caller utterance and returns the next
// prompt. The call-state step is authoritative over the step the
// collaborator reports; a leg whose state was lost restarts at the name
// step rather than trusting external state.
func (c *Conversation) HandleTranscript(ctx context.Context, callID, caller, step, transcript string) (models.TranscriptResponse, error) {
	state := c.calls.GetOrCreate(callID, caller, StepName)

	switch state.Step {
	case StepName:
		return c.handleName(state, transcript)
	case StepCode:
		return c.handleCode(ctx, state, transcript)
	case StepVertical:
		return c.handleVertical(ctx, state, transcript)
	case StepPain:
		return c.handlePain(ctx, state, transcript)
	case StepPhone:
		return c.handlePhone(ctx, state, transcript)
	case StepSchedule:
		return c.handleSchedule(ctx, state, transcript)
	case StepDone:
		return models.TranscriptResponse{Prompt: promptAlreadyDone, NextStep: StepDone, Done: true}, nil
	default:
		c.logger.Warn("resetting call with unknown step",
			zap.String("call_id", state.CallID),
			zap.String("step", state.Step))
		state.Step = StepName
		return models.TranscriptResponse{Prompt: promptAskName, NextStep: StepName}, nil
	}
}

// handleName never fails: the sanitizer always yields at least the
// placeholder name.
func (c *Conversation) handleName(state *CallState, transcript string) (models.TranscriptResponse, error) {
	state.Name = speech.SanitizeName(transcript)
	state.Step = StepCode

	return models.TranscriptResponse{
		Prompt:   fmt.Sprintf(promptAskCode, state.Name),
		NextStep: StepCode,
	}, nil
}

func (c *Conversation) handleCode(ctx context.Context, state *CallState, transcript string) (models.TranscriptResponse, error) {
	status, err := c.limiter.Check(ctx, state.Caller)
	if err != nil {
		return models.TranscriptResponse{}, err
	}
	if !status.Allowed {
		c.calls.Delete(state.CallID)
		return models.TranscriptResponse{
			Prompt:   fmt.Sprintf(promptLockedOut, c.lockoutMinutes(status.LockedUntil)),
			NextStep: StepDone,
			Done:     true,
		}, nil
	}

	var session *models.Session
	result := speech.ParseCode(transcript)
	if result.Matched {
		found, err := c.store.FindSessionByCode(ctx, result.Code)
		if err != nil && err != models.ErrSessionNotFound {
			return models.TranscriptResponse{}, err
		}
		if found != nil {
			paired, err := c.store.PairSession(ctx, found.ID, state.Caller, state.Name, state.CallID)
			if err == nil {
				session = paired
			} else if err != models.ErrCodeUnavailable {
				return models.TranscriptResponse{}, err
			}
			// A lost pairing race counts as a failed attempt, same as a
			// wrong code
		}
	} else {
		observability.ParseFailures.WithLabelValues("code").Inc()
	}

	if session == nil {
		return c.failCodeAttempt(ctx, state)
	}

	if err := c.limiter.Clear(ctx, state.Caller); err != nil {
		c.logger.Warn("failed to clear rate limit after pairing",
			zap.String("caller", observability.MaskPhone(state.Caller)),
			zap.Error(err))
	}

	state.SessionID = session.ID
	state.Step = StepVertical
	state.StepAttempts = 0

	if err := c.events.Emit(ctx, session.ID, models.EventPaired, map[string]interface{}{
		"caller_name": state.Name,
		"code":        session.Code,
	}); err != nil {
		return models.TranscriptResponse{}, err
	}

	observability.PairingAttempts.WithLabelValues("success").Inc()
	return models.TranscriptResponse{
		Prompt:   fmt.Sprintf(promptAskVertical, state.Name),
		NextStep: StepVertical,
	}, nil
}

func (c *Conversation) failCodeAttempt(ctx context.Context, state *CallState) (models.TranscriptResponse, error) {
	observability.PairingAttempts.WithLabelValues("failure").Inc()

	failStatus, err := c.limiter.RecordFailure(ctx, state.Caller)
	if err != nil {
		return models.TranscriptResponse{}, err
	}

	state.CodeAttempts++

	if !failStatus.Allowed {
		c.calls.Delete(state.CallID)
		return models.TranscriptResponse{
			Prompt:   fmt.Sprintf(promptLockedOut, c.lockoutMinutes(failStatus.LockedUntil)),
			NextStep: StepDone,
			Done:     true,
		}, nil
	}

	if state.CodeAttempts >= c.cfg.CodeAttemptsPerCall {
		c.calls.Delete(state.CallID)
		return models.TranscriptResponse{
			Prompt:   promptCodeExhausted,
			NextStep: StepDone,
			Done:     true,
		}, nil
	}

	return models.TranscriptResponse{Prompt: promptRetryCode, NextStep: StepCode}, nil
}

func (c *Conversation) handleVertical(ctx context.Context, state *CallState, transcript string) (models.TranscriptResponse, error) {
	key := speech.ParseCategory(transcript, speech.VerticalTable)
	if key == "" {
		return c.reprompt(state, "vertical", promptRetryVertical, StepVertical)
	}

	if err := c.events.Emit(ctx, state.SessionID, models.EventVerticalSelected, map[string]interface{}{
		"vertical": key,
	}); err != nil {
		return models.TranscriptResponse{}, err
	}
	c.extendSession(ctx, state.SessionID)

	state.Step = StepPain
	state.StepAttempts = 0
	return models.TranscriptResponse{Prompt: promptAskPain, NextStep: StepPain}, nil
}

func (c *Conversation) handlePain(ctx context.Context, state *CallState, transcript string) (models.TranscriptResponse, error) {
	key := speech.ParseCategory(transcript, speech.PainTable)
	if key == "" {
		return c.reprompt(state, "pain", promptRetryPain, StepPain)
	}

	if err := c.events.Emit(ctx, state.SessionID, models.EventPainSelected, map[string]interface{}{
		"pain":         key,
		"spam_related": key == "spam_flags",
	}); err != nil {
		return models.TranscriptResponse{}, err
	}
	c.extendSession(ctx, state.SessionID)

	state.Step = StepPhone
	state.StepAttempts = 0
	return models.TranscriptResponse{Prompt: promptAskPhone, NextStep: StepPhone}, nil
}

func (c *Conversation) handlePhone(ctx context.Context, state *CallState, transcript string) (models.TranscriptResponse, error) {
	result := speech.ParsePhoneNumber(transcript)
	if !result.Matched {
		return c.reprompt(state, "phone", promptRetryPhone, StepPhone)
	}

	if err := c.store.UpdateSessionPhone(ctx, state.SessionID, result.E164); err != nil {
		return models.TranscriptResponse{}, err
	}

	if err := c.events.Emit(ctx, state.SessionID, models.EventCallbackPreparing, map[string]interface{}{
		"phone": result.E164,
	}); err != nil {
		return models.TranscriptResponse{}, err
	}

	// The inbound leg is finished; the callback fires after a short delay
	// so the caller has time to hang up
	state.Step = StepDone
	sessionID := state.SessionID
	callerName := state.Name
	originCallID := state.CallID
	number := result.E164
	c.schedule(c.cfg.CallbackDelay, func() {
		c.triggerCallback(sessionID, number, callerName, originCallID)
	})

	return models.TranscriptResponse{
		Prompt:   promptCallbackComing,
		NextStep: StepDone,
		Done:     true,
	}, nil
}

// triggerCallback runs outside the live call. Failures become a
// callback_failed notification, never an unhandled fault; a forgotten
// origin leg makes the trigger inert.
func (c *Conversation) triggerCallback(sessionID, toNumber, callerName, originCallID string) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("callback trigger panicked",
				zap.String("session_id", sessionID),
				zap.Any("panic", r))
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if _, ok := c.calls.Get(originCallID); !ok {
		c.logger.Info("skipping callback for forgotten call leg",
			zap.String("call_id", originCallID),
			zap.String("session_id", sessionID))
		return
	}

	if err := c.events.Emit(ctx, sessionID, models.EventCallbackDialing, map[string]interface{}{
		"phone": toNumber,
	}); err != nil {
		c.logger.Error("failed to record callback_dialing event",
			zap.String("session_id", sessionID),
			zap.Error(err))
	}

	callID, err := c.dialer.PlaceCall(ctx, toNumber, sessionID, callerName)
	if err != nil {
		observability.Callbacks.WithLabelValues(CallStatusFailed).Inc()
		c.logger.Error("failed to place callback",
			zap.String("session_id", sessionID),
			zap.Error(err))
		if emitErr := c.events.Emit(ctx, sessionID, models.EventCallbackFailed, map[string]interface{}{
			"reason": err.Error(),
		}); emitErr != nil {
			c.logger.Error("failed to record callback_failed event",
				zap.String("session_id", sessionID),
				zap.Error(emitErr))
		}
		return
	}

	observability.Callbacks.WithLabelValues(CallStatusQueued).Inc()
	c.calls.Put(&CallState{
		CallID:    callID,
		Caller:    toNumber,
		Step:      StepSchedule,
		Name:      callerName,
		SessionID: sessionID,
		CreatedAt: c.now(),
	})
}

// HandleDialStatus feeds asynchronous call-leg status reports back into the
// flow.
func (c *Conversation) HandleDialStatus(ctx context.Context, callID, sessionID, status string) error {
	if sessionID == "" {
		if state, ok := c.calls.Get(callID); ok {
			sessionID = state.SessionID
		}
	}

	switch status {
	case CallStatusQueued, CallStatusRinging:
		// Already announced via callback_dialing
		return nil

	case CallStatusAnswered, CallStatusInProgress:
		if sessionID == "" {
			return models.ErrUnknownCallLeg
		}
		if err := c.store.MarkActive(ctx, sessionID); err != nil && err != models.ErrSessionNotLive {
			return err
		}
		observability.Callbacks.WithLabelValues(CallStatusAnswered).Inc()
		return c.events.Emit(ctx, sessionID, models.EventCallbackAnswered, nil)

	case CallStatusBusy, CallStatusNoAnswer, CallStatusFailed:
		if sessionID == "" {
			return models.ErrUnknownCallLeg
		}
		observability.Callbacks.WithLabelValues(status).Inc()
		return c.events.Emit(ctx, sessionID, models.EventCallbackFailed, map[string]interface{}{
			"reason": status,
		})

	case CallStatusCompleted:
		// Hangup: no further transitions for this leg
		c.calls.Delete(callID)
		return nil

	default:
		c.logger.Warn("ignoring unknown call status",
			zap.String("call_id", callID),
			zap.String("status", status))
		return nil
	}
}

func (c *Conversation) handleSchedule(ctx context.Context, state *CallState, transcript string) (models.TranscriptResponse, error) {
	var prompt string
	if isAffirmative(transcript) {
		if err := c.events.Emit(ctx, state.SessionID, models.EventScheduleRequested, nil); err != nil {
			return models.TranscriptResponse{}, err
		}

		appointment := nextWeekdayAt(c.now(), c.cfg.AppointmentHour)
		if err := c.events.Emit(ctx, state.SessionID, models.EventAppointmentScheduled, map[string]interface{}{
			"time":    appointment.Format(time.RFC3339),
			"display": appointment.Format("Monday, January 2 at 3 PM"),
		}); err != nil {
			return models.TranscriptResponse{}, err
		}
		prompt = fmt.Sprintf(promptScheduled, appointment.Format("Monday at 3 PM"))
	} else {
		if err := c.events.Emit(ctx, state.SessionID, models.EventScheduleDeclined, nil); err != nil {
			return models.TranscriptResponse{}, err
		}
		prompt = promptDeclined
	}

	if err := c.events.Emit(ctx, state.SessionID, models.EventDemoCompleted, nil); err != nil {
		return models.TranscriptResponse{}, err
	}

	c.calls.Delete(state.CallID)
	return models.TranscriptResponse{Prompt: prompt, NextStep: StepDone, Done: true}, nil
}

// reprompt asks the caller to try a step again, honoring the configured
// retry ceiling. A zero limit means unlimited retries.
func (c *Conversation) reprompt(state *CallState, parser, prompt, step string) (models.TranscriptResponse, error) {
	observability.ParseFailures.WithLabelValues(parser).Inc()

	state.StepAttempts++
	if c.cfg.StepRetryLimit > 0 && state.StepAttempts >= c.cfg.StepRetryLimit {
		c.calls.Delete(state.CallID)
		return models.TranscriptResponse{
			Prompt:   promptStepExhausted,
			NextStep: StepDone,
			Done:     true,
		}, nil
	}

	return models.TranscriptResponse{Prompt: prompt, NextStep: step}, nil
}

// extendSession keeps a slow talker from timing out mid-flow. Failure here
// is logged, not surfaced: the step itself already succeeded.
func (c *Conversation) extendSession(ctx context.Context, sessionID string) {
	if err := c.store.ExtendSession(ctx, sessionID); err != nil {
		c.logger.Warn("failed to extend session",
			zap.String("session_id", sessionID),
			zap.Error(err))
	}
}

func (c *Conversation) lockoutMinutes(lockedUntil *time.Time) int {
	if lockedUntil == nil {
		return int(c.cfg.RateLimitLockout.Minutes())
	}
	minutes := int(time.Until(*lockedUntil).Minutes()) + 1
	if minutes < 1 {
		minutes = 1
	}
	return minutes
}

// isAffirmative reports whether the transcript contains any affirmation
// token as a whole word.
func isAffirmative(transcript string) bool {
	for _, token := range strings.Fields(strings.ToLower(transcript)) {
		token = strings.Trim(token, ".,!?")
		if affirmationTokens[token] {
			return true
		}
	}
	return false
}

// nextWeekdayAt returns the next weekday after from, skipping Saturday and
// Sunday, at the given hour in from's location.
func nextWeekdayAt(from time.Time, hour int) time.Time {
	day := from.AddDate(0, 0, 1)
	for day.Weekday() == time.Saturday || day.Weekday() == time.Sunday {
		day = day.AddDate(0, 0, 1)
	}
	return time.Date(day.Year(), day.Month(), day.Day(), hour, 0, 0, 0, from.Location())
}
