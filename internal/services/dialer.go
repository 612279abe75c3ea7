package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/pairline/pairline/internal/config"
	"github.com/pairline/pairline/internal/observability"
	"github.com/pairline/pairline/internal/utils/httpclient"
	"go.uber.org/zap"
)

// Call leg status vocabulary reported by the telephony collaborator
const (
	CallStatusQueued     = "queued"
	CallStatusRinging    = "ringing"
	CallStatusInProgress = "in-progress"
	CallStatusAnswered   = "answered"
	CallStatusCompleted  = "completed"
	CallStatusBusy       = "busy"
	CallStatusFailed     = "failed"
	CallStatusNoAnswer   = "no-answer"
)

// Dialer places the outbound callback leg. Status transitions arrive
// asynchronously through the status webhook, not through this interface.
type Dialer interface {
	PlaceCall(ctx context.Context, toNumber, sessionID, callerName string) (string, error)
}

// restDialer places calls through the telephony provider's REST API
type restDialer struct {
	baseURL        string
	accountSID     string
	authToken      string
	fromNumber     string
	voiceURL       string
	statusCallback string
	logger         *zap.Logger
}

// NewDialer builds a dialer from configuration. When the dialer is disabled
// a logging no-op is returned so development environments work without
// telephony credentials.
func NewDialer(cfg *config.Config, logger *zap.Logger) Dialer {
	if !cfg.DialerEnabled {
		logger.Info("outbound dialer disabled, using no-op dialer")
		return &noopDialer{logger: logger}
	}
	return &restDialer{
		baseURL:        cfg.DialerBaseURL,
		accountSID:     cfg.DialerAccountSID,
		authToken:      cfg.DialerAuthToken,
		fromNumber:     cfg.DialerFromNumber,
		voiceURL:       cfg.DialerVoiceURL,
		statusCallback: cfg.DialerStatusCallbackURL,
		logger:         logger,
	}
}

type placeCallResponse struct {
	SID     string `json:"sid"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// PlaceCall creates the outbound call leg and returns its provider call id
func (d *restDialer) PlaceCall(ctx context.Context, toNumber, sessionID, callerName string) (string, error) {
	endpoint := fmt.Sprintf("%s/Accounts/%s/Calls.json", d.baseURL, d.accountSID)

	form := url.Values{}
	form.Set("To", toNumber)
	form.Set("From", d.fromNumber)
	form.Set("Url", d.voiceURL)
	if d.statusCallback != "" {
		form.Set("StatusCallback", d.statusCallback)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create dial request: %w", err)
	}
	req.SetBasicAuth(d.accountSID, d.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	pool := httpclient.GetGlobalPool()
	client := pool.Get()
	defer pool.Put(client)

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to place call: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read dial response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("dial request rejected: status %d: %s", resp.StatusCode, string(body))
	}

	var result placeCallResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("failed to decode dial response: %w", err)
	}
	if result.SID == "" {
		return "", fmt.Errorf("dial response missing call sid")
	}

	d.logger.Info("outbound call placed",
		zap.String("call_id", result.SID),
		zap.String("session_id", sessionID),
		zap.String("to", observability.MaskPhone(toNumber)))
	return result.SID, nil
}

// noopDialer logs instead of dialing
type noopDialer struct {
	logger *zap.Logger
}

func (d *noopDialer) PlaceCall(_ context.Context, toNumber, sessionID, callerName string) (string, error) {
	callID := "noop-" + uuid.NewString()
	d.logger.Info("no-op dialer pretending to place call",
		zap.String("call_id", callID),
		zap.String("session_id", sessionID),
		zap.String("to", observability.MaskPhone(toNumber)),
		zap.String("caller_name", callerName))
	return callID, nil
}
