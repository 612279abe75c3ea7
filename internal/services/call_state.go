package services

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// CallState is the per-call-leg working memory of the conversation: the name
// captured so far, attempt counters and the session the leg paired with.
// It is transient by contract; losing it degrades to asking the caller
// again, never to corrupting the durable session.
type CallState struct {
	CallID       string
	Caller       string
	Step         string
	Name         string
	SessionID    string
	CodeAttempts int
	StepAttempts int
	CreatedAt    time.Time
	LastSeen     time.Time
}

// CallStateStore is a process-local keyed store of CallState, bounded by a
// TTL so abandoned legs do not accumulate.
type CallStateStore struct {
	mu     sync.Mutex
	calls  map[string]*CallState
	ttl    time.Duration
	logger *zap.Logger
	stop   chan struct{}
	once   sync.Once
}

// NewCallStateStore creates a call-state store and starts its cleanup loop
func NewCallStateStore(ttl time.Duration, logger *zap.Logger) *CallStateStore {
	s := &CallStateStore{
		calls:  make(map[string]*CallState),
		ttl:    ttl,
		logger: logger,
		stop:   make(chan struct{}),
	}

	go func() {
		ticker := time.NewTicker(ttl / 2)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.Cleanup(ttl)
			case <-s.stop:
				return
			}
		}
	}()

	return s
}

// GetOrCreate returns the state for a call leg, creating it at the first
// step when the leg is new or its state was lost.
func (s *CallStateStore) GetOrCreate(callID, caller, initialStep string) *CallState {
	s.mu.Lock()
	defer s.mu.Unlock()

	if state, ok := s.calls[callID]; ok {
		state.LastSeen = time.Now()
		return state
	}

	state := &CallState{
		CallID:    callID,
		Caller:    caller,
		Step:      initialStep,
		CreatedAt: time.Now(),
		LastSeen:  time.Now(),
	}
	s.calls[callID] = state
	return state
}

// Put registers state for a call leg, replacing any previous state
func (s *CallStateStore) Put(state *CallState) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state.LastSeen = time.Now()
	s.calls[state.CallID] = state
}

// Get returns the state for a call leg if it is known
func (s *CallStateStore) Get(callID string) (*CallState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.calls[callID]
	if ok {
		state.LastSeen = time.Now()
	}
	return state, ok
}

// Delete forgets a call leg. Deferred work keyed on the leg becomes inert.
func (s *CallStateStore) Delete(callID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.calls, callID)
}

// Cleanup removes call legs idle for longer than the given duration
func (s *CallStateStore) Cleanup(olderThan time.Duration) int {
	cutoff := time.Now().Add(-olderThan)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for callID, state := range s.calls {
		if state.LastSeen.Before(cutoff) {
			delete(s.calls, callID)
			removed++
		}
	}

	if removed > 0 {
		s.logger.Debug("cleaned up stale call state",
			zap.Int("removed", removed),
			zap.Int("remaining", len(s.calls)))
	}
	return removed
}

// Len returns the number of tracked call legs
func (s *CallStateStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

// Stop terminates the cleanup loop
func (s *CallStateStore) Stop() {
	s.once.Do(func() {
		close(s.stop)
	})
}
