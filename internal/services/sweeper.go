package services

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Sweeper periodically transitions expired sessions, independent of any
// request handling.
type Sweeper struct {
	store    *SessionStore
	interval time.Duration
	logger   *zap.Logger
	stop     chan struct{}
	done     chan struct{}
	once     sync.Once
}

// NewSweeper creates a sweeper over the given session store
func NewSweeper(store *SessionStore, interval time.Duration, logger *zap.Logger) *Sweeper {
	return &Sweeper{
		store:    store,
		interval: interval,
		logger:   logger,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start runs the sweep loop until Stop is called
func (s *Sweeper) Start() {
	go func() {
		defer close(s.done)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.logger.Info("expiry sweeper started", zap.Duration("interval", s.interval))
		for {
			select {
			case <-ticker.C:
				s.sweep()
			case <-s.stop:
				s.logger.Info("expiry sweeper stopped")
				return
			}
		}
	}()
}

// Stop terminates the sweep loop and waits for it to finish
func (s *Sweeper) Stop() {
	s.once.Do(func() {
		close(s.stop)
	})
	<-s.done
}

func (s *Sweeper) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if _, err := s.store.SweepExpired(ctx); err != nil {
		s.logger.Error("expiry sweep failed", zap.Error(err))
	}
}
