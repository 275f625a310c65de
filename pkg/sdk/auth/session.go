package auth

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/betbot/golemon/pkg/logger"
)

const (
	minRefreshDelay     = 10 * time.Millisecond
	timerRefreshTimeout = 30 * time.Second
)

// Token is a bearer token together with its expiry instant. Values are
// immutable once published.
type Token struct {
	Value     string
	ExpiresAt time.Time
}

// Expired reports whether the token is no longer valid at now.
func (t *Token) Expired(now time.Time) bool {
	return t == nil || !now.Before(t.ExpiresAt)
}

// Session owns the bearer token of one credential. A background timer
// refreshes the token when it is due; Token also refreshes on demand when
// the stored token has already expired.
//
// Readers see either the old or the new Token, never a mix: the pair is
// swapped through an atomic pointer and only refresh writes it.
type Session struct {
	exchanger Exchanger
	cred      Credential
	current   atomic.Pointer[Token]

	mu     sync.Mutex // serializes refreshes and timer state
	timer  *time.Timer
	closed bool

	lead  time.Duration
	now   func() time.Time
	retry *backoff.ExponentialBackOff
}

// Option configures a Session.
type Option func(*Session)

// WithRefreshLead makes the timer fire d before the token expires.
func WithRefreshLead(d time.Duration) Option {
	return func(s *Session) {
		if d > 0 {
			s.lead = d
		}
	}
}

// WithClock replaces time.Now for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		if now != nil {
			s.now = now
		}
	}
}

// WithRetryBackOff sets the schedule used to re-arm the timer after a
// failed background refresh.
func WithRetryBackOff(b *backoff.ExponentialBackOff) Option {
	return func(s *Session) {
		if b != nil {
			s.retry = b
		}
	}
}

// NewSession exchanges cred once and arms the refresh timer.
func NewSession(ctx context.Context, exchanger Exchanger, cred Credential, opts ...Option) (*Session, error) {
	if exchanger == nil {
		return nil, errors.New("auth: nil exchanger")
	}
	s := &Session{
		exchanger: exchanger,
		cred:      cred,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.retry == nil {
		s.retry = backoff.NewExponentialBackOff()
		s.retry.InitialInterval = time.Second
		s.retry.MaxInterval = time.Minute
	}

	if err := s.Refresh(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Current returns the published token without refreshing.
func (s *Session) Current() *Token {
	return s.current.Load()
}

// Token returns a valid bearer token, refreshing first if the stored one
// has expired.
func (s *Session) Token(ctx context.Context) (string, error) {
	if t := s.current.Load(); !t.Expired(s.now()) {
		return t.Value, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// another caller may have refreshed while we waited
	if t := s.current.Load(); !t.Expired(s.now()) {
		return t.Value, nil
	}
	if err := s.refreshLocked(ctx); err != nil {
		return "", err
	}
	return s.current.Load().Value, nil
}

// Refresh re-performs the exchange and publishes the new token.
func (s *Session) Refresh(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshLocked(ctx)
}

func (s *Session) refreshLocked(ctx context.Context) error {
	grant, err := s.exchanger.Exchange(ctx, s.cred)
	if err != nil {
		return err
	}

	ttl := time.Duration(grant.ExpiresIn) * time.Second
	s.current.Store(&Token{Value: grant.AccessToken, ExpiresAt: s.now().Add(ttl)})
	s.retry.Reset()
	logger.WithFields(logrus.Fields{
		"space":      s.cred.Space,
		"expires_in": grant.ExpiresIn,
	}).Info("session token acquired")

	s.armLocked(s.refreshDelay(ttl))
	return nil
}

// refreshDelay is the wait before the next background refresh of a token
// valid for ttl. A lead that does not fit inside ttl falls back to half
// the lifetime. A non-positive ttl disarms the timer.
func (s *Session) refreshDelay(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		logger.WithField("space", s.cred.Space).Warn("grant without lifetime, background refresh disabled")
		return 0
	}
	if s.lead >= ttl {
		logger.WithFields(logrus.Fields{
			"space": s.cred.Space,
			"lead":  s.lead.String(),
			"ttl":   ttl.String(),
		}).Warn("refresh lead exceeds token lifetime, refreshing at half-life")
		return ttl / 2
	}
	return ttl - s.lead
}

// armLocked replaces any pending timer. Nothing is armed after Close or
// for d <= 0.
func (s *Session) armLocked(d time.Duration) {
	if s.closed {
		return
	}
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	if d <= 0 {
		return
	}
	if d < minRefreshDelay {
		d = minRefreshDelay
	}
	s.timer = time.AfterFunc(d, s.onTimer)
}

func (s *Session) onTimer() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), timerRefreshTimeout)
	defer cancel()
	if err := s.refreshLocked(ctx); err != nil {
		wait := s.retry.NextBackOff()
		if wait == backoff.Stop {
			wait = s.retry.MaxInterval
		}
		logger.WithFields(logrus.Fields{
			"space": s.cred.Space,
			"retry": wait.String(),
		}).Errorf("session token refresh failed: %v", err)
		s.armLocked(wait)
	}
}

// Close stops the refresh timer. The stored token stays readable and
// Refresh keeps working, but no background refresh fires afterwards.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// StaticToken is a TokenSource that always returns the same token.
type StaticToken string

// Token implements the token source contract.
func (t StaticToken) Token(context.Context) (string, error) {
	return string(t), nil
}
