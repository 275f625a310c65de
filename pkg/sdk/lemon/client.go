package lemon

import (
	"context"

	"github.com/pkg/errors"

	"github.com/betbot/golemon/pkg/config"
	"github.com/betbot/golemon/pkg/ratelimit"
	"github.com/betbot/golemon/pkg/sdk/auth"
	"github.com/betbot/golemon/pkg/sdk/rest"
)

// Client bundles everything needed to talk to lemon.markets in one mode.
type Client struct {
	REST    *rest.Client
	Session *auth.Session
	Account *Account
	Market  *MarketData
}

// ClientOption customizes NewClient.
type ClientOption func(*clientOptions)

type clientOptions struct {
	exchanger auth.Exchanger
}

// WithExchanger replaces the OAuth2 HTTP exchange.
func WithExchanger(e auth.Exchanger) ClientOption {
	return func(o *clientOptions) { o.exchanger = e }
}

// NewClient authenticates with the credential of cfg's mode and wires the
// account and market data façades. Close releases the session timer.
func NewClient(ctx context.Context, cfg *config.Config, opts ...ClientOption) (*Client, error) {
	if cfg == nil {
		return nil, errors.New("lemon: nil config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "lemon: config")
	}
	mode := Mode(cfg.Mode)

	o := clientOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.exchanger == nil {
		o.exchanger = auth.NewHTTPExchanger(cfg.HTTP.AuthURL, cfg.Timeout())
	}

	rc := rest.NewClient(rest.Options{
		Hosts: rest.Hosts{
			rest.ResourcePaper: cfg.HTTP.PaperURL,
			rest.ResourceMoney: cfg.HTTP.MoneyURL,
			rest.ResourceData:  cfg.HTTP.DataURL,
		},
		Timeout: cfg.Timeout(),
		Limiter: newLimiter(cfg.HTTP),
	})

	cred := cfg.Credential()
	session, err := auth.NewSession(ctx, o.exchanger,
		auth.Credential{Key: cred.Key, Secret: cred.Secret, Space: cfg.Mode},
		auth.WithRefreshLead(cfg.RefreshLead()))
	if err != nil {
		return nil, err
	}

	account, err := NewAccount(rc, session, mode)
	if err != nil {
		session.Close()
		return nil, err
	}
	market, err := NewMarketData(rc, session)
	if err != nil {
		session.Close()
		return nil, err
	}
	return &Client{REST: rc, Session: session, Account: account, Market: market}, nil
}

// newLimiter builds one bucket per configured resource on top of the
// shared fallback. It returns nil when nothing is limited.
func newLimiter(h config.HTTPConfig) *ratelimit.Manager {
	var fallback ratelimit.Limiter
	if rl := h.RateLimit; rl.PerSecond > 0 {
		fallback = ratelimit.NewTokenBucket(rl.Burst, rl.PerSecond)
	}
	m := ratelimit.NewManager(fallback)
	registered := false
	for resource, rl := range h.RateLimits {
		if rl.PerSecond <= 0 {
			continue
		}
		m.Register(resource, ratelimit.NewTokenBucket(rl.Burst, rl.PerSecond))
		registered = true
	}
	if fallback == nil && !registered {
		return nil
	}
	return m
}

// Close stops the background token refresh.
func (c *Client) Close() {
	if c != nil && c.Session != nil {
		c.Session.Close()
	}
}
