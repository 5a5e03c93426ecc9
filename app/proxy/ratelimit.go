package proxy

import (
	"errors"

	"github.com/rateguard/rateguard/app/ratelimit"
)

type (
	limitConfig struct {
		enabled  bool
		rate     string
		strategy string
	}

	configRateLimit struct {
		Enabled  *bool   `yaml:"enabled"`
		Rate     *string `yaml:"rate"`
		Strategy *string `yaml:"strategy"`
	}

	// strategyBuilder turns a validated per-route limit into a strategy
	// instance, or nil when the route is unlimited.
	strategyBuilder func(limitConfig) (ratelimit.Strategy, error)
)

const (
	strategyBucketing     = "bucketing"
	strategySlidingWindow = "sliding_window"
)

var (
	ErrMissingRate        = errors.New("rate limit requires a rate")
	ErrUnknownStrategy    = errors.New("unknown rate limit strategy")
	ErrNilTransactor      = errors.New("rate limiting requires a store")
	ErrMissingRoutesInput = errors.New("routes configuration is required")
)

func (c *limitConfig) parse(r *configRoute) {
	if r.RateLimit == nil {
		return
	}

	if r.RateLimit.Enabled != nil {
		c.enabled = *r.RateLimit.Enabled
	}

	if r.RateLimit.Rate != nil {
		c.rate = *r.RateLimit.Rate
	}

	if r.RateLimit.Strategy != nil {
		c.strategy = *r.RateLimit.Strategy
	}
}

func (c *limitConfig) validate() error {
	if !c.enabled {
		return nil
	}

	if c.rate == "" {
		return ErrMissingRate
	}

	switch c.strategy {
	case "", strategyBucketing, strategySlidingWindow:
		return nil
	default:
		return ErrUnknownStrategy
	}
}
