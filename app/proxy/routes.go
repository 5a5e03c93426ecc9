package proxy

import (
	"fmt"
	"io"
	"net/url"
	"path"

	"github.com/dghubble/trie"
	"gopkg.in/yaml.v2"

	"github.com/rateguard/rateguard/app/ratelimit"
)

type (
	routes struct{ t *trie.PathTrie }

	route struct {
		target   *url.URL
		prefix   string
		rewrite  string
		limit    limitConfig
		strategy ratelimit.Strategy
	}

	configRoute struct {
		Prefix    string           `yaml:"prefix"`
		Target    *string          `yaml:"target"`
		Rewrite   *string          `yaml:"rewrite"`
		RateLimit *configRateLimit `yaml:"rateLimit"`
		Routes    []configRoute    `yaml:"routes,flow"`
	}
)

func parseRoutes(configDataSource io.Reader, build strategyBuilder) (*routes, error) {
	var c struct {
		Routes []configRoute `yaml:"routes,flow"`
	}

	if err := yaml.NewDecoder(configDataSource).Decode(&c); err != nil {
		return nil, fmt.Errorf("failed to decode config data: %w", err)
	}

	pathTrie := trie.NewPathTrie()

	if err := addRoutes(pathTrie, "/", nil, c.Routes, build); err != nil {
		return nil, fmt.Errorf("failed to add routes: %w", err)
	}

	return &routes{t: pathTrie}, nil
}

// addRoutes mounts each config route under its parent's path. Child routes
// inherit the parent's target, rewrite and rate limit unless they set their
// own.
func addRoutes(t *trie.PathTrie, p string, a *route, r []configRoute, build strategyBuilder) error {
	for i := range r {
		if r[i].Prefix == "" {
			continue
		}

		m := path.Join(p, r[i].Prefix)

		var (
			u *url.URL
			e error
		)

		if r[i].Target != nil {
			u, e = url.Parse(*r[i].Target)
			if e != nil {
				return fmt.Errorf("failed to parse target: %w", e)
			}
		}

		var re string
		if r[i].Rewrite != nil {
			re = *r[i].Rewrite
		}

		var l limitConfig
		if a != nil {
			l = a.limit
		}

		l.parse(&r[i])

		c := route{
			target:  u,
			rewrite: re,
			limit:   l,
			prefix:  m,
		}

		if a != nil {
			if c.target == nil && a.target != nil {
				c.target = a.target
			}

			if c.rewrite == "" && a.rewrite != "" {
				c.rewrite = a.rewrite
			}
		}

		if err := c.limit.validate(); err != nil {
			return fmt.Errorf("route %q is invalid: %w", c.prefix, err)
		}

		s, err := build(c.limit)
		if err != nil {
			return fmt.Errorf("route %q has an invalid rate limit: %w", c.prefix, err)
		}

		c.strategy = s

		if !t.Put(m, &c) {
			return fmt.Errorf("route %q to %q is already mapped", c.prefix, c.target)
		}

		if err := addRoutes(t, m, &c, r[i].Routes, build); err != nil {
			return err
		}
	}

	return nil
}

// match returns the deepest configured route on the request path.
func (r *routes) match(urlPath string) *route {
	var found *route

	_ = r.t.WalkPath(urlPath, func(key string, value interface{}) error {
		if rt, ok := value.(*route); ok {
			found = rt
		}

		return nil
	})

	return found
}
