// Package proxy is the enforcement layer: a reverse proxy whose routes are
// configured in YAML, each optionally guarded by a rate-limit strategy
// sharing one store.
package proxy

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httputil"
	"path"
	"strings"

	"github.com/rateguard/rateguard/app/ratelimit"
	"github.com/rateguard/rateguard/store"
)

type (
	Proxy struct {
		routes   *routes
		identify ratelimit.IdentifierFunc
		proxy    *httputil.ReverseProxy
	}

	contextKey uint
)

const routeKey contextKey = 10

// New reads the YAML route configuration and constructs every route's
// strategy up front, so a malformed rate fails at startup rather than on the
// first request. The transactor may be nil only when no route enables rate
// limiting.
func New(configDataSource io.Reader, transactor store.Transactor, identify ratelimit.IdentifierFunc, opts ...ratelimit.Option) (*Proxy, error) {
	if configDataSource == nil {
		return nil, ErrMissingRoutesInput
	}

	r, err := parseRoutes(configDataSource, newStrategyBuilder(transactor, opts))
	if err != nil {
		return nil, fmt.Errorf("failed to parse proxy routes: %w", err)
	}

	return &Proxy{
		routes:   r,
		identify: identify,
		proxy:    newReverseProxy(),
	}, nil
}

func newStrategyBuilder(transactor store.Transactor, opts []ratelimit.Option) strategyBuilder {
	return func(c limitConfig) (ratelimit.Strategy, error) {
		if !c.enabled {
			return nil, nil
		}

		if transactor == nil {
			return nil, ErrNilTransactor
		}

		if c.strategy == strategySlidingWindow {
			return ratelimit.NewSlidingWindow(transactor, c.rate, opts...)
		}

		return ratelimit.NewBucketing(transactor, c.rate, opts...)
	}
}

func (p *Proxy) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := p.routes.match(r.URL.Path)

		if route == nil || route.target == nil {
			http.NotFound(w, r)
			return
		}

		if route.strategy != nil && !ratelimit.Enforce(route.strategy, p.identify, w, r) {
			return
		}

		r = r.WithContext(context.WithValue(r.Context(), routeKey, route))

		r.Header.Set("X-Forwarded-Host", r.Host)

		p.proxy.ServeHTTP(w, r)
	})
}

func newReverseProxy() *httputil.ReverseProxy {
	director := func(req *http.Request) {
		var (
			route        = req.Context().Value(routeKey).(*route)
			routePath    = req.URL.Path
			targetScheme = route.target.Scheme
			targetHost   = route.target.Host
			targetQuery  = route.target.RawQuery
		)

		if targetScheme == "" {
			targetScheme = "http"
		}

		if route.rewrite != "" {
			routePath = strings.TrimPrefix(routePath, route.prefix)
			routePath = path.Join(route.rewrite, routePath)
			req.URL.Path = routePath
		}

		req.URL.Host = targetHost
		req.URL.Scheme = targetScheme

		if targetQuery == "" || req.URL.RawQuery == "" {
			req.URL.RawQuery = targetQuery + req.URL.RawQuery
		} else {
			req.URL.RawQuery = targetQuery + "&" + req.URL.RawQuery
		}

		if _, ok := req.Header["User-Agent"]; !ok {
			req.Header.Set("User-Agent", "")
		}
	}

	return &httputil.ReverseProxy{Director: director}
}
