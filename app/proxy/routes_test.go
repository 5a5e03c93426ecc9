package proxy

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rateguard/rateguard/app/ratelimit"
	"github.com/rateguard/rateguard/store"
)

const testConfig = `
routes:
  - prefix: /api
    target: http://backend:8080
    rateLimit:
      enabled: true
      rate: 100/60s
      strategy: sliding_window
    routes:
      - prefix: /search
        rateLimit:
          rate: 10/1s
          strategy: bucketing
      - prefix: /health
        rateLimit:
          enabled: false
  - prefix: /static
    target: http://assets:9000
    rewrite: /public
`

func parseTestRoutes(t *testing.T, config string) *routes {
	t.Helper()

	build := newStrategyBuilder(store.NewMemoryStore(), nil)

	r, err := parseRoutes(strings.NewReader(config), build)
	require.NoError(t, err)

	return r
}

func TestParseRoutes_Match(t *testing.T) {
	r := parseTestRoutes(t, testConfig)

	api := r.match("/api/users")
	require.NotNil(t, api)
	assert.Equal(t, "/api", api.prefix)
	assert.Equal(t, "backend:8080", api.target.Host)

	assert.Nil(t, r.match("/unknown"))
}

func TestParseRoutes_DeepestPrefixWins(t *testing.T) {
	r := parseTestRoutes(t, testConfig)

	search := r.match("/api/search/advanced")
	require.NotNil(t, search)
	assert.Equal(t, "/api/search", search.prefix)
}

func TestParseRoutes_ChildInheritsTarget(t *testing.T) {
	r := parseTestRoutes(t, testConfig)

	search := r.match("/api/search")
	require.NotNil(t, search)
	require.NotNil(t, search.target)
	assert.Equal(t, "backend:8080", search.target.Host)
}

func TestParseRoutes_StrategySelection(t *testing.T) {
	r := parseTestRoutes(t, testConfig)

	api := r.match("/api/users")
	require.NotNil(t, api)
	assert.IsType(t, &ratelimit.SlidingWindow{}, api.strategy)

	search := r.match("/api/search")
	require.NotNil(t, search)
	assert.IsType(t, &ratelimit.Bucketing{}, search.strategy)
}

func TestParseRoutes_DisabledLimit(t *testing.T) {
	r := parseTestRoutes(t, testConfig)

	health := r.match("/api/health")
	require.NotNil(t, health)
	assert.Nil(t, health.strategy)
}

func TestParseRoutes_MalformedRateFails(t *testing.T) {
	config := `
routes:
  - prefix: /api
    target: http://backend:8080
    rateLimit:
      enabled: true
      rate: nonsense
`

	build := newStrategyBuilder(store.NewMemoryStore(), nil)

	_, err := parseRoutes(strings.NewReader(config), build)
	require.Error(t, err)
	assert.ErrorIs(t, err, ratelimit.ErrMalformedRate)
}

func TestParseRoutes_MissingRateFails(t *testing.T) {
	config := `
routes:
  - prefix: /api
    target: http://backend:8080
    rateLimit:
      enabled: true
`

	build := newStrategyBuilder(store.NewMemoryStore(), nil)

	_, err := parseRoutes(strings.NewReader(config), build)
	assert.ErrorIs(t, err, ErrMissingRate)
}

func TestParseRoutes_UnknownStrategyFails(t *testing.T) {
	config := `
routes:
  - prefix: /api
    target: http://backend:8080
    rateLimit:
      enabled: true
      rate: 10/1s
      strategy: leaky_bucket
`

	build := newStrategyBuilder(store.NewMemoryStore(), nil)

	_, err := parseRoutes(strings.NewReader(config), build)
	assert.ErrorIs(t, err, ErrUnknownStrategy)
}

func TestParseRoutes_NilTransactorFailsForLimitedRoute(t *testing.T) {
	config := `
routes:
  - prefix: /api
    target: http://backend:8080
    rateLimit:
      enabled: true
      rate: 10/1s
`

	build := newStrategyBuilder(nil, nil)

	_, err := parseRoutes(strings.NewReader(config), build)
	assert.ErrorIs(t, err, ErrNilTransactor)
}

func TestParseRoutes_DuplicatePrefixFails(t *testing.T) {
	config := `
routes:
  - prefix: /api
    target: http://backend:8080
  - prefix: /api
    target: http://other:8080
`

	build := newStrategyBuilder(store.NewMemoryStore(), nil)

	_, err := parseRoutes(strings.NewReader(config), build)
	assert.Error(t, err)
}
