package ratelimit

import (
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"
)

type (
	// IdentifierFunc resolves the caller's identifier from a request. It
	// may perform I/O bound to the request's context; it always runs
	// before any store access and its failure aborts the evaluation.
	IdentifierFunc func(*http.Request) (string, error)

	Middleware func(http.Handler) http.Handler
)

// ErrNoIdentifier is returned when a request carries no usable identifier.
var ErrNoIdentifier = errors.New("unable to resolve request identifier")

const (
	headerLimit     = "X-RateLimit-Limit"
	headerRemaining = "X-RateLimit-Remaining"
	headerReset     = "X-RateLimit-Reset"
	headerRetry     = "Retry-After"
)

// NewMiddleware enforces the strategy's decisions. An identifier failure is
// the client's fault (400), a store failure is ours (500), and an exceeded
// limit responds 429 with a Retry-After hint. The policy of what to do on
// store failure beyond surfacing it belongs to the deployment, not here.
func NewMiddleware(strategy Strategy, identify IdentifierFunc) Middleware {
	if identify == nil {
		identify = IdentifierFromRequest
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !Enforce(strategy, identify, w, r) {
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// Enforce runs one evaluation, sets the rate-limit response headers, and
// writes the refusal response when the request must not proceed. It reports
// whether the caller should continue handling the request.
func Enforce(strategy Strategy, identify IdentifierFunc, w http.ResponseWriter, r *http.Request) bool {
	if identify == nil {
		identify = IdentifierFromRequest
	}

	identifier, err := identify(r)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return false
	}

	now := time.Now()

	status, err := strategy.Evaluate(r.Context(), identifier, now)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return false
	}

	h := w.Header()

	h.Set(headerLimit, strconv.FormatInt(status.Limit(), 10))
	h.Set(headerRemaining, strconv.FormatInt(clamp(status.Remaining()), 10))

	if status.TimeLeft != NoTimeLeft {
		h.Set(headerReset, strconv.FormatInt(now.Unix()+status.TimeLeft, 10))
	}

	if status.ShouldLimit() {
		h.Set(headerRetry, strconv.FormatInt(retryAfter(status), 10))
		http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
		return false
	}

	return true
}

// IdentifierFromRequest is the default resolver: the client IP taken from
// X-Forwarded-For, then X-Real-IP, then the connection's remote address.
func IdentifierFromRequest(r *http.Request) (string, error) {
	if forwarded := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip, nil
		}
	}

	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip, nil
	}

	remote := strings.TrimSpace(r.RemoteAddr)
	if remote == "" {
		return "", ErrNoIdentifier
	}

	if host, _, err := net.SplitHostPort(remote); err == nil {
		return host, nil
	}

	return remote, nil
}

// IdentifierFromHeader joins the trimmed values of the given headers, for
// deployments that limit by API key or tenant instead of address.
func IdentifierFromHeader(headers ...string) IdentifierFunc {
	return func(r *http.Request) (string, error) {
		var sb strings.Builder

		for _, k := range headers {
			sb.WriteString(strings.TrimSpace(r.Header.Get(k)))
			sb.WriteRune('-')
		}

		if strings.Trim(sb.String(), "-") == "" {
			return "", ErrNoIdentifier
		}

		return sb.String(), nil
	}
}

func clamp(n int64) int64 {
	if n < 0 {
		return 0
	}

	return n
}

func retryAfter(status Status) int64 {
	if status.TimeLeft > 0 {
		return status.TimeLeft
	}

	return int64(status.Rate.Period / time.Second)
}
