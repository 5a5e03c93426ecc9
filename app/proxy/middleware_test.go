package proxy

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWithLogging_AssignsRequestID(t *testing.T) {
	var seen string

	handler := WithLogging()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Header.Get("X-Request-Id")
		w.WriteHeader(http.StatusOK)
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, seen)
}

func TestWithLogging_KeepsExistingRequestID(t *testing.T) {
	var seen string

	handler := WithLogging()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Header.Get("X-Request-Id")
	}))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("X-Request-Id", "fixed-id")

	handler.ServeHTTP(httptest.NewRecorder(), r)

	assert.Equal(t, "fixed-id", seen)
}

func TestLoggingWriter_RecordsStatusCode(t *testing.T) {
	w := newLoggingWriter(httptest.NewRecorder())
	w.WriteHeader(http.StatusTeapot)

	assert.Equal(t, http.StatusTeapot, w.Code)
}

func TestNewLoggingWriter_NoDoubleWrap(t *testing.T) {
	inner := newLoggingWriter(httptest.NewRecorder())
	outer := newLoggingWriter(inner)

	assert.Same(t, inner, outer)
}
