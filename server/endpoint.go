// Package server builds the gateway's HTTP servers: the main traffic
// endpoint and the observability sidecar.
package server

import (
	"net/http"
	"time"
)

type (
	Config struct {
		Address         string
		ReadTimeout     time.Duration
		WriteTimeout    time.Duration
		IdleTimeout     time.Duration
		ShutdownTimeout time.Duration
	}
)

// NewMain serves gateway traffic through the given handler chain.
func NewMain(config Config, handler http.Handler) *http.Server {
	return newServer(config, handler)
}

func newServer(config Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         config.Address,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
		Handler:      handler,
	}
}
