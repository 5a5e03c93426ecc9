package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	log "github.com/sirupsen/logrus"

	"github.com/rateguard/rateguard/app/proxy"
	"github.com/rateguard/rateguard/app/ratelimit"
	"github.com/rateguard/rateguard/secret"
	"github.com/rateguard/rateguard/server"
	"github.com/rateguard/rateguard/store"
)

type input struct {
	Routes string `required:"true"`
	Server struct {
		Address         string        `default:":8080"`
		ReadTimeout     time.Duration `split_words:"true" default:"5s"`
		WriteTimeout    time.Duration `split_words:"true" default:"10s"`
		IdleTimeout     time.Duration `split_words:"true" default:"15s"`
		ShutdownTimeout time.Duration `split_words:"true" default:"30s"`
	}
	Observability struct {
		Address string `default:":9090"`
	}
	Store struct {
		Host         string `default:"localhost"`
		Port         int    `default:"6379"`
		DB           int    `default:"0"`
		PasswordEnv  string `split_words:"true" default:"REDIS_PASSWORD"`
		PasswordFile string `split_words:"true"`
	}
	RateLimit struct {
		Prefix string `default:"rl:"`
	} `split_words:"true"`
}

const (
	app     = "rateguard"
	version = "1.2.0"
)

var (
	requestsRoutedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rateguard_requests_routed_total",
		Help: "The total number of routed requests",
	}, []string{"method", "path", "code"})
	requestsRoutedDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "rateguard_requests_routed_duration_seconds",
		Help:    "The histogram of routed request duration in seconds",
		Buckets: prometheus.DefBuckets,
	})
	decisionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rateguard_decisions_total",
		Help: "The total number of rate-limit decisions by strategy and outcome",
	}, []string{"strategy", "outcome"})
	decisionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "rateguard_decision_duration_seconds",
		Help:    "The histogram of rate-limit evaluation duration in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"strategy", "outcome"})
)

func init() {
	log.SetOutput(os.Stdout)
	log.SetFormatter(&log.JSONFormatter{})
}

func main() {
	_ = godotenv.Load()

	var i input
	if err := envconfig.Process(app, &i); err != nil {
		log.Fatalf("failed to load input: %v\n", err)
	}

	password, err := storePassword(&i)
	if err != nil {
		log.Fatalf("failed to resolve store password: %v\n", err)
	}

	st := store.NewRedisStore(store.RedisConfig{
		Host:     i.Store.Host,
		Port:     i.Store.Port,
		Password: password,
		DB:       i.Store.DB,
	})

	p, err := proxy.New(
		strings.NewReader(i.Routes),
		st,
		ratelimit.IdentifierFromRequest,
		ratelimit.WithPrefix(i.RateLimit.Prefix),
		ratelimit.WithRecorder(newPrometheusRecorder()),
	)
	if err != nil {
		log.Fatalf("failed to initialize proxy: %v\n", err)
	}

	h := p.Handler()
	h = proxy.WithMetrics(requestsRoutedTotal, requestsRoutedDuration)(h)
	h = proxy.WithLogging()(h)

	serverConfig := server.Config{
		Address:         i.Server.Address,
		ReadTimeout:     i.Server.ReadTimeout,
		WriteTimeout:    i.Server.WriteTimeout,
		IdleTimeout:     i.Server.IdleTimeout,
		ShutdownTimeout: i.Server.ShutdownTimeout,
	}

	observabilityConfig := serverConfig
	observabilityConfig.Address = i.Observability.Address

	observability, err := server.NewObservability(observabilityConfig, app, version, st)
	if err != nil {
		log.Fatalf("failed to initialize observability server: %v\n", err)
	}

	var (
		done = make(chan bool)
		quit = make(chan os.Signal, 1)
	)

	go func() {
		log.Println("starting observability server at", i.Observability.Address)

		if errs := observability.ListenAndServe(); errs != nil && !errors.Is(errs, http.ErrServerClosed) {
			log.Fatalf("failed to start observability server on %s: %v\n", i.Observability.Address, errs)
		}
	}()

	main := server.NewMain(serverConfig, h)

	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-quit
		log.Println("server is shutting down...")

		ctx, cancel := context.WithTimeout(context.Background(), i.Server.ShutdownTimeout)
		defer cancel()

		main.SetKeepAlivesEnabled(false)
		observability.SetKeepAlivesEnabled(false)

		if err := main.Shutdown(ctx); err != nil {
			log.Fatalf("failed to gracefully shutdown the server: %v\n", err)
		}

		if err := observability.Shutdown(ctx); err != nil {
			log.Fatalf("failed to gracefully shutdown observability server: %v\n", err)
		}

		if err := st.Close(); err != nil {
			log.Errorf("failed to close store client: %v\n", err)
		}

		close(done)
	}()

	log.Println("server is ready to handle requests at", i.Server.Address)

	if err := main.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("failed to listen on %s: %v\n", i.Server.Address, err)
	}

	<-done
	log.Println("server stopped")
}

// storePassword resolves the Redis password from a mounted file when one is
// configured, otherwise from the environment. A missing secret means the
// store runs without auth.
func storePassword(i *input) (string, error) {
	var (
		ctx    = context.Background()
		source secret.Source
		name   string
	)

	if i.Store.PasswordFile != "" {
		source, name = secret.NewFileSource(), i.Store.PasswordFile
	} else {
		source, name = secret.NewEnvSource(), i.Store.PasswordEnv
	}

	s, err := source.Get(ctx, name)
	if err != nil {
		if errors.Is(err, secret.ErrSecretNotFound) {
			return "", nil
		}

		return "", err
	}

	return string(s), nil
}

type prometheusRecorder struct {
	decisions *prometheus.CounterVec
	latency   *prometheus.HistogramVec
}

func newPrometheusRecorder() *prometheusRecorder {
	return &prometheusRecorder{decisions: decisionsTotal, latency: decisionDuration}
}

func (p *prometheusRecorder) Add(name string, value float64, tags map[string]string) {
	if name == "ratelimit.decision" {
		p.decisions.WithLabelValues(tags["strategy"], tags["outcome"]).Add(value)
	}
}

func (p *prometheusRecorder) Observe(name string, value float64, tags map[string]string) {
	if name == "ratelimit.latency" {
		p.latency.WithLabelValues(tags["strategy"], tags["outcome"]).Observe(value)
	}
}
