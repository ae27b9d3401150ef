package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dukerupert/pantry/internal/auth"
	"github.com/dukerupert/pantry/internal/config"
	"github.com/dukerupert/pantry/internal/database"
	"github.com/dukerupert/pantry/internal/logging"
	"github.com/dukerupert/pantry/internal/metrics"
	"github.com/dukerupert/pantry/internal/server"
	"github.com/dukerupert/pantry/internal/tracing"
)

var version = "dev"

func main() {
	configPath := flag.String("config", os.Getenv("PANTRY_CONFIG"), "path to YAML config file")
	tokenTTL := flag.Duration("ttl", 24*time.Hour, "lifetime of tokens issued by the token command")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: pantry [flags] [serve | token <user-id>]\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	switch cmd := flag.Arg(0); cmd {
	case "", "serve":
		if err := serve(cfg); err != nil {
			log.Fatalf("server error: %v", err)
		}
	case "token":
		if flag.NArg() != 2 {
			flag.Usage()
			os.Exit(2)
		}
		token, err := auth.NewJWTProvider(cfg.JWTSecret, cfg.JWTIssuer).Issue(flag.Arg(1), *tokenTTL)
		if err != nil {
			log.Fatalf("issue token: %v", err)
		}
		fmt.Println(token)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", cmd)
		flag.Usage()
		os.Exit(2)
	}
}

func serve(cfg config.Config) error {
	logger := logging.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Init(ctx, tracing.Config{
		Enabled:     cfg.Tracing.Enabled,
		Exporter:    cfg.Tracing.Exporter,
		Endpoint:    cfg.Tracing.Endpoint,
		Insecure:    cfg.Tracing.Insecure,
		SampleRatio: cfg.Tracing.SampleRatio,
		ServiceName: "pantry",
		Version:     version,
	}, logger.With("component", "tracing"))
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}

	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	logger.Info("database ready", "dialect", db.Dialect())

	srv := server.New(db, auth.NewJWTProvider(cfg.JWTSecret, cfg.JWTIssuer), metrics.New(), server.RateLimit{
		Requests:   cfg.RateLimit.Requests,
		Window:     cfg.RateLimit.Window,
		TrustProxy: cfg.TrustProxyHeaders,
	}, logger)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("pantry listening", "addr", httpServer.Addr, "version", version)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				srv.RateLimiter().Cleanup()
			}
		}
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http: %w", err)
		}
		if err := shutdownTracing(shutdownCtx); err != nil {
			logger.Warn("tracing shutdown failed", "error", err)
		}
		return nil
	})
	return g.Wait()
}
