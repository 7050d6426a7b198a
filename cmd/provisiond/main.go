// provisiond serves the campus account-provisioning HTTP API: one-time
// codes by mail, the registration wizard and login.
//
// Settings come from the environment and an optional .env file. With
// REDIS_ADDR unset every store is in memory and the process keeps all
// pending state itself.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/pflag"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/MrEthical07/provision"
	"github.com/MrEthical07/provision/internal/config"
	"github.com/MrEthical07/provision/internal/httpapi"
	"github.com/MrEthical07/provision/internal/logging"
	otelexport "github.com/MrEthical07/provision/metrics/export/otel"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		envFile  string
		addr     string
		withOTel bool
		lintOnly bool
	)

	flagSet := pflag.NewFlagSet("provisiond", pflag.ContinueOnError)
	flagSet.StringVar(&envFile, "env-file", ".env", "optional dotenv file read before the environment")
	flagSet.StringVar(&addr, "addr", "", "listen address (overrides PORT)")
	flagSet.BoolVar(&withOTel, "otel", false, "register engine metrics with the global OpenTelemetry meter provider")
	flagSet.BoolVar(&lintOnly, "lint", false, "print configuration warnings and exit")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	cfg, err := config.Load(envFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(logging.Config{Level: cfg.LogLevel, Dev: cfg.LogDev || !cfg.Production()})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	engineCfg, err := cfg.Engine()
	if err != nil {
		return fmt.Errorf("engine config: %w", err)
	}

	warnings := engineCfg.Lint()
	for _, w := range warnings {
		logger.Warn("config lint",
			zap.String("code", w.Code),
			zap.String("severity", w.Severity.String()),
			zap.String("message", w.Message),
		)
	}
	if lintOnly {
		for _, w := range warnings {
			fmt.Printf("%-5s %-28s %s\n", w.Severity, w.Code, w.Message)
		}
		return warnings.AsError(provision.LintHigh)
	}

	builder := provision.New().
		WithConfig(engineCfg).
		WithLogger(logger)

	if cfg.AuditEnabled {
		builder = builder.WithAuditSink(provision.NewZapSink(logger))
	}

	var rdb redis.UniversalClient
	if cfg.RedisAddr != "" {
		rdb = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs:    []string{cfg.RedisAddr},
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer func() { _ = rdb.Close() }()

		pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		err := rdb.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			return fmt.Errorf("redis ping %s: %w", cfg.RedisAddr, err)
		}
		builder = builder.WithRedis(rdb)
	}

	engine, err := builder.Build()
	if err != nil {
		return fmt.Errorf("build engine: %w", err)
	}
	defer engine.Close()

	if withOTel {
		exporter, err := otelexport.NewOTelExporter(otel.GetMeterProvider().Meter("provision"), engine)
		if err != nil {
			return fmt.Errorf("otel exporter: %w", err)
		}
		defer func() { _ = exporter.Close() }()
	}

	if addr == "" {
		addr = cfg.Addr()
	}
	srv := &http.Server{
		Addr: addr,
		Handler: httpapi.New(engine, logger.Sugar(), httpapi.Options{
			Version:    cfg.Version,
			TrustProxy: cfg.TrustProxy,
		}),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("listening",
			zap.String("addr", addr),
			zap.String("env", cfg.Env),
			zap.Bool("redis", rdb != nil),
			zap.Bool("mail_dev_log", cfg.MailDevLog),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err, ok := <-serveErr:
		if ok {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("shutdown", zap.Error(err))
	}
	return nil
}
