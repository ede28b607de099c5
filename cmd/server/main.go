// Copyright 2026 The myAdmin Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// @title myAdmin API
// @version 1.0
// @description Multi-tenant bookkeeping API.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	_ "github.com/myadmin/myadmin/docs"
	"github.com/myadmin/myadmin/internal/audit"
	"github.com/myadmin/myadmin/internal/authz"
	"github.com/myadmin/myadmin/internal/cache"
	"github.com/myadmin/myadmin/internal/config"
	"github.com/myadmin/myadmin/internal/events"
	"github.com/myadmin/myadmin/internal/ledger"
	"github.com/myadmin/myadmin/internal/observability/logger"
	"github.com/myadmin/myadmin/internal/observability/metrics"
	"github.com/myadmin/myadmin/internal/observability/tracing"
	"github.com/myadmin/myadmin/internal/oidc"
	"github.com/myadmin/myadmin/internal/store/sqlstore"
	"github.com/myadmin/myadmin/internal/tenant"
	transportHTTP "github.com/myadmin/myadmin/internal/transport/http"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger.InitLogger(logger.Config{
		Level:       cfg.Observability.LogLevel,
		Format:      cfg.Observability.LogFormat,
		ServiceName: cfg.Observability.ServiceName,
	})

	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		if err := runMigrate(cfg); err != nil {
			fmt.Fprintf(os.Stderr, "Migration failed: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	slog.Info("starting myadmin api", slog.String("version", cfg.Observability.ServiceVersion))
	if err := run(cfg); err != nil {
		slog.Error("server exited with error", logger.Error(err))
		os.Exit(1)
	}
	slog.Info("server stopped")
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tracer, err := tracing.New(ctx, tracing.Config{
		Enabled:        cfg.Observability.OTELEnabled,
		ServiceName:    cfg.Observability.ServiceName,
		ServiceVersion: cfg.Observability.ServiceVersion,
		SamplingRate:   cfg.Observability.SamplingRate,
		Endpoint:       cfg.Observability.OTELEndpoint,
	})
	if err != nil {
		slog.Error("failed to initialize tracer", logger.Error(err))
	} else {
		defer func() { _ = tracer.Shutdown(context.Background()) }()
	}

	var (
		ledgerOpts   []ledger.Option
		claimMetrics *metrics.Auth
	)
	meter, err := metrics.New(ctx, metrics.Config{Enabled: cfg.Observability.OTELEnabled}, cfg.Observability.ServiceName)
	if err != nil {
		slog.Error("failed to initialize meter", logger.Error(err))
	} else {
		if instruments, err := meter.LedgerInstruments(); err != nil {
			slog.Error("failed to create ledger instruments", logger.Error(err))
		} else {
			ledgerOpts = append(ledgerOpts, ledger.WithInstruments(instruments))
		}
		if claimMetrics, err = meter.AuthInstruments(); err != nil {
			slog.Error("failed to create auth instruments", logger.Error(err))
		}
	}
	registry := metrics.NewRegistry()
	ledgerOpts = append(ledgerOpts, ledger.WithRegistry(registry))

	db, err := sqlstore.Open(ctx, dbConfig(cfg))
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()
	slog.Info("connected to database", slog.String("driver", cfg.Database.Driver))

	reportCache, closeCache, err := newCache(ctx, cfg.Cache)
	if err != nil {
		return err
	}
	defer closeCache()

	var secrets *tenant.SecretBox
	if cfg.Security.TenantSecretKey != "" {
		secrets, err = tenant.NewSecretBoxFromBase64(cfg.Security.TenantSecretKey)
		if err != nil {
			return fmt.Errorf("invalid TENANT_SECRET_KEY: %w", err)
		}
	} else {
		slog.Warn("TENANT_SECRET_KEY not set, secret tenant config is disabled")
	}

	auditLogger := audit.NewSlogLogger(nil)
	tenantRepo := sqlstore.NewTenantRepository(db)
	tenantService := tenant.NewService(tenantRepo, tenantRepo, tenantRepo, secrets, auditLogger)
	authzService := authz.NewService(tenantService)

	var publisher ledger.Publisher = events.LocalPublisher{Handler: refreshOnImport(reportCache)}
	if cfg.Broker.URL != "" {
		rabbit := events.NewPublisher(cfg.Broker.URL)
		defer func() { _ = rabbit.Close() }()
		publisher = rabbit
	}
	ledgerService := ledger.NewService(sqlstore.NewLedgerRepository(db), reportCache, publisher, auditLogger, ledgerOpts...)

	profiles, err := ledger.LoadProfiles(cfg.Ingest.ProfilesDir)
	if err != nil {
		slog.Warn("no import profiles loaded", slog.String("dir", cfg.Ingest.ProfilesDir), logger.Error(err))
	}

	verifier, err := oidc.NewVerifier(oidc.Config{
		Issuer:     cfg.Auth.Issuer,
		JWKSURL:    cfg.Auth.JWKSURL,
		ClientID:   cfg.Auth.ClientID,
		HMACSecret: cfg.Auth.HMACSecret,
		Leeway:     cfg.Auth.Leeway,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize token verifier: %w", err)
	}

	var frontend fs.FS
	if cfg.Server.FrontendDir != "" {
		frontend = os.DirFS(cfg.Server.FrontendDir)
	}

	proxies, err := transportHTTP.ParseTrustedProxies(cfg.Server.TrustedProxies)
	if err != nil {
		return err
	}

	handler := transportHTTP.NewHandler(transportHTTP.Dependencies{
		Verifier:       verifier,
		Authz:          authzService,
		Tenants:        tenantService,
		Ledger:         ledgerService,
		Cache:          reportCache,
		Profiles:       profiles,
		AuditLogger:    auditLogger,
		SecurityLogger: logger.NewSecurityLogger(nil),
		Metrics:        registry,
		ClaimMetrics:   claimMetrics,
		DB:             db,
		Frontend:       frontend,
		TrustedProxies: proxies,
	})

	rateLimiter := transportHTTP.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
	defer rateLimiter.Stop()

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      transportHTTP.NewRouter(handler, rateLimiter),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("starting http server", logger.Component("server"), logger.Operation("listen"), slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if cfg.Broker.URL != "" && cfg.Broker.ConsumerEnabled {
		consumer := events.NewConsumer(cfg.Broker.URL, refreshOnImport(reportCache))
		consumer.OnOutcome = func(o events.Outcome) {
			registry.EventsConsumed.WithLabelValues(events.QueueLedgerImported, string(o)).Inc()
		}
		g.Go(func() error {
			return consumer.Run(gctx)
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// newCache builds the report cache. A disabled cache is nil, which every
// caller treats as pass-through.
func newCache(ctx context.Context, cfg config.CacheConfig) (*cache.Cache, func(), error) {
	if !cfg.Enabled {
		return nil, func() {}, nil
	}
	if cfg.RedisAddr == "" {
		return cache.New(cache.NewMemoryStore(), cfg.Prefix, cfg.TTL), func() {}, nil
	}
	client, err := cache.NewRedisClient(ctx, cache.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	slog.Info("report cache backed by redis", slog.String("addr", cfg.RedisAddr))
	return cache.New(cache.NewRedisStore(client), cfg.Prefix, cfg.TTL), func() { _ = client.Close() }, nil
}

// refreshOnImport rewarms the tenant's cached datasets after an import.
func refreshOnImport(c *cache.Cache) events.Handler {
	return func(ctx context.Context, ev events.ImportedEvent) error {
		if !c.Enabled() {
			return nil
		}
		slog.InfoContext(ctx, "refreshing cache after import", logger.Tenant(ev.Tenant), logger.Rows(ev.Rows))
		return c.Refresh(ctx, ev.Tenant)
	}
}

func runMigrate(cfg *config.Config) error {
	ctx := context.Background()
	db, err := sqlstore.Open(ctx, dbConfig(cfg))
	if err != nil {
		return err
	}
	defer db.Close()

	applied, err := db.Migrate(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Applied %d migration(s).\n", len(applied))
	return nil
}

func dbConfig(cfg *config.Config) sqlstore.Config {
	return sqlstore.Config{
		Driver:          cfg.Database.Driver,
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		Database:        cfg.Database.Database,
		SSLMode:         cfg.Database.SSLMode,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}
}
