package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"

	"blog/internal/auth"
	"blog/internal/config"
	"blog/internal/db"
	"blog/internal/handlers"
	"blog/internal/media"
	"blog/internal/store"
)

// initTracing installs an OTLP/HTTP tracer provider. With no endpoint
// configured the global no-op provider stays in place.
func initTracing(ctx context.Context, cfg *config.Config) func(context.Context) error {
	if cfg.OTLPEndpoint == "" {
		return func(context.Context) error { return nil }
	}
	exp, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(cfg.OTLPEndpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		log.Fatalf("otel exporter: %v", err)
	}
	res, err := resource.Merge(resource.Default(), resource.NewSchemaless(
		semconv.ServiceName(cfg.ServiceName),
	))
	if err != nil {
		log.Printf("otel resource: %v", err)
	}
	tp := trace.NewTracerProvider(trace.WithBatcher(exp), trace.WithResource(res))
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{},
	))
	return tp.Shutdown
}

func openSessions(ctx context.Context, cfg *config.Config, st auth.Store) (auth.Store, func()) {
	if cfg.SessionBackend != "redis" {
		return st, func() {}
	}
	rdb, err := auth.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword)
	if err != nil {
		log.Fatalf("redis connect: %v", err)
	}
	return auth.NewRedisStore(rdb), func() { rdb.Close() }
}

func openMedia(ctx context.Context, cfg *config.Config) media.Store {
	if cfg.MediaBackend == "minio" {
		ms, err := media.NewMinioStore(ctx, media.MinioConfig{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
		})
		if err != nil {
			log.Fatalf("minio: %v", err)
		}
		return ms
	}
	ds, err := media.NewDiskStore(cfg.MediaDir)
	if err != nil {
		log.Fatalf("media dir: %v", err)
	}
	return ds
}

func main() {
	cfg := config.Load()
	ctx := context.Background()

	shutdownTracing := initTracing(ctx, cfg)
	defer func() {
		c, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		_ = shutdownTracing(c)
	}()

	// Create data dir for DB
	if err := os.MkdirAll(filepath.Dir(cfg.DatabasePath), 0755); err != nil {
		log.Fatal(err)
	}

	dbc, err := db.Open(cfg.DatabasePath)
	if err != nil {
		log.Fatal(err)
	}
	defer dbc.Close()

	if err := db.Migrate(ctx, dbc); err != nil {
		log.Fatal(err)
	}

	sessionStore, closeSessions := openSessions(ctx, cfg, auth.NewSQLStore(dbc))
	defer closeSessions()
	sessions := auth.NewManager(sessionStore, cfg.SessionTTL)
	sessions.SecureCookies(cfg.SecureCookies)

	h := handlers.New(
		store.New(dbc),
		sessions,
		openMedia(ctx, cfg),
		handlers.NewLoginLimiter(cfg.LoginRate, cfg.LoginBurst),
	)
	h.TrustProxyHeaders(cfg.TrustedProxy)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           otelhttp.NewHandler(h.Routes(), "blog"),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	go func() {
		log.Printf("listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down")
	shutCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
