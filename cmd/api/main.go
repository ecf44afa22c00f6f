package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"verdict/api/internal/app"
	"verdict/api/internal/authpw"
	"verdict/api/internal/config"
	"verdict/api/internal/contentlog"
	"verdict/api/internal/export"
	"verdict/api/internal/lock"
	"verdict/api/internal/media"
	"verdict/api/internal/policy"
	"verdict/api/internal/search"
	"verdict/api/internal/store"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	var dataStore app.DataStore
	var policyStore policy.Store
	if strings.TrimSpace(cfg.DatabaseURL) != "" {
		db, err := store.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("database connection failed: %v", err)
		}
		defer db.Close()
		if err := store.ApplyMigrations(ctx, db, cfg.MigrationsDir); err != nil {
			log.Fatalf("migrations failed: %v", err)
		}
		pg := store.NewPostgresStore(db)
		dataStore = pg
		policyStore = pg
	} else {
		log.Printf("DATABASE_URL not set, using in-memory store")
		mem := store.NewMemoryStore()
		dataStore = mem
		policyStore = mem
	}

	var locker lock.Locker
	if strings.TrimSpace(cfg.RedisURL) != "" {
		redisLocker, err := lock.NewRedisLocker(cfg.RedisURL, cfg.LockTTL)
		if err != nil {
			log.Fatalf("redis connection failed: %v", err)
		}
		defer redisLocker.Close()
		locker = redisLocker
	} else {
		log.Printf("REDIS_URL not set, using in-memory locks")
		locker = lock.NewMemoryLocker(cfg.LockTTL)
	}

	var meiliClient *search.Meili
	if strings.TrimSpace(cfg.MeiliURL) != "" {
		meiliClient = search.NewMeili(cfg.MeiliURL, cfg.MeiliMasterKey)
		defer meiliClient.Close()
	}
	pipeline := search.NewPipeline(meiliClient)

	var contentLog policy.ContentLog
	if strings.TrimSpace(cfg.ContentDir) != "" {
		if err := os.MkdirAll(cfg.ContentDir, 0o755); err != nil {
			log.Fatalf("failed to create content dir: %v", err)
		}
		contentLog = contentlog.New(cfg.ContentDir)
	}

	var mediaService app.MediaResolver
	if strings.TrimSpace(cfg.MinioEndpoint) != "" {
		svc, err := media.New(ctx, cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL)
		if err != nil {
			log.Fatalf("object storage connection failed: %v", err)
		}
		mediaService = svc
	}

	service := app.New(cfg, app.Services{
		Store:  dataStore,
		Locker: locker,
		Policy: policy.NewManager(policyStore, pipeline, contentLog),
		Auth:   authpw.NewService(dataStore),
		Export: export.NewService(dataStore),
		Media:  mediaService,
		Search: meiliClient,
	})
	if err := service.Bootstrap(ctx); err != nil {
		log.Printf("WARNING: bootstrap error (will retry on next restart): %v", err)
	}

	httpServer := app.NewHTTPServer(service, cfg.CORSOrigin)
	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("Verdict API listening on %s", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
