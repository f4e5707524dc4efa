package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rx3lixir/groupdecide/internal/archive"
	"github.com/rx3lixir/groupdecide/internal/catalog"
	"github.com/rx3lixir/groupdecide/internal/config"
	"github.com/rx3lixir/groupdecide/internal/room"
	"github.com/rx3lixir/groupdecide/internal/server"
	"github.com/rx3lixir/groupdecide/internal/storage/postgres"
	"github.com/rx3lixir/groupdecide/internal/storage/s3"
	"github.com/rx3lixir/groupdecide/internal/websocket"
	"github.com/rx3lixir/groupdecide/pkg/logger"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the yaml config file")
	flag.Parse()

	// Initializing and validating config
	cm, err := config.NewConfigManager(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error getting config file: %v\n", err)
		os.Exit(1)
	}
	c := cm.GetConfig()
	if err := c.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// Initializing logger
	log := logger.Must(logger.New(logger.Config{
		Env:              c.GeneralParams.Env,
		Level:            c.GeneralParams.LogLevel,
		AddSource:        c.GeneralParams.Env == "dev",
		SourcePathLength: 2,
	}))

	log.Info(
		"Config loaded successfully!",
		"env", c.GeneralParams.Env,
		"http_server_port", c.HttpServerParams.Port,
		"http_server_address", c.HttpServerParams.Address,
		"archive_enabled", c.ArchiveParams.Enabled,
	)

	// Global context with cancel
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, blobs, pool, err := setupArchive(ctx, c.ArchiveParams, log.Component("archive"))
	if err != nil {
		log.Error("Failed to set up decision archive", "error", err)
		os.Exit(1)
	}
	if pool != nil {
		defer pool.Close()
	}

	var blobStore archive.BlobStore
	var presigner archive.Presigner
	if blobs != nil {
		blobStore, presigner = blobs, blobs
	}

	archiver := archive.NewArchiver(store, blobStore, c.ArchiveParams.QueueSize, c.ArchiveParams.Timeout, log.Component("archiver"))

	wsManager := websocket.NewManager(websocket.Config{
		SendBuffer:     c.WebsocketParams.SendBuffer,
		IdleHubTimeout: c.WebsocketParams.IdleHubTimeout,
		AllowedOrigins: c.WebsocketParams.AllowedOrigins,
	}, log.Component("websocket"))

	registry := room.NewRegistry(room.Publishers{wsManager, archiver}, log.Component("room"), room.Options{
		CommandBuffer: c.RoomParams.CommandBuffer,
		EmptyGrace:    c.RoomParams.EmptyGrace,
		IdleTTL:       c.RoomParams.IdleTTL,
	})

	var workers sync.WaitGroup
	workers.Add(2)
	go func() {
		defer workers.Done()
		archiver.Run(ctx)
	}()
	go func() {
		defer workers.Done()
		registry.RunJanitor(ctx, c.RoomParams.SweepInterval)
	}()

	cat := catalog.New()
	router := server.NewRouter(server.RouterConfig{
		RoomHandler:    room.NewHandler(registry, cat, log.Component("room_http"), c.RoomParams.CommandTimeout),
		ArchiveHandler: archive.NewHandler(store, registry, presigner, log.Component("archive_http"), c.ArchiveParams.Timeout),
		CatalogHandler: catalog.NewHandler(cat, log.Component("catalog_http")),
		WSHandler:      websocket.NewHandler(wsManager, registry, log.Component("websocket_http")),
		Log:            log.Logger,
	})

	// Creates HTTP server
	HTTPserver := server.New(c.HttpServerParams.GetAddress(), router, server.Timeouts{
		Read:  c.HttpServerParams.ReadTimeout,
		Write: c.HttpServerParams.WriteTimeout,
		Idle:  c.HttpServerParams.IdleTimeout,
	}, log.Logger)

	serverErrors := make(chan error, 1)

	go func() {
		serverErrors <- HTTPserver.Start()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we recieve a signal or error
	exitCode := 0
	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Error("Server error", "error", err)
			exitCode = 1
		}

	case sig := <-shutdown:
		log.Info("Shutdown signal received", "signal", sig)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	log.Info("Shutting down HTTP server...")
	if err := HTTPserver.Shutdown(shutdownCtx); err != nil {
		log.Error("Graceful shutdown failed", "error", err)
	}

	// Rooms first, so their last decisions still reach the archiver
	registry.Shutdown()
	wsManager.Shutdown(shutdownCtx)
	cancel()
	workers.Wait()

	if exitCode != 0 {
		os.Exit(exitCode)
	}
}

// setupArchive picks the decision store. Without an enabled archive, decisions
// are kept in process only.
func setupArchive(ctx context.Context, p config.ArchiveParams, log *slog.Logger) (archive.Store, *archive.MinIOStore, *pgxpool.Pool, error) {
	if !p.Enabled {
		log.Info("archive disabled, keeping decision history in memory")
		return archive.NewMemoryStore(), nil, nil, nil
	}

	// Creating database connection and init Postgres
	pool, err := postgres.NewPool(ctx, p.DB.GetDSN())
	if err != nil {
		return nil, nil, nil, fmt.Errorf("postgres %s: %w", p.DB.Name, err)
	}

	pgStore := archive.NewPostgresStore(pool)
	if err := pgStore.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, nil, nil, err
	}
	log.Info("Database connection established", "db", p.DB.Name, "host", p.DB.Host)

	client, err := s3.Connect(ctx, s3.Config{
		Endpoint:        p.S3.Endpoint,
		AccessKeyID:     p.S3.AccessKeyID,
		SecretAccessKey: p.S3.SecretAccessKey,
		UseSSL:          p.S3.UseSSL,
		BucketName:      p.S3.BucketName,
	})
	if err != nil {
		pool.Close()
		return nil, nil, nil, fmt.Errorf("minio %s: %w", p.S3.Endpoint, err)
	}
	log.Info("Object storage ready", "endpoint", p.S3.Endpoint, "bucket", p.S3.BucketName)

	return pgStore, archive.NewMinIOStore(client, p.S3.BucketName), pool, nil
}
