package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
	_ "modernc.org/sqlite"

	"github.com/danielhkuo/training-catalogue/cliparse"
	"github.com/danielhkuo/training-catalogue/db"
	"github.com/danielhkuo/training-catalogue/graph"
	"github.com/danielhkuo/training-catalogue/ingest"
	"github.com/danielhkuo/training-catalogue/middleware"
	"github.com/danielhkuo/training-catalogue/router"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// Parse configuration
	cfg, err := cliparse.ParseFlags(os.Args[1:])
	if err != nil {
		slog.Error("Error parsing flags", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("exiting", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg cliparse.Config) error {
	// Connect, waiting for the database to come up
	dbConn, err := db.Open(ctx, cfg.DatabaseType, cfg.DatabaseURL, cfg.DBWait)
	if err != nil {
		return err
	}
	defer dbConn.Close()

	// Create schema (tables)
	if err := db.CreateSchema(dbConn, cfg.DatabaseType); err != nil {
		return err
	}
	slog.Info("Database schema ready", "dialect", string(cfg.DatabaseType))

	store, err := db.NewStore(dbConn, cfg.DatabaseType)
	if err != nil {
		return err
	}
	defer store.Close()

	var drive ingest.DriveReader
	if cfg.SharePointEnabled {
		client, err := newGraphClient(cfg)
		if err != nil {
			return err
		}
		drive = client
		slog.Info("SharePoint sync enabled", "site", graph.SiteHost+graph.SitePath, "library", graph.LibraryName)
	}

	syncer := ingest.NewSyncer(store)

	if cfg.SyncOnce != cliparse.SyncNone {
		return syncOnce(ctx, cfg, syncer, drive)
	}

	// Create router
	mux := router.NewRouter(store, syncer, cfg, drive)

	// Create server
	server := &http.Server{
		Handler:           middleware.CORS(mux),
		Addr:              ":" + strconv.Itoa(cfg.Port),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("Listening", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		slog.Info("Shutting down")
		return server.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	slog.Info("Server closed", "error", err)
	return err
}

func newGraphClient(cfg cliparse.Config) (*graph.Client, error) {
	creds, err := graph.CredentialsFromEnv(os.Getenv)
	if err != nil {
		return nil, err
	}
	cred, err := creds.TokenCredential()
	if err != nil {
		return nil, err
	}
	burst := int(cfg.GraphRateLimit * 2)
	if burst < 1 {
		burst = 1
	}
	return graph.NewClient(cred, graph.WithRateLimit(rate.Limit(cfg.GraphRateLimit), burst)), nil
}

func syncOnce(ctx context.Context, cfg cliparse.Config, syncer *ingest.Syncer, drive ingest.DriveReader) error {
	var src ingest.Source
	switch cfg.SyncOnce {
	case cliparse.SyncFolder:
		src = ingest.FolderSource{Root: cfg.CatalogueDir}
	case cliparse.SyncSharePoint:
		src = ingest.SharePointSource{Client: drive}
	}

	res, err := syncer.Run(ctx, src)
	if err != nil {
		return err
	}
	slog.Info("sync finished",
		"source", res.Source,
		"added", res.Inserted,
		"updated", res.Updated,
		"archived", res.Archived,
		"total", res.ActiveAfter,
	)
	return nil
}
