package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	sqliteadapter "github.com/mthorne/subwave/internal/adapter/driven/sqlite"
	"github.com/mthorne/subwave/internal/adapter/driven/subsonic"
	"github.com/mthorne/subwave/internal/application"
	"github.com/mthorne/subwave/internal/config"
	"github.com/mthorne/subwave/internal/domain/model"
	"github.com/mthorne/subwave/internal/domain/port/driven"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load configuration (fail fast on malformed env vars).
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.Info("config loaded",
		"db_path", cfg.DBPath,
		"sync_interval", cfg.SyncInterval,
		"http_timeout", cfg.HTTPTimeout,
		"page_size", cfg.PageSize,
	)

	// 2. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Open database (dual reader/writer with WAL mode).
	db, err := sqliteadapter.NewDB(cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()
	slog.Info("database opened", "path", cfg.DBPath)

	// 4. Run migrations on writer connection.
	if err := sqliteadapter.RunMigrations(db.Writer); err != nil {
		return err
	}
	slog.Info("migrations complete")

	// 5. Wire adapters.
	serverStore := sqliteadapter.NewServerRepo(db)
	artistStore := sqliteadapter.NewArtistRepo(db)
	albumStore := sqliteadapter.NewAlbumRepo(db)
	songStore := sqliteadapter.NewSongRepo(db)

	// 6. Protocol clients are minted per server; every server shares the
	// timeout and rate-limit settings.
	clients := application.ClientFactory(func(server model.Server) driven.LibraryClient {
		return subsonic.NewClient(server,
			subsonic.WithTimeout(cfg.HTTPTimeout),
			subsonic.WithRateLimit(cfg.RequestsPerSecond),
		)
	})

	// 7. Create services.
	notifier := application.NewLibraryNotifier()
	syncSvc := application.NewSyncService(serverStore, artistStore, albumStore, songStore, clients, notifier, cfg.PageSize)
	librarySvc := application.NewLibraryService(serverStore, artistStore, albumStore, songStore, clients, notifier)

	// 8. Log coarse change notifications. A real download scheduler would
	// subscribe here instead.
	go func() {
		changes, cancel := notifier.Subscribe()
		defer cancel()
		for {
			select {
			case <-ctx.Done():
				return
			case serverID := <-changes:
				songs, err := librarySvc.ListPersistedSongs(ctx)
				if err != nil {
					slog.Error("listing persisted songs", "error", err)
					continue
				}
				slog.Info("library changed", "server", serverID, "persisted_songs", len(songs))
			}
		}
	}()

	// 9. Sync once at startup, then on the configured interval.
	if err := syncSvc.SyncAll(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("initial sync failed", "error", err)
	}

	ticker := time.NewTicker(cfg.SyncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("shutting down")
			return nil
		case <-ticker.C:
			if err := syncSvc.SyncAll(ctx); err != nil && !errors.Is(err, context.Canceled) {
				slog.Error("scheduled sync failed", "error", err)
			}
		}
	}
}
