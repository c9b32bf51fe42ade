package application

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mthorne/subwave/internal/domain/model"
	"github.com/mthorne/subwave/internal/domain/port/driven"
)

// LibraryService exposes the configuration and persistence operations the
// outer surfaces (CLI, future UI) drive: managing servers, verifying
// connectivity, and flipping keep flags.
type LibraryService struct {
	servers  driven.ServerStore
	artists  driven.ArtistStore
	albums   driven.AlbumStore
	songs    driven.SongStore
	clients  ClientFactory
	notifier *LibraryNotifier
}

// NewLibraryService creates a LibraryService. notifier may be nil.
func NewLibraryService(
	servers driven.ServerStore,
	artists driven.ArtistStore,
	albums driven.AlbumStore,
	songs driven.SongStore,
	clients ClientFactory,
	notifier *LibraryNotifier,
) *LibraryService {
	return &LibraryService{
		servers:  servers,
		artists:  artists,
		albums:   albums,
		songs:    songs,
		clients:  clients,
		notifier: notifier,
	}
}

// AddServer registers a new server configuration and stores it.
func (s *LibraryService) AddServer(ctx context.Context, server model.Server) error {
	if err := s.servers.Add(ctx, server); err != nil {
		return fmt.Errorf("add server %s: %w", server.Name, err)
	}
	slog.Info("server added", "server", server.ID, "name", server.Name)
	return nil
}

// UpdateServer overwrites the stored configuration of an existing server.
func (s *LibraryService) UpdateServer(ctx context.Context, server model.Server) error {
	if err := s.servers.Update(ctx, server); err != nil {
		return fmt.Errorf("update server %s: %w", server.ID, err)
	}
	return nil
}

// DeleteServer removes a server and, through the store's cascade, all of
// its mirrored artists, albums and songs.
func (s *LibraryService) DeleteServer(ctx context.Context, serverID string) error {
	if err := s.servers.Delete(ctx, serverID); err != nil {
		return fmt.Errorf("delete server %s: %w", serverID, err)
	}
	slog.Info("server removed", "server", serverID)
	if s.notifier != nil {
		s.notifier.Publish(serverID)
	}
	return nil
}

// GetServer retrieves one server configuration. Returns nil, nil if it
// does not exist.
func (s *LibraryService) GetServer(ctx context.Context, serverID string) (*model.Server, error) {
	return s.servers.Get(ctx, serverID)
}

// ListServers returns all configured servers.
func (s *LibraryService) ListServers(ctx context.Context) ([]model.Server, error) {
	return s.servers.ListAll(ctx)
}

// VerifyServer pings the server with its stored credentials and reports
// what it is running. Bad credentials and unreachable hosts surface as the
// client's typed errors.
func (s *LibraryService) VerifyServer(ctx context.Context, server model.Server) (driven.ServerInfo, error) {
	info, err := s.clients(server).Ping(ctx)
	if err != nil {
		return driven.ServerInfo{}, fmt.Errorf("verify server %s: %w", server.Name, err)
	}
	return info, nil
}

// SetArtistPersisted marks or unmarks an artist as kept. Marking an artist
// makes every song under it effectively persisted.
func (s *LibraryService) SetArtistPersisted(ctx context.Context, serverID, artistID string, persisted bool) error {
	if err := s.artists.SetPersisted(ctx, serverID, artistID, persisted); err != nil {
		return err
	}
	if s.notifier != nil {
		s.notifier.Publish(serverID)
	}
	return nil
}

// SetAlbumPersisted marks or unmarks an album as kept.
func (s *LibraryService) SetAlbumPersisted(ctx context.Context, serverID, albumID string, persisted bool) error {
	if err := s.albums.SetPersisted(ctx, serverID, albumID, persisted); err != nil {
		return err
	}
	if s.notifier != nil {
		s.notifier.Publish(serverID)
	}
	return nil
}

// SetSongPersisted marks or unmarks a single song as kept.
func (s *LibraryService) SetSongPersisted(ctx context.Context, serverID, songID string, persisted bool) error {
	if err := s.songs.SetPersisted(ctx, serverID, songID, persisted); err != nil {
		return err
	}
	if s.notifier != nil {
		s.notifier.Publish(serverID)
	}
	return nil
}

// SongPersisted reports whether a song should be kept locally, either
// through its own flag or a persisted album or artist.
func (s *LibraryService) SongPersisted(ctx context.Context, serverID, songID string) (bool, error) {
	return s.songs.EffectivePersisted(ctx, serverID, songID)
}

// ListPersistedSongs returns every song across all servers that any
// persistence rule currently selects.
func (s *LibraryService) ListPersistedSongs(ctx context.Context) ([]model.Song, error) {
	return s.songs.ListPersisted(ctx)
}
