// Package application contains use-case orchestration services: syncing
// the local mirror against remote servers and the configuration-facing
// library operations.
package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mthorne/subwave/internal/domain/model"
	"github.com/mthorne/subwave/internal/domain/port/driven"
)

// ErrSyncInFlight is returned when a sync is requested for a server that is
// already being synced. Merges are all-or-nothing per server; two
// interleaved syncs could tear that guarantee, so the second one loses.
var ErrSyncInFlight = errors.New("sync already in flight for this server")

// ClientFactory builds a protocol client for one configured server.
type ClientFactory func(server model.Server) driven.LibraryClient

// SyncService brings the local mirror for each server into agreement with
// a freshly fetched remote snapshot, without losing user-authored
// persisted flags.
type SyncService struct {
	servers  driven.ServerStore
	artists  driven.ArtistStore
	albums   driven.AlbumStore
	songs    driven.SongStore
	clients  ClientFactory
	notifier *LibraryNotifier
	pageSize int

	mu       sync.Mutex
	inFlight map[string]bool
}

// NewSyncService creates a SyncService. pageSize bounds each search3 page;
// notifier may be nil when nobody listens for changes.
func NewSyncService(
	servers driven.ServerStore,
	artists driven.ArtistStore,
	albums driven.AlbumStore,
	songs driven.SongStore,
	clients ClientFactory,
	notifier *LibraryNotifier,
	pageSize int,
) *SyncService {
	if pageSize <= 0 {
		pageSize = 500
	}
	return &SyncService{
		servers:  servers,
		artists:  artists,
		albums:   albums,
		songs:    songs,
		clients:  clients,
		notifier: notifier,
		pageSize: pageSize,
		inFlight: make(map[string]bool),
	}
}

// SyncAll syncs every configured server, one goroutine per server. Servers
// are independent: one failing leaves the others untouched. The returned
// error is the first per-server failure, after all servers have finished.
func (s *SyncService) SyncAll(ctx context.Context) error {
	servers, err := s.servers.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("list servers: %w", err)
	}

	var g errgroup.Group
	for _, server := range servers {
		server := server
		g.Go(func() error {
			if err := s.syncServer(ctx, server); err != nil {
				slog.Error("server sync failed", "server", server.ID, "name", server.Name, "error", err)
				return err
			}
			return nil
		})
	}

	return g.Wait()
}

// SyncServer syncs a single server by ID.
func (s *SyncService) SyncServer(ctx context.Context, serverID string) error {
	server, err := s.servers.Get(ctx, serverID)
	if err != nil {
		return fmt.Errorf("load server %s: %w", serverID, err)
	}
	if server == nil {
		return fmt.Errorf("server %s not found", serverID)
	}

	return s.syncServer(ctx, *server)
}

func (s *SyncService) syncServer(ctx context.Context, server model.Server) error {
	if !s.acquire(server.ID) {
		return ErrSyncInFlight
	}
	defer s.release(server.ID)

	start := time.Now().UTC()
	slog.Info("sync started", "server", server.ID, "name", server.Name)

	// Fetch the whole remote snapshot before touching the store. Any
	// transport, HTTP, or protocol failure aborts here, leaving the prior
	// mirror and lastSynced untouched.
	snapshot, err := s.fetchLibrary(ctx, server)
	if err != nil {
		return fmt.Errorf("fetch library from %s: %w", server.Name, err)
	}

	if err := reconcileKind(ctx, server.ID, snapshot.artists, s.artists,
		func(a model.Artist) string { return a.ID },
		s.listArtistIDs); err != nil {
		return fmt.Errorf("reconcile artists: %w", err)
	}
	if err := reconcileKind(ctx, server.ID, snapshot.albums, s.albums,
		func(a model.Album) string { return a.ID },
		s.listAlbumIDs); err != nil {
		return fmt.Errorf("reconcile albums: %w", err)
	}
	if err := reconcileKind(ctx, server.ID, snapshot.songs, s.songs,
		func(sg model.Song) string { return sg.ID },
		s.listSongIDs); err != nil {
		return fmt.Errorf("reconcile songs: %w", err)
	}

	if err := s.servers.SetLastSynced(ctx, server.ID, start); err != nil {
		return fmt.Errorf("update last synced: %w", err)
	}

	if s.notifier != nil {
		s.notifier.Publish(server.ID)
	}

	slog.Info("sync complete",
		"server", server.ID,
		"name", server.Name,
		"artists", len(snapshot.artists),
		"albums", len(snapshot.albums),
		"songs", len(snapshot.songs),
		"duration", time.Since(start).Round(time.Millisecond),
	)

	return nil
}

func (s *SyncService) acquire(serverID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight[serverID] {
		return false
	}
	s.inFlight[serverID] = true
	return true
}

func (s *SyncService) release(serverID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, serverID)
}

type librarySnapshot struct {
	artists []model.Artist
	albums  []model.Album
	songs   []model.Song
}

// fetchLibrary pages search3 with an empty query until every kind is
// exhausted. A kind is done when the server returns fewer raw records than
// asked for; offsets advance by the raw count, so skipped malformed records
// do not shift the window. Malformed records are logged and dropped, never
// fatal.
func (s *SyncService) fetchLibrary(ctx context.Context, server model.Server) (*librarySnapshot, error) {
	client := s.clients(server)
	snapshot := &librarySnapshot{}

	var artistOffset, albumOffset, songOffset int
	var artistsDone, albumsDone, songsDone bool

	for !(artistsDone && albumsDone && songsDone) {
		page := driven.SearchPage{
			ArtistOffset: artistOffset,
			AlbumOffset:  albumOffset,
			SongOffset:   songOffset,
		}
		if !artistsDone {
			page.ArtistCount = s.pageSize
		}
		if !albumsDone {
			page.AlbumCount = s.pageSize
		}
		if !songsDone {
			page.SongCount = s.pageSize
		}

		result, err := client.Search(ctx, page)
		if err != nil {
			return nil, err
		}

		for _, skipErr := range result.Skipped {
			slog.Warn("skipping malformed entity", "server", server.ID, "error", skipErr)
		}

		snapshot.artists = append(snapshot.artists, result.Artists...)
		snapshot.albums = append(snapshot.albums, result.Albums...)
		snapshot.songs = append(snapshot.songs, result.Songs...)

		artistOffset += result.ArtistsFetched
		albumOffset += result.AlbumsFetched
		songOffset += result.SongsFetched

		artistsDone = artistsDone || result.ArtistsFetched < page.ArtistCount || page.ArtistCount == 0
		albumsDone = albumsDone || result.AlbumsFetched < page.AlbumCount || page.AlbumCount == 0
		songsDone = songsDone || result.SongsFetched < page.SongCount || page.SongCount == 0
	}

	return snapshot, nil
}

// kindStore is the slice of a store port that reconciliation needs.
type kindStore[T any] interface {
	ApplySnapshot(ctx context.Context, serverID string, upserts []T, deleteIDs []string) error
}

// reconcileKind merges one kind's remote snapshot into the store: every
// remote entity is upserted (the store preserves local persisted flags),
// and every local entity missing from the snapshot is deleted. The store
// applies the whole merge atomically.
func reconcileKind[T any](
	ctx context.Context,
	serverID string,
	remote []T,
	store kindStore[T],
	idOf func(T) string,
	listLocalIDs func(ctx context.Context, serverID string) ([]string, error),
) error {
	localIDs, err := listLocalIDs(ctx, serverID)
	if err != nil {
		return err
	}

	remoteIDs := make(map[string]bool, len(remote))
	for _, entity := range remote {
		remoteIDs[idOf(entity)] = true
	}

	var deleteIDs []string
	for _, id := range localIDs {
		if !remoteIDs[id] {
			deleteIDs = append(deleteIDs, id)
		}
	}

	return store.ApplySnapshot(ctx, serverID, remote, deleteIDs)
}

func (s *SyncService) listArtistIDs(ctx context.Context, serverID string) ([]string, error) {
	artists, err := s.artists.ListByServer(ctx, serverID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(artists))
	for i, a := range artists {
		ids[i] = a.ID
	}
	return ids, nil
}

func (s *SyncService) listAlbumIDs(ctx context.Context, serverID string) ([]string, error) {
	albums, err := s.albums.ListByServer(ctx, serverID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(albums))
	for i, a := range albums {
		ids[i] = a.ID
	}
	return ids, nil
}

func (s *SyncService) listSongIDs(ctx context.Context, serverID string) ([]string, error) {
	songs, err := s.songs.ListByServer(ctx, serverID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(songs))
	for i, sg := range songs {
		ids[i] = sg.ID
	}
	return ids, nil
}
