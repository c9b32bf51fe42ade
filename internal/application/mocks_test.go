package application_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/mthorne/subwave/internal/domain/model"
	"github.com/mthorne/subwave/internal/domain/port/driven"
)

var errNotFound = errors.New("not found")

// Hand-rolled in-memory fakes for the driven ports. The store fakes keep
// just enough behavior for sync tests: snapshot upserts preserve the
// persisted flag, deletes are scoped to one server.

type fakeServerStore struct {
	mu         sync.Mutex
	servers    map[string]model.Server
	lastSynced map[string]time.Time
	listErr    error
}

var _ driven.ServerStore = (*fakeServerStore)(nil)

func newFakeServerStore(servers ...model.Server) *fakeServerStore {
	s := &fakeServerStore{
		servers:    make(map[string]model.Server),
		lastSynced: make(map[string]time.Time),
	}
	for _, server := range servers {
		s.servers[server.ID] = server
	}
	return s
}

func (s *fakeServerStore) Add(_ context.Context, server model.Server) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.servers[server.ID] = server
	return nil
}

func (s *fakeServerStore) Update(_ context.Context, server model.Server) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.servers[server.ID] = server
	return nil
}

func (s *fakeServerStore) Delete(_ context.Context, serverID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.servers, serverID)
	return nil
}

func (s *fakeServerStore) Get(_ context.Context, serverID string) (*model.Server, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	server, ok := s.servers[serverID]
	if !ok {
		return nil, nil
	}
	return &server, nil
}

func (s *fakeServerStore) ListAll(_ context.Context) ([]model.Server, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	servers := make([]model.Server, 0, len(s.servers))
	for _, server := range s.servers {
		servers = append(servers, server)
	}
	return servers, nil
}

func (s *fakeServerStore) SetLastSynced(_ context.Context, serverID string, t time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSynced[serverID] = t
	return nil
}

func (s *fakeServerStore) syncedAt(serverID string) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.lastSynced[serverID]
	return t, ok
}

type fakeArtistStore struct {
	mu       sync.Mutex
	byServer map[string]map[string]model.Artist
	applyErr error
}

var _ driven.ArtistStore = (*fakeArtistStore)(nil)

func newFakeArtistStore() *fakeArtistStore {
	return &fakeArtistStore{byServer: make(map[string]map[string]model.Artist)}
}

func (s *fakeArtistStore) ApplySnapshot(_ context.Context, serverID string, upserts []model.Artist, deleteIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.applyErr != nil {
		return s.applyErr
	}
	server := s.byServer[serverID]
	if server == nil {
		server = make(map[string]model.Artist)
		s.byServer[serverID] = server
	}
	for _, artist := range upserts {
		if prev, ok := server[artist.ID]; ok {
			artist.Persisted = prev.Persisted
		}
		server[artist.ID] = artist
	}
	for _, id := range deleteIDs {
		delete(server, id)
	}
	return nil
}

func (s *fakeArtistStore) Get(_ context.Context, serverID, id string) (*model.Artist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	artist, ok := s.byServer[serverID][id]
	if !ok {
		return nil, nil
	}
	return &artist, nil
}

func (s *fakeArtistStore) ListByServer(_ context.Context, serverID string) ([]model.Artist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	artists := []model.Artist{}
	for _, artist := range s.byServer[serverID] {
		artists = append(artists, artist)
	}
	return artists, nil
}

func (s *fakeArtistStore) ListAll(context.Context) ([]model.Artist, error) { return nil, nil }
func (s *fakeArtistStore) SearchByName(context.Context, string, string) ([]model.Artist, error) {
	return nil, nil
}
func (s *fakeArtistStore) SearchAllByName(context.Context, string) ([]model.Artist, error) {
	return nil, nil
}
func (s *fakeArtistStore) CountAll(context.Context) (int, error) { return 0, nil }

func (s *fakeArtistStore) CountByServer(_ context.Context, serverID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byServer[serverID]), nil
}

func (s *fakeArtistStore) SetPersisted(_ context.Context, serverID, id string, persisted bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	artist, ok := s.byServer[serverID][id]
	if !ok {
		return errNotFound
	}
	artist.Persisted = persisted
	s.byServer[serverID][id] = artist
	return nil
}

type fakeAlbumStore struct {
	mu       sync.Mutex
	byServer map[string]map[string]model.Album
	applyErr error
}

var _ driven.AlbumStore = (*fakeAlbumStore)(nil)

func newFakeAlbumStore() *fakeAlbumStore {
	return &fakeAlbumStore{byServer: make(map[string]map[string]model.Album)}
}

func (s *fakeAlbumStore) ApplySnapshot(_ context.Context, serverID string, upserts []model.Album, deleteIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.applyErr != nil {
		return s.applyErr
	}
	server := s.byServer[serverID]
	if server == nil {
		server = make(map[string]model.Album)
		s.byServer[serverID] = server
	}
	for _, album := range upserts {
		if prev, ok := server[album.ID]; ok {
			album.Persisted = prev.Persisted
		}
		server[album.ID] = album
	}
	for _, id := range deleteIDs {
		delete(server, id)
	}
	return nil
}

func (s *fakeAlbumStore) Get(_ context.Context, serverID, id string) (*model.Album, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	album, ok := s.byServer[serverID][id]
	if !ok {
		return nil, nil
	}
	return &album, nil
}

func (s *fakeAlbumStore) ListByServer(_ context.Context, serverID string) ([]model.Album, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	albums := []model.Album{}
	for _, album := range s.byServer[serverID] {
		albums = append(albums, album)
	}
	return albums, nil
}

func (s *fakeAlbumStore) ListAll(context.Context) ([]model.Album, error) { return nil, nil }
func (s *fakeAlbumStore) ListByArtist(context.Context, string, string) ([]model.Album, error) {
	return nil, nil
}
func (s *fakeAlbumStore) SearchByName(context.Context, string, string) ([]model.Album, error) {
	return nil, nil
}
func (s *fakeAlbumStore) SearchAllByName(context.Context, string) ([]model.Album, error) {
	return nil, nil
}
func (s *fakeAlbumStore) CountAll(context.Context) (int, error) { return 0, nil }
func (s *fakeAlbumStore) CountByArtist(context.Context, string, string) (int, error) {
	return 0, nil
}

func (s *fakeAlbumStore) CountByServer(_ context.Context, serverID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byServer[serverID]), nil
}

func (s *fakeAlbumStore) SetPersisted(_ context.Context, serverID, id string, persisted bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	album, ok := s.byServer[serverID][id]
	if !ok {
		return errNotFound
	}
	album.Persisted = persisted
	s.byServer[serverID][id] = album
	return nil
}

type fakeSongStore struct {
	mu       sync.Mutex
	byServer map[string]map[string]model.Song
	applyErr error
}

var _ driven.SongStore = (*fakeSongStore)(nil)

func newFakeSongStore() *fakeSongStore {
	return &fakeSongStore{byServer: make(map[string]map[string]model.Song)}
}

func (s *fakeSongStore) ApplySnapshot(_ context.Context, serverID string, upserts []model.Song, deleteIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.applyErr != nil {
		return s.applyErr
	}
	server := s.byServer[serverID]
	if server == nil {
		server = make(map[string]model.Song)
		s.byServer[serverID] = server
	}
	for _, song := range upserts {
		if prev, ok := server[song.ID]; ok {
			song.Persisted = prev.Persisted
		}
		server[song.ID] = song
	}
	for _, id := range deleteIDs {
		delete(server, id)
	}
	return nil
}

func (s *fakeSongStore) Get(_ context.Context, serverID, id string) (*model.Song, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	song, ok := s.byServer[serverID][id]
	if !ok {
		return nil, nil
	}
	return &song, nil
}

func (s *fakeSongStore) ListByServer(_ context.Context, serverID string) ([]model.Song, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	songs := []model.Song{}
	for _, song := range s.byServer[serverID] {
		songs = append(songs, song)
	}
	return songs, nil
}

func (s *fakeSongStore) ListAll(context.Context) ([]model.Song, error) { return nil, nil }
func (s *fakeSongStore) ListByAlbum(context.Context, string, string) ([]model.Song, error) {
	return nil, nil
}
func (s *fakeSongStore) ListByArtist(context.Context, string, string) ([]model.Song, error) {
	return nil, nil
}
func (s *fakeSongStore) SearchByTitle(context.Context, string, string) ([]model.Song, error) {
	return nil, nil
}
func (s *fakeSongStore) SearchAllByTitle(context.Context, string) ([]model.Song, error) {
	return nil, nil
}
func (s *fakeSongStore) CountAll(context.Context) (int, error) { return 0, nil }
func (s *fakeSongStore) CountByAlbum(context.Context, string, string) (int, error) {
	return 0, nil
}
func (s *fakeSongStore) CountByArtist(context.Context, string, string) (int, error) {
	return 0, nil
}

func (s *fakeSongStore) CountByServer(_ context.Context, serverID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byServer[serverID]), nil
}

func (s *fakeSongStore) SetPersisted(_ context.Context, serverID, id string, persisted bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	song, ok := s.byServer[serverID][id]
	if !ok {
		return errNotFound
	}
	song.Persisted = persisted
	s.byServer[serverID][id] = song
	return nil
}

// EffectivePersisted in the fake only answers the song's own flag; the real
// join logic is covered by the sqlite tests.
func (s *fakeSongStore) EffectivePersisted(_ context.Context, serverID, songID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	song, ok := s.byServer[serverID][songID]
	if !ok {
		return false, errNotFound
	}
	return song.Persisted, nil
}

func (s *fakeSongStore) StrictlyTransitivelyPersisted(context.Context, string, string) (bool, error) {
	return false, nil
}

func (s *fakeSongStore) ListPersisted(context.Context) ([]model.Song, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	songs := []model.Song{}
	for _, server := range s.byServer {
		for _, song := range server {
			if song.Persisted {
				songs = append(songs, song)
			}
		}
	}
	return songs, nil
}

// fakeClient serves a fixed library through paginated search3 calls.
type fakeClient struct {
	mu      sync.Mutex
	artists []model.Artist
	albums  []model.Album
	songs   []model.Song

	info      driven.ServerInfo
	pingErr   error
	failAfter int // fail the Nth search call (1-based), 0 means never
	searchErr error
	calls     int
	pages     []driven.SearchPage

	// unblock, when non-nil, makes Search wait until it is closed.
	unblock chan struct{}
	waiting chan struct{} // signalled once a Search call is in flight
}

var _ driven.LibraryClient = (*fakeClient)(nil)

func (c *fakeClient) Ping(context.Context) (driven.ServerInfo, error) {
	if c.pingErr != nil {
		return driven.ServerInfo{}, c.pingErr
	}
	return c.info, nil
}

func (c *fakeClient) Search(ctx context.Context, page driven.SearchPage) (*driven.SearchResult, error) {
	c.mu.Lock()
	c.calls++
	call := c.calls
	c.pages = append(c.pages, page)
	unblock, waiting := c.unblock, c.waiting
	c.mu.Unlock()

	if unblock != nil {
		if waiting != nil {
			waiting <- struct{}{}
		}
		select {
		case <-unblock:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if c.failAfter > 0 && call >= c.failAfter {
		return nil, c.searchErr
	}

	artists := pageOf(c.artists, page.ArtistOffset, page.ArtistCount)
	albums := pageOf(c.albums, page.AlbumOffset, page.AlbumCount)
	songs := pageOf(c.songs, page.SongOffset, page.SongCount)

	return &driven.SearchResult{
		Artists:        artists,
		Albums:         albums,
		Songs:          songs,
		ArtistsFetched: len(artists),
		AlbumsFetched:  len(albums),
		SongsFetched:   len(songs),
	}, nil
}

func pageOf[T any](items []T, offset, count int) []T {
	if count <= 0 || offset >= len(items) {
		return nil
	}
	end := offset + count
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}
