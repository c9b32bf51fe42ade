package application_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mthorne/subwave/internal/application"
	"github.com/mthorne/subwave/internal/domain/model"
	"github.com/mthorne/subwave/internal/domain/port/driven"
)

func testServer(id string) model.Server {
	return model.Server{
		ID:         id,
		URI:        "https://music.example.com",
		Name:       "Server " + id,
		Credential: model.PasswordCredential{Username: "alice", Password: "sesame"},
	}
}

func artistNamed(id, name string) model.Artist {
	return model.Artist{ID: id, Name: name}
}

type syncFixture struct {
	servers  *fakeServerStore
	artists  *fakeArtistStore
	albums   *fakeAlbumStore
	songs    *fakeSongStore
	notifier *application.LibraryNotifier
	clients  map[string]*fakeClient
	svc      *application.SyncService
}

func newSyncFixture(pageSize int, servers ...model.Server) *syncFixture {
	f := &syncFixture{
		servers:  newFakeServerStore(servers...),
		artists:  newFakeArtistStore(),
		albums:   newFakeAlbumStore(),
		songs:    newFakeSongStore(),
		notifier: application.NewLibraryNotifier(),
		clients:  make(map[string]*fakeClient),
	}
	for _, server := range servers {
		f.clients[server.ID] = &fakeClient{}
	}
	factory := func(server model.Server) driven.LibraryClient {
		return f.clients[server.ID]
	}
	f.svc = application.NewSyncService(f.servers, f.artists, f.albums, f.songs, factory, f.notifier, pageSize)
	return f
}

func TestSyncServer_MergesSnapshot(t *testing.T) {
	ctx := context.Background()
	f := newSyncFixture(10, testServer("srv-1"))

	// Local mirror has a kept artist and a stale one the server no longer has.
	require.NoError(t, f.artists.ApplySnapshot(ctx, "srv-1", []model.Artist{
		artistNamed("ar-1", "Keeper"),
		artistNamed("ar-stale", "Gone Remotely"),
	}, nil))
	require.NoError(t, f.artists.SetPersisted(ctx, "srv-1", "ar-1", true))

	f.clients["srv-1"].artists = []model.Artist{
		artistNamed("ar-1", "Keeper Renamed"),
		artistNamed("ar-2", "New Arrival"),
	}

	changes, cancel := f.notifier.Subscribe()
	defer cancel()

	require.NoError(t, f.svc.SyncServer(ctx, "srv-1"))

	// Stale row deleted, new row added, remote rename applied.
	n, err := f.artists.CountByServer(ctx, "srv-1")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	stale, err := f.artists.Get(ctx, "srv-1", "ar-stale")
	require.NoError(t, err)
	assert.Nil(t, stale)

	kept, err := f.artists.Get(ctx, "srv-1", "ar-1")
	require.NoError(t, err)
	require.NotNil(t, kept)
	assert.Equal(t, "Keeper Renamed", kept.Name)
	assert.True(t, kept.Persisted, "keep flag must survive the sync")

	_, synced := f.servers.syncedAt("srv-1")
	assert.True(t, synced)

	select {
	case serverID := <-changes:
		assert.Equal(t, "srv-1", serverID)
	default:
		t.Fatal("expected a change notification after sync")
	}
}

func TestSyncServer_PaginatesUntilExhausted(t *testing.T) {
	ctx := context.Background()
	f := newSyncFixture(2, testServer("srv-1"))

	client := f.clients["srv-1"]
	for i := 0; i < 5; i++ {
		client.artists = append(client.artists, artistNamed(string(rune('a'+i)), "Artist"))
	}
	client.songs = []model.Song{{ID: "so-1", Title: "Only Song"}}

	require.NoError(t, f.svc.SyncServer(ctx, "srv-1"))

	n, err := f.artists.CountByServer(ctx, "srv-1")
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	n, err = f.songs.CountByServer(ctx, "srv-1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	// Three pages: 2+2+1 artists. Songs finish on the first page, so later
	// pages must request zero songs.
	require.Len(t, client.pages, 3)
	assert.Equal(t, 0, client.pages[0].ArtistOffset)
	assert.Equal(t, 2, client.pages[1].ArtistOffset)
	assert.Equal(t, 4, client.pages[2].ArtistOffset)
	assert.Equal(t, 0, client.pages[1].SongCount)
	assert.Equal(t, 0, client.pages[2].SongCount)
	for _, page := range client.pages {
		assert.Empty(t, page.Query)
	}
}

func TestSyncServer_FetchFailureLeavesMirrorUntouched(t *testing.T) {
	ctx := context.Background()
	f := newSyncFixture(2, testServer("srv-1"))

	require.NoError(t, f.artists.ApplySnapshot(ctx, "srv-1", []model.Artist{
		artistNamed("ar-1", "Existing"),
	}, nil))

	client := f.clients["srv-1"]
	for i := 0; i < 5; i++ {
		client.artists = append(client.artists, artistNamed(string(rune('a'+i)), "Artist"))
	}
	client.failAfter = 2
	client.searchErr = errors.New("connection reset")

	err := f.svc.SyncServer(ctx, "srv-1")

	require.Error(t, err)
	// A failed fetch must not partially apply: the old mirror stays whole.
	n, countErr := f.artists.CountByServer(ctx, "srv-1")
	require.NoError(t, countErr)
	assert.Equal(t, 1, n)
	_, synced := f.servers.syncedAt("srv-1")
	assert.False(t, synced)
}

func TestSyncServer_SecondSyncSameServerRejected(t *testing.T) {
	ctx := context.Background()
	f := newSyncFixture(10, testServer("srv-1"))

	client := f.clients["srv-1"]
	client.unblock = make(chan struct{})
	client.waiting = make(chan struct{}, 1)

	firstDone := make(chan error, 1)
	go func() { firstDone <- f.svc.SyncServer(ctx, "srv-1") }()

	<-client.waiting
	err := f.svc.SyncServer(ctx, "srv-1")
	assert.ErrorIs(t, err, application.ErrSyncInFlight)

	close(client.unblock)
	require.NoError(t, <-firstDone)

	// Once the first sync finishes the server can be synced again.
	require.NoError(t, f.svc.SyncServer(ctx, "srv-1"))
}

func TestSyncServer_UnknownServer(t *testing.T) {
	f := newSyncFixture(10)

	err := f.svc.SyncServer(context.Background(), "nope")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestSyncAll_ServersAreIndependent(t *testing.T) {
	ctx := context.Background()
	f := newSyncFixture(10, testServer("srv-ok"), testServer("srv-bad"))

	f.clients["srv-ok"].artists = []model.Artist{artistNamed("ar-1", "Fine")}
	f.clients["srv-bad"].failAfter = 1
	f.clients["srv-bad"].searchErr = errors.New("boom")

	err := f.svc.SyncAll(ctx)

	require.Error(t, err)
	// The healthy server synced despite the other one failing.
	n, countErr := f.artists.CountByServer(ctx, "srv-ok")
	require.NoError(t, countErr)
	assert.Equal(t, 1, n)
	_, synced := f.servers.syncedAt("srv-ok")
	assert.True(t, synced)
	_, synced = f.servers.syncedAt("srv-bad")
	assert.False(t, synced)
}

func TestSyncAll_NoServers(t *testing.T) {
	f := newSyncFixture(10)

	assert.NoError(t, f.svc.SyncAll(context.Background()))
}

func TestLibraryNotifier_PublishSubscribe(t *testing.T) {
	notifier := application.NewLibraryNotifier()

	a, cancelA := notifier.Subscribe()
	b, cancelB := notifier.Subscribe()
	defer cancelA()

	notifier.Publish("srv-1")

	assert.Equal(t, "srv-1", <-a)
	assert.Equal(t, "srv-1", <-b)

	cancelB()
	cancelB() // idempotent

	notifier.Publish("srv-2")
	assert.Equal(t, "srv-2", <-a)
}

func TestLibraryNotifier_SlowSubscriberNeverBlocks(t *testing.T) {
	notifier := application.NewLibraryNotifier()

	_, cancel := notifier.Subscribe()
	defer cancel()

	done := make(chan struct{})
	go func() {
		// Far more publishes than the channel buffers; must not block.
		for i := 0; i < 100; i++ {
			notifier.Publish("srv-1")
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Publish blocked on a slow subscriber")
	}
}
