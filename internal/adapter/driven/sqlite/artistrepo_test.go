package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mthorne/subwave/internal/domain/model"
)

func TestArtistRepo_ApplySnapshot_RoundTrip(t *testing.T) {
	db := setupTestDB(t)
	repo := NewArtistRepo(db)
	ctx := context.Background()
	addTestServer(t, db, "srv-1")

	starred := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	artist := model.Artist{
		ID:             "ar-1",
		ServerID:       "srv-1",
		Name:           "The Examples",
		CoverArt:       strp("ar-1-cover"),
		ArtistImageURL: strp("https://img.example.com/ar-1"),
		Starred:        timep(starred),
		MusicBrainzID:  strp("mbid-1"),
		SortName:       strp("Examples, The"),
	}
	require.NoError(t, repo.ApplySnapshot(ctx, "srv-1", []model.Artist{artist}, nil))

	got, err := repo.Get(ctx, "srv-1", "ar-1")

	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, artist, *got)
}

func TestArtistRepo_ApplySnapshot_Idempotent(t *testing.T) {
	db := setupTestDB(t)
	repo := NewArtistRepo(db)
	ctx := context.Background()
	addTestServer(t, db, "srv-1")

	snapshot := []model.Artist{testArtist("ar-1", "srv-1"), testArtist("ar-2", "srv-1")}
	require.NoError(t, repo.ApplySnapshot(ctx, "srv-1", snapshot, nil))
	require.NoError(t, repo.ApplySnapshot(ctx, "srv-1", snapshot, nil))

	n, err := repo.CountByServer(ctx, "srv-1")

	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestArtistRepo_ApplySnapshot_PreservesPersisted(t *testing.T) {
	db := setupTestDB(t)
	repo := NewArtistRepo(db)
	ctx := context.Background()
	addTestServer(t, db, "srv-1")

	require.NoError(t, repo.ApplySnapshot(ctx, "srv-1", []model.Artist{testArtist("ar-1", "srv-1")}, nil))
	require.NoError(t, repo.SetPersisted(ctx, "srv-1", "ar-1", true))

	// Re-syncing the same artist with fresh remote data must not clear the flag.
	renamed := testArtist("ar-1", "srv-1")
	renamed.Name = "Renamed"
	require.NoError(t, repo.ApplySnapshot(ctx, "srv-1", []model.Artist{renamed}, nil))

	got, err := repo.Get(ctx, "srv-1", "ar-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Renamed", got.Name)
	assert.True(t, got.Persisted)
}

func TestArtistRepo_ApplySnapshot_Deletes(t *testing.T) {
	db := setupTestDB(t)
	repo := NewArtistRepo(db)
	ctx := context.Background()
	addTestServer(t, db, "srv-1")
	addTestServer(t, db, "srv-2")

	require.NoError(t, repo.ApplySnapshot(ctx, "srv-1", []model.Artist{testArtist("ar-1", "srv-1")}, nil))
	// The same remote ID on another server must survive srv-1's deletion.
	require.NoError(t, repo.ApplySnapshot(ctx, "srv-2", []model.Artist{testArtist("ar-1", "srv-2")}, nil))

	require.NoError(t, repo.ApplySnapshot(ctx, "srv-1", nil, []string{"ar-1"}))

	got, err := repo.Get(ctx, "srv-1", "ar-1")
	require.NoError(t, err)
	assert.Nil(t, got)

	other, err := repo.Get(ctx, "srv-2", "ar-1")
	require.NoError(t, err)
	assert.NotNil(t, other)
}

func TestArtistRepo_SearchByName(t *testing.T) {
	db := setupTestDB(t)
	repo := NewArtistRepo(db)
	ctx := context.Background()
	addTestServer(t, db, "srv-1")
	addTestServer(t, db, "srv-2")

	mk := func(id, serverID, name string) model.Artist {
		a := testArtist(id, serverID)
		a.Name = name
		return a
	}
	require.NoError(t, repo.ApplySnapshot(ctx, "srv-1", []model.Artist{
		mk("ar-1", "srv-1", "Daft Punk"),
		mk("ar-2", "srv-1", "Punkadelic"),
		mk("ar-3", "srv-1", "Miles Davis"),
	}, nil))
	require.NoError(t, repo.ApplySnapshot(ctx, "srv-2", []model.Artist{
		mk("ar-9", "srv-2", "Punk Floyd"),
	}, nil))

	scoped, err := repo.SearchByName(ctx, "srv-1", "Punk")
	require.NoError(t, err)
	require.Len(t, scoped, 2)
	assert.Equal(t, "Daft Punk", scoped[0].Name)
	assert.Equal(t, "Punkadelic", scoped[1].Name)

	all, err := repo.SearchAllByName(ctx, "Punk")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestArtistRepo_SetPersisted_NotFound(t *testing.T) {
	db := setupTestDB(t)
	repo := NewArtistRepo(db)

	err := repo.SetPersisted(context.Background(), "srv-1", "nope", true)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}
