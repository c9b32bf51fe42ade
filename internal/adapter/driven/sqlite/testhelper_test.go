package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mthorne/subwave/internal/domain/model"
)

// setupTestDB creates a named shared in-memory SQLite database for testing.
// Writer and reader connections share the same in-memory database via cache=shared.
// A unique name derived from t.Name() ensures isolation between parallel tests.
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	// Percent-encode the test name so it's a safe SQLite URI filename component
	// and cannot be misinterpreted as query parameters in the "file:%s?..." DSN.
	safeName := url.PathEscape(t.Name())
	// WAL mode is not applicable to in-memory databases; omit journal_mode pragma.
	dsn := fmt.Sprintf(
		"file:%s?mode=memory&cache=shared&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(ON)&_pragma=cache_size(-64000)",
		safeName,
	)

	writer, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("create test db writer: %v", err)
	}
	writer.SetMaxOpenConns(1)
	if err := writer.PingContext(context.Background()); err != nil {
		_ = writer.Close()
		t.Fatalf("ping test db writer: %v", err)
	}

	reader, err := sql.Open("sqlite", dsn)
	if err != nil {
		_ = writer.Close()
		t.Fatalf("create test db reader: %v", err)
	}
	reader.SetMaxOpenConns(4)
	if err := reader.PingContext(context.Background()); err != nil {
		_ = reader.Close()
		_ = writer.Close()
		t.Fatalf("ping test db reader: %v", err)
	}

	db := &DB{Writer: writer, Reader: reader, path: dsn}

	if err := RunMigrations(db.Writer); err != nil {
		_ = db.Close()
		t.Fatalf("run migrations: %v", err)
	}

	t.Cleanup(func() { _ = db.Close() })

	return db
}

// addTestServer inserts a server row so library rows can reference it.
func addTestServer(t *testing.T, db *DB, id string) {
	t.Helper()
	repo := NewServerRepo(db)
	err := repo.Add(context.Background(), model.Server{
		ID:         id,
		URI:        "https://music.example.com",
		Name:       "Server " + id,
		Credential: model.PasswordCredential{Username: "alice", Password: "sesame"},
		Color:      model.ColorBlue,
		Icon:       model.IconNone,
	})
	require.NoError(t, err)
}

func strp(s string) *string        { return &s }
func intp(n int) *int              { return &n }
func timep(t time.Time) *time.Time { return &t }

func testArtist(id, serverID string) model.Artist {
	return model.Artist{
		ID:       id,
		ServerID: serverID,
		Name:     "Artist " + id,
	}
}

func testAlbum(id, serverID string, artistID *string) model.Album {
	return model.Album{
		ID:       id,
		ServerID: serverID,
		Name:     "Album " + id,
		ArtistID: artistID,
		Duration: 2400,
		Created:  time.Date(2023, 6, 15, 8, 30, 0, 0, time.UTC),
	}
}

func testSong(id, serverID string, albumID, artistID *string) model.Song {
	return model.Song{
		ID:       id,
		ServerID: serverID,
		Title:    "Song " + id,
		AlbumID:  albumID,
		ArtistID: artistID,
		Size:     1024,
		Duration: 215,
		Created:  time.Date(2023, 6, 15, 8, 30, 0, 0, time.UTC),
	}
}
