package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mthorne/subwave/internal/domain/model"
	"github.com/mthorne/subwave/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.AlbumStore = (*AlbumRepo)(nil)

// AlbumRepo is the SQLite implementation of the AlbumStore port.
type AlbumRepo struct {
	db *DB
}

// NewAlbumRepo creates a new AlbumRepo backed by the given DB.
func NewAlbumRepo(db *DB) *AlbumRepo {
	return &AlbumRepo{db: db}
}

const albumColumns = `id, server_id, name, artist_id, cover_art, duration, play_count, created,
	starred, year, genres, music_brainz_id, display_artist, sort_name, explicit_status, persisted`

// albumUpsert overwrites every remote-owned field; the persisted column is
// deliberately missing from the update list so the keep flag survives syncs.
const albumUpsert = `
	INSERT INTO albums (id, server_id, name, artist_id, cover_art, duration, play_count, created,
		starred, year, genres, music_brainz_id, display_artist, sort_name, explicit_status, persisted)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0)
	ON CONFLICT(id, server_id) DO UPDATE SET
		name = excluded.name,
		artist_id = excluded.artist_id,
		cover_art = excluded.cover_art,
		duration = excluded.duration,
		play_count = excluded.play_count,
		created = excluded.created,
		starred = excluded.starred,
		year = excluded.year,
		genres = excluded.genres,
		music_brainz_id = excluded.music_brainz_id,
		display_artist = excluded.display_artist,
		sort_name = excluded.sort_name,
		explicit_status = excluded.explicit_status
`

// ApplySnapshot reconciles one server's albums in a single transaction.
func (r *AlbumRepo) ApplySnapshot(ctx context.Context, serverID string, upserts []model.Album, deleteIDs []string) error {
	return r.db.withTx(ctx, func(tx *sql.Tx) error {
		for _, album := range upserts {
			genres, err := encodeGenres(album.Genres)
			if err != nil {
				return err
			}

			_, err = tx.ExecContext(ctx, albumUpsert,
				album.ID, serverID, album.Name, nullString(album.ArtistID),
				nullString(album.CoverArt), album.Duration, nullInt64(album.PlayCount),
				album.Created.UTC(), nullTime(album.Starred), nullInt(album.Year), genres,
				nullString(album.MusicBrainzID), nullString(album.DisplayArtist),
				nullString(album.SortName), album.ExplicitStatus.Token(),
			)
			if err != nil {
				return fmt.Errorf("upsert album %s/%s: %w", serverID, album.ID, err)
			}
		}

		for _, id := range deleteIDs {
			if _, err := tx.ExecContext(ctx, `DELETE FROM albums WHERE server_id = ? AND id = ?`, serverID, id); err != nil {
				return fmt.Errorf("delete album %s/%s: %w", serverID, id, err)
			}
		}

		return nil
	})
}

// Get retrieves a single album. Returns nil, nil if it does not exist.
func (r *AlbumRepo) Get(ctx context.Context, serverID, id string) (*model.Album, error) {
	const query = `SELECT ` + albumColumns + ` FROM albums WHERE server_id = ? AND id = ?`

	album, err := scanAlbum(r.db.Reader.QueryRowContext(ctx, query, serverID, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get album %s/%s: %w", serverID, id, err)
	}

	return album, nil
}

// ListByServer returns all stored albums for one server, ordered by name.
func (r *AlbumRepo) ListByServer(ctx context.Context, serverID string) ([]model.Album, error) {
	const query = `SELECT ` + albumColumns + ` FROM albums WHERE server_id = ? ORDER BY name`
	return r.queryAlbums(ctx, query, serverID)
}

// ListAll returns all stored albums across all configured servers.
func (r *AlbumRepo) ListAll(ctx context.Context) ([]model.Album, error) {
	const query = `SELECT ` + albumColumns + ` FROM albums ORDER BY name`
	return r.queryAlbums(ctx, query)
}

// ListByArtist returns all albums by one artist in one server.
func (r *AlbumRepo) ListByArtist(ctx context.Context, serverID, artistID string) ([]model.Album, error) {
	const query = `SELECT ` + albumColumns + ` FROM albums WHERE server_id = ? AND artist_id = ? ORDER BY name`
	return r.queryAlbums(ctx, query, serverID, artistID)
}

// SearchByName returns albums in one server whose name contains the term.
func (r *AlbumRepo) SearchByName(ctx context.Context, serverID, name string) ([]model.Album, error) {
	const query = `SELECT ` + albumColumns + ` FROM albums WHERE server_id = ? AND name LIKE ? ORDER BY name`
	return r.queryAlbums(ctx, query, serverID, likePattern(name))
}

// SearchAllByName returns albums across all servers whose name contains the term.
func (r *AlbumRepo) SearchAllByName(ctx context.Context, name string) ([]model.Album, error) {
	const query = `SELECT ` + albumColumns + ` FROM albums WHERE name LIKE ? ORDER BY name`
	return r.queryAlbums(ctx, query, likePattern(name))
}

// CountByServer counts the albums stored for one server.
func (r *AlbumRepo) CountByServer(ctx context.Context, serverID string) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM albums WHERE server_id = ?`, serverID)
}

// CountAll counts the albums stored across all servers.
func (r *AlbumRepo) CountAll(ctx context.Context) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM albums`)
}

// CountByArtist counts the albums by one artist in one server.
func (r *AlbumRepo) CountByArtist(ctx context.Context, serverID, artistID string) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM albums WHERE server_id = ? AND artist_id = ?`, serverID, artistID)
}

// SetPersisted flips the keep flag on one album.
func (r *AlbumRepo) SetPersisted(ctx context.Context, serverID, id string, persisted bool) error {
	const query = `UPDATE albums SET persisted = ? WHERE server_id = ? AND id = ?`

	result, err := r.db.Writer.ExecContext(ctx, query, boolToInt(persisted), serverID, id)
	if err != nil {
		return fmt.Errorf("set persisted on album %s/%s: %w", serverID, id, err)
	}

	return requireRowAffected(result, "album", id)
}

func (r *AlbumRepo) queryAlbums(ctx context.Context, query string, args ...any) ([]model.Album, error) {
	rows, err := r.db.Reader.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query albums: %w", err)
	}
	defer rows.Close()

	albums := []model.Album{}
	for rows.Next() {
		album, err := scanAlbum(rows)
		if err != nil {
			return nil, fmt.Errorf("scan album: %w", err)
		}
		albums = append(albums, *album)
	}

	return albums, rows.Err()
}

func (r *AlbumRepo) count(ctx context.Context, query string, args ...any) (int, error) {
	var n int
	if err := r.db.Reader.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count albums: %w", err)
	}
	return n, nil
}

func scanAlbum(row rowScanner) (*model.Album, error) {
	var (
		album                   model.Album
		artistID, coverArt      sql.NullString
		playCount               sql.NullInt64
		starred                 sql.NullTime
		year                    sql.NullInt64
		genres                  string
		musicBrainzID           sql.NullString
		displayArtist, sortName sql.NullString
		explicitStatus          string
		persisted               int
	)

	err := row.Scan(&album.ID, &album.ServerID, &album.Name, &artistID, &coverArt,
		&album.Duration, &playCount, &album.Created, &starred, &year, &genres,
		&musicBrainzID, &displayArtist, &sortName, &explicitStatus, &persisted)
	if err != nil {
		return nil, err
	}

	album.ArtistID = stringPtr(artistID)
	album.CoverArt = stringPtr(coverArt)
	album.PlayCount = int64Ptr(playCount)
	album.Created = album.Created.UTC()
	album.Starred = timePtr(starred)
	album.Year = intPtr(year)
	album.Genres, err = decodeGenres(genres)
	if err != nil {
		return nil, err
	}
	album.MusicBrainzID = stringPtr(musicBrainzID)
	album.DisplayArtist = stringPtr(displayArtist)
	album.SortName = stringPtr(sortName)
	album.ExplicitStatus = model.ExplicitStatusFromToken(explicitStatus)
	album.Persisted = persisted != 0

	return &album, nil
}
