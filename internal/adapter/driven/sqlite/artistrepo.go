package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mthorne/subwave/internal/domain/model"
	"github.com/mthorne/subwave/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.ArtistStore = (*ArtistRepo)(nil)

// ArtistRepo is the SQLite implementation of the ArtistStore port.
type ArtistRepo struct {
	db *DB
}

// NewArtistRepo creates a new ArtistRepo backed by the given DB.
func NewArtistRepo(db *DB) *ArtistRepo {
	return &ArtistRepo{db: db}
}

const artistColumns = `id, server_id, name, cover_art, artist_image_url, starred, music_brainz_id, sort_name, persisted`

// artistUpsert overwrites every remote-owned field. The persisted column is
// deliberately missing from the update list: the keep flag is user state
// and must survive syncs.
const artistUpsert = `
	INSERT INTO artists (id, server_id, name, cover_art, artist_image_url, starred, music_brainz_id, sort_name, persisted)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0)
	ON CONFLICT(id, server_id) DO UPDATE SET
		name = excluded.name,
		cover_art = excluded.cover_art,
		artist_image_url = excluded.artist_image_url,
		starred = excluded.starred,
		music_brainz_id = excluded.music_brainz_id,
		sort_name = excluded.sort_name
`

// ApplySnapshot reconciles one server's artists in a single transaction.
func (r *ArtistRepo) ApplySnapshot(ctx context.Context, serverID string, upserts []model.Artist, deleteIDs []string) error {
	return r.db.withTx(ctx, func(tx *sql.Tx) error {
		for _, artist := range upserts {
			_, err := tx.ExecContext(ctx, artistUpsert,
				artist.ID, serverID, artist.Name, nullString(artist.CoverArt),
				nullString(artist.ArtistImageURL), nullTime(artist.Starred),
				nullString(artist.MusicBrainzID), nullString(artist.SortName),
			)
			if err != nil {
				return fmt.Errorf("upsert artist %s/%s: %w", serverID, artist.ID, err)
			}
		}

		for _, id := range deleteIDs {
			if _, err := tx.ExecContext(ctx, `DELETE FROM artists WHERE server_id = ? AND id = ?`, serverID, id); err != nil {
				return fmt.Errorf("delete artist %s/%s: %w", serverID, id, err)
			}
		}

		return nil
	})
}

// Get retrieves a single artist. Returns nil, nil if it does not exist.
func (r *ArtistRepo) Get(ctx context.Context, serverID, id string) (*model.Artist, error) {
	const query = `SELECT ` + artistColumns + ` FROM artists WHERE server_id = ? AND id = ?`

	artist, err := scanArtist(r.db.Reader.QueryRowContext(ctx, query, serverID, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get artist %s/%s: %w", serverID, id, err)
	}

	return artist, nil
}

// ListByServer returns all stored artists for one server, ordered by name.
func (r *ArtistRepo) ListByServer(ctx context.Context, serverID string) ([]model.Artist, error) {
	const query = `SELECT ` + artistColumns + ` FROM artists WHERE server_id = ? ORDER BY name`
	return r.queryArtists(ctx, query, serverID)
}

// ListAll returns all stored artists across all configured servers.
func (r *ArtistRepo) ListAll(ctx context.Context) ([]model.Artist, error) {
	const query = `SELECT ` + artistColumns + ` FROM artists ORDER BY name`
	return r.queryArtists(ctx, query)
}

// SearchByName returns artists in one server whose name contains the term.
func (r *ArtistRepo) SearchByName(ctx context.Context, serverID, name string) ([]model.Artist, error) {
	const query = `SELECT ` + artistColumns + ` FROM artists WHERE server_id = ? AND name LIKE ? ORDER BY name`
	return r.queryArtists(ctx, query, serverID, likePattern(name))
}

// SearchAllByName returns artists across all servers whose name contains the term.
func (r *ArtistRepo) SearchAllByName(ctx context.Context, name string) ([]model.Artist, error) {
	const query = `SELECT ` + artistColumns + ` FROM artists WHERE name LIKE ? ORDER BY name`
	return r.queryArtists(ctx, query, likePattern(name))
}

// CountByServer counts the artists stored for one server.
func (r *ArtistRepo) CountByServer(ctx context.Context, serverID string) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM artists WHERE server_id = ?`, serverID)
}

// CountAll counts the artists stored across all servers.
func (r *ArtistRepo) CountAll(ctx context.Context) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM artists`)
}

// SetPersisted flips the keep flag on one artist.
func (r *ArtistRepo) SetPersisted(ctx context.Context, serverID, id string, persisted bool) error {
	const query = `UPDATE artists SET persisted = ? WHERE server_id = ? AND id = ?`

	result, err := r.db.Writer.ExecContext(ctx, query, boolToInt(persisted), serverID, id)
	if err != nil {
		return fmt.Errorf("set persisted on artist %s/%s: %w", serverID, id, err)
	}

	return requireRowAffected(result, "artist", id)
}

func (r *ArtistRepo) queryArtists(ctx context.Context, query string, args ...any) ([]model.Artist, error) {
	rows, err := r.db.Reader.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query artists: %w", err)
	}
	defer rows.Close()

	artists := []model.Artist{}
	for rows.Next() {
		artist, err := scanArtist(rows)
		if err != nil {
			return nil, fmt.Errorf("scan artist: %w", err)
		}
		artists = append(artists, *artist)
	}

	return artists, rows.Err()
}

func (r *ArtistRepo) count(ctx context.Context, query string, args ...any) (int, error) {
	var n int
	if err := r.db.Reader.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count artists: %w", err)
	}
	return n, nil
}

func scanArtist(row rowScanner) (*model.Artist, error) {
	var (
		artist                  model.Artist
		coverArt, imageURL      sql.NullString
		starred                 sql.NullTime
		musicBrainzID, sortName sql.NullString
		persisted               int
	)

	err := row.Scan(&artist.ID, &artist.ServerID, &artist.Name, &coverArt,
		&imageURL, &starred, &musicBrainzID, &sortName, &persisted)
	if err != nil {
		return nil, err
	}

	artist.CoverArt = stringPtr(coverArt)
	artist.ArtistImageURL = stringPtr(imageURL)
	artist.Starred = timePtr(starred)
	artist.MusicBrainzID = stringPtr(musicBrainzID)
	artist.SortName = stringPtr(sortName)
	artist.Persisted = persisted != 0

	return &artist, nil
}

// likePattern wraps a search term for substring matching.
func likePattern(term string) string {
	return "%" + term + "%"
}
