package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mthorne/subwave/internal/domain/model"
	"github.com/mthorne/subwave/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.SongStore = (*SongRepo)(nil)

// SongRepo is the SQLite implementation of the SongStore port, including
// the effective-persistence queries the download scheduler reads.
type SongRepo struct {
	db *DB
}

// NewSongRepo creates a new SongRepo backed by the given DB.
func NewSongRepo(db *DB) *SongRepo {
	return &SongRepo{db: db}
}

const songColumns = `id, server_id, title, album_id, artist_id, track, cover_art, size,
	content_type, suffix, duration, bit_rate, bit_depth, sampling_rate, channel_count,
	play_count, disc_number, created, starred, comment, genres, music_brainz_id,
	sort_name, explicit_status, persisted`

// songUpsert overwrites every remote-owned field; the persisted column is
// deliberately missing from the update list so the keep flag survives syncs.
const songUpsert = `
	INSERT INTO songs (id, server_id, title, album_id, artist_id, track, cover_art, size,
		content_type, suffix, duration, bit_rate, bit_depth, sampling_rate, channel_count,
		play_count, disc_number, created, starred, comment, genres, music_brainz_id,
		sort_name, explicit_status, persisted)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0)
	ON CONFLICT(id, server_id) DO UPDATE SET
		title = excluded.title,
		album_id = excluded.album_id,
		artist_id = excluded.artist_id,
		track = excluded.track,
		cover_art = excluded.cover_art,
		size = excluded.size,
		content_type = excluded.content_type,
		suffix = excluded.suffix,
		duration = excluded.duration,
		bit_rate = excluded.bit_rate,
		bit_depth = excluded.bit_depth,
		sampling_rate = excluded.sampling_rate,
		channel_count = excluded.channel_count,
		play_count = excluded.play_count,
		disc_number = excluded.disc_number,
		created = excluded.created,
		starred = excluded.starred,
		comment = excluded.comment,
		genres = excluded.genres,
		music_brainz_id = excluded.music_brainz_id,
		sort_name = excluded.sort_name,
		explicit_status = excluded.explicit_status
`

// ApplySnapshot reconciles one server's songs in a single transaction.
func (r *SongRepo) ApplySnapshot(ctx context.Context, serverID string, upserts []model.Song, deleteIDs []string) error {
	return r.db.withTx(ctx, func(tx *sql.Tx) error {
		for _, song := range upserts {
			genres, err := encodeGenres(song.Genres)
			if err != nil {
				return err
			}

			_, err = tx.ExecContext(ctx, songUpsert,
				song.ID, serverID, song.Title, nullString(song.AlbumID),
				nullString(song.ArtistID), nullInt(song.Track), nullString(song.CoverArt),
				song.Size, nullString(song.ContentType), nullString(song.Suffix),
				song.Duration, nullInt(song.BitRate), nullInt(song.BitDepth),
				nullInt(song.SamplingRate), nullInt(song.ChannelCount),
				nullInt64(song.PlayCount), nullInt(song.DiscNumber), song.Created.UTC(),
				nullTime(song.Starred), nullString(song.Comment), genres,
				nullString(song.MusicBrainzID), nullString(song.SortName),
				song.ExplicitStatus.Token(),
			)
			if err != nil {
				return fmt.Errorf("upsert song %s/%s: %w", serverID, song.ID, err)
			}
		}

		for _, id := range deleteIDs {
			if _, err := tx.ExecContext(ctx, `DELETE FROM songs WHERE server_id = ? AND id = ?`, serverID, id); err != nil {
				return fmt.Errorf("delete song %s/%s: %w", serverID, id, err)
			}
		}

		return nil
	})
}

// Get retrieves a single song. Returns nil, nil if it does not exist.
func (r *SongRepo) Get(ctx context.Context, serverID, id string) (*model.Song, error) {
	const query = `SELECT ` + songColumns + ` FROM songs WHERE server_id = ? AND id = ?`

	song, err := scanSong(r.db.Reader.QueryRowContext(ctx, query, serverID, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get song %s/%s: %w", serverID, id, err)
	}

	return song, nil
}

// ListByServer returns all stored songs for one server, ordered by title.
func (r *SongRepo) ListByServer(ctx context.Context, serverID string) ([]model.Song, error) {
	const query = `SELECT ` + songColumns + ` FROM songs WHERE server_id = ? ORDER BY title`
	return r.querySongs(ctx, query, serverID)
}

// ListAll returns all stored songs across all configured servers.
func (r *SongRepo) ListAll(ctx context.Context) ([]model.Song, error) {
	const query = `SELECT ` + songColumns + ` FROM songs ORDER BY title`
	return r.querySongs(ctx, query)
}

// ListByAlbum returns the songs in one album, in track order.
func (r *SongRepo) ListByAlbum(ctx context.Context, serverID, albumID string) ([]model.Song, error) {
	const query = `SELECT ` + songColumns + ` FROM songs
		WHERE server_id = ? AND album_id = ? ORDER BY disc_number, track`
	return r.querySongs(ctx, query, serverID, albumID)
}

// ListByArtist returns the songs by one artist, ordered by title.
func (r *SongRepo) ListByArtist(ctx context.Context, serverID, artistID string) ([]model.Song, error) {
	const query = `SELECT ` + songColumns + ` FROM songs
		WHERE server_id = ? AND artist_id = ? ORDER BY title`
	return r.querySongs(ctx, query, serverID, artistID)
}

// SearchByTitle returns songs in one server whose title contains the term.
func (r *SongRepo) SearchByTitle(ctx context.Context, serverID, title string) ([]model.Song, error) {
	const query = `SELECT ` + songColumns + ` FROM songs WHERE server_id = ? AND title LIKE ? ORDER BY title`
	return r.querySongs(ctx, query, serverID, likePattern(title))
}

// SearchAllByTitle returns songs across all servers whose title contains the term.
func (r *SongRepo) SearchAllByTitle(ctx context.Context, title string) ([]model.Song, error) {
	const query = `SELECT ` + songColumns + ` FROM songs WHERE title LIKE ? ORDER BY title`
	return r.querySongs(ctx, query, likePattern(title))
}

// CountByServer counts the songs stored for one server.
func (r *SongRepo) CountByServer(ctx context.Context, serverID string) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM songs WHERE server_id = ?`, serverID)
}

// CountAll counts the songs stored across all servers.
func (r *SongRepo) CountAll(ctx context.Context) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM songs`)
}

// CountByAlbum counts the songs in one album.
func (r *SongRepo) CountByAlbum(ctx context.Context, serverID, albumID string) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM songs WHERE server_id = ? AND album_id = ?`, serverID, albumID)
}

// CountByArtist counts the songs by one artist.
func (r *SongRepo) CountByArtist(ctx context.Context, serverID, artistID string) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM songs WHERE server_id = ? AND artist_id = ?`, serverID, artistID)
}

// SetPersisted flips the keep flag on one song.
func (r *SongRepo) SetPersisted(ctx context.Context, serverID, id string, persisted bool) error {
	const query = `UPDATE songs SET persisted = ? WHERE server_id = ? AND id = ?`

	result, err := r.db.Writer.ExecContext(ctx, query, boolToInt(persisted), serverID, id)
	if err != nil {
		return fmt.Errorf("set persisted on song %s/%s: %w", serverID, id, err)
	}

	return requireRowAffected(result, "song", id)
}

// effectivePersistedQuery ORs the song's own flag with its album's and its
// artist's. The joins are within one server only; a dangling album_id or
// artist_id simply matches nothing and contributes false.
const effectivePersistedQuery = `
	SELECT EXISTS(
		SELECT 1 FROM songs WHERE server_id = ? AND id = ? AND persisted = 1
	) OR EXISTS(
		SELECT 1 FROM songs s
		JOIN albums a ON a.server_id = s.server_id AND a.id = s.album_id
		WHERE s.server_id = ? AND s.id = ? AND a.persisted = 1
	) OR EXISTS(
		SELECT 1 FROM songs s
		JOIN artists ar ON ar.server_id = s.server_id AND ar.id = s.artist_id
		WHERE s.server_id = ? AND s.id = ? AND ar.persisted = 1
	)
`

// EffectivePersisted reports whether a song must be kept offline, counting
// direct and inherited marks.
func (r *SongRepo) EffectivePersisted(ctx context.Context, serverID, songID string) (bool, error) {
	var kept int
	err := r.db.Reader.QueryRowContext(ctx, effectivePersistedQuery,
		serverID, songID, serverID, songID, serverID, songID).Scan(&kept)
	if err != nil {
		return false, fmt.Errorf("effective persisted for song %s/%s: %w", serverID, songID, err)
	}
	return kept != 0, nil
}

// strictlyTransitivePersistedQuery is the album/artist terms only: it stays
// true even when the song's own flag is cleared, which is what UI uses to
// show that un-keeping a song won't actually release it.
const strictlyTransitivePersistedQuery = `
	SELECT EXISTS(
		SELECT 1 FROM songs s
		JOIN albums a ON a.server_id = s.server_id AND a.id = s.album_id
		WHERE s.server_id = ? AND s.id = ? AND a.persisted = 1
	) OR EXISTS(
		SELECT 1 FROM songs s
		JOIN artists ar ON ar.server_id = s.server_id AND ar.id = s.artist_id
		WHERE s.server_id = ? AND s.id = ? AND ar.persisted = 1
	)
`

// StrictlyTransitivelyPersisted reports whether a song is kept offline by
// its album or artist alone, ignoring its own flag.
func (r *SongRepo) StrictlyTransitivelyPersisted(ctx context.Context, serverID, songID string) (bool, error) {
	var kept int
	err := r.db.Reader.QueryRowContext(ctx, strictlyTransitivePersistedQuery,
		serverID, songID, serverID, songID).Scan(&kept)
	if err != nil {
		return false, fmt.Errorf("transitively persisted for song %s/%s: %w", serverID, songID, err)
	}
	return kept != 0, nil
}

// ListPersisted returns every song across all servers whose effective
// persistence is true: the download scheduler's work list.
func (r *SongRepo) ListPersisted(ctx context.Context) ([]model.Song, error) {
	const query = `
		SELECT DISTINCT s.id, s.server_id, s.title, s.album_id, s.artist_id, s.track, s.cover_art,
			s.size, s.content_type, s.suffix, s.duration, s.bit_rate, s.bit_depth,
			s.sampling_rate, s.channel_count, s.play_count, s.disc_number, s.created,
			s.starred, s.comment, s.genres, s.music_brainz_id, s.sort_name,
			s.explicit_status, s.persisted
		FROM songs s
		LEFT JOIN albums a ON a.server_id = s.server_id AND a.id = s.album_id
		LEFT JOIN artists ar ON ar.server_id = s.server_id AND ar.id = s.artist_id
		WHERE s.persisted = 1 OR a.persisted = 1 OR ar.persisted = 1
		ORDER BY s.server_id, s.title
	`
	return r.querySongs(ctx, query)
}

func (r *SongRepo) querySongs(ctx context.Context, query string, args ...any) ([]model.Song, error) {
	rows, err := r.db.Reader.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query songs: %w", err)
	}
	defer rows.Close()

	songs := []model.Song{}
	for rows.Next() {
		song, err := scanSong(rows)
		if err != nil {
			return nil, fmt.Errorf("scan song: %w", err)
		}
		songs = append(songs, *song)
	}

	return songs, rows.Err()
}

func (r *SongRepo) count(ctx context.Context, query string, args ...any) (int, error) {
	var n int
	if err := r.db.Reader.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count songs: %w", err)
	}
	return n, nil
}

func scanSong(row rowScanner) (*model.Song, error) {
	var (
		song                             model.Song
		albumID, artistID                sql.NullString
		track                            sql.NullInt64
		coverArt, contentType, suffix    sql.NullString
		bitRate, bitDepth                sql.NullInt64
		samplingRate, channelCount       sql.NullInt64
		playCount, discNumber            sql.NullInt64
		starred                          sql.NullTime
		comment, musicBrainzID, sortName sql.NullString
		genres, explicitStatus           string
		persisted                        int
	)

	err := row.Scan(&song.ID, &song.ServerID, &song.Title, &albumID, &artistID,
		&track, &coverArt, &song.Size, &contentType, &suffix, &song.Duration,
		&bitRate, &bitDepth, &samplingRate, &channelCount, &playCount, &discNumber,
		&song.Created, &starred, &comment, &genres, &musicBrainzID, &sortName,
		&explicitStatus, &persisted)
	if err != nil {
		return nil, err
	}

	song.AlbumID = stringPtr(albumID)
	song.ArtistID = stringPtr(artistID)
	song.Track = intPtr(track)
	song.CoverArt = stringPtr(coverArt)
	song.ContentType = stringPtr(contentType)
	song.Suffix = stringPtr(suffix)
	song.BitRate = intPtr(bitRate)
	song.BitDepth = intPtr(bitDepth)
	song.SamplingRate = intPtr(samplingRate)
	song.ChannelCount = intPtr(channelCount)
	song.PlayCount = int64Ptr(playCount)
	song.DiscNumber = intPtr(discNumber)
	song.Created = song.Created.UTC()
	song.Starred = timePtr(starred)
	song.Comment = stringPtr(comment)
	song.Genres, err = decodeGenres(genres)
	if err != nil {
		return nil, err
	}
	song.MusicBrainzID = stringPtr(musicBrainzID)
	song.SortName = stringPtr(sortName)
	song.ExplicitStatus = model.ExplicitStatusFromToken(explicitStatus)
	song.Persisted = persisted != 0

	return &song, nil
}
