package model

import "time"

// Album mirrors an OpenSubsonic AlbumID3 record. ArtistID is a soft
// reference: the artist row may be missing without breaking anything, the
// remote library itself permits orphans. Song counts are derived from the
// songs table rather than stored.
type Album struct {
	ID       string
	ServerID string
	Name     string
	ArtistID *string
	CoverArt *string
	// Duration is the album length in seconds.
	Duration  int
	PlayCount *int64
	// Created is when the album was created on the server.
	Created time.Time
	Starred *time.Time
	Year    *int
	// Genres is the union of the wire's singular genre field and plural
	// genres array, deduplicated.
	Genres        []string
	MusicBrainzID *string
	// DisplayArtist is the artist name to show, when it differs from the
	// artist row behind ArtistID.
	DisplayArtist  *string
	SortName       *string
	ExplicitStatus ExplicitStatus

	// Persisted marks every song in this album to be kept offline.
	// Local-only state, never sent to the server.
	Persisted bool
}
