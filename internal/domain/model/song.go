package model

import "time"

// Song mirrors the song-shaped subset of an OpenSubsonic Child record.
// AlbumID and ArtistID are soft references within the same server; either
// may dangle. All media details describe the file as it exists in the
// remote library, before any transcoding.
type Song struct {
	ID       string
	ServerID string
	Title    string
	AlbumID  *string
	ArtistID *string
	Track    *int
	CoverArt *string
	// Size is the file size in bytes.
	Size        int64
	ContentType *string
	Suffix      *string
	// Duration is the song length in seconds.
	Duration     int
	BitRate      *int
	BitDepth     *int
	SamplingRate *int
	ChannelCount *int
	PlayCount    *int64
	DiscNumber   *int
	// Created is when the song was created on the server.
	Created time.Time
	Starred *time.Time
	Comment *string
	// Genres is the union of the wire's singular genre field and plural
	// genres array, deduplicated.
	Genres         []string
	MusicBrainzID  *string
	SortName       *string
	ExplicitStatus ExplicitStatus

	// Persisted marks this single song to be kept offline. A song is also
	// kept when its album or artist is persisted; see the store's
	// EffectivePersisted query. Local-only state.
	Persisted bool
}
