package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Server is one configured remote music server. Library entities hang off
// its ID; deleting a server cascades to every artist, album, and song that
// was mirrored from it.
type Server struct {
	ID string
	// URI is the base address of the server: scheme, host, and port only.
	// The /rest path and endpoint names are appended per request, so this
	// should be "https://music.example.net:4533", never ".../rest".
	URI        string
	Name       string
	Credential Credential
	// LastSynced is the start time of the last fully successful sync.
	// Nil means the server has never been synced.
	LastSynced *time.Time
	Color      ServerColor
	Icon       ServerIcon
}

// NewServer mints a Server with a fresh ID and no sync history.
func NewServer(name, uri string, cred Credential, color ServerColor, icon ServerIcon) (Server, error) {
	if name == "" {
		return Server{}, &ConfigurationError{Reason: "server name is empty"}
	}
	if uri == "" {
		return Server{}, &ConfigurationError{Reason: "server URI is empty"}
	}
	if cred == nil {
		return Server{}, &ConfigurationError{Reason: "server has no credential"}
	}
	return Server{
		ID:         uuid.New().String(),
		URI:        uri,
		Name:       name,
		Credential: cred,
		Color:      color,
		Icon:       icon,
	}, nil
}

// String redacts the credential so servers can be logged safely.
func (s Server) String() string {
	return fmt.Sprintf("Server(id=%s, name=%s, uri=%s, credential=%s, lastSynced=%v)",
		s.ID, s.Name, s.URI, describeCredential(s.Credential), s.LastSynced)
}

// ConfigurationError reports an invalid server configuration, such as a
// credential that is neither a username/password pair nor an API key. It is
// raised at construction time and never reaches the network.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "server configuration: " + e.Reason
}
