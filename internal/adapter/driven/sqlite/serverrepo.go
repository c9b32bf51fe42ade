package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/mthorne/subwave/internal/domain/model"
	"github.com/mthorne/subwave/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.ServerStore = (*ServerRepo)(nil)

// ServerRepo is the SQLite implementation of the ServerStore port.
type ServerRepo struct {
	db *DB
}

// NewServerRepo creates a new ServerRepo backed by the given DB.
func NewServerRepo(db *DB) *ServerRepo {
	return &ServerRepo{db: db}
}

const serverColumns = `id, uri, name, username, password, api_key, last_synced, color, icon`

// Add inserts a server configuration.
func (r *ServerRepo) Add(ctx context.Context, server model.Server) error {
	username, password, apiKey, err := credentialColumns(server.Credential)
	if err != nil {
		return err
	}

	const query = `
		INSERT INTO servers (id, uri, name, username, password, api_key, last_synced, color, icon)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = r.db.Writer.ExecContext(ctx, query,
		server.ID, server.URI, server.Name, username, password, apiKey,
		nullTime(server.LastSynced), string(server.Color), string(server.Icon),
	)
	if err != nil {
		return fmt.Errorf("add server %s: %w", server.ID, err)
	}

	return nil
}

// Update overwrites a server's configuration. The last-synced timestamp is
// owned by the sync engine and only moves via SetLastSynced.
func (r *ServerRepo) Update(ctx context.Context, server model.Server) error {
	username, password, apiKey, err := credentialColumns(server.Credential)
	if err != nil {
		return err
	}

	const query = `
		UPDATE servers
		SET uri = ?, name = ?, username = ?, password = ?, api_key = ?, color = ?, icon = ?
		WHERE id = ?
	`
	result, err := r.db.Writer.ExecContext(ctx, query,
		server.URI, server.Name, username, password, apiKey,
		string(server.Color), string(server.Icon), server.ID,
	)
	if err != nil {
		return fmt.Errorf("update server %s: %w", server.ID, err)
	}

	return requireRowAffected(result, "server", server.ID)
}

// Delete removes a server. The library tables reference servers with
// ON DELETE CASCADE, so all mirrored rows for the server go with it.
func (r *ServerRepo) Delete(ctx context.Context, serverID string) error {
	result, err := r.db.Writer.ExecContext(ctx, `DELETE FROM servers WHERE id = ?`, serverID)
	if err != nil {
		return fmt.Errorf("delete server %s: %w", serverID, err)
	}

	return requireRowAffected(result, "server", serverID)
}

// Get retrieves a single server. Returns nil, nil if it does not exist.
func (r *ServerRepo) Get(ctx context.Context, serverID string) (*model.Server, error) {
	const query = `SELECT ` + serverColumns + ` FROM servers WHERE id = ?`

	server, err := scanServer(r.db.Reader.QueryRowContext(ctx, query, serverID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get server %s: %w", serverID, err)
	}

	return server, nil
}

// ListAll returns all configured servers ordered by name.
func (r *ServerRepo) ListAll(ctx context.Context) ([]model.Server, error) {
	const query = `SELECT ` + serverColumns + ` FROM servers ORDER BY name`

	rows, err := r.db.Reader.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list servers: %w", err)
	}
	defer rows.Close()

	servers := []model.Server{}
	for rows.Next() {
		server, err := scanServer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan server: %w", err)
		}
		servers = append(servers, *server)
	}

	return servers, rows.Err()
}

// SetLastSynced records the start time of a fully successful sync.
func (r *ServerRepo) SetLastSynced(ctx context.Context, serverID string, t time.Time) error {
	const query = `UPDATE servers SET last_synced = ? WHERE id = ?`

	result, err := r.db.Writer.ExecContext(ctx, query, t.UTC(), serverID)
	if err != nil {
		return fmt.Errorf("set last synced for server %s: %w", serverID, err)
	}

	return requireRowAffected(result, "server", serverID)
}

// credentialColumns flattens the credential variant into the three nullable
// server columns, where the empty string means absent.
func credentialColumns(c model.Credential) (username, password, apiKey string, err error) {
	switch c := c.(type) {
	case model.PasswordCredential:
		return c.Username, c.Password, "", nil
	case model.APIKeyCredential:
		return "", "", c.Key, nil
	default:
		return "", "", "", &model.ConfigurationError{Reason: fmt.Sprintf("unsupported credential type %T", c)}
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanServer rebuilds a Server, including its credential variant. A row
// whose credential columns violate the single-variant invariant fails the
// scan rather than loading silently.
func scanServer(row rowScanner) (*model.Server, error) {
	var (
		server             model.Server
		username, password string
		apiKey             string
		lastSynced         sql.NullTime
		color, icon        string
	)

	err := row.Scan(&server.ID, &server.URI, &server.Name, &username, &password,
		&apiKey, &lastSynced, &color, &icon)
	if err != nil {
		return nil, err
	}

	cred, err := model.NewCredential(username, password, apiKey)
	if err != nil {
		return nil, fmt.Errorf("server %s: %w", server.ID, err)
	}

	server.Credential = cred
	server.LastSynced = timePtr(lastSynced)
	server.Color = model.ServerColorFromToken(color)
	server.Icon = model.ServerIconFromToken(icon)

	return &server, nil
}

// requireRowAffected converts a zero-row UPDATE/DELETE into a not-found error.
func requireRowAffected(result sql.Result, kind, id string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%s %s not found", kind, id)
	}
	return nil
}
