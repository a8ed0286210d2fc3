package dbpool

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/giantswarm/lockstep/internal/sentinel"
)

// Sentinel errors for configuration problems. None of them involve a
// connect attempt.
const (
	ErrMissingURI        = sentinel.Error("database URI is not set")
	ErrUnsupportedScheme = sentinel.Error("unsupported database URI scheme")
	ErrMissingDatabase   = sentinel.Error("database name is not set")
	ErrInvalidSQLitePath = sentinel.Error("sqlite URI has no path")
)

// Handle is the cached connection given to callers. Client is the driver's
// client object and DB the selected database; for SQLite both are the same
// *sql.DB.
type Handle struct {
	Scheme string
	Client any
	DB     any
}

// Mongo returns the MongoDB client and database, if this is a MongoDB handle.
func (h *Handle) Mongo() (*mongo.Client, *mongo.Database, bool) {
	c, ok := h.Client.(*mongo.Client)
	if !ok {
		return nil, nil, false
	}
	db, ok := h.DB.(*mongo.Database)
	return c, db, ok
}

// SQL returns the *sql.DB, if this is a database/sql handle.
func (h *Handle) SQL() (*sql.DB, bool) {
	db, ok := h.DB.(*sql.DB)
	return db, ok
}

// Conn is an open connection produced by a Connector.
type Conn interface {
	Handle() *Handle
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// Connector opens connections for one family of URI schemes.
type Connector interface {
	Connect(ctx context.Context, uri, dbName string, opts Options) (Conn, error)
}

// DefaultConnectors maps every supported scheme to its connector.
func DefaultConnectors() map[string]Connector {
	m := MongoConnector{}
	s := SQLiteConnector{}
	return map[string]Connector{
		"mongodb":     m,
		"mongodb+srv": m,
		"sqlite":      s,
		"file":        s,
	}
}

// Scheme returns the lower-cased scheme of uri: the part before "://", or
// before ":" for opaque URIs such as file:test.db.
func Scheme(uri string) string {
	if i := strings.Index(uri, "://"); i > 0 {
		return strings.ToLower(uri[:i])
	}
	if i := strings.Index(uri, ":"); i > 0 {
		return strings.ToLower(uri[:i])
	}
	return ""
}

func connectorFor(connectors map[string]Connector, uri string) (Connector, string, error) {
	scheme := Scheme(uri)
	c, ok := connectors[scheme]
	if !ok {
		return nil, scheme, fmt.Errorf("scheme %q: %w", scheme, ErrUnsupportedScheme)
	}
	return c, scheme, nil
}
