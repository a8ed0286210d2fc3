package dbpool

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/giantswarm/lockstep/internal/fileutil"
)

var _ Connector = SQLiteConnector{}

// sqlitePragmas match the settings used for other on-disk SQLite stores in
// this module: WAL so readers do not block the writer, and a busy timeout
// so pooled connections wait for each other instead of failing.
const sqlitePragmas = "_pragma=journal_mode(WAL)&_pragma=busy_timeout(30000)"

// SQLiteConnector opens a database/sql pool on the modernc.org/sqlite driver.
// It accepts sqlite://<path> and file:<path>[?query]. The database name is
// ignored: a SQLite file is a single database.
type SQLiteConnector struct{}

// Connect opens the database file, creating its directory when needed.
func (SQLiteConnector) Connect(_ context.Context, uri, _ string, o Options) (Conn, error) {
	path, query, err := sqlitePath(uri)
	if err != nil {
		return nil, err
	}
	if path != ":memory:" {
		if err := fileutil.EnsureDirForFile(path); err != nil {
			return nil, fmt.Errorf("sqlite: %w", err)
		}
	}

	dsn := "file:" + path + "?" + sqlitePragmas
	if query != "" {
		dsn += "&" + query
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	if o.MaxPoolSize > 0 {
		db.SetMaxOpenConns(int(o.MaxPoolSize))
	}
	db.SetConnMaxIdleTime(o.MaxConnIdleTime)

	return &sqlConn{handle: &Handle{Scheme: Scheme(uri), Client: db, DB: db}, db: db}, nil
}

// sqlitePath splits a sqlite:// or file: URI into its path and query.
func sqlitePath(uri string) (path, query string, err error) {
	rest, ok := strings.CutPrefix(uri, "sqlite://")
	if !ok {
		rest, ok = strings.CutPrefix(uri, "file:")
		if !ok {
			return "", "", fmt.Errorf("sqlite: %q: %w", uri, ErrUnsupportedScheme)
		}
	}
	path, query, _ = strings.Cut(rest, "?")
	if path == "" {
		return "", "", fmt.Errorf("sqlite: %q: %w", uri, ErrInvalidSQLitePath)
	}
	return path, query, nil
}

type sqlConn struct {
	handle *Handle
	db     *sql.DB
}

func (c *sqlConn) Handle() *Handle { return c.handle }

func (c *sqlConn) Ping(ctx context.Context) error {
	if err := c.db.PingContext(ctx); err != nil {
		return fmt.Errorf("sqlite ping: %w", err)
	}
	return nil
}

func (c *sqlConn) Close(_ context.Context) error {
	if err := c.db.Close(); err != nil {
		return fmt.Errorf("close sqlite: %w", err)
	}
	return nil
}
