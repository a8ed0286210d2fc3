package dbpool

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"
)

func TestMongoClientOptions(t *testing.T) {
	t.Parallel()

	opts := mongoClientOptions("mongodb://127.0.0.1:27017", DefaultOptions())

	if opts.MaxPoolSize == nil || *opts.MaxPoolSize != 10 {
		t.Errorf("MaxPoolSize = %v, want 10", opts.MaxPoolSize)
	}
	if opts.ServerSelectionTimeout == nil || *opts.ServerSelectionTimeout != 5*time.Second {
		t.Errorf("ServerSelectionTimeout = %v, want 5s", opts.ServerSelectionTimeout)
	}
	if opts.Timeout == nil || *opts.Timeout != 45*time.Second {
		t.Errorf("Timeout = %v, want 45s", opts.Timeout)
	}
	if opts.MaxConnIdleTime == nil || *opts.MaxConnIdleTime != 30*time.Second {
		t.Errorf("MaxConnIdleTime = %v, want 30s", opts.MaxConnIdleTime)
	}
	if opts.RetryWrites == nil || !*opts.RetryWrites {
		t.Errorf("RetryWrites = %v, want true", opts.RetryWrites)
	}
	if _, ok := opts.Dialer.(ipv4Dialer); !ok {
		t.Errorf("Dialer = %T, want ipv4Dialer", opts.Dialer)
	}
}

func TestMongoClientOptions_DualStack(t *testing.T) {
	t.Parallel()

	o := DefaultOptions()
	o.IPv4Only = false
	if d := mongoClientOptions("mongodb://127.0.0.1:27017", o).Dialer; d != nil {
		t.Errorf("Dialer = %T, want driver default", d)
	}
}

func TestIPv4Dialer(t *testing.T) {
	t.Parallel()

	l, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("test setup: listen: %v", err)
	}
	defer l.Close()

	d := ipv4Dialer{d: &net.Dialer{Timeout: time.Second}}
	conn, err := d.DialContext(context.Background(), "tcp", l.Addr().String())
	if err != nil {
		t.Fatalf("DialContext() error: %v", err)
	}
	defer conn.Close()

	if ra, ok := conn.RemoteAddr().(*net.TCPAddr); !ok || ra.IP.To4() == nil {
		t.Errorf("RemoteAddr() = %v, want an IPv4 address", conn.RemoteAddr())
	}

	if _, err := d.DialContext(context.Background(), "tcp", "[::1]:1"); err == nil {
		t.Error("dialing an IPv6 literal succeeded over tcp4")
	}
}

func TestMongoConnector_MissingDatabase(t *testing.T) {
	t.Parallel()

	_, err := MongoConnector{}.Connect(context.Background(), "mongodb://127.0.0.1:27017", "", DefaultOptions())
	if !errors.Is(err, ErrMissingDatabase) {
		t.Fatalf("Connect() error = %v, want ErrMissingDatabase", err)
	}
}

func TestMongoConnector_HandleAndClose(t *testing.T) {
	t.Parallel()

	conn, err := MongoConnector{}.Connect(context.Background(), "mongodb://127.0.0.1:1", "app", DefaultOptions())
	if err != nil {
		t.Fatalf("Connect() error: %v", err)
	}
	client, db, ok := conn.Handle().Mongo()
	if !ok {
		t.Fatalf("handle is not a mongo handle: %T", conn.Handle().Client)
	}
	if client == nil || db.Name() != "app" {
		t.Errorf("handle = (%v, %q), want client and database app", client, db.Name())
	}
	if _, ok := conn.Handle().SQL(); ok {
		t.Error("mongo handle reports itself as database/sql")
	}
	if err := conn.Close(context.Background()); err != nil {
		t.Errorf("Close() error: %v", err)
	}
}
