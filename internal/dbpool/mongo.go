package dbpool

import (
	"context"
	"fmt"
	"net"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

var _ Connector = MongoConnector{}

// MongoConnector connects with the MongoDB Go driver.
type MongoConnector struct{}

// Connect builds a client for uri. The driver connects in the background;
// the pool's Ping is what waits for a server.
func (MongoConnector) Connect(_ context.Context, uri, dbName string, o Options) (Conn, error) {
	if dbName == "" {
		return nil, fmt.Errorf("mongodb: %w", ErrMissingDatabase)
	}

	client, err := mongo.Connect(mongoClientOptions(uri, o))
	if err != nil {
		return nil, fmt.Errorf("mongodb connect: %w", err)
	}
	return &mongoConn{
		handle: &Handle{Scheme: Scheme(uri), Client: client, DB: client.Database(dbName)},
		client: client,
	}, nil
}

func mongoClientOptions(uri string, o Options) *options.ClientOptions {
	opts := options.Client().
		ApplyURI(uri).
		SetMaxPoolSize(o.MaxPoolSize).
		SetServerSelectionTimeout(o.ServerSelectionTimeout).
		SetMaxConnIdleTime(o.MaxConnIdleTime).
		SetRetryWrites(o.RetryWrites)
	// The v2 driver has no socket timeout; the client-wide operation
	// timeout bounds each round trip instead.
	if o.SocketTimeout > 0 {
		opts.SetTimeout(o.SocketTimeout)
	}
	if o.IPv4Only {
		opts.SetDialer(ipv4Dialer{d: &net.Dialer{Timeout: o.ServerSelectionTimeout}})
	}
	return opts
}

// ipv4Dialer pins every driver connection to IPv4.
type ipv4Dialer struct {
	d *net.Dialer
}

func (i ipv4Dialer) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	if network == "tcp" || network == "tcp6" {
		network = "tcp4"
	}
	return i.d.DialContext(ctx, network, address)
}

type mongoConn struct {
	handle *Handle
	client *mongo.Client
}

func (c *mongoConn) Handle() *Handle { return c.handle }

func (c *mongoConn) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("mongodb ping: %w", err)
	}
	return nil
}

func (c *mongoConn) Close(ctx context.Context) error {
	if err := c.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("mongodb disconnect: %w", err)
	}
	return nil
}
