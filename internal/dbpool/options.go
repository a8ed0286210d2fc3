package dbpool

import "time"

// Options bound the pooled connection. Connectors map them onto their
// driver's settings.
type Options struct {
	MaxPoolSize            uint64
	ServerSelectionTimeout time.Duration
	SocketTimeout          time.Duration
	MaxConnIdleTime        time.Duration
	RetryWrites            bool
	IPv4Only               bool
}

// DefaultOptions returns the options used when a Pool is built without any.
func DefaultOptions() Options {
	return Options{
		MaxPoolSize:            10,
		ServerSelectionTimeout: 5 * time.Second,
		SocketTimeout:          45 * time.Second,
		MaxConnIdleTime:        30 * time.Second,
		RetryWrites:            true,
		IPv4Only:               true,
	}
}
