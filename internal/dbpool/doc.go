// Package dbpool owns the supervisor's single database connection.
//
// A Pool connects lazily on the first Acquire, caches the handle and returns
// it to every later caller without touching the network. Concurrent first
// callers share one connect attempt. Release closes the connection and
// resets the pool so the next Acquire connects afresh.
//
// The driver is chosen from the URI scheme: mongodb:// and mongodb+srv://
// use the MongoDB Go driver, sqlite:// and file: use the pure-Go SQLite
// driver through database/sql. Either way the connection is bounded by the
// same Options.
//
// The first successful Acquire installs one os.Interrupt handler that
// releases the connection and then exits with status 130.
package dbpool
