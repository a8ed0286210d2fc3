// Package core composes the lifecycle components into a Supervisor.
//
// Start runs the startup sequence in a fixed order: take the per-port lock,
// reclaim the port, bind it, acquire the database connection, serve HTTP on
// the bound listener and finally start the parent watchdog. Reclamation
// errors are reported and tolerated; a bind or database failure aborts
// startup and undoes the steps already taken. Shutdown reverses the order and
// is idempotent.
package core
