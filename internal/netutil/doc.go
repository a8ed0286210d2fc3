// Package netutil binds the supervisor's TCP port and answers whether a port
// is currently free on the loopback interface.
package netutil
