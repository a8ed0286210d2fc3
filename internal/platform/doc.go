// Package platform builds the shell commands used to find and kill the owners
// of a TCP port. Each operating-system family is one Dialect; the supervisor
// selects a dialect once at startup so the reclamation logic carries no
// platform branching.
package platform
