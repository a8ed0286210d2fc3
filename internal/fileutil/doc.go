// Package fileutil prepares on-disk locations used by the supervisor, such
// as the directory holding per-port lock files and SQLite database files.
package fileutil
