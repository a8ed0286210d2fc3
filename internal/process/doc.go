// Package process provides the operating-system primitives the supervisor is
// built on: running an external command and capturing its output and exit
// status (Runner), testing whether a PID still exists (Probe), and a
// context-aware polling helper (WaitFor).
//
// The package holds no state. Platform differences are confined to
// build-tagged files.
package process
