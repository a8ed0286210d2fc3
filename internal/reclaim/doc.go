// Package reclaim frees a TCP port before the supervisor binds it.
//
// A Reclaimer lists the processes bound to the port with the platform's
// enumeration command, force-kills each of them in discovery order, waits a
// settle delay for the kernel to release the socket, and then polls the
// enumeration again until the port is empty or the confirm timeout expires.
//
// Killing is best-effort. A failed kill whose PID has already exited is not
// an error; any other failure is recorded as an *Error and the remaining PIDs
// are still killed. Every recorded error is returned joined, and none of them
// is fatal to the caller, which decides whether to bind anyway.
//
// This package terminates arbitrary processes by PID without confirmation.
// That is the point of it.
package reclaim
