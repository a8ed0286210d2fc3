// Package notify carries status and error reports from the supervisor to
// whoever launched it.
//
// A Notification is a small structured record: a kind (log or error), the
// operation it concerns, a detail string and a timestamp. Notifier
// implementations deliver it: MCP forwards it as a JSON-RPC notification over
// the stdio session of an mcp-go server, Log writes it through slog, and
// Multi fans out to several. Delivery is best effort and never blocks the
// caller.
package notify
