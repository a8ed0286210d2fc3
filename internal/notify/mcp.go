package notify

import (
	"context"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// JSON-RPC methods used on the MCP session. They match what MCP hosts show
// in their server log panes.
const (
	MethodLog   = "log"
	MethodError = "error"
)

// MethodInitialized is the notification an MCP client sends once it has
// processed the initialize result. Sessions do not accept notifications
// before the handshake.
const MethodInitialized = "notifications/initialized"

// maxPending bounds the notifications held until the handshake. The oldest
// are dropped first.
const maxPending = 256

// errorName is the name field of the error object in MethodError params.
const errorName = "Error"

// Sender is the part of *server.MCPServer used by MCP. Sends are expected to
// drop rather than block when no client is attached.
type Sender interface {
	SendNotificationToAllClients(method string, params map[string]any)
}

var (
	_ Sender   = (*server.MCPServer)(nil)
	_ Notifier = (*MCP)(nil)
)

// MCP forwards notifications to the MCP client as JSON-RPC notifications.
//
// Log notifications are sent as
//
//	{"method":"log","params":{"message":..., "context":..., "timestamp":...}}
//
// and error notifications as
//
//	{"method":"error","params":{"timestamp":..., "context":..., "error":{"name":"Error","message":...}}}
//
// Notifications sent before Ready are queued and flushed in order by Ready.
type MCP struct {
	sender Sender

	mu      sync.Mutex
	ready   bool
	pending []Notification
}

// NewMCP returns an MCP notifier. Panics if sender is nil.
func NewMCP(sender Sender) *MCP {
	if sender == nil {
		panic("lockstep: MCP notifier sender must not be nil")
	}
	return &MCP{sender: sender}
}

// Notify implements Notifier.
func (m *MCP) Notify(n Notification) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.ready {
		if len(m.pending) == maxPending {
			m.pending = m.pending[1:]
		}
		m.pending = append(m.pending, n)
		return
	}
	m.send(n)
}

// Ready flushes queued notifications and sends later ones directly.
// Calls after the first are no-ops.
func (m *MCP) Ready() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ready {
		return
	}
	m.ready = true
	for _, n := range m.pending {
		m.send(n)
	}
	m.pending = nil
}

// FlushOnInitialized calls Ready when a client of s completes the MCP
// handshake.
func (m *MCP) FlushOnInitialized(s *server.MCPServer) {
	s.AddNotificationHandler(MethodInitialized, func(ctx context.Context, _ mcp.JSONRPCNotification) {
		if session := server.ClientSessionFromContext(ctx); session != nil && !session.Initialized() {
			session.Initialize()
		}
		m.Ready()
	})
}

// send must be called with mu held so that flushed and direct sends keep
// their order.
func (m *MCP) send(n Notification) {
	method, params := Params(n)
	m.sender.SendNotificationToAllClients(method, params)
}

// Params returns the JSON-RPC method and params for n.
func Params(n Notification) (string, map[string]any) {
	ts := n.Timestamp.UTC().Format(time.RFC3339Nano)
	if n.Kind == KindError {
		return MethodError, map[string]any{
			"timestamp": ts,
			"context":   n.Context,
			"error": map[string]any{
				"name":    errorName,
				"message": n.Detail,
			},
		}
	}
	return MethodLog, map[string]any{
		"message":   n.Detail,
		"context":   n.Context,
		"timestamp": ts,
	}
}
