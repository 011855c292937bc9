package gateway

import (
	"github.com/gorilla/websocket"
)

// registry is the set of connected dashboard clients, keyed by
// connection identity. It is owned by the gateway actor goroutine and
// must only be touched from there.
type registry struct {
	clients map[*websocket.Conn]*clientWriter
}

func newRegistry() *registry {
	return &registry{
		clients: make(map[*websocket.Conn]*clientWriter),
	}
}

// add registers a writer for a connection. Adding a connection that is
// already present keeps the existing writer and reports false.
func (r *registry) add(conn *websocket.Conn, cw *clientWriter) bool {
	if _, exists := r.clients[conn]; exists {
		return false
	}
	r.clients[conn] = cw
	return true
}

// remove deletes a connection and returns its writer. Removing an
// absent connection is a no-op.
func (r *registry) remove(conn *websocket.Conn) (*clientWriter, bool) {
	cw, exists := r.clients[conn]
	if !exists {
		return nil, false
	}
	delete(r.clients, conn)
	return cw, true
}

func (r *registry) get(conn *websocket.Conn) (*clientWriter, bool) {
	cw, exists := r.clients[conn]
	return cw, exists
}

func (r *registry) count() int {
	return len(r.clients)
}
