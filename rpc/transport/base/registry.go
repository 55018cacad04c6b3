package base

import (
	"sync/atomic"

	"github.com/ValentinKolb/dHangman/rpc/transport"
	"github.com/puzpuzpuz/xsync/v3"
)

// Registry is the set of live connections, keyed by ConnID.
//
// All methods are safe for concurrent use. Iteration tolerates concurrent
// registration and removal: a connection removed during ForEachLive is either
// visited (and then already marked disconnected, which makes sends a no-op)
// or skipped, but it never makes the iteration fail.
type Registry struct {
	conns *xsync.MapOf[transport.ConnID, *Connection]
	size  atomic.Int64
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		conns: xsync.NewMapOf[transport.ConnID, *Connection](),
	}
}

// Register adds a connection. Registering the same id twice keeps the first entry.
func (r *Registry) Register(c *Connection) bool {
	if _, loaded := r.conns.LoadOrStore(c.ID, c); loaded {
		return false
	}
	r.size.Add(1)
	return true
}

// Deregister removes the connection with id. It is idempotent: only the call
// that actually removed the entry returns true.
func (r *Registry) Deregister(id transport.ConnID) bool {
	if _, loaded := r.conns.LoadAndDelete(id); !loaded {
		return false
	}
	r.size.Add(-1)
	return true
}

// Load returns the live connection with id
func (r *Registry) Load(id transport.ConnID) (*Connection, bool) {
	c, ok := r.conns.Load(id)
	if !ok || !c.IsLive() {
		return nil, false
	}
	return c, true
}

// ForEachLive calls f for every live connection until f returns false
func (r *Registry) ForEachLive(f func(c *Connection) bool) {
	r.conns.Range(func(_ transport.ConnID, c *Connection) bool {
		if !c.IsLive() {
			return true
		}
		return f(c)
	})
}

// Len returns the number of registered connections
func (r *Registry) Len() int {
	return int(r.size.Load())
}
