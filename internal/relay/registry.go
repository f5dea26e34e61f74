package relay

import "sync"

// Connection is a realtime subscriber. Send must not block: it either
// accepts the envelope immediately or returns an error, in which case the
// relay drops the connection from the registry.
type Connection interface {
	ID() string
	Send(Envelope) error
}

// Registry tracks which connections are interested in which subject's
// events. Implementations must be safe for concurrent use.
type Registry interface {
	Register(conn Connection)
	Subscribe(conn Connection, subjectID string)
	Unsubscribe(connID, subjectID string)
	RemoveConnection(connID string)
	Subscribers(subjectID string) []Connection
	All() []Connection
	Count() int
}

type memoryRegistry struct {
	mu          sync.RWMutex
	bySubject   map[string]map[string]Connection
	byConn      map[string]map[string]struct{}
	connections map[string]Connection
}

// NewRegistry returns an in-memory subscription registry.
func NewRegistry() Registry {
	return &memoryRegistry{
		bySubject:   make(map[string]map[string]Connection),
		byConn:      make(map[string]map[string]struct{}),
		connections: make(map[string]Connection),
	}
}

// Register makes a connection reachable by broadcast before it has
// subscribed to any subject. Every connection must be registered on
// accept; Subscribe alone would leave it invisible to system events.
func (r *memoryRegistry) Register(conn Connection) {
	if conn == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.connections[conn.ID()] = conn
}

// Subscribe registers interest. Subscribing twice is a no-op: one event is
// delivered to a connection at most once.
func (r *memoryRegistry) Subscribe(conn Connection, subjectID string) {
	if conn == nil || subjectID == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.connections[conn.ID()] = conn

	subs, ok := r.bySubject[subjectID]
	if !ok {
		subs = make(map[string]Connection)
		r.bySubject[subjectID] = subs
	}
	subs[conn.ID()] = conn

	topics, ok := r.byConn[conn.ID()]
	if !ok {
		topics = make(map[string]struct{})
		r.byConn[conn.ID()] = topics
	}
	topics[subjectID] = struct{}{}
}

func (r *memoryRegistry) Unsubscribe(connID, subjectID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if subs, ok := r.bySubject[subjectID]; ok {
		delete(subs, connID)
		if len(subs) == 0 {
			delete(r.bySubject, subjectID)
		}
	}
	if topics, ok := r.byConn[connID]; ok {
		delete(topics, subjectID)
		if len(topics) == 0 {
			delete(r.byConn, connID)
		}
	}
}

// RemoveConnection clears every subscription held by the connection.
// Invoked on disconnect; without it stale subscriptions grow unbounded.
func (r *memoryRegistry) RemoveConnection(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for subjectID := range r.byConn[connID] {
		if subs, ok := r.bySubject[subjectID]; ok {
			delete(subs, connID)
			if len(subs) == 0 {
				delete(r.bySubject, subjectID)
			}
		}
	}
	delete(r.byConn, connID)
	delete(r.connections, connID)
}

func (r *memoryRegistry) Subscribers(subjectID string) []Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()

	subs := r.bySubject[subjectID]
	out := make([]Connection, 0, len(subs))
	for _, conn := range subs {
		out = append(out, conn)
	}
	return out
}

func (r *memoryRegistry) All() []Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Connection, 0, len(r.connections))
	for _, conn := range r.connections {
		out = append(out, conn)
	}
	return out
}

func (r *memoryRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.connections)
}
