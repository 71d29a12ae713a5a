package export

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"redpiler.dev/redpiler/internal/graph"
)

// NodeEvent is one node-state transition pushed to connected inspect
// clients: a node changed output strength (or a boolean-derived one did)
// on a given game tick.
type NodeEvent struct {
	Tick   uint64   `json:"tick"`
	ID     graph.ID `json:"id"`
	Kind   string   `json:"kind"`
	Output uint8    `json:"output"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// InspectStream fans out NodeEvents to every currently-connected debug
// client over websocket. It never blocks the caller publishing an
// event: a slow or dead client just falls behind and is dropped, rather
// than stalling the plot thread that's driving the simulation.
type InspectStream struct {
	logger *log.Logger

	mu      sync.Mutex
	clients map[*client]struct{}
}

type client struct {
	conn *websocket.Conn
	send chan NodeEvent
}

// NewInspectStream returns an empty stream ready to accept connections.
func NewInspectStream(logger *log.Logger) *InspectStream {
	return &InspectStream{logger: logger, clients: make(map[*client]struct{})}
}

// ServeHTTP upgrades the request to a websocket and registers the
// resulting connection as an event sink until it disconnects.
func (s *InspectStream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Printf("inspect stream: upgrade failed: %v", err)
		return
	}
	c := &client{conn: conn, send: make(chan NodeEvent, 64)}

	s.mu.Lock()
	s.clients[c] = struct{}{}
	s.mu.Unlock()

	go s.writePump(c)
	go s.readPump(c)
}

// readPump exists only to notice the client closing the connection;
// the inspect stream is push-only and never expects incoming frames.
func (s *InspectStream) readPump(c *client) {
	defer s.drop(c)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *InspectStream) writePump(c *client) {
	for ev := range c.send {
		if err := c.conn.WriteJSON(ev); err != nil {
			s.drop(c)
			return
		}
	}
}

func (s *InspectStream) drop(c *client) {
	s.mu.Lock()
	if _, ok := s.clients[c]; ok {
		delete(s.clients, c)
		close(c.send)
	}
	s.mu.Unlock()
	c.conn.Close()
}

// Publish broadcasts ev to every connected client, dropping it for any
// client whose outgoing buffer is already full.
func (s *InspectStream) Publish(ev NodeEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.clients {
		select {
		case c.send <- ev:
		default:
		}
	}
}

// MarshalNodeEvent encodes ev in the same JSON shape the live stream
// sends to its clients.
func MarshalNodeEvent(ev NodeEvent) ([]byte, error) {
	return json.Marshal(ev)
}
