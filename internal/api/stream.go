package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// EstimateEvent describes websocket payloads emitted as estimates complete.
type EstimateEvent struct {
	Type      string              `json:"type"`
	Estimate  *EstimateSummaryDTO `json:"estimate,omitempty"`
	Message   string              `json:"message,omitempty"`
	Timestamp time.Time           `json:"timestamp"`
}

// wsClient wraps a websocket connection with write locking.
type wsClient struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

// EstimateNotifier tracks websocket clients and broadcasts estimate events to
// connected dashboards.
type EstimateNotifier struct {
	mu        sync.Mutex
	clients   map[*wsClient]struct{}
	lastEvent *EstimateEvent
}

// NewEstimateNotifier constructs a notifier instance.
func NewEstimateNotifier() *EstimateNotifier {
	return &EstimateNotifier{clients: make(map[*wsClient]struct{})}
}

// Register attaches a websocket connection and replays the last event.
func (n *EstimateNotifier) Register(conn *websocket.Conn) *wsClient {
	client := &wsClient{conn: conn}
	n.mu.Lock()
	n.clients[client] = struct{}{}
	last := n.lastEvent
	n.mu.Unlock()

	if last != nil {
		_ = client.writeJSON(*last)
	}
	return client
}

// Unregister removes the websocket client and closes the socket.
func (n *EstimateNotifier) Unregister(client *wsClient) {
	if client == nil {
		return
	}
	n.mu.Lock()
	delete(n.clients, client)
	n.mu.Unlock()
	_ = client.conn.Close()
}

// Broadcast sends the supplied event to all registered clients.
func (n *EstimateNotifier) Broadcast(event EstimateEvent) {
	event.Timestamp = time.Now().UTC()

	n.mu.Lock()
	if event.Type == "estimate" {
		snapshot := event
		n.lastEvent = &snapshot
	}
	for client := range n.clients {
		if err := client.writeJSON(event); err != nil {
			delete(n.clients, client)
			_ = client.conn.Close()
		}
	}
	n.mu.Unlock()
}

// LastEvent returns a copy of the most recent estimate event.
func (n *EstimateNotifier) LastEvent() *EstimateEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.lastEvent == nil {
		return nil
	}
	event := *n.lastEvent
	return &event
}

func (c *wsClient) writeJSON(payload interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return c.conn.WriteJSON(payload)
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

func (s *Server) handleEstimateStream(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logrus.WithError(err).Warn("websocket upgrade")
		return
	}
	client := s.notifier.Register(conn)
	defer s.notifier.Unregister(client)

	// drain control frames until the client disconnects
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
