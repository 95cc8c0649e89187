package websocket

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/tidewatch/beach-report/internal/conditions"
	"github.com/tidewatch/beach-report/internal/observability"
	"github.com/tidewatch/beach-report/pkg/logger"
)

// Message types exchanged with live-update clients.
const (
	MessageTypeSubscribe        = "subscribe"         // client selects location ids
	MessageTypeConditionsUpdate = "conditions_update" // server pushes a refreshed snapshot
)

// Message is a WebSocket frame
type Message struct {
	Type string         `json:"type"`
	Data map[string]any `json:"data"`
}

// Client is one connected live-update consumer. A client with no
// subscriptions receives updates for every location.
type Client struct {
	conn   *websocket.Conn
	send   chan *Message
	server *Server

	mu            sync.Mutex
	closed        bool
	subscriptions map[string]bool
}

// Server is the live-update hub: it tracks connected clients and
// fans refreshed snapshots out to the ones subscribed to them.
type Server struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan *Message
	upgrader   websocket.Upgrader
	logger     *logger.Logger
	metrics    *observability.Metrics
	mu         sync.RWMutex
}

// NewServer creates a live-update hub
func NewServer(log *logger.Logger, metrics *observability.Metrics) *Server {
	return &Server{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *Message, 16),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		logger:  log.Named("websocket"),
		metrics: metrics,
	}
}

// Run processes client registration and broadcast fan-out. It blocks
// and is expected to run in its own goroutine for the process lifetime.
func (s *Server) Run() {
	s.logger.Info("Starting WebSocket hub")

	for {
		select {
		case client := <-s.register:
			s.mu.Lock()
			s.clients[client] = true
			count := len(s.clients)
			s.mu.Unlock()
			s.metrics.WebsocketClients.Set(float64(count))
			s.logger.Debug("Client registered", logger.Int("client_count", count))

		case client := <-s.unregister:
			s.mu.Lock()
			if _, ok := s.clients[client]; ok {
				delete(s.clients, client)
				client.mu.Lock()
				if !client.closed {
					client.closed = true
					close(client.send)
				}
				client.mu.Unlock()
			}
			count := len(s.clients)
			s.mu.Unlock()
			s.metrics.WebsocketClients.Set(float64(count))
			s.logger.Debug("Client unregistered", logger.Int("client_count", count))

		case message := <-s.broadcast:
			s.dispatch(message)
		}
	}
}

// dispatch sends a message to every client whose subscription matches.
// Clients with a full send buffer are dropped rather than allowed to
// stall the hub.
func (s *Server) dispatch(message *Message) {
	locationID, _ := message.Data["location_id"].(string)

	var stalled []*Client

	s.mu.RLock()
	for client := range s.clients {
		if !client.wantsLocation(locationID) {
			continue
		}
		select {
		case client.send <- message:
		default:
			stalled = append(stalled, client)
		}
	}
	s.mu.RUnlock()

	for _, client := range stalled {
		s.logger.Warn("Dropping stalled WebSocket client")
		s.removeClient(client)
	}
}

// removeClient detaches a client outside the Run select loop
func (s *Server) removeClient(client *Client) {
	s.mu.Lock()
	if _, ok := s.clients[client]; ok {
		delete(s.clients, client)
		client.mu.Lock()
		if !client.closed {
			client.closed = true
			close(client.send)
		}
		client.mu.Unlock()
	}
	count := len(s.clients)
	s.mu.Unlock()
	s.metrics.WebsocketClients.Set(float64(count))
}

// PublishSnapshot broadcasts a refreshed snapshot to subscribed
// clients. Implements conditions.Publisher.
func (s *Server) PublishSnapshot(snapshot *conditions.Snapshot) {
	data, err := snapshotToMap(snapshot)
	if err != nil {
		s.logger.Error("Failed to encode snapshot for broadcast", logger.Error(err))
		return
	}

	select {
	case s.broadcast <- &Message{Type: MessageTypeConditionsUpdate, Data: data}:
	default:
		s.logger.Warn("Broadcast queue full, dropping snapshot update",
			logger.String("location_id", snapshot.LocationID))
	}
}

// HandleConnection upgrades an HTTP request to a WebSocket client
func (s *Server) HandleConnection(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("Failed to upgrade connection",
			logger.Error(err),
			logger.String("remote_addr", r.RemoteAddr))
		return
	}

	client := &Client{
		conn:   conn,
		send:   make(chan *Message, 64),
		server: s,
	}

	s.register <- client

	go client.readPump()
	go client.writePump()
}

// ClientCount returns the number of connected clients
func (s *Server) ClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// wantsLocation reports whether the client should receive updates for
// the given location id.
func (c *Client) wantsLocation(locationID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.subscriptions) == 0 {
		return true
	}
	return c.subscriptions[locationID]
}

func (c *Client) readPump() {
	defer func() {
		c.server.unregister <- c
		c.conn.Close()
	}()

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				c.server.logger.Error("WebSocket read error", logger.Error(err))
			}
			return
		}

		var message Message
		if err := json.Unmarshal(raw, &message); err != nil {
			c.server.logger.Warn("Ignoring malformed WebSocket message", logger.Error(err))
			continue
		}

		if message.Type == MessageTypeSubscribe {
			c.applySubscription(message.Data)
		}
	}
}

// applySubscription replaces the client's location filter
func (c *Client) applySubscription(data map[string]any) {
	ids, _ := data["location_ids"].([]any)

	subscriptions := make(map[string]bool, len(ids))
	for _, id := range ids {
		if s, ok := id.(string); ok {
			subscriptions[s] = true
		}
	}

	c.mu.Lock()
	c.subscriptions = subscriptions
	c.mu.Unlock()

	c.server.logger.Debug("Client subscription updated",
		logger.Int("location_count", len(subscriptions)))
}

func (c *Client) writePump() {
	defer c.conn.Close()

	for message := range c.send {
		data, err := json.Marshal(message)
		if err != nil {
			c.server.logger.Error("Failed to marshal message", logger.Error(err))
			continue
		}
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			return
		}
	}

	c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}

// snapshotToMap round-trips a snapshot through JSON into the generic
// message payload shape.
func snapshotToMap(snapshot *conditions.Snapshot) (map[string]any, error) {
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return nil, err
	}
	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, err
	}
	return data, nil
}
