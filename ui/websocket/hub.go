package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/AzielCF/az-agent/pkg/metrics"
	"github.com/gofiber/websocket/v2"
	"github.com/sirupsen/logrus"
)

const (
	fanoutChannel  = "ws_broadcast"
	publishTimeout = 2 * time.Second
	broadcastQueue = 256
)

// Frame is the envelope for every message in both directions.
type Frame struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

type inboundFrame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Fanout carries agent pushes between server instances.
type Fanout interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string, fn func(payload []byte)) error
}

type conn interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

type Client struct {
	conn   conn
	mu     sync.Mutex
	closed atomic.Bool
}

func newClient(c conn) *Client {
	return &Client{conn: c}
}

// Emit writes one frame. Writes are serialized because the hub and the
// connection's own read loop both send.
func (c *Client) Emit(event string, data any) error {
	payload, err := json.Marshal(Frame{Event: event, Data: data})
	if err != nil {
		return err
	}
	return c.write(payload)
}

func (c *Client) write(payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, payload)
}

func (c *Client) close() {
	if c.closed.Swap(true) {
		return
	}
	c.mu.Lock()
	_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
	c.mu.Unlock()
	_ = c.conn.Close()
}

type membership struct {
	client  *Client
	agentID string
}

type roomMessage struct {
	AgentID  string          `json:"agentId"`
	Payload  json.RawMessage `json:"payload"`
	SenderID string          `json:"senderId"`
	remote   bool
}

// Hub owns the client set and agent rooms. All membership changes and
// deliveries go through Run so the maps need no locking.
type Hub struct {
	register   chan *Client
	unregister chan *Client
	join       chan membership
	broadcast  chan roomMessage

	clients map[*Client]map[string]struct{}
	rooms   map[string]map[*Client]struct{}
	count   atomic.Int64

	fanout   Fanout
	serverID string
	done     chan struct{}
}

func NewHub() *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		join:       make(chan membership),
		broadcast:  make(chan roomMessage, broadcastQueue),
		clients:    make(map[*Client]map[string]struct{}),
		rooms:      make(map[string]map[*Client]struct{}),
		done:       make(chan struct{}),
	}
}

// WithFanout enables cross-instance delivery. Messages published by serverID
// are ignored when they come back through the subscription.
func (h *Hub) WithFanout(f Fanout, serverID string) *Hub {
	h.fanout = f
	h.serverID = serverID
	return h
}

func (h *Hub) ClientCount() int {
	return int(h.count.Load())
}

func (h *Hub) Register(c *Client) {
	select {
	case h.register <- c:
	case <-h.done:
	}
}

func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

func (h *Hub) Join(c *Client, agentID string) {
	select {
	case h.join <- membership{client: c, agentID: agentID}:
	case <-h.done:
	}
}

// BroadcastToAgent queues event for every client in the agent's room, here and
// on other instances. It never blocks; a full queue drops the event.
func (h *Hub) BroadcastToAgent(agentID, event string, data any) {
	payload, err := json.Marshal(Frame{Event: event, Data: data})
	if err != nil {
		logrus.WithError(err).WithField("event", event).Error("[WS] Marshal error")
		return
	}
	select {
	case h.broadcast <- roomMessage{AgentID: agentID, Payload: payload}:
	default:
		logrus.WithFields(logrus.Fields{"agent_id": agentID, "event": event}).Warn("[WS] Broadcast queue full, dropping event")
	}
}

func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	if h.fanout != nil {
		go h.subscribe(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				c.close()
			}
			return

		case c := <-h.register:
			h.clients[c] = make(map[string]struct{})
			h.updateCount()
			logrus.Debug("[WS] Connection registered")

		case c := <-h.unregister:
			h.remove(c)
			logrus.Debug("[WS] Connection unregistered")

		case m := <-h.join:
			rooms, ok := h.clients[m.client]
			if !ok {
				continue
			}
			rooms[m.agentID] = struct{}{}
			if h.rooms[m.agentID] == nil {
				h.rooms[m.agentID] = make(map[*Client]struct{})
			}
			h.rooms[m.agentID][m.client] = struct{}{}

		case msg := <-h.broadcast:
			h.deliverLocal(msg)
			if !msg.remote && h.fanout != nil {
				h.publish(ctx, msg)
			}
		}
	}
}

func (h *Hub) deliverLocal(msg roomMessage) {
	for c := range h.rooms[msg.AgentID] {
		if err := c.write(msg.Payload); err != nil {
			logrus.WithError(err).Warn("[WS] Write error")
			c.close()
			h.remove(c)
		}
	}
}

func (h *Hub) remove(c *Client) {
	rooms, ok := h.clients[c]
	if !ok {
		return
	}
	for agentID := range rooms {
		delete(h.rooms[agentID], c)
		if len(h.rooms[agentID]) == 0 {
			delete(h.rooms, agentID)
		}
	}
	delete(h.clients, c)
	h.updateCount()
}

func (h *Hub) updateCount() {
	h.count.Store(int64(len(h.clients)))
	metrics.SetWebsocketClients(len(h.clients))
}

func (h *Hub) publish(ctx context.Context, msg roomMessage) {
	msg.SenderID = h.serverID
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	if err := h.fanout.Publish(ctx, fanoutChannel, data); err != nil {
		metrics.RecordIntegrationError("valkey")
		logrus.WithError(err).Error("[WS] Failed to publish to Valkey")
	}
}

func (h *Hub) subscribe(ctx context.Context) {
	logrus.Info("[WS] Starting Valkey Pub/Sub subscriber for distributed events")
	err := h.fanout.Subscribe(ctx, fanoutChannel, func(payload []byte) {
		var msg roomMessage
		if err := json.Unmarshal(payload, &msg); err != nil || msg.SenderID == h.serverID {
			return
		}
		msg.remote = true
		select {
		case h.broadcast <- msg:
		case <-ctx.Done():
		}
	})
	if err != nil && ctx.Err() == nil {
		logrus.WithError(err).Error("[WS] Valkey subscriber failed")
	}
}
