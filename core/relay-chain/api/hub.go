package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/Shivam-Patel-G/earlybirds/core/relay-chain/chain"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 32
)

// SubscribeFunc matches chain.Blockchain.Subscribe.
type SubscribeFunc func(buffer int) (<-chan *chain.Receipt, func())

// Message is the envelope of everything sent to stream clients.
type Message struct {
	Type      string         `json:"type"`
	Receipt   *chain.Receipt `json:"receipt,omitempty"`
	Clients   int            `json:"clients,omitempty"`
	Messages  uint64         `json:"messages,omitempty"`
	Timestamp string         `json:"timestamp"`
}

type client struct {
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

func (c *client) close() {
	c.once.Do(func() { close(c.send) })
}

// Hub fans committed receipts out to WebSocket clients. Each client has a
// single writer goroutine fed through its send channel.
type Hub struct {
	subscribe SubscribeFunc
	upgrader  websocket.Upgrader
	clients   map[*client]struct{}
	messages  uint64
	mu        sync.RWMutex
	logger    *logrus.Logger
}

func NewHub(subscribe SubscribeFunc, logger *logrus.Logger) *Hub {
	if logger == nil {
		logger = logrus.New()
	}
	return &Hub{
		subscribe: subscribe,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		clients: make(map[*client]struct{}),
		logger:  logger,
	}
}

// Run forwards receipts until ctx is done, then disconnects every client.
func (h *Hub) Run(ctx context.Context) {
	receipts, cancel := h.subscribe(64)
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			h.logger.Info("Receipt stream stopped")
			return
		case r, ok := <-receipts:
			if !ok {
				h.closeAll()
				return
			}
			h.broadcast(Message{Type: "receipt", Receipt: r})
		}
	}
}

func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) add(c *client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	h.logger.WithField("clients", n).Info("Stream client connected")
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	n := len(h.clients)
	h.mu.Unlock()

	c.close()
	if ok {
		h.logger.WithField("clients", n).Info("Stream client disconnected")
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	clients := h.clients
	h.clients = make(map[*client]struct{})
	h.mu.Unlock()

	for c := range clients {
		c.close()
	}
}

func encode(msg Message) []byte {
	if msg.Timestamp == "" {
		msg.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}
	data, _ := json.Marshal(msg)
	return data
}

// broadcast queues msg for every client. Clients whose buffer is full are
// dropped.
func (h *Hub) broadcast(msg Message) {
	data := encode(msg)

	h.mu.Lock()
	h.messages++
	var slow []*client
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.Unlock()

	for _, c := range slow {
		h.logger.Warn("Dropping slow stream client")
		h.remove(c)
	}
}

func (h *Hub) status() Message {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return Message{Type: "status", Clients: len(h.clients), Messages: h.messages}
}

// ServeWS upgrades the request and serves the client until it disconnects.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Warn("WebSocket upgrade failed")
		return
	}

	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}
	c.send <- encode(Message{Type: "welcome"})
	h.add(c)

	go h.writePump(c)
	h.readPump(c)
}

func (h *Hub) readPump(c *client) {
	defer func() {
		h.remove(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg map[string]interface{}
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.WithError(err).Debug("Stream client read error")
			}
			return
		}
		h.handleClientMessage(c, msg)
	}
}

func (h *Hub) handleClientMessage(c *client, msg map[string]interface{}) {
	msgType, _ := msg["type"].(string)

	var reply Message
	switch msgType {
	case "ping":
		reply = Message{Type: "pong"}
	case "get_status":
		reply = h.status()
	default:
		return
	}

	h.mu.RLock()
	_, live := h.clients[c]
	if live {
		select {
		case c.send <- encode(reply):
		default:
		}
	}
	h.mu.RUnlock()
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
