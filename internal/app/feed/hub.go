package feed

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const sendBuffer = 32

type Client struct {
	Conn *websocket.Conn
	Send chan []byte
}

type envelope struct {
	Subject string          `json:"subject"`
	Data    json.RawMessage `json:"data"`
}

// Hub fans published events out to connected WebSocket clients. It satisfies
// mq.Publisher so it can sit next to the NATS publisher.
type Hub struct {
	logger zerolog.Logger

	mu      sync.RWMutex
	clients map[*Client]struct{}
	closed  bool
}

func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{logger: logger, clients: make(map[*Client]struct{})}
}

func (h *Hub) Register(conn *websocket.Conn) *Client {
	c := &Client{Conn: conn, Send: make(chan []byte, sendBuffer)}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(c.Send)
		return c
	}
	h.clients[c] = struct{}{}
	h.logger.Debug().Int("clients", len(h.clients)).Msg("feed client registered")
	return c
}

func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.Send)
	h.logger.Debug().Int("clients", len(h.clients)).Msg("feed client unregistered")
}

func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Publish never blocks: a client whose buffer is full misses the message.
func (h *Hub) Publish(_ context.Context, subject string, data []byte) error {
	if !json.Valid(data) {
		data, _ = json.Marshal(string(data))
	}
	msg, err := json.Marshal(envelope{Subject: subject, Data: data})
	if err != nil {
		return err
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c.Send <- msg:
		default:
			h.logger.Warn().Str("subject", subject).Msg("feed client too slow; dropping message")
		}
	}
	return nil
}

func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for c := range h.clients {
		close(c.Send)
		delete(h.clients, c)
	}
}
