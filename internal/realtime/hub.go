// Package realtime рассылает события наборов выбора открытым WebSocket-соединениям сессии.
package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"ezcode-server/internal/selection"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 64
	publishBuffer  = 256
)

const MessageTypeSelection = "selection"

var ErrHubStopped = errors.New("realtime hub is stopped")

// Message - кадр, уходящий клиенту.
type Message struct {
	Type    string      `json:"type"`
	Topic   string      `json:"topic"`
	Payload interface{} `json:"payload"`
}

// envelope с непустым clientID адресован одному клиенту и не проверяет подписку.
type envelope struct {
	sessionID string
	clientID  uuid.UUID
	message   Message
}

// Client - одно WebSocket-соединение, привязанное к сессии.
type Client struct {
	ID        uuid.UUID
	SessionID string
	conn      *websocket.Conn
	hub       *Hub
	send      chan []byte

	topicsMu sync.RWMutex
	topics   map[string]bool
}

// Hub регистрирует клиентов и доставляет им события их сессии.
type Hub struct {
	logger   *zap.Logger
	upgrader websocket.Upgrader

	register   chan *Client
	unregister chan *Client
	broadcast  chan envelope
	done       chan struct{}

	mu      sync.RWMutex
	clients map[uuid.UUID]*Client
}

// NewHub создает хаб. allowedOrigins пустой - принимаются любые источники.
func NewHub(allowedOrigins []string, logger *zap.Logger) *Hub {
	origins := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		origins[o] = struct{}{}
	}
	return &Hub{
		logger: logger.Named("RealtimeHub"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				if len(origins) == 0 {
					return true
				}
				_, ok := origins[r.Header.Get("Origin")]
				return ok
			},
		},
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan envelope, publishBuffer),
		done:       make(chan struct{}),
		clients:    make(map[uuid.UUID]*Client),
	}
}

// Run обрабатывает регистрацию и рассылку до отмены ctx, затем закрывает все соединения.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.mu.Lock()
			for id, c := range h.clients {
				close(c.send)
				delete(h.clients, id)
			}
			h.mu.Unlock()
			connectedClients.Set(0)
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c.ID] = c
			h.mu.Unlock()
			connectedClients.Inc()
			h.logger.Debug("Client connected", zap.String("clientID", c.ID.String()), zap.String("sessionID", c.SessionID))

		case c := <-h.unregister:
			h.remove(c)

		case env := <-h.broadcast:
			data, err := json.Marshal(env.message)
			if err != nil {
				h.logger.Error("Failed to marshal realtime message", zap.Error(err))
				continue
			}
			h.deliver(env, data)
		}
	}
}

func (h *Hub) deliver(env envelope, data []byte) {
	var slow []*Client
	h.mu.RLock()
	for _, c := range h.clients {
		if env.clientID != uuid.Nil {
			if c.ID != env.clientID {
				continue
			}
		} else if c.SessionID != env.sessionID || !c.IsSubscribed(env.message.Topic) {
			continue
		}
		select {
		case c.send <- data:
			messagesSentTotal.Inc()
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.logger.Warn("Dropping slow realtime client", zap.String("clientID", c.ID.String()))
		h.remove(c)
	}
}

func (h *Hub) remove(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c.ID]; ok {
		close(c.send)
		delete(h.clients, c.ID)
		connectedClients.Dec()
		h.logger.Debug("Client disconnected", zap.String("clientID", c.ID.String()))
	}
}

// PublishSelection ставит событие набора в очередь рассылки. Не блокируется:
// при переполненной очереди событие отбрасывается.
func (h *Hub) PublishSelection(sessionID string, evt selection.Event) {
	env := envelope{
		sessionID: sessionID,
		message:   Message{Type: MessageTypeSelection, Topic: string(evt.Set), Payload: evt},
	}
	select {
	case h.broadcast <- env:
	default:
		messagesDroppedTotal.Inc()
		h.logger.Warn("Realtime queue full, dropping event", zap.String("sessionID", sessionID), zap.String("kind", string(evt.Kind)))
	}
}

// ClientCount возвращает число подключенных клиентов сессии.
func (h *Hub) ClientCount(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, c := range h.clients {
		if c.SessionID == sessionID {
			n++
		}
	}
	return n
}

// ServeWS переводит запрос в WebSocket и подписывает клиента на все наборы сессии.
// initial вызывается после регистрации клиента, и его сообщения идут в общую
// очередь рассылки: событие, пришедшее во время подключения, не теряется.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, sessionID string, initial func() []Message) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	c := &Client{
		ID:        uuid.New(),
		SessionID: sessionID,
		conn:      conn,
		hub:       h,
		send:      make(chan []byte, sendBuffer),
		topics: map[string]bool{
			string(selection.Comparison): true,
			string(selection.Favorites):  true,
		},
	}

	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return ErrHubStopped
	case <-r.Context().Done():
		conn.Close()
		return r.Context().Err()
	}

	go c.writePump()
	go c.readPump()

	if initial == nil {
		return nil
	}
	for _, m := range initial() {
		select {
		case h.broadcast <- envelope{sessionID: sessionID, clientID: c.ID, message: m}:
		case <-h.done:
			return nil
		}
	}
	return nil
}

func (c *Client) Subscribe(topic string) {
	c.topicsMu.Lock()
	c.topics[topic] = true
	c.topicsMu.Unlock()
}

func (c *Client) Unsubscribe(topic string) {
	c.topicsMu.Lock()
	delete(c.topics, topic)
	c.topicsMu.Unlock()
}

func (c *Client) IsSubscribed(topic string) bool {
	c.topicsMu.RLock()
	defer c.topicsMu.RUnlock()
	return c.topics[topic]
}

// readPump читает команды подписки до закрытия соединения.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Warn("Realtime read error", zap.String("clientID", c.ID.String()), zap.Error(err))
			}
			return
		}

		var cmd struct {
			Action string `json:"action"`
			Topic  string `json:"topic"`
		}
		if err := json.Unmarshal(raw, &cmd); err != nil {
			c.hub.logger.Debug("Ignoring malformed realtime command", zap.Error(err))
			continue
		}
		switch cmd.Action {
		case "subscribe":
			c.Subscribe(cmd.Topic)
		case "unsubscribe":
			c.Unsubscribe(cmd.Topic)
		}
	}
}

// writePump пишет очередь клиента в соединение и шлет ping.
func (c *Client) writePump() {
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
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
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
