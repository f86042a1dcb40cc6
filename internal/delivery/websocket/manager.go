package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"slices"
	"sync"
	"time"

	"studio-server/internal/messaging"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Темы, на которые подписан клиент студии.
const (
	TopicUploadProgress = "upload_progress"
	TopicStudioEvent    = "studio_event"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second
	maxMessageSize = 512
	sendBuffer     = 256
)

// Manager управляет WebSocket-соединениями студии. Каждый клиент привязан к
// одной сессии редактора и получает только её сообщения.
type Manager struct {
	clients    map[uuid.UUID]*Client
	register   chan *Client
	unregister chan *Client
	broadcast  chan Message
	done       chan struct{}
	mu         sync.RWMutex
	upgrader   websocket.Upgrader
	logger     *zap.Logger
}

// Client представляет WebSocket-клиента
type Client struct {
	ID        uuid.UUID
	SessionID string
	OwnerID   string
	conn      *websocket.Conn
	manager   *Manager
	send      chan []byte

	topicsMu sync.RWMutex
	topics   map[string]bool
}

// Message представляет сообщение для отправки через WebSocket
type Message struct {
	Type    string `json:"type"`
	Topic   string `json:"topic"`
	Payload any    `json:"payload"`

	// SessionID is the routing key and is not sent to the browser.
	SessionID string `json:"-"`
}

// UploadProgress is the payload of TopicUploadProgress messages.
type UploadProgress struct {
	LessonID string `json:"lesson_id"`
	Percent  int    `json:"percent"`
}

// NewManager создает новый экземпляр Manager. An empty allowedOrigins accepts any origin.
func NewManager(allowedOrigins []string, logger *zap.Logger) *Manager {
	m := &Manager{
		clients:    make(map[uuid.UUID]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan Message, sendBuffer),
		done:       make(chan struct{}),
		logger:     logger.Named("WebSocketManager"),
	}
	m.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return len(allowedOrigins) == 0 || origin == "" || slices.Contains(allowedOrigins, origin)
		},
	}
	return m
}

// Start запускает цикл менеджера до отмены ctx.
func (m *Manager) Start(ctx context.Context) {
	go m.run(ctx)
}

func (m *Manager) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(m.done)
			m.mu.Lock()
			for id, client := range m.clients {
				close(client.send)
				delete(m.clients, id)
			}
			m.mu.Unlock()
			m.logger.Info("WebSocket manager stopped")
			return

		case client := <-m.register:
			m.mu.Lock()
			m.clients[client.ID] = client
			m.mu.Unlock()
			m.logger.Debug("Client connected", zap.Stringer("clientID", client.ID), zap.String("sessionID", client.SessionID))

		case client := <-m.unregister:
			m.drop(client)

		case message := <-m.broadcast:
			data, err := json.Marshal(message)
			if err != nil {
				m.logger.Error("Failed to marshal websocket message", zap.String("type", message.Type), zap.Error(err))
				continue
			}
			var slow []*Client
			m.mu.RLock()
			for _, client := range m.clients {
				if client.SessionID != message.SessionID || !client.IsSubscribed(message.Topic) {
					continue
				}
				select {
				case client.send <- data:
				default:
					slow = append(slow, client)
				}
			}
			m.mu.RUnlock()
			for _, client := range slow {
				m.logger.Warn("Dropping slow websocket client", zap.Stringer("clientID", client.ID))
				m.drop(client)
			}
		}
	}
}

func (m *Manager) drop(client *Client) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.clients[client.ID]; ok {
		close(client.send)
		delete(m.clients, client.ID)
		m.logger.Debug("Client disconnected", zap.Stringer("clientID", client.ID))
	}
}

// ServeWS upgrades the request and binds the connection to a session.
// Callers check that ownerID may watch sessionID before calling it.
func (m *Manager) ServeWS(w http.ResponseWriter, r *http.Request, sessionID, ownerID string) {
	conn, err := m.upgrader.Upgrade(w, r, nil)
	if err != nil {
		m.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}

	client := &Client{
		ID:        uuid.New(),
		SessionID: sessionID,
		OwnerID:   ownerID,
		conn:      conn,
		manager:   m,
		send:      make(chan []byte, sendBuffer),
		topics:    map[string]bool{TopicUploadProgress: true, TopicStudioEvent: true},
	}
	select {
	case m.register <- client:
	case <-m.done:
		conn.Close()
		return
	}

	go client.readPump()
	go client.writePump()
}

// ClientCount returns how many connections watch the session.
func (m *Manager) ClientCount(sessionID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, c := range m.clients {
		if c.SessionID == sessionID {
			n++
		}
	}
	return n
}

func (m *Manager) send(msg Message) {
	select {
	case m.broadcast <- msg:
	default:
		m.logger.Warn("WebSocket broadcast queue full, message dropped",
			zap.String("type", msg.Type), zap.String("sessionID", msg.SessionID))
	}
}

// UploadProgress sends the upload percentage of a lesson to the session's clients.
func (m *Manager) UploadProgress(sessionID, lessonID string, percent int) {
	m.send(Message{
		Type:      string(messaging.EventUploadProgress),
		Topic:     TopicUploadProgress,
		Payload:   UploadProgress{LessonID: lessonID, Percent: percent},
		SessionID: sessionID,
	})
}

// PublishStudioEvent delivers the event to the browser tabs of its session.
func (m *Manager) PublishStudioEvent(_ context.Context, event messaging.StudioEvent) error {
	m.send(Message{
		Type:      string(event.Kind),
		Topic:     TopicStudioEvent,
		Payload:   event,
		SessionID: event.SessionID,
	})
	return nil
}

// readPump обрабатывает входящие команды подписки от клиента
func (c *Client) readPump() {
	defer func() {
		select {
		case c.manager.unregister <- c:
		case <-c.manager.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.manager.logger.Warn("WebSocket read error", zap.Stringer("clientID", c.ID), zap.Error(err))
			}
			return
		}

		var cmd struct {
			Action string `json:"action"`
			Topic  string `json:"topic"`
		}
		if err := json.Unmarshal(message, &cmd); err != nil {
			c.manager.logger.Debug("Ignoring malformed websocket command", zap.Error(err))
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

// writePump отправляет сообщения клиенту и пингует его
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			// одно сообщение на фрейм: браузер парсит каждый фрейм как JSON
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
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

func (c *Client) Subscribe(topic string) {
	if topic != TopicUploadProgress && topic != TopicStudioEvent {
		return
	}
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
