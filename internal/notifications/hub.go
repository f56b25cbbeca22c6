package notifications

import (
	"context"
	"errors"
	"log"
	"sync"

	"codefolio/internal/observability"

	"github.com/gofiber/websocket/v2"
	"github.com/redis/go-redis/v9"
)

const (
	// Max connections per user
	maxConnsPerUser = 12
	// Max total connections
	maxTotalConns = 10000
)

// Hub is a websocket hub that maps userID -> list of Clients.
type Hub struct {
	mu         sync.RWMutex
	conns      map[uint]map[*Client]struct{}
	totalConns int
	shutdown   chan struct{}
	done       chan struct{}
	presence   *Presence
	wsLog      *observability.WSLogger
}

// NewHub creates a new Hub instance for delivering notifications.
func NewHub(redisClients ...*redis.Client) *Hub {
	var redisClient *redis.Client
	if len(redisClients) > 0 {
		redisClient = redisClients[0]
	}

	return &Hub{
		conns:    make(map[uint]map[*Client]struct{}),
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		presence: NewPresence(redisClient),
		wsLog:    observability.NewWSLogger("notifications"),
	}
}

// Name returns a human-readable identifier for this hub.
func (h *Hub) Name() string { return "notification hub" }

// Register a connection for a given userID. Returns the Client or error if limits exceeded.
func (h *Hub) Register(userID uint, conn *websocket.Conn) (*Client, error) {
	h.mu.Lock()

	if h.totalConns >= maxTotalConns {
		h.mu.Unlock()
		return nil, errors.New("server connection limit reached")
	}

	m, ok := h.conns[userID]
	if !ok {
		m = make(map[*Client]struct{})
		h.conns[userID] = m
	}

	if len(m) >= maxConnsPerUser {
		h.mu.Unlock()
		return nil, errors.New("user connection limit reached")
	}

	client := NewClient(h, conn, userID)
	client.OnActivity = func(uid uint) {
		if h.presence != nil {
			h.presence.Touch(context.Background(), uid)
		}
	}

	m[client] = struct{}{}
	h.totalConns++
	h.mu.Unlock()

	observability.WebSocketConnectionsTotal.Inc()
	if h.presence != nil {
		h.presence.Register(context.Background(), userID)
	}
	h.wsLog.LogConnect(context.Background(), userID)

	return client, nil
}

func (h *Hub) UnregisterClient(client *Client) {
	h.mu.Lock()
	removedClient := false
	if m, ok := h.conns[client.UserID]; ok {
		if _, exists := m[client]; exists {
			delete(m, client)
			h.totalConns--
			removedClient = true
		}
		if len(m) == 0 {
			delete(h.conns, client.UserID)
		}
	}
	h.mu.Unlock()

	if removedClient {
		observability.WebSocketConnectionsTotal.Dec()
		if h.presence != nil {
			h.presence.Unregister(context.Background(), client.UserID)
		}
		h.wsLog.LogDisconnect(context.Background(), client.UserID, "unregistered")
	}
}

// Broadcast sends message to all connections for userID.
func (h *Hub) Broadcast(userID uint, message string) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if clients, ok := h.conns[userID]; ok {
		data := []byte(message)
		for c := range clients {
			c.TrySend(data)
		}
	}
}

// BroadcastAll sends message to every connected websocket client.
func (h *Hub) BroadcastAll(message string) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	data := []byte(message)
	for _, clients := range h.conns {
		for c := range clients {
			c.TrySend(data)
		}
	}
}

// IsOnline reports whether a user currently has at least one active websocket connection.
func (h *Hub) IsOnline(userID uint) bool {
	if h.presence != nil {
		return h.presence.IsOnline(context.Background(), userID)
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	clients, ok := h.conns[userID]
	return ok && len(clients) > 0
}

// StartWiring connects the Notifier to this hub: it subscribes to the Redis
// pattern and forwards messages to matching userID connections.
func (h *Hub) StartWiring(ctx context.Context, n *Notifier) error {
	return n.StartPatternSubscriber(ctx, func(channel, payload string) {
		if channel == broadcastChannel {
			h.BroadcastAll(payload)
			return
		}
		userID, err := ParseUserChannel(channel)
		if err != nil {
			log.Printf("invalid notification channel: %s", channel)
			return
		}
		h.Broadcast(userID, payload)
	})
}

// Shutdown gracefully closes all websocket connections.
func (h *Hub) Shutdown(ctx context.Context) error {
	close(h.shutdown)

	if h.presence != nil {
		h.presence.Stop()
	}

	h.mu.Lock()
	for userID, userConns := range h.conns {
		for client := range userConns {
			if client.Conn == nil {
				continue
			}
			if err := client.Conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "Server shutting down")); err != nil {
				log.Printf("failed to write close message for user %d: %v", userID, err)
			}
			if err := client.Conn.Close(); err != nil {
				log.Printf("failed to close websocket for user %d: %v", userID, err)
			}
		}
	}
	h.conns = make(map[uint]map[*Client]struct{})
	h.totalConns = 0
	h.mu.Unlock()

	h.wsLog.LogLifecycle(ctx, "shutdown", nil)
	close(h.done)

	return nil
}
