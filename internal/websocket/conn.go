package websocket

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/tablemenu/menu-backend/pkg/logger"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Dashboard clients only send small control frames.
	maxMessageSize = 4 * 1024

	sendBuffer = 32
)

// Client is one dashboard connection watching a single restaurant.
type Client struct {
	RestaurantID uint
	UserID       uint

	hub  *Hub
	conn *websocket.Conn

	send    chan []byte
	refresh chan struct{}
	done    chan struct{}

	mu     sync.Mutex
	closed bool
}

// NewClient wraps conn. conn may be nil in tests that only exercise the hub.
func NewClient(hub *Hub, conn *websocket.Conn, restaurantID, userID uint) *Client {
	return &Client{
		RestaurantID: restaurantID,
		UserID:       userID,
		hub:          hub,
		conn:         conn,
		send:         make(chan []byte, sendBuffer),
		refresh:      make(chan struct{}, 1),
		done:         make(chan struct{}),
	}
}

// Refresh fires after every broadcast to this client's restaurant.
func (c *Client) Refresh() <-chan struct{} {
	return c.refresh
}

// Done is closed once the hub drops the client.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Messages exposes the outbound queue for tests.
func (c *Client) Messages() <-chan []byte {
	return c.send
}

// Enqueue marshals v and queues it for this client only.
func (c *Client) Enqueue(v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if !c.deliver(data) {
		logger.Warn("Client send buffer full, message dropped", map[string]interface{}{
			"restaurant_id": c.RestaurantID,
			"user_id":       c.UserID,
		})
	}
	return nil
}

func (c *Client) deliver(payload []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return true
	}
	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

func (c *Client) poke() {
	select {
	case c.refresh <- struct{}{}:
	default:
	}
}

func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
	close(c.done)
}

// ReadPump drains inbound frames so pongs and close frames are processed.
// Any text frame from the dashboard is treated as a refresh request.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, _, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Error("WebSocket read error", err, map[string]interface{}{
					"restaurant_id": c.RestaurantID,
					"user_id":       c.UserID,
				})
			}
			return
		}
		c.poke()
	}
}

// WritePump writes queued frames and keeps the connection alive with pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				logger.Error("Failed to write message", err, map[string]interface{}{
					"restaurant_id": c.RestaurantID,
				})
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
