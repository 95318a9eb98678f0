package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/tablemenu/menu-backend/pkg/logger"
)

// Event types pushed to dashboard subscribers.
const (
	EventMenuChanged   = "menu_changed"
	EventAnalytics     = "analytics"
	EventAccessRevoked = "access_revoked" // last frame before the server closes a live stream
)

// Event is the JSON frame sent to dashboard clients. Clients re-fetch the
// named resource on menu_changed; analytics frames carry the snapshot in Data.
type Event struct {
	Type         string      `json:"type"`
	RestaurantID uint        `json:"restaurant_id"`
	Resource     string      `json:"resource,omitempty"` // restaurant, categories, items
	Action       string      `json:"action,omitempty"`   // created, updated, deleted
	ResourceID   uint        `json:"resource_id,omitempty"`
	Data         interface{} `json:"data,omitempty"`
	At           time.Time   `json:"at"`
}

type broadcastMessage struct {
	restaurantID uint
	payload      []byte
}

// Hub fans out restaurant events to the dashboard clients watching that restaurant.
type Hub struct {
	// restaurant ID -> connected clients (several tabs/devices per restaurant)
	clients map[uint]map[*Client]struct{}

	register   chan *Client
	unregister chan *Client
	broadcast  chan *broadcastMessage

	// closed when Run returns; Register and Unregister stop waiting on it
	done     chan struct{}
	stopOnce sync.Once

	mu sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[uint]map[*Client]struct{}),
		register:   make(chan *Client, 256),
		unregister: make(chan *Client, 256),
		broadcast:  make(chan *broadcastMessage, 1024),
		done:       make(chan struct{}),
	}
}

// Run processes registrations and broadcasts until ctx is done, then closes every client.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.stop()
			return

		case client := <-h.register:
			h.mu.Lock()
			set, ok := h.clients[client.RestaurantID]
			if !ok {
				set = make(map[*Client]struct{})
				h.clients[client.RestaurantID] = set
			}
			set[client] = struct{}{}
			total := len(set)
			h.mu.Unlock()
			logger.Info("WebSocket client registered", map[string]interface{}{
				"restaurant_id": client.RestaurantID,
				"user_id":       client.UserID,
				"subscribers":   total,
			})

		case client := <-h.unregister:
			h.remove(client)

		case message := <-h.broadcast:
			h.mu.RLock()
			for client := range h.clients[message.restaurantID] {
				if !client.deliver(message.payload) {
					go h.Unregister(client)
					logger.Warn("Client send buffer full, disconnecting", map[string]interface{}{
						"restaurant_id": client.RestaurantID,
						"user_id":       client.UserID,
					})
					continue
				}
				client.poke()
			}
			h.mu.RUnlock()
		}
	}
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	remaining := 0
	if set, ok := h.clients[client.RestaurantID]; ok {
		if _, present := set[client]; present {
			delete(set, client)
			client.close()
		}
		remaining = len(set)
		if remaining == 0 {
			delete(h.clients, client.RestaurantID)
		}
	}
	h.mu.Unlock()

	logger.Info("WebSocket client unregistered", map[string]interface{}{
		"restaurant_id": client.RestaurantID,
		"user_id":       client.UserID,
		"subscribers":   remaining,
	})
}

func (h *Hub) stop() {
	h.stopOnce.Do(func() {
		close(h.done)
		h.closeAll()
		for {
			select {
			case client := <-h.register:
				client.close()
			case client := <-h.unregister:
				client.close()
			default:
				return
			}
		}
	})
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, set := range h.clients {
		for client := range set {
			client.close()
		}
		delete(h.clients, id)
	}
}

// Publish queues event for every client of restaurantID. It never blocks;
// when the queue is full the event is dropped.
func (h *Hub) Publish(restaurantID uint, event Event) {
	event.RestaurantID = restaurantID
	if event.At.IsZero() {
		event.At = time.Now()
	}

	data, err := json.Marshal(event)
	if err != nil {
		logger.Error("Failed to marshal event", err, map[string]interface{}{
			"restaurant_id": restaurantID,
		})
		return
	}

	select {
	case h.broadcast <- &broadcastMessage{restaurantID: restaurantID, payload: data}:
	default:
		logger.Warn("Broadcast channel full, event dropped", map[string]interface{}{
			"restaurant_id": restaurantID,
			"type":          event.Type,
		})
	}
}

// Register adds client to its restaurant. Once the hub has stopped the
// client is closed right away.
func (h *Hub) Register(client *Client) {
	if h.stopped() {
		client.close()
		return
	}
	select {
	case h.register <- client:
	case <-h.done:
		client.close()
	}
}

func (h *Hub) Unregister(client *Client) {
	if h.stopped() {
		client.close()
		return
	}
	select {
	case h.unregister <- client:
	case <-h.done:
		client.close()
	}
}

func (h *Hub) stopped() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}

// Subscribers returns how many clients watch restaurantID.
func (h *Hub) Subscribers(restaurantID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[restaurantID])
}
