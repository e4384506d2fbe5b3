package websocket

import (
	"context"
	"facecam/internal/logger"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// BroadcastQueue is how many frames may wait for delivery before new ones are dropped.
const BroadcastQueue = 4

// WriteTimeout bounds a single frame write to one viewer.
const WriteTimeout = 2 * time.Second

// HubService fans live frames out to connected viewers. The clients map is
// only changed by Run; writes happen outside the lock.
type HubService struct {
	clients      map[*websocket.Conn]bool
	count        atomic.Int32
	broadcast    chan []byte
	register     chan *websocket.Conn
	unregister   chan *websocket.Conn
	done         chan struct{}
	mutex        sync.RWMutex
	writeTimeout time.Duration
	logger       *logger.Logger
}

func NewHubService(logger *logger.Logger) *HubService {
	return &HubService{
		clients:      make(map[*websocket.Conn]bool),
		broadcast:    make(chan []byte, BroadcastQueue),
		register:     make(chan *websocket.Conn),
		unregister:   make(chan *websocket.Conn),
		done:         make(chan struct{}),
		writeTimeout: WriteTimeout,
		logger:       logger,
	}
}

// Run serves register, unregister and broadcast requests until ctx is done,
// then disconnects every client.
func (h *HubService) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return

		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.count.Store(int32(total))
			h.mutex.Unlock()
			h.logger.Info("Viewer connected. Total: %d", total)

		case client := <-h.unregister:
			h.remove(client)

		case message := <-h.broadcast:
			// zapis poza blokadą, wolny widz nie blokuje licznika
			for _, client := range h.snapshot() {
				client.SetWriteDeadline(time.Now().Add(h.writeTimeout))
				if err := client.WriteMessage(websocket.TextMessage, message); err != nil {
					h.logger.Error("Error sending message: %v", err)
					h.remove(client)
				}
			}
		}
	}
}

// Register adds a viewer; after the hub stopped the connection is closed instead.
func (h *HubService) Register(client *websocket.Conn) {
	select {
	case h.register <- client:
	case <-h.done:
		client.Close()
	}
}

func (h *HubService) Unregister(client *websocket.Conn) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Broadcast queues message for all viewers. It never blocks: when the
// queue is full the message is dropped and false is returned.
func (h *HubService) Broadcast(message []byte) bool {
	select {
	case h.broadcast <- message:
		return true
	default:
		return false
	}
}

// GetClientCount returns the number of connected viewers without locking.
func (h *HubService) GetClientCount() int {
	return int(h.count.Load())
}

func (h *HubService) snapshot() []*websocket.Conn {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	clients := make([]*websocket.Conn, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	return clients
}

func (h *HubService) remove(client *websocket.Conn) {
	h.mutex.Lock()
	_, ok := h.clients[client]
	if ok {
		delete(h.clients, client)
		client.Close()
	}
	total := len(h.clients)
	h.count.Store(int32(total))
	h.mutex.Unlock()

	if ok {
		h.logger.Info("Viewer disconnected. Total: %d", total)
	}
}

func (h *HubService) closeAll() {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	for client := range h.clients {
		client.Close()
		delete(h.clients, client)
	}
	h.count.Store(0)
}
