package api

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/hoffmang9/greenfloor/internal/daemon"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all for local admin dashboard
	},
}

// Hub maintains the set of active websocket clients and broadcasts
// daemon cycle events to them, ported from the teacher's Hub but
// pushing GreenFloor's own cycle summaries instead of CoinJoin alerts.
type Hub struct {
	clients   map[*websocket.Conn]bool
	broadcast chan []byte
	mutex     sync.Mutex
}

func NewHub() *Hub {
	return &Hub{
		broadcast: make(chan []byte, 256),
		clients:   make(map[*websocket.Conn]bool),
	}
}

func (h *Hub) Run() {
	for message := range h.broadcast {
		h.mutex.Lock()
		for client := range h.clients {
			_ = client.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := client.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Printf("Websocket write error: %v", err)
				client.Close()
				delete(h.clients, client)
			}
		}
		h.mutex.Unlock()
	}
}

// Subscribe handles incoming websocket connections.
func (h *Hub) Subscribe(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("Failed to upgrade websocket: %v", err)
		return
	}

	h.mutex.Lock()
	h.clients[conn] = true
	h.mutex.Unlock()

	log.Printf("New WebSocket client connected. Total clients: %d", len(h.clients))

	go func() {
		defer func() {
			h.mutex.Lock()
			delete(h.clients, conn)
			h.mutex.Unlock()
			conn.Close()
			log.Printf("WebSocket client disconnected. Total clients: %d", len(h.clients))
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					log.Printf("WebSocket error: %v", err)
				}
				break
			}
		}
	}()
}

// Broadcast sends raw JSON to all connected clients.
func (h *Hub) Broadcast(data []byte) {
	h.broadcast <- data
}

// BroadcastCycleSummary pushes one daemon cycle's summary to every
// connected admin dashboard client, the websocket counterpart of
// internal/store's daemon_cycle_summary audit event — call this from
// cmd/greenfloord right after Cycle.Run returns.
func BroadcastCycleSummary(hub *Hub, summary daemon.Summary) {
	if hub == nil {
		return
	}
	payload, err := json.Marshal(gin.H{
		"type":    "daemon_cycle_summary",
		"summary": summary,
	})
	if err != nil {
		return
	}
	hub.Broadcast(payload)
}
