package handlers

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/evalforge-dev/evalforge/internal/types"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var (
	wsClients   = make(map[*websocket.Conn]bool)
	wsClientsMu sync.RWMutex
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		for _, allowed := range types.AllowedOrigins {
			if origin == allowed {
				return true
			}
		}
		return false
	},
}

// BroadcastRefresh tells every connected client to refetch. Fired after
// scheduler executions and evaluation completions mutate state.
func BroadcastRefresh() {
	wsClientsMu.RLock()
	clients := make([]*websocket.Conn, 0, len(wsClients))
	for conn := range wsClients {
		clients = append(clients, conn)
	}
	wsClientsMu.RUnlock()

	for _, conn := range clients {
		if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
			continue
		}

		if err := conn.WriteJSON(map[string]string{"type": "refresh"}); err != nil {
			log.Printf("Failed to broadcast refresh: %v", err)
			removeClient(conn)
		}
	}
}

func removeClient(conn *websocket.Conn) {
	wsClientsMu.Lock()
	delete(wsClients, conn)
	wsClientsMu.Unlock()
	conn.Close()
}

// WebSocket upgrades the connection and keeps it registered for refresh
// broadcasts until the client goes away.
func WebSocket(ctx *gin.Context) {
	conn, err := upgrader.Upgrade(ctx.Writer, ctx.Request, nil)

	if err != nil {
		log.Printf("Failed to upgrade websocket: %v", err)
		return
	}

	wsClientsMu.Lock()
	wsClients[conn] = true
	wsClientsMu.Unlock()

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	go func() {
		ticker := time.NewTicker(pingPeriod)
		defer func() {
			ticker.Stop()
			removeClient(conn)
		}()

		for range ticker.C {
			if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}()

	go func() {
		defer removeClient(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
