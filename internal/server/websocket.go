package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/acheong08/depvis/internal/config"
	"github.com/acheong08/depvis/internal/decorate"
)

// WebSocket upgrader
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Handler upgrades requests to WebSocket connections and serves visualize
// requests on them.
type Handler struct {
	client decorate.MetadataClient
	config *config.Config
}

// NewHandler creates a WebSocket handler. client may be nil, in which case
// metadata checks are rejected.
func NewHandler(client decorate.MetadataClient, cfg *config.Config) *Handler {
	return &Handler{client: client, config: cfg}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Failed to upgrade connection: %v", err)
		return
	}

	c := newConnection(conn, h)

	// Start goroutines for reading and writing
	go c.writePump()
	go c.readPump()
}

// connection represents a connected WebSocket client
type connection struct {
	conn    *websocket.Conn
	handler *Handler
	send    chan Message
	done    chan struct{}

	// One visualization at a time
	mu     sync.Mutex
	cancel context.CancelFunc
}

func newConnection(conn *websocket.Conn, h *Handler) *connection {
	return &connection{
		conn:    conn,
		handler: h,
		send:    make(chan Message, 256),
		done:    make(chan struct{}),
	}
}

func (c *connection) SendMessage(msg Message) {
	select {
	case <-c.done:
	case c.send <- msg:
	default:
		// Channel full, drop message
		log.Println("Warning: message channel full, dropping message")
	}
}

func (c *connection) SendLog(message, level string) {
	c.SendMessage(NewLogMessage(message, level))
}

func (c *connection) SendProgress(percent int, stage, message string) {
	c.SendMessage(NewProgressMessage(percent, stage, message))
}

func (c *connection) SendError(message string, err error) {
	c.SendMessage(NewErrorMessage(message, err))
}

func (c *connection) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case msg := <-c.send:
			if err := c.conn.WriteJSON(msg); err != nil {
				log.Printf("Error writing message: %v", err)
				return
			}

		case <-ticker.C:
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *connection) readPump() {
	defer func() {
		// Cancel any running visualization
		c.mu.Lock()
		if c.cancel != nil {
			c.cancel()
		}
		c.mu.Unlock()
		close(c.done)
		c.conn.Close()
	}()

	for {
		var msg Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			return
		}

		switch msg.Type {
		case TypeVisualize:
			c.handleVisualize(msg)
		case TypePing:
			c.SendMessage(NewPongMessage())
		default:
			c.SendError(fmt.Sprintf("Unknown message type: %s", msg.Type), nil)
		}
	}
}

func (c *connection) handleVisualize(msg Message) {
	payload, err := ParseVisualizePayload(msg)
	if err != nil {
		c.SendError("Failed to parse visualize request", err)
		return
	}

	c.mu.Lock()
	if c.cancel != nil {
		c.mu.Unlock()
		c.SendError("Visualization already in progress", nil)
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.mu.Unlock()

	go func() {
		defer func() {
			c.mu.Lock()
			c.cancel = nil
			c.mu.Unlock()
			cancel()
		}()

		pipeline := NewPipeline(c.handler.client, c.handler.config, c)
		n, err := pipeline.Run(ctx, payload)
		if err != nil {
			if ctx.Err() == context.Canceled {
				c.SendLog("Visualization cancelled", "warning")
			} else {
				c.SendError("Visualization failed", err)
			}
			return
		}

		c.SendMessage(NewCompleteMessage(true, "Visualization complete", n))
	}()
}
