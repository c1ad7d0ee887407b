package services

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/spacesugam/RA/internal/config"
	"github.com/spacesugam/RA/internal/models"
)

// Client represents a single WebSocket connection with its own send goroutine.
// ID is the connection handle every other component keys on; Origin is the
// anonymized origin token used for reconnection and profile attribution.
type Client struct {
	ID     string
	Origin string

	conn *websocket.Conn
	send chan []byte
	hub  *Hub

	onMessage func(c *Client, data []byte)
	onClose   func(c *Client)

	// Rate limiting
	messageCount int
	rateLimitMu  sync.Mutex
	lastReset    time.Time

	// Lifecycle
	ctx     context.Context
	cancel  context.CancelFunc
	closed  bool
	closeMu sync.Mutex
}

// NewClient creates a new client instance. onMessage receives every raw
// inbound frame; onClose fires exactly once when the connection dies.
func NewClient(conn *websocket.Conn, hub *Hub, origin string, onMessage func(*Client, []byte), onClose func(*Client)) *Client {
	ctx, cancel := context.WithCancel(context.Background())

	return &Client{
		ID:        uuid.New().String(),
		Origin:    origin,
		conn:      conn,
		send:      make(chan []byte, config.ClientSendBufferSize),
		hub:       hub,
		onMessage: onMessage,
		onClose:   onClose,
		lastReset: time.Now(),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Start begins the client's read and write pumps. Run blocks until the
// read pump exits.
func (c *Client) Start() {
	go c.writePump()
	c.readPump()
}

// writePump handles outgoing messages to the WebSocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(config.PingInterval)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			if !ok {
				_ = c.conn.Close(websocket.StatusNormalClosure, "")
				return
			}

			writeCtx, cancel := context.WithTimeout(c.ctx, config.WriteTimeout)
			err := c.conn.Write(writeCtx, websocket.MessageText, message)
			cancel()

			if err != nil {
				log.Printf("❌ Write error (client=%s): %v", c.ID, err)
				c.hub.metrics.IncrementBroadcastErrors()
				return
			}
			c.hub.metrics.IncrementMessagesSent()

		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(c.ctx, config.WriteTimeout)
			err := c.conn.Ping(pingCtx)
			cancel()

			if err != nil {
				log.Printf("❌ Ping error (client=%s): %v", c.ID, err)
				return
			}

		case <-c.ctx.Done():
			return
		}
	}
}

// readPump handles incoming messages from the WebSocket connection
func (c *Client) readPump() {
	defer func() {
		c.Close()
		if c.onClose != nil {
			c.onClose(c)
		}
	}()

	for {
		readCtx, cancel := context.WithTimeout(c.ctx, config.PongTimeout)
		_, message, err := c.conn.Read(readCtx)
		cancel()

		if err != nil {
			if websocket.CloseStatus(err) != websocket.StatusNormalClosure {
				c.hub.metrics.IncrementConnectionErrors()
			}
			return
		}

		if !c.checkRateLimit() {
			log.Printf("⚠️  Rate limit exceeded (client=%s)", c.ID)
			c.hub.metrics.IncrementRateLimitViolations()
			c.hub.SendToClient(c, &models.WSMessage{
				Type: models.MsgTypeError,
				Payload: map[string]string{
					"message": "Rate limit exceeded. Please slow down.",
				},
			})
			continue
		}

		c.hub.metrics.IncrementMessagesReceived()

		if c.onMessage != nil {
			c.onMessage(c, message)
		}
	}
}

// checkRateLimit verifies the client hasn't exceeded message rate limits
func (c *Client) checkRateLimit() bool {
	c.rateLimitMu.Lock()
	defer c.rateLimitMu.Unlock()

	now := time.Now()
	if now.Sub(c.lastReset) > config.RateLimitWindow {
		c.messageCount = 0
		c.lastReset = now
	}

	c.messageCount++
	return c.messageCount <= config.MaxMessagesPerSecond
}

// Send queues a message for sending to the client
func (c *Client) Send(message []byte) bool {
	c.closeMu.Lock()
	defer c.closeMu.Unlock()

	if c.closed {
		return false
	}

	select {
	case c.send <- message:
		return true
	default:
		// Channel full, client is too slow
		log.Printf("⚠️  Send buffer full, closing slow client (client=%s)", c.ID)
		c.hub.metrics.IncrementBroadcastErrors()
		go c.Close()
		return false
	}
}

// Close cleanly shuts down the client connection
func (c *Client) Close() {
	c.closeMu.Lock()
	defer c.closeMu.Unlock()

	if c.closed {
		return
	}

	c.closed = true
	c.cancel()
	close(c.send)
	_ = c.conn.Close(websocket.StatusNormalClosure, "")
}
