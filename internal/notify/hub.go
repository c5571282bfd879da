package notify

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Hub fans out fired Notifications to any connected listener. A listener
// here represents an external push-notification sender process, not the
// web UI.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan Notification

	errLog  *log.Logger
	infoLog *log.Logger

	running bool
	Stop    chan struct{}

	WaitGroup *sync.WaitGroup
}

func NewHub(errLog, infoLog *log.Logger) *Hub {
	if errLog == nil {
		errLog = log.Default()
	}
	if infoLog == nil {
		infoLog = log.Default()
	}
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan Notification, 64),
		errLog:     errLog,
		infoLog:    infoLog,
		Stop:       make(chan struct{}),
	}
}

// Emit is fire-and-forget: it never blocks the control loop, per spec
// §4.6 ("Emission is fire-and-forget... transport errors MUST NOT block
// the loop"). If the broadcast channel is full, the notification is
// dropped and logged rather than stalling the caller.
func (h *Hub) Emit(n Notification) {
	select {
	case h.broadcast <- n:
	default:
		h.errLog.Printf("notify: broadcast channel full, dropping event %s", n.Event)
	}
}

func (h *Hub) Run() {
	h.infoLog.Println("starting notification hub run loop")
	if h.WaitGroup != nil {
		h.WaitGroup.Add(1)
		defer h.WaitGroup.Done()
	}
	h.running = true
	for h.running {
		select {
		case client := <-h.register:
			h.clients[client] = true
			h.infoLog.Printf("registered new notification listener")
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.infoLog.Printf("unregistered notification listener")
		case n := <-h.broadcast:
			payload, err := json.Marshal(&n)
			if err != nil {
				h.errLog.Printf("notify: marshal failed: %v", err)
				continue
			}
			for client := range h.clients {
				select {
				case client.send <- payload:
				default:
					close(client.send)
					delete(h.clients, client)
				}
			}
		case <-h.Stop:
			for client := range h.clients {
				select {
				case client.send <- []byte(`{"event":"shutdown"}`):
				default:
				}
				close(client.send)
			}
			h.running = false
			h.infoLog.Println("stopped notification hub run loop")
		}
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// ServeHTTP upgrades an incoming request to a WebSocket connection and
// registers it as a listener, adapted from hub.Hub.ServeHTTP.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.errLog.Println(err)
		return
	}
	client := &Client{hub: h, conn: conn, send: make(chan []byte, 256)}
	h.register <- client

	go client.writePump()
	go client.readPump()
}

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// Client is one registered WebSocket listener, following the standard
// gorilla/websocket hub/conn/send pattern.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

func (c *Client) writePump() {
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

// readPump drains and discards incoming frames (this connection is
// receive-only for the client) purely to detect disconnects and keep the
// read deadline honored, then unregisters on exit.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := c.conn.NextReader(); err != nil {
			return
		}
	}
}
