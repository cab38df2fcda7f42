package main

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

var errConnClosed = errors.New("connection closed")

// client is one websocket connection. The player binding is set by the router
// once the connection has identified; only the router goroutine touches it.
type client struct {
	conn   *websocket.Conn
	send   chan Message
	player *Player
	closed bool
}

func newClient(conn *websocket.Conn) *client {
	return &client{
		conn: conn,
		send: make(chan Message, 8),
	}
}

// write queues a message for the connection. It never blocks the router: a
// full buffer or a closed connection is a delivery failure for the caller to
// log, nothing more.
func (c *client) write(msg Message) error {
	if c.closed {
		return errConnClosed
	}

	select {
	case c.send <- msg:
		return nil
	default:
		return errors.New("send buffer full")
	}
}

// detach stops deliveries to this connection. The bound player, if any, stays
// registered with this stale handle until a re-join replaces it.
func (c *client) detach() {
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

func (c *client) readPump(rt *Router) {
	defer func() {
		rt.inbox <- inbound{client: c, gone: true}
		_ = c.conn.Close()
	}()

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var msg inboundMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			rt.inbox <- inbound{client: c, err: err}
			continue
		}

		rt.inbox <- inbound{client: c, msg: msg}
	}
}

func (c *client) writePump() {
	defer c.conn.Close()

	for msg := range c.send {
		if err := c.conn.WriteJSON(msg); err != nil {
			return
		}
	}
}

func serveWS(rt *Router) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Println("upgrade error:", err)
			return
		}

		c := newClient(conn)

		go c.writePump()
		c.readPump(rt)
	}
}

// QR handler: generates a PNG QR code for joining a game, so the id can be
// shared by pointing a phone at the host's screen.
func qrHandler(cfg *Config) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		gameID := ps.ByName("gameid")
		if gameID == "" {
			http.Error(w, "missing game id", http.StatusBadRequest)
			return
		}

		// Derive scheme (respecting TLS and X-Forwarded-Proto if present).
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
			scheme = proto
		}

		url := scheme + "://" + r.Host + cfg.prefix + "/#" + strings.ToLower(gameID)

		const qrSize = 320 // mobile-friendly size
		png, err := qrcode.Encode(url, qrcode.Medium, qrSize)
		if err != nil {
			http.Error(w, "qr generation failed", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(png)
	}
}
