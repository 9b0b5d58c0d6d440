package server

import (
	"log"
	"net/http"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Conn is one websocket connection bound to a seat in a room.
type Conn struct {
	ws        *websocket.Conn
	send      chan []byte
	accountID int64
	username  string
	seat      int
}

// readPump feeds inbound messages to the room until the socket closes.
func (c *Conn) readPump(room *Room) {
	defer func() {
		room.hub.unregister <- c
		room.Leave(c)
		c.ws.Close()
		log.Printf("user %s (seat %d) disconnected", c.username, c.seat)
	}()
	for {
		_, message, err := c.ws.ReadMessage()
		if err != nil {
			return
		}
		room.HandleMessage(c, message)
	}
}

// writePump drains the send channel to the socket. The hub closes the
// channel when the connection is dropped.
func (c *Conn) writePump() {
	defer c.ws.Close()
	for message := range c.send {
		if err := c.ws.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
}
