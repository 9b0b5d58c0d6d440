package server

// Hub fans messages out to every connection in one room. Slow consumers are
// dropped rather than allowed to stall the tick broadcast.
type Hub struct {
	connections map[*Conn]bool
	broadcast   chan []byte
	register    chan *Conn
	unregister  chan *Conn
	done        chan struct{}
}

// NewHub creates a hub. Call Run in its own goroutine.
func NewHub() *Hub {
	return &Hub{
		connections: make(map[*Conn]bool),
		broadcast:   make(chan []byte, 64),
		register:    make(chan *Conn),
		unregister:  make(chan *Conn),
		done:        make(chan struct{}),
	}
}

// Run owns the connection set until Stop is called.
func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			for c := range h.connections {
				close(c.send)
				delete(h.connections, c)
			}
			return
		case c := <-h.register:
			h.connections[c] = true
		case c := <-h.unregister:
			if _, ok := h.connections[c]; ok {
				delete(h.connections, c)
				close(c.send)
			}
		case message := <-h.broadcast:
			for c := range h.connections {
				select {
				case c.send <- message:
				default:
					close(c.send)
					delete(h.connections, c)
				}
			}
		}
	}
}

// Stop shuts the hub down and closes every connection's send channel.
func (h *Hub) Stop() {
	close(h.done)
}

// Broadcast queues a message for every connection. Never blocks the caller;
// if the hub's queue is full the message is dropped (the next snapshot
// supersedes it anyway).
func (h *Hub) Broadcast(message []byte) {
	select {
	case h.broadcast <- message:
	default:
	}
}
