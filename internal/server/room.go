package server

import (
	"encoding/json"
	"errors"
	"log"
	"sync"

	"github.com/beckworth/redoubt/internal/game"
)

var seatColors = []string{"#c83c3c", "#466edc", "#dcb43c", "#5abe78"}

// clientMessage is the inbound wire envelope.
type clientMessage struct {
	Type    string        `json:"type"`
	Command *game.Command `json:"command,omitempty"`
	Ready   bool          `json:"ready,omitempty"`
}

// serverMessage is the outbound wire envelope.
type serverMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// lobbySeat is one seat's public lobby state.
type lobbySeat struct {
	Seat     int    `json:"seat"`
	Username string `json:"username,omitempty"`
	Bot      bool   `json:"bot"`
	Ready    bool   `json:"ready"`
}

// Room holds a lobby and, once every human seat is ready, the match engine.
// Empty seats are filled with bots at start so a single player can always
// launch a game.
type Room struct {
	ID string

	hub      *Hub
	recorder game.MatchRecorder
	seed     int64
	maxSeats int

	mu      sync.Mutex
	conns   map[int]*Conn // seat -> connection
	ready   map[int]bool
	eng     *game.Engine
	started bool
}

// NewRoom creates a room. The recorder may be nil when persistence is off.
func NewRoom(id string, maxSeats int, seed int64, recorder game.MatchRecorder) *Room {
	if maxSeats < 2 {
		maxSeats = 2
	}
	if maxSeats > 4 {
		maxSeats = 4
	}
	r := &Room{
		ID:       id,
		hub:      NewHub(),
		recorder: recorder,
		seed:     seed,
		maxSeats: maxSeats,
		conns:    make(map[int]*Conn),
		ready:    make(map[int]bool),
	}
	go r.hub.Run()
	return r
}

// Join assigns the lowest free seat and registers the connection.
func (r *Room) Join(c *Conn) error {
	r.mu.Lock()
	if r.started {
		r.mu.Unlock()
		return errors.New("match already running")
	}
	seat := -1
	for s := 1; s <= r.maxSeats; s++ {
		if _, taken := r.conns[s]; !taken {
			seat = s
			break
		}
	}
	if seat < 0 {
		r.mu.Unlock()
		return errors.New("room is full")
	}
	c.seat = seat
	r.conns[seat] = c
	r.mu.Unlock()

	r.hub.register <- c
	r.broadcastLobby()
	return nil
}

// Leave releases the connection's seat. A running match keeps the seat alive
// so the engine state stays consistent; the player may not return.
func (r *Room) Leave(c *Conn) {
	r.mu.Lock()
	if r.conns[c.seat] == c {
		delete(r.conns, c.seat)
		delete(r.ready, c.seat)
	}
	started := r.started
	r.mu.Unlock()
	if !started {
		r.broadcastLobby()
	}
}

// HandleMessage routes one inbound message from a seated connection.
func (r *Room) HandleMessage(c *Conn, raw []byte) {
	var msg clientMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		log.Printf("room %s: bad message from seat %d: %v", r.ID, c.seat, err)
		return
	}
	switch msg.Type {
	case "ready":
		r.setReady(c.seat, msg.Ready)
	case "command":
		if msg.Command == nil {
			return
		}
		r.mu.Lock()
		eng := r.eng
		r.mu.Unlock()
		if eng != nil {
			eng.HandleCommand(c.seat, *msg.Command)
		}
	default:
		log.Printf("room %s: unknown message type %q from seat %d", r.ID, msg.Type, c.seat)
	}
}

func (r *Room) setReady(seat int, ready bool) {
	r.mu.Lock()
	if r.started {
		r.mu.Unlock()
		return
	}
	r.ready[seat] = ready
	allReady := len(r.conns) > 0
	for s := range r.conns {
		if !r.ready[s] {
			allReady = false
			break
		}
	}
	r.mu.Unlock()

	r.broadcastLobby()
	if allReady {
		r.Start()
	}
}

// Start launches the engine, filling empty seats with bots. Idempotent.
func (r *Room) Start() {
	r.mu.Lock()
	if r.started {
		r.mu.Unlock()
		return
	}
	r.started = true

	roster := make([]game.PlayerInfo, 0, r.maxSeats)
	for s := 1; s <= r.maxSeats; s++ {
		info := game.PlayerInfo{
			ID:      s,
			Color:   seatColors[s-1],
			Faction: "legion",
		}
		if c, ok := r.conns[s]; ok {
			info.Name = c.username
		} else {
			info.Name = "bot"
			info.Bot = true
		}
		roster = append(roster, info)
	}

	r.eng = game.New(game.MatchConfig{
		MatchID:  r.ID,
		Seed:     r.seed,
		Players:  roster,
		Recorder: r.recorder,
		Broadcast: func(snap *game.Snapshot) {
			r.send("snapshot", snap)
		},
		OnGameOver: func(ev game.GameOverEvent) {
			r.send("gameOver", ev)
			log.Printf("room %s: match over, winner seat %d", r.ID, ev.WinnerID)
		},
	})
	eng := r.eng
	r.mu.Unlock()

	r.send("matchStart", map[string]interface{}{"roomId": r.ID, "seats": len(roster)})
	eng.Start()
}

// Stop halts the match and the hub.
func (r *Room) Stop() {
	r.mu.Lock()
	eng := r.eng
	r.mu.Unlock()
	if eng != nil {
		eng.Stop()
	}
	r.hub.Stop()
}

// Started reports whether the match engine is running.
func (r *Room) Started() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.started
}

func (r *Room) send(msgType string, data interface{}) {
	raw, err := json.Marshal(serverMessage{Type: msgType, Data: data})
	if err != nil {
		log.Printf("room %s: marshal %s: %v", r.ID, msgType, err)
		return
	}
	r.hub.Broadcast(raw)
}

func (r *Room) broadcastLobby() {
	r.mu.Lock()
	seats := make([]lobbySeat, 0, r.maxSeats)
	for s := 1; s <= r.maxSeats; s++ {
		ls := lobbySeat{Seat: s, Bot: true}
		if c, ok := r.conns[s]; ok {
			ls.Username = c.username
			ls.Bot = false
			ls.Ready = r.ready[s]
		}
		seats = append(seats, ls)
	}
	r.mu.Unlock()
	r.send("lobby", seats)
}
