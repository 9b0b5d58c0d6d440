package server

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

// Server wires the HTTP surface: auth endpoints, match history and the
// websocket entry into game rooms.
type Server struct {
	store *Store
	auth  *Auth

	mu     sync.Mutex
	rooms  map[string]*Room
	nextID int
}

// NewServer assembles a server over an open store.
func NewServer(store *Store, auth *Auth) *Server {
	return &Server{
		store: store,
		auth:  auth,
		rooms: make(map[string]*Room),
	}
}

// Router builds the route table.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/api/register", s.handleRegister).Methods("POST")
	r.HandleFunc("/api/login", s.handleLogin).Methods("POST")
	r.HandleFunc("/ws/{token}", s.handleWS)

	secured := r.PathPrefix("/api").Subrouter()
	secured.Use(s.jwtMiddleware)
	secured.HandleFunc("/matches", s.handleMatches).Methods("GET")
	secured.HandleFunc("/rooms", s.handleCreateRoom).Methods("POST")
	return r
}

type claimsKey struct{}

// jwtMiddleware validates the Authorization bearer token.
func (s *Server) jwtMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		const prefix = "Bearer "
		header := r.Header.Get("Authorization")
		if len(header) <= len(prefix) || header[:len(prefix)] != prefix {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		claims, err := s.auth.ValidateToken(header[len(prefix):])
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), claimsKey{}, claims)))
	})
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var creds credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil || creds.Username == "" || len(creds.Password) < 8 {
		writeError(w, http.StatusBadRequest, "username and a password of 8+ characters required")
		return
	}
	hash, err := HashPassword(creds.Password)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "registration failed")
		return
	}
	id, err := s.store.CreateAccount(creds.Username, hash)
	if err != nil {
		writeError(w, http.StatusConflict, "username taken")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"id": id, "username": creds.Username})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var creds credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeError(w, http.StatusBadRequest, "malformed credentials")
		return
	}
	account, err := s.store.AccountByName(creds.Username)
	if err != nil || !CheckPassword(account.PasswordHash, creds.Password) {
		writeError(w, http.StatusUnauthorized, "wrong username or password")
		return
	}
	token, err := s.auth.IssueToken(account.ID, account.Username)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (s *Server) handleMatches(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	matches, err := s.store.RecentMatches(limit)
	if err != nil {
		log.Printf("recent matches: %v", err)
		writeError(w, http.StatusInternalServerError, "match history unavailable")
		return
	}
	writeJSON(w, http.StatusOK, matches)
}

type createRoomRequest struct {
	Seats int   `json:"seats"`
	Seed  int64 `json:"seed"`
}

func (s *Server) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	var req createRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		req = createRoomRequest{}
	}
	if req.Seed == 0 {
		req.Seed = time.Now().UnixNano()
	}

	s.mu.Lock()
	s.nextID++
	id := "room-" + strconv.Itoa(s.nextID)
	room := NewRoom(id, req.Seats, req.Seed, s.store)
	s.rooms[id] = room
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, map[string]interface{}{"roomId": id, "seats": room.maxSeats})
}

// handleWS upgrades the connection and seats it in a room. The room id rides
// in the query string; a missing or unknown id falls back to a shared
// quickmatch room.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	claims, err := s.auth.ValidateToken(vars["token"])
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid token")
		return
	}

	room := s.roomFor(r.URL.Query().Get("room"))

	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("upgrade: %v", err)
		return
	}
	conn := &Conn{
		ws:        ws,
		send:      make(chan []byte, 256),
		accountID: claims.AccountID,
		username:  claims.Username,
	}
	if err := room.Join(conn); err != nil {
		ws.WriteMessage(websocket.TextMessage, []byte(`{"type":"error","data":"`+err.Error()+`"}`))
		ws.Close()
		return
	}
	log.Printf("user %s joined %s (seat %d)", conn.username, room.ID, conn.seat)

	go conn.writePump()
	conn.readPump(room)
}

// roomFor returns the named room, or a shared quickmatch room.
func (s *Server) roomFor(id string) *Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	if room, ok := s.rooms[id]; ok && !room.Started() {
		return room
	}
	const quickmatch = "quickmatch"
	if room, ok := s.rooms[quickmatch]; ok && !room.Started() {
		return room
	}
	room := NewRoom(quickmatch, 2, time.Now().UnixNano(), s.store)
	s.rooms[quickmatch] = room
	return room
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
