package server

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/beckworth/redoubt/internal/game"
)

// Store wraps the postgres connection. It doubles as the engine's match
// recorder, so finished matches land in the same database as accounts.
type Store struct {
	db *sql.DB
}

// OpenStore connects to postgres and verifies the connection.
func OpenStore(cfg *Config) (*Store, error) {
	connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName)
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// Migrate creates the schema if it does not exist yet.
func (s *Store) Migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS accounts (
			id SERIAL PRIMARY KEY,
			username TEXT UNIQUE NOT NULL,
			password_hash TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS matches (
			id SERIAL PRIMARY KEY,
			match_id TEXT UNIQUE NOT NULL,
			winner_seat INT NOT NULL,
			duration_seconds INT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS match_players (
			match_id TEXT NOT NULL,
			seat INT NOT NULL,
			color TEXT NOT NULL,
			faction TEXT NOT NULL,
			PRIMARY KEY (match_id, seat)
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// Account is one registered user.
type Account struct {
	ID           int64
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

// CreateAccount inserts a new account and returns its id.
func (s *Store) CreateAccount(username, passwordHash string) (int64, error) {
	var id int64
	err := s.db.QueryRow(
		`INSERT INTO accounts (username, password_hash) VALUES ($1, $2) RETURNING id`,
		username, passwordHash,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create account %q: %w", username, err)
	}
	return id, nil
}

// AccountByName fetches an account, or sql.ErrNoRows.
func (s *Store) AccountByName(username string) (*Account, error) {
	a := &Account{}
	err := s.db.QueryRow(
		`SELECT id, username, password_hash, created_at FROM accounts WHERE username = $1`,
		username,
	).Scan(&a.ID, &a.Username, &a.PasswordHash, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// RecordMatch persists a finished match. Implements game.MatchRecorder.
func (s *Store) RecordMatch(matchID string, winnerID int, durationSeconds int, players []game.PlayerRecord) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("record match %s: %w", matchID, err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`INSERT INTO matches (match_id, winner_seat, duration_seconds) VALUES ($1, $2, $3)`,
		matchID, winnerID, durationSeconds,
	); err != nil {
		return fmt.Errorf("record match %s: %w", matchID, err)
	}
	for _, p := range players {
		if _, err := tx.Exec(
			`INSERT INTO match_players (match_id, seat, color, faction) VALUES ($1, $2, $3, $4)`,
			matchID, p.ID, p.Color, p.Faction,
		); err != nil {
			return fmt.Errorf("record match %s seat %d: %w", matchID, p.ID, err)
		}
	}
	return tx.Commit()
}

// MatchSummary is one persisted match row for the history endpoint.
type MatchSummary struct {
	MatchID         string    `json:"matchId"`
	WinnerSeat      int       `json:"winnerSeat"`
	DurationSeconds int       `json:"durationSeconds"`
	CreatedAt       time.Time `json:"createdAt"`
}

// RecentMatches returns the latest finished matches, newest first.
func (s *Store) RecentMatches(limit int) ([]MatchSummary, error) {
	if limit < 1 || limit > 200 {
		limit = 50
	}
	rows, err := s.db.Query(
		`SELECT match_id, winner_seat, duration_seconds, created_at
		 FROM matches ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("recent matches: %w", err)
	}
	defer rows.Close()

	var out []MatchSummary
	for rows.Next() {
		var m MatchSummary
		if err := rows.Scan(&m.MatchID, &m.WinnerSeat, &m.DurationSeconds, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
