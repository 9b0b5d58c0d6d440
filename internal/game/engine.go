package game

import (
	"log"
	"sync"
	"time"
)

// DefaultTickInterval is the fixed simulation step (20 ticks per second).
const DefaultTickInterval = 50 * time.Millisecond

// PlayerInfo is the roster entry supplied by the session collaborator.
type PlayerInfo struct {
	ID      int
	Name    string
	Color   string
	Faction string
	Bot     bool
}

// PlayerRecord is the slice of player identity persisted with a match record.
type PlayerRecord struct {
	ID      int    `json:"id"`
	Color   string `json:"color"`
	Faction string `json:"faction"`
}

// MatchRecorder persists finished matches. Calls are best-effort and made off
// the tick loop; failures are logged and swallowed, never surfaced to
// gameplay.
type MatchRecorder interface {
	RecordMatch(matchID string, winnerID int, durationSeconds int, players []PlayerRecord) error
}

// MatchConfig assembles one engine. Collaborator callbacks are injected here
// so the engine never reaches back into its caller.
type MatchConfig struct {
	MatchID      string
	Seed         int64
	TickInterval time.Duration
	Players      []PlayerInfo

	// Broadcast receives the post-tick snapshot. It must not block; the hub
	// drops slow consumers rather than stalling the scheduler.
	Broadcast func(*Snapshot)
	// OnGameOver fires once when the match is decided.
	OnGameOver func(GameOverEvent)
	// Recorder, when set, receives the finished match asynchronously.
	Recorder MatchRecorder

	// ReportInterval, when positive, samples a MatchReport every N ticks.
	ReportInterval int

	// Verbose enables per-tick detail in the sim log.
	Verbose bool
}

// queuedCommand pairs a command with its issuing player.
type queuedCommand struct {
	playerID int
	cmd      Command
}

// Engine owns one match: its state, its command queue and its tick scheduler.
// Everything mutable is instance-scoped; two engines in one process share
// nothing.
type Engine struct {
	mu sync.Mutex

	cfg      MatchConfig
	gs       *GameState
	queue    []queuedCommand
	combat   *CombatSystem
	economy  *EconomySystem
	bots     []*BotAgent
	simlog   *SimLog
	reporter *MatchReporter

	running   bool
	over      bool
	done      chan struct{}
	startedAt time.Time
}

// New constructs an engine with freshly generated state for the roster.
func New(cfg MatchConfig) *Engine {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = DefaultTickInterval
	}
	e := &Engine{
		cfg:     cfg,
		gs:      NewGameState(cfg.Seed, cfg.Players),
		combat:  NewCombatSystem(),
		economy: NewEconomySystem(),
		simlog:  NewSimLog(cfg.Verbose),
	}
	for _, p := range cfg.Players {
		if p.Bot {
			e.bots = append(e.bots, NewBotAgent(p.ID))
		}
	}
	if cfg.ReportInterval > 0 {
		e.reporter = NewMatchReporter(cfg.ReportInterval)
	}
	return e
}

// Start launches the fixed-interval tick scheduler. Safe to call once.
func (e *Engine) Start() {
	e.mu.Lock()
	if e.running || e.over {
		e.mu.Unlock()
		return
	}
	e.running = true
	e.done = make(chan struct{})
	e.startedAt = time.Now()
	done := e.done
	e.mu.Unlock()

	go func() {
		ticker := time.NewTicker(e.cfg.TickInterval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				e.runTick()
			}
		}
	}()
}

// Stop halts the scheduler and clears the per-match ephemeral trackers.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopLocked()
}

func (e *Engine) stopLocked() {
	if !e.running {
		return
	}
	e.running = false
	close(e.done)
	e.combat.Reset()
	e.economy.Reset()
}

// HandleCommand enqueues a command for the next tick. Validation happens at
// dispatch time, not here; a command that goes stale while queued is simply
// dropped then.
func (e *Engine) HandleCommand(playerID int, cmd Command) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.over {
		return
	}
	e.queue = append(e.queue, queuedCommand{playerID: playerID, cmd: cmd})
}

// State returns a snapshot of the current world.
func (e *Engine) State() *Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return buildSnapshot(e.gs)
}

// Log exposes the structured match event log.
func (e *Engine) Log() *SimLog {
	return e.simlog
}

// Report builds a report of the current standing. The winner field is set
// only once the match is decided.
func (e *Engine) Report() MatchReport {
	e.mu.Lock()
	defer e.mu.Unlock()
	winner := -1
	if e.over {
		for _, p := range e.gs.playersSorted() {
			if !p.Eliminated {
				winner = p.ID
			}
		}
	}
	return buildReport(e.gs, e.simlog, e.over, winner)
}

// Reporter returns the interval sampler, or nil when sampling is off.
func (e *Engine) Reporter() *MatchReporter {
	return e.reporter
}

// StepTick advances one tick synchronously, without the scheduler. Used by
// headless drivers that want to run a match as fast as possible. Returns the
// game-over event once the match is decided, nil before then.
func (e *Engine) StepTick() *GameOverEvent {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.over {
		return nil
	}
	return e.step()
}

// runTick advances the simulation one step and hands the snapshot to the
// transport. The broadcast happens outside the lock; collaborator work after
// game over is fire-and-forget so it can never stall the scheduler.
func (e *Engine) runTick() {
	e.mu.Lock()
	if e.over {
		e.mu.Unlock()
		return
	}
	ev := e.step()
	snap := buildSnapshot(e.gs)
	if ev != nil {
		e.stopLocked()
	}
	e.mu.Unlock()

	if e.cfg.Broadcast != nil {
		e.cfg.Broadcast(snap)
	}
	if ev != nil {
		e.finishMatch(*ev)
	}
}

// step runs one full tick pipeline: bot decisions, queued commands, economy,
// movement, combat, victory check. Caller holds the lock. Returns a non-nil
// event when the match was decided this tick.
func (e *Engine) step() *GameOverEvent {
	e.gs.Tick++

	for _, bot := range e.bots {
		for _, cmd := range bot.Decide(e.gs) {
			e.queue = append(e.queue, queuedCommand{playerID: bot.PlayerID, cmd: cmd})
		}
	}

	pending := e.queue
	e.queue = nil
	for _, qc := range pending {
		dispatchCommand(e.gs, qc.playerID, qc.cmd, e.simlog)
	}

	e.economy.Step(e.gs, e.simlog)
	stepMovement(e.gs)
	deaths := e.combat.Step(e.gs, e.simlog)

	if deaths {
		if ev := e.checkVictory(); ev != nil {
			e.over = true
			e.simlog.Add(e.gs.Tick, ev.WinnerID, "engine", "game_over", ev.Reason, 0)
			if e.reporter != nil {
				e.reporter.Final(e.gs, e.simlog, ev.WinnerID)
			}
			return ev
		}
	}
	if e.reporter != nil {
		e.reporter.Collect(e.gs, e.simlog)
	}
	return nil
}

// checkVictory eliminates players with no living home base and ends the match
// once at most one player is left standing. Zero survivors is a draw: both
// remaining bases fell on the same tick.
func (e *Engine) checkVictory() *GameOverEvent {
	if len(e.gs.Players) < 2 {
		return nil
	}
	alive := make(map[int]bool)
	for _, ent := range e.gs.Entities {
		if ent.Type == EntityHomeBase {
			alive[ent.Owner] = true
		}
	}
	survivors := 0
	lastID := -1
	for _, p := range e.gs.playersSorted() {
		if !alive[p.ID] {
			if !p.Eliminated {
				p.Eliminated = true
				e.simlog.Add(e.gs.Tick, p.ID, "engine", "eliminated", p.Name, 0)
			}
			continue
		}
		survivors++
		lastID = p.ID
	}
	switch survivors {
	case 1:
		return &GameOverEvent{WinnerID: lastID, Reason: "last base standing"}
	case 0:
		return &GameOverEvent{WinnerID: -1, Reason: "all bases destroyed"}
	}
	return nil
}

// finishMatch notifies collaborators off the tick loop.
func (e *Engine) finishMatch(ev GameOverEvent) {
	if e.cfg.OnGameOver != nil {
		e.cfg.OnGameOver(ev)
	}
	if e.cfg.Recorder == nil {
		return
	}
	duration := int(time.Since(e.startedAt).Seconds())
	players := make([]PlayerRecord, 0, len(e.cfg.Players))
	for _, p := range e.cfg.Players {
		players = append(players, PlayerRecord{ID: p.ID, Color: p.Color, Faction: p.Faction})
	}
	go func() {
		if err := e.cfg.Recorder.RecordMatch(e.cfg.MatchID, ev.WinnerID, duration, players); err != nil {
			log.Printf("match %s: record failed: %v", e.cfg.MatchID, err)
		}
	}()
}
