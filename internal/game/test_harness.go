package game

// MatchSim is a headless match harness used exclusively by tests. It drives
// the same tick pipeline as the engine but lets a test assemble an exact
// world: a flat map, hand-placed mines, pre-built structures and units.
type MatchSim struct {
	GS      *GameState
	SimLog  *SimLog
	Combat  *CombatSystem
	Economy *EconomySystem
	Bots    []*BotAgent

	Over   bool
	Winner int

	queue []queuedCommand
}

// simOptionKind controls the pass in which an option is applied.
type simOptionKind int

const (
	simOptInfra  simOptionKind = iota // map, verbose; applied first
	simOptPlayer                      // players; applied once the map exists
	simOptPlace                       // mines, buildings, units; applied last
)

// SimOption is a builder function applied to a MatchSim during construction.
type SimOption struct {
	kind simOptionKind
	fn   func(*MatchSim)
}

// WithFlatMap replaces the world with an all-grass map of the given size.
// No mines, no spawns; the test places everything it needs.
func WithFlatMap(w, h int) SimOption {
	return SimOption{simOptInfra, func(ms *MatchSim) {
		ms.GS.Width = w
		ms.GS.Height = h
		ms.GS.Tiles = make([]Terrain, w*h)
		ms.GS.Mines = nil
	}}
}

// WithVerbose enables per-tick verbose logging.
func WithVerbose(v bool) SimOption {
	return SimOption{simOptInfra, func(ms *MatchSim) {
		ms.SimLog = NewSimLog(v)
	}}
}

// WithPlayer adds a player with the given starting gold. No structures are
// created; pair with WithBuilding for a base.
func WithPlayer(id int, gold int) SimOption {
	return SimOption{simOptPlayer, func(ms *MatchSim) {
		ms.GS.Players[id] = &Player{
			ID:       id,
			Name:     "player",
			Gold:     gold,
			Upgrades: make(map[EntityType]int),
		}
	}}
}

// WithBot attaches a bot agent to an existing player.
func WithBot(playerID int) SimOption {
	return SimOption{simOptPlayer, func(ms *MatchSim) {
		ms.Bots = append(ms.Bots, NewBotAgent(playerID))
	}}
}

// WithMine places a gold mine at the given tile.
func WithMine(tileX, tileY, gold, maxWorkers int) SimOption {
	return SimOption{simOptPlace, func(ms *MatchSim) {
		ms.GS.Mines = append(ms.GS.Mines, &GoldMine{
			ID:            len(ms.GS.Mines) + 1,
			TileX:         tileX,
			TileY:         tileY,
			GoldRemaining: gold,
			MaxWorkers:    maxWorkers,
		})
	}}
}

// WithBuilding places a completed building for a player. The test is trusted
// to pick a legal site.
func WithBuilding(playerID int, t EntityType, tileX, tileY int) SimOption {
	return SimOption{simOptPlace, func(ms *MatchSim) {
		b := newBuilding(ms.GS.allocID(), t, playerID, tileX, tileY)
		finishConstruction(b)
		ms.GS.Entities[b.ID] = b
	}}
}

// WithConstruction places a building still under construction, at the given
// fraction of completion.
func WithConstruction(playerID int, t EntityType, tileX, tileY int, progress float64) SimOption {
	return SimOption{simOptPlace, func(ms *MatchSim) {
		b := newBuilding(ms.GS.allocID(), t, playerID, tileX, tileY)
		b.BuildProgress = progress
		ms.GS.Entities[b.ID] = b
	}}
}

// WithUnit places a unit at fractional-tile coordinates.
func WithUnit(playerID int, t EntityType, x, y float64) SimOption {
	return SimOption{simOptPlace, func(ms *MatchSim) {
		u := newUnit(ms.GS.allocID(), t, playerID, x, y, 1.0)
		ms.GS.Entities[u.ID] = u
	}}
}

// NewMatchSim constructs a MatchSim from the given options in three ordered
// passes:
//  1. Infrastructure (map, verbose)
//  2. Players and bots
//  3. Placements (mines, buildings, units)
//
// The nav grid and supply counts are rebuilt once everything is placed.
func NewMatchSim(opts ...SimOption) *MatchSim {
	ms := &MatchSim{
		GS: &GameState{
			Width:        32,
			Height:       32,
			Tiles:        make([]Terrain, 32*32),
			Players:      make(map[int]*Player),
			Entities:     make(map[int]*Entity),
			nextEntityID: 1,
		},
		SimLog:  NewSimLog(false),
		Combat:  NewCombatSystem(),
		Economy: NewEconomySystem(),
		Winner:  -1,
	}
	for _, kind := range []simOptionKind{simOptInfra, simOptPlayer, simOptPlace} {
		for _, o := range opts {
			if o.kind == kind {
				o.fn(ms)
			}
		}
	}
	ms.GS.rebuildNav()
	for id := range ms.GS.Players {
		ms.GS.recomputeSupply(id)
	}
	return ms
}

// NewGeneratedSim builds a MatchSim over a fully generated map, the same way
// the engine does for a live match.
func NewGeneratedSim(seed int64, roster []PlayerInfo, opts ...SimOption) *MatchSim {
	ms := &MatchSim{
		GS:      NewGameState(seed, roster),
		SimLog:  NewSimLog(false),
		Combat:  NewCombatSystem(),
		Economy: NewEconomySystem(),
		Winner:  -1,
	}
	for _, info := range roster {
		if info.Bot {
			ms.Bots = append(ms.Bots, NewBotAgent(info.ID))
		}
	}
	for _, o := range opts {
		if o.kind == simOptInfra {
			o.fn(ms)
		}
	}
	return ms
}

// Issue queues a command for dispatch at the start of the next tick, exactly
// as the engine's transport layer would.
func (ms *MatchSim) Issue(playerID int, cmd Command) {
	ms.queue = append(ms.queue, queuedCommand{playerID: playerID, cmd: cmd})
}

// Entity returns the entity with the given id, or nil.
func (ms *MatchSim) Entity(id int) *Entity {
	return ms.GS.Entities[id]
}

// Player returns the player with the given id, or nil.
func (ms *MatchSim) Player(id int) *Player {
	return ms.GS.Players[id]
}

// OwnedBy returns all entities belonging to a player, id-sorted.
func (ms *MatchSim) OwnedBy(playerID int) []*Entity {
	var out []*Entity
	for _, e := range ms.GS.entitiesSorted() {
		if e.Owner == playerID {
			out = append(out, e)
		}
	}
	return out
}

// RunTicks advances the simulation n ticks.
func (ms *MatchSim) RunTicks(n int) {
	for i := 0; i < n && !ms.Over; i++ {
		ms.stepOnce()
	}
}

// RunUntil advances the simulation up to maxTicks, stopping early if the
// predicate returns true. Returns the tick at which the predicate was
// satisfied, or -1.
func (ms *MatchSim) RunUntil(predicate func(*MatchSim) bool, maxTicks int) int {
	for i := 0; i < maxTicks && !ms.Over; i++ {
		ms.stepOnce()
		if predicate(ms) {
			return ms.GS.Tick
		}
	}
	return -1
}

// stepOnce runs the full tick pipeline in engine order.
func (ms *MatchSim) stepOnce() {
	gs := ms.GS
	gs.Tick++

	for _, bot := range ms.Bots {
		for _, cmd := range bot.Decide(gs) {
			ms.queue = append(ms.queue, queuedCommand{playerID: bot.PlayerID, cmd: cmd})
		}
	}
	pending := ms.queue
	ms.queue = nil
	for _, qc := range pending {
		dispatchCommand(gs, qc.playerID, qc.cmd, ms.SimLog)
	}

	ms.Economy.Step(gs, ms.SimLog)
	stepMovement(gs)
	deaths := ms.Combat.Step(gs, ms.SimLog)

	if deaths && len(gs.Players) >= 2 {
		ms.checkVictory()
	}
}

func (ms *MatchSim) checkVictory() {
	alive := make(map[int]bool)
	for _, e := range ms.GS.Entities {
		if e.Type == EntityHomeBase {
			alive[e.Owner] = true
		}
	}
	survivors := 0
	lastID := -1
	for _, p := range ms.GS.playersSorted() {
		if !alive[p.ID] {
			p.Eliminated = true
			continue
		}
		survivors++
		lastID = p.ID
	}
	switch survivors {
	case 1:
		ms.Over = true
		ms.Winner = lastID
	case 0:
		ms.Over = true
		ms.Winner = -1
	}
}
