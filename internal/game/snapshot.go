package game

// Snapshot is the full per-tick world state handed to the transport layer for
// direct serialization to connected clients. Slices are id-ordered so two
// identical runs serialize identically.
type Snapshot struct {
	Tick     int              `json:"tick"`
	Width    int              `json:"width"`
	Height   int              `json:"height"`
	Tiles    []Terrain        `json:"tiles"`
	Players  []PlayerSnapshot `json:"players"`
	Entities []EntitySnapshot `json:"entities"`
	Mines    []MineSnapshot   `json:"mines"`
}

// PlayerSnapshot mirrors a player's public state.
type PlayerSnapshot struct {
	ID         int            `json:"id"`
	Name       string         `json:"name"`
	Color      string         `json:"color"`
	Faction    string         `json:"faction"`
	Gold       int            `json:"gold"`
	Supply     int            `json:"supply"`
	MaxSupply  int            `json:"maxSupply"`
	Upgrades   map[string]int `json:"upgrades,omitempty"`
	Eliminated bool           `json:"eliminated,omitempty"`
}

// EntitySnapshot mirrors one entity.
type EntitySnapshot struct {
	ID             int     `json:"id"`
	Type           string  `json:"type"`
	Owner          int     `json:"owner"`
	X              float64 `json:"x"`
	Y              float64 `json:"y"`
	HP             float64 `json:"hp"`
	MaxHP          float64 `json:"maxHp"`
	State          string  `json:"state"`
	FootW          int     `json:"footW,omitempty"`
	FootH          int     `json:"footH,omitempty"`
	BuildProgress  float64 `json:"buildProgress,omitempty"`
	MiningProgress float64 `json:"miningProgress,omitempty"`
	CarriedGold    int     `json:"carriedGold,omitempty"`
	QueueLen       int     `json:"queueLen,omitempty"`
	TargetID       int     `json:"targetId,omitempty"` // entity id under attack
	MineID         int     `json:"mineId,omitempty"`   // mine a worker is assigned to
}

// MineSnapshot mirrors one gold mine.
type MineSnapshot struct {
	ID            int `json:"id"`
	X             int `json:"x"`
	Y             int `json:"y"`
	GoldRemaining int `json:"goldRemaining"`
	MaxWorkers    int `json:"maxWorkers"`
	Workers       int `json:"workers"`
}

// GameOverEvent is the terminal event emitted when a match is decided.
type GameOverEvent struct {
	WinnerID int    `json:"winnerId"`
	Reason   string `json:"reason"`
}

// buildSnapshot copies the current state into a serializable snapshot.
func buildSnapshot(gs *GameState) *Snapshot {
	snap := &Snapshot{
		Tick:   gs.Tick,
		Width:  gs.Width,
		Height: gs.Height,
		Tiles:  gs.Tiles,
	}
	for _, p := range gs.playersSorted() {
		ps := PlayerSnapshot{
			ID:         p.ID,
			Name:       p.Name,
			Color:      p.Color,
			Faction:    p.Faction,
			Gold:       p.Gold,
			Supply:     p.Supply,
			MaxSupply:  p.MaxSupply,
			Eliminated: p.Eliminated,
		}
		if len(p.Upgrades) > 0 {
			ps.Upgrades = make(map[string]int, len(p.Upgrades))
			for t, lvl := range p.Upgrades {
				ps.Upgrades[t.String()] = lvl
			}
		}
		snap.Players = append(snap.Players, ps)
	}
	for _, e := range gs.entitiesSorted() {
		es := EntitySnapshot{
			ID:             e.ID,
			Type:           e.Type.String(),
			Owner:          e.Owner,
			X:              e.X,
			Y:              e.Y,
			HP:             e.HP,
			MaxHP:          e.MaxHP,
			State:          e.State.String(),
			FootW:          e.FootW,
			FootH:          e.FootH,
			MiningProgress: e.MiningProgress,
			CarriedGold:    e.CarriedGold,
			QueueLen:       len(e.Queue),
		}
		if e.IsBuilding() && !e.Completed() {
			es.BuildProgress = e.BuildProgress
		}
		// TargetID holds a mine id for a worker on the gather cycle and an
		// entity id once anything is attacking; the two id spaces overlap, so
		// the snapshot keeps them in separate fields.
		if e.TargetID > 0 {
			if e.Type == EntityWorker && e.State != StateAttacking {
				es.MineID = e.TargetID
			} else {
				es.TargetID = e.TargetID
			}
		}
		snap.Entities = append(snap.Entities, es)
	}
	for _, m := range gs.Mines {
		snap.Mines = append(snap.Mines, MineSnapshot{
			ID:            m.ID,
			X:             m.TileX,
			Y:             m.TileY,
			GoldRemaining: m.GoldRemaining,
			MaxWorkers:    m.MaxWorkers,
			Workers:       len(m.Occupants),
		})
	}
	return snap
}
