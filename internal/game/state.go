package game

import (
	"fmt"
	"sort"
)

// Terrain is the ground type of one map tile.
type Terrain uint8

const (
	TerrainGrass Terrain = iota
	TerrainWater
	TerrainRock
	TerrainForest
)

func (t Terrain) String() string {
	switch t {
	case TerrainGrass:
		return "grass"
	case TerrainWater:
		return "water"
	case TerrainRock:
		return "rock"
	case TerrainForest:
		return "forest"
	default:
		return "unknown"
	}
}

// Walkable reports whether units can traverse this terrain. Only grass is
// passable; everything else blocks, as do building and mine footprints.
func (t Terrain) Walkable() bool {
	return t == TerrainGrass
}

// Player is one participant in a match (human or bot; the simulation does
// not distinguish them).
type Player struct {
	ID      int
	Name    string
	Color   string
	Faction string

	Gold      int
	Supply    int // supply consumed by living units
	MaxSupply int // always recomputed from live completed supply buildings

	Upgrades map[EntityType]int // per-unit-type upgrade level

	Eliminated bool
}

// UpgradeLevel returns the player's upgrade level for a unit type.
func (p *Player) UpgradeLevel(t EntityType) int {
	return p.Upgrades[t]
}

// GoldMine is a map resource node. Mines are generated once and never move;
// an exhausted mine stays on the map but can no longer be worked.
type GoldMine struct {
	ID            int
	TileX, TileY  int // top-left of the fixed 2×2 footprint
	GoldRemaining int
	MaxWorkers    int
	Occupants     []int // worker entity ids currently mining
}

const mineFootprint = 2

func (m *GoldMine) label() string {
	return fmt.Sprintf("mine%d", m.ID)
}

// HasCapacity reports whether another worker may enter the mine.
func (m *GoldMine) HasCapacity() bool {
	return len(m.Occupants) < m.MaxWorkers && m.GoldRemaining > 0
}

// Occupied reports whether the given worker id is in the mine.
func (m *GoldMine) Occupied(workerID int) bool {
	for _, id := range m.Occupants {
		if id == workerID {
			return true
		}
	}
	return false
}

// Leave removes a worker id from the mine's occupant list.
func (m *GoldMine) Leave(workerID int) {
	for i, id := range m.Occupants {
		if id == workerID {
			m.Occupants = append(m.Occupants[:i], m.Occupants[i+1:]...)
			return
		}
	}
}

// edgeDistance returns the distance from a point to the mine footprint.
func (m *GoldMine) edgeDistance(x, y float64) float64 {
	cx := clampF(x, float64(m.TileX), float64(m.TileX+mineFootprint))
	cy := clampF(y, float64(m.TileY), float64(m.TileY+mineFootprint))
	return dist(x, y, cx, cy)
}

// GameState is the authoritative world state of one match. It is owned
// exclusively by the engine's tick loop; nothing outside the engine mutates it.
type GameState struct {
	Tick     int
	Width    int
	Height   int
	Tiles    []Terrain // immutable after generation; row-major
	Players  map[int]*Player
	Entities map[int]*Entity
	Mines    []*GoldMine

	nextEntityID int
	nav          *Grid // walkability grid, rebuilt on structural change
}

// NewGameState builds the initial state for a match: generated map, one home
// base and a starting worker pair per player, and seeded player resources.
func NewGameState(seed int64, roster []PlayerInfo) *GameState {
	gen := GenerateMap(seed, len(roster))
	gs := &GameState{
		Width:        gen.Width,
		Height:       gen.Height,
		Tiles:        gen.Tiles,
		Players:      make(map[int]*Player, len(roster)),
		Entities:     make(map[int]*Entity),
		nextEntityID: 1,
	}
	for i, m := range gen.Mines {
		gs.Mines = append(gs.Mines, &GoldMine{
			ID:            i + 1,
			TileX:         m.TileX,
			TileY:         m.TileY,
			GoldRemaining: m.Gold,
			MaxWorkers:    1,
		})
	}
	for i, info := range roster {
		p := &Player{
			ID:       info.ID,
			Name:     info.Name,
			Color:    info.Color,
			Faction:  info.Faction,
			Gold:     startingGold,
			Upgrades: make(map[EntityType]int),
		}
		gs.Players[p.ID] = p

		spawn := gen.Spawns[i]
		base := newBuilding(gs.allocID(), EntityHomeBase, p.ID, spawn.X, spawn.Y)
		finishConstruction(base)
		gs.Entities[base.ID] = base

		// Two starting workers beside the base.
		for w := 0; w < startingWorkers; w++ {
			wx := float64(spawn.X+3) + 0.5
			wy := float64(spawn.Y+w) + 0.5
			u := newUnit(gs.allocID(), EntityWorker, p.ID, wx, wy, 1.0)
			gs.Entities[u.ID] = u
		}
	}
	gs.rebuildNav()
	for id := range gs.Players {
		gs.recomputeSupply(id)
	}
	return gs
}

const (
	startingGold    = 250
	startingWorkers = 2
)

// finishConstruction marks a building complete without running the
// construction timer (used for map-start structures).
func finishConstruction(b *Entity) {
	b.BuildProgress = 1.0
	b.State = StateIdle
}

func (gs *GameState) allocID() int {
	id := gs.nextEntityID
	gs.nextEntityID++
	return id
}

// entitiesSorted returns all entities in ascending id order. Every per-tick
// pass iterates through this so identical inputs replay identically.
func (gs *GameState) entitiesSorted() []*Entity {
	ids := make([]int, 0, len(gs.Entities))
	for id := range gs.Entities {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	out := make([]*Entity, len(ids))
	for i, id := range ids {
		out[i] = gs.Entities[id]
	}
	return out
}

// playersSorted returns all players in ascending id order.
func (gs *GameState) playersSorted() []*Player {
	ids := make([]int, 0, len(gs.Players))
	for id := range gs.Players {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	out := make([]*Player, len(ids))
	for i, id := range ids {
		out[i] = gs.Players[id]
	}
	return out
}

// mineByID returns the mine with the given id, or nil.
func (gs *GameState) mineByID(id int) *GoldMine {
	for _, m := range gs.Mines {
		if m.ID == id {
			return m
		}
	}
	return nil
}

// inBounds reports whether the tile coordinate is on the map.
func (gs *GameState) inBounds(tx, ty int) bool {
	return tx >= 0 && ty >= 0 && tx < gs.Width && ty < gs.Height
}

// terrainAt returns the terrain of a tile; out-of-bounds reads as rock.
func (gs *GameState) terrainAt(tx, ty int) Terrain {
	if !gs.inBounds(tx, ty) {
		return TerrainRock
	}
	return gs.Tiles[ty*gs.Width+tx]
}

// rebuildNav reconstructs the walkability grid from terrain, building
// footprints and mine footprints. Called whenever the blocked set changes:
// match start, building placement, building destruction.
func (gs *GameState) rebuildNav() {
	g := NewGrid(gs.Width, gs.Height)
	for ty := 0; ty < gs.Height; ty++ {
		for tx := 0; tx < gs.Width; tx++ {
			if !gs.terrainAt(tx, ty).Walkable() {
				g.Block(tx, ty)
			}
		}
	}
	for _, m := range gs.Mines {
		blockRect(g, m.TileX, m.TileY, mineFootprint, mineFootprint)
	}
	for _, e := range gs.Entities {
		if e.IsBuilding() {
			blockRect(g, int(e.X), int(e.Y), e.FootW, e.FootH)
		}
	}
	gs.nav = g
}

func blockRect(g *Grid, x, y, w, h int) {
	for ty := y; ty < y+h; ty++ {
		for tx := x; tx < x+w; tx++ {
			g.Block(tx, ty)
		}
	}
}

// canPlaceBuilding reports whether a footprint of the given type fits at the
// tile with every covered tile walkable and unoccupied.
func (gs *GameState) canPlaceBuilding(t EntityType, tileX, tileY int) bool {
	bs, ok := buildingStatsTable[t]
	if !ok {
		return false
	}
	for ty := tileY; ty < tileY+bs.footH; ty++ {
		for tx := tileX; tx < tileX+bs.footW; tx++ {
			if !gs.inBounds(tx, ty) || gs.nav.Blocked(tx, ty) {
				return false
			}
		}
	}
	// Units standing on the site also block it: placing over one would wall
	// it in once the footprint lands on the nav grid.
	for _, e := range gs.Entities {
		if e.IsBuilding() {
			continue
		}
		ex, ey := int(e.X), int(e.Y)
		if ex >= tileX && ex < tileX+bs.footW && ey >= tileY && ey < tileY+bs.footH {
			return false
		}
	}
	return true
}

// recomputeSupply rebuilds a player's supply figures from scratch. MaxSupply
// is never patched incrementally; summing the live completed supply
// buildings every time avoids drift.
func (gs *GameState) recomputeSupply(playerID int) {
	p := gs.Players[playerID]
	if p == nil {
		return
	}
	maxSupply := 0
	used := 0
	for _, e := range gs.Entities {
		if e.Owner != playerID {
			continue
		}
		if e.IsBuilding() {
			if e.Completed() {
				maxSupply += buildingStatsTable[e.Type].supplyGrant
			}
			continue
		}
		used += unitStatsTable[e.Type].supply
	}
	p.MaxSupply = maxSupply
	p.Supply = used
}

// findPathTo computes a path for a unit from its position to a destination
// tile. Waypoints are tile centres; nil means unreachable.
func (gs *GameState) findPathTo(e *Entity, tx, ty int) [][2]float64 {
	tiles := gs.nav.FindPath(int(e.X), int(e.Y), tx, ty)
	if tiles == nil {
		return nil
	}
	path := make([][2]float64, len(tiles))
	for i, t := range tiles {
		path[i] = [2]float64{float64(t.X) + 0.5, float64(t.Y) + 0.5}
	}
	return path
}

// findPathAdjacent computes a path to the nearest walkable tile bordering a
// footprint rectangle. Used to approach buildings and mines, which are
// themselves blocked tiles.
func (gs *GameState) findPathAdjacent(e *Entity, x, y, w, h int) [][2]float64 {
	var best [][2]float64
	bestCost := -1.0
	for _, t := range borderTiles(x, y, w, h) {
		if !gs.inBounds(t.X, t.Y) || gs.nav.Blocked(t.X, t.Y) {
			continue
		}
		path := gs.findPathTo(e, t.X, t.Y)
		if path == nil {
			// Already standing on the border tile counts as arrived.
			if int(e.X) == t.X && int(e.Y) == t.Y {
				return [][2]float64{}
			}
			continue
		}
		cost := pathCost(e.X, e.Y, path)
		if bestCost < 0 || cost < bestCost {
			best = path
			bestCost = cost
		}
	}
	return best
}

// borderTiles lists the tiles ringing a footprint, in deterministic order.
func borderTiles(x, y, w, h int) []Tile {
	var out []Tile
	for tx := x - 1; tx <= x+w; tx++ {
		out = append(out, Tile{tx, y - 1})
		out = append(out, Tile{tx, y + h})
	}
	for ty := y; ty < y+h; ty++ {
		out = append(out, Tile{x - 1, ty})
		out = append(out, Tile{x + w, ty})
	}
	return out
}

// pathCost sums waypoint-to-waypoint distances along a path.
func pathCost(fromX, fromY float64, path [][2]float64) float64 {
	total := 0.0
	px, py := fromX, fromY
	for _, wp := range path {
		total += dist(px, py, wp[0], wp[1])
		px, py = wp[0], wp[1]
	}
	return total
}
