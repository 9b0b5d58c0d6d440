package game

import (
	"math"
	"math/rand"
)

// --- Map generation tuning ---

const (
	baseMapSide      = 36
	mapSidePerSeat   = 10 // extra side length per player beyond the first
	maxMapSide       = 96
	spawnClearing    = 9 // side of the cleared square around each spawn
	spawnMineDist    = 6 // tiles from spawn clearing to its guaranteed mine
	spawnMineGold    = 3000
	extraMineGold    = 2000
	mineSeparation   = 10 // minimum distance between any two mines
	minePlaceRetries = 40

	// Terrain noise thresholds. Edge tiles are biased toward rock so the map
	// reads as a walled valley.
	waterThreshold  = 0.80
	forestThreshold = 0.66
	rockThreshold   = 0.74
	edgeRockBand    = 2 // tiles of guaranteed rock at the map border
	noiseScale      = 0.11
)

// MinePlacement is a generated mine site.
type MinePlacement struct {
	TileX int
	TileY int
	Gold  int
}

// GeneratedMap is the output of GenerateMap, consumed once at match start.
type GeneratedMap struct {
	Width  int
	Height int
	Tiles  []Terrain
	Spawns []Tile // home-base top-left tile per player, mirrored around centre
	Mines  []MinePlacement
}

// GenerateMap produces a deterministic terrain grid, mirrored spawn points and
// gold mines for the given seed and player count.
func GenerateMap(seed int64, playerCount int) *GeneratedMap {
	if playerCount < 1 {
		playerCount = 1
	}
	side := baseMapSide + mapSidePerSeat*(playerCount-1)
	if side > maxMapSide {
		side = maxMapSide
	}
	rng := rand.New(rand.NewSource(seed)) // #nosec G404 -- map generation only

	gm := &GeneratedMap{
		Width:  side,
		Height: side,
		Tiles:  make([]Terrain, side*side),
	}

	gm.fillTerrain(seed)
	gm.placeSpawns(playerCount)
	for _, s := range gm.Spawns {
		gm.clearSpawnArea(s)
	}
	gm.placeMines(rng, playerCount)
	return gm
}

// fillTerrain paints the base terrain from three independent noise layers,
// with rock bias toward the map edges.
func (gm *GeneratedMap) fillTerrain(seed int64) {
	waterSeed := seed * 31
	rockSeed := seed*31 + 7
	forestSeed := seed*31 + 13

	for ty := 0; ty < gm.Height; ty++ {
		for tx := 0; tx < gm.Width; tx++ {
			t := TerrainGrass

			edge := edgeDistance(tx, ty, gm.Width, gm.Height)
			if edge < edgeRockBand {
				gm.Tiles[ty*gm.Width+tx] = TerrainRock
				continue
			}

			fx := float64(tx) * noiseScale
			fy := float64(ty) * noiseScale

			// Edge bias: the rock threshold drops near the border so outcrops
			// cluster there.
			rockBias := 0.0
			if edge < 6 {
				rockBias = (6 - float64(edge)) * 0.04
			}

			switch {
			case valueNoise2D(fx, fy, waterSeed) > waterThreshold:
				t = TerrainWater
			case valueNoise2D(fx, fy, rockSeed) > rockThreshold-rockBias:
				t = TerrainRock
			case valueNoise2D(fx, fy, forestSeed) > forestThreshold:
				t = TerrainForest
			}
			gm.Tiles[ty*gm.Width+tx] = t
		}
	}
}

// edgeDistance returns the tile's distance to the nearest map border.
func edgeDistance(tx, ty, w, h int) int {
	d := tx
	if ty < d {
		d = ty
	}
	if w-1-tx < d {
		d = w - 1 - tx
	}
	if h-1-ty < d {
		d = h - 1 - ty
	}
	return d
}

// spawnAnchors are the corner offsets used to mirror spawn points. Two players
// sit on opposite corners; three and four fill the remaining corners.
func (gm *GeneratedMap) placeSpawns(playerCount int) {
	margin := 5
	far := gm.Width - margin - 3 // 3 = home base footprint
	anchors := []Tile{
		{margin, margin},
		{far, far},
		{far, margin},
		{margin, far},
	}
	for i := 0; i < playerCount && i < len(anchors); i++ {
		gm.Spawns = append(gm.Spawns, anchors[i])
	}
	// More than four seats: ring the remainder along the vertical midline.
	for i := len(anchors); i < playerCount; i++ {
		gm.Spawns = append(gm.Spawns, Tile{gm.Width / 2, margin + (i-len(anchors))*(gm.Height-2*margin)/2})
	}
}

// clearSpawnArea flattens a walkable square centred on the spawn so the home
// base, starting workers and early buildings always fit.
func (gm *GeneratedMap) clearSpawnArea(spawn Tile) {
	cx := spawn.X + 1
	cy := spawn.Y + 1
	r := spawnClearing / 2
	for ty := cy - r; ty <= cy+r; ty++ {
		for tx := cx - r; tx <= cx+r; tx++ {
			if tx < edgeRockBand || ty < edgeRockBand || tx >= gm.Width-edgeRockBand || ty >= gm.Height-edgeRockBand {
				continue
			}
			gm.Tiles[ty*gm.Width+tx] = TerrainGrass
		}
	}
}

// placeMines guarantees one rich mine near each spawn, then scatters extra
// mines subject to the separation rule, giving up on a site after a bounded
// number of retries.
func (gm *GeneratedMap) placeMines(rng *rand.Rand, playerCount int) {
	centerX := float64(gm.Width) / 2
	centerY := float64(gm.Height) / 2

	for _, s := range gm.Spawns {
		// Walk from the spawn toward the map centre to find a clear 2×2 site.
		dx := centerX - float64(s.X)
		dy := centerY - float64(s.Y)
		n := math.Hypot(dx, dy)
		placed := false
		for step := spawnMineDist; step < spawnMineDist+8 && !placed; step++ {
			mx := s.X + int(dx/n*float64(step))
			my := s.Y + int(dy/n*float64(step))
			if gm.mineSiteOK(mx, my, 0) {
				gm.Mines = append(gm.Mines, MinePlacement{TileX: mx, TileY: my, Gold: spawnMineGold})
				gm.clearMineSurround(mx, my)
				placed = true
			}
		}
	}

	extra := playerCount + 2
	for i := 0; i < extra; i++ {
		for try := 0; try < minePlaceRetries; try++ {
			mx := edgeRockBand + rng.Intn(gm.Width-2*edgeRockBand-mineFootprint)
			my := edgeRockBand + rng.Intn(gm.Height-2*edgeRockBand-mineFootprint)
			if gm.mineSiteOK(mx, my, mineSeparation) {
				gm.Mines = append(gm.Mines, MinePlacement{TileX: mx, TileY: my, Gold: extraMineGold})
				gm.clearMineSurround(mx, my)
				break
			}
		}
	}
}

// mineSiteOK checks bounds, walkable footprint and separation from mines
// already placed.
func (gm *GeneratedMap) mineSiteOK(mx, my, separation int) bool {
	if mx < edgeRockBand || my < edgeRockBand ||
		mx+mineFootprint > gm.Width-edgeRockBand || my+mineFootprint > gm.Height-edgeRockBand {
		return false
	}
	for ty := my; ty < my+mineFootprint; ty++ {
		for tx := mx; tx < mx+mineFootprint; tx++ {
			if !gm.Tiles[ty*gm.Width+tx].Walkable() {
				return false
			}
		}
	}
	for _, m := range gm.Mines {
		if math.Hypot(float64(m.TileX-mx), float64(m.TileY-my)) < float64(separation) {
			return false
		}
	}
	return true
}

// clearMineSurround guarantees a walkable ring around a mine so workers can
// always reach it.
func (gm *GeneratedMap) clearMineSurround(mx, my int) {
	for ty := my - 1; ty <= my+mineFootprint; ty++ {
		for tx := mx - 1; tx <= mx+mineFootprint; tx++ {
			if tx < edgeRockBand || ty < edgeRockBand || tx >= gm.Width-edgeRockBand || ty >= gm.Height-edgeRockBand {
				continue
			}
			gm.Tiles[ty*gm.Width+tx] = TerrainGrass
		}
	}
}

// valueNoise2D returns a smooth noise value in [0,1] for the given coordinates.
// Lattice-based value noise with hermite interpolation.
func valueNoise2D(x, y float64, seed int64) float64 {
	xi := int(math.Floor(x))
	yi := int(math.Floor(y))
	xf := x - float64(xi)
	yf := y - float64(yi)

	u := xf * xf * (3 - 2*xf)
	v := yf * yf * (3 - 2*yf)

	n00 := latticeValue(xi, yi, seed)
	n10 := latticeValue(xi+1, yi, seed)
	n01 := latticeValue(xi, yi+1, seed)
	n11 := latticeValue(xi+1, yi+1, seed)

	nx0 := n00*(1-u) + n10*u
	nx1 := n01*(1-u) + n11*u
	return nx0*(1-v) + nx1*v
}

// latticeValue returns a pseudo-random value in [0,1] for integer coordinates.
func latticeValue(x, y int, seed int64) float64 {
	h := uint64(seed)
	h ^= uint64(x) * 0x517cc1b727220a95
	h ^= uint64(y) * 0x6c62272e07bb0142
	h = h*0x2545f4914f6cdd1d + 0x14057b7ef767814f
	h ^= h >> 16
	h *= 0xd6e8feb86659fd93
	h ^= h >> 16
	return float64(h&0xFFFFFFFF) / float64(0xFFFFFFFF)
}
