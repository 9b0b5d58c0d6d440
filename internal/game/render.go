package game

import (
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

const (
	viewTileSize   = 14
	hudHeight      = 56
	updatesPerTick = 3 // 60 FPS display over a 20 TPS simulation
)

var terrainColors = map[Terrain]color.RGBA{
	TerrainGrass:  {R: 34, G: 68, B: 34, A: 255},
	TerrainWater:  {R: 30, G: 60, B: 110, A: 255},
	TerrainRock:   {R: 70, G: 70, B: 74, A: 255},
	TerrainForest: {R: 22, G: 48, B: 24, A: 255},
}

var seatColors = []color.RGBA{
	{R: 200, G: 60, B: 60, A: 255},
	{R: 70, G: 110, B: 220, A: 255},
	{R: 220, G: 180, B: 60, A: 255},
	{R: 90, G: 190, B: 120, A: 255},
}

var mineColor = color.RGBA{R: 212, G: 175, B: 55, A: 255}

// Viewer is a local ebiten front end for one engine. It drives the simulation
// synchronously from its own update loop, so pausing the window pauses the
// match.
type Viewer struct {
	eng  *Engine
	snap *Snapshot
	over *GameOverEvent

	paused bool
	speed  int // sim ticks advanced per simulation beat
	frame  int

	prevKeys map[ebiten.Key]bool
}

// NewViewer wraps an engine that has not been started; the viewer ticks it.
func NewViewer(eng *Engine) *Viewer {
	return &Viewer{
		eng:      eng,
		snap:     eng.State(),
		speed:    1,
		prevKeys: make(map[ebiten.Key]bool),
	}
}

func (v *Viewer) pressed(k ebiten.Key) bool {
	now := ebiten.IsKeyPressed(k)
	was := v.prevKeys[k]
	v.prevKeys[k] = now
	return now && !was
}

func (v *Viewer) Update() error {
	if v.pressed(ebiten.KeySpace) {
		v.paused = !v.paused
	}
	if v.pressed(ebiten.KeyEqual) && v.speed < 16 {
		v.speed *= 2
	}
	if v.pressed(ebiten.KeyMinus) && v.speed > 1 {
		v.speed /= 2
	}

	if v.paused || v.over != nil {
		return nil
	}
	v.frame++
	if v.frame%updatesPerTick != 0 {
		return nil
	}
	for i := 0; i < v.speed && v.over == nil; i++ {
		if ev := v.eng.StepTick(); ev != nil {
			v.over = ev
		}
	}
	v.snap = v.eng.State()
	return nil
}

func (v *Viewer) Draw(screen *ebiten.Image) {
	s := v.snap
	ts := float32(viewTileSize)

	for ty := 0; ty < s.Height; ty++ {
		for tx := 0; tx < s.Width; tx++ {
			c := terrainColors[s.Tiles[ty*s.Width+tx]]
			vector.FillRect(screen, float32(tx)*ts, float32(ty)*ts, ts, ts, c, false)
		}
	}

	for _, m := range s.Mines {
		x := float32(m.X) * ts
		y := float32(m.Y) * ts
		w := float32(mineFootprint) * ts
		c := mineColor
		if m.GoldRemaining <= 0 {
			c = color.RGBA{R: 90, G: 80, B: 50, A: 255}
		}
		vector.FillRect(screen, x, y, w, w, c, false)
	}

	for _, e := range s.Entities {
		c := seatColor(e.Owner)
		if e.FootW > 0 {
			x := float32(e.X) * ts
			y := float32(e.Y) * ts
			w := float32(e.FootW) * ts
			h := float32(e.FootH) * ts
			fill := c
			if e.BuildProgress > 0 && e.BuildProgress < 1 {
				fill = color.RGBA{R: c.R / 2, G: c.G / 2, B: c.B / 2, A: 255}
			}
			vector.FillRect(screen, x, y, w, h, fill, false)
			drawHPBar(screen, x, y-4, w, e.HP/e.MaxHP)
			continue
		}
		ux := float32(e.X)*ts - ts/4
		uy := float32(e.Y)*ts - ts/4
		vector.FillRect(screen, ux, uy, ts/2, ts/2, c, false)
		if e.HP < e.MaxHP {
			drawHPBar(screen, ux, uy-3, ts/2, e.HP/e.MaxHP)
		}
	}

	v.drawHUD(screen)
}

func drawHPBar(screen *ebiten.Image, x, y, w float32, frac float64) {
	if frac < 0 {
		frac = 0
	}
	vector.FillRect(screen, x, y, w, 3, color.RGBA{R: 20, G: 20, B: 20, A: 255}, false)
	vector.FillRect(screen, x, y, w*float32(frac), 3, color.RGBA{R: 60, G: 200, B: 60, A: 255}, false)
}

func (v *Viewer) drawHUD(screen *ebiten.Image) {
	s := v.snap
	baseY := s.Height * viewTileSize
	vector.FillRect(screen, 0, float32(baseY), float32(s.Width*viewTileSize), hudHeight,
		color.RGBA{R: 16, G: 16, B: 18, A: 255}, false)

	status := fmt.Sprintf("tick %d  speed %dx", s.Tick, v.speed)
	if v.paused {
		status += "  [paused]"
	}
	if v.over != nil {
		status = fmt.Sprintf("tick %d  GAME OVER: player %d wins (%s)", s.Tick, v.over.WinnerID, v.over.Reason)
	}
	ebitenutil.DebugPrintAt(screen, status, 6, baseY+4)

	for i, p := range s.Players {
		line := fmt.Sprintf("p%d %-8s gold %-5d supply %d/%d", p.ID, p.Name, p.Gold, p.Supply, p.MaxSupply)
		if p.Eliminated {
			line += "  [eliminated]"
		}
		ebitenutil.DebugPrintAt(screen, line, 6+(i%2)*360, baseY+20+(i/2)*16)
	}
}

func (v *Viewer) Layout(outsideWidth, outsideHeight int) (int, int) {
	return v.snap.Width * viewTileSize, v.snap.Height*viewTileSize + hudHeight
}

func seatColor(owner int) color.RGBA {
	if owner < 1 {
		return color.RGBA{R: 140, G: 140, B: 140, A: 255}
	}
	return seatColors[(owner-1)%len(seatColors)]
}
