package main

import (
	"flag"
	"log"

	"github.com/beckworth/redoubt/internal/game"
	"github.com/hajimehoshi/ebiten/v2"
)

func main() {
	seed := flag.Int64("seed", 1, "map generation seed")
	bots := flag.Int("bots", 2, "number of bot seats (2-4)")
	flag.Parse()

	if *bots < 2 {
		*bots = 2
	}
	if *bots > 4 {
		*bots = 4
	}
	names := []string{"crimson", "cobalt", "amber", "viridian"}
	var roster []game.PlayerInfo
	for i := 0; i < *bots; i++ {
		roster = append(roster, game.PlayerInfo{ID: i + 1, Name: names[i], Faction: "legion", Bot: true})
	}

	eng := game.New(game.MatchConfig{MatchID: "local", Seed: *seed, Players: roster})
	viewer := game.NewViewer(eng)

	ebiten.SetWindowTitle("Redoubt")
	w, h := viewer.Layout(0, 0)
	ebiten.SetWindowSize(w, h)
	if err := ebiten.RunGame(viewer); err != nil {
		log.Fatal(err)
	}
}
