package game

import (
	"fmt"
	"sort"
	"strings"
)

// PlayerReport tallies one player's standing at a point in time.
type PlayerReport struct {
	PlayerID  int
	Name      string
	Gold      int
	Supply    int
	MaxSupply int

	Workers   int
	Army      int
	Buildings int

	GoldMined  int // cumulative, from the match log
	UnitsLost  int
	StructLost int
}

// MatchReport is a full snapshot of a match at one tick.
type MatchReport struct {
	Tick    int
	Players []PlayerReport
	Mined   int // total gold extracted from all mines
	Over    bool
	Winner  int
}

// MatchReporter samples the state at a fixed interval and keeps the history
// for post-run analysis. The headless driver prints its formatted summaries.
type MatchReporter struct {
	interval int
	history  []MatchReport
}

// NewMatchReporter creates a reporter sampling every intervalTicks.
func NewMatchReporter(intervalTicks int) *MatchReporter {
	if intervalTicks < 1 {
		intervalTicks = 1
	}
	return &MatchReporter{interval: intervalTicks}
}

// Collect samples the state if the tick falls on the sampling interval.
func (r *MatchReporter) Collect(gs *GameState, simlog *SimLog) {
	if gs.Tick%r.interval != 0 {
		return
	}
	r.history = append(r.history, buildReport(gs, simlog, false, -1))
}

// Final records the terminal sample regardless of interval.
func (r *MatchReporter) Final(gs *GameState, simlog *SimLog, winner int) {
	r.history = append(r.history, buildReport(gs, simlog, true, winner))
}

// Latest returns the most recent sample, or nil before the first.
func (r *MatchReporter) Latest() *MatchReport {
	if len(r.history) == 0 {
		return nil
	}
	return &r.history[len(r.history)-1]
}

// History returns every collected sample in order.
func (r *MatchReporter) History() []MatchReport {
	return r.history
}

func buildReport(gs *GameState, simlog *SimLog, over bool, winner int) MatchReport {
	rep := MatchReport{Tick: gs.Tick, Over: over, Winner: winner}

	byID := make(map[int]*PlayerReport)
	for _, p := range gs.playersSorted() {
		rep.Players = append(rep.Players, PlayerReport{
			PlayerID:  p.ID,
			Name:      p.Name,
			Gold:      p.Gold,
			Supply:    p.Supply,
			MaxSupply: p.MaxSupply,
		})
		byID[p.ID] = &rep.Players[len(rep.Players)-1]
	}
	for _, e := range gs.entitiesSorted() {
		pr, ok := byID[e.Owner]
		if !ok {
			continue
		}
		switch {
		case e.IsBuilding():
			pr.Buildings++
		case e.Type == EntityWorker:
			pr.Workers++
		case e.Type.IsCombatUnit():
			pr.Army++
		}
	}
	for _, ev := range simlog.Filter("economy", "mined") {
		rep.Mined += int(ev.NumVal)
		if pr, ok := byID[ev.Player]; ok {
			pr.GoldMined += int(ev.NumVal)
		}
	}
	for _, ev := range simlog.Filter("combat", "death") {
		pr, ok := byID[ev.Player]
		if !ok {
			continue
		}
		if isBuildingName(ev.Value) {
			pr.StructLost++
		} else {
			pr.UnitsLost++
		}
	}
	return rep
}

func isBuildingName(name string) bool {
	for t := EntityHomeBase; t <= EntityArmory; t++ {
		if t.String() == name {
			return true
		}
	}
	return false
}

// Format renders the report as a fixed-width table, one player per line.
func (mr *MatchReport) Format() string {
	var b strings.Builder
	fmt.Fprintf(&b, "tick %d  mined %d", mr.Tick, mr.Mined)
	if mr.Over {
		fmt.Fprintf(&b, "  winner p%d", mr.Winner)
	}
	b.WriteByte('\n')

	players := append([]PlayerReport(nil), mr.Players...)
	sort.Slice(players, func(i, j int) bool { return players[i].PlayerID < players[j].PlayerID })
	for _, p := range players {
		fmt.Fprintf(&b, "  p%d %-10s gold=%-5d supply=%d/%-3d workers=%-2d army=%-3d buildings=%-2d mined=%-5d lost=%d/%d\n",
			p.PlayerID, p.Name, p.Gold, p.Supply, p.MaxSupply,
			p.Workers, p.Army, p.Buildings, p.GoldMined, p.UnitsLost, p.StructLost)
	}
	return b.String()
}
