package game

import (
	"strings"
	"testing"
)

func TestReporterSamplingInterval(t *testing.T) {
	ms := NewMatchSim(
		WithFlatMap(20, 20),
		WithPlayer(1, 100),
		WithBuilding(1, EntityHomeBase, 2, 2),
	)
	rep := NewMatchReporter(10)

	for tick := 1; tick <= 25; tick++ {
		ms.GS.Tick = tick
		rep.Collect(ms.GS, ms.SimLog)
	}
	if got := len(rep.History()); got != 2 {
		t.Fatalf("expected samples at ticks 10 and 20, got %d samples", got)
	}
	if rep.Latest().Tick != 20 {
		t.Errorf("latest sample tick = %d, want 20", rep.Latest().Tick)
	}
}

func TestReportTallies(t *testing.T) {
	ms := NewMatchSim(
		WithFlatMap(30, 30),
		WithPlayer(1, 340),
		WithPlayer(2, 250),
		WithBuilding(1, EntityHomeBase, 2, 2),   // id 1
		WithBuilding(1, EntityBarracks, 8, 2),   // id 2
		WithUnit(1, EntityWorker, 5.5, 8.5),     // id 3
		WithUnit(1, EntityInfantry, 6.5, 8.5),   // id 4
		WithUnit(1, EntityInfantry, 7.5, 8.5),   // id 5
		WithBuilding(2, EntityHomeBase, 20, 20), // id 6
	)
	ms.GS.Tick = 300
	ms.SimLog.Add(100, 1, "economy", "mined", "mine 1", 10)
	ms.SimLog.Add(160, 1, "economy", "mined", "mine 1", 10)
	ms.SimLog.Add(200, 2, "economy", "mined", "mine 2", 10)
	ms.SimLog.Add(250, 2, "combat", "death", "worker", 7)
	ms.SimLog.Add(280, 2, "combat", "death", "barracks", 8)

	rep := NewMatchReporter(100)
	rep.Final(ms.GS, ms.SimLog, 1)

	mr := rep.Latest()
	if mr == nil || !mr.Over || mr.Winner != 1 {
		t.Fatalf("terminal sample wrong: %+v", mr)
	}
	if mr.Mined != 30 {
		t.Errorf("total mined = %d, want 30", mr.Mined)
	}
	if len(mr.Players) != 2 {
		t.Fatalf("expected 2 player rows, got %d", len(mr.Players))
	}
	p1, p2 := mr.Players[0], mr.Players[1]
	if p1.PlayerID != 1 || p2.PlayerID != 2 {
		t.Fatalf("player rows out of order: %d, %d", p1.PlayerID, p2.PlayerID)
	}
	if p1.Workers != 1 || p1.Army != 2 || p1.Buildings != 2 {
		t.Errorf("p1 roster = %d workers / %d army / %d buildings, want 1/2/2",
			p1.Workers, p1.Army, p1.Buildings)
	}
	if p1.GoldMined != 20 || p2.GoldMined != 10 {
		t.Errorf("mined split = %d/%d, want 20/10", p1.GoldMined, p2.GoldMined)
	}
	if p2.UnitsLost != 1 || p2.StructLost != 1 {
		t.Errorf("p2 losses = %d units / %d structures, want 1/1", p2.UnitsLost, p2.StructLost)
	}
	if p1.UnitsLost != 0 || p1.StructLost != 0 {
		t.Errorf("p1 should have no losses, got %d/%d", p1.UnitsLost, p1.StructLost)
	}
}

func TestReportFormat(t *testing.T) {
	mr := MatchReport{
		Tick:   1200,
		Mined:  340,
		Over:   true,
		Winner: 2,
		Players: []PlayerReport{
			{PlayerID: 2, Name: "cobalt", Gold: 75, Supply: 9, MaxSupply: 18},
			{PlayerID: 1, Name: "crimson", Gold: 10, Supply: 2, MaxSupply: 10},
		},
	}
	out := mr.Format()
	if !strings.Contains(out, "winner p2") {
		t.Errorf("missing winner line:\n%s", out)
	}
	// Rows print in id order regardless of insertion order.
	i1 := strings.Index(out, "p1 crimson")
	i2 := strings.Index(out, "p2 cobalt")
	if i1 < 0 || i2 < 0 || i2 < i1 {
		t.Errorf("player rows missing or out of order:\n%s", out)
	}
}
