package game

import (
	"math"
	"testing"
)

func TestMoveCommandWalksToTile(t *testing.T) {
	ms := NewMatchSim(
		WithFlatMap(20, 20),
		WithPlayer(1, 0),
		WithUnit(1, EntityWorker, 2.5, 2.5),
	)
	ms.Issue(1, Command{Type: CommandMoveUnits, Move: &MoveCommand{UnitIDs: []int{1}, TargetX: 10, TargetY: 2}})

	tick := ms.RunUntil(func(ms *MatchSim) bool {
		return ms.Entity(1).State == StateIdle
	}, 200)
	if tick < 0 {
		t.Fatalf("unit never arrived; at (%.2f,%.2f)", ms.Entity(1).X, ms.Entity(1).Y)
	}
	w := ms.Entity(1)
	if math.Abs(w.X-10.5) > arriveTolerance || math.Abs(w.Y-2.5) > arriveTolerance {
		t.Errorf("unit should stand on the target tile centre, at (%.2f,%.2f)", w.X, w.Y)
	}
	if w.Path != nil {
		t.Errorf("arrived unit keeps no residual path: %v", w.Path)
	}
}

func TestSpeedOrdering(t *testing.T) {
	ms := NewMatchSim(
		WithFlatMap(30, 30),
		WithPlayer(1, 0),
		WithUnit(1, EntityCavalry, 2.5, 2.5),
		WithUnit(1, EntityBallista, 2.5, 4.5),
	)
	ms.Issue(1, Command{Type: CommandMoveUnits, Move: &MoveCommand{UnitIDs: []int{1}, TargetX: 20, TargetY: 2}})
	ms.Issue(1, Command{Type: CommandMoveUnits, Move: &MoveCommand{UnitIDs: []int{2}, TargetX: 20, TargetY: 4}})
	ms.RunTicks(40)

	cav, ball := ms.Entity(1), ms.Entity(2)
	if cav.X <= ball.X {
		t.Errorf("cavalry (%.2f) should outpace the ballista (%.2f)", cav.X, ball.X)
	}
}

func TestRouteAvoidsFootprints(t *testing.T) {
	ms := NewMatchSim(
		WithFlatMap(20, 20),
		WithPlayer(1, 0),
		WithBuilding(1, EntityBarracks, 8, 1), // wall across the direct route
		WithBuilding(1, EntityBarracks, 8, 4),
		WithUnit(1, EntityWorker, 2.5, 3.5),
	)
	ms.Issue(1, Command{Type: CommandMoveUnits, Move: &MoveCommand{UnitIDs: []int{3}, TargetX: 15, TargetY: 3}})
	ms.RunTicks(1)

	w := ms.Entity(3)
	if len(w.Path) == 0 {
		t.Fatal("a detour exists; the move should have been accepted")
	}
	for _, wp := range w.Path {
		tx, ty := int(wp[0]), int(wp[1])
		if ms.GS.nav.Blocked(tx, ty) {
			t.Errorf("waypoint (%.1f,%.1f) sits inside a footprint", wp[0], wp[1])
		}
	}
}

func TestMoveIntoBlockedTileRejected(t *testing.T) {
	ms := NewMatchSim(
		WithFlatMap(20, 20),
		WithPlayer(1, 0),
		WithBuilding(1, EntityHouse, 10, 10),
		WithUnit(1, EntityWorker, 2.5, 2.5),
	)
	ms.Issue(1, Command{Type: CommandMoveUnits, Move: &MoveCommand{UnitIDs: []int{2}, TargetX: 10, TargetY: 10}})
	ms.RunTicks(1)

	w := ms.Entity(2)
	if w.State != StateIdle || len(w.Path) != 0 {
		t.Errorf("a move onto a footprint is a no-op; state=%v path=%v", w.State, w.Path)
	}
}

func TestBuildingsNeverMove(t *testing.T) {
	ms := NewMatchSim(
		WithFlatMap(20, 20),
		WithPlayer(1, 0),
		WithBuilding(1, EntityTower, 5, 5),
	)
	ms.Issue(1, Command{Type: CommandMoveUnits, Move: &MoveCommand{UnitIDs: []int{1}, TargetX: 10, TargetY: 10}})
	ms.RunTicks(5)

	tw := ms.Entity(1)
	if tw.X != 5 || tw.Y != 5 {
		t.Errorf("tower moved to (%.1f,%.1f)", tw.X, tw.Y)
	}
}
