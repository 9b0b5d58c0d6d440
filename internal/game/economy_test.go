package game

import (
	"testing"
)

// Full gather loop: walk to the mine, mine for the fixed duration, carry the
// load home, deposit, then head straight back without a new order.
func TestGatherCycle(t *testing.T) {
	ms := NewMatchSim(
		WithFlatMap(30, 30),
		WithPlayer(1, 0),
		WithBuilding(1, EntityHomeBase, 2, 2),
		WithUnit(1, EntityWorker, 5.5, 5.5),
		WithMine(10, 10, 2000, 1),
	)
	worker := ms.Entity(2)
	if worker == nil || worker.Type != EntityWorker {
		t.Fatal("expected entity 2 to be the worker")
	}

	ms.Issue(1, Command{Type: CommandGatherResource, Gather: &GatherCommand{WorkerIDs: []int{2}, MineID: 1}})

	tick := ms.RunUntil(func(ms *MatchSim) bool {
		return ms.Player(1).Gold >= 10
	}, 1000)
	if tick < 0 {
		t.Fatalf("worker never deposited; state=%v carried=%d gold=%d",
			worker.State, worker.CarriedGold, ms.Player(1).Gold)
	}
	if got := ms.GS.Mines[0].GoldRemaining; got != 1990 {
		t.Errorf("mine should have lost one load: remaining=%d, want 1990", got)
	}

	// The cycle is continuous: a second load arrives with no further orders.
	second := ms.RunUntil(func(ms *MatchSim) bool {
		return ms.Player(1).Gold >= 20
	}, 1000)
	if second < 0 {
		t.Fatalf("worker did not resume mining after deposit; state=%v", worker.State)
	}
}

func TestMineCapacityAndRetarget(t *testing.T) {
	ms := NewMatchSim(
		WithFlatMap(40, 40),
		WithPlayer(1, 0),
		WithBuilding(1, EntityHomeBase, 2, 2),
		WithUnit(1, EntityWorker, 9.5, 10.5),
		WithUnit(1, EntityWorker, 9.5, 11.5),
		WithMine(10, 10, 2000, 1),
		WithMine(20, 10, 2000, 1),
	)
	ms.Issue(1, Command{Type: CommandGatherResource, Gather: &GatherCommand{WorkerIDs: []int{2, 3}, MineID: 1}})
	ms.RunTicks(3)

	m1 := ms.GS.Mines[0]
	if len(m1.Occupants) != 1 {
		t.Fatalf("mine holds one worker at a time, got occupants %v", m1.Occupants)
	}
	if !m1.Occupied(2) {
		t.Errorf("lower-id worker should win the seat, occupants %v", m1.Occupants)
	}

	// The waiting worker gives up after the retry window and heads for the
	// other mine.
	ms.RunTicks(mineRetryTicks + 5)
	loser := ms.Entity(3)
	if loser.TargetID != 2 {
		t.Errorf("waiting worker should retarget mine 2, has target %d (state=%v)", loser.TargetID, loser.State)
	}
	if n := len(ms.SimLog.Filter("economy", "mine_retarget")); n != 1 {
		t.Errorf("expected exactly one retarget event, got %d", n)
	}
}

func TestMineExhaustion(t *testing.T) {
	ms := NewMatchSim(
		WithFlatMap(30, 30),
		WithPlayer(1, 0),
		WithBuilding(1, EntityHomeBase, 2, 2),
		WithUnit(1, EntityWorker, 9.5, 10.5),
		WithMine(10, 10, 15, 1), // one full load plus a short one
	)
	ms.Issue(1, Command{Type: CommandGatherResource, Gather: &GatherCommand{WorkerIDs: []int{2}, MineID: 1}})

	tick := ms.RunUntil(func(ms *MatchSim) bool {
		return ms.Player(1).Gold >= 15
	}, 2000)
	if tick < 0 {
		t.Fatalf("worker should bank all 15 gold; banked %d", ms.Player(1).Gold)
	}
	if ms.GS.Mines[0].GoldRemaining != 0 {
		t.Errorf("mine should be exhausted, has %d", ms.GS.Mines[0].GoldRemaining)
	}

	ms.RunTicks(10)
	w := ms.Entity(2)
	if w.State != StateIdle || w.TargetID != -1 {
		t.Errorf("worker at an exhausted mine goes idle; state=%v target=%d", w.State, w.TargetID)
	}
}

func TestConstructionLifecycle(t *testing.T) {
	ms := NewMatchSim(
		WithFlatMap(30, 30),
		WithPlayer(1, 500),
		WithBuilding(1, EntityHomeBase, 2, 2),
		WithUnit(1, EntityWorker, 10.5, 10.5),
	)
	ms.Issue(1, Command{Type: CommandBuildStructure, Build: &BuildCommand{
		WorkerID: 2, BuildingType: EntityHouse, X: 11, Y: 11,
	}})
	ms.RunTicks(1)

	if got := ms.Player(1).Gold; got != 420 {
		t.Fatalf("house cost must be escrowed immediately: gold=%d, want 420", got)
	}

	// Worker is adjacent, so the site goes down on the next economy pass.
	ms.RunTicks(2)
	var house *Entity
	for _, e := range ms.OwnedBy(1) {
		if e.Type == EntityHouse {
			house = e
		}
	}
	if house == nil {
		t.Fatal("house was never placed")
	}
	if house.Completed() {
		t.Fatal("house must start under construction")
	}

	tick := ms.RunUntil(func(ms *MatchSim) bool { return house.Completed() }, 200)
	if tick < 0 {
		t.Fatalf("house never completed; progress=%.2f", house.BuildProgress)
	}
	if got := ms.Player(1).MaxSupply; got != 18 {
		t.Errorf("completed house grants supply: max=%d, want 18 (base 10 + house 8)", got)
	}
}

// A redirected build order refunds its escrow exactly once, when the worker
// arrives somewhere the site can no longer be placed from.
func TestBuildEscrowRefund(t *testing.T) {
	ms := NewMatchSim(
		WithFlatMap(30, 30),
		WithPlayer(1, 200),
		WithBuilding(1, EntityHomeBase, 2, 2),
		WithUnit(1, EntityWorker, 20.5, 20.5),
	)
	ms.Issue(1, Command{Type: CommandBuildStructure, Build: &BuildCommand{
		WorkerID: 2, BuildingType: EntityDepot, X: 10, Y: 10,
	}})
	ms.RunTicks(1)
	if got := ms.Player(1).Gold; got != 100 {
		t.Fatalf("depot escrow not taken: gold=%d, want 100", got)
	}

	// Override the trip; the worker walks away from the site instead.
	ms.Issue(1, Command{Type: CommandMoveUnits, Move: &MoveCommand{UnitIDs: []int{2}, TargetX: 25, TargetY: 25}})
	tick := ms.RunUntil(func(ms *MatchSim) bool {
		return ms.Player(1).Gold == 200
	}, 500)
	if tick < 0 {
		t.Fatalf("escrow never refunded; gold=%d pending=%v", ms.Player(1).Gold, ms.Entity(2).Pending)
	}
	if ms.Entity(2).Pending != nil {
		t.Error("pending order must be cleared with the refund")
	}
	for _, e := range ms.OwnedBy(1) {
		if e.Type == EntityDepot {
			t.Error("no depot should have been placed")
		}
	}
}

// A footprint with a unit standing on it is not a legal site: placing there
// would wall the unit in once the tiles go onto the nav grid.
func TestBuildSiteOccupiedByUnit(t *testing.T) {
	ms := NewMatchSim(
		WithFlatMap(30, 30),
		WithPlayer(1, 500),
		WithBuilding(1, EntityHomeBase, 2, 2),   // id 1
		WithUnit(1, EntityWorker, 10.5, 10.5),   // id 2
		WithUnit(1, EntityInfantry, 12.5, 12.5), // id 3
	)

	// Occupied at order time: the command is a silent no-op.
	ms.Issue(1, Command{Type: CommandBuildStructure, Build: &BuildCommand{
		WorkerID: 2, BuildingType: EntityHouse, X: 12, Y: 12,
	}})
	ms.RunTicks(1)
	if got := ms.Player(1).Gold; got != 500 {
		t.Fatalf("order over an occupied site must not escrow: gold=%d", got)
	}
	if ms.Entity(2).Pending != nil {
		t.Fatal("no pending order should exist")
	}

	// Occupied at arrival time: the escrow is refunded, nothing is placed.
	ms.Issue(1, Command{Type: CommandBuildStructure, Build: &BuildCommand{
		WorkerID: 2, BuildingType: EntityHouse, X: 20, Y: 20,
	}})
	ms.RunTicks(1)
	if got := ms.Player(1).Gold; got != 420 {
		t.Fatalf("house escrow not taken: gold=%d, want 420", got)
	}
	squatter := newUnit(ms.GS.allocID(), EntityInfantry, 1, 20.5, 20.5, 1.0)
	ms.GS.Entities[squatter.ID] = squatter

	tick := ms.RunUntil(func(ms *MatchSim) bool {
		return ms.Player(1).Gold == 500
	}, 400)
	if tick < 0 {
		t.Fatalf("escrow never refunded; gold=%d pending=%v", ms.Player(1).Gold, ms.Entity(2).Pending)
	}
	if ms.Entity(2).Pending != nil {
		t.Error("pending order must be cleared with the refund")
	}
	for _, e := range ms.OwnedBy(1) {
		if e.Type == EntityHouse {
			t.Error("no house should have been placed over the unit")
		}
	}
}

func TestTrainingAndRally(t *testing.T) {
	ms := NewMatchSim(
		WithFlatMap(30, 30),
		WithPlayer(1, 300),
		WithBuilding(1, EntityHomeBase, 2, 2),
		WithBuilding(1, EntityBarracks, 10, 10),
	)
	ms.Issue(1, Command{Type: CommandSetRallyPoint, Rally: &RallyCommand{BuildingID: 2, X: 20, Y: 20}})
	ms.Issue(1, Command{Type: CommandTrainUnit, Train: &TrainCommand{BuildingID: 2, UnitType: EntityInfantry}})
	ms.RunTicks(1)

	if got := ms.Player(1).Gold; got != 240 {
		t.Fatalf("infantry cost deducted at queue time: gold=%d, want 240", got)
	}
	barracks := ms.Entity(2)
	if len(barracks.Queue) != 1 {
		t.Fatalf("queue should hold one order, has %d", len(barracks.Queue))
	}

	tick := ms.RunUntil(func(ms *MatchSim) bool {
		for _, e := range ms.OwnedBy(1) {
			if e.Type == EntityInfantry {
				return true
			}
		}
		return false
	}, unitStatsTable[EntityInfantry].trainTicks+10)
	if tick < 0 {
		t.Fatal("infantry never spawned")
	}

	var inf *Entity
	for _, e := range ms.OwnedBy(1) {
		if e.Type == EntityInfantry {
			inf = e
		}
	}
	if inf.State != StateMoving || len(inf.Path) == 0 {
		t.Errorf("fresh unit should march to the rally point; state=%v", inf.State)
	}
	last := inf.Path[len(inf.Path)-1]
	if int(last[0]) != 20 || int(last[1]) != 20 {
		t.Errorf("rally path ends at (%v), want tile (20,20)", last)
	}
}

func TestTrainingBlockedBySupply(t *testing.T) {
	ms := NewMatchSim(
		WithFlatMap(30, 30),
		WithPlayer(1, 2000),
		WithBuilding(1, EntityHomeBase, 2, 2), // 10 supply
	)
	for i := 0; i < 12; i++ {
		ms.Issue(1, Command{Type: CommandTrainUnit, Train: &TrainCommand{BuildingID: 1, UnitType: EntityWorker}})
	}
	ms.RunTicks(1)

	base := ms.Entity(1)
	if len(base.Queue) != 10 {
		t.Errorf("queue must stop at the supply cap: %d orders, want 10", len(base.Queue))
	}
	if got := ms.Player(1).Gold; got != 2000-10*50 {
		t.Errorf("only accepted orders are charged: gold=%d, want %d", got, 2000-10*50)
	}
}

func TestUpgradePurchases(t *testing.T) {
	ms := NewMatchSim(
		WithFlatMap(30, 30),
		WithPlayer(1, 1000),
		WithBuilding(1, EntityHomeBase, 2, 2),
		WithBuilding(1, EntityArmory, 10, 10),
	)
	buy := func() {
		ms.Issue(1, Command{Type: CommandUpgradeUnit, Upgrade: &UpgradeCommand{ArmoryID: 2, UnitType: EntityInfantry}})
		ms.RunTicks(1)
	}

	buy()
	if got := ms.Player(1).Gold; got != 900 {
		t.Fatalf("level 1 costs 100: gold=%d", got)
	}
	buy()
	if got := ms.Player(1).Gold; got != 725 {
		t.Fatalf("level 2 costs 175: gold=%d", got)
	}
	buy()
	if got := ms.Player(1).Gold; got != 475 {
		t.Fatalf("level 3 costs 250: gold=%d", got)
	}
	if lvl := ms.Player(1).UpgradeLevel(EntityInfantry); lvl != 3 {
		t.Fatalf("level should be 3, got %d", lvl)
	}

	// Capped: a fourth purchase is a silent no-op.
	buy()
	if got := ms.Player(1).Gold; got != 475 {
		t.Errorf("purchases beyond the cap must not charge: gold=%d", got)
	}
	if lvl := ms.Player(1).UpgradeLevel(EntityInfantry); lvl != 3 {
		t.Errorf("level must stay capped at 3, got %d", lvl)
	}
}
