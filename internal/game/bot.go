package game

// --- Bot tuning ---

const (
	botThrottle       = 5    // full decision pass every Nth tick
	botHouseThreshold = 0.70 // supply utilization that triggers a house
	botHouseCap       = 6
	botArmyThreshold  = 6  // idle combat units before pushing out
	botAttackDist     = 12 // tiles from the enemy base: closer attacks, farther approaches
	botWorkerCap      = 8
)

// BotAgent is a scripted opponent. It reads the state and emits the same
// command vocabulary a human player uses; the engine cannot tell the
// difference. It holds no per-tick mutable trackers of its own, so a fresh
// agent on the same state makes the same decisions.
type BotAgent struct {
	PlayerID int
}

// NewBotAgent creates an agent playing the given seat.
func NewBotAgent(playerID int) *BotAgent {
	return &BotAgent{PlayerID: playerID}
}

// Decide runs one throttled decision pass and returns the commands to
// enqueue. Priorities, highest first: keep worker production going, keep
// workers mining, stay ahead of the supply cap, get a barracks up, train an
// army, and attack once the army is big enough.
func (ba *BotAgent) Decide(gs *GameState) []Command {
	if gs.Tick%botThrottle != 0 {
		return nil
	}
	p, ok := gs.Players[ba.PlayerID]
	if !ok || p.Eliminated {
		return nil
	}

	var (
		base            *Entity
		barracks        *Entity
		houses          int
		workers         []*Entity
		idleArmy        []*Entity
		pendingHouse    bool
		pendingBarracks bool
	)
	for _, e := range gs.entitiesSorted() {
		if e.Owner != ba.PlayerID {
			continue
		}
		switch {
		case e.Type == EntityHomeBase:
			if base == nil {
				base = e
			}
		case e.Type == EntityBarracks:
			if barracks == nil || (!barracks.Completed() && e.Completed()) {
				barracks = e
			}
		case e.Type == EntityHouse:
			houses++
		case e.Type == EntityWorker:
			workers = append(workers, e)
			if e.Pending != nil {
				switch e.Pending.Building {
				case EntityHouse:
					pendingHouse = true
				case EntityBarracks:
					pendingBarracks = true
				}
			}
		case e.Type.IsCombatUnit():
			if e.State == StateIdle {
				idleArmy = append(idleArmy, e)
			}
		}
	}
	if base == nil {
		return nil
	}

	var cmds []Command

	// 1. Worker production.
	if len(workers) < botWorkerCap && base.Completed() && len(base.Queue) == 0 &&
		p.Gold >= unitStatsTable[EntityWorker].cost && p.Supply < p.MaxSupply {
		cmds = append(cmds, Command{Type: CommandTrainUnit, Train: &TrainCommand{BuildingID: base.ID, UnitType: EntityWorker}})
	}

	// 2. Idle workers go to the nearest workable mine.
	for _, w := range workers {
		if w.State != StateIdle || w.TargetID > 0 || w.Pending != nil || w.CarriedGold > 0 {
			continue
		}
		if m := ba.bestMine(gs, w); m != nil {
			cmds = append(cmds, Command{Type: CommandGatherResource, Gather: &GatherCommand{WorkerIDs: []int{w.ID}, MineID: m.ID}})
		}
	}

	// 3. House before the supply cap bites.
	if p.MaxSupply > 0 && !pendingHouse && houses < botHouseCap &&
		float64(p.Supply) >= botHouseThreshold*float64(p.MaxSupply) &&
		p.Gold >= buildingStatsTable[EntityHouse].cost {
		ba.orderBuild(gs, workers, EntityHouse, base, &cmds)
	}

	// 4. One barracks.
	if barracks == nil && !pendingBarracks && p.Gold >= buildingStatsTable[EntityBarracks].cost {
		ba.orderBuild(gs, workers, EntityBarracks, base, &cmds)
	}

	// 5. Train combat units.
	if barracks != nil && barracks.Completed() && len(barracks.Queue) == 0 &&
		p.Gold >= unitStatsTable[EntityInfantry].cost &&
		p.Supply+unitStatsTable[EntityInfantry].supply <= p.MaxSupply {
		cmds = append(cmds, Command{Type: CommandTrainUnit, Train: &TrainCommand{BuildingID: barracks.ID, UnitType: EntityInfantry}})
	}

	// 6. Push out once the army is assembled.
	if len(idleArmy) >= botArmyThreshold {
		if enemy := ba.nearestEnemyBase(gs); enemy != nil {
			ids := make([]int, len(idleArmy))
			for i, u := range idleArmy {
				ids[i] = u.ID
			}
			lead := idleArmy[0]
			if enemy.edgeDistance(lead.X, lead.Y) <= botAttackDist {
				cmds = append(cmds, Command{Type: CommandAttackTarget, Attack: &AttackCommand{UnitIDs: ids, TargetID: enemy.ID}})
			} else {
				cmds = append(cmds, Command{Type: CommandMoveUnits, Move: &MoveCommand{UnitIDs: ids, TargetX: int(enemy.X) - 1, TargetY: int(enemy.Y) - 1}})
			}
		}
	}

	return cmds
}

// bestMine picks the nearest mine with gold and a free seat for a worker.
func (ba *BotAgent) bestMine(gs *GameState, w *Entity) *GoldMine {
	var best *GoldMine
	bestD := 0.0
	for _, m := range gs.Mines {
		if !m.HasCapacity() {
			continue
		}
		d := m.edgeDistance(w.X, w.Y)
		if best == nil || d < bestD {
			best = m
			bestD = d
		}
	}
	return best
}

// nearestEnemyBase returns the closest living enemy home base.
func (ba *BotAgent) nearestEnemyBase(gs *GameState) *Entity {
	var own *Entity
	for _, e := range gs.entitiesSorted() {
		if e.Owner == ba.PlayerID && e.Type == EntityHomeBase {
			own = e
			break
		}
	}
	var best *Entity
	bestD := 0.0
	for _, e := range gs.entitiesSorted() {
		if e.Owner == ba.PlayerID || e.Type != EntityHomeBase {
			continue
		}
		d := 0.0
		if own != nil {
			d = dist(own.CenterX(), own.CenterY(), e.CenterX(), e.CenterY())
		}
		if best == nil || d < bestD {
			best = e
			bestD = d
		}
	}
	return best
}

// orderBuild finds a free worker and a clear site near the base and appends a
// build command. Site search spirals outward from the base corner.
func (ba *BotAgent) orderBuild(gs *GameState, workers []*Entity, t EntityType, base *Entity, cmds *[]Command) {
	var builder *Entity
	for _, w := range workers {
		if w.Pending == nil && w.State != StateGathering && w.State != StateReturning {
			builder = w
			break
		}
	}
	if builder == nil && len(workers) > 0 {
		builder = workers[0]
	}
	if builder == nil {
		return
	}
	bx, by := int(base.X), int(base.Y)
	for radius := 2; radius <= 8; radius++ {
		for _, site := range borderTiles(bx-radius+1, by-radius+1, base.FootW+2*radius-2, base.FootH+2*radius-2) {
			if gs.canPlaceBuilding(t, site.X, site.Y) {
				*cmds = append(*cmds, Command{Type: CommandBuildStructure, Build: &BuildCommand{
					WorkerID: builder.ID, BuildingType: t, X: site.X, Y: site.Y,
				}})
				return
			}
		}
	}
}
