package game

// CommandType enumerates the supported match commands. Bots and human players
// share this vocabulary; the engine cannot tell their commands apart.
type CommandType int

const (
	CommandMoveUnits CommandType = iota
	CommandAttackTarget
	CommandBuildStructure
	CommandTrainUnit
	CommandGatherResource
	CommandUpgradeUnit
	CommandDepositGold
	CommandSetRallyPoint
)

func (ct CommandType) String() string {
	switch ct {
	case CommandMoveUnits:
		return "moveUnits"
	case CommandAttackTarget:
		return "attackTarget"
	case CommandBuildStructure:
		return "buildStructure"
	case CommandTrainUnit:
		return "trainUnit"
	case CommandGatherResource:
		return "gatherResource"
	case CommandUpgradeUnit:
		return "upgradeUnit"
	case CommandDepositGold:
		return "depositGold"
	case CommandSetRallyPoint:
		return "setRallyPoint"
	default:
		return "unknown"
	}
}

// MoveCommand orders units to a destination tile.
type MoveCommand struct {
	UnitIDs []int `json:"unitIds"`
	TargetX int   `json:"targetX"`
	TargetY int   `json:"targetY"`
}

// AttackCommand orders units onto an enemy entity.
type AttackCommand struct {
	UnitIDs  []int `json:"unitIds"`
	TargetID int   `json:"targetId"`
}

// BuildCommand sends a worker to place a building.
type BuildCommand struct {
	WorkerID     int        `json:"workerId"`
	BuildingType EntityType `json:"buildingType"`
	X            int        `json:"x"`
	Y            int        `json:"y"`
}

// TrainCommand queues a unit at a production building.
type TrainCommand struct {
	BuildingID int        `json:"buildingId"`
	UnitType   EntityType `json:"unitType"`
}

// GatherCommand assigns workers to a gold mine.
type GatherCommand struct {
	WorkerIDs []int `json:"workerIds"`
	MineID    int   `json:"mineId"`
}

// UpgradeCommand buys the next upgrade level for a unit type at an armory.
type UpgradeCommand struct {
	ArmoryID int        `json:"armoryId"`
	UnitType EntityType `json:"unitType"`
}

// DepositCommand sends carrying workers to a specific depot.
type DepositCommand struct {
	WorkerIDs []int `json:"workerIds"`
	DepotID   int   `json:"depotId"`
}

// RallyCommand sets a building's rally point.
type RallyCommand struct {
	BuildingID int `json:"buildingId"`
	X          int `json:"x"`
	Y          int `json:"y"`
}

// Command is the tagged union enqueued by players and bots. Exactly one
// payload pointer matching Type is set.
type Command struct {
	Type    CommandType     `json:"type"`
	Move    *MoveCommand    `json:"move,omitempty"`
	Attack  *AttackCommand  `json:"attack,omitempty"`
	Build   *BuildCommand   `json:"build,omitempty"`
	Train   *TrainCommand   `json:"train,omitempty"`
	Gather  *GatherCommand  `json:"gather,omitempty"`
	Upgrade *UpgradeCommand `json:"upgrade,omitempty"`
	Deposit *DepositCommand `json:"deposit,omitempty"`
	Rally   *RallyCommand   `json:"rally,omitempty"`
}

// dispatchCommand validates and applies one command against the state.
// Every failure path is a silent no-op: nothing is charged, nothing mutates,
// and nothing can abort the tick loop. Commands are validated here, at
// dispatch time, so orders that went stale in the queue are safely dropped.
func dispatchCommand(gs *GameState, playerID int, cmd Command, log *SimLog) {
	if _, ok := gs.Players[playerID]; !ok {
		return
	}
	switch cmd.Type {
	case CommandMoveUnits:
		handleMove(gs, playerID, cmd.Move)
	case CommandAttackTarget:
		handleAttack(gs, playerID, cmd.Attack)
	case CommandBuildStructure:
		handleBuild(gs, playerID, cmd.Build, log)
	case CommandTrainUnit:
		handleTrain(gs, playerID, cmd.Train)
	case CommandGatherResource:
		handleGather(gs, playerID, cmd.Gather)
	case CommandUpgradeUnit:
		handleUpgrade(gs, playerID, cmd.Upgrade, log)
	case CommandDepositGold:
		handleDeposit(gs, playerID, cmd.Deposit)
	case CommandSetRallyPoint:
		handleRally(gs, playerID, cmd.Rally)
	}
}

// ownedUnit fetches a living, mobile entity owned by the player.
func ownedUnit(gs *GameState, playerID, id int) *Entity {
	e, ok := gs.Entities[id]
	if !ok || e.Owner != playerID || e.IsBuilding() {
		return nil
	}
	return e
}

// ownedBuilding fetches a living building owned by the player.
func ownedBuilding(gs *GameState, playerID, id int) *Entity {
	e, ok := gs.Entities[id]
	if !ok || e.Owner != playerID || !e.IsBuilding() {
		return nil
	}
	return e
}

func handleMove(gs *GameState, playerID int, c *MoveCommand) {
	if c == nil || !gs.inBounds(c.TargetX, c.TargetY) {
		return
	}
	for _, id := range c.UnitIDs {
		u := ownedUnit(gs, playerID, id)
		if u == nil {
			continue
		}
		path := gs.findPathTo(u, c.TargetX, c.TargetY)
		if path == nil {
			continue
		}
		// A direct move order overrides whatever the unit was doing.
		if u.State == StateGathering {
			if m := gs.mineByID(u.TargetID); m != nil {
				m.Leave(u.ID)
			}
		}
		u.Path = path
		u.State = StateMoving
		u.TargetID = -1
		u.MiningProgress = 0
	}
}

func handleAttack(gs *GameState, playerID int, c *AttackCommand) {
	if c == nil {
		return
	}
	target, ok := gs.Entities[c.TargetID]
	if !ok || target.Owner == playerID {
		return
	}
	for _, id := range c.UnitIDs {
		u := ownedUnit(gs, playerID, id)
		if u == nil {
			continue
		}
		if u.State == StateGathering {
			if m := gs.mineByID(u.TargetID); m != nil {
				m.Leave(u.ID)
			}
			u.MiningProgress = 0
		}
		u.State = StateAttacking
		u.TargetID = target.ID
		u.Path = nil // combat pass computes the approach
	}
}

func handleBuild(gs *GameState, playerID int, c *BuildCommand, log *SimLog) {
	if c == nil || !c.BuildingType.IsBuilding() {
		return
	}
	// Home bases are not player-buildable.
	if c.BuildingType == EntityHomeBase {
		return
	}
	w := ownedUnit(gs, playerID, c.WorkerID)
	if w == nil || w.Type != EntityWorker || w.Pending != nil {
		return
	}
	bs := buildingStatsTable[c.BuildingType]
	p := gs.Players[playerID]
	if p.Gold < bs.cost {
		return
	}
	if !gs.canPlaceBuilding(c.BuildingType, c.X, c.Y) {
		return
	}
	path := gs.findPathAdjacent(w, c.X, c.Y, bs.footW, bs.footH)
	if path == nil && rectDistance(w.X, w.Y, c.X, c.Y, bs.footW, bs.footH) > maxBuildDist {
		return
	}

	// All checks passed: escrow the gold and send the worker.
	p.Gold -= bs.cost
	if w.State == StateGathering {
		if m := gs.mineByID(w.TargetID); m != nil {
			m.Leave(w.ID)
		}
		w.MiningProgress = 0
	}
	w.Pending = &PendingBuild{Building: c.BuildingType, TileX: c.X, TileY: c.Y, Escrow: bs.cost}
	w.TargetID = -1
	w.Path = path
	if len(path) > 0 {
		w.State = StateMoving
	} else {
		w.State = StateIdle
	}
	log.Add(gs.Tick, playerID, "command", "build_queued", c.BuildingType.String(), float64(bs.cost))
}

func handleTrain(gs *GameState, playerID int, c *TrainCommand) {
	if c == nil {
		return
	}
	b := ownedBuilding(gs, playerID, c.BuildingID)
	if b == nil || !b.Completed() || !canTrain(b.Type, c.UnitType) {
		return
	}
	us := unitStatsTable[c.UnitType]
	p := gs.Players[playerID]
	if p.Gold < us.cost {
		return
	}
	if p.Supply+queuedSupply(gs, playerID)+us.supply > p.MaxSupply {
		return
	}
	p.Gold -= us.cost
	b.Queue = append(b.Queue, TrainOrder{UnitType: c.UnitType, TicksRemaining: us.trainTicks})
	b.State = StateTraining
}

// queuedSupply sums the supply of units already queued for training, so a
// burst of train commands cannot overshoot the cap before anything spawns.
func queuedSupply(gs *GameState, playerID int) int {
	total := 0
	for _, e := range gs.Entities {
		if e.Owner != playerID || !e.IsBuilding() {
			continue
		}
		for _, o := range e.Queue {
			total += unitStatsTable[o.UnitType].supply
		}
	}
	return total
}

func handleGather(gs *GameState, playerID int, c *GatherCommand) {
	if c == nil {
		return
	}
	m := gs.mineByID(c.MineID)
	if m == nil || m.GoldRemaining <= 0 {
		return
	}
	for _, id := range c.WorkerIDs {
		w := ownedUnit(gs, playerID, id)
		if w == nil || w.Type != EntityWorker || w.Pending != nil {
			continue
		}
		if w.State == StateGathering {
			if old := gs.mineByID(w.TargetID); old != nil {
				old.Leave(w.ID)
			}
			w.MiningProgress = 0
		}
		w.TargetID = m.ID
		w.Path = gs.findPathAdjacent(w, m.TileX, m.TileY, mineFootprint, mineFootprint)
		if w.Path == nil {
			w.TargetID = -1
			w.State = StateIdle
			continue
		}
		if len(w.Path) > 0 {
			w.State = StateMoving
		} else {
			w.State = StateIdle // already beside the mine; economy pass seats it
		}
	}
}

func handleUpgrade(gs *GameState, playerID int, c *UpgradeCommand, log *SimLog) {
	if c == nil {
		return
	}
	armory := ownedBuilding(gs, playerID, c.ArmoryID)
	if armory == nil || armory.Type != EntityArmory || !armory.Completed() {
		return
	}
	if _, ok := unitStatsTable[c.UnitType]; !ok {
		return
	}
	p := gs.Players[playerID]
	level := p.UpgradeLevel(c.UnitType)
	if level >= maxUpgradeLevel {
		return
	}
	cost := upgradeCost(level)
	if p.Gold < cost {
		return
	}
	p.Gold -= cost
	p.Upgrades[c.UnitType] = level + 1
	log.Add(gs.Tick, playerID, "command", "upgrade", c.UnitType.String(), float64(level+1))
}

func handleDeposit(gs *GameState, playerID int, c *DepositCommand) {
	if c == nil {
		return
	}
	depot := ownedBuilding(gs, playerID, c.DepotID)
	if depot == nil || !depot.Completed() || !buildingStatsTable[depot.Type].depot {
		return
	}
	for _, id := range c.WorkerIDs {
		w := ownedUnit(gs, playerID, id)
		if w == nil || w.Type != EntityWorker || w.CarriedGold <= 0 {
			continue
		}
		path := gs.findPathAdjacent(w, int(depot.X), int(depot.Y), depot.FootW, depot.FootH)
		if path == nil {
			continue
		}
		if w.State == StateGathering {
			if m := gs.mineByID(w.TargetID); m != nil {
				m.Leave(w.ID)
			}
			w.MiningProgress = 0
		}
		w.DepositID = depot.ID
		w.Path = path
		w.State = StateReturning
	}
}

func handleRally(gs *GameState, playerID int, c *RallyCommand) {
	if c == nil || !gs.inBounds(c.X, c.Y) {
		return
	}
	b := ownedBuilding(gs, playerID, c.BuildingID)
	if b == nil || len(buildingStatsTable[b.Type].trains) == 0 {
		return
	}
	b.RallyX = c.X
	b.RallyY = c.Y
	b.HasRally = true
}
