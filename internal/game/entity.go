package game

// --- Simulation constants ---

const (
	// arriveTolerance is the distance (in tiles) at which a moving unit is
	// considered to have reached a waypoint. Several units often aim at
	// overlapping tiles, so exact equality is never reliable.
	arriveTolerance = 0.01

	focusFireBonus = 0.15 // extra damage per additional attacker on one target

	mineDuration    = 60 // ticks of mining before a worker picks up gold
	carryAmount     = 10 // gold carried per trip
	mineRetryTicks  = 40 // blocked ticks at a full mine before re-targeting
	maxBuildDist    = 3.0 // tiles, worker-to-site distance allowed for placement
	gatherReachDist = 1.5 // tiles, edge distance treated as "at the mine/depot"

	maxUpgradeLevel   = 3
	upgradeBaseCost   = 100
	upgradeCostStep   = 75
	upgradeDamageStep = 0.15 // damage multiplier gained per level
	upgradeHPStep     = 0.10 // trained-unit max HP multiplier gained per level
)

// upgradeDamageMul returns the damage multiplier for an upgrade level.
func upgradeDamageMul(level int) float64 {
	return 1.0 + upgradeDamageStep*float64(level)
}

// upgradeHPMul returns the max-HP multiplier applied to newly trained units.
func upgradeHPMul(level int) float64 {
	return 1.0 + upgradeHPStep*float64(level)
}

// upgradeCost returns the gold cost to go from level to level+1.
func upgradeCost(level int) int {
	return upgradeBaseCost + upgradeCostStep*level
}

// EntityType enumerates every placeable or trainable thing in a match.
// Buildings come first so IsBuilding can test the range.
type EntityType int

const (
	EntityHomeBase EntityType = iota
	EntityHouse
	EntityBarracks
	EntityDepot
	EntityTower
	EntityArmory
	EntityWorker
	EntityInfantry
	EntityArcher
	EntityCavalry
	EntityBallista
)

func (et EntityType) String() string {
	switch et {
	case EntityHomeBase:
		return "homeBase"
	case EntityHouse:
		return "house"
	case EntityBarracks:
		return "barracks"
	case EntityDepot:
		return "depot"
	case EntityTower:
		return "tower"
	case EntityArmory:
		return "armory"
	case EntityWorker:
		return "worker"
	case EntityInfantry:
		return "infantry"
	case EntityArcher:
		return "archer"
	case EntityCavalry:
		return "cavalry"
	case EntityBallista:
		return "ballista"
	default:
		return "unknown"
	}
}

// IsBuilding reports whether the type has a footprint and never moves.
func (et EntityType) IsBuilding() bool {
	return et >= EntityHomeBase && et <= EntityArmory
}

// IsCombatUnit reports whether the type participates in auto-aggro and attacks.
func (et EntityType) IsCombatUnit() bool {
	switch et {
	case EntityInfantry, EntityArcher, EntityCavalry, EntityBallista:
		return true
	}
	return false
}

// EntityState is the high-level behaviour state tag.
type EntityState int

const (
	StateIdle EntityState = iota
	StateMoving
	StateGathering
	StateBuilding // under construction (buildings only)
	StateAttacking
	StateTraining
	StateReturning // carrying gold back to a depot
)

func (es EntityState) String() string {
	switch es {
	case StateIdle:
		return "idle"
	case StateMoving:
		return "moving"
	case StateGathering:
		return "gathering"
	case StateBuilding:
		return "building"
	case StateAttacking:
		return "attacking"
	case StateTraining:
		return "training"
	case StateReturning:
		return "returning"
	default:
		return "unknown"
	}
}

// unitStats bundles the per-type parameters of a mobile unit.
type unitStats struct {
	cost        int
	supply      int
	maxHP       float64
	speed       float64 // tiles per tick
	damage      float64
	attackRange float64 // tiles, edge-to-edge
	cooldown    int     // ticks between attacks
	aggro       float64 // auto-acquire radius; 0 = never auto-aggros
	trainTicks  int
	siege       bool // restricts auto-aggro and damage to buildings
}

// unitStatsTable maps each unit type to its parameters.
var unitStatsTable = map[EntityType]unitStats{
	EntityWorker:   {cost: 50, supply: 1, maxHP: 30, speed: 0.12, damage: 5, attackRange: 1.0, cooldown: 30, aggro: 0, trainTicks: 60},
	EntityInfantry: {cost: 60, supply: 1, maxHP: 50, speed: 0.10, damage: 12, attackRange: 1.2, cooldown: 20, aggro: 5, trainTicks: 80},
	EntityArcher:   {cost: 80, supply: 1, maxHP: 35, speed: 0.10, damage: 9, attackRange: 5.0, cooldown: 25, aggro: 6, trainTicks: 90},
	EntityCavalry:  {cost: 120, supply: 2, maxHP: 90, speed: 0.18, damage: 16, attackRange: 1.2, cooldown: 22, aggro: 5, trainTicks: 120},
	EntityBallista: {cost: 200, supply: 3, maxHP: 70, speed: 0.06, damage: 40, attackRange: 6.0, cooldown: 60, aggro: 7, trainTicks: 160, siege: true},
}

// buildingStats bundles the per-type parameters of a building.
type buildingStats struct {
	cost        int
	maxHP       float64
	footW       int
	footH       int
	buildTicks  int
	supplyGrant int
	damage      float64 // defensive fire; 0 = passive building
	attackRange float64
	cooldown    int
	depot       bool // accepts gold deposits
	trains      []EntityType
}

// buildingStatsTable maps each building type to its parameters.
var buildingStatsTable = map[EntityType]buildingStats{
	EntityHomeBase: {cost: 400, maxHP: 1500, footW: 3, footH: 3, buildTicks: 300, supplyGrant: 10, damage: 10, attackRange: 6, cooldown: 30, depot: true, trains: []EntityType{EntityWorker}},
	EntityHouse:    {cost: 80, maxHP: 200, footW: 2, footH: 2, buildTicks: 100, supplyGrant: 8},
	EntityBarracks: {cost: 150, maxHP: 500, footW: 3, footH: 3, buildTicks: 160, trains: []EntityType{EntityInfantry, EntityArcher, EntityCavalry, EntityBallista}},
	EntityDepot:    {cost: 100, maxHP: 300, footW: 2, footH: 2, buildTicks: 120, depot: true},
	EntityTower:    {cost: 120, maxHP: 350, footW: 2, footH: 2, buildTicks: 140, damage: 14, attackRange: 7, cooldown: 25},
	EntityArmory:   {cost: 180, maxHP: 400, footW: 3, footH: 3, buildTicks: 180},
}

// canTrain reports whether building type bt trains unit type ut.
func canTrain(bt, ut EntityType) bool {
	bs, ok := buildingStatsTable[bt]
	if !ok {
		return false
	}
	for _, t := range bs.trains {
		if t == ut {
			return true
		}
	}
	return false
}

// TrainOrder is one queued unit production order.
type TrainOrder struct {
	UnitType       EntityType
	TicksRemaining int
}

// PendingBuild is a build order a worker is en route to. Gold is escrowed at
// command time and refunded exactly once if the order dies before placement.
type PendingBuild struct {
	Building EntityType
	TileX    int
	TileY    int
	Escrow   int
}

// Entity is anything that exists on the map: a unit or a building.
// FootW > 0 is the sole discriminator between the two behaviours; buildings
// never move, units never carry training queues.
type Entity struct {
	ID    int
	Type  EntityType
	Owner int

	// Units: fractional tile position of the centre.
	// Buildings: top-left tile of the footprint (integer-valued).
	X, Y float64

	HP    float64
	MaxHP float64
	State EntityState

	Path     [][2]float64 // remaining waypoints, tile-centre coordinates
	TargetID int          // entity or mine id this entity is acting on; -1 = none

	Queue          []TrainOrder
	CarriedGold    int
	BuildProgress  float64 // buildings: 0..1; units are born at 1
	MiningProgress float64 // workers: 0..1 while gathering

	FootW, FootH int // zero for units

	Pending   *PendingBuild
	DepositID int // depot/home base a returning worker is headed for; -1 = none

	RallyX, RallyY int
	HasRally       bool
}

// IsBuilding reports whether the entity behaves as a building.
func (e *Entity) IsBuilding() bool {
	return e.FootW > 0
}

// Completed reports whether a building has finished construction.
// Units are always complete.
func (e *Entity) Completed() bool {
	return e.BuildProgress >= 1.0
}

// Speed returns the entity's movement budget in tiles per tick.
// Buildings have zero speed.
func (e *Entity) Speed() float64 {
	if e.IsBuilding() {
		return 0
	}
	return unitStatsTable[e.Type].speed
}

// CenterX returns the x centre of the entity in tile coordinates.
func (e *Entity) CenterX() float64 {
	if e.IsBuilding() {
		return e.X + float64(e.FootW)/2
	}
	return e.X
}

// CenterY returns the y centre of the entity in tile coordinates.
func (e *Entity) CenterY() float64 {
	if e.IsBuilding() {
		return e.Y + float64(e.FootH)/2
	}
	return e.Y
}

// edgeDistance returns the distance from a point to the entity, clamped to the
// footprint rectangle for buildings and to the centre for units.
func (e *Entity) edgeDistance(x, y float64) float64 {
	if !e.IsBuilding() {
		return dist(x, y, e.X, e.Y)
	}
	cx := clampF(x, e.X, e.X+float64(e.FootW))
	cy := clampF(y, e.Y, e.Y+float64(e.FootH))
	return dist(x, y, cx, cy)
}

// newBuilding creates a building entity at the given top-left tile.
// A fresh build site starts at zero progress; map-start structures are
// spawned complete via finishConstruction.
func newBuilding(id int, t EntityType, owner, tileX, tileY int) *Entity {
	bs := buildingStatsTable[t]
	return &Entity{
		ID:        id,
		Type:      t,
		Owner:     owner,
		X:         float64(tileX),
		Y:         float64(tileY),
		HP:        bs.maxHP,
		MaxHP:     bs.maxHP,
		State:     StateBuilding,
		FootW:     bs.footW,
		FootH:     bs.footH,
		TargetID:  -1,
		DepositID: -1,
	}
}

// newUnit creates a unit entity at the given position. hpMul scales max HP by
// the owner's upgrade level at training time.
func newUnit(id int, t EntityType, owner int, x, y, hpMul float64) *Entity {
	us := unitStatsTable[t]
	hp := float64(int(us.maxHP * hpMul))
	return &Entity{
		ID:            id,
		Type:          t,
		Owner:         owner,
		X:             x,
		Y:             y,
		HP:            hp,
		MaxHP:         hp,
		State:         StateIdle,
		BuildProgress: 1.0,
		TargetID:      -1,
		DepositID:     -1,
	}
}
