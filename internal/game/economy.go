package game

// EconomySystem runs construction, training, deferred build placement and the
// worker gather cycle. Its wait trackers are instance fields keyed by worker
// id, scoped to one match.
type EconomySystem struct {
	mineWaits map[int]int // worker id → consecutive ticks blocked at a full mine
}

// NewEconomySystem creates an economy system with empty trackers.
func NewEconomySystem() *EconomySystem {
	return &EconomySystem{mineWaits: make(map[int]int)}
}

// Reset clears all per-match trackers. Called when a match stops.
func (es *EconomySystem) Reset() {
	es.mineWaits = make(map[int]int)
}

// Step runs one economy tick: construction, then training, then pending
// builds, then gathering. Order matters: a building finished this tick can
// accept a deposit this tick.
func (es *EconomySystem) Step(gs *GameState, log *SimLog) {
	es.stepConstruction(gs, log)
	es.stepTraining(gs, log)
	es.stepPendingBuilds(gs, log)
	es.stepGathering(gs, log)
}

// stepConstruction accrues build progress on every incomplete building.
// Crossing 1.0 clamps, idles the building and recomputes the owner's supply,
// a house or home base just finished may grant capacity.
func (es *EconomySystem) stepConstruction(gs *GameState, log *SimLog) {
	for _, b := range gs.entitiesSorted() {
		if !b.IsBuilding() || b.Completed() {
			continue
		}
		b.BuildProgress += 1.0 / float64(buildingStatsTable[b.Type].buildTicks)
		if b.BuildProgress < 1.0 {
			continue
		}
		b.BuildProgress = 1.0
		b.State = StateIdle
		gs.recomputeSupply(b.Owner)
		log.Add(gs.Tick, b.Owner, "economy", "build_complete", b.Type.String(), float64(b.ID))
	}
}

// stepTraining advances the head order of every completed building's queue.
// Finished units spawn on a free tile beside the building, scaled by the
// owner's upgrade level, and walk to the rally point if one is set.
func (es *EconomySystem) stepTraining(gs *GameState, log *SimLog) {
	for _, b := range gs.entitiesSorted() {
		if !b.IsBuilding() || !b.Completed() || len(b.Queue) == 0 {
			continue
		}
		head := &b.Queue[0]
		if head.TicksRemaining > 0 {
			head.TicksRemaining--
		}
		if head.TicksRemaining > 0 {
			continue
		}
		spawn, ok := es.spawnTile(gs, b)
		if !ok {
			// Every bordering tile is blocked; hold the finished order until
			// one frees up.
			continue
		}
		p := gs.Players[b.Owner]
		u := newUnit(gs.allocID(), head.UnitType, b.Owner, float64(spawn.X)+0.5, float64(spawn.Y)+0.5, upgradeHPMul(p.UpgradeLevel(head.UnitType)))
		gs.Entities[u.ID] = u
		gs.recomputeSupply(b.Owner)
		if b.HasRally {
			if path := gs.findPathTo(u, b.RallyX, b.RallyY); path != nil {
				u.Path = path
				u.State = StateMoving
			}
		}
		b.Queue = b.Queue[1:]
		if len(b.Queue) == 0 {
			b.State = StateIdle
		}
		log.Add(gs.Tick, b.Owner, "economy", "trained", head.UnitType.String(), float64(u.ID))
	}
}

// spawnTile returns the first free walkable tile bordering the building.
func (es *EconomySystem) spawnTile(gs *GameState, b *Entity) (Tile, bool) {
	for _, t := range borderTiles(int(b.X), int(b.Y), b.FootW, b.FootH) {
		if gs.inBounds(t.X, t.Y) && !gs.nav.Blocked(t.X, t.Y) {
			return t, true
		}
	}
	return Tile{}, false
}

// stepPendingBuilds realizes deferred build orders for workers that have
// stopped moving. Gold was escrowed at command time; it is refunded exactly
// once if the site is now invalid or the worker never got close enough.
func (es *EconomySystem) stepPendingBuilds(gs *GameState, log *SimLog) {
	for _, w := range gs.entitiesSorted() {
		if w.Type != EntityWorker || w.Pending == nil || len(w.Path) > 0 {
			continue
		}
		pb := w.Pending
		bs := buildingStatsTable[pb.Building]
		siteDist := rectDistance(w.X, w.Y, pb.TileX, pb.TileY, bs.footW, bs.footH)

		if siteDist > maxBuildDist {
			// Arrived as close as the route allowed and it is not close
			// enough: the site is unreachable for this worker.
			refundEscrow(gs, w, log)
			w.State = StateIdle
			continue
		}
		if !gs.canPlaceBuilding(pb.Building, pb.TileX, pb.TileY) {
			refundEscrow(gs, w, log)
			w.State = StateIdle
			continue
		}

		b := newBuilding(gs.allocID(), pb.Building, w.Owner, pb.TileX, pb.TileY)
		b.BuildProgress = 0
		b.HP = b.MaxHP
		gs.Entities[b.ID] = b
		gs.rebuildNav()
		w.Pending = nil
		w.State = StateIdle
		log.Add(gs.Tick, w.Owner, "economy", "build_placed", pb.Building.String(), float64(b.ID))
	}
}

// refundEscrow returns a pending build's reserved gold to the owner and clears
// the order. The nil check on Pending makes a double refund impossible.
func refundEscrow(gs *GameState, w *Entity, log *SimLog) {
	if w.Pending == nil {
		return
	}
	if p := gs.Players[w.Owner]; p != nil {
		p.Gold += w.Pending.Escrow
	}
	log.Add(gs.Tick, w.Owner, "economy", "build_refund", w.Pending.Building.String(), float64(w.Pending.Escrow))
	w.Pending = nil
}

// rectDistance is the distance from a point to a tile rectangle.
func rectDistance(x, y float64, tileX, tileY, w, h int) float64 {
	cx := clampF(x, float64(tileX), float64(tileX+w))
	cy := clampF(y, float64(tileY), float64(tileY+h))
	return dist(x, y, cx, cy)
}

// stepGathering drives the worker mining cycle:
// moving → (at mine, seat free) → gathering → returning → deposit → moving.
// A worker blocked at a full mine keeps its target and retries; after
// mineRetryTicks of waiting it re-targets the nearest workable mine instead
// of starving forever.
func (es *EconomySystem) stepGathering(gs *GameState, log *SimLog) {
	for _, w := range gs.entitiesSorted() {
		if w.Type != EntityWorker {
			continue
		}
		switch w.State {
		case StateGathering:
			es.tickMining(gs, w, log)
		case StateReturning:
			if len(w.Path) == 0 {
				es.tickDeposit(gs, w, log)
			}
		case StateIdle:
			if w.TargetID > 0 && w.Pending == nil {
				es.tickApproachMine(gs, w, log)
			}
		}
	}
}

// tickMining advances a worker's fixed-duration mining timer and, on
// completion, loads gold and sends the worker to the nearest completed depot.
func (es *EconomySystem) tickMining(gs *GameState, w *Entity, log *SimLog) {
	m := gs.mineByID(w.TargetID)
	if m == nil || m.GoldRemaining <= 0 {
		if m != nil {
			m.Leave(w.ID)
		}
		w.State = StateIdle
		w.TargetID = -1
		w.MiningProgress = 0
		return
	}
	w.MiningProgress += 1.0 / float64(mineDuration)
	if w.MiningProgress < 1.0 {
		return
	}
	take := carryAmount
	if m.GoldRemaining < take {
		take = m.GoldRemaining
	}
	m.GoldRemaining -= take
	m.Leave(w.ID)
	w.CarriedGold = take
	w.MiningProgress = 0
	log.Add(gs.Tick, w.Owner, "economy", "mined", m.label(), float64(take))

	depot := es.nearestDepot(gs, w)
	if depot == nil {
		w.State = StateIdle
		return
	}
	w.DepositID = depot.ID
	w.Path = gs.findPathAdjacent(w, int(depot.X), int(depot.Y), depot.FootW, depot.FootH)
	w.State = StateReturning
}

// tickDeposit credits carried gold once the worker reaches its depot, then
// automatically resumes mining if the original mine is still workable.
func (es *EconomySystem) tickDeposit(gs *GameState, w *Entity, log *SimLog) {
	depot, ok := gs.Entities[w.DepositID]
	if !ok || !depot.Completed() || !buildingStatsTable[depot.Type].depot {
		// Depot died or was never valid: fall back to the next nearest one.
		depot = es.nearestDepot(gs, w)
		if depot == nil {
			w.State = StateIdle
			w.DepositID = -1
			return
		}
		w.DepositID = depot.ID
		w.Path = gs.findPathAdjacent(w, int(depot.X), int(depot.Y), depot.FootW, depot.FootH)
		if w.Path == nil {
			w.State = StateIdle
			w.DepositID = -1
		}
		return
	}
	if depot.edgeDistance(w.X, w.Y) > gatherReachDist {
		// Stopped short of the depot: try once more, give up if unreachable.
		w.Path = gs.findPathAdjacent(w, int(depot.X), int(depot.Y), depot.FootW, depot.FootH)
		if w.Path == nil {
			w.State = StateIdle
			w.DepositID = -1
		}
		return
	}

	if p := gs.Players[w.Owner]; p != nil && w.CarriedGold > 0 {
		p.Gold += w.CarriedGold
		log.Add(gs.Tick, w.Owner, "economy", "deposit", depot.Type.String(), float64(w.CarriedGold))
	}
	w.CarriedGold = 0
	w.DepositID = -1

	// Continuous cycle: head back if the mine still has gold and a seat.
	m := gs.mineByID(w.TargetID)
	if m != nil && m.HasCapacity() {
		if path := gs.findPathAdjacent(w, m.TileX, m.TileY, mineFootprint, mineFootprint); path != nil {
			w.Path = path
			w.State = StateMoving
			return
		}
	}
	w.State = StateIdle
	if m == nil || m.GoldRemaining <= 0 {
		// Exhausted or gone; a still-workable-but-busy mine keeps its claim
		// and the approach pass retries it.
		w.TargetID = -1
	}
}

// tickApproachMine handles an idle worker holding a mine target: enter the
// mine when a seat is free, keep waiting when it is not, and re-target after
// waiting too long.
func (es *EconomySystem) tickApproachMine(gs *GameState, w *Entity, log *SimLog) {
	if w.CarriedGold > 0 {
		// Still holding gold (an interrupted trip): bank it before mining.
		if depot := es.nearestDepot(gs, w); depot != nil {
			w.DepositID = depot.ID
			w.Path = gs.findPathAdjacent(w, int(depot.X), int(depot.Y), depot.FootW, depot.FootH)
			w.State = StateReturning
		}
		return
	}
	m := gs.mineByID(w.TargetID)
	if m == nil || m.GoldRemaining <= 0 {
		w.TargetID = -1
		delete(es.mineWaits, w.ID)
		return
	}
	if m.edgeDistance(w.X, w.Y) > gatherReachDist {
		// Not there yet (path may have been cleared or never existed).
		if path := gs.findPathAdjacent(w, m.TileX, m.TileY, mineFootprint, mineFootprint); path != nil {
			w.Path = path
			w.State = StateMoving
		} else {
			w.TargetID = -1
		}
		return
	}
	if m.HasCapacity() {
		m.Occupants = append(m.Occupants, w.ID)
		w.State = StateGathering
		w.MiningProgress = 0
		delete(es.mineWaits, w.ID)
		return
	}

	es.mineWaits[w.ID]++
	if es.mineWaits[w.ID] < mineRetryTicks {
		return
	}
	delete(es.mineWaits, w.ID)
	// Waited long enough: move to the nearest other workable mine, or stay
	// and keep retrying if there is none.
	if alt := es.nearestMine(gs, w, m.ID); alt != nil {
		if path := gs.findPathAdjacent(w, alt.TileX, alt.TileY, mineFootprint, mineFootprint); path != nil {
			w.TargetID = alt.ID
			w.Path = path
			w.State = StateMoving
			log.Add(gs.Tick, w.Owner, "economy", "mine_retarget", alt.label(), float64(w.ID))
		}
	}
}

// nearestDepot returns the closest completed depot or home base owned by the
// worker's player. Incomplete buildings are ineligible.
func (es *EconomySystem) nearestDepot(gs *GameState, w *Entity) *Entity {
	var best *Entity
	bestD := 0.0
	for _, e := range gs.entitiesSorted() {
		if e.Owner != w.Owner || !e.IsBuilding() || !e.Completed() {
			continue
		}
		if !buildingStatsTable[e.Type].depot {
			continue
		}
		d := e.edgeDistance(w.X, w.Y)
		if best == nil || d < bestD {
			best = e
			bestD = d
		}
	}
	return best
}

// nearestMine returns the closest mine with remaining gold and a free seat,
// excluding the given mine id.
func (es *EconomySystem) nearestMine(gs *GameState, w *Entity, excludeID int) *GoldMine {
	var best *GoldMine
	bestD := 0.0
	for _, m := range gs.Mines {
		if m.ID == excludeID || !m.HasCapacity() {
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
