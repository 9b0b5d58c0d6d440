package game

// --- Combat system ---

// contribution is one attacker registered against a target this tick. Damage
// is applied in a single batched pass after every attacker has registered so
// focus fire counts the full group.
type contribution struct {
	attacker *Entity
	target   *Entity
}

// CombatSystem resolves auto-aggro, chase, defensive building fire and the
// batched focus-fire damage pass. Cooldowns are keyed by entity id and scoped
// to this instance, one per match, never process-global, so concurrent
// matches cannot bleed timers into each other.
type CombatSystem struct {
	cooldowns map[int]int
}

// NewCombatSystem creates a combat system with empty trackers.
func NewCombatSystem() *CombatSystem {
	return &CombatSystem{cooldowns: make(map[int]int)}
}

// Reset clears all per-match trackers. Called when a match stops.
func (cs *CombatSystem) Reset() {
	cs.cooldowns = make(map[int]int)
}

// Step runs one combat tick. Returns true if any entity died.
func (cs *CombatSystem) Step(gs *GameState, log *SimLog) bool {
	for id, cd := range cs.cooldowns {
		if cd > 0 {
			cs.cooldowns[id] = cd - 1
		}
	}

	entities := gs.entitiesSorted()

	// Defensive buildings fire independently and instantly: no movement, no
	// focus-fire contribution, each acts alone.
	for _, b := range entities {
		if !b.IsBuilding() || !b.Completed() {
			continue
		}
		bs := buildingStatsTable[b.Type]
		if bs.damage <= 0 || cs.cooldowns[b.ID] > 0 {
			continue
		}
		target := cs.nearestEnemy(gs, entities, b, bs.attackRange, false)
		if target == nil {
			continue
		}
		target.HP -= bs.damage
		cs.cooldowns[b.ID] = bs.cooldown
		log.Add(gs.Tick, b.Owner, "combat", "building_fire", target.Type.String(), bs.damage)
	}

	// Auto-aggro: idle combat units acquire the nearest living enemy inside
	// their aggro radius. Siege units only ever auto-acquire buildings.
	for _, u := range entities {
		if u.IsBuilding() || !u.Type.IsCombatUnit() || u.State != StateIdle {
			continue
		}
		us := unitStatsTable[u.Type]
		if us.aggro <= 0 {
			continue
		}
		target := cs.nearestEnemy(gs, entities, u, us.aggro, us.siege)
		if target != nil {
			u.State = StateAttacking
			u.TargetID = target.ID
		}
	}

	// Mobile attackers: close to range, then register for the batched pass.
	var contribs []contribution
	for _, u := range entities {
		if u.IsBuilding() || u.State != StateAttacking {
			continue
		}
		target, ok := gs.Entities[u.TargetID]
		if !ok || u.TargetID < 0 {
			u.State = StateIdle
			u.TargetID = -1
			u.Path = nil
			continue
		}
		us := unitStatsTable[u.Type]
		if target.edgeDistance(u.X, u.Y) <= us.attackRange {
			u.Path = nil
			if cs.cooldowns[u.ID] == 0 {
				contribs = append(contribs, contribution{attacker: u, target: target})
				cs.cooldowns[u.ID] = us.cooldown
			}
			continue
		}
		if !cs.chase(gs, u, target) {
			u.State = StateIdle
			u.TargetID = -1
			u.Path = nil
		}
	}

	// Batched damage: every attacker on the same target boosts the group.
	counts := make(map[int]int)
	for _, c := range contribs {
		counts[c.target.ID]++
	}
	for _, c := range contribs {
		n := counts[c.target.ID]
		base := baseDamage(c.attacker.Type, c.target.IsBuilding())
		mul := upgradeDamageMul(gs.Players[c.attacker.Owner].UpgradeLevel(c.attacker.Type))
		dmg := roundDamage(base * (1 + focusFireBonus*float64(n-1)) * mul)
		c.target.HP -= dmg
		log.Add(gs.Tick, c.attacker.Owner, "combat", "hit", c.target.Type.String(), dmg)
	}

	return cs.removeDead(gs, log)
}

// baseDamage returns a unit type's base damage against the target category.
// Siege weaponry is useless against anything that moves.
func baseDamage(t EntityType, targetIsBuilding bool) float64 {
	us := unitStatsTable[t]
	if us.siege && !targetIsBuilding {
		return 0
	}
	return us.damage
}

// nearestEnemy finds the closest living enemy of e within radius, measured
// edge-to-edge. buildingsOnly restricts the scan to enemy buildings.
func (cs *CombatSystem) nearestEnemy(gs *GameState, entities []*Entity, e *Entity, radius float64, buildingsOnly bool) *Entity {
	var best *Entity
	bestD := radius
	cx, cy := e.CenterX(), e.CenterY()
	for _, other := range entities {
		if other.Owner == e.Owner || other.HP <= 0 {
			continue
		}
		if buildingsOnly && !other.IsBuilding() {
			continue
		}
		d := other.edgeDistance(cx, cy)
		if d < bestD || (best == nil && d <= bestD) {
			best = other
			bestD = d
		}
	}
	return best
}

// chase keeps an attacker pathing toward its target: an adjacent walkable tile
// for buildings, the target's own tile for units. Returns false if the target
// is unreachable.
func (cs *CombatSystem) chase(gs *GameState, u, target *Entity) bool {
	if target.IsBuilding() {
		if len(u.Path) > 0 {
			return true
		}
		path := gs.findPathAdjacent(u, int(target.X), int(target.Y), target.FootW, target.FootH)
		if path == nil {
			return false
		}
		u.Path = path
		return true
	}
	// Unit targets move, so re-path when the stored route has gone stale.
	if len(u.Path) > 0 {
		last := u.Path[len(u.Path)-1]
		if dist(last[0], last[1], target.X, target.Y) < 1.5 {
			return true
		}
	}
	path := gs.findPathTo(u, int(target.X), int(target.Y))
	if path == nil {
		// Sharing the target's tile already: stay put, the range check wins
		// next tick.
		if int(u.X) == int(target.X) && int(u.Y) == int(target.Y) {
			return true
		}
		return false
	}
	u.Path = path
	return true
}

// removeDead deletes every entity at or below zero HP, releasing mine seats,
// refunding pending build escrow, and recomputing supply for affected owners.
// Returns true if anything died.
func (cs *CombatSystem) removeDead(gs *GameState, log *SimLog) bool {
	var dead []*Entity
	for _, e := range gs.entitiesSorted() {
		if e.HP <= 0 {
			dead = append(dead, e)
		}
	}
	if len(dead) == 0 {
		return false
	}

	owners := make(map[int]bool)
	buildingDied := false
	for _, e := range dead {
		if e.Type == EntityWorker {
			for _, m := range gs.Mines {
				m.Leave(e.ID)
			}
			if e.Pending != nil {
				// A dying worker's escrowed build gold goes back exactly once.
				if p := gs.Players[e.Owner]; p != nil {
					p.Gold += e.Pending.Escrow
				}
				e.Pending = nil
			}
		}
		if e.IsBuilding() {
			buildingDied = true
		}
		owners[e.Owner] = true
		delete(gs.Entities, e.ID)
		delete(cs.cooldowns, e.ID)
		log.Add(gs.Tick, e.Owner, "combat", "death", e.Type.String(), float64(e.ID))
	}
	if buildingDied {
		gs.rebuildNav()
	}
	for owner := range owners {
		gs.recomputeSupply(owner)
	}
	return true
}
