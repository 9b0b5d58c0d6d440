package game

// stepMovement advances every pathed unit by its per-tick speed budget,
// consuming as many waypoints as the budget covers. Buildings have no speed
// and are skipped; units share tiles freely, only terrain and footprints
// block routing.
func stepMovement(gs *GameState) {
	for _, e := range gs.entitiesSorted() {
		if e.IsBuilding() || len(e.Path) == 0 {
			continue
		}
		switch e.State {
		case StateMoving, StateReturning, StateAttacking:
		default:
			continue
		}
		moveAlongPath(e)
		if len(e.Path) == 0 && e.State == StateMoving {
			// Returning and attacking entities keep their state: the economy
			// and combat passes resolve what arrival means for them.
			e.State = StateIdle
		}
	}
}

// moveAlongPath spends the entity's movement budget along its waypoints.
// A waypoint within arriveTolerance counts as reached even if the remaining
// budget cannot close the gap exactly.
func moveAlongPath(e *Entity) {
	remaining := e.Speed()
	for remaining > 0 && len(e.Path) > 0 {
		wp := e.Path[0]
		d := dist(e.X, e.Y, wp[0], wp[1])

		if d <= remaining || d <= arriveTolerance {
			e.X = wp[0]
			e.Y = wp[1]
			remaining -= d
			e.Path = e.Path[1:]
			continue
		}

		e.X += (wp[0] - e.X) / d * remaining
		e.Y += (wp[1] - e.Y) / d * remaining
		remaining = 0
	}
	if len(e.Path) == 0 {
		e.Path = nil
	}
}
