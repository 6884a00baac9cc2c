package game

// EliminationCause names what removed a player from the round.
type EliminationCause string

const (
	EliminationBoundary EliminationCause = "boundary"
	EliminationTrail    EliminationCause = "trail"
)

// Elimination records one player leaving the round during a step.
type Elimination struct {
	Handle int
	Cause  EliminationCause
}

// StepResult summarizes the observable outcomes of one simulated frame.
// Resimulated frames discard it so only first-time outcomes surface.
type StepResult struct {
	Eliminations  []Elimination
	TrailsSpawned int
	TrailsExpired int
}

// Step advances the world by one frame. inputs are indexed by player handle.
// The pass order is part of the deterministic contract: steering, movement,
// trail spawning, trail decay, boundary elimination, then trail collision.
// Trails spawned this frame join the world only after the collision pass, and
// trails expiring this frame still collide before they are removed.
func (w *World) Step(inputs [2]Input) StepResult {
	var result StepResult
	w.rotatePlayers(inputs)
	w.movePlayers(inputs)
	spawned := w.spawnTrails()
	w.decayTrails()
	w.eliminateOutOfBounds(&result)
	w.eliminateOnTrailContact(&result)
	w.flushTrails(spawned, &result)
	return result
}

func (w *World) rotatePlayers(inputs [2]Input) {
	for i := range w.Players {
		p := &w.Players[i]
		if !p.Alive {
			continue
		}
		turn := inputs[p.Handle].Turn()
		if turn == 0 {
			continue
		}
		p.Heading += turn * w.Tuning.TurnRate
	}
}

func (w *World) movePlayers(inputs [2]Input) {
	for i := range w.Players {
		p := &w.Players[i]
		if !p.Alive {
			continue
		}
		speed := w.Tuning.MoveSpeed
		if inputs[p.Handle].Dash() {
			speed *= w.Tuning.DashMultiplier
		}
		p.Pos = p.Pos.Add(headingVec(p.Heading).Mul(speed))
	}
}

func (w *World) spawnTrails() []Trail {
	var spawned []Trail
	offset := (w.Tuning.PlayerSize + w.Tuning.TrailSize) / 2
	for i := range w.Players {
		p := &w.Players[i]
		if !p.Alive {
			continue
		}
		if !p.TrailTimer.Tick().Finished() {
			continue
		}
		spawned = append(spawned, Trail{
			Owner:      p.Handle,
			Pos:        p.Pos.Sub(headingVec(p.Heading).Mul(offset)),
			DeathTimer: newFrameTimer(w.Tuning.TrailLengthFrames),
		})
	}
	return spawned
}

func (w *World) decayTrails() {
	for i := range w.Trails {
		w.Trails[i].DeathTimer.Tick()
	}
}

func (w *World) eliminateOutOfBounds(result *StepResult) {
	radius := w.Tuning.BoardSize / 2
	for i := range w.Players {
		p := &w.Players[i]
		if !p.Alive {
			continue
		}
		if p.Pos.Len() > radius {
			p.Alive = false
			result.Eliminations = append(result.Eliminations, Elimination{Handle: p.Handle, Cause: EliminationBoundary})
		}
	}
}

func (w *World) eliminateOnTrailContact(result *StepResult) {
	threshold := (w.Tuning.PlayerSize + w.Tuning.TrailSize) / 2
	for i := range w.Players {
		p := &w.Players[i]
		if !p.Alive {
			continue
		}
		for _, trail := range w.Trails {
			if p.Pos.Sub(trail.Pos).Len() < threshold {
				p.Alive = false
				result.Eliminations = append(result.Eliminations, Elimination{Handle: p.Handle, Cause: EliminationTrail})
				break
			}
		}
	}
}

func (w *World) flushTrails(spawned []Trail, result *StepResult) {
	kept := w.Trails[:0]
	for _, trail := range w.Trails {
		if trail.DeathTimer.Finished() {
			result.TrailsExpired++
			continue
		}
		kept = append(kept, trail)
	}
	w.Trails = append(kept, spawned...)
	result.TrailsSpawned = len(spawned)
}
