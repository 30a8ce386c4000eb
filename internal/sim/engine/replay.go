package engine

import "fmt"

// ReplayTick re-applies one logged tick and checks the resulting digest.
// Ticks missing from the log changed nothing and are stepped empty.
func (e *Engine) ReplayTick(entry TickLogEntry) error {
	if entry.Tick < e.CurrentTick() {
		return fmt.Errorf("tick %d already past (now %d)", entry.Tick, e.CurrentTick())
	}
	for e.CurrentTick() < entry.Tick {
		e.step(nil, nil, nil)
	}

	joins := make([]JoinRequest, 0, len(entry.Joins))
	for _, j := range entry.Joins {
		joins = append(joins, JoinRequest{Name: j.Name, Seed: j.Seed})
	}
	inputs := make([]Input, 0, len(entry.Inputs))
	for _, in := range entry.Inputs {
		inputs = append(inputs, in.Input())
	}

	tick, digest := e.StepOnce(joins, entry.Leaves, inputs)
	if tick != entry.Tick {
		return fmt.Errorf("internal tick mismatch: stepped=%d entry=%d", tick, entry.Tick)
	}
	if entry.Digest != "" && digest != entry.Digest {
		return fmt.Errorf("digest mismatch at tick %d: got=%s want=%s", tick, digest, entry.Digest)
	}
	return nil
}
