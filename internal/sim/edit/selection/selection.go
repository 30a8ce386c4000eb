package selection

import (
	"voxedit.ai/internal/sim/edit/geometry"
	"voxedit.ai/internal/sim/voxel"
)

type State int

const (
	Idle State = iota
	AwaitingFirst
	AwaitingSecond
	Complete
)

func (s State) String() string {
	switch s {
	case AwaitingFirst:
		return "awaiting_first"
	case AwaitingSecond:
		return "awaiting_second"
	case Complete:
		return "complete"
	default:
		return "idle"
	}
}

// Deferred is a command parked until the selection completes.
type Deferred struct {
	Name string
	Args []string
}

// Selection tracks one actor's region and the two-click workflow that
// defines it.
type Selection struct {
	State State
	Shape geometry.Shape

	a, b       voxel.Point
	hasA, hasB bool

	deferred *Deferred
}

func (s *Selection) Complete() bool { return s.hasA && s.hasB }

// Picking reports whether clicks are currently captured as corners.
func (s *Selection) Picking() bool {
	return s.State == AwaitingFirst || s.State == AwaitingSecond
}

func (s *Selection) Corners() (a, b voxel.Point, ok bool) {
	return s.a, s.b, s.Complete()
}

func (s *Selection) Box() geometry.Box { return geometry.BoxOf(s.a, s.b) }

// SetCorners installs a complete selection, ending any pick in progress.
// The pending deferred command is kept.
func (s *Selection) SetCorners(a, b voxel.Point) {
	s.a, s.b = a, b
	s.hasA, s.hasB = true, true
	s.State = Complete
}

// Toggle starts a fresh pick, or cancels one in progress. It returns true
// when a pick was started.
func (s *Selection) Toggle() bool {
	if s.Picking() {
		s.Clear()
		return false
	}
	s.Clear()
	s.State = AwaitingFirst
	return true
}

// Clear drops corners and any deferred command.
func (s *Selection) Clear() {
	s.a, s.b = voxel.Point{}, voxel.Point{}
	s.hasA, s.hasB = false, false
	s.deferred = nil
	s.State = Idle
}

// Pick records the next corner. When it completes the selection the
// deferred command, if any, is handed back and cleared.
func (s *Selection) Pick(p voxel.Point) (completed bool, d *Deferred) {
	switch s.State {
	case AwaitingFirst:
		s.a, s.hasA = p, true
		s.State = AwaitingSecond
		return false, nil
	case AwaitingSecond:
		s.b, s.hasB = p, true
		s.State = Complete
		d, s.deferred = s.deferred, nil
		return true, d
	}
	return false, nil
}

// Repick sets the first corner while either corner is still awaited. The
// second corner is never touched.
func (s *Selection) Repick(p voxel.Point) bool {
	switch s.State {
	case AwaitingFirst:
		s.a, s.hasA = p, true
		s.State = AwaitingSecond
	case AwaitingSecond:
		s.a = p
	default:
		return false
	}
	return true
}

// Require reports whether a complete selection exists. If not, the command
// is parked as the deferred command and a fresh pick starts.
func (s *Selection) Require(name string, args []string) bool {
	if s.Complete() {
		if s.Picking() {
			s.State = Complete
		}
		return true
	}
	s.Clear()
	s.State = AwaitingFirst
	s.deferred = &Deferred{Name: name, Args: append([]string(nil), args...)}
	return false
}

func (s *Selection) Pending() *Deferred { return s.deferred }

// Expand grows the selection by amount along d, moving whichever corner
// already lies on that side.
func (s *Selection) Expand(d geometry.Direction, amount int) {
	s.moveFace(d, amount*d.Sign)
}

// Contract shrinks the selection by amount from the face d points at.
func (s *Selection) Contract(d geometry.Direction, amount int) {
	s.moveFace(d, -amount*d.Sign)
}

// FullHeight stretches the selection over every vertical level.
func (s *Selection) FullHeight(height int) {
	s.a.Z, s.b.Z = 0, height-1
}

func (s *Selection) moveFace(d geometry.Direction, delta int) {
	i := d.Axis
	av, bv := s.a.Axis(i), s.b.Axis(i)
	moveA := av > bv
	if d.Sign < 0 {
		moveA = av < bv
	}
	if moveA {
		s.a = s.a.WithAxis(i, av+delta)
	} else {
		s.b = s.b.WithAxis(i, bv+delta)
	}
}
