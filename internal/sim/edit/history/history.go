package history

import (
	"errors"

	"voxedit.ai/internal/sim/voxel"
)

var (
	ErrNothingToUndo = errors.New("nothing to undo")
	ErrNothingToRedo = errors.New("nothing to redo")
)

const DefaultDepth = 20

// Prior is the cell a point held before a step touched it.
type Prior struct {
	Pos  voxel.Point
	Cell voxel.Cell
}

// Region is a selection snapshot. OK is false when no selection existed.
type Region struct {
	A, B voxel.Point
	OK   bool
}

// Step is one undoable unit: the selection it ran against and the prior
// cell of every point it wrote.
type Step struct {
	Sel   Region
	Prior []Prior

	seen map[voxel.Point]struct{}
}

func newStep(sel Region) *Step {
	return &Step{Sel: sel, seen: map[voxel.Point]struct{}{}}
}

func (s *Step) add(p voxel.Point, c voxel.Cell) {
	if _, ok := s.seen[p]; ok {
		return
	}
	s.seen[p] = struct{}{}
	s.Prior = append(s.Prior, Prior{Pos: p, Cell: c})
}

// Reader returns the cell an actor currently sees at a point.
type Reader func(voxel.Point) voxel.Cell

// Enqueue schedules a cell to be written at a point.
type Enqueue func(voxel.Point, voxel.Cell)

// History holds one actor's bounded undo and redo stacks.
type History struct {
	undo  []*Step
	redo  []*Step
	depth int
}

func New(depth int) *History {
	if depth <= 0 {
		depth = DefaultDepth
	}
	return &History{depth: depth}
}

// Begin opens a new step for a mutating command. The oldest step is evicted
// past the depth limit and the redo stack is discarded.
func (h *History) Begin(sel Region) *Step {
	st := newStep(sel)
	h.undo = pushBounded(h.undo, st, h.depth)
	h.redo = nil
	return st
}

// Record captures the prior cell of p in the open step. Only the first
// capture of a point per step is kept.
func (h *History) Record(p voxel.Point, prior voxel.Cell) {
	if len(h.undo) == 0 {
		return
	}
	h.undo[len(h.undo)-1].add(p, prior)
}

// Undo reverts up to n steps. For each one the mirrored step is pushed onto
// the redo stack before the prior cells are enqueued. It returns the number
// of steps undone and the selection of the last one.
func (h *History) Undo(n int, read Reader, enqueue Enqueue) (int, Region, error) {
	if len(h.undo) == 0 {
		return 0, Region{}, ErrNothingToUndo
	}
	var done int
	var sel Region
	h.undo, h.redo, done, sel = replay(h.undo, h.redo, n, h.depth, read, enqueue)
	return done, sel, nil
}

// Redo re-applies up to n undone steps.
func (h *History) Redo(n int, read Reader, enqueue Enqueue) (int, Region, error) {
	if len(h.redo) == 0 {
		return 0, Region{}, ErrNothingToRedo
	}
	var done int
	var sel Region
	h.redo, h.undo, done, sel = replay(h.redo, h.undo, n, h.depth, read, enqueue)
	return done, sel, nil
}

func replay(from, to []*Step, n, depth int, read Reader, enqueue Enqueue) ([]*Step, []*Step, int, Region) {
	if n < 1 {
		n = 1
	}
	var sel Region
	done := 0
	for ; done < n && len(from) > 0; done++ {
		st := from[len(from)-1]
		from = from[:len(from)-1]

		mirror := newStep(st.Sel)
		cur := make([]voxel.Cell, len(st.Prior))
		for i, pr := range st.Prior {
			cur[i] = read(pr.Pos)
			mirror.add(pr.Pos, cur[i])
		}
		// Points already holding their prior cell need no write.
		for i, pr := range st.Prior {
			if cur[i] != pr.Cell {
				enqueue(pr.Pos, pr.Cell)
			}
		}
		to = pushBounded(to, mirror, depth)
		sel = st.Sel
	}
	return from, to, done, sel
}

func pushBounded(stack []*Step, st *Step, depth int) []*Step {
	stack = append(stack, st)
	if len(stack) > depth {
		excess := len(stack) - depth
		copy(stack, stack[excess:])
		for i := len(stack) - excess; i < len(stack); i++ {
			stack[i] = nil
		}
		stack = stack[:len(stack)-excess]
	}
	return stack
}

func (h *History) UndoDepth() int { return len(h.undo) }

func (h *History) RedoDepth() int { return len(h.redo) }

func (h *History) Limit() int { return h.depth }

// Top returns the open step, or nil.
func (h *History) Top() *Step {
	if len(h.undo) == 0 {
		return nil
	}
	return h.undo[len(h.undo)-1]
}
