package buildqueue

import (
	"errors"

	"voxedit.ai/internal/sim/voxel"
)

// ErrPermissionDenied is returned by an applier that refuses a write.
var ErrPermissionDenied = errors.New("permission denied")

const (
	DefaultBatch = 180
)

// DenyPolicy decides what a refused write does to the rest of the queue.
type DenyPolicy int

const (
	// AbortOnDeny drops every remaining entry and keeps what was applied.
	AbortOnDeny DenyPolicy = iota
	// SkipDenied drops only the refused entry.
	SkipDenied
)

func ParseDenyPolicy(s string) (DenyPolicy, bool) {
	switch s {
	case "", "abort":
		return AbortOnDeny, true
	case "skip":
		return SkipDenied, true
	}
	return AbortOnDeny, false
}

// Result summarizes one drain call.
type Result struct {
	Applied int // entries applied by this call
	Denied  int // entries refused by this call
	Done    bool
	Aborted bool
	// Changed is the running total for the current run, reported once Done.
	Changed int
	Err     error
}

// Queue is a per-actor FIFO of pending writes, drained in bounded batches.
// It is not safe for concurrent use.
type Queue struct {
	entries []voxel.Mutation
	head    int

	pending map[voxel.Point]pendingCell

	running bool
	changed int
	policy  DenyPolicy
}

type pendingCell struct {
	cell voxel.Cell
	n    int
}

func New(policy DenyPolicy) *Queue {
	return &Queue{pending: map[voxel.Point]pendingCell{}, policy: policy}
}

// Push appends unconditionally; later entries for a point win.
func (q *Queue) Push(m voxel.Mutation) {
	q.entries = append(q.entries, m)
	pc := q.pending[m.Pos]
	q.pending[m.Pos] = pendingCell{cell: m.Cell, n: pc.n + 1}
}

// Lookup returns the cell the latest pending entry will write at p.
func (q *Queue) Lookup(p voxel.Point) (voxel.Cell, bool) {
	pc, ok := q.pending[p]
	return pc.cell, ok
}

func (q *Queue) Len() int { return len(q.entries) - q.head }

func (q *Queue) Running() bool { return q.running }

// Start arms the drain tick. It is a no-op when nothing is pending.
func (q *Queue) Start() bool {
	if q.Len() == 0 {
		return false
	}
	if !q.running {
		q.running = true
		q.changed = 0
	}
	return true
}

// Drain applies up to limit entries in FIFO order. When the queue empties,
// or a refusal aborts it, the run stops and Done is set.
func (q *Queue) Drain(limit int, apply func(voxel.Mutation) error) Result {
	var res Result
	if !q.running {
		res.Done = true
		return res
	}
	if limit <= 0 {
		limit = DefaultBatch
	}
	for i := 0; i < limit && q.Len() > 0; i++ {
		m := q.pop()
		err := apply(m)
		if err == nil {
			res.Applied++
			q.changed++
			continue
		}
		if errors.Is(err, ErrPermissionDenied) {
			res.Denied++
			if q.policy == SkipDenied {
				continue
			}
		} else {
			res.Err = err
		}
		q.Abandon()
		res.Aborted = true
		break
	}
	res.Changed = q.changed
	if q.Len() == 0 {
		q.running = false
		q.reset()
		res.Done = true
	}
	return res
}

// Abandon discards every pending entry without applying it.
func (q *Queue) Abandon() {
	q.running = false
	q.reset()
}

func (q *Queue) pop() voxel.Mutation {
	m := q.entries[q.head]
	q.entries[q.head] = voxel.Mutation{}
	q.head++
	if pc, ok := q.pending[m.Pos]; ok {
		if pc.n <= 1 {
			delete(q.pending, m.Pos)
		} else {
			pc.n--
			q.pending[m.Pos] = pc
		}
	}
	return m
}

func (q *Queue) reset() {
	q.entries = q.entries[:0]
	q.head = 0
	clear(q.pending)
}
