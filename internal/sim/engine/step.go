package engine

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"voxedit.ai/internal/protocol"
	"voxedit.ai/internal/sim/edit"
	"voxedit.ai/internal/sim/edit/colorspec"
	"voxedit.ai/internal/sim/voxel"
)

func (e *Engine) step(joins []JoinRequest, leaves []string, inputs []Input) {
	start := time.Now()
	nowTick := e.tick.Load()
	e.batch.reset()

	// Apply leaves and joins deterministically at tick boundary.
	recordedLeaves := make([]string, 0, len(leaves))
	for _, id := range leaves {
		if e.handleLeave(id) {
			recordedLeaves = append(recordedLeaves, id)
		}
	}
	recordedJoins := make([]RecordedJoin, 0, len(joins))
	for _, req := range joins {
		resp, seed := e.joinActor(req)
		if req.Resp != nil {
			req.Resp <- resp
		}
		recordedJoins = append(recordedJoins, RecordedJoin{ActorID: resp.Welcome.ActorID, Name: req.Name, Seed: seed})
	}

	// Inputs in server receive order.
	recordedInputs := make([]RecordedInput, 0, len(inputs))
	for _, in := range inputs {
		a := e.actors[in.ActorID]
		if a == nil {
			continue
		}
		rec := RecordedInput{ActorID: in.ActorID}
		switch {
		case in.Cmd != nil:
			rec.Cmd = in.Cmd
			rec.Status, rec.Code = e.applyCmd(a, in.Cmd)
		case in.Click != nil:
			rec.Click = in.Click
			e.applyClick(a, in.Click)
		case in.Pose != nil:
			rec.Pose = in.Pose
			e.applyPose(a, in.Pose)
		default:
			continue
		}
		recordedInputs = append(recordedInputs, rec)
	}

	// Drain running queues in actor id order.
	ids := make([]string, 0, len(e.actors))
	for id, a := range e.actors {
		if a.sess.Busy() {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	recordedDrains := make([]RecordedDrain, 0, len(ids))
	for _, id := range ids {
		a := e.actors[id]
		res := a.sess.Tick()
		e.appliedTotal += uint64(res.Applied)
		e.deniedTotal += uint64(res.Denied)
		switch {
		case res.Err != nil:
			e.sendStatus(a, res.Err.Error(), CodeFor(res.Err))
		case res.Aborted:
			e.sendStatus(a, "Edit stopped at a protected block", protocol.ErrNoPermission)
		}
		recordedDrains = append(recordedDrains, RecordedDrain{
			ActorID: id,
			Applied: res.Applied,
			Denied:  res.Denied,
			Done:    res.Done,
			Aborted: res.Aborted,
			Changed: res.Changed,
		})
	}

	e.broadcastVoxels(nowTick)

	entry := TickLogEntry{
		Tick:   nowTick,
		Joins:  recordedJoins,
		Leaves: recordedLeaves,
		Inputs: recordedInputs,
		Drains: recordedDrains,
	}
	if e.tickLogger != nil && !entry.empty() {
		entry.Digest = e.Digest()
		_ = e.tickLogger.WriteTick(entry)
	}

	e.tick.Add(1)
	e.storeMetrics(nowTick+1, time.Since(start))
}

func (e *Engine) storeMetrics(nextTick uint64, took time.Duration) {
	busy, pending := 0, 0
	for _, a := range e.actors {
		if a.sess.Busy() {
			busy++
		}
		pending += a.sess.Pending()
	}
	e.metrics.Store(Metrics{
		Tick:          nextTick,
		Actors:        len(e.actors),
		BusySessions:  busy,
		PendingWrites: pending,
		FilledCells:   e.store.Filled(),
		QueueDepths: QueueDepths{
			Inbox: len(e.inbox),
			Join:  len(e.join),
			Leave: len(e.leave),
		},
		StepMS:       float64(took.Microseconds()) / 1000,
		AppliedTotal: e.appliedTotal,
		DeniedTotal:  e.deniedTotal,
	})
}

func (e *Engine) joinActor(req JoinRequest) (JoinResponse, int64) {
	name := req.Name
	if name == "" {
		name = "actor"
	}
	idNum := e.nextActorNum.Add(1)
	id := fmt.Sprintf("A%d", idNum)

	opts := e.cfg.Edit
	switch {
	case req.Seed != 0:
		opts.Seed = req.Seed
	case opts.Seed != 0:
		opts.Seed += int64(idNum)
	default:
		opts.Seed = time.Now().UnixNano()
	}
	a := &actor{id: id, name: name, out: req.Out}
	a.sess = edit.New(edit.Config{
		ID:       id,
		Options:  opts,
		Grid:     actorGrid{e: e, id: id, view: e.store.View(id)},
		Notifier: e.batch,
		Reporter: edit.ReporterFunc(func(msg string) { e.sendStatus(a, msg, "") }),
		Logger:   e.logger,
	})
	e.actors[id] = a
	return JoinResponse{Welcome: welcomeFor(e, id)}, opts.Seed
}

// handleLeave drops the actor. Writes still queued are abandoned, not
// applied.
func (e *Engine) handleLeave(id string) bool {
	a := e.actors[id]
	if a == nil {
		return false
	}
	a.sess.Close()
	delete(e.actors, id)
	return true
}

func (e *Engine) applyCmd(a *actor, m *protocol.CmdMsg) (status, code string) {
	msg, err := a.sess.Exec(m.Name, m.Args)
	if err != nil {
		status, code = edit.StatusText(err), CodeFor(err)
		e.sendStatus(a, status, code)
		return status, code
	}
	e.sendStatus(a, msg, "")
	return msg, ""
}

func (e *Engine) applyClick(a *actor, m *protocol.ClickMsg) {
	var target *voxel.Point
	if m.Target != nil {
		p := voxel.PointOf(*m.Target)
		target = &p
	}
	switch m.Button {
	case protocol.ButtonPrimary:
		a.sess.PrimaryClick(target)
	case protocol.ButtonSecondary:
		a.sess.SecondaryClick(target)
	case protocol.ButtonDestroy, protocol.ButtonBuild:
		if target == nil || a.sess.BlockAction(*target) {
			return
		}
		e.applyBlock(a, *target, m.Button == protocol.ButtonBuild)
	default:
		e.sendStatus(a, fmt.Sprintf("unknown button %q", m.Button), protocol.ErrBadRequest)
	}
}

// applyBlock is a plain single-block place or break, outside any edit
// session.
func (e *Engine) applyBlock(a *actor, p voxel.Point, build bool) {
	if !e.store.InBounds(p) {
		e.sendStatus(a, fmt.Sprintf("%s is outside the grid", p), protocol.ErrInvalidTarget)
		return
	}
	g := actorGrid{e: e, id: a.id, view: e.store.View(a.id)}
	c := voxel.Empty()
	var err error
	if build {
		c = voxel.Solid(a.sess.BuildColor())
		err = g.SetColor(p, c.Color)
	} else {
		err = g.Clear(p)
	}
	if err != nil {
		e.sendStatus(a, err.Error(), CodeFor(err))
		return
	}
	e.batch.NotifyMutation(voxel.Mutation{Pos: p, Cell: c})
}

func (e *Engine) applyPose(a *actor, m *protocol.PoseMsg) {
	a.sess.SetPosition(voxel.PointOf(m.Pos))
	a.sess.SetLook(m.Look)
	if m.Color == "" {
		return
	}
	c, err := colorspec.ParseColor(m.Color)
	if err != nil {
		e.sendStatus(a, err.Error(), protocol.ErrBadRequest)
		return
	}
	a.sess.SetHeldColor(c)
}

func (e *Engine) broadcastVoxels(nowTick uint64) {
	if len(e.batch.cells) == 0 {
		return
	}
	b, err := json.Marshal(protocol.VoxelsMsg{
		Type:            protocol.TypeVoxels,
		ProtocolVersion: protocol.Version,
		Tick:            nowTick,
		Cells:           e.batch.cells,
	})
	if err != nil {
		e.logger.Printf("voxels marshal: %v", err)
		return
	}
	for _, a := range e.actors {
		sendLatest(a.out, b)
	}
}
