package engine

import (
	"encoding/json"

	"voxedit.ai/internal/protocol"
	"voxedit.ai/internal/sim/edit"
	"voxedit.ai/internal/sim/voxel"
	"voxedit.ai/internal/sim/voxmap"
)

type actor struct {
	id   string
	name string
	out  chan []byte
	sess *edit.Session
}

func (e *Engine) sendStatus(a *actor, text, code string) {
	if a == nil || a.out == nil || text == "" {
		return
	}
	b, err := json.Marshal(protocol.StatusMsg{
		Type:            protocol.TypeStatus,
		ProtocolVersion: protocol.Version,
		Text:            text,
		Code:            code,
	})
	if err != nil {
		e.logger.Printf("status marshal: %v", err)
		return
	}
	sendLatest(a.out, b)
}

// actorGrid is the shared store as one actor writes to it. Every write is
// zone-checked and audited.
type actorGrid struct {
	e    *Engine
	id   string
	view voxmap.View
}

var _ edit.Grid = actorGrid{}

func (g actorGrid) Cell(p voxel.Point) voxel.Cell { return g.view.Cell(p) }

func (g actorGrid) SetColor(p voxel.Point, c voxel.Color) error {
	return g.write(p, voxel.Solid(c))
}

func (g actorGrid) Clear(p voxel.Point) error {
	return g.write(p, voxel.Empty())
}

func (g actorGrid) write(p voxel.Point, c voxel.Cell) error {
	from := g.view.Cell(p)
	var err error
	if c.Filled {
		err = g.view.SetColor(p, c.Color)
	} else {
		err = g.view.Clear(p)
	}
	if err != nil {
		g.e.audit(g.id, ActionDenied, p, from, c, err.Error())
		return err
	}
	action := ActionSetVoxel
	if !c.Filled {
		action = ActionClearVoxel
	}
	g.e.audit(g.id, action, p, from, c, "")
	return nil
}

func (e *Engine) audit(actorID, action string, p voxel.Point, from, to voxel.Cell, reason string) {
	if e.auditLogger == nil {
		return
	}
	_ = e.auditLogger.WriteAudit(AuditEntry{
		Tick:   e.tick.Load(),
		Actor:  actorID,
		Action: action,
		Pos:    p.Array(),
		From:   from.Hex(),
		To:     to.Hex(),
		Reason: reason,
	})
}

// tickBatch collects every write applied during the current tick for the
// VOXELS broadcast.
type tickBatch struct {
	cells []protocol.VoxelCell
}

func (b *tickBatch) NotifyMutation(m voxel.Mutation) {
	b.cells = append(b.cells, protocol.VoxelCell{Pos: m.Pos.Array(), Color: m.Cell.Hex()})
}

func (b *tickBatch) reset() { b.cells = b.cells[:0] }
