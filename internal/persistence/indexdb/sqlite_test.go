package indexdb

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"voxedit.ai/internal/protocol"
	"voxedit.ai/internal/sim/engine"
	"voxedit.ai/internal/sim/tuning"
	"voxedit.ai/internal/sim/voxel"
)

func TestSQLiteIndex_WriteAndQuery(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index", "edits.sqlite")
	s, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.UpsertTuning(tuning.Defaults()); err != nil {
		t.Fatalf("tuning: %v", err)
	}

	_ = s.WriteTick(engine.TickLogEntry{
		Tick:  4,
		Joins: []engine.RecordedJoin{{ActorID: "A1", Name: "builder", Seed: 9}},
		Inputs: []engine.RecordedInput{
			{ActorID: "A1", Pose: &protocol.PoseMsg{Color: "#FF0000"}},
			{ActorID: "A1", Cmd: &protocol.CmdMsg{Name: "set", Args: []string{"red"}}},
			{ActorID: "A1", Cmd: &protocol.CmdMsg{Name: "undo"}, Status: "No actions to undo", Code: protocol.ErrConflict},
		},
		Drains: []engine.RecordedDrain{{ActorID: "A1", Applied: 2, Done: true, Changed: 2}},
		Digest: "abc",
	})
	p := voxel.Point{X: 1, Y: 2, Z: 3}
	_ = s.WriteAudit(engine.AuditEntry{Tick: 4, Actor: "A1", Action: engine.ActionSetVoxel, Pos: p.Array(), To: "#FF0000"})
	_ = s.WriteAudit(engine.AuditEntry{Tick: 5, Actor: "A1", Action: engine.ActionClearVoxel, Pos: p.Array(), From: "#FF0000"})
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	r, err := OpenReader(path)
	if err != nil {
		t.Fatalf("reader: %v", err)
	}
	defer r.Close()
	ctx := context.Background()

	cmds, err := r.Commands(ctx, "A1", 10)
	if err != nil {
		t.Fatalf("commands: %v", err)
	}
	if len(cmds) != 2 || cmds[0].Name != "undo" || cmds[0].Code != protocol.ErrConflict {
		t.Fatalf("commands=%+v", cmds)
	}
	if len(cmds[1].Args) != 1 || cmds[1].Args[0] != "red" {
		t.Fatalf("set args=%v", cmds[1].Args)
	}
	if other, _ := r.Commands(ctx, "A2", 10); len(other) != 0 {
		t.Fatalf("actor filter leaked rows: %+v", other)
	}

	drains, err := r.Drains(ctx, "", 10)
	if err != nil || len(drains) != 1 || !drains[0].Done || drains[0].Changed != 2 {
		t.Fatalf("drains=%+v err=%v", drains, err)
	}

	hist, err := r.History(ctx, p, 10)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(hist) != 2 || hist[0].To != "#FF0000" || hist[1].Action != engine.ActionClearVoxel {
		t.Fatalf("history=%+v", hist)
	}

	digest, raw, err := r.Tuning(ctx)
	if err != nil || digest == "" {
		t.Fatalf("tuning digest=%q err=%v", digest, err)
	}
	var tune tuning.Tuning
	if err := json.Unmarshal(raw, &tune); err != nil || tune.DrainBatch != tuning.Defaults().DrainBatch {
		t.Fatalf("tuning=%+v err=%v", tune, err)
	}
}

func TestSQLiteIndex_WritesAfterCloseAreIgnored(t *testing.T) {
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "edits.sqlite"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := s.WriteTick(engine.TickLogEntry{Tick: 1}); err != nil {
		t.Fatalf("write after close: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
}

func TestOpenSQLite_EmptyPath(t *testing.T) {
	if _, err := OpenSQLite(""); err == nil {
		t.Fatalf("expected error for empty path")
	}
}
