package main

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"voxedit.ai/internal/persistence/indexdb"
	persistlog "voxedit.ai/internal/persistence/log"
	"voxedit.ai/internal/protocol"
	"voxedit.ai/internal/sim/engine"
	"voxedit.ai/internal/sim/tuning"
)

func writeAudits(t *testing.T, dataDir string, entries ...engine.AuditEntry) {
	t.Helper()
	l := persistlog.NewAuditLogger(dataDir)
	for _, e := range entries {
		if err := l.WriteAudit(e); err != nil {
			t.Fatalf("write audit: %v", err)
		}
	}
	if err := l.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestParseAABB_Normalizes(t *testing.T) {
	min, max, err := parseAABB("5,0,9:1,3,2")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if min != [3]int{1, 0, 2} || max != [3]int{5, 3, 9} {
		t.Fatalf("min=%v max=%v", min, max)
	}
	for _, bad := range []string{"", "1,2,3", "1,2:3,4,5", "a,b,c:1,2,3"} {
		if _, _, err := parseAABB(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestReadAudit_Filters(t *testing.T) {
	dir := t.TempDir()
	writeAudits(t, dir,
		engine.AuditEntry{Tick: 1, Actor: "A1", Action: engine.ActionSetVoxel, Pos: [3]int{1, 1, 1}, To: "#FF0000"},
		engine.AuditEntry{Tick: 2, Actor: "A2", Action: engine.ActionSetVoxel, Pos: [3]int{2, 2, 2}, To: "#00FF00"},
		engine.AuditEntry{Tick: 3, Actor: "A1", Action: engine.ActionDenied, Pos: [3]int{9, 9, 9}, Reason: "protected"},
		engine.AuditEntry{Tick: 4, Actor: "A1", Action: engine.ActionClearVoxel, Pos: [3]int{1, 1, 1}, From: "#FF0000"},
	)

	f, err := buildFilter("0,0,0:3,3,3", "A1", "", 0, 0)
	if err != nil {
		t.Fatalf("filter: %v", err)
	}
	recs, err := readAudit(filepath.Join(dir, "audit"), f)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(recs) != 2 || recs[0].Entry.Tick != 1 || recs[1].Entry.Tick != 4 {
		t.Fatalf("recs=%+v", recs)
	}

	f, _ = buildFilter("", "", "denied", 0, 0)
	recs, _ = readAudit(filepath.Join(dir, "audit"), f)
	if len(recs) != 1 || recs[0].Entry.Reason != "protected" {
		t.Fatalf("denied recs=%+v", recs)
	}

	f, _ = buildFilter("", "", "", 2, 3)
	recs, _ = readAudit(filepath.Join(dir, "audit"), f)
	if len(recs) != 2 {
		t.Fatalf("tick range recs=%d want 2", len(recs))
	}
}

func TestRollbackPlan_RestoresEarliestPrior(t *testing.T) {
	recs := []auditRec{
		{Seq: 1, Entry: engine.AuditEntry{Tick: 5, Pos: [3]int{1, 0, 0}, From: "", To: "#FF0000"}},
		{Seq: 2, Entry: engine.AuditEntry{Tick: 6, Pos: [3]int{1, 0, 0}, From: "#FF0000", To: "#00FF00"}},
		{Seq: 3, Entry: engine.AuditEntry{Tick: 6, Pos: [3]int{0, 0, 0}, From: "#123456", To: ""}},
		{Seq: 4, Entry: engine.AuditEntry{Tick: 6, Pos: [3]int{0, 0, 0}, From: "", To: "#ABCDEF"}},
	}
	plan := rollbackPlan(recs)
	want := []protocol.VoxelCell{
		{Pos: [3]int{0, 0, 0}, Color: "#123456"},
		{Pos: [3]int{1, 0, 0}, Color: ""},
	}
	if len(plan) != len(want) {
		t.Fatalf("plan=%+v", plan)
	}
	for i := range want {
		if plan[i] != want[i] {
			t.Fatalf("plan[%d]=%+v want %+v", i, plan[i], want[i])
		}
	}
}

func TestRunQuery_OverSQLiteIndex(t *testing.T) {
	path := filepath.Join(t.TempDir(), "edits.sqlite")
	s, err := indexdb.OpenSQLite(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	_ = s.UpsertTuning(tuning.Defaults())
	_ = s.WriteTick(engine.TickLogEntry{
		Tick:   2,
		Inputs: []engine.RecordedInput{{ActorID: "A1", Cmd: &protocol.CmdMsg{Name: "set", Args: []string{"red"}}}},
		Drains: []engine.RecordedDrain{{ActorID: "A1", Applied: 1, Done: true, Changed: 1}},
	})
	_ = s.WriteAudit(engine.AuditEntry{Tick: 2, Actor: "A1", Action: engine.ActionSetVoxel, Pos: [3]int{4, 5, 6}, To: "#FF0000"})
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	r, err := indexdb.OpenReader(path)
	if err != nil {
		t.Fatalf("reader: %v", err)
	}
	defer r.Close()
	ctx := context.Background()

	var got []any
	emit := func(v any) { got = append(got, v) }

	for _, q := range []string{"commands", "drains", "tuning"} {
		got = nil
		if err := runQuery(ctx, r, q, "", "", 10, emit); err != nil || len(got) != 1 {
			t.Fatalf("%s: rows=%d err=%v", q, len(got), err)
		}
	}

	got = nil
	if err := runQuery(ctx, r, "history", "", "4,5,6", 10, emit); err != nil || len(got) != 1 {
		t.Fatalf("history: rows=%d err=%v", len(got), err)
	}
	if row, ok := got[0].(indexdb.AuditRow); !ok || row.To != "#FF0000" {
		t.Fatalf("history row=%+v", got[0])
	}

	if err := runQuery(ctx, r, "history", "", "", 10, emit); err == nil || !strings.HasPrefix(err.Error(), "usage:") {
		t.Fatalf("history without -pos: %v", err)
	}
	if err := runQuery(ctx, r, "bogus", "", "", 10, emit); err == nil {
		t.Fatalf("expected error for unknown query")
	}
}
