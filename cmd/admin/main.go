package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	persistlog "voxedit.ai/internal/persistence/log"
	"voxedit.ai/internal/protocol"
	"voxedit.ai/internal/sim/engine"
)

func main() {
	if len(os.Args) >= 2 {
		switch os.Args[1] {
		case "audit":
			auditCmd(os.Args[2:])
			return
		case "rollback":
			rollbackCmd(os.Args[2:])
			return
		case "db":
			dbCmd(os.Args[2:])
			return
		case "state":
			stateCmd(os.Args[2:])
			return
		}
	}
	listCmd(os.Args[1:])
}

func listCmd(args []string) {
	fs := flag.NewFlagSet("admin", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	_ = fs.Parse(args)

	for _, kind := range []string{persistlog.KindEvents, persistlog.KindAudit} {
		files, err := persistlog.ListFiles(filepath.Join(*dataDir, kind), kind)
		if err != nil {
			fmt.Fprintln(os.Stderr, "read:", err)
			continue
		}
		for _, f := range files {
			fmt.Println(f)
		}
	}
}

type auditFilter struct {
	sinceTick uint64
	toTick    uint64 // 0 = no upper bound
	actor     string
	min, max  [3]int
	hasBox    bool
	actions   map[string]bool
}

func (f auditFilter) match(e engine.AuditEntry) bool {
	if e.Tick < f.sinceTick || (f.toTick != 0 && e.Tick > f.toTick) {
		return false
	}
	if f.actor != "" && e.Actor != f.actor {
		return false
	}
	if len(f.actions) > 0 && !f.actions[e.Action] {
		return false
	}
	return !f.hasBox || withinAABB(e.Pos, f.min, f.max)
}

func auditCmd(args []string) {
	fs := flag.NewFlagSet("audit", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	aabb := fs.String("aabb", "", "AABB filter: x1,y1,z1:x2,y2,z2 (optional)")
	actor := fs.String("actor", "", "actor id filter (optional)")
	action := fs.String("action", "", "comma separated actions: SET_VOXEL,CLEAR_VOXEL,DENIED (optional)")
	sinceTick := fs.Uint64("since_tick", 0, "first tick (inclusive)")
	toTick := fs.Uint64("to_tick", 0, "last tick (inclusive, optional)")
	_ = fs.Parse(args)

	f, err := buildFilter(*aabb, *actor, *action, *sinceTick, *toTick)
	if err != nil {
		fmt.Fprintln(os.Stderr, "bad filter:", err)
		os.Exit(2)
	}
	recs, err := readAudit(filepath.Join(*dataDir, persistlog.KindAudit), f)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read audit:", err)
		os.Exit(1)
	}
	enc := json.NewEncoder(os.Stdout)
	for _, r := range recs {
		_ = enc.Encode(r.Entry)
	}
}

// rollbackCmd prints the cells that restore a region to its state before
// since_tick, as VOXELS-style {pos,color} lines. An empty color clears.
func rollbackCmd(args []string) {
	fs := flag.NewFlagSet("rollback", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	aabb := fs.String("aabb", "", "AABB filter: x1,y1,z1:x2,y2,z2 (required)")
	actor := fs.String("actor", "", "only revert this actor's writes (optional)")
	sinceTick := fs.Uint64("since_tick", 0, "rollback changes since tick (inclusive)")
	toTick := fs.Uint64("to_tick", 0, "rollback changes up to tick (inclusive, optional)")
	_ = fs.Parse(args)

	if strings.TrimSpace(*aabb) == "" {
		fmt.Fprintln(os.Stderr, "missing -aabb")
		os.Exit(2)
	}
	f, err := buildFilter(*aabb, *actor, engine.ActionSetVoxel+","+engine.ActionClearVoxel, *sinceTick, *toTick)
	if err != nil {
		fmt.Fprintln(os.Stderr, "bad filter:", err)
		os.Exit(2)
	}
	recs, err := readAudit(filepath.Join(*dataDir, persistlog.KindAudit), f)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read audit:", err)
		os.Exit(1)
	}
	if len(recs) == 0 {
		fmt.Fprintln(os.Stderr, "no matching audit entries; nothing to rollback")
		return
	}
	enc := json.NewEncoder(os.Stdout)
	for _, c := range rollbackPlan(recs) {
		_ = enc.Encode(c)
	}
}

func buildFilter(aabb, actor, actions string, sinceTick, toTick uint64) (auditFilter, error) {
	f := auditFilter{sinceTick: sinceTick, toTick: toTick, actor: strings.TrimSpace(actor)}
	if strings.TrimSpace(aabb) != "" {
		min, max, err := parseAABB(aabb)
		if err != nil {
			return f, err
		}
		f.min, f.max, f.hasBox = min, max, true
	}
	for _, a := range strings.Split(actions, ",") {
		a = strings.ToUpper(strings.TrimSpace(a))
		if a == "" {
			continue
		}
		if f.actions == nil {
			f.actions = map[string]bool{}
		}
		f.actions[a] = true
	}
	return f, nil
}

type auditRec struct {
	Seq   uint64
	Entry engine.AuditEntry
}

func readAudit(dir string, f auditFilter) ([]auditRec, error) {
	files, err := persistlog.ListFiles(dir, persistlog.KindAudit)
	if err != nil {
		return nil, err
	}
	out := make([]auditRec, 0, 1024)
	var seq uint64
	for _, path := range files {
		err := persistlog.ReadAudits(path, func(e engine.AuditEntry) error {
			seq++
			if f.match(e) {
				out = append(out, auditRec{Seq: seq, Entry: e})
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// rollbackPlan returns, per position, the From color of its earliest
// matching write. Output is sorted by position.
func rollbackPlan(recs []auditRec) []protocol.VoxelCell {
	// Reverse chronological apply: highest tick first; for same tick use reverse read order.
	sorted := append([]auditRec(nil), recs...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Entry.Tick != sorted[j].Entry.Tick {
			return sorted[i].Entry.Tick > sorted[j].Entry.Tick
		}
		return sorted[i].Seq > sorted[j].Seq
	})
	restore := map[[3]int]string{}
	for _, r := range sorted {
		restore[r.Entry.Pos] = r.Entry.From
	}
	out := make([]protocol.VoxelCell, 0, len(restore))
	for p, c := range restore {
		out = append(out, protocol.VoxelCell{Pos: p, Color: c})
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].Pos, out[j].Pos
		for k := 0; k < 3; k++ {
			if a[k] != b[k] {
				return a[k] < b[k]
			}
		}
		return false
	})
	return out
}

func withinAABB(pos [3]int, min, max [3]int) bool {
	return pos[0] >= min[0] && pos[0] <= max[0] &&
		pos[1] >= min[1] && pos[1] <= max[1] &&
		pos[2] >= min[2] && pos[2] <= max[2]
}

func parseAABB(s string) (min, max [3]int, err error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return min, max, fmt.Errorf("expected x1,y1,z1:x2,y2,z2")
	}
	a, err := parseVec3(parts[0])
	if err != nil {
		return min, max, err
	}
	b, err := parseVec3(parts[1])
	if err != nil {
		return min, max, err
	}
	for i := 0; i < 3; i++ {
		if a[i] <= b[i] {
			min[i], max[i] = a[i], b[i]
		} else {
			min[i], max[i] = b[i], a[i]
		}
	}
	return min, max, nil
}

func parseVec3(s string) ([3]int, error) {
	var v [3]int
	parts := strings.Split(strings.TrimSpace(s), ",")
	if len(parts) != 3 {
		return v, fmt.Errorf("expected x,y,z")
	}
	for i := 0; i < 3; i++ {
		n, err := strconv.Atoi(strings.TrimSpace(parts[i]))
		if err != nil {
			return v, err
		}
		v[i] = n
	}
	return v, nil
}
