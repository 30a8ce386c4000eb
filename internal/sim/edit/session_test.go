package edit

import (
	"errors"
	"math/rand"
	"strings"
	"testing"

	"voxedit.ai/internal/sim/edit/buildqueue"
	"voxedit.ai/internal/sim/edit/selection"
	"voxedit.ai/internal/sim/voxel"
)

var (
	red   = voxel.Color{R: 255}
	green = voxel.Color{G: 128}
	blue  = voxel.Color{B: 255}
)

type memGrid struct {
	cells map[voxel.Point]voxel.Cell
	deny  map[voxel.Point]bool
}

func newMemGrid() *memGrid {
	return &memGrid{cells: map[voxel.Point]voxel.Cell{}, deny: map[voxel.Point]bool{}}
}

func (g *memGrid) Cell(p voxel.Point) voxel.Cell { return g.cells[p] }

func (g *memGrid) SetColor(p voxel.Point, c voxel.Color) error {
	if g.deny[p] {
		return ErrPermissionDenied
	}
	g.cells[p] = voxel.Solid(c)
	return nil
}

func (g *memGrid) Clear(p voxel.Point) error {
	if g.deny[p] {
		return ErrPermissionDenied
	}
	delete(g.cells, p)
	return nil
}

func (g *memGrid) snapshot() map[voxel.Point]voxel.Cell {
	out := make(map[voxel.Point]voxel.Cell, len(g.cells))
	for k, v := range g.cells {
		out[k] = v
	}
	return out
}

func (g *memGrid) equal(o map[voxel.Point]voxel.Cell) bool {
	if len(g.cells) != len(o) {
		return false
	}
	for k, v := range g.cells {
		if o[k] != v {
			return false
		}
	}
	return true
}

type countNotifier struct{ n int }

func (c *countNotifier) NotifyMutation(voxel.Mutation) { c.n++ }

type harness struct {
	s      *Session
	g      *memGrid
	notify *countNotifier
	msgs   []string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{g: newMemGrid(), notify: &countNotifier{}}
	opts := DefaultOptions()
	opts.Dims = voxel.Dims{W: 32, D: 32, H: 16}
	opts.Seed = 7
	h.s = New(Config{
		ID:       "a1",
		Options:  opts,
		Grid:     h.g,
		Notifier: h.notify,
		Reporter: ReporterFunc(func(msg string) { h.msgs = append(h.msgs, msg) }),
	})
	h.s.SetHeldColor(red)
	return h
}

func (h *harness) exec(t *testing.T, name string, args ...string) string {
	t.Helper()
	msg, err := h.s.Exec(name, args)
	if err != nil {
		t.Fatalf("%s %v: %v", name, args, err)
	}
	return msg
}

func (h *harness) selectBox(t *testing.T, a, b voxel.Point) {
	t.Helper()
	h.exec(t, "unsel")
	h.exec(t, "sel")
	h.s.PrimaryClick(&a)
	h.s.PrimaryClick(&b)
	if !h.s.Selection().Complete() {
		t.Fatalf("selection not complete after two picks")
	}
}

func (h *harness) drain(t *testing.T) int {
	t.Helper()
	ticks := 0
	for h.s.Busy() {
		h.s.Tick()
		ticks++
		if ticks > 1000 {
			t.Fatalf("queue did not drain")
		}
	}
	return ticks
}

func (h *harness) said(sub string) bool {
	for _, m := range h.msgs {
		if strings.Contains(m, sub) {
			return true
		}
	}
	return false
}

func TestSet_ThenUndoRestoresEmpty(t *testing.T) {
	h := newHarness(t)
	h.selectBox(t, voxel.Point{}, voxel.Point{X: 3, Y: 3, Z: 3})
	h.exec(t, "set", "red")
	if h.s.Pending() != 64 {
		t.Fatalf("pending=%d want=64", h.s.Pending())
	}
	if ticks := h.drain(t); ticks != 1 {
		t.Fatalf("ticks=%d want=1", ticks)
	}
	if len(h.g.cells) != 64 || h.notify.n != 64 {
		t.Fatalf("cells=%d notified=%d want=64", len(h.g.cells), h.notify.n)
	}
	if !h.said("64 block(s) have been changed") {
		t.Fatalf("missing summary, got %q", h.msgs)
	}
	if h.s.History().UndoDepth() != 1 {
		t.Fatalf("undo depth=%d want=1", h.s.History().UndoDepth())
	}

	h.exec(t, "undo")
	h.drain(t)
	if len(h.g.cells) != 0 {
		t.Fatalf("cells after undo=%d want=0", len(h.g.cells))
	}
	if h.s.History().UndoDepth() != 0 || h.s.History().RedoDepth() != 1 {
		t.Fatalf("depths undo=%d redo=%d", h.s.History().UndoDepth(), h.s.History().RedoDepth())
	}

	h.exec(t, "redo")
	h.drain(t)
	if len(h.g.cells) != 64 {
		t.Fatalf("cells after redo=%d want=64", len(h.g.cells))
	}
}

func TestQueue_DrainsInBatches(t *testing.T) {
	h := newHarness(t)
	h.selectBox(t, voxel.Point{}, voxel.Point{X: 9, Y: 9, Z: 4})
	h.exec(t, "set")
	if h.s.Pending() != 500 {
		t.Fatalf("pending=%d want=500", h.s.Pending())
	}
	if ticks := h.drain(t); ticks != 3 {
		t.Fatalf("ticks=%d want=3", ticks)
	}
}

func TestDeferred_RunsWhenSelectionCompletes(t *testing.T) {
	h := newHarness(t)
	msg := h.exec(t, "fill", "blue")
	if msg != promptSelect {
		t.Fatalf("msg=%q want prompt", msg)
	}
	if st := h.s.Selection().State; st != selection.AwaitingFirst {
		t.Fatalf("state=%v want awaiting_first", st)
	}
	// Only the latest deferred command is kept.
	h.exec(t, "set", "green")

	a, b := voxel.Point{X: 1, Y: 1, Z: 1}, voxel.Point{X: 2, Y: 1, Z: 1}
	if !h.s.BlockAction(a) {
		t.Fatalf("pick should consume the block action")
	}
	if !h.said("First corner has been selected") {
		t.Fatalf("missing first corner message: %q", h.msgs)
	}
	h.s.PrimaryClick(&b)
	if !h.said("Selection created") || !h.s.Busy() {
		t.Fatalf("deferred command did not run: %q", h.msgs)
	}
	h.drain(t)
	if got := h.g.Cell(a); got != voxel.Solid(green) {
		t.Fatalf("cell=%+v want green", got)
	}
	if h.s.BlockAction(a) {
		t.Fatalf("block action consumed outside a pick")
	}
}

func TestSecondaryClick_RedefinesFirstCorner(t *testing.T) {
	h := newHarness(t)
	h.exec(t, "sel")
	a, a2, b := voxel.Point{X: 1}, voxel.Point{X: 5}, voxel.Point{X: 6}
	h.s.SecondaryClick(&a)
	if h.s.Selection().State != selection.AwaitingSecond {
		t.Fatalf("secondary click should set the first corner, state=%v", h.s.Selection().State)
	}
	h.s.SecondaryClick(&a2)
	h.s.PrimaryClick(&b)
	ga, gb, ok := h.s.Selection().Corners()
	if !ok || ga != a2 || gb != b {
		t.Fatalf("corners=%v %v want %v %v", ga, gb, a2, b)
	}
}

func TestUndo_EmptyAndRedoCleared(t *testing.T) {
	h := newHarness(t)
	if _, err := h.s.Exec("undo", nil); !errors.Is(err, ErrNothingToUndo) {
		t.Fatalf("expected ErrNothingToUndo, got %v", err)
	}
	if StatusText(ErrNothingToUndo) != "No actions to undo" {
		t.Fatalf("status=%q", StatusText(ErrNothingToUndo))
	}
	h.selectBox(t, voxel.Point{}, voxel.Point{X: 1})
	h.exec(t, "set")
	h.drain(t)
	h.exec(t, "undo")
	h.drain(t)
	h.exec(t, "set", "blue")
	h.drain(t)
	if _, err := h.s.Exec("redo", nil); !errors.Is(err, ErrNothingToRedo) {
		t.Fatalf("expected ErrNothingToRedo after a new edit, got %v", err)
	}
}

func TestUndo_DepthIsBounded(t *testing.T) {
	h := newHarness(t)
	h.selectBox(t, voxel.Point{}, voxel.Point{})
	for i := 0; i < 25; i++ {
		h.exec(t, "set", "random")
		h.drain(t)
	}
	if d := h.s.History().UndoDepth(); d != 20 {
		t.Fatalf("undo depth=%d want=20", d)
	}
}

func TestPaste_EmptyClipboard(t *testing.T) {
	h := newHarness(t)
	_, err := h.s.Exec("paste", nil)
	if !errors.Is(err, ErrEmptyClipboard) {
		t.Fatalf("expected ErrEmptyClipboard, got %v", err)
	}
	h.selectBox(t, voxel.Point{}, voxel.Point{X: 1})
	if _, err := h.s.Exec("set", []string{"pattern"}); !errors.Is(err, ErrEmptyClipboard) {
		t.Fatalf("pattern with empty clipboard: %v", err)
	}
	if h.s.History().UndoDepth() != 0 || h.s.Busy() {
		t.Fatalf("failed command mutated state")
	}
}

func TestInvalidArguments_LeaveStateAlone(t *testing.T) {
	h := newHarness(t)
	h.selectBox(t, voxel.Point{}, voxel.Point{X: 1})
	bad := [][]string{
		{"set", "zzz"},
		{"shift", "abc"},
		{"shift", "1", "q"},
		{"stack", "-1"},
		{"flip", "q"},
		{"rotate", "x"},
		{"undo", "0"},
		{"brush", "huge"},
		{"sel", "blob"},
		{"contract", "vert"},
	}
	for _, c := range bad {
		if _, err := h.s.Exec(c[0], c[1:]); !errors.Is(err, ErrInvalidArgument) {
			t.Fatalf("%v: expected ErrInvalidArgument, got %v", c, err)
		}
	}
	if _, err := h.s.Exec("explode", nil); !errors.Is(err, ErrUnknownCommand) {
		t.Fatalf("expected ErrUnknownCommand, got %v", err)
	}
	if h.s.History().UndoDepth() != 0 || h.s.Busy() || !h.s.Selection().Complete() {
		t.Fatalf("invalid commands mutated state")
	}
}

func TestShift_MovesContentAndSelection(t *testing.T) {
	h := newHarness(t)
	h.g.cells[voxel.Point{X: 0}] = voxel.Solid(red)
	h.g.cells[voxel.Point{X: 1}] = voxel.Solid(blue)
	before := h.g.snapshot()
	h.selectBox(t, voxel.Point{}, voxel.Point{X: 1})
	h.exec(t, "mov", "1", "e")
	h.drain(t)
	want := map[voxel.Point]voxel.Cell{
		{X: 1}: voxel.Solid(red),
		{X: 2}: voxel.Solid(blue),
	}
	if !h.g.equal(want) {
		t.Fatalf("cells=%v want=%v", h.g.cells, want)
	}
	a, b, _ := h.s.Selection().Corners()
	if a.X != 1 || b.X != 2 {
		t.Fatalf("selection=%v %v want shifted by one", a, b)
	}
	h.exec(t, "undo")
	h.drain(t)
	if !h.g.equal(before) {
		t.Fatalf("undo did not restore: %v", h.g.cells)
	}
	if a, _, _ := h.s.Selection().Corners(); a.X != 0 {
		t.Fatalf("undo did not restore selection, a=%v", a)
	}
}

func TestShift_UsesLookDirection(t *testing.T) {
	h := newHarness(t)
	h.g.cells[voxel.Point{Y: 5}] = voxel.Solid(red)
	h.s.SetLook([3]float64{0.1, -0.9, 0.2})
	h.selectBox(t, voxel.Point{Y: 5}, voxel.Point{Y: 5})
	h.exec(t, "shift", "2")
	h.drain(t)
	if !h.g.Cell(voxel.Point{Y: 3}).Filled || h.g.Cell(voxel.Point{Y: 5}).Filled {
		t.Fatalf("cells=%v want content moved north by 2", h.g.cells)
	}
}

func TestStack_RepeatsSelection(t *testing.T) {
	h := newHarness(t)
	h.g.cells[voxel.Point{X: 0}] = voxel.Solid(red)
	h.g.cells[voxel.Point{X: 1}] = voxel.Solid(blue)
	h.selectBox(t, voxel.Point{}, voxel.Point{X: 1})
	h.exec(t, "stack", "2", "e")
	h.drain(t)
	for x, c := range []voxel.Color{red, blue, red, blue, red, blue} {
		if got := h.g.Cell(voxel.Point{X: x}); got != voxel.Solid(c) {
			t.Fatalf("x=%d cell=%+v want %v", x, got, c)
		}
	}
}

func TestCopyPaste_PreservesLayout(t *testing.T) {
	h := newHarness(t)
	h.g.cells[voxel.Point{X: 2, Y: 2, Z: 3}] = voxel.Solid(red)
	h.g.cells[voxel.Point{X: 3, Y: 2, Z: 3}] = voxel.Solid(blue)
	h.g.cells[voxel.Point{X: 3, Y: 3, Z: 3}] = voxel.Solid(green)
	h.selectBox(t, voxel.Point{X: 2, Y: 2, Z: 3}, voxel.Point{X: 3, Y: 3, Z: 3})
	if msg := h.exec(t, "copy"); msg != "Selection copied" {
		t.Fatalf("msg=%q", msg)
	}
	h.s.SetPosition(voxel.Point{X: 10, Y: 10, Z: 10})
	h.exec(t, "paste")
	h.drain(t)

	want := map[voxel.Point]voxel.Cell{
		{X: 11, Y: 11, Z: 12}: voxel.Solid(red),
		{X: 12, Y: 11, Z: 12}: voxel.Solid(blue),
		{X: 11, Y: 12, Z: 12}: voxel.Empty(),
		{X: 12, Y: 12, Z: 12}: voxel.Solid(green),
	}
	for p, c := range want {
		if got := h.g.Cell(p); got != c {
			t.Fatalf("cell %v=%+v want %+v", p, got, c)
		}
	}
	a, b, _ := h.s.Selection().Corners()
	if a != (voxel.Point{X: 11, Y: 11, Z: 12}) || b != (voxel.Point{X: 12, Y: 12, Z: 12}) {
		t.Fatalf("selection=%v %v", a, b)
	}
}

func TestCut_ClearsAndFillsClipboard(t *testing.T) {
	h := newHarness(t)
	h.g.cells[voxel.Point{X: 4}] = voxel.Solid(red)
	h.selectBox(t, voxel.Point{X: 4}, voxel.Point{X: 5})
	h.exec(t, "cut")
	h.drain(t)
	if len(h.g.cells) != 0 {
		t.Fatalf("cut left %d cells", len(h.g.cells))
	}
	if len(h.s.Clipboard().Entries()) != 2 {
		t.Fatalf("clipboard entries=%d want=2", len(h.s.Clipboard().Entries()))
	}
}

func TestRotate_FourTurnsIsIdentity(t *testing.T) {
	h := newHarness(t)
	rng := rand.New(rand.NewSource(11))
	for x := 4; x <= 8; x++ {
		for y := 4; y <= 6; y++ {
			for z := 4; z <= 5; z++ {
				if rng.Intn(2) == 0 {
					h.g.cells[voxel.Point{X: x, Y: y, Z: z}] = voxel.Solid(voxel.Color{R: uint8(x), G: uint8(y), B: uint8(z)})
				}
			}
		}
	}
	before := h.g.snapshot()
	h.selectBox(t, voxel.Point{X: 4, Y: 4, Z: 4}, voxel.Point{X: 8, Y: 6, Z: 5})
	for i := 0; i < 4; i++ {
		h.exec(t, "rotate")
		h.drain(t)
		if i == 0 && h.g.equal(before) {
			t.Fatalf("a single turn should change the grid")
		}
	}
	if !h.g.equal(before) {
		t.Fatalf("four quarter turns did not restore the grid")
	}
	h.exec(t, "undo", "4")
	h.drain(t)
	if !h.g.equal(before) {
		t.Fatalf("undoing the turns did not restore the grid")
	}
}

func TestRotate_SingleTurn(t *testing.T) {
	h := newHarness(t)
	h.g.cells[voxel.Point{X: 5, Y: 5, Z: 5}] = voxel.Solid(red)
	h.g.cells[voxel.Point{X: 6, Y: 5, Z: 5}] = voxel.Solid(blue)
	h.selectBox(t, voxel.Point{X: 5, Y: 5, Z: 5}, voxel.Point{X: 6, Y: 5, Z: 5})
	h.exec(t, "rotate", "1")
	h.drain(t)
	want := map[voxel.Point]voxel.Cell{
		{X: 5, Y: 5, Z: 5}: voxel.Solid(red),
		{X: 5, Y: 6, Z: 5}: voxel.Solid(blue),
	}
	if !h.g.equal(want) {
		t.Fatalf("cells=%v want=%v", h.g.cells, want)
	}
}

func TestFlip_MirrorsAlongAxis(t *testing.T) {
	h := newHarness(t)
	h.g.cells[voxel.Point{X: 2}] = voxel.Solid(red)
	h.selectBox(t, voxel.Point{X: 2}, voxel.Point{X: 5})
	h.exec(t, "flip", "e")
	h.drain(t)
	if h.g.Cell(voxel.Point{X: 2}).Filled || h.g.Cell(voxel.Point{X: 5}) != voxel.Solid(red) {
		t.Fatalf("cells=%v want red mirrored to x=5", h.g.cells)
	}
}

func TestReplaceFillRepaint_Predicates(t *testing.T) {
	h := newHarness(t)
	h.g.cells[voxel.Point{X: 0}] = voxel.Solid(red)
	h.g.cells[voxel.Point{X: 1}] = voxel.Solid(blue)
	h.selectBox(t, voxel.Point{}, voxel.Point{X: 2})

	h.exec(t, "re", "green")
	h.drain(t)
	if h.g.Cell(voxel.Point{X: 0}) != voxel.Solid(green) || h.g.Cell(voxel.Point{X: 1}) != voxel.Solid(blue) {
		t.Fatalf("replace should only touch the held color: %v", h.g.cells)
	}
	h.exec(t, "fill", "red")
	h.drain(t)
	if h.g.Cell(voxel.Point{X: 2}) != voxel.Solid(red) || h.g.Cell(voxel.Point{X: 1}) != voxel.Solid(blue) {
		t.Fatalf("fill should only touch empty cells: %v", h.g.cells)
	}
	delete(h.g.cells, voxel.Point{X: 2})
	h.exec(t, "repaint", "0")
	h.drain(t)
	if len(h.g.cells) != 0 {
		t.Fatalf("repaint 0 should clear solid cells: %v", h.g.cells)
	}
}

func TestFill_NothingToChangeStillReports(t *testing.T) {
	h := newHarness(t)
	h.g.cells[voxel.Point{X: 0}] = voxel.Solid(red)
	h.selectBox(t, voxel.Point{}, voxel.Point{})
	h.exec(t, "fill", "blue")
	if h.s.Busy() {
		t.Fatalf("nothing queued, queue should stay idle")
	}
	if !h.said("0 block(s) have been changed") {
		t.Fatalf("missing zero summary, got %q", h.msgs)
	}
	if h.g.Cell(voxel.Point{X: 0}) != voxel.Solid(red) {
		t.Fatalf("fill touched a solid cell")
	}
}

func TestDarken_AdjustsSolidCells(t *testing.T) {
	h := newHarness(t)
	h.g.cells[voxel.Point{}] = voxel.Solid(voxel.Color{R: 200, G: 200, B: 200})
	h.selectBox(t, voxel.Point{}, voxel.Point{X: 1})
	h.exec(t, "darken", "20")
	h.drain(t)
	got := h.g.Cell(voxel.Point{})
	if !got.Filled || got.Color.R >= 200 {
		t.Fatalf("cell=%+v want darker", got)
	}
	if h.g.Cell(voxel.Point{X: 1}).Filled {
		t.Fatalf("darken filled an empty cell")
	}
}

func TestCenter_MarksMiddle(t *testing.T) {
	h := newHarness(t)
	h.selectBox(t, voxel.Point{}, voxel.Point{X: 4, Y: 3, Z: 2})
	h.exec(t, "center")
	h.drain(t)
	want := map[voxel.Point]voxel.Cell{
		{X: 2, Y: 1, Z: 1}: voxel.Solid(red),
		{X: 2, Y: 2, Z: 1}: voxel.Solid(red),
	}
	if !h.g.equal(want) {
		t.Fatalf("cells=%v want=%v", h.g.cells, want)
	}
}

func TestRandomRepeat_Deterministic(t *testing.T) {
	a, b := newHarness(t), newHarness(t)
	for _, h := range []*harness{a, b} {
		h.selectBox(t, voxel.Point{}, voxel.Point{X: 7, Y: 7, Z: 3})
		h.exec(t, "rr", "#111,#222", "0.5")
		h.drain(t)
	}
	if len(a.g.cells) == 0 || !a.g.equal(b.g.snapshot()) {
		t.Fatalf("seeded sessions should paint identically (cells=%d)", len(a.g.cells))
	}
}

func TestRandomRepeat_Length(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	out := randomRepeat(4096, 3, 0.5, rng)
	if len(out) < 4096 {
		t.Fatalf("len=%d want >= 4096", len(out))
	}
	for _, v := range out {
		if v < 0 || v >= 3 {
			t.Fatalf("index %d out of range", v)
		}
	}
}

func TestBrush_StrokePaintsSphere(t *testing.T) {
	h := newHarness(t)
	if msg := h.exec(t, "brush", "2"); msg != "Brush enabled" {
		t.Fatalf("msg=%q", msg)
	}
	p := voxel.Point{X: 10, Y: 10, Z: 8}
	h.s.PrimaryClick(&p)
	if h.s.Pending() != 33 {
		t.Fatalf("pending=%d want=33", h.s.Pending())
	}
	// Strokes are dropped while the previous one drains.
	q := voxel.Point{X: 20, Y: 20, Z: 8}
	h.s.PrimaryClick(&q)
	h.drain(t)
	if len(h.g.cells) != 33 {
		t.Fatalf("cells=%d want=33", len(h.g.cells))
	}
	if h.said("have been changed") {
		t.Fatalf("summary should be suppressed while the brush is on")
	}

	h.s.SecondaryClick(&p)
	h.drain(t)
	if len(h.g.cells) != 0 {
		t.Fatalf("erase stroke left %d cells", len(h.g.cells))
	}
	if msg := h.exec(t, "brush"); msg != "Brush disabled" {
		t.Fatalf("msg=%q", msg)
	}
}

func TestBrush_DoesNotSwallowCornerPicks(t *testing.T) {
	h := newHarness(t)
	h.exec(t, "brush", "2")
	a, b := voxel.Point{X: 2, Y: 2, Z: 2}, voxel.Point{X: 3, Y: 2, Z: 2}
	if err := h.g.SetColor(a, red); err != nil {
		t.Fatal(err)
	}
	if msg := h.exec(t, "copy"); msg != promptSelect {
		t.Fatalf("msg=%q want prompt", msg)
	}
	h.s.PrimaryClick(&a)
	h.s.PrimaryClick(&b)
	if h.s.Selection().Pending() != nil {
		t.Fatalf("deferred copy still parked: %+v", h.s.Selection().Pending())
	}
	ga, gb, ok := h.s.Selection().Corners()
	if !ok || ga != a || gb != b {
		t.Fatalf("corners=%v %v want %v %v", ga, gb, a, b)
	}
	if h.s.Clipboard().Empty() {
		t.Fatalf("deferred copy did not run: %q", h.msgs)
	}
	if h.s.Busy() || len(h.g.cells) != 1 {
		t.Fatalf("picks must not stroke, busy=%v cells=%d", h.s.Busy(), len(h.g.cells))
	}
}

func TestPermissionDenied_AbortKeepsPartialWorkUndoable(t *testing.T) {
	h := newHarness(t)
	h.g.deny[voxel.Point{X: 2}] = true
	h.selectBox(t, voxel.Point{}, voxel.Point{X: 4})
	h.exec(t, "set")
	res := h.s.Tick()
	if !res.Aborted || !res.Done || res.Changed != 2 || res.Denied != 1 {
		t.Fatalf("result=%+v want abort after 2 writes", res)
	}
	if h.s.Busy() || len(h.g.cells) != 2 {
		t.Fatalf("busy=%v cells=%d", h.s.Busy(), len(h.g.cells))
	}
	if !h.said("2 block(s) have been changed") {
		t.Fatalf("missing summary: %q", h.msgs)
	}
	h.exec(t, "undo")
	h.drain(t)
	if len(h.g.cells) != 0 {
		t.Fatalf("undo left %v", h.g.cells)
	}
}

func TestPermissionDenied_SkipPolicy(t *testing.T) {
	g := newMemGrid()
	g.deny[voxel.Point{X: 2}] = true
	opts := DefaultOptions()
	opts.Dims = voxel.Dims{W: 8, D: 8, H: 8}
	opts.DenyPolicy = buildqueue.SkipDenied
	s := New(Config{ID: "a2", Options: opts, Grid: g})
	s.Selection().SetCorners(voxel.Point{}, voxel.Point{X: 4})
	if _, err := s.Exec("set", []string{"red"}); err != nil {
		t.Fatalf("set: %v", err)
	}
	res := s.Tick()
	if res.Aborted || res.Changed != 4 || res.Denied != 1 {
		t.Fatalf("result=%+v want 4 applied, 1 skipped", res)
	}
}

func TestClose_AbandonsQueue(t *testing.T) {
	h := newHarness(t)
	h.selectBox(t, voxel.Point{}, voxel.Point{X: 9, Y: 9, Z: 4})
	h.exec(t, "set")
	h.s.Tick()
	h.s.Close()
	if h.s.Busy() || h.s.Pending() != 0 {
		t.Fatalf("close should abandon pending writes")
	}
	if len(h.g.cells) != 180 {
		t.Fatalf("cells=%d want=180", len(h.g.cells))
	}
}

func TestSel_ShapeAndToggle(t *testing.T) {
	h := newHarness(t)
	msg := h.exec(t, "s", "e")
	if !strings.Contains(msg, "Selection shape changed") || !strings.Contains(msg, "Selection started") {
		t.Fatalf("msg=%q", msg)
	}
	if msg := h.exec(t, "sel"); msg != "Selection cancelled" {
		t.Fatalf("msg=%q", msg)
	}
	h.selectBox(t, voxel.Point{}, voxel.Point{X: 4, Y: 4, Z: 4})
	if msg := h.exec(t, "sel", "cyl"); msg != "Selection shape changed" {
		t.Fatalf("msg=%q", msg)
	}
	if msg := h.exec(t, "unsel"); msg != "Selection removed" || h.s.Selection().Complete() {
		t.Fatalf("msg=%q", msg)
	}
}

func TestExpand_Vertical(t *testing.T) {
	h := newHarness(t)
	h.selectBox(t, voxel.Point{Z: 4}, voxel.Point{X: 1, Z: 5})
	h.exec(t, "expand", "vert")
	a, b, _ := h.s.Selection().Corners()
	if a.Z != 0 || b.Z != 15 {
		t.Fatalf("corners=%v %v want full height", a, b)
	}
	h.exec(t, "expand", "2", "e")
	if _, b, _ := h.s.Selection().Corners(); b.X != 3 {
		t.Fatalf("b=%v want x=3", b)
	}
	h.exec(t, "contract", "1", "e")
	if _, b, _ := h.s.Selection().Corners(); b.X != 2 {
		t.Fatalf("b=%v want x=2", b)
	}
}
