package brush

import (
	"testing"

	"voxedit.ai/internal/sim/voxel"
)

func TestToggle(t *testing.T) {
	c := New()
	msg, err := c.Toggle([]string{"40", "fill", "red"})
	if err != nil || msg != "Brush enabled" {
		t.Fatalf("msg=%q err=%v", msg, err)
	}
	if !c.Enabled || c.Radius != MaxRadius || c.Mode != Fill || len(c.Colors) != 1 {
		t.Fatalf("unexpected config: %+v", c)
	}
	msg, _ = c.Toggle([]string{"0"})
	if msg != "Brush size changed" || c.Radius != MinRadius || c.Mode != Set {
		t.Fatalf("msg=%q config=%+v", msg, c)
	}
	msg, _ = c.Toggle(nil)
	if msg != "Brush disabled" || c.Enabled {
		t.Fatalf("msg=%q config=%+v", msg, c)
	}
	if _, err := c.Toggle([]string{"big"}); err == nil {
		t.Fatalf("expected bad radius rejected")
	}
	if _, err := c.Toggle([]string{"2", "smear"}); err == nil {
		t.Fatalf("expected bad mode rejected")
	}
}

func TestBox(t *testing.T) {
	c := Config{Radius: 2}
	b := c.Box(voxel.Point{X: 10, Y: 10, Z: 10})
	if b.Min != (voxel.Point{X: 8, Y: 8, Z: 8}) || b.Max != (voxel.Point{X: 12, Y: 12, Z: 12}) {
		t.Fatalf("box=%+v", b)
	}
}

func TestModeMatch(t *testing.T) {
	held := voxel.Color{R: 7}
	if !Replace.Match(held).Test(voxel.Solid(held)) || Replace.Match(held).Test(voxel.Solid(voxel.Color{})) {
		t.Fatalf("replace should match only the held color")
	}
	if !Fill.Match(held).Test(voxel.Empty()) || !Repaint.Match(held).Test(voxel.Solid(held)) || !Set.Match(held).Test(voxel.Empty()) {
		t.Fatalf("mode predicates wrong")
	}
}
