package geometry

import (
	"math"

	"voxedit.ai/internal/sim/voxel"
)

// Box is an axis-aligned region with inclusive corners.
type Box struct {
	Min voxel.Point
	Max voxel.Point
}

func BoxOf(a, b voxel.Point) Box {
	return Box{
		Min: voxel.Point{X: min(a.X, b.X), Y: min(a.Y, b.Y), Z: min(a.Z, b.Z)},
		Max: voxel.Point{X: max(a.X, b.X), Y: max(a.Y, b.Y), Z: max(a.Z, b.Z)},
	}
}

// Span is Max-Min per axis.
func (b Box) Span() voxel.Point { return b.Max.Sub(b.Min) }

// Extent is the inclusive size per axis.
func (b Box) Extent() voxel.Point { return b.Span().Add(voxel.Point{X: 1, Y: 1, Z: 1}) }

func (b Box) Volume() int {
	e := b.Extent()
	return e.X * e.Y * e.Z
}

func (b Box) Translate(off voxel.Point) Box {
	return Box{Min: b.Min.Add(off), Max: b.Max.Add(off)}
}

const (
	AxisX = 0
	AxisY = 1
	AxisZ = 2
)

// QuarterTurn returns the remap for one 90 degree turn of the box's content
// about the given axis, and the box the content occupies afterwards. The
// offset correction keeps the turned content centred on the original box,
// rounding half to even so that opposite turns cancel.
func QuarterTurn(b Box, axis int) (func(voxel.Point) voxel.Point, Box) {
	s := b.Span()
	var local func(p voxel.Point) voxel.Point
	switch axis {
	case AxisZ:
		d := halfEven(s.X - s.Y)
		local = func(p voxel.Point) voxel.Point {
			return voxel.Point{X: s.Y - p.Y + d, Y: p.X - d, Z: p.Z}
		}
	case AxisY:
		d := halfEven(s.Z - s.X)
		local = func(p voxel.Point) voxel.Point {
			return voxel.Point{X: p.Z - d, Y: p.Y, Z: s.X - p.X + d}
		}
	default:
		d := halfEven(s.Y - s.Z)
		local = func(p voxel.Point) voxel.Point {
			return voxel.Point{X: p.X, Y: s.Z - p.Z + d, Z: p.Y - d}
		}
	}
	remap := func(p voxel.Point) voxel.Point {
		return local(p.Sub(b.Min)).Add(b.Min)
	}
	return remap, BoxOf(remap(b.Min), remap(b.Max))
}

// Mirror reflects the box's content across its mid-plane normal to axis.
func Mirror(b Box, axis int) func(voxel.Point) voxel.Point {
	lo, hi := b.Min.Axis(axis), b.Max.Axis(axis)
	return func(p voxel.Point) voxel.Point {
		return p.WithAxis(axis, lo+hi-p.Axis(axis))
	}
}

func halfEven(n int) int {
	return int(math.RoundToEven(float64(n) / 2))
}

// NormalizeTurns converts a user rotation value into a quarter-turn count in
// [0,3]. It accepts either quarter-turns or degrees (multiples of 90).
func NormalizeTurns(r int) int {
	if r%90 == 0 && (r > 3 || r < -3) {
		r /= 90
	}
	r %= 4
	if r < 0 {
		r += 4
	}
	return r
}
