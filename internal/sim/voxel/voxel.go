package voxel

import "fmt"

// Point is an integer grid coordinate. X and Y are horizontal, Z is vertical
// and grows downward.
type Point struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
	Z int `json:"z" yaml:"z"`
}

func (p Point) Add(q Point) Point { return Point{X: p.X + q.X, Y: p.Y + q.Y, Z: p.Z + q.Z} }
func (p Point) Sub(q Point) Point { return Point{X: p.X - q.X, Y: p.Y - q.Y, Z: p.Z - q.Z} }

// Axis returns the component for axis 0 (X), 1 (Y) or 2 (Z).
func (p Point) Axis(i int) int {
	switch i {
	case 0:
		return p.X
	case 1:
		return p.Y
	default:
		return p.Z
	}
}

// WithAxis returns p with the component for axis i replaced by v.
func (p Point) WithAxis(i, v int) Point {
	switch i {
	case 0:
		p.X = v
	case 1:
		p.Y = v
	default:
		p.Z = v
	}
	return p
}

func (p Point) Array() [3]int { return [3]int{p.X, p.Y, p.Z} }

func PointOf(v [3]int) Point { return Point{X: v[0], Y: v[1], Z: v[2]} }

func (p Point) String() string { return fmt.Sprintf("(%d,%d,%d)", p.X, p.Y, p.Z) }

type Color struct {
	R, G, B uint8
}

func RGB(r, g, b uint8) Color { return Color{R: r, G: g, B: b} }

func (c Color) Hex() string { return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B) }

// Cell is the content of one grid position: a color, or nothing.
type Cell struct {
	Color  Color
	Filled bool
}

func Empty() Cell { return Cell{} }

func Solid(c Color) Cell { return Cell{Color: c, Filled: true} }

func (c Cell) Hex() string {
	if !c.Filled {
		return ""
	}
	return c.Color.Hex()
}

// Mutation is one pending grid write. An unfilled Cell clears the point.
type Mutation struct {
	Pos  Point
	Cell Cell
}

// Dims bounds the grid: X in [0,W), Y in [0,D), Z in [0,H).
type Dims struct {
	W int `yaml:"w" json:"w"`
	D int `yaml:"d" json:"d"`
	H int `yaml:"h" json:"h"`
}

func DefaultDims() Dims { return Dims{W: 512, D: 512, H: 64} }

func (d Dims) Contains(p Point) bool {
	return p.X >= 0 && p.X < d.W && p.Y >= 0 && p.Y < d.D && p.Z >= 0 && p.Z < d.H
}

// Clamp moves p to the nearest point inside the grid.
func (d Dims) Clamp(p Point) Point {
	return Point{
		X: clampInt(p.X, 0, d.W-1),
		Y: clampInt(p.Y, 0, d.D-1),
		Z: clampInt(p.Z, 0, d.H-1),
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
