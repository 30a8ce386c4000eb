package geometry

import (
	"errors"
	"strings"

	"voxedit.ai/internal/sim/voxel"
)

type Shape int

const (
	Cuboid Shape = iota
	Ellipsoid
	Cylinder
)

func (s Shape) String() string {
	switch s {
	case Ellipsoid:
		return "ellipsoid"
	case Cylinder:
		return "cylinder"
	default:
		return "cuboid"
	}
}

// ParseShape accepts the full shape names and their short forms.
func ParseShape(s string) (Shape, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "cuboid", "cube", "box":
		return Cuboid, true
	case "e", "ellipsoid", "sphere":
		return Ellipsoid, true
	case "c", "cyl", "cylinder":
		return Cylinder, true
	}
	return Cuboid, false
}

// Enumerate returns every grid point of the selection spanned by a and b.
// Both corners are clamped into dims first. Points come out ordered by
// (x, y, z) ascending; callers rely on the order being stable so that
// captures taken in separate passes line up.
func Enumerate(a, b voxel.Point, shape Shape, dims voxel.Dims) []voxel.Point {
	box := BoxOf(dims.Clamp(a), dims.Clamp(b))
	lo, hi := box.Min, box.Max

	var cx, cy, cz, rx, ry, rz float64
	if shape != Cuboid {
		cx = float64(lo.X+hi.X) / 2
		cy = float64(lo.Y+hi.Y) / 2
		cz = float64(lo.Z+hi.Z) / 2
		ext := box.Extent()
		rx = float64(radius(ext.X))
		ry = float64(radius(ext.Y))
		rz = float64(radius(ext.Z))
	}

	out := make([]voxel.Point, 0, min(box.Volume(), 1<<16))
	for x := lo.X; x <= hi.X; x++ {
		for y := lo.Y; y <= hi.Y; y++ {
			var flat float64
			if shape != Cuboid {
				dx := (float64(x) - cx) / rx
				dy := (float64(y) - cy) / ry
				flat = dx*dx + dy*dy
				if flat > 1 {
					continue
				}
			}
			for z := lo.Z; z <= hi.Z; z++ {
				if shape == Ellipsoid {
					dz := (float64(z) - cz) / rz
					if flat+dz*dz > 1 {
						continue
					}
				}
				out = append(out, voxel.Point{X: x, Y: y, Z: z})
			}
		}
	}
	return out
}

// radius is half the inclusive extent, never below 1.
func radius(extent int) int {
	r := extent / 2
	if r < 1 {
		return 1
	}
	return r
}

var ErrInvalidDirection = errors.New("invalid direction")

// Direction is a signed grid axis.
type Direction struct {
	Axis int
	Sign int
}

func (d Direction) Unit() voxel.Point {
	return voxel.Point{}.WithAxis(d.Axis, d.Sign)
}

var compass = map[string]Direction{
	"n": {Axis: 1, Sign: -1},
	"e": {Axis: 0, Sign: 1},
	"s": {Axis: 1, Sign: 1},
	"w": {Axis: 0, Sign: -1},
	"u": {Axis: 2, Sign: -1},
	"d": {Axis: 2, Sign: 1},

	"north": {Axis: 1, Sign: -1},
	"east":  {Axis: 0, Sign: 1},
	"south": {Axis: 1, Sign: 1},
	"west":  {Axis: 0, Sign: -1},
	"up":    {Axis: 2, Sign: -1},
	"down":  {Axis: 2, Sign: 1},
}

// ResolveDirection maps a compass letter to an axis and sign. Without a
// letter the dominant component of the look vector decides.
func ResolveDirection(letter string, look [3]float64) (Direction, error) {
	letter = strings.ToLower(strings.TrimSpace(letter))
	if letter != "" {
		d, ok := compass[letter]
		if !ok {
			return Direction{}, ErrInvalidDirection
		}
		return d, nil
	}
	best := 0
	for i := 1; i < 3; i++ {
		if abs(look[i]) > abs(look[best]) {
			best = i
		}
	}
	if look[best] == 0 {
		return Direction{}, ErrInvalidDirection
	}
	sign := 1
	if look[best] < 0 {
		sign = -1
	}
	return Direction{Axis: best, Sign: sign}, nil
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
