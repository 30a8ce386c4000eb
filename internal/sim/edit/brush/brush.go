package brush

import (
	"fmt"
	"strconv"
	"strings"

	"voxedit.ai/internal/sim/edit/colorspec"
	"voxedit.ai/internal/sim/edit/geometry"
	"voxedit.ai/internal/sim/voxel"
)

const (
	MinRadius = 1
	MaxRadius = 32
)

type Mode int

const (
	Set Mode = iota
	Replace
	Fill
	Repaint
)

func (m Mode) String() string {
	switch m {
	case Replace:
		return "replace"
	case Fill:
		return "fill"
	case Repaint:
		return "repaint"
	default:
		return "set"
	}
}

func ParseMode(s string) (Mode, bool) {
	switch strings.ToLower(s) {
	case "", "set":
		return Set, true
	case "replace", "re", "rep":
		return Replace, true
	case "fill":
		return Fill, true
	case "repaint":
		return Repaint, true
	}
	return Set, false
}

// Match is the source predicate the mode paints over. held is the actor's
// current color, used by Replace.
func (m Mode) Match(held voxel.Color) colorspec.Match {
	switch m {
	case Replace:
		return colorspec.Match{Kind: colorspec.MatchColor, Color: held}
	case Fill:
		return colorspec.Match{Kind: colorspec.MatchEmpty}
	case Repaint:
		return colorspec.Match{Kind: colorspec.MatchSolid}
	default:
		return colorspec.Match{Kind: colorspec.MatchAny}
	}
}

type Config struct {
	Enabled bool
	Radius  int
	Mode    Mode
	Colors  []string
}

func New() Config { return Config{Radius: MinRadius} }

// Toggle applies "brush <radius> <mode> <colors...>". While enabled, a
// radius only resizes and a bare call disables.
func (c *Config) Toggle(args []string) (string, error) {
	radius := 0
	if len(args) > 0 && args[0] != "" {
		r, err := strconv.Atoi(args[0])
		if err != nil {
			return "", fmt.Errorf("radius must be a whole number: %q", args[0])
		}
		radius = min(max(r, MinRadius), MaxRadius)
	}
	mode := Set
	if len(args) > 1 {
		m, ok := ParseMode(args[1])
		if !ok {
			return "", fmt.Errorf("unknown brush mode %q", args[1])
		}
		mode = m
	}
	c.Mode = mode
	c.Colors = nil
	if len(args) > 2 {
		c.Colors = append([]string(nil), args[2:]...)
	}
	if c.Enabled {
		if radius > 0 {
			c.Radius = radius
			return "Brush size changed", nil
		}
		c.Enabled = false
		return "Brush disabled", nil
	}
	if radius > 0 {
		c.Radius = radius
	}
	c.Enabled = true
	return "Brush enabled", nil
}

// Box is the region a stroke centred on p covers.
func (c Config) Box(p voxel.Point) geometry.Box {
	r := voxel.Point{X: c.Radius, Y: c.Radius, Z: c.Radius}
	return geometry.Box{Min: p.Sub(r), Max: p.Add(r)}
}
