package clipboard

import (
	"errors"

	"voxedit.ai/internal/sim/voxel"
)

var ErrEmpty = errors.New("clipboard is empty")

// Entry is a copied cell addressed relative to the copied region's minimum
// corner.
type Entry struct {
	Off  voxel.Point
	Cell voxel.Cell
}

// Clipboard is owned by a single actor.
type Clipboard struct {
	entries []Entry
	size    voxel.Point
	index   map[voxel.Point]voxel.Cell
}

// Set replaces the content. size is the inclusive extent of the region.
func (c *Clipboard) Set(entries []Entry, size voxel.Point) {
	c.entries = entries
	c.size = size
	c.index = nil
}

func (c *Clipboard) Empty() bool { return len(c.entries) == 0 }

func (c *Clipboard) Entries() []Entry { return c.entries }

func (c *Clipboard) Size() voxel.Point { return c.size }

// PatternAt tiles the clipboard over the grid and returns the copied cell
// that lands on p.
func (c *Clipboard) PatternAt(p voxel.Point) (voxel.Cell, bool) {
	if c.Empty() || c.size.X <= 0 || c.size.Y <= 0 || c.size.Z <= 0 {
		return voxel.Cell{}, false
	}
	if c.index == nil {
		c.index = make(map[voxel.Point]voxel.Cell, len(c.entries))
		for _, e := range c.entries {
			c.index[e.Off] = e.Cell
		}
	}
	off := voxel.Point{X: mod(p.X, c.size.X), Y: mod(p.Y, c.size.Y), Z: mod(p.Z, c.size.Z)}
	cell, ok := c.index[off]
	if !ok {
		return voxel.Empty(), true
	}
	return cell, true
}

// PasteOrigin is where the clipboard's minimum corner lands when pasted by an
// actor standing at pos. The offset is applied so the bottom layer sits at
// pos.Z + offset.Z (Z grows downward).
func (c *Clipboard) PasteOrigin(pos, offset voxel.Point) voxel.Point {
	return voxel.Point{
		X: pos.X + offset.X,
		Y: pos.Y + offset.Y,
		Z: pos.Z + offset.Z - (c.size.Z - 1),
	}
}

func mod(a, b int) int {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}
