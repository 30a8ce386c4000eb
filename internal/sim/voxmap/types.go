package voxmap

import (
	"crypto/sha256"
	"encoding/binary"

	"voxedit.ai/internal/sim/voxel"
)

const ChunkSize = 16

type ChunkKey struct {
	CX int
	CY int
}

// Chunk is a 16x16 column of the map spanning every level.
type Chunk struct {
	CX, CY int
	Cells  []uint32 // len = 16*16*H, 0 = empty

	filled int
	dirty  bool
	hash   [32]byte
}

func (c *Chunk) index(x, y, z int) int {
	return x + y*ChunkSize + z*ChunkSize*ChunkSize
}

func (c *Chunk) Get(x, y, z int) uint32 {
	return c.Cells[c.index(x, y, z)]
}

// Set reports whether the stored value changed.
func (c *Chunk) Set(x, y, z int, v uint32) bool {
	i := c.index(x, y, z)
	if c.Cells[i] == v {
		return false
	}
	switch {
	case c.Cells[i] == 0:
		c.filled++
	case v == 0:
		c.filled--
	}
	c.Cells[i] = v
	c.dirty = true
	return true
}

// Filled is the number of solid cells in the chunk.
func (c *Chunk) Filled() int { return c.filled }

func (c *Chunk) Digest() [32]byte {
	if c.dirty || c.hash == ([32]byte{}) {
		h := sha256.New()
		var tmp [4]byte
		for _, v := range c.Cells {
			binary.LittleEndian.PutUint32(tmp[:], v)
			h.Write(tmp[:])
		}
		copy(c.hash[:], h.Sum(nil))
		c.dirty = false
	}
	return c.hash
}

const filledBit = 1 << 24

func pack(c voxel.Cell) uint32 {
	if !c.Filled {
		return 0
	}
	return filledBit | uint32(c.Color.R)<<16 | uint32(c.Color.G)<<8 | uint32(c.Color.B)
}

func unpack(v uint32) voxel.Cell {
	if v&filledBit == 0 {
		return voxel.Empty()
	}
	return voxel.Solid(voxel.Color{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)})
}
