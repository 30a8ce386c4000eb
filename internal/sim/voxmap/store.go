package voxmap

import (
	"crypto/sha256"
	"encoding/binary"
	"sort"

	"voxedit.ai/internal/sim/voxel"
)

// Store is the shared voxel map. Chunks are allocated on first write; reads
// of untouched chunks see empty cells. It is not safe for concurrent use.
type Store struct {
	dims   voxel.Dims
	chunks map[ChunkKey]*Chunk
	zones  []Zone
	filled int
}

func New(dims voxel.Dims) *Store {
	if dims == (voxel.Dims{}) {
		dims = voxel.DefaultDims()
	}
	return &Store{dims: dims, chunks: map[ChunkKey]*Chunk{}}
}

func (s *Store) Dims() voxel.Dims { return s.dims }

func (s *Store) InBounds(p voxel.Point) bool { return s.dims.Contains(p) }

// Filled is the number of solid cells in the map.
func (s *Store) Filled() int { return s.filled }

func (s *Store) Cell(p voxel.Point) voxel.Cell {
	if !s.InBounds(p) {
		return voxel.Empty()
	}
	ch, ok := s.chunks[keyOf(p)]
	if !ok {
		return voxel.Empty()
	}
	return unpack(ch.Get(p.X%ChunkSize, p.Y%ChunkSize, p.Z))
}

// Put writes c at p without any zone check. Points outside the map are
// ignored.
func (s *Store) Put(p voxel.Point, c voxel.Cell) {
	if !s.InBounds(p) {
		return
	}
	v := pack(c)
	k := keyOf(p)
	ch, ok := s.chunks[k]
	if !ok {
		if v == 0 {
			return
		}
		ch = s.chunk(k)
	}
	before := ch.filled
	if ch.Set(p.X%ChunkSize, p.Y%ChunkSize, p.Z, v) {
		s.filled += ch.filled - before
	}
}

func (s *Store) chunk(k ChunkKey) *Chunk {
	ch := &Chunk{
		CX:    k.CX,
		CY:    k.CY,
		Cells: make([]uint32, ChunkSize*ChunkSize*s.dims.H),
		dirty: true,
	}
	s.chunks[k] = ch
	return ch
}

func (s *Store) LoadedChunkKeys() []ChunkKey {
	keys := make([]ChunkKey, 0, len(s.chunks))
	for k := range s.chunks {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].CX != keys[j].CX {
			return keys[i].CX < keys[j].CX
		}
		return keys[i].CY < keys[j].CY
	})
	return keys
}

// Digest hashes every chunk that holds a solid cell, so two maps with the
// same content digest equal regardless of which chunks were ever touched.
func (s *Store) Digest() [32]byte {
	h := sha256.New()
	var tmp [8]byte
	for _, k := range s.LoadedChunkKeys() {
		ch := s.chunks[k]
		if ch.filled == 0 {
			continue
		}
		d := ch.Digest()
		binary.LittleEndian.PutUint64(tmp[:], uint64(int64(k.CX)))
		h.Write(tmp[:])
		binary.LittleEndian.PutUint64(tmp[:], uint64(int64(k.CY)))
		h.Write(tmp[:])
		h.Write(d[:])
	}
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

func keyOf(p voxel.Point) ChunkKey {
	return ChunkKey{CX: p.X / ChunkSize, CY: p.Y / ChunkSize}
}
