package colorspec

import "voxedit.ai/internal/sim/voxel"

type MatchKind int

const (
	MatchAny MatchKind = iota
	MatchColor
	MatchSolid
	MatchEmpty
)

// Match selects which points a fill command rewrites.
type Match struct {
	Kind  MatchKind
	Color voxel.Color
}

func (m Match) Test(c voxel.Cell) bool {
	switch m.Kind {
	case MatchColor:
		return c.Filled && c.Color == m.Color
	case MatchSolid:
		return c.Filled
	case MatchEmpty:
		return !c.Filled
	default:
		return true
	}
}
