package edit

import (
	"math"
	"math/rand"

	"voxedit.ai/internal/sim/edit/colorspec"
	"voxedit.ai/internal/sim/voxel"
)

// Squared radii of the disc drawn at each profile step. Even-width trees
// are centred on a cell corner, so their steps are offset by half a cell.
var (
	oddSteps  = []float64{0, 1, 2, 4, 5, 8, 9, 10, 13, 16, 17}
	evenSteps = []float64{0.5, 2.5, 4.5, 6.5, 8.5, 12.5, 14.5, 18.5, 20.5, 22.5, 24.5}
)

const (
	partTrunk = iota
	partLeaves
)

// treeLevel is one horizontal slice of a tree, bottom-up.
type treeLevel struct{ step, part int }

type treeKind struct {
	even   bool
	levels []treeLevel
}

var treeKinds = func() []treeKind {
	kinds := []treeKind{
		{levels: []treeLevel{{0, 0}, {0, 0}, {1, 1}, {2, 1}, {2, 1}, {2, 1}, {1, 1}, {1, 1}, {1, 1}, {0, 1}, {0, 1}}},
		{levels: []treeLevel{{0, 0}, {3, 1}, {4, 1}, {3, 1}, {1, 1}, {3, 1}, {1, 1}, {0, 1}, {1, 1}, {0, 1}, {0, 1}}},
		{levels: []treeLevel{{1, 0}, {4, 1}, {7, 1}, {4, 1}, {3, 1}, {4, 1}, {3, 1}, {1, 1}, {3, 1}, {1, 1}, {0, 1}, {1, 1}, {0, 1}, {0, 1}}},
		{even: true, levels: []treeLevel{{1, 0}, {0, 0}, {3, 1}, {4, 1}, {4, 1}, {3, 1}, {1, 1}}},
		{even: true, levels: []treeLevel{{1, 0}, {0, 0}, {4, 1}, {3, 1}, {4, 1}, {3, 1}, {1, 1}}},
		{even: true, levels: []treeLevel{{1, 0}, {0, 0}, {0, 0}, {1, 1}, {3, 1}, {4, 1}, {3, 1}, {4, 1}, {3, 1}, {1, 1}}},
	}
	// Half of all plantings are shrubs.
	shrub := treeKind{levels: []treeLevel{{1, 1}, {0, 1}}}
	for i, n := 0, len(kinds); i < n; i++ {
		kinds = append(kinds, shrub)
	}
	return kinds
}()

// treeDensity is the footprint area per planted tree.
const treeDensity = 32

func randIn(rng *rand.Rand, lo, hi int) uint8 { return uint8(lo + rng.Intn(hi-lo)) }

func treeColors(rng *rand.Rand) [2]voxel.Color {
	trunk := voxel.Color{R: randIn(rng, 119, 134), G: randIn(rng, 68, 85), B: randIn(rng, 68, 85)}
	leaves := voxel.Color{R: randIn(rng, 34, 68), G: randIn(rng, 85, 153), B: randIn(rng, 68, 85)}
	return [2]voxel.Color{partTrunk: trunk, partLeaves: leaves}
}

// cmdForestGen plants random trees over the selection. Trees stand on the
// selection's bottom face and are clipped to its bounding box.
//
//	forestgen <dither>
func (s *Session) cmdForestGen(args []string) (string, error) {
	dither, err := intArg(args, 0, 3, "dither")
	if err != nil {
		return "", err
	}
	if dither < 0 {
		return "", invalid("dither must not be negative")
	}
	if !s.requireSelection("forestgen", args) {
		return promptSelect, nil
	}

	box := s.box()
	ext := box.Extent()
	trees := max(1, ext.X*ext.Y/treeDensity)
	s.hist.Begin(s.snapshot())
	for i := 0; i < trees; i++ {
		kind := treeKinds[s.rng.Intn(len(treeKinds))]
		steps := oddSteps
		cx := float64(box.Min.X + s.rng.Intn(ext.X))
		cy := float64(box.Min.Y + s.rng.Intn(ext.Y))
		if kind.even {
			steps = evenSteps
			cx, cy = cx-0.5, cy-0.5
		}
		colors := treeColors(s.rng)
		for up, lv := range kind.levels {
			z := box.Max.Z - up
			if z < box.Min.Z {
				break
			}
			r2 := steps[lv.step]
			r := int(math.Ceil(math.Sqrt(r2)))
			for y := int(cy) - r; y <= int(cy)+r+1; y++ {
				for x := int(cx) - r; x <= int(cx)+r+1; x++ {
					if x < box.Min.X || x > box.Max.X || y < box.Min.Y || y > box.Max.Y {
						continue
					}
					dx, dy := float64(x)-cx, float64(y)-cy
					if dx*dx+dy*dy > r2 {
						continue
					}
					c := colorspec.Dither(colors[lv.part], dither, s.rng)
					s.enqueue(voxel.Point{X: x, Y: y, Z: z}, voxel.Solid(c))
				}
			}
		}
	}
	s.start()
	return "", nil
}
