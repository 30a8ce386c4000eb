package edit

import (
	"math"
	"math/rand"
	"strings"

	"voxedit.ai/internal/sim/edit/colorspec"
	"voxedit.ai/internal/sim/voxel"
)

// repeatPeriod is the edge of the cube the random texture tiles with.
const repeatPeriod = 64

const defaultRepeatColors = "2%#444,2%#555,2%#343,2%#554,2%#565,2%#455,2%#465,#C92"

// randomRepeat returns length indexes in [0, colors). With probability
// 1-ratio each step copies the trailing run whose size is the lowest set bit
// of the current length, which yields self-similar repetition.
func randomRepeat(length, colors int, ratio float64, rng *rand.Rand) []int {
	out := make([]int, 1, length+length/2)
	out[0] = rng.Intn(colors)
	for i := 1; i < length; {
		if rng.Float64() > ratio {
			n := i & -i
			out = append(out, out[len(out)-n:]...)
			i += n
			continue
		}
		out = append(out, rng.Intn(colors))
		i++
	}
	return out
}

// cmdRandomRepeat paints the selection with a tiling random texture.
//
//	randomrepeat <colors> <emptiness> <randomness> <dither>
//
// colors is a comma separated weighted list; emptiness scales the weight of
// empty cells relative to the total color weight.
func (s *Session) cmdRandomRepeat(args []string) (string, error) {
	list := arg(args, 0)
	if list == "" {
		list = defaultRepeatColors
	}
	pal, err := parsePalette(strings.Split(list, ","), s.held)
	if err != nil {
		return "", err
	}
	for _, sp := range pal.Specs {
		if sp.Kind != colorspec.Literal {
			return "", invalid("randomrepeat takes plain colors only")
		}
	}
	emptiness, err := floatArg(args, 1, 1, "emptiness")
	if err != nil {
		return "", err
	}
	randomness, err := floatArg(args, 2, 0.5, "randomness")
	if err != nil {
		return "", err
	}
	dither, err := intArg(args, 3, 0, "dither")
	if err != nil {
		return "", err
	}
	if emptiness < 0 {
		return "", invalid("emptiness must not be negative")
	}
	if !s.requireSelection("randomrepeat", args) {
		return promptSelect, nil
	}

	total := 0
	var slots []voxel.Cell
	for _, sp := range pal.Specs {
		total += sp.Weight
		for i := 0; i < sp.Weight; i++ {
			slots = append(slots, voxel.Solid(sp.Color))
		}
	}
	for i := 0; i < int(math.RoundToEven(float64(total)*emptiness)); i++ {
		slots = append(slots, voxel.Empty())
	}
	amount := min(max(dither, -dither), 255)

	n := repeatPeriod
	volume := randomRepeat(n*n*n, len(slots), randomness, s.rng)
	pts := s.points()
	s.hist.Begin(s.snapshot())
	for _, p := range pts {
		c := slots[volume[(p.X%n)*n*n+(p.Y%n)*n+p.Z%n]]
		if c.Filled && amount > 0 {
			c.Color = colorspec.Dither(c.Color, amount, s.rng)
		}
		s.enqueue(p, c)
	}
	s.start()
	return "", nil
}
