package edit

import (
	"strconv"

	"voxedit.ai/internal/sim/edit/colorspec"
	"voxedit.ai/internal/sim/voxel"
)

const (
	defaultDither = 3
	defaultNoise  = 2
	maxBuildNoise = 127
)

// buildModes perturb the color of plain single-block builds. A zero value
// means the mode is off.
type buildModes struct {
	dither int
	noise  int
}

// jitter offsets every channel of c by one draw from [-v-1, v-1].
func (s *Session) jitter(c voxel.Color, v int) voxel.Color {
	if v <= 0 {
		return c
	}
	return colorspec.Offset(c, s.rng.Intn(2*v+1)-v-1)
}

// BuildColor returns the color a plain block build places. It is the held
// color unless dithering or noise is on, in which case every call draws a
// fresh variation. The held color itself never drifts.
func (s *Session) BuildColor() voxel.Color {
	c := s.jitter(s.held, s.modes.dither)
	return s.jitter(c, s.modes.noise)
}

// cmdDither toggles dithered builds.
//
//	dither <0-127>
//
// Repeating the current value turns dithering off; a different value
// replaces it.
func (s *Session) cmdDither(args []string) (string, error) {
	if arg(args, 0) == "" {
		if s.modes.dither > 0 {
			s.modes.dither = 0
			return "Color dithering disabled", nil
		}
		s.modes.dither = defaultDither
		return "Color dithering enabled", nil
	}
	v, err := strconv.Atoi(arg(args, 0))
	if err != nil {
		return "", invalid("Value should be a whole number")
	}
	v = min(max(v, 0), maxBuildNoise)
	switch {
	case s.modes.dither == v:
		s.modes.dither = 0
		return "Color dithering disabled", nil
	case s.modes.dither > 0:
		s.modes.dither = v
		return "Color dithering value changed", nil
	}
	s.modes.dither = v
	return "Color dithering enabled", nil
}

// cmdBuildNoise toggles noisy builds.
//
//	buildnoise <value>
func (s *Session) cmdBuildNoise(args []string) (string, error) {
	v, err := intArg(args, 0, defaultNoise, "noise")
	if err != nil {
		return "", err
	}
	if v < 1 || v > maxBuildNoise {
		return "", invalid("noise must be between 1 and %d", maxBuildNoise)
	}
	if s.modes.noise > 0 {
		s.modes.noise = 0
		return "Noise mode disabled", nil
	}
	s.modes.noise = v
	return "Noise mode enabled", nil
}
