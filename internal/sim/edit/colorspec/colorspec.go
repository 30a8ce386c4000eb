package colorspec

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"

	"voxedit.ai/internal/sim/voxel"
)

var ErrInvalidColor = errors.New("invalid color")

type Kind int

const (
	Literal Kind = iota
	Random
	Pattern
	Remove
	Keep

	// Adjustments of the color already at the point.
	SetHue
	ShiftHue
	SetLightness
	ShiftLightness
	SetSaturation
	ShiftSaturation
	CrossProcess
	Noise
)

// Spec is one parsed palette entry.
type Spec struct {
	Kind   Kind
	Color  voxel.Color
	Weight int
}

// Palette is a weighted set of specs plus the dither amount applied to
// literal and pattern colors. Value parameterizes the adjustment kinds.
type Palette struct {
	Specs  []Spec
	Dither int
	Value  float64
}

// PatternSource supplies colors for the pattern token.
type PatternSource interface {
	PatternAt(p voxel.Point) (voxel.Cell, bool)
}

// ParseColor parses a color name, #rgb, #rrggbb or bare hex digits.
func ParseColor(tok string) (voxel.Color, error) {
	tok = strings.ToLower(strings.TrimSpace(tok))
	if c, ok := names[tok]; ok {
		return c, nil
	}
	h := strings.TrimPrefix(tok, "#")
	if len(h) != 3 && len(h) != 6 {
		return voxel.Color{}, fmt.Errorf("%w: %q", ErrInvalidColor, tok)
	}
	c, err := colorful.Hex("#" + h)
	if err != nil {
		return voxel.Color{}, fmt.Errorf("%w: %q", ErrInvalidColor, tok)
	}
	r, g, b := c.RGB255()
	return voxel.Color{R: r, G: g, B: b}, nil
}

func parseToken(tok string) (Spec, error) {
	switch strings.ToLower(tok) {
	case "random":
		return Spec{Kind: Random}, nil
	case "0", "remove":
		return Spec{Kind: Remove}, nil
	case "pattern", "clipboard":
		return Spec{Kind: Pattern}, nil
	case "keep", "empty":
		return Spec{Kind: Keep}, nil
	}
	c, err := ParseColor(tok)
	if err != nil {
		return Spec{}, err
	}
	return Spec{Kind: Literal, Color: c}, nil
}

// ParsePalette parses command arguments such as
//
//	#aaa red 5%#ccc 3
//
// where N% sets a relative weight and a trailing non-zero integer is the
// dither amount. With no colors the fallback color is used.
func ParsePalette(args []string, fallback voxel.Color) (Palette, error) {
	var p Palette
	if n := len(args); n > 0 {
		if v, err := strconv.Atoi(args[n-1]); err == nil && v != 0 {
			if v < 0 {
				v = -v
			}
			p.Dither = min(v, 255)
			args = args[:n-1]
		}
	}
	for _, a := range args {
		a = strings.TrimSpace(a)
		if a == "" {
			continue
		}
		weight := 1
		if i := strings.IndexByte(a, '%'); i >= 0 {
			w, err := strconv.Atoi(a[:i])
			if err != nil || w <= 0 {
				return Palette{}, fmt.Errorf("%w: bad weight in %q", ErrInvalidColor, a)
			}
			weight = w
			a = a[i+1:]
		}
		s, err := parseToken(a)
		if err != nil {
			return Palette{}, err
		}
		s.Weight = weight
		p.Specs = append(p.Specs, s)
	}
	if len(p.Specs) == 0 {
		p.Specs = []Spec{{Kind: Literal, Color: fallback, Weight: 1}}
	}
	return p, nil
}

// Adjust builds a single-entry palette that transforms existing colors.
func Adjust(kind Kind, value float64) Palette {
	return Palette{Specs: []Spec{{Kind: kind, Weight: 1}}, Value: value}
}

func Solid(c voxel.Color) Palette {
	return Palette{Specs: []Spec{{Kind: Literal, Color: c, Weight: 1}}}
}

func RemoveAll() Palette {
	return Palette{Specs: []Spec{{Kind: Remove, Weight: 1}}}
}

func (p Palette) Uses(k Kind) bool {
	for _, s := range p.Specs {
		if s.Kind == k {
			return true
		}
	}
	return false
}

// Pick chooses a spec with probability proportional to its weight.
func (p Palette) Pick(rng *rand.Rand) Spec {
	if len(p.Specs) == 1 {
		return p.Specs[0]
	}
	total := 0
	for _, s := range p.Specs {
		total += s.Weight
	}
	n := rng.Intn(total)
	for _, s := range p.Specs {
		if n < s.Weight {
			return s
		}
		n -= s.Weight
	}
	return p.Specs[len(p.Specs)-1]
}

// Paint returns the cell the palette produces at pos given the cell
// currently there. ok is false when the point should be left untouched.
func (p Palette) Paint(rng *rand.Rand, pos voxel.Point, cur voxel.Cell, pattern PatternSource) (voxel.Cell, bool) {
	s := p.Pick(rng)
	switch s.Kind {
	case Literal:
		return voxel.Solid(Dither(s.Color, p.Dither, rng)), true
	case Random:
		return voxel.Solid(voxel.Color{R: uint8(rng.Intn(256)), G: uint8(rng.Intn(256)), B: uint8(rng.Intn(256))}), true
	case Remove:
		return voxel.Empty(), true
	case Keep:
		return cur, false
	case Pattern:
		if pattern == nil {
			return cur, false
		}
		c, ok := pattern.PatternAt(pos)
		if !ok || !c.Filled {
			return voxel.Empty(), true
		}
		return voxel.Solid(Dither(c.Color, p.Dither, rng)), true
	}
	if !cur.Filled {
		return cur, false
	}
	switch s.Kind {
	case CrossProcess:
		c := cur.Color
		c.B = clampByte(int(p.Value))
		return voxel.Solid(c), true
	case Noise:
		return voxel.Solid(Dither(cur.Color, int(p.Value), rng)), true
	}
	return voxel.Solid(adjustHSL(cur.Color, s.Kind, p.Value)), true
}

// adjustHSL works on hue, saturation and lightness in [0,1].
func adjustHSL(c voxel.Color, kind Kind, v float64) voxel.Color {
	cf := colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}
	h, s, l := cf.Hsl()
	h /= 360
	switch kind {
	case SetHue:
		h = v
	case ShiftHue:
		h += v
	case SetLightness:
		l = v
	case ShiftLightness:
		l += v
	case SetSaturation:
		s = v
	case ShiftSaturation:
		s += v
	}
	h = h - math.Floor(h)
	s = clamp01(s)
	l = clamp01(l)
	r, g, b := colorful.Hsl(h*360, s, l).Clamped().RGB255()
	return voxel.Color{R: r, G: g, B: b}
}

// Hue returns the hue of c in [0,1).
func Hue(c voxel.Color) float64 {
	h, _, _ := colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}.Hsl()
	return h / 360
}

// Dither adds one random offset in [-amount, amount] to every channel.
func Dither(c voxel.Color, amount int, rng *rand.Rand) voxel.Color {
	if amount <= 0 {
		return c
	}
	return Offset(c, rng.Intn(2*amount+1)-amount)
}

// Offset adds d to every channel, clamping to the byte range.
func Offset(c voxel.Color, d int) voxel.Color {
	return voxel.Color{
		R: clampByte(int(c.R) + d),
		G: clampByte(int(c.G) + d),
		B: clampByte(int(c.B) + d),
	}
}

func clampByte(v int) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
