package edit

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"voxedit.ai/internal/sim/edit/clipboard"
	"voxedit.ai/internal/sim/edit/colorspec"
	"voxedit.ai/internal/sim/edit/geometry"
	"voxedit.ai/internal/sim/edit/history"
	"voxedit.ai/internal/sim/voxel"
)

const promptSelect = "Select two corners by clicking on or placing blocks"

type handler func(s *Session, args []string) (string, error)

var commands = map[string]handler{
	"sel":      (*Session).cmdSel,
	"unsel":    (*Session).cmdUnsel,
	"expand":   (*Session).cmdExpand,
	"contract": (*Session).cmdContract,

	"set":     (*Session).cmdSet,
	"replace": (*Session).cmdReplace,
	"fill":    (*Session).cmdFill,
	"repaint": (*Session).cmdRepaint,

	"hue":          (*Session).cmdHue,
	"hueshift":     adjust("hueshift", colorspec.ShiftHue, 0.618, absPercent),
	"brightness":   adjust("brightness", colorspec.SetLightness, 0, absPercent),
	"lighten":      adjust("lighten", colorspec.ShiftLightness, 0.2, percent),
	"darken":       adjust("darken", colorspec.ShiftLightness, 0.2, negPercent),
	"saturation":   adjust("saturation", colorspec.SetSaturation, 0, absPercent),
	"saturate":     adjust("saturate", colorspec.ShiftSaturation, 0.2, percent),
	"desaturate":   adjust("desaturate", colorspec.ShiftSaturation, 0.2, negPercent),
	"crossprocess": raw("crossprocess", colorspec.CrossProcess, 153),
	"noise":        raw("noise", colorspec.Noise, 3),
	"randomrepeat": (*Session).cmdRandomRepeat,

	"shift":  (*Session).cmdShift,
	"stack":  (*Session).cmdStack,
	"copy":   (*Session).cmdCopy,
	"cut":    (*Session).cmdCut,
	"paste":  (*Session).cmdPaste,
	"rotate": (*Session).cmdRotate,
	"flip":   (*Session).cmdFlip,
	"center": (*Session).cmdCenter,
	"brush":  (*Session).cmdBrush,

	"forestgen":  (*Session).cmdForestGen,
	"dither":     (*Session).cmdDither,
	"buildnoise": (*Session).cmdBuildNoise,

	"undo": (*Session).cmdUndo,
	"redo": (*Session).cmdRedo,
}

var aliases = map[string]string{
	"s":   "sel",
	"re":  "replace",
	"rep": "replace",
	"mov": "shift",
	"rr":  "randomrepeat",
	"d":   "dither",
	"n":   "buildnoise",
}

// Commands lists every command name and alias, sorted.
func Commands() []string {
	out := make([]string, 0, len(commands)+len(aliases))
	for name := range commands {
		out = append(out, name)
	}
	for name := range aliases {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

var (
	matchAny   = colorspec.Match{Kind: colorspec.MatchAny}
	matchSolid = colorspec.Match{Kind: colorspec.MatchSolid}
	matchEmpty = colorspec.Match{Kind: colorspec.MatchEmpty}
	removeAll  = colorspec.RemoveAll()
)

func invalid(format string, a ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, a...))
}

func arg(args []string, i int) string {
	if i < len(args) {
		return strings.TrimSpace(args[i])
	}
	return ""
}

func intArg(args []string, i, def int, what string) (int, error) {
	v := arg(args, i)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, invalid("%s must be a whole number, got %q", what, v)
	}
	return n, nil
}

func floatArg(args []string, i int, def float64, what string) (float64, error) {
	v := arg(args, i)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, invalid("%s must be a number, got %q", what, v)
	}
	return f, nil
}

func boolArg(args []string, i int) bool {
	switch strings.ToLower(arg(args, i)) {
	case "", "0", "false", "no", "off":
		return false
	}
	return true
}

func parsePalette(args []string, fallback voxel.Color) (colorspec.Palette, error) {
	p, err := colorspec.ParsePalette(args, fallback)
	if err != nil {
		return colorspec.Palette{}, fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}
	return p, nil
}

func (s *Session) direction(letter string) (geometry.Direction, error) {
	d, err := geometry.ResolveDirection(letter, s.look)
	if err != nil {
		return geometry.Direction{}, fmt.Errorf("%w: %w %q", ErrInvalidArgument, err, letter)
	}
	return d, nil
}

// requireSelection parks the command until a selection exists.
func (s *Session) requireSelection(name string, args []string) bool {
	return s.sel.Require(name, args)
}

func (s *Session) snapshot() history.Region {
	a, b, ok := s.sel.Corners()
	return history.Region{A: a, B: b, OK: ok}
}

func (s *Session) restore(r history.Region) {
	if !r.OK {
		s.sel.Clear()
		return
	}
	s.sel.SetCorners(r.A, r.B)
}

func (s *Session) points() []voxel.Point {
	a, b, _ := s.sel.Corners()
	return geometry.Enumerate(a, b, s.sel.Shape, s.opts.Dims)
}

// box is the selection's bounding box after clamping to the grid.
func (s *Session) box() geometry.Box {
	a, b, _ := s.sel.Corners()
	return geometry.BoxOf(s.opts.Dims.Clamp(a), s.opts.Dims.Clamp(b))
}

// cell is what the actor will see at p once its queue drains.
func (s *Session) cell(p voxel.Point) voxel.Cell {
	if c, ok := s.queue.Lookup(p); ok {
		return c
	}
	return s.grid.Cell(p)
}

// enqueue records p's prior cell in the current step and queues the write.
// Points outside the grid are dropped.
func (s *Session) enqueue(p voxel.Point, c voxel.Cell) {
	if !s.opts.Dims.Contains(p) {
		return
	}
	s.hist.Record(p, s.cell(p))
	s.queue.Push(voxel.Mutation{Pos: p, Cell: c})
}

func (s *Session) push(p voxel.Point, c voxel.Cell) {
	s.queue.Push(voxel.Mutation{Pos: p, Cell: c})
}

type captured struct {
	pos  voxel.Point
	cell voxel.Cell
}

// capture reads every selected point before anything is queued.
func (s *Session) capture() []captured {
	pts := s.points()
	out := make([]captured, len(pts))
	for i, p := range pts {
		out[i] = captured{pos: p, cell: s.cell(p)}
	}
	return out
}

func (s *Session) cmdSel(args []string) (string, error) {
	var notes []string
	if name := arg(args, 0); name != "" {
		shape, ok := geometry.ParseShape(name)
		if !ok {
			return "", invalid("unknown shape %q", name)
		}
		s.sel.Shape = shape
		if s.sel.Complete() {
			return "Selection shape changed", nil
		}
		notes = append(notes, "Selection shape changed")
	} else if !s.sel.Complete() {
		s.sel.Shape = geometry.Cuboid
	}
	if s.sel.Toggle() {
		notes = append(notes, "Selection started. "+promptSelect)
	} else {
		notes = append(notes, "Selection cancelled")
	}
	return strings.Join(notes, ". "), nil
}

func (s *Session) cmdUnsel(args []string) (string, error) {
	s.sel.Clear()
	return "Selection removed", nil
}

func (s *Session) cmdExpand(args []string) (string, error) {
	return s.resize("expand", args, 1)
}

func (s *Session) cmdContract(args []string) (string, error) {
	return s.resize("contract", args, -1)
}

func (s *Session) resize(name string, args []string, sign int) (string, error) {
	vertical := strings.EqualFold(arg(args, 0), "vert")
	if vertical && sign < 0 {
		return "", invalid("contract does not take vert")
	}
	var amount int
	var d geometry.Direction
	if !vertical {
		var err error
		if amount, err = intArg(args, 0, 1, "amount"); err != nil {
			return "", err
		}
		if amount < 0 {
			return "", invalid("amount must not be negative")
		}
		if d, err = s.direction(arg(args, 1)); err != nil {
			return "", err
		}
	}
	if !s.requireSelection(name, args) {
		return promptSelect, nil
	}
	switch {
	case vertical:
		s.sel.FullHeight(s.opts.Dims.H)
	case sign > 0:
		s.sel.Expand(d, amount)
	default:
		s.sel.Contract(d, amount)
	}
	if sign > 0 {
		return "Selection expanded", nil
	}
	return "Selection contracted", nil
}

// paint writes pal over every selected point whose current cell matches.
func (s *Session) paint(name string, args []string, match colorspec.Match, pal colorspec.Palette) (string, error) {
	if pal.Uses(colorspec.Pattern) && s.clip.Empty() {
		return "", ErrEmptyClipboard
	}
	if !s.requireSelection(name, args) {
		return promptSelect, nil
	}
	pts := s.points()
	s.hist.Begin(s.snapshot())
	for _, p := range pts {
		cur := s.cell(p)
		if !match.Test(cur) {
			continue
		}
		c, ok := pal.Paint(s.rng, p, cur, &s.clip)
		if !ok {
			continue
		}
		s.enqueue(p, c)
	}
	s.start()
	return "", nil
}

func (s *Session) paintWith(name string, args []string, match colorspec.Match) (string, error) {
	pal, err := parsePalette(args, s.held)
	if err != nil {
		return "", err
	}
	return s.paint(name, args, match, pal)
}

func (s *Session) cmdSet(args []string) (string, error) {
	return s.paintWith("set", args, matchAny)
}

func (s *Session) cmdReplace(args []string) (string, error) {
	return s.paintWith("replace", args, colorspec.Match{Kind: colorspec.MatchColor, Color: s.held})
}

func (s *Session) cmdFill(args []string) (string, error) {
	return s.paintWith("fill", args, matchEmpty)
}

func (s *Session) cmdRepaint(args []string) (string, error) {
	return s.paintWith("repaint", args, matchSolid)
}

func (s *Session) brushPaint() (string, error) {
	pal, err := parsePalette(s.brush.Colors, s.held)
	if err != nil {
		return "", err
	}
	return s.paint("brush", nil, s.brush.Mode.Match(s.held), pal)
}

// cmdHue sets every solid cell's hue. The value is a fraction of a turn, or
// degrees when above 1; without one the held color's hue is used.
func (s *Session) cmdHue(args []string) (string, error) {
	h, err := floatArg(args, 0, colorspec.Hue(s.held), "hue")
	if err != nil {
		return "", err
	}
	if math.Abs(h) > 1 {
		h /= 360
	}
	return s.paint("hue", args, matchSolid, colorspec.Adjust(colorspec.SetHue, h))
}

// adjust builds an HSL command; scale normalizes the user value.
func adjust(name string, kind colorspec.Kind, def float64, scale func(float64) float64) handler {
	return func(s *Session, args []string) (string, error) {
		v, err := floatArg(args, 0, def, "value")
		if err != nil {
			return "", err
		}
		return s.paint(name, args, matchSolid, colorspec.Adjust(kind, scale(v)))
	}
}

// Values beyond 1 are percentages. Absolute settings accept negative
// percentages too; relative ones only positive amounts.
func absPercent(v float64) float64 {
	if math.Abs(v) > 1 {
		return v / 100
	}
	return v
}

func percent(v float64) float64 {
	if v > 1 {
		return v / 100
	}
	return v
}

func negPercent(v float64) float64 { return -percent(v) }

func raw(name string, kind colorspec.Kind, def float64) handler {
	return func(s *Session, args []string) (string, error) {
		v, err := floatArg(args, 0, def, "value")
		if err != nil {
			return "", err
		}
		return s.paint(name, args, matchSolid, colorspec.Adjust(kind, v))
	}
}

func (s *Session) cmdShift(args []string) (string, error) {
	count, err := intArg(args, 0, 1, "count")
	if err != nil {
		return "", err
	}
	d, err := s.direction(arg(args, 1))
	if err != nil {
		return "", err
	}
	skip := boolArg(args, 2)
	if !s.requireSelection("shift", args) {
		return promptSelect, nil
	}
	a, b, _ := s.sel.Corners()
	buf := s.capture()
	s.hist.Begin(s.snapshot())
	for _, c := range buf {
		s.enqueue(c.pos, voxel.Empty())
	}
	off := d.Unit()
	off = voxel.Point{X: off.X * count, Y: off.Y * count, Z: off.Z * count}
	for _, c := range buf {
		if skip && !c.cell.Filled {
			continue
		}
		s.enqueue(c.pos.Add(off), c.cell)
	}
	s.sel.SetCorners(a.Add(off), b.Add(off))
	s.start()
	return "", nil
}

func (s *Session) cmdStack(args []string) (string, error) {
	count, err := intArg(args, 0, 1, "count")
	if err != nil {
		return "", err
	}
	if count < 0 {
		return "", invalid("count must not be negative")
	}
	d, err := s.direction(arg(args, 1))
	if err != nil {
		return "", err
	}
	if !s.requireSelection("stack", args) {
		return promptSelect, nil
	}
	size := s.box().Extent().Axis(d.Axis)
	buf := s.capture()
	s.hist.Begin(s.snapshot())
	for j := 1; j <= count; j++ {
		off := voxel.Point{}.WithAxis(d.Axis, d.Sign*size*j)
		for _, c := range buf {
			s.enqueue(c.pos.Add(off), c.cell)
		}
	}
	s.start()
	return "", nil
}

// copySelection fills the clipboard with the selected cells, addressed
// relative to the clamped box's minimum corner.
func (s *Session) copySelection(buf []captured) {
	box := s.box()
	entries := make([]clipboard.Entry, len(buf))
	for i, c := range buf {
		entries[i] = clipboard.Entry{Off: c.pos.Sub(box.Min), Cell: c.cell}
	}
	s.clip.Set(entries, box.Extent())
}

func (s *Session) cmdCopy(args []string) (string, error) {
	if !s.requireSelection("copy", args) {
		return promptSelect, nil
	}
	s.copySelection(s.capture())
	return "Selection copied", nil
}

func (s *Session) cmdCut(args []string) (string, error) {
	if !s.requireSelection("cut", args) {
		return promptSelect, nil
	}
	buf := s.capture()
	s.copySelection(buf)
	s.hist.Begin(s.snapshot())
	for _, c := range buf {
		s.enqueue(c.pos, voxel.Empty())
	}
	s.start()
	return "", nil
}

func (s *Session) cmdPaste(args []string) (string, error) {
	if s.clip.Empty() {
		return "", ErrEmptyClipboard
	}
	skip := boolArg(args, 0)
	origin := s.clip.PasteOrigin(s.pos, s.opts.PasteOffset)
	s.hist.Begin(s.snapshot())
	for _, e := range s.clip.Entries() {
		if skip && !e.Cell.Filled {
			continue
		}
		s.enqueue(origin.Add(e.Off), e.Cell)
	}
	far := origin.Add(s.clip.Size()).Sub(voxel.Point{X: 1, Y: 1, Z: 1})
	s.sel.SetCorners(origin, far)
	s.start()
	return "", nil
}

func (s *Session) cmdRotate(args []string) (string, error) {
	var turns [3]int
	defaults := [3]int{1, 0, 0}
	for i, what := range []string{"z turns", "y turns", "x turns"} {
		n, err := intArg(args, i, defaults[i], what)
		if err != nil {
			return "", err
		}
		turns[i] = geometry.NormalizeTurns(n)
	}
	if !s.requireSelection("rotate", args) {
		return promptSelect, nil
	}
	box := s.box()
	var remaps []func(voxel.Point) voxel.Point
	for i, axis := range []int{geometry.AxisZ, geometry.AxisY, geometry.AxisX} {
		for n := 0; n < turns[i]; n++ {
			var f func(voxel.Point) voxel.Point
			f, box = geometry.QuarterTurn(box, axis)
			remaps = append(remaps, f)
		}
	}
	buf := s.capture()
	s.hist.Begin(s.snapshot())
	for _, c := range buf {
		s.enqueue(c.pos, voxel.Empty())
	}
	for _, c := range buf {
		p := c.pos
		for _, f := range remaps {
			p = f(p)
		}
		s.enqueue(p, c.cell)
	}
	s.sel.SetCorners(box.Min, box.Max)
	s.start()
	return "", nil
}

var planes = map[string]int{
	"e": geometry.AxisX, "w": geometry.AxisX, "x": geometry.AxisX,
	"n": geometry.AxisY, "s": geometry.AxisY, "y": geometry.AxisY,
	"u": geometry.AxisZ, "d": geometry.AxisZ, "z": geometry.AxisZ,
}

func (s *Session) cmdFlip(args []string) (string, error) {
	plane := strings.ToLower(arg(args, 0))
	axis, ok := planes[plane]
	if !ok && len(plane) > 1 {
		axis, ok = planes[plane[:1]]
	}
	if !ok {
		return "", invalid("flip needs a plane: n, s, e, w, u or d")
	}
	if !s.requireSelection("flip", args) {
		return promptSelect, nil
	}
	mirror := geometry.Mirror(s.box(), axis)
	buf := s.capture()
	s.hist.Begin(s.snapshot())
	for _, c := range buf {
		s.enqueue(c.pos, voxel.Empty())
	}
	for _, c := range buf {
		s.enqueue(mirror(c.pos), c.cell)
	}
	s.start()
	return "", nil
}

// cmdCenter marks the centre of the selection with the held color: one cell
// per axis with an odd extent, two with an even one.
func (s *Session) cmdCenter(args []string) (string, error) {
	if !s.requireSelection("center", args) {
		return promptSelect, nil
	}
	box := s.box()
	lo := box.Min.Add(box.Max)
	s.hist.Begin(s.snapshot())
	for x := lo.X / 2; x <= (lo.X+1)/2; x++ {
		for y := lo.Y / 2; y <= (lo.Y+1)/2; y++ {
			for z := lo.Z / 2; z <= (lo.Z+1)/2; z++ {
				s.enqueue(voxel.Point{X: x, Y: y, Z: z}, voxel.Solid(s.held))
			}
		}
	}
	s.start()
	return "", nil
}

func (s *Session) cmdBrush(args []string) (string, error) {
	if len(args) > 2 {
		if _, err := parsePalette(args[2:], s.held); err != nil {
			return "", err
		}
	}
	msg, err := s.brush.Toggle(args)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}
	if !s.brush.Enabled {
		s.sel.Shape = geometry.Cuboid
	}
	return msg, nil
}

func (s *Session) cmdUndo(args []string) (string, error) {
	n, err := intArg(args, 0, 1, "steps")
	if err != nil {
		return "", err
	}
	if n < 1 {
		return "", invalid("steps must be at least 1")
	}
	_, sel, err := s.hist.Undo(n, s.cell, s.push)
	if err != nil {
		return "", err
	}
	s.restore(sel)
	s.start()
	return "", nil
}

func (s *Session) cmdRedo(args []string) (string, error) {
	n, err := intArg(args, 0, 1, "steps")
	if err != nil {
		return "", err
	}
	if n < 1 {
		return "", invalid("steps must be at least 1")
	}
	_, sel, err := s.hist.Redo(n, s.cell, s.push)
	if err != nil {
		return "", err
	}
	s.restore(sel)
	s.start()
	return "", nil
}
