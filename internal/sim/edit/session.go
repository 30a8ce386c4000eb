package edit

import (
	"errors"
	"fmt"
	"io"
	"log"
	"math/rand"
	"strings"
	"time"

	"voxedit.ai/internal/sim/edit/brush"
	"voxedit.ai/internal/sim/edit/buildqueue"
	"voxedit.ai/internal/sim/edit/clipboard"
	"voxedit.ai/internal/sim/edit/geometry"
	"voxedit.ai/internal/sim/edit/history"
	"voxedit.ai/internal/sim/edit/selection"
	"voxedit.ai/internal/sim/voxel"
)

var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrUnknownCommand  = errors.New("unknown command")

	ErrEmptyClipboard   = clipboard.ErrEmpty
	ErrNothingToUndo    = history.ErrNothingToUndo
	ErrNothingToRedo    = history.ErrNothingToRedo
	ErrPermissionDenied = buildqueue.ErrPermissionDenied
)

// Grid is the shared voxel map as seen by one actor. Writes may be refused
// with ErrPermissionDenied.
type Grid interface {
	Cell(p voxel.Point) voxel.Cell
	SetColor(p voxel.Point, c voxel.Color) error
	Clear(p voxel.Point) error
}

// Notifier is told about every write that reached the grid.
type Notifier interface {
	NotifyMutation(m voxel.Mutation)
}

// Reporter delivers asynchronous status lines to the actor, such as pick
// prompts and drain summaries.
type Reporter interface {
	Report(msg string)
}

type ReporterFunc func(msg string)

func (f ReporterFunc) Report(msg string) { f(msg) }

type Options struct {
	Dims        voxel.Dims
	UndoDepth   int
	Batch       int
	PasteOffset voxel.Point
	DenyPolicy  buildqueue.DenyPolicy
	// Seed fixes the session's random source; zero seeds from the clock.
	Seed int64
}

func DefaultOptions() Options {
	return Options{
		Dims:        voxel.DefaultDims(),
		UndoDepth:   history.DefaultDepth,
		Batch:       buildqueue.DefaultBatch,
		PasteOffset: voxel.Point{X: 1, Y: 1, Z: 2},
	}
}

type Config struct {
	ID       string
	Options  Options
	Grid     Grid
	Notifier Notifier
	Reporter Reporter
	Logger   *log.Logger
}

// Session is one actor's editing state. It is owned by a single goroutine
// and is not safe for concurrent use.
type Session struct {
	id     string
	opts   Options
	grid   Grid
	notify Notifier
	report Reporter
	logger *log.Logger

	sel   selection.Selection
	hist  *history.History
	queue *buildqueue.Queue
	clip  clipboard.Clipboard
	brush brush.Config
	modes buildModes
	rng   *rand.Rand

	pos  voxel.Point
	look [3]float64
	held voxel.Color
}

func New(cfg Config) *Session {
	opts := cfg.Options
	if opts.Dims == (voxel.Dims{}) {
		opts.Dims = voxel.DefaultDims()
	}
	if opts.UndoDepth <= 0 {
		opts.UndoDepth = history.DefaultDepth
	}
	if opts.Batch <= 0 {
		opts.Batch = buildqueue.DefaultBatch
	}
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Session{
		id:     cfg.ID,
		opts:   opts,
		grid:   cfg.Grid,
		notify: cfg.Notifier,
		report: cfg.Reporter,
		logger: logger,
		hist:   history.New(opts.UndoDepth),
		queue:  buildqueue.New(opts.DenyPolicy),
		brush:  brush.New(),
		rng:    rand.New(rand.NewSource(seed)),
	}
}

func (s *Session) ID() string { return s.id }

func (s *Session) SetPosition(p voxel.Point) { s.pos = p }

func (s *Session) SetLook(v [3]float64) { s.look = v }

func (s *Session) SetHeldColor(c voxel.Color) { s.held = c }

func (s *Session) HeldColor() voxel.Color { return s.held }

func (s *Session) Selection() *selection.Selection { return &s.sel }

func (s *Session) History() *history.History { return s.hist }

func (s *Session) Brush() brush.Config { return s.brush }

func (s *Session) Clipboard() *clipboard.Clipboard { return &s.clip }

// Pending is the number of queued writes not yet applied.
func (s *Session) Pending() int { return s.queue.Len() }

// Busy reports whether the drain tick is armed.
func (s *Session) Busy() bool { return s.queue.Running() }

// Exec runs a named command. The returned text is the immediate status for
// the actor; later messages arrive through the Reporter.
func (s *Session) Exec(name string, args []string) (string, error) {
	name = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(name), "/"))
	if canon, ok := aliases[name]; ok {
		name = canon
	}
	run, ok := commands[name]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownCommand, name)
	}
	return run(s, args)
}

// PrimaryClick handles the actor's primary action. target is the block under
// the cursor, nil when nothing is in range.
func (s *Session) PrimaryClick(target *voxel.Point) {
	if target == nil {
		return
	}
	if s.sel.Picking() {
		s.pickCorner(*target)
		return
	}
	if s.brush.Enabled {
		s.stroke(*target, false)
	}
}

// SecondaryClick sets or redefines the first corner while a pick is in
// progress, and erases with the brush otherwise.
func (s *Session) SecondaryClick(target *voxel.Point) {
	if target == nil {
		return
	}
	if s.sel.Repick(*target) {
		s.say("First corner has been redefined")
		return
	}
	if s.brush.Enabled {
		s.stroke(*target, true)
	}
}

// BlockAction is called when the actor destroys or places a block at p. It
// returns true when the action was taken as a corner pick and must not
// reach the grid.
func (s *Session) BlockAction(p voxel.Point) bool {
	if !s.sel.Picking() {
		return false
	}
	s.pickCorner(p)
	return true
}

// Tick drains up to one batch of queued writes. When the run finishes a
// summary is reported, unless the brush is enabled.
func (s *Session) Tick() (res buildqueue.Result) {
	if !s.queue.Running() {
		return buildqueue.Result{Done: true}
	}
	defer func() {
		if r := recover(); r != nil {
			s.queue.Abandon()
			s.logger.Printf("session %s: drain panic: %v", s.id, r)
			res = buildqueue.Result{Done: true, Aborted: true, Err: fmt.Errorf("drain panic: %v", r)}
		}
	}()
	res = s.queue.Drain(s.opts.Batch, s.apply)
	if res.Err != nil {
		s.logger.Printf("session %s: drain aborted: %v", s.id, res.Err)
	}
	if res.Done && !s.brush.Enabled {
		s.say(fmt.Sprintf("%d block(s) have been changed", res.Changed))
	}
	return res
}

// start arms the drain. A run that queued nothing is summarised at once.
func (s *Session) start() {
	if !s.queue.Start() && !s.brush.Enabled {
		s.say("0 block(s) have been changed")
	}
}

// Close abandons every pending write.
func (s *Session) Close() {
	s.queue.Abandon()
	s.sel.Clear()
}

func (s *Session) apply(m voxel.Mutation) error {
	var err error
	if m.Cell.Filled {
		err = s.grid.SetColor(m.Pos, m.Cell.Color)
	} else {
		err = s.grid.Clear(m.Pos)
	}
	if err != nil {
		return err
	}
	if s.notify != nil {
		s.notify.NotifyMutation(m)
	}
	return nil
}

func (s *Session) pickCorner(p voxel.Point) {
	done, d := s.sel.Pick(p)
	if !done {
		s.say("First corner has been selected")
		return
	}
	s.say("Selection created")
	if d == nil {
		return
	}
	msg, err := s.Exec(d.Name, d.Args)
	if err != nil {
		s.say(StatusText(err))
		return
	}
	s.say(msg)
}

// stroke paints or erases the brush sphere around p. Strokes are dropped
// while a previous run is still draining.
func (s *Session) stroke(p voxel.Point, erase bool) {
	if s.queue.Running() {
		return
	}
	b := s.brush.Box(p)
	s.sel.SetCorners(b.Max, b.Min)
	s.sel.Shape = geometry.Ellipsoid

	var err error
	if erase {
		_, err = s.paint("brush", nil, matchAny, removeAll)
	} else {
		_, err = s.brushPaint()
	}
	if err != nil {
		s.say(StatusText(err))
	}
}

func (s *Session) say(msg string) {
	if msg == "" || s.report == nil {
		return
	}
	s.report.Report(msg)
}

// StatusText renders an Exec error for the actor.
func StatusText(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNothingToUndo):
		return "No actions to undo"
	case errors.Is(err, ErrNothingToRedo):
		return "No actions to redo"
	case errors.Is(err, ErrEmptyClipboard):
		return "Use /copy or /cut to save selection first"
	}
	return err.Error()
}
