package engine

import (
	"context"
	"encoding/hex"
	"io"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"voxedit.ai/internal/protocol"
	"voxedit.ai/internal/sim/edit"
	"voxedit.ai/internal/sim/voxmap"
)

const DefaultDrainPeriod = 10 * time.Millisecond

type Config struct {
	// DrainPeriod is the interval between ticks. Every running queue drains
	// one batch per tick.
	DrainPeriod time.Duration
	Edit        edit.Options
}

// Engine owns the shared grid and every actor's edit session.
// All state must be accessed only from the loop goroutine.
type Engine struct {
	cfg    Config
	store  *voxmap.Store
	logger *log.Logger

	tick         atomic.Uint64
	nextActorNum atomic.Uint64
	metrics      atomic.Value

	appliedTotal uint64
	deniedTotal  uint64

	actors map[string]*actor
	batch  *tickBatch

	inbox    chan Input
	join     chan JoinRequest
	leave    chan string
	stop     chan struct{}
	stopOnce sync.Once

	// Optional loggers (may be nil). Implemented in internal/persistence/*.
	tickLogger  TickLogger
	auditLogger AuditLogger
}

func New(cfg Config, store *voxmap.Store, logger *log.Logger) *Engine {
	if cfg.DrainPeriod <= 0 {
		cfg.DrainPeriod = DefaultDrainPeriod
	}
	cfg.Edit.Dims = store.Dims()
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Engine{
		cfg:    cfg,
		store:  store,
		logger: logger,
		actors: map[string]*actor{},
		batch:  &tickBatch{},
		inbox:  make(chan Input, 1024),
		join:   make(chan JoinRequest, 64),
		leave:  make(chan string, 64),
		stop:   make(chan struct{}),
	}
}

func (e *Engine) SetTickLogger(l TickLogger)   { e.tickLogger = l }
func (e *Engine) SetAuditLogger(l AuditLogger) { e.auditLogger = l }

func (e *Engine) Inbox() chan<- Input      { return e.inbox }
func (e *Engine) Join() chan<- JoinRequest { return e.join }
func (e *Engine) Leave() chan<- string     { return e.leave }

func (e *Engine) CurrentTick() uint64 { return e.tick.Load() }

func (e *Engine) DrainPeriod() time.Duration { return e.cfg.DrainPeriod }

func (e *Engine) Run(ctx context.Context) error {
	ticker := time.NewTicker(e.cfg.DrainPeriod)
	defer ticker.Stop()

	var pendingInputs []Input
	var pendingJoins []JoinRequest
	var pendingLeaves []string

	for {
		select {
		case <-ctx.Done():
			e.shutdown()
			return ctx.Err()
		case <-e.stop:
			e.shutdown()
			return nil
		case req := <-e.join:
			pendingJoins = append(pendingJoins, req)
		case id := <-e.leave:
			pendingLeaves = append(pendingLeaves, id)
		case in := <-e.inbox:
			pendingInputs = append(pendingInputs, in)
		case <-ticker.C:
			e.step(pendingJoins, pendingLeaves, pendingInputs)
			pendingJoins = pendingJoins[:0]
			pendingLeaves = pendingLeaves[:0]
			pendingInputs = pendingInputs[:0]
		}
	}
}

func (e *Engine) Stop() { e.stopOnce.Do(func() { close(e.stop) }) }

// StepOnce advances the engine by a single tick using the same ordering
// semantics as Run. It is intended for deterministic tests.
func (e *Engine) StepOnce(joins []JoinRequest, leaves []string, inputs []Input) (tick uint64, digest string) {
	tick = e.tick.Load()
	e.step(joins, leaves, inputs)
	return tick, e.Digest()
}

// Digest is the hex sha256 of the grid contents. Loop goroutine only.
func (e *Engine) Digest() string {
	d := e.store.Digest()
	return hex.EncodeToString(d[:])
}

// shutdown abandons every pending write so nothing is applied after the
// loop exits.
func (e *Engine) shutdown() {
	for _, a := range e.actors {
		a.sess.Close()
	}
}

func sendLatest(ch chan []byte, b []byte) {
	if ch == nil {
		return
	}
	select {
	case ch <- b:
		return
	default:
	}
	// Drop one.
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- b:
	default:
	}
}

func welcomeFor(e *Engine, id string) protocol.WelcomeMsg {
	d := e.store.Dims()
	return protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		ActorID:         id,
		Grid:            protocol.GridParams{W: d.W, D: d.D, H: d.H},
		DrainPeriodMs:   int(e.cfg.DrainPeriod / time.Millisecond),
		Commands:        edit.Commands(),
	}
}
