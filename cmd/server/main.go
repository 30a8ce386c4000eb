package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"voxedit.ai/internal/persistence/indexdb"
	persistlog "voxedit.ai/internal/persistence/log"
	"voxedit.ai/internal/sim/engine"
	"voxedit.ai/internal/sim/tuning"
	"voxedit.ai/internal/sim/voxel"
	"voxedit.ai/internal/sim/voxmap"
	"voxedit.ai/internal/transport/ws"
)

func main() {
	var (
		addr       = flag.String("addr", ":8080", "http listen address")
		source     = flag.String("source", "grid_1", "source id reported to the index backend")
		configDir  = flag.String("configs", "./configs", "config directory")
		dataDir    = flag.String("data", "./data", "runtime data directory")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		disableDB  = flag.Bool("disable_db", false, "disable indexing (tick/audit + tuning)")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	_ = os.MkdirAll(*dataDir, 0o755)

	tp := strings.TrimSpace(*tuningPath)
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}
	tune, err := tuning.Load(tp)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Fatalf("load tuning: %v", err)
		}
		logger.Printf("tuning not found (%s); using defaults", tp)
		tune = tuning.Defaults()
	}

	// Optional: read-model index backend (does not affect edit determinism).
	idx, err := openRuntimeIndex(*dataDir, *source, *disableDB, logger)
	if err != nil {
		logger.Fatalf("open index backend: %v", err)
	}
	if idx != nil {
		defer idx.Close()
		if err := idx.UpsertTuning(tune); err != nil {
			logger.Printf("index backend: upsert tuning: %v", err)
		}
	}

	store := voxmap.New(tune.Grid)
	store.SetZones(tune.Zones)

	e := engine.New(engine.Config{
		DrainPeriod: tune.DrainPeriod(),
		Edit:        tune.EditOptions(),
	}, store, log.New(os.Stdout, "[engine] ", log.LstdFlags|log.Lmicroseconds))

	tickLog := persistlog.NewTickLogger(*dataDir)
	auditLog := persistlog.NewAuditLogger(*dataDir)
	defer tickLog.Close()
	defer auditLog.Close()
	if idx != nil {
		e.SetTickLogger(multiTickLogger{a: tickLog, b: idx})
		e.SetAuditLogger(multiAuditLogger{a: auditLog, b: idx})
	} else {
		e.SetTickLogger(tickLog)
		e.SetAuditLogger(auditLog)
	}

	ctx, cancel := signalContext()
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := e.Run(ctx); err != nil && err != context.Canceled {
			logger.Printf("engine stopped: %v", err)
		}
	}()

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/metrics", func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "text/plain; version=0.0.4")
		writeMetrics(rw, e, idx)
	})

	enableAdminHTTP := envBool("VE_ENABLE_ADMIN_HTTP", defaultEnableAdminHTTP())
	enablePprofHTTP := envBool("VE_ENABLE_PPROF_HTTP", false)
	if enableAdminHTTP {
		// Local-only admin endpoints.
		mux.HandleFunc("/admin/v1/state", func(rw http.ResponseWriter, r *http.Request) {
			if !isLoopbackRemote(r.RemoteAddr) {
				http.Error(rw, "forbidden", http.StatusForbidden)
				return
			}
			rw.Header().Set("Content-Type", "application/json")
			resp := struct {
				Source  string         `json:"source"`
				Tick    uint64         `json:"tick"`
				Grid    voxel.Dims     `json:"grid"`
				Zones   []voxmap.Zone  `json:"zones"`
				Metrics engine.Metrics `json:"metrics"`
			}{
				Source:  *source,
				Tick:    e.CurrentTick(),
				Grid:    tune.Grid,
				Zones:   tune.Zones,
				Metrics: e.Metrics(),
			}
			_ = json.NewEncoder(rw).Encode(resp)
		})
	} else {
		logger.Printf("admin endpoints disabled (VE_ENABLE_ADMIN_HTTP=false)")
	}
	if enablePprofHTTP {
		mux.HandleFunc("/debug/pprof/", pprof.Index)
		mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	} else {
		logger.Printf("pprof endpoints disabled (VE_ENABLE_PPROF_HTTP=false)")
	}
	mux.HandleFunc("/v1/ws", ws.NewServer(e, log.New(os.Stdout, "[ws] ", log.LstdFlags|log.Lmicroseconds)).Handler())

	srv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	logger.Printf("listening on %s grid=%dx%dx%d drain=%s batch=%d", *addr, tune.Grid.W, tune.Grid.D, tune.Grid.H, tune.DrainPeriod(), tune.DrainBatch)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("ListenAndServe: %v", err)
	}
	cancel()
	<-done
}

func writeMetrics(w io.Writer, e *engine.Engine, idx runtimeIndex) {
	m := e.Metrics()
	tick := e.CurrentTick()
	if m.Tick != 0 {
		tick = m.Tick
	}

	// Minimal Prometheus exposition format.
	fmt.Fprintf(w, "# HELP voxedit_tick Current engine tick.\n")
	fmt.Fprintf(w, "# TYPE voxedit_tick gauge\n")
	fmt.Fprintf(w, "voxedit_tick %d\n", tick)

	fmt.Fprintf(w, "# HELP voxedit_actors Current number of joined actors.\n")
	fmt.Fprintf(w, "# TYPE voxedit_actors gauge\n")
	fmt.Fprintf(w, "voxedit_actors %d\n", m.Actors)

	fmt.Fprintf(w, "# HELP voxedit_busy_sessions Sessions with a running build queue.\n")
	fmt.Fprintf(w, "# TYPE voxedit_busy_sessions gauge\n")
	fmt.Fprintf(w, "voxedit_busy_sessions %d\n", m.BusySessions)

	fmt.Fprintf(w, "# HELP voxedit_pending_writes Queued voxel writes not yet applied.\n")
	fmt.Fprintf(w, "# TYPE voxedit_pending_writes gauge\n")
	fmt.Fprintf(w, "voxedit_pending_writes %d\n", m.PendingWrites)

	fmt.Fprintf(w, "# HELP voxedit_filled_cells Filled cells in the grid.\n")
	fmt.Fprintf(w, "# TYPE voxedit_filled_cells gauge\n")
	fmt.Fprintf(w, "voxedit_filled_cells %d\n", m.FilledCells)

	fmt.Fprintf(w, "# HELP voxedit_writes_total Drained writes by outcome.\n")
	fmt.Fprintf(w, "# TYPE voxedit_writes_total counter\n")
	fmt.Fprintf(w, "voxedit_writes_total{outcome=%q} %d\n", "applied", m.AppliedTotal)
	fmt.Fprintf(w, "voxedit_writes_total{outcome=%q} %d\n", "denied", m.DeniedTotal)

	fmt.Fprintf(w, "# HELP voxedit_queue_depth Channel backlog depth.\n")
	fmt.Fprintf(w, "# TYPE voxedit_queue_depth gauge\n")
	fmt.Fprintf(w, "voxedit_queue_depth{queue=%q} %d\n", "inbox", m.QueueDepths.Inbox)
	fmt.Fprintf(w, "voxedit_queue_depth{queue=%q} %d\n", "join", m.QueueDepths.Join)
	fmt.Fprintf(w, "voxedit_queue_depth{queue=%q} %d\n", "leave", m.QueueDepths.Leave)

	fmt.Fprintf(w, "# HELP voxedit_step_ms Last tick step duration in milliseconds.\n")
	fmt.Fprintf(w, "# TYPE voxedit_step_ms gauge\n")
	fmt.Fprintf(w, "voxedit_step_ms %.3f\n", m.StepMS)

	writeIndexMetrics(w, idx)
}

func writeIndexMetrics(w io.Writer, idx runtimeIndex) {
	switch x := idx.(type) {
	case *indexdb.SQLiteIndex:
		s := x.Stats()
		fmt.Fprintf(w, "# HELP voxedit_index_queue_depth Index writer queue depth.\n")
		fmt.Fprintf(w, "# TYPE voxedit_index_queue_depth gauge\n")
		fmt.Fprintf(w, "voxedit_index_queue_depth{backend=%q} %d\n", "sqlite", s.QueueDepth)

		fmt.Fprintf(w, "# HELP voxedit_index_dropped_total Entries dropped because the index queue was full.\n")
		fmt.Fprintf(w, "# TYPE voxedit_index_dropped_total counter\n")
		fmt.Fprintf(w, "voxedit_index_dropped_total{backend=%q,kind=%q} %d\n", "sqlite", "tick", s.DropTickTotal)
		fmt.Fprintf(w, "voxedit_index_dropped_total{backend=%q,kind=%q} %d\n", "sqlite", "audit", s.DropAuditTotal)
	case *indexdb.HTTPIndex:
		s := x.Stats()
		fmt.Fprintf(w, "# HELP voxedit_index_queue_depth Index writer queue depth.\n")
		fmt.Fprintf(w, "# TYPE voxedit_index_queue_depth gauge\n")
		fmt.Fprintf(w, "voxedit_index_queue_depth{backend=%q} %d\n", "http", s.QueueDepth)

		fmt.Fprintf(w, "# HELP voxedit_index_flush_total Batch flushes by result.\n")
		fmt.Fprintf(w, "# TYPE voxedit_index_flush_total counter\n")
		fmt.Fprintf(w, "voxedit_index_flush_total{result=%q} %d\n", "ok", s.FlushOKTotal)
		fmt.Fprintf(w, "voxedit_index_flush_total{result=%q} %d\n", "fail", s.FlushFailTotal)

		fmt.Fprintf(w, "# HELP voxedit_index_dropped_total Events dropped before delivery.\n")
		fmt.Fprintf(w, "# TYPE voxedit_index_dropped_total counter\n")
		fmt.Fprintf(w, "voxedit_index_dropped_total{backend=%q,kind=%q} %d\n", "http", "queue", s.QueueDroppedTotal)
		fmt.Fprintf(w, "voxedit_index_dropped_total{backend=%q,kind=%q} %d\n", "http", "retry", s.RetryDroppedTotal)
	}
}

type multiTickLogger struct {
	a engine.TickLogger
	b engine.TickLogger
}

func (m multiTickLogger) WriteTick(entry engine.TickLogEntry) error {
	if m.a != nil {
		_ = m.a.WriteTick(entry)
	}
	if m.b != nil {
		_ = m.b.WriteTick(entry)
	}
	return nil
}

type multiAuditLogger struct {
	a engine.AuditLogger
	b engine.AuditLogger
}

func (m multiAuditLogger) WriteAudit(entry engine.AuditEntry) error {
	if m.a != nil {
		_ = m.a.WriteAudit(entry)
	}
	if m.b != nil {
		_ = m.b.WriteAudit(entry)
	}
	return nil
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}

func isLoopbackRemote(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

func defaultEnableAdminHTTP() bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("DEPLOY_ENV"))) {
	case "staging", "production":
		return false
	default:
		return true
	}
}

func envBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func envInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
