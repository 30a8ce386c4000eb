package indexdb

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"voxedit.ai/internal/sim/engine"
	"voxedit.ai/internal/sim/tuning"
)

// HTTPConfig configures an index that ships log entries in JSON batches to
// a remote ingest endpoint.
type HTTPConfig struct {
	Endpoint      string
	Token         string
	Source        string
	BatchSize     int
	FlushInterval time.Duration
	HTTPTimeout   time.Duration
	// MaxRetained bounds the events kept for retry after failed flushes.
	MaxRetained int
	Logger      *log.Logger
}

type HTTPIndex struct {
	cfg        HTTPConfig
	httpClient *http.Client

	ch   chan httpEvent
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool

	auditMu       sync.Mutex
	lastAuditTick uint64
	auditSeq      int

	flushOK      atomic.Uint64
	flushFail    atomic.Uint64
	queueDropped atomic.Uint64
	retryDropped atomic.Uint64
}

type HTTPStats struct {
	FlushOKTotal      uint64
	FlushFailTotal    uint64
	QueueDroppedTotal uint64
	RetryDroppedTotal uint64
	QueueDepth        int
}

type httpEvent struct {
	Kind    string `json:"kind"`
	Source  string `json:"source"`
	Payload any    `json:"payload"`
}

type httpAuditPayload struct {
	Seq int `json:"seq"`
	engine.AuditEntry
}

type httpConfigPayload struct {
	Name      string          `json:"name"`
	Digest    string          `json:"digest"`
	JSON      json.RawMessage `json:"json"`
	UpdatedAt string          `json:"updated_at"`
}

func OpenHTTP(cfg HTTPConfig) (*HTTPIndex, error) {
	cfg.Endpoint = strings.TrimSpace(cfg.Endpoint)
	cfg.Source = strings.TrimSpace(cfg.Source)
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("empty index ingest endpoint")
	}
	if cfg.Source == "" {
		return nil, fmt.Errorf("empty index source")
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 128
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = 500 * time.Millisecond
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = 10 * time.Second
	}
	if cfg.MaxRetained <= 0 {
		cfg.MaxRetained = 16 * cfg.BatchSize
	}

	d := &HTTPIndex{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.HTTPTimeout},
		ch:         make(chan httpEvent, 32768),
	}
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.loop()
	}()
	return d, nil
}

func (d *HTTPIndex) Close() error {
	if d == nil {
		return nil
	}
	d.once.Do(func() {
		d.closed.Store(true)
		close(d.ch)
		d.wg.Wait()
	})
	return nil
}

func (d *HTTPIndex) Stats() HTTPStats {
	return HTTPStats{
		FlushOKTotal:      d.flushOK.Load(),
		FlushFailTotal:    d.flushFail.Load(),
		QueueDroppedTotal: d.queueDropped.Load(),
		RetryDroppedTotal: d.retryDropped.Load(),
		QueueDepth:        len(d.ch),
	}
}

func (d *HTTPIndex) WriteTick(entry engine.TickLogEntry) error {
	if d == nil || d.closed.Load() {
		return nil
	}
	d.enqueue(httpEvent{Kind: "tick", Source: d.cfg.Source, Payload: entry})
	return nil
}

func (d *HTTPIndex) WriteAudit(entry engine.AuditEntry) error {
	if d == nil || d.closed.Load() {
		return nil
	}
	p := httpAuditPayload{Seq: d.nextAuditSeq(entry.Tick), AuditEntry: entry}
	d.enqueue(httpEvent{Kind: "audit", Source: d.cfg.Source, Payload: p})
	return nil
}

func (d *HTTPIndex) UpsertTuning(tune tuning.Tuning) error {
	if d == nil || d.closed.Load() {
		return nil
	}
	b, err := json.Marshal(tune)
	if err != nil {
		return err
	}
	sum := sha256.Sum256(b)
	d.enqueue(httpEvent{Kind: "config", Source: d.cfg.Source, Payload: httpConfigPayload{
		Name:      "tuning",
		Digest:    hex.EncodeToString(sum[:]),
		JSON:      b,
		UpdatedAt: time.Now().UTC().Format(time.RFC3339Nano),
	}})
	return nil
}

func (d *HTTPIndex) nextAuditSeq(tick uint64) int {
	d.auditMu.Lock()
	defer d.auditMu.Unlock()
	if tick != d.lastAuditTick {
		d.lastAuditTick = tick
		d.auditSeq = 0
	}
	d.auditSeq++
	return d.auditSeq
}

func (d *HTTPIndex) enqueue(ev httpEvent) {
	select {
	case d.ch <- ev:
	default:
		d.queueDropped.Add(1)
		d.printf("index queue full; drop kind=%s source=%s", ev.Kind, ev.Source)
	}
}

func (d *HTTPIndex) loop() {
	ticker := time.NewTicker(d.cfg.FlushInterval)
	defer ticker.Stop()

	batch := make([]httpEvent, 0, d.cfg.BatchSize)
	flush := func() {
		if len(batch) == 0 {
			return
		}
		if err := d.sendBatch(batch); err != nil {
			d.flushFail.Add(1)
			d.printf("index flush failed batch=%d err=%v", len(batch), err)
			// Keep the batch for the next flush, bounded.
			if over := len(batch) - d.cfg.MaxRetained; over > 0 {
				d.retryDropped.Add(uint64(over))
				batch = append(batch[:0], batch[over:]...)
			}
			return
		}
		d.flushOK.Add(1)
		batch = batch[:0]
	}

	for {
		select {
		case ev, ok := <-d.ch:
			if !ok {
				flush()
				return
			}
			batch = append(batch, ev)
			if len(batch) >= d.cfg.BatchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		}
	}
}

func (d *HTTPIndex) sendBatch(events []httpEvent) error {
	body := struct {
		Events []httpEvent `json:"events"`
	}{Events: events}
	buf, err := json.Marshal(body)
	if err != nil {
		return err
	}

	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		req, err := http.NewRequest(http.MethodPost, d.cfg.Endpoint, bytes.NewReader(buf))
		if err != nil {
			return err
		}
		req.Header.Set("content-type", "application/json")
		if d.cfg.Token != "" {
			req.Header.Set("x-index-token", d.cfg.Token)
		}

		resp, err := d.httpClient.Do(req)
		if err == nil {
			respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 16*1024))
			_ = resp.Body.Close()
			if resp.StatusCode >= 200 && resp.StatusCode < 300 {
				return nil
			}
			err = fmt.Errorf("status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(respBody)))
		}
		lastErr = err
		time.Sleep(time.Duration(100*(1<<attempt)) * time.Millisecond)
	}
	return lastErr
}

func (d *HTTPIndex) printf(format string, args ...any) {
	if d != nil && d.cfg.Logger != nil {
		d.cfg.Logger.Printf(format, args...)
	}
}
