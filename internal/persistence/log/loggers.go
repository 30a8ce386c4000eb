package log

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"

	"voxedit.ai/internal/sim/engine"
)

// Log files are named <prefix>-YYYY-MM-DD-HH.jsonl.zst, one per UTC hour.
// The stamp sorts lexically in time order and is the only thing readers
// rely on; a file may hold several zstd frames when a writer reopens it.
const (
	hourLayout = "2006-01-02-15"
	fileSuffix = ".jsonl.zst"
)

// FileName returns the name of the prefix file covering t.
func FileName(prefix string, t time.Time) string {
	return prefix + "-" + t.UTC().Format(hourLayout) + fileSuffix
}

// HourOf parses the hour stamp out of a log file name. It reports false
// for names that do not carry prefix and a valid stamp.
func HourOf(name, prefix string) (time.Time, bool) {
	name = filepath.Base(name)
	if !strings.HasPrefix(name, prefix+"-") || !strings.HasSuffix(name, fileSuffix) {
		return time.Time{}, false
	}
	stamp := strings.TrimSuffix(strings.TrimPrefix(name, prefix+"-"), fileSuffix)
	t, err := time.ParseInLocation(hourLayout, stamp, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// JSONLZstdWriter appends JSON lines to hourly zstd files.
type JSONLZstdWriter struct {
	baseDir string
	prefix  string
	now     func() time.Time

	mu      sync.Mutex
	curName string
	f       *os.File
	enc     *zstd.Encoder
	w       *bufio.Writer
}

func NewJSONLZstdWriter(baseDir, prefix string) *JSONLZstdWriter {
	return &JSONLZstdWriter{
		baseDir: baseDir,
		prefix:  prefix,
		now:     time.Now,
	}
}

func (w *JSONLZstdWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closeLocked()
}

func (w *JSONLZstdWriter) Write(v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	name := FileName(w.prefix, w.now())
	if name != w.curName {
		if err := w.rotateLocked(name); err != nil {
			return err
		}
	}

	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := w.w.Write(b); err != nil {
		return err
	}
	if err := w.w.WriteByte('\n'); err != nil {
		return err
	}
	return w.w.Flush()
}

func (w *JSONLZstdWriter) rotateLocked(name string) error {
	if err := w.closeLocked(); err != nil {
		return err
	}
	if err := os.MkdirAll(w.baseDir, 0o755); err != nil {
		return err
	}
	// Each open appends a new zstd frame; readers decode concatenated frames.
	f, err := os.OpenFile(filepath.Join(w.baseDir, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return err
	}
	w.f = f
	w.enc = enc
	w.w = bufio.NewWriterSize(enc, 128*1024)
	w.curName = name
	return nil
}

func (w *JSONLZstdWriter) closeLocked() error {
	var err1 error
	if w.w != nil {
		_ = w.w.Flush()
	}
	if w.enc != nil {
		err1 = w.enc.Close()
		w.enc = nil
	}
	if w.f != nil {
		_ = w.f.Close()
		w.f = nil
	}
	w.w = nil
	w.curName = ""
	return err1
}


// Kinds of log kept under the data directory. Each lives in a directory
// of the same name and uses it as the file prefix.
const (
	KindEvents = "events"
	KindAudit  = "audit"
)

func newKindWriter(dataDir, kind string) *JSONLZstdWriter {
	return NewJSONLZstdWriter(filepath.Join(dataDir, kind), kind)
}

// TickLogger records non-empty engine ticks for replay.
type TickLogger struct{ w *JSONLZstdWriter }

func NewTickLogger(dataDir string) *TickLogger {
	return &TickLogger{w: newKindWriter(dataDir, KindEvents)}
}

func (l *TickLogger) WriteTick(v engine.TickLogEntry) error { return l.w.Write(v) }
func (l *TickLogger) Close() error                          { return l.w.Close() }

// AuditLogger records every voxel write and refusal, one line each.
type AuditLogger struct{ w *JSONLZstdWriter }

func NewAuditLogger(dataDir string) *AuditLogger {
	return &AuditLogger{w: newKindWriter(dataDir, KindAudit)}
}

func (l *AuditLogger) WriteAudit(v engine.AuditEntry) error { return l.w.Write(v) }
func (l *AuditLogger) Close() error                         { return l.w.Close() }
