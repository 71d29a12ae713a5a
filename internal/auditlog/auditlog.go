// Package auditlog records every compile and tick-batch through a
// zstd-compressed JSONL trail, the same rotate-hourly shape as the
// teacher's internal/persistence/log writers, plus a secondary SQLite
// index for querying compile sessions without decompressing the JSONL.
package auditlog

import (
	"bufio"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
	_ "modernc.org/sqlite"
)

// CompileEntry is one compile() call, successful or not.
type CompileEntry struct {
	SessionID string    `json:"session_id"`
	At        time.Time `json:"at"`
	RegionMin [3]int32  `json:"region_min"`
	RegionMax [3]int32  `json:"region_max"`
	NodeCount int       `json:"node_count"`
	LinkCount int       `json:"link_count"`
	Optimize  bool      `json:"optimize"`
	ElapsedMS float64   `json:"elapsed_ms"`
	Error     string    `json:"error,omitempty"`
}

// TickBatchEntry summarizes a range of ticks in one JSONL record rather
// than one record per tick. It is written by RecordTickBatch; the driver
// records compiles only, not tick batches.
type TickBatchEntry struct {
	SessionID string    `json:"session_id"`
	At        time.Time `json:"at"`
	FromTick  uint64    `json:"from_tick"`
	ToTick    uint64    `json:"to_tick"`
	Overflows int       `json:"overflows"`
}

// jsonlZstdWriter streams one JSON value per line through a zstd encoder,
// rotating to a new file every UTC hour.
type jsonlZstdWriter struct {
	baseDir string
	prefix  string

	mu      sync.Mutex
	curHour string
	f       *os.File
	enc     *zstd.Encoder
	w       *bufio.Writer
}

func newJSONLZstdWriter(baseDir, prefix string) *jsonlZstdWriter {
	return &jsonlZstdWriter{baseDir: baseDir, prefix: prefix}
}

func (w *jsonlZstdWriter) write(v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	hour := time.Now().UTC().Format("2006-01-02-15")
	if hour != w.curHour {
		if err := w.rotateLocked(hour); err != nil {
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

func (w *jsonlZstdWriter) rotateLocked(hour string) error {
	if err := w.closeLocked(); err != nil {
		return err
	}
	path := w.pathForHour(hour)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
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
	w.w = bufio.NewWriterSize(enc, 64*1024)
	w.curHour = hour
	return nil
}

func (w *jsonlZstdWriter) closeLocked() error {
	var err error
	if w.w != nil {
		_ = w.w.Flush()
	}
	if w.enc != nil {
		err = w.enc.Close()
		w.enc = nil
	}
	if w.f != nil {
		_ = w.f.Close()
		w.f = nil
	}
	w.w = nil
	return err
}

func (w *jsonlZstdWriter) close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closeLocked()
}

func (w *jsonlZstdWriter) pathForHour(hour string) string {
	return filepath.Join(w.baseDir, fmt.Sprintf("%s-%s.jsonl.zst", w.prefix, hour))
}

// Log is the audit trail for one running driver: a JSONL/zstd writer plus
// a SQLite index of compile sessions, both best-effort — a write that
// fails or falls behind never blocks or fails the compile/tick it logs.
type Log struct {
	jsonl *jsonlZstdWriter

	db     *sql.DB
	ch     chan CompileEntry
	wg     sync.WaitGroup
	closed atomic.Bool
}

// Open creates (or appends to) an audit trail rooted at dir.
func Open(dir string) (*Log, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("auditlog: %w", err)
	}

	dbPath := filepath.Join(dir, "index.sqlite")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("auditlog: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("auditlog: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS compiles (
		session_id TEXT PRIMARY KEY,
		at TEXT NOT NULL,
		node_count INTEGER NOT NULL,
		link_count INTEGER NOT NULL,
		optimize INTEGER NOT NULL,
		elapsed_ms REAL NOT NULL,
		error TEXT
	);`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("auditlog: %w", err)
	}

	l := &Log{
		jsonl: newJSONLZstdWriter(dir, "audit"),
		db:    db,
		ch:    make(chan CompileEntry, 4096),
	}
	l.wg.Add(1)
	go l.loop()
	return l, nil
}

func (l *Log) loop() {
	defer l.wg.Done()
	for e := range l.ch {
		_, _ = l.db.Exec(
			`INSERT OR REPLACE INTO compiles (session_id, at, node_count, link_count, optimize, elapsed_ms, error)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			e.SessionID, e.At.Format(time.RFC3339Nano), e.NodeCount, e.LinkCount, e.Optimize, e.ElapsedMS, e.Error,
		)
	}
}

// NewSessionID mints a compile-session id correlating a JSONL compile
// record with the SQLite index row and any inspect-stream events tagged
// with the same run.
func NewSessionID() string { return uuid.NewString() }

// RecordCompile appends a compile entry to the JSONL trail and, best
// effort and non-blocking, enqueues it for SQLite indexing.
func (l *Log) RecordCompile(e CompileEntry) {
	if l == nil || l.closed.Load() {
		return
	}
	_ = l.jsonl.write(e)
	select {
	case l.ch <- e:
	default:
		// Indexer fell behind; the JSONL trail remains authoritative.
	}
}

// RecordTickBatch appends a tick-batch entry to the JSONL trail only; it
// is too high-volume to warrant a SQLite row per batch.
func (l *Log) RecordTickBatch(e TickBatchEntry) {
	if l == nil || l.closed.Load() {
		return
	}
	_ = l.jsonl.write(e)
}

// Close flushes and closes both the JSONL writer and the SQLite index.
func (l *Log) Close() error {
	if l == nil {
		return nil
	}
	var first error
	l.closed.Store(true)
	close(l.ch)
	l.wg.Wait()
	if err := l.jsonl.close(); err != nil {
		first = err
	}
	if err := l.db.Close(); err != nil && first == nil {
		first = err
	}
	return first
}
