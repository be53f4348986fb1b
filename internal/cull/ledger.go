// Package cull removes or relocates non-keeper duplicates and records every
// destructive operation in an append-only, replayable history log.
package cull

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"photocull/internal/fileutil"
)

// HistoryFileName is the ledger file kept inside a collection's source
// directory.
const HistoryFileName = ".history.jsonl"

// Action records what happened to the culled files.
type Action string

const (
	// ActionMoved files can be restored to their original locations.
	ActionMoved Action = "moved"
	// ActionDeleted files are gone; the record is terminal.
	ActionDeleted Action = "deleted"
)

// Record is one history entry: a single cull pass over one duplicate group.
// Records are serialized one JSON object per line so a malformed line can be
// skipped without losing the rest of the log.
type Record struct {
	Timestamp time.Time `json:"timestamp"`
	Retained  string    `json:"retained"`
	Culled    []string  `json:"culled"`
	Action    Action    `json:"action"`
}

// ErrNotReversible is returned when a restore targets a deleted record.
var ErrNotReversible = errors.New("deleted records cannot be restored")

// ErrNoRecord is returned when a restore targets an index outside the log.
var ErrNoRecord = errors.New("no such history record")

// Ledger is the append-only cull history for one collection. Appends and
// rewrites are serialized; the on-disk format is one JSON record per line.
type Ledger struct {
	path   string
	logger *slog.Logger

	mu sync.Mutex
}

// NewLedger opens the ledger stored in dir. The file is created lazily on
// first append.
func NewLedger(dir string, logger *slog.Logger) *Ledger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ledger{path: filepath.Join(dir, HistoryFileName), logger: logger}
}

// Path returns the ledger file location.
func (l *Ledger) Path() string { return l.path }

// Append writes one record to the end of the log.
func (l *Ledger) Append(rec Record) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	line, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode history record: %w", err)
	}

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open history file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("failed to append history record: %w", err)
	}
	return nil
}

// Records returns every parsable record in log order. Malformed lines are
// skipped with a warning, never aborting the read.
func (l *Ledger) Records() ([]Record, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entries, err := l.load()
	if err != nil {
		return nil, err
	}

	var records []Record
	for _, e := range entries {
		if e.rec != nil {
			records = append(records, *e.rec)
		}
	}
	return records, nil
}

// RestoreStats summarizes a restore pass.
type RestoreStats struct {
	Restored int
	Skipped  int
	Removed  int // records removed from the log
}

// Restore reverses the record at index (counting parsable records in log
// order): each culled file is moved back from targetDir to its original
// recorded path. Files whose source is missing, or whose source equals the
// destination, are skipped with a warning. The record is then removed from
// the log; the remaining records keep their relative order. Deleted records
// are rejected.
func (l *Ledger) Restore(targetDir string, index int) (RestoreStats, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entries, err := l.load()
	if err != nil {
		return RestoreStats{}, err
	}

	pos := recordPositions(entries)
	if index < 0 || index >= len(pos) {
		return RestoreStats{}, fmt.Errorf("%w: index %d, valid range 0..%d", ErrNoRecord, index, len(pos)-1)
	}

	target := entries[pos[index]].rec
	if target.Action != ActionMoved {
		return RestoreStats{}, ErrNotReversible
	}

	stats := l.restoreRecord(targetDir, target)
	if err := l.rewrite(entries, map[int]bool{pos[index]: true}); err != nil {
		return stats, err
	}
	stats.Removed = 1
	return stats, nil
}

// RestoreAll reverses every moved record in the log, oldest first, and
// removes them. Deleted records are left in place.
func (l *Ledger) RestoreAll(targetDir string) (RestoreStats, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entries, err := l.load()
	if err != nil {
		return RestoreStats{}, err
	}

	var stats RestoreStats
	drop := make(map[int]bool)
	for i, e := range entries {
		if e.rec == nil || e.rec.Action != ActionMoved {
			continue
		}
		s := l.restoreRecord(targetDir, e.rec)
		stats.Restored += s.Restored
		stats.Skipped += s.Skipped
		drop[i] = true
	}

	if len(drop) == 0 {
		return stats, nil
	}
	if err := l.rewrite(entries, drop); err != nil {
		return stats, err
	}
	stats.Removed = len(drop)
	return stats, nil
}

func (l *Ledger) restoreRecord(targetDir string, rec *Record) RestoreStats {
	var stats RestoreStats
	for _, original := range rec.Culled {
		src := filepath.Join(targetDir, filepath.Base(original))

		if src == original {
			l.logger.Warn("restore source equals destination, skipping", "path", src)
			stats.Skipped++
			continue
		}
		if _, err := os.Stat(src); err != nil {
			l.logger.Warn("restore source missing, skipping", "path", src)
			stats.Skipped++
			continue
		}

		if err := fileutil.Restore(src, original); err != nil {
			l.logger.Warn("restore failed", "path", src, "error", err)
			stats.Skipped++
			continue
		}
		stats.Restored++
	}
	return stats
}

// entry pairs a raw log line with its parsed record (nil when malformed).
type entry struct {
	raw string
	rec *Record
}

func (l *Ledger) load() ([]entry, error) {
	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open history file: %w", err)
	}
	defer f.Close()

	var entries []entry
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if line == "" {
			continue
		}

		var rec Record
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			l.logger.Warn("skipping malformed history line", "line", lineNo, "error", err)
			entries = append(entries, entry{raw: line})
			continue
		}
		entries = append(entries, entry{raw: line, rec: &rec})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read history file: %w", err)
	}
	return entries, nil
}

// recordPositions maps parsable-record indexes to entry positions.
func recordPositions(entries []entry) []int {
	var pos []int
	for i, e := range entries {
		if e.rec != nil {
			pos = append(pos, i)
		}
	}
	return pos
}

// rewrite writes the log back without the dropped entries, preserving the
// order (and raw text) of everything else.
func (l *Ledger) rewrite(entries []entry, drop map[int]bool) error {
	var buf []byte
	for i, e := range entries {
		if drop[i] {
			continue
		}
		buf = append(buf, e.raw...)
		buf = append(buf, '\n')
	}

	if len(buf) == 0 {
		if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove empty history file: %w", err)
		}
		return nil
	}
	if err := os.WriteFile(l.path, buf, 0644); err != nil {
		return fmt.Errorf("failed to rewrite history file: %w", err)
	}
	return nil
}
