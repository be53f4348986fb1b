// Package scan owns the end-to-end catalog scan: directory discovery, a fast
// first indexing pass, and the ordered enrichment phases that fill in
// metadata, thumbnails, and hashes.
package scan

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"photocull/internal/catalog"
	"photocull/internal/exifdata"
	"photocull/internal/fileutil"
	"photocull/internal/imaging"
)

// MetadataExtractor reads descriptive metadata for a file. Failures are
// non-fatal to a scan.
type MetadataExtractor interface {
	Extract(path string) (*catalog.ExifData, error)
}

// ExtractorFunc adapts a function to the MetadataExtractor interface.
type ExtractorFunc func(path string) (*catalog.ExifData, error)

func (f ExtractorFunc) Extract(path string) (*catalog.ExifData, error) { return f(path) }

// ThumbnailRenderer produces preview thumbnails. Failures are non-fatal to a
// scan; the asset simply proceeds without a thumbnail.
type ThumbnailRenderer interface {
	Path(assetID string) string
	Render(sourcePath, thumbPath string) error
}

// Scanner discovers image files under root paths and enriches them through
// strictly ordered phases. Phases never overlap in time; items within a
// phase run concurrently up to the worker pool's width.
type Scanner struct {
	workers   int
	batchSize int
	fileTypes map[string]bool
	excludes  []string
	sink      ProgressSink
	token     *CancelToken
	logger    *slog.Logger
	extractor MetadataExtractor
	renderer  ThumbnailRenderer
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithWorkers sets the width of the fork-join worker pool.
func WithWorkers(n int) Option {
	return func(s *Scanner) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithBatchSize sets how many entries each enrichment batch holds. Batches
// bound memory and form the cancellation checkpoints between them.
func WithBatchSize(n int) Option {
	return func(s *Scanner) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

// WithFileTypes replaces the extension allow-list (extensions without the
// leading dot).
func WithFileTypes(exts []string) Option {
	return func(s *Scanner) {
		if len(exts) == 0 {
			return
		}
		s.fileTypes = make(map[string]bool, len(exts))
		for _, ext := range exts {
			s.fileTypes[strings.ToLower(strings.TrimPrefix(ext, "."))] = true
		}
	}
}

// WithExcludePatterns sets glob-style patterns; a file or directory whose
// name or full path matches any pattern is skipped during discovery.
func WithExcludePatterns(patterns []string) Option {
	return func(s *Scanner) {
		s.excludes = patterns
	}
}

// WithProgressSink sets the sink progress snapshots are pushed to.
func WithProgressSink(sink ProgressSink) Option {
	return func(s *Scanner) {
		if sink != nil {
			s.sink = sink
		}
	}
}

// WithLogger sets the logger for per-item failure reporting.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scanner) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetadataExtractor replaces the EXIF extractor.
func WithMetadataExtractor(e MetadataExtractor) Option {
	return func(s *Scanner) {
		if e != nil {
			s.extractor = e
		}
	}
}

// WithThumbnailRenderer enables the thumbnail phase using the given
// renderer. Without one the phase completes immediately.
func WithThumbnailRenderer(r ThumbnailRenderer) Option {
	return func(s *Scanner) {
		s.renderer = r
	}
}

// NewScanner creates a Scanner.
func NewScanner(opts ...Option) *Scanner {
	s := &Scanner{
		workers:   8,
		batchSize: 100,
		sink:      NopSink{},
		token:     NewCancelToken(),
		logger:    slog.Default(),
		extractor: ExtractorFunc(exifdata.Extract),
	}
	WithFileTypes(imaging.SupportedExtensions())(s)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Token returns the scan's cancellation token. Obtain it before starting a
// scan; setting it at any time stops new work from starting.
func (s *Scanner) Token() *CancelToken {
	return s.token
}

// Result summarizes a completed scan.
type Result struct {
	Assets            []*catalog.Asset
	TotalDiscovered   int
	MetadataFailures  int
	ThumbnailFailures int
	HashFailures      int
	Elapsed           time.Duration
}

// Scan runs the full pipeline for the given root directories:
// Discovery -> QuickIndex -> Metadata -> Thumbnail -> Hash -> Complete.
// Every discovered file becomes one catalog entry with a fresh id. Per-item
// enrichment failures are logged and leave fields empty; only invalid roots
// and cancellation abort the scan. A cancelled scan emits one final
// cancelled progress snapshot before returning.
func (s *Scanner) Scan(collectionID string, roots []string) (*Result, error) {
	result, err := s.scan(collectionID, roots)

	var cancel *CancelledError
	if errors.As(err, &cancel) {
		s.emit(catalog.PhaseCancelled, cancel.Processed, 0, "scan cancelled", nil, false)
	}
	return result, err
}

func (s *Scanner) scan(collectionID string, roots []string) (*Result, error) {
	start := time.Now()

	if s.token.Cancelled() {
		return nil, &CancelledError{}
	}

	for _, root := range roots {
		info, err := os.Stat(root)
		if err != nil {
			return nil, &InvalidPathError{Path: root, Reason: "does not exist"}
		}
		if !info.IsDir() {
			return nil, &InvalidPathError{Path: root, Reason: "not a directory"}
		}
	}
	for _, pattern := range s.excludes {
		if _, err := filepath.Match(pattern, "probe"); err != nil {
			return nil, fmt.Errorf("bad exclude pattern %q: %w", pattern, err)
		}
	}

	s.emit(catalog.PhaseDiscovery, 0, 0, "discovering files", nil, false)

	paths, err := s.discover(roots)
	if err != nil {
		return nil, err
	}
	total := len(paths)

	// QuickIndex: entries become visible with only path and size.
	slots := make([]*catalog.Asset, total)
	if _, _, err := s.runPhase(catalog.PhaseQuick, total, false, func(i int) (string, error) {
		asset, err := quickIndex(collectionID, paths[i])
		if err != nil {
			return paths[i], err
		}
		slots[i] = asset
		return paths[i], nil
	}); err != nil {
		return nil, err
	}

	assets := make([]*catalog.Asset, 0, total)
	for _, a := range slots {
		if a != nil {
			assets = append(assets, a)
		}
	}

	s.emit(catalog.PhaseQuick, total, total, "quick scan complete", nil, true)

	result := &Result{Assets: assets, TotalDiscovered: total}

	// Metadata: pixel dimensions and EXIF, best effort per entry.
	metaFailures, _, err := s.runPhase(catalog.PhaseMetadata, len(assets), true, func(i int) (string, error) {
		return assets[i].Path, s.enrichMetadata(assets[i])
	})
	if err != nil {
		return nil, err
	}
	result.MetadataFailures = metaFailures

	// Thumbnail: reuse up-to-date renders, tolerate failed ones.
	if s.renderer != nil {
		thumbFailures, _, err := s.runPhase(catalog.PhaseThumbnail, len(assets), true, func(i int) (string, error) {
			return assets[i].Path, s.enrichThumbnail(assets[i])
		})
		if err != nil {
			return nil, err
		}
		result.ThumbnailFailures = thumbFailures
	} else {
		s.emit(catalog.PhaseThumbnail, len(assets), len(assets), "thumbnails skipped", nil, true)
	}

	// Hash: content hash always, perceptual hash best effort.
	hashFailures, _, err := s.runPhase(catalog.PhaseHash, len(assets), true, func(i int) (string, error) {
		return assets[i].Path, s.enrichHashes(assets[i])
	})
	if err != nil {
		return nil, err
	}
	result.HashFailures = hashFailures

	result.Elapsed = time.Since(start)
	s.emit(catalog.PhaseComplete, total, total, "scan complete", nil, true)
	return result, nil
}

// discover walks the roots in order, applying the extension allow-list and
// exclude patterns. Symbolic links are not followed. The returned order is
// the walk's lexical order and is stable across runs.
func (s *Scanner) discover(roots []string) ([]string, error) {
	var discovered []string

	for _, root := range roots {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				s.logger.Warn("skipping unreadable entry", "path", path, "error", err)
				return nil
			}
			if s.token.Cancelled() {
				return ErrCancelled
			}
			if d.Type()&fs.ModeSymlink != 0 {
				return nil
			}
			if s.excluded(path) {
				if d.IsDir() {
					return fs.SkipDir
				}
				return nil
			}
			if d.IsDir() {
				return nil
			}
			ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
			if s.fileTypes[ext] {
				discovered = append(discovered, path)
			}
			return nil
		})
		if err != nil {
			if err == ErrCancelled {
				return nil, &CancelledError{Processed: 0}
			}
			return nil, fmt.Errorf("failed to walk %s: %w", root, err)
		}
	}

	return discovered, nil
}

func (s *Scanner) excluded(path string) bool {
	base := filepath.Base(path)
	for _, pattern := range s.excludes {
		if ok, _ := filepath.Match(pattern, base); ok {
			return true
		}
		if ok, _ := filepath.Match(pattern, path); ok {
			return true
		}
	}
	return false
}

// quickIndex creates the minimal catalog entry for a discovered file: id,
// path, size, and file times. No decoding, no hashing.
func quickIndex(collectionID, path string) (*catalog.Asset, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	now := time.Now().UTC()
	return &catalog.Asset{
		ID:            catalog.NewAssetID(),
		CollectionID:  collectionID,
		Path:          path,
		Size:          info.Size(),
		ModTime:       info.ModTime(),
		FileCreatedAt: fileutil.CreationTime(info),
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

func (s *Scanner) enrichMetadata(a *catalog.Asset) error {
	var firstErr error

	if w, h, err := imaging.Dimensions(a.Path); err == nil {
		a.Width = w
		a.Height = h
	} else {
		firstErr = err
	}

	if exif, err := s.extractor.Extract(a.Path); err == nil {
		a.Exif = exif
	} else if firstErr == nil {
		firstErr = err
	}

	a.UpdatedAt = time.Now().UTC()
	return firstErr
}

func (s *Scanner) enrichThumbnail(a *catalog.Asset) error {
	thumbPath := s.renderer.Path(a.ID)
	if err := s.renderer.Render(a.Path, thumbPath); err != nil {
		return err
	}
	a.ThumbnailPath = thumbPath
	a.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *Scanner) enrichHashes(a *catalog.Asset) error {
	contentHash, err := imaging.ContentHash(a.Path)
	if err != nil {
		return err
	}
	a.ContentHash = contentHash

	// Perceptual hashing needs a decodable image; RAW files and the like
	// are still exact-matchable by content hash.
	if pHash, err := imaging.PerceptualHash(a.Path); err == nil {
		a.PerceptualHash = pHash
		a.HasPerceptual = true
	}

	a.UpdatedAt = time.Now().UTC()
	return nil
}

// progressEvery is the coarse progress cadence within a phase.
const progressEvery = 10

// runPhase drives one phase over n items in fixed-size batches using a
// fork-join worker pool. work returns the item's display label and its
// error; errors are counted and logged, never aborting the batch. The
// cancellation token is checked before each batch and before each item.
func (s *Scanner) runPhase(phase catalog.ScanPhase, n int, quickDone bool, work func(i int) (string, error)) (failures, processed int, err error) {
	if s.token.Cancelled() {
		return 0, 0, &CancelledError{}
	}

	s.emit(phase, 0, n, phaseLabel(phase), nil, quickDone)

	start := time.Now()
	var done atomic.Int64
	var failed atomic.Int64

	var mu sync.Mutex
	lastEmitted := 0
	emitProgress := func(p int, label string) {
		mu.Lock()
		defer mu.Unlock()
		if p <= lastEmitted {
			return
		}
		lastEmitted = p
		s.emit(phase, p, n, label, estimateRemaining(start, p, n), quickDone)
	}

	for lo := 0; lo < n; lo += s.batchSize {
		if s.token.Cancelled() {
			return int(failed.Load()), int(done.Load()), &CancelledError{Processed: int(done.Load())}
		}

		hi := lo + s.batchSize
		if hi > n {
			hi = n
		}

		indexes := make(chan int)
		var wg sync.WaitGroup
		workers := s.workers
		if workers > hi-lo {
			workers = hi - lo
		}

		for w := 0; w < workers; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := range indexes {
					if s.token.Cancelled() {
						continue
					}
					label, workErr := work(i)
					if workErr != nil {
						failed.Add(1)
						s.logger.Warn("enrichment failed",
							"phase", string(phase), "file", label, "error", workErr)
					}
					p := int(done.Add(1))
					if p%progressEvery == 0 || p == n {
						emitProgress(p, label)
					}
				}
			}()
		}

		for i := lo; i < hi; i++ {
			indexes <- i
		}
		close(indexes)
		wg.Wait()
	}

	if s.token.Cancelled() {
		return int(failed.Load()), int(done.Load()), &CancelledError{Processed: int(done.Load())}
	}
	return int(failed.Load()), int(done.Load()), nil
}

func (s *Scanner) emit(phase catalog.ScanPhase, processed, total int, current string, eta *time.Duration, quickDone bool) {
	s.sink.Emit(catalog.Progress{
		Phase:              phase,
		FilesProcessed:     processed,
		TotalFiles:         total,
		CurrentFile:        current,
		EstimatedRemaining: eta,
		QuickScanComplete:  quickDone,
	})
}

func phaseLabel(phase catalog.ScanPhase) string {
	switch phase {
	case catalog.PhaseQuick:
		return "indexing files"
	case catalog.PhaseMetadata:
		return "extracting metadata"
	case catalog.PhaseThumbnail:
		return "rendering thumbnails"
	case catalog.PhaseHash:
		return "computing hashes"
	default:
		return string(phase)
	}
}

// VerifyAsset re-computes the content hash for an asset and reports whether
// it still matches the stored digest. Assets without a stored digest report
// false.
func VerifyAsset(a *catalog.Asset) (bool, error) {
	if a.ContentHash == "" {
		return false, nil
	}
	current, err := imaging.ContentHash(a.Path)
	if err != nil {
		return false, err
	}
	return current == a.ContentHash, nil
}
