package persistent

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultMaxSegmentSize is the default rotation threshold in bytes
	// (spec.md §5: max_segment_size default 256MiB, min 16KiB).
	DefaultMaxSegmentSize = 256 << 20
	MinSegmentSize        = 16 << 10

	// DefaultMaxSegmentRecords bounds rotation by record count as well as
	// size, mirroring the teacher WAL's dual threshold.
	DefaultMaxSegmentRecords = 200_000
	MinSegmentRecords        = 1

	// DefaultMaxWALSize is the unsealed-WAL budget; once the unsealed
	// bytes reach it, the WAL compacts by sealing the active segment into
	// the manifest (spec.md §5: max_wal_size default 64MiB, min 4KiB).
	DefaultMaxWALSize = 64 << 20
	MinWALSize        = 4 << 10
)

// Config configures a WAL's rotation and sync behavior.
type Config struct {
	Dir             string
	MaxSegmentSize  int64
	MaxSegmentRecs  int
	MaxWALSize      int64
	SyncEveryWrite  bool
	Logger          *slog.Logger
}

func (c Config) validate() error {
	if c.Dir == "" {
		return fmt.Errorf("persistent: config.Dir must not be empty")
	}
	if c.MaxSegmentSize != 0 && c.MaxSegmentSize < MinSegmentSize {
		return fmt.Errorf("persistent: max_segment_size must be >= %s", humanize.Bytes(MinSegmentSize))
	}
	if c.MaxWALSize != 0 && c.MaxWALSize < MinWALSize {
		return fmt.Errorf("persistent: max_wal_size must be >= %s", humanize.Bytes(MinWALSize))
	}
	return nil
}

func (c Config) withDefaults() Config {
	if c.MaxSegmentSize == 0 {
		c.MaxSegmentSize = DefaultMaxSegmentSize
	}
	if c.MaxSegmentRecs == 0 {
		c.MaxSegmentRecs = DefaultMaxSegmentRecords
	}
	if c.MaxWALSize == 0 {
		c.MaxWALSize = DefaultMaxWALSize
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c
}

// WAL is KyroQL's append-only durable log: a sequence of rotating segment
// files, the most recent of which is open for appends. Grounded on
// internal/service/trace/wal.go's rotate/checkpoint/recover structure, with
// little-endian kind-tagged record framing (record.go) in place of the
// teacher's big-endian LSN framing.
type WAL struct {
	mu sync.Mutex

	cfg    Config
	lock   *fileLock
	logger *slog.Logger

	current     *os.File
	segmentNum  uint64
	segmentSize int64
	segmentRecs int

	// unsealedBytes accumulates bytes written since the last compaction,
	// across every segment produced by size/record rotation in between.
	// Crossing cfg.MaxWALSize triggers compactLocked, distinct from
	// rotateLocked's per-segment size/record threshold (spec.md §4.4).
	unsealedBytes int64

	nextSeq atomic.Uint64
	closed  bool
}

// OpenWAL opens or creates a WAL rooted at cfg.Dir, acquiring the
// single-writer directory lock, loading the manifest, and positioning the
// active segment at the highest existing segment number (or 0 for a fresh
// directory).
func OpenWAL(cfg Config) (*WAL, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()

	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("persistent: mkdir %s: %w", cfg.Dir, err)
	}
	lock, err := acquireFileLock(lockPath(cfg.Dir))
	if err != nil {
		return nil, err
	}

	w := &WAL{cfg: cfg, lock: lock, logger: cfg.Logger}

	manifest, err := loadManifest(cfg.Dir)
	if err != nil {
		lock.Release()
		return nil, err
	}

	segments, err := listSegments(cfg.Dir)
	if err != nil {
		lock.Release()
		return nil, err
	}

	active := manifest.ActiveSegment
	if len(segments) > 0 && segments[len(segments)-1] > active {
		active = segments[len(segments)-1]
	}
	w.nextSeq.Store(manifest.Watermark)

	if err := w.openSegment(active); err != nil {
		lock.Release()
		return nil, err
	}
	// Segments below the manifest's active one are already sealed; only
	// the active segment's existing bytes count against the WAL budget.
	w.unsealedBytes = w.segmentSize

	return w, nil
}

func lockPath(dir string) string {
	return dir + "/LOCK"
}

func (w *WAL) openSegment(n uint64) error {
	path := segmentPath(w.cfg.Dir, n)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("persistent: open segment %s: %w", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return fmt.Errorf("persistent: stat segment %s: %w", path, err)
	}
	w.current = f
	w.segmentNum = n
	w.segmentSize = info.Size()
	w.segmentRecs = 0
	return nil
}

// Append writes kind/payload as a new framed record, rotating to a fresh
// segment first if the active one has crossed its size or record
// threshold. Returns the assigned sequence number.
func (w *WAL) Append(kind RecordKind, payload []byte) (uint64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return 0, ErrClosed
	}

	if w.segmentSize >= w.cfg.MaxSegmentSize || w.segmentRecs >= w.cfg.MaxSegmentRecs {
		if err := w.rotateLocked(); err != nil {
			return 0, err
		}
	}

	frame, err := EncodeRecord(kind, payload)
	if err != nil {
		return 0, err
	}
	n, err := w.current.Write(frame)
	if err != nil {
		return 0, fmt.Errorf("persistent: write record: %w", err)
	}
	if w.cfg.SyncEveryWrite {
		if err := w.current.Sync(); err != nil {
			return 0, fmt.Errorf("persistent: sync: %w", err)
		}
	}
	w.segmentSize += int64(n)
	w.segmentRecs++
	w.unsealedBytes += int64(n)
	seq := w.nextSeq.Add(1) - 1

	if w.unsealedBytes >= w.cfg.MaxWALSize {
		if err := w.compactLocked(); err != nil {
			return seq, err
		}
	}
	return seq, nil
}

func (w *WAL) rotateLocked() error {
	if err := w.current.Sync(); err != nil {
		return fmt.Errorf("persistent: sync before rotate: %w", err)
	}
	if err := w.current.Close(); err != nil {
		return fmt.Errorf("persistent: close before rotate: %w", err)
	}
	w.logger.Info("rotating wal segment", "from", w.segmentNum, "to", w.segmentNum+1, "bytes", humanize.Bytes(uint64(w.segmentSize)))
	return w.openSegment(w.segmentNum + 1)
}

// Checkpoint persists the current manifest: all segments below the active
// one are sealed, and the watermark advances to the next unwritten
// sequence number. The active segment itself stays open and unsealed, so
// only its own bytes still count against the MaxWALSize budget afterward.
func (w *WAL) Checkpoint() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrClosed
	}
	if err := w.current.Sync(); err != nil {
		return fmt.Errorf("persistent: sync on checkpoint: %w", err)
	}
	segments, err := listSegments(w.cfg.Dir)
	if err != nil {
		return err
	}
	var sealed []uint64
	for _, n := range segments {
		if n < w.segmentNum {
			sealed = append(sealed, n)
		}
	}
	if err := saveManifest(w.cfg.Dir, Manifest{
		SealedSegments: sealed,
		ActiveSegment:  w.segmentNum,
		Watermark:      w.nextSeq.Load(),
	}); err != nil {
		return err
	}
	w.unsealedBytes = w.segmentSize
	return nil
}

// compactLocked seals every segment up through the currently active one
// into the durable segment chain and opens a fresh segment to begin a new
// unsealed WAL region (spec.md §4.4: crossing max_wal_size triggers
// compaction, distinct from rotateLocked's pure size/record rotation,
// which never touches the manifest). The active segment is synced and
// closed first so its bytes are durable before being marked sealed.
func (w *WAL) compactLocked() error {
	if err := w.current.Sync(); err != nil {
		return fmt.Errorf("persistent: sync before compact: %w", err)
	}
	if err := w.current.Close(); err != nil {
		return fmt.Errorf("persistent: close before compact: %w", err)
	}

	segments, err := listSegments(w.cfg.Dir)
	if err != nil {
		return err
	}
	sealed := make([]uint64, 0, len(segments))
	for _, n := range segments {
		if n <= w.segmentNum {
			sealed = append(sealed, n)
		}
	}

	nextSegment := w.segmentNum + 1
	if err := saveManifest(w.cfg.Dir, Manifest{
		SealedSegments: sealed,
		ActiveSegment:  nextSegment,
		Watermark:      w.nextSeq.Load(),
	}); err != nil {
		return err
	}

	w.logger.Info("compacted wal into segment chain",
		"sealed_through", w.segmentNum, "bytes", humanize.Bytes(uint64(w.unsealedBytes)))
	w.unsealedBytes = 0
	return w.openSegment(nextSegment)
}

// segmentReadResult holds one segment's decoded records before sequence
// numbers are reassigned in commit order.
type segmentReadResult struct {
	num        uint64
	path       string
	records    []decodedRecord
	validBytes int64
	fileSize   int64
}

// Recover replays every record across all segments in order, truncating
// the final segment at its last valid record boundary if a crash left a
// partial or corrupt trailing write (spec.md §5 property #5). Invalid bytes
// in any earlier segment fail recovery with an error. Decoding each
// segment is I/O-bound and order-independent, so the read phase runs
// concurrently (bounded by GOMAXPROCS); sequence number assignment,
// truncation, and logging stay a strictly sequential second pass since
// those depend on commit order.
func (w *WAL) Recover() ([]decodedRecord, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	segments, err := listSegments(w.cfg.Dir)
	if err != nil {
		return nil, err
	}

	results := make([]segmentReadResult, len(segments))
	g, _ := errgroup.WithContext(context.Background())
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, n := range segments {
		i, n := i, n
		g.Go(func() error {
			path := segmentPath(w.cfg.Dir, n)
			records, validBytes, err := readSegment(path, 0)
			if err != nil {
				return err
			}
			info, statErr := os.Stat(path)
			var fileSize int64
			if statErr == nil {
				fileSize = info.Size()
			}
			results[i] = segmentReadResult{num: n, path: path, records: records, validBytes: validBytes, fileSize: fileSize}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []decodedRecord
	var seq uint64
	for i, r := range results {
		isLast := i == len(results)-1
		if r.fileSize > 0 && r.validBytes < r.fileSize {
			if !isLast {
				return nil, fmt.Errorf("persistent: segment %d is corrupt after byte %d of %d", r.num, r.validBytes, r.fileSize)
			}
			if err := truncateToValid(r.path, r.validBytes); err != nil {
				return nil, err
			}
		}
		for _, rec := range r.records {
			rec.Seq = seq
			all = append(all, rec)
			seq++
		}
	}
	w.nextSeq.Store(seq)
	return all, nil
}

// PendingBytes returns the active segment's current size.
func (w *WAL) PendingBytes() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.segmentSize
}

// SegmentCount returns how many segment files currently exist on disk.
func (w *WAL) SegmentCount() (int, error) {
	segments, err := listSegments(w.cfg.Dir)
	if err != nil {
		return 0, err
	}
	return len(segments), nil
}

// Close syncs and closes the active segment and releases the directory lock.
func (w *WAL) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	if err := w.current.Sync(); err != nil {
		w.lock.Release()
		return fmt.Errorf("persistent: sync on close: %w", err)
	}
	if err := w.current.Close(); err != nil {
		w.lock.Release()
		return fmt.Errorf("persistent: close segment on close: %w", err)
	}
	return w.lock.Release()
}
