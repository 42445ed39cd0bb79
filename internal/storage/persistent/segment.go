package persistent

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

const segmentExt = ".seg"

func segmentPath(dir string, n uint64) string {
	return filepath.Join(dir, fmt.Sprintf("%09d%s", n, segmentExt))
}

// listSegments returns every segment number present in dir, ascending.
func listSegments(dir string) ([]uint64, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("persistent: list segments: %w", err)
	}
	var nums []uint64
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), segmentExt) {
			continue
		}
		base := strings.TrimSuffix(e.Name(), segmentExt)
		n, err := strconv.ParseUint(base, 10, 64)
		if err != nil {
			continue
		}
		nums = append(nums, n)
	}
	sort.Slice(nums, func(i, j int) bool { return nums[i] < nums[j] })
	return nums, nil
}

// decodedRecord is one record read back out of a segment file, tagged with
// its sequence number for ordering during replay.
type decodedRecord struct {
	Seq     uint64
	Kind    RecordKind
	Payload []byte
}

// readSegment decodes every record in path in order. If the trailing
// record is incomplete or corrupt (a crash mid-write), reading stops there
// without error — the caller truncates the file to the last good boundary,
// matching the teacher WAL's tolerant recovery behavior (wal.go Recover).
func readSegment(path string, startSeq uint64) (records []decodedRecord, validBytes int64, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, fmt.Errorf("persistent: read segment %s: %w", path, err)
	}
	seq := startSeq
	var offset int64
	for {
		kind, payload, consumed, derr := DecodeRecord(data[offset:])
		if derr == ErrIncompleteRecord || derr == ErrCorruptRecord {
			break
		}
		if derr != nil {
			return nil, 0, fmt.Errorf("persistent: decode segment %s at offset %d: %w", path, offset, derr)
		}
		if consumed == 0 {
			break
		}
		records = append(records, decodedRecord{Seq: seq, Kind: kind, Payload: payload})
		offset += int64(consumed)
		seq++
	}
	return records, offset, nil
}

// truncateToValid truncates the file at path to validBytes, discarding any
// trailing partial or corrupt record.
func truncateToValid(path string, validBytes int64) error {
	f, err := os.OpenFile(path, os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("persistent: open for truncate %s: %w", path, err)
	}
	defer f.Close()
	if err := f.Truncate(validBytes); err != nil {
		return fmt.Errorf("persistent: truncate %s: %w", path, err)
	}
	return f.Sync()
}
