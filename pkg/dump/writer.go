package dump

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"hash/crc32"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang/snappy"
	"github.com/google/uuid"

	"github.com/dd0wney/cluso-graphir/pkg/ir"
	"github.com/dd0wney/cluso-graphir/pkg/logging"
	"github.com/dd0wney/cluso-graphir/pkg/metrics"
	"github.com/dd0wney/cluso-graphir/pkg/pools"
)

// FileExt is the extension of dump files.
const FileExt = ".json.sz"

// File format: [magic:4][crc32 of payload:4][snappy(JSON snapshot)].
var magic = [4]byte{'G', 'I', 'R', 'D'}

const headerSize = 8

var (
	// ErrCorrupt reports a dump file whose header or checksum does not match.
	ErrCorrupt = errors.New("corrupt dump file")
)

// Writer writes graph snapshots into a directory. It satisfies the sort
// engine's dump sink.
type Writer struct {
	dir     string
	logger  logging.Logger
	metrics *metrics.Registry
	now     func() time.Time
}

// Option configures a Writer.
type Option func(*Writer)

// WithLogger sets the writer's logger.
func WithLogger(l logging.Logger) Option {
	return func(w *Writer) { w.logger = l }
}

// WithMetrics records dump outcomes and sizes in r.
func WithMetrics(r *metrics.Registry) Option {
	return func(w *Writer) { w.metrics = r }
}

// NewWriter creates a Writer for dir. The directory is created on first use.
func NewWriter(dir string, opts ...Option) *Writer {
	w := &Writer{dir: dir, logger: logging.NewNopLogger(), now: time.Now}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Dir returns the output directory.
func (w *Writer) Dir() string { return w.dir }

// Dump snapshots g and writes it to <dir>/<label>_<uuid>.json.sz, returning
// the file path.
func (w *Writer) Dump(g *ir.Graph, label string) (string, error) {
	if g == nil {
		return "", fmt.Errorf("dump %q: nil graph: %w", label, ir.ErrInvalidArgument)
	}
	snap := &Snapshot{
		ID:        uuid.New().String(),
		Label:     label,
		CreatedAt: w.now().UTC(),
		Graph:     Capture(g),
	}
	if g.Root() == g {
		snap.RecordedSubgraphs = g.RecordedSubgraphNames()
	}

	path := filepath.Join(w.dir, sanitize(label)+"_"+snap.ID+FileExt)
	size, err := w.write(path, snap)
	if w.metrics != nil {
		w.metrics.RecordDump(err, size)
	}
	if err != nil {
		w.logger.Error("dump failed", logging.Graph(g.Name()), logging.Path(path), logging.Error(err))
		return "", err
	}
	w.logger.Debug("dump written", logging.Graph(g.Name()), logging.Path(path), logging.Int("bytes", size))
	return path, nil
}

func (w *Writer) write(path string, snap *Snapshot) (int, error) {
	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return 0, fmt.Errorf("failed to create dump directory: %w", err)
	}

	data, err := json.Marshal(snap)
	if err != nil {
		return 0, fmt.Errorf("failed to encode snapshot: %w", err)
	}

	buf := pools.GetBytes(headerSize + snappy.MaxEncodedLen(len(data)))
	defer pools.PutBytes(buf)
	compressed := snappy.Encode(buf[headerSize:], data)
	copy(buf[:4], magic[:])
	binary.BigEndian.PutUint32(buf[4:headerSize], crc32.ChecksumIEEE(compressed))
	out := buf[:headerSize+len(compressed)]

	// Readers must never see a partial dump.
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, out, 0644); err != nil {
		return 0, fmt.Errorf("failed to write dump: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return 0, fmt.Errorf("failed to finalize dump: %w", err)
	}
	return len(out), nil
}

// Load reads a dump file written by Writer.
func Load(path string) (*Snapshot, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read dump: %w", err)
	}
	if len(raw) < headerSize || [4]byte(raw[:4]) != magic {
		return nil, fmt.Errorf("%s: bad header: %w", path, ErrCorrupt)
	}
	payload := raw[headerSize:]
	if crc32.ChecksumIEEE(payload) != binary.BigEndian.Uint32(raw[4:headerSize]) {
		return nil, fmt.Errorf("%s: checksum mismatch: %w", path, ErrCorrupt)
	}

	data, err := snappy.Decode(nil, payload)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", path, ErrCorrupt, err)
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("%s: failed to decode snapshot: %w", path, err)
	}
	return &snap, nil
}

// List returns the dump files in dir whose label starts with prefix, sorted
// by name.
func List(dir, prefix string) ([]string, error) {
	pattern := "*" + FileExt
	if prefix != "" {
		pattern = sanitize(prefix) + pattern
	}
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return nil, err
	}
	return matches, nil
}

// sanitize maps a label onto a safe file name component.
func sanitize(label string) string {
	if label == "" {
		return "graph"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-', r == '.':
			return r
		}
		return '_'
	}, label)
}
