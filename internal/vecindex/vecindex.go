package vecindex

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/filesense/filesense/internal/storage"
)

var (
	// ErrEmptyIndex is returned when a build finds no embedded chunks.
	ErrEmptyIndex = errors.New("no embedded chunks to index")

	// ErrNotBuilt is returned when a search needs an index that has never
	// been successfully built.
	ErrNotBuilt = errors.New("vector index not built")

	// ErrBuildTimeout is returned when a search gave up waiting for an
	// in-flight build. The build keeps running; retrying may succeed.
	ErrBuildTimeout = errors.New("timed out waiting for index build")
)

// DefaultApproxThreshold is the vector count above which builds switch
// from a flat exact index to a clustered approximate one.
const DefaultApproxThreshold = 20000

// Loader supplies the embedded chunks an index build reads from.
type Loader interface {
	ListEmbeddedChunks(ctx context.Context) ([]storage.EmbeddedChunk, error)
}

// Options controls index construction and lifecycle.
type Options struct {
	// ApproxThreshold is the vector count at or above which a clustered
	// index is built instead of a flat one.
	ApproxThreshold int

	// BuildTimeout bounds how long a search waits for an in-flight build.
	BuildTimeout time.Duration

	// EvictAfter releases the snapshot after this long without a search.
	// Zero disables eviction.
	EvictAfter time.Duration
}

// Match is a single nearest-neighbor hit.
type Match struct {
	ChunkID    int64
	Distance   float64
	Similarity float64
}

// Stats describes the current in-memory snapshot.
type Stats struct {
	Built       bool   `json:"built"`
	Vectors     int    `json:"vectors"`
	Dimension   int    `json:"dimension"`
	IndexType   string `json:"index_type"`
	MemoryBytes int64  `json:"memory_bytes"`
}

// snapshot is an immutable search structure. A build constructs a fresh
// one and swaps the pointer; searches read whichever snapshot they
// grabbed without further locking.
type snapshot struct {
	ids     []int64
	vectors [][]float32
	dim     int
	kind    string

	// clustered layout only
	centroids [][]float32
	clusters  [][]int
	nprobe    int
}

// Service owns the vector index lifecycle: lazy builds, snapshot swaps
// and idle eviction.
type Service struct {
	loader Loader
	opts   Options
	logger *zap.Logger

	mu       sync.Mutex
	snap     *snapshot
	building bool
	done     chan struct{}
	buildErr error
	built    bool // a build has ever succeeded
	lastUsed time.Time

	stopEvict chan struct{}
	evictOnce sync.Once
}

// NewService creates an index service. The snapshot is not built until
// the first search or an explicit Build call.
func NewService(loader Loader, opts Options, logger *zap.Logger) *Service {
	if opts.ApproxThreshold <= 0 {
		opts.ApproxThreshold = DefaultApproxThreshold
	}
	if opts.BuildTimeout <= 0 {
		opts.BuildTimeout = 2 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Service{
		loader:    loader,
		opts:      opts,
		logger:    logger,
		stopEvict: make(chan struct{}),
	}
	if opts.EvictAfter > 0 {
		go s.evictLoop()
	}
	return s
}

// Close stops the eviction goroutine and releases the snapshot.
func (s *Service) Close() {
	s.evictOnce.Do(func() { close(s.stopEvict) })
	s.mu.Lock()
	s.snap = nil
	s.mu.Unlock()
}

// Build loads all embedded chunks and constructs a fresh snapshot,
// replacing any existing one. Returns ErrEmptyIndex when the store has
// no embedded chunks.
func (s *Service) Build(ctx context.Context) (*Stats, error) {
	snap, err := s.buildSnapshot(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.snap = snap
	s.built = true
	s.lastUsed = time.Now()
	s.mu.Unlock()

	stats := snapshotStats(snap)
	return &stats, nil
}

// Invalidate drops the current snapshot. The next search triggers a
// rebuild.
func (s *Service) Invalidate() {
	s.mu.Lock()
	s.snap = nil
	s.mu.Unlock()
	s.logger.Debug("vector index invalidated")
}

// Stats reports on the current snapshot without triggering a build.
func (s *Service) Stats() Stats {
	s.mu.Lock()
	snap := s.snap
	s.mu.Unlock()

	if snap == nil {
		return Stats{Built: false}
	}
	return snapshotStats(snap)
}

// Search returns up to k nearest neighbors of vec by L2 distance,
// ordered by ascending distance with ties broken by ascending chunk id.
// If no snapshot is loaded a build is started and waited for, bounded
// by BuildTimeout.
func (s *Service) Search(ctx context.Context, vec []float32, k int) ([]Match, error) {
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive, got %d", k)
	}

	snap, err := s.ensureSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	if len(vec) != snap.dim {
		return nil, fmt.Errorf("query vector has %d dimensions, index has %d", len(vec), snap.dim)
	}

	var candidates []int
	if snap.kind == indexClustered {
		candidates = snap.probe(vec)
	} else {
		candidates = make([]int, len(snap.ids))
		for i := range candidates {
			candidates[i] = i
		}
	}

	matches := make([]Match, 0, len(candidates))
	for _, i := range candidates {
		d := l2Distance(vec, snap.vectors[i])
		matches = append(matches, Match{
			ChunkID:    snap.ids[i],
			Distance:   d,
			Similarity: 1.0 / (1.0 + d),
		})
	}

	sort.Slice(matches, func(a, b int) bool {
		if matches[a].Distance != matches[b].Distance {
			return matches[a].Distance < matches[b].Distance
		}
		return matches[a].ChunkID < matches[b].ChunkID
	})

	if len(matches) > k {
		matches = matches[:k]
	}
	return matches, nil
}

// Dimension returns the dimension of the loaded snapshot, or 0 when no
// snapshot is loaded.
func (s *Service) Dimension() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snap == nil {
		return 0
	}
	return s.snap.dim
}

// ensureSnapshot returns the current snapshot, starting and waiting for
// a build when none is loaded.
func (s *Service) ensureSnapshot(ctx context.Context) (*snapshot, error) {
	s.mu.Lock()
	if s.snap != nil {
		s.lastUsed = time.Now()
		snap := s.snap
		s.mu.Unlock()
		return snap, nil
	}

	if !s.building {
		s.building = true
		s.done = make(chan struct{})
		go s.backgroundBuild()
	}
	done := s.done
	s.mu.Unlock()

	timer := time.NewTimer(s.opts.BuildTimeout)
	defer timer.Stop()

	select {
	case <-done:
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
		return nil, ErrBuildTimeout
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snap == nil {
		err := s.buildErr
		if err == nil {
			err = ErrNotBuilt
		}
		if !s.built {
			return nil, fmt.Errorf("%w: %v", ErrNotBuilt, err)
		}
		return nil, err
	}
	s.lastUsed = time.Now()
	return s.snap, nil
}

func (s *Service) backgroundBuild() {
	snap, err := s.buildSnapshot(context.Background())

	s.mu.Lock()
	s.building = false
	s.buildErr = err
	if err == nil {
		s.snap = snap
		s.built = true
		s.lastUsed = time.Now()
	}
	close(s.done)
	s.mu.Unlock()
}

// buildSnapshot does the actual load and index construction without
// touching service state.
func (s *Service) buildSnapshot(ctx context.Context) (*snapshot, error) {
	start := time.Now()

	chunks, err := s.loader.ListEmbeddedChunks(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load embedded chunks: %w", err)
	}
	if len(chunks) == 0 {
		return nil, ErrEmptyIndex
	}

	snap := &snapshot{
		ids:     make([]int64, len(chunks)),
		vectors: make([][]float32, len(chunks)),
		dim:     len(chunks[0].Vector),
		kind:    indexFlat,
	}
	for i, c := range chunks {
		snap.ids[i] = c.ChunkID
		snap.vectors[i] = c.Vector
	}

	if len(chunks) >= s.opts.ApproxThreshold {
		snap.kind = indexClustered
		snap.cluster()
	}

	s.logger.Info("vector index built",
		zap.Int("vectors", len(snap.ids)),
		zap.Int("dimension", snap.dim),
		zap.String("index_type", snap.kind),
		zap.Duration("elapsed", time.Since(start)))

	return snap, nil
}

func (s *Service) evictLoop() {
	interval := s.opts.EvictAfter / 4
	if interval < 100*time.Millisecond {
		interval = 100 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopEvict:
			return
		case <-ticker.C:
			s.mu.Lock()
			if s.snap != nil && time.Since(s.lastUsed) >= s.opts.EvictAfter {
				s.snap = nil
				s.logger.Info("vector index evicted after idle period",
					zap.Duration("idle", s.opts.EvictAfter))
			}
			s.mu.Unlock()
		}
	}
}

func snapshotStats(snap *snapshot) Stats {
	mem := int64(len(snap.ids))*8 + int64(len(snap.ids))*int64(snap.dim)*4
	for _, c := range snap.centroids {
		mem += int64(len(c)) * 4
	}
	return Stats{
		Built:       true,
		Vectors:     len(snap.ids),
		Dimension:   snap.dim,
		IndexType:   snap.kind,
		MemoryBytes: mem,
	}
}

func l2Distance(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}
