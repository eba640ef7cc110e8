package scheduler

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/filesense/filesense/internal/chunker"
	"github.com/filesense/filesense/internal/embedder"
	"github.com/filesense/filesense/internal/monitor"
	"github.com/filesense/filesense/internal/storage"
)

// State names the scheduler's position in its cycle.
type State string

const (
	StateIdle       State = "idle"
	StateEvaluating State = "evaluating"
	StateProcessing State = "processing"
)

// Config tunes one scheduler instance.
type Config struct {
	Roots       []string
	Extensions  []string
	MaxFileSize int64

	Interval  time.Duration
	BatchSize int
	Workers   int

	MinIdle           time.Duration
	MinBatteryPercent int
	MaxMemoryPercent  float64
}

// Invalidator is notified when indexed content changed.
type Invalidator interface {
	Invalidate()
}

// ErrCycleInProgress is returned when a cycle is requested while
// another one is still running.
var ErrCycleInProgress = errors.New("an indexing cycle is already running")

// Scheduler runs the background indexing pipeline: discover files under
// the watch roots, chunk and embed the changed ones, and record every
// cycle as a session.
type Scheduler struct {
	store    storage.Storage
	chunker  *chunker.Chunker
	embedder embedder.Embedder
	index    Invalidator
	probe    monitor.Probe
	cfg      Config
	logger   *zap.Logger

	mu    sync.Mutex
	state State
	lock  cycleLock

	extensions map[string]bool
}

// New creates a scheduler. A nil index or probe disables index
// invalidation and resource gating respectively.
func New(store storage.Storage, chk *chunker.Chunker, emb embedder.Embedder, index Invalidator, probe monitor.Probe, cfg Config, logger *zap.Logger) *Scheduler {
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 200
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 15 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	extensions := make(map[string]bool, len(cfg.Extensions))
	for _, ext := range cfg.Extensions {
		extensions[strings.ToLower(ext)] = true
	}

	return &Scheduler{
		store:      store,
		chunker:    chk,
		embedder:   emb,
		index:      index,
		probe:      probe,
		cfg:        cfg,
		logger:     logger,
		state:      StateIdle,
		extensions: extensions,
	}
}

// State reports the scheduler's current cycle state.
func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Scheduler) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

// Run loops cycles until the context is cancelled. Each cycle evaluates
// the resource gates and, when they pass, indexes changed files.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		if _, err := s.RunOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Error("indexing cycle failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// RunOnce executes a single cycle. When the resource gates block the
// cycle it returns (nil, nil) without recording a session.
func (s *Scheduler) RunOnce(ctx context.Context) (*storage.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if !s.lock.TryAcquire() {
		return nil, ErrCycleInProgress
	}
	defer s.lock.Release()

	s.setState(StateEvaluating)
	defer s.setState(StateIdle)

	if reason := s.checkGates(ctx); reason != "" {
		s.logger.Info("indexing cycle skipped", zap.String("reason", reason))
		return nil, nil
	}

	s.setState(StateProcessing)
	return s.process(ctx)
}

// checkGates returns a non-empty reason when a resource gate blocks the
// cycle. A nil probe passes all gates.
func (s *Scheduler) checkGates(ctx context.Context) string {
	if s.probe == nil {
		return ""
	}

	if s.cfg.MinIdle > 0 {
		idle, err := s.probe.IdleTime(ctx)
		if err != nil {
			return fmt.Sprintf("idle probe failed: %v", err)
		}
		if idle < s.cfg.MinIdle {
			return fmt.Sprintf("system busy, idle %s < %s", idle.Round(time.Second), s.cfg.MinIdle)
		}
	}

	if s.cfg.MinBatteryPercent > 0 {
		power, err := s.probe.PowerState(ctx)
		if err != nil {
			return fmt.Sprintf("power probe failed: %v", err)
		}
		if power.OnBattery && power.BatteryPercent < float64(s.cfg.MinBatteryPercent) {
			return fmt.Sprintf("battery at %.0f%%, below %d%%", power.BatteryPercent, s.cfg.MinBatteryPercent)
		}
	}

	if s.cfg.MaxMemoryPercent > 0 {
		memPct, err := s.probe.MemoryUsedPercent(ctx)
		if err != nil {
			return fmt.Sprintf("memory probe failed: %v", err)
		}
		if memPct > s.cfg.MaxMemoryPercent {
			return fmt.Sprintf("memory at %.1f%%, above %.1f%%", memPct, s.cfg.MaxMemoryPercent)
		}
	}

	return ""
}

// process runs the indexing work of one cycle under a session record.
// The session row is written with status "running" before any file is
// touched and finalized exactly once on the way out, so a crash leaves
// an observable "running" session behind.
func (s *Scheduler) process(ctx context.Context) (*storage.Session, error) {
	session := &storage.Session{ID: uuid.New().String()}
	if err := s.store.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	var cycleErr error
	defer func() {
		switch {
		case cycleErr != nil && errors.Is(cycleErr, context.Canceled):
			session.Status = storage.SessionInterrupted
			session.Interrupted = true
		case cycleErr != nil:
			session.Status = storage.SessionFailed
		case session.Interrupted:
			session.Status = storage.SessionInterrupted
		default:
			session.Status = storage.SessionCompleted
		}
		if err := s.store.FinishSession(context.WithoutCancel(ctx), session); err != nil {
			s.logger.Error("failed to finalize session",
				zap.String("session_id", session.ID), zap.Error(err))
		}
		s.logger.Info("indexing cycle finished",
			zap.String("session_id", session.ID),
			zap.String("status", string(session.Status)),
			zap.Int("files_indexed", session.FilesIndexed),
			zap.Int("chunks_created", session.ChunksCreated),
			zap.Int("errors", session.ErrorCount))
	}()

	candidates := s.discover(session)
	session.FilesScanned = len(candidates)

	changed, err := s.selectChanged(ctx, candidates)
	if err != nil {
		cycleErr = fmt.Errorf("change detection failed: %w", err)
		return session, cycleErr
	}

	deleted, err := s.collectDeleted(ctx, candidates)
	if err != nil {
		cycleErr = fmt.Errorf("deletion scan failed: %w", err)
		return session, cycleErr
	}

	pruned := 0
	for _, f := range deleted {
		if err := s.store.DeleteFile(ctx, f.ID); err != nil {
			session.ErrorCount++
			s.logger.Warn("failed to prune deleted file",
				zap.String("path", f.Path), zap.Error(err))
			continue
		}
		pruned++
		s.logger.Debug("pruned deleted file", zap.String("path", f.Path))
	}

	for _, cand := range changed {
		if ctx.Err() != nil {
			session.Interrupted = true
			break
		}

		chunkCount, fatal, err := s.indexFile(ctx, cand)
		if err != nil {
			if ctx.Err() != nil {
				session.Interrupted = true
				break
			}
			session.ErrorCount++
			if fatal {
				// the store itself failed, the rest of the batch cannot
				// do better
				cycleErr = err
				break
			}
			s.logger.Warn("failed to index file",
				zap.String("path", cand.path), zap.Error(err))
			continue
		}

		session.FilesIndexed++
		session.ChunksCreated += chunkCount
	}

	if s.index != nil && (session.FilesIndexed > 0 || pruned > 0) {
		s.index.Invalidate()
	}

	return session, cycleErr
}

// candidate is a discovered file with its stat info.
type candidate struct {
	path    string
	modTime time.Time
	size    int64
}

// discover walks the watch roots collecting indexable files. Hidden
// entries are skipped, only allow-listed extensions pass, and files
// over the size cap are ignored. Walk errors (an unreadable
// subdirectory, a file vanishing mid-walk) are counted on the session
// and the walk continues.
func (s *Scheduler) discover(session *storage.Session) []candidate {
	var out []candidate

	for _, root := range s.cfg.Roots {
		_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if os.IsNotExist(err) && path == root {
					return filepath.SkipAll
				}
				session.ErrorCount++
				s.logger.Warn("skipping unreadable path",
					zap.String("path", path), zap.Error(err))
				return nil
			}

			hidden := strings.HasPrefix(d.Name(), ".") && path != root
			if d.IsDir() {
				if hidden {
					return filepath.SkipDir
				}
				return nil
			}
			if hidden {
				return nil
			}

			if !s.extensions[strings.ToLower(filepath.Ext(path))] {
				return nil
			}

			info, err := d.Info()
			if err != nil {
				return nil
			}
			if s.cfg.MaxFileSize > 0 && info.Size() > s.cfg.MaxFileSize {
				return nil
			}

			out = append(out, candidate{
				path:    path,
				modTime: info.ModTime(),
				size:    info.Size(),
			})
			return nil
		})
	}

	return out
}

// selectChanged filters candidates down to new or modified files, up to
// BatchSize. Files whose size and mtime match the stored row are skipped
// without reading their content.
func (s *Scheduler) selectChanged(ctx context.Context, candidates []candidate) ([]candidate, error) {
	changed := make([]candidate, 0)

	for _, cand := range candidates {
		if len(changed) >= s.cfg.BatchSize {
			break
		}

		stored, err := s.store.GetFile(ctx, cand.path)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				changed = append(changed, cand)
				continue
			}
			return nil, err
		}

		if stored.SizeBytes == cand.size && stored.ModTime.Equal(cand.modTime) {
			continue
		}

		hash, err := hashFile(cand.path)
		if err != nil {
			s.logger.Warn("failed to hash file",
				zap.String("path", cand.path), zap.Error(err))
			continue
		}
		if hash == stored.ContentHash {
			// content identical, refresh stat info only
			stored.ModTime = cand.modTime
			stored.SizeBytes = cand.size
			if err := s.store.UpsertFile(ctx, stored); err != nil {
				s.logger.Warn("failed to refresh file record",
					zap.String("path", cand.path), zap.Error(err))
			}
			continue
		}

		changed = append(changed, cand)
	}

	return changed, nil
}

// indexFile chunks, embeds and stores one file. The file row and its
// full chunk set are written in a single transaction. A true fatal
// return means the store write failed and the cycle should stop.
func (s *Scheduler) indexFile(ctx context.Context, cand candidate) (int, bool, error) {
	content, err := os.ReadFile(cand.path)
	if err != nil {
		return 0, false, err
	}

	sum := sha256.Sum256(content)
	file := &storage.File{
		Path:        cand.path,
		ContentHash: hex.EncodeToString(sum[:]),
		ModTime:     cand.modTime,
		SizeBytes:   cand.size,
	}

	chunks := s.chunker.SplitFile(cand.path, string(content))

	rows := make([]*storage.Chunk, len(chunks))
	for i, c := range chunks {
		rows[i] = storage.FromTypesChunk(c, 0)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Workers)
	for i := range rows {
		g.Go(func() error {
			emb, err := s.embedder.GenerateEmbedding(gctx, embedder.EmbeddingRequest{
				Text: rows[i].Content,
			})
			if err != nil {
				return fmt.Errorf("chunk %d: %w", rows[i].Ordinal, err)
			}
			rows[i].Embedding = emb.Vector
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, false, err
	}

	file.LastIndexedAt = time.Now()
	if err := s.store.ReplaceFileChunks(ctx, file, rows); err != nil {
		return 0, true, err
	}

	return len(rows), false, nil
}

// collectDeleted finds stored files under the watch roots that no
// longer exist on disk.
func (s *Scheduler) collectDeleted(ctx context.Context, candidates []candidate) ([]*storage.File, error) {
	seen := make(map[string]bool, len(candidates))
	for _, cand := range candidates {
		seen[cand.path] = true
	}

	stored, err := s.store.ListFiles(ctx)
	if err != nil {
		return nil, err
	}

	var deleted []*storage.File
	for _, f := range stored {
		if seen[f.Path] || !s.underRoots(f.Path) {
			continue
		}
		if _, err := os.Stat(f.Path); err == nil {
			// still exists but was filtered out this cycle, keep it
			continue
		}
		deleted = append(deleted, f)
	}

	return deleted, nil
}

func (s *Scheduler) underRoots(path string) bool {
	for _, root := range s.cfg.Roots {
		rel, err := filepath.Rel(root, path)
		if err == nil && !strings.HasPrefix(rel, "..") {
			return true
		}
	}
	return false
}

// hashFile computes the SHA-256 of a file's content as a hex string.
func hashFile(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:]), nil
}
