package scheduler

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/filesense/filesense/internal/chunker"
	"github.com/filesense/filesense/internal/embedder"
	"github.com/filesense/filesense/internal/monitor"
	"github.com/filesense/filesense/internal/storage"
)

const testDimension = 8

type countingInvalidator struct {
	calls atomic.Int32
}

func (c *countingInvalidator) Invalidate() { c.calls.Add(1) }

// flakyEmbedder wraps the mock provider and fails for texts containing
// a marker string.
type flakyEmbedder struct {
	embedder.Embedder
	failOn string
	onCall func()
}

func (f *flakyEmbedder) GenerateEmbedding(ctx context.Context, req embedder.EmbeddingRequest) (*embedder.Embedding, error) {
	if f.onCall != nil {
		f.onCall()
	}
	if f.failOn != "" && strings.Contains(req.Text, f.failOn) {
		return nil, errors.New("provider unavailable")
	}
	return f.Embedder.GenerateEmbedding(ctx, req)
}

type testFixture struct {
	store     *storage.SQLiteStorage
	root      string
	probe     *monitor.StaticProbe
	index     *countingInvalidator
	scheduler *Scheduler
}

func setupScheduler(t *testing.T, emb embedder.Embedder) *testFixture {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:", testDimension)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	if emb == nil {
		emb, err = embedder.NewMockProvider(testDimension, nil)
		require.NoError(t, err)
	}

	root := t.TempDir()
	probe := &monitor.StaticProbe{Idle: time.Hour, Memory: 20}
	index := &countingInvalidator{}

	cfg := Config{
		Roots:             []string{root},
		Extensions:        []string{".md", ".txt", ".go"},
		MaxFileSize:       1 << 20,
		Interval:          time.Minute,
		BatchSize:         100,
		Workers:           2,
		MinIdle:           5 * time.Minute,
		MinBatteryPercent: 30,
		MaxMemoryPercent:  85,
	}

	return &testFixture{
		store:     store,
		root:      root,
		probe:     probe,
		index:     index,
		scheduler: New(store, chunker.New(), emb, index, probe, cfg, nil),
	}
}

func (f *testFixture) writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(f.root, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRunOnce_IndexesNewFiles(t *testing.T) {
	f := setupScheduler(t, nil)
	ctx := context.Background()

	f.writeFile(t, "notes.md", "Indexing begins with discovery.\n\nThen chunks are embedded.")
	f.writeFile(t, "readme.txt", "A second file with different content.")

	session, err := f.scheduler.RunOnce(ctx)
	require.NoError(t, err)
	require.NotNil(t, session)

	assert.Equal(t, storage.SessionCompleted, session.Status)
	assert.False(t, session.Interrupted)
	assert.Equal(t, 2, session.FilesScanned)
	assert.Equal(t, 2, session.FilesIndexed)
	assert.Greater(t, session.ChunksCreated, 0)
	assert.Equal(t, 0, session.ErrorCount)

	files, err := f.store.ListFiles(ctx)
	require.NoError(t, err)
	assert.Len(t, files, 2)

	total, embedded, err := f.store.CountChunks(ctx)
	require.NoError(t, err)
	assert.Equal(t, total, embedded)
	assert.Equal(t, session.ChunksCreated, total)

	assert.Equal(t, int32(1), f.index.calls.Load())

	stored, err := f.store.GetSession(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, storage.SessionCompleted, stored.Status)
	require.NotNil(t, stored.FinishedAt)
}

func TestRunOnce_SkipsWhenNotIdle(t *testing.T) {
	f := setupScheduler(t, nil)
	f.writeFile(t, "notes.md", "content")
	f.probe.Idle = time.Minute

	session, err := f.scheduler.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Nil(t, session)

	sessions, err := f.store.ListSessions(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, sessions)
	assert.Equal(t, int32(0), f.index.calls.Load())
}

func TestRunOnce_SkipsOnLowBattery(t *testing.T) {
	f := setupScheduler(t, nil)
	f.writeFile(t, "notes.md", "content")
	f.probe.Power = monitor.PowerState{OnBattery: true, BatteryPercent: 15}

	session, err := f.scheduler.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Nil(t, session)
}

func TestRunOnce_RunsOnHealthyBattery(t *testing.T) {
	f := setupScheduler(t, nil)
	f.writeFile(t, "notes.md", "content")
	f.probe.Power = monitor.PowerState{OnBattery: true, BatteryPercent: 80}

	session, err := f.scheduler.RunOnce(context.Background())
	require.NoError(t, err)
	require.NotNil(t, session)
	assert.Equal(t, 1, session.FilesIndexed)
}

func TestRunOnce_SkipsOnMemoryPressure(t *testing.T) {
	f := setupScheduler(t, nil)
	f.writeFile(t, "notes.md", "content")
	f.probe.Memory = 92

	session, err := f.scheduler.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Nil(t, session)
}

func TestRunOnce_SecondCycleFindsNothing(t *testing.T) {
	f := setupScheduler(t, nil)
	ctx := context.Background()
	f.writeFile(t, "notes.md", "stable content")

	first, err := f.scheduler.RunOnce(ctx)
	require.NoError(t, err)
	require.NotNil(t, first)

	second, err := f.scheduler.RunOnce(ctx)
	require.NoError(t, err)
	require.NotNil(t, second)
	assert.Equal(t, storage.SessionCompleted, second.Status)
	assert.Equal(t, 1, second.FilesScanned)
	assert.Equal(t, 0, second.FilesIndexed)
	assert.Equal(t, 0, second.ChunksCreated)
	assert.Equal(t, int32(1), f.index.calls.Load())
}

func TestRunOnce_DetectsModifiedFile(t *testing.T) {
	f := setupScheduler(t, nil)
	ctx := context.Background()
	path := f.writeFile(t, "notes.md", "original content")

	_, err := f.scheduler.RunOnce(ctx)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("rewritten content entirely"), 0o644))
	// force a visible mtime change on coarse-grained filesystems
	future := time.Now().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(path, future, future))

	session, err := f.scheduler.RunOnce(ctx)
	require.NoError(t, err)
	require.NotNil(t, session)
	assert.Equal(t, 1, session.FilesIndexed)

	file, err := f.store.GetFile(ctx, path)
	require.NoError(t, err)
	chunks, err := f.store.ListChunksByFile(ctx, file.ID)
	require.NoError(t, err)
	require.NotEmpty(t, chunks)
	assert.Contains(t, chunks[0].Content, "rewritten")
}

func TestRunOnce_TouchedButUnchangedContent(t *testing.T) {
	f := setupScheduler(t, nil)
	ctx := context.Background()
	path := f.writeFile(t, "notes.md", "same content")

	_, err := f.scheduler.RunOnce(ctx)
	require.NoError(t, err)

	future := time.Now().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(path, future, future))

	session, err := f.scheduler.RunOnce(ctx)
	require.NoError(t, err)
	require.NotNil(t, session)
	assert.Equal(t, storage.SessionCompleted, session.Status)
	assert.Equal(t, 0, session.FilesIndexed)
	assert.Equal(t, int32(1), f.index.calls.Load())
}

func TestRunOnce_PrunesDeletedFiles(t *testing.T) {
	f := setupScheduler(t, nil)
	ctx := context.Background()
	path := f.writeFile(t, "doomed.md", "will be deleted")
	f.writeFile(t, "stays.md", "still here")

	_, err := f.scheduler.RunOnce(ctx)
	require.NoError(t, err)

	require.NoError(t, os.Remove(path))

	session, err := f.scheduler.RunOnce(ctx)
	require.NoError(t, err)
	require.NotNil(t, session)

	_, err = f.store.GetFile(ctx, path)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	files, err := f.store.ListFiles(ctx)
	require.NoError(t, err)
	assert.Len(t, files, 1)
	assert.Equal(t, int32(2), f.index.calls.Load())
}

func TestRunOnce_FiltersHiddenAndForeignFiles(t *testing.T) {
	f := setupScheduler(t, nil)
	ctx := context.Background()

	f.writeFile(t, "visible.md", "indexed")
	f.writeFile(t, ".hidden.md", "not indexed")
	f.writeFile(t, ".git/config.md", "not indexed")
	f.writeFile(t, "binary.exe", "not indexed")

	session, err := f.scheduler.RunOnce(ctx)
	require.NoError(t, err)
	require.NotNil(t, session)
	assert.Equal(t, 1, session.FilesScanned)
	assert.Equal(t, 1, session.FilesIndexed)
}

func TestRunOnce_SessionRowVisibleWhileProcessing(t *testing.T) {
	mock, err := embedder.NewMockProvider(testDimension, nil)
	require.NoError(t, err)

	var running atomic.Bool
	emb := &flakyEmbedder{Embedder: mock}
	f := setupScheduler(t, emb)
	emb.onCall = func() {
		sessions, err := f.store.ListSessions(context.Background(), 1)
		if err == nil && len(sessions) == 1 && sessions[0].Status == storage.SessionRunning {
			running.Store(true)
		}
	}

	f.writeFile(t, "notes.md", "content observed mid-cycle")

	_, err = f.scheduler.RunOnce(context.Background())
	require.NoError(t, err)
	assert.True(t, running.Load())
}

func TestRunOnce_IsolatesUnreadableDirectories(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission checks do not apply to root")
	}

	f := setupScheduler(t, nil)
	ctx := context.Background()

	f.writeFile(t, "readable.md", "indexed fine")
	f.writeFile(t, "locked/secret.md", "never read")
	locked := filepath.Join(f.root, "locked")
	require.NoError(t, os.Chmod(locked, 0o000))
	t.Cleanup(func() { _ = os.Chmod(locked, 0o755) })

	session, err := f.scheduler.RunOnce(ctx)
	require.NoError(t, err)
	require.NotNil(t, session)
	assert.Equal(t, storage.SessionCompleted, session.Status)
	assert.Equal(t, 1, session.FilesIndexed)
	assert.Equal(t, 1, session.ErrorCount)
}

func TestRunOnce_SkipsOversizedFiles(t *testing.T) {
	f := setupScheduler(t, nil)
	f.scheduler.cfg.MaxFileSize = 10

	f.writeFile(t, "small.md", "tiny")
	f.writeFile(t, "large.md", strings.Repeat("x", 100))

	session, err := f.scheduler.RunOnce(context.Background())
	require.NoError(t, err)
	require.NotNil(t, session)
	assert.Equal(t, 1, session.FilesScanned)
	assert.Equal(t, 1, session.FilesIndexed)
}

func TestRunOnce_PerFileErrorsAreIsolated(t *testing.T) {
	mock, err := embedder.NewMockProvider(testDimension, nil)
	require.NoError(t, err)
	emb := &flakyEmbedder{Embedder: mock, failOn: "POISON"}

	f := setupScheduler(t, emb)
	ctx := context.Background()

	f.writeFile(t, "good.md", "healthy content")
	f.writeFile(t, "bad.md", "POISON pill content")

	session, err := f.scheduler.RunOnce(ctx)
	require.NoError(t, err)
	require.NotNil(t, session)

	assert.Equal(t, storage.SessionCompleted, session.Status)
	assert.Equal(t, 1, session.FilesIndexed)
	assert.Equal(t, 1, session.ErrorCount)

	files, err := f.store.ListFiles(ctx)
	require.NoError(t, err)
	assert.Len(t, files, 1)
}

func TestRunOnce_InterruptedMidBatch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	mock, err := embedder.NewMockProvider(testDimension, nil)
	require.NoError(t, err)
	emb := &flakyEmbedder{Embedder: mock, onCall: cancel}

	f := setupScheduler(t, emb)
	f.writeFile(t, "a.md", "first file")
	f.writeFile(t, "b.md", "second file")

	session, err := f.scheduler.RunOnce(ctx)
	require.NoError(t, err)
	require.NotNil(t, session)

	assert.True(t, session.Interrupted)
	assert.Equal(t, storage.SessionInterrupted, session.Status)

	stored, err := f.store.GetSession(context.Background(), session.ID)
	require.NoError(t, err)
	assert.Equal(t, storage.SessionInterrupted, stored.Status)
	assert.True(t, stored.Interrupted)
}

func TestRunOnce_CancelledBeforeStart(t *testing.T) {
	f := setupScheduler(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.scheduler.RunOnce(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestState_Transitions(t *testing.T) {
	f := setupScheduler(t, nil)
	assert.Equal(t, StateIdle, f.scheduler.State())

	_, err := f.scheduler.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateIdle, f.scheduler.State())
}

func TestRunOnce_RejectsOverlappingCycle(t *testing.T) {
	f := setupScheduler(t, nil)

	require.True(t, f.scheduler.lock.TryAcquire())
	defer f.scheduler.lock.Release()

	_, err := f.scheduler.RunOnce(context.Background())
	assert.ErrorIs(t, err, ErrCycleInProgress)
}

func TestRun_StopsOnCancel(t *testing.T) {
	f := setupScheduler(t, nil)
	f.scheduler.cfg.Interval = 10 * time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	err := f.scheduler.Run(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
