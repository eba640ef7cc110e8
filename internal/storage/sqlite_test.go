package storage

import (
	"context"
	"crypto/sha256"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *SQLiteStorage {
	// Use in-memory database for testing
	storage, err := NewSQLiteStorage(":memory:", 4)
	require.NoError(t, err)
	require.NotNil(t, storage)
	return storage
}

func testFile(path string) *File {
	return &File{
		Path:        path,
		ContentHash: "abc123",
		ModTime:     time.Now().Truncate(time.Second),
		SizeBytes:   1024,
	}
}

func testChunk(ordinal int, content string) *Chunk {
	return &Chunk{
		Ordinal:     ordinal,
		Content:     content,
		ContentHash: sha256.Sum256([]byte(content)),
		StartOffset: ordinal * 100,
		EndOffset:   ordinal*100 + len(content),
		Kind:        "prose",
	}
}

func TestNewSQLiteStorage(t *testing.T) {
	storage := setupTestDB(t)
	defer func() { _ = storage.Close() }()

	assert.NotNil(t, storage)
	assert.NotNil(t, storage.db)
	assert.Equal(t, 4, storage.Dimension())
}

func TestNewSQLiteStorage_InvalidDimension(t *testing.T) {
	_, err := NewSQLiteStorage(":memory:", 0)
	assert.Error(t, err)
}

func TestUpsertFile(t *testing.T) {
	storage := setupTestDB(t)
	defer func() { _ = storage.Close() }()
	ctx := context.Background()

	file := testFile("/home/user/notes.md")
	require.NoError(t, storage.UpsertFile(ctx, file))
	assert.NotZero(t, file.ID)

	// Upserting the same path keeps the row id and updates metadata
	again := testFile("/home/user/notes.md")
	again.ContentHash = "def456"
	require.NoError(t, storage.UpsertFile(ctx, again))
	assert.Equal(t, file.ID, again.ID)

	got, err := storage.GetFile(ctx, "/home/user/notes.md")
	require.NoError(t, err)
	assert.Equal(t, "def456", got.ContentHash)
}

func TestGetFile_NotFound(t *testing.T) {
	storage := setupTestDB(t)
	defer func() { _ = storage.Close() }()

	_, err := storage.GetFile(context.Background(), "/missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListFiles(t *testing.T) {
	storage := setupTestDB(t)
	defer func() { _ = storage.Close() }()
	ctx := context.Background()

	require.NoError(t, storage.UpsertFile(ctx, testFile("/b.txt")))
	require.NoError(t, storage.UpsertFile(ctx, testFile("/a.txt")))

	files, err := storage.ListFiles(ctx)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "/a.txt", files[0].Path)
	assert.Equal(t, "/b.txt", files[1].Path)
}

func TestDeleteFile_CascadesChunks(t *testing.T) {
	storage := setupTestDB(t)
	defer func() { _ = storage.Close() }()
	ctx := context.Background()

	file := testFile("/doomed.txt")
	require.NoError(t, storage.ReplaceFileChunks(ctx, file, []*Chunk{
		testChunk(0, "first chunk"),
		testChunk(1, "second chunk"),
	}))

	require.NoError(t, storage.DeleteFile(ctx, file.ID))

	chunks, err := storage.ListChunksByFile(ctx, file.ID)
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestInsertAndGetChunk(t *testing.T) {
	storage := setupTestDB(t)
	defer func() { _ = storage.Close() }()
	ctx := context.Background()

	file := testFile("/doc.txt")
	require.NoError(t, storage.UpsertFile(ctx, file))

	chunk := testChunk(0, "hello world")
	chunk.FileID = file.ID
	chunk.Embedding = []float32{1, 0, 0, 0}
	require.NoError(t, storage.InsertChunk(ctx, chunk))
	assert.NotZero(t, chunk.ID)

	got, err := storage.GetChunk(ctx, chunk.ID)
	require.NoError(t, err)
	assert.Equal(t, "hello world", got.Content)
	assert.Equal(t, chunk.ContentHash, got.ContentHash)
	assert.Equal(t, []float32{1, 0, 0, 0}, got.Embedding)
}

func TestGetChunk_NotFound(t *testing.T) {
	storage := setupTestDB(t)
	defer func() { _ = storage.Close() }()

	_, err := storage.GetChunk(context.Background(), 9999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReplaceFileChunks(t *testing.T) {
	storage := setupTestDB(t)
	defer func() { _ = storage.Close() }()
	ctx := context.Background()

	file := testFile("/journal.md")
	require.NoError(t, storage.ReplaceFileChunks(ctx, file, []*Chunk{
		testChunk(0, "old version part one"),
		testChunk(1, "old version part two"),
		testChunk(2, "old version part three"),
	}))

	// Re-chunk with fewer chunks; old set must be fully replaced
	file.ContentHash = "newhash"
	require.NoError(t, storage.ReplaceFileChunks(ctx, file, []*Chunk{
		testChunk(0, "new version all in one"),
	}))

	chunks, err := storage.ListChunksByFile(ctx, file.ID)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "new version all in one", chunks[0].Content)
	assert.Equal(t, 0, chunks[0].Ordinal)
}

func TestReplaceFileChunks_RollsBackOnError(t *testing.T) {
	storage := setupTestDB(t)
	defer func() { _ = storage.Close() }()
	ctx := context.Background()

	file := testFile("/keep.md")
	require.NoError(t, storage.ReplaceFileChunks(ctx, file, []*Chunk{
		testChunk(0, "original content"),
	}))

	bad := testChunk(0, "replacement")
	bad.Embedding = []float32{1, 2} // wrong dimension
	err := storage.ReplaceFileChunks(ctx, file, []*Chunk{bad})
	require.ErrorIs(t, err, ErrDimensionMismatch)

	// Old chunks must still be intact
	chunks, err := storage.ListChunksByFile(ctx, file.ID)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "original content", chunks[0].Content)
}

func TestGetAdjacentChunks(t *testing.T) {
	storage := setupTestDB(t)
	defer func() { _ = storage.Close() }()
	ctx := context.Background()

	file := testFile("/long.md")
	chunks := []*Chunk{
		testChunk(0, "chunk zero"),
		testChunk(1, "chunk one"),
		testChunk(2, "chunk two"),
		testChunk(3, "chunk three"),
		testChunk(4, "chunk four"),
	}
	require.NoError(t, storage.ReplaceFileChunks(ctx, file, chunks))

	// Middle of the file: full window
	got, err := storage.GetAdjacentChunks(ctx, chunks[2].ID, 1)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "chunk one", got[0].Content)
	assert.Equal(t, "chunk two", got[1].Content)
	assert.Equal(t, "chunk three", got[2].Content)

	// File start: missing left neighbors are simply absent
	got, err = storage.GetAdjacentChunks(ctx, chunks[0].ID, 2)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "chunk zero", got[0].Content)

	// Window zero: just the chunk itself
	got, err = storage.GetAdjacentChunks(ctx, chunks[3].ID, 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "chunk three", got[0].Content)
}

func TestSetChunkEmbedding(t *testing.T) {
	storage := setupTestDB(t)
	defer func() { _ = storage.Close() }()
	ctx := context.Background()

	file := testFile("/vec.txt")
	chunk := testChunk(0, "some content")
	require.NoError(t, storage.ReplaceFileChunks(ctx, file, []*Chunk{chunk}))

	require.NoError(t, storage.SetChunkEmbedding(ctx, chunk.ID, []float32{0.1, 0.2, 0.3, 0.4}))

	got, err := storage.GetChunk(ctx, chunk.ID)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float32{0.1, 0.2, 0.3, 0.4}, got.Embedding, 1e-6)
}

func TestSetChunkEmbedding_DimensionMismatch(t *testing.T) {
	storage := setupTestDB(t)
	defer func() { _ = storage.Close() }()
	ctx := context.Background()

	file := testFile("/vec.txt")
	chunk := testChunk(0, "some content")
	require.NoError(t, storage.ReplaceFileChunks(ctx, file, []*Chunk{chunk}))

	err := storage.SetChunkEmbedding(ctx, chunk.ID, []float32{1, 2, 3})
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestSetChunkEmbedding_MissingChunk(t *testing.T) {
	storage := setupTestDB(t)
	defer func() { _ = storage.Close() }()

	err := storage.SetChunkEmbedding(context.Background(), 404, []float32{1, 2, 3, 4})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListEmbeddedChunks_AscendingOrder(t *testing.T) {
	storage := setupTestDB(t)
	defer func() { _ = storage.Close() }()
	ctx := context.Background()

	file := testFile("/many.txt")
	chunks := []*Chunk{
		testChunk(0, "alpha"),
		testChunk(1, "beta"),
		testChunk(2, "gamma"),
	}
	require.NoError(t, storage.ReplaceFileChunks(ctx, file, chunks))

	// Embed out of order; listing must still come back by ascending id
	require.NoError(t, storage.SetChunkEmbedding(ctx, chunks[2].ID, []float32{0, 0, 1, 0}))
	require.NoError(t, storage.SetChunkEmbedding(ctx, chunks[0].ID, []float32{1, 0, 0, 0}))

	embedded, err := storage.ListEmbeddedChunks(ctx)
	require.NoError(t, err)
	require.Len(t, embedded, 2)
	assert.Equal(t, chunks[0].ID, embedded[0].ChunkID)
	assert.Equal(t, chunks[2].ID, embedded[1].ChunkID)
	assert.Less(t, embedded[0].ChunkID, embedded[1].ChunkID)
}

func TestCountChunks(t *testing.T) {
	storage := setupTestDB(t)
	defer func() { _ = storage.Close() }()
	ctx := context.Background()

	file := testFile("/count.txt")
	chunks := []*Chunk{testChunk(0, "one"), testChunk(1, "two")}
	require.NoError(t, storage.ReplaceFileChunks(ctx, file, chunks))
	require.NoError(t, storage.SetChunkEmbedding(ctx, chunks[0].ID, []float32{1, 0, 0, 0}))

	total, embedded, err := storage.CountChunks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Equal(t, 1, embedded)
}

func TestSessionLifecycle(t *testing.T) {
	storage := setupTestDB(t)
	defer func() { _ = storage.Close() }()
	ctx := context.Background()

	session := &Session{ID: "sess-1"}
	require.NoError(t, storage.CreateSession(ctx, session))

	// Before finalization the session is observably running
	got, err := storage.GetSession(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, SessionRunning, got.Status)
	assert.False(t, got.Interrupted)
	assert.Nil(t, got.FinishedAt)

	session.Status = SessionCompleted
	session.FilesScanned = 10
	session.FilesIndexed = 3
	session.ChunksCreated = 12
	require.NoError(t, storage.FinishSession(ctx, session))

	got, err = storage.GetSession(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, SessionCompleted, got.Status)
	assert.Equal(t, 10, got.FilesScanned)
	assert.Equal(t, 3, got.FilesIndexed)
	assert.Equal(t, 12, got.ChunksCreated)
	assert.NotNil(t, got.FinishedAt)
}

func TestSession_InterruptedState(t *testing.T) {
	storage := setupTestDB(t)
	defer func() { _ = storage.Close() }()
	ctx := context.Background()

	session := &Session{ID: "sess-2"}
	require.NoError(t, storage.CreateSession(ctx, session))

	session.Status = SessionInterrupted
	session.Interrupted = true
	session.FilesIndexed = 1
	require.NoError(t, storage.FinishSession(ctx, session))

	got, err := storage.GetSession(ctx, "sess-2")
	require.NoError(t, err)
	assert.Equal(t, SessionInterrupted, got.Status)
	assert.True(t, got.Interrupted)
}

func TestListSessions_MostRecentFirst(t *testing.T) {
	storage := setupTestDB(t)
	defer func() { _ = storage.Close() }()
	ctx := context.Background()

	old := &Session{ID: "old", StartedAt: time.Now().Add(-time.Hour)}
	recent := &Session{ID: "recent", StartedAt: time.Now()}
	require.NoError(t, storage.CreateSession(ctx, old))
	require.NoError(t, storage.CreateSession(ctx, recent))

	sessions, err := storage.ListSessions(ctx, 10)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, "recent", sessions[0].ID)
	assert.Equal(t, "old", sessions[1].ID)
}

func TestTransaction_Rollback(t *testing.T) {
	storage := setupTestDB(t)
	defer func() { _ = storage.Close() }()
	ctx := context.Background()

	tx, err := storage.BeginTx(ctx)
	require.NoError(t, err)

	file := testFile("/tx.txt")
	require.NoError(t, tx.UpsertFile(ctx, file))
	require.NoError(t, tx.Rollback())

	_, err = storage.GetFile(ctx, "/tx.txt")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTransaction_Commit(t *testing.T) {
	storage := setupTestDB(t)
	defer func() { _ = storage.Close() }()
	ctx := context.Background()

	tx, err := storage.BeginTx(ctx)
	require.NoError(t, err)

	file := testFile("/tx2.txt")
	require.NoError(t, tx.ReplaceFileChunks(ctx, file, []*Chunk{testChunk(0, "committed")}))
	require.NoError(t, tx.Commit())

	got, err := storage.GetFile(ctx, "/tx2.txt")
	require.NoError(t, err)
	assert.Equal(t, file.ID, got.ID)
}

func TestTransaction_NestedNotSupported(t *testing.T) {
	storage := setupTestDB(t)
	defer func() { _ = storage.Close() }()
	ctx := context.Background()

	tx, err := storage.BeginTx(ctx)
	require.NoError(t, err)
	defer func() { _ = tx.Rollback() }()

	_, err = tx.BeginTx(ctx)
	assert.Error(t, err)
}
