package storage

import (
	"context"
	"time"

	"github.com/filesense/filesense/pkg/types"
)

// Storage defines the interface for persisting and querying indexed file data
type Storage interface {
	// File operations
	UpsertFile(ctx context.Context, file *File) error
	GetFile(ctx context.Context, path string) (*File, error)
	GetFileByID(ctx context.Context, fileID int64) (*File, error)
	DeleteFile(ctx context.Context, fileID int64) error
	ListFiles(ctx context.Context) ([]*File, error)

	// Chunk operations
	InsertChunk(ctx context.Context, chunk *Chunk) error
	GetChunk(ctx context.Context, chunkID int64) (*Chunk, error)
	ListChunksByFile(ctx context.Context, fileID int64) ([]*Chunk, error)
	GetAdjacentChunks(ctx context.Context, chunkID int64, window int) ([]*Chunk, error)
	DeleteChunksByFile(ctx context.Context, fileID int64) error
	CountChunks(ctx context.Context) (total, embedded int, err error)

	// ReplaceFileChunks atomically writes a file row and its full chunk
	// set, removing any chunks from a previous version of the file.
	ReplaceFileChunks(ctx context.Context, file *File, chunks []*Chunk) error

	// Embedding operations
	SetChunkEmbedding(ctx context.Context, chunkID int64, vector []float32) error
	ListEmbeddedChunks(ctx context.Context) ([]EmbeddedChunk, error)

	// Search operations
	SearchText(ctx context.Context, query string, limit int) ([]TextResult, error)
	FetchResults(ctx context.Context, chunkIDs []int64) (map[int64]*ResultRow, error)

	// Session operations
	CreateSession(ctx context.Context, session *Session) error
	FinishSession(ctx context.Context, session *Session) error
	GetSession(ctx context.Context, id string) (*Session, error)
	ListSessions(ctx context.Context, limit int) ([]*Session, error)

	// Database operations
	Close() error
	BeginTx(ctx context.Context) (Tx, error)
}

// Tx represents a database transaction
type Tx interface {
	Commit() error
	Rollback() error
	Storage // Embed Storage interface for transaction operations
}

// File represents a tracked file on disk
type File struct {
	ID            int64
	Path          string // Absolute path
	ContentHash   string // Hex-encoded SHA-256 of file content
	ModTime       time.Time
	SizeBytes     int64
	LastIndexedAt time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Chunk represents a stored content chunk. Embedding is nil until the
// chunk has been encoded.
type Chunk struct {
	ID          int64
	FileID      int64
	Ordinal     int
	Content     string
	ContentHash [32]byte
	StartOffset int
	EndOffset   int
	Kind        string
	Embedding   []float32 // nil when not yet encoded
	CreatedAt   time.Time
}

// EmbeddedChunk pairs a chunk id with its stored vector, used for index
// builds. Rows are returned in ascending chunk id order.
type EmbeddedChunk struct {
	ChunkID int64
	Vector  []float32
}

// TextResult represents a result from full-text search
type TextResult struct {
	ChunkID   int64
	BM25Score float64
}

// ResultRow joins a chunk with its file metadata for search result assembly
type ResultRow struct {
	ChunkID     int64
	FileID      int64
	FilePath    string
	Ordinal     int
	Content     string
	StartOffset int
	EndOffset   int
}

// SessionStatus enumerates indexing session outcomes
type SessionStatus string

const (
	SessionRunning     SessionStatus = "running"
	SessionCompleted   SessionStatus = "completed"
	SessionInterrupted SessionStatus = "interrupted"
	SessionFailed      SessionStatus = "failed"
)

// Session represents one background indexing cycle
type Session struct {
	ID            string
	StartedAt     time.Time
	FinishedAt    *time.Time
	Status        SessionStatus
	Interrupted   bool
	FilesScanned  int
	FilesIndexed  int
	ChunksCreated int
	ErrorCount    int
}

// FromTypesChunk converts a chunker output chunk to a storage row
func FromTypesChunk(c *types.Chunk, fileID int64) *Chunk {
	return &Chunk{
		FileID:      fileID,
		Ordinal:     c.Ordinal,
		Content:     c.Content,
		ContentHash: c.ContentHash,
		StartOffset: c.StartOffset,
		EndOffset:   c.EndOffset,
		Kind:        string(c.Kind),
	}
}

// ToTypesChunk converts a storage row to the shared chunk type
func (c *Chunk) ToTypesChunk() *types.Chunk {
	return &types.Chunk{
		ID:          c.ID,
		FileID:      c.FileID,
		Ordinal:     c.Ordinal,
		Content:     c.Content,
		ContentHash: c.ContentHash,
		StartOffset: c.StartOffset,
		EndOffset:   c.EndOffset,
		Kind:        types.ChunkKind(c.Kind),
	}
}
