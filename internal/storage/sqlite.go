package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotFound is returned when a requested entity doesn't exist
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when trying to create a duplicate entity
	ErrAlreadyExists = errors.New("already exists")
	// ErrDimensionMismatch is returned when a vector of the wrong size is
	// written to a chunk
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)

// SQLiteStorage implements the Storage interface using SQLite
type SQLiteStorage struct {
	db        *sql.DB
	dimension int
}

// openDatabase opens a SQLite database with appropriate settings
func openDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(1) // SQLite benefits from single writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// NewSQLiteStorage creates a new SQLite storage instance. The dimension
// is enforced on every embedding write.
func NewSQLiteStorage(dbPath string, dimension int) (*SQLiteStorage, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("embedding dimension must be positive, got %d", dimension)
	}

	db, err := openDatabase(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Apply migrations
	if err := ApplyMigrations(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return &SQLiteStorage{db: db, dimension: dimension}, nil
}

// Dimension returns the embedding dimension this store enforces
func (s *SQLiteStorage) Dimension() int {
	return s.dimension
}

// Close closes the database connection
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// BeginTx starts a new transaction
func (s *SQLiteStorage) BeginTx(ctx context.Context) (Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &sqliteTx{tx: tx, storage: s}, nil
}

// querier is an interface that both *sql.DB and *sql.Tx implement
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// sqliteTx wraps a SQL transaction
type sqliteTx struct {
	tx      *sql.Tx
	storage *SQLiteStorage
}

func (t *sqliteTx) Commit() error {
	return t.tx.Commit()
}

func (t *sqliteTx) Rollback() error {
	return t.tx.Rollback()
}

// querier returns the transaction querier
func (t *sqliteTx) querier() querier {
	return t.tx
}

// querier returns the DB querier
func (s *SQLiteStorage) querier() querier {
	return s.db
}

// File operations

// upsertFileWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) upsertFileWithQuerier(ctx context.Context, q querier, file *File) error {
	query := `
		INSERT INTO files (path, content_hash, mod_time, size_bytes, last_indexed_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			content_hash = excluded.content_hash,
			mod_time = excluded.mod_time,
			size_bytes = excluded.size_bytes,
			last_indexed_at = excluded.last_indexed_at,
			updated_at = excluded.updated_at
		RETURNING id
	`
	now := time.Now()
	err := q.QueryRowContext(ctx, query,
		file.Path, file.ContentHash, file.ModTime, file.SizeBytes,
		now, now, now).Scan(&file.ID)
	if err != nil {
		return fmt.Errorf("failed to upsert file: %w", err)
	}

	file.LastIndexedAt = now
	file.UpdatedAt = now
	return nil
}

func (s *SQLiteStorage) UpsertFile(ctx context.Context, file *File) error {
	return s.upsertFileWithQuerier(ctx, s.querier(), file)
}

// getFileWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) getFileWithQuerier(ctx context.Context, q querier, path string) (*File, error) {
	query := `
		SELECT id, path, content_hash, mod_time, size_bytes,
		       last_indexed_at, created_at, updated_at
		FROM files
		WHERE path = ?
	`
	return scanFile(q.QueryRowContext(ctx, query, path))
}

func (s *SQLiteStorage) GetFile(ctx context.Context, path string) (*File, error) {
	return s.getFileWithQuerier(ctx, s.querier(), path)
}

// getFileByIDWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) getFileByIDWithQuerier(ctx context.Context, q querier, fileID int64) (*File, error) {
	query := `
		SELECT id, path, content_hash, mod_time, size_bytes,
		       last_indexed_at, created_at, updated_at
		FROM files
		WHERE id = ?
	`
	return scanFile(q.QueryRowContext(ctx, query, fileID))
}

func (s *SQLiteStorage) GetFileByID(ctx context.Context, fileID int64) (*File, error) {
	return s.getFileByIDWithQuerier(ctx, s.querier(), fileID)
}

func scanFile(row *sql.Row) (*File, error) {
	var file File
	var lastIndexedAt sql.NullTime
	err := row.Scan(
		&file.ID, &file.Path, &file.ContentHash, &file.ModTime,
		&file.SizeBytes, &lastIndexedAt, &file.CreatedAt, &file.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if lastIndexedAt.Valid {
		file.LastIndexedAt = lastIndexedAt.Time
	}
	return &file, nil
}

// deleteFileWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) deleteFileWithQuerier(ctx context.Context, q querier, fileID int64) error {
	query := `DELETE FROM files WHERE id = ?`
	_, err := q.ExecContext(ctx, query, fileID)
	return err
}

func (s *SQLiteStorage) DeleteFile(ctx context.Context, fileID int64) error {
	return s.deleteFileWithQuerier(ctx, s.querier(), fileID)
}

// listFilesWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) listFilesWithQuerier(ctx context.Context, q querier) ([]*File, error) {
	query := `
		SELECT id, path, content_hash, mod_time, size_bytes,
		       last_indexed_at, created_at, updated_at
		FROM files
		ORDER BY path
	`
	rows, err := q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	files := make([]*File, 0)
	for rows.Next() {
		var file File
		var lastIndexedAt sql.NullTime

		err := rows.Scan(
			&file.ID, &file.Path, &file.ContentHash, &file.ModTime,
			&file.SizeBytes, &lastIndexedAt, &file.CreatedAt, &file.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		if lastIndexedAt.Valid {
			file.LastIndexedAt = lastIndexedAt.Time
		}

		files = append(files, &file)
	}
	return files, rows.Err()
}

func (s *SQLiteStorage) ListFiles(ctx context.Context) ([]*File, error) {
	return s.listFilesWithQuerier(ctx, s.querier())
}

// Chunk operations

// insertChunkWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) insertChunkWithQuerier(ctx context.Context, q querier, chunk *Chunk) error {
	var embedding []byte
	var embeddingDim interface{}
	if chunk.Embedding != nil {
		if len(chunk.Embedding) != s.dimension {
			return fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(chunk.Embedding), s.dimension)
		}
		embedding = serializeVector(chunk.Embedding)
		embeddingDim = len(chunk.Embedding)
	}

	query := `
		INSERT INTO chunks (
			file_id, ordinal, content, content_hash,
			start_offset, end_offset, kind, embedding, embedding_dim, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id, created_at
	`
	now := time.Now()
	err := q.QueryRowContext(ctx, query,
		chunk.FileID, chunk.Ordinal, chunk.Content, chunk.ContentHash[:],
		chunk.StartOffset, chunk.EndOffset, chunk.Kind, embedding, embeddingDim, now,
	).Scan(&chunk.ID, &chunk.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to insert chunk: %w", err)
	}

	return nil
}

func (s *SQLiteStorage) InsertChunk(ctx context.Context, chunk *Chunk) error {
	return s.insertChunkWithQuerier(ctx, s.querier(), chunk)
}

const chunkColumns = `id, file_id, ordinal, content, content_hash,
       start_offset, end_offset, kind, embedding, created_at`

func scanChunk(scan func(dest ...interface{}) error) (*Chunk, error) {
	var chunk Chunk
	var hash []byte
	var embedding []byte

	err := scan(
		&chunk.ID, &chunk.FileID, &chunk.Ordinal, &chunk.Content, &hash,
		&chunk.StartOffset, &chunk.EndOffset, &chunk.Kind, &embedding,
		&chunk.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	copy(chunk.ContentHash[:], hash)
	if embedding != nil {
		chunk.Embedding = deserializeVector(embedding)
	}
	return &chunk, nil
}

// getChunkWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) getChunkWithQuerier(ctx context.Context, q querier, chunkID int64) (*Chunk, error) {
	query := `SELECT ` + chunkColumns + ` FROM chunks WHERE id = ?`
	chunk, err := scanChunk(q.QueryRowContext(ctx, query, chunkID).Scan)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return chunk, nil
}

func (s *SQLiteStorage) GetChunk(ctx context.Context, chunkID int64) (*Chunk, error) {
	return s.getChunkWithQuerier(ctx, s.querier(), chunkID)
}

// listChunksByFileWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) listChunksByFileWithQuerier(ctx context.Context, q querier, fileID int64) ([]*Chunk, error) {
	query := `SELECT ` + chunkColumns + ` FROM chunks WHERE file_id = ? ORDER BY ordinal`
	rows, err := q.QueryContext(ctx, query, fileID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	chunks := make([]*Chunk, 0)
	for rows.Next() {
		chunk, err := scanChunk(rows.Scan)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, chunk)
	}
	return chunks, rows.Err()
}

func (s *SQLiteStorage) ListChunksByFile(ctx context.Context, fileID int64) ([]*Chunk, error) {
	return s.listChunksByFileWithQuerier(ctx, s.querier(), fileID)
}

// getAdjacentChunksWithQuerier returns the chunk plus up to window
// ordinal-neighbors on each side within the same file, in ordinal order.
// Neighbors missing at file boundaries are simply absent.
func (s *SQLiteStorage) getAdjacentChunksWithQuerier(ctx context.Context, q querier, chunkID int64, window int) ([]*Chunk, error) {
	if window < 0 {
		window = 0
	}

	center, err := s.getChunkWithQuerier(ctx, q, chunkID)
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + chunkColumns + `
		FROM chunks
		WHERE file_id = ? AND ordinal BETWEEN ? AND ?
		ORDER BY ordinal`
	rows, err := q.QueryContext(ctx, query,
		center.FileID, center.Ordinal-window, center.Ordinal+window)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	chunks := make([]*Chunk, 0, 2*window+1)
	for rows.Next() {
		chunk, err := scanChunk(rows.Scan)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, chunk)
	}
	return chunks, rows.Err()
}

func (s *SQLiteStorage) GetAdjacentChunks(ctx context.Context, chunkID int64, window int) ([]*Chunk, error) {
	return s.getAdjacentChunksWithQuerier(ctx, s.querier(), chunkID, window)
}

// deleteChunksByFileWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) deleteChunksByFileWithQuerier(ctx context.Context, q querier, fileID int64) error {
	query := `DELETE FROM chunks WHERE file_id = ?`
	_, err := q.ExecContext(ctx, query, fileID)
	return err
}

func (s *SQLiteStorage) DeleteChunksByFile(ctx context.Context, fileID int64) error {
	return s.deleteChunksByFileWithQuerier(ctx, s.querier(), fileID)
}

// countChunksWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) countChunksWithQuerier(ctx context.Context, q querier) (int, int, error) {
	var total, embedded int
	err := q.QueryRowContext(ctx,
		"SELECT COUNT(*), COUNT(embedding) FROM chunks").Scan(&total, &embedded)
	if err != nil {
		return 0, 0, err
	}
	return total, embedded, nil
}

func (s *SQLiteStorage) CountChunks(ctx context.Context) (int, int, error) {
	return s.countChunksWithQuerier(ctx, s.querier())
}

// replaceFileChunksWithQuerier writes the file row and its complete chunk
// set. Callers must run it inside a transaction so a failure leaves the
// previous version of the file intact.
func (s *SQLiteStorage) replaceFileChunksWithQuerier(ctx context.Context, q querier, file *File, chunks []*Chunk) error {
	if err := s.upsertFileWithQuerier(ctx, q, file); err != nil {
		return err
	}

	if err := s.deleteChunksByFileWithQuerier(ctx, q, file.ID); err != nil {
		return fmt.Errorf("failed to delete old chunks: %w", err)
	}

	for _, chunk := range chunks {
		chunk.FileID = file.ID
		if err := s.insertChunkWithQuerier(ctx, q, chunk); err != nil {
			return err
		}
	}

	return nil
}

// ReplaceFileChunks atomically replaces a file row and all of its chunks
func (s *SQLiteStorage) ReplaceFileChunks(ctx context.Context, file *File, chunks []*Chunk) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	if err := s.replaceFileChunksWithQuerier(ctx, tx, file, chunks); err != nil {
		_ = tx.Rollback()
		return err
	}

	return tx.Commit()
}

// Embedding operations

// setChunkEmbeddingWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) setChunkEmbeddingWithQuerier(ctx context.Context, q querier, chunkID int64, vector []float32) error {
	if len(vector) != s.dimension {
		return fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(vector), s.dimension)
	}

	query := `UPDATE chunks SET embedding = ?, embedding_dim = ? WHERE id = ?`
	result, err := q.ExecContext(ctx, query, serializeVector(vector), len(vector), chunkID)
	if err != nil {
		return fmt.Errorf("failed to set embedding: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStorage) SetChunkEmbedding(ctx context.Context, chunkID int64, vector []float32) error {
	return s.setChunkEmbeddingWithQuerier(ctx, s.querier(), chunkID, vector)
}

// listEmbeddedChunksWithQuerier returns every stored vector in ascending
// chunk id order, the order index snapshots are built in
func (s *SQLiteStorage) listEmbeddedChunksWithQuerier(ctx context.Context, q querier) ([]EmbeddedChunk, error) {
	query := `
		SELECT id, embedding
		FROM chunks
		WHERE embedding IS NOT NULL
		ORDER BY id ASC
	`
	rows, err := q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	out := make([]EmbeddedChunk, 0)
	for rows.Next() {
		var ec EmbeddedChunk
		var blob []byte
		if err := rows.Scan(&ec.ChunkID, &blob); err != nil {
			return nil, err
		}
		ec.Vector = deserializeVector(blob)
		out = append(out, ec)
	}
	return out, rows.Err()
}

func (s *SQLiteStorage) ListEmbeddedChunks(ctx context.Context) ([]EmbeddedChunk, error) {
	return s.listEmbeddedChunksWithQuerier(ctx, s.querier())
}

// Search operations

func (s *SQLiteStorage) SearchText(ctx context.Context, query string, limit int) ([]TextResult, error) {
	return searchText(ctx, s.db, query, limit)
}

func (s *SQLiteStorage) FetchResults(ctx context.Context, chunkIDs []int64) (map[int64]*ResultRow, error) {
	return fetchResults(ctx, s.db, chunkIDs)
}

// Session operations

// createSessionWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) createSessionWithQuerier(ctx context.Context, q querier, session *Session) error {
	if session.Status == "" {
		session.Status = SessionRunning
	}
	if session.StartedAt.IsZero() {
		session.StartedAt = time.Now()
	}

	query := `
		INSERT INTO sessions (id, started_at, status, interrupted,
			files_scanned, files_indexed, chunks_created, error_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := q.ExecContext(ctx, query,
		session.ID, session.StartedAt, session.Status, session.Interrupted,
		session.FilesScanned, session.FilesIndexed, session.ChunksCreated, session.ErrorCount)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) CreateSession(ctx context.Context, session *Session) error {
	return s.createSessionWithQuerier(ctx, s.querier(), session)
}

// finishSessionWithQuerier records the terminal state of a session
func (s *SQLiteStorage) finishSessionWithQuerier(ctx context.Context, q querier, session *Session) error {
	if session.FinishedAt == nil {
		now := time.Now()
		session.FinishedAt = &now
	}

	query := `
		UPDATE sessions
		SET finished_at = ?, status = ?, interrupted = ?,
		    files_scanned = ?, files_indexed = ?, chunks_created = ?, error_count = ?
		WHERE id = ?
	`
	result, err := q.ExecContext(ctx, query,
		session.FinishedAt, session.Status, session.Interrupted,
		session.FilesScanned, session.FilesIndexed, session.ChunksCreated,
		session.ErrorCount, session.ID)
	if err != nil {
		return fmt.Errorf("failed to finish session: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStorage) FinishSession(ctx context.Context, session *Session) error {
	return s.finishSessionWithQuerier(ctx, s.querier(), session)
}

const sessionColumns = `id, started_at, finished_at, status, interrupted,
       files_scanned, files_indexed, chunks_created, error_count`

func scanSession(scan func(dest ...interface{}) error) (*Session, error) {
	var session Session
	var finishedAt sql.NullTime
	err := scan(
		&session.ID, &session.StartedAt, &finishedAt, &session.Status,
		&session.Interrupted, &session.FilesScanned, &session.FilesIndexed,
		&session.ChunksCreated, &session.ErrorCount,
	)
	if err != nil {
		return nil, err
	}
	if finishedAt.Valid {
		session.FinishedAt = &finishedAt.Time
	}
	return &session, nil
}

// getSessionWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) getSessionWithQuerier(ctx context.Context, q querier, id string) (*Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE id = ?`
	session, err := scanSession(q.QueryRowContext(ctx, query, id).Scan)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return session, nil
}

func (s *SQLiteStorage) GetSession(ctx context.Context, id string) (*Session, error) {
	return s.getSessionWithQuerier(ctx, s.querier(), id)
}

// listSessionsWithQuerier returns the most recent sessions first
func (s *SQLiteStorage) listSessionsWithQuerier(ctx context.Context, q querier, limit int) ([]*Session, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `SELECT ` + sessionColumns + ` FROM sessions ORDER BY started_at DESC LIMIT ?`
	rows, err := q.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	sessions := make([]*Session, 0)
	for rows.Next() {
		session, err := scanSession(rows.Scan)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}

func (s *SQLiteStorage) ListSessions(ctx context.Context, limit int) ([]*Session, error) {
	return s.listSessionsWithQuerier(ctx, s.querier(), limit)
}

// Transaction implementations

func (t *sqliteTx) UpsertFile(ctx context.Context, file *File) error {
	return t.storage.upsertFileWithQuerier(ctx, t.querier(), file)
}

func (t *sqliteTx) GetFile(ctx context.Context, path string) (*File, error) {
	return t.storage.getFileWithQuerier(ctx, t.querier(), path)
}

func (t *sqliteTx) GetFileByID(ctx context.Context, fileID int64) (*File, error) {
	return t.storage.getFileByIDWithQuerier(ctx, t.querier(), fileID)
}

func (t *sqliteTx) DeleteFile(ctx context.Context, fileID int64) error {
	return t.storage.deleteFileWithQuerier(ctx, t.querier(), fileID)
}

func (t *sqliteTx) ListFiles(ctx context.Context) ([]*File, error) {
	return t.storage.listFilesWithQuerier(ctx, t.querier())
}

func (t *sqliteTx) InsertChunk(ctx context.Context, chunk *Chunk) error {
	return t.storage.insertChunkWithQuerier(ctx, t.querier(), chunk)
}

func (t *sqliteTx) GetChunk(ctx context.Context, chunkID int64) (*Chunk, error) {
	return t.storage.getChunkWithQuerier(ctx, t.querier(), chunkID)
}

func (t *sqliteTx) ListChunksByFile(ctx context.Context, fileID int64) ([]*Chunk, error) {
	return t.storage.listChunksByFileWithQuerier(ctx, t.querier(), fileID)
}

func (t *sqliteTx) GetAdjacentChunks(ctx context.Context, chunkID int64, window int) ([]*Chunk, error) {
	return t.storage.getAdjacentChunksWithQuerier(ctx, t.querier(), chunkID, window)
}

func (t *sqliteTx) DeleteChunksByFile(ctx context.Context, fileID int64) error {
	return t.storage.deleteChunksByFileWithQuerier(ctx, t.querier(), fileID)
}

func (t *sqliteTx) CountChunks(ctx context.Context) (int, int, error) {
	return t.storage.countChunksWithQuerier(ctx, t.querier())
}

func (t *sqliteTx) ReplaceFileChunks(ctx context.Context, file *File, chunks []*Chunk) error {
	return t.storage.replaceFileChunksWithQuerier(ctx, t.querier(), file, chunks)
}

func (t *sqliteTx) SetChunkEmbedding(ctx context.Context, chunkID int64, vector []float32) error {
	return t.storage.setChunkEmbeddingWithQuerier(ctx, t.querier(), chunkID, vector)
}

func (t *sqliteTx) ListEmbeddedChunks(ctx context.Context) ([]EmbeddedChunk, error) {
	return t.storage.listEmbeddedChunksWithQuerier(ctx, t.querier())
}

func (t *sqliteTx) SearchText(ctx context.Context, query string, limit int) ([]TextResult, error) {
	return searchText(ctx, t.tx, query, limit)
}

func (t *sqliteTx) FetchResults(ctx context.Context, chunkIDs []int64) (map[int64]*ResultRow, error) {
	return fetchResults(ctx, t.tx, chunkIDs)
}

func (t *sqliteTx) CreateSession(ctx context.Context, session *Session) error {
	return t.storage.createSessionWithQuerier(ctx, t.querier(), session)
}

func (t *sqliteTx) FinishSession(ctx context.Context, session *Session) error {
	return t.storage.finishSessionWithQuerier(ctx, t.querier(), session)
}

func (t *sqliteTx) GetSession(ctx context.Context, id string) (*Session, error) {
	return t.storage.getSessionWithQuerier(ctx, t.querier(), id)
}

func (t *sqliteTx) ListSessions(ctx context.Context, limit int) ([]*Session, error) {
	return t.storage.listSessionsWithQuerier(ctx, t.querier(), limit)
}

func (t *sqliteTx) Close() error {
	// Transactions don't close the underlying connection
	return nil
}

func (t *sqliteTx) BeginTx(ctx context.Context) (Tx, error) {
	// SQLite does not support true nested transactions
	return nil, errors.New("nested transactions not supported")
}
