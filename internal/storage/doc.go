// Package storage provides SQLite-based persistence for indexed file data.
//
// The storage layer manages:
//   - File metadata and content hashes
//   - Content chunks with their embeddings
//   - Full-text search indexes
//   - Indexing session records
//
// # Database Schema
//
// Tables:
//   - files: Absolute paths, SHA-256 hashes, sizes, modification times
//   - chunks: Ordered content chunks; embedding BLOB is NULL until encoded
//   - chunks_fts: FTS5 full-text index kept in sync by triggers
//   - sessions: One row per background indexing cycle
//
// # Basic Usage
//
//	db, err := storage.NewSQLiteStorage("~/.filesense/filesense.db", 384)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	err = db.ReplaceFileChunks(ctx, file, chunks)
//
// # Transactions
//
// Use transactions for atomic multi-step writes:
//
//	tx, err := db.BeginTx(ctx)
//	if err != nil {
//	    return err
//	}
//	defer tx.Rollback()
//
//	if err := tx.ReplaceFileChunks(ctx, file, chunks); err != nil {
//	    return err
//	}
//	return tx.Commit()
//
// ReplaceFileChunks on the storage itself opens its own transaction, so
// re-chunking a file is all-or-nothing either way: readers never observe
// a file with a partial chunk set.
//
// # Sessions
//
// A session row is created with status 'running' before a cycle touches
// any file and finalized exactly once with 'completed', 'interrupted' or
// 'failed'. A row still 'running' with the process gone means the cycle
// crashed; nothing ever marks work completed by default.
//
// # Embedding Vectors
//
// Vectors are stored little-endian float32 in the chunks.embedding BLOB.
// Writes are rejected with ErrDimensionMismatch when the vector length
// does not match the dimension the store was opened with.
//
// # Build Modes
//
// Two SQLite drivers are supported via build tags: the default pure Go
// driver (modernc.org/sqlite) and the C driver (mattn/go-sqlite3) behind
// the cgo_sqlite tag.
package storage
