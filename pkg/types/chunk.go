package types

import (
	"crypto/sha256"
	"errors"
)

// ChunkKind represents the content class a chunk was split as
type ChunkKind string

const (
	KindCode  ChunkKind = "code"
	KindProse ChunkKind = "prose"
)

// Chunk represents a contiguous slice of file content for embedding and search
type Chunk struct {
	// Identification
	ID     int64
	FileID int64

	// Ordinal is the 0-based position of the chunk within its file.
	// Chunks of a file are contiguous: ordinals run 0..n-1 with no gaps.
	Ordinal int

	// Content
	Content     string
	ContentHash [32]byte // SHA-256 hash for deduplication

	// Location, byte offsets into the original file content
	StartOffset int
	EndOffset   int

	// Metadata
	Kind ChunkKind
}

// ValidateContent checks if the chunk content is valid
func (c *Chunk) ValidateContent() error {
	if c.Content == "" {
		return errors.New("chunk content cannot be empty")
	}

	if c.StartOffset < 0 || c.EndOffset < 0 {
		return errors.New("offsets must be non-negative")
	}

	if c.StartOffset >= c.EndOffset {
		return errors.New("start offset must be before end offset")
	}

	return nil
}

// ComputeContentHash computes the SHA-256 hash of the chunk content
func (c *Chunk) ComputeContentHash() {
	c.ContentHash = sha256.Sum256([]byte(c.Content))
}

// ValidateKind checks if the chunk kind is valid
func (c *Chunk) ValidateKind() error {
	switch c.Kind {
	case KindCode, KindProse:
		return nil
	default:
		return errors.New("invalid chunk kind")
	}
}

// Validate performs comprehensive validation of the chunk
func (c *Chunk) Validate() error {
	if err := c.ValidateContent(); err != nil {
		return err
	}

	if err := c.ValidateKind(); err != nil {
		return err
	}

	if c.Ordinal < 0 {
		return errors.New("ordinal must be non-negative")
	}

	// Verify content hash is computed
	var zeroHash [32]byte
	if c.ContentHash == zeroHash {
		return errors.New("content hash must be computed")
	}

	return nil
}
