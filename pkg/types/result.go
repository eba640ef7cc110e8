package types

// MatchSource identifies which retrieval path produced a search result
type MatchSource string

const (
	MatchVector  MatchSource = "vector"
	MatchKeyword MatchSource = "keyword"
	MatchBoth    MatchSource = "both"
)

// SearchResult represents a single search result with relevance information
type SearchResult struct {
	// Identification
	ChunkID int64
	Rank    int // Position in result set (1-based)

	// Scoring
	Distance   float64 // L2 distance in embedding space
	Similarity float64 // 1 / (1 + distance), in (0, 1]

	// Metadata
	Source  MatchSource
	File    *FileInfo
	Ordinal int
	Content string // Chunk content
}

// FileInfo contains file metadata for a search result
type FileInfo struct {
	Path        string
	StartOffset int
	EndOffset   int
}

// Validate checks if the search result is valid
func (sr *SearchResult) Validate() error {
	if sr.ChunkID == 0 {
		return ErrInvalidChunkID
	}

	if sr.Rank < 1 {
		return ErrInvalidRank
	}

	if sr.Similarity < 0 || sr.Similarity > 1 {
		return ErrInvalidSimilarity
	}

	if sr.File == nil {
		return ErrMissingFileInfo
	}

	if sr.Content == "" {
		return ErrEmptyContent
	}

	return nil
}
