package chunker

import (
	"crypto/sha256"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/filesense/filesense/pkg/types"
)

const (
	// DefaultCodeChunkSize is the target chunk size in bytes for code files
	DefaultCodeChunkSize = 350

	// DefaultProseChunkSize is the target chunk size in bytes for prose files
	DefaultProseChunkSize = 800
)

// codeExtensions maps file extensions treated as code. Everything else
// chunks as prose.
var codeExtensions = map[string]bool{
	".go": true, ".py": true, ".js": true, ".ts": true, ".jsx": true,
	".tsx": true, ".c": true, ".h": true, ".cpp": true, ".hpp": true,
	".cc": true, ".rs": true, ".java": true, ".sh": true, ".rb": true,
	".swift": true, ".kt": true, ".scala": true, ".sql": true,
	".json": true, ".yaml": true, ".yml": true, ".toml": true,
}

// Chunker splits file content into discrete, ordered chunks.
//
// Splitting is pure and deterministic: the same input always produces the
// same chunk sequence. Chunks never overlap and appear in file order.
type Chunker struct {
	codeSize  int
	proseSize int
}

// New creates a Chunker with the default chunk sizes
func New() *Chunker {
	return NewWithSizes(DefaultCodeChunkSize, DefaultProseChunkSize)
}

// NewWithSizes creates a Chunker with explicit target sizes in bytes
func NewWithSizes(codeSize, proseSize int) *Chunker {
	if codeSize <= 0 {
		codeSize = DefaultCodeChunkSize
	}
	if proseSize <= 0 {
		proseSize = DefaultProseChunkSize
	}
	return &Chunker{codeSize: codeSize, proseSize: proseSize}
}

// DetectKind classifies a file path as code or prose by extension
func DetectKind(path string) types.ChunkKind {
	ext := strings.ToLower(filepath.Ext(path))
	if codeExtensions[ext] {
		return types.KindCode
	}
	return types.KindProse
}

// SplitFile splits content using the kind detected from the file path
func (c *Chunker) SplitFile(path, content string) []*types.Chunk {
	return c.Split(content, DetectKind(path))
}

// Split splits text into chunks of the given kind.
//
// Code splits at line boundaries targeting the code chunk size. Prose
// splits at paragraph boundaries, falling back to sentence boundaries for
// oversized paragraphs. A region with no boundary inside the size window
// is cut at the size limit on a rune boundary.
//
// Empty or whitespace-only text yields no chunks.
func (c *Chunker) Split(text string, kind types.ChunkKind) []*types.Chunk {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var limit int
	var levels [][]int
	switch kind {
	case types.KindCode:
		limit = c.codeSize
		levels = [][]int{lineBoundaries(text)}
	default:
		kind = types.KindProse
		limit = c.proseSize
		levels = [][]int{paragraphBoundaries(text), sentenceBoundaries(text)}
	}

	cuts := cutPoints(text, limit, levels)
	segments := mergeBlankSegments(text, cuts)

	chunks := make([]*types.Chunk, 0, len(segments))
	for _, seg := range segments {
		chunk := &types.Chunk{
			Ordinal:     len(chunks),
			Content:     text[seg.start:seg.end],
			StartOffset: seg.start,
			EndOffset:   seg.end,
			Kind:        kind,
		}
		chunk.ComputeContentHash()
		chunks = append(chunks, chunk)
	}
	return chunks
}

type segment struct {
	start, end int
}

// cutPoints computes chunk start offsets greedily. At each position it
// takes the furthest boundary within the size window, trying boundary
// levels in priority order, and hard-cuts at the limit when no level has
// a boundary in the window.
func cutPoints(text string, limit int, levels [][]int) []int {
	cuts := []int{0}
	pos := 0

	for len(text)-pos > limit {
		next := 0
		for _, boundaries := range levels {
			if b := furthestWithin(boundaries, pos, pos+limit); b > 0 {
				next = b
				break
			}
		}
		if next == 0 {
			next = runeStart(text, pos+limit)
			if next <= pos {
				// Pathological limit smaller than one rune
				_, size := utf8.DecodeRuneInString(text[pos:])
				next = pos + size
			}
		}
		cuts = append(cuts, next)
		pos = next
	}
	return cuts
}

// furthestWithin returns the largest boundary b with lo < b <= hi, or 0
func furthestWithin(boundaries []int, lo, hi int) int {
	best := 0
	for _, b := range boundaries {
		if b <= lo {
			continue
		}
		if b > hi {
			break
		}
		best = b
	}
	return best
}

// runeStart backs off to the nearest rune start at or before pos
func runeStart(text string, pos int) int {
	for pos > 0 && !utf8.RuneStart(text[pos]) {
		pos--
	}
	return pos
}

// lineBoundaries returns the offset after each newline
func lineBoundaries(text string) []int {
	var out []int
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			out = append(out, i+1)
		}
	}
	return out
}

// paragraphBoundaries returns the offset after each blank-line run
func paragraphBoundaries(text string) []int {
	var out []int
	i := 0
	for i < len(text) {
		if text[i] != '\n' {
			i++
			continue
		}
		j := i
		for j < len(text) && (text[j] == '\n' || text[j] == '\r') {
			j++
		}
		if strings.Count(text[i:j], "\n") >= 2 {
			out = append(out, j)
		}
		i = j
	}
	return out
}

// sentenceBoundaries returns offsets after sentence-ending punctuation,
// with trailing spaces attached to the preceding sentence
func sentenceBoundaries(text string) []int {
	var out []int
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '.', '!', '?':
		default:
			continue
		}
		j := i + 1
		if j < len(text) && text[j] != ' ' && text[j] != '\n' && text[j] != '\t' {
			continue
		}
		for j < len(text) && text[j] == ' ' {
			j++
		}
		out = append(out, j)
	}
	return out
}

// mergeBlankSegments converts cut offsets into segments, folding any
// whitespace-only segment into its neighbor so every emitted chunk has
// visible content and the segments still cover the text end to end.
func mergeBlankSegments(text string, cuts []int) []segment {
	raw := make([]segment, 0, len(cuts))
	for i, start := range cuts {
		end := len(text)
		if i+1 < len(cuts) {
			end = cuts[i+1]
		}
		if start < end {
			raw = append(raw, segment{start, end})
		}
	}

	merged := make([]segment, 0, len(raw))
	for _, seg := range raw {
		if strings.TrimSpace(text[seg.start:seg.end]) == "" {
			if len(merged) > 0 {
				merged[len(merged)-1].end = seg.end
				continue
			}
			// Leading whitespace folds forward into the next segment
			merged = append(merged, seg)
			continue
		}
		if len(merged) > 0 && strings.TrimSpace(text[merged[len(merged)-1].start:merged[len(merged)-1].end]) == "" {
			merged[len(merged)-1].end = seg.end
			continue
		}
		merged = append(merged, seg)
	}

	// A file of pure whitespace never reaches here, Split returns early
	return merged
}

// ComputeChunkHash computes the SHA-256 hash for a chunk's content
func ComputeChunkHash(content string) [32]byte {
	return sha256.Sum256([]byte(content))
}
