package storage

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"regexp"
	"strings"
)

// searchText performs BM25 full-text search using FTS5. Scores are
// normalized into (0, 1], higher is better.
func searchText(ctx context.Context, q querier, query string, limit int) ([]TextResult, error) {
	sanitized := sanitizeFTSQuery(query)
	if sanitized == "" {
		return nil, fmt.Errorf("empty search query")
	}
	if limit <= 0 {
		limit = 10
	}

	// Note: in FTS5, bm25() returns negative scores where lower is a
	// better match.
	sqlQuery := `
		SELECT
			rowid as chunk_id,
			bm25(chunks_fts) as score
		FROM chunks_fts
		WHERE chunks_fts MATCH ?
		ORDER BY score LIMIT ?
	`

	rows, err := q.QueryContext(ctx, sqlQuery, sanitized, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to execute FTS search: %w", err)
	}
	defer func() { _ = rows.Close() }()

	results := make([]TextResult, 0)
	for rows.Next() {
		var result TextResult
		if err := rows.Scan(&result.ChunkID, &result.BM25Score); err != nil {
			return nil, err
		}

		// Convert BM25 score (negative, lower is better) to a positive
		// normalized score. BM25 scores are typically in range [-50, 0].
		result.BM25Score = 1.0 / (1.0 + math.Abs(result.BM25Score)/50.0)

		results = append(results, result)
	}

	return results, rows.Err()
}

// fetchResults loads chunk content and file metadata for a set of chunk
// ids. Ids with no matching row are absent from the returned map.
func fetchResults(ctx context.Context, q querier, chunkIDs []int64) (map[int64]*ResultRow, error) {
	out := make(map[int64]*ResultRow, len(chunkIDs))
	if len(chunkIDs) == 0 {
		return out, nil
	}

	placeholders := make([]string, len(chunkIDs))
	args := make([]interface{}, len(chunkIDs))
	for i, id := range chunkIDs {
		placeholders[i] = "?"
		args[i] = id
	}

	query := `
		SELECT c.id, c.file_id, f.path, c.ordinal, c.content,
		       c.start_offset, c.end_offset
		FROM chunks c
		INNER JOIN files f ON c.file_id = f.id
		WHERE c.id IN (` + strings.Join(placeholders, ",") + `)`

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch results: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var row ResultRow
		err := rows.Scan(&row.ChunkID, &row.FileID, &row.FilePath,
			&row.Ordinal, &row.Content, &row.StartOffset, &row.EndOffset)
		if err != nil {
			return nil, err
		}
		out[row.ChunkID] = &row
	}

	return out, rows.Err()
}

// serializeVector converts a float32 slice to a byte blob (little-endian)
func serializeVector(vector []float32) []byte {
	blob := make([]byte, len(vector)*4)
	for i, v := range vector {
		binary.LittleEndian.PutUint32(blob[i*4:], math.Float32bits(v))
	}
	return blob
}

// deserializeVector converts a byte blob back to a float32 slice
func deserializeVector(blob []byte) []float32 {
	vector := make([]float32, len(blob)/4)
	for i := range vector {
		bits := binary.LittleEndian.Uint32(blob[i*4:])
		vector[i] = math.Float32frombits(bits)
	}
	return vector
}

// FTS5 operator pattern for escaping Boolean operators
var ftsOperatorPattern = regexp.MustCompile(`\b(AND|OR|NOT|NEAR)\b`)

// sanitizeFTSQuery sanitizes a search query for FTS5 so user text is
// matched literally instead of parsed as FTS syntax.
func sanitizeFTSQuery(query string) string {
	if strings.TrimSpace(query) == "" {
		return ""
	}

	// Replace special characters that have meaning in FTS5
	replacer := strings.NewReplacer(
		`"`, `""`,
		`*`, ` `,
		`(`, ` `,
		`)`, ` `,
		`:`, ` `,
		`-`, ` `,
	)
	escaped := replacer.Replace(query)

	// Quote each term so Boolean operators match as plain words
	terms := strings.Fields(ftsOperatorPattern.ReplaceAllStringFunc(escaped, strings.ToLower))
	if len(terms) == 0 {
		return ""
	}
	for i, term := range terms {
		terms[i] = `"` + term + `"`
	}
	return strings.Join(terms, " ")
}

// SerializeVector is an exported helper for testing
func SerializeVector(vector []float32) []byte {
	return serializeVector(vector)
}

// DeserializeVector is an exported helper for testing
func DeserializeVector(blob []byte) []float32 {
	return deserializeVector(blob)
}
