// Package scorer ranks indexed units by cosine similarity to query vectors.
//
// A unit may occupy several index rows when its source was chunked, and the
// same unit may be hit by several query vectors. Every (query, row) pair
// contributes one score; the reported value per name is the arithmetic mean
// over all contributions. Identical scores are not deduplicated.
package scorer

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"testretriever/pkg/types"
)

// Result pairs a qualified unit name with its aggregated score.
type Result struct {
	Name  string
	Score float64
}

// Scorer computes similarity between query vectors and a loaded index.
type Scorer struct {
	logger *slog.Logger
}

// New returns a Scorer. A nil logger falls back to slog.Default.
func New(logger *slog.Logger) *Scorer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scorer{logger: logger}
}

// Score compares every query vector against every row of the index and
// returns the mean cosine similarity per qualified name.
func (s *Scorer) Score(queries [][]float32, index types.IndexShard) (map[string]float64, error) {
	if err := index.Validate(); err != nil {
		return nil, err
	}
	if index.Len() == 0 {
		return nil, types.ErrEmptyIndex
	}
	if len(queries) == 0 {
		return nil, fmt.Errorf("no query vectors")
	}

	dim := index.Dimension()
	collected := make(map[string][]float64, index.Len())
	for _, query := range queries {
		if len(query) != dim {
			return nil, fmt.Errorf("query dimension %d does not match index dimension %d: %w",
				len(query), dim, types.ErrDimensionMismatch)
		}
		for row, vector := range index.Vectors {
			name := index.Names[row]
			collected[name] = append(collected[name], cosineSimilarity(query, vector))
		}
	}

	scores := make(map[string]float64, len(collected))
	for name, values := range collected {
		var sum float64
		for _, v := range values {
			sum += v
		}
		scores[name] = sum / float64(len(values))
	}
	s.logger.Debug("scored index",
		slog.Int("queries", len(queries)),
		slog.Int("rows", index.Len()),
		slog.Int("names", len(scores)))
	return scores, nil
}

// Ranked flattens a score mapping into results sorted by descending score.
func Ranked(scores map[string]float64) []Result {
	results := make([]Result, 0, len(scores))
	for name, score := range scores {
		results = append(results, Result{Name: name, Score: score})
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Name < results[j].Name
	})
	return results
}

// CleanName rewrites the file-path part of a unit key to be relative to
// rootDir. Keys whose path lies outside rootDir are returned unchanged.
func CleanName(name, rootDir string) string {
	if rootDir == "" {
		return name
	}
	file, qualified := types.SplitKey(name)
	if file == "" {
		return name
	}
	rel, err := filepath.Rel(rootDir, file)
	if err != nil || strings.HasPrefix(rel, "..") {
		return name
	}
	if qualified == "" {
		return rel
	}
	return rel + ":" + qualified
}

// WriteMapping exports a score mapping as a JSON object of cleaned name to
// score, one file per experiment and query item. The parent directory is
// created as needed and the file is replaced atomically.
func (s *Scorer) WriteMapping(path string, scores map[string]float64, rootDir string) error {
	cleaned := make(map[string]float64, len(scores))
	for name, score := range scores {
		cleaned[CleanName(name, rootDir)] = score
	}

	data, err := json.MarshalIndent(cleaned, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal score mapping: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".mapping-*")
	if err != nil {
		return fmt.Errorf("create temp mapping file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write score mapping: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close score mapping: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("commit score mapping: %w", err)
	}
	s.logger.Info("wrote score mapping", slog.String("path", path), slog.Int("names", len(cleaned)))
	return nil
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i] * b[i])
		normA += float64(a[i] * a[i])
		normB += float64(b[i] * b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}
