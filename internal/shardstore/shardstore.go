package shardstore

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"

	"testretriever/pkg/types"
)

// Shard file naming. Vector blocks and name mappings share the same
// salt+rank token so the two independently sorted file lists pair up
// index-aligned at load time.
const (
	vectorPrefix  = "unittest_index_"
	mappingPrefix = "unittest_index_mapping_"
	vectorExt     = ".vec"
	mappingExt    = ".json"
)

// Store persists and loads embedding index shards. Each shard is a pair of
// artifacts: a binary vector block and a JSON document whose "mapping"
// array order matches the block's row order. Concurrent producers write
// distinct salt+rank ids and never collide.
type Store struct {
	dir    string
	logger *slog.Logger
}

// New creates a shard store rooted at dir
func New(dir string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create shard directory: %w", err)
	}
	return &Store{dir: dir, logger: logger}, nil
}

// NewSalt returns a fresh random token for a shard id
func NewSalt() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// Persist writes one shard under the given salt and rank, returning the two
// artifact paths. Both files are committed with an atomic rename so a
// concurrent load never observes a partial shard.
func (s *Store) Persist(shard types.IndexShard, salt string, rank int) (vecPath, mapPath string, err error) {
	if err := shard.Validate(); err != nil {
		return "", "", err
	}

	vecPath = filepath.Join(s.dir, fmt.Sprintf("%s%s_%d%s", vectorPrefix, salt, rank, vectorExt))
	mapPath = filepath.Join(s.dir, fmt.Sprintf("%s%s_%d%s", mappingPrefix, salt, rank, mappingExt))

	if err := writeAtomic(vecPath, encodeBlock(shard.Vectors)); err != nil {
		return "", "", fmt.Errorf("write vector block: %w", err)
	}

	doc, err := json.Marshal(map[string][]string{"mapping": shard.Names})
	if err != nil {
		return "", "", fmt.Errorf("marshal mapping: %w", err)
	}
	if err := writeAtomic(mapPath, doc); err != nil {
		return "", "", fmt.Errorf("write mapping: %w", err)
	}

	s.logger.Info("persisted shard", "rows", shard.Len(), "vectors", vecPath, "mapping", mapPath)
	return vecPath, mapPath, nil
}

// LoadAll enumerates every shard pair in dir, sorts both file lists
// lexicographically, and concatenates them into one flat index. The
// independent sorts stay index-aligned because paired files share the same
// salt+rank token. Unequal file counts fail the whole load.
func (s *Store) LoadAll(dir string) (types.IndexShard, error) {
	var index types.IndexShard

	vecFiles, err := filepath.Glob(filepath.Join(dir, vectorPrefix+"*"+vectorExt))
	if err != nil {
		return index, err
	}
	mapFiles, err := filepath.Glob(filepath.Join(dir, mappingPrefix+"*"+mappingExt))
	if err != nil {
		return index, err
	}

	if len(vecFiles) != len(mapFiles) {
		return index, fmt.Errorf("%w: %d vector files, %d mapping files in %s",
			types.ErrShardMismatch, len(vecFiles), len(mapFiles), dir)
	}
	if len(vecFiles) == 0 {
		return index, fmt.Errorf("%w: no shard files in %s", types.ErrEmptyIndex, dir)
	}

	sort.Strings(vecFiles)
	sort.Strings(mapFiles)

	for i := range vecFiles {
		shard, err := loadShard(vecFiles[i], mapFiles[i])
		if err != nil {
			return types.IndexShard{}, err
		}
		index.Concat(shard)
	}

	if err := index.Validate(); err != nil {
		return types.IndexShard{}, err
	}

	s.logger.Info("loaded index", "shards", len(vecFiles), "rows", index.Len(), "dimension", index.Dimension())
	return index, nil
}

// Dir returns the store's root directory
func (s *Store) Dir() string {
	return s.dir
}

// loadShard reads one vector block and its paired mapping document
func loadShard(vecPath, mapPath string) (types.IndexShard, error) {
	var shard types.IndexShard

	blob, err := os.ReadFile(vecPath)
	if err != nil {
		return shard, fmt.Errorf("read vector block: %w", err)
	}
	shard.Vectors, err = decodeBlock(blob)
	if err != nil {
		return shard, fmt.Errorf("decode %s: %w", vecPath, err)
	}

	doc, err := os.ReadFile(mapPath)
	if err != nil {
		return shard, fmt.Errorf("read mapping: %w", err)
	}
	var mapping struct {
		Mapping []string `json:"mapping"`
	}
	if err := json.Unmarshal(doc, &mapping); err != nil {
		return shard, fmt.Errorf("decode %s: %w", mapPath, err)
	}
	shard.Names = mapping.Mapping

	if len(shard.Vectors) != len(shard.Names) {
		return shard, fmt.Errorf("%w: %s has %d rows but %s names %d units",
			types.ErrShardMismatch, vecPath, len(shard.Vectors), mapPath, len(shard.Names))
	}

	return shard, nil
}

// Vector block layout: uint32 row count, uint32 dimension, then row-major
// little-endian float32 data.
func encodeBlock(vectors [][]float32) []byte {
	dim := 0
	if len(vectors) > 0 {
		dim = len(vectors[0])
	}

	blob := make([]byte, 8+len(vectors)*dim*4)
	binary.LittleEndian.PutUint32(blob[0:], uint32(len(vectors)))
	binary.LittleEndian.PutUint32(blob[4:], uint32(dim))

	off := 8
	for _, row := range vectors {
		for _, v := range row {
			binary.LittleEndian.PutUint32(blob[off:], math.Float32bits(v))
			off += 4
		}
	}
	return blob
}

func decodeBlock(blob []byte) ([][]float32, error) {
	if len(blob) < 8 {
		return nil, fmt.Errorf("vector block too short: %d bytes", len(blob))
	}

	rows := int(binary.LittleEndian.Uint32(blob[0:]))
	dim := int(binary.LittleEndian.Uint32(blob[4:]))

	if len(blob) != 8+rows*dim*4 {
		return nil, fmt.Errorf("vector block size %d does not match %d rows x %d dims", len(blob), rows, dim)
	}

	vectors := make([][]float32, rows)
	off := 8
	for i := range vectors {
		row := make([]float32, dim)
		for j := range row {
			row[j] = math.Float32frombits(binary.LittleEndian.Uint32(blob[off:]))
			off += 4
		}
		vectors[i] = row
	}
	return vectors, nil
}

// writeAtomic writes data to path via a temp file and rename
func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".shard-*")
	if err != nil {
		return err
	}

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	return nil
}
