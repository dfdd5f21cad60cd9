package indexer

import (
	"fmt"
	"os"
	"strconv"

	"testretriever/pkg/types"
)

// Environment variables consulted by PartitionFromEnv.
const (
	EnvLocalRank = "LOCAL_RANK"
	EnvWorldSize = "WORLD_SIZE"
)

// Partition assigns this process a disjoint slice of the overall file list
// when several processes build shards concurrently. The zero value is not
// valid; use Single for the one-process case.
type Partition struct {
	Rank  int
	World int
}

// Single returns the single-process partition covering every file.
func Single() Partition {
	return Partition{Rank: 0, World: 1}
}

// PartitionFromEnv reads the distributed launch environment. Missing or
// malformed values are not an error; the single-process default applies.
func PartitionFromEnv() Partition {
	rank, err := strconv.Atoi(os.Getenv(EnvLocalRank))
	if err != nil {
		return Single()
	}
	world, err := strconv.Atoi(os.Getenv(EnvWorldSize))
	if err != nil {
		return Single()
	}
	p := Partition{Rank: rank, World: world}
	if p.Validate() != nil {
		return Single()
	}
	return p
}

// Validate reports whether the partition is usable.
func (p Partition) Validate() error {
	if p.World < 1 {
		return fmt.Errorf("world size %d must be at least 1: %w", p.World, types.ErrConfiguration)
	}
	if p.Rank < 0 || p.Rank >= p.World {
		return fmt.Errorf("rank %d out of range for world size %d: %w", p.Rank, p.World, types.ErrConfiguration)
	}
	return nil
}

// Slice returns this rank's round-robin share of files. Two ranks never
// receive the same file, and the union over all ranks is the full list.
func (p Partition) Slice(files []string) []string {
	if p.World <= 1 {
		return files
	}
	share := make([]string, 0, (len(files)+p.World-1)/p.World)
	for i := p.Rank; i < len(files); i += p.World {
		share = append(share, files[i])
	}
	return share
}
