// Package indexer orchestrates the index build: discovering candidate
// files, extracting named units, chunking their tokens, embedding each
// chunk, and pooling chunk vectors into one row per unit.
//
// Files are independent, so a build may fan out across a bounded worker
// pool; a failure in one file is reported in the build statistics without
// stopping the others. When several processes build shards at once, each
// takes a disjoint Partition of the file list and persists its own shard.
package indexer
