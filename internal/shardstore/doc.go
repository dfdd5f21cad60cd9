// Package shardstore persists the embedding index as independently
// produced shards and reassembles them at retrieval time.
//
// Each shard is two artifacts named with a shared random salt and worker
// rank: a binary vector block (row count, dimension, little-endian float32
// data) and a JSON document {"mapping": [unit keys...]} whose array order
// matches the block's row order. Because paired files carry the same
// salt+rank token, sorting the vector and mapping file lists independently
// leaves them index-aligned, and LoadAll concatenates them into one flat
// (vectors, names) index without any reconciliation step.
package shardstore
