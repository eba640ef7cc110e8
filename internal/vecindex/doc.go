// Package vecindex maintains the in-memory nearest-neighbor index over
// chunk embeddings.
//
// The index is a read-only snapshot built from the storage layer: chunk
// ids in ascending order paired with their vectors. Builds happen lazily
// on the first search (or explicitly via Build) and replace the snapshot
// atomically, so concurrent searches never observe a partially built
// index. After a configurable idle period the snapshot is released and
// the next search rebuilds it.
//
// Small corpora get a flat exact L2 scan. Above a threshold the build
// switches to a clustered layout: a k-means coarse quantizer assigns
// vectors to clusters and searches scan only the few clusters nearest
// the query. Both layouts rank by ascending L2 distance with ties broken
// by ascending chunk id, and report similarity as 1/(1+distance).
package vecindex
