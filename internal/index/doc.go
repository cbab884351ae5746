// Package index builds and serves the duplicate-candidate index: it walks
// the photo tree, sniffs image dimensions, clusters files by folder and
// normalized name, selects a base per group, and emits an immutable,
// case-insensitively sorted candidate-pair list.
//
// The Catalog owns all generation-scoped state behind one mutex. Rebuilds
// replace the record map, group list, and pair list atomically; deletions
// leave tombstones in the pair list so cursor-based paging stays stable.
package index
