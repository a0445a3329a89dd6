// Package kdtree provides a balanced two-dimensional k-d tree over sample
// coordinates for bounded k-nearest-neighbor queries. The tree is built once
// per snapshot by median split on alternating axes and is read-only
// afterwards, so concurrent queries need no locking. It persists via the
// shared flat point encoding and rebuilds its structure on load.
package kdtree
