// Package index defines a minimal abstraction for spatial indexes that can be
// built from sample points, queried for bounded k-nearest neighbors, and
// serialized for persistence. Implementations in this module include a
// brute-force baseline and a k-d tree.
package index
