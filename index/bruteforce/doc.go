// Package bruteforce provides a simple spatial index that answers kNN queries
// by scanning all points and ordering by planar degree-space distance. It
// supports a compact binary format for persistence in the scorer_storage
// table and serves as the correctness baseline for the k-d tree.
package bruteforce
