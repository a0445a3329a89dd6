// Package cache memoizes the expensive normalize-and-index build step. A
// Manager keys snapshots by a fingerprint of the source data: a matching
// persisted snapshot is restored instead of rebuilt, a mismatched or corrupt
// one is discarded and rebuilt. It owns no scoring logic.
package cache
