// Package storage provides helpers for working with the modernc.org/sqlite
// driver in this module: opening connections and creating the snapshot
// schema. It intentionally keeps a thin surface so other packages can share
// the same driver instance.
package storage
