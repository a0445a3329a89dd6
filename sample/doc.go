// Package sample defines the normalized traffic sample model and the
// point store used by this project. It includes:
//   - Measurement and Point models and the arena-style Store
//   - whole-batch percentile normalization of raw traffic volumes
//   - point snapshot encoding (BLOB) for durable caching
//   - estimated volumes per road class for densifying sparse count data
package sample
