// Package scorer turns a point store and its spatial index into a continuous
// traffic-intensity estimate: inverse-distance-weighted interpolation over
// the k nearest samples within a distance bound, for single coordinates or
// large order-preserving batches.
package scorer
