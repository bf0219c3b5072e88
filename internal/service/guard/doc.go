// Package guard detects concurrent runs of ota-manifest.
//
// Pruning assumes exclusive access to the mirror tree. When exclusive mode is
// enabled the run is refused if another process with the same executable name
// is alive.
package guard
