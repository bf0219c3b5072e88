// Package manifest walks the mirror tree, prunes expired builds and produces
// the JSON manifest consumed by the update-check service.
//
// The run is a single sequential pass: devices and builds are handled one at a
// time and the first error aborts the run before anything is emitted.
package manifest
