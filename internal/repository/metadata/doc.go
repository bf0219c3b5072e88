// Package metadata reads the per-build side file written by the build system.
//
// The side file is a JSON object; only "timestamp" and "os_patch_level" are
// consumed, any other key is ignored.
package metadata
