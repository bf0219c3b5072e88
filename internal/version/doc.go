// Package version exposes build metadata of ota-manifest.
//
// Version, Commit and BuildTime are injected through -ldflags at release time.
package version
