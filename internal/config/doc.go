// Package config defines the run settings of ota-manifest and provides
// helpers to load and validate them from an optional YAML file.
//
// Every field has a default matching the mirror layout (prefix "full",
// three builds kept per device, 128 KiB hashing blocks).
package config
