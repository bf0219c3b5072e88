// Package build holds the records that make up the manifest and the
// naming contract of OTA packages.
//
// An OTA package file is named <ignored>-<version>-<YYYYMMDD>-<type>-<device>.zip.
// Anything else is rejected: the mirror relies on this convention, so the
// parser never guesses.
package build
