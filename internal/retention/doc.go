// Package retention keeps the most recent builds of a device and removes the rest.
//
// Build directories are expected to be named so that lexicographic order is
// chronological order (for example YYYYMMDD). Names that break this rule are
// not corrected: they are simply sorted as strings.
package retention
