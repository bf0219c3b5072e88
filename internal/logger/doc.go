// Package logger wraps zap to offer:
//   - a global sugared logger writing console-encoded lines to stderr,
//   - context helpers (ToContext/FromContext/WithName/WithKV),
//   - level parsing and configuration,
//   - leveled key-value helpers (DebugKV, InfoKV, WarnKV).
//
// Standard output is reserved for the manifest, so nothing here ever writes to it.
package logger
