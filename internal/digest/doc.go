// Package digest computes the SHA-1 and SHA-256 digests of build artifacts.
//
// Files are streamed in fixed-size blocks, so OTA packages of any size are
// hashed without being loaded into memory.
package digest
