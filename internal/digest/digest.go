package digest

import (
	"crypto"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
	"os"
	"path/filepath"

	// Register the hash implementations behind crypto.SHA1 and crypto.SHA256.
	_ "crypto/sha1"
	_ "crypto/sha256"
)

// DefaultBlockSize is the read chunk used when no block size is given.
const DefaultBlockSize = 128 * 1024

var errHashUnavailable = errors.New("hash function unavailable")

// Sum holds the digests and the size of one file.
type Sum struct {
	// SHA1 is the hex-encoded SHA-1 digest.
	SHA1 string
	// SHA256 is the hex-encoded SHA-256 digest.
	SHA256 string
	// Size is the file size as reported by stat.
	Size int64
}

// Compute hashes the file at path with SHA-1 and SHA-256 in a single pass of blockSize reads.
// A non-positive blockSize selects DefaultBlockSize.
func Compute(path string, blockSize int) (*Sum, error) {
	if blockSize <= 0 {
		blockSize = DefaultBlockSize
	}

	path = filepath.Clean(path)

	sha1Hash, err := newHash(crypto.SHA1)
	if err != nil {
		return nil, err
	}

	sha256Hash, err := newHash(crypto.SHA256)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	// Read-only handle.
	defer func() {
		_ = file.Close()
	}()

	buf := make([]byte, blockSize)

	for {
		n, readErr := file.Read(buf)
		if n > 0 {
			// hash.Hash writes never fail.
			_, _ = sha1Hash.Write(buf[:n])
			_, _ = sha256Hash.Write(buf[:n])
		}

		if errors.Is(readErr, io.EOF) {
			break
		}

		if readErr != nil {
			return nil, fmt.Errorf("read %s: %w", path, readErr)
		}
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	return &Sum{
		SHA1:   hex.EncodeToString(sha1Hash.Sum(nil)),
		SHA256: hex.EncodeToString(sha256Hash.Sum(nil)),
		Size:   info.Size(),
	}, nil
}

func newHash(h crypto.Hash) (hash.Hash, error) {
	if !h.Available() {
		return nil, fmt.Errorf("%s: %w", h, errHashUnavailable)
	}

	return h.New(), nil
}
