package metadata

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/oshokin/ota-manifest/internal/domain/build"
)

const (
	// DefaultFilename is the side file name inside a build directory.
	DefaultFilename = "metadata.json"

	timestampKey    = "timestamp"
	patchLevelKey   = "os_patch_level"
	maxExactFloat64 = 1 << 53
)

var (
	// ErrNotFound is returned when the build directory has no side file.
	ErrNotFound = errors.New("build metadata not found")
	// ErrMissingKey is returned when a required key is absent.
	ErrMissingKey = errors.New("build metadata key missing")
	// ErrInvalidValue is returned when a required key has the wrong type.
	ErrInvalidValue = errors.New("build metadata value invalid")
)

// Repository loads build metadata for a build directory.
type Repository interface {
	Load(ctx context.Context, buildDir string) (*build.Metadata, error)
}

// FileRepository reads the side file of each build directory.
// Decoding goes through protobuf JSON into a structpb.Struct, which accepts any JSON object.
type FileRepository struct {
	// filename is the side file name looked up in every build directory.
	filename string
}

// NewFileRepository creates a repository reading filename from build directories.
// An empty filename selects DefaultFilename.
func NewFileRepository(filename string) *FileRepository {
	if filename == "" {
		filename = DefaultFilename
	}

	return &FileRepository{
		filename: filename,
	}
}

// Load reads and validates the side file of buildDir.
func (r *FileRepository) Load(_ context.Context, buildDir string) (*build.Metadata, error) {
	path := filepath.Join(buildDir, r.filename)

	contents, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}

		return nil, fmt.Errorf("read build metadata: %w", err)
	}

	var doc structpb.Struct
	if err = protojson.Unmarshal(contents, &doc); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	timestamp, err := integerField(&doc, timestampKey)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	patchLevel, err := stringField(&doc, patchLevelKey)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return &build.Metadata{
		Timestamp:    timestamp,
		OSPatchLevel: patchLevel,
	}, nil
}

func field(doc *structpb.Struct, key string) (*structpb.Value, error) {
	value, ok := doc.GetFields()[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrMissingKey, key)
	}

	return value, nil
}

// integerField accepts JSON numbers without a fractional part that a float64 represents exactly.
func integerField(doc *structpb.Struct, key string) (int64, error) {
	value, err := field(doc, key)
	if err != nil {
		return 0, err
	}

	number, ok := value.GetKind().(*structpb.Value_NumberValue)
	if !ok {
		return 0, fmt.Errorf("%w: %q must be a number", ErrInvalidValue, key)
	}

	n := number.NumberValue
	if n != math.Trunc(n) || math.Abs(n) > maxExactFloat64 {
		return 0, fmt.Errorf("%w: %q must be an integer, got %v", ErrInvalidValue, key, n)
	}

	return int64(n), nil
}

func stringField(doc *structpb.Struct, key string) (string, error) {
	value, err := field(doc, key)
	if err != nil {
		return "", err
	}

	str, ok := value.GetKind().(*structpb.Value_StringValue)
	if !ok {
		return "", fmt.Errorf("%w: %q must be a string", ErrInvalidValue, key)
	}

	return str.StringValue, nil
}
