package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the settings of a manifest run.
type Config struct {
	// Prefix is the subdirectory of the base path holding one directory per device.
	Prefix string `yaml:"prefix"`
	// Keep is the retention window: how many most recent builds survive per device.
	Keep int `yaml:"keep"`
	// BlockSize is the chunk size used while hashing artifacts.
	BlockSize int `yaml:"block_size"`
	// PackageExt identifies the OTA package inside a build directory.
	PackageExt string `yaml:"package_ext"`
	// ImageExt identifies auxiliary images inside a build directory.
	ImageExt string `yaml:"image_ext"`
	// MetadataFile is the per-build side file carrying timestamp and patch level.
	MetadataFile string `yaml:"metadata_file"`
	// LogLevel is the minimum level of diagnostics written to stderr.
	LogLevel string `yaml:"log_level"`
	// Exclusive refuses to run while another instance is alive.
	Exclusive bool `yaml:"exclusive"`
}

const (
	// DefaultPrefix is the directory holding full OTA packages.
	DefaultPrefix = "full"

	// DefaultKeep is the number of builds kept per device.
	DefaultKeep = 3

	// DefaultBlockSize is the hashing chunk size (128 KiB).
	DefaultBlockSize = 128 * 1024

	// DefaultPackageExt is the OTA package extension.
	DefaultPackageExt = ".zip"

	// DefaultImageExt is the auxiliary image extension.
	DefaultImageExt = ".img"

	// DefaultMetadataFile is the per-build metadata side file.
	DefaultMetadataFile = "metadata.json"

	// DefaultLogLevel is used when no level is configured.
	DefaultLogLevel = "info"
)

var (
	// ErrInvalidKeep is returned when the retention window is smaller than one build.
	ErrInvalidKeep = errors.New("keep must be at least 1")
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errInvalidBlockSize is returned for non-positive hashing chunks.
	errInvalidBlockSize = errors.New("block size must be positive")
	// errInvalidPrefix is returned when the prefix is not a single path element.
	errInvalidPrefix = errors.New("prefix must be a single directory name")
	// errInvalidExtension is returned for extensions without a leading dot.
	errInvalidExtension = errors.New("extension must start with a dot")
	// errInvalidMetadataFile is returned when the metadata file name is not a plain file name.
	errInvalidMetadataFile = errors.New("metadata file must be a plain file name")
	// errInvalidLogLevel is returned for unknown log levels.
	errInvalidLogLevel = errors.New("unknown log level")
)

// Default returns a Config populated with the default values.
func Default() *Config {
	return &Config{
		Prefix:       DefaultPrefix,
		Keep:         DefaultKeep,
		BlockSize:    DefaultBlockSize,
		PackageExt:   DefaultPackageExt,
		ImageExt:     DefaultImageExt,
		MetadataFile: DefaultMetadataFile,
		LogLevel:     DefaultLogLevel,
	}
}

// Load reads configuration from path on top of the defaults and validates it.
// An empty path yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	if err = yaml.Unmarshal(contents, cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err = Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate fills zero-valued string fields with defaults and rejects invalid values.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if cfg.Prefix == "" {
		cfg.Prefix = DefaultPrefix
	}

	if cfg.PackageExt == "" {
		cfg.PackageExt = DefaultPackageExt
	}

	if cfg.ImageExt == "" {
		cfg.ImageExt = DefaultImageExt
	}

	if cfg.MetadataFile == "" {
		cfg.MetadataFile = DefaultMetadataFile
	}

	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	}

	if cfg.Keep < 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidKeep, cfg.Keep)
	}

	if cfg.BlockSize < 1 {
		return fmt.Errorf("%w: got %d", errInvalidBlockSize, cfg.BlockSize)
	}

	if !isPlainName(cfg.Prefix) {
		return fmt.Errorf("%w: %q", errInvalidPrefix, cfg.Prefix)
	}

	if !isPlainName(cfg.MetadataFile) {
		return fmt.Errorf("%w: %q", errInvalidMetadataFile, cfg.MetadataFile)
	}

	for _, ext := range []string{cfg.PackageExt, cfg.ImageExt} {
		if !strings.HasPrefix(ext, ".") || len(ext) < 2 {
			return fmt.Errorf("%w: %q", errInvalidExtension, ext)
		}
	}

	if cfg.PackageExt == cfg.ImageExt {
		return fmt.Errorf("%w: package and image extensions are both %q", errInvalidExtension, cfg.PackageExt)
	}

	if !knownLevel(cfg.LogLevel) {
		return fmt.Errorf("%w: %q", errInvalidLogLevel, cfg.LogLevel)
	}

	return nil
}

// isPlainName reports whether name is a single, non-special path element.
func isPlainName(name string) bool {
	return name != "." && name != ".." && !strings.ContainsAny(name, `/\`)
}

func knownLevel(level string) bool {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug", "info", "warn", "warning", "error", "fatal":
		return true
	default:
		return false
	}
}
