package manifest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"

	"github.com/oshokin/ota-manifest/internal/config"
	"github.com/oshokin/ota-manifest/internal/digest"
	"github.com/oshokin/ota-manifest/internal/domain/build"
	"github.com/oshokin/ota-manifest/internal/logger"
	"github.com/oshokin/ota-manifest/internal/repository/metadata"
	"github.com/oshokin/ota-manifest/internal/retention"
	"github.com/oshokin/ota-manifest/internal/service/guard"
)

// outputFileMode is the mode of manifests written to a file; the mirror serves them publicly.
const outputFileMode os.FileMode = 0o644

// errBasePathRequired is returned when no base path is given.
var errBasePathRequired = errors.New("base path must be provided")

// Options contains inputs for a manifest run.
type Options struct {
	// BasePath is the mirror root holding the prefix directory.
	BasePath string
	// Config holds the run settings; nil selects config.Default.
	Config *config.Config
	// OutputPath is an optional file receiving the manifest instead of Stdout.
	OutputPath string
	// Stdout receives the manifest when OutputPath is empty; nil selects os.Stdout.
	Stdout io.Writer
	// Guard is consulted when Config.Exclusive is set; nil selects a process-table guard.
	Guard *guard.Guard
}

// generator holds the collaborators of a single run.
type generator struct {
	cfg    *config.Config
	root   string
	pruner *retention.Pruner
	repo   metadata.Repository
	fs     retention.FS
}

// Run prunes the mirror tree, builds the manifest and writes it.
// Nothing is written when any step fails.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "ota-manifest")

	cfg, err := resolveConfig(opts)
	if err != nil {
		return err
	}

	if cfg.Exclusive {
		if err = checkExclusive(ctx, opts.Guard); err != nil {
			return err
		}
	}

	m, err := Generate(ctx, opts.BasePath, cfg)
	if err != nil {
		return err
	}

	if opts.OutputPath != "" {
		err = writeFile(opts.OutputPath, m)
	} else {
		err = Write(stdout(opts), m)
	}

	if err != nil {
		return err
	}

	logger.InfoKV(ctx, "Manifest emitted", "devices", len(m.Devices()), "builds", m.Len())

	return nil
}

// Generate walks <basePath>/<prefix>, prunes every device and describes the retained builds.
func Generate(ctx context.Context, basePath string, cfg *config.Config) (*Manifest, error) {
	if basePath == "" {
		return nil, errBasePathRequired
	}

	if cfg == nil {
		cfg = config.Default()
	}

	pruner, err := retention.New(nil, cfg.Keep)
	if err != nil {
		return nil, err
	}

	g := &generator{
		cfg:    cfg,
		root:   filepath.Join(basePath, cfg.Prefix),
		pruner: pruner,
		repo:   metadata.NewFileRepository(cfg.MetadataFile),
		fs:     retention.OSFS{},
	}

	return g.generate(ctx)
}

func (g *generator) generate(ctx context.Context) (*Manifest, error) {
	devices, err := retention.Subdirectories(g.fs, g.root)
	if err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}

	logger.DebugKV(ctx, "Discovered devices", "root", g.root, "count", len(devices))

	m := New()

	for _, device := range devices {
		if err = ctx.Err(); err != nil {
			return nil, err
		}

		deviceCtx := logger.WithKV(ctx, "device", device)
		deviceDir := filepath.Join(g.root, device)

		var pruned *retention.Result

		pruned, err = g.pruner.Prune(deviceCtx, deviceDir)
		if err != nil {
			return nil, err
		}

		if len(pruned.Deleted) > 0 {
			logger.InfoKV(deviceCtx, "Pruned expired builds",
				"deleted", len(pruned.Deleted), "failed", len(pruned.Failed), "kept", len(pruned.Kept))
		}

		for _, buildName := range pruned.Kept {
			if err = ctx.Err(); err != nil {
				return nil, err
			}

			var (
				key string
				b   *build.Build
			)

			key, b, err = g.describe(logger.WithKV(deviceCtx, "build", buildName), deviceDir, buildName)
			if err != nil {
				return nil, fmt.Errorf("device %s, build %s: %w", device, buildName, err)
			}

			m.Append(key, b)
		}
	}

	return m, nil
}

// describe hashes the artifacts of one build directory and merges its metadata.
// The returned key is the device named by the OTA package, which also roots the published file paths.
func (g *generator) describe(ctx context.Context, deviceDir, buildName string) (string, *build.Build, error) {
	buildDir := filepath.Join(deviceDir, buildName)

	names, err := fileNames(g.fs, buildDir)
	if err != nil {
		return "", nil, err
	}

	archive, images, err := build.SelectArtifacts(names, g.cfg.PackageExt, g.cfg.ImageExt)
	if err != nil {
		return "", nil, err
	}

	desc, err := build.ParseArchiveName(archive, g.cfg.PackageExt)
	if err != nil {
		return "", nil, err
	}

	files := make([]build.File, 0, 1+len(images))

	for _, name := range append([]string{archive}, images...) {
		var sum *digest.Sum

		sum, err = digest.Compute(filepath.Join(buildDir, name), g.cfg.BlockSize)
		if err != nil {
			return "", nil, err
		}

		logger.DebugKV(ctx, "Hashed artifact", "file", name, "size", sum.Size)

		files = append(files, build.File{
			Filename: name,
			Filepath: path.Join("/", g.cfg.Prefix, desc.Device, buildName, name),
			SHA1:     sum.SHA1,
			SHA256:   sum.SHA256,
			Size:     sum.Size,
		})
	}

	meta, err := g.repo.Load(ctx, buildDir)
	if err != nil {
		return "", nil, err
	}

	return desc.Device, build.New(desc, meta, files), nil
}

// fileNames lists the non-directory entries of dir, sorted by name.
func fileNames(fsys retention.FS, dir string) ([]string, error) {
	entries, err := fsys.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list build files: %w", err)
	}

	names := make([]string, 0, len(entries))

	for _, entry := range entries {
		if !entry.IsDir() {
			names = append(names, entry.Name())
		}
	}

	return names, nil
}

func resolveConfig(opts *Options) (*config.Config, error) {
	if opts.Config == nil {
		return config.Default(), nil
	}

	if err := config.Validate(opts.Config); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}

	return opts.Config, nil
}

func checkExclusive(ctx context.Context, g *guard.Guard) error {
	if g == nil {
		g = guard.New(nil)
	}

	executable, err := guard.SelfExecutable()
	if err != nil {
		return err
	}

	return g.Check(ctx, executable)
}

func stdout(opts *Options) io.Writer {
	if opts.Stdout != nil {
		return opts.Stdout
	}

	return os.Stdout
}

// writeFile replaces path with the manifest through a temporary file in the same directory.
func writeFile(path string, m *Manifest) error {
	dir := filepath.Dir(path)

	tmp, err := os.CreateTemp(dir, ".ota-manifest-*.json")
	if err != nil {
		return fmt.Errorf("create temporary manifest: %w", err)
	}

	// No-op after a successful rename.
	defer func() {
		_ = os.Remove(tmp.Name())
	}()

	if err = Write(tmp, m); err != nil {
		_ = tmp.Close()
		return err
	}

	if err = tmp.Chmod(outputFileMode); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("chmod temporary manifest: %w", err)
	}

	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close temporary manifest: %w", err)
	}

	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("publish manifest: %w", err)
	}

	return nil
}
