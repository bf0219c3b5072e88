package retention

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/oshokin/ota-manifest/internal/logger"
)

// ErrInvalidKeep is returned when the pruner is asked to keep fewer than one build.
var ErrInvalidKeep = errors.New("retention window must keep at least one build")

// Result lists what a prune pass did in a device directory.
type Result struct {
	// Kept holds the surviving build directories, oldest first.
	Kept []string
	// Deleted holds the build directories selected for removal, newest first.
	Deleted []string
	// Failed holds the deleted entries whose removal returned an error.
	Failed []string
}

// Pruner keeps the last Keep builds of every device directory it is given.
type Pruner struct {
	fs   FS
	keep int
}

// New creates a Pruner keeping keep builds. A nil fsys selects OSFS.
func New(fsys FS, keep int) (*Pruner, error) {
	if keep < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidKeep, keep)
	}

	if fsys == nil {
		fsys = OSFS{}
	}

	return &Pruner{
		fs:   fsys,
		keep: keep,
	}, nil
}

// Prune sorts the build directories of deviceDir, keeps the greatest Keep names and removes the others.
// Removal is best-effort: failures are recorded in the result and never returned.
func (p *Pruner) Prune(ctx context.Context, deviceDir string) (*Result, error) {
	builds, err := Subdirectories(p.fs, deviceDir)
	if err != nil {
		return nil, fmt.Errorf("list builds of %s: %w", deviceDir, err)
	}

	sort.Strings(builds)

	cut := max(len(builds)-p.keep, 0)

	result := &Result{
		Kept:    builds[cut:],
		Deleted: make([]string, 0, cut),
	}

	for i := cut - 1; i >= 0; i-- {
		name := builds[i]
		result.Deleted = append(result.Deleted, name)

		if err = p.fs.RemoveAll(filepath.Join(deviceDir, name)); err != nil {
			result.Failed = append(result.Failed, name)
			logger.DebugKV(ctx, "Ignoring failed build removal", "build", name, "error", err)

			continue
		}

		logger.DebugKV(ctx, "Removed expired build", "build", name)
	}

	return result, nil
}
