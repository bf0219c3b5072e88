package guard

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/mitchellh/go-ps"

	"github.com/oshokin/ota-manifest/internal/logger"
)

// linuxCommLength is the length the kernel cuts process names to in /proc/<pid>/stat.
const linuxCommLength = 15

// ErrAlreadyRunning indicates that another instance is working on the mirror tree.
var ErrAlreadyRunning = errors.New("another ota-manifest instance is running")

// ProcessLister returns the processes currently running on the host.
type ProcessLister func() ([]ps.Process, error)

// Guard checks for other live instances of an executable.
type Guard struct {
	list ProcessLister
	self int
	// nameLimit is the length process names are truncated to by the lister, 0 when unlimited.
	nameLimit int
}

// New creates a Guard. A nil lister selects ps.Processes.
func New(list ProcessLister) *Guard {
	if list == nil {
		list = ps.Processes
	}

	var nameLimit int
	if runtime.GOOS == "linux" {
		nameLimit = linuxCommLength
	}

	return &Guard{
		list:      list,
		self:      os.Getpid(),
		nameLimit: nameLimit,
	}
}

// Check returns ErrAlreadyRunning when a process other than the current one runs executable.
func (g *Guard) Check(ctx context.Context, executable string) error {
	processes, err := g.list()
	if err != nil {
		return fmt.Errorf("list processes: %w", err)
	}

	name := g.processName(executable)

	for _, process := range processes {
		if process.Pid() == g.self {
			continue
		}

		if process.Executable() != name {
			continue
		}

		logger.WarnKV(ctx, "Found a concurrent instance", "pid", process.Pid(), "executable", executable)

		return fmt.Errorf("%w: pid %d", ErrAlreadyRunning, process.Pid())
	}

	return nil
}

// processName returns executable as the process lister reports it.
func (g *Guard) processName(executable string) string {
	if g.nameLimit > 0 && len(executable) > g.nameLimit {
		return executable[:g.nameLimit]
	}

	return executable
}

// SelfExecutable returns the base name of the running executable.
func SelfExecutable() (string, error) {
	path, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("resolve executable: %w", err)
	}

	return filepath.Base(path), nil
}
