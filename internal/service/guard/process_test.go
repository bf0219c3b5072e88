package guard

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/mitchellh/go-ps"
	"github.com/stretchr/testify/require"
)

// fakeProcess implements ps.Process for tests.
type fakeProcess struct {
	pid  int
	name string
}

func (p fakeProcess) Pid() int           { return p.pid }
func (p fakeProcess) PPid() int          { return 1 }
func (p fakeProcess) Executable() string { return p.name }

func lister(processes ...ps.Process) ProcessLister {
	return func() ([]ps.Process, error) {
		return processes, nil
	}
}

// TestGuard_Check reports other instances and ignores the current process.
func TestGuard_Check(t *testing.T) {
	t.Parallel()

	self := os.Getpid()
	ctx := context.Background()

	g := New(lister(fakeProcess{pid: self, name: "ota-manifest"}, fakeProcess{pid: self + 1, name: "bash"}))
	require.NoError(t, g.Check(ctx, "ota-manifest"))

	g = New(lister(fakeProcess{pid: self, name: "ota-manifest"}, fakeProcess{pid: self + 1, name: "ota-manifest"}))
	require.ErrorIs(t, g.Check(ctx, "ota-manifest"), ErrAlreadyRunning)
}

// TestGuard_ListError propagates process listing failures.
func TestGuard_ListError(t *testing.T) {
	t.Parallel()

	errList := errors.New("no procfs")
	g := New(func() ([]ps.Process, error) { return nil, errList })

	require.ErrorIs(t, g.Check(context.Background(), "ota-manifest"), errList)
}

// TestGuard_RealProcesses runs against the host process table.
func TestGuard_RealProcesses(t *testing.T) {
	t.Parallel()

	name, err := SelfExecutable()
	require.NoError(t, err)
	require.NotEmpty(t, name)

	require.NoError(t, New(nil).Check(context.Background(), name+"-does-not-exist"))
}

// TestGuard_TruncatedNames matches long executables against names cut by the kernel.
func TestGuard_TruncatedNames(t *testing.T) {
	t.Parallel()

	const executable = "ota-manifest-linux-amd64"

	g := New(lister(fakeProcess{pid: os.Getpid() + 1, name: executable[:linuxCommLength]}))
	g.nameLimit = linuxCommLength
	require.ErrorIs(t, g.Check(context.Background(), executable), ErrAlreadyRunning)

	g = New(lister(fakeProcess{pid: os.Getpid() + 1, name: "ota-manifest"}))
	g.nameLimit = linuxCommLength
	require.NoError(t, g.Check(context.Background(), executable))

	g = New(lister(fakeProcess{pid: os.Getpid() + 1, name: executable}))
	g.nameLimit = 0
	require.ErrorIs(t, g.Check(context.Background(), executable), ErrAlreadyRunning)
}
