package retention

import "os"

// FS is the filesystem surface the pruner needs.
type FS interface {
	ReadDir(path string) ([]os.DirEntry, error)
	RemoveAll(path string) error
}

// OSFS is the FS backed by the local filesystem.
type OSFS struct{}

// ReadDir lists path sorted by name.
func (OSFS) ReadDir(path string) ([]os.DirEntry, error) {
	return os.ReadDir(path)
}

// RemoveAll deletes path and everything below it.
func (OSFS) RemoveAll(path string) error {
	return os.RemoveAll(path)
}

// Subdirectories returns the names of the directories directly under path, sorted by name.
func Subdirectories(fsys FS, path string) ([]string, error) {
	entries, err := fsys.ReadDir(path)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(entries))

	for _, entry := range entries {
		if entry.IsDir() {
			names = append(names, entry.Name())
		}
	}

	return names, nil
}
