package build

// File describes one hashed artifact of a build.
type File struct {
	Filename string `json:"filename"`
	// Filepath is the slash-separated path of the file relative to the mirror root.
	Filepath string `json:"filepath"`
	SHA1     string `json:"sha1"`
	SHA256   string `json:"sha256"`
	Size     int64  `json:"size"`
}

// Metadata is the part of a build record read from the per-build side file.
type Metadata struct {
	// Timestamp is the build time as recorded by the build system.
	Timestamp int64
	// OSPatchLevel is the security patch level of the build.
	OSPatchLevel string
}

// Build is one retained build in the manifest. Field order matches the JSON key order.
type Build struct {
	Date         string `json:"date"`
	Datetime     int64  `json:"datetime"`
	Files        []File `json:"files"`
	OSPatchLevel string `json:"os_patch_level"`
	Type         string `json:"type"`
	Version      string `json:"version"`
}

// New merges the package descriptor, the side file metadata and the file digests into a Build.
func New(desc *Descriptor, meta *Metadata, files []File) *Build {
	if files == nil {
		files = []File{}
	}

	return &Build{
		Date:         desc.Date(),
		Datetime:     meta.Timestamp,
		Files:        files,
		OSPatchLevel: meta.OSPatchLevel,
		Type:         desc.Type(),
		Version:      desc.Version,
	}
}
