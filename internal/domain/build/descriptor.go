package build

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// nameDelimiter separates the fields of an OTA package name.
	nameDelimiter = "-"
	// nameFields is the exact number of fields in an OTA package name.
	nameFields = 5
	// buildDateLength is the length of the YYYYMMDD build date.
	buildDateLength = 8
)

var (
	// ErrNoArchive is returned when a build directory holds no OTA package.
	ErrNoArchive = errors.New("no OTA package found")
	// ErrMultipleArchives is returned when a build directory holds more than one OTA package.
	ErrMultipleArchives = errors.New("more than one OTA package found")
	// ErrMalformedName is returned when a package name does not split into five fields.
	ErrMalformedName = errors.New("malformed OTA package name")
	// ErrMalformedDate is returned when the build date is not eight digits.
	ErrMalformedDate = errors.New("malformed build date")
)

// Descriptor is the information encoded in an OTA package name.
type Descriptor struct {
	// Version is the second field of the name.
	Version string
	// BuildDate is the raw YYYYMMDD build date.
	BuildDate string
	// BuildType is the build type as written in the name.
	BuildType string
	// Device is the device the package targets.
	Device string
}

// SelectArtifacts picks the OTA package and the auxiliary images from a build directory listing.
// Images keep their listing order.
func SelectArtifacts(names []string, packageExt, imageExt string) (string, []string, error) {
	var (
		archives []string
		images   []string
	)

	for _, name := range names {
		switch {
		case strings.HasSuffix(name, packageExt):
			archives = append(archives, name)
		case strings.HasSuffix(name, imageExt):
			images = append(images, name)
		}
	}

	switch len(archives) {
	case 0:
		return "", nil, ErrNoArchive
	case 1:
		return archives[0], images, nil
	default:
		return "", nil, fmt.Errorf("%w: %s", ErrMultipleArchives, strings.Join(archives, ", "))
	}
}

// ParseArchiveName extracts the Descriptor from an OTA package file name.
func ParseArchiveName(name, packageExt string) (*Descriptor, error) {
	stem := strings.TrimSuffix(name, packageExt)

	fields := strings.Split(stem, nameDelimiter)
	if len(fields) != nameFields {
		return nil, fmt.Errorf("%w: %q has %d fields, want %d", ErrMalformedName, name, len(fields), nameFields)
	}

	desc := &Descriptor{
		Version:   fields[1],
		BuildDate: fields[2],
		BuildType: fields[3],
		Device:    fields[4],
	}

	if !isBuildDate(desc.BuildDate) {
		return nil, fmt.Errorf("%w: %q in %q", ErrMalformedDate, desc.BuildDate, name)
	}

	return desc, nil
}

// Date returns the build date as YYYY-MM-DD.
func (d *Descriptor) Date() string {
	return d.BuildDate[0:4] + "-" + d.BuildDate[4:6] + "-" + d.BuildDate[6:8]
}

// Type returns the lowercased build type.
func (d *Descriptor) Type() string {
	return strings.ToLower(d.BuildType)
}

func isBuildDate(s string) bool {
	if len(s) != buildDateLength {
		return false
	}

	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}

	return true
}
