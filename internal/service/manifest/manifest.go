package manifest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/oshokin/ota-manifest/internal/domain/build"
)

// indent is the indentation of the emitted document.
const indent = "    "

// Manifest maps devices to their retained builds.
// Devices keep the order in which they were first appended.
type Manifest struct {
	devices []string
	builds  map[string][]*build.Build
}

// New returns an empty Manifest.
func New() *Manifest {
	return &Manifest{
		builds: make(map[string][]*build.Build),
	}
}

// Append adds b at the end of the build list of device.
func (m *Manifest) Append(device string, b *build.Build) {
	if _, ok := m.builds[device]; !ok {
		m.devices = append(m.devices, device)
	}

	m.builds[device] = append(m.builds[device], b)
}

// Devices returns the devices in insertion order.
func (m *Manifest) Devices() []string {
	return append([]string(nil), m.devices...)
}

// Builds returns the builds of device in insertion order.
func (m *Manifest) Builds(device string) []*build.Build {
	return m.builds[device]
}

// Len returns the total number of builds.
func (m *Manifest) Len() int {
	var n int

	for _, builds := range m.builds {
		n += len(builds)
	}

	return n
}

// MarshalJSON encodes the manifest as a JSON object keyed by device, preserving insertion order.
func (m *Manifest) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer

	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	buf.WriteByte('{')

	for i, device := range m.devices {
		if i > 0 {
			buf.WriteByte(',')
		}

		if err := enc.Encode(device); err != nil {
			return nil, fmt.Errorf("encode device %q: %w", device, err)
		}

		buf.WriteByte(':')

		if err := enc.Encode(m.builds[device]); err != nil {
			return nil, fmt.Errorf("encode builds of %q: %w", device, err)
		}
	}

	buf.WriteByte('}')

	return buf.Bytes(), nil
}

// Write emits m to w as an indented JSON document followed by a newline.
// The document is rendered in memory first, so w receives a single write.
func Write(w io.Writer, m *Manifest) error {
	var buf bytes.Buffer

	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", indent)

	if err := enc.Encode(m); err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}

	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}

	return nil
}
