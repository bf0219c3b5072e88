package manifest

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/ota-manifest/internal/domain/build"
)

// TestManifest_AppendKeepsOrder verifies device insertion order and per-device build order.
func TestManifest_AppendKeepsOrder(t *testing.T) {
	t.Parallel()

	m := New()
	m.Append("zeta", &build.Build{Version: "1"})
	m.Append("alpha", &build.Build{Version: "2"})
	m.Append("zeta", &build.Build{Version: "3"})

	require.Equal(t, []string{"zeta", "alpha"}, m.Devices())
	require.Len(t, m.Builds("zeta"), 2)
	require.Equal(t, "3", m.Builds("zeta")[1].Version)
	require.Equal(t, 3, m.Len())
	require.Nil(t, m.Builds("missing"))
}

// TestWrite_Format pins the emitted document: four-space indentation, key order, trailing newline.
func TestWrite_Format(t *testing.T) {
	t.Parallel()

	m := New()
	m.Append("deviceB", &build.Build{
		Date:     "2024-01-15",
		Datetime: 1705312800,
		Files: []build.File{{
			Filename: "ota-1.2.3-20240115-beta-deviceB.zip",
			Filepath: "/full/deviceB/20240115/ota-1.2.3-20240115-beta-deviceB.zip",
			SHA1:     "a9993e364706816aba3e25717850c26c9cd0d89d",
			SHA256:   "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad",
			Size:     3,
		}},
		OSPatchLevel: "2024-01-05",
		Type:         "beta",
		Version:      "1.2.3",
	})
	m.Append("deviceA", &build.Build{
		Date:         "2024-01-01",
		Datetime:     1704067200,
		Files:        []build.File{},
		OSPatchLevel: "<none>",
		Type:         "user",
		Version:      "1.2.2",
	})

	want := `{
    "deviceB": [
        {
            "date": "2024-01-15",
            "datetime": 1705312800,
            "files": [
                {
                    "filename": "ota-1.2.3-20240115-beta-deviceB.zip",
                    "filepath": "/full/deviceB/20240115/ota-1.2.3-20240115-beta-deviceB.zip",
                    "sha1": "a9993e364706816aba3e25717850c26c9cd0d89d",
                    "sha256": "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad",
                    "size": 3
                }
            ],
            "os_patch_level": "2024-01-05",
            "type": "beta",
            "version": "1.2.3"
        }
    ],
    "deviceA": [
        {
            "date": "2024-01-01",
            "datetime": 1704067200,
            "files": [],
            "os_patch_level": "<none>",
            "type": "user",
            "version": "1.2.2"
        }
    ]
}
`

	var buf bytes.Buffer

	require.NoError(t, Write(&buf, m))
	require.Equal(t, want, buf.String())
}

// TestWrite_Empty emits an empty object when no device has builds.
func TestWrite_Empty(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	require.NoError(t, Write(&buf, New()))
	require.Equal(t, "{}\n", buf.String())
}
