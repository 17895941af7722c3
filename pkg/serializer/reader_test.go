// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package serializer

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NVIDIA/hwsnap/pkg/topology"
)

func TestFormatFromPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path string
		want Format
	}{
		{"snap.json", FormatJSON},
		{"snap.JSON", FormatJSON},
		{"snap.yaml", FormatYAML},
		{"snap.yml", FormatYAML},
		{"snap.table", FormatTable},
		{"snap.txt", FormatTable},
		{"snap.xml", FormatJSON},
		{"snap", FormatJSON},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.want, FormatFromPath(tc.path), tc.path)
	}
}

func TestReaderRejectsTable(t *testing.T) {
	t.Parallel()

	_, err := NewReader(FormatTable, strings.NewReader(""))
	require.Error(t, err)

	_, err = NewFileReader(FormatTable, "snap.table")
	require.Error(t, err)
}

func TestReaderDeserializeJSON(t *testing.T) {
	t.Parallel()

	r, err := NewReader(FormatJSON, strings.NewReader(`{"id":"abc"}`))
	require.NoError(t, err)

	var snap topology.HardwareSnapshot
	require.NoError(t, r.Deserialize(&snap))
	assert.Equal(t, "abc", snap.ID)
}

func TestReaderDeserializeInvalid(t *testing.T) {
	t.Parallel()

	r, err := NewReader(FormatJSON, strings.NewReader("not json"))
	require.NoError(t, err)
	require.Error(t, r.Deserialize(&struct{}{}))
}

func TestFromFileRoundTrip(t *testing.T) {
	t.Parallel()

	for _, ext := range []string{"json", "yaml"} {
		path := filepath.Join(t.TempDir(), "snap."+ext)

		w := NewFileWriterOrStdout(Format(ext), path)
		require.NoError(t, w.Serialize(context.Background(), sampleSnapshot()))
		require.NoError(t, w.Close())

		snap, err := FromFile[topology.HardwareSnapshot](path)
		require.NoError(t, err, ext)
		assert.Equal(t, "test-id", snap.ID, ext)
		assert.Equal(t, "node-0", snap.Topology.Hostname, ext)
	}
}

func TestFromFileMissing(t *testing.T) {
	t.Parallel()

	_, err := FromFile[topology.HardwareSnapshot](filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
}

func TestReaderCloseIdempotent(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "snap.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"id":"x"}`), 0o600))

	r, err := NewFileReader(FormatJSON, path)
	require.NoError(t, err)
	assert.NoError(t, r.Close())
	assert.NoError(t, r.Close())
}
