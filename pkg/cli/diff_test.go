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

package cli

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NVIDIA/hwsnap/pkg/diff"
	"github.com/NVIDIA/hwsnap/pkg/topology"
)

func writeDiffFixture(t *testing.T, id, driver string) string {
	t.Helper()

	snap := topology.HardwareSnapshot{
		ID: id,
		Topology: topology.SystemTopology{
			Hostname: "node-0",
			GPUs: []topology.GPUDevice{
				{ID: 0, Name: "NVIDIA A100-SXM4-80GB", DriverVersion: driver},
			},
		},
	}

	data, err := json.Marshal(snap)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), id+".json")
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestDiffCmd(t *testing.T) {
	before := writeDiffFixture(t, "snap-a", "535.104.05")
	after := writeDiffFixture(t, "snap-b", "550.54.15")
	out := filepath.Join(t.TempDir(), "report.json")

	cmd := diffCmd()
	require.NoError(t, cmd.Run(context.Background(),
		[]string{"diff", "--format", "json", "--output", out, before, after}))

	data, err := os.ReadFile(out)
	require.NoError(t, err)

	var report diff.Report
	require.NoError(t, json.Unmarshal(data, &report))
	assert.Equal(t, "snap-a", report.BeforeID)
	assert.Equal(t, "snap-b", report.AfterID)
	require.Len(t, report.Changes, 1)
	assert.Equal(t, "GPUs.[0].DriverVersion", report.Changes[0].Field)
}

func TestDiffCmdArgCount(t *testing.T) {
	cmd := diffCmd()
	err := cmd.Run(context.Background(), []string{"diff", "only-one.json"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected 2 snapshot files")
}
