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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"

	"github.com/NVIDIA/hwsnap/pkg/snapshot"
)

func runWithSkipFlags(t *testing.T, args []string) snapshot.Options {
	t.Helper()

	var got snapshot.Options
	cmd := &cli.Command{
		Name: "test",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "skip-gpu"},
			&cli.BoolFlag{Name: "skip-storage"},
			&cli.BoolFlag{Name: "skip-network"},
			&cli.BoolFlag{Name: "skip-platform"},
		},
		Action: func(_ context.Context, c *cli.Command) error {
			got = buildOptions(c)
			return nil
		},
	}

	require.NoError(t, cmd.Run(context.Background(), append([]string{"test"}, args...)))
	return got
}

func TestBuildOptionsDefaults(t *testing.T) {
	opts := runWithSkipFlags(t, nil)
	assert.Equal(t, snapshot.DefaultOptions(), opts)
}

func TestBuildOptionsSkipGPU(t *testing.T) {
	opts := runWithSkipFlags(t, []string{"--skip-gpu"})
	assert.False(t, opts.IncludeGPU)
	assert.False(t, opts.IncludeGPUTopology)
	assert.True(t, opts.IncludeStorage)
	assert.True(t, opts.IncludeNetwork)
	assert.True(t, opts.IncludePlatform)
}

func TestBuildOptionsSkipAll(t *testing.T) {
	opts := runWithSkipFlags(t, []string{"--skip-gpu", "--skip-storage", "--skip-network", "--skip-platform"})
	assert.Equal(t, snapshot.Options{}, opts)
}

func TestSnapshotCmdRejectsUnknownFormat(t *testing.T) {
	cmd := snapshotCmd()
	err := cmd.Run(context.Background(), []string{"snapshot", "--format", "xml"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown output format")
}
