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
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/NVIDIA/hwsnap/pkg/cache"
	"github.com/NVIDIA/hwsnap/pkg/defaults"
	"github.com/NVIDIA/hwsnap/pkg/detector"
	"github.com/NVIDIA/hwsnap/pkg/serializer"
	"github.com/NVIDIA/hwsnap/pkg/snapshot"
	"github.com/NVIDIA/hwsnap/pkg/topology"
)

func snapshotCmd() *cli.Command {
	return &cli.Command{
		Name:                  "snapshot",
		EnableShellCompletion: true,
		Usage:                 "Capture a hardware topology snapshot",
		Description: `Capture a point-in-time snapshot of host hardware:
  - CPU topology, NUMA nodes, and feature flags
  - Memory size and DIMM population
  - NVIDIA GPUs with NVLink/PCIe interconnect topology
  - Block storage devices and partitions
  - Network interfaces and InfiniBand adapters
  - Platform service states

The snapshot can be output in JSON, YAML, or table format. CPU and memory
detection are required; every other domain degrades to an absent section
when its probe tooling is unavailable.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "no-cache",
				Usage: "Bypass the snapshot cache and force a fresh detection",
			},
			&cli.DurationFlag{
				Name:  "ttl",
				Usage: "Time-to-live for the cached snapshot",
				Value: defaults.SnapshotTTL,
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "Per-command timeout for probe tools",
				Value: defaults.CommandTimeout,
			},
			&cli.BoolFlag{
				Name:  "skip-gpu",
				Usage: "Skip GPU and GPU topology detection",
			},
			&cli.BoolFlag{
				Name:  "skip-storage",
				Usage: "Skip block storage detection",
			},
			&cli.BoolFlag{
				Name:  "skip-network",
				Usage: "Skip network interface detection",
			},
			&cli.BoolFlag{
				Name:  "skip-platform",
				Usage: "Skip platform service detection",
			},
			outputFlag,
			formatFlag,
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			outFormat, err := parseOutputFormat(cmd)
			if err != nil {
				return err
			}

			snap, err := captureSnapshot(ctx,
				buildOptions(cmd),
				cmd.Duration("timeout"),
				cmd.Duration("ttl"),
				!cmd.Bool("no-cache"))
			if err != nil {
				return err
			}

			ser := serializer.NewFileWriterOrStdout(outFormat, cmd.String("output"))
			defer func() { _ = ser.Close() }()
			return ser.Serialize(ctx, snap)
		},
	}
}

// buildOptions maps the skip flags onto the builder's domain gates.
func buildOptions(cmd *cli.Command) snapshot.Options {
	opts := snapshot.DefaultOptions()
	if cmd.Bool("skip-gpu") {
		opts.IncludeGPU = false
		opts.IncludeGPUTopology = false
	}
	if cmd.Bool("skip-storage") {
		opts.IncludeStorage = false
	}
	if cmd.Bool("skip-network") {
		opts.IncludeNetwork = false
	}
	if cmd.Bool("skip-platform") {
		opts.IncludePlatform = false
	}
	return opts
}

// captureSnapshot wires the builder and cache for a single capture. The
// cache key is the hostname so repeated captures within the TTL coalesce.
func captureSnapshot(ctx context.Context, opts snapshot.Options, timeout, ttl time.Duration, useCache bool) (*topology.HardwareSnapshot, error) {
	builder := snapshot.NewBuilder(opts)
	if timeout > 0 {
		builder.Source = snapshot.NewSource(detector.NewFactory(detector.Options{
			CommandTimeout: timeout,
		}))
	}

	snapCache := cache.New(cache.Options{DefaultTTL: ttl})

	key, err := os.Hostname()
	if err != nil {
		key = "localhost"
	}

	snap, err := snapCache.Snapshot(ctx, key, builder.Build, ttl, useCache)
	if err != nil {
		return nil, fmt.Errorf("failed to capture snapshot: %w", err)
	}
	return snap, nil
}
