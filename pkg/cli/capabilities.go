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

	"github.com/urfave/cli/v3"

	"github.com/NVIDIA/hwsnap/pkg/serializer"
	"github.com/NVIDIA/hwsnap/pkg/snapshot"
	"github.com/NVIDIA/hwsnap/pkg/topology"
)

func capabilitiesCmd() *cli.Command {
	return &cli.Command{
		Name:  "capabilities",
		Usage: "Report derived hardware capability flags",
		Description: `Report the boolean capability flags derived from a hardware snapshot:
NVIDIA GPUs, NUMA, virtualization, NVMe, InfiniBand, and RAID.

By default a fresh snapshot is captured. Use --input to derive the flags
from a previously saved snapshot file instead.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "input",
				Aliases: []string{"i"},
				Usage:   "Path to a saved snapshot file (json or yaml)",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "Per-command timeout for probe tools",
			},
			outputFlag,
			formatFlag,
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			outFormat, err := parseOutputFormat(cmd)
			if err != nil {
				return err
			}

			caps, err := resolveCapabilities(ctx, cmd)
			if err != nil {
				return err
			}

			ser := serializer.NewFileWriterOrStdout(outFormat, cmd.String("output"))
			defer func() { _ = ser.Close() }()
			return ser.Serialize(ctx, caps)
		},
	}
}

func resolveCapabilities(ctx context.Context, cmd *cli.Command) (*topology.Capabilities, error) {
	if path := cmd.String("input"); path != "" {
		snap, err := serializer.FromFile[topology.HardwareSnapshot](path)
		if err != nil {
			return nil, fmt.Errorf("failed to load snapshot from %q: %w", path, err)
		}
		return &snap.Topology.Capabilities, nil
	}

	snap, err := captureSnapshot(ctx, snapshot.DefaultOptions(), cmd.Duration("timeout"), 0, true)
	if err != nil {
		return nil, err
	}
	return &snap.Topology.Capabilities, nil
}
