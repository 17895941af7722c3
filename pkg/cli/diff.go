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

	"github.com/NVIDIA/hwsnap/pkg/diff"
	"github.com/NVIDIA/hwsnap/pkg/serializer"
	"github.com/NVIDIA/hwsnap/pkg/topology"
)

func diffCmd() *cli.Command {
	return &cli.Command{
		Name:      "diff",
		Usage:     "Compare two saved snapshot files",
		ArgsUsage: "<before.json> <after.json>",
		Description: `Compare two previously saved snapshots and report every topology
field that changed, was added, or was removed. Snapshots from different
hosts can be compared to spot configuration drift across nodes.`,
		Flags: []cli.Flag{
			outputFlag,
			formatFlag,
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			outFormat, err := parseOutputFormat(cmd)
			if err != nil {
				return err
			}

			if cmd.Args().Len() != 2 {
				return fmt.Errorf("expected 2 snapshot files, got %d", cmd.Args().Len())
			}

			before, err := serializer.FromFile[topology.HardwareSnapshot](cmd.Args().Get(0))
			if err != nil {
				return fmt.Errorf("failed to load snapshot from %q: %w", cmd.Args().Get(0), err)
			}
			after, err := serializer.FromFile[topology.HardwareSnapshot](cmd.Args().Get(1))
			if err != nil {
				return fmt.Errorf("failed to load snapshot from %q: %w", cmd.Args().Get(1), err)
			}

			ser := serializer.NewFileWriterOrStdout(outFormat, cmd.String("output"))
			defer func() { _ = ser.Close() }()
			return ser.Serialize(ctx, diff.CompareSnapshots(before, after))
		},
	}
}
