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

package gpu

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/NVIDIA/hwsnap/pkg/topology"
)

// nvlinkGBpsPerLink is the unidirectional bandwidth of one NVLink lane
// bundle as reported for current generations. An NV<n> token in the
// interconnect matrix scales linearly with the link count.
const nvlinkGBpsPerLink = 25.0

// Topology derives the interconnect layout for the given devices. GPU-to-GPU
// bandwidth comes from the matrix report, PCIe link status from a dedicated
// query. Both phases are best effort: partial data never fails the call.
func (d *Detector) Topology(ctx context.Context, gpus []topology.GPUDevice) *topology.GPUTopology {
	topo := &topology.GPUTopology{
		GPUs:            gpus,
		BandwidthMatrix: emptyMatrix(len(gpus)),
	}
	if len(gpus) == 0 {
		return topo
	}

	res := d.Runner.Run(ctx, smiCommand, []string{"topo", "-m"}, d.Timeout)
	if res.OK() {
		if m := parseTopoMatrix(res.Stdout, len(gpus)); m != nil {
			topo.BandwidthMatrix = m
			attachNVLinks(gpus, m)
		}
	} else {
		slog.Debug("nvidia-smi topo failed", "exitCode", res.ExitCode)
	}

	topo.PCIe = d.queryPCIe(ctx)

	return topo
}

// parseTopoMatrix parses the connectivity matrix report into an N×N
// bandwidth matrix in GB/s. The header row establishes the column order;
// subsequent "GPUn" rows are read positionally against it. Rows whose
// column count disagrees with the header are skipped rather than
// misattributed. Returns nil when no usable matrix was found.
func parseTopoMatrix(text string, count int) [][]float64 {
	lines := strings.Split(text, "\n")

	var columns []int // column index -> GPU id
	matrix := emptyMatrix(count)
	seen := false

	for _, line := range lines {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		if columns == nil {
			// The header row is indented: its first cell sits above the
			// matrix body, leaving the row-label column blank.
			if line[0] == ' ' || line[0] == '\t' {
				columns = headerColumns(fields)
			}
			continue
		}

		row, ok := gpuLabel(fields[0])
		if !ok || row < 0 || row >= count {
			continue
		}
		cells := fields[1:]
		if len(cells) < len(columns) {
			continue
		}

		for i, col := range columns {
			if col < 0 || col >= count {
				continue
			}
			if row == col {
				continue
			}
			matrix[row][col] = tokenBandwidth(cells[i])
		}
		seen = true
	}

	if !seen {
		return nil
	}
	return matrix
}

// headerColumns maps matrix column positions to GPU ids, or nil when the
// line is not the matrix header.
func headerColumns(fields []string) []int {
	var cols []int
	for _, f := range fields {
		id, ok := gpuLabel(f)
		if !ok {
			break
		}
		cols = append(cols, id)
	}
	if len(cols) == 0 {
		return nil
	}
	return cols
}

// gpuLabel parses a "GPU<n>" cell label.
func gpuLabel(s string) (int, bool) {
	rest, found := strings.CutPrefix(s, "GPU")
	if !found {
		return 0, false
	}
	id, err := strconv.Atoi(rest)
	if err != nil {
		return 0, false
	}
	return id, true
}

// tokenBandwidth converts a matrix cell into GB/s. Only NV<n> tokens carry
// a direct link; PHB, PXB, PIX, NODE, SYS and X all map to zero.
func tokenBandwidth(token string) float64 {
	rest, found := strings.CutPrefix(token, "NV")
	if !found {
		return 0
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n <= 0 {
		return 0
	}
	return float64(n) * nvlinkGBpsPerLink
}

// attachNVLinks rewrites each device's NVLink peer list from the matrix.
func attachNVLinks(gpus []topology.GPUDevice, matrix [][]float64) {
	for i := range gpus {
		if i >= len(matrix) {
			break
		}
		var links []topology.NVLink
		for peer, gbps := range matrix[i] {
			if peer == i || gbps <= 0 {
				continue
			}
			links = append(links, topology.NVLink{
				PeerID:        peer,
				LinkCount:     int(gbps / nvlinkGBpsPerLink),
				BandwidthGBps: gbps,
			})
		}
		gpus[i].NVLinks = links
	}
}

// queryPCIe reads current and maximum PCIe link status per device.
func (d *Detector) queryPCIe(ctx context.Context) []topology.PCIeInfo {
	res := d.Runner.Run(ctx, smiCommand, []string{
		"--query-gpu=pci.bus_id,pcie.link.gen.current,pcie.link.gen.max,pcie.link.width.current,pcie.link.width.max",
		"--format=csv,noheader,nounits",
	}, d.Timeout)
	if !res.OK() {
		return nil
	}

	var infos []topology.PCIeInfo
	for _, line := range strings.Split(res.Stdout, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := strings.Split(line, ",")
		if len(fields) != 5 {
			continue
		}
		for i := range fields {
			fields[i] = strings.TrimSpace(fields[i])
		}
		infos = append(infos, topology.PCIeInfo{
			BusID:         fields[0],
			Generation:    int(csvInt(fields[1])),
			MaxGeneration: int(csvInt(fields[2])),
			LinkWidth:     int(csvInt(fields[3])),
			MaxLinkWidth:  int(csvInt(fields[4])),
		})
	}
	return infos
}

func emptyMatrix(n int) [][]float64 {
	m := make([][]float64, n)
	for i := range m {
		m[i] = make([]float64, n)
	}
	return m
}
