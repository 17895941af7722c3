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

package topology

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func sampleSnapshot() HardwareSnapshot {
	return HardwareSnapshot{
		ID: "snap-1",
		Topology: SystemTopology{
			Hostname: "node-0",
			CPU: CPUInfo{
				ModelName:      "AMD EPYC 7742",
				Flags:          []string{"sse4_2", "avx2"},
				Virtualization: ptr("amd-v"),
				NUMANodes: []NUMANode{
					{ID: 0, CPUs: []int{0, 1}, Distances: []int{10, 32}},
					{ID: 1, CPUs: []int{2, 3}, Distances: []int{32, 10}},
				},
			},
			Memory: MemoryInfo{
				TotalBytes: 512 << 30,
				Hugepages:  &Hugepages{Total: 1024, SizeBytes: 2 << 20},
			},
			Storage: StorageInfo{
				Devices: []StorageDevice{
					{
						Name:      "nvme0n1",
						Type:      "disk",
						Model:     ptr("SAMSUNG MZ1L23T8"),
						Transport: ptr("nvme"),
						Partitions: []Partition{
							{Name: "nvme0n1p1", Mountpoint: ptr("/")},
						},
					},
				},
			},
			Network: NetworkInfo{
				Interfaces: []NetworkInterface{
					{
						Name:      "eth0",
						State:     "UP",
						SpeedMbps: ptr(int64(100000)),
						IPv4:      []string{"10.0.0.5/24"},
						Stats:     &InterfaceStats{RxBytes: ptr(uint64(42))},
					},
				},
				InfiniBand: []InfiniBandDevice{
					{Name: "mlx5_0", Ports: []InfiniBandPort{{Number: 1, State: "Active"}}},
				},
			},
			GPUs: []GPUDevice{
				{
					ID:          0,
					Name:        "NVIDIA A100-SXM4-80GB",
					Temperature: GPUTemperature{MaxC: ptr(90.0)},
					NVLinks:     []NVLink{{PeerID: 1, LinkCount: 12, BandwidthGBps: 300}},
				},
			},
			GPUTopology: &GPUTopology{
				BandwidthMatrix: [][]float64{{0, 300}, {300, 0}},
				PCIe:            []PCIeInfo{{BusID: "00000000:07:00.0", Generation: 4}},
			},
			Platform: &PlatformServices{
				Services: []ServiceState{{Unit: "nvidia-persistenced.service", Loaded: true}},
			},
		},
	}
}

func TestCloneIsDeep(t *testing.T) {
	orig := sampleSnapshot()
	c := orig.Clone()

	c.Topology.CPU.Flags[0] = "mutated"
	c.Topology.CPU.NUMANodes[0].CPUs[0] = 99
	*c.Topology.CPU.Virtualization = "mutated"
	*c.Topology.Memory.Hugepages = Hugepages{}
	*c.Topology.Storage.Devices[0].Model = "mutated"
	*c.Topology.Storage.Devices[0].Partitions[0].Mountpoint = "/mutated"
	*c.Topology.Network.Interfaces[0].Stats.RxBytes = 0
	c.Topology.Network.Interfaces[0].IPv4[0] = "mutated"
	c.Topology.Network.InfiniBand[0].Ports[0].State = "Down"
	*c.Topology.GPUs[0].Temperature.MaxC = 0
	c.Topology.GPUs[0].NVLinks[0].BandwidthGBps = 0
	c.Topology.GPUTopology.BandwidthMatrix[0][1] = 0
	c.Topology.Platform.Services[0].Loaded = false

	assert.Equal(t, sampleSnapshot(), orig)
}

func TestCloneEquality(t *testing.T) {
	orig := sampleSnapshot()
	c := orig.Clone()
	assert.Equal(t, orig, c)
}

func TestCloneNilSections(t *testing.T) {
	orig := HardwareSnapshot{ID: "bare", Topology: SystemTopology{Hostname: "node-0"}}
	c := orig.Clone()

	require.Equal(t, orig, c)
	assert.Nil(t, c.Topology.GPUs)
	assert.Nil(t, c.Topology.GPUTopology)
	assert.Nil(t, c.Topology.Platform)
	assert.Nil(t, c.Topology.Memory.Hugepages)
}
