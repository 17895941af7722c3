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

import "slices"

// Clone returns a deep copy of the snapshot. The cache owns stored
// topologies and hands out clones so no caller can mutate cached state.
func (s HardwareSnapshot) Clone() HardwareSnapshot {
	out := s
	out.Topology = s.Topology.Clone()
	return out
}

// Clone returns a deep copy of the topology.
func (t SystemTopology) Clone() SystemTopology {
	out := t

	out.CPU = t.CPU.clone()
	out.Memory = t.Memory.clone()
	out.Storage.Devices = cloneDevices(t.Storage.Devices)
	out.Network = t.Network.clone()

	if t.GPUs != nil {
		out.GPUs = cloneGPUs(t.GPUs)
	}
	if t.GPUTopology != nil {
		gt := GPUTopology{
			GPUs: cloneGPUs(t.GPUTopology.GPUs),
			PCIe: slices.Clone(t.GPUTopology.PCIe),
		}
		gt.BandwidthMatrix = make([][]float64, len(t.GPUTopology.BandwidthMatrix))
		for i, row := range t.GPUTopology.BandwidthMatrix {
			gt.BandwidthMatrix[i] = slices.Clone(row)
		}
		out.GPUTopology = &gt
	}
	if t.Platform != nil {
		out.Platform = &PlatformServices{Services: slices.Clone(t.Platform.Services)}
	}

	return out
}

func (c CPUInfo) clone() CPUInfo {
	out := c
	out.Flags = slices.Clone(c.Flags)
	out.Virtualization = clonePtr(c.Virtualization)
	out.Caches = CPUCaches{
		L1dBytes: clonePtr(c.Caches.L1dBytes),
		L1iBytes: clonePtr(c.Caches.L1iBytes),
		L2Bytes:  clonePtr(c.Caches.L2Bytes),
		L3Bytes:  clonePtr(c.Caches.L3Bytes),
	}
	out.Frequency = CPUFrequency{
		MinMHz:     clonePtr(c.Frequency.MinMHz),
		MaxMHz:     clonePtr(c.Frequency.MaxMHz),
		CurrentMHz: clonePtr(c.Frequency.CurrentMHz),
	}
	if c.NUMANodes != nil {
		out.NUMANodes = make([]NUMANode, len(c.NUMANodes))
		for i, n := range c.NUMANodes {
			nn := n
			nn.CPUs = slices.Clone(n.CPUs)
			nn.Distances = slices.Clone(n.Distances)
			out.NUMANodes[i] = nn
		}
	}
	return out
}

func (m MemoryInfo) clone() MemoryInfo {
	out := m
	out.Modules = slices.Clone(m.Modules)
	if m.Hugepages != nil {
		hp := *m.Hugepages
		out.Hugepages = &hp
	}
	return out
}

func (n NetworkInfo) clone() NetworkInfo {
	out := n
	if n.Interfaces != nil {
		out.Interfaces = make([]NetworkInterface, len(n.Interfaces))
		for i, iface := range n.Interfaces {
			ni := iface
			ni.SpeedMbps = clonePtr(iface.SpeedMbps)
			ni.IPv4 = slices.Clone(iface.IPv4)
			ni.IPv6 = slices.Clone(iface.IPv6)
			if iface.Stats != nil {
				ni.Stats = &InterfaceStats{
					RxBytes:   clonePtr(iface.Stats.RxBytes),
					TxBytes:   clonePtr(iface.Stats.TxBytes),
					RxPackets: clonePtr(iface.Stats.RxPackets),
					TxPackets: clonePtr(iface.Stats.TxPackets),
					RxErrors:  clonePtr(iface.Stats.RxErrors),
					TxErrors:  clonePtr(iface.Stats.TxErrors),
				}
			}
			out.Interfaces[i] = ni
		}
	}
	if n.InfiniBand != nil {
		out.InfiniBand = make([]InfiniBandDevice, len(n.InfiniBand))
		for i, dev := range n.InfiniBand {
			nd := dev
			nd.Ports = slices.Clone(dev.Ports)
			out.InfiniBand[i] = nd
		}
	}
	return out
}

func cloneDevices(devices []StorageDevice) []StorageDevice {
	if devices == nil {
		return nil
	}
	out := make([]StorageDevice, len(devices))
	for i, d := range devices {
		nd := d
		nd.Model = clonePtr(d.Model)
		nd.Vendor = clonePtr(d.Vendor)
		nd.Serial = clonePtr(d.Serial)
		nd.Rotational = clonePtr(d.Rotational)
		nd.Transport = clonePtr(d.Transport)
		nd.Mountpoint = clonePtr(d.Mountpoint)
		nd.Filesystem = clonePtr(d.Filesystem)
		if d.Partitions != nil {
			nd.Partitions = make([]Partition, len(d.Partitions))
			for j, p := range d.Partitions {
				np := p
				np.Mountpoint = clonePtr(p.Mountpoint)
				np.Filesystem = clonePtr(p.Filesystem)
				nd.Partitions[j] = np
			}
		}
		out[i] = nd
	}
	return out
}

func cloneGPUs(gpus []GPUDevice) []GPUDevice {
	if gpus == nil {
		return nil
	}
	out := make([]GPUDevice, len(gpus))
	for i, g := range gpus {
		ng := g
		ng.Temperature.MaxC = clonePtr(g.Temperature.MaxC)
		ng.Temperature.SlowdownC = clonePtr(g.Temperature.SlowdownC)
		ng.Temperature.ShutdownC = clonePtr(g.Temperature.ShutdownC)
		ng.NVLinks = slices.Clone(g.NVLinks)
		out[i] = ng
	}
	return out
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
