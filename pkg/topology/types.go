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
	"time"
)

// SystemTopology is the aggregate snapshot of a machine's hardware. A build
// produces a new immutable value; nothing mutates a built topology in place.
// Optional sections are nil when the underlying hardware or tooling is
// absent.
type SystemTopology struct {
	Hostname      string  `json:"hostname" yaml:"hostname"`
	Kernel        string  `json:"kernel" yaml:"kernel"`
	OSName        string  `json:"osName" yaml:"osName"`
	UptimeSeconds float64 `json:"uptimeSeconds" yaml:"uptimeSeconds"`

	CPU     CPUInfo     `json:"cpu" yaml:"cpu"`
	Memory  MemoryInfo  `json:"memory" yaml:"memory"`
	Storage StorageInfo `json:"storage" yaml:"storage"`
	Network NetworkInfo `json:"network" yaml:"network"`

	GPUs        []GPUDevice       `json:"gpus,omitempty" yaml:"gpus,omitempty"`
	GPUTopology *GPUTopology      `json:"gpuTopology,omitempty" yaml:"gpuTopology,omitempty"`
	Platform    *PlatformServices `json:"platform,omitempty" yaml:"platform,omitempty"`

	Capabilities Capabilities `json:"capabilities" yaml:"capabilities"`
}

// CPUInfo describes the processor complex.
type CPUInfo struct {
	Vendor        string       `json:"vendor" yaml:"vendor"`
	ModelName     string       `json:"modelName" yaml:"modelName"`
	Architecture  string       `json:"architecture" yaml:"architecture"`
	PhysicalCores int          `json:"physicalCores" yaml:"physicalCores"`
	LogicalCores  int          `json:"logicalCores" yaml:"logicalCores"`
	Sockets       int          `json:"sockets" yaml:"sockets"`
	Caches        CPUCaches    `json:"caches" yaml:"caches"`
	Frequency     CPUFrequency `json:"frequency" yaml:"frequency"`
	Flags         []string     `json:"flags,omitempty" yaml:"flags,omitempty"`

	// Virtualization is the hardware virtualization tag ("vt-x", "amd-v",
	// or "guest" when running under a hypervisor), nil when unsupported.
	Virtualization *string `json:"virtualization,omitempty" yaml:"virtualization,omitempty"`

	// NUMANodes is nil when the NUMA layout could not be determined.
	NUMANodes []NUMANode `json:"numaNodes,omitempty" yaml:"numaNodes,omitempty"`
}

// CPUCaches holds per-level cache sizes in bytes; a nil level is unknown.
type CPUCaches struct {
	L1dBytes *uint64 `json:"l1dBytes,omitempty" yaml:"l1dBytes,omitempty"`
	L1iBytes *uint64 `json:"l1iBytes,omitempty" yaml:"l1iBytes,omitempty"`
	L2Bytes  *uint64 `json:"l2Bytes,omitempty" yaml:"l2Bytes,omitempty"`
	L3Bytes  *uint64 `json:"l3Bytes,omitempty" yaml:"l3Bytes,omitempty"`
}

// CPUFrequency holds clock rates in MHz; a nil rate is unknown.
type CPUFrequency struct {
	MinMHz     *float64 `json:"minMHz,omitempty" yaml:"minMHz,omitempty"`
	MaxMHz     *float64 `json:"maxMHz,omitempty" yaml:"maxMHz,omitempty"`
	CurrentMHz *float64 `json:"currentMHz,omitempty" yaml:"currentMHz,omitempty"`
}

// NUMANode is one node of a non-uniform memory architecture. Node IDs are
// unique within a topology, and once all nodes are parsed each node's
// distance vector has one entry per node.
type NUMANode struct {
	ID         int    `json:"id" yaml:"id"`
	CPUs       []int  `json:"cpus" yaml:"cpus"`
	TotalBytes uint64 `json:"totalBytes" yaml:"totalBytes"`
	FreeBytes  uint64 `json:"freeBytes" yaml:"freeBytes"`
	Distances  []int  `json:"distances" yaml:"distances"`
}

// MemoryInfo describes system memory. UsedBytes is always derived as
// total − free − buffers − cached rather than trusting a single counter,
// because different kernels expose different subsets.
type MemoryInfo struct {
	TotalBytes     uint64 `json:"totalBytes" yaml:"totalBytes"`
	AvailableBytes uint64 `json:"availableBytes" yaml:"availableBytes"`
	UsedBytes      uint64 `json:"usedBytes" yaml:"usedBytes"`
	FreeBytes      uint64 `json:"freeBytes" yaml:"freeBytes"`
	SharedBytes    uint64 `json:"sharedBytes" yaml:"sharedBytes"`
	BuffersBytes   uint64 `json:"buffersBytes" yaml:"buffersBytes"`
	CachedBytes    uint64 `json:"cachedBytes" yaml:"cachedBytes"`
	SwapTotalBytes uint64 `json:"swapTotalBytes" yaml:"swapTotalBytes"`
	SwapFreeBytes  uint64 `json:"swapFreeBytes" yaml:"swapFreeBytes"`
	SwapUsedBytes  uint64 `json:"swapUsedBytes" yaml:"swapUsedBytes"`

	// Modules is the DIMM inventory; nil when the inventory tool is
	// unavailable or the process lacks privilege. A lower-fidelity result,
	// not an error.
	Modules []MemoryModule `json:"modules,omitempty" yaml:"modules,omitempty"`

	// Hugepages is nil when no hugepage pool is configured.
	Hugepages *Hugepages `json:"hugepages,omitempty" yaml:"hugepages,omitempty"`
}

// MemoryModule is one physical DIMM.
type MemoryModule struct {
	Locator      string `json:"locator" yaml:"locator"`
	SizeBytes    uint64 `json:"sizeBytes" yaml:"sizeBytes"`
	Type         string `json:"type,omitempty" yaml:"type,omitempty"`
	SpeedMTs     int    `json:"speedMTs,omitempty" yaml:"speedMTs,omitempty"`
	Manufacturer string `json:"manufacturer,omitempty" yaml:"manufacturer,omitempty"`
	PartNumber   string `json:"partNumber,omitempty" yaml:"partNumber,omitempty"`
}

// Hugepages describes the hugepage pool.
type Hugepages struct {
	Total     uint64 `json:"total" yaml:"total"`
	Free      uint64 `json:"free" yaml:"free"`
	SizeBytes uint64 `json:"sizeBytes" yaml:"sizeBytes"`
}

// GPUDevice is one GPU as reported by the vendor CLI.
type GPUDevice struct {
	ID                int               `json:"id" yaml:"id"`
	UUID              string            `json:"uuid" yaml:"uuid"`
	Name              string            `json:"name" yaml:"name"`
	BusID             string            `json:"busId" yaml:"busId"`
	Memory            GPUMemory         `json:"memory" yaml:"memory"`
	Utilization       GPUUtilization    `json:"utilization" yaml:"utilization"`
	Temperature       GPUTemperature    `json:"temperature" yaml:"temperature"`
	Power             GPUPower          `json:"power" yaml:"power"`
	Clocks            GPUClocks         `json:"clocks" yaml:"clocks"`
	ComputeCapability ComputeCapability `json:"computeCapability" yaml:"computeCapability"`
	DriverVersion     string            `json:"driverVersion,omitempty" yaml:"driverVersion,omitempty"`
	CUDAVersion       string            `json:"cudaVersion,omitempty" yaml:"cudaVersion,omitempty"`

	// NVLinks lists direct NVLink connections to peer GPUs; nil when the
	// topology phase was skipped or the device has no links.
	NVLinks []NVLink `json:"nvlinks,omitempty" yaml:"nvlinks,omitempty"`
}

// GPUMemory holds framebuffer sizes in bytes.
type GPUMemory struct {
	TotalBytes uint64 `json:"totalBytes" yaml:"totalBytes"`
	UsedBytes  uint64 `json:"usedBytes" yaml:"usedBytes"`
	FreeBytes  uint64 `json:"freeBytes" yaml:"freeBytes"`
}

// GPUUtilization holds instantaneous utilization percentages.
type GPUUtilization struct {
	GPUPercent    float64 `json:"gpuPercent" yaml:"gpuPercent"`
	MemoryPercent float64 `json:"memoryPercent" yaml:"memoryPercent"`
}

// GPUTemperature holds thermal readings in degrees Celsius. Threshold
// fields are nil when the driver does not report them.
type GPUTemperature struct {
	CurrentC  float64  `json:"currentC" yaml:"currentC"`
	MaxC      *float64 `json:"maxC,omitempty" yaml:"maxC,omitempty"`
	SlowdownC *float64 `json:"slowdownC,omitempty" yaml:"slowdownC,omitempty"`
	ShutdownC *float64 `json:"shutdownC,omitempty" yaml:"shutdownC,omitempty"`
}

// GPUPower holds power readings in watts.
type GPUPower struct {
	DrawWatts         float64 `json:"drawWatts" yaml:"drawWatts"`
	LimitWatts        float64 `json:"limitWatts" yaml:"limitWatts"`
	DefaultLimitWatts float64 `json:"defaultLimitWatts" yaml:"defaultLimitWatts"`
}

// GPUClocks holds the four clock domains in MHz.
type GPUClocks struct {
	GraphicsMHz int `json:"graphicsMHz" yaml:"graphicsMHz"`
	SMMHz       int `json:"smMHz" yaml:"smMHz"`
	MemoryMHz   int `json:"memoryMHz" yaml:"memoryMHz"`
	VideoMHz    int `json:"videoMHz" yaml:"videoMHz"`
}

// ComputeCapability is the GPU architecture version gating feature support.
type ComputeCapability struct {
	Major int `json:"major" yaml:"major"`
	Minor int `json:"minor" yaml:"minor"`
}

// NVLink is a direct point-to-point link to a peer GPU.
type NVLink struct {
	PeerID        int     `json:"peerId" yaml:"peerId"`
	LinkCount     int     `json:"linkCount" yaml:"linkCount"`
	BandwidthGBps float64 `json:"bandwidthGBps" yaml:"bandwidthGBps"`
}

// GPUTopology is the interconnect layout across all GPUs.
type GPUTopology struct {
	GPUs []GPUDevice `json:"gpus" yaml:"gpus"`

	// BandwidthMatrix is N×N in GB/s: 0 means no direct link, the diagonal
	// is always 0.
	BandwidthMatrix [][]float64 `json:"bandwidthMatrix" yaml:"bandwidthMatrix"`

	PCIe []PCIeInfo `json:"pcie,omitempty" yaml:"pcie,omitempty"`
}

// PCIeInfo is the PCIe link status of one GPU.
type PCIeInfo struct {
	BusID         string `json:"busId" yaml:"busId"`
	Generation    int    `json:"generation" yaml:"generation"`
	MaxGeneration int    `json:"maxGeneration" yaml:"maxGeneration"`
	LinkWidth     int    `json:"linkWidth" yaml:"linkWidth"`
	MaxLinkWidth  int    `json:"maxLinkWidth" yaml:"maxLinkWidth"`
}

// StorageInfo describes block storage.
type StorageInfo struct {
	Devices []StorageDevice `json:"devices" yaml:"devices"`
}

// StorageDevice is one block device. Descriptive fields are nil when the
// listing tool did not report them.
type StorageDevice struct {
	Name       string  `json:"name" yaml:"name"`
	Type       string  `json:"type" yaml:"type"`
	SizeBytes  uint64  `json:"sizeBytes" yaml:"sizeBytes"`
	Model      *string `json:"model,omitempty" yaml:"model,omitempty"`
	Vendor     *string `json:"vendor,omitempty" yaml:"vendor,omitempty"`
	Serial     *string `json:"serial,omitempty" yaml:"serial,omitempty"`
	Rotational *bool   `json:"rotational,omitempty" yaml:"rotational,omitempty"`
	Transport  *string `json:"transport,omitempty" yaml:"transport,omitempty"`
	Mountpoint *string `json:"mountpoint,omitempty" yaml:"mountpoint,omitempty"`
	Filesystem *string `json:"filesystem,omitempty" yaml:"filesystem,omitempty"`

	Partitions []Partition `json:"partitions,omitempty" yaml:"partitions,omitempty"`
}

// Partition is one partition of a block device.
type Partition struct {
	Name       string  `json:"name" yaml:"name"`
	SizeBytes  uint64  `json:"sizeBytes" yaml:"sizeBytes"`
	Mountpoint *string `json:"mountpoint,omitempty" yaml:"mountpoint,omitempty"`
	Filesystem *string `json:"filesystem,omitempty" yaml:"filesystem,omitempty"`
}

// NetworkInfo describes network interfaces and, when present, InfiniBand
// fabric devices.
type NetworkInfo struct {
	Interfaces []NetworkInterface `json:"interfaces" yaml:"interfaces"`

	// InfiniBand is nil when no IB tooling or hardware is present.
	InfiniBand []InfiniBandDevice `json:"infiniband,omitempty" yaml:"infiniband,omitempty"`
}

// NetworkInterface is one network interface with merged sysfs statistics.
type NetworkInterface struct {
	Name       string          `json:"name" yaml:"name"`
	State      string          `json:"state" yaml:"state"`
	MACAddress string          `json:"macAddress,omitempty" yaml:"macAddress,omitempty"`
	MTU        int             `json:"mtu" yaml:"mtu"`
	SpeedMbps  *int64          `json:"speedMbps,omitempty" yaml:"speedMbps,omitempty"`
	IPv4       []string        `json:"ipv4,omitempty" yaml:"ipv4,omitempty"`
	IPv6       []string        `json:"ipv6,omitempty" yaml:"ipv6,omitempty"`
	Stats      *InterfaceStats `json:"stats,omitempty" yaml:"stats,omitempty"`
}

// InterfaceStats are runtime counters read from sysfs. Each field is
// independently optional: a statistic leaf that does not exist yields a nil
// field only, never a detector failure.
type InterfaceStats struct {
	RxBytes   *uint64 `json:"rxBytes,omitempty" yaml:"rxBytes,omitempty"`
	TxBytes   *uint64 `json:"txBytes,omitempty" yaml:"txBytes,omitempty"`
	RxPackets *uint64 `json:"rxPackets,omitempty" yaml:"rxPackets,omitempty"`
	TxPackets *uint64 `json:"txPackets,omitempty" yaml:"txPackets,omitempty"`
	RxErrors  *uint64 `json:"rxErrors,omitempty" yaml:"rxErrors,omitempty"`
	TxErrors  *uint64 `json:"txErrors,omitempty" yaml:"txErrors,omitempty"`
}

// InfiniBandDevice is one IB channel adapter.
type InfiniBandDevice struct {
	Name            string           `json:"name" yaml:"name"`
	Type            string           `json:"type,omitempty" yaml:"type,omitempty"`
	FirmwareVersion string           `json:"firmwareVersion,omitempty" yaml:"firmwareVersion,omitempty"`
	HardwareVersion string           `json:"hardwareVersion,omitempty" yaml:"hardwareVersion,omitempty"`
	Ports           []InfiniBandPort `json:"ports" yaml:"ports"`
}

// InfiniBandPort is one port of an IB adapter.
type InfiniBandPort struct {
	Number        int    `json:"number" yaml:"number"`
	State         string `json:"state,omitempty" yaml:"state,omitempty"`
	PhysicalState string `json:"physicalState,omitempty" yaml:"physicalState,omitempty"`
	Rate          string `json:"rate,omitempty" yaml:"rate,omitempty"`
	GUID          string `json:"guid,omitempty" yaml:"guid,omitempty"`
}

// PlatformServices reports the state of GPU platform systemd units
// (persistence daemon, fabric manager, DCGM).
type PlatformServices struct {
	Services []ServiceState `json:"services" yaml:"services"`
}

// ServiceState is the observed state of one systemd unit.
type ServiceState struct {
	Unit        string `json:"unit" yaml:"unit"`
	Loaded      bool   `json:"loaded" yaml:"loaded"`
	ActiveState string `json:"activeState" yaml:"activeState"`
	SubState    string `json:"subState,omitempty" yaml:"subState,omitempty"`
}

// Capabilities are boolean flags derived from the detected topology. They
// are always computed, never hand-set.
type Capabilities struct {
	HasNVIDIA         bool `json:"hasNVIDIA" yaml:"hasNVIDIA"`
	HasInfiniBand     bool `json:"hasInfiniBand" yaml:"hasInfiniBand"`
	HasNVMe           bool `json:"hasNVMe" yaml:"hasNVMe"`
	HasRAID           bool `json:"hasRAID" yaml:"hasRAID"`
	HasNUMA           bool `json:"hasNUMA" yaml:"hasNUMA"`
	HasVirtualization bool `json:"hasVirtualization" yaml:"hasVirtualization"`
}

// HardwareSnapshot wraps a topology with build metadata. Cached is true when
// the snapshot was served from the cache rather than freshly built.
type HardwareSnapshot struct {
	ID              string         `json:"id" yaml:"id"`
	Topology        SystemTopology `json:"topology" yaml:"topology"`
	Timestamp       time.Time      `json:"timestamp" yaml:"timestamp"`
	DetectionTimeMs int64          `json:"detectionTimeMs" yaml:"detectionTimeMs"`
	Cached          bool           `json:"cached" yaml:"cached"`
}
