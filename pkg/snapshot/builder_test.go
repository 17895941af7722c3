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

package snapshot

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NVIDIA/hwsnap/pkg/detector/gpu"
	"github.com/NVIDIA/hwsnap/pkg/errors"
	"github.com/NVIDIA/hwsnap/pkg/topology"
)

// stubSource returns canned results per domain.
type stubSource struct {
	cpu      *topology.CPUInfo
	cpuErr   error
	mem      *topology.MemoryInfo
	memErr   error
	gpus     []topology.GPUDevice
	gpuErr   error
	stor     *topology.StorageInfo
	storErr  error
	net      *topology.NetworkInfo
	netErr   error
	plat     *topology.PlatformServices
	platErr  error
	raid     bool
	ib       bool
	numa     bool
	nvme     bool
	topoCall bool
}

func (s *stubSource) DetectCPU(context.Context) (*topology.CPUInfo, error) {
	return s.cpu, s.cpuErr
}

func (s *stubSource) DetectMemory(context.Context) (*topology.MemoryInfo, error) {
	return s.mem, s.memErr
}

func (s *stubSource) DetectGPUs(context.Context) ([]topology.GPUDevice, error) {
	return s.gpus, s.gpuErr
}

func (s *stubSource) GPUTopology(_ context.Context, gpus []topology.GPUDevice) *topology.GPUTopology {
	s.topoCall = true
	return &topology.GPUTopology{GPUs: gpus}
}

func (s *stubSource) DetectStorage(context.Context) (*topology.StorageInfo, error) {
	return s.stor, s.storErr
}

func (s *stubSource) DetectNetwork(context.Context) (*topology.NetworkInfo, error) {
	return s.net, s.netErr
}

func (s *stubSource) DetectPlatform(context.Context) (*topology.PlatformServices, error) {
	return s.plat, s.platErr
}

func (s *stubSource) HasRAID() bool       { return s.raid }
func (s *stubSource) HasInfiniBand() bool { return s.ib }
func (s *stubSource) HasNUMA() bool       { return s.numa }
func (s *stubSource) HasNVMe() bool       { return s.nvme }

func fullStub() *stubSource {
	virt := "vt-x"
	nvme := "nvme"
	return &stubSource{
		cpu: &topology.CPUInfo{
			ModelName:     "test cpu",
			PhysicalCores: 8,
			LogicalCores:  16,
			Virtualization: &virt,
			NUMANodes: []topology.NUMANode{
				{ID: 0}, {ID: 1},
			},
		},
		mem: &topology.MemoryInfo{TotalBytes: 64 << 30},
		gpus: []topology.GPUDevice{
			{ID: 0, Name: "NVIDIA A100-SXM4-80GB"},
		},
		stor: &topology.StorageInfo{
			Devices: []topology.StorageDevice{{Name: "nvme0n1", Transport: &nvme}},
		},
		net:  &topology.NetworkInfo{Interfaces: []topology.NetworkInterface{{Name: "eth0"}}},
		plat: &topology.PlatformServices{Services: []topology.ServiceState{{Unit: "nvidia-dcgm.service"}}},
		raid: true,
	}
}

func TestBuildFull(t *testing.T) {
	t.Parallel()

	src := fullStub()
	b := &Builder{Source: src, Options: DefaultOptions()}

	snap, err := b.Build(context.Background())
	require.NoError(t, err)
	require.NotNil(t, snap)

	assert.NotEmpty(t, snap.ID)
	assert.False(t, snap.Timestamp.IsZero())
	assert.False(t, snap.Cached)

	topo := snap.Topology
	assert.Equal(t, "test cpu", topo.CPU.ModelName)
	assert.Equal(t, uint64(64<<30), topo.Memory.TotalBytes)
	require.Len(t, topo.GPUs, 1)
	require.NotNil(t, topo.GPUTopology)
	assert.True(t, src.topoCall)
	require.NotNil(t, topo.Platform)
	require.Len(t, topo.Storage.Devices, 1)
	require.Len(t, topo.Network.Interfaces, 1)

	caps := topo.Capabilities
	assert.True(t, caps.HasNVIDIA)
	assert.True(t, caps.HasNVMe)
	assert.True(t, caps.HasRAID)
	assert.True(t, caps.HasNUMA)
	assert.True(t, caps.HasVirtualization)
	assert.False(t, caps.HasInfiniBand)
}

func TestBuildCPUFailureIsFatal(t *testing.T) {
	t.Parallel()

	src := fullStub()
	src.cpu = nil
	src.cpuErr = errors.RequiredComponent("cpu", assert.AnError)

	b := &Builder{Source: src, Options: DefaultOptions()}
	_, err := b.Build(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsRequiredComponent(err))
}

func TestBuildMemoryFailureIsFatal(t *testing.T) {
	t.Parallel()

	src := fullStub()
	src.mem = nil
	src.memErr = errors.RequiredComponent("memory", assert.AnError)

	b := &Builder{Source: src, Options: DefaultOptions()}
	_, err := b.Build(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsRequiredComponent(err))
}

func TestBuildGPUAbsenceDegrades(t *testing.T) {
	t.Parallel()

	src := fullStub()
	src.gpus = nil
	src.gpuErr = gpu.ErrNoGPUs

	b := &Builder{Source: src, Options: DefaultOptions()}
	snap, err := b.Build(context.Background())
	require.NoError(t, err)

	assert.Empty(t, snap.Topology.GPUs)
	assert.Nil(t, snap.Topology.GPUTopology)
	assert.False(t, snap.Topology.Capabilities.HasNVIDIA)
}

func TestBuildOptionalFailuresDegrade(t *testing.T) {
	t.Parallel()

	src := fullStub()
	src.stor, src.storErr = nil, assert.AnError
	src.net, src.netErr = nil, assert.AnError
	src.plat, src.platErr = nil, assert.AnError

	b := &Builder{Source: src, Options: DefaultOptions()}
	snap, err := b.Build(context.Background())
	require.NoError(t, err)

	assert.Empty(t, snap.Topology.Storage.Devices)
	assert.Empty(t, snap.Topology.Network.Interfaces)
	assert.Nil(t, snap.Topology.Platform)
	assert.False(t, snap.Topology.Capabilities.HasNVMe)
}

func TestBuildDomainGating(t *testing.T) {
	t.Parallel()

	src := fullStub()
	b := &Builder{Source: src, Options: Options{}}

	snap, err := b.Build(context.Background())
	require.NoError(t, err)

	assert.Empty(t, snap.Topology.GPUs)
	assert.Empty(t, snap.Topology.Storage.Devices)
	assert.Empty(t, snap.Topology.Network.Interfaces)
	assert.Nil(t, snap.Topology.Platform)
	assert.Equal(t, "test cpu", snap.Topology.CPU.ModelName)
}

func TestBuildGPUTopologyGating(t *testing.T) {
	t.Parallel()

	src := fullStub()
	opts := DefaultOptions()
	opts.IncludeGPUTopology = false
	b := &Builder{Source: src, Options: opts}

	snap, err := b.Build(context.Background())
	require.NoError(t, err)

	require.Len(t, snap.Topology.GPUs, 1)
	assert.Nil(t, snap.Topology.GPUTopology)
	assert.False(t, src.topoCall)
}

func TestCapabilityProbeFallbacks(t *testing.T) {
	t.Parallel()

	src := fullStub()
	src.cpu.NUMANodes = nil
	src.numa = true
	src.ib = true
	src.stor, src.storErr = nil, assert.AnError
	src.nvme = true

	b := &Builder{Source: src, Options: DefaultOptions()}
	snap, err := b.Build(context.Background())
	require.NoError(t, err)

	assert.True(t, snap.Topology.Capabilities.HasNUMA, "sysfs probe must back absent numactl")
	assert.True(t, snap.Topology.Capabilities.HasInfiniBand)
	assert.True(t, snap.Topology.Capabilities.HasNVMe, "sysfs probe must back failed block device listing")
}

// fixedHostPaths pins host metadata to temp files so repeated builds read
// identical values. The real /proc/uptime advances between builds.
func fixedHostPaths(t *testing.T) hostPaths {
	t.Helper()
	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
		return path
	}
	return hostPaths{
		kernelRelease: write("osrelease", "6.8.0-45-generic\n"),
		osRelease:     write("os-release", "PRETTY_NAME=\"Ubuntu 24.04 LTS\"\n"),
		uptime:        write("uptime", "12345.67 98765.43\n"),
	}
}

func TestBuildUniqueIDsSameTopology(t *testing.T) {
	t.Parallel()

	b := &Builder{Source: fullStub(), Options: DefaultOptions(), paths: fixedHostPaths(t)}

	first, err := b.Build(context.Background())
	require.NoError(t, err)
	second, err := b.Build(context.Background())
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, first.Topology, second.Topology)
}
