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

	"github.com/NVIDIA/hwsnap/pkg/detector"
	"github.com/NVIDIA/hwsnap/pkg/detector/cpu"
	"github.com/NVIDIA/hwsnap/pkg/topology"
)

// Source provides the per-domain detection operations the builder fans out
// over. Production code uses the detector factory adapter; tests substitute
// stubs.
type Source interface {
	DetectCPU(ctx context.Context) (*topology.CPUInfo, error)
	DetectMemory(ctx context.Context) (*topology.MemoryInfo, error)
	DetectGPUs(ctx context.Context) ([]topology.GPUDevice, error)
	GPUTopology(ctx context.Context, gpus []topology.GPUDevice) *topology.GPUTopology
	DetectStorage(ctx context.Context) (*topology.StorageInfo, error)
	DetectNetwork(ctx context.Context) (*topology.NetworkInfo, error)
	DetectPlatform(ctx context.Context) (*topology.PlatformServices, error)

	// Probes backing capability flags that are not derivable from the
	// detected sections alone.
	HasRAID() bool
	HasInfiniBand() bool
	HasNUMA() bool
	HasNVMe() bool
}

// factorySource adapts the detector factory to the Source interface.
type factorySource struct {
	factory *detector.Factory
}

// NewSource wraps a detector factory as a builder Source.
func NewSource(f *detector.Factory) Source {
	return &factorySource{factory: f}
}

func (s *factorySource) DetectCPU(ctx context.Context) (*topology.CPUInfo, error) {
	return s.factory.CPU().Detect(ctx)
}

func (s *factorySource) DetectMemory(ctx context.Context) (*topology.MemoryInfo, error) {
	return s.factory.Memory().Detect(ctx)
}

func (s *factorySource) DetectGPUs(ctx context.Context) ([]topology.GPUDevice, error) {
	return s.factory.GPU().Detect(ctx)
}

func (s *factorySource) GPUTopology(ctx context.Context, gpus []topology.GPUDevice) *topology.GPUTopology {
	return s.factory.GPU().Topology(ctx, gpus)
}

func (s *factorySource) DetectStorage(ctx context.Context) (*topology.StorageInfo, error) {
	return s.factory.Storage().Detect(ctx)
}

func (s *factorySource) DetectNetwork(ctx context.Context) (*topology.NetworkInfo, error) {
	return s.factory.Network().Detect(ctx)
}

func (s *factorySource) DetectPlatform(ctx context.Context) (*topology.PlatformServices, error) {
	return s.factory.Platform().Detect(ctx)
}

func (s *factorySource) HasRAID() bool {
	return s.factory.Storage().HasRAID()
}

func (s *factorySource) HasInfiniBand() bool {
	return s.factory.Network().HasInfiniBand()
}

func (s *factorySource) HasNUMA() bool {
	return cpu.HasNUMA("/sys/devices/system/node")
}

func (s *factorySource) HasNVMe() bool {
	return s.factory.Storage().HasNVMeController()
}
