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

// Package detector wires the per-domain hardware detectors together behind
// a single factory, so the topology builder depends on one constructor
// instead of six.
package detector

import (
	"time"

	"github.com/NVIDIA/hwsnap/pkg/cmdexec"
	"github.com/NVIDIA/hwsnap/pkg/defaults"
	"github.com/NVIDIA/hwsnap/pkg/detector/cpu"
	"github.com/NVIDIA/hwsnap/pkg/detector/gpu"
	"github.com/NVIDIA/hwsnap/pkg/detector/memory"
	"github.com/NVIDIA/hwsnap/pkg/detector/network"
	"github.com/NVIDIA/hwsnap/pkg/detector/platform"
	"github.com/NVIDIA/hwsnap/pkg/detector/storage"
)

// Options tunes detector construction.
type Options struct {
	// CommandTimeout bounds each external CLI invocation.
	CommandTimeout time.Duration

	// PlatformUnits overrides the systemd units inspected by the platform
	// detector; empty means the NVIDIA platform daemons.
	PlatformUnits []string
}

// DefaultOptions returns the production defaults.
func DefaultOptions() Options {
	return Options{CommandTimeout: defaults.CommandTimeout}
}

// Factory produces the per-domain detectors. The topology builder takes a
// Factory so tests can substitute stub detectors.
type Factory struct {
	opts   Options
	runner *cmdexec.Runner
}

// NewFactory creates a Factory with the given options, filling zero
// timeouts from the defaults.
func NewFactory(opts Options) *Factory {
	if opts.CommandTimeout <= 0 {
		opts.CommandTimeout = defaults.CommandTimeout
	}
	return &Factory{
		opts:   opts,
		runner: &cmdexec.Runner{DefaultTimeout: opts.CommandTimeout},
	}
}

// CPU returns the processor detector.
func (f *Factory) CPU() *cpu.Detector {
	return cpu.NewDetector(f.runner, f.opts.CommandTimeout)
}

// Memory returns the system memory detector.
func (f *Factory) Memory() *memory.Detector {
	return memory.NewDetector(f.runner, f.opts.CommandTimeout)
}

// GPU returns the NVIDIA GPU detector.
func (f *Factory) GPU() *gpu.Detector {
	return gpu.NewDetector(f.runner, f.opts.CommandTimeout)
}

// Storage returns the block device detector.
func (f *Factory) Storage() *storage.Detector {
	return storage.NewDetector(f.runner, f.opts.CommandTimeout)
}

// Network returns the interface and InfiniBand detector.
func (f *Factory) Network() *network.Detector {
	return network.NewDetector(f.runner, f.opts.CommandTimeout)
}

// Platform returns the systemd platform service detector.
func (f *Factory) Platform() *platform.Detector {
	return platform.NewDetector(f.opts.PlatformUnits)
}
