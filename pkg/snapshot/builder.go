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
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/NVIDIA/hwsnap/pkg/defaults"
	"github.com/NVIDIA/hwsnap/pkg/detector"
	"github.com/NVIDIA/hwsnap/pkg/detector/storage"
	"github.com/NVIDIA/hwsnap/pkg/topology"
)

// Options gates the optional hardware domains in a build. CPU and memory
// are always detected.
type Options struct {
	IncludeGPU         bool
	IncludeGPUTopology bool
	IncludeStorage     bool
	IncludeNetwork     bool
	IncludePlatform    bool
}

// DefaultOptions enables every domain.
func DefaultOptions() Options {
	return Options{
		IncludeGPU:         true,
		IncludeGPUTopology: true,
		IncludeStorage:     true,
		IncludeNetwork:     true,
		IncludePlatform:    true,
	}
}

// Builder assembles hardware snapshots by fanning detection out across the
// hardware domains. One Builder is safe for concurrent use.
type Builder struct {
	// Source provides the detectors. If nil, the default detector factory
	// is used.
	Source Source

	// Options selects the optional domains. The zero value detects only
	// CPU and memory.
	Options Options

	paths hostPaths
}

// NewBuilder creates a Builder over the default detector factory.
func NewBuilder(opts Options) *Builder {
	return &Builder{
		Source:  NewSource(detector.NewFactory(detector.DefaultOptions())),
		Options: opts,
		paths:   defaultHostPaths(),
	}
}

// Build runs the enabled detectors in parallel and assembles a snapshot.
// A CPU or memory failure aborts the build; every other domain degrades to
// an absent section on failure.
func (b *Builder) Build(ctx context.Context) (*topology.HardwareSnapshot, error) {
	src := b.Source
	if src == nil {
		src = NewSource(detector.NewFactory(detector.DefaultOptions()))
	}
	paths := b.paths
	if paths == (hostPaths{}) {
		paths = defaultHostPaths()
	}

	slog.Debug("starting hardware snapshot build")

	ctx, cancel := context.WithTimeout(ctx, defaults.BuildTimeout)
	defer cancel()

	start := time.Now()
	defer func() {
		buildDuration.Observe(time.Since(start).Seconds())
	}()

	var mu sync.Mutex
	topo := &topology.SystemTopology{}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer observeDetector("cpu", time.Now())
		cpuInfo, err := src.DetectCPU(gctx)
		if err != nil {
			slog.Error("cpu detection failed", slog.String("error", err.Error()))
			return err
		}
		mu.Lock()
		topo.CPU = *cpuInfo
		mu.Unlock()
		return nil
	})

	g.Go(func() error {
		defer observeDetector("memory", time.Now())
		memInfo, err := src.DetectMemory(gctx)
		if err != nil {
			slog.Error("memory detection failed", slog.String("error", err.Error()))
			return err
		}
		mu.Lock()
		topo.Memory = *memInfo
		mu.Unlock()
		return nil
	})

	if b.Options.IncludeGPU {
		g.Go(func() error {
			defer observeDetector("gpu", time.Now())
			gpus, err := src.DetectGPUs(gctx)
			if err != nil {
				// GPUs are optional hardware; their absence degrades the
				// snapshot instead of failing it.
				slog.Debug("no gpu section", slog.String("reason", err.Error()))
				return nil
			}
			var gpuTopo *topology.GPUTopology
			if b.Options.IncludeGPUTopology {
				gpuTopo = src.GPUTopology(gctx, gpus)
			}
			mu.Lock()
			topo.GPUs = gpus
			topo.GPUTopology = gpuTopo
			mu.Unlock()
			return nil
		})
	}

	if b.Options.IncludeStorage {
		g.Go(func() error {
			defer observeDetector("storage", time.Now())
			storageInfo, err := src.DetectStorage(gctx)
			if err != nil {
				slog.Warn("storage detection failed", slog.String("error", err.Error()))
				return nil
			}
			mu.Lock()
			topo.Storage = *storageInfo
			mu.Unlock()
			return nil
		})
	}

	if b.Options.IncludeNetwork {
		g.Go(func() error {
			defer observeDetector("network", time.Now())
			netInfo, err := src.DetectNetwork(gctx)
			if err != nil {
				slog.Warn("network detection failed", slog.String("error", err.Error()))
				return nil
			}
			mu.Lock()
			topo.Network = *netInfo
			mu.Unlock()
			return nil
		})
	}

	if b.Options.IncludePlatform {
		g.Go(func() error {
			defer observeDetector("platform", time.Now())
			platformInfo, err := src.DetectPlatform(gctx)
			if err != nil {
				slog.Debug("no platform section", slog.String("reason", err.Error()))
				return nil
			}
			mu.Lock()
			topo.Platform = platformInfo
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		buildTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	hostname, kernel, osName, uptime := paths.hostMeta()
	topo.Hostname = hostname
	topo.Kernel = kernel
	topo.OSName = osName
	topo.UptimeSeconds = uptime

	topo.Capabilities = capabilities(src, topo)

	buildTotal.WithLabelValues("success").Inc()
	gpuCount.Set(float64(len(topo.GPUs)))

	slog.Debug("snapshot build complete",
		slog.Int("gpus", len(topo.GPUs)),
		slog.Duration("elapsed", time.Since(start)))

	return &topology.HardwareSnapshot{
		ID:              uuid.NewString(),
		Topology:        *topo,
		Timestamp:       time.Now().UTC(),
		DetectionTimeMs: time.Since(start).Milliseconds(),
	}, nil
}

// capabilities derives the boolean flags from the detected topology plus
// the probes that need their own checks. Probes run concurrently and are
// tolerant of absence.
func capabilities(src Source, topo *topology.SystemTopology) topology.Capabilities {
	caps := topology.Capabilities{
		HasNVIDIA:         len(topo.GPUs) > 0,
		HasNUMA:           len(topo.CPU.NUMANodes) > 1,
		HasVirtualization: topo.CPU.Virtualization != nil,
		HasNVMe:           storage.HasNVMe(&topo.Storage),
		HasInfiniBand:     len(topo.Network.InfiniBand) > 0,
	}

	var wg sync.WaitGroup
	if !caps.HasInfiniBand {
		wg.Add(1)
		go func() {
			defer wg.Done()
			caps.HasInfiniBand = src.HasInfiniBand()
		}()
	}
	if !caps.HasNUMA {
		wg.Add(1)
		go func() {
			defer wg.Done()
			caps.HasNUMA = src.HasNUMA()
		}()
	}
	if !caps.HasNVMe {
		wg.Add(1)
		go func() {
			defer wg.Done()
			caps.HasNVMe = src.HasNVMe()
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		caps.HasRAID = src.HasRAID()
	}()
	wg.Wait()

	return caps
}

func observeDetector(name string, start time.Time) {
	detectorDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
}
