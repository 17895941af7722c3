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

// Package memory detects system memory: counters from /proc/meminfo, the
// hugepage pool from the same counter map, and the physical DIMM inventory
// from dmidecode when the tool is present and the process is privileged.
//
// Memory detection failure is fatal to the topology build; a missing DIMM
// inventory or hugepage pool is a lower-fidelity result, not an error.
package memory

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/NVIDIA/hwsnap/pkg/cmdexec"
	"github.com/NVIDIA/hwsnap/pkg/errors"
	"github.com/NVIDIA/hwsnap/pkg/procfs"
	"github.com/NVIDIA/hwsnap/pkg/topology"
)

const dmidecodeCommand = "dmidecode"

// Detector detects system memory.
type Detector struct {
	Runner  *cmdexec.Runner
	Timeout time.Duration

	// ProcMemInfo is overridable for testing.
	ProcMemInfo string
}

// NewDetector creates a memory detector with production paths.
func NewDetector(runner *cmdexec.Runner, timeout time.Duration) *Detector {
	return &Detector{
		Runner:      runner,
		Timeout:     timeout,
		ProcMemInfo: "/proc/meminfo",
	}
}

// Detect reads the memory counters and assembles the memory description.
// An unreadable meminfo is a fatal required-component error.
func (d *Detector) Detect(ctx context.Context) (*topology.MemoryInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	counters, err := procfs.NewParser().GetMap(d.ProcMemInfo)
	if err != nil {
		return nil, errors.RequiredComponent("memory", err)
	}

	info := fromCounters(counters)
	info.Hugepages = hugepagesFromCounters(counters)

	if modules := d.detectModules(ctx); len(modules) > 0 {
		info.Modules = modules
	}

	return info, nil
}

// fromCounters derives the memory block from raw meminfo values. Used is
// always computed as total − free − buffers − cached: different kernels
// expose different counter subsets, so no single source field is trusted.
func fromCounters(c map[string]string) *topology.MemoryInfo {
	info := &topology.MemoryInfo{
		TotalBytes:     kbToBytes(c["MemTotal"]),
		AvailableBytes: kbToBytes(c["MemAvailable"]),
		FreeBytes:      kbToBytes(c["MemFree"]),
		SharedBytes:    kbToBytes(c["Shmem"]),
		BuffersBytes:   kbToBytes(c["Buffers"]),
		CachedBytes:    kbToBytes(c["Cached"]),
		SwapTotalBytes: kbToBytes(c["SwapTotal"]),
		SwapFreeBytes:  kbToBytes(c["SwapFree"]),
	}

	used := int64(info.TotalBytes) - int64(info.FreeBytes) - int64(info.BuffersBytes) - int64(info.CachedBytes)
	if used > 0 {
		info.UsedBytes = uint64(used)
	}
	if info.SwapTotalBytes >= info.SwapFreeBytes {
		info.SwapUsedBytes = info.SwapTotalBytes - info.SwapFreeBytes
	}

	return info
}

// hugepagesFromCounters returns the hugepage pool, or nil when the kernel
// exposes no hugepage counters or no pages are configured.
func hugepagesFromCounters(c map[string]string) *topology.Hugepages {
	totalStr, okTotal := c["HugePages_Total"]
	sizeStr, okSize := c["Hugepagesize"]
	if !okTotal || !okSize {
		return nil
	}

	total := parseCount(totalStr)
	if total == 0 {
		return nil
	}

	return &topology.Hugepages{
		Total:     total,
		Free:      parseCount(c["HugePages_Free"]),
		SizeBytes: kbToBytes(sizeStr),
	}
}

// detectModules shells to dmidecode for the DIMM inventory. The tool being
// absent, unprivileged, or failing yields nil, a lower-fidelity result.
func (d *Detector) detectModules(ctx context.Context) []topology.MemoryModule {
	if !cmdexec.Exists(dmidecodeCommand) {
		slog.Debug("dmidecode not found, skipping DIMM inventory")
		return nil
	}

	res := d.Runner.Run(ctx, dmidecodeCommand, []string{"--type", "memory"}, d.Timeout)
	if !res.OK() {
		slog.Debug("dmidecode failed, likely unprivileged",
			"exitCode", res.ExitCode, "stderr", strings.TrimSpace(res.Stderr))
		return nil
	}

	return parseDMIModules(res.Stdout)
}

// parseDMIModules extracts populated "Memory Device" records from dmidecode
// output. Empty slots report "No Module Installed" and are skipped.
func parseDMIModules(text string) []topology.MemoryModule {
	var modules []topology.MemoryModule

	for _, section := range strings.Split(text, "Memory Device")[1:] {
		blocks := procfs.KeyValueBlocks(section)
		if len(blocks) == 0 {
			continue
		}
		rec := blocks[0]

		sizeStr, ok := rec["Size"]
		if !ok || strings.Contains(sizeStr, "No Module Installed") {
			continue
		}
		size := parseDMISize(sizeStr)
		if size == 0 {
			continue
		}

		mod := topology.MemoryModule{
			Locator:      rec["Locator"],
			SizeBytes:    size,
			Type:         rec["Type"],
			Manufacturer: rec["Manufacturer"],
			PartNumber:   rec["Part Number"],
		}
		if speed, ok := rec["Speed"]; ok {
			if mts, err := strconv.Atoi(strings.Fields(speed)[0]); err == nil {
				mod.SpeedMTs = mts
			}
		}

		modules = append(modules, mod)
	}

	return modules
}

// parseDMISize converts "64 GB" / "16384 MB" into bytes.
func parseDMISize(s string) uint64 {
	fields := strings.Fields(s)
	if len(fields) < 2 {
		return 0
	}

	v, err := strconv.ParseUint(fields[0], 10, 64)
	if err != nil {
		return 0
	}

	switch strings.ToUpper(fields[1]) {
	case "KB":
		return v * 1024
	case "MB":
		return v * 1024 * 1024
	case "GB":
		return v * 1024 * 1024 * 1024
	case "TB":
		return v * 1024 * 1024 * 1024 * 1024
	}
	return 0
}

// kbToBytes converts a "131072000 kB" meminfo value into bytes. A missing
// counter yields 0.
func kbToBytes(s string) uint64 {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return 0
	}

	v, err := strconv.ParseUint(fields[0], 10, 64)
	if err != nil {
		return 0
	}

	if len(fields) > 1 && strings.EqualFold(fields[1], "kb") {
		return v * 1024
	}
	return v
}

// parseCount parses a bare numeric counter like HugePages_Total.
func parseCount(s string) uint64 {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0
	}
	return v
}
