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

package cpu

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/NVIDIA/hwsnap/pkg/cmdexec"
	"github.com/NVIDIA/hwsnap/pkg/errors"
	"github.com/NVIDIA/hwsnap/pkg/procfs"
	"github.com/NVIDIA/hwsnap/pkg/topology"
)

const numactlCommand = "numactl"

// Feature flags indicating hardware virtualization support.
const (
	flagVMX        = "vmx"        // Intel VT-x
	flagSVM        = "svm"        // AMD-V
	flagHypervisor = "hypervisor" // running as a guest
)

// Detector detects the processor complex from /proc/cpuinfo, sysfs cpufreq
// and cache leaves, and numactl for the NUMA layout.
type Detector struct {
	Runner  *cmdexec.Runner
	Timeout time.Duration

	// ProcCPUInfo and SysCPUDir are overridable for testing.
	ProcCPUInfo string
	SysCPUDir   string
}

// NewDetector creates a CPU detector with production paths.
func NewDetector(runner *cmdexec.Runner, timeout time.Duration) *Detector {
	return &Detector{
		Runner:      runner,
		Timeout:     timeout,
		ProcCPUInfo: "/proc/cpuinfo",
		SysCPUDir:   "/sys/devices/system/cpu",
	}
}

// Detect parses all processor blocks and assembles the CPU description.
// CPUs are assumed always present and parseable: an unreadable or empty
// cpuinfo is a fatal required-component error.
func (d *Detector) Detect(ctx context.Context) (*topology.CPUInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(d.ProcCPUInfo)
	if err != nil {
		return nil, errors.RequiredComponent("cpu", err)
	}

	blocks := procfs.KeyValueBlocks(string(raw))
	if len(blocks) == 0 {
		return nil, errors.RequiredComponent("cpu",
			fmt.Errorf("no processor blocks in %s", d.ProcCPUInfo))
	}

	info := d.parseBlocks(blocks)
	info.Architecture = runtime.GOARCH

	d.readFrequency(info, blocks[0])
	d.readCaches(info, blocks[0])

	if nodes := d.detectNUMA(ctx); len(nodes) > 0 {
		info.NUMANodes = nodes
	}

	return info, nil
}

// parseBlocks derives core counts and identity from the cpuinfo records.
// Physical core count is the number of distinct (physical id, core id)
// pairs; older or virtualized kernels omit those keys, in which case the
// logical count is used.
func (d *Detector) parseBlocks(blocks []map[string]string) *topology.CPUInfo {
	info := &topology.CPUInfo{
		LogicalCores: len(blocks),
	}

	first := blocks[0]
	info.Vendor = first["vendor_id"]
	info.ModelName = first["model name"]

	if flags := first["flags"]; flags != "" {
		info.Flags = strings.Fields(flags)
	} else if features := first["Features"]; features != "" {
		// ARM kernels name the flag line "Features".
		info.Flags = strings.Fields(features)
	}

	info.Virtualization = virtualizationTag(info.Flags)

	sockets := map[string]map[string]struct{}{}
	grouped := true
	for _, b := range blocks {
		phys, okP := b["physical id"]
		core, okC := b["core id"]
		if !okP || !okC {
			grouped = false
			break
		}
		if sockets[phys] == nil {
			sockets[phys] = map[string]struct{}{}
		}
		sockets[phys][core] = struct{}{}
	}

	if grouped && len(sockets) > 0 {
		info.Sockets = len(sockets)
		physical := 0
		for _, cores := range sockets {
			physical += len(cores)
		}
		info.PhysicalCores = physical
	} else {
		info.Sockets = 1
		info.PhysicalCores = info.LogicalCores
	}

	return info
}

// readFrequency reads min/max/current clock rates from the cpufreq sysfs
// leaves (kHz), falling back to the proc block's "cpu MHz" for the current
// rate on systems without cpufreq.
func (d *Detector) readFrequency(info *topology.CPUInfo, first map[string]string) {
	base := filepath.Join(d.SysCPUDir, "cpu0", "cpufreq")

	if v := procfs.ReadNumericFile(filepath.Join(base, "cpuinfo_min_freq")); v != nil {
		mhz := float64(*v) / 1000
		info.Frequency.MinMHz = &mhz
	}
	if v := procfs.ReadNumericFile(filepath.Join(base, "cpuinfo_max_freq")); v != nil {
		mhz := float64(*v) / 1000
		info.Frequency.MaxMHz = &mhz
	}
	if v := procfs.ReadNumericFile(filepath.Join(base, "scaling_cur_freq")); v != nil {
		mhz := float64(*v) / 1000
		info.Frequency.CurrentMHz = &mhz
	}

	if info.Frequency.CurrentMHz == nil {
		if mhzStr, ok := first["cpu MHz"]; ok {
			if mhz, err := strconv.ParseFloat(mhzStr, 64); err == nil {
				info.Frequency.CurrentMHz = &mhz
			}
		}
	}
}

// readCaches reads per-level cache sizes from sysfs cache leaves, falling
// back to the proc block's single "cache size" line (attributed to L3).
func (d *Detector) readCaches(info *topology.CPUInfo, first map[string]string) {
	indexes, _ := filepath.Glob(filepath.Join(d.SysCPUDir, "cpu0", "cache", "index*"))
	sort.Strings(indexes)

	found := false
	for _, dir := range indexes {
		level := procfs.ReadNumericFile(filepath.Join(dir, "level"))
		ctype := procfs.ReadStringFile(filepath.Join(dir, "type"))
		sizeStr := procfs.ReadStringFile(filepath.Join(dir, "size"))
		if level == nil || sizeStr == nil {
			continue
		}

		size, err := parseCacheSize(*sizeStr)
		if err != nil {
			slog.Debug("unparsable cache size leaf", "dir", dir, "size", *sizeStr)
			continue
		}

		typeName := ""
		if ctype != nil {
			typeName = *ctype
		}

		switch {
		case *level == 1 && typeName == "Data":
			info.Caches.L1dBytes = &size
		case *level == 1 && typeName == "Instruction":
			info.Caches.L1iBytes = &size
		case *level == 2:
			info.Caches.L2Bytes = &size
		case *level == 3:
			info.Caches.L3Bytes = &size
		default:
			continue
		}
		found = true
	}

	if !found {
		if raw, ok := first["cache size"]; ok {
			if size, err := parseCacheSize(raw); err == nil {
				info.Caches.L3Bytes = &size
			}
		}
	}
}

// detectNUMA shells to numactl and parses its topology report. A missing
// tool or failed invocation yields no nodes, never an error: NUMA layout is
// optional information.
func (d *Detector) detectNUMA(ctx context.Context) []topology.NUMANode {
	if !cmdexec.Exists(numactlCommand) {
		slog.Debug("numactl not found, skipping NUMA detection")
		return nil
	}

	res := d.Runner.Run(ctx, numactlCommand, []string{"--hardware"}, d.Timeout)
	if !res.OK() {
		slog.Debug("numactl failed", "exitCode", res.ExitCode, "stderr", res.Stderr)
		return nil
	}

	parser := newNUMAParser()
	for _, line := range strings.Split(res.Stdout, "\n") {
		parser.feed(line)
	}

	return parser.nodes()
}

// parseCacheSize converts strings like "32K", "512 KB", "36608K" or "8M"
// into bytes.
func parseCacheSize(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "B")
	s = strings.TrimSpace(s)

	mult := uint64(1)
	switch {
	case strings.HasSuffix(s, "K"):
		mult = 1024
		s = strings.TrimSuffix(s, "K")
	case strings.HasSuffix(s, "M"):
		mult = 1024 * 1024
		s = strings.TrimSuffix(s, "M")
	}

	v, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid cache size %q: %w", s, err)
	}
	return v * mult, nil
}

func virtualizationTag(flags []string) *string {
	for _, f := range flags {
		switch f {
		case flagVMX:
			tag := "vt-x"
			return &tag
		case flagSVM:
			tag := "amd-v"
			return &tag
		case flagHypervisor:
			tag := "guest"
			return &tag
		}
	}
	return nil
}

// HasNUMA reports whether the machine exposes more than one NUMA node,
// checked directly against sysfs so the probe works without numactl.
func HasNUMA(sysNodeDir string) bool {
	if sysNodeDir == "" {
		sysNodeDir = "/sys/devices/system/node"
	}
	_, err := os.Stat(filepath.Join(sysNodeDir, "node1"))
	return err == nil
}
