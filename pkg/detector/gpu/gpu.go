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
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/NVIDIA/hwsnap/pkg/cmdexec"
	"github.com/NVIDIA/hwsnap/pkg/errors"
	"github.com/NVIDIA/hwsnap/pkg/topology"
	"github.com/NVIDIA/hwsnap/pkg/version"
)

const smiCommand = "nvidia-smi"

// ErrNoGPUs is the recoverable error raised when the vendor CLI is absent
// or reports zero devices. The topology builder catches it and proceeds
// with no GPU section: GPUs are always optional hardware.
var ErrNoGPUs = errors.New(errors.ErrCodeToolUnavailable, "no NVIDIA GPUs detected")

// queryFields is the explicit, ordered field list for the per-device metric
// query. Rows are parsed by fixed position, so order changes here must be
// mirrored in parseDeviceRow.
var queryFields = []string{
	"index",
	"uuid",
	"name",
	"pci.bus_id",
	"memory.total",
	"memory.used",
	"memory.free",
	"utilization.gpu",
	"utilization.memory",
	"temperature.gpu",
	"power.draw",
	"power.limit",
	"power.default_limit",
	"clocks.gr",
	"clocks.sm",
	"clocks.mem",
	"clocks.video",
	"compute_cap",
	"driver_version",
}

// Detector wraps the NVIDIA system management CLI.
type Detector struct {
	Runner  *cmdexec.Runner
	Timeout time.Duration
}

// NewDetector creates a GPU detector.
func NewDetector(runner *cmdexec.Runner, timeout time.Duration) *Detector {
	return &Detector{Runner: runner, Timeout: timeout}
}

// Available reports whether the vendor CLI resolves on PATH.
func (d *Detector) Available() bool {
	return cmdexec.Exists(smiCommand)
}

// Detect queries per-device metrics in a single CLI invocation. It returns
// ErrNoGPUs when the CLI is absent, fails, or reports zero devices.
func (d *Detector) Detect(ctx context.Context) ([]topology.GPUDevice, error) {
	if !d.Available() {
		return nil, ErrNoGPUs
	}

	res := d.Runner.Run(ctx, smiCommand, []string{
		"--query-gpu=" + strings.Join(queryFields, ","),
		"--format=csv,noheader,nounits",
	}, d.Timeout)
	if !res.OK() {
		slog.Debug("nvidia-smi query failed",
			"exitCode", res.ExitCode, "stderr", strings.TrimSpace(res.Stderr))
		return nil, ErrNoGPUs
	}

	devices, err := parseDeviceCSV(res.Stdout)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeParse, "failed to parse nvidia-smi output", err)
	}
	if len(devices) == 0 {
		return nil, ErrNoGPUs
	}

	d.fillCUDAVersion(ctx, devices)
	d.fillTemperatureLimits(ctx, devices)

	return devices, nil
}

// parseDeviceCSV parses the fixed-position CSV emitted by the metric query,
// one device per row. Unit conversions (MiB to bytes) happen here.
func parseDeviceCSV(text string) ([]topology.GPUDevice, error) {
	var devices []topology.GPUDevice

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		dev, err := parseDeviceRow(line)
		if err != nil {
			return nil, err
		}
		devices = append(devices, dev)
	}

	return devices, nil
}

func parseDeviceRow(line string) (topology.GPUDevice, error) {
	fields := strings.Split(line, ",")
	if len(fields) != len(queryFields) {
		return topology.GPUDevice{}, fmt.Errorf(
			"expected %d fields, got %d in row %q", len(queryFields), len(fields), line)
	}
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}

	major, minor := parseComputeCap(fields[17])

	dev := topology.GPUDevice{
		ID:    int(csvInt(fields[0])),
		UUID:  fields[1],
		Name:  fields[2],
		BusID: fields[3],
		Memory: topology.GPUMemory{
			TotalBytes: mibToBytes(fields[4]),
			UsedBytes:  mibToBytes(fields[5]),
			FreeBytes:  mibToBytes(fields[6]),
		},
		Utilization: topology.GPUUtilization{
			GPUPercent:    csvFloat(fields[7]),
			MemoryPercent: csvFloat(fields[8]),
		},
		Temperature: topology.GPUTemperature{
			CurrentC: csvFloat(fields[9]),
		},
		Power: topology.GPUPower{
			DrawWatts:         csvFloat(fields[10]),
			LimitWatts:        csvFloat(fields[11]),
			DefaultLimitWatts: csvFloat(fields[12]),
		},
		Clocks: topology.GPUClocks{
			GraphicsMHz: int(csvInt(fields[13])),
			SMMHz:       int(csvInt(fields[14])),
			MemoryMHz:   int(csvInt(fields[15])),
			VideoMHz:    int(csvInt(fields[16])),
		},
		ComputeCapability: topology.ComputeCapability{Major: major, Minor: minor},
		DriverVersion:     fields[18],
	}

	return dev, nil
}

// fillCUDAVersion reads the CUDA runtime version from the CLI version
// report. Best effort: older CLIs without the report leave the field empty.
func (d *Detector) fillCUDAVersion(ctx context.Context, devices []topology.GPUDevice) {
	res := d.Runner.Run(ctx, smiCommand, []string{"--version"}, d.Timeout)
	if !res.OK() {
		return
	}

	cuda := ""
	for _, line := range strings.Split(res.Stdout, "\n") {
		k, v, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(k), "cuda version") {
			cuda = strings.TrimSpace(v)
			break
		}
	}
	if _, err := version.ParseVersion(cuda); err != nil {
		return
	}

	for i := range devices {
		devices[i].CUDAVersion = cuda
	}
}

// fillTemperatureLimits reads max/slowdown/shutdown thresholds from the
// detailed temperature report, correlated to devices by report order. A
// missing or unparsable report leaves the thresholds nil.
func (d *Detector) fillTemperatureLimits(ctx context.Context, devices []topology.GPUDevice) {
	res := d.Runner.Run(ctx, smiCommand, []string{"-q", "-d", "TEMPERATURE"}, d.Timeout)
	if !res.OK() {
		return
	}

	limits := parseTemperatureReport(res.Stdout)
	for i := range devices {
		if i >= len(limits) {
			break
		}
		devices[i].Temperature.MaxC = limits[i].max
		devices[i].Temperature.SlowdownC = limits[i].slowdown
		devices[i].Temperature.ShutdownC = limits[i].shutdown
	}
}

type tempLimits struct {
	max      *float64
	slowdown *float64
	shutdown *float64
}

// parseTemperatureReport walks the human-oriented -q output, opening a new
// record at each "GPU <busid>" header and accumulating threshold lines.
func parseTemperatureReport(text string) []tempLimits {
	var (
		limits  []tempLimits
		current *tempLimits
	)

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)

		// Section headers sit at column zero; threshold lines are indented.
		if strings.HasPrefix(line, "GPU ") {
			limits = append(limits, tempLimits{})
			current = &limits[len(limits)-1]
			continue
		}
		if current == nil {
			continue
		}

		k, v, found := strings.Cut(trimmed, ":")
		if !found {
			continue
		}
		value := parseCelsius(strings.TrimSpace(v))

		switch strings.TrimSpace(k) {
		case "GPU Max Operating Temp":
			current.max = value
		case "GPU Slowdown Temp":
			current.slowdown = value
		case "GPU Shutdown Temp":
			current.shutdown = value
		}
	}

	return limits
}

// parseCelsius converts "90 C" into a value; "N/A" yields nil.
func parseCelsius(s string) *float64 {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "C"))
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

// parseComputeCap splits "8.0" into major/minor. "N/A" yields zeros.
func parseComputeCap(s string) (int, int) {
	v, err := version.ParseVersion(s)
	if err != nil {
		return 0, 0
	}
	return v.Major, v.Minor
}

// mibToBytes converts a nounits MiB field into bytes.
func mibToBytes(s string) uint64 {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0
	}
	return v * 1024 * 1024
}

// csvInt parses an integer field; "N/A" and "[N/A]" yield 0.
func csvInt(s string) int64 {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return v
}

// csvFloat parses a float field; "N/A" and "[N/A]" yield 0.
func csvFloat(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
