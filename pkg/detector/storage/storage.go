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

package storage

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/NVIDIA/hwsnap/pkg/cmdexec"
	"github.com/NVIDIA/hwsnap/pkg/errors"
	"github.com/NVIDIA/hwsnap/pkg/topology"
)

const (
	lsblkCommand = "lsblk"

	defaultProcMdstat   = "/proc/mdstat"
	defaultSysClassNVMe = "/sys/class/nvme"
)

// lsblkColumns is the column set requested from the block device listing,
// shared by the JSON and plain-text paths.
const lsblkColumns = "NAME,TYPE,SIZE,MODEL,VENDOR,SERIAL,ROTA,TRAN,MOUNTPOINT,FSTYPE"

// Detector enumerates block devices and their partitions.
type Detector struct {
	Runner  *cmdexec.Runner
	Timeout time.Duration

	// ProcMdstat is the software RAID status file, overridable in tests.
	ProcMdstat string

	// SysClassNVMe is the sysfs NVMe controller class directory,
	// overridable in tests.
	SysClassNVMe string
}

// NewDetector creates a storage detector with default probe paths.
func NewDetector(runner *cmdexec.Runner, timeout time.Duration) *Detector {
	return &Detector{
		Runner:       runner,
		Timeout:      timeout,
		ProcMdstat:   defaultProcMdstat,
		SysClassNVMe: defaultSysClassNVMe,
	}
}

// Detect lists block devices. The JSON listing is preferred; on lsblk
// builds without JSON support it falls back to parsing the plain-text
// listing, which carries fewer descriptive fields.
func (d *Detector) Detect(ctx context.Context) (*topology.StorageInfo, error) {
	if !cmdexec.Exists(lsblkCommand) {
		return nil, errors.New(errors.ErrCodeToolUnavailable, "lsblk not found")
	}

	res := d.Runner.Run(ctx, lsblkCommand, []string{"--json", "--bytes", "-o", lsblkColumns}, d.Timeout)
	if res.OK() {
		devices, err := parseJSONListing(res.Stdout)
		if err == nil {
			return &topology.StorageInfo{Devices: devices}, nil
		}
		slog.Debug("lsblk json parse failed, falling back to text listing", "error", err)
	}

	res = d.Runner.Run(ctx, lsblkCommand, []string{"-b", "-n", "-l", "-o", "NAME,TYPE,SIZE,MOUNTPOINT"}, d.Timeout)
	if !res.OK() {
		return nil, errors.New(errors.ErrCodeToolUnavailable, "lsblk listing failed")
	}

	return &topology.StorageInfo{Devices: parseTextListing(res.Stdout)}, nil
}

// lsblkDevice mirrors one node of the lsblk JSON tree. Numeric and boolean
// fields use tolerant types: older lsblk builds quote every value.
type lsblkDevice struct {
	Name       string        `json:"name"`
	Type       string        `json:"type"`
	Size       flexUint64    `json:"size"`
	Model      *string       `json:"model"`
	Vendor     *string       `json:"vendor"`
	Serial     *string       `json:"serial"`
	Rota       *flexBool     `json:"rota"`
	Tran       *string       `json:"tran"`
	Mountpoint *string       `json:"mountpoint"`
	Fstype     *string       `json:"fstype"`
	Children   []lsblkDevice `json:"children"`
}

type lsblkReport struct {
	Blockdevices []lsblkDevice `json:"blockdevices"`
}

func parseJSONListing(text string) ([]topology.StorageDevice, error) {
	var report lsblkReport
	if err := json.Unmarshal([]byte(text), &report); err != nil {
		return nil, err
	}

	var devices []topology.StorageDevice
	for _, raw := range report.Blockdevices {
		dev := topology.StorageDevice{
			Name:       raw.Name,
			Type:       raw.Type,
			SizeBytes:  uint64(raw.Size),
			Model:      trimmedField(raw.Model),
			Vendor:     trimmedField(raw.Vendor),
			Serial:     trimmedField(raw.Serial),
			Transport:  trimmedField(raw.Tran),
			Mountpoint: trimmedField(raw.Mountpoint),
			Filesystem: trimmedField(raw.Fstype),
		}
		if raw.Rota != nil {
			rotational := bool(*raw.Rota)
			dev.Rotational = &rotational
		}
		for _, child := range raw.Children {
			dev.Partitions = append(dev.Partitions, topology.Partition{
				Name:       child.Name,
				SizeBytes:  uint64(child.Size),
				Mountpoint: trimmedField(child.Mountpoint),
				Filesystem: trimmedField(child.Fstype),
			})
		}
		devices = append(devices, dev)
	}

	return devices, nil
}

// parseTextListing walks the flat plain-text listing, keeping a cursor on
// the most recent disk so that partition rows attach to it. Rows are
// NAME TYPE SIZE [MOUNTPOINT]; the mountpoint column is blank for unmounted
// devices, so a fourth field is taken as a mountpoint only when it is an
// absolute path.
func parseTextListing(text string) []topology.StorageDevice {
	var (
		devices []topology.StorageDevice
		current *topology.StorageDevice
	)

	for _, line := range strings.Split(text, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 3 {
			continue
		}

		name, devType := fields[0], fields[1]
		size, err := strconv.ParseUint(fields[2], 10, 64)
		if err != nil {
			continue
		}

		var mountpoint *string
		if len(fields) >= 4 && strings.HasPrefix(fields[3], "/") {
			mp := fields[3]
			mountpoint = &mp
		}

		if devType == "part" {
			if current != nil {
				current.Partitions = append(current.Partitions, topology.Partition{
					Name:       name,
					SizeBytes:  size,
					Mountpoint: mountpoint,
				})
			}
			continue
		}

		devices = append(devices, topology.StorageDevice{
			Name:       name,
			Type:       devType,
			SizeBytes:  size,
			Mountpoint: mountpoint,
		})
		current = &devices[len(devices)-1]
	}

	return devices
}

func trimmedField(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// HasNVMe reports whether any detected device sits on the NVMe transport.
func HasNVMe(info *topology.StorageInfo) bool {
	if info == nil {
		return false
	}
	for _, dev := range info.Devices {
		if dev.Transport != nil && *dev.Transport == "nvme" {
			return true
		}
		if strings.HasPrefix(dev.Name, "nvme") {
			return true
		}
	}
	return false
}

// HasNVMeController reports whether the kernel exposes any NVMe controller
// in sysfs. It backs the NVMe capability flag when the block device listing
// tool is unavailable or skipped.
func (d *Detector) HasNVMeController() bool {
	entries, err := os.ReadDir(d.SysClassNVMe)
	return err == nil && len(entries) > 0
}

// HasRAID reports whether an active software RAID array exists. The mdstat
// file being absent or empty means no arrays.
func (d *Detector) HasRAID() bool {
	data, err := os.ReadFile(d.ProcMdstat)
	if err != nil {
		return false
	}
	for _, line := range strings.Split(string(data), "\n") {
		if strings.HasPrefix(line, "md") && strings.Contains(line, "active") {
			return true
		}
	}
	return false
}
