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

package network

import (
	"strconv"
	"strings"

	"github.com/NVIDIA/hwsnap/pkg/topology"
)

// parseIBStat walks the ibstat report with two cursors: a "CA '<name>'"
// line opens an adapter, a "Port N:" line opens a port within it, and
// key-value lines fold into whichever record is open. Adapters with no
// parsable ports are still reported.
func parseIBStat(text string) []topology.InfiniBandDevice {
	var (
		devices []topology.InfiniBandDevice
		device  *topology.InfiniBandDevice
		port    *topology.InfiniBandPort
	)

	flushPort := func() {
		if device != nil && port != nil {
			device.Ports = append(device.Ports, *port)
		}
		port = nil
	}

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		if name, ok := parseCAHeader(trimmed); ok {
			flushPort()
			devices = append(devices, topology.InfiniBandDevice{Name: name})
			device = &devices[len(devices)-1]
			continue
		}
		if device == nil {
			continue
		}

		if number, ok := parsePortHeader(trimmed); ok {
			flushPort()
			port = &topology.InfiniBandPort{Number: number}
			continue
		}

		key, value, found := strings.Cut(trimmed, ":")
		if !found {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		if port != nil {
			switch key {
			case "State":
				port.State = value
			case "Physical state":
				port.PhysicalState = value
			case "Rate":
				port.Rate = value
			case "Port GUID":
				port.GUID = value
			}
			continue
		}

		switch key {
		case "CA type":
			device.Type = value
		case "Firmware version":
			device.FirmwareVersion = value
		case "Hardware version":
			device.HardwareVersion = value
		}
	}
	flushPort()

	return devices
}

// parseCAHeader parses "CA 'mlx5_0'".
func parseCAHeader(line string) (string, bool) {
	rest, found := strings.CutPrefix(line, "CA '")
	if !found {
		return "", false
	}
	name, found := strings.CutSuffix(rest, "'")
	if !found || name == "" {
		return "", false
	}
	return name, true
}

// parsePortHeader parses "Port 1:".
func parsePortHeader(line string) (int, bool) {
	rest, found := strings.CutPrefix(line, "Port ")
	if !found {
		return 0, false
	}
	rest, found = strings.CutSuffix(rest, ":")
	if !found {
		return 0, false
	}
	number, err := strconv.Atoi(rest)
	if err != nil {
		return 0, false
	}
	return number, true
}
