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
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/NVIDIA/hwsnap/pkg/cmdexec"
	"github.com/NVIDIA/hwsnap/pkg/errors"
	"github.com/NVIDIA/hwsnap/pkg/procfs"
	"github.com/NVIDIA/hwsnap/pkg/topology"
)

const (
	ipCommand     = "ip"
	ibstatCommand = "ibstat"

	defaultSysClassNet   = "/sys/class/net"
	defaultSysInfiniband = "/sys/class/infiniband"
)

// Detector enumerates network interfaces and InfiniBand adapters.
type Detector struct {
	Runner  *cmdexec.Runner
	Timeout time.Duration

	// SysClassNet and SysInfiniband are sysfs roots, overridable in tests.
	SysClassNet   string
	SysInfiniband string
}

// NewDetector creates a network detector with default sysfs roots.
func NewDetector(runner *cmdexec.Runner, timeout time.Duration) *Detector {
	return &Detector{
		Runner:        runner,
		Timeout:       timeout,
		SysClassNet:   defaultSysClassNet,
		SysInfiniband: defaultSysInfiniband,
	}
}

// Detect lists interfaces via the ip tool, merges per-interface sysfs
// statistics into each entry, and appends InfiniBand adapters when the
// fabric tooling is present.
func (d *Detector) Detect(ctx context.Context) (*topology.NetworkInfo, error) {
	ifaces, err := d.detectInterfaces(ctx)
	if err != nil {
		return nil, err
	}

	for i := range ifaces {
		d.mergeSysfs(&ifaces[i])
	}

	info := &topology.NetworkInfo{Interfaces: ifaces}

	if cmdexec.Exists(ibstatCommand) {
		res := d.Runner.Run(ctx, ibstatCommand, nil, d.Timeout)
		if res.OK() {
			info.InfiniBand = parseIBStat(res.Stdout)
		} else {
			slog.Debug("ibstat failed", "exitCode", res.ExitCode)
		}
	}

	return info, nil
}

func (d *Detector) detectInterfaces(ctx context.Context) ([]topology.NetworkInterface, error) {
	if !cmdexec.Exists(ipCommand) {
		return nil, errors.New(errors.ErrCodeToolUnavailable, "ip not found")
	}

	res := d.Runner.Run(ctx, ipCommand, []string{"-j", "addr", "show"}, d.Timeout)
	if res.OK() {
		ifaces, err := parseJSONAddr(res.Stdout)
		if err == nil {
			return ifaces, nil
		}
		slog.Debug("ip json parse failed, falling back to text output", "error", err)
	}

	res = d.Runner.Run(ctx, ipCommand, []string{"addr", "show"}, d.Timeout)
	if !res.OK() {
		return nil, errors.New(errors.ErrCodeToolUnavailable, "ip addr listing failed")
	}
	return parseTextAddr(res.Stdout), nil
}

// ipAddrEntry mirrors one element of the ip -j addr output.
type ipAddrEntry struct {
	Ifname    string `json:"ifname"`
	Operstate string `json:"operstate"`
	MTU       int    `json:"mtu"`
	Address   string `json:"address"`
	AddrInfo  []struct {
		Family    string `json:"family"`
		Local     string `json:"local"`
		Prefixlen int    `json:"prefixlen"`
	} `json:"addr_info"`
}

func parseJSONAddr(text string) ([]topology.NetworkInterface, error) {
	var entries []ipAddrEntry
	if err := json.Unmarshal([]byte(text), &entries); err != nil {
		return nil, err
	}

	var ifaces []topology.NetworkInterface
	for _, e := range entries {
		iface := topology.NetworkInterface{
			Name:       e.Ifname,
			State:      strings.ToLower(e.Operstate),
			MACAddress: e.Address,
			MTU:        e.MTU,
		}
		for _, a := range e.AddrInfo {
			addr := fmt.Sprintf("%s/%d", a.Local, a.Prefixlen)
			switch a.Family {
			case "inet":
				iface.IPv4 = append(iface.IPv4, addr)
			case "inet6":
				iface.IPv6 = append(iface.IPv6, addr)
			}
		}
		ifaces = append(ifaces, iface)
	}
	return ifaces, nil
}

// parseTextAddr walks the classic ip addr output, opening a new record at
// each "N: name:" header line and folding indented link and address lines
// into the current interface.
func parseTextAddr(text string) []topology.NetworkInterface {
	var (
		ifaces  []topology.NetworkInterface
		current *topology.NetworkInterface
	)

	for _, line := range strings.Split(text, "\n") {
		if line == "" {
			continue
		}

		if line[0] != ' ' {
			iface, ok := parseAddrHeader(line)
			if !ok {
				current = nil
				continue
			}
			ifaces = append(ifaces, iface)
			current = &ifaces[len(ifaces)-1]
			continue
		}
		if current == nil {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		switch fields[0] {
		case "link/ether", "link/infiniband":
			current.MACAddress = fields[1]
		case "inet":
			current.IPv4 = append(current.IPv4, fields[1])
		case "inet6":
			current.IPv6 = append(current.IPv6, fields[1])
		}
	}

	return ifaces
}

// parseAddrHeader parses "2: eth0: <BROADCAST,...> mtu 1500 ... state UP ...".
func parseAddrHeader(line string) (topology.NetworkInterface, bool) {
	fields := strings.Fields(line)
	if len(fields) < 2 || !strings.HasSuffix(fields[0], ":") {
		return topology.NetworkInterface{}, false
	}
	if _, err := strconv.Atoi(strings.TrimSuffix(fields[0], ":")); err != nil {
		return topology.NetworkInterface{}, false
	}

	iface := topology.NetworkInterface{
		// VLAN names carry an @parent suffix in the header.
		Name:  strings.TrimSuffix(strings.SplitN(fields[1], "@", 2)[0], ":"),
		State: "unknown",
	}
	for i := 2; i+1 < len(fields); i++ {
		switch fields[i] {
		case "mtu":
			iface.MTU, _ = strconv.Atoi(fields[i+1])
		case "state":
			iface.State = strings.ToLower(fields[i+1])
		}
	}
	return iface, true
}

// mergeSysfs fills speed and traffic counters from the interface's sysfs
// directory. Every leaf is independently optional: virtual interfaces have
// no speed, and counters vary by driver.
func (d *Detector) mergeSysfs(iface *topology.NetworkInterface) {
	dir := filepath.Join(d.SysClassNet, iface.Name)

	iface.SpeedMbps = readSpeed(filepath.Join(dir, "speed"))

	stats := topology.InterfaceStats{
		RxBytes:   readCounter(filepath.Join(dir, "statistics", "rx_bytes")),
		TxBytes:   readCounter(filepath.Join(dir, "statistics", "tx_bytes")),
		RxPackets: readCounter(filepath.Join(dir, "statistics", "rx_packets")),
		TxPackets: readCounter(filepath.Join(dir, "statistics", "tx_packets")),
		RxErrors:  readCounter(filepath.Join(dir, "statistics", "rx_errors")),
		TxErrors:  readCounter(filepath.Join(dir, "statistics", "tx_errors")),
	}
	if stats != (topology.InterfaceStats{}) {
		iface.Stats = &stats
	}
}

// readSpeed reads a link speed leaf. Drivers report -1 for interfaces
// without a negotiated link; that reads as absent.
func readSpeed(path string) *int64 {
	v := procfs.ReadNumericFile(path)
	if v == nil || *v < 0 {
		return nil
	}
	return v
}

func readCounter(path string) *uint64 {
	v := procfs.ReadNumericFile(path)
	if v == nil || *v < 0 {
		return nil
	}
	u := uint64(*v)
	return &u
}

// HasInfiniBand reports whether IB hardware is visible in sysfs.
func (d *Detector) HasInfiniBand() bool {
	entries, err := os.ReadDir(d.SysInfiniband)
	return err == nil && len(entries) > 0
}
