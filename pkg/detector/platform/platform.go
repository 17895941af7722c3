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

package platform

import (
	"context"
	"log/slog"

	"github.com/coreos/go-systemd/v22/dbus"

	"github.com/NVIDIA/hwsnap/pkg/defaults"
	"github.com/NVIDIA/hwsnap/pkg/errors"
	"github.com/NVIDIA/hwsnap/pkg/topology"
)

// DefaultUnits are the GPU platform services inspected when the caller does
// not name its own set.
var DefaultUnits = []string{
	"nvidia-persistenced.service",
	"nvidia-fabricmanager.service",
	"nvidia-dcgm.service",
}

// connector opens a systemd manager connection. Swapped in tests.
type connector func(ctx context.Context) (systemdConn, error)

// systemdConn is the slice of the dbus connection the detector uses.
type systemdConn interface {
	ListUnitsByNamesContext(ctx context.Context, units []string) ([]dbus.UnitStatus, error)
	Close()
}

// Detector reports the state of GPU platform systemd units.
type Detector struct {
	Units   []string
	connect connector
}

// NewDetector creates a platform detector for the given units, defaulting
// to the NVIDIA platform daemons.
func NewDetector(units []string) *Detector {
	if len(units) == 0 {
		units = DefaultUnits
	}
	return &Detector{
		Units: units,
		connect: func(ctx context.Context) (systemdConn, error) {
			return dbus.NewSystemdConnectionContext(ctx)
		},
	}
}

// Detect queries systemd over dbus for each unit's load and active state.
// A unit that is not installed is reported as not loaded rather than as an
// error: absence of a platform daemon is a valid observation.
func (d *Detector) Detect(ctx context.Context) (*topology.PlatformServices, error) {
	// dbus calls have no timeout of their own.
	ctx, cancel := context.WithTimeout(ctx, defaults.DetectorTimeout)
	defer cancel()

	conn, err := d.connect(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeToolUnavailable, "failed to connect to systemd", err)
	}
	defer conn.Close()

	statuses, err := conn.ListUnitsByNamesContext(ctx, d.Units)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, "failed to list systemd units", err)
	}

	byName := make(map[string]dbus.UnitStatus, len(statuses))
	for _, s := range statuses {
		byName[s.Name] = s
	}

	services := make([]topology.ServiceState, 0, len(d.Units))
	for _, unit := range d.Units {
		state := topology.ServiceState{Unit: unit, ActiveState: "inactive"}
		if s, ok := byName[unit]; ok {
			state.Loaded = s.LoadState == "loaded"
			state.ActiveState = s.ActiveState
			state.SubState = s.SubState
		} else {
			slog.Debug("systemd unit not reported", "unit", unit)
		}
		services = append(services, state)
	}

	return &topology.PlatformServices{Services: services}, nil
}
