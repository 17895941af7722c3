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
	"testing"

	"github.com/coreos/go-systemd/v22/dbus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NVIDIA/hwsnap/pkg/errors"
)

type fakeConn struct {
	statuses []dbus.UnitStatus
	err      error
	closed   bool
}

func (f *fakeConn) ListUnitsByNamesContext(_ context.Context, _ []string) ([]dbus.UnitStatus, error) {
	return f.statuses, f.err
}

func (f *fakeConn) Close() { f.closed = true }

func TestDetect(t *testing.T) {
	t.Parallel()

	conn := &fakeConn{
		statuses: []dbus.UnitStatus{
			{Name: "nvidia-persistenced.service", LoadState: "loaded", ActiveState: "active", SubState: "running"},
			{Name: "nvidia-fabricmanager.service", LoadState: "not-found", ActiveState: "inactive", SubState: "dead"},
		},
	}
	d := NewDetector(nil)
	d.connect = func(context.Context) (systemdConn, error) { return conn, nil }

	services, err := d.Detect(context.Background())
	require.NoError(t, err)
	require.Len(t, services.Services, 3)
	assert.True(t, conn.closed)

	persistenced := services.Services[0]
	assert.Equal(t, "nvidia-persistenced.service", persistenced.Unit)
	assert.True(t, persistenced.Loaded)
	assert.Equal(t, "active", persistenced.ActiveState)
	assert.Equal(t, "running", persistenced.SubState)

	fabric := services.Services[1]
	assert.False(t, fabric.Loaded)
	assert.Equal(t, "inactive", fabric.ActiveState)

	// DCGM never appeared in the reply at all.
	dcgm := services.Services[2]
	assert.Equal(t, "nvidia-dcgm.service", dcgm.Unit)
	assert.False(t, dcgm.Loaded)
	assert.Equal(t, "inactive", dcgm.ActiveState)
}

func TestDetectConnectFailure(t *testing.T) {
	t.Parallel()

	d := NewDetector([]string{"nvidia-dcgm.service"})
	d.connect = func(context.Context) (systemdConn, error) {
		return nil, assert.AnError
	}

	_, err := d.Detect(context.Background())
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeToolUnavailable))
}

func TestNewDetectorDefaults(t *testing.T) {
	t.Parallel()

	d := NewDetector(nil)
	assert.Equal(t, DefaultUnits, d.Units)

	custom := NewDetector([]string{"containerd.service"})
	assert.Equal(t, []string{"containerd.service"}, custom.Units)
}
