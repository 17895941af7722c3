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
	"os"
	"path/filepath"
	"testing"

	"github.com/NVIDIA/hwsnap/pkg/topology"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const jsonListing = `{
  "blockdevices": [
    {
      "name": "nvme0n1", "type": "disk", "size": 1920383410176,
      "model": "SAMSUNG MZ1L21T9HCLS-00A07", "vendor": null,
      "serial": "S666NE0T500123", "rota": false, "tran": "nvme",
      "mountpoint": null, "fstype": null,
      "children": [
        {"name": "nvme0n1p1", "type": "part", "size": 536870912,
         "mountpoint": "/boot/efi", "fstype": "vfat"},
        {"name": "nvme0n1p2", "type": "part", "size": 1919845105664,
         "mountpoint": "/", "fstype": "ext4"}
      ]
    },
    {
      "name": "sda", "type": "disk", "size": 8001563222016,
      "model": "HGST HUS728T8TALE6L4", "vendor": "ATA     ",
      "serial": null, "rota": true, "tran": "sata",
      "mountpoint": null, "fstype": null
    }
  ]
}`

// Older util-linux quotes every scalar.
const jsonListingQuoted = `{
  "blockdevices": [
    {"name": "sda", "type": "disk", "size": "8001563222016", "rota": "1"}
  ]
}`

func TestParseJSONListing(t *testing.T) {
	t.Parallel()

	devices, err := parseJSONListing(jsonListing)
	require.NoError(t, err)
	require.Len(t, devices, 2)

	nvme := devices[0]
	assert.Equal(t, "nvme0n1", nvme.Name)
	assert.Equal(t, "disk", nvme.Type)
	assert.Equal(t, uint64(1920383410176), nvme.SizeBytes)
	require.NotNil(t, nvme.Model)
	assert.Equal(t, "SAMSUNG MZ1L21T9HCLS-00A07", *nvme.Model)
	assert.Nil(t, nvme.Vendor)
	require.NotNil(t, nvme.Rotational)
	assert.False(t, *nvme.Rotational)
	require.NotNil(t, nvme.Transport)
	assert.Equal(t, "nvme", *nvme.Transport)

	require.Len(t, nvme.Partitions, 2)
	assert.Equal(t, "nvme0n1p1", nvme.Partitions[0].Name)
	require.NotNil(t, nvme.Partitions[0].Mountpoint)
	assert.Equal(t, "/boot/efi", *nvme.Partitions[0].Mountpoint)
	require.NotNil(t, nvme.Partitions[1].Filesystem)
	assert.Equal(t, "ext4", *nvme.Partitions[1].Filesystem)

	sda := devices[1]
	require.NotNil(t, sda.Rotational)
	assert.True(t, *sda.Rotational)
	require.NotNil(t, sda.Vendor)
	assert.Equal(t, "ATA", *sda.Vendor, "vendor padding must be trimmed")
	assert.Empty(t, sda.Partitions)
}

func TestParseJSONListingQuotedScalars(t *testing.T) {
	t.Parallel()

	devices, err := parseJSONListing(jsonListingQuoted)
	require.NoError(t, err)
	require.Len(t, devices, 1)
	assert.Equal(t, uint64(8001563222016), devices[0].SizeBytes)
	require.NotNil(t, devices[0].Rotational)
	assert.True(t, *devices[0].Rotational)
}

func TestParseJSONListingInvalid(t *testing.T) {
	t.Parallel()

	_, err := parseJSONListing("lsblk: unrecognized option '--json'")
	require.Error(t, err)
}

func TestParseTextListing(t *testing.T) {
	t.Parallel()

	listing := `nvme0n1    disk 1920383410176
nvme0n1p1  part 536870912     /boot/efi
nvme0n1p2  part 1919845105664 /
sda        disk 8001563222016
sda1       part 8001561100288
`

	devices := parseTextListing(listing)
	require.Len(t, devices, 2)

	assert.Equal(t, "nvme0n1", devices[0].Name)
	require.Len(t, devices[0].Partitions, 2)
	require.NotNil(t, devices[0].Partitions[1].Mountpoint)
	assert.Equal(t, "/", *devices[0].Partitions[1].Mountpoint)

	assert.Equal(t, "sda", devices[1].Name)
	require.Len(t, devices[1].Partitions, 1)
	assert.Nil(t, devices[1].Partitions[0].Mountpoint)
}

func TestParseTextListingOrphanPartition(t *testing.T) {
	t.Parallel()

	// A partition row with no preceding disk has nowhere to attach.
	devices := parseTextListing("sda1 part 1024\n")
	assert.Empty(t, devices)
}

func TestParseTextListingGarbage(t *testing.T) {
	t.Parallel()

	assert.Empty(t, parseTextListing("not a listing\n\n"))
	assert.Empty(t, parseTextListing(""))
}

func TestHasNVMe(t *testing.T) {
	t.Parallel()

	tran := "nvme"
	assert.True(t, HasNVMe(&topology.StorageInfo{
		Devices: []topology.StorageDevice{{Name: "sda"}, {Name: "vda", Transport: &tran}},
	}))
	assert.True(t, HasNVMe(&topology.StorageInfo{
		Devices: []topology.StorageDevice{{Name: "nvme0n1"}},
	}))
	assert.False(t, HasNVMe(&topology.StorageInfo{
		Devices: []topology.StorageDevice{{Name: "sda"}},
	}))
	assert.False(t, HasNVMe(nil))
}

func TestHasNVMeController(t *testing.T) {
	t.Parallel()

	class := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(class, "nvme0"), 0o700))

	d := &Detector{SysClassNVMe: class}
	assert.True(t, d.HasNVMeController())

	d.SysClassNVMe = t.TempDir()
	assert.False(t, d.HasNVMeController())

	d.SysClassNVMe = filepath.Join(t.TempDir(), "missing")
	assert.False(t, d.HasNVMeController())
}

func TestHasRAID(t *testing.T) {
	t.Parallel()

	mdstat := filepath.Join(t.TempDir(), "mdstat")
	require.NoError(t, os.WriteFile(mdstat, []byte(`Personalities : [raid1]
md0 : active raid1 sdb1[1] sda1[0]
      976630464 blocks super 1.2 [2/2] [UU]

unused devices: <none>
`), 0o600))

	d := &Detector{ProcMdstat: mdstat}
	assert.True(t, d.HasRAID())

	empty := filepath.Join(t.TempDir(), "mdstat")
	require.NoError(t, os.WriteFile(empty, []byte("Personalities :\nunused devices: <none>\n"), 0o600))
	d.ProcMdstat = empty
	assert.False(t, d.HasRAID())

	d.ProcMdstat = filepath.Join(t.TempDir(), "missing")
	assert.False(t, d.HasRAID())
}
