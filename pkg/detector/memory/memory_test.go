package memory

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NVIDIA/hwsnap/pkg/cmdexec"
	"github.com/NVIDIA/hwsnap/pkg/errors"
)

const meminfoFixture = `MemTotal:       131072000 kB
MemFree:        65536000 kB
MemAvailable:   98304000 kB
Buffers:        1024000 kB
Cached:         16384000 kB
Shmem:          512000 kB
SwapTotal:      8388608 kB
SwapFree:       8388608 kB
HugePages_Total:     512
HugePages_Free:      256
Hugepagesize:       2048 kB
`

func newTestDetector(t *testing.T, meminfo string) *Detector {
	t.Helper()
	path := filepath.Join(t.TempDir(), "meminfo")
	require.NoError(t, os.WriteFile(path, []byte(meminfo), 0o600))

	d := NewDetector(&cmdexec.Runner{}, time.Second)
	d.ProcMemInfo = path
	return d
}

func TestDetect(t *testing.T) {
	d := newTestDetector(t, meminfoFixture)

	info, err := d.Detect(context.Background())
	require.NoError(t, err)

	kb := uint64(1024)
	assert.Equal(t, 131072000*kb, info.TotalBytes)
	assert.Equal(t, 65536000*kb, info.FreeBytes)
	assert.Equal(t, 98304000*kb, info.AvailableBytes)
	assert.Equal(t, 1024000*kb, info.BuffersBytes)
	assert.Equal(t, 16384000*kb, info.CachedBytes)
	assert.Equal(t, 512000*kb, info.SharedBytes)

	// used = total − free − buffers − cached
	expectedUsed := (131072000 - 65536000 - 1024000 - 16384000) * kb
	assert.Equal(t, expectedUsed, info.UsedBytes)

	assert.Equal(t, 8388608*kb, info.SwapTotalBytes)
	assert.Equal(t, uint64(0), info.SwapUsedBytes)

	require.NotNil(t, info.Hugepages)
	assert.Equal(t, uint64(512), info.Hugepages.Total)
	assert.Equal(t, uint64(256), info.Hugepages.Free)
	assert.Equal(t, 2048*kb, info.Hugepages.SizeBytes)
}

func TestDetect_AllZeroCounters(t *testing.T) {
	d := newTestDetector(t, "MemTotal: 0 kB\nMemFree: 0 kB\nBuffers: 0 kB\nCached: 0 kB\n")

	info, err := d.Detect(context.Background())
	require.NoError(t, err)

	assert.Equal(t, uint64(0), info.UsedBytes)
	assert.Nil(t, info.Hugepages)
	assert.Nil(t, info.Modules)
}

func TestDetect_MissingMemInfoIsFatal(t *testing.T) {
	d := newTestDetector(t, "x")
	d.ProcMemInfo = filepath.Join(t.TempDir(), "missing")

	_, err := d.Detect(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsRequiredComponent(err))
}

func TestDetect_NoHugepagesConfigured(t *testing.T) {
	d := newTestDetector(t, "MemTotal: 1024 kB\nMemFree: 512 kB\nHugePages_Total: 0\nHugepagesize: 2048 kB\n")

	info, err := d.Detect(context.Background())
	require.NoError(t, err)
	assert.Nil(t, info.Hugepages)
}

const dmidecodeFixture = `# dmidecode 3.3
Getting SMBIOS data from sysfs.

Handle 0x0040, DMI type 17, 84 bytes
Memory Device
	Array Handle: 0x003E
	Total Width: 72 bits
	Size: 64 GB
	Form Factor: DIMM
	Locator: DIMM_A1
	Type: DDR5
	Speed: 4800 MT/s
	Manufacturer: Samsung
	Part Number: M321R8GA0BB0-CQKZJ

Handle 0x0041, DMI type 17, 84 bytes
Memory Device
	Array Handle: 0x003E
	Size: No Module Installed
	Locator: DIMM_A2

Handle 0x0042, DMI type 17, 84 bytes
Memory Device
	Array Handle: 0x003E
	Size: 16384 MB
	Locator: DIMM_B1
	Type: DDR4
	Speed: 3200 MT/s
	Manufacturer: Micron
	Part Number: MTA18ASF2G72PZ
`

func TestParseDMIModules(t *testing.T) {
	modules := parseDMIModules(dmidecodeFixture)
	require.Len(t, modules, 2)

	assert.Equal(t, "DIMM_A1", modules[0].Locator)
	assert.Equal(t, uint64(64)*1024*1024*1024, modules[0].SizeBytes)
	assert.Equal(t, "DDR5", modules[0].Type)
	assert.Equal(t, 4800, modules[0].SpeedMTs)
	assert.Equal(t, "Samsung", modules[0].Manufacturer)
	assert.Equal(t, "M321R8GA0BB0-CQKZJ", modules[0].PartNumber)

	assert.Equal(t, "DIMM_B1", modules[1].Locator)
	assert.Equal(t, uint64(16384)*1024*1024, modules[1].SizeBytes)
}

func TestParseDMIModules_Empty(t *testing.T) {
	assert.Empty(t, parseDMIModules(""))
	assert.Empty(t, parseDMIModules("Memory Device\n\tSize: No Module Installed\n"))
}

func TestKBToBytes(t *testing.T) {
	assert.Equal(t, uint64(2048*1024), kbToBytes("2048 kB"))
	assert.Equal(t, uint64(100), kbToBytes("100"))
	assert.Equal(t, uint64(0), kbToBytes(""))
	assert.Equal(t, uint64(0), kbToBytes("junk kB"))
}
