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

package snapshot

import (
	"os"
	"strconv"
	"strings"
)

// hostPaths are the proc and release files backing host metadata,
// overridable in tests.
type hostPaths struct {
	kernelRelease string
	osRelease     string
	uptime        string
}

func defaultHostPaths() hostPaths {
	return hostPaths{
		kernelRelease: "/proc/sys/kernel/osrelease",
		osRelease:     "/etc/os-release",
		uptime:        "/proc/uptime",
	}
}

// hostMeta reads hostname, kernel release, OS name, and uptime. Every field
// is best effort: a field that cannot be read stays zero.
func (p hostPaths) hostMeta() (hostname, kernel, osName string, uptime float64) {
	hostname, _ = os.Hostname()

	if raw, err := os.ReadFile(p.kernelRelease); err == nil {
		kernel = strings.TrimSpace(string(raw))
	}

	osName = p.osPrettyName()

	if raw, err := os.ReadFile(p.uptime); err == nil {
		fields := strings.Fields(string(raw))
		if len(fields) > 0 {
			uptime, _ = strconv.ParseFloat(fields[0], 64)
		}
	}

	return hostname, kernel, osName, uptime
}

// osPrettyName reads PRETTY_NAME from the os-release file, falling back to
// NAME when the pretty form is missing.
func (p hostPaths) osPrettyName() string {
	raw, err := os.ReadFile(p.osRelease)
	if err != nil {
		return ""
	}

	name := ""
	for _, line := range strings.Split(string(raw), "\n") {
		key, value, found := strings.Cut(line, "=")
		if !found {
			continue
		}
		value = strings.Trim(strings.TrimSpace(value), `"`)
		switch key {
		case "PRETTY_NAME":
			return value
		case "NAME":
			name = value
		}
	}
	return name
}
