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

// Package cpu detects the processor complex: core topology from
// /proc/cpuinfo, clock rates and cache sizes from sysfs (with cpuinfo
// fallbacks), hardware virtualization support from feature flags, and the
// NUMA layout from numactl --hardware.
//
// CPU detection is the one domain where failure is fatal: every machine has
// a parseable cpuinfo, so an empty or unreadable file aborts the whole
// topology build with a required-component error. The NUMA report and every
// sysfs leaf are individually optional.
package cpu
