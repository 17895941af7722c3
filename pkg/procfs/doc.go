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

// Package procfs provides generic parsers for Linux /proc and /sys
// pseudo-files.
//
// The Parser type handles line- and map-oriented files (/proc/meminfo,
// /etc/os-release) with configurable delimiters. KeyValueBlocks handles
// blank-line-delimited record files (/proc/cpuinfo). ReadNumericFile and
// ReadStringFile read single-value sysfs leaves, returning nil rather than
// an error when a leaf is absent: missing sysfs entries (no NUMA, no cache
// info, no link speed) are expected conditions on many systems.
package procfs
