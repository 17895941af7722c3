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

// Package snapshot builds hardware snapshots. The Builder fans detection
// out over the hardware domains with one goroutine each, merges results
// under a mutex, and derives capability flags from what it found. CPU and
// memory are required: either failing aborts the build. GPU, storage,
// network, and platform sections degrade to absence on failure.
package snapshot
