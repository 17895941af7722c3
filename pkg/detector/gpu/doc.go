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

// Package gpu detects NVIDIA GPUs and their interconnect topology through
// the nvidia-smi CLI.
//
// Detection is two-phase. The first phase issues a single CSV query with an
// explicit ordered field list, parsed by fixed position, yielding one
// GPUDevice per row with memory converted from MiB to bytes. The second
// phase reads the connectivity matrix report to build an N×N bandwidth
// matrix: NV<n> tokens map to n links of NVLink bandwidth, every other
// relationship (PHB, PIX, SYS, ...) maps to zero. PCIe link generation and
// width come from a dedicated query.
//
// A machine without the CLI, or with zero devices, yields ErrNoGPUs, which
// callers treat as the absence of optional hardware rather than a failure.
package gpu
