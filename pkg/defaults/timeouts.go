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

// Package defaults centralizes shared timeout and TTL constants so every
// layer of the engine uses consistent bounds.
package defaults

import "time"

// Detector timeouts for external probe operations.
const (
	// CommandTimeout is the default timeout for a single external command
	// invocation. Detectors should respect shorter parent context deadlines.
	CommandTimeout = 10 * time.Second

	// DetectorTimeout bounds a full per-domain detection pass, which may
	// issue several commands and pseudo-file reads.
	DetectorTimeout = 30 * time.Second

	// BuildTimeout bounds a complete topology build across all domains.
	BuildTimeout = 2 * time.Minute
)

// Cache behavior.
const (
	// SnapshotTTL is the default time-to-live for cached topology snapshots.
	SnapshotTTL = 60 * time.Second

	// RefreshRate limits how often callers can force a cache-bypassing
	// rebuild, protecting privileged probes from being hammered.
	RefreshRate = 1.0 // rebuilds per second

	// RefreshBurst is the burst size for forced rebuilds.
	RefreshBurst = 2
)
