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

// Package errors provides structured error types for hardware detection.
//
// Detection failures fall into three classes:
//
//   - Fatal: a required detector (CPU, memory) failed entirely. These carry
//     ErrCodeRequiredComponent and abort the whole topology build.
//   - Recoverable: an optional detector's backing tool is missing or reports
//     no devices (GPU, InfiniBand, DIMM inventory). These are consumed inside
//     the topology builder and degrade to an absent section.
//   - Best-effort: an individual sysfs leaf or CLI field is missing; no error
//     is produced at all, only a nil field.
//
// StructuredError carries an ErrorCode, message, wrapped cause, and optional
// context for logging:
//
//	if err := detect(ctx); err != nil {
//	    return errors.RequiredComponent("cpu", err)
//	}
//
// Use errors.Is/errors.As as usual; StructuredError implements Unwrap.
package errors
