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

// Package serializer writes snapshot data in JSON, YAML, or table form.
//
// The table form flattens nested structures into dotted keys and renders
// byte quantities and large counters human-readable; JSON and YAML carry
// the raw values.
//
// Usage:
//
//	writer := serializer.NewWriter(serializer.FormatJSON, os.Stdout)
//	defer writer.Close()
//	if err := writer.Serialize(ctx, snap); err != nil {
//		return err
//	}
//
// Reading a previously written snapshot back:
//
//	snap, err := serializer.FromFile[topology.HardwareSnapshot]("snap.yaml")
package serializer
