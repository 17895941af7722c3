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

// Package network enumerates network interfaces through the ip tool,
// preferring its JSON output with a fallback to parsing the classic text
// form. Link speed and traffic counters are merged in from sysfs, where
// every leaf is independently optional. When InfiniBand tooling is present
// the ibstat report is parsed into adapter and port records.
package network
