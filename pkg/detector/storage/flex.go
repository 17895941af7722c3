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

package storage

import (
	"bytes"
	"strconv"
)

// flexUint64 unmarshals from either a JSON number or a quoted decimal
// string. lsblk emits numbers since util-linux 2.37 and strings before.
type flexUint64 uint64

func (f *flexUint64) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(bytes.TrimSpace(data), `"`)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = 0
		return nil
	}
	v, err := strconv.ParseUint(string(data), 10, 64)
	if err != nil {
		*f = 0
		return nil
	}
	*f = flexUint64(v)
	return nil
}

// flexBool unmarshals from JSON true/false or the quoted "1"/"0" forms
// older lsblk builds emit.
type flexBool bool

func (f *flexBool) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(bytes.TrimSpace(data), `"`)
	switch string(data) {
	case "true", "1":
		*f = true
	default:
		*f = false
	}
	return nil
}
