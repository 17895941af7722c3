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

// Package diff compares two hardware topologies and reports the fields
// that changed between them.
package diff

import (
	"reflect"
	"sort"

	"github.com/NVIDIA/hwsnap/pkg/serializer"
	"github.com/NVIDIA/hwsnap/pkg/topology"
)

// Change is a single field-level difference. Before is nil for fields
// that only exist in the newer topology; After is nil for fields that
// were removed.
type Change struct {
	Field  string `json:"field" yaml:"field"`
	Before any    `json:"before,omitempty" yaml:"before,omitempty"`
	After  any    `json:"after,omitempty" yaml:"after,omitempty"`
}

// Report pairs the compared snapshot identities with their differences.
type Report struct {
	BeforeID string   `json:"beforeId,omitempty" yaml:"beforeId,omitempty"`
	AfterID  string   `json:"afterId,omitempty" yaml:"afterId,omitempty"`
	Changes  []Change `json:"changes" yaml:"changes"`
}

// Compare flattens both topologies into dotted field paths and returns
// every path whose value differs, sorted by field. Identical topologies
// yield an empty slice.
func Compare(before, after topology.SystemTopology) []Change {
	b := serializer.Flatten(before)
	a := serializer.Flatten(after)

	fields := make(map[string]struct{}, len(b)+len(a))
	for k := range b {
		fields[k] = struct{}{}
	}
	for k := range a {
		fields[k] = struct{}{}
	}

	var changes []Change
	for field := range fields {
		bv, inBefore := b[field]
		av, inAfter := a[field]

		switch {
		case !inBefore:
			changes = append(changes, Change{Field: field, After: av})
		case !inAfter:
			changes = append(changes, Change{Field: field, Before: bv})
		case !reflect.DeepEqual(bv, av):
			changes = append(changes, Change{Field: field, Before: bv, After: av})
		}
	}

	sort.Slice(changes, func(i, j int) bool { return changes[i].Field < changes[j].Field })
	return changes
}

// CompareSnapshots compares the topologies of two snapshots and carries
// the snapshot IDs into the report.
func CompareSnapshots(before, after *topology.HardwareSnapshot) *Report {
	return &Report{
		BeforeID: before.ID,
		AfterID:  after.ID,
		Changes:  Compare(before.Topology, after.Topology),
	}
}
