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

package cpu

import (
	"strconv"
	"strings"

	"github.com/NVIDIA/hwsnap/pkg/topology"
)

// numaParserState names the phases of the numactl --hardware report.
type numaParserState int

const (
	// numaAccumulatingNodes scans "node N cpus/size/free" lines.
	numaAccumulatingNodes numaParserState = iota
	// numaReadingDistances scans the distance matrix rows; a node record is
	// complete only once its distance row has been seen.
	numaReadingDistances
)

// numaRecord accumulates one node's fields until its distance row arrives.
type numaRecord struct {
	id        int
	cpus      []int
	total     uint64
	free      uint64
	distances []int
	complete  bool
}

// numaParser is a line-fed state machine over numactl --hardware output:
//
//	available: 2 nodes (0-1)
//	node 0 cpus: 0 1 2 3
//	node 0 size: 515896 MB
//	node 0 free: 491932 MB
//	node distances:
//	node   0   1
//	  0:  10  21
//	  1:  21  10
//
// It is independent of process I/O and unit-testable on literal text.
type numaParser struct {
	state   numaParserState
	records map[int]*numaRecord
	order   []int
}

func newNUMAParser() *numaParser {
	return &numaParser{
		state:   numaAccumulatingNodes,
		records: map[int]*numaRecord{},
	}
}

// feed advances the state machine by one line.
func (p *numaParser) feed(line string) {
	line = strings.TrimRight(line, " \t")
	if strings.TrimSpace(line) == "" {
		return
	}

	if strings.HasPrefix(line, "node distances:") {
		p.state = numaReadingDistances
		return
	}

	switch p.state {
	case numaAccumulatingNodes:
		p.feedNodeLine(line)
	case numaReadingDistances:
		p.feedDistanceLine(line)
	}
}

// feedNodeLine handles "node <id> cpus|size|free: ..." lines.
func (p *numaParser) feedNodeLine(line string) {
	fields := strings.Fields(line)
	if len(fields) < 3 || fields[0] != "node" {
		return
	}

	id, err := strconv.Atoi(fields[1])
	if err != nil {
		return
	}

	rec := p.records[id]
	if rec == nil {
		rec = &numaRecord{id: id}
		p.records[id] = rec
		p.order = append(p.order, id)
	}

	_, value, found := strings.Cut(line, ":")
	if !found {
		return
	}
	value = strings.TrimSpace(value)

	switch strings.TrimSuffix(fields[2], ":") {
	case "cpus":
		for _, c := range strings.Fields(value) {
			if cpu, err := strconv.Atoi(c); err == nil {
				rec.cpus = append(rec.cpus, cpu)
			}
		}
	case "size":
		rec.total = parseNUMASize(value)
	case "free":
		rec.free = parseNUMASize(value)
	}
}

// feedDistanceLine handles matrix rows like "  0:  10  21". The "node 0 1"
// column header carries no distances and is skipped.
func (p *numaParser) feedDistanceLine(line string) {
	fields := strings.Fields(line)
	if len(fields) < 2 || !strings.HasSuffix(fields[0], ":") {
		return
	}

	id, err := strconv.Atoi(strings.TrimSuffix(fields[0], ":"))
	if err != nil {
		return
	}

	rec := p.records[id]
	if rec == nil {
		return
	}

	distances := make([]int, 0, len(fields)-1)
	for _, f := range fields[1:] {
		d, err := strconv.Atoi(f)
		if err != nil {
			return
		}
		distances = append(distances, d)
	}

	rec.distances = distances
	rec.complete = true
}

// nodes returns the completed node records in report order. Records whose
// distance row was never seen are dropped.
func (p *numaParser) nodes() []topology.NUMANode {
	out := make([]topology.NUMANode, 0, len(p.order))
	for _, id := range p.order {
		rec := p.records[id]
		if !rec.complete {
			continue
		}
		out = append(out, topology.NUMANode{
			ID:         rec.id,
			CPUs:       rec.cpus,
			TotalBytes: rec.total,
			FreeBytes:  rec.free,
			Distances:  rec.distances,
		})
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// parseNUMASize converts "515896 MB" into bytes.
func parseNUMASize(s string) uint64 {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return 0
	}

	v, err := strconv.ParseUint(fields[0], 10, 64)
	if err != nil {
		return 0
	}

	if len(fields) > 1 {
		switch strings.ToUpper(fields[1]) {
		case "KB":
			return v * 1024
		case "MB":
			return v * 1024 * 1024
		case "GB":
			return v * 1024 * 1024 * 1024
		}
	}
	return v
}
