// Package sched turns a flat list of witness builders into an executable
// plan: it extracts the dependency graph, partitions builders into the
// pre-challenge and post-challenge commitment phases, renumbers witnesses so
// each phase is contiguous, and schedules each phase into layers with
// batched inversions.
package sched

import (
	"fmt"

	"github.com/worldfnd/noir-r1cs/r1cs"
)

// Dependency is the read/write structure of a builder list: who produces
// each witness, who reads whose outputs, and per-builder in-degrees under
// the producer->reader relation. Self-reads are ignored.
type Dependency struct {
	NumBuilders  int
	NumWitnesses int
	Reads        [][]int
	Producer     []int
	Adjacency    [][]int
	InDegree     []int
}

// Analyze validates that every witness in [0, numWitnesses) is written by
// exactly one builder, that every read comes from a builder at or before the
// reader, and builds the adjacency structure. The ordering is what lets the
// splitter and scheduler resolve builders in a single forward pass.
func Analyze(builders []r1cs.WitnessBuilder, numWitnesses int) (*Dependency, error) {
	d := &Dependency{
		NumBuilders:  len(builders),
		NumWitnesses: numWitnesses,
		Reads:        make([][]int, len(builders)),
		Producer:     make([]int, numWitnesses),
		Adjacency:    make([][]int, len(builders)),
		InDegree:     make([]int, len(builders)),
	}
	for i := range d.Producer {
		d.Producer[i] = -1
	}
	for b := range builders {
		start := builders[b].Index
		count := builders[b].NumWitnesses()
		for w := start; w < start+count; w++ {
			if w < 0 || w >= numWitnesses {
				return nil, fmt.Errorf("builder %d writes witness %d outside [0,%d)", b, w, numWitnesses)
			}
			if d.Producer[w] != -1 {
				return nil, fmt.Errorf("witness %d written by builders %d and %d", w, d.Producer[w], b)
			}
			d.Producer[w] = b
		}
	}
	for w, p := range d.Producer {
		if p == -1 {
			return nil, fmt.Errorf("witness %d has no producer", w)
		}
	}
	for b := range builders {
		d.Reads[b] = builders[b].Reads()
		for _, w := range d.Reads[b] {
			if w < 0 || w >= numWitnesses {
				return nil, fmt.Errorf("builder %d reads witness %d outside [0,%d)", b, w, numWitnesses)
			}
			p := d.Producer[w]
			if p == b {
				continue
			}
			if p > b {
				return nil, fmt.Errorf("builder %d reads witness %d produced by later builder %d", b, w, p)
			}
			d.Adjacency[p] = append(d.Adjacency[p], b)
			d.InDegree[b]++
		}
	}
	return d, nil
}
