package sched

import (
	"fmt"
	"sort"

	"github.com/worldfnd/noir-r1cs/r1cs"
)

// LayerKind distinguishes plain layers from batched-inversion layers.
type LayerKind int

const (
	LayerOther LayerKind = iota + 1
	LayerInverse
)

// Layer is one step of the solving plan. All dependencies of a layer's
// builders are satisfied by strictly earlier layers, so a layer may execute
// its builders in any order or in parallel.
type Layer struct {
	Kind     LayerKind
	Builders []int
}

func inverseKind(t r1cs.BuilderType) bool {
	return t == r1cs.BuilderInverse || t == r1cs.BuilderLogUpInverse
}

// Schedule runs a layered topological sort over one partition. Ready
// inversion builders are parked instead of emitted and flushed as a single
// batch once no other builder can make progress, so the solver can amortize
// them with one Montgomery batch inversion. Cross-partition dependencies
// count as already satisfied.
func Schedule(dep *Dependency, builders []r1cs.WitnessBuilder, partition []int) ([]Layer, error) {
	inPartition := make(map[int]bool, len(partition))
	for _, b := range partition {
		inPartition[b] = true
	}
	localDegree := make(map[int]int, len(partition))
	for _, b := range partition {
		deg := 0
		for _, w := range dep.Reads[b] {
			p := dep.Producer[w]
			if p != b && inPartition[p] {
				deg++
			}
		}
		localDegree[b] = deg
	}

	var frontier, pending []int
	for _, b := range partition {
		if localDegree[b] == 0 {
			frontier = append(frontier, b)
		}
	}

	var layers []Layer
	processed := 0
	emit := func(kind LayerKind, members []int) {
		sort.Ints(members)
		layers = append(layers, Layer{Kind: kind, Builders: members})
		processed += len(members)
		for _, b := range members {
			for _, next := range dep.Adjacency[b] {
				if !inPartition[next] {
					continue
				}
				localDegree[next]--
				if localDegree[next] == 0 {
					frontier = append(frontier, next)
				}
			}
		}
	}

	for processed+len(pending) < len(partition) || len(pending) > 0 {
		var wave []int
		ready := frontier
		frontier = nil
		for _, b := range ready {
			if inverseKind(builders[b].Type) {
				pending = append(pending, b)
			} else {
				wave = append(wave, b)
			}
		}
		switch {
		case len(wave) > 0:
			emit(LayerOther, wave)
		case len(pending) > 0:
			batch := pending
			pending = nil
			emit(LayerInverse, batch)
		default:
			return nil, fmt.Errorf("schedule stalled with %d of %d builders placed", processed, len(partition))
		}
	}
	return layers, nil
}
