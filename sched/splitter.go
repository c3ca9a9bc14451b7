package sched

import (
	"github.com/bits-and-blooms/bitset"

	"github.com/worldfnd/noir-r1cs/r1cs"
)

// Split partitions builders into the pre-challenge phase w1 and the
// post-challenge phase w2. Anything transitively reading a challenge must be
// in w2; everything the challenge phase depends on must be committed in w1;
// the rest is balanced by written witness count. A builder claimed by
// both closures goes to w2, since it can never be committed before the
// challenges it depends on.
func Split(dep *Dependency, builders []r1cs.WitnessBuilder, numPublicInputs int) (w1, w2 []int) {
	n := dep.NumBuilders
	mandatoryW2 := bitset.New(uint(n))
	mandatoryW1 := bitset.New(uint(n))

	var challenges []int
	for b := range builders {
		if builders[b].Type == r1cs.BuilderChallenge {
			challenges = append(challenges, b)
		}
	}

	// Forward closure of the challenges under producer->reader edges.
	queue := append([]int(nil), challenges...)
	for _, b := range challenges {
		mandatoryW2.Set(uint(b))
	}
	for len(queue) > 0 {
		b := queue[0]
		queue = queue[1:]
		for _, next := range dep.Adjacency[b] {
			if !mandatoryW2.Test(uint(next)) {
				mandatoryW2.Set(uint(next))
				queue = append(queue, next)
			}
		}
	}

	// Backward closure of everything the challenge phase reads: lookup
	// multiplicities and looked-up values must be bound by the first
	// commitment, before any challenge exists. The walk starts from the
	// out-of-closure inputs of every w2 builder.
	for b := 0; b < n; b++ {
		if !mandatoryW2.Test(uint(b)) {
			continue
		}
		for _, w := range dep.Reads[b] {
			queue = append(queue, dep.Producer[w])
		}
	}
	for len(queue) > 0 {
		b := queue[0]
		queue = queue[1:]
		if mandatoryW2.Test(uint(b)) || mandatoryW1.Test(uint(b)) {
			continue
		}
		mandatoryW1.Set(uint(b))
		for _, w := range dep.Reads[b] {
			queue = append(queue, dep.Producer[w])
		}
	}

	// The constant one and the public inputs anchor w1 unless the challenge
	// closure claimed them.
	for w := 0; w <= numPublicInputs && w < dep.NumWitnesses; w++ {
		p := dep.Producer[w]
		if !mandatoryW2.Test(uint(p)) {
			mandatoryW1.Set(uint(p))
		}
	}

	assigned2 := bitset.New(uint(n))
	w1Count, w2Count := 0, 0
	writesPublic := func(b int) bool {
		start := builders[b].Index
		end := start + builders[b].NumWitnesses()
		return start <= numPublicInputs && end > 0 && start < numPublicInputs+1
	}
	for b := 0; b < n; b++ {
		nw := builders[b].NumWitnesses()
		switch {
		case mandatoryW2.Test(uint(b)):
			assigned2.Set(uint(b))
			w2Count += nw
		case mandatoryW1.Test(uint(b)):
			w1Count += nw
		default:
			// Analyze guarantees producers precede readers, so any w2
			// producer of b has already been assigned by this pass.
			forced := false
			for _, w := range dep.Reads[b] {
				if assigned2.Test(uint(dep.Producer[w])) {
					forced = true
					break
				}
			}
			switch {
			case forced:
				assigned2.Set(uint(b))
				w2Count += nw
			case writesPublic(b):
				w1Count += nw
			case w1Count <= w2Count:
				w1Count += nw
			default:
				assigned2.Set(uint(b))
				w2Count += nw
			}
		}
	}
	for b := 0; b < n; b++ {
		if assigned2.Test(uint(b)) {
			w2 = append(w2, b)
		} else {
			w1 = append(w1, b)
		}
	}
	return w1, w2
}
