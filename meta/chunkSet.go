package meta

import (
	"github.com/google/btree"
	"github.com/phase1912/BigFileSorterGenerator/public"
)

// Chunk is one sorted chunk file known to the orchestrator.
// Seq fixes its position in the working set, first added first paired.
type Chunk struct {
	Seq      uint64
	Path     string
	Claimed  bool
	Consumed bool
}

// Pair is two chunks handed to a single two-way merge. The chunks are
// copies, a merge task never reaches back into the ChunkSet.
type Pair struct {
	Left  Chunk
	Right Chunk
}

// ChunkSet is the working set of chunk files. It is owned by one control
// loop and does no locking of its own.
type ChunkSet struct {
	tree     *btree.BTreeG[*Chunk]
	nextSeq  uint64
	claimed  int
	consumed int
}

func NewChunkSet(paths ...string) *ChunkSet {
	cs := &ChunkSet{
		tree: btree.NewG[*Chunk](32, func(a, b *Chunk) bool {
			return a.Seq < b.Seq
		}),
	}
	for _, path := range paths {
		cs.Add(path)
	}
	return cs
}

// Add registers a fresh, unclaimed chunk at the end of the set
func (cs *ChunkSet) Add(path string) Chunk {
	chunk := &Chunk{Seq: cs.nextSeq, Path: path}
	cs.nextSeq++
	cs.tree.ReplaceOrInsert(chunk)
	return *chunk
}

// Len counts every chunk ever added, consumed ones included
func (cs *ChunkSet) Len() int {
	return cs.tree.Len()
}

// Unconsumed counts chunks whose file still exists
func (cs *ChunkSet) Unconsumed() int {
	return cs.tree.Len() - cs.consumed
}

// Free counts chunks that can still be selected for a merge
func (cs *ChunkSet) Free() int {
	return cs.tree.Len() - cs.consumed - cs.claimed
}

// SelectPairs claims up to min(Free, maxConcurrency)/2 disjoint pairs in
// set order. Every returned chunk is already marked claimed.
func (cs *ChunkSet) SelectPairs(maxConcurrency int) []Pair {
	n := cs.Free()
	if n > maxConcurrency {
		n = maxConcurrency
	}
	n -= n % 2
	if n <= 0 {
		return nil
	}

	picked := make([]*Chunk, 0, n)
	cs.tree.Ascend(func(chunk *Chunk) bool {
		if !chunk.Claimed && !chunk.Consumed {
			picked = append(picked, chunk)
		}
		return len(picked) < n
	})

	pairs := make([]Pair, 0, len(picked)/2)
	for i := 0; i+1 < len(picked); i += 2 {
		picked[i].Claimed = true
		picked[i+1].Claimed = true
		cs.claimed += 2
		pairs = append(pairs, Pair{Left: *picked[i], Right: *picked[i+1]})
	}
	return pairs
}

// ClaimRemaining claims every free chunk, used for the final merge
func (cs *ChunkSet) ClaimRemaining() []Chunk {
	var claimed []Chunk
	cs.tree.Ascend(func(chunk *Chunk) bool {
		if !chunk.Claimed && !chunk.Consumed {
			chunk.Claimed = true
			cs.claimed++
			claimed = append(claimed, *chunk)
		}
		return true
	})
	return claimed
}

// MarkConsumed records that the chunk was merged away and its file deleted
func (cs *ChunkSet) MarkConsumed(seq uint64) error {
	chunk, ok := cs.tree.Get(&Chunk{Seq: seq})
	if !ok {
		return public.ErrChunkNotFound
	}
	if chunk.Consumed {
		return public.ErrChunkConsumed
	}
	if !chunk.Claimed {
		return public.ErrChunkNotClaimed
	}
	chunk.Consumed = true
	cs.claimed--
	cs.consumed++
	return nil
}

// Remaining returns the unconsumed chunks in set order
func (cs *ChunkSet) Remaining() []Chunk {
	var remaining []Chunk
	cs.tree.Ascend(func(chunk *Chunk) bool {
		if !chunk.Consumed {
			remaining = append(remaining, *chunk)
		}
		return true
	})
	return remaining
}
