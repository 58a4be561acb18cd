package core

// BlockDigest is one entry of β: the recent-history MMR (spec §3.1: "β |
// recent-history MMR and block digests", glossary: "Merkle-mountain-range
// of recent block digests"), adapted from a flat
// pairwise tree to an append-only mountain range.
type BlockDigest struct {
	HeaderHash Hash
	StateRoot  Hash
	MMRRoot    Hash // the MMR root AFTER this digest was appended
}

// RecentHistory is β: a bounded, append-only (within a block) sequence of
// digests plus the running MMR peak hashes.
type RecentHistory struct {
	Digests []BlockDigest
	Peaks   []Hash // MMR peaks, smallest-subtree first
}

func (h RecentHistory) Clone() RecentHistory {
	return RecentHistory{
		Digests: append([]BlockDigest(nil), h.Digests...),
		Peaks:   append([]Hash(nil), h.Peaks...),
	}
}

// Append adds a new block digest to β, maintaining the MMR peak list and
// trimming to maxLen (spec §3.1: "bounded length H"; §8: "β: bounded
// length, append-only within a block").
//
// The MMR merge rule: a new leaf is peak[0]; while the two smallest peaks
// represent equal-sized subtrees, they are merged into one parent peak,
// mirroring a standard binary-counter MMR (same pairwise level-doubling
// shape as a batch-built tree, but applied incrementally).
func (h RecentHistory) Append(headerHash, priorStateRoot Hash, maxLen int) RecentHistory {
	leaf := Blake2b256([]byte("mmr_leaf"), headerHash[:])
	peaks := append([]Hash(nil), h.Peaks...)
	sizes := make([]int, len(peaks))
	for i := range sizes {
		sizes[i] = 1 << i
	}
	peaks = append(peaks, leaf)
	sizes = append(sizes, 1)

	for len(sizes) >= 2 && sizes[len(sizes)-1] == sizes[len(sizes)-2] {
		n := len(sizes)
		merged := Blake2b256(peaks[n-2][:], peaks[n-1][:])
		peaks = peaks[:n-2]
		sizes = sizes[:n-2]
		peaks = append(peaks, merged)
		sizes = append(sizes, sizes2x(sizes))
	}

	root := mmrRoot(peaks)
	digests := append(h.Digests, BlockDigest{HeaderHash: headerHash, StateRoot: priorStateRoot, MMRRoot: root})
	if len(digests) > maxLen {
		digests = digests[len(digests)-maxLen:]
	}
	return RecentHistory{Digests: digests, Peaks: peaks}
}

func sizes2x(sizes []int) int {
	if len(sizes) == 0 {
		return 1
	}
	return sizes[len(sizes)-1] * 2
}

func mmrRoot(peaks []Hash) Hash {
	if len(peaks) == 0 {
		return Hash{}
	}
	acc := peaks[len(peaks)-1]
	for i := len(peaks) - 2; i >= 0; i-- {
		acc = Blake2b256(peaks[i][:], acc[:])
	}
	return acc
}

// ContainsAnchor reports whether hash appears among the recent header
// hashes (spec §4.3 check 4: "Context anchor exists in β").
func (h RecentHistory) ContainsAnchor(hash Hash) bool {
	for _, d := range h.Digests {
		if d.HeaderHash == hash {
			return true
		}
	}
	return false
}
