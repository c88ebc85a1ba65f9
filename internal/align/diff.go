package align

import "slices"

// OpTag identifies one kind of edit operation in an alignment script.
type OpTag string

// The closed set of opcode tags.
const (
	OpEqual   OpTag = "equal"
	OpReplace OpTag = "replace"
	OpInsert  OpTag = "insert"
	OpDelete  OpTag = "delete"
)

// Opcode describes one edit operation between a source token sequence and a
// reference token sequence:
//
//	equal    source[I1:I2] matches reference[J1:J2] (same length, equal keys)
//	replace  source[I1:I2] should become reference[J1:J2]
//	delete   source[I1:I2] has no counterpart in the reference
//	insert   reference[J1:J2] has no counterpart in the source
//
// The ordered opcode list returned by [Diff] covers [0, len(source)) with its
// source ranges exactly once each, and [0, len(reference)) with its reference
// ranges exactly once each.
type Opcode struct {
	Tag            OpTag
	I1, I2, J1, J2 int
}

// Diff computes the edit script between two token sequences using key
// equality as the match predicate.
//
// The algorithm recursively anchors on the longest run of equal keys,
// preferring the earliest such run when several share the maximum length.
// This tie-break is fixed: for any pair of inputs the same script is
// produced on every call. Complexity is O(N·M) in the token counts, which is
// fine for song-length lyrics; callers enforce any token-count ceiling before
// invoking Diff.
//
// If either sequence is empty, a single insert or delete opcode covering the
// entire non-empty side is returned. Two empty sequences yield no opcodes.
func Diff(source, reference []Token) []Opcode {
	a := Keys(source)
	b := Keys(reference)

	// Index reference keys by value for the inner matching loop.
	b2j := make(map[string][]int, len(b))
	for j, key := range b {
		b2j[key] = append(b2j[key], j)
	}

	blocks := matchingBlocks(a, b, b2j)

	var ops []Opcode
	i1, j1 := 0, 0
	for _, m := range blocks {
		tag := OpTag("")
		switch {
		case i1 < m.a && j1 < m.b:
			tag = OpReplace
		case i1 < m.a:
			tag = OpDelete
		case j1 < m.b:
			tag = OpInsert
		}
		if tag != "" {
			ops = append(ops, Opcode{Tag: tag, I1: i1, I2: m.a, J1: j1, J2: m.b})
		}
		i1, j1 = m.a+m.size, m.b+m.size
		if m.size > 0 {
			ops = append(ops, Opcode{Tag: OpEqual, I1: m.a, I2: i1, J1: m.b, J2: j1})
		}
	}
	return ops
}

// block is a maximal run of matching keys: a[a:a+size] == b[b:b+size].
type block struct {
	a, b, size int
}

// matchingBlocks returns all matching runs in order, terminated by a
// zero-size sentinel at (len(a), len(b)). Runs are found by repeatedly
// locating the longest match in the remaining window and recursing on the
// unmatched flanks, processed iteratively with an explicit queue.
func matchingBlocks(a, b []string, b2j map[string][]int) []block {
	type window struct{ alo, ahi, blo, bhi int }
	queue := []window{{0, len(a), 0, len(b)}}
	var matched []block

	for len(queue) > 0 {
		w := queue[len(queue)-1]
		queue = queue[:len(queue)-1]

		m := longestMatch(a, w.alo, w.ahi, w.blo, w.bhi, b2j)
		if m.size == 0 {
			continue
		}
		matched = append(matched, m)
		if w.alo < m.a && w.blo < m.b {
			queue = append(queue, window{w.alo, m.a, w.blo, m.b})
		}
		if m.a+m.size < w.ahi && m.b+m.size < w.bhi {
			queue = append(queue, window{m.a + m.size, w.ahi, m.b + m.size, w.bhi})
		}
	}

	// Order blocks by position and merge adjacent runs.
	slices.SortFunc(matched, func(x, y block) int { return x.a - y.a })
	var out []block
	for _, m := range matched {
		if n := len(out); n > 0 && out[n-1].a+out[n-1].size == m.a && out[n-1].b+out[n-1].size == m.b {
			out[n-1].size += m.size
			continue
		}
		out = append(out, m)
	}
	return append(out, block{len(a), len(b), 0})
}

// longestMatch finds the longest run of equal keys within
// a[alo:ahi] × b[blo:bhi]. Among runs of maximal length the one starting
// earliest in a, then earliest in b, is returned.
func longestMatch(a []string, alo, ahi, blo, bhi int, b2j map[string][]int) block {
	best := block{alo, blo, 0}
	// j2len[j] = length of the longest run ending at a[i-1], b[j-1].
	j2len := make(map[int]int)
	for i := alo; i < ahi; i++ {
		next := make(map[int]int)
		for _, j := range b2j[a[i]] {
			if j < blo {
				continue
			}
			if j >= bhi {
				break
			}
			k := j2len[j-1] + 1
			next[j] = k
			if k > best.size {
				best = block{i - k + 1, j - k + 1, k}
			}
		}
		j2len = next
	}
	return best
}
