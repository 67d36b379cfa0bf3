package merge

import "sort"

// indexDiff is one differing hunk between the ancestor o and one side:
// o[OStart:OStart+OLen] was replaced by side[SStart:SStart+SLen].
type indexDiff struct {
	oStart int
	oLen   int
	sStart int
	sLen   int
}

// diffIndices computes the differing hunks between o and s from the gaps
// around their longest common subsequence.
func diffIndices(o, s []string) []indexDiff {
	matches := lcsMatches(o, s)
	var out []indexDiff
	oPrev, sPrev := 0, 0
	for _, m := range matches {
		if m.a > oPrev || m.b > sPrev {
			out = append(out, indexDiff{oPrev, m.a - oPrev, sPrev, m.b - sPrev})
		}
		oPrev, sPrev = m.a+1, m.b+1
	}
	if len(o) > oPrev || len(s) > sPrev {
		out = append(out, indexDiff{oPrev, len(o) - oPrev, sPrev, len(s) - sPrev})
	}
	return out
}

const (
	sideA = 0 // local
	sideB = 1 // server
)

// region is one span of diff3 output: either stable content that can be
// emitted as-is, or an unstable span where both sides touched the same
// ancestor lines.
type region struct {
	stable   bool
	content  []string // stable only
	aContent []string // unstable only
	bContent []string
}

// diff3Regions computes merge regions for local a and server b against the
// common ancestor o. Hunks against o are collected from both sides, sorted by
// ancestor offset, and folded into regions; overlapping hunks from different
// sides form a single unstable region whose side contents are recovered by
// extending each side's bounds to the region's ancestor bounds.
func diff3Regions(a, o, b []string) []region {
	type hunk struct {
		side   int
		oStart int
		oLen   int
		sStart int
		sLen   int
	}

	var hunks []hunk
	for _, d := range diffIndices(o, a) {
		hunks = append(hunks, hunk{sideA, d.oStart, d.oLen, d.sStart, d.sLen})
	}
	for _, d := range diffIndices(o, b) {
		hunks = append(hunks, hunk{sideB, d.oStart, d.oLen, d.sStart, d.sLen})
	}
	sort.SliceStable(hunks, func(i, j int) bool { return hunks[i].oStart < hunks[j].oStart })

	var regions []region
	curr := 0
	advanceTo := func(end int) {
		if end > curr {
			regions = append(regions, region{stable: true, content: o[curr:end]})
			curr = end
		}
	}

	for len(hunks) > 0 {
		h := hunks[0]
		hunks = hunks[1:]
		regionStart := h.oStart
		regionEnd := h.oStart + h.oLen
		group := []hunk{h}

		advanceTo(regionStart)

		// Pull in every hunk whose ancestor span touches this region.
		for len(hunks) > 0 && hunks[0].oStart <= regionEnd {
			next := hunks[0]
			hunks = hunks[1:]
			if end := next.oStart + next.oLen; end > regionEnd {
				regionEnd = end
			}
			group = append(group, next)
		}

		if len(group) == 1 {
			// Only one side changed; its replacement is stable.
			side := a
			if h.side == sideB {
				side = b
			}
			if h.sLen > 0 {
				regions = append(regions, region{stable: true, content: side[h.sStart : h.sStart+h.sLen]})
			}
		} else {
			// bounds[side] = {sMin, sMax, oMin, oMax}
			bounds := [2][4]int{
				{len(a), -1, len(o), -1},
				{len(b), -1, len(o), -1},
			}
			for _, g := range group {
				bo := &bounds[g.side]
				if g.sStart < bo[0] {
					bo[0] = g.sStart
				}
				if end := g.sStart + g.sLen; end > bo[1] {
					bo[1] = end
				}
				if g.oStart < bo[2] {
					bo[2] = g.oStart
				}
				if end := g.oStart + g.oLen; end > bo[3] {
					bo[3] = end
				}
			}
			aStart := bounds[sideA][0] + (regionStart - bounds[sideA][2])
			aEnd := bounds[sideA][1] + (regionEnd - bounds[sideA][3])
			bStart := bounds[sideB][0] + (regionStart - bounds[sideB][2])
			bEnd := bounds[sideB][1] + (regionEnd - bounds[sideB][3])
			regions = append(regions, region{
				aContent: a[aStart:aEnd],
				bContent: b[bStart:bEnd],
			})
		}
		curr = regionEnd
	}
	advanceTo(len(o))

	return regions
}

// Block is one unit of diff3 output: either OK lines agreed by both sides or
// a true conflict carrying each side's lines.
type Block struct {
	OK       []string
	Conflict *Conflict
}

// Conflict holds the two sides of an unresolvable span.
type Conflict struct {
	A []string // local
	B []string // server
}

// Diff3 merges local a and server b against ancestor o into a sequence of
// blocks. Spans where both sides made the identical change collapse into OK
// content (false conflicts).
func Diff3(a, o, b []string) []Block {
	var blocks []Block
	var ok []string
	flush := func() {
		if len(ok) > 0 {
			blocks = append(blocks, Block{OK: ok})
			ok = nil
		}
	}

	for _, r := range diff3Regions(a, o, b) {
		switch {
		case r.stable:
			ok = append(ok, r.content...)
		case equalLines(r.aContent, r.bContent):
			ok = append(ok, r.aContent...)
		default:
			flush()
			blocks = append(blocks, Block{Conflict: &Conflict{A: r.aContent, B: r.bContent}})
		}
	}
	flush()
	return blocks
}

func equalLines(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
