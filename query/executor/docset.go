package executor

import "sort"

// docSet is a sorted, deduplicated slice of doc-ids local to one segment.
// Every resolution step in resolve.go produces one of these; composing a
// Bool query is just set algebra over them.
type docSet []uint32

func newDocSet(ids []uint32) docSet {
	if len(ids) == 0 {
		return nil
	}

	out := make(docSet, len(ids))
	copy(out, ids)
	sort.Sort(uint32Slice(out))

	dedup := out[:1]
	for _, id := range out[1:] {
		if id != dedup[len(dedup)-1] {
			dedup = append(dedup, id)
		}
	}

	return dedup
}

type uint32Slice []uint32

func (s uint32Slice) Len() int           { return len(s) }
func (s uint32Slice) Less(i, j int) bool { return s[i] < s[j] }
func (s uint32Slice) Swap(i, j int)      { s[i], s[j] = s[j], s[i] }

func allDocs(n int) docSet {
	if n <= 0 {
		return nil
	}

	out := make(docSet, n)
	for i := range out {
		out[i] = uint32(i) //nolint:gosec
	}

	return out
}

func union(sets ...docSet) docSet {
	var out docSet
	for _, s := range sets {
		out = append(out, s...)
	}

	return newDocSet(out)
}

func intersect(a, b docSet) docSet {
	var out docSet

	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] < b[j]:
			i++
		case a[i] > b[j]:
			j++
		default:
			out = append(out, a[i])
			i++
			j++
		}
	}

	return out
}

func intersectAll(sets []docSet) docSet {
	if len(sets) == 0 {
		return nil
	}

	out := sets[0]
	for _, s := range sets[1:] {
		out = intersect(out, s)
		if len(out) == 0 {
			return nil
		}
	}

	return out
}

func subtract(a, b docSet) docSet {
	if len(b) == 0 {
		return a
	}

	var out docSet

	i, j := 0, 0
	for i < len(a) {
		for j < len(b) && b[j] < a[i] {
			j++
		}
		if j < len(b) && b[j] == a[i] {
			i++

			continue
		}

		out = append(out, a[i])
		i++
	}

	return out
}
