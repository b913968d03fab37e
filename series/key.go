package series

import (
	"sort"
	"strings"

	"github.com/eaglenest7/infino/document"
)

// CanonicalKey renders a SeriesKey into the string used for hashing and
// collision comparison. Labels are sorted by name so that insertion order
// never affects identity.
func CanonicalKey(key document.SeriesKey) string {
	if len(key.Labels) == 0 {
		return key.Metric
	}

	names := make([]string, 0, len(key.Labels))
	for name := range key.Labels {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString(key.Metric)

	for _, name := range names {
		b.WriteByte('|')
		b.WriteString(name)
		b.WriteByte('=')
		b.WriteString(key.Labels[name])
	}

	return b.String()
}
