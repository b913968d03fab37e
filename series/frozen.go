package series

import (
	"encoding/binary"
	"iter"
	"sort"

	"github.com/eaglenest7/infino/document"
	"github.com/eaglenest7/infino/errs"
	"github.com/eaglenest7/infino/internal/hash"
	"github.com/eaglenest7/infino/tscodec"
)

type frozenEntry struct {
	hash    uint64
	key     string
	metric  string
	labels  document.Labels
	count   int
	minTS   int64
	maxTS   int64
	tsData  []byte
	valData []byte
}

// Frozen is the immutable, post-seal form of a Dictionary: a sorted-by-hash
// array of series, each carrying its raw delta-of-delta timestamp stream
// and Gorilla-compressed value stream. Lookups binary search on hash.
type Frozen struct {
	entries []frozenEntry
}

// Freeze drains a Dictionary into its immutable sorted form. The Dictionary
// must not be appended to afterward; its encoders are finished.
func Freeze(d *Dictionary) *Frozen {
	sorted := d.sortedEntries()
	entries := make([]frozenEntry, len(sorted))

	for i, e := range sorted {
		entries[i] = frozenEntry{
			hash:    e.hash,
			key:     e.key,
			metric:  e.metric,
			labels:  e.labels,
			count:   e.count,
			minTS:   e.minTS,
			maxTS:   e.maxTS,
			tsData:  append([]byte(nil), e.ts.Bytes()...),
			valData: append([]byte(nil), e.val.Bytes()...),
		}
		e.ts.Finish()
		e.val.Finish()
	}

	return &Frozen{entries: entries}
}

// SeriesCount returns the number of series in the frozen dictionary.
func (f *Frozen) SeriesCount() int { return len(f.entries) }

// Keys returns the identity of every series in the frozen dictionary, in
// hash order.
func (f *Frozen) Keys() []document.SeriesKey {
	out := make([]document.SeriesKey, len(f.entries))
	for i, e := range f.entries {
		out[i] = document.SeriesKey{Metric: e.metric, Labels: e.labels}
	}

	return out
}

// Lookup resolves a SeriesKey to its hash for a subsequent All/TimeRange call.
func Lookup(key document.SeriesKey) uint64 {
	return hash.ID(CanonicalKey(key))
}

func (f *Frozen) find(h uint64) (frozenEntry, bool) {
	i := sort.Search(len(f.entries), func(i int) bool { return f.entries[i].hash >= h })
	if i < len(f.entries) && f.entries[i].hash == h {
		return f.entries[i], true
	}

	return frozenEntry{}, false
}

// All returns an iterator over the decoded samples of the series with the
// given hash, along with whether it exists.
func (f *Frozen) All(h uint64) (iter.Seq[Sample], bool) {
	e, ok := f.find(h)
	if !ok {
		return nil, false
	}

	return decodeSeries(e), true
}

func decodeSeries(e frozenEntry) iter.Seq[Sample] {
	tsDec := tscodec.NewTimestampDecoder()
	valDec := tscodec.NewValueDecoder()

	return func(yield func(Sample) bool) {
		timestamps := tsDec.All(e.tsData, e.count)
		values := valDec.All(e.valData, e.count)

		next, stop := iter.Pull(values)
		defer stop()

		for ts := range timestamps {
			v, ok := next()
			if !ok {
				return
			}

			if !yield(Sample{Timestamp: ts, Value: v}) {
				return
			}
		}
	}
}

// TimeRange returns the [min_ts, max_ts] span of the series with the given
// hash.
func (f *Frozen) TimeRange(h uint64) (minTS, maxTS int64, ok bool) {
	e, found := f.find(h)
	if !found {
		return 0, 0, false
	}

	return e.minTS, e.maxTS, true
}

// Serialize encodes the frozen dictionary into the series.bin byte layout:
// a varint entry count followed by, per entry in hash order, its hash,
// key, metric name, label set, sample count, time range, and the raw codec
// payloads each prefixed by a varint length.
func (f *Frozen) Serialize() []byte {
	var out []byte
	out = binary.AppendUvarint(out, uint64(len(f.entries))) //nolint:gosec

	for _, e := range f.entries {
		out = binary.AppendUvarint(out, e.hash)
		out = appendVarBytes(out, []byte(e.key))
		out = appendVarBytes(out, []byte(e.metric))
		out = appendLabels(out, e.labels)
		out = binary.AppendUvarint(out, uint64(e.count)) //nolint:gosec
		out = binary.AppendVarint(out, e.minTS)
		out = binary.AppendVarint(out, e.maxTS)
		out = appendVarBytes(out, e.tsData)
		out = appendVarBytes(out, e.valData)
	}

	return out
}

func appendLabels(dst []byte, labels document.Labels) []byte {
	names := make([]string, 0, len(labels))
	for name := range labels {
		names = append(names, name)
	}
	sort.Strings(names)

	dst = binary.AppendUvarint(dst, uint64(len(names))) //nolint:gosec
	for _, name := range names {
		dst = appendVarBytes(dst, []byte(name))
		dst = appendVarBytes(dst, []byte(labels[name]))
	}

	return dst
}

func readLabels(data []byte, offset int) (document.Labels, int, error) {
	n, next, err := readUvarint(data, offset)
	if err != nil {
		return nil, 0, err
	}
	offset = next

	if n == 0 {
		return nil, offset, nil
	}

	labels := make(document.Labels, n)
	for range n {
		name, adv, err := readVarBytes(data, offset)
		if err != nil {
			return nil, 0, err
		}
		offset = adv

		value, adv, err := readVarBytes(data, offset)
		if err != nil {
			return nil, 0, err
		}
		offset = adv

		labels[string(name)] = string(value)
	}

	return labels, offset, nil
}

// LoadFrozen decodes the series.bin byte layout produced by Serialize.
func LoadFrozen(data []byte) (*Frozen, error) {
	n, count, err := readUvarint(data, 0)
	if err != nil {
		return nil, err
	}

	entries := make([]frozenEntry, 0, count)
	offset := n

	for range count {
		var e frozenEntry

		h, adv, err := readUvarint(data, offset)
		if err != nil {
			return nil, err
		}
		e.hash = h
		offset = adv

		key, adv, err := readVarBytes(data, offset)
		if err != nil {
			return nil, err
		}
		e.key = string(key)
		offset = adv

		metric, adv, err := readVarBytes(data, offset)
		if err != nil {
			return nil, err
		}
		e.metric = string(metric)
		offset = adv

		labels, adv, err := readLabels(data, offset)
		if err != nil {
			return nil, err
		}
		e.labels = labels
		offset = adv

		cnt, adv, err := readUvarint(data, offset)
		if err != nil {
			return nil, err
		}
		e.count = int(cnt) //nolint:gosec
		offset = adv

		minTS, adv, err := readVarint(data, offset)
		if err != nil {
			return nil, err
		}
		e.minTS = minTS
		offset = adv

		maxTS, adv, err := readVarint(data, offset)
		if err != nil {
			return nil, err
		}
		e.maxTS = maxTS
		offset = adv

		tsData, adv, err := readVarBytes(data, offset)
		if err != nil {
			return nil, err
		}
		e.tsData = tsData
		offset = adv

		valData, adv, err := readVarBytes(data, offset)
		if err != nil {
			return nil, err
		}
		e.valData = valData
		offset = adv

		entries = append(entries, e)
	}

	return &Frozen{entries: entries}, nil
}

func appendVarBytes(dst []byte, b []byte) []byte {
	dst = binary.AppendUvarint(dst, uint64(len(b))) //nolint:gosec
	return append(dst, b...)
}

func readUvarint(data []byte, offset int) (uint64, int, error) {
	v, n := binary.Uvarint(data[offset:])
	if n <= 0 {
		return 0, 0, errs.New(errs.ErrInvalidManifest, errs.Internal, "series: truncated uvarint")
	}

	return v, offset + n, nil
}

func readVarint(data []byte, offset int) (int64, int, error) {
	v, n := binary.Varint(data[offset:])
	if n <= 0 {
		return 0, 0, errs.New(errs.ErrInvalidManifest, errs.Internal, "series: truncated varint")
	}

	return v, offset + n, nil
}

func readVarBytes(data []byte, offset int) ([]byte, int, error) {
	l, next, err := readUvarint(data, offset)
	if err != nil {
		return nil, 0, err
	}

	end := next + int(l) //nolint:gosec
	if end > len(data) {
		return nil, 0, errs.New(errs.ErrInvalidManifest, errs.Internal, "series: truncated byte field")
	}

	return data[next:end], end, nil
}
