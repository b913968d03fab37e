package index

// SegmentRef is one line of an Index's manifest: a persisted segment's id,
// time range, and checksum needed to verify its meta.json on load.
type SegmentRef struct {
	ID               string `json:"id"`
	MinTS            int64  `json:"min_ts"`
	MaxTS            int64  `json:"max_ts"`
	ManifestChecksum uint64 `json:"manifest_checksum"`
}

// Manifest is the single authoritative record of which segments are live
// for an Index. Its PUT is the commit point: a crash before this PUT leaves
// orphan segment bytes that a subsequent Load ignores as garbage.
type Manifest struct {
	IndexName string       `json:"index_name"`
	Segments  []SegmentRef `json:"segments"`
}

func (m *Manifest) add(ref SegmentRef) {
	m.Segments = append(m.Segments, ref)
}

func (m *Manifest) remove(id string) {
	out := m.Segments[:0]
	for _, s := range m.Segments {
		if s.ID != id {
			out = append(out, s)
		}
	}
	m.Segments = out
}
