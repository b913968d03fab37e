package segment

import (
	"github.com/eaglenest7/infino/compress"
	"github.com/eaglenest7/infino/document"
	"github.com/eaglenest7/infino/errs"
	"github.com/eaglenest7/infino/format"
	"github.com/eaglenest7/infino/forward"
	"github.com/eaglenest7/infino/internal/hash"
	"github.com/eaglenest7/infino/invindex"
	"github.com/eaglenest7/infino/series"
)

// Sealed is the immutable, post-Seal form of a Segment. A Sealed returned by
// Segment.Seal reports Persisted false, and nothing changes that after its
// bytes are written; a Sealed returned by Load reports Persisted true.
// Sealed exposes the same read-only query contract either way.
type Sealed struct {
	id       string
	minTS    int64
	maxTS    int64
	docCount int

	inverted  *invindex.Frozen
	fwdStore  *forward.Store // pre-compaction; Compact lazily produces fwdFrozen
	fwdFrozen *forward.Frozen
	seriesD   *series.Frozen

	persisted bool
}

// ID returns the segment's identifier.
func (s *Sealed) ID() string { return s.id }

// TimeRange returns the segment's [min_ts, max_ts] span.
func (s *Sealed) TimeRange() (minTS, maxTS int64) { return s.minTS, s.maxTS }

// TimeOverlaps reports whether the segment's time range intersects
// [rangeMin, rangeMax].
func (s *Sealed) TimeOverlaps(rangeMin, rangeMax int64) bool {
	return s.maxTS >= rangeMin && s.minTS <= rangeMax
}

// DocCount returns the number of documents the segment holds.
func (s *Sealed) DocCount() int { return s.docCount }

// Persisted reports whether the segment was reconstructed by Load from
// bytes already in the Blob Store. It stays false for a segment sealed in
// this process, including after Index.Commit has written its bytes.
func (s *Sealed) Persisted() bool { return s.persisted }

// Inverted exposes the read-only inverted-index contract for query execution.
func (s *Sealed) Inverted() *invindex.Frozen { return s.inverted }

// Series exposes the read-only series dictionary for metric query execution.
func (s *Sealed) Series() *series.Frozen { return s.seriesD }

// Doc returns the document with the given doc-id, compacting the forward
// store into its zstd-compressed block form on first access.
func (s *Sealed) Doc(docID uint64) (document.Document, bool, error) {
	if s.fwdFrozen == nil {
		codec, err := compress.GetCodec(format.CompressionZstd)
		if err != nil {
			return document.Document{}, false, err
		}

		frozen, err := forward.Freeze(s.fwdStore, codec, forward.DefaultDocsPerBlock)
		if err != nil {
			return document.Document{}, false, err
		}

		s.fwdFrozen = frozen
		s.fwdStore = nil
	}

	return s.fwdFrozen.Get(docID)
}

// Blobs bundles a sealed segment's on-disk component payloads, one per file
// in the terms.bin/postings.bin/forward.bin/series.bin layout. The Index is
// responsible for naming and storing each field under its own blob key;
// Sealed only knows how to produce and consume the bytes.
type Blobs struct {
	Terms    []byte
	Postings []byte
	Forward  []byte
	Series   []byte
}

// Serialize produces the segment's on-disk component blobs plus a manifest
// carrying their checksums, matching the
// terms.bin/postings.bin/forward.bin/series.bin/meta.json layout.
func (s *Sealed) Serialize() (Manifest, Blobs, error) {
	termsBin, postingsBin := s.inverted.Serialize()

	if s.fwdFrozen == nil {
		codec, err := compress.GetCodec(format.CompressionZstd)
		if err != nil {
			return Manifest{}, Blobs{}, err
		}

		frozen, err := forward.Freeze(s.fwdStore, codec, forward.DefaultDocsPerBlock)
		if err != nil {
			return Manifest{}, Blobs{}, err
		}

		s.fwdFrozen = frozen
		s.fwdStore = nil
	}

	forwardBin := s.fwdFrozen.Serialize()
	seriesBin := s.seriesD.Serialize()

	m := Manifest{
		ID:                  s.id,
		MinTS:               s.minTS,
		MaxTS:               s.maxTS,
		DocCount:            s.docCount,
		TermsChecksum:       hash.Checksum(termsBin),
		PostingsChecksum:    hash.Checksum(postingsBin),
		ForwardChecksum:     hash.Checksum(forwardBin),
		SeriesChecksum:      hash.Checksum(seriesBin),
		ForwardCompression:  format.CompressionZstd.String(),
		ForwardDocsPerBlock: forward.DefaultDocsPerBlock,
	}

	return m, Blobs{Terms: termsBin, Postings: postingsBin, Forward: forwardBin, Series: seriesBin}, nil
}

// Load reconstructs a Sealed segment from a manifest and the component blobs
// produced by Serialize, verifying every component's checksum before
// exposing it for queries.
func Load(m Manifest, b Blobs) (*Sealed, error) {
	if hash.Checksum(b.Terms) != m.TermsChecksum {
		return nil, errs.New(errs.ErrChecksumMismatch, errs.StoragePermanent, "segment: terms checksum mismatch")
	}
	if hash.Checksum(b.Postings) != m.PostingsChecksum {
		return nil, errs.New(errs.ErrChecksumMismatch, errs.StoragePermanent, "segment: postings checksum mismatch")
	}
	if hash.Checksum(b.Forward) != m.ForwardChecksum {
		return nil, errs.New(errs.ErrChecksumMismatch, errs.StoragePermanent, "segment: forward checksum mismatch")
	}
	if hash.Checksum(b.Series) != m.SeriesChecksum {
		return nil, errs.New(errs.ErrChecksumMismatch, errs.StoragePermanent, "segment: series checksum mismatch")
	}

	inverted, err := invindex.LoadFrozen(b.Terms, b.Postings)
	if err != nil {
		return nil, err
	}

	codec, err := compress.GetCodec(format.CompressionZstd)
	if err != nil {
		return nil, err
	}

	fwdFrozen, err := forward.LoadFrozen(b.Forward, codec)
	if err != nil {
		return nil, err
	}

	seriesD, err := series.LoadFrozen(b.Series)
	if err != nil {
		return nil, err
	}

	return &Sealed{
		id:        m.ID,
		minTS:     m.MinTS,
		maxTS:     m.MaxTS,
		docCount:  m.DocCount,
		inverted:  inverted,
		fwdFrozen: fwdFrozen,
		seriesD:   seriesD,
		persisted: true,
	}, nil
}
