package segment

// Manifest is a Sealed segment's meta.json: the component layout and
// checksums needed to verify and load terms.bin, postings.bin, forward.bin,
// and series.bin independently.
type Manifest struct {
	ID       string `json:"id"`
	MinTS    int64  `json:"min_ts"`
	MaxTS    int64  `json:"max_ts"`
	DocCount int    `json:"doc_count"`

	TermsChecksum    uint64 `json:"terms_checksum"`
	PostingsChecksum uint64 `json:"postings_checksum"`
	ForwardChecksum  uint64 `json:"forward_checksum"`
	SeriesChecksum   uint64 `json:"series_checksum"`

	ForwardCompression  string `json:"forward_compression"`
	ForwardDocsPerBlock int    `json:"forward_docs_per_block"`
}
