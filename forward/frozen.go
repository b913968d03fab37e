package forward

import (
	"encoding/binary"

	"github.com/eaglenest7/infino/compress"
	"github.com/eaglenest7/infino/document"
	"github.com/eaglenest7/infino/errs"
)

// DefaultDocsPerBlock is the number of documents grouped into one
// zstd-compressed block in the sealed forward store.
const DefaultDocsPerBlock = 256

// Frozen is the immutable, post-seal forward store: documents are grouped
// into fixed-size blocks, each independently zstd-compressed, with doc-id
// resolved to (block, intra-block index) by simple division since doc-ids
// are dense from zero.
type Frozen struct {
	codec        compress.Codec
	blocks       [][]byte // compressed
	docsPerBlock int
	count        int
}

// Freeze compacts store into compressed blocks using codec.
func Freeze(store *Store, codec compress.Codec, docsPerBlock int) (*Frozen, error) {
	if docsPerBlock <= 0 {
		docsPerBlock = DefaultDocsPerBlock
	}

	f := &Frozen{codec: codec, docsPerBlock: docsPerBlock, count: store.Len()}

	docs := store.All()
	for start := 0; start < len(docs); start += docsPerBlock {
		end := min(start+docsPerBlock, len(docs))

		raw, err := marshalBlock(docs[start:end])
		if err != nil {
			return nil, err
		}

		compressed, err := codec.Compress(raw)
		if err != nil {
			return nil, err
		}

		f.blocks = append(f.blocks, compressed)
	}

	return f, nil
}

func marshalBlock(docs []document.Document) ([]byte, error) {
	var out []byte
	for _, doc := range docs {
		b, err := marshalDoc(doc)
		if err != nil {
			return nil, err
		}

		out = binary.AppendUvarint(out, uint64(len(b)))
		out = append(out, b...)
	}

	return out, nil
}

func unmarshalBlock(raw []byte) ([]document.Document, error) {
	var docs []document.Document

	offset := 0
	for offset < len(raw) {
		n, consumed := binary.Uvarint(raw[offset:])
		if consumed <= 0 {
			return nil, errs.New(errs.ErrInvalidHeaderSize, errs.ParseError, "forward: truncated block")
		}
		offset += consumed

		if offset+int(n) > len(raw) {
			return nil, errs.New(errs.ErrInvalidHeaderSize, errs.ParseError, "forward: truncated document")
		}

		doc, err := unmarshalDoc(raw[offset : offset+int(n)])
		if err != nil {
			return nil, err
		}
		offset += int(n)

		docs = append(docs, doc)
	}

	return docs, nil
}

// Get returns the document with the given doc-id, decompressing its block
// on demand.
func (f *Frozen) Get(docID uint64) (document.Document, bool, error) {
	if docID >= uint64(f.count) {
		return document.Document{}, false, nil
	}

	blockIdx := int(docID) / f.docsPerBlock
	intraIdx := int(docID) % f.docsPerBlock

	raw, err := f.codec.Decompress(f.blocks[blockIdx])
	if err != nil {
		return document.Document{}, false, err
	}

	docs, err := unmarshalBlock(raw)
	if err != nil {
		return document.Document{}, false, err
	}

	if intraIdx >= len(docs) {
		return document.Document{}, false, nil
	}

	return docs[intraIdx], true, nil
}

// Len returns the total number of documents stored.
func (f *Frozen) Len() int { return f.count }

// Serialize produces the forward.bin byte stream: a small header followed
// by each compressed block length-prefixed.
func (f *Frozen) Serialize() []byte {
	var out []byte
	out = binary.AppendUvarint(out, uint64(f.docsPerBlock))
	out = binary.AppendUvarint(out, uint64(f.count))
	out = binary.AppendUvarint(out, uint64(len(f.blocks)))

	for _, b := range f.blocks {
		out = binary.AppendUvarint(out, uint64(len(b)))
		out = append(out, b...)
	}

	return out
}

// LoadFrozen reconstructs a Frozen forward store from a forward.bin byte
// stream, deferring block decompression until Get is called.
func LoadFrozen(data []byte, codec compress.Codec) (*Frozen, error) {
	f := &Frozen{codec: codec}

	offset := 0
	read := func() (uint64, error) {
		v, n := binary.Uvarint(data[offset:])
		if n <= 0 {
			return 0, errs.New(errs.ErrInvalidHeaderSize, errs.ParseError, "forward: truncated header")
		}
		offset += n

		return v, nil
	}

	docsPerBlock, err := read()
	if err != nil {
		return nil, err
	}
	f.docsPerBlock = int(docsPerBlock)

	count, err := read()
	if err != nil {
		return nil, err
	}
	f.count = int(count)

	numBlocks, err := read()
	if err != nil {
		return nil, err
	}

	for range numBlocks {
		blockLen, err := read()
		if err != nil {
			return nil, err
		}

		if offset+int(blockLen) > len(data) {
			return nil, errs.New(errs.ErrInvalidHeaderSize, errs.ParseError, "forward: truncated block body")
		}

		f.blocks = append(f.blocks, data[offset:offset+int(blockLen)])
		offset += int(blockLen)
	}

	return f, nil
}
