package archive

import (
	"fmt"

	"github.com/mk11nrs/mk11asset/pkg/bcursor"
	"github.com/mk11nrs/mk11asset/pkg/mk11/extable"
	"github.com/mk11nrs/mk11asset/pkg/mk11/wire"
	"github.com/mk11nrs/mk11asset/pkg/mkerr"
	"github.com/mk11nrs/mk11asset/pkg/oodle"
)

// MidwayImage is the reassembled, contiguous uncompressed image
// Materialize produces: an independent buffer whose lifetime does not
// depend on the source archive (spec.md §3 Lifecycles).
type MidwayImage struct {
	Buffer []byte
}

// Materialize builds the midway image per spec.md §4.4: it writes the
// re-serialized header region, then splices each sub-package entry's
// decompressed block at its decompressed_offset.
func (a *Archive) Materialize(compressor oodle.Decompressor) (*MidwayImage, []Warning, error) {
	var warnings []Warning
	buf := newGrowBuf()

	headerSummary := a.Summary
	headerSummary.CompressionFlag = 0
	buf.Append(headerSummary.MarshalBinary())
	buf.Append(make([]byte, 0x18))

	fileNameSection := make([]byte, 0, 4+len(a.FileName)+1)
	fileNameSection = appendU32(fileNameSection, uint32(len(a.FileName)+1))
	fileNameSection = append(fileNameSection, a.FileName...)
	fileNameSection = append(fileNameSection, 0)
	buf.Append(fileNameSection)

	buf.Append(serializeTableGroup(a.PSFTables))
	buf.Append(serializeTableGroup(a.BulkTables))

	useOodle, err := oodle.SelectCodec(a.Summary.CompressionFlag)
	if err != nil {
		return nil, nil, fmt.Errorf("archive: materialize: %w", err)
	}
	if !useOodle {
		return nil, nil, fmt.Errorf("archive: materialize: raw archive has compression_flag 0: %w", mkerr.ErrUnsupportedCompression)
	}

	for _, pkg := range a.PrimaryPackages {
		for i, sub := range pkg.Entries {
			if err := a.cursor.Seek(int64(sub.CompressedOffset)); err != nil {
				return nil, nil, fmt.Errorf("archive: package %q sub-package %d: seek: %w", pkg.Name, i, err)
			}
			decompressed, err := readBlock(a.cursor, compressor)
			if err != nil {
				return nil, nil, fmt.Errorf("archive: package %q sub-package %d: %w", pkg.Name, i, err)
			}
			if uint64(len(decompressed)) != sub.DecompressedSize {
				return nil, nil, fmt.Errorf("archive: package %q sub-package %d: block produced %d bytes, sub-package declares %d: %w",
					pkg.Name, i, len(decompressed), sub.DecompressedSize, mkerr.ErrCorruptBlock)
			}
			warn, ok, err := buf.Splice(int(sub.DecompressedOffset), decompressed)
			if err != nil {
				return nil, nil, fmt.Errorf("archive: package %q sub-package %d: %w", pkg.Name, i, err)
			}
			if ok {
				warnings = append(warnings, Warning{Message: fmt.Sprintf("package %q sub-package %d: %s", pkg.Name, i, warn.Message)})
			}
		}
	}

	return &MidwayImage{Buffer: buf.Bytes()}, warnings, nil
}

func appendU32(buf []byte, v uint32) []byte {
	return append(buf, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
}

func appendU64(buf []byte, v uint64) []byte {
	for i := 0; i < 8; i++ {
		buf = append(buf, byte(v>>(8*i)))
	}
	return buf
}

// serializeTableGroup re-serializes a decoded table group back into the
// wire layout Materialize writes into the midway header region: a u32
// count, then each table's reference_key, name, entries, and trailing
// compression_flag (spec.md §4.4, §3).
func serializeTableGroup(tables []extable.Table) []byte {
	buf := appendU32(nil, uint32(len(tables)))
	for _, t := range tables {
		buf = appendU64(buf, t.ReferenceKey)
		buf = appendU32(buf, uint32(len(t.Name)))
		buf = append(buf, t.Name...)
		buf = appendU32(buf, uint32(len(t.Entries)))
		for _, e := range t.Entries {
			buf = appendU64(buf, e.DecompressedSize)
			buf = appendU64(buf, e.CompressedSize)
			buf = appendU64(buf, e.DecompressedOffset)
			buf = appendU64(buf, e.CompressedOffset)
		}
		buf = appendU32(buf, t.CompressionFlag)
	}
	return buf
}

// readBlock decodes one Block Header and its Chunk Header sequence at
// the cursor's current position, decompressing each chunk in order and
// concatenating the outputs, per spec.md §4.4's block decompression
// rule.
func readBlock(c *bcursor.Cursor, compressor oodle.Decompressor) ([]byte, error) {
	header, err := wire.ReadBlockHeader(c)
	if err != nil {
		return nil, fmt.Errorf("read block header: %w", err)
	}

	var chunks []wire.ChunkHeader
	var consumed uint64
	for consumed < header.CompressedSize {
		ch, err := wire.ReadChunkHeader(c)
		if err != nil {
			return nil, fmt.Errorf("read chunk header: %w", err)
		}
		chunks = append(chunks, ch)
		consumed += ch.CompressedSize
	}
	if consumed != header.CompressedSize {
		return nil, fmt.Errorf("chunk headers sum to %d, block declares compressed_size %d: %w", consumed, header.CompressedSize, mkerr.ErrCorruptBlock)
	}

	out := make([]byte, 0, header.DecompressedSize)
	for i, ch := range chunks {
		raw, err := c.Bytes(int(ch.CompressedSize))
		if err != nil {
			return nil, fmt.Errorf("chunk %d: read compressed payload: %w", i, err)
		}
		decompressed, err := compressor.Decompress(raw, int(ch.DecompressedSize))
		if err != nil {
			return nil, fmt.Errorf("chunk %d: decompress: %w", i, err)
		}
		if uint64(len(decompressed)) != ch.DecompressedSize {
			return nil, fmt.Errorf("chunk %d: decompressor returned %d bytes, expected %d: %w", i, len(decompressed), ch.DecompressedSize, mkerr.ErrCorruptBlock)
		}
		out = append(out, decompressed...)
	}

	if uint64(len(out)) != header.DecompressedSize {
		return nil, fmt.Errorf("block produced %d bytes, header declares decompressed_size %d: %w", len(out), header.DecompressedSize, mkerr.ErrCorruptBlock)
	}
	return out, nil
}
