package archive

import (
	"testing"

	"github.com/mk11nrs/mk11asset/pkg/mk11/wire"
	"github.com/mk11nrs/mk11asset/pkg/oodle"
	"github.com/mk11nrs/mk11asset/pkg/oodle/fixture"
)

func putU32(buf []byte, v uint32) []byte {
	return append(buf, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
}

func putU64(buf []byte, v uint64) []byte {
	for i := 0; i < 8; i++ {
		buf = append(buf, byte(v>>(8*i)))
	}
	return buf
}

func putASCII(buf []byte, s string) []byte {
	buf = putU32(buf, uint32(len(s)))
	return append(buf, s...)
}

// buildArchive assembles a minimal raw archive: summary, one primary
// package with one sub-package pointing at one compressed block (via
// the zstd fixture codec), an empty extra package list, empty PSF/bulk
// groups, and the 0x18/file-name bookkeeping spec.md §4.4 describes.
func buildArchive(t *testing.T, codec *fixture.Codec) []byte {
	t.Helper()

	payload := []byte("the quick brown fox jumps over the lazy dog, twice over")
	compressed, err := codec.Compress(payload)
	if err != nil {
		t.Fatalf("compress: %v", err)
	}

	var block []byte
	block = putU32(block, 0xB10C0001) // block magic, not validated against a fixed constant
	block = putU32(block, 0)          // padding
	block = putU64(block, uint64(len(compressed)))
	block = putU64(block, uint64(len(compressed)))
	block = putU64(block, uint64(len(payload)))
	// one chunk header
	block = putU64(block, uint64(len(compressed)))
	block = putU64(block, uint64(len(payload)))
	block = append(block, compressed...)

	compressedOffset := uint64(0x1000)

	// The materialized midway image writes its header region (summary +
	// 0x18 reserved + file name + PSF group + bulk group) before
	// splicing any sub-package, so the sub-package's decompressed_offset
	// must land exactly at that header's length for a clean append
	// rather than an overlap.
	metaSize := uint64(wire.SummarySize) + 0x18 + 4 + uint64(len("TestArchive")) + 1 + 4 + 4

	var body []byte
	// primary package list: count=1
	body = putU32(body, 1)
	body = putASCII(body, "pkg0")
	body = putU64(body, metaSize) // decompressed_offset (package-level, unused by Materialize)
	body = putU64(body, uint64(len(payload)))
	body = putU64(body, compressedOffset)
	body = putU64(body, uint64(len(block)))
	body = putU32(body, 1) // entries_count
	// one sub-package
	body = putU64(body, metaSize) // decompressed_offset: right after the header region
	body = putU64(body, uint64(len(payload)))
	body = putU64(body, compressedOffset)
	body = putU64(body, uint64(len(block)))

	// extra package list: count=0
	body = putU32(body, 0)
	// reserved
	body = append(body, make([]byte, 0x18)...)
	// file name
	body = putASCII(body, "TestArchive")
	// psf group: count=0
	body = putU32(body, 0)
	// bulk group: count=0
	body = putU32(body, 0)

	summary := wire.FileSummary{
		Magic:           wire.Magic,
		MidwayFourCC:    wire.MidwayFourCC,
		MainPackage:     wire.MainPackage,
		CompressionFlag: oodle.FlagOodle,
	}
	header := summary.MarshalBinary()

	archiveBuf := append(header, body...)

	// Pad out to compressedOffset, then append the block.
	if uint64(len(archiveBuf)) > compressedOffset {
		t.Fatalf("header+body (%d) already exceeds compressedOffset %d; widen the fixture", len(archiveBuf), compressedOffset)
	}
	archiveBuf = append(archiveBuf, make([]byte, compressedOffset-uint64(len(archiveBuf)))...)
	archiveBuf = append(archiveBuf, block...)

	return archiveBuf
}

func TestParseAndMaterializeSingleChunkBlock(t *testing.T) {
	codec := fixture.New()
	buf := buildArchive(t, codec)

	a := OpenBytes(buf)
	warnings, err := a.Parse()
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
	if a.FileName != "TestArchive" {
		t.Fatalf("FileName = %q", a.FileName)
	}
	if len(a.PrimaryPackages) != 1 || len(a.PrimaryPackages[0].Entries) != 1 {
		t.Fatalf("PrimaryPackages = %+v", a.PrimaryPackages)
	}

	img, _, err := a.Materialize(codec)
	if err != nil {
		t.Fatalf("Materialize: %v", err)
	}
	if len(img.Buffer) == 0 {
		t.Fatal("expected non-empty midway buffer")
	}

	want := "the quick brown fox jumps over the lazy dog, twice over"
	headerLen := int(wire.SummarySize) + 0x18 + 4 + len("TestArchive") + 1 + 4 + 4
	if headerLen+len(want) > len(img.Buffer) {
		t.Fatalf("materialized buffer too short: %d", len(img.Buffer))
	}
	got := string(img.Buffer[headerLen : headerLen+len(want)])
	if got != want {
		t.Fatalf("spliced payload = %q, want %q", got, want)
	}
}
