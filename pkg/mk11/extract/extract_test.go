package extract

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mk11nrs/mk11asset/pkg/mk11/wire"
	"github.com/mk11nrs/mk11asset/pkg/oodle"
	"github.com/mk11nrs/mk11asset/pkg/oodle/fixture"
)

func putU32(buf []byte, v uint32) []byte {
	return append(buf, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
}

func putI32(buf []byte, v int32) []byte { return putU32(buf, uint32(v)) }

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

// buildArchiveFile assembles a raw archive whose materialized midway
// image is itself a valid, fully-resolvable asset: one name ("Widget"),
// one export with object_class None, zero imports. The archive's
// primary-package sub-package carries exactly the name/export/import
// table bytes, compressed through the zstd fixture codec, so that
// Materialize's header-region-then-splice construction (pkg/mk11/archive)
// hands pkg/mk11/midway.Parse something it can walk end to end.
func buildArchiveFile(t *testing.T, dir, fileName string, codec *fixture.Codec) string {
	t.Helper()

	var nameTable []byte
	nameTable = putASCII(nameTable, "Widget")

	var exportTable []byte
	exportTable = putI32(exportTable, 0)                      // object_class = None
	exportTable = putI32(exportTable, 0)                      // object_outer_class
	exportTable = putI32(exportTable, 0)                      // object_name -> "Widget"
	exportTable = putU32(exportTable, 0)                      // object_name_suffix
	exportTable = putI32(exportTable, 0)                      // object_super
	exportTable = putU64(exportTable, 0)                      // object_flags
	exportTable = append(exportTable, make([]byte, 16)...)    // guid
	exportTable = putU32(exportTable, 0)                      // object_main_package
	exportTable = putU32(exportTable, 0)                      // unk_1
	exportTable = putU32(exportTable, 0)                      // object_size
	exportTable = putU64(exportTable, 0)                      // object_offset
	exportTable = putU64(exportTable, 0)                      // unk_2
	exportTable = putU32(exportTable, 0)                      // unk_3

	payload := append(append([]byte{}, nameTable...), exportTable...)

	compressed, err := codec.Compress(payload)
	if err != nil {
		t.Fatalf("compress: %v", err)
	}

	var block []byte
	block = putU32(block, 0xB10C0001)
	block = putU32(block, 0)
	block = putU64(block, uint64(len(compressed)))
	block = putU64(block, uint64(len(compressed)))
	block = putU64(block, uint64(len(payload)))
	block = putU64(block, uint64(len(compressed)))
	block = putU64(block, uint64(len(payload)))
	block = append(block, compressed...)

	metaSize := uint64(wire.SummarySize) + 0x18 + 4 + uint64(len(fileName)) + 1 + 4 + 4
	nameTableOffset := metaSize
	exportTableOffset := nameTableOffset + uint64(len(nameTable))
	importTableOffset := exportTableOffset + uint64(len(exportTable))

	compressedOffset := uint64(0x1000)

	var body []byte
	body = putU32(body, 1) // primary package count
	body = putASCII(body, "pkg0")
	body = putU64(body, metaSize)
	body = putU64(body, uint64(len(payload)))
	body = putU64(body, compressedOffset)
	body = putU64(body, uint64(len(block)))
	body = putU32(body, 1) // entries_count
	body = putU64(body, metaSize)
	body = putU64(body, uint64(len(payload)))
	body = putU64(body, compressedOffset)
	body = putU64(body, uint64(len(block)))
	body = putU32(body, 0) // extra package count
	body = append(body, make([]byte, 0x18)...)
	body = putASCII(body, fileName)
	body = putU32(body, 0) // psf group count
	body = putU32(body, 0) // bulk group count

	summary := wire.FileSummary{
		Magic:           wire.Magic,
		MidwayFourCC:    wire.MidwayFourCC,
		MainPackage:     wire.MainPackage,
		CompressionFlag: oodle.FlagOodle,
		NameTable:       wire.TableMeta{Entries: 1, Offset: nameTableOffset},
		ExportTable:     wire.TableMeta{Entries: 1, Offset: exportTableOffset},
		ImportTable:     wire.TableMeta{Entries: 0, Offset: importTableOffset},
	}
	header := summary.MarshalBinary()

	archiveBuf := append(header, body...)
	if uint64(len(archiveBuf)) > compressedOffset {
		t.Fatalf("header+body (%d) exceeds compressedOffset %d", len(archiveBuf), compressedOffset)
	}
	archiveBuf = append(archiveBuf, make([]byte, compressedOffset-uint64(len(archiveBuf)))...)
	archiveBuf = append(archiveBuf, block...)

	path := filepath.Join(dir, fileName+".archive")
	if err := os.WriteFile(path, archiveBuf, 0o666); err != nil {
		t.Fatalf("write archive: %v", err)
	}
	return path
}

func TestExtractAllSingleArchive(t *testing.T) {
	srcDir := t.TempDir()
	outDir := filepath.Join(t.TempDir(), "out")

	codec := fixture.New()
	archivePath := buildArchiveFile(t, srcDir, "Widget", codec)

	results, err := ExtractAll(codec, []Request{{Path: archivePath}}, outDir, false, false)
	if err != nil {
		t.Fatalf("ExtractAll: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	res := results[0]
	if res.Err != nil {
		t.Fatalf("extract failed: %v", res.Err)
	}

	upkPath := filepath.Join(outDir, "Widget", "Widget.upk")
	if _, err := os.Stat(upkPath); err != nil {
		t.Fatalf("expected dumped upk at %s: %v", upkPath, err)
	}
	namesPath := filepath.Join(outDir, "Widget", "names.txt")
	if _, err := os.Stat(namesPath); err != nil {
		t.Fatalf("expected names.txt: %v", err)
	}
}

func TestExtractAllRefusesNonEmptyOutputDirWithoutOverwrite(t *testing.T) {
	srcDir := t.TempDir()
	outDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(outDir, "stray.txt"), []byte("x"), 0o666); err != nil {
		t.Fatal(err)
	}

	codec := fixture.New()
	archivePath := buildArchiveFile(t, srcDir, "Widget", codec)

	_, err := ExtractAll(codec, []Request{{Path: archivePath}}, outDir, false, false)
	if err == nil {
		t.Fatal("expected error for non-empty output dir without overwrite")
	}
}
