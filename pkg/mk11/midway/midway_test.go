package midway

import (
	"testing"

	"github.com/mk11nrs/mk11asset/pkg/mk11/wire"
)

func putU32(buf []byte, v uint32) []byte {
	return append(buf, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
}

func putU16(buf []byte, v uint16) []byte {
	return append(buf, byte(v), byte(v>>8))
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

// buildMinimalImage constructs a midway image with: summary, 0x18 zero
// bytes, file name "TestAsset", empty PSF group, empty bulk group, one
// name ("Widget", the name-table entry used by the export), zero imports, and
// one export whose object_class is 0 (None), so its file_name should
// equal its own name with no suffix or class (spec.md §8 S4).
func buildMinimalImage() []byte {
	var body []byte

	// reserved
	body = append(body, make([]byte, 0x18)...)
	// file name
	body = putASCII(body, "TestAsset")
	// psf group: count=0
	body = putU32(body, 0)
	// bulk group: count=0
	body = putU32(body, 0)

	nameTableOffset := uint64(len(body))
	// name table: one entry "Widget"
	body = putASCII(body, "Widget")

	exportTableOffset := uint64(len(body))
	// one export entry
	body = putI32(body, 0)  // object_class = None
	body = putI32(body, 0)  // object_outer_class
	body = putI32(body, 0)  // object_name -> "Widget"
	body = putU32(body, 0)  // object_name_suffix
	body = putI32(body, 0)  // object_super
	body = putU64(body, 0)  // object_flags
	body = append(body, make([]byte, 16)...) // guid
	body = putU32(body, 0)  // object_main_package -> name[0] = "Widget"
	body = putU32(body, 0)  // unk_1
	body = putU32(body, 0)  // object_size
	body = putU64(body, 0)  // object_offset
	body = putU64(body, 0)  // unk_2
	body = putU32(body, 0)  // unk_3

	importTableOffset := uint64(len(body))

	summary := wire.FileSummary{
		Magic:        wire.Magic,
		MidwayFourCC: wire.MidwayFourCC,
		MainPackage:  wire.MainPackage,
		NameTable:    wire.TableMeta{Entries: 1, Offset: uint64(wire.SummarySize) + nameTableOffset},
		ExportTable:  wire.TableMeta{Entries: 1, Offset: uint64(wire.SummarySize) + exportTableOffset},
		ImportTable:  wire.TableMeta{Entries: 0, Offset: uint64(wire.SummarySize) + importTableOffset},
	}
	header := summary.MarshalBinary()

	return append(header, body...)
}

func putI32(buf []byte, v int32) []byte { return putU32(buf, uint32(v)) }

func TestParseMinimalImage(t *testing.T) {
	buf := buildMinimalImage()
	a, warnings, reports, err := Parse(buf, 0)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
	if a.FileName != "TestAsset" {
		t.Fatalf("FileName = %q", a.FileName)
	}
	if len(a.Resolver.Exports) != 1 {
		t.Fatalf("expected 1 export, got %d", len(a.Resolver.Exports))
	}

	paths, err := a.Resolver.ResolveExportPaths(0)
	if err != nil {
		t.Fatal(err)
	}
	if paths.FileName != "Widget" {
		t.Fatalf("FileName = %q, want %q (no suffix/class since object_class is None)", paths.FileName, "Widget")
	}

	// A zero-size export at offset 0 with exports_location 0 and
	// bulk_data_offset 0 (-> end == buffer length) trivially covers
	// nothing, so expect an ends_early report rather than a crash.
	if len(reports) != 1 || reports[0].Kind != "ends_early" {
		t.Fatalf("reports = %+v, want exactly one ends_early", reports)
	}
}

// TestSweepOverExtentContinues locks in that an over_extent entry is
// skipped entirely rather than folded into prevEnd: without the
// continue, the well-formed entry after it would wrongly report
// "overlap" instead of "gap", and the final ends_early report would be
// suppressed because prevEnd had been corrupted by the out-of-range
// entry's offset+size.
func TestSweepOverExtentContinues(t *testing.T) {
	extents := []extent{
		{offset: 0, size: 200, label: "bad"},  // offset+size 200 > end 100: over_extent
		{offset: 50, size: 10, label: "good"}, // well-formed, but starts after a gap since "bad" must not advance prevEnd
	}

	reports := sweep(extents, 0, 100, "ends_early")

	var overExtent, gap, overlap, endsEarly int
	for _, r := range reports {
		switch r.Kind {
		case "over_extent":
			overExtent++
		case "gap":
			gap++
		case "overlap":
			overlap++
		case "ends_early":
			endsEarly++
		}
	}
	if overExtent != 1 {
		t.Fatalf("over_extent reports = %d, want 1 (reports: %+v)", overExtent, reports)
	}
	if overlap != 0 {
		t.Fatalf("overlap reports = %d, want 0 (reports: %+v)", overlap, reports)
	}
	if gap != 1 {
		t.Fatalf("gap reports = %d, want 1 (reports: %+v)", gap, reports)
	}
	if endsEarly != 1 {
		t.Fatalf("ends_early reports = %d, want 1 (reports: %+v)", endsEarly, reports)
	}
}
