// Package wire decodes the fixed binary record layouts of the MK11 UE3
// asset shell: the file summary, GUID, table metadata, export/import
// entries, block and chunk headers, and external-table rows. Records are
// byte-packed little-endian with no alignment padding (spec.md §3/§4.2),
// the same discipline the teacher applies in pkg/manifest/manifest.go's
// UnmarshalBinary/MarshalBinary pair, built here on top of pkg/bcursor
// instead of encoding/binary directly so every read goes through the
// same bounds-checked primitive reader the rest of the module uses.
package wire

import (
	"fmt"

	"github.com/mk11nrs/mk11asset/pkg/bcursor"
	"github.com/mk11nrs/mk11asset/pkg/mkerr"
)

// Magic is the expected FileSummary.Magic value (spec.md §3).
const Magic uint32 = 0x9E2A83C1

// MidwayFourCC and MainPackage are the expected fixed ASCII tags on both
// the raw archive and the reconstructed midway image.
const (
	MidwayFourCC = "MK11"
	MainPackage  = "MAIN"
)

// GUID is the 16-byte {u32, u16, u16, 8xu8} identifier used for object
// GUIDs and FGuid struct properties. The all-zero case's meaning is
// unspecified upstream (spec.md §9 Open Questions) and is passed through
// unexamined here.
type GUID struct {
	Data1 uint32
	Data2 uint16
	Data3 uint16
	Data4 [8]byte
}

// ReadGUID decodes a GUID at the cursor's current position.
func ReadGUID(c *bcursor.Cursor) (GUID, error) {
	var g GUID
	var err error
	if g.Data1, err = c.U32(); err != nil {
		return g, err
	}
	if g.Data2, err = c.U16(); err != nil {
		return g, err
	}
	if g.Data3, err = c.U16(); err != nil {
		return g, err
	}
	b, err := c.Bytes(8)
	if err != nil {
		return g, err
	}
	copy(g.Data4[:], b)
	return g, nil
}

// String renders the canonical XXXXXXXX-XXXX-XXXX-XXXX-XXXXXXXXXXXX form.
func (g GUID) String() string {
	return fmt.Sprintf("%08X-%04X-%04X-%02X%02X-%02X%02X%02X%02X%02X%02X",
		g.Data1, g.Data2, g.Data3,
		g.Data4[0], g.Data4[1], g.Data4[2], g.Data4[3],
		g.Data4[4], g.Data4[5], g.Data4[6], g.Data4[7])
}

// TableMeta describes one table's entry count and its absolute offset
// within the image.
type TableMeta struct {
	Entries uint32
	Offset  uint64
}

func readTableMeta(c *bcursor.Cursor) (TableMeta, error) {
	var t TableMeta
	var err error
	if t.Entries, err = c.U32(); err != nil {
		return t, err
	}
	if t.Offset, err = c.U64(); err != nil {
		return t, err
	}
	return t, nil
}

// FileSummary is the fixed record at offset 0 of both the raw archive
// and the reconstructed midway image (spec.md §3).
type FileSummary struct {
	Magic                 uint32
	FileVersion           uint16
	LicenseeVersion       uint16
	ExportsLocation       uint32
	ShaderVersion         uint32
	EngineVersion         uint32
	MidwayFourCC          string // 4 bytes
	MidwayEngineVersion   uint32
	CookVersion           uint32
	MainPackage           string // 4 bytes
	PackageFlags          uint32
	NameTable             TableMeta
	ExportTable           TableMeta
	ImportTable           TableMeta
	BulkDataOffset        uint64
	GUID                  GUID
	CompressionFlag       uint32
}

// ReadFileSummary decodes a FileSummary at the cursor's current
// position.
func ReadFileSummary(c *bcursor.Cursor) (FileSummary, error) {
	var s FileSummary
	var err error

	if s.Magic, err = c.U32(); err != nil {
		return s, err
	}
	if s.FileVersion, err = c.U16(); err != nil {
		return s, err
	}
	if s.LicenseeVersion, err = c.U16(); err != nil {
		return s, err
	}
	if s.ExportsLocation, err = c.U32(); err != nil {
		return s, err
	}
	if s.ShaderVersion, err = c.U32(); err != nil {
		return s, err
	}
	if s.EngineVersion, err = c.U32(); err != nil {
		return s, err
	}
	if s.MidwayFourCC, err = c.ASCII(4); err != nil {
		return s, err
	}
	if s.MidwayEngineVersion, err = c.U32(); err != nil {
		return s, err
	}
	if s.CookVersion, err = c.U32(); err != nil {
		return s, err
	}
	if s.MainPackage, err = c.ASCII(4); err != nil {
		return s, err
	}
	if s.PackageFlags, err = c.U32(); err != nil {
		return s, err
	}
	if s.NameTable, err = readTableMeta(c); err != nil {
		return s, err
	}
	if s.ExportTable, err = readTableMeta(c); err != nil {
		return s, err
	}
	if s.ImportTable, err = readTableMeta(c); err != nil {
		return s, err
	}
	if s.BulkDataOffset, err = c.U64(); err != nil {
		return s, err
	}
	if s.GUID, err = ReadGUID(c); err != nil {
		return s, err
	}
	if s.CompressionFlag, err = c.U32(); err != nil {
		return s, err
	}
	return s, nil
}

// SummarySize is the fixed, packed byte length of a FileSummary record.
const SummarySize = 4 + 2 + 2 + 4 + 4 + 4 + 4 + 4 + 4 + 4 + 4 +
	(4 + 8) + (4 + 8) + (4 + 8) + // three TableMeta
	8 + 16 + 4

// MarshalBinary re-serializes the summary. Used by the archive
// deserializer's materialization step, which rewrites CompressionFlag to
// 0 before writing the header into the midway buffer (spec.md §4.4);
// every other summary field, the GUID included, is written unchanged.
func (s FileSummary) MarshalBinary() []byte {
	buf := make([]byte, 0, SummarySize)
	putU32 := func(v uint32) { buf = append(buf, byte(v), byte(v>>8), byte(v>>16), byte(v>>24)) }
	putU16 := func(v uint16) { buf = append(buf, byte(v), byte(v>>8)) }
	putU64 := func(v uint64) {
		for i := 0; i < 8; i++ {
			buf = append(buf, byte(v>>(8*i)))
		}
	}
	putASCII4 := func(s string) {
		b := make([]byte, 4)
		copy(b, s)
		buf = append(buf, b...)
	}

	putU32(s.Magic)
	putU16(s.FileVersion)
	putU16(s.LicenseeVersion)
	putU32(s.ExportsLocation)
	putU32(s.ShaderVersion)
	putU32(s.EngineVersion)
	putASCII4(s.MidwayFourCC)
	putU32(s.MidwayEngineVersion)
	putU32(s.CookVersion)
	putASCII4(s.MainPackage)
	putU32(s.PackageFlags)
	putU32(s.NameTable.Entries)
	putU64(s.NameTable.Offset)
	putU32(s.ExportTable.Entries)
	putU64(s.ExportTable.Offset)
	putU32(s.ImportTable.Entries)
	putU64(s.ImportTable.Offset)
	putU64(s.BulkDataOffset)
	putU32(s.GUID.Data1)
	putU16(s.GUID.Data2)
	putU16(s.GUID.Data3)
	buf = append(buf, s.GUID.Data4[:]...)
	putU32(s.CompressionFlag)

	return buf
}

// Validate checks the raw-archive header invariants of spec.md §3/§4.6
// step 1, shared between the archive deserializer (raw form) and the
// midway parser (reconstructed form, which additionally requires
// CompressionFlag == 0).
func (s FileSummary) Validate() error {
	if s.Magic != Magic {
		return fmt.Errorf("wire: magic 0x%x != 0x%x: %w", s.Magic, Magic, mkerr.ErrInvalidHeader)
	}
	if s.MidwayFourCC != MidwayFourCC {
		return fmt.Errorf("wire: midway four-cc %q != %q: %w", s.MidwayFourCC, MidwayFourCC, mkerr.ErrInvalidHeader)
	}
	if s.MainPackage != MainPackage {
		return fmt.Errorf("wire: main package %q != %q: %w", s.MainPackage, MainPackage, mkerr.ErrInvalidHeader)
	}
	return nil
}

// ExportEntry is a fixed export-table record (spec.md §3).
type ExportEntry struct {
	ObjectClass      int32
	ObjectOuterClass int32
	ObjectName       int32
	ObjectNameSuffix uint32
	ObjectSuper      int32
	ObjectFlags      uint64
	ObjectGUID       GUID
	ObjectMainPkg    uint32
	Unk1             uint32
	ObjectSize       uint32
	ObjectOffset     uint64
	Unk2             uint64
	Unk3             uint32
}

// ReadExportEntry decodes one ExportEntry.
func ReadExportEntry(c *bcursor.Cursor) (ExportEntry, error) {
	var e ExportEntry
	var err error
	if e.ObjectClass, err = c.I32(); err != nil {
		return e, err
	}
	if e.ObjectOuterClass, err = c.I32(); err != nil {
		return e, err
	}
	if e.ObjectName, err = c.I32(); err != nil {
		return e, err
	}
	if e.ObjectNameSuffix, err = c.U32(); err != nil {
		return e, err
	}
	if e.ObjectSuper, err = c.I32(); err != nil {
		return e, err
	}
	if e.ObjectFlags, err = c.U64(); err != nil {
		return e, err
	}
	if e.ObjectGUID, err = ReadGUID(c); err != nil {
		return e, err
	}
	if e.ObjectMainPkg, err = c.U32(); err != nil {
		return e, err
	}
	if e.Unk1, err = c.U32(); err != nil {
		return e, err
	}
	if e.ObjectSize, err = c.U32(); err != nil {
		return e, err
	}
	if e.ObjectOffset, err = c.U64(); err != nil {
		return e, err
	}
	if e.Unk2, err = c.U64(); err != nil {
		return e, err
	}
	if e.Unk3, err = c.U32(); err != nil {
		return e, err
	}
	return e, nil
}

// ImportEntry is a fixed import-table record (spec.md §3).
type ImportEntry struct {
	ImportClassPackage int32
	ImportName         int32
	ImportNameSuffix   int32
	ImportOuterClass   int32
	ObjectName         int32
}

// ReadImportEntry decodes one ImportEntry.
func ReadImportEntry(c *bcursor.Cursor) (ImportEntry, error) {
	var e ImportEntry
	var err error
	if e.ImportClassPackage, err = c.I32(); err != nil {
		return e, err
	}
	if e.ImportName, err = c.I32(); err != nil {
		return e, err
	}
	if e.ImportNameSuffix, err = c.I32(); err != nil {
		return e, err
	}
	if e.ImportOuterClass, err = c.I32(); err != nil {
		return e, err
	}
	if e.ObjectName, err = c.I32(); err != nil {
		return e, err
	}
	return e, nil
}

// BlockHeader prefixes each compressed region (spec.md §3).
type BlockHeader struct {
	Magic            uint32
	Padding          uint32
	ChunkSize        uint64
	CompressedSize   uint64
	DecompressedSize uint64
}

// ReadBlockHeader decodes a BlockHeader.
func ReadBlockHeader(c *bcursor.Cursor) (BlockHeader, error) {
	var b BlockHeader
	var err error
	if b.Magic, err = c.U32(); err != nil {
		return b, err
	}
	if b.Padding, err = c.U32(); err != nil {
		return b, err
	}
	if b.ChunkSize, err = c.U64(); err != nil {
		return b, err
	}
	if b.CompressedSize, err = c.U64(); err != nil {
		return b, err
	}
	if b.DecompressedSize, err = c.U64(); err != nil {
		return b, err
	}
	return b, nil
}

// ChunkHeader is one entry in a block's chunk-header sequence.
type ChunkHeader struct {
	CompressedSize   uint64
	DecompressedSize uint64
}

// ReadChunkHeader decodes one ChunkHeader.
func ReadChunkHeader(c *bcursor.Cursor) (ChunkHeader, error) {
	var h ChunkHeader
	var err error
	if h.CompressedSize, err = c.U64(); err != nil {
		return h, err
	}
	if h.DecompressedSize, err = c.U64(); err != nil {
		return h, err
	}
	return h, nil
}

// SubPackage is one compressed region entry within a PackageDescriptor.
type SubPackage struct {
	DecompressedOffset uint64
	DecompressedSize   uint64
	CompressedOffset   uint64
	CompressedSize     uint64
}

// ReadSubPackage decodes one SubPackage.
func ReadSubPackage(c *bcursor.Cursor) (SubPackage, error) {
	var s SubPackage
	var err error
	if s.DecompressedOffset, err = c.U64(); err != nil {
		return s, err
	}
	if s.DecompressedSize, err = c.U64(); err != nil {
		return s, err
	}
	if s.CompressedOffset, err = c.U64(); err != nil {
		return s, err
	}
	if s.CompressedSize, err = c.U64(); err != nil {
		return s, err
	}
	return s, nil
}

// PackageDescriptor is one variable-length package entry: a name, the
// package's own (decompressed/compressed offset, size) envelope, and a
// list of SubPackage regions that actually carry the compressed blocks.
type PackageDescriptor struct {
	Name               string
	DecompressedOffset uint64
	DecompressedSize   uint64
	CompressedOffset   uint64
	CompressedSize     uint64
	Entries            []SubPackage
}

// ReadPackageDescriptor decodes one PackageDescriptor, including its
// trailing SubPackage list.
func ReadPackageDescriptor(c *bcursor.Cursor) (PackageDescriptor, error) {
	var p PackageDescriptor

	nameLen, err := c.U32()
	if err != nil {
		return p, err
	}
	if p.Name, err = c.ASCII(int(nameLen)); err != nil {
		return p, err
	}
	if p.DecompressedOffset, err = c.U64(); err != nil {
		return p, err
	}
	if p.DecompressedSize, err = c.U64(); err != nil {
		return p, err
	}
	if p.CompressedOffset, err = c.U64(); err != nil {
		return p, err
	}
	if p.CompressedSize, err = c.U64(); err != nil {
		return p, err
	}
	count, err := c.U32()
	if err != nil {
		return p, err
	}
	p.Entries = make([]SubPackage, count)
	for i := range p.Entries {
		if p.Entries[i], err = ReadSubPackage(c); err != nil {
			return p, err
		}
	}
	if uint32(len(p.Entries)) != count {
		return p, fmt.Errorf("wire: package %q entries_count %d != decoded %d", p.Name, count, len(p.Entries))
	}
	return p, nil
}

// ReadPackageList reads a u32-prefixed list of PackageDescriptor, used
// for both the primary and extra package lists (spec.md §3/§4.4).
func ReadPackageList(c *bcursor.Cursor) ([]PackageDescriptor, error) {
	count, err := c.U32()
	if err != nil {
		return nil, err
	}
	out := make([]PackageDescriptor, count)
	for i := range out {
		if out[i], err = ReadPackageDescriptor(c); err != nil {
			return nil, fmt.Errorf("wire: package list entry %d: %w", i, err)
		}
	}
	return out, nil
}

// ReadFileName reads the length-prefixed ASCII archive file name that
// follows the reserved padding region.
func ReadFileName(c *bcursor.Cursor) (string, error) {
	n, err := c.U32()
	if err != nil {
		return "", err
	}
	return c.ASCII(int(n))
}

// ReadNameEntry reads one length-prefixed name-table string.
func ReadNameEntry(c *bcursor.Cursor) (string, error) {
	n, err := c.U32()
	if err != nil {
		return "", err
	}
	return c.ASCII(int(n))
}
