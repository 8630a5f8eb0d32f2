// Package extable decodes and classifies the external-table groups that
// describe PSF (companion-file) and bulk (in-file-tail) data regions,
// per spec.md §4.5. It mirrors the structured-reader discipline of
// pkg/mk11/wire but adds the classification, key-map, and cross-
// validation logic that table has no business knowing about.
package extable

import (
	"fmt"

	"github.com/mk11nrs/mk11asset/pkg/bcursor"
	"github.com/mk11nrs/mk11asset/pkg/mk11/wire"
	"github.com/mk11nrs/mk11asset/pkg/mkerr"
)

// neg64 is the sentinel compressed_offset/compressed_size value marking
// a bulk entry (spec.md §3 invariants).
const neg64 = 0xFFFFFFFFFFFFFFFF

// Location classifies where an external-table entry's bytes actually
// live.
type Location int

const (
	// LocationPSF means the entry's bytes live in the companion PSF file.
	LocationPSF Location = iota
	// LocationBulk means the entry's bytes live at the tail of the
	// midway image.
	LocationBulk
)

func (l Location) String() string {
	switch l {
	case LocationPSF:
		return "psf"
	case LocationBulk:
		return "bulk"
	default:
		return "invalid"
	}
}

// GroupKind is the declared kind of a table group, independent of each
// entry's observed classification — used only to detect the
// kind-mismatch warning in spec.md §4.5.
type GroupKind int

const (
	GroupPSF GroupKind = iota
	GroupBulk
)

// Entry is one decoded, classified External Table Entry.
type Entry struct {
	DecompressedSize   uint64
	CompressedSize     uint64
	DecompressedOffset uint64
	CompressedOffset   uint64
	Location           Location
}

// Table is one External Table: a reference key, name, its entries, and
// the trailing group-level compression flag.
type Table struct {
	ReferenceKey    uint64
	Name            string
	Entries         []Entry
	CompressionFlag uint32
}

// Warning is a non-fatal condition surfaced during table decoding or
// cross-validation (spec.md §7 propagation policy).
type Warning struct {
	Message string
}

func (w Warning) String() string { return w.Message }

// classify applies the entry classification rule of spec.md §4.5,
// storing the entry's Location in e and returning any warning text
// (empty if none).
func classify(e *Entry, kind GroupKind) (string, error) {
	switch {
	case e.CompressedOffset == e.DecompressedOffset:
		e.Location = LocationPSF
		if kind == GroupBulk {
			return "psf-shaped entry in a group declared as bulk", nil
		}
		return "", nil
	case e.CompressedOffset == neg64 && e.CompressedSize == neg64:
		e.Location = LocationBulk
		return "", nil
	case e.CompressedOffset == neg64 || e.CompressedSize == neg64:
		return "", fmt.Errorf("extable: entry has exactly one sentinel field set: %w", mkerr.ErrMalformedExternalEntry)
	default:
		return "", fmt.Errorf("extable: entry offset signature matches neither psf nor bulk: %w", mkerr.ErrMalformedExternalEntry)
	}
}

// ReadTable decodes one External Table at the cursor's current
// position, classifying every entry against the group's declared kind.
func ReadTable(c *bcursor.Cursor, kind GroupKind) (Table, []Warning, error) {
	var t Table
	var warnings []Warning

	key, err := c.U64()
	if err != nil {
		return t, nil, err
	}
	t.ReferenceKey = key

	nameLen, err := c.U32()
	if err != nil {
		return t, nil, err
	}
	if t.Name, err = c.ASCII(int(nameLen)); err != nil {
		return t, nil, err
	}

	count, err := c.U32()
	if err != nil {
		return t, nil, err
	}
	t.Entries = make([]Entry, count)
	for i := range t.Entries {
		e := &t.Entries[i]
		if e.DecompressedSize, err = c.U64(); err != nil {
			return t, warnings, err
		}
		if e.CompressedSize, err = c.U64(); err != nil {
			return t, warnings, err
		}
		if e.DecompressedOffset, err = c.U64(); err != nil {
			return t, warnings, err
		}
		if e.CompressedOffset, err = c.U64(); err != nil {
			return t, warnings, err
		}
		msg, err := classify(e, kind)
		if err != nil {
			return t, warnings, fmt.Errorf("extable: table %q entry %d: %w", t.Name, i, err)
		}
		if msg != "" {
			warnings = append(warnings, Warning{Message: fmt.Sprintf("table %q entry %d: %s", t.Name, i, msg)})
		}
	}

	if t.CompressionFlag, err = c.U32(); err != nil {
		return t, warnings, err
	}
	if t.CompressionFlag != 0 {
		for i := range t.Entries {
			if t.Entries[i].Location == LocationBulk {
				warnings = append(warnings, Warning{Message: fmt.Sprintf(
					"table %q entry %d: bulk entry has no offset/size but compression_flag 0x%x is nonzero",
					t.Name, i, t.CompressionFlag)})
			}
		}
	}

	return t, warnings, nil
}

// ReadGroup decodes a u32-prefixed list of External Tables: a PSF group
// or a bulk group, per spec.md §4.5.
func ReadGroup(c *bcursor.Cursor, kind GroupKind) ([]Table, []Warning, error) {
	count, err := c.U32()
	if err != nil {
		return nil, nil, err
	}
	out := make([]Table, count)
	var warnings []Warning
	for i := range out {
		t, w, err := ReadTable(c, kind)
		if err != nil {
			return nil, warnings, fmt.Errorf("extable: group entry %d: %w", i, err)
		}
		out[i] = t
		warnings = append(warnings, w...)
	}
	return out, warnings, nil
}

// KeyMap builds a reference_key → Table index for one group, failing
// fatally on a duplicate key within the group (spec.md §4.5).
func KeyMap(tables []Table) (map[uint64]int, error) {
	m := make(map[uint64]int, len(tables))
	for i, t := range tables {
		if _, dup := m[t.ReferenceKey]; dup {
			return nil, fmt.Errorf("extable: reference_key 0x%x duplicated (table %q): %w", t.ReferenceKey, t.Name, mkerr.ErrDuplicateTableKey)
		}
		m[t.ReferenceKey] = i
	}
	return m, nil
}

// flatten returns every entry across all tables of a group in
// group-then-row order, the order the PSF/extra cross-check zips
// against.
func flatten(tables []Table) []Entry {
	var out []Entry
	for _, t := range tables {
		out = append(out, t.Entries...)
	}
	return out
}

// CrossValidatePSF zips the PSF group's flattened entries against the
// extra package list's flattened sub-package entries, per spec.md §4.5
// and the PSF/extra pairing invariant of §3. extraOffsets holds each
// extra sub-package entry's compressed_offset/decompressed_offset in
// group-then-row order (the archive deserializer supplies these from
// the extra package list it already parsed).
func CrossValidatePSF(psfTables []Table, extraOffsets []wire.SubPackage) ([]Warning, error) {
	psfEntries := flatten(psfTables)
	if len(psfEntries) != len(extraOffsets) {
		return nil, fmt.Errorf("extable: psf entries %d != extra sub-packages %d: %w",
			len(psfEntries), len(extraOffsets), mkerr.ErrPsfExtraMismatch)
	}

	var warnings []Warning
	for i := range psfEntries {
		p := psfEntries[i]
		x := extraOffsets[i]
		if p.CompressedOffset != x.CompressedOffset {
			return nil, fmt.Errorf("extable: psf entry %d compressed_offset 0x%x != extra compressed_offset 0x%x: %w",
				i, p.CompressedOffset, x.CompressedOffset, mkerr.ErrPsfExtraMismatch)
		}
		if p.DecompressedOffset != x.DecompressedOffset {
			warnings = append(warnings, Warning{Message: fmt.Sprintf(
				"psf entry %d decompressed_offset 0x%x != extra decompressed_offset 0x%x", i, p.DecompressedOffset, x.DecompressedOffset)})
		}
	}
	return warnings, nil
}

// Lookup finds the table in a group carrying the given reference_key,
// using a KeyMap built by the caller.
func Lookup(tables []Table, keyMap map[uint64]int, key uint64) (Table, bool) {
	idx, ok := keyMap[key]
	if !ok {
		return Table{}, false
	}
	return tables[idx], true
}
