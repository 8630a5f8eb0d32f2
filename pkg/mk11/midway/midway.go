// Package midway re-parses the reconstructed uncompressed image the
// archive deserializer produces: it validates the midway header,
// re-reads the file name and PSF/bulk table groups, reads the name,
// export, and import tables at their summary-declared offsets, resolves
// references, and runs the export/bulk/psf coverage validators of
// spec.md §4.6.
package midway

import (
	"fmt"
	"sort"

	"github.com/mk11nrs/mk11asset/pkg/bcursor"
	"github.com/mk11nrs/mk11asset/pkg/mk11/extable"
	"github.com/mk11nrs/mk11asset/pkg/mk11/resolve"
	"github.com/mk11nrs/mk11asset/pkg/mk11/wire"
	"github.com/mk11nrs/mk11asset/pkg/mkerr"
)

// Warning is a non-fatal condition surfaced while parsing or validating
// the midway image (spec.md §7 propagation policy).
type Warning struct {
	Message string
}

func (w Warning) String() string { return w.Message }

// Asset is the fully parsed midway image: its reconstructed buffer, the
// decoded tables, and the resolver's Table view over name/export/import.
type Asset struct {
	Buffer []byte

	Summary  wire.FileSummary
	FileName string

	PSFTables  []extable.Table
	BulkTables []extable.Table

	Resolver *resolve.Table

	psfKeyMap  map[uint64]int
	bulkKeyMap map[uint64]int
}

// CoverageReport is one gap/overlap/bounds finding from a coverage
// validator (spec.md §4.6). It is always returned, never treated as
// fatal by this package — callers decide what to do with it.
type CoverageReport struct {
	Kind    string // "out_of_bounds", "over_extent", "overlap", "gap", "ends_early"
	Message string
}

// extent is a flattened (offset, size, label) triple the coverage
// validators sort and sweep.
type extent struct {
	offset uint64
	size   uint64
	label  string
}

// Parse decodes a reconstructed midway image per spec.md §4.6. psfSize
// is the companion PSF source's total size (0 if none was supplied),
// used as the PSF coverage validator's upper bound.
func Parse(buf []byte, psfSize int64) (*Asset, []Warning, []CoverageReport, error) {
	a := &Asset{Buffer: buf}
	var warnings []Warning

	c := bcursor.FromBytes(buf)

	summary, err := wire.ReadFileSummary(c)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("midway: read summary: %w", err)
	}
	if err := summary.Validate(); err != nil {
		return nil, nil, nil, fmt.Errorf("midway: %w: %v", mkerr.ErrInvalidMidwayHeader, err)
	}
	if summary.CompressionFlag != 0 {
		return nil, nil, nil, fmt.Errorf("midway: compression_flag %d != 0: %w", summary.CompressionFlag, mkerr.ErrInvalidMidwayHeader)
	}
	a.Summary = summary

	if err := c.Skip(0x18); err != nil {
		return nil, nil, nil, fmt.Errorf("midway: skip reserved region: %w", err)
	}

	fileName, err := wire.ReadFileName(c)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("midway: read file name: %w", err)
	}
	a.FileName = fileName

	psfTables, psfWarnings, err := extable.ReadGroup(c, extable.GroupPSF)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("midway: read psf group: %w", err)
	}
	a.PSFTables = psfTables
	warnings = appendExtableWarnings(warnings, psfWarnings)

	bulkTables, bulkWarnings, err := extable.ReadGroup(c, extable.GroupBulk)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("midway: read bulk group: %w", err)
	}
	a.BulkTables = bulkTables
	warnings = appendExtableWarnings(warnings, bulkWarnings)

	if a.psfKeyMap, err = extable.KeyMap(psfTables); err != nil {
		return nil, nil, nil, fmt.Errorf("midway: %w", err)
	}
	if a.bulkKeyMap, err = extable.KeyMap(bulkTables); err != nil {
		return nil, nil, nil, fmt.Errorf("midway: %w", err)
	}

	if got := c.Pos(); got != int64(summary.NameTable.Offset) {
		return nil, nil, nil, fmt.Errorf("midway: meta size %d != declared name-table offset %d", got, summary.NameTable.Offset)
	}

	if err := c.Seek(int64(summary.NameTable.Offset)); err != nil {
		return nil, nil, nil, fmt.Errorf("midway: seek name table: %w", err)
	}
	names := make([]string, summary.NameTable.Entries)
	for i := range names {
		if names[i], err = wire.ReadNameEntry(c); err != nil {
			return nil, nil, nil, fmt.Errorf("midway: read name %d: %w", i, err)
		}
	}

	if err := c.Seek(int64(summary.ExportTable.Offset)); err != nil {
		return nil, nil, nil, fmt.Errorf("midway: seek export table: %w", err)
	}
	exports := make([]wire.ExportEntry, summary.ExportTable.Entries)
	for i := range exports {
		if exports[i], err = wire.ReadExportEntry(c); err != nil {
			return nil, nil, nil, fmt.Errorf("midway: read export %d: %w", i, err)
		}
	}

	if err := c.Seek(int64(summary.ImportTable.Offset)); err != nil {
		return nil, nil, nil, fmt.Errorf("midway: seek import table: %w", err)
	}
	imports := make([]wire.ImportEntry, summary.ImportTable.Entries)
	for i := range imports {
		if imports[i], err = wire.ReadImportEntry(c); err != nil {
			return nil, nil, nil, fmt.Errorf("midway: read import %d: %w", i, err)
		}
	}

	a.Resolver = &resolve.Table{Names: names, Exports: exports, Imports: imports}

	reports := a.validateExportCoverage()
	reports = append(reports, a.validateBulkCoverage()...)
	reports = append(reports, a.validatePSFCoverage(psfSize)...)

	return a, warnings, reports, nil
}

func appendExtableWarnings(warnings []Warning, ws []extable.Warning) []Warning {
	for _, w := range ws {
		warnings = append(warnings, Warning{Message: w.Message})
	}
	return warnings
}

// sweep runs the shared overlap/gap/bounds sweep spec.md §4.6 describes
// for the export, bulk, and PSF validators alike.
func sweep(extents []extent, start, end uint64, kindEarly string) []CoverageReport {
	sort.Slice(extents, func(i, j int) bool { return extents[i].offset < extents[j].offset })

	var reports []CoverageReport
	prevEnd := start
	for _, e := range extents {
		if e.offset < start || e.offset >= end {
			reports = append(reports, CoverageReport{
				Kind:    "out_of_bounds",
				Message: fmt.Sprintf("%s at offset %d outside [%d, %d)", e.label, e.offset, start, end),
			})
			continue
		}
		if e.offset+e.size > end {
			reports = append(reports, CoverageReport{
				Kind:    "over_extent",
				Message: fmt.Sprintf("%s at offset %d size %d exceeds end %d", e.label, e.offset, e.size, end),
			})
			continue
		}
		if e.offset < prevEnd {
			reports = append(reports, CoverageReport{
				Kind:    "overlap",
				Message: fmt.Sprintf("%s at offset %d overlaps preceding extent ending at %d", e.label, e.offset, prevEnd),
			})
		} else if e.offset > prevEnd {
			reports = append(reports, CoverageReport{
				Kind:    "gap",
				Message: fmt.Sprintf("gap [%d, %d) before %s", prevEnd, e.offset, e.label),
			})
		}
		if e.offset+e.size > prevEnd {
			prevEnd = e.offset + e.size
		}
	}

	if prevEnd < end {
		reports = append(reports, CoverageReport{
			Kind:    kindEarly,
			Message: fmt.Sprintf("coverage ends early at %d, expected %d", prevEnd, end),
		})
	}
	return reports
}

// validateExportCoverage implements spec.md §4.6's export coverage
// validator, including the "remainder is bulk-owned" exception to the
// ends-early report.
func (a *Asset) validateExportCoverage() []CoverageReport {
	start := uint64(a.Summary.ExportsLocation)
	end := a.Summary.BulkDataOffset
	if end == 0 {
		end = uint64(len(a.Buffer))
	}

	extents := make([]extent, len(a.Resolver.Exports))
	for i, e := range a.Resolver.Exports {
		extents[i] = extent{offset: e.ObjectOffset, size: uint64(e.ObjectSize), label: fmt.Sprintf("export[%d]", i)}
	}

	reports := sweep(extents, start, end, "ends_early")

	// The "remainder is bulk-owned" exception of spec.md §4.6: if the
	// trailing gap sweep reported is exactly covered by the first bulk
	// entry, it is not an error.
	if len(reports) > 0 {
		last := reports[len(reports)-1]
		if last.Kind == "ends_early" {
			prevEnd := coverageEnd(extents, start, end)
			if bulkStartsAt(a.BulkTables, prevEnd) {
				reports = reports[:len(reports)-1]
			}
		}
	}
	return reports
}

// coverageEnd recomputes the sweep's final prevEnd value for the
// bulk-ownership exception check.
func coverageEnd(extents []extent, start, end uint64) uint64 {
	sort.Slice(extents, func(i, j int) bool { return extents[i].offset < extents[j].offset })
	prevEnd := start
	for _, e := range extents {
		if e.offset < start || e.offset >= end || e.offset+e.size > end {
			continue
		}
		if e.offset+e.size > prevEnd {
			prevEnd = e.offset + e.size
		}
	}
	return prevEnd
}

func bulkStartsAt(tables []extable.Table, offset uint64) bool {
	for _, t := range tables {
		for _, e := range t.Entries {
			if e.Location == extable.LocationBulk {
				return e.DecompressedOffset == offset
			}
		}
	}
	return false
}

// validateBulkCoverage runs the same sweep over bulk entries, addressed
// within the midway buffer.
func (a *Asset) validateBulkCoverage() []CoverageReport {
	var extents []extent
	for ti, t := range a.BulkTables {
		for ei, e := range t.Entries {
			if e.Location != extable.LocationBulk {
				continue
			}
			extents = append(extents, extent{
				offset: e.DecompressedOffset,
				size:   e.DecompressedSize,
				label:  fmt.Sprintf("bulk[%d][%d]", ti, ei),
			})
		}
	}
	if len(extents) == 0 {
		return nil
	}
	start := extents[0].offset
	for _, e := range extents {
		if e.offset < start {
			start = e.offset
		}
	}
	return sweep(extents, start, uint64(len(a.Buffer)), "ends_early")
}

// validatePSFCoverage runs the same sweep over PSF entries, addressed
// within the companion PSF file.
func (a *Asset) validatePSFCoverage(psfSize int64) []CoverageReport {
	var extents []extent
	for ti, t := range a.PSFTables {
		for ei, e := range t.Entries {
			if e.Location != extable.LocationPSF {
				continue
			}
			extents = append(extents, extent{
				offset: e.DecompressedOffset,
				size:   e.DecompressedSize,
				label:  fmt.Sprintf("psf[%d][%d]", ti, ei),
			})
		}
	}
	if len(extents) == 0 {
		return nil
	}
	start := extents[0].offset
	for _, e := range extents {
		if e.offset < start {
			start = e.offset
		}
	}
	return sweep(extents, start, uint64(psfSize), "ends_early")
}
