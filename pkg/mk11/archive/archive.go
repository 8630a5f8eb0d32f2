// Package archive drives the whole-file parse of a raw MK11 archive:
// summary, package lists, file name, PSF/bulk table groups, and block
// decompression, reassembled into a contiguous midway image per
// spec.md §4.4. It is grounded on the teacher's pkg/manifest.Package
// (multi-part package with offset/size bookkeeping and an Extract-style
// decompression step) and pkg/archive's zstd Reader/Writer wrapper
// shape, re-targeted from EVR's flat manifest format to MK11's nested
// package/sub-package/block/chunk hierarchy.
package archive

import (
	"fmt"

	"github.com/mk11nrs/mk11asset/pkg/bcursor"
	"github.com/mk11nrs/mk11asset/pkg/mk11/extable"
	"github.com/mk11nrs/mk11asset/pkg/mk11/wire"
	"github.com/mk11nrs/mk11asset/pkg/mkerr"
	"github.com/mk11nrs/mk11asset/pkg/oodle"
)

// Warning is a non-fatal condition raised during parse or
// materialization (spec.md §7 propagation policy).
type Warning struct {
	Message string
}

func (w Warning) String() string { return w.Message }

// Archive holds one opened, parsed raw archive. Parse populates every
// field below; Materialize consumes them to build a MidwayImage.
type Archive struct {
	cursor *bcursor.Cursor

	Summary wire.FileSummary

	PrimaryPackages []wire.PackageDescriptor
	ExtraPackages   []wire.PackageDescriptor

	FileName string

	PSFTables  []extable.Table
	BulkTables []extable.Table

	MetaSize int64
}

// Open opens the archive at path, owning the file handle for the
// Archive's lifetime.
func Open(path string) (*Archive, error) {
	c, err := bcursor.FromFile(path)
	if err != nil {
		return nil, fmt.Errorf("archive: open %s: %w", path, err)
	}
	return &Archive{cursor: c}, nil
}

// OpenBytes opens the archive from a pre-loaded, borrowed buffer.
func OpenBytes(buf []byte) *Archive {
	return &Archive{cursor: bcursor.FromBytes(buf)}
}

// Close releases any owned file handle.
func (a *Archive) Close() error {
	if a.cursor == nil {
		return nil
	}
	return a.cursor.Close()
}

// Parse runs the pipeline of spec.md §4.4 steps 1-8 against the raw
// archive, stopping at the point where block decompression would
// begin — Materialize drives that part, since it needs a compressor.
func (a *Archive) Parse() ([]Warning, error) {
	var warnings []Warning

	summary, err := wire.ReadFileSummary(a.cursor)
	if err != nil {
		return nil, fmt.Errorf("archive: read summary: %w", err)
	}
	if err := summary.Validate(); err != nil {
		return nil, fmt.Errorf("archive: %w: %v", mkerr.ErrInvalidHeader, err)
	}
	if _, err := oodle.SelectCodec(summary.CompressionFlag); err != nil {
		return nil, fmt.Errorf("archive: %w", err)
	}
	a.Summary = summary

	if a.PrimaryPackages, err = wire.ReadPackageList(a.cursor); err != nil {
		return nil, fmt.Errorf("archive: read primary package list: %w", err)
	}
	if a.ExtraPackages, err = wire.ReadPackageList(a.cursor); err != nil {
		return nil, fmt.Errorf("archive: read extra package list: %w", err)
	}

	if err := a.cursor.Skip(0x18); err != nil {
		return nil, fmt.Errorf("archive: skip reserved region: %w", err)
	}

	if a.FileName, err = wire.ReadFileName(a.cursor); err != nil {
		return nil, fmt.Errorf("archive: read file name: %w", err)
	}

	psfTables, psfWarnings, err := extable.ReadGroup(a.cursor, extable.GroupPSF)
	if err != nil {
		return nil, fmt.Errorf("archive: read psf group: %w", err)
	}
	a.PSFTables = psfTables
	warnings = appendExtableWarnings(warnings, psfWarnings)

	bulkTables, bulkWarnings, err := extable.ReadGroup(a.cursor, extable.GroupBulk)
	if err != nil {
		return nil, fmt.Errorf("archive: read bulk group: %w", err)
	}
	a.BulkTables = bulkTables
	warnings = appendExtableWarnings(warnings, bulkWarnings)

	a.MetaSize = a.cursor.Pos()

	pairWarnings, err := a.validatePSFPairing()
	if err != nil {
		return nil, fmt.Errorf("archive: %w", err)
	}
	warnings = append(warnings, pairWarnings...)

	return warnings, nil
}

func appendExtableWarnings(warnings []Warning, ws []extable.Warning) []Warning {
	for _, w := range ws {
		warnings = append(warnings, Warning{Message: w.Message})
	}
	return warnings
}

// validatePSFPairing flattens the extra package list's sub-packages in
// group-then-row order and cross-validates it against the PSF table
// group, per spec.md §3/§4.5.
func (a *Archive) validatePSFPairing() ([]Warning, error) {
	var extra []wire.SubPackage
	for _, pkg := range a.ExtraPackages {
		extra = append(extra, pkg.Entries...)
	}
	ws, err := extable.CrossValidatePSF(a.PSFTables, extra)
	if err != nil {
		return nil, err
	}
	out := make([]Warning, len(ws))
	for i, w := range ws {
		out[i] = Warning{Message: w.Message}
	}
	return out, nil
}
