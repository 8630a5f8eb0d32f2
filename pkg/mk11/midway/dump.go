package midway

import "fmt"

// DumpTables renders the name, export, and import tables as text lines,
// the shape spec.md §6 describes for the name/import/export table
// dumps under <save_dir>/<file_name>/.
func (a *Asset) DumpTables() (names, exports, imports []string) {
	for i, n := range a.Resolver.Names {
		names = append(names, fmt.Sprintf("%d\t%s", i, n))
	}
	for i := range a.Resolver.Exports {
		paths, err := a.Resolver.ResolveExportPaths(i)
		if err != nil {
			exports = append(exports, fmt.Sprintf("%d\t<error: %v>", i, err))
			continue
		}
		exports = append(exports, fmt.Sprintf("%d\t%s", i, paths.FullName))
	}
	for i := range a.Resolver.Imports {
		name, err := a.Resolver.ImportFullName(i)
		if err != nil {
			imports = append(imports, fmt.Sprintf("%d\t<error: %v>", i, err))
			continue
		}
		imports = append(imports, fmt.Sprintf("%d\t%s", i, name))
	}
	return names, exports, imports
}

// DumpExternalTables renders the PSF and bulk table groups as text
// lines, grouped by table name and reference_key.
func (a *Asset) DumpExternalTables() (psf, bulk []string) {
	for _, t := range a.PSFTables {
		for i, e := range t.Entries {
			psf = append(psf, fmt.Sprintf("%s\t%08X\t%d\t%s\tdecompressed=[%d,%d)", t.Name, t.ReferenceKey, i, e.Location, e.DecompressedOffset, e.DecompressedOffset+e.DecompressedSize))
		}
	}
	for _, t := range a.BulkTables {
		for i, e := range t.Entries {
			bulk = append(bulk, fmt.Sprintf("%s\t%08X\t%d\t%s\tdecompressed=[%d,%d)", t.Name, t.ReferenceKey, i, e.Location, e.DecompressedOffset, e.DecompressedOffset+e.DecompressedSize))
		}
	}
	return psf, bulk
}

// ExportBody returns the byte slice of the midway buffer an export's
// object_offset/object_size designate, for handing to a per-class
// handler (out of core scope; spec.md §1).
func (a *Asset) ExportBody(i int) ([]byte, error) {
	e := a.Resolver.Exports[i]
	start := e.ObjectOffset
	end := start + uint64(e.ObjectSize)
	if end > uint64(len(a.Buffer)) {
		return nil, fmt.Errorf("midway: export[%d] body [%d,%d) exceeds buffer length %d", i, start, end, len(a.Buffer))
	}
	return a.Buffer[start:end], nil
}

// BulkBody returns the byte slice of the midway buffer one bulk entry
// designates.
func (a *Asset) BulkBody(tableIdx, entryIdx int) ([]byte, error) {
	e := a.BulkTables[tableIdx].Entries[entryIdx]
	start := e.DecompressedOffset
	end := start + e.DecompressedSize
	if end > uint64(len(a.Buffer)) {
		return nil, fmt.Errorf("midway: bulk[%d][%d] body [%d,%d) exceeds buffer length %d", tableIdx, entryIdx, start, end, len(a.Buffer))
	}
	return a.Buffer[start:end], nil
}
