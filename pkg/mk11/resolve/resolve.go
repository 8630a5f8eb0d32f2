// Package resolve converts the signed reference indices used throughout
// export/import records into typed entries, and computes the
// fully-qualified object paths spec.md §4.7 defines. It depends only on
// pkg/mk11/wire's record shapes, not on the archive or midway packages,
// so it can be exercised against hand-built export/import slices in
// isolation.
package resolve

import (
	"fmt"
	"strings"

	"github.com/mk11nrs/mk11asset/pkg/mk11/wire"
)

// Kind distinguishes the three reference shapes of spec.md §3.
type Kind int

const (
	KindNone Kind = iota
	KindExport
	KindImport
)

// Ref is a resolved reference: either the None sentinel, or an index
// into the export or import table.
type Ref struct {
	Kind  Kind
	Index int // valid only when Kind != KindNone
}

// IsNone reports whether r is the None sentinel.
func (r Ref) IsNone() bool { return r.Kind == KindNone }

// Resolve applies the signed reference-index convention of spec.md §3:
// 0 → None, v>0 → export[v-1], v<0 → import[-v-1].
func Resolve(v int32) Ref {
	switch {
	case v == 0:
		return Ref{Kind: KindNone}
	case v > 0:
		return Ref{Kind: KindExport, Index: int(v) - 1}
	default:
		return Ref{Kind: KindImport, Index: int(-v) - 1}
	}
}

// Table bundles the decoded name/export/import tables a Resolver walks.
// Names is indexed by the raw name-table index carried in records;
// Exports and Imports are indexed per Resolve's zero-based convention.
type Table struct {
	Names   []string
	Exports []wire.ExportEntry
	Imports []wire.ImportEntry
}

func (t *Table) name(idx int32) string {
	if idx < 0 || int(idx) >= len(t.Names) {
		return ""
	}
	return t.Names[idx]
}

// maxWalkSteps guards the class_outer/package walk against malformed
// cyclic inputs, per spec.md §9 Design Notes: cap at |imports|+|exports|.
func (t *Table) maxWalkSteps() int {
	return len(t.Imports) + len(t.Exports)
}

// ExportInfo is the resolved view of one export entry, computed the way
// spec.md §4.7 describes.
type ExportInfo struct {
	Class      Ref
	ClassOuter Ref
	ClassSuper Ref
	Name       string
	Package    string
	Suffix     uint32
}

// ResolveExport computes an ExportInfo for exports[i].
func (t *Table) ResolveExport(i int) ExportInfo {
	e := t.Exports[i]
	return ExportInfo{
		Class:      Resolve(e.ObjectClass),
		ClassOuter: Resolve(e.ObjectOuterClass),
		ClassSuper: Resolve(e.ObjectSuper),
		Name:       t.name(e.ObjectName),
		Package:    t.name(int32(e.ObjectMainPkg)),
		Suffix:     e.ObjectNameSuffix,
	}
}

// ImportInfo is the resolved view of one import entry, per spec.md §4.7.
type ImportInfo struct {
	Package    Ref
	Name       string
	Suffix     int32
	OuterClass Ref
	Unknown    Ref
}

// ResolveImport computes an ImportInfo for imports[i].
func (t *Table) ResolveImport(i int) ImportInfo {
	im := t.Imports[i]
	return ImportInfo{
		Package:    Resolve(im.ImportClassPackage),
		Name:       t.name(im.ImportName),
		Suffix:     im.ImportNameSuffix,
		OuterClass: Resolve(im.ImportOuterClass),
		Unknown:    Resolve(im.ObjectName),
	}
}

// step is one hop in a path walk: the name the node contributed and the
// next reference to follow.
type step struct {
	name string
	next Ref
}

// walkChain walks a reference chain per spec.md §4.7: each export node
// contributes its class_outer as the next hop, each import node its
// package. Both the import path and the export path walks use this same
// per-node-type mapping; they differ only in their starting reference
// and in how the collected names are joined.
func (t *Table) walkChain(start Ref) ([]string, error) {
	var names []string
	cur := start
	for i := 0; !cur.IsNone(); i++ {
		if i >= t.maxWalkSteps() {
			return nil, fmt.Errorf("resolve: path walk exceeded %d steps (cycle?)", t.maxWalkSteps())
		}
		s, err := t.chainStep(cur)
		if err != nil {
			return nil, err
		}
		names = append(names, s.name)
		cur = s.next
	}
	return names, nil
}

func (t *Table) chainStep(r Ref) (step, error) {
	switch r.Kind {
	case KindExport:
		if r.Index < 0 || r.Index >= len(t.Exports) {
			return step{}, fmt.Errorf("resolve: export index %d out of range", r.Index)
		}
		info := t.ResolveExport(r.Index)
		return step{name: info.Name, next: info.ClassOuter}, nil
	case KindImport:
		if r.Index < 0 || r.Index >= len(t.Imports) {
			return step{}, fmt.Errorf("resolve: import index %d out of range", r.Index)
		}
		info := t.ResolveImport(r.Index)
		return step{name: info.Name, next: info.Package}, nil
	default:
		return step{}, fmt.Errorf("resolve: cannot step from None")
	}
}

func reverseJoin(names []string) string {
	out := make([]string, len(names))
	for i, n := range names {
		out[len(names)-1-i] = n
	}
	return strings.Join(out, "/")
}

// ImportPath computes the import path for a starting reference, per
// spec.md §4.7: "/" if empty, else "/" + reverse_join("/") + "/".
func (t *Table) ImportPath(start Ref) (string, error) {
	names, err := t.walkChain(start)
	if err != nil {
		return "", err
	}
	if len(names) == 0 {
		return "/", nil
	}
	return "/" + reverseJoin(names) + "/", nil
}

// ExportPath computes the export path for a starting reference, per
// spec.md §4.7: "" if empty, else reverse_join("/") + "/".
func (t *Table) ExportPath(start Ref) (string, error) {
	names, err := t.walkChain(start)
	if err != nil {
		return "", err
	}
	if len(names) == 0 {
		return "", nil
	}
	return reverseJoin(names) + "/", nil
}

// ExportPaths bundles the computed names for one export, per spec.md
// §4.7's file_name/file_dir/full_name construction.
type ExportPaths struct {
	Path     string
	FileName string
	FileDir  string
	FullName string
}

// ResolveExportPaths computes ExportPaths for exports[i]. className is
// the resolved class's Name, or "" if Class is None.
func (t *Table) ResolveExportPaths(i int) (ExportPaths, error) {
	info := t.ResolveExport(i)

	path, err := t.ExportPath(info.ClassOuter)
	if err != nil {
		return ExportPaths{}, err
	}

	var className string
	if !info.Class.IsNone() {
		switch info.Class.Kind {
		case KindExport:
			if info.Class.Index >= 0 && info.Class.Index < len(t.Exports) {
				className = t.ResolveExport(info.Class.Index).Name
			}
		case KindImport:
			if info.Class.Index >= 0 && info.Class.Index < len(t.Imports) {
				className = t.ResolveImport(info.Class.Index).Name
			}
		}
	}

	fileName := info.Name
	if info.Suffix != 0 {
		fileName += fmt.Sprintf(".%d", info.Suffix)
	}
	if className != "" {
		fileName += "." + className
	}

	fileDir := "/" + info.Package + "/" + path
	return ExportPaths{
		Path:     path,
		FileName: fileName,
		FileDir:  fileDir,
		FullName: fileDir + fileName,
	}, nil
}

// ImportFullName computes an import's full_name, per spec.md §4.7:
// path + name [+ "." + suffix].
func (t *Table) ImportFullName(i int) (string, error) {
	info := t.ResolveImport(i)
	path, err := t.ImportPath(info.Package)
	if err != nil {
		return "", err
	}
	name := info.Name
	if info.Suffix != 0 {
		name += fmt.Sprintf(".%d", info.Suffix)
	}
	return path + name, nil
}
