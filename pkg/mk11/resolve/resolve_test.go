package resolve

import (
	"testing"

	"github.com/mk11nrs/mk11asset/pkg/mk11/wire"
)

func TestResolveSentinels(t *testing.T) {
	if r := Resolve(0); !r.IsNone() {
		t.Fatalf("expected None, got %+v", r)
	}
	if r := Resolve(3); r.Kind != KindExport || r.Index != 2 {
		t.Fatalf("Resolve(3) = %+v", r)
	}
	if r := Resolve(-3); r.Kind != KindImport || r.Index != 2 {
		t.Fatalf("Resolve(-3) = %+v", r)
	}
}

func TestResolveExportNoneFileName(t *testing.T) {
	tbl := &Table{
		Names: []string{"None", "Thing", "PkgA"},
		Exports: []wire.ExportEntry{
			{ObjectClass: 0, ObjectName: 1, ObjectMainPkg: 2},
		},
	}
	paths, err := tbl.ResolveExportPaths(0)
	if err != nil {
		t.Fatal(err)
	}
	if paths.FileName != "Thing" {
		t.Fatalf("FileName = %q, want %q", paths.FileName, "Thing")
	}
}

func TestWalkChainCycleGuard(t *testing.T) {
	// export 0's class_outer points to itself: a cycle.
	tbl := &Table{
		Names: []string{"Self"},
		Exports: []wire.ExportEntry{
			{ObjectOuterClass: 1, ObjectName: 0},
		},
	}
	if _, err := tbl.ExportPath(Ref{Kind: KindExport, Index: 0}); err == nil {
		t.Fatal("expected cycle-guard error")
	}
}

func TestImportFullNameWithSuffix(t *testing.T) {
	tbl := &Table{
		Names: []string{"Core", "Engine"},
		Imports: []wire.ImportEntry{
			{ImportName: 1, ImportNameSuffix: 5},
		},
	}
	name, err := tbl.ImportFullName(0)
	if err != nil {
		t.Fatal(err)
	}
	if name != "/Engine.5" {
		t.Fatalf("ImportFullName = %q", name)
	}
}
