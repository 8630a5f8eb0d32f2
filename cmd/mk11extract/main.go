// Command mk11extract drives pkg/mk11/extract.ExtractAll over a list of
// archive paths from the command line, following the teacher's own
// flag-based CLI shape (main.go's init()/flag.Parse() pattern) rather
// than introducing a third-party CLI framework the example pack never
// uses for this kind of tool.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mk11nrs/mk11asset/pkg/mk11/extract"
	"github.com/mk11nrs/mk11asset/pkg/oodle/fixture"
)

var (
	outputDir     string
	psfDir        string
	overwrite     bool
	compressDumps bool
)

func init() {
	flag.StringVar(&outputDir, "outputDir", "", "directory to write extracted assets under (required)")
	flag.StringVar(&psfDir, "psfDir", "", "directory holding companion .psf files, named <file_name>.psf")
	flag.BoolVar(&overwrite, "overwrite", false, "allow writing into a non-empty outputDir")
	flag.BoolVar(&compressDumps, "compress-dumps", false, "zstd-compress blob dumps (the reconstructed .upk); text table dumps stay uncompressed")
}

func main() {
	flag.Parse()

	if outputDir == "" || flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: mk11extract -outputDir <dir> [-psfDir <dir>] [-overwrite] [-compress-dumps] <archive> [archive...]")
		flag.PrintDefaults()
		os.Exit(1)
	}

	requests := make([]extract.Request, flag.NArg())
	for i, path := range flag.Args() {
		req := extract.Request{Path: path}
		if psfDir != "" {
			req.PSF = extract.PSFSource{Dir: psfDir}
		}
		requests[i] = req
	}

	// Oodle is a proprietary native library this module never embeds
	// (pkg/oodle's doc comment); callers who have a real binding should
	// build their own Decompressor. Absent one, mk11extract falls back
	// to the zstd-backed test fixture, which only decodes archives whose
	// blocks were themselves compressed with that fixture's Codec.
	compressor := fixture.New()

	results, err := extract.ExtractAll(compressor, requests, outputDir, overwrite, compressDumps)
	if err != nil {
		fmt.Fprintln(os.Stderr, "mk11extract:", err)
		os.Exit(1)
	}

	failed := 0
	for _, r := range results {
		name := filepath.Base(r.Request.Path)
		if r.Err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "%s: FAILED: %v\n", name, r.Err)
			continue
		}
		fmt.Printf("%s: ok (%d warnings, %d coverage reports)\n", name, len(r.Warnings), len(r.Reports))
		for _, w := range r.Warnings {
			fmt.Printf("  warning: %s\n", w)
		}
		for _, rep := range r.Reports {
			fmt.Printf("  report: %s\n", rep)
		}
	}

	if failed > 0 {
		os.Exit(1)
	}
}
