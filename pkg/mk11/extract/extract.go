// Package extract drives extraction across many archives concurrently,
// the public entry point spec.md §6 names as extract_all(files,
// output_dir, overwrite=false). Each archive parse is itself
// single-threaded (spec.md §5); concurrency lives only at this layer,
// one goroutine per archive bounded by a fixed worker pool, grounded on
// main.go's jobs-channel/sync.WaitGroup extraction pipeline.
package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/mk11nrs/mk11asset/pkg/mk11/archive"
	"github.com/mk11nrs/mk11asset/pkg/mk11/dumpsink"
	"github.com/mk11nrs/mk11asset/pkg/mk11/midway"
	"github.com/mk11nrs/mk11asset/pkg/oodle"
)

// PSFSource names where an archive's companion PSF file lives. If Dir
// is set, the PSF path is Dir/<file_name>.psf (spec.md §6); if File is
// set, it is used directly. Neither set means no PSF source.
type PSFSource struct {
	Dir  string
	File string
}

func (p PSFSource) resolve(fileName string) string {
	switch {
	case p.File != "":
		return p.File
	case p.Dir != "":
		return filepath.Join(p.Dir, fileName+".psf")
	default:
		return ""
	}
}

// Request is one archive to extract: a path plus its optional PSF
// source.
type Request struct {
	Path string
	PSF  PSFSource
}

// Result is the outcome of extracting one Request. Err is non-nil only
// for a fatal failure that aborted the whole archive's parse; per-entry
// problems surface as Warnings instead, matching spec.md §7's "handler
// failures are isolated to that export" propagation policy applied one
// level up, to per-archive isolation.
type Result struct {
	Request  Request
	Warnings []string
	Reports  []string
	Err      error
}

// ExtractAll extracts every request, writing dumps under outputDir, and
// returns one Result per request in input order. compressDumps selects
// whether pkg/mk11/dumpsink compresses blob outputs with zstd.
func ExtractAll(compressor oodle.Decompressor, requests []Request, outputDir string, overwrite bool, compressDumps bool) ([]Result, error) {
	if !overwrite {
		if entries, err := os.ReadDir(outputDir); err == nil && len(entries) > 0 {
			return nil, fmt.Errorf("extract: output directory %s is not empty (overwrite=false)", outputDir)
		}
	}
	if err := os.MkdirAll(outputDir, 0o777); err != nil {
		return nil, fmt.Errorf("extract: mkdir %s: %w", outputDir, err)
	}

	results := make([]Result, len(requests))

	numWorkers := runtime.NumCPU()
	if numWorkers > len(requests) {
		numWorkers = len(requests)
	}
	if numWorkers < 1 {
		numWorkers = 1
	}

	jobs := make(chan int, len(requests))
	var wg sync.WaitGroup

	worker := func() {
		defer wg.Done()
		for i := range jobs {
			results[i] = extractOne(compressor, requests[i], outputDir, compressDumps)
		}
	}
	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go worker()
	}
	for i := range requests {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return results, nil
}

func extractOne(compressor oodle.Decompressor, req Request, outputDir string, compressDumps bool) Result {
	res := Result{Request: req}

	a, err := archive.Open(req.Path)
	if err != nil {
		res.Err = err
		return res
	}
	defer a.Close()

	parseWarnings, err := a.Parse()
	if err != nil {
		res.Err = fmt.Errorf("parse %s: %w", req.Path, err)
		return res
	}
	for _, w := range parseWarnings {
		res.Warnings = append(res.Warnings, w.Message)
	}

	img, matWarnings, err := a.Materialize(compressor)
	if err != nil {
		res.Err = fmt.Errorf("materialize %s: %w", req.Path, err)
		return res
	}
	for _, w := range matWarnings {
		res.Warnings = append(res.Warnings, w.Message)
	}

	psfPath := req.PSF.resolve(a.FileName)
	var psfSize int64
	if psfPath != "" {
		if fi, err := os.Stat(psfPath); err == nil {
			psfSize = fi.Size()
		}
	}

	asset, parseWarnings2, reports, err := midway.Parse(img.Buffer, psfSize)
	if err != nil {
		res.Err = fmt.Errorf("midway parse %s: %w", req.Path, err)
		return res
	}
	for _, w := range parseWarnings2 {
		res.Warnings = append(res.Warnings, w.Message)
	}
	for _, r := range reports {
		res.Reports = append(res.Reports, fmt.Sprintf("%s: %s", r.Kind, r.Message))
	}

	sink, err := dumpsink.New(filepath.Join(outputDir, a.FileName), compressDumps)
	if err != nil {
		res.Err = err
		return res
	}
	defer sink.Close()

	if err := sink.WriteBlob(a.FileName+".upk", asset.Buffer); err != nil {
		res.Err = err
		return res
	}
	names, exports, imports := asset.DumpTables()
	if err := sink.WriteText("names.txt", names); err != nil {
		res.Err = err
		return res
	}
	if err := sink.WriteText("exports.txt", exports); err != nil {
		res.Err = err
		return res
	}
	if err := sink.WriteText("imports.txt", imports); err != nil {
		res.Err = err
		return res
	}
	psfLines, bulkLines := asset.DumpExternalTables()
	if err := sink.WriteText("psf_tables.txt", psfLines); err != nil {
		res.Err = err
		return res
	}
	if err := sink.WriteText("bulk_tables.txt", bulkLines); err != nil {
		res.Err = err
		return res
	}

	return res
}
