package driver

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"runtime"
	"slices"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"cxxsema/internal/diag"
	"cxxsema/internal/observ"
	"cxxsema/internal/source"
	"cxxsema/internal/trace"
)

// DefaultExtensions are picked up by DiagnoseDir when Options.Extensions
// is empty.
var DefaultExtensions = []string{".c", ".cc", ".cpp", ".cxx", ".h", ".hh", ".hpp"}

// DirResult holds one Result per source file, in path order.
type DirResult struct {
	FileSet *source.FileSet
	Files   []*Result
	Timing  *observ.Report
}

// HasErrors reports whether any file produced an error diagnostic.
func (r *DirResult) HasErrors() bool {
	for _, f := range r.Files {
		if f.Bag.HasErrors() {
			return true
		}
	}
	return false
}

// ListSources returns the files under dir with one of exts, sorted.
// Hidden directories are skipped.
func ListSources(dir string, exts []string) ([]string, error) {
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if slices.Contains(exts, filepath.Ext(path)) {
			files = append(files, filepath.ToSlash(path))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}
	// Сортируем для детерминированного порядка
	sort.Strings(files)
	return files, nil
}

// DiagnoseDir analyses every source file under dir as its own translation
// unit, at most opts.Jobs at a time. Files are loaded up front, so a read
// failure becomes an IOLoadFileError diagnostic of that file rather than an
// error of the run.
func DiagnoseDir(ctx context.Context, dir string, opts Options) (*DirResult, error) {
	files, err := ListSources(dir, opts.Extensions)
	if err != nil {
		return nil, err
	}
	fileSet := source.NewFileSet()
	if abs, err := filepath.Abs(dir); err == nil {
		fileSet.SetBaseDir(abs)
	}
	out := &DirResult{FileSet: fileSet, Files: make([]*Result, len(files))}
	if len(files) == 0 {
		return out, nil
	}

	tracer := trace.FromContext(ctx)
	dirSpan := trace.Begin(tracer, trace.ScopeDriver, "diagnose_dir", trace.ParentID(ctx))
	dirSpan.WithExtra("files", fmt.Sprint(len(files)))
	defer dirSpan.End("")
	ctx = trace.WithSpan(ctx, dirSpan)

	// FileSet не потокобезопасен: загружаем всё до запуска горутин.
	loaded := make([]*source.File, len(files))
	loadErrs := make([]error, len(files))
	for i, path := range files {
		id, err := fileSet.Load(path)
		if err != nil {
			loadErrs[i] = err
			continue
		}
		loaded[i] = fileSet.Get(id)
	}
	for _, path := range files {
		emit(opts.Progress, path, "", StatusQueued, nil, 0)
	}

	var shared *observ.Timer
	if opts.EnableTimings {
		shared = observ.NewTimer()
	}

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(files)))

	// индексы уникальны для каждой горутины, мьютекс не нужен
	for i, path := range files {
		i, path := i, path
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if loadErrs[i] != nil {
				bag := diag.NewBag(opts.MaxDiagnostics)
				diag.ReportError(diag.BagReporter{Bag: bag}, diag.IOLoadFileError, source.Span{},
					fmt.Sprintf("failed to load %s: %v", path, loadErrs[i])).Emit()
				out.Files[i] = &Result{Path: path, FileSet: fileSet, Bag: bag}
				emit(opts.Progress, path, StageLex, StatusError, loadErrs[i], 0)
				return nil
			}
			res, err := run(gctx, fileSet, loaded[i], opts, shared)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			out.Files[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	emit(opts.Progress, "", opts.until(), StatusDone, nil, 0)
	if shared != nil {
		report := shared.Report()
		out.Timing = &report
	}
	return out, nil
}
