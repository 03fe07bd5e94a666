package driver

import (
	"context"
	"fmt"
	"time"

	"cxxsema/internal/ast"
	"cxxsema/internal/diag"
	"cxxsema/internal/dialect"
	"cxxsema/internal/lexer"
	"cxxsema/internal/observ"
	"cxxsema/internal/parser"
	"cxxsema/internal/sema"
	"cxxsema/internal/source"
	"cxxsema/internal/trace"
)

// Result is everything the pipeline produced for one translation unit.
// Fields past the last stage run stay nil; a cache hit fills only Bag.
type Result struct {
	Path    string
	FileSet *source.FileSet
	File    *source.File
	Dialect dialect.Kind
	Lexed   lexer.Result
	Builder *ast.Builder
	Unit    *sema.Unit
	Bag     *diag.Bag
	Timing  *observ.Report
	Cached  bool
}

// Diagnose loads path and runs the pipeline up to opts.Until.
func Diagnose(ctx context.Context, path string, opts Options) (*Result, error) {
	fs := source.NewFileSet()
	id, err := fs.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return run(ctx, fs, fs.Get(id), opts, nil)
}

// DiagnoseSource runs the pipeline over in-memory content; name picks the
// dialect by extension like a path would.
func DiagnoseSource(ctx context.Context, name string, content []byte, opts Options) (*Result, error) {
	fs := source.NewFileSet()
	id := fs.AddVirtual(name, content)
	return run(ctx, fs, fs.Get(id), opts, nil)
}

// Tokenize lexes path with macro expansion and nothing else.
func Tokenize(ctx context.Context, path string, opts Options) (*Result, error) {
	opts.Until = StageLex
	return Diagnose(ctx, path, opts)
}

// Parse lexes and parses path without semantic analysis.
func Parse(ctx context.Context, path string, opts Options) (*Result, error) {
	opts.Until = StageParse
	return Diagnose(ctx, path, opts)
}

// run drives one file. shared, when set, also receives every phase
// duration so a directory run can report totals.
func run(ctx context.Context, fs *source.FileSet, file *source.File, opts Options, shared *observ.Timer) (*Result, error) {
	res := &Result{
		Path:    file.Path,
		FileSet: fs,
		File:    file,
		Bag:     diag.NewBag(opts.MaxDiagnostics),
	}
	var timer *observ.Timer
	if opts.EnableTimings {
		timer = observ.NewTimer()
	}
	phase := func(name string, start time.Time, note string) {
		d := time.Since(start)
		timer.Add(name, d, note)
		shared.Add(name, d, note)
	}

	tracer := trace.FromContext(ctx)
	unitSpan := trace.Begin(tracer, trace.ScopeUnit, "unit", trace.ParentID(ctx))
	unitSpan.WithExtra("path", file.Path)
	defer unitSpan.End("")
	passSpan := func(name string) *trace.Span {
		return trace.Begin(tracer, trace.ScopePass, name, unitSpan.ID())
	}

	var key cacheKey
	if opts.Cache != nil {
		key = cacheKeyFor(file, opts)
		if hit, err := opts.Cache.Load(key, file, res.Bag); err != nil {
			diag.ReportWarning(diag.BagReporter{Bag: res.Bag}, diag.IOCacheError, source.Span{}, err.Error()).Emit()
		} else if hit {
			res.Cached = true
			res.Dialect = chooseDialect(file, opts, nil).kind
			trace.Point(tracer, trace.ScopeUnit, "cache_hit", file.Path, unitSpan.ID())
			emit(opts.Progress, file.Path, opts.until(), StatusCached, nil, 0)
			finish(res, opts, timer)
			return res, nil
		}
	}
	rep := diag.BagReporter{Bag: res.Bag}

	start := time.Now()
	emit(opts.Progress, file.Path, StageLex, StatusWorking, nil, 0)
	span := passSpan("lex")
	choice := chooseDialect(file, opts, rep)
	res.Dialect = choice.kind
	ev := dialect.NewEvidence()
	res.Lexed = lexer.Tokenize(file, lexer.Options{Reporter: rep, CXX: choice.kind == dialect.CXX, Evidence: ev})
	if choice.byExtension {
		reportDialectMismatch(rep, choice.kind, ev)
	}
	span.End(fmt.Sprintf("tokens=%d", len(res.Lexed.Tokens)))
	phase("lex", start, "")
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if opts.reaches(StageParse) {
		start = time.Now()
		emit(opts.Progress, file.Path, StageParse, StatusWorking, nil, 0)
		span = passSpan("parse")
		res.Builder = ast.NewBuilder(res.Lexed.Tokens, res.Lexed.Expansions, ast.Hints{})
		pr := parser.ParseFile(res.Builder, parser.Options{
			Reporter:   rep,
			CXX:        choice.kind == dialect.CXX,
			MaxNesting: opts.MaxNesting,
		})
		note := fmt.Sprintf("nodes=%d problems=%d", res.Builder.Len(), pr.Problems)
		span.End(note)
		phase("parse", start, note)
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	if opts.reaches(StageAnalyze) {
		start = time.Now()
		emit(opts.Progress, file.Path, StageAnalyze, StatusWorking, nil, 0)
		res.Unit = sema.Analyze(res.Builder, sema.Options{
			Reporter:              rep,
			CXX:                   choice.kind == dialect.CXX,
			Macros:                res.Lexed.Macros,
			MaxInstantiationDepth: opts.MaxInstantiationDepth,
			Tracer:                tracer,
		})
		phase("analyze", start, "")
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	if opts.reaches(StageFreeze) {
		start = time.Now()
		emit(opts.Progress, file.Path, StageFreeze, StatusWorking, nil, 0)
		span = passSpan("freeze")
		res.Unit.Freeze()
		note := fmt.Sprintf("instances=%d", res.Unit.Instantiations().Len())
		span.End(note)
		phase("freeze", start, note)
	}

	if opts.Cache != nil {
		if err := opts.Cache.Store(key, file, res.Dialect, res.Bag); err != nil {
			trace.Point(tracer, trace.ScopeUnit, "cache_store_failed", err.Error(), unitSpan.ID())
		}
	}
	finish(res, opts, timer)
	status := StatusDone
	if res.Bag.HasErrors() {
		status = StatusError
	}
	emit(opts.Progress, file.Path, opts.until(), status, nil, 0)
	return res, nil
}

// finish applies the severity policy and appends the timing report.
func finish(res *Result, opts Options, timer *observ.Timer) {
	if opts.IgnoreWarnings {
		res.Bag.Filter(func(d *diag.Diagnostic) bool {
			return d.Severity != diag.SevWarning && d.Severity != diag.SevInfo
		})
	}
	if opts.WarningsAsErrors {
		res.Bag.Transform(func(d *diag.Diagnostic) {
			if d.Severity == diag.SevWarning {
				d.Severity = diag.SevError
			}
		})
	}
	res.Bag.Sort()
	if timer != nil {
		report := timer.Report()
		res.Timing = &report
		appendTimingDiagnostic(res.Bag, timingPayload{
			Kind:    "file",
			Path:    res.Path,
			TotalMS: report.TotalMS,
			Phases:  report.Phases,
		})
	}
}
