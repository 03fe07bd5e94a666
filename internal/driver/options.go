package driver

import (
	"cxxsema/internal/dialect"
	"cxxsema/internal/project"
)

// Options controls how far and how strictly a translation unit is analysed.
type Options struct {
	// Until is the last stage to run; empty means StageFreeze. Names
	// resolve lazily, so lookup and overload diagnostics appear only once
	// the freeze stage forces them.
	Until Stage
	// Dialect forces C or C++; Unknown decides by extension, then by content.
	Dialect dialect.Kind

	MaxDiagnostics        int
	MaxNesting            int
	MaxInstantiationDepth int

	IgnoreWarnings   bool
	WarningsAsErrors bool
	EnableTimings    bool

	// Jobs bounds DiagnoseDir parallelism; 0 means GOMAXPROCS.
	Jobs int
	// Extensions selects the files DiagnoseDir picks up.
	Extensions []string

	Cache    *DiskCache
	Progress ProgressSink
}

// OptionsFromConfig maps a cxxsema.toml onto driver options. The caller
// applies command-line overrides afterwards.
func OptionsFromConfig(cfg project.Config) Options {
	return Options{
		Dialect:               cfg.DialectKind(),
		MaxDiagnostics:        cfg.Analysis.MaxDiagnostics,
		MaxNesting:            cfg.Analysis.MaxNesting,
		MaxInstantiationDepth: cfg.Analysis.MaxInstantiationDepth,
		Jobs:                  cfg.Driver.Jobs,
		Extensions:            cfg.Driver.Extensions,
	}
}

func (o Options) until() Stage {
	if o.Until == "" {
		return StageFreeze
	}
	return o.Until
}

func (o Options) reaches(s Stage) bool {
	return stageRank(o.until()) >= stageRank(s)
}

func stageRank(s Stage) int {
	switch s {
	case StageLex:
		return 1
	case StageParse:
		return 2
	case StageAnalyze:
		return 3
	case StageFreeze:
		return 4
	}
	return 0
}
