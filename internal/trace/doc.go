// Package trace is the logging layer of cxxsema: structured span events
// for the driver, the analysis passes of each translation unit and the
// expensive per-node work (instantiation, overload resolution).
//
// Tracing is off unless a CLI flag enables it:
//
//	cxxsema diag --trace=- --trace-level=phase src/
//
// Events go to a stream (text or NDJSON), to an in-memory ring that the
// CLI dumps when it panics, or to both.
//
// Levels select scopes:
//
//   - LevelOff: nothing
//   - LevelError: only the crash dump of the ring
//   - LevelPhase: driver and pass spans (lex, parse, analyze, freeze)
//   - LevelDetail: per translation unit
//   - LevelDebug: per node
//
// The tracer travels with the context:
//
//	ctx = trace.WithTracer(ctx, t)
//	span := trace.Begin(trace.FromContext(ctx), trace.ScopePass, "parse", 0)
//	defer span.End("")
package trace
