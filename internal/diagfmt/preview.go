package diagfmt

import (
	"fmt"
	"strings"

	"fortio.org/safecast"

	"cxxsema/internal/diag"
	"cxxsema/internal/source"
)

// fixEditPreview holds the lines touched by an edit before and after it is
// applied.
type fixEditPreview struct {
	before []string
	after  []string
}

func buildFixEditPreview(fs *source.FileSet, edit diag.FixEdit) (fixEditPreview, error) {
	if fs == nil {
		return fixEditPreview{}, fmt.Errorf("preview: nil file set")
	}
	file := fs.Get(edit.Span.File)
	if file == nil {
		return fixEditPreview{}, fmt.Errorf("preview: unknown file %d", edit.Span.File)
	}
	size, err := safecast.Conv[uint32](len(file.Content))
	if err != nil {
		return fixEditPreview{}, fmt.Errorf("preview: %w", err)
	}
	if edit.Span.Start > edit.Span.End || edit.Span.End > size {
		return fixEditPreview{}, fmt.Errorf("preview: edit %d..%d outside file of %d bytes", edit.Span.Start, edit.Span.End, size)
	}

	start, end := fs.Resolve(edit.Span)
	blockStart := lineBounds(file, start.Line, size).start
	blockEnd := max(lineBounds(file, max(end.Line, start.Line), size).end, blockStart)

	original := file.Content[blockStart:blockEnd]
	relStart, relEnd := edit.Span.Start-blockStart, edit.Span.End-blockStart

	var after strings.Builder
	after.Write(original[:relStart])
	after.WriteString(edit.NewText)
	after.Write(original[relEnd:])

	return fixEditPreview{
		before: previewLines(string(original)),
		after:  previewLines(after.String()),
	}, nil
}

type lineRange struct{ start, end uint32 }

// lineBounds returns the byte range of a 1-based line, newline excluded.
func lineBounds(f *source.File, line, size uint32) lineRange {
	r := lineRange{end: size}
	if line > 1 {
		if int(line-2) >= len(f.LineIdx) {
			return lineRange{start: size, end: size}
		}
		r.start = f.LineIdx[line-2] + 1
	}
	if line >= 1 && int(line-1) < len(f.LineIdx) {
		r.end = f.LineIdx[line-1]
	}
	return r
}

func previewLines(text string) []string {
	if text == "" {
		return nil
	}
	return strings.Split(strings.TrimRight(text, "\n"), "\n")
}
