package driver

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"cxxsema/internal/diag"
	"cxxsema/internal/dialect"
	"cxxsema/internal/project"
	"cxxsema/internal/source"
	"cxxsema/internal/version"
)

// Current schema version - increment when DiskPayload format changes
const diskCacheSchemaVersion uint16 = 2

// DiskCache хранит диагностики файлов на диске; ключ: хеш содержимого и опций.
// Thread-safe for concurrent access.
type DiskCache struct {
	mu  sync.RWMutex
	dir string
}

// DiskPayload is the cached outcome of analysing one file. Spans are
// stored relative to the file so that they survive a different FileID.
type DiskPayload struct {
	Schema      uint16
	Tool        string
	Path        string
	Dialect     uint8
	Diagnostics []cachedDiagnostic
}

type cachedDiagnostic struct {
	Severity uint8
	Code     uint16
	Message  string
	Span     cachedSpan
	Notes    []cachedNote
	Fixes    []cachedFix
}

type cachedFix struct {
	Title string
	Edits []cachedEdit
}

type cachedEdit struct {
	Span    cachedSpan
	NewText string
}

type cachedNote struct {
	Span cachedSpan
	Msg  string
}

type cachedSpan struct {
	Anchored   bool
	Start, End uint32
}

type cacheKey = project.Digest

// OpenDiskCache initializes and returns a disk cache at the standard location.
func OpenDiskCache(app string) (*DiskCache, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("disk cache: %w", err)
		}
		base = filepath.Join(home, ".cache")
	}
	return OpenDiskCacheAt(filepath.Join(base, app))
}

// OpenDiskCacheAt uses dir as the cache root, creating it if needed.
func OpenDiskCacheAt(dir string) (*DiskCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("disk cache: %w", err)
	}
	return &DiskCache{dir: dir}, nil
}

// Dir returns the cache root.
func (c *DiskCache) Dir() string { return c.dir }

func (c *DiskCache) pathFor(key cacheKey) string {
	hexKey := hex.EncodeToString(key[:])
	// подкаталог по первым двум символам, чтобы не держать всё в одной папке
	return filepath.Join(c.dir, "diags", hexKey[:2], hexKey+".mp")
}

// cacheKeyFor hashes the file content together with every option that
// changes the diagnostic list.
func cacheKeyFor(file *source.File, opts Options) cacheKey {
	return project.Combine(project.Digest(file.Hash),
		[]byte(strconv.Itoa(int(diskCacheSchemaVersion))),
		[]byte(version.Version),
		[]byte(filepath.Ext(file.Path)),
		[]byte(opts.Dialect.String()),
		[]byte(opts.until()),
		[]byte(fmt.Sprintf("%d/%d/%d", opts.MaxDiagnostics, opts.MaxNesting, opts.MaxInstantiationDepth)),
	)
}

// Put serializes and writes a payload to the disk cache.
func (c *DiskCache) Put(key cacheKey, payload *DiskPayload) (err error) {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = f.Close()
			_ = os.Remove(f.Name())
		}
	}()

	if err = msgpack.NewEncoder(f).Encode(payload); err != nil {
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	// Атомарная замена
	return os.Rename(f.Name(), p)
}

// Get reads and deserializes a payload from the disk cache.
func (c *DiskCache) Get(key cacheKey, out *DiskPayload) (bool, error) {
	if c == nil {
		return false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	defer f.Close()
	if err := msgpack.NewDecoder(f).Decode(out); err != nil {
		return false, fmt.Errorf("corrupt cache entry: %w", err)
	}
	return true, nil
}

// DropAll invalidates the cache, useful after format changes.
func (c *DiskCache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	// тривиально: переименуем каталог и удалим
	old := c.dir + ".old-" + time.Now().Format("20060102150405")
	if err := os.Rename(c.dir, old); err != nil {
		return err
	}
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return err
	}
	return os.RemoveAll(old)
}

// Store records the diagnostics of file under key.
func (c *DiskCache) Store(key cacheKey, file *source.File, k dialect.Kind, bag *diag.Bag) error {
	payload := &DiskPayload{
		Schema:  diskCacheSchemaVersion,
		Tool:    version.Version,
		Path:    file.Path,
		Dialect: uint8(k),
	}
	for _, d := range bag.Items() {
		cd := cachedDiagnostic{
			Severity: uint8(d.Severity),
			Code:     uint16(d.Code),
			Message:  d.Message,
			Span:     toCachedSpan(d.Primary, file.ID),
		}
		for _, n := range d.Notes {
			cd.Notes = append(cd.Notes, cachedNote{Span: toCachedSpan(n.Span, file.ID), Msg: n.Msg})
		}
		for _, f := range d.Fixes {
			cf := cachedFix{Title: f.Title}
			for _, e := range f.Edits {
				cf.Edits = append(cf.Edits, cachedEdit{Span: toCachedSpan(e.Span, file.ID), NewText: e.NewText})
			}
			cd.Fixes = append(cd.Fixes, cf)
		}
		payload.Diagnostics = append(payload.Diagnostics, cd)
	}
	return c.Put(key, payload)
}

// Load restores cached diagnostics into bag. A payload from another schema
// counts as a miss.
func (c *DiskCache) Load(key cacheKey, file *source.File, bag *diag.Bag) (bool, error) {
	var payload DiskPayload
	ok, err := c.Get(key, &payload)
	if err != nil || !ok {
		return false, err
	}
	if payload.Schema != diskCacheSchemaVersion {
		return false, nil
	}
	for _, cd := range payload.Diagnostics {
		d := diag.Diagnostic{
			Severity: diag.Severity(cd.Severity),
			Code:     diag.Code(cd.Code),
			Message:  cd.Message,
			Primary:  cd.Span.restore(file.ID),
		}
		for _, n := range cd.Notes {
			d.Notes = append(d.Notes, diag.Note{Span: n.Span.restore(file.ID), Msg: n.Msg})
		}
		for _, cf := range cd.Fixes {
			f := diag.Fix{Title: cf.Title}
			for _, e := range cf.Edits {
				f.Edits = append(f.Edits, diag.FixEdit{Span: e.Span.restore(file.ID), NewText: e.NewText})
			}
			d.Fixes = append(d.Fixes, f)
		}
		bag.Add(d)
	}
	return true, nil
}

func toCachedSpan(sp source.Span, file source.FileID) cachedSpan {
	if sp.File != file || (sp.Start == 0 && sp.End == 0) {
		return cachedSpan{}
	}
	return cachedSpan{Anchored: true, Start: sp.Start, End: sp.End}
}

func (s cachedSpan) restore(file source.FileID) source.Span {
	if !s.Anchored {
		return source.Span{}
	}
	return source.Span{File: file, Start: s.Start, End: s.End}
}
