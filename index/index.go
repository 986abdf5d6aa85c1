// Package index assembles widtharray, offsetarray, and wraptree into
// spec.md §4.6's top-level object: a raw log file plus its incremental
// width/position index, served as row-addressable Views.
//
// Grounded on hashindex/recovery.go's directory-scan-and-replay shape
// and btree/pager.go's create-vs-load branching (NewPager tries
// os.OpenFile, falls back to createPager): Open tries to load a cache
// directory keyed by the source's fingerprint, validates the metadata
// sidecar, and falls back to a from-scratch build on any mismatch —
// the same shape as hashindex's segment recovery falling back to "no
// segments, will create new one."
package index

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/intellect4all/logloglog/common"
	"github.com/intellect4all/logloglog/offsetarray"
	"github.com/intellect4all/logloglog/widtharray"
	"github.com/intellect4all/logloglog/wraptree"
)

// Index binds a source log file to its on-disk width/position index.
type Index struct {
	config Config
	logger common.Logger

	sourceFile *os.File
	source     ByteSource

	cacheDir string
	metaPath string
	meta     Metadata

	widths  *widtharray.Array
	offsets *offsetarray.Array
	tree    *wraptree.Tree

	closed bool
}

// Open identifies the source, computes its fingerprint, locates or
// creates cache files, validates metadata, restores the right spine,
// then calls Update (spec.md §4.6).
func Open(config Config) (*Index, error) {
	if config.SourcePath == "" {
		return nil, fmt.Errorf("index: %w: SourcePath is empty", common.ErrInvalidConfig)
	}
	if config.WidthFunc == nil {
		config.WidthFunc = DefaultWidthFunc
	}
	if config.SplitFunc == nil {
		config.SplitFunc = DefaultSplitFunc
	}
	if config.Logger == nil {
		config.Logger = common.NopLogger{}
	}

	f, err := os.OpenFile(config.SourcePath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("index: open source %s: %w", config.SourcePath, err)
	}

	dev, ino, ctimeNsec, err := statSource(config.SourcePath)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("index: stat source %s: %w", config.SourcePath, err)
	}

	fp := fingerprint(dev, ino, ctimeNsec)
	base := filepath.Base(config.SourcePath)
	cacheDir := filepath.Join(config.CacheDir, base+"."+fp)
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		f.Close()
		return nil, fmt.Errorf("index: create cache dir %s: %w", cacheDir, err)
	}

	ix := &Index{
		config:     config,
		logger:     config.Logger,
		sourceFile: f,
		source:     fileSource{f},
		cacheDir:   cacheDir,
		metaPath:   filepath.Join(cacheDir, "metadata"),
	}

	widths, err := widtharray.Open(filepath.Join(cacheDir, "widths.dat"))
	if err != nil {
		f.Close()
		return nil, err
	}
	offsets, err := offsetarray.Open(filepath.Join(cacheDir, "offsets.dat"))
	if err != nil {
		widths.Close()
		f.Close()
		return nil, err
	}
	tree, err := wraptree.OpenTree(filepath.Join(cacheDir, "nodes.dat"))
	if err != nil {
		widths.Close()
		offsets.Close()
		f.Close()
		return nil, err
	}
	ix.widths, ix.offsets, ix.tree = widths, offsets, tree

	meta, loadErr := loadMetadata(ix.metaPath)
	switch {
	case loadErr == nil && meta.Matches(dev, ino, ctimeNsec):
		ix.meta = meta
		if meta.Height > 0 {
			if err := ix.tree.Restore(meta.RootRef, int(meta.Height), meta.TotalLines); err != nil {
				ix.logger.Printf("index: restore failed, rebuilding: %v", err)
				if err := ix.rebuild(dev, ino, ctimeNsec); err != nil {
					ix.Close()
					return nil, err
				}
			}
		}
	case loadErr == nil:
		ix.logger.Printf("index: source identity changed, rebuilding cache %s", cacheDir)
		if err := ix.rebuild(dev, ino, ctimeNsec); err != nil {
			ix.Close()
			return nil, err
		}
	default:
		if !os.IsNotExist(loadErr) {
			ix.logger.Printf("index: metadata unreadable (%v), rebuilding cache %s", loadErr, cacheDir)
		}
		if err := ix.rebuild(dev, ino, ctimeNsec); err != nil {
			ix.Close()
			return nil, err
		}
	}

	if err := ix.Update(); err != nil {
		ix.Close()
		return nil, err
	}
	return ix, nil
}

// rebuild truncates every index file and starts indexing from byte 0
// of the source (spec.md §4.5's rebuild path, §7's Corruption/Rotation
// policy: "log and rebuild from scratch").
func (ix *Index) rebuild(dev, ino uint64, ctimeNsec int64) error {
	if err := ix.widths.Truncate(); err != nil {
		return err
	}
	if err := ix.offsets.Truncate(); err != nil {
		return err
	}
	if err := ix.tree.Reset(); err != nil {
		return err
	}
	ix.meta = freshMetadata(dev, ino, ctimeNsec)
	return nil
}

// Update reads source bytes from indexed_byte_length to current EOF,
// feeds them to the splitter, and for each completed line appends to
// widths, offsets, and the tree. A trailing partial line is not
// indexed and is retried on the next call (spec.md §4.6).
func (ix *Index) Update() error {
	if ix.closed {
		return common.ErrClosed
	}

	srcLen, err := ix.source.Len()
	if err != nil {
		return err
	}

	dev, ino, ctimeNsec, err := statSource(ix.config.SourcePath)
	if err != nil {
		return err
	}
	if !ix.meta.Matches(dev, ino, ctimeNsec) || uint64(srcLen) < ix.meta.IndexedByteLen {
		ix.logger.Printf("index: rotation detected for %s, rebuilding", ix.config.SourcePath)
		if err := ix.rebuild(dev, ino, ctimeNsec); err != nil {
			return err
		}
	}

	n := uint64(srcLen) - ix.meta.IndexedByteLen
	if n == 0 {
		return nil
	}

	buf := make([]byte, n)
	if _, err := ix.source.ReadAt(buf, int64(ix.meta.IndexedByteLen)); err != nil {
		return fmt.Errorf("index: read new bytes: %w", err)
	}

	var consumed uint64
	for line := range ix.config.SplitFunc(buf) {
		offset := ix.meta.IndexedByteLen + consumed
		w := ix.config.WidthFunc(line)

		if err := ix.offsets.Append(offset); err != nil {
			return err
		}
		if err := ix.widths.Append(w); err != nil {
			return err
		}
		if err := ix.tree.Append(w); err != nil {
			return err
		}
		consumed += uint64(len(line)) + 1
	}

	ix.meta.IndexedByteLen += consumed
	ix.meta.TotalLines = ix.tree.Len()
	rootRef, height := ix.tree.RootRef()
	ix.meta.RootRef = rootRef
	ix.meta.Height = uint32(height)
	return ix.meta.save(ix.metaPath)
}

// Len returns the number of indexed lines.
func (ix *Index) Len() uint64 { return ix.tree.Len() }

// Get returns the text of logical line, read back from the source via
// its recorded byte offset (spec.md §4.6's deferred "line → (offset,
// length)" mechanism, resolved here via offsetarray).
func (ix *Index) Get(line uint64) (string, error) {
	total := ix.tree.Len()
	if line >= total {
		return "", common.ErrOutOfRange
	}

	start, err := ix.offsets.Get(line)
	if err != nil {
		return "", err
	}

	var end uint64
	if line+1 < total {
		next, err := ix.offsets.Get(line + 1)
		if err != nil {
			return "", err
		}
		end = next - 1
	} else {
		end = ix.meta.IndexedByteLen - 1
	}

	if end < start {
		return "", fmt.Errorf("%w: line %d has inverted offsets", common.ErrCorruption, line)
	}
	buf := make([]byte, end-start)
	if _, err := ix.source.ReadAt(buf, int64(start)); err != nil {
		return "", err
	}
	return string(buf), nil
}

// Append writes text (adding a trailing '\n' if missing) to the source
// file and indexes it (spec.md §4.6; the newline-append rule resolves
// SPEC_FULL.md's mid-line-append Open Question).
func (ix *Index) Append(text string) error {
	if ix.closed {
		return common.ErrClosed
	}
	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	if _, err := ix.sourceFile.WriteString(text); err != nil {
		return fmt.Errorf("index: append to source: %w", err)
	}
	return ix.Update()
}

// At returns a View over display rows at width W, covering rows
// [start, end) of rows_at_width(W) (end == nil means "to the end").
func (ix *Index) At(W uint32, start uint64, end *uint64) (*View, error) {
	total, err := ix.tree.RowsAtWidth(W)
	if err != nil {
		return nil, err
	}
	if start > total {
		start = total
	}
	stop := total
	if end != nil && *end < stop {
		stop = *end
	}
	if stop < start {
		stop = start
	}
	return &View{ix: ix, width: W, start: start, length: stop - start}, nil
}

// Stats reports a diagnostic snapshot.
func (ix *Index) Stats() common.Stats {
	stats := ix.tree.Stats()
	stats.IndexedBytes = ix.meta.IndexedByteLen
	return stats
}

// Sync flushes every backing file to disk.
func (ix *Index) Sync() error {
	if err := ix.widths.Sync(); err != nil {
		return err
	}
	if err := ix.offsets.Sync(); err != nil {
		return err
	}
	if err := ix.tree.Sync(); err != nil {
		return err
	}
	return ix.sourceFile.Sync()
}

// Close releases every backing file.
func (ix *Index) Close() error {
	if ix.closed {
		return nil
	}
	ix.closed = true

	var firstErr error
	record := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if ix.widths != nil {
		record(ix.widths.Close())
	}
	if ix.offsets != nil {
		record(ix.offsets.Close())
	}
	if ix.tree != nil {
		record(ix.tree.Close())
	}
	if ix.sourceFile != nil {
		record(ix.sourceFile.Close())
	}
	return firstErr
}
