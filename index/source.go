package index

import (
	"iter"
	"os"

	"github.com/intellect4all/logloglog/wrapmath"
)

// ByteSource is spec.md §6's "external random-access byte source":
// whatever Index reads line text back out of. Open always uses a
// fileSource over the opened *os.File; it takes no other ByteSource.
type ByteSource interface {
	ReadAt(p []byte, off int64) (int, error)
	Len() (int64, error)
}

// fileSource adapts *os.File to ByteSource.
type fileSource struct{ f *os.File }

func (s fileSource) ReadAt(p []byte, off int64) (int, error) { return s.f.ReadAt(p, off) }

func (s fileSource) Len() (int64, error) {
	info, err := s.f.Stat()
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// WidthFunc computes the display width index.Update stores for a line
// of text (spec.md §6's width_fn).
type WidthFunc func(text string) uint16

// DefaultWidthFunc wraps wrapmath.Width, which already saturates at
// 65535 per spec.md §7's BadWidth policy.
func DefaultWidthFunc(text string) uint16 { return wrapmath.Width(text) }

// SplitFunc divides newly-read source bytes into complete logical
// lines (spec.md §6's split_fn). Implementations must drop a trailing
// partial line (no terminator) rather than yielding it, and must
// consume exactly len(line)+1 source bytes per yielded line — update()
// relies on that to track byte offsets without a second pass.
type SplitFunc func(b []byte) iter.Seq[string]

// DefaultSplitFunc splits on '\n' and drops a trailing partial line,
// matching spec.md §6's default.
func DefaultSplitFunc(b []byte) iter.Seq[string] {
	return func(yield func(string) bool) {
		start := 0
		for i := 0; i < len(b); i++ {
			if b[i] == '\n' {
				if !yield(string(b[start:i])) {
					return
				}
				start = i + 1
			}
		}
	}
}
