package index

import (
	"os"
	"path/filepath"

	"github.com/intellect4all/logloglog/common"
)

// Config holds configuration for an Index, mirroring the teacher's
// btree.Config/DefaultConfig shape (btree/btree.go).
type Config struct {
	SourcePath string
	CacheDir   string
	WidthFunc  WidthFunc
	SplitFunc  SplitFunc
	Logger     common.Logger
}

// DefaultConfig returns sensible defaults for indexing sourcePath: the
// platform per-user cache root plus "logloglog" (spec.md §6), the
// default width/split functions, and a common.StdLogger.
func DefaultConfig(sourcePath string) Config {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		cacheDir = os.TempDir()
	}
	return Config{
		SourcePath: sourcePath,
		CacheDir:   filepath.Join(cacheDir, "logloglog"),
		WidthFunc:  DefaultWidthFunc,
		SplitFunc:  DefaultSplitFunc,
		Logger:     common.NewStdLogger(),
	}
}
