package common

import "log"

// Stats describes the shape and size of a built index, the logloglog
// analogue of the teacher's storage-engine Stats (NumKeys/WriteAmp/...):
// here there is nothing to amplify since every write is a single append,
// so the fields instead describe tree geometry.
type Stats struct {
	TotalLines   uint64
	TreeHeight   int
	NodeCount    uint32
	WidthBytes   int64 // size of widths.dat
	NodeBytes    int64 // size of nodes.dat
	IndexedBytes uint64
}

// Logger is the minimal sink logloglog reports rebuilds and rotations
// through. The teacher never imports a logging library and instead calls
// fmt.Printf/fmt.Errorf directly at the failure site (see
// hashindex/recovery.go); Logger keeps that same plain-text register
// while letting a caller redirect or silence it.
type Logger interface {
	Printf(format string, args ...any)
}

// NopLogger discards everything. Useful in tests that don't want rebuild
// chatter on stderr.
type NopLogger struct{}

func (NopLogger) Printf(string, ...any) {}

// StdLogger backs Logger with the standard library's log package, the
// default DefaultConfig wires up so rebuild/rotation events are observable
// out of the box instead of silently discarded.
type StdLogger struct {
	*log.Logger
}

// NewStdLogger returns a StdLogger writing to stderr with log.Default's
// flags, prefixed so logloglog's own diagnostics are easy to grep for.
func NewStdLogger() StdLogger {
	return StdLogger{log.New(log.Writer(), "logloglog: ", log.LstdFlags)}
}
