package logging

import (
	"io"

	"gopkg.in/natefinch/lumberjack.v2"
)

// FileOptions configures the optional rotated log file.
type FileOptions struct {
	Path       string
	MaxSizeMB  int
	MaxBackups int
}

// Output returns w, teed into a size-rotated file when opts.Path is set.
// The returned closer releases the file and is a no-op without one.
func Output(w io.Writer, opts FileOptions) (io.Writer, io.Closer) {
	if opts.Path == "" {
		return w, nopCloser{}
	}

	file := &lumberjack.Logger{
		Filename:   opts.Path,
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
		Compress:   true,
	}
	return io.MultiWriter(w, file), file
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
