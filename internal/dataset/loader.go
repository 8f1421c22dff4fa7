package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Loader reads pricing files and keeps the first successful result per path
// for the life of the Loader. Source files are assumed not to change while
// the process runs.
type Loader struct {
	mu    sync.Mutex
	cache map[string]*Table
	open  func(path string) (io.ReadCloser, error)
}

// NewLoader creates a Loader that reads from the local filesystem.
func NewLoader() *Loader {
	return &Loader{
		cache: make(map[string]*Table),
		open: func(path string) (io.ReadCloser, error) {
			return os.Open(path)
		},
	}
}

// Load returns the Table for path, reading the file only on the first call.
// Failures are not cached, so a later call retries the read.
func (l *Loader) Load(path string) (*Table, error) {
	key := filepath.Clean(path)

	l.mu.Lock()
	defer l.mu.Unlock()

	if t, ok := l.cache[key]; ok {
		return t, nil
	}

	f, err := l.open(path)
	if err != nil {
		return nil, &DataLoadError{Path: path, Err: err}
	}
	defer f.Close()

	t, err := Read(f, path)
	if err != nil {
		return nil, err
	}
	l.cache[key] = t
	return t, nil
}

var defaultLoader = NewLoader()

// Load reads path through a process-wide Loader.
func Load(path string) (*Table, error) {
	return defaultLoader.Load(path)
}

// Cached reports whether path has already been loaded.
func (l *Loader) Cached(path string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.cache[filepath.Clean(path)]
	return ok
}

// Read parses a pricing file from r. source names the input in errors.
func Read(r io.Reader, source string) (*Table, error) {
	src := newSourceReader(r)
	reader := csv.NewReader(src)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	// The header is the first row with any content
	var header []string
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return nil, &DataLoadError{Path: source, Err: ErrEmptyFile}
		}
		if err != nil {
			return nil, &DataLoadError{Path: source, Line: 1, Err: fmt.Errorf("read header: %w", err)}
		}
		if !blankRow(row) {
			header = row
			break
		}
	}
	idx, err := ValidateHeaders(header, FieldSpecs)
	if err != nil {
		line, _ := reader.FieldPos(0)
		return nil, &DataLoadError{Path: source, Line: line, Err: err}
	}

	records := make([]Record, 0, 256)
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			loadErr := &DataLoadError{Path: source, Err: err}
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				loadErr.Line = pe.Line
			}
			return nil, loadErr
		}
		if blankRow(row) {
			continue
		}

		rec, err := parseRecord(row, idx)
		if err != nil {
			line, _ := reader.FieldPos(0)
			loadErr := &DataLoadError{Path: source, Line: line, Err: err}
			var ce *cellError
			if errors.As(err, &ce) {
				loadErr.Column = ce.column
				loadErr.Err = ce.err
			}
			return nil, loadErr
		}
		records = append(records, rec)
	}

	return &Table{
		ID:       uuid.New(),
		Source:   source,
		LoadedAt: time.Now().UTC(),
		Bytes:    src.n,
		Records:  records,
	}, nil
}

func blankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
