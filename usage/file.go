package usage

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/petal-labs/scribe/core"
)

// File appends records as JSON Lines. Each Append opens, writes and closes
// the file so that several processes can share one log.
type File struct {
	mu   sync.Mutex
	path string
}

// NewFile returns a File recorder writing to path. The parent directory is
// created on first append.
func NewFile(path string) *File {
	return &File{path: path}
}

// Path returns the log location.
func (f *File) Path() string { return f.path }

// Append writes rec as one line.
func (f *File) Append(_ context.Context, rec core.UsageRecord) error {
	line, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("usage: encode record: %w", err)
	}
	line = append(line, '\n')

	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("usage: %w", err)
	}
	fh, err := os.OpenFile(f.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("usage: open log: %w", err)
	}
	if _, err := fh.Write(line); err != nil {
		fh.Close()
		return fmt.Errorf("usage: write log: %w", err)
	}
	return fh.Close()
}

// ReadFile loads every record from a JSON Lines log. A missing file yields
// no records.
func ReadFile(path string) ([]core.UsageRecord, error) {
	fh, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("usage: open log: %w", err)
	}
	defer fh.Close()
	return Decode(fh)
}

// Decode reads JSON Lines records from r. Blank lines are skipped.
func Decode(r io.Reader) ([]core.UsageRecord, error) {
	var records []core.UsageRecord
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	line := 0
	for sc.Scan() {
		line++
		data := sc.Bytes()
		if len(data) == 0 {
			continue
		}
		var rec core.UsageRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			return records, fmt.Errorf("usage: line %d: %w", line, err)
		}
		records = append(records, rec)
	}
	if err := sc.Err(); err != nil {
		return records, fmt.Errorf("usage: read log: %w", err)
	}
	return records, nil
}

var _ core.UsageRecorder = (*File)(nil)
