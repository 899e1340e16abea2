package forward

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// JSONLWriter appends JSON records to one file per UTC day under a directory.
type JSONLWriter struct {
	dir       string
	now       func() time.Time
	mutexes   map[string]*sync.Mutex
	mutexLock sync.Mutex
}

// NewJSONLWriter creates dir if it does not exist.
func NewJSONLWriter(dir string) (*JSONLWriter, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create %s: %w", dir, err)
	}
	return &JSONLWriter{
		dir:     dir,
		now:     time.Now,
		mutexes: make(map[string]*sync.Mutex),
	}, nil
}

// Filename returns the file records written at t go to.
func (w *JSONLWriter) Filename(t time.Time) string {
	return filepath.Join(w.dir, t.UTC().Format("2006-01-02.jsonl"))
}

// Append writes records to today's file, one per line, and returns the
// filename. All records of one call land in the same file even if the call
// spans midnight.
func (w *JSONLWriter) Append(records ...any) (string, error) {
	filename := w.Filename(w.now())
	mu := w.fileMutex(filename)

	mu.Lock()
	defer mu.Unlock()
	f, err := os.OpenFile(filename, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", filename, err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	for _, r := range records {
		if err := enc.Encode(r); err != nil {
			return "", fmt.Errorf("write %s: %w", filename, err)
		}
	}
	return filename, nil
}

// fileMutex returns the mutex for filename, creating it if needed. The map
// grows by one entry per day.
func (w *JSONLWriter) fileMutex(filename string) *sync.Mutex {
	w.mutexLock.Lock()
	defer w.mutexLock.Unlock()

	if _, ok := w.mutexes[filename]; !ok {
		w.mutexes[filename] = &sync.Mutex{}
	}
	return w.mutexes[filename]
}
