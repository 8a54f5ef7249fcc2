package services

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// SkipLog is the append-only diagnostic sink for rows an import batch could
// not store. One SkipLog is opened per batch run and must be closed on every
// exit path so no diagnostic lines are lost.
type SkipLog struct {
	mu   sync.Mutex
	file *os.File
	w    *bufio.Writer
}

// OpenSkipLog opens (creating if needed) the named log file in dir for
// appending. The file outlives the batch; successive batches append to it.
func OpenSkipLog(dir, name string) (*SkipLog, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create skip log directory: %w", err)
	}

	path := filepath.Join(dir, name)
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open skip log %s: %w", path, err)
	}

	return &SkipLog{file: file, w: bufio.NewWriter(file)}, nil
}

// Logf appends one formatted line to the log.
func (l *SkipLog) Logf(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.w, format+"\n", args...)
}

// Close flushes buffered lines and releases the file handle.
func (l *SkipLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	flushErr := l.w.Flush()
	closeErr := l.file.Close()
	if flushErr != nil {
		return fmt.Errorf("failed to flush skip log: %w", flushErr)
	}
	if closeErr != nil {
		return fmt.Errorf("failed to close skip log: %w", closeErr)
	}
	return nil
}

// Path returns the log file's location, for operator-facing messages.
func (l *SkipLog) Path() string {
	return l.file.Name()
}
