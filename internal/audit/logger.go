package audit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Logger appends hash-chained entries to a JSONL file.
type Logger struct {
	mu    sync.Mutex
	path  string
	chain chain
}

// NewLogger opens or creates an audit log at path, resuming the chain from
// its last well-formed entry.
func NewLogger(path string) (*Logger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create audit dir: %w", err)
	}
	l := &Logger{path: path, chain: newChain()}

	f, err := os.Open(path)
	switch {
	case os.IsNotExist(err):
		return l, nil
	case err != nil:
		return nil, fmt.Errorf("open audit log: %w", err)
	}
	defer f.Close()

	var last *Entry
	err = eachEntry(f, func(_ int, e Entry, err error) error {
		if err == nil {
			last = &e
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read audit log: %w", err)
	}
	if last != nil {
		l.chain.resume(*last)
	}
	return l, nil
}

// Log appends one entry for a completed pipeline.
func (l *Logger) Log(r Record) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	e := Entry{
		Time:     time.Now().UTC(),
		Pipeline: r.Pipeline,
		Commands: r.Commands,
		ExitCode: r.ExitCode,
		Error:    r.Error,
		Duration: float64(r.Duration.Microseconds()) / 1000.0,
		Cwd:      r.Cwd,
	}
	next := l.chain
	next.seal(&e)

	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal audit entry: %w", err)
	}
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("open audit log: %w", err)
	}
	defer f.Close()
	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("write audit entry: %w", err)
	}

	// Only a written entry moves the chain.
	l.chain = next
	return nil
}

// Path returns the audit log file path.
func (l *Logger) Path() string {
	return l.path
}
