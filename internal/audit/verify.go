package audit

import (
	"fmt"
	"os"
)

// Verify checks the hash chain of the log at path and reports the first
// broken link. An empty log is valid.
func Verify(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("read audit log: %w", err)
	}
	defer f.Close()

	c := newChain()
	return eachEntry(f, func(line int, e Entry, err error) error {
		if err != nil {
			return fmt.Errorf("line %d: invalid JSON: %w", line, err)
		}
		if err := c.follow(e); err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		return nil
	})
}

// Tail returns the last n well-formed entries of the log at path.
func Tail(path string, n int) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read audit log: %w", err)
	}
	defer f.Close()

	if n <= 0 {
		return []Entry{}, nil
	}
	ring := make([]Entry, 0, n)
	err = eachEntry(f, func(_ int, e Entry, err error) error {
		if err != nil {
			return nil
		}
		if len(ring) == n {
			ring = append(ring[:0], ring[1:]...)
		}
		ring = append(ring, e)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read audit log: %w", err)
	}
	return ring, nil
}
