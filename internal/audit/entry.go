package audit

import "time"

// Failure classifies why a command did not complete normally.
type Failure string

const (
	FailureNotFound Failure = "not_found" // executable missing or not executable
	FailureRedirect Failure = "redirect"  // redirect target could not be opened
	FailureCrash    Failure = "crash"     // killed by SIGSEGV
	FailureStart    Failure = "start"     // the shell could not start the process
)

// Command is the audit record of one process in a pipeline.
type Command struct {
	Name    string  `json:"name"`
	Pid     int     `json:"pid,omitempty"`
	Status  int     `json:"status"`            // exit code, or 128+signal
	Signal  string  `json:"signal,omitempty"`  // terminating signal, if any
	Failure Failure `json:"failure,omitempty"` // empty when the shell saw nothing wrong
}

// Entry represents a single audit log record.
type Entry struct {
	Seq      uint64    `json:"seq"`
	Time     time.Time `json:"ts"`
	PrevHash string    `json:"prev_hash"`
	Pipeline string    `json:"pipeline"`        // canonical pipeline text
	Commands []Command `json:"commands"`        // in pipeline order
	ExitCode int       `json:"exit_code"`       // pipeline status
	Error    string    `json:"error,omitempty"` // joined diagnostics
	Duration float64   `json:"duration_ms"`
	Cwd      string    `json:"cwd"`
	Hash     string    `json:"hash"` // SHA-256 of this entry (with hash field empty)
}

// Record is the caller-supplied part of an entry. The logger fills in
// sequence, time and the hash chain.
type Record struct {
	Pipeline string
	Commands []Command
	ExitCode int
	Error    string
	Duration time.Duration
	Cwd      string
}
