package models

// Shared data model for workers and the stats collector.

import (
	"fmt"
	"time"
)

// Operation is the kind of a completed operation. Failed operations are
// reported as OpError so they stay visible in aggregate statistics without
// polluting the counts of the operation they were meant to be.
type Operation uint8

const (
	OpRead Operation = iota
	OpWrite
	OpDelete
	OpError
)

func (o Operation) String() string {
	switch o {
	case OpRead:
		return "read"
	case OpWrite:
		return "write"
	case OpDelete:
		return "delete"
	case OpError:
		return "error"
	}
	return fmt.Sprintf("operation(%d)", o)
}

// ParseOperation maps the single-letter workload-mix tokens to operations.
func ParseOperation(tok string) (Operation, error) {
	switch tok {
	case "r":
		return OpRead, nil
	case "w":
		return OpWrite, nil
	case "d":
		return OpDelete, nil
	}
	return OpError, fmt.Errorf("unrecognized operation %q (want r, w or d)", tok)
}

// Record is the result of one completed (non-skipped) operation. It is
// created by the backend, handed to the worker and sent once to the stats
// collector; nothing mutates it after creation.
type Record struct {
	Worker int           // index of the worker that ran the operation
	Op     Operation     // what was performed (or OpError)
	Size   uint64        // bytes moved
	TTFB   time.Duration // time to first byte
	RTT    time.Duration // full round trip
}
