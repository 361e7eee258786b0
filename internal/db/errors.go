package db

import "errors"

// ErrKeyNotFound is returned by Get for a key that does not exist.
var ErrKeyNotFound = errors.New("db: key not found")

// Command names reported in Error.Op.
const (
	OpPing = "PING"
	OpGet  = "GET"
	OpSet  = "SET"
	OpDel  = "DEL"
)

// Error is a failed store command.
type Error struct {
	Op  string
	Key string // empty for commands without a key
	Err error
}

func (e *Error) Error() string {
	if e.Key == "" {
		return "db: " + e.Op + ": " + e.Err.Error()
	}
	return "db: " + e.Op + " " + e.Key + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }
