package operar

import (
	"fmt"
	"time"
)

// Status is the lifecycle state of a position.
type Status string

const (
	Open   Status = "OPEN"
	Closed Status = "CLOSED"
)

// ParseStatus parses a string into a Status. It is case-insensitive only in
// the sense that the store always writes the canonical uppercase form.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case Open:
		return Open, nil
	case Closed:
		return Closed, nil
	default:
		return "", fmt.Errorf("unknown position status: %q", s)
	}
}

func (s Status) String() string { return string(s) }

// Position is a named option strategy grouping operations. It is created
// OPEN and the only transition is OPEN→CLOSED, which is terminal.
type Position struct {
	ID          int64
	Name        string
	Description string
	Status      Status
	CreatedAt   time.Time
}
