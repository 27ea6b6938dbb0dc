package model

import "time"

// Submission is an immutable text snippet. ID order matches insertion order.
type Submission struct {
	ID        int64
	Text      string
	CreatedAt time.Time
}
