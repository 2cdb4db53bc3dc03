package db

import "time"

// Record is a cached value stored under a fixed key.
type Record struct {
	Key       string
	Value     []byte
	UpdatedAt time.Time
}

// Export is a log entry for a CSV file written to disk.
type Export struct {
	ID        int64
	Path      string
	WordCount int
	Source    string
	CreatedAt time.Time
}
