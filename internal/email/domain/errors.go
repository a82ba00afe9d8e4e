package domain

import "errors"

var (
	// ErrSyncStateConflict means another writer advanced the cursor first.
	ErrSyncStateConflict = errors.New("gmail sync state was modified concurrently")
	// ErrBootstrapRequired means there is no usable history cursor.
	ErrBootstrapRequired = errors.New("gmail bootstrap sync required")
	ErrThreadNotFound    = errors.New("thread not found")
)
