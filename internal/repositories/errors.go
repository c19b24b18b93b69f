package repositories

import "errors"

var (
	// ErrNotFound is returned when the requested document or row does not exist
	ErrNotFound = errors.New("record not found")
	// ErrVersionConflict is returned when a compare-and-swap write lost against another writer
	ErrVersionConflict = errors.New("version conflict")
	// ErrConditionFailed is returned when a conditional update matched the document but not its guard
	ErrConditionFailed = errors.New("update condition not met")
)
