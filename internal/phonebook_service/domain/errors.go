package domain

import "errors"

var (
	// ErrNotFound indicates that the targeted contact does not exist.
	ErrNotFound = errors.New("contact not found")
)
