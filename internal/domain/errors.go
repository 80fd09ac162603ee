package domain

import "fmt"

// FormatError reports a descriptor document that exists but does not parse
// or does not satisfy the schema.
type FormatError struct {
	Path string
	Err  error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("descriptor %s: %v", e.Path, e.Err)
}

func (e *FormatError) Unwrap() error { return e.Err }

// NotFoundError reports a descriptor location that does not exist.
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("descriptor file not found: %s", e.Path)
}
