package editor

import (
	"errors"
	"fmt"
)

// ErrNotUnpacked is returned when an operation that requires a prior unpack,
// such as Repackage, is invoked out of order.
var ErrNotUnpacked = errors.New("wheel must be unpacked before repackaging")

// StructuralError reports an extraction tree that violates the expected wheel
// layout: no top-level subdirectory after unpacking, or not exactly one
// dist-info directory.
type StructuralError struct {
	Reason string
}

func (e *StructuralError) Error() string {
	return "wheel structure: " + e.Reason
}

// InvalidNameError reports a proposed package name that fails the
// distribution name grammar.
type InvalidNameError struct {
	Name string
}

func (e *InvalidNameError) Error() string {
	return fmt.Sprintf("invalid package name: %q. Package names must contain only ASCII letters, numbers, period, underscore, and hyphen, and must start and end with a letter or number", e.Name)
}

// NotFoundError reports a referenced file or directory that does not exist.
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string {
	return "not found: " + e.Path
}

// PathEscapeError reports a replace-file target that resolves outside the
// extraction tree.
type PathEscapeError struct {
	Target string
}

func (e *PathEscapeError) Error() string {
	return fmt.Sprintf("target path must be inside the wheel: %s", e.Target)
}
