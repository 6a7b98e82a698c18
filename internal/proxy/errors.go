package proxy

import "errors"

var (
	// ErrNotFound is returned when a named property or index has nothing
	// to act on.
	ErrNotFound = errors.New("not found")

	// ErrMalformedLiteral is returned for literal dependency arrays that are
	// not [name string, evr string, flags int].
	ErrMalformedLiteral = errors.New("malformed dependency literal")

	// ErrUnknownSource is returned when a dependency set is requested from
	// a value that is neither a header proxy, keyword nor literal.
	ErrUnknownSource = errors.New("unknown dependency source")

	// ErrNotInteger is returned when an integer property is assigned a
	// non-integer value.
	ErrNotInteger = errors.New("value is not an integer")

	// ErrReadOnly is returned when assigning a derived property.
	ErrReadOnly = errors.New("property is read-only")

	// ErrClosed is returned by operations on a closed or class-level proxy.
	ErrClosed = errors.New("proxy has no store")
)
