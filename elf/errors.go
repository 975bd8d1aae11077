package elf

import (
	"fmt"
)

var (
	// Bad magic, unsupported class / encoding / version, extended section
	// count or index, and other structurally invalid header values.
	ErrInvalidFormat = fmt.Errorf("invalid elf format")

	// Fewer bytes available than a field or buffer requires.
	ErrTruncated = fmt.Errorf("premature end of elf content")

	// Virtual address not backed by any segment's file image.
	ErrAddressNotMapped = fmt.Errorf("address not mapped to file")

	// Unrecognized enumerated value (e.g., symbol visibility) or out of bound
	// index.
	ErrInvalidValue = fmt.Errorf("invalid value")

	ErrSectionNotFound = fmt.Errorf("section not found")
)
