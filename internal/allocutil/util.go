package allocutil

import (
	cerrors "github.com/cockroachdb/errors"
)

type Number interface {
	~int | ~uint | ~uintptr
}

// CheckPow2 reports whether number is a power of two, wrapping ErrNotPowerOfTwo with the
// offending value and field name when it is not.
func CheckPow2[T Number](number T, name string) error {
	if number == 0 || number&(number-1) != 0 {
		return cerrors.Wrapf(ErrNotPowerOfTwo, "%s is %d", name, number)
	}
	return nil
}

// AlignUp rounds value up to the nearest multiple of alignment, which must be a power of two.
func AlignUp(value uintptr, alignment uintptr) uintptr {
	return (value + alignment - 1) &^ (alignment - 1)
}

// AlignDown rounds value down to the nearest multiple of alignment, which must be a power of two.
func AlignDown(value uintptr, alignment uintptr) uintptr {
	return value &^ (alignment - 1)
}

// AddOverflows reports whether base+size would overflow uintptr's range.
func AddOverflows(base, size uintptr) bool {
	return base+size < base
}
