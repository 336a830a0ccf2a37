//go:build !alloc_realloc

package coalescing

// Realloc is intentionally absent from this build: spec.md §6 gates it behind the alloc_realloc
// build tag, and off is the default. Callers use Alloc+Dealloc explicitly instead.
