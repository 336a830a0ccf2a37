//go:build !alloc_debug

package allocutil

// Ledger is a zero-cost stand-in for the alloc_debug build's live-allocation tracker. Production
// builds never pay for caller-contract-violation detection.
type Ledger struct{}

// NewLedger returns a Ledger that DebugTrackAlloc/DebugCheckDealloc treat as a no-op.
func NewLedger() *Ledger { return nil }

// DebugTrackAlloc no-ops unless the alloc_debug build tag is present.
func DebugTrackAlloc(l *Ledger, ptr, size uintptr) {}

// DebugCheckDealloc no-ops unless the alloc_debug build tag is present.
func DebugCheckDealloc(l *Ledger, ptr uintptr) {}

func debugValidate(v Validatable) {}
