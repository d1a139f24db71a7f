// value.go - width-polymorphic memory cell types for the multicore bus
//
// A Value is a primitive integer of 1, 2, 4 or 8 bytes. The bus contract
// (bus.go) reads and writes these at arbitrary addresses; byte order is a
// per-bus property rather than a per-value one, so a single Value type
// parameter covers every architecture's native register width.

package main

// Value is satisfied by every width the bus contract moves across the
// wire: u8/u16/u32/u64, the four cell widths named in spec.md §3.
type Value interface {
	~uint8 | ~uint16 | ~uint32 | ~uint64
}

// Width returns the byte width of a Value type (1, 2, 4 or 8), or 0 for
// any other type.
func Width[T Value]() int {
	var v T
	switch any(v).(type) {
	case uint8:
		return 1
	case uint16:
		return 2
	case uint32:
		return 4
	case uint64:
		return 8
	default:
		return 0
	}
}
