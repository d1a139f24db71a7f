// bus.go - the memory bus contract shared by every CPU core.
//
// Adapted from the teacher's memory_bus.go/machine_bus.go: a contiguous
// byte slice for RAM/ROM plus a page-indexed table of device windows that
// intercept reads/writes falling inside their range. Generalized here from
// the teacher's fixed 32-bit/little-endian access to all four cell widths
// and a per-bus byte order, per spec.md §3/§4.1.

package main

import (
	"encoding/binary"
	"fmt"
)

// ByteOrder selects the wire order for multi-byte cells on a bus instance.
// RISC cores (ARM, MIPS) default to big-endian; 6502-family and SM83
// default to little-endian, per spec.md §3.
type ByteOrder = binary.ByteOrder

// LittleEndian and BigEndian are the two concrete orders every System in
// system_*.go picks between when constructing its SystemBus.
var (
	LittleEndian = binary.LittleEndian
	BigEndian    = binary.BigEndian
)

// InterruptSet is a small fixed bitset of pending interrupt sources,
// per spec.md §3. Each architecture defines its own bit constants;
// see interrupt.go.
type InterruptSet uint32

func (s InterruptSet) Has(bit InterruptSet) bool { return s&bit != 0 }

// Bus is the contract every CPU core is parameterized over (spec.md §4.1).
// Implementations own the address-space decoder, the cycle counter and the
// interrupt source set; CPU primitives never allocate or see an error
// return from a bus access — out-of-range or illegal accesses are resolved
// locally: a read returns open-bus data, a write is dropped, and a debug
// bus panics with the BusFault message instead (spec.md §7).
type Bus interface {
	Read8(addr uint32) uint8
	Write8(addr uint32, value uint8)
	Read16(addr uint32) uint16
	Write16(addr uint32, value uint16)
	Read32(addr uint32) uint32
	Write32(addr uint32, value uint32)
	Read64(addr uint32) uint64
	Write64(addr uint32, value uint64)

	// Step advances peripherals by a fixed tick count; called once per
	// fetched instruction or per memory access, architecture-defined.
	Step(cycles int)

	// Poll returns the currently-raised interrupt sources.
	Poll() InterruptSet
	// Acknowledge clears a level-triggered source after the CPU has
	// serviced it, per the architecture's acknowledgement convention.
	Acknowledge(source InterruptSet)

	Reset()
}

// BusFault describes an illegal or unmapped access. CPU primitives never
// see it (spec.md §7); a debug SystemBus panics with its Error text.
type BusFault struct {
	Address uint32
	Width   int
	Write   bool
}

func (f *BusFault) Error() string {
	dir := "read"
	if f.Write {
		dir = "write"
	}
	return fmt.Sprintf("bus fault: %s %d-byte access at 0x%08X", dir, f.Width, f.Address)
}

// DeviceWindow decodes a contiguous address range to a device's own
// register file through a Reader/Writer pair of 32-bit values. Each
// access hands the device its exact address: a sub-width read keeps the
// low bits of Read's result and a sub-width write passes the value
// through unchanged. The bus does no lane shifting or masking of its
// own, and 64-bit accesses never reach a window.
type DeviceWindow struct {
	Start, End uint32
	Read       func(addr uint32) uint32
	Write      func(addr uint32, value uint32)
}

func (w *DeviceWindow) contains(addr uint32) bool {
	return addr >= w.Start && addr <= w.End
}

// pageSize/pageMask bound the granularity at which device windows are
// indexed into the bus's fast-path page table, mirroring the teacher's
// PAGE_SIZE/PAGE_MASK constants in memory_bus.go.
const (
	pageSize = 0x100
	pageMask = ^uint32(pageSize - 1)
)

// SystemBus is the concrete Bus used by every System in system_*.go. It
// owns a flat memory block (RAM + ROM, mapped contiguously per console)
// plus a set of DeviceWindows for memory-mapped registers, and a cycle
// counter plus an interrupt set polled by the owning CPU.
type SystemBus struct {
	order ByteOrder
	mem   []byte
	romAt func(addr uint32) bool // returns true if addr falls in a read-only region

	pages   map[uint32][]*DeviceWindow
	windows []*DeviceWindow

	cycles   uint64
	irq      InterruptSet
	openBus  uint32 // last-driven value, returned on an unmapped read
	debug    bool   // debug builds panic on BusFault instead of returning open-bus data
	dma      *DMAEngine
}

// NewSystemBus allocates a bus with memSize bytes of address space,
// decoded in the given byte order.
func NewSystemBus(memSize int, order ByteOrder) *SystemBus {
	b := &SystemBus{
		order: order,
		mem:   make([]byte, memSize),
		pages: make(map[uint32][]*DeviceWindow),
	}
	b.dma = NewDMAEngine(b)
	return b
}

// SetDebug toggles whether unmapped/illegal accesses panic (debug build)
// or fall back to open-bus data (release build), per spec.md §7.
func (b *SystemBus) SetDebug(debug bool) { b.debug = debug }

// SetROM marks an address range [start,end] as read-only: writes are
// silently discarded and the original bytes are preserved, per spec.md §8.
func (b *SystemBus) SetROM(start, end uint32) {
	prev := b.romAt
	b.romAt = func(addr uint32) bool {
		if addr >= start && addr <= end {
			return true
		}
		return prev != nil && prev(addr)
	}
}

// MapWindow registers a device window, mirroring the request/response
// region handed out by a console's PPU/APU/DMA registers. Windows are
// indexed into the page table so Read/Write can skip a linear scan on the
// common case of plain RAM/ROM access.
func (b *SystemBus) MapWindow(w *DeviceWindow) {
	b.windows = append(b.windows, w)
	first := w.Start & pageMask
	last := w.End & pageMask
	for page := first; page <= last; page += pageSize {
		b.pages[page] = append(b.pages[page], w)
		if page == last {
			break
		}
	}
}

func (b *SystemBus) windowAt(addr uint32) *DeviceWindow {
	for _, w := range b.pages[addr&pageMask] {
		if w.contains(addr) {
			return w
		}
	}
	return nil
}

// DMA returns the bus's deferred-transfer engine (spec.md §4.4).
func (b *SystemBus) DMA() *DMAEngine { return b.dma }

func (b *SystemBus) fault(addr uint32, width int, write bool) {
	if b.debug {
		panic((&BusFault{Address: addr, Width: width, Write: write}).Error())
	}
}

func (b *SystemBus) Read8(addr uint32) uint8 {
	if w := b.windowAt(addr); w != nil && w.Read != nil {
		v := uint8(w.Read(addr))
		b.openBus = uint32(v)
		return v
	}
	if int(addr) >= len(b.mem) {
		b.fault(addr, 1, false)
		return uint8(b.openBus)
	}
	v := b.mem[addr]
	b.openBus = uint32(v)
	return v
}

func (b *SystemBus) Write8(addr uint32, value uint8) {
	if w := b.windowAt(addr); w != nil {
		if w.Write != nil {
			w.Write(addr, uint32(value))
		}
		return
	}
	if b.romAt != nil && b.romAt(addr) {
		return
	}
	if int(addr) >= len(b.mem) {
		b.fault(addr, 1, true)
		return
	}
	b.mem[addr] = value
}

func (b *SystemBus) Read16(addr uint32) uint16 {
	if w := b.windowAt(addr); w != nil && w.Read != nil {
		return uint16(w.Read(addr))
	}
	if int(addr)+2 > len(b.mem) {
		b.fault(addr, 2, false)
		return uint16(b.openBus)
	}
	return b.order.Uint16(b.mem[addr:])
}

func (b *SystemBus) Write16(addr uint32, value uint16) {
	if w := b.windowAt(addr); w != nil {
		if w.Write != nil {
			w.Write(addr, uint32(value))
		}
		return
	}
	if b.romAt != nil && b.romAt(addr) {
		return
	}
	if int(addr)+2 > len(b.mem) {
		b.fault(addr, 2, true)
		return
	}
	b.order.PutUint16(b.mem[addr:], value)
}

func (b *SystemBus) Read32(addr uint32) uint32 {
	if w := b.windowAt(addr); w != nil && w.Read != nil {
		v := w.Read(addr)
		b.openBus = v
		return v
	}
	if int(addr)+4 > len(b.mem) {
		b.fault(addr, 4, false)
		return b.openBus
	}
	v := b.order.Uint32(b.mem[addr:])
	b.openBus = v
	return v
}

func (b *SystemBus) Write32(addr uint32, value uint32) {
	if w := b.windowAt(addr); w != nil {
		if w.Write != nil {
			w.Write(addr, value)
		}
		return
	}
	if b.romAt != nil && b.romAt(addr) {
		return
	}
	if int(addr)+4 > len(b.mem) {
		b.fault(addr, 4, true)
		return
	}
	b.order.PutUint32(b.mem[addr:], value)
}

func (b *SystemBus) Read64(addr uint32) uint64 {
	if int(addr)+8 > len(b.mem) {
		b.fault(addr, 8, false)
		return uint64(b.openBus)
	}
	return b.order.Uint64(b.mem[addr:])
}

func (b *SystemBus) Write64(addr uint32, value uint64) {
	if b.romAt != nil && b.romAt(addr) {
		return
	}
	if int(addr)+8 > len(b.mem) {
		b.fault(addr, 8, true)
		return
	}
	b.order.PutUint64(b.mem[addr:], value)
}

func (b *SystemBus) Step(cycles int) {
	b.cycles += uint64(cycles)
}

func (b *SystemBus) Cycles() uint64 { return b.cycles }

func (b *SystemBus) Poll() InterruptSet { return b.irq }

func (b *SystemBus) Raise(source InterruptSet)     { b.irq |= source }
func (b *SystemBus) Acknowledge(source InterruptSet) { b.irq &^= source }

func (b *SystemBus) Reset() {
	for i := range b.mem {
		b.mem[i] = 0
	}
	b.cycles = 0
	b.irq = 0
}

// Memory exposes the raw backing slice for bulk loads (ROM images, save
// state restore) — the only place outside Read/Write callers are allowed
// to touch it directly.
func (b *SystemBus) Memory() []byte { return b.mem }
