// interrupt.go - per-architecture interrupt bit constants (spec.md §3).
//
// InterruptSet itself (a plain uint32 bitset, no allocation, no locking —
// single goroutine owns it per spec.md §5) is declared in bus.go next to
// the Bus contract it flows through. This file only names the bits.

package main

// 6502-family (NES, PCE): spec.md §3.
const (
	IRQReset InterruptSet = 1 << iota
	IRQNMI
	IRQTimer
	IRQUser
)

// MIPS R4300 (N64): software bits SW0/SW1, hardware IP2..IP7, timer.
const (
	MIPSIRQSW0 InterruptSet = 1 << iota
	MIPSIRQSW1
	MIPSIRQHW2
	MIPSIRQHW3
	MIPSIRQHW4
	MIPSIRQHW5
	MIPSIRQHW6
	MIPSIRQHW7
	MIPSIRQTimer
)

// MIPSHardwareMask covers IP2..IP7, the externally-wired interrupt lines
// a bus's Poll() is expected to drive; SW0/SW1 and the timer bit are set
// internally by CP0 rather than by the bus.
const MIPSHardwareMask = MIPSIRQHW2 | MIPSIRQHW3 | MIPSIRQHW4 | MIPSIRQHW5 | MIPSIRQHW6 | MIPSIRQHW7

// ARM7TDMI: IRQ and FIQ lines, sampled after each instruction when the
// corresponding CPSR mask bit is clear.
const (
	ARMIRQIRQ InterruptSet = 1 << iota
	ARMIRQFIQ
)

// Z80 (Genesis audio coprocessor, generic host): maskable/non-maskable.
const (
	Z80IRQMaskable InterruptSet = 1 << iota
	Z80IRQNMI
)

// SM83/GBZ80 (Game Boy): the five hardware interrupt sources, priority
// ordered low bit to high bit as on real hardware.
const (
	SM83IRQVBlank InterruptSet = 1 << iota
	SM83IRQLCDStat
	SM83IRQTimer
	SM83IRQSerial
	SM83IRQJoypad
)

// M68000 (Genesis main CPU): the three autovector vertical/horizontal/
// external interrupt levels this core wires up; the full M68000 has
// seven priority levels, but only VBlank/HBlank/external are driven by
// any System in system_*.go.
const (
	M68KIRQLevel2 InterruptSet = 1 << iota // HBlank
	M68KIRQLevel4                          // external (controller/expansion)
	M68KIRQLevel6                          // VBlank
)

// HuC6280 (PC Engine): reset/NMI plus the three maskable lines (the
// internal timer and the two external IRQ pins), matching
// huc6280.rs's INT_RESET/INT_NMI/INT_TIMER/INT_IRQ1/INT_IRQ2 bitmask.
const (
	HuC6280IRQReset InterruptSet = 1 << iota
	HuC6280IRQNMI
	HuC6280IRQTimer
	HuC6280IRQ1
	HuC6280IRQ2
)
