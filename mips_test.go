package main

import "testing"

type mipsRig struct {
	bus *SystemBus
	cpu *MIPS
}

func newMIPSRig() *mipsRig {
	bus := NewSystemBus(0x10000, BigEndian)
	cpu := NewMIPS(bus)
	cpu.PC = 0
	cpu.next = [2]uint32{0, 4}
	return &mipsRig{bus: bus, cpu: cpu}
}

func (r *mipsRig) loadWord(addr uint32, word uint32) {
	r.bus.Write32(addr, word)
}

// TestRegisterZeroAlwaysReadsZero covers the universal MIPS invariant
// that $0 is hardwired and writes to it are discarded.
func TestRegisterZeroAlwaysReadsZero(t *testing.T) {
	r := newMIPSRig()
	r.cpu.set(0, 0xDEADBEEF)
	if r.cpu.get(0) != 0 {
		t.Fatalf("$zero = 0x%08X, want 0", r.cpu.get(0))
	}
}

// TestBranchDelaySlotExecutes covers the base (non-likely) delay-slot
// pipeline: the instruction after a taken branch still executes once
// before control transfers.
func TestBranchDelaySlotExecutes(t *testing.T) {
	r := newMIPSRig()
	// BEQ R0,R0,+2 (always taken); delay slot: ADDI R1,R0,1; target: ADDI R2,R0,2
	r.loadWord(0, 0x10000002)
	r.loadWord(4, 0x20010001)
	r.loadWord(12, 0x20020002)
	r.cpu.Step() // BEQ
	r.cpu.Step() // delay slot ADDI R1
	if r.cpu.get(1) != 1 {
		t.Fatalf("delay slot did not execute: R1 = %d, want 1", r.cpu.get(1))
	}
	r.cpu.Step() // branch target ADDI R2
	if r.cpu.get(2) != 2 {
		t.Fatalf("branch target did not execute: R2 = %d, want 2", r.cpu.get(2))
	}
}

// TestBranchLikelyAnnulsDelaySlotWhenNotTaken covers spec.md §8's
// "MIPS branch-likely" scenario: BEQL with a false condition must annul
// (skip) its delay slot entirely rather than executing it.
func TestBranchLikelyAnnulsDelaySlotWhenNotTaken(t *testing.T) {
	r := newMIPSRig()
	r.cpu.set(3, 1) // R3 != R0, so BEQL is not taken
	// BEQL R3,R0,+2 (opcode 0o24 = 0x14)
	r.loadWord(0, 0x50600002)
	r.loadWord(4, 0x20010001) // delay slot: ADDI R1,R0,1 -- must be annulled
	r.loadWord(12, 0x20020002)
	r.cpu.Step() // BEQL, not taken
	r.cpu.Step() // annulled delay slot: must NOT execute
	if r.cpu.get(1) != 0 {
		t.Fatalf("annulled delay slot executed: R1 = %d, want 0", r.cpu.get(1))
	}
}

func TestBranchLikelyExecutesDelaySlotWhenTaken(t *testing.T) {
	r := newMIPSRig()
	// BEQL R0,R0,+2 (always taken)
	r.loadWord(0, 0x50000002)
	r.loadWord(4, 0x20010001) // delay slot executes since branch taken
	r.cpu.Step()
	r.cpu.Step()
	if r.cpu.get(1) != 1 {
		t.Fatalf("taken BEQL's delay slot did not execute: R1 = %d, want 1", r.cpu.get(1))
	}
}

// TestLWLLWRMergeUnalignedWord covers the unaligned-load byte merge: the
// classic LWL rt,0(base) / LWR rt,3(base) idiom reconstructs the 4 bytes
// starting at an arbitrary (possibly unaligned) base address.
func TestLWLLWRMergeUnalignedWord(t *testing.T) {
	r := newMIPSRig()
	r.loadWord(0x100, 0x11223344) // bytes at 0x100..0x103: 11 22 33 44; 0x104 defaults to 00
	r.cpu.set(1, 0xFFFFFFFF)
	r.cpu.loadLeft(1, 0x101)  // LWL rt, 0(base) with base=0x101
	r.cpu.loadRight(1, 0x104) // LWR rt, 3(base) with base=0x101 -> addr 0x104
	if r.cpu.get(1) != 0x22334400 {
		t.Fatalf("LWL+LWR merge = 0x%08X, want 0x22334400 (bytes at 0x101..0x104)", r.cpu.get(1))
	}
}

// TestCP0InterruptGateRequiresIEAndMask covers spec.md §8's "MIPS CP0
// interrupt gate merge": a pending hardware line only traps when
// Status.IE is set and Status.IM unmasks that specific bit.
func TestCP0InterruptGateRequiresIEAndMask(t *testing.T) {
	r := newMIPSRig()
	r.cpu.CP0[cp0Status] = 0 // IE clear
	r.bus.Raise(MIPSIRQHW2)
	r.cpu.PC = 0x1000
	r.cpu.next = [2]uint32{0x1000, 0x1004}
	r.loadWord(0x1000, 0) // SLL $0,$0,0 (NOP)
	r.cpu.Step()
	if r.cpu.PC == 0x80000180 {
		t.Fatal("interrupt fired despite Status.IE clear")
	}

	r.cpu.CP0[cp0Status] = cp0StatusIE | (1 << 10) // enable IE and unmask IP2
	r.cpu.PC = 0x1000
	r.cpu.next = [2]uint32{0x1000, 0x1004}
	r.cpu.Step()
	if r.cpu.PC != 0x80000180 {
		t.Fatalf("PC = 0x%08X, want interrupt vector 0x80000180", r.cpu.PC)
	}
	if r.cpu.CP0[cp0Status]&cp0StatusEXL == 0 {
		t.Fatal("interrupt entry must set Status.EXL")
	}
}

// TestERETRestoresPCAndClearsEXL covers the exception-return path.
func TestERETRestoresPCAndClearsEXL(t *testing.T) {
	r := newMIPSRig()
	r.cpu.CP0[cp0EPC] = 0x900
	r.cpu.CP0[cp0Status] = cp0StatusEXL
	eret := uint32(0o20)<<26 | 0b10000<<21 | 0o30
	r.loadWord(0, eret)
	r.cpu.Step()
	if r.cpu.PC != 0x900 {
		t.Fatalf("PC after ERET = 0x%08X, want 0x900", r.cpu.PC)
	}
	if r.cpu.CP0[cp0Status]&cp0StatusEXL != 0 {
		t.Fatal("ERET must clear Status.EXL")
	}
}
