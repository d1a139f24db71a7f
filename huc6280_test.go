package main

import "testing"

type huc6280Rig struct {
	bus *SystemBus
	cpu *HuC6280
}

func newHuC6280Rig() *huc6280Rig {
	bus := NewSystemBus(0x200000, LittleEndian)
	cpu := NewHuC6280(bus)
	// Identity-map every bank (MPR[n] = n) so a 16-bit CPU address and
	// its physical address agree, the way a PC Engine's default boot
	// mapping behaves for the fixed ROM/RAM banks this rig exercises.
	for i := range cpu.MPR {
		cpu.MPR[i] = byte(i)
	}
	return &huc6280Rig{bus: bus, cpu: cpu}
}

// load writes program bytes at the given CPU address through the
// CPU's own bank mapping, so what Step() fetches matches what was
// written regardless of MPR contents.
func (r *huc6280Rig) load(addr uint16, program []byte) {
	for i, b := range program {
		r.bus.Write8(r.cpu.mapAddr(addr+uint16(i)), b)
	}
	r.cpu.PC = addr
}

// writeResetVector writes through the mapping Reset() itself will use:
// Reset() zeroes every MPR bank before reading the vector, so 0xFFFE
// resolves to physical page 0, offset 0x1FFE.
func (r *huc6280Rig) writeResetVector(value uint16) {
	r.bus.Write8(0x1FFE, byte(value))
	r.bus.Write8(0x1FFF, byte(value>>8))
}

func TestHuC6280ResetReadsVector(t *testing.T) {
	r := newHuC6280Rig()
	r.writeResetVector(0x4000)
	r.cpu.Reset()
	if r.cpu.PC != 0x4000 {
		t.Fatalf("PC = 0x%04X, want 0x4000", r.cpu.PC)
	}
}

func TestHuC6280LDAAndADC(t *testing.T) {
	r := newHuC6280Rig()
	r.load(0x4000, []byte{0xA9, 0x10, 0x69, 0x05}) // LDA #$10; ADC #$05
	r.cpu.Step()
	r.cpu.Step()
	if r.cpu.A != 0x15 {
		t.Fatalf("A = 0x%02X, want 0x15", r.cpu.A)
	}
}

func TestHuC6280TAMSetsMPRBank(t *testing.T) {
	r := newHuC6280Rig()
	r.load(0x4000, []byte{0xA9, 0x08, 0x53, 0x02}) // LDA #$08; TAM #$02 (bank 1)
	r.cpu.Step()
	r.cpu.Step()
	if r.cpu.MPR[1] != 0x08 {
		t.Fatalf("MPR[1] = 0x%02X, want 0x08", r.cpu.MPR[1])
	}
}

func TestHuC6280StackIgnoresMPRMapping(t *testing.T) {
	r := newHuC6280Rig()
	r.cpu.MPR[7] = 0xFF // would misdirect stack access if push/pull used map()
	r.load(0x4000, []byte{0x48})
	r.cpu.A = 0x7E
	sp := r.cpu.S
	r.cpu.Step()
	got := r.bus.Read8(huc6280StackPage | uint32(sp))
	if got != 0x7E {
		t.Fatalf("stack byte at fixed physical page = 0x%02X, want 0x7E", got)
	}
}

func TestHuC6280JSRRTSRoundTrip(t *testing.T) {
	r := newHuC6280Rig()
	r.load(0x4000, []byte{0x20, 0x00, 0x50}) // JSR $5000
	r.load(0x5000, []byte{0x60})             // RTS
	r.cpu.PC = 0x4000
	r.cpu.Step()
	if r.cpu.PC != 0x5000 {
		t.Fatalf("PC = 0x%04X, want 0x5000 after JSR", r.cpu.PC)
	}
	r.cpu.Step()
	if r.cpu.PC != 0x4003 {
		t.Fatalf("PC = 0x%04X, want 0x4003 after RTS", r.cpu.PC)
	}
}
