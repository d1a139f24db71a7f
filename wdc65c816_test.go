package main

import "testing"

type w65Rig struct {
	bus *SystemBus
	cpu *WDC65C816
}

func newW65Rig() *w65Rig {
	bus := NewSystemBus(0x20000, LittleEndian)
	cpu := NewWDC65C816(bus)
	return &w65Rig{bus: bus, cpu: cpu}
}

func (r *w65Rig) load(bank byte, offset uint16, program []byte) {
	for i, b := range program {
		r.bus.Write8(r.cpu.addr24(bank, offset)+uint32(i), b)
	}
	r.cpu.PBR = bank
	r.cpu.PC = offset
}

func TestW65ResetEntersEmulationMode(t *testing.T) {
	r := newW65Rig()
	r.bus.Write8(0xFFFC, 0x00)
	r.bus.Write8(0xFFFD, 0x80)
	r.cpu.Reset()
	if !r.cpu.E {
		t.Fatal("reset must enter emulation mode")
	}
	if r.cpu.PC != 0x8000 {
		t.Fatalf("PC = 0x%04X, want 0x8000 from reset vector", r.cpu.PC)
	}
}

func TestW65LDAImmediate8Bit(t *testing.T) {
	r := newW65Rig()
	r.load(0, 0x8000, []byte{0xA9, 0x42}) // LDA #$42
	r.cpu.Step()
	if byte(r.cpu.A) != 0x42 {
		t.Fatalf("A = 0x%02X, want 0x42", byte(r.cpu.A))
	}
}

func TestW65XCEAndREPWidenAccumulator(t *testing.T) {
	r := newW65Rig()
	r.load(0, 0x8000, []byte{
		0xFB,             // XCE: enter native mode
		0xC2, 0x20,       // REP #$20: clear M, widen accumulator to 16-bit
		0xA9, 0x34, 0x12, // LDA #$1234
	})
	r.cpu.Step()
	if r.cpu.E {
		t.Fatal("XCE with carry clear must enter native mode")
	}
	r.cpu.Step()
	if r.cpu.accumulatorIs8() {
		t.Fatal("REP #$20 must clear the M flag and widen the accumulator")
	}
	r.cpu.Step()
	if r.cpu.A != 0x1234 {
		t.Fatalf("A = 0x%04X, want 0x1234", r.cpu.A)
	}
}

func TestW65ADCSetsOverflowOnSignedCarryIntoBit7(t *testing.T) {
	r := newW65Rig()
	r.cpu.A = 0x7F
	r.load(0, 0x8000, []byte{0x69, 0x01}) // ADC #$01
	r.cpu.Step()
	if byte(r.cpu.A) != 0x80 {
		t.Fatalf("A = 0x%02X, want 0x80", byte(r.cpu.A))
	}
	if !r.cpu.flag(w65FlagV) {
		t.Fatal("0x7F+0x01 must set overflow")
	}
	if r.cpu.flag(w65FlagC) {
		t.Fatal("0x7F+0x01 must not set carry")
	}
}

func TestW65JSRRTSRoundTrip(t *testing.T) {
	r := newW65Rig()
	r.load(0, 0x8000, []byte{0x20, 0x00, 0x90}) // JSR $9000
	r.load(0, 0x9000, []byte{0x60})             // RTS
	r.cpu.PC = 0x8000
	r.cpu.Step()
	if r.cpu.PC != 0x9000 {
		t.Fatalf("PC = 0x%04X, want 0x9000 after JSR", r.cpu.PC)
	}
	r.cpu.Step()
	if r.cpu.PC != 0x8003 {
		t.Fatalf("PC = 0x%04X, want 0x8003 after RTS", r.cpu.PC)
	}
}

func TestW65JSLSetsBankAndRTLRestoresIt(t *testing.T) {
	r := newW65Rig()
	r.load(0, 0x8000, []byte{0x22, 0x00, 0x00, 0x01}) // JSL $01:0000
	r.load(1, 0x0000, []byte{0x6B})                   // RTL
	r.cpu.PC = 0x8000
	r.cpu.PBR = 0
	r.cpu.Step()
	if r.cpu.PBR != 1 || r.cpu.PC != 0x0000 {
		t.Fatalf("PBR:PC = %02X:%04X, want 01:0000 after JSL", r.cpu.PBR, r.cpu.PC)
	}
	r.cpu.Step()
	if r.cpu.PBR != 0 || r.cpu.PC != 0x8004 {
		t.Fatalf("PBR:PC = %02X:%04X, want 00:8004 after RTL", r.cpu.PBR, r.cpu.PC)
	}
}
