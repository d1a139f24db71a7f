package main

import "testing"

func TestNESSystemStepFrameAdvancesCycles(t *testing.T) {
	rom := make([]byte, 0x8000)
	s := NewNESSystem(rom)
	before := s.bus.Cycles()
	surface := s.StepFrame()
	if s.bus.Cycles() <= before {
		t.Fatal("StepFrame must advance the bus cycle counter")
	}
	if surface.Width != 256 || surface.Height != 240 {
		t.Fatalf("surface = %dx%d, want 256x240", surface.Width, surface.Height)
	}
}

func TestNESSystemOAMDMAStallsCPU(t *testing.T) {
	rom := make([]byte, 0x8000)
	s := NewNESSystem(rom)
	before := s.bus.Cycles()
	s.bus.Write8(0x4014, 0x02) // trigger OAM DMA from page 2
	if s.bus.Cycles()-before < 513 {
		t.Fatalf("OAM DMA trigger must stall at least 513 cycles, got %d", s.bus.Cycles()-before)
	}
	if !s.bus.DMA().Active() {
		t.Fatal("OAM DMA request must be queued as an active DMA transfer")
	}
}

func TestNESSystemControllerWiredThroughBus(t *testing.T) {
	rom := make([]byte, 0x8000)
	s := NewNESSystem(rom)
	var state JoypadState
	state.Buttons[ButtonA] = true
	s.SetInput(state)
	if s.bus.Read8(0x4016) != 1 {
		t.Fatal("first read of $4016 after latch must report the A button")
	}
}

func TestGBSystemOAMDMAQueuesTransfer(t *testing.T) {
	rom := make([]byte, 0x8000)
	s := NewGBSystem(rom)
	s.bus.Write8(0xFF46, 0xC0) // source page 0xC0
	if !s.bus.DMA().Active() {
		t.Fatal("writing $FF46 must queue an OAM DMA request")
	}
}

func TestSNESSystemMailboxRoundTrip(t *testing.T) {
	rom := make([]byte, 0x8000)
	s := NewSNESSystem(rom)
	s.bus.Write8(0x2140, 0xAB) // main CPU writes port 0
	if s.spcBus.Read8(0xF4) != 0xAB {
		t.Fatalf("SPC700 side of port 0 = 0x%02X, want 0xAB", s.spcBus.Read8(0xF4))
	}
	s.spcBus.Write8(0xF4, 0xCD) // SPC700 replies on port 0
	if s.bus.Read8(0x2140) != 0xCD {
		t.Fatalf("main CPU side of port 0 = 0x%02X, want 0xCD", s.bus.Read8(0x2140))
	}
}

func TestPCESystemControllerSelectThroughBus(t *testing.T) {
	rom := make([]byte, 0x1000)
	s := NewPCESystem(rom)
	var p0 JoypadState
	p0.Buttons[ButtonStart] = true
	s.SetInput(0, p0)
	s.bus.Write8(0x1000, 0) // select player 0
	if s.bus.Read8(0x1000)&(1<<7) != 0 {
		t.Fatal("player 0's Start press must clear bit 7")
	}
}
