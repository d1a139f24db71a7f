// system_genesis.go - Sega Genesis/Mega Drive System integration
// (SPEC_FULL.md §9).
//
// Wires an M68K main CPU to a Z80 audio coprocessor on its own 64KB bus,
// whose upper 32KB is a window into the 68000's 24-bit space starting at
// z80Bank (never written here, so the window always starts at 68000
// address 0), and the 3-button controller (input.go). VDP DMA is not
// modeled. No teacher equivalent; new System shape built from this repo's
// own bus/CPU/scheduler primitives.
package main

const genesisCyclesPerFrame = 127833 // NTSC 68000 @ 7.67MHz / 60Hz

// GenesisSystem drives the M68K main CPU; the Z80 audio coprocessor runs
// on its own bus and is credit-stepped after each main CPU instruction,
// receiving as many cycles as that instruction spent.
type GenesisSystem struct {
	cpu        *M68K
	z80        *Z80
	bus        *SystemBus
	z80Bus     *SystemBus
	controller *GenesisController
	audio      *AudioQueue
	z80BusReq  bool
	z80Bank    uint32
	vdpLatch   uint32
}

func NewGenesisSystem(rom []byte) *GenesisSystem {
	bus := NewSystemBus(0x1000000, BigEndian) // 16MB 68000 address space
	s := &GenesisSystem{
		bus:        bus,
		controller: NewGenesisController(),
		audio:      NewAudioQueue(2048),
	}

	// VDP data/control ports ($C00000-$C0001F, mirrored): open-bus stub.
	bus.MapWindow(&DeviceWindow{
		Start: 0xC00000, End: 0xC0001F,
		Read:  func(addr uint32) uint32 { return s.vdpLatch },
		Write: func(addr uint32, v uint32) { s.vdpLatch = v },
	})
	// VDP DMA is not modeled: nothing on this bus queues a DMA request,
	// and StepFrame only drains the bus's DMA engine if one is pending.
	bus.MapWindow(&DeviceWindow{
		Start: 0xA10003, End: 0xA10003, // controller data port
		Read:  func(addr uint32) uint32 { return uint32(s.controller.ReadPort(0)) },
		Write: func(addr uint32, v uint32) { s.controller.WritePort(0, byte(v)) },
	})
	// Z80 bus request/reset handshake ($A11100/$A11200).
	bus.MapWindow(&DeviceWindow{
		Start: 0xA11100, End: 0xA11100,
		Read: func(addr uint32) uint32 {
			if s.z80BusReq {
				return 0
			}
			return 1
		},
		Write: func(addr uint32, v uint32) { s.z80BusReq = v&0x01 != 0 },
	})

	copy(bus.Memory()[0x000000:], rom)
	bus.SetROM(0x000000, 0x3FFFFF)
	s.cpu = NewM68K(bus)
	s.cpu.Reset()

	// The Z80's own 64KB bus is a separate SystemBus: its low 32KB is the
	// Z80's own memory (sound RAM), not shared with the 68000, and the
	// upper 32KB is a window into the 68000 space starting at z80Bank.
	z80Bus := NewSystemBus(0x10000, LittleEndian)
	z80Bus.MapWindow(&DeviceWindow{
		Start: 0x8000, End: 0xFFFF,
		Read:  func(addr uint32) uint32 { return uint32(bus.Read8(s.z80Bank + (addr - 0x8000))) },
		Write: func(addr uint32, v uint32) { bus.Write8(s.z80Bank+(addr-0x8000), byte(v)) },
	})
	s.z80Bus = z80Bus
	s.z80 = NewZ80(z80Bus)
	s.z80.Reset()
	return s
}

func (s *GenesisSystem) StepFrame() PixelSurface {
	budget := s.bus.Cycles() + genesisCyclesPerFrame
	z80Credit := 0
	for s.bus.Cycles() < budget {
		if s.bus.DMA().Active() {
			s.bus.DMA().Drain()
			continue
		}
		spent := s.cpu.Step()
		if !s.z80BusReq {
			// Z80 runs at roughly half the 68000's effective instruction
			// rate on real hardware; credit-based stepping keeps the two
			// cores loosely synchronized without a shared cycle clock.
			z80Credit += spent
			for z80Credit > 0 {
				z80Credit -= s.z80.Step()
			}
		}
	}
	return PixelSurface{Pixels: make([]byte, 320*224*4), Width: 320, Height: 224}
}

func (s *GenesisSystem) Audio() *AudioQueue { return s.audio }
func (s *GenesisSystem) Close() error       { return nil }

func (s *GenesisSystem) SetInput(state JoypadState) { s.controller.Latch(state) }
