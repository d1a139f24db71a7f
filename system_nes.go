// system_nes.go - NES System integration (SPEC_FULL.md §9).
//
// Wires the MOS6502 core to a SystemBus with 2KB of mirrored work RAM, stubbed
// PPU/APU register windows, OAM DMA (spec.md §4.4's documented 513/514-cycle
// stall), and the 8-bit shift-register controller (input.go). No teacher
// equivalent; the System shape itself is new, built from the bus/CPU/
// scheduler primitives adapted from the teacher elsewhere in this repo.
package main

const (
	nesCyclesPerFrame = 29780 // NTSC: 262 scanlines * ~113.67 CPU cycles
)

// NESSystem is one Instance (scheduler.go) driving a MOS6502 at the NTSC
// NES's bus timing.
type NESSystem struct {
	cpu        *MOS6502
	bus        *SystemBus
	controller *NESController
	audio      *AudioQueue
	ppuLatch   uint32
	oamDMAHigh byte
}

func NewNESSystem(rom []byte) *NESSystem {
	bus := NewSystemBus(0x10000, LittleEndian)
	s := &NESSystem{
		bus:        bus,
		controller: NewNESController(),
		audio:      NewAudioQueue(2048),
	}

	// Work RAM ($0000-$07FF) is mirrored through $1FFF.
	bus.MapWindow(&DeviceWindow{
		Start: 0x0800, End: 0x1FFF,
		Read:  func(addr uint32) uint32 { return uint32(bus.Read8(addr & 0x7FF)) },
		Write: func(addr uint32, v uint32) { bus.Write8(addr&0x7FF, byte(v)) },
	})
	// PPU registers ($2000-$3FFF, mirrored every 8 bytes) and APU/IO
	// registers ($4000-$4017) are open-bus stubs: they hold the last
	// value written and echo it back on read, since this core models
	// only the CPU-visible bus contract, not pixel/sample generation
	// (spec.md §1 Non-goals).
	bus.MapWindow(&DeviceWindow{
		Start: 0x2000, End: 0x3FFF,
		Read:  func(addr uint32) uint32 { return s.ppuLatch },
		Write: func(addr uint32, v uint32) { s.ppuLatch = v },
	})
	// Split around $4014 so the dedicated OAM DMA window below isn't
	// shadowed by this broader stub (MapWindow's lookup returns the
	// first registered window whose range contains the address).
	bus.MapWindow(&DeviceWindow{
		Start: 0x4000, End: 0x4013,
		Read:  func(addr uint32) uint32 { return s.ppuLatch },
		Write: func(addr uint32, v uint32) { s.ppuLatch = v },
	})
	bus.MapWindow(&DeviceWindow{
		Start: 0x4015, End: 0x4015,
		Read:  func(addr uint32) uint32 { return s.ppuLatch },
		Write: func(addr uint32, v uint32) { s.ppuLatch = v },
	})
	bus.MapWindow(&DeviceWindow{
		Start: 0x4016, End: 0x4016,
		Read:  func(addr uint32) uint32 { return uint32(s.controller.ReadPort(0)) },
		Write: func(addr uint32, v uint32) { s.controller.WritePort(0, byte(v)) },
	})
	// $4014: OAM DMA trigger. Writing the source page queues a 256-byte
	// transfer into internal OAM (modeled here as a fixed RAM region)
	// and stalls the CPU for 513 (or 514 on an odd cycle) cycles.
	bus.MapWindow(&DeviceWindow{
		Start: 0x4014, End: 0x4014,
		Write: func(addr uint32, v uint32) {
			s.oamDMAHigh = byte(v)
			bus.DMA().Request(uint32(s.oamDMAHigh)<<8, 0x5000, 255, 0) // length is count-1: 256 bytes
			stall := 513
			if bus.Cycles()%2 == 1 {
				stall = 514
			}
			bus.Step(stall)
		},
	})

	copy(bus.Memory()[0x8000:], rom)
	bus.SetROM(0x8000, 0xFFFF)
	s.cpu = NewMOS6502(bus)
	s.cpu.Reset()
	return s
}

func (s *NESSystem) StepFrame() PixelSurface {
	budget := s.bus.Cycles() + nesCyclesPerFrame
	for s.bus.Cycles() < budget {
		if s.bus.DMA().Active() {
			s.bus.DMA().Drain()
			continue
		}
		s.cpu.Step()
	}
	return PixelSurface{Pixels: make([]byte, 256*240*4), Width: 256, Height: 240}
}

func (s *NESSystem) Audio() *AudioQueue { return s.audio }
func (s *NESSystem) Close() error       { return nil }

func (s *NESSystem) SetInput(state JoypadState) { s.controller.Latch(state) }
