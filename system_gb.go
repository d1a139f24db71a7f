// system_gb.go - Game Boy System integration (SPEC_FULL.md §9).
//
// Wires the SM83 core to an echo-RAM mirror, stubbed PPU/APU windows, a single
// OAM DMA engine (160-cycle stall), and the 2-button/D-pad controller
// (input.go). No teacher equivalent.
package main

const gbCyclesPerFrame = 70224 // 4.194304MHz / 59.73Hz, standard GB frame budget

// GBSystem drives the SM83 core at DMG timing.
type GBSystem struct {
	cpu        *SM83
	bus        *SystemBus
	controller *GBController
	audio      *AudioQueue
	dmaActive  bool
	dmaRemain  int
}

func NewGBSystem(rom []byte) *GBSystem {
	bus := NewSystemBus(0x10000, LittleEndian)
	s := &GBSystem{
		bus:        bus,
		controller: NewGBController(),
		audio:      NewAudioQueue(2048),
	}

	// Echo RAM ($E000-$FDFF) mirrors work RAM ($C000-$DDFF) exactly, the
	// well-known DMG quirk carried over from its address decoder only
	// partially decoding A13.
	bus.MapWindow(&DeviceWindow{
		Start: 0xE000, End: 0xFDFF,
		Read:  func(addr uint32) uint32 { return uint32(bus.Read8(addr - 0x2000)) },
		Write: func(addr uint32, v uint32) { bus.Write8(addr-0x2000, byte(v)) },
	})
	// PPU ($FF40-$FF4B) / APU ($FF10-$FF3F) registers: open-bus stub.
	// $FF46 is carved out so the dedicated OAM DMA window below isn't
	// shadowed (MapWindow's lookup returns the first registered window
	// whose range contains the address).
	var lastPPU, lastAPU uint32
	bus.MapWindow(&DeviceWindow{
		Start: 0xFF40, End: 0xFF45,
		Read:  func(addr uint32) uint32 { return lastPPU },
		Write: func(addr uint32, v uint32) { lastPPU = v },
	})
	bus.MapWindow(&DeviceWindow{
		Start: 0xFF47, End: 0xFF4B,
		Read:  func(addr uint32) uint32 { return lastPPU },
		Write: func(addr uint32, v uint32) { lastPPU = v },
	})
	bus.MapWindow(&DeviceWindow{
		Start: 0xFF10, End: 0xFF3F,
		Read:  func(addr uint32) uint32 { return lastAPU },
		Write: func(addr uint32, v uint32) { lastAPU = v },
	})
	bus.MapWindow(&DeviceWindow{
		Start: 0xFF00, End: 0xFF00,
		Read:  func(addr uint32) uint32 { return uint32(s.controller.ReadPort(0)) },
		Write: func(addr uint32, v uint32) { s.controller.WritePort(0, byte(v)) },
	})
	// $FF46: OAM DMA trigger, a fixed 160-cycle stall per spec.md §4.4.
	bus.MapWindow(&DeviceWindow{
		Start: 0xFF46, End: 0xFF46,
		Write: func(addr uint32, v uint32) {
			bus.DMA().Request(uint32(v)<<8, 0xFE00, 159, 0) // length is count-1: 160 bytes
			s.dmaActive = true
			s.dmaRemain = 160
		},
	})

	copy(bus.Memory()[0x0000:], rom)
	bus.SetROM(0x0000, 0x7FFF)
	s.cpu = NewSM83(bus)
	s.cpu.Reset()
	return s
}

func (s *GBSystem) StepFrame() PixelSurface {
	budget := s.bus.Cycles() + gbCyclesPerFrame
	for s.bus.Cycles() < budget {
		if s.bus.DMA().Active() {
			s.bus.DMA().Drain()
			continue
		}
		s.cpu.Step()
	}
	return PixelSurface{Pixels: make([]byte, 160*144*4), Width: 160, Height: 144}
}

func (s *GBSystem) Audio() *AudioQueue { return s.audio }
func (s *GBSystem) Close() error       { return nil }

func (s *GBSystem) SetInput(state JoypadState) { s.controller.Latch(state) }
