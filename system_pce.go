// system_pce.go - PC Engine / TurboGrafx-16 System integration
// (SPEC_FULL.md §9).
//
// Wires the HuC6280 core to an MMU-mapped 8-bank window (the MPR register file
// already modeled on huc6280.go) and the multi-tap 5-player controller
// (input.go). No teacher equivalent.
package main

const pceCyclesPerFrame = 119692 // 7.16MHz / 59.82Hz NTSC PCE frame budget

// PCESystem drives the HuC6280 core; bank switching is entirely the CPU's own
// MPR register file (huc6280.go), so this System only needs to supply the
// flat physical backing store the CPU's mapAddr indexes into.
type PCESystem struct {
	cpu     *HuC6280
	bus     *SystemBus
	tap     *PCEMultitap
	audio   *AudioQueue
	padLatch byte
}

func NewPCESystem(rom []byte) *PCESystem {
	bus := NewSystemBus(0x200000, LittleEndian) // 21-bit physical address space
	s := &PCESystem{
		bus:   bus,
		tap:   NewPCEMultitap(),
		audio: NewAudioQueue(2048),
	}

	// I/O port $1000 is the multitap select/data register.
	bus.MapWindow(&DeviceWindow{
		Start: 0x1000, End: 0x1000,
		Read:  func(addr uint32) uint32 { return uint32(s.tap.ReadPort(0)) },
		Write: func(addr uint32, v uint32) { s.padLatch = byte(v); s.tap.WritePort(0, byte(v)) },
	})

	// ROM is mapped starting at physical bank 0; cartridge HuCards are
	// typically 256KB-1MB and bank-switched by the CPU's own MPR writes.
	copy(bus.Memory()[0:], rom)
	bus.SetROM(0, uint32(len(rom)-1))
	s.cpu = NewHuC6280(bus)
	s.cpu.Reset()
	return s
}

func (s *PCESystem) StepFrame() PixelSurface {
	budget := s.bus.Cycles() + pceCyclesPerFrame
	for s.bus.Cycles() < budget {
		if s.bus.DMA().Active() {
			s.bus.DMA().Drain()
			continue
		}
		s.cpu.Step()
	}
	return PixelSurface{Pixels: make([]byte, 256*240*4), Width: 256, Height: 240}
}

func (s *PCESystem) Audio() *AudioQueue { return s.audio }
func (s *PCESystem) Close() error       { return nil }

func (s *PCESystem) SetInput(player int, state JoypadState) { s.tap.LatchPlayer(player, state) }
