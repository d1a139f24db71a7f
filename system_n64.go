// system_n64.go - Nintendo 64 System integration (SPEC_FULL.md §9).
//
// Wires the MIPS core to the JoyBus controller protocol (input.go) and
// allocates PI/SI DMA engines that nothing queues requests on; the RDP is
// treated as an opaque collaborator behind a
// command-FIFO DeviceWindow, never rasterized here, per spec.md §1
// Non-goals. No teacher equivalent.
package main

const n64CyclesPerFrame = 1562500 // VR4300 @ 93.75MHz / 60Hz

// N64System drives the MIPS core. The cartridge ROM is copied directly into
// RDRAM at 0x100000 and the controller is reached through a window at
// 0x1FC007C0; the PI and SI DMA engines are drained by StepFrame but no
// transfer is ever queued on either.
type N64System struct {
	cpu        *MIPS
	bus        *SystemBus
	controller *N64Controller
	audio      *AudioQueue
	pi         *DMAEngine
	si         *DMAEngine
	rdpFIFO    []uint32
}

func NewN64System(rom []byte) *N64System {
	bus := NewSystemBus(0x800000, BigEndian) // 8MB RDRAM, MIPS is big-endian here
	s := &N64System{
		bus:        bus,
		controller: NewN64Controller(),
		audio:      NewAudioQueue(4096),
		pi:         NewDMAEngine(bus),
		si:         NewDMAEngine(bus),
	}

	// RDP command FIFO ($04100000 region, cut down to a single register
	// pair here): writes enqueue opaque command words, per spec.md §1's
	// explicit exclusion of rasterization from this core.
	bus.MapWindow(&DeviceWindow{
		Start: 0x04100000, End: 0x04100007,
		Write: func(addr uint32, v uint32) { s.rdpFIFO = append(s.rdpFIFO, v) },
		Read:  func(addr uint32) uint32 { return uint32(len(s.rdpFIFO)) },
	})
	// SI controller channel: a command byte written to the PIF RAM mirror
	// drives the JoyBus state machine; the response is read back from the
	// same offset.
	bus.MapWindow(&DeviceWindow{
		Start: 0x1FC007C0, End: 0x1FC007C0,
		Write: func(addr uint32, v uint32) { s.controller.WritePort(0, byte(v)) },
		Read:  func(addr uint32) uint32 { return uint32(s.controller.ReadPort(0)) },
	})

	copy(bus.Memory()[0x100000:], rom)
	s.cpu = NewMIPS(bus)
	s.cpu.Reset()
	return s
}

func (s *N64System) StepFrame() PixelSurface {
	budget := s.bus.Cycles() + n64CyclesPerFrame
	for s.bus.Cycles() < budget {
		if s.pi.Active() {
			s.pi.Drain()
			continue
		}
		if s.si.Active() {
			s.si.Drain()
			continue
		}
		s.cpu.Step()
	}
	return PixelSurface{Pixels: make([]byte, 320*240*4), Width: 320, Height: 240}
}

func (s *N64System) Audio() *AudioQueue { return s.audio }
func (s *N64System) Close() error       { return nil }

func (s *N64System) SetInput(state JoypadState) { s.controller.Latch(state) }
