// system_snes.go - SNES System integration (SPEC_FULL.md §9).
//
// Wires the WDC65C816 core to an SPC700 audio coprocessor behind the
// 4-port APU communication window, a DMA engine (hdma) that StepFrame
// drains but nothing requests, with no per-scanline HDMA timing, and the
// 16-bit serial controller (input.go). No teacher equivalent.
package main

const snesCyclesPerFrame = 59559 // 21.477MHz/6 effective / 60.1Hz NTSC

// SNESSystem drives the WDC65C816 core; the SPC700 runs on its own 64KB
// address space (the APU's local sound RAM), exchanging bytes with the
// main CPU through four one-byte mailbox ports at $2140-$2143 mirrored on
// both sides (the SPC700 sees them at $F4-$F7).
type SNESSystem struct {
	cpu         *WDC65C816
	spc         *SPC700
	bus         *SystemBus
	spcBus      *SystemBus
	controller  *SNESController
	audio       *AudioQueue
	toSPC       [4]byte
	fromSPC     [4]byte
	hdma        *DMAEngine
}

func NewSNESSystem(rom []byte) *SNESSystem {
	bus := NewSystemBus(0x1000000, LittleEndian)
	s := &SNESSystem{
		bus:        bus,
		controller: NewSNESController(),
		audio:      NewAudioQueue(4096),
		hdma:       NewDMAEngine(bus),
	}

	for i := 0; i < 4; i++ {
		i := i
		bus.MapWindow(&DeviceWindow{
			Start: uint32(0x2140 + i), End: uint32(0x2140 + i),
			Read:  func(addr uint32) uint32 { return uint32(s.fromSPC[i]) },
			Write: func(addr uint32, v uint32) { s.toSPC[i] = byte(v) },
		})
	}
	bus.MapWindow(&DeviceWindow{
		Start: 0x4016, End: 0x4017,
		Read: func(addr uint32) uint32 {
			return uint32(s.controller.ReadPort(int(addr - 0x4016)))
		},
		Write: func(addr uint32, v uint32) { s.controller.WritePort(0, byte(v)) },
	})

	copy(bus.Memory()[0x8000:], rom)
	bus.SetROM(0x8000, 0xFFFF)
	s.cpu = NewWDC65C816(bus)
	s.cpu.Reset()

	spcBus := NewSystemBus(0x10000, LittleEndian)
	for i := 0; i < 4; i++ {
		i := i
		spcBus.MapWindow(&DeviceWindow{
			Start: uint32(0xF4 + i), End: uint32(0xF4 + i),
			Read:  func(addr uint32) uint32 { return uint32(s.toSPC[i]) },
			Write: func(addr uint32, v uint32) { s.fromSPC[i] = byte(v) },
		})
	}
	s.spcBus = spcBus
	s.spc = NewSPC700(spcBus)
	s.spc.Reset()
	return s
}

func (s *SNESSystem) StepFrame() PixelSurface {
	budget := s.bus.Cycles() + snesCyclesPerFrame
	spcCredit := 0
	for s.bus.Cycles() < budget {
		if s.hdma.Active() {
			s.hdma.Drain()
			continue
		}
		spent := s.cpu.Step()
		spcCredit += spent
		for spcCredit > 0 {
			spcCredit -= s.spc.Step()
		}
	}
	return PixelSurface{Pixels: make([]byte, 256*224*4), Width: 256, Height: 224}
}

func (s *SNESSystem) Audio() *AudioQueue { return s.audio }
func (s *SNESSystem) Close() error       { return nil }

func (s *SNESSystem) SetInput(state JoypadState) { s.controller.Latch(state) }
