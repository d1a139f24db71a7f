// input.go - controller input mapping (spec.md §4.6 / SPEC_FULL.md §12).
//
// No teacher equivalent (the teacher's own input handling is a thin
// keyboard-to-terminal-byte translator in video_backend_ebiten.go,
// generalized here from "emit terminal bytes" to "set JoypadState
// bits"). Each console's wire protocol is grounded on spec.md §6's
// named shift-register/serial/JoyBus descriptions; there being no
// single source file for any of them, the per-console encodings below
// follow the well-known hardware protocols those console names imply.
package main

// Button indices into JoypadState.Buttons, covering the union of
// buttons any one of the six supported consoles exposes. Each
// InputMapper reads only the subset meaningful to its console.
const (
	ButtonA = iota
	ButtonB
	ButtonC
	ButtonX
	ButtonY
	ButtonZ
	ButtonStart
	ButtonSelect
	ButtonL
	ButtonR
	ButtonUp
	ButtonDown
	ButtonLeft
	ButtonRight
	ButtonL2
	ButtonR2
)

// JoypadState is the console-agnostic input snapshot a caller hands to a
// System's SetInput; each System's InputMapper translates it into that
// console's wire format. The Ebiten presenter polls no keys or gamepads,
// so nothing in this repo builds one from host input.
type JoypadState struct {
	Buttons [16]bool
	Axes    [4]int16 // analog stick X/Y pairs (N64 controller, GameCube-style C-stick)
}

// InputMapper is the shared per-console controller interface: Latch
// captures a JoypadState snapshot (the hardware "strobe" moment), and
// ReadPort/WritePort expose the resulting wire protocol to a System's
// bus so the CPU core observes it exactly as real controller hardware
// would present it.
type InputMapper interface {
	Latch(state JoypadState)
	ReadPort(port int) byte
	WritePort(port int, value byte)
}

// NESController is an 8-bit parallel-to-serial shift register: writing
// bit 0 of $4016 high then low latches all 8 buttons, and each
// subsequent read shifts the next button out of bit 0 (A, B, Select,
// Start, Up, Down, Left, Right — NES's fixed report order), with 1s
// shifted in once the register is exhausted (open-bus convention).
type NESController struct {
	shift  byte
	index  int
	strobe bool
}

func NewNESController() *NESController { return &NESController{} }

func (c *NESController) Latch(state JoypadState) {
	order := []int{ButtonA, ButtonB, ButtonSelect, ButtonStart, ButtonUp, ButtonDown, ButtonLeft, ButtonRight}
	c.shift = 0
	for i, btn := range order {
		if state.Buttons[btn] {
			c.shift |= 1 << uint(i)
		}
	}
	c.index = 0
}

func (c *NESController) WritePort(port int, value byte) {
	wasStrobing := c.strobe
	c.strobe = value&0x01 != 0
	if wasStrobing && !c.strobe {
		c.index = 0
	}
}

func (c *NESController) ReadPort(port int) byte {
	if c.index >= 8 {
		return 1
	}
	bit := (c.shift >> uint(c.index)) & 1
	c.index++
	return bit
}

// GenesisController is the 3-button TTL controller: every write to the
// data port toggles the "TH" read cycle, and reads alternate between
// two active-low 6-bit reports (D-pad/B/C, then Up/Down/A/Start). The
// 6-button extension is not modeled: X/Y/Z/Mode are never reported.
type GenesisController struct {
	state   JoypadState
	thCycle int
}

func NewGenesisController() *GenesisController { return &GenesisController{} }

func (c *GenesisController) Latch(state JoypadState) { c.state = state; c.thCycle = 0 }

func (c *GenesisController) WritePort(port int, value byte) {
	// Any write to the data port advances the read cycle; the value is ignored.
	c.thCycle = (c.thCycle + 1) % 4
}

func (c *GenesisController) ReadPort(port int) byte {
	s := c.state
	switch c.thCycle % 2 {
	case 0: // even cycle: D-pad in bits 0-3, B in bit 4, C in bit 5
		var v byte
		if !s.Buttons[ButtonUp] {
			v |= 1 << 0
		}
		if !s.Buttons[ButtonDown] {
			v |= 1 << 1
		}
		if !s.Buttons[ButtonLeft] {
			v |= 1 << 2
		}
		if !s.Buttons[ButtonRight] {
			v |= 1 << 3
		}
		if !s.Buttons[ButtonB] {
			v |= 1 << 4
		}
		if !s.Buttons[ButtonC] {
			v |= 1 << 5
		}
		return v
	default: // odd cycle: Up/Down in bits 0-1, bits 2-3 high, A in bit 4, Start in bit 5
		var v byte
		if !s.Buttons[ButtonUp] {
			v |= 1 << 0
		}
		if !s.Buttons[ButtonDown] {
			v |= 1 << 1
		}
		v |= 1 << 2
		v |= 1 << 3
		if !s.Buttons[ButtonA] {
			v |= 1 << 4
		}
		if !s.Buttons[ButtonStart] {
			v |= 1 << 5
		}
		return v
	}
}

// N64Controller implements the JoyBus command/response protocol (spec.md
// §4.6): the PIF issues a 1-byte command over the serial line and the
// controller answers with a fixed-length response — command 0x01
// ("read state") returns a 4-byte button/axis report.
type N64Controller struct {
	state   JoypadState
	command byte
	resp    [4]byte
	respPos int
}

func NewN64Controller() *N64Controller { return &N64Controller{} }

func (c *N64Controller) Latch(state JoypadState) { c.state = state }

func (c *N64Controller) WritePort(port int, value byte) {
	c.command = value
	c.respPos = 0
	if c.command == 0x01 {
		s := c.state
		var b0, b1 byte
		if s.Buttons[ButtonA] {
			b0 |= 1 << 7
		}
		if s.Buttons[ButtonB] {
			b0 |= 1 << 6
		}
		if s.Buttons[ButtonZ] {
			b0 |= 1 << 5
		}
		if s.Buttons[ButtonStart] {
			b0 |= 1 << 4
		}
		if s.Buttons[ButtonUp] {
			b0 |= 1 << 3
		}
		if s.Buttons[ButtonDown] {
			b0 |= 1 << 2
		}
		if s.Buttons[ButtonLeft] {
			b0 |= 1 << 1
		}
		if s.Buttons[ButtonRight] {
			b0 |= 1 << 0
		}
		if s.Buttons[ButtonL] {
			b1 |= 1 << 5
		}
		if s.Buttons[ButtonR] {
			b1 |= 1 << 4
		}
		c.resp = [4]byte{b0, b1, byte(s.Axes[0]), byte(s.Axes[1])}
	}
}

func (c *N64Controller) ReadPort(port int) byte {
	if c.respPos >= len(c.resp) {
		return 0
	}
	v := c.resp[c.respPos]
	c.respPos++
	return v
}

// SNESController shifts out a 16-bit report (12 real buttons, then 4
// bits that always read 0), MSB first, matching the SNES pad's serial
// clock/latch convention.
type SNESController struct {
	shift  uint16
	index  int
	strobe bool
}

func NewSNESController() *SNESController { return &SNESController{} }

func (c *SNESController) Latch(state JoypadState) {
	order := []int{ButtonB, ButtonY, ButtonSelect, ButtonStart, ButtonUp, ButtonDown, ButtonLeft, ButtonRight,
		ButtonA, ButtonX, ButtonL, ButtonR}
	var v uint16
	for i, btn := range order {
		if state.Buttons[btn] {
			v |= 1 << uint(15-i)
		}
	}
	c.shift = v
	c.index = 0
}

func (c *SNESController) WritePort(port int, value byte) {
	wasStrobing := c.strobe
	c.strobe = value&0x01 != 0
	if wasStrobing && !c.strobe {
		c.index = 0
	}
}

func (c *SNESController) ReadPort(port int) byte {
	if c.index >= 16 {
		return 1
	}
	bit := byte((c.shift >> uint(15-c.index)) & 1)
	c.index++
	return bit
}

// PCEMultitap models the PC Engine 5-player tap: a 3-bit select
// (bits 0-2 of the written value; 5-7 fall back to pad 0) chooses which
// of the 5 pads answers the next read, each pad itself a 2-button
// report (bits 0-3 D-pad, 4 = II, 5 = I, 6 = Select, 7 = Run — the
// standard PCE pad bit layout, active-low).
type PCEMultitap struct {
	pads     [5]JoypadState
	selected int
}

func NewPCEMultitap() *PCEMultitap { return &PCEMultitap{} }

func (c *PCEMultitap) Latch(state JoypadState) { c.pads[0] = state }

func (c *PCEMultitap) LatchPlayer(player int, state JoypadState) {
	if player >= 0 && player < len(c.pads) {
		c.pads[player] = state
	}
}

func (c *PCEMultitap) WritePort(port int, value byte) {
	c.selected = int(value & 0x07)
	if c.selected >= len(c.pads) {
		c.selected = 0
	}
}

func (c *PCEMultitap) ReadPort(port int) byte {
	s := c.pads[c.selected]
	var v byte = 0xFF
	if s.Buttons[ButtonUp] {
		v &^= 1 << 0
	}
	if s.Buttons[ButtonRight] {
		v &^= 1 << 1
	}
	if s.Buttons[ButtonDown] {
		v &^= 1 << 2
	}
	if s.Buttons[ButtonLeft] {
		v &^= 1 << 3
	}
	if s.Buttons[ButtonB] {
		v &^= 1 << 4
	}
	if s.Buttons[ButtonA] {
		v &^= 1 << 5
	}
	if s.Buttons[ButtonSelect] {
		v &^= 1 << 6
	}
	if s.Buttons[ButtonStart] {
		v &^= 1 << 7
	}
	return v
}

// GBController is NES-like but narrower: a 4-button action group and a
// 4-button direction group, selected by two bits of $FF00 rather than
// shifted serially.
type GBController struct {
	state        JoypadState
	selectAction bool
	selectDirs   bool
}

func NewGBController() *GBController { return &GBController{} }

func (c *GBController) Latch(state JoypadState) { c.state = state }

func (c *GBController) WritePort(port int, value byte) {
	c.selectAction = value&0x20 == 0
	c.selectDirs = value&0x10 == 0
}

func (c *GBController) ReadPort(port int) byte {
	var v byte = 0x0F
	s := c.state
	if c.selectAction {
		if s.Buttons[ButtonA] {
			v &^= 1 << 0
		}
		if s.Buttons[ButtonB] {
			v &^= 1 << 1
		}
		if s.Buttons[ButtonSelect] {
			v &^= 1 << 2
		}
		if s.Buttons[ButtonStart] {
			v &^= 1 << 3
		}
	}
	if c.selectDirs {
		if s.Buttons[ButtonRight] {
			v &^= 1 << 0
		}
		if s.Buttons[ButtonLeft] {
			v &^= 1 << 1
		}
		if s.Buttons[ButtonUp] {
			v &^= 1 << 2
		}
		if s.Buttons[ButtonDown] {
			v &^= 1 << 3
		}
	}
	return v
}
