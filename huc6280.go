// huc6280.go - HuC6280 CPU core (spec.md §5, Tier 2: representative
// decode/operator coverage, not exhaustive ISA).
//
// No teacher equivalent; grounded on
// _examples/original_source/utopia/src/core/huc6280.rs for the MPR
// bank-mapping scheme, the fixed physical stack page, and the
// TMA/TAM/CSL/CSH PC Engine extensions layered on top of a 65C02 base.
package main

const (
	huc6280ZeroPage  = 0x1F0000
	huc6280StackPage = 0x1F0100
)

const (
	huc6280FlagC = 1 << 0
	huc6280FlagZ = 1 << 1
	huc6280FlagI = 1 << 2
	huc6280FlagD = 1 << 3
	huc6280FlagB = 1 << 4
	huc6280FlagV = 1 << 6
	huc6280FlagN = 1 << 7
)

// HuC6280 is the PC Engine / TurboGrafx-16 CPU: a 65C02 derivative with
// an 8-entry memory page register (MPR) that maps each 8KB slice of
// the 16-bit address space to a 21-bit physical page, and a
// hardware-fixed stack page that bypasses the MPR. The timer and both
// IRQ lines are masked by the I flag alone.
type HuC6280 struct {
	A, X, Y byte
	S       byte
	PC      uint16
	P       byte
	MPR     [8]byte
	bus     Bus
	Cycles  uint64
}

func NewHuC6280(bus Bus) *HuC6280 {
	c := &HuC6280{bus: bus}
	c.Reset()
	return c
}

func (c *HuC6280) Reset() {
	c.S = 0xFF
	c.P = huc6280FlagI
	for i := range c.MPR {
		c.MPR[i] = 0
	}
	c.PC = c.read16(0xFFFE)
}

func (c *HuC6280) flag(bit byte) bool { return c.P&bit != 0 }
func (c *HuC6280) setFlag(bit byte, v bool) {
	if v {
		c.P |= bit
	} else {
		c.P &^= bit
	}
}

// mapAddr replicates Core::map: the top 3 bits of a 16-bit address
// select one of 8 MPR banks, whose byte value forms the top bits of a
// 21-bit physical address; the low 13 bits of the address pass through.
func (c *HuC6280) mapAddr(addr uint16) uint32 {
	bank := addr >> 13
	return uint32(c.MPR[bank])<<13 | uint32(addr&0x1FFF)
}

func (c *HuC6280) read(addr uint16) byte  { return c.bus.Read8(c.mapAddr(addr)) }
func (c *HuC6280) write(addr uint16, v byte) { c.bus.Write8(c.mapAddr(addr), v) }

func (c *HuC6280) read16(addr uint16) uint16 {
	lo := uint16(c.read(addr))
	hi := uint16(c.read(addr + 1))
	return hi<<8 | lo
}

func (c *HuC6280) fetch() byte {
	v := c.read(c.PC)
	c.PC++
	return v
}

func (c *HuC6280) fetch16() uint16 {
	lo := uint16(c.fetch())
	hi := uint16(c.fetch())
	return hi<<8 | lo
}

// push/pull use the hardware-fixed physical stack page (0x1F0100),
// bypassing MPR bank mapping entirely, matching huc6280.rs's
// STACK_PAGE constant used directly by push/pull rather than through
// map().
func (c *HuC6280) push(v byte) {
	c.bus.Write8(huc6280StackPage|uint32(c.S), v)
	c.S--
}

func (c *HuC6280) pull() byte {
	c.S++
	return c.bus.Read8(huc6280StackPage | uint32(c.S))
}

func (c *HuC6280) push16(v uint16) {
	c.push(byte(v >> 8))
	c.push(byte(v))
}

func (c *HuC6280) pull16() uint16 {
	lo := uint16(c.pull())
	hi := uint16(c.pull())
	return hi<<8 | lo
}

func (c *HuC6280) setNZ(v byte) {
	c.setFlag(huc6280FlagZ, v == 0)
	c.setFlag(huc6280FlagN, v&0x80 != 0)
}

func (c *HuC6280) pollInterrupts() bool {
	pending := c.bus.Poll()
	if c.flag(huc6280FlagI) {
		pending &^= HuC6280IRQTimer | HuC6280IRQ1 | HuC6280IRQ2
	}
	if pending == 0 {
		return false
	}
	var vector uint16
	switch {
	case pending.Has(HuC6280IRQReset):
		c.bus.Acknowledge(HuC6280IRQReset)
		vector = 0xFFFE
	case pending.Has(HuC6280IRQNMI):
		c.bus.Acknowledge(HuC6280IRQNMI)
		vector = 0xFFFC
	case pending.Has(HuC6280IRQTimer):
		vector = 0xFFFA
	case pending.Has(HuC6280IRQ1):
		vector = 0xFFF8
	case pending.Has(HuC6280IRQ2):
		vector = 0xFFF6
	default:
		return false
	}
	c.push16(c.PC)
	c.push(c.P &^ huc6280FlagB)
	c.setFlag(huc6280FlagI, true)
	c.setFlag(huc6280FlagD, false)
	c.PC = c.read16(vector)
	c.Cycles += 8
	return true
}

func (c *HuC6280) Step() int {
	before := c.Cycles
	if c.pollInterrupts() {
		spent := int(c.Cycles - before)
		c.bus.Step(spent)
		return spent
	}
	opcode := c.fetch()
	c.execute(opcode)
	spent := int(c.Cycles - before)
	c.bus.Step(spent)
	return spent
}

func (c *HuC6280) zp(offset byte) uint16  { return uint16(offset) }
func (c *HuC6280) zpX(offset byte) uint16 { return uint16(offset + c.X) }
func (c *HuC6280) abs() uint16            { return c.fetch16() }
func (c *HuC6280) absX() uint16           { return c.fetch16() + uint16(c.X) }
func (c *HuC6280) absY() uint16           { return c.fetch16() + uint16(c.Y) }

func (c *HuC6280) adc(value byte) {
	cin := byte(0)
	if c.flag(huc6280FlagC) {
		cin = 1
	}
	result16 := uint16(c.A) + uint16(value) + uint16(cin)
	overflow := (c.A^byte(result16))&(value^byte(result16))&0x80 != 0
	c.setFlag(huc6280FlagC, result16 > 0xFF)
	c.setFlag(huc6280FlagV, overflow)
	c.A = byte(result16)
	c.setNZ(c.A)
}

func (c *HuC6280) sbc(value byte) { c.adc(^value) }

// execute covers the 65C02 base used by a representative PC Engine
// program: LDA/STA in zero-page and absolute modes, immediate-mode
// loads and ALU ops, INC/DEC, ASL/LSR on A, branches,
// JMP/JSR/RTS/RTI, stack ops, flag ops, and the HuC6280-specific
// TAM/TMA bank-register transfer and CSL/CSH clock-speed instructions.
// Indirect-indexed addressing, BBR/BBS/RMB/SMB bit-test-and-branch, and
// block transfer (TII/TDD/TIN/TIA/TAI) are out of Tier 2 scope.
func (c *HuC6280) execute(opcode byte) {
	switch opcode {
	case 0xEA: // NOP
		c.Cycles += 2
	case 0x18:
		c.setFlag(huc6280FlagC, false)
		c.Cycles += 2
	case 0x38:
		c.setFlag(huc6280FlagC, true)
		c.Cycles += 2
	case 0x58:
		c.setFlag(huc6280FlagI, false)
		c.Cycles += 2
	case 0x78:
		c.setFlag(huc6280FlagI, true)
		c.Cycles += 2
	case 0xD8:
		c.setFlag(huc6280FlagD, false)
		c.Cycles += 2
	case 0xF8:
		c.setFlag(huc6280FlagD, true)
		c.Cycles += 2
	case 0x54, 0xD4: // CSL / CSH: PC Engine clock-speed select, no core state
		c.Cycles += 3
	case 0x43: // TMA: transfer MPR[bit] -> A (bitmask in next byte selects bank)
		mask := c.fetch()
		for i := 0; i < 8; i++ {
			if mask&(1<<i) != 0 {
				c.A = c.MPR[i]
			}
		}
		c.Cycles += 4
	case 0x53: // TAM: transfer A -> MPR[bit]
		mask := c.fetch()
		for i := 0; i < 8; i++ {
			if mask&(1<<i) != 0 {
				c.MPR[i] = c.A
			}
		}
		c.Cycles += 5
	case 0xA9: // LDA #imm
		c.A = c.fetch()
		c.setNZ(c.A)
		c.Cycles += 2
	case 0xA5: // LDA zp
		c.A = c.read(c.zp(c.fetch()))
		c.setNZ(c.A)
		c.Cycles += 3
	case 0xAD: // LDA abs
		c.A = c.read(c.abs())
		c.setNZ(c.A)
		c.Cycles += 4
	case 0x85: // STA zp
		c.write(c.zp(c.fetch()), c.A)
		c.Cycles += 3
	case 0x8D: // STA abs
		c.write(c.abs(), c.A)
		c.Cycles += 4
	case 0xA2: // LDX #imm
		c.X = c.fetch()
		c.setNZ(c.X)
		c.Cycles += 2
	case 0xA0: // LDY #imm
		c.Y = c.fetch()
		c.setNZ(c.Y)
		c.Cycles += 2
	case 0x69: // ADC #imm
		c.adc(c.fetch())
		c.Cycles += 2
	case 0xE9: // SBC #imm
		c.sbc(c.fetch())
		c.Cycles += 2
	case 0x29: // AND #imm
		c.A &= c.fetch()
		c.setNZ(c.A)
		c.Cycles += 2
	case 0x09: // ORA #imm
		c.A |= c.fetch()
		c.setNZ(c.A)
		c.Cycles += 2
	case 0x49: // EOR #imm
		c.A ^= c.fetch()
		c.setNZ(c.A)
		c.Cycles += 2
	case 0xC9: // CMP #imm
		v := c.fetch()
		c.setFlag(huc6280FlagC, c.A >= v)
		c.setNZ(c.A - v)
		c.Cycles += 2
	case 0xE8: // INX
		c.X++
		c.setNZ(c.X)
		c.Cycles += 2
	case 0xCA: // DEX
		c.X--
		c.setNZ(c.X)
		c.Cycles += 2
	case 0xC8: // INY
		c.Y++
		c.setNZ(c.Y)
		c.Cycles += 2
	case 0x88: // DEY
		c.Y--
		c.setNZ(c.Y)
		c.Cycles += 2
	case 0xE6: // INC zp
		addr := c.zp(c.fetch())
		v := c.read(addr) + 1
		c.write(addr, v)
		c.setNZ(v)
		c.Cycles += 5
	case 0xC6: // DEC zp
		addr := c.zp(c.fetch())
		v := c.read(addr) - 1
		c.write(addr, v)
		c.setNZ(v)
		c.Cycles += 5
	case 0x0A: // ASL A
		c.setFlag(huc6280FlagC, c.A&0x80 != 0)
		c.A <<= 1
		c.setNZ(c.A)
		c.Cycles += 2
	case 0x4A: // LSR A
		c.setFlag(huc6280FlagC, c.A&0x01 != 0)
		c.A >>= 1
		c.setNZ(c.A)
		c.Cycles += 2
	case 0x48: // PHA
		c.push(c.A)
		c.Cycles += 3
	case 0x68: // PLA
		c.A = c.pull()
		c.setNZ(c.A)
		c.Cycles += 4
	case 0x08: // PHP
		c.push(c.P | huc6280FlagB)
		c.Cycles += 3
	case 0x28: // PLP
		c.P = c.pull()
		c.Cycles += 4
	case 0x4C: // JMP abs
		c.PC = c.fetch16()
		c.Cycles += 3
	case 0x20: // JSR abs
		target := c.fetch16()
		c.push16(c.PC - 1)
		c.PC = target
		c.Cycles += 6
	case 0x60: // RTS
		c.PC = c.pull16() + 1
		c.Cycles += 6
	case 0x40: // RTI
		c.P = c.pull()
		c.PC = c.pull16()
		c.Cycles += 6
	case 0xF0: // BEQ
		c.branch(c.flag(huc6280FlagZ))
	case 0xD0: // BNE
		c.branch(!c.flag(huc6280FlagZ))
	case 0x90: // BCC
		c.branch(!c.flag(huc6280FlagC))
	case 0xB0: // BCS
		c.branch(c.flag(huc6280FlagC))
	case 0x80: // BRA
		c.branch(true)
	default:
		c.Cycles += 2
	}
}

func (c *HuC6280) branch(taken bool) {
	disp := int8(c.fetch())
	if taken {
		c.PC = uint16(int32(c.PC) + int32(disp))
		c.Cycles += 4
	} else {
		c.Cycles += 2
	}
}
