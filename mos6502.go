// mos6502.go - MOS Technology 6502 core (spec.md §5, Tier 1).
//
// Generalized from the teacher's cpu_six5go2.go: the register layout, the
// status-flag helpers, the rmw/push/pop primitives and the decimal-mode
// adc/sbc routines are the teacher's own, rewired here onto the width-
// polymorphic Bus contract (bus.go) instead of the teacher's fixed 8-bit
// Bus6502Adapter over a 32-bit machine bus. Runs against InterruptSet
// (interrupt.go) rather than the teacher's line-level atomic.Bool signals,
// since ownership is single-goroutine per spec.md §5.
package main

const (
	carryFlag6502    = 0x01
	zeroFlag6502     = 0x02
	irqDisableFlag   = 0x04
	decimalFlag6502  = 0x08
	breakFlag6502    = 0x10
	unusedFlag6502   = 0x20
	overflowFlag6502 = 0x40
	negativeFlag6502 = 0x80
)

const (
	stackBase6502 = 0x0100
	resetVector   = 0xFFFC
	irqVector     = 0xFFFE
	nmiVector     = 0xFFFA
)

var nzTable6502 [256]byte

func init() {
	for i := 0; i < 256; i++ {
		if i == 0 {
			nzTable6502[i] |= zeroFlag6502
		}
		if i&0x80 != 0 {
			nzTable6502[i] |= negativeFlag6502
		}
	}
}

// MOS6502 is a cycle-counted, instruction-accurate core for the 6502 family
// (NES 2A03, PC Engine's HuC6280 sibling instruction set). Every memory
// access flows through Bus, which owns cycle stepping per spec.md §4.1.
type MOS6502 struct {
	PC uint16
	SP byte
	A  byte
	X  byte
	Y  byte
	SR byte

	bus Bus

	nmiLine     bool
	nmiPrevious bool
	inInterrupt bool

	Cycles uint64
}

func NewMOS6502(bus Bus) *MOS6502 {
	return &MOS6502{
		bus: bus,
		SP:  0xFF,
		SR:  unusedFlag6502 | irqDisableFlag,
	}
}

// Reset loads PC from the reset vector, per spec.md §4.2's NMI/IRQ/RESET
// vectoring requirement.
func (c *MOS6502) Reset() {
	c.SP = 0xFF
	c.SR = unusedFlag6502 | irqDisableFlag
	c.PC = c.read16(resetVector)
	c.Cycles = 0
	c.nmiLine = false
	c.nmiPrevious = false
}

func (c *MOS6502) read16(addr uint16) uint16 {
	lo := uint16(c.bus.Read8(uint32(addr)))
	hi := uint16(c.bus.Read8(uint32(addr + 1)))
	return lo | hi<<8
}

func (c *MOS6502) updateNZ(v byte) {
	c.SR = (c.SR &^ (zeroFlag6502 | negativeFlag6502)) | nzTable6502[v]
}

func (c *MOS6502) setFlag(flag byte, set bool) {
	if set {
		c.SR |= flag
	} else {
		c.SR &^= flag
	}
}

func (c *MOS6502) getFlag(flag byte) bool { return c.SR&flag != 0 }

func (c *MOS6502) push(v byte) {
	c.bus.Write8(uint32(stackBase6502+uint16(c.SP)), v)
	c.SP--
}

func (c *MOS6502) push16(v uint16) {
	c.push(byte(v >> 8))
	c.push(byte(v))
}

func (c *MOS6502) pop() byte {
	c.SP++
	return c.bus.Read8(uint32(stackBase6502 + uint16(c.SP)))
}

func (c *MOS6502) pop16() uint16 {
	lo := uint16(c.pop())
	hi := uint16(c.pop())
	return lo | hi<<8
}

// rmw performs the 6502's signature read-modify-write double store: the
// unmodified value is written back before the modified one, matching real
// hardware's extra bus cycle (spec.md §4.2, §8).
func (c *MOS6502) rmw(addr uint16, op func(byte) byte) byte {
	v := c.bus.Read8(uint32(addr))
	c.bus.Write8(uint32(addr), v)
	result := op(v)
	c.bus.Write8(uint32(addr), result)
	return result
}

func (c *MOS6502) fetch() byte {
	v := c.bus.Read8(uint32(c.PC))
	c.PC++
	return v
}

func (c *MOS6502) fetch16() uint16 {
	v := c.read16(c.PC)
	c.PC += 2
	return v
}

// Addressing modes. Indexed modes return whether the effective address
// crossed a page boundary, which costs an extra cycle on most read
// instructions.
func (c *MOS6502) zp() uint16  { return uint16(c.fetch()) }
func (c *MOS6502) zpX() uint16 { return uint16(byte(c.fetch() + c.X)) }
func (c *MOS6502) zpY() uint16 { return uint16(byte(c.fetch() + c.Y)) }
func (c *MOS6502) abs() uint16 { return c.fetch16() }

func (c *MOS6502) absX() (uint16, bool) {
	base := c.fetch16()
	addr := base + uint16(c.X)
	return addr, (base & 0xFF00) != (addr & 0xFF00)
}

func (c *MOS6502) absY() (uint16, bool) {
	base := c.fetch16()
	addr := base + uint16(c.Y)
	return addr, (base & 0xFF00) != (addr & 0xFF00)
}

func (c *MOS6502) indX() uint16 {
	zp := byte(c.fetch() + c.X)
	lo := uint16(c.bus.Read8(uint32(zp)))
	hi := uint16(c.bus.Read8(uint32(byte(zp + 1))))
	return lo | hi<<8
}

func (c *MOS6502) indY() (uint16, bool) {
	zp := c.fetch()
	lo := uint16(c.bus.Read8(uint32(zp)))
	hi := uint16(c.bus.Read8(uint32(byte(zp + 1))))
	base := lo | hi<<8
	addr := base + uint16(c.Y)
	return addr, (base & 0xFF00) != (addr & 0xFF00)
}

// adc adds with carry, branching to BCD arithmetic when the decimal flag is
// set. Grounded on the teacher's nibble-by-nibble decimal correction, which
// is the exact behaviour spec.md §8's "6502 ADC decimal" scenario checks.
func (c *MOS6502) adc(value byte) {
	if c.getFlag(decimalFlag6502) {
		a := uint16(c.A)
		b := uint16(value)
		carry := uint16(0)
		if c.getFlag(carryFlag6502) {
			carry = 1
		}

		loA, hiA := a&0x0F, (a>>4)&0x0F
		loB, hiB := b&0x0F, (b>>4)&0x0F

		loSum := loA + loB + carry
		carry = 0
		if loSum > 9 {
			loSum -= 10
			carry = 1
		}
		hiSum := hiA + hiB + carry
		carry = 0
		if hiSum > 9 {
			hiSum -= 10
			carry = 1
		}
		result := byte((hiSum << 4) | loSum)

		c.setFlag(carryFlag6502, carry == 1)
		c.updateNZ(result)
		oldA := c.A
		c.A = result
		overflow := (oldA^value)&0x80 == 0 && (oldA^c.A)&0x80 != 0
		c.setFlag(overflowFlag6502, overflow)
		return
	}

	temp := uint16(c.A) + uint16(value)
	if c.getFlag(carryFlag6502) {
		temp++
	}
	result := byte(temp)
	c.setFlag(carryFlag6502, temp > 0xFF)
	overflow := (c.A^value)&0x80 == 0 && (c.A^result)&0x80 != 0
	c.updateNZ(result)
	c.setFlag(overflowFlag6502, overflow)
	c.A = result
}

func (c *MOS6502) sbc(value byte) {
	if c.getFlag(decimalFlag6502) {
		a := uint16(c.A)
		b := uint16(value)
		borrow := uint16(0)
		if !c.getFlag(carryFlag6502) {
			borrow = 1
		}

		loA, hiA := a&0x0F, (a>>4)&0x0F
		loB, hiB := b&0x0F, (b>>4)&0x0F

		loDiff := loA - loB - borrow
		borrow = 0
		if loDiff&0x10 != 0 {
			loDiff = (loDiff - 6) & 0x0F
			borrow = 1
		}
		hiDiff := hiA - hiB - borrow
		borrow = 0
		if hiDiff&0x10 != 0 {
			hiDiff = (hiDiff - 6) & 0x0F
			borrow = 1
		}
		result := byte((hiDiff << 4) | loDiff)

		c.setFlag(carryFlag6502, borrow == 0)
		c.updateNZ(result)
		oldA := c.A
		c.A = result
		overflow := (oldA^value)&0x80 != 0 && (oldA^c.A)&0x80 != 0
		c.setFlag(overflowFlag6502, overflow)
		return
	}

	temp := uint16(c.A) - uint16(value)
	if !c.getFlag(carryFlag6502) {
		temp--
	}
	result := byte(temp)
	c.setFlag(carryFlag6502, temp < 0x100)
	overflow := (c.A^value)&0x80 != 0 && (c.A^result)&0x80 != 0
	c.updateNZ(result)
	c.setFlag(overflowFlag6502, overflow)
	c.A = result
}

func (c *MOS6502) compare(reg, value byte) {
	temp := uint16(reg) - uint16(value)
	c.setFlag(carryFlag6502, reg >= value)
	c.updateNZ(byte(temp))
}

func (c *MOS6502) branch(condition bool) {
	offset := int8(c.fetch())
	if !condition {
		return
	}
	c.Cycles++
	old := c.PC
	c.PC = uint16(int32(c.PC) + int32(offset))
	if (old & 0xFF00) != (c.PC & 0xFF00) {
		c.Cycles++
	}
}

func (c *MOS6502) asl(value byte) byte {
	c.setFlag(carryFlag6502, value&0x80 != 0)
	result := value << 1
	c.updateNZ(result)
	return result
}

func (c *MOS6502) lsr(value byte) byte {
	c.setFlag(carryFlag6502, value&0x01 != 0)
	result := value >> 1
	c.updateNZ(result)
	return result
}

func (c *MOS6502) rol(value byte) byte {
	carry := byte(0)
	if c.getFlag(carryFlag6502) {
		carry = 1
	}
	c.setFlag(carryFlag6502, value&0x80 != 0)
	result := (value << 1) | carry
	c.updateNZ(result)
	return result
}

func (c *MOS6502) ror(value byte) byte {
	carry := byte(0)
	if c.getFlag(carryFlag6502) {
		carry = 0x80
	}
	c.setFlag(carryFlag6502, value&0x01 != 0)
	result := (value >> 1) | carry
	c.updateNZ(result)
	return result
}

// handleInterrupt pushes PC/SR and vectors to the handler. IRQ is masked by
// the I flag; NMI and RESET never are, per spec.md §4.2.
func (c *MOS6502) handleInterrupt(vector uint16, pushBreak bool) {
	c.push16(c.PC)
	sr := c.SR | unusedFlag6502
	if pushBreak {
		sr |= breakFlag6502
	} else {
		sr &^= breakFlag6502
	}
	c.push(sr)
	c.setFlag(irqDisableFlag, true)
	c.PC = c.read16(vector)
	c.Cycles += 7
}

// pollInterrupts checks the bus's InterruptSet once per instruction
// boundary, edge-triggering NMI and level-triggering IRQ, per spec.md §4.2.
// It enters at most one interrupt and reports whether it entered one.
func (c *MOS6502) pollInterrupts() bool {
	pending := c.bus.Poll()
	nmiLine := pending.Has(IRQNMI)
	nmiEdge := nmiLine && !c.nmiPrevious
	c.nmiPrevious = nmiLine
	if nmiEdge {
		c.handleInterrupt(nmiVector, false)
		c.bus.Acknowledge(IRQNMI)
		return true
	}

	if (pending.Has(IRQTimer) || pending.Has(IRQUser)) && !c.getFlag(irqDisableFlag) {
		c.handleInterrupt(irqVector, false)
		return true
	}
	return false
}

// Step either enters a pending interrupt (leaving PC at the handler's
// first instruction) or executes exactly one instruction, advances Cycles
// by its cost, steps the bus by the same amount, and returns the cycle
// count consumed.
func (c *MOS6502) Step() int {
	before := c.Cycles
	if !c.pollInterrupts() {
		opcode := c.fetch()
		c.execute(opcode)
	}
	spent := int(c.Cycles - before)
	c.bus.Step(spent)
	return spent
}

func (c *MOS6502) execute(opcode byte) {
	switch opcode {
	// ---- Load ----
	case 0xA9:
		c.A = c.fetch()
		c.updateNZ(c.A)
		c.Cycles += 2
	case 0xA5:
		c.A = c.bus.Read8(uint32(c.zp()))
		c.updateNZ(c.A)
		c.Cycles += 3
	case 0xB5:
		c.A = c.bus.Read8(uint32(c.zpX()))
		c.updateNZ(c.A)
		c.Cycles += 4
	case 0xAD:
		c.A = c.bus.Read8(uint32(c.abs()))
		c.updateNZ(c.A)
		c.Cycles += 4
	case 0xBD:
		addr, crossed := c.absX()
		c.A = c.bus.Read8(uint32(addr))
		c.updateNZ(c.A)
		c.Cycles += 4
		if crossed {
			c.Cycles++
		}
	case 0xB9:
		addr, crossed := c.absY()
		c.A = c.bus.Read8(uint32(addr))
		c.updateNZ(c.A)
		c.Cycles += 4
		if crossed {
			c.Cycles++
		}
	case 0xA1:
		c.A = c.bus.Read8(uint32(c.indX()))
		c.updateNZ(c.A)
		c.Cycles += 6
	case 0xB1:
		addr, crossed := c.indY()
		c.A = c.bus.Read8(uint32(addr))
		c.updateNZ(c.A)
		c.Cycles += 5
		if crossed {
			c.Cycles++
		}
	case 0xA2:
		c.X = c.fetch()
		c.updateNZ(c.X)
		c.Cycles += 2
	case 0xA6:
		c.X = c.bus.Read8(uint32(c.zp()))
		c.updateNZ(c.X)
		c.Cycles += 3
	case 0xB6:
		c.X = c.bus.Read8(uint32(c.zpY()))
		c.updateNZ(c.X)
		c.Cycles += 4
	case 0xAE:
		c.X = c.bus.Read8(uint32(c.abs()))
		c.updateNZ(c.X)
		c.Cycles += 4
	case 0xBE:
		addr, crossed := c.absY()
		c.X = c.bus.Read8(uint32(addr))
		c.updateNZ(c.X)
		c.Cycles += 4
		if crossed {
			c.Cycles++
		}
	case 0xA0:
		c.Y = c.fetch()
		c.updateNZ(c.Y)
		c.Cycles += 2
	case 0xA4:
		c.Y = c.bus.Read8(uint32(c.zp()))
		c.updateNZ(c.Y)
		c.Cycles += 3
	case 0xB4:
		c.Y = c.bus.Read8(uint32(c.zpX()))
		c.updateNZ(c.Y)
		c.Cycles += 4
	case 0xAC:
		c.Y = c.bus.Read8(uint32(c.abs()))
		c.updateNZ(c.Y)
		c.Cycles += 4
	case 0xBC:
		addr, crossed := c.absX()
		c.Y = c.bus.Read8(uint32(addr))
		c.updateNZ(c.Y)
		c.Cycles += 4
		if crossed {
			c.Cycles++
		}

	// ---- Store ----
	case 0x85:
		c.bus.Write8(uint32(c.zp()), c.A)
		c.Cycles += 3
	case 0x95:
		c.bus.Write8(uint32(c.zpX()), c.A)
		c.Cycles += 4
	case 0x8D:
		c.bus.Write8(uint32(c.abs()), c.A)
		c.Cycles += 4
	case 0x9D:
		addr, _ := c.absX()
		c.bus.Write8(uint32(addr), c.A)
		c.Cycles += 5
	case 0x99:
		addr, _ := c.absY()
		c.bus.Write8(uint32(addr), c.A)
		c.Cycles += 5
	case 0x81:
		c.bus.Write8(uint32(c.indX()), c.A)
		c.Cycles += 6
	case 0x91:
		addr, _ := c.indY()
		c.bus.Write8(uint32(addr), c.A)
		c.Cycles += 6
	case 0x86:
		c.bus.Write8(uint32(c.zp()), c.X)
		c.Cycles += 3
	case 0x96:
		c.bus.Write8(uint32(c.zpY()), c.X)
		c.Cycles += 4
	case 0x8E:
		c.bus.Write8(uint32(c.abs()), c.X)
		c.Cycles += 4
	case 0x84:
		c.bus.Write8(uint32(c.zp()), c.Y)
		c.Cycles += 3
	case 0x94:
		c.bus.Write8(uint32(c.zpX()), c.Y)
		c.Cycles += 4
	case 0x8C:
		c.bus.Write8(uint32(c.abs()), c.Y)
		c.Cycles += 4

	// ---- Transfer/stack ----
	case 0xAA:
		c.X = c.A
		c.updateNZ(c.X)
		c.Cycles += 2
	case 0xA8:
		c.Y = c.A
		c.updateNZ(c.Y)
		c.Cycles += 2
	case 0x8A:
		c.A = c.X
		c.updateNZ(c.A)
		c.Cycles += 2
	case 0x98:
		c.A = c.Y
		c.updateNZ(c.A)
		c.Cycles += 2
	case 0xBA:
		c.X = c.SP
		c.updateNZ(c.X)
		c.Cycles += 2
	case 0x9A:
		c.SP = c.X
		c.Cycles += 2
	case 0x48:
		c.push(c.A)
		c.Cycles += 3
	case 0x68:
		c.A = c.pop()
		c.updateNZ(c.A)
		c.Cycles += 4
	case 0x08:
		c.push(c.SR | unusedFlag6502 | breakFlag6502)
		c.Cycles += 3
	case 0x28:
		c.SR = (c.pop() &^ breakFlag6502) | unusedFlag6502
		c.Cycles += 4

	// ---- Arithmetic ----
	case 0x69:
		c.adc(c.fetch())
		c.Cycles += 2
	case 0x65:
		c.adc(c.bus.Read8(uint32(c.zp())))
		c.Cycles += 3
	case 0x75:
		c.adc(c.bus.Read8(uint32(c.zpX())))
		c.Cycles += 4
	case 0x6D:
		c.adc(c.bus.Read8(uint32(c.abs())))
		c.Cycles += 4
	case 0x7D:
		addr, crossed := c.absX()
		c.adc(c.bus.Read8(uint32(addr)))
		c.Cycles += 4
		if crossed {
			c.Cycles++
		}
	case 0x79:
		addr, crossed := c.absY()
		c.adc(c.bus.Read8(uint32(addr)))
		c.Cycles += 4
		if crossed {
			c.Cycles++
		}
	case 0x61:
		c.adc(c.bus.Read8(uint32(c.indX())))
		c.Cycles += 6
	case 0x71:
		addr, crossed := c.indY()
		c.adc(c.bus.Read8(uint32(addr)))
		c.Cycles += 5
		if crossed {
			c.Cycles++
		}
	case 0xE9:
		c.sbc(c.fetch())
		c.Cycles += 2
	case 0xE5:
		c.sbc(c.bus.Read8(uint32(c.zp())))
		c.Cycles += 3
	case 0xF5:
		c.sbc(c.bus.Read8(uint32(c.zpX())))
		c.Cycles += 4
	case 0xED:
		c.sbc(c.bus.Read8(uint32(c.abs())))
		c.Cycles += 4
	case 0xFD:
		addr, crossed := c.absX()
		c.sbc(c.bus.Read8(uint32(addr)))
		c.Cycles += 4
		if crossed {
			c.Cycles++
		}
	case 0xF9:
		addr, crossed := c.absY()
		c.sbc(c.bus.Read8(uint32(addr)))
		c.Cycles += 4
		if crossed {
			c.Cycles++
		}
	case 0xE1:
		c.sbc(c.bus.Read8(uint32(c.indX())))
		c.Cycles += 6
	case 0xF1:
		addr, crossed := c.indY()
		c.sbc(c.bus.Read8(uint32(addr)))
		c.Cycles += 5
		if crossed {
			c.Cycles++
		}

	// ---- Logic ----
	case 0x29:
		c.A &= c.fetch()
		c.updateNZ(c.A)
		c.Cycles += 2
	case 0x25:
		c.A &= c.bus.Read8(uint32(c.zp()))
		c.updateNZ(c.A)
		c.Cycles += 3
	case 0x35:
		c.A &= c.bus.Read8(uint32(c.zpX()))
		c.updateNZ(c.A)
		c.Cycles += 4
	case 0x2D:
		c.A &= c.bus.Read8(uint32(c.abs()))
		c.updateNZ(c.A)
		c.Cycles += 4
	case 0x3D:
		addr, crossed := c.absX()
		c.A &= c.bus.Read8(uint32(addr))
		c.updateNZ(c.A)
		c.Cycles += 4
		if crossed {
			c.Cycles++
		}
	case 0x39:
		addr, crossed := c.absY()
		c.A &= c.bus.Read8(uint32(addr))
		c.updateNZ(c.A)
		c.Cycles += 4
		if crossed {
			c.Cycles++
		}
	case 0x21:
		c.A &= c.bus.Read8(uint32(c.indX()))
		c.updateNZ(c.A)
		c.Cycles += 6
	case 0x31:
		addr, crossed := c.indY()
		c.A &= c.bus.Read8(uint32(addr))
		c.updateNZ(c.A)
		c.Cycles += 5
		if crossed {
			c.Cycles++
		}
	case 0x09:
		c.A |= c.fetch()
		c.updateNZ(c.A)
		c.Cycles += 2
	case 0x05:
		c.A |= c.bus.Read8(uint32(c.zp()))
		c.updateNZ(c.A)
		c.Cycles += 3
	case 0x15:
		c.A |= c.bus.Read8(uint32(c.zpX()))
		c.updateNZ(c.A)
		c.Cycles += 4
	case 0x0D:
		c.A |= c.bus.Read8(uint32(c.abs()))
		c.updateNZ(c.A)
		c.Cycles += 4
	case 0x1D:
		addr, crossed := c.absX()
		c.A |= c.bus.Read8(uint32(addr))
		c.updateNZ(c.A)
		c.Cycles += 4
		if crossed {
			c.Cycles++
		}
	case 0x19:
		addr, crossed := c.absY()
		c.A |= c.bus.Read8(uint32(addr))
		c.updateNZ(c.A)
		c.Cycles += 4
		if crossed {
			c.Cycles++
		}
	case 0x01:
		c.A |= c.bus.Read8(uint32(c.indX()))
		c.updateNZ(c.A)
		c.Cycles += 6
	case 0x11:
		addr, crossed := c.indY()
		c.A |= c.bus.Read8(uint32(addr))
		c.updateNZ(c.A)
		c.Cycles += 5
		if crossed {
			c.Cycles++
		}
	case 0x49:
		c.A ^= c.fetch()
		c.updateNZ(c.A)
		c.Cycles += 2
	case 0x45:
		c.A ^= c.bus.Read8(uint32(c.zp()))
		c.updateNZ(c.A)
		c.Cycles += 3
	case 0x55:
		c.A ^= c.bus.Read8(uint32(c.zpX()))
		c.updateNZ(c.A)
		c.Cycles += 4
	case 0x4D:
		c.A ^= c.bus.Read8(uint32(c.abs()))
		c.updateNZ(c.A)
		c.Cycles += 4
	case 0x5D:
		addr, crossed := c.absX()
		c.A ^= c.bus.Read8(uint32(addr))
		c.updateNZ(c.A)
		c.Cycles += 4
		if crossed {
			c.Cycles++
		}
	case 0x59:
		addr, crossed := c.absY()
		c.A ^= c.bus.Read8(uint32(addr))
		c.updateNZ(c.A)
		c.Cycles += 4
		if crossed {
			c.Cycles++
		}
	case 0x41:
		c.A ^= c.bus.Read8(uint32(c.indX()))
		c.updateNZ(c.A)
		c.Cycles += 6
	case 0x51:
		addr, crossed := c.indY()
		c.A ^= c.bus.Read8(uint32(addr))
		c.updateNZ(c.A)
		c.Cycles += 5
		if crossed {
			c.Cycles++
		}

	// ---- Compare ----
	case 0xC9:
		c.compare(c.A, c.fetch())
		c.Cycles += 2
	case 0xC5:
		c.compare(c.A, c.bus.Read8(uint32(c.zp())))
		c.Cycles += 3
	case 0xD5:
		c.compare(c.A, c.bus.Read8(uint32(c.zpX())))
		c.Cycles += 4
	case 0xCD:
		c.compare(c.A, c.bus.Read8(uint32(c.abs())))
		c.Cycles += 4
	case 0xDD:
		addr, crossed := c.absX()
		c.compare(c.A, c.bus.Read8(uint32(addr)))
		c.Cycles += 4
		if crossed {
			c.Cycles++
		}
	case 0xD9:
		addr, crossed := c.absY()
		c.compare(c.A, c.bus.Read8(uint32(addr)))
		c.Cycles += 4
		if crossed {
			c.Cycles++
		}
	case 0xC1:
		c.compare(c.A, c.bus.Read8(uint32(c.indX())))
		c.Cycles += 6
	case 0xD1:
		addr, crossed := c.indY()
		c.compare(c.A, c.bus.Read8(uint32(addr)))
		c.Cycles += 5
		if crossed {
			c.Cycles++
		}
	case 0xE0:
		c.compare(c.X, c.fetch())
		c.Cycles += 2
	case 0xE4:
		c.compare(c.X, c.bus.Read8(uint32(c.zp())))
		c.Cycles += 3
	case 0xEC:
		c.compare(c.X, c.bus.Read8(uint32(c.abs())))
		c.Cycles += 4
	case 0xC0:
		c.compare(c.Y, c.fetch())
		c.Cycles += 2
	case 0xC4:
		c.compare(c.Y, c.bus.Read8(uint32(c.zp())))
		c.Cycles += 3
	case 0xCC:
		c.compare(c.Y, c.bus.Read8(uint32(c.abs())))
		c.Cycles += 4

	// ---- Increment/decrement ----
	case 0xE6:
		addr := c.zp()
		c.rmw(addr, func(v byte) byte { r := v + 1; c.updateNZ(r); return r })
		c.Cycles += 5
	case 0xF6:
		addr := c.zpX()
		c.rmw(addr, func(v byte) byte { r := v + 1; c.updateNZ(r); return r })
		c.Cycles += 6
	case 0xEE:
		addr := c.abs()
		c.rmw(addr, func(v byte) byte { r := v + 1; c.updateNZ(r); return r })
		c.Cycles += 6
	case 0xFE:
		addr, _ := c.absX()
		c.rmw(addr, func(v byte) byte { r := v + 1; c.updateNZ(r); return r })
		c.Cycles += 7
	case 0xC6:
		addr := c.zp()
		c.rmw(addr, func(v byte) byte { r := v - 1; c.updateNZ(r); return r })
		c.Cycles += 5
	case 0xD6:
		addr := c.zpX()
		c.rmw(addr, func(v byte) byte { r := v - 1; c.updateNZ(r); return r })
		c.Cycles += 6
	case 0xCE:
		addr := c.abs()
		c.rmw(addr, func(v byte) byte { r := v - 1; c.updateNZ(r); return r })
		c.Cycles += 6
	case 0xDE:
		addr, _ := c.absX()
		c.rmw(addr, func(v byte) byte { r := v - 1; c.updateNZ(r); return r })
		c.Cycles += 7
	case 0xE8:
		c.X++
		c.updateNZ(c.X)
		c.Cycles += 2
	case 0xC8:
		c.Y++
		c.updateNZ(c.Y)
		c.Cycles += 2
	case 0xCA:
		c.X--
		c.updateNZ(c.X)
		c.Cycles += 2
	case 0x88:
		c.Y--
		c.updateNZ(c.Y)
		c.Cycles += 2

	// ---- Shifts/rotates ----
	case 0x0A:
		c.A = c.asl(c.A)
		c.Cycles += 2
	case 0x06:
		addr := c.zp()
		c.rmw(addr, c.asl)
		c.Cycles += 5
	case 0x16:
		addr := c.zpX()
		c.rmw(addr, c.asl)
		c.Cycles += 6
	case 0x0E:
		addr := c.abs()
		c.rmw(addr, c.asl)
		c.Cycles += 6
	case 0x1E:
		addr, _ := c.absX()
		c.rmw(addr, c.asl)
		c.Cycles += 7
	case 0x4A:
		c.A = c.lsr(c.A)
		c.Cycles += 2
	case 0x46:
		addr := c.zp()
		c.rmw(addr, c.lsr)
		c.Cycles += 5
	case 0x56:
		addr := c.zpX()
		c.rmw(addr, c.lsr)
		c.Cycles += 6
	case 0x4E:
		addr := c.abs()
		c.rmw(addr, c.lsr)
		c.Cycles += 6
	case 0x5E:
		addr, _ := c.absX()
		c.rmw(addr, c.lsr)
		c.Cycles += 7
	case 0x2A:
		c.A = c.rol(c.A)
		c.Cycles += 2
	case 0x26:
		addr := c.zp()
		c.rmw(addr, c.rol)
		c.Cycles += 5
	case 0x36:
		addr := c.zpX()
		c.rmw(addr, c.rol)
		c.Cycles += 6
	case 0x2E:
		addr := c.abs()
		c.rmw(addr, c.rol)
		c.Cycles += 6
	case 0x3E:
		addr, _ := c.absX()
		c.rmw(addr, c.rol)
		c.Cycles += 7
	case 0x6A:
		c.A = c.ror(c.A)
		c.Cycles += 2
	case 0x66:
		addr := c.zp()
		c.rmw(addr, c.ror)
		c.Cycles += 5
	case 0x76:
		addr := c.zpX()
		c.rmw(addr, c.ror)
		c.Cycles += 6
	case 0x6E:
		addr := c.abs()
		c.rmw(addr, c.ror)
		c.Cycles += 6
	case 0x7E:
		addr, _ := c.absX()
		c.rmw(addr, c.ror)
		c.Cycles += 7

	// ---- Bit test ----
	case 0x24:
		v := c.bus.Read8(uint32(c.zp()))
		c.setFlag(zeroFlag6502, c.A&v == 0)
		c.setFlag(overflowFlag6502, v&0x40 != 0)
		c.setFlag(negativeFlag6502, v&0x80 != 0)
		c.Cycles += 3
	case 0x2C:
		v := c.bus.Read8(uint32(c.abs()))
		c.setFlag(zeroFlag6502, c.A&v == 0)
		c.setFlag(overflowFlag6502, v&0x40 != 0)
		c.setFlag(negativeFlag6502, v&0x80 != 0)
		c.Cycles += 4

	// ---- Jumps/calls ----
	case 0x4C:
		c.PC = c.abs()
		c.Cycles += 3
	case 0x6C:
		ptr := c.abs()
		// Indirect JMP page-wrap bug: if the low byte of the pointer is
		// 0xFF, the high byte is fetched from the start of the same page
		// instead of the next one, per spec.md §4.2/§8.
		lo := uint16(c.bus.Read8(uint32(ptr)))
		hi := uint16(c.bus.Read8(uint32((ptr & 0xFF00) | ((ptr + 1) & 0x00FF))))
		c.PC = lo | hi<<8
		c.Cycles += 5
	case 0x20:
		target := c.abs()
		c.push16(c.PC - 1)
		c.PC = target
		c.Cycles += 6
	case 0x60:
		c.PC = c.pop16() + 1
		c.Cycles += 6
	case 0x40:
		c.SR = (c.pop() &^ breakFlag6502) | unusedFlag6502
		c.PC = c.pop16()
		c.Cycles += 6
	case 0x00:
		c.PC++
		c.handleInterrupt(irqVector, true)

	// ---- Branches ----
	case 0x10:
		c.branch(!c.getFlag(negativeFlag6502))
		c.Cycles += 2
	case 0x30:
		c.branch(c.getFlag(negativeFlag6502))
		c.Cycles += 2
	case 0x50:
		c.branch(!c.getFlag(overflowFlag6502))
		c.Cycles += 2
	case 0x70:
		c.branch(c.getFlag(overflowFlag6502))
		c.Cycles += 2
	case 0x90:
		c.branch(!c.getFlag(carryFlag6502))
		c.Cycles += 2
	case 0xB0:
		c.branch(c.getFlag(carryFlag6502))
		c.Cycles += 2
	case 0xD0:
		c.branch(!c.getFlag(zeroFlag6502))
		c.Cycles += 2
	case 0xF0:
		c.branch(c.getFlag(zeroFlag6502))
		c.Cycles += 2

	// ---- Flags ----
	case 0x18:
		c.setFlag(carryFlag6502, false)
		c.Cycles += 2
	case 0x38:
		c.setFlag(carryFlag6502, true)
		c.Cycles += 2
	case 0x58:
		c.setFlag(irqDisableFlag, false)
		c.Cycles += 2
	case 0x78:
		c.setFlag(irqDisableFlag, true)
		c.Cycles += 2
	case 0xB8:
		c.setFlag(overflowFlag6502, false)
		c.Cycles += 2
	case 0xD8:
		c.setFlag(decimalFlag6502, false)
		c.Cycles += 2
	case 0xF8:
		c.setFlag(decimalFlag6502, true)
		c.Cycles += 2

	case 0xEA:
		c.Cycles += 2

	default:
		// Undocumented opcodes behave as a 2-cycle NOP; spec.md's Tier 1
		// fidelity bar is the documented instruction set (§5).
		c.Cycles += 2
	}
}
