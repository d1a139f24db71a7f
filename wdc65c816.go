// wdc65c816.go - WDC 65C816 CPU core (spec.md §5, Tier 2: representative
// decode/operator coverage, not exhaustive ISA).
//
// No teacher equivalent; grounded on
// _examples/original_source/utopia/src/core/wdc65c816/operator/arithmetic.rs
// for the ADC/SBC binary algorithms and ADC's BCD correction (kept in
// logic, including the two-pass decimal_add8/16 nibble correction; SBC is
// binary only and ignores the D flag), and
// .../instruction/control.rs for the 24-bit program counter (bank byte
// plus 16-bit offset) and the long-jump/long-call instruction forms
// (JML/JSL) a 65816 program actually uses to address beyond bank 0.
package main

const (
	w65FlagC = 1 << 0
	w65FlagZ = 1 << 1
	w65FlagI = 1 << 2
	w65FlagD = 1 << 3
	w65FlagX = 1 << 4 // native mode: index registers are 8-bit when set
	w65FlagM = 1 << 5 // native mode: accumulator/memory is 8-bit when set
	w65FlagV = 1 << 6
	w65FlagN = 1 << 7
)

// WDC65C816 models the SNES main CPU: a 65C02 extended with a 24-bit
// address space (bank + 16-bit offset), a switchable 8/16-bit
// accumulator and index registers (M/X flags), and an emulation-mode
// bit (E) that restores 6502-compatible behavior (stack pinned to page
// 1, no 16-bit register widths) at reset.
type WDC65C816 struct {
	A, X, Y   uint16
	SP        uint16
	D         uint16 // direct page register
	PBR, DBR  byte    // program bank, data bank
	P         byte    // processor status
	PC        uint16
	E         bool // emulation mode
	bus       Bus
	Cycles    uint64
}

func NewWDC65C816(bus Bus) *WDC65C816 {
	c := &WDC65C816{bus: bus}
	c.Reset()
	return c
}

func (c *WDC65C816) Reset() {
	c.E = true
	c.P = w65FlagM | w65FlagX | w65FlagI
	c.SP = 0x01FF
	c.D = 0
	c.PBR, c.DBR = 0, 0
	c.PC = c.read16(0x00FFFC)
}

func (c *WDC65C816) flag(bit byte) bool { return c.P&bit != 0 }
func (c *WDC65C816) setFlag(bit byte, v bool) {
	if v {
		c.P |= bit
	} else {
		c.P &^= bit
	}
}

func (c *WDC65C816) addr24(bank byte, offset uint16) uint32 {
	return uint32(bank)<<16 | uint32(offset)
}

func (c *WDC65C816) read16(addr uint32) uint16 {
	lo := uint16(c.bus.Read8(addr))
	hi := uint16(c.bus.Read8(addr + 1))
	return hi<<8 | lo
}

func (c *WDC65C816) fetch() byte {
	v := c.bus.Read8(c.addr24(c.PBR, c.PC))
	c.PC++
	return v
}

func (c *WDC65C816) fetch16() uint16 {
	lo := uint16(c.fetch())
	hi := uint16(c.fetch())
	return hi<<8 | lo
}

// push/pop honor emulation mode's page-1-pinned stack (high byte of SP
// forced to 0x01) the way real 65816 hardware does when E=1.
func (c *WDC65C816) push(v byte) {
	c.bus.Write8(uint32(c.SP), v)
	c.SP--
	if c.E {
		c.SP = 0x0100 | (c.SP & 0xFF)
	}
}

func (c *WDC65C816) pop() byte {
	c.SP++
	if c.E {
		c.SP = 0x0100 | (c.SP & 0xFF)
	}
	return c.bus.Read8(uint32(c.SP))
}

func (c *WDC65C816) push16(v uint16) {
	c.push(byte(v >> 8))
	c.push(byte(v))
}

func (c *WDC65C816) pop16() uint16 {
	lo := uint16(c.pop())
	hi := uint16(c.pop())
	return hi<<8 | lo
}

func (c *WDC65C816) accumulatorIs8() bool { return c.E || c.flag(w65FlagM) }
func (c *WDC65C816) indexIs8() bool       { return c.E || c.flag(w65FlagX) }

func (c *WDC65C816) setNZ(result uint16, is8 bool) {
	if is8 {
		c.setFlag(w65FlagZ, byte(result) == 0)
		c.setFlag(w65FlagN, result&0x80 != 0)
	} else {
		c.setFlag(w65FlagZ, result == 0)
		c.setFlag(w65FlagN, result&0x8000 != 0)
	}
}

// adc implements ADC in both binary and BCD modes, following the
// teacher-absent reference's binary_add8/16 carry/overflow derivation
// and decimal_add8/16 nibble-at-a-time BCD correction.
func (c *WDC65C816) adc(value uint16) {
	if c.accumulatorIs8() {
		lhs := byte(c.A)
		rhs := byte(value)
		var result byte
		if c.flag(w65FlagD) {
			result = c.decimalAdd8(lhs, rhs)
		} else {
			result = c.binaryAdd8(lhs, rhs)
		}
		c.A = c.A&0xFF00 | uint16(result)
		c.setNZ(uint16(result), true)
	} else {
		var result uint16
		if c.flag(w65FlagD) {
			result = c.decimalAdd16(c.A, value)
		} else {
			result = c.binaryAdd16(c.A, value)
		}
		c.A = result
		c.setNZ(result, false)
	}
}

func (c *WDC65C816) sbc(value uint16) {
	if c.accumulatorIs8() {
		result := c.binaryAdd8(byte(c.A), ^byte(value))
		c.A = c.A&0xFF00 | uint16(result)
		c.setNZ(uint16(result), true)
	} else {
		result := c.binaryAdd16(c.A, ^value)
		c.A = result
		c.setNZ(result, false)
	}
}

func (c *WDC65C816) binaryAdd8(lhs, rhs byte) byte {
	cin := byte(0)
	if c.flag(w65FlagC) {
		cin = 1
	}
	result := lhs + rhs + cin
	carries := lhs ^ rhs ^ result
	overflow := (lhs ^ result) & (rhs ^ result)
	c.setFlag(w65FlagV, overflow&0x80 != 0)
	c.setFlag(w65FlagC, (carries^overflow)&0x80 != 0)
	return result
}

func (c *WDC65C816) binaryAdd16(lhs, rhs uint16) uint16 {
	cin := uint16(0)
	if c.flag(w65FlagC) {
		cin = 1
	}
	result := lhs + rhs + cin
	carries := lhs ^ rhs ^ result
	overflow := (lhs ^ result) & (rhs ^ result)
	c.setFlag(w65FlagV, overflow&0x8000 != 0)
	c.setFlag(w65FlagC, (carries^overflow)&0x8000 != 0)
	return result
}

func (c *WDC65C816) decimalAdd8(lhs, rhs byte) byte {
	cin := byte(0)
	if c.flag(w65FlagC) {
		cin = 1
	}
	result := (lhs & 0x0F) + (rhs & 0x0F) + cin
	if result > 0x09 {
		result += 0x06
	}
	carry := result > 0x0F
	cin2 := byte(0)
	if carry {
		cin2 = 1
	}
	result = (result & 0x0F) + (lhs & 0xF0) + (rhs & 0xF0) + cin2<<4
	c.setFlag(w65FlagV, (lhs^result)&(rhs^result)&0x80 != 0)
	if result > 0x9F {
		result += 0x60
	}
	c.setFlag(w65FlagC, result < lhs)
	return result
}

func (c *WDC65C816) decimalAdd16(lhs, rhs uint16) uint16 {
	cin := uint16(0)
	if c.flag(w65FlagC) {
		cin = 1
	}
	result := (lhs & 0x000F) + (rhs & 0x000F) + cin
	if result > 0x0009 {
		result += 0x0006
	}
	c.setFlag(w65FlagC, result > 0x000F)
	cin2 := uint16(0)
	if c.flag(w65FlagC) {
		cin2 = 1
	}
	result = (result & 0x000F) + (lhs & 0x00F0) + (rhs & 0x00F0) + cin2<<4
	if result > 0x009F {
		result += 0x0060
	}
	c.setFlag(w65FlagC, result > 0x00FF)
	cin3 := uint16(0)
	if c.flag(w65FlagC) {
		cin3 = 1
	}
	result = (result & 0x00FF) + (lhs & 0x0F00) + (rhs & 0x0F00) + cin3<<8
	if result > 0x09FF {
		result += 0x0600
	}
	c.setFlag(w65FlagC, result > 0x0FFF)
	cin4 := uint16(0)
	if c.flag(w65FlagC) {
		cin4 = 1
	}
	result = (result & 0x0FFF) + (lhs & 0xF000) + (rhs & 0xF000) + cin4<<12
	c.setFlag(w65FlagV, (lhs^result)&(rhs^result)&0x8000 != 0)
	if result > 0x9FFF {
		result += 0x6000
	}
	c.setFlag(w65FlagC, result < lhs)
	return result
}

func (c *WDC65C816) Step() int {
	before := c.Cycles
	opcode := c.fetch()
	c.execute(opcode)
	spent := int(c.Cycles - before)
	c.bus.Step(spent)
	return spent
}

func (c *WDC65C816) directPage(offset byte) uint32 {
	return c.addr24(0, c.D+uint16(offset))
}

func (c *WDC65C816) absolute() uint32 {
	return c.addr24(c.DBR, c.fetch16())
}

// execute covers LDA (immediate, direct-page, absolute), STA (direct-page,
// absolute), ADC/SBC/AND/ORA/EOR/CMP immediate, INC/DEC A, BEQ/BNE/BCC/
// BCS/BRA, JMP/JML/JSR/JSL/RTS/RTL, PHA/PLA, REP/SEP/XCE mode control,
// CLC/SEC/CLD/SED/CLI/SEI and NOP; any other opcode costs 2 cycles and has
// no other effect. Index-register loads, stores and pushes, and wider
// 65816 addressing modes (indexed-indirect, stack-relative, block-move
// MVN/MVP) are out of scope at Tier 2.
func (c *WDC65C816) execute(opcode byte) {
	switch opcode {
	case 0xEA: // NOP
		c.Cycles += 2
	case 0x18: // CLC
		c.setFlag(w65FlagC, false)
		c.Cycles += 2
	case 0x38: // SEC
		c.setFlag(w65FlagC, true)
		c.Cycles += 2
	case 0xD8: // CLD
		c.setFlag(w65FlagD, false)
		c.Cycles += 2
	case 0xF8: // SED
		c.setFlag(w65FlagD, true)
		c.Cycles += 2
	case 0x58: // CLI
		c.setFlag(w65FlagI, false)
		c.Cycles += 2
	case 0x78: // SEI
		c.setFlag(w65FlagI, true)
		c.Cycles += 2
	case 0xFB: // XCE: exchange carry and emulation flags
		carry := c.flag(w65FlagC)
		c.setFlag(w65FlagC, c.E)
		c.E = carry
		if c.E {
			c.P |= w65FlagM | w65FlagX
			c.SP = 0x0100 | (c.SP & 0xFF)
		}
		c.Cycles += 2
	case 0xC2: // REP #imm: clear status bits
		c.P &^= c.fetch()
		c.Cycles += 3
	case 0xE2: // SEP #imm: set status bits
		c.P |= c.fetch()
		c.Cycles += 3
	case 0xA9: // LDA #imm
		if c.accumulatorIs8() {
			v := c.fetch()
			c.A = c.A&0xFF00 | uint16(v)
			c.setNZ(uint16(v), true)
			c.Cycles += 2
		} else {
			v := c.fetch16()
			c.A = v
			c.setNZ(v, false)
			c.Cycles += 3
		}
	case 0xA5: // LDA dp
		addr := c.directPage(c.fetch())
		c.loadA(addr)
		c.Cycles += 3
	case 0xAD: // LDA abs
		addr := c.absolute()
		c.loadA(addr)
		c.Cycles += 4
	case 0x85: // STA dp
		addr := c.directPage(c.fetch())
		c.storeA(addr)
		c.Cycles += 3
	case 0x8D: // STA abs
		addr := c.absolute()
		c.storeA(addr)
		c.Cycles += 4
	case 0x69: // ADC #imm
		if c.accumulatorIs8() {
			c.adc(uint16(c.fetch()))
			c.Cycles += 2
		} else {
			c.adc(c.fetch16())
			c.Cycles += 3
		}
	case 0xE9: // SBC #imm
		if c.accumulatorIs8() {
			c.sbc(uint16(c.fetch()))
			c.Cycles += 2
		} else {
			c.sbc(c.fetch16())
			c.Cycles += 3
		}
	case 0x29: // AND #imm
		c.aluImm(func(v uint16) { c.A &= v })
	case 0x09: // ORA #imm
		c.aluImm(func(v uint16) { c.A |= v })
	case 0x49: // EOR #imm
		c.aluImm(func(v uint16) { c.A ^= v })
	case 0xC9: // CMP #imm
		if c.accumulatorIs8() {
			v := c.fetch()
			result := byte(c.A) - v
			c.setFlag(w65FlagC, byte(c.A) >= v)
			c.setNZ(uint16(result), true)
			c.Cycles += 2
		} else {
			v := c.fetch16()
			result := c.A - v
			c.setFlag(w65FlagC, c.A >= v)
			c.setNZ(result, false)
			c.Cycles += 3
		}
	case 0x1A: // INC A
		c.A++
		c.setNZ(c.A, c.accumulatorIs8())
		c.Cycles += 2
	case 0x3A: // DEC A
		c.A--
		c.setNZ(c.A, c.accumulatorIs8())
		c.Cycles += 2
	case 0x4C: // JMP addr
		c.PC = c.fetch16()
		c.Cycles += 3
	case 0x5C: // JML long
		low := c.fetch16()
		bank := c.fetch()
		c.PBR = bank
		c.PC = low
		c.Cycles += 4
	case 0x20: // JSR addr
		target := c.fetch16()
		c.push16(c.PC - 1)
		c.PC = target
		c.Cycles += 6
	case 0x22: // JSL long
		low := c.fetch16()
		bank := c.fetch()
		c.push(c.PBR)
		c.push16(c.PC - 1)
		c.PBR = bank
		c.PC = low
		c.Cycles += 8
	case 0x60: // RTS
		c.PC = c.pop16() + 1
		c.Cycles += 6
	case 0x6B: // RTL
		c.PC = c.pop16() + 1
		c.PBR = c.pop()
		c.Cycles += 6
	case 0x48: // PHA
		if c.accumulatorIs8() {
			c.push(byte(c.A))
		} else {
			c.push16(c.A)
		}
		c.Cycles += 3
	case 0x68: // PLA
		if c.accumulatorIs8() {
			c.A = c.A&0xFF00 | uint16(c.pop())
			c.setNZ(c.A&0xFF, true)
		} else {
			c.A = c.pop16()
			c.setNZ(c.A, false)
		}
		c.Cycles += 4
	case 0xF0: // BEQ
		c.branch(c.flag(w65FlagZ))
	case 0xD0: // BNE
		c.branch(!c.flag(w65FlagZ))
	case 0x90: // BCC
		c.branch(!c.flag(w65FlagC))
	case 0xB0: // BCS
		c.branch(c.flag(w65FlagC))
	case 0x80: // BRA
		c.branch(true)
	default:
		c.Cycles += 2
	}
}

func (c *WDC65C816) aluImm(apply func(uint16)) {
	if c.accumulatorIs8() {
		apply(uint16(c.fetch()))
		c.setNZ(c.A&0xFF, true)
		c.Cycles += 2
	} else {
		apply(c.fetch16())
		c.setNZ(c.A, false)
		c.Cycles += 3
	}
}

func (c *WDC65C816) loadA(addr uint32) {
	if c.accumulatorIs8() {
		v := c.bus.Read8(addr)
		c.A = c.A&0xFF00 | uint16(v)
		c.setNZ(uint16(v), true)
	} else {
		c.A = c.read16(addr)
		c.setNZ(c.A, false)
	}
}

func (c *WDC65C816) storeA(addr uint32) {
	if c.accumulatorIs8() {
		c.bus.Write8(addr, byte(c.A))
	} else {
		c.bus.Write8(addr, byte(c.A))
		c.bus.Write8(addr+1, byte(c.A>>8))
	}
}

func (c *WDC65C816) branch(taken bool) {
	disp := int8(c.fetch())
	if taken {
		c.PC = uint16(int32(c.PC) + int32(disp))
		c.Cycles += 3
	} else {
		c.Cycles += 2
	}
}
