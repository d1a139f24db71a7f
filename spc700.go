// spc700.go - SPC700 CPU core (spec.md §5, Tier 2: representative
// decode/operator coverage, not exhaustive ISA).
//
// No teacher equivalent; grounded on
// _examples/original_source/utopia/src/core/spc700/instruction/word.rs
// for the YA 16-bit register pair and its word-wide operators
// (MOVW/INCW/DECW/ADDW/SUBW/CMPW), the only SPC700 source file that
// survived the original_source filter for this spec.
package main

const (
	spc700FlagC = 1 << 0
	spc700FlagZ = 1 << 1
	spc700FlagI = 1 << 2
	spc700FlagH = 1 << 3
	spc700FlagB = 1 << 4
	spc700FlagP = 1 << 5 // direct page select
	spc700FlagV = 1 << 6
	spc700FlagN = 1 << 7
)

// SPC700 is the SNES audio coprocessor's CPU: an 8-bit core with a
// 16-bit YA accumulator pair (Y holds the high byte, A the low byte)
// used by dedicated word-wide instructions, and a direct-page flag
// that relocates zero-page-style addressing to page 1 (0x100-0x1FF)
// when set.
type SPC700 struct {
	A, X, Y byte
	SP      byte
	PSW     byte
	PC      uint16
	bus     Bus
	Cycles  uint64
}

func NewSPC700(bus Bus) *SPC700 {
	c := &SPC700{bus: bus}
	c.Reset()
	return c
}

func (c *SPC700) Reset() {
	c.SP = 0xEF
	c.PSW = 0
	c.PC = c.read16(0xFFFE)
}

func (c *SPC700) flag(bit byte) bool { return c.PSW&bit != 0 }
func (c *SPC700) setFlag(bit byte, v bool) {
	if v {
		c.PSW |= bit
	} else {
		c.PSW &^= bit
	}
}

func (c *SPC700) directBase() uint16 {
	if c.flag(spc700FlagP) {
		return 0x100
	}
	return 0x000
}

func (c *SPC700) readDirect(offset byte) byte    { return c.bus.Read8(uint32(c.directBase() + uint16(offset))) }
func (c *SPC700) writeDirect(offset byte, v byte) { c.bus.Write8(uint32(c.directBase()+uint16(offset)), v) }

func (c *SPC700) read16(addr uint16) uint16 {
	lo := uint16(c.bus.Read8(uint32(addr)))
	hi := uint16(c.bus.Read8(uint32(addr) + 1))
	return hi<<8 | lo
}

func (c *SPC700) fetch() byte {
	v := c.bus.Read8(uint32(c.PC))
	c.PC++
	return v
}

func (c *SPC700) push(v byte) {
	c.bus.Write8(0x100+uint32(c.SP), v)
	c.SP--
}

func (c *SPC700) pop() byte {
	c.SP++
	return c.bus.Read8(0x100 + uint32(c.SP))
}

func (c *SPC700) ya() uint16     { return uint16(c.Y)<<8 | uint16(c.A) }
func (c *SPC700) setYA(v uint16) { c.A = byte(v); c.Y = byte(v >> 8) }

func (c *SPC700) setNZ8(v byte) {
	c.setFlag(spc700FlagZ, v == 0)
	c.setFlag(spc700FlagN, v&0x80 != 0)
}

func (c *SPC700) setNZ16(v uint16) {
	c.setFlag(spc700FlagZ, v == 0)
	c.setFlag(spc700FlagN, v&0x8000 != 0)
}

// incw/decw/cmpw/addw/subw/movwRead/movwWrite follow word.rs's
// low-byte-then-high-byte direct-page access order and flag
// derivation (N/Z taken from the high byte OR'd with the low byte;
// ADDW/SUBW's carry/overflow via the same XOR-based derivation used
// by every other core's binary adder in this repo).
func (c *SPC700) incw() {
	lowAddr := c.fetch()
	low := c.readDirect(lowAddr) + 1
	c.writeDirect(lowAddr, low)
	carry := byte(0)
	if low == 0 {
		carry = 1
	}
	highAddr := lowAddr + 1
	high := c.readDirect(highAddr) + carry
	c.writeDirect(highAddr, high)
	c.setFlag(spc700FlagN, high&0x80 != 0)
	c.setFlag(spc700FlagZ, high|low == 0)
}

func (c *SPC700) decw() {
	lowAddr := c.fetch()
	lowBefore := c.readDirect(lowAddr)
	low := lowBefore - 1
	c.writeDirect(lowAddr, low)
	borrow := byte(0)
	if lowBefore == 0 {
		borrow = 1
	}
	highAddr := lowAddr + 1
	high := c.readDirect(highAddr) - borrow
	c.writeDirect(highAddr, high)
	c.setFlag(spc700FlagN, high&0x80 != 0)
	c.setFlag(spc700FlagZ, high|low == 0)
}

func (c *SPC700) cmpw() {
	lowAddr := c.fetch()
	low := c.readDirect(lowAddr)
	high := c.readDirect(lowAddr + 1)
	rhs := uint16(high)<<8 | uint16(low)
	lhs := c.ya()
	result := lhs - rhs
	c.setFlag(spc700FlagC, lhs >= rhs)
	c.setNZ16(result)
}

func (c *SPC700) addw() {
	lowAddr := c.fetch()
	low := c.readDirect(lowAddr)
	high := c.readDirect(lowAddr + 1)
	rhs := uint16(high)<<8 | uint16(low)
	lhs := c.ya()
	result := lhs + rhs
	carries := lhs ^ rhs ^ result
	overflow := (lhs ^ result) & (rhs ^ result)
	c.setYA(result)
	c.setFlag(spc700FlagV, overflow&0x8000 != 0)
	c.setFlag(spc700FlagH, carries&0x1000 != 0)
	c.setFlag(spc700FlagC, (carries^overflow)&0x8000 != 0)
	c.setNZ16(result)
}

func (c *SPC700) subw() {
	lowAddr := c.fetch()
	low := c.readDirect(lowAddr)
	high := c.readDirect(lowAddr + 1)
	rhs := uint16(high)<<8 | uint16(low)
	lhs := c.ya()
	result := lhs - rhs
	carries := lhs ^ ^rhs ^ result
	overflow := (lhs ^ result) & (lhs ^ rhs)
	c.setYA(result)
	c.setFlag(spc700FlagV, overflow&0x8000 != 0)
	c.setFlag(spc700FlagH, carries&0x1000 != 0)
	c.setFlag(spc700FlagC, (carries^overflow)&0x8000 != 0)
	c.setNZ16(result)
}

func (c *SPC700) movwRead() {
	lowAddr := c.fetch()
	c.A = c.readDirect(lowAddr)
	c.Y = c.readDirect(lowAddr + 1)
	c.setFlag(spc700FlagN, c.Y&0x80 != 0)
	c.setFlag(spc700FlagZ, c.Y|c.A == 0)
}

func (c *SPC700) movwWrite() {
	lowAddr := c.fetch()
	c.writeDirect(lowAddr, c.A)
	c.writeDirect(lowAddr+1, c.Y)
}

func (c *SPC700) adc(value byte) {
	cin := byte(0)
	if c.flag(spc700FlagC) {
		cin = 1
	}
	result16 := uint16(c.A) + uint16(value) + uint16(cin)
	carries := uint16(c.A) ^ uint16(value) ^ result16
	overflow := (uint16(c.A) ^ result16) & (uint16(value) ^ result16)
	c.setFlag(spc700FlagC, result16 > 0xFF)
	c.setFlag(spc700FlagH, carries&0x10 != 0)
	c.setFlag(spc700FlagV, overflow&0x80 != 0)
	c.A = byte(result16)
	c.setNZ8(c.A)
}

func (c *SPC700) sbc(value byte) { c.adc(^value) }

func (c *SPC700) Step() int {
	before := c.Cycles
	opcode := c.fetch()
	c.execute(opcode)
	spent := int(c.Cycles - before)
	c.bus.Step(spent)
	return spent
}

// execute covers the representative subset of the SPC700 opcode table
// an SNES sound driver's upload/playback loop exercises: immediate loads
// of A/X/Y, MOV A,d and MOV d,A, 8-bit ALU ops on A in immediate mode
// only, the YA word operators above, branches, CALL/RET, PUSH/POP of A,
// and flag-bit ops.
// Indexed/indirect direct-page modes, the absolute-bit SET1/CLR1/TSET/
// TCLR family, and the multiply/divide instructions (MUL YA / DIV YA,X)
// are out of Tier 2 scope.
func (c *SPC700) execute(opcode byte) {
	switch opcode {
	case 0x00: // NOP
		c.Cycles += 2
	case 0x60: // CLRC
		c.setFlag(spc700FlagC, false)
		c.Cycles += 2
	case 0x80: // SETC
		c.setFlag(spc700FlagC, true)
		c.Cycles += 2
	case 0xA0: // EI
		c.setFlag(spc700FlagI, true)
		c.Cycles += 3
	case 0xC0: // DI
		c.setFlag(spc700FlagI, false)
		c.Cycles += 3
	case 0xE8: // MOV A,#imm
		c.A = c.fetch()
		c.setNZ8(c.A)
		c.Cycles += 2
	case 0xCD: // MOV X,#imm
		c.X = c.fetch()
		c.setNZ8(c.X)
		c.Cycles += 2
	case 0x8D: // MOV Y,#imm
		c.Y = c.fetch()
		c.setNZ8(c.Y)
		c.Cycles += 2
	case 0xE4: // MOV A,d
		c.A = c.readDirect(c.fetch())
		c.setNZ8(c.A)
		c.Cycles += 3
	case 0xC4: // MOV d,A
		c.writeDirect(c.fetch(), c.A)
		c.Cycles += 4
	case 0x88: // ADC A,#imm
		c.adc(c.fetch())
		c.Cycles += 2
	case 0xA8: // SBC A,#imm
		c.sbc(c.fetch())
		c.Cycles += 2
	case 0x28: // AND A,#imm
		c.A &= c.fetch()
		c.setNZ8(c.A)
		c.Cycles += 2
	case 0x08: // OR A,#imm
		c.A |= c.fetch()
		c.setNZ8(c.A)
		c.Cycles += 2
	case 0x48: // EOR A,#imm
		c.A ^= c.fetch()
		c.setNZ8(c.A)
		c.Cycles += 2
	case 0x68: // CMP A,#imm
		v := c.fetch()
		c.setFlag(spc700FlagC, c.A >= v)
		c.setNZ8(c.A - v)
		c.Cycles += 2
	case 0x1A: // DECW d
		c.decw()
		c.Cycles += 6
	case 0x3A: // INCW d
		c.incw()
		c.Cycles += 6
	case 0x7A: // ADDW YA,d
		c.addw()
		c.Cycles += 5
	case 0x9A: // SUBW YA,d
		c.subw()
		c.Cycles += 5
	case 0x5A: // CMPW YA,d
		c.cmpw()
		c.Cycles += 4
	case 0xBA: // MOVW YA,d
		c.movwRead()
		c.Cycles += 5
	case 0xDA: // MOVW d,YA
		c.movwWrite()
		c.Cycles += 5
	case 0x2D: // PUSH A
		c.push(c.A)
		c.Cycles += 4
	case 0xAE: // POP A
		c.A = c.pop()
		c.Cycles += 4
	case 0x2F: // BRA rel
		c.branch(true)
	case 0xF0: // BEQ rel
		c.branch(c.flag(spc700FlagZ))
	case 0xD0: // BNE rel
		c.branch(!c.flag(spc700FlagZ))
	case 0xB0: // BCS rel
		c.branch(c.flag(spc700FlagC))
	case 0x90: // BCC rel
		c.branch(!c.flag(spc700FlagC))
	case 0x3F: // CALL abs
		target := c.fetch16()
		c.push(byte(c.PC >> 8))
		c.push(byte(c.PC))
		c.PC = target
		c.Cycles += 8
	case 0x6F: // RET
		lo := uint16(c.pop())
		hi := uint16(c.pop())
		c.PC = hi<<8 | lo
		c.Cycles += 5
	default:
		c.Cycles += 2
	}
}

func (c *SPC700) fetch16() uint16 {
	lo := uint16(c.fetch())
	hi := uint16(c.fetch())
	return hi<<8 | lo
}

func (c *SPC700) branch(taken bool) {
	disp := int8(c.fetch())
	if taken {
		c.PC = uint16(int32(c.PC) + int32(disp))
		c.Cycles += 2
	}
	c.Cycles += 2
}
