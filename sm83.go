// sm83.go - SM83/GBZ80 CPU core (spec.md §5, Tier 2: representative
// decode/operator coverage, not exhaustive ISA).
//
// No teacher equivalent (IntuitionEngine targets 6502/Z80/M68K
// consoles); grounded on
// _examples/original_source/utopia/src/core/gbz80.rs for the register
// file shape (packed BC/DE/HL 16-bit pairs plus a standalone A) and its
// `step` opcode-table dispatch ordering (misc ops, 8-bit loads, ALU
// block, jumps/calls). This repo uses a conventional F flag byte rather
// than gbz80.rs's lazy sentinel-Z trick, matching the explicit-flags
// style already established in mos6502.go/z80.go.
package main

const (
	sm83FlagZ = 1 << 7
	sm83FlagN = 1 << 6
	sm83FlagH = 1 << 5
	sm83FlagC = 1 << 4
)

// SM83 is the Game Boy's CPU: a Z80/8080 hybrid missing the Z80's
// shadow registers, IX/IY and most ED-prefixed block instructions, but
// adding HALT-bug-adjacent timing and the GB-specific speed-switch STOP
// form (not modeled here — no console in scope needs CGB double-speed).
type SM83 struct {
	A, F, B, C, D, E, H, L byte
	SP, PC                 uint16
	IME                    bool
	Halted                 bool
	bus                    Bus
	Cycles                 uint64
}

func NewSM83(bus Bus) *SM83 {
	c := &SM83{bus: bus}
	c.Reset()
	return c
}

func (c *SM83) Reset() {
	c.A, c.F, c.B, c.C, c.D, c.E, c.H, c.L = 0x01, 0xB0, 0x00, 0x13, 0x00, 0xD8, 0x01, 0x4D
	c.SP, c.PC = 0xFFFE, 0x0100
	c.IME = false
	c.Halted = false
}

func (c *SM83) flag(bit byte) bool { return c.F&bit != 0 }
func (c *SM83) setFlag(bit byte, v bool) {
	if v {
		c.F |= bit
	} else {
		c.F &^= bit
	}
}

func (c *SM83) bc() uint16 { return uint16(c.B)<<8 | uint16(c.C) }
func (c *SM83) de() uint16 { return uint16(c.D)<<8 | uint16(c.E) }
func (c *SM83) hl() uint16 { return uint16(c.H)<<8 | uint16(c.L) }
func (c *SM83) setBC(v uint16) { c.B, c.C = byte(v>>8), byte(v) }
func (c *SM83) setDE(v uint16) { c.D, c.E = byte(v>>8), byte(v) }
func (c *SM83) setHL(v uint16) { c.H, c.L = byte(v>>8), byte(v) }

func (c *SM83) fetch() byte {
	v := c.bus.Read8(uint32(c.PC))
	c.PC++
	return v
}

func (c *SM83) fetch16() uint16 {
	lo := uint16(c.fetch())
	hi := uint16(c.fetch())
	return hi<<8 | lo
}

func (c *SM83) push(v uint16) {
	c.SP -= 2
	c.bus.Write8(uint32(c.SP), byte(v))
	c.bus.Write8(uint32(c.SP+1), byte(v>>8))
}

func (c *SM83) pop() uint16 {
	lo := uint16(c.bus.Read8(uint32(c.SP)))
	hi := uint16(c.bus.Read8(uint32(c.SP + 1)))
	c.SP += 2
	return hi<<8 | lo
}

func (c *SM83) add8(v byte, carry bool) {
	cin := byte(0)
	if carry && c.flag(sm83FlagC) {
		cin = 1
	}
	result := int(c.A) + int(v) + int(cin)
	c.setFlag(sm83FlagH, (c.A&0xF)+(v&0xF)+cin > 0xF)
	c.setFlag(sm83FlagC, result > 0xFF)
	c.A = byte(result)
	c.setFlag(sm83FlagZ, c.A == 0)
	c.setFlag(sm83FlagN, false)
}

func (c *SM83) sub8(v byte, carry bool, store bool) byte {
	cin := byte(0)
	if carry && c.flag(sm83FlagC) {
		cin = 1
	}
	result := int(c.A) - int(v) - int(cin)
	c.setFlag(sm83FlagH, int(c.A&0xF)-int(v&0xF)-int(cin) < 0)
	c.setFlag(sm83FlagC, result < 0)
	r := byte(result)
	c.setFlag(sm83FlagZ, r == 0)
	c.setFlag(sm83FlagN, true)
	if store {
		c.A = r
	}
	return r
}

func (c *SM83) and8(v byte) {
	c.A &= v
	c.setFlag(sm83FlagZ, c.A == 0)
	c.setFlag(sm83FlagN, false)
	c.setFlag(sm83FlagH, true)
	c.setFlag(sm83FlagC, false)
}

func (c *SM83) or8(v byte) {
	c.A |= v
	c.setFlag(sm83FlagZ, c.A == 0)
	c.F &^= sm83FlagN | sm83FlagH | sm83FlagC
}

func (c *SM83) xor8(v byte) {
	c.A ^= v
	c.setFlag(sm83FlagZ, c.A == 0)
	c.F &^= sm83FlagN | sm83FlagH | sm83FlagC
}

func (c *SM83) inc8(v byte) byte {
	r := v + 1
	c.setFlag(sm83FlagZ, r == 0)
	c.setFlag(sm83FlagN, false)
	c.setFlag(sm83FlagH, v&0xF == 0xF)
	return r
}

func (c *SM83) dec8(v byte) byte {
	r := v - 1
	c.setFlag(sm83FlagZ, r == 0)
	c.setFlag(sm83FlagN, true)
	c.setFlag(sm83FlagH, v&0xF == 0)
	return r
}

// reg8 maps a 3-bit register code (B,C,D,E,H,L,(HL),A) to a pointer,
// returning nil for code 6 which means "operand is (HL)" — the same
// convention used by reg8 in z80.go, since SM83 shares the 8080-derived
// register-field layout.
func (c *SM83) reg8(code byte) *byte {
	switch code {
	case 0:
		return &c.B
	case 1:
		return &c.C
	case 2:
		return &c.D
	case 3:
		return &c.E
	case 4:
		return &c.H
	case 5:
		return &c.L
	case 7:
		return &c.A
	}
	return nil
}

func (c *SM83) readReg8(code byte) byte {
	if r := c.reg8(code); r != nil {
		return *r
	}
	return c.bus.Read8(uint32(c.hl()))
}

func (c *SM83) writeReg8(code byte, v byte) {
	if r := c.reg8(code); r != nil {
		*r = v
		return
	}
	c.bus.Write8(uint32(c.hl()), v)
}

// pollInterrupts services the five sources in priority order (VBlank
// lowest bit, highest priority), per the Game Boy's fixed 0x40/0x48/
// 0x50/0x58/0x60 vector table.
func (c *SM83) pollInterrupts() bool {
	if !c.IME {
		return false
	}
	pending := c.bus.Poll()
	var vector uint16
	var source InterruptSet
	switch {
	case pending.Has(SM83IRQVBlank):
		vector, source = 0x40, SM83IRQVBlank
	case pending.Has(SM83IRQLCDStat):
		vector, source = 0x48, SM83IRQLCDStat
	case pending.Has(SM83IRQTimer):
		vector, source = 0x50, SM83IRQTimer
	case pending.Has(SM83IRQSerial):
		vector, source = 0x58, SM83IRQSerial
	case pending.Has(SM83IRQJoypad):
		vector, source = 0x60, SM83IRQJoypad
	default:
		return false
	}
	c.IME = false
	c.Halted = false
	c.push(c.PC)
	c.PC = vector
	c.bus.Acknowledge(source)
	c.Cycles += 5
	return true
}

func (c *SM83) Step() int {
	before := c.Cycles
	if c.pollInterrupts() {
		spent := int(c.Cycles - before)
		c.bus.Step(spent)
		return spent
	}
	if c.Halted {
		if c.bus.Poll() != 0 {
			c.Halted = false
		}
		c.Cycles++
		c.bus.Step(1)
		return 1
	}
	opcode := c.fetch()
	c.execute(opcode)
	spent := int(c.Cycles - before)
	c.bus.Step(spent)
	return spent
}

func (c *SM83) cond(code byte) bool {
	switch code {
	case 0:
		return !c.flag(sm83FlagZ)
	case 1:
		return c.flag(sm83FlagZ)
	case 2:
		return !c.flag(sm83FlagC)
	case 3:
		return c.flag(sm83FlagC)
	}
	return false
}

func (c *SM83) execute(opcode byte) {
	if opcode == 0x76 { // HALT
		c.Halted = true
		c.Cycles += 4
		return
	}
	if opcode >= 0x40 && opcode <= 0x7F { // LD r,r'
		dst := (opcode >> 3) & 7
		src := opcode & 7
		c.writeReg8(dst, c.readReg8(src))
		c.Cycles += 4
		return
	}
	if opcode >= 0x80 && opcode <= 0xBF { // ALU A,r
		src := c.readReg8(opcode & 7)
		c.aluOp((opcode>>3)&7, src)
		c.Cycles += 4
		return
	}

	switch opcode {
	case 0x00: // NOP
		c.Cycles += 4
	case 0xCB:
		c.executeCB()
	case 0x01, 0x11, 0x21, 0x31: // LD rr,nn
		v := c.fetch16()
		switch opcode {
		case 0x01:
			c.setBC(v)
		case 0x11:
			c.setDE(v)
		case 0x21:
			c.setHL(v)
		case 0x31:
			c.SP = v
		}
		c.Cycles += 12
	case 0x02:
		c.bus.Write8(uint32(c.bc()), c.A)
		c.Cycles += 8
	case 0x12:
		c.bus.Write8(uint32(c.de()), c.A)
		c.Cycles += 8
	case 0x0A:
		c.A = c.bus.Read8(uint32(c.bc()))
		c.Cycles += 8
	case 0x1A:
		c.A = c.bus.Read8(uint32(c.de()))
		c.Cycles += 8
	case 0x22: // LD (HL+),A
		c.bus.Write8(uint32(c.hl()), c.A)
		c.setHL(c.hl() + 1)
		c.Cycles += 8
	case 0x2A: // LD A,(HL+)
		c.A = c.bus.Read8(uint32(c.hl()))
		c.setHL(c.hl() + 1)
		c.Cycles += 8
	case 0x32: // LD (HL-),A
		c.bus.Write8(uint32(c.hl()), c.A)
		c.setHL(c.hl() - 1)
		c.Cycles += 8
	case 0x3A: // LD A,(HL-)
		c.A = c.bus.Read8(uint32(c.hl()))
		c.setHL(c.hl() - 1)
		c.Cycles += 8
	case 0x06, 0x0E, 0x16, 0x1E, 0x26, 0x2E, 0x36, 0x3E: // LD r,n
		reg := (opcode >> 3) & 7
		c.writeReg8(reg, c.fetch())
		if reg == 6 {
			c.Cycles += 12
		} else {
			c.Cycles += 8
		}
	case 0x04, 0x0C, 0x14, 0x1C, 0x24, 0x2C, 0x34, 0x3C: // INC r
		reg := (opcode >> 3) & 7
		c.writeReg8(reg, c.inc8(c.readReg8(reg)))
		c.Cycles += 4
	case 0x05, 0x0D, 0x15, 0x1D, 0x25, 0x2D, 0x35, 0x3D: // DEC r
		reg := (opcode >> 3) & 7
		c.writeReg8(reg, c.dec8(c.readReg8(reg)))
		c.Cycles += 4
	case 0x03, 0x13, 0x23, 0x33: // INC rr
		c.incDecPair(opcode, 1)
		c.Cycles += 8
	case 0x0B, 0x1B, 0x2B, 0x3B: // DEC rr
		c.incDecPair(opcode, -1)
		c.Cycles += 8
	case 0xC6: // ADD A,n
		c.add8(c.fetch(), false)
		c.Cycles += 8
	case 0xCE: // ADC A,n
		c.add8(c.fetch(), true)
		c.Cycles += 8
	case 0xD6: // SUB n
		c.sub8(c.fetch(), false, true)
		c.Cycles += 8
	case 0xDE: // SBC A,n
		c.sub8(c.fetch(), true, true)
		c.Cycles += 8
	case 0xE6: // AND n
		c.and8(c.fetch())
		c.Cycles += 8
	case 0xEE: // XOR n
		c.xor8(c.fetch())
		c.Cycles += 8
	case 0xF6: // OR n
		c.or8(c.fetch())
		c.Cycles += 8
	case 0xFE: // CP n
		c.sub8(c.fetch(), false, false)
		c.Cycles += 8
	case 0x18: // JR
		c.jr(true)
	case 0x20, 0x28, 0x30, 0x38: // JR cc
		c.jr(c.cond((opcode >> 3) & 3))
	case 0xC3: // JP nn
		c.PC = c.fetch16()
		c.Cycles += 16
	case 0xC2, 0xCA, 0xD2, 0xDA: // JP cc,nn
		target := c.fetch16()
		if c.cond((opcode >> 3) & 3) {
			c.PC = target
		}
		c.Cycles += 12
	case 0xE9: // JP (HL)
		c.PC = c.hl()
		c.Cycles += 4
	case 0xCD: // CALL nn
		target := c.fetch16()
		c.push(c.PC)
		c.PC = target
		c.Cycles += 24
	case 0xC4, 0xCC, 0xD4, 0xDC: // CALL cc,nn
		target := c.fetch16()
		if c.cond((opcode >> 3) & 3) {
			c.push(c.PC)
			c.PC = target
			c.Cycles += 24
		} else {
			c.Cycles += 12
		}
	case 0xC9: // RET
		c.PC = c.pop()
		c.Cycles += 16
	case 0xD9: // RETI
		c.PC = c.pop()
		c.IME = true
		c.Cycles += 16
	case 0xC0, 0xC8, 0xD0, 0xD8: // RET cc
		if c.cond((opcode >> 3) & 3) {
			c.PC = c.pop()
			c.Cycles += 20
		} else {
			c.Cycles += 8
		}
	case 0xC1, 0xD1, 0xE1, 0xF1: // POP rr
		v := c.pop()
		switch opcode {
		case 0xC1:
			c.setBC(v)
		case 0xD1:
			c.setDE(v)
		case 0xE1:
			c.setHL(v)
		case 0xF1:
			c.A, c.F = byte(v>>8), byte(v)&0xF0
		}
		c.Cycles += 12
	case 0xC5, 0xD5, 0xE5, 0xF5: // PUSH rr
		var v uint16
		switch opcode {
		case 0xC5:
			v = c.bc()
		case 0xD5:
			v = c.de()
		case 0xE5:
			v = c.hl()
		case 0xF5:
			v = uint16(c.A)<<8 | uint16(c.F)
		}
		c.push(v)
		c.Cycles += 16
	case 0xC7, 0xCF, 0xD7, 0xDF, 0xE7, 0xEF, 0xF7, 0xFF: // RST
		c.push(c.PC)
		c.PC = uint16(opcode & 0x38)
		c.Cycles += 16
	case 0xF3: // DI
		c.IME = false
		c.Cycles += 4
	case 0xFB: // EI
		c.IME = true
		c.Cycles += 4
	case 0xE0: // LDH (n),A
		c.bus.Write8(0xFF00+uint32(c.fetch()), c.A)
		c.Cycles += 12
	case 0xF0: // LDH A,(n)
		c.A = c.bus.Read8(0xFF00 + uint32(c.fetch()))
		c.Cycles += 12
	case 0xE2: // LD (C),A
		c.bus.Write8(0xFF00+uint32(c.C), c.A)
		c.Cycles += 8
	case 0xF2: // LD A,(C)
		c.A = c.bus.Read8(0xFF00 + uint32(c.C))
		c.Cycles += 8
	case 0xEA: // LD (nn),A
		c.bus.Write8(uint32(c.fetch16()), c.A)
		c.Cycles += 16
	case 0xFA: // LD A,(nn)
		c.A = c.bus.Read8(uint32(c.fetch16()))
		c.Cycles += 16
	case 0x09, 0x19, 0x29, 0x39: // ADD HL,rr
		c.addHL(opcode)
		c.Cycles += 8
	default:
		c.Cycles += 4
	}
}

func (c *SM83) incDecPair(opcode byte, delta int16) {
	switch opcode & 0x30 {
	case 0x00:
		c.setBC(c.bc() + uint16(delta))
	case 0x10:
		c.setDE(c.de() + uint16(delta))
	case 0x20:
		c.setHL(c.hl() + uint16(delta))
	case 0x30:
		c.SP = uint16(int32(c.SP) + int32(delta))
	}
}

func (c *SM83) addHL(opcode byte) {
	var v uint16
	switch opcode & 0x30 {
	case 0x00:
		v = c.bc()
	case 0x10:
		v = c.de()
	case 0x20:
		v = c.hl()
	case 0x30:
		v = c.SP
	}
	old := c.hl()
	result := uint32(old) + uint32(v)
	c.setFlag(sm83FlagN, false)
	c.setFlag(sm83FlagH, (old&0xFFF)+(v&0xFFF) > 0xFFF)
	c.setFlag(sm83FlagC, result > 0xFFFF)
	c.setHL(uint16(result))
}

func (c *SM83) aluOp(op byte, v byte) {
	switch op {
	case 0:
		c.add8(v, false)
	case 1:
		c.add8(v, true)
	case 2:
		c.sub8(v, false, true)
	case 3:
		c.sub8(v, true, true)
	case 4:
		c.and8(v)
	case 5:
		c.xor8(v)
	case 6:
		c.or8(v)
	case 7:
		c.sub8(v, false, false)
	}
}

func (c *SM83) jr(taken bool) {
	disp := int8(c.fetch())
	if taken {
		c.PC = uint16(int32(c.PC) + int32(disp))
		c.Cycles += 12
	} else {
		c.Cycles += 8
	}
}

// executeCB covers the bit-rotate/shift/BIT/RES/SET block, identical in
// shape to the Z80's CB table this architecture inherited.
func (c *SM83) executeCB() {
	opcode := c.fetch()
	reg := opcode & 7
	bitGroup := opcode >> 6
	bit := (opcode >> 3) & 7

	v := c.readReg8(reg)
	cost := byte(8)
	if reg == 6 {
		cost = 16
	}

	switch bitGroup {
	case 0:
		result := c.shiftOp(bit, v)
		c.writeReg8(reg, result)
	case 1: // BIT
		c.setFlag(sm83FlagZ, v&(1<<bit) == 0)
		c.setFlag(sm83FlagN, false)
		c.setFlag(sm83FlagH, true)
		cost = 8
	case 2: // RES
		c.writeReg8(reg, v&^(1<<bit))
	case 3: // SET
		c.writeReg8(reg, v|(1<<bit))
	}
	c.Cycles += uint64(cost)
}

func (c *SM83) shiftOp(op byte, v byte) byte {
	carry := c.flag(sm83FlagC)
	var result byte
	var newCarry bool
	switch op {
	case 0: // RLC
		newCarry = v&0x80 != 0
		result = v<<1 | v>>7
	case 1: // RRC
		newCarry = v&1 != 0
		result = v>>1 | v<<7
	case 2: // RL
		newCarry = v&0x80 != 0
		result = v << 1
		if carry {
			result |= 1
		}
	case 3: // RR
		newCarry = v&1 != 0
		result = v >> 1
		if carry {
			result |= 0x80
		}
	case 4: // SLA
		newCarry = v&0x80 != 0
		result = v << 1
	case 5: // SRA
		newCarry = v&1 != 0
		result = v>>1 | v&0x80
	case 6: // SWAP
		result = v<<4 | v>>4
		newCarry = false
	case 7: // SRL
		newCarry = v&1 != 0
		result = v >> 1
	}
	c.setFlag(sm83FlagC, newCarry)
	c.setFlag(sm83FlagZ, result == 0)
	c.setFlag(sm83FlagN, false)
	c.setFlag(sm83FlagH, false)
	return result
}
