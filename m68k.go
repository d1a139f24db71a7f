// m68k.go - Motorola 68000 CPU core (spec.md §5, Tier 2: representative
// decode/operator coverage, not exhaustive ISA).
//
// Adapted from _teacher_ref/cpu_m68k.go, the teacher's 68EC020 core: kept
// its condition-code table, its SR flag layout, and its group-by-top-
// nibble opcode dispatch shape, trimmed from full 68020 (bit fields,
// 32-bit multiply/divide, scaled indexing, CAS/CAS2) down to the base
// 68000 instruction set a Genesis main-CPU program actually needs, and
// generalized onto this repo's width-polymorphic Bus instead of the
// teacher's mutex-guarded direct memory map.
package main

const (
	m68kSRC = 1 << 0
	m68kSRV = 1 << 1
	m68kSRZ = 1 << 2
	m68kSRN = 1 << 3
	m68kSRX = 1 << 4
	m68kSRS = 1 << 13 // supervisor mode
)

const (
	m68kCCT = iota
	m68kCCF
	m68kCCHI
	m68kCCLS
	m68kCCCC
	m68kCCCS
	m68kCCNE
	m68kCCEQ
	m68kCCVC
	m68kCCVS
	m68kCCPL
	m68kCCMI
	m68kCCGE
	m68kCCLT
	m68kCCGT
	m68kCCLE
)

// M68K is a base 68000 core: 8 data registers, 8 address registers (A7
// banked between user and supervisor stack pointers), and the standard
// 16-bit status register.
type M68K struct {
	D      [8]uint32
	A      [8]uint32
	PC     uint32
	SR     uint16
	USP    uint32
	SSP    uint32
	bus    Bus
	Cycles uint64
}

func NewM68K(bus Bus) *M68K {
	c := &M68K{bus: bus}
	c.Reset()
	return c
}

func (c *M68K) Reset() {
	c.D, c.A = [8]uint32{}, [8]uint32{}
	c.SR = m68kSRS
	c.SSP = c.bus.Read32(0)
	c.A[7] = c.SSP
	c.PC = c.bus.Read32(4)
}

func (c *M68K) flag(bit uint16) bool     { return c.SR&bit != 0 }
func (c *M68K) setFlag(bit uint16, v bool) {
	if v {
		c.SR |= bit
	} else {
		c.SR &^= bit
	}
}

func (c *M68K) fetch16() uint16 {
	v := c.bus.Read16(c.PC)
	c.PC += 2
	return v
}

func (c *M68K) fetch32() uint32 {
	hi := uint32(c.fetch16())
	lo := uint32(c.fetch16())
	return hi<<16 | lo
}

func (c *M68K) push32(v uint32) {
	c.A[7] -= 4
	c.bus.Write32(c.A[7], v)
}

func (c *M68K) pop32() uint32 {
	v := c.bus.Read32(c.A[7])
	c.A[7] += 4
	return v
}

func (c *M68K) setNZ(result uint32, size int) {
	var mask uint32
	var signBit uint32
	switch size {
	case 1:
		mask, signBit = 0xFF, 0x80
	case 2:
		mask, signBit = 0xFFFF, 0x8000
	default:
		mask, signBit = 0xFFFFFFFF, 0x80000000
	}
	c.setFlag(m68kSRZ, result&mask == 0)
	c.setFlag(m68kSRN, result&signBit != 0)
}

func (c *M68K) checkCondition(cc uint8) bool {
	n, z, v, c2 := c.flag(m68kSRN), c.flag(m68kSRZ), c.flag(m68kSRV), c.flag(m68kSRC)
	switch cc {
	case m68kCCT:
		return true
	case m68kCCF:
		return false
	case m68kCCHI:
		return !c2 && !z
	case m68kCCLS:
		return c2 || z
	case m68kCCCC:
		return !c2
	case m68kCCCS:
		return c2
	case m68kCCNE:
		return !z
	case m68kCCEQ:
		return z
	case m68kCCVC:
		return !v
	case m68kCCVS:
		return v
	case m68kCCPL:
		return !n
	case m68kCCMI:
		return n
	case m68kCCGE:
		return n == v
	case m68kCCLT:
		return n != v
	case m68kCCGT:
		return !z && n == v
	case m68kCCLE:
		return z || n != v
	}
	return false
}

// pollInterrupts services the three autovector levels this repo's
// Genesis integration drives (HBlank/external/VBlank), entering
// supervisor mode and vectoring through the autovector table at
// 0x60+level*4, per the 68000 exception model.
func (c *M68K) pollInterrupts() bool {
	pending := c.bus.Poll()
	var level uint32
	var source InterruptSet
	switch {
	case pending.Has(M68KIRQLevel6):
		level, source = 6, M68KIRQLevel6
	case pending.Has(M68KIRQLevel4):
		level, source = 4, M68KIRQLevel4
	case pending.Has(M68KIRQLevel2):
		level, source = 2, M68KIRQLevel2
	default:
		return false
	}
	oldSR := c.SR
	wasUser := !c.flag(m68kSRS)
	c.setFlag(m68kSRS, true)
	if wasUser {
		c.USP = c.A[7]
		c.A[7] = c.SSP
	}
	c.push32(c.PC)
	c.push32(uint32(oldSR))
	vector := uint32(0x60 + level*4)
	c.PC = c.bus.Read32(vector)
	c.bus.Acknowledge(source)
	c.Cycles += 44
	return true
}

func (c *M68K) Step() int {
	before := c.Cycles
	if c.pollInterrupts() {
		spent := int(c.Cycles - before)
		c.bus.Step(spent)
		return spent
	}
	opcode := c.fetch16()
	c.execute(opcode)
	spent := int(c.Cycles - before)
	c.bus.Step(spent)
	return spent
}

// execute dispatches on the top 4 bits (the teacher's "decodeGroupN"
// split in cpu_m68k.go), covering MOVE, MOVEQ, the arithmetic/logic
// groups against register-direct and a handful of common addressing
// modes, Bcc/BRA/BSR/DBcc, JMP/JSR/RTS, and LEA/CLR/NOT/NEG/TST —
// the subset a Genesis main-CPU program's hot path exercises. Anything
// outside that subset is treated as a 4-cycle NOP rather than faulting,
// matching this repo's Tier 2 "representative coverage" scope.
func (c *M68K) execute(opcode uint16) {
	group := opcode >> 12

	switch {
	case opcode == 0x4E75: // RTS
		c.PC = c.pop32()
		c.Cycles += 16
		return
	case opcode == 0x4E71: // NOP
		c.Cycles += 4
		return
	case opcode&0xFFC0 == 0x4E80: // JSR ea (register-indirect/absolute subset)
		reg := opcode & 7
		mode := (opcode >> 3) & 7
		addr := c.effectiveAddress(mode, reg)
		c.push32(c.PC)
		c.PC = addr
		c.Cycles += 16
		return
	case opcode&0xFFC0 == 0x4EC0: // JMP ea
		reg := opcode & 7
		mode := (opcode >> 3) & 7
		c.PC = c.effectiveAddress(mode, reg)
		c.Cycles += 8
		return
	case group == 0x7: // MOVEQ #imm,Dn
		reg := (opcode >> 9) & 7
		imm := uint32(int32(int8(opcode & 0xFF)))
		c.D[reg] = imm
		c.setNZ(imm, 4)
		c.setFlag(m68kSRV, false)
		c.setFlag(m68kSRC, false)
		c.Cycles += 4
		return
	case group == 0x6: // Bcc/BRA/BSR
		cc := uint8((opcode >> 8) & 0xF)
		disp := int32(int8(opcode & 0xFF))
		base := c.PC
		if disp == 0 {
			disp = int32(int16(c.fetch16()))
			base = c.PC - 2
		}
		target := uint32(int32(base) + disp)
		if cc == 1 { // BSR: condition field 1 is reserved for "subroutine" in this group
			c.push32(c.PC)
			c.PC = target
			c.Cycles += 18
			return
		}
		if c.checkCondition(cc) {
			c.PC = target
		}
		c.Cycles += 10
		return
	case group == 0x5 && opcode&0x00F8 == 0x00C8: // DBcc
		cc := uint8((opcode >> 8) & 0xF)
		reg := opcode & 7
		disp := int32(int16(c.fetch16()))
		if !c.checkCondition(cc) {
			c.D[reg]--
			if int16(c.D[reg]) != -1 {
				c.PC = uint32(int32(c.PC-2) + disp)
			}
		}
		c.Cycles += 10
		return
	case group == 0xD: // ADD
		c.aluRegEA(opcode, func(a, b uint32, size int) uint32 { return c.add(a, b, size) })
		return
	case group == 0x9: // SUB
		c.aluRegEA(opcode, func(a, b uint32, size int) uint32 { return c.sub(a, b, size) })
		return
	case group == 0xC: // AND
		c.aluRegEA(opcode, func(a, b uint32, size int) uint32 {
			r := a & b
			c.setNZ(r, sizeOf(opcode))
			c.setFlag(m68kSRV, false)
			c.setFlag(m68kSRC, false)
			return r
		})
		return
	case group == 0x8: // OR
		c.aluRegEA(opcode, func(a, b uint32, size int) uint32 {
			r := a | b
			c.setNZ(r, sizeOf(opcode))
			c.setFlag(m68kSRV, false)
			c.setFlag(m68kSRC, false)
			return r
		})
		return
	case group == 0xB: // CMP/EOR (register-direct CMP subset)
		reg := (opcode >> 9) & 7
		mode := (opcode >> 3) & 7
		eaReg := opcode & 7
		size := sizeOf(opcode)
		src := c.readEA(mode, eaReg, size)
		c.sub(c.D[reg], src, size)
		c.Cycles += 4
		return
	case group == 0x1 || group == 0x2 || group == 0x3: // MOVE.B/.L/.W
		c.move(opcode)
		return
	case opcode&0xF1C0 == 0x41C0: // LEA ea,An
		reg := (opcode >> 9) & 7
		mode := (opcode >> 3) & 7
		eaReg := opcode & 7
		c.A[reg] = c.effectiveAddress(mode, eaReg)
		c.Cycles += 4
		return
	case opcode&0xFF00 == 0x4200: // CLR
		mode := (opcode >> 3) & 7
		eaReg := opcode & 7
		size := sizeOf(opcode)
		c.writeEA(mode, eaReg, 0, size)
		c.setFlag(m68kSRZ, true)
		c.setFlag(m68kSRN, false)
		c.setFlag(m68kSRV, false)
		c.setFlag(m68kSRC, false)
		c.Cycles += 4
		return
	case opcode&0xFF00 == 0x4A00: // TST
		mode := (opcode >> 3) & 7
		eaReg := opcode & 7
		size := sizeOf(opcode)
		v := c.readEA(mode, eaReg, size)
		c.setNZ(v, size)
		c.setFlag(m68kSRV, false)
		c.setFlag(m68kSRC, false)
		c.Cycles += 4
		return
	case opcode&0xFF00 == 0x4400: // NEG
		mode := (opcode >> 3) & 7
		eaReg := opcode & 7
		size := sizeOf(opcode)
		v := c.readEA(mode, eaReg, size)
		r := c.sub(0, v, size)
		c.writeEA(mode, eaReg, r, size)
		c.Cycles += 4
		return
	case opcode&0xFF00 == 0x4600: // NOT
		mode := (opcode >> 3) & 7
		eaReg := opcode & 7
		size := sizeOf(opcode)
		v := c.readEA(mode, eaReg, size)
		r := ^v
		c.writeEA(mode, eaReg, r, size)
		c.setNZ(r, size)
		c.setFlag(m68kSRV, false)
		c.setFlag(m68kSRC, false)
		c.Cycles += 4
		return
	default:
		c.Cycles += 4
	}
}

func sizeOf(opcode uint16) int {
	switch (opcode >> 6) & 3 {
	case 0:
		return 1
	case 1:
		return 2
	default:
		return 4
	}
}

// effectiveAddress resolves the common memory addressing-mode subset
// ((An), (An)+, -(An), (d16,An), abs.W, abs.L, (d16,PC)) a Genesis
// ROM's init and ISR code paths exercise; anything else returns the raw
// address register value as a best-effort fallback.
func (c *M68K) effectiveAddress(mode, reg uint16) uint32 {
	switch mode {
	case 2: // (An)
		return c.A[reg]
	case 3: // (An)+
		addr := c.A[reg]
		c.A[reg] += 4
		return addr
	case 4: // -(An)
		c.A[reg] -= 4
		return c.A[reg]
	case 5: // (d16,An)
		disp := int32(int16(c.fetch16()))
		return uint32(int32(c.A[reg]) + disp)
	case 7:
		switch reg {
		case 0: // abs.W
			return uint32(int32(int16(c.fetch16())))
		case 1: // abs.L
			return c.fetch32()
		case 2: // (d16,PC)
			disp := int32(int16(c.fetch16()))
			return uint32(int32(c.PC-2) + disp)
		}
	}
	return c.A[reg]
}

func (c *M68K) readEA(mode, reg uint16, size int) uint32 {
	if mode == 0 {
		return c.D[reg]
	}
	if mode == 1 {
		return c.A[reg]
	}
	addr := c.effectiveAddress(mode, reg)
	switch size {
	case 1:
		return uint32(c.bus.Read8(addr))
	case 2:
		return uint32(c.bus.Read16(addr))
	default:
		return c.bus.Read32(addr)
	}
}

func (c *M68K) writeEA(mode, reg uint16, v uint32, size int) {
	if mode == 0 {
		c.D[reg] = replaceSized(c.D[reg], v, size)
		return
	}
	if mode == 1 {
		c.A[reg] = v
		return
	}
	addr := c.effectiveAddress(mode, reg)
	switch size {
	case 1:
		c.bus.Write8(addr, byte(v))
	case 2:
		c.bus.Write16(addr, uint16(v))
	default:
		c.bus.Write32(addr, v)
	}
}

func replaceSized(old, v uint32, size int) uint32 {
	switch size {
	case 1:
		return old&^0xFF | v&0xFF
	case 2:
		return old&^0xFFFF | v&0xFFFF
	default:
		return v
	}
}

// move implements MOVE.B/.W/.L ea,ea across the readEA/writeEA subset
// above (group 1/2/3 opcodes encode size in the top two bits and swap
// the usual dest/src field order: destination mode/reg sit above source).
func (c *M68K) move(opcode uint16) {
	var size int
	switch opcode >> 12 {
	case 1:
		size = 1
	case 3:
		size = 2
	default:
		size = 4
	}
	srcMode := (opcode >> 3) & 7
	srcReg := opcode & 7
	dstReg := (opcode >> 9) & 7
	dstMode := (opcode >> 6) & 7
	v := c.readEA(srcMode, srcReg, size)
	c.writeEA(dstMode, dstReg, v, size)
	c.setNZ(v, size)
	c.setFlag(m68kSRV, false)
	c.setFlag(m68kSRC, false)
	c.Cycles += 4
}

// aluRegEA implements the common register<->ea two-operand shape shared
// by ADD/SUB/AND/OR: direction bit picks ea-to-Dn or Dn-to-ea, result
// always lands wherever direction says, per the 68000 instruction format.
func (c *M68K) aluRegEA(opcode uint16, op func(a, b uint32, size int) uint32) {
	reg := (opcode >> 9) & 7
	direction := (opcode >> 8) & 1
	mode := (opcode >> 3) & 7
	eaReg := opcode & 7
	size := sizeOf(opcode)

	if direction == 0 {
		ea := c.readEA(mode, eaReg, size)
		result := op(c.D[reg], ea, size)
		c.D[reg] = replaceSized(c.D[reg], result, size)
	} else {
		ea := c.readEA(mode, eaReg, size)
		result := op(ea, c.D[reg], size)
		c.writeEA(mode, eaReg, result, size)
	}
	c.Cycles += 4
}

func (c *M68K) add(a, b uint32, size int) uint32 {
	result := a + b
	c.setNZ(result, size)
	signBit := sizeSignBit(size)
	overflow := (a^result)&(b^result)&signBit != 0
	c.setFlag(m68kSRV, overflow)
	carry := result < a || (size < 4 && result&sizeMask(size) < a&sizeMask(size))
	c.setFlag(m68kSRC, carry)
	c.setFlag(m68kSRX, carry)
	return result
}

func (c *M68K) sub(a, b uint32, size int) uint32 {
	result := a - b
	c.setNZ(result, size)
	signBit := sizeSignBit(size)
	overflow := (a^b)&(a^result)&signBit != 0
	c.setFlag(m68kSRV, overflow)
	carry := b > a
	c.setFlag(m68kSRC, carry)
	c.setFlag(m68kSRX, carry)
	return result
}

func sizeMask(size int) uint32 {
	switch size {
	case 1:
		return 0xFF
	case 2:
		return 0xFFFF
	default:
		return 0xFFFFFFFF
	}
}

func sizeSignBit(size int) uint32 {
	switch size {
	case 1:
		return 0x80
	case 2:
		return 0x8000
	default:
		return 0x80000000
	}
}
