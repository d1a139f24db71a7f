// arm7.go - ARM7TDMI core (spec.md §5, Tier 1).
//
// The teacher repo has no ARM implementation; this core is grounded
// directly on _examples/original_source/utopia/src/core/arm7tdmi.rs,
// arm7tdmi/arm.rs and arm7tdmi/operator/alu.rs (condition codes, the
// data-processing opcode table, shifter-operand carry-out, banked
// registers/SPSR) while following the teacher's own switch-dispatch,
// exported-register, Step()-returns-cycle-count idiom from mos6502.go
// and z80.go rather than the original's const-generic trait dispatch.
// ARM-mode only: Thumb decode is out of scope at Tier 1 (see DESIGN.md).
// No System in system_*.go uses this core; arm7_test.go drives it in ARM
// state.
package main

// CPSR/SPSR mode field values, per arm7tdmi.rs's Mode enum.
const (
	armModeUser       = 0b10000
	armModeFIQ        = 0b10001
	armModeIRQ        = 0b10010
	armModeSupervisor = 0b10011
	armModeAbort      = 0b10111
	armModeUndefined  = 0b11011
	armModeSystem     = 0b11111
)

// CPSR flag bits.
const (
	cpsrN = 1 << 31
	cpsrZ = 1 << 30
	cpsrC = 1 << 29
	cpsrV = 1 << 28
	cpsrI = 1 << 7
	cpsrF = 1 << 6
	cpsrT = 1 << 5
)

// ARM7 is an instruction-accurate ARM7TDMI core running in ARM (32-bit)
// state. R0-R15 are the visible register file (R13=SP, R14=LR, R15=PC);
// FIQ/SVC/ABT/IRQ/UND each bank their own copies of some subset, restored
// on mode switch per arm7tdmi.rs's Bank struct.
type ARM7 struct {
	R    [16]uint32
	CPSR uint32
	SPSR [5]uint32 // indexed by bankIndex(mode): fiq, svc, abt, irq, und

	bank struct {
		usr [7]uint32 // R8-R14 in User/System mode
		fiq [7]uint32 // R8-R14 while in FIQ mode
		svc [2]uint32 // R13-R14 in Supervisor mode
		abt [2]uint32 // R13-R14 in Abort mode
		irq [2]uint32 // R13-R14 in IRQ mode
		und [2]uint32 // R13-R14 in Undefined mode
	}

	bus Bus

	Cycles uint64
}

func NewARM7(bus Bus) *ARM7 {
	c := &ARM7{bus: bus}
	c.Reset()
	return c
}

func (c *ARM7) Reset() {
	c.R = [16]uint32{}
	c.CPSR = armModeSupervisor | cpsrI | cpsrF
	c.R[15] = 0
	c.Cycles = 0
}

func (c *ARM7) mode() uint32 { return c.CPSR & 0x1F }

func bankIndex(mode uint32) int {
	switch mode {
	case armModeFIQ:
		return 0
	case armModeSupervisor:
		return 1
	case armModeAbort:
		return 2
	case armModeIRQ:
		return 3
	case armModeUndefined:
		return 4
	}
	return -1
}

// switchMode banks out R8-R14 (FIQ: R8-R14, others: R13-R14 only) for the
// outgoing mode and banks in the incoming mode's copies, per the original's
// Bank struct.
func (c *ARM7) switchMode(newMode uint32) {
	old := c.mode()
	if old == newMode {
		return
	}
	if old == armModeFIQ {
		copy(c.bank.fiq[:], c.R[8:15])
	} else if bankIndex(old) < 0 { // User/System: R13-R14 belong to the user bank
		copy(c.bank.usr[:], c.R[8:15])
	} else {
		copy(c.bank.usr[:5], c.R[8:13])
	}
	switch old {
	case armModeSupervisor:
		copy(c.bank.svc[:], c.R[13:15])
	case armModeAbort:
		copy(c.bank.abt[:], c.R[13:15])
	case armModeIRQ:
		copy(c.bank.irq[:], c.R[13:15])
	case armModeUndefined:
		copy(c.bank.und[:], c.R[13:15])
	}

	c.CPSR = (c.CPSR &^ 0x1F) | newMode

	if newMode == armModeFIQ {
		copy(c.R[8:15], c.bank.fiq[:])
	} else {
		copy(c.R[8:15], c.bank.usr[:])
	}
	switch newMode {
	case armModeSupervisor:
		copy(c.R[13:15], c.bank.svc[:])
	case armModeAbort:
		copy(c.R[13:15], c.bank.abt[:])
	case armModeIRQ:
		copy(c.R[13:15], c.bank.irq[:])
	case armModeUndefined:
		copy(c.R[13:15], c.bank.und[:])
	}
}

func (c *ARM7) setNZ(v uint32) {
	c.CPSR = c.CPSR &^ (cpsrN | cpsrZ)
	if v&0x80000000 != 0 {
		c.CPSR |= cpsrN
	}
	if v == 0 {
		c.CPSR |= cpsrZ
	}
}

func (c *ARM7) flag(mask uint32) bool { return c.CPSR&mask != 0 }
func (c *ARM7) setFlag(mask uint32, on bool) {
	if on {
		c.CPSR |= mask
	} else {
		c.CPSR &^= mask
	}
}

// checkCondition evaluates the 4-bit condition field against NZCV, per
// condition.rs's 16-entry table.
func (c *ARM7) checkCondition(cond uint32) bool {
	n, z, cf, v := c.flag(cpsrN), c.flag(cpsrZ), c.flag(cpsrC), c.flag(cpsrV)
	switch cond {
	case 0x0:
		return z
	case 0x1:
		return !z
	case 0x2:
		return cf
	case 0x3:
		return !cf
	case 0x4:
		return n
	case 0x5:
		return !n
	case 0x6:
		return v
	case 0x7:
		return !v
	case 0x8:
		return cf && !z
	case 0x9:
		return !cf || z
	case 0xA:
		return n == v
	case 0xB:
		return n != v
	case 0xC:
		return !z && n == v
	case 0xD:
		return z || n != v
	case 0xE:
		return true
	default:
		return false
	}
}

// shiftOperand decodes the data-processing shifter operand, returning the
// value and its carry-out (used when S=1 and the opcode is logical).
func (c *ARM7) shiftOperand(word uint32) (uint32, bool) {
	if word&0x02000000 != 0 { // immediate operand: 8-bit value rotated right
		imm := word & 0xFF
		rot := (word >> 8) & 0xF * 2
		if rot == 0 {
			return imm, c.flag(cpsrC)
		}
		result := imm>>rot | imm<<(32-rot)
		return result, result&0x80000000 != 0
	}

	rm := c.regRead(word & 0xF)
	shiftType := (word >> 5) & 3
	var amount uint32
	if word&0x10 != 0 {
		amount = c.R[(word>>8)&0xF] & 0xFF
	} else {
		amount = (word >> 7) & 0x1F
	}
	return applyShift(shiftType, rm, amount, c.flag(cpsrC), word&0x10 == 0)
}

// applyShift implements LSL/LSR/ASR/ROR with the ARM edge cases for a
// shift amount of zero (immediate-form LSR/ASR/ROR #0 mean #32/RRX).
func applyShift(shiftType, value, amount uint32, carryIn bool, immediateForm bool) (uint32, bool) {
	switch shiftType {
	case 0: // LSL
		if amount == 0 {
			return value, carryIn
		}
		if amount >= 32 {
			if amount == 32 {
				return 0, value&1 != 0
			}
			return 0, false
		}
		return value << amount, (value>>(32-amount))&1 != 0
	case 1: // LSR
		if immediateForm && amount == 0 {
			amount = 32
		}
		if amount == 0 {
			return value, carryIn
		}
		if amount >= 32 {
			return 0, amount == 32 && value&0x80000000 != 0
		}
		return value >> amount, (value>>(amount-1))&1 != 0
	case 2: // ASR
		if immediateForm && amount == 0 {
			amount = 32
		}
		if amount == 0 {
			return value, carryIn
		}
		if amount >= 32 {
			if value&0x80000000 != 0 {
				return 0xFFFFFFFF, true
			}
			return 0, false
		}
		return uint32(int32(value) >> amount), (value>>(amount-1))&1 != 0
	case 3: // ROR (amount 0 in immediate form means RRX)
		if immediateForm && amount == 0 {
			carry := uint32(0)
			if carryIn {
				carry = 1
			}
			result := (value >> 1) | (carry << 31)
			return result, value&1 != 0
		}
		if amount == 0 {
			return value, carryIn
		}
		amount &= 31
		if amount == 0 {
			return value, value&0x80000000 != 0
		}
		result := value>>amount | value<<(32-amount)
		return result, result&0x80000000 != 0
	}
	return value, carryIn
}

func (c *ARM7) read32(addr uint32) uint32 { return c.bus.Read32(addr &^ 3) }
func (c *ARM7) write32(addr uint32, v uint32) { c.bus.Write32(addr&^3, v) }

// pollInterrupts services IRQ/FIQ at the instruction boundary, entering
// Supervisor^H^HIRQ/FIQ mode, banking LR/SPSR, and masking further
// interrupts of the same or lower priority per spec.md §4.2.
func (c *ARM7) pollInterrupts() bool {
	pending := c.bus.Poll()
	if pending.Has(ARMIRQFIQ) && !c.flag(cpsrF) {
		c.enterException(armModeFIQ, 0x1C, true)
		c.bus.Acknowledge(ARMIRQFIQ)
		return true
	}
	if pending.Has(ARMIRQIRQ) && !c.flag(cpsrI) {
		c.enterException(armModeIRQ, 0x18, false)
		c.bus.Acknowledge(ARMIRQIRQ)
		return true
	}
	return false
}

func (c *ARM7) enterException(mode uint32, vector uint32, disableFIQ bool) {
	returnPC := c.R[15]
	savedCPSR := c.CPSR
	c.switchMode(mode)
	c.R[14] = returnPC
	c.SPSR[bankIndex(mode)] = savedCPSR
	c.setFlag(cpsrI, true)
	if disableFIQ {
		c.setFlag(cpsrF, true)
	}
	c.setFlag(cpsrT, false)
	c.R[15] = vector
	c.Cycles += 3
}

// Step decodes exactly one ARM-state instruction. The PC read by an
// instruction (R15) reads 8 bytes ahead of the instruction's own address,
// the classic ARM7TDMI pipeline bias (spec.md §8's "ARM MOVS shift" case
// exercises this directly when PC is used as a shift operand register).
func (c *ARM7) Step() int {
	before := c.Cycles
	if c.pollInterrupts() {
		c.bus.Step(int(c.Cycles - before))
		return int(c.Cycles - before)
	}

	pc := c.R[15]
	word := c.bus.Read32(pc)
	c.R[15] = pc + 4
	c.execute(pc, word)

	spent := int(c.Cycles - before)
	c.bus.Step(spent)
	return spent
}

// pcBiased returns R15 the way an instruction reads it mid-decode: +4 for
// the fetch already advanced above, +4 more for the pipeline bias.
func (c *ARM7) pcBiased() uint32 { return c.R[15] + 4 }

func (c *ARM7) regRead(n uint32) uint32 {
	if n == 15 {
		return c.pcBiased()
	}
	return c.R[n]
}

func (c *ARM7) execute(pc uint32, word uint32) {
	cond := word >> 28
	if !c.checkCondition(cond) {
		c.Cycles++
		return
	}

	// Branch / Branch-and-link.
	if word&0x0E000000 == 0x0A000000 {
		offset := int32(word&0x00FFFFFF) << 8 >> 6
		link := word&0x01000000 != 0
		if link {
			c.R[14] = pc + 4
		}
		c.R[15] = uint32(int32(c.pcBiased()) + offset - 4)
		c.Cycles += 3
		return
	}

	// Branch and exchange: BX Rn. ARM7TDMI supports Thumb entry via this
	// instruction; switching cpsrT is accepted so BX is decodable, but
	// Thumb dispatch itself is out of scope at Tier 1 (see DESIGN.md).
	if word&0x0FFFFFF0 == 0x012FFF10 {
		target := c.regRead(word & 0xF)
		c.setFlag(cpsrT, target&1 != 0)
		c.R[15] = target &^ 1
		c.Cycles += 3
		return
	}

	// Software interrupt.
	if word&0x0F000000 == 0x0F000000 {
		c.enterException(armModeSupervisor, 0x08, false)
		return
	}

	// Single data transfer: LDR/STR (immediate or register offset).
	if word&0x0C000000 == 0x04000000 {
		c.singleTransfer(word)
		return
	}

	// Block data transfer: LDM/STM.
	if word&0x0E000000 == 0x08000000 {
		c.blockTransfer(word)
		return
	}

	// Data processing (register or rotated-immediate shifter operand).
	if word&0x0C000000 == 0x00000000 {
		c.dataProcessing(word)
		return
	}

	c.Cycles++
}

func (c *ARM7) singleTransfer(word uint32) {
	rn := (word >> 16) & 0xF
	rd := (word >> 12) & 0xF
	immediate := word&0x02000000 == 0
	preIndex := word&0x01000000 != 0
	addUp := word&0x00800000 != 0
	byteAccess := word&0x00400000 != 0
	writeBack := word&0x00200000 != 0
	load := word&0x00100000 != 0

	var offset uint32
	if immediate {
		offset = word & 0xFFF
	} else {
		shiftType := (word >> 5) & 3
		amount := (word >> 7) & 0x1F
		offset, _ = applyShift(shiftType, c.R[word&0xF], amount, c.flag(cpsrC), true)
	}

	base := c.regRead(rn)
	addr := base
	if preIndex {
		if addUp {
			addr = base + offset
		} else {
			addr = base - offset
		}
	}

	if load {
		var v uint32
		if byteAccess {
			v = uint32(c.bus.Read8(addr))
		} else {
			v = c.read32(addr)
		}
		if rd == 15 {
			c.R[15] = v &^ 3
		} else {
			c.R[rd] = v
		}
		c.Cycles += 3
	} else {
		v := c.regRead(rd)
		if byteAccess {
			c.bus.Write8(addr, byte(v))
		} else {
			c.write32(addr, v)
		}
		c.Cycles += 2
	}

	// Writeback never overwrites a just-loaded Rn: when Rn==Rd on an LDR,
	// the loaded value wins (spec.md §4.2's named edge case).
	if rn == rd && load {
		return
	}
	if !preIndex {
		if addUp {
			addr = base + offset
		} else {
			addr = base - offset
		}
		c.R[rn] = addr
	} else if writeBack {
		c.R[rn] = addr
	}
}

// blockTransfer implements LDM/STM including the user-bank-register
// override (S bit without R15 in the list, or with R15 on LDM restoring
// CPSR from SPSR): spec.md §5's named ARM edge case.
func (c *ARM7) blockTransfer(word uint32) {
	rn := (word >> 16) & 0xF
	load := word&0x00100000 != 0
	writeBack := word&0x00200000 != 0
	sBit := word&0x00400000 != 0
	addUp := word&0x00800000 != 0
	preIndex := word&0x01000000 != 0
	list := word & 0xFFFF

	count := 0
	for i := 0; i < 16; i++ {
		if list&(1<<i) != 0 {
			count++
		}
	}

	base := c.R[rn]
	addr := base
	if !addUp {
		addr -= uint32(count) * 4
	}

	userBankOverride := sBit && (!load || list&0x8000 == 0)
	restoreCPSR := sBit && load && list&0x8000 != 0

	for i := 0; i < 16; i++ {
		if list&(1<<i) == 0 {
			continue
		}
		if preIndex == addUp {
			addr += 4
		}
		if userBankOverride && i >= 8 && i <= 14 {
			if load {
				c.bank.usr[i-8] = c.read32(addr)
			} else {
				c.write32(addr, c.bank.usr[i-8])
			}
		} else if load {
			v := c.read32(addr)
			if i == 15 {
				c.R[15] = v &^ 3
			} else {
				c.R[i] = v
			}
		} else {
			c.write32(addr, c.regRead(uint32(i)))
		}
		if preIndex != addUp {
			addr += 4
		}
		c.Cycles++
	}

	if restoreCPSR {
		if idx := bankIndex(c.mode()); idx >= 0 {
			c.CPSR = c.SPSR[idx]
		}
	}

	if writeBack {
		if addUp {
			c.R[rn] = base + uint32(count)*4
		} else {
			c.R[rn] = base - uint32(count)*4
		}
	}
}

func (c *ARM7) dataProcessing(word uint32) {
	rn := (word >> 16) & 0xF
	rd := (word >> 12) & 0xF
	setFlags := word&0x00100000 != 0
	opcode := (word >> 21) & 0xF

	shifted, shiftCarry := c.shiftOperand(word)
	lhs := c.regRead(rn)

	var result uint32
	var writeResult = true
	var arithmeticFlags = false

	switch opcode {
	case 0x0: // AND
		result = lhs & shifted
	case 0x1: // EOR
		result = lhs ^ shifted
	case 0x2: // SUB
		result = lhs - shifted
		arithmeticFlags = true
	case 0x3: // RSB
		result = shifted - lhs
		lhs, shifted = shifted, lhs
		arithmeticFlags = true
	case 0x4: // ADD
		result = lhs + shifted
		arithmeticFlags = true
	case 0x5: // ADC
		carry := uint32(0)
		if c.flag(cpsrC) {
			carry = 1
		}
		result = lhs + shifted + carry
		arithmeticFlags = true
	case 0x6: // SBC
		borrow := uint32(1)
		if c.flag(cpsrC) {
			borrow = 0
		}
		result = lhs - shifted - borrow
		arithmeticFlags = true
	case 0x7: // RSC
		borrow := uint32(1)
		if c.flag(cpsrC) {
			borrow = 0
		}
		result = shifted - lhs - borrow
		lhs, shifted = shifted, lhs
		arithmeticFlags = true
	case 0x8: // TST
		result = lhs & shifted
		writeResult = false
	case 0x9: // TEQ
		result = lhs ^ shifted
		writeResult = false
	case 0xA: // CMP
		result = lhs - shifted
		writeResult = false
		arithmeticFlags = true
	case 0xB: // CMN
		result = lhs + shifted
		writeResult = false
		arithmeticFlags = true
	case 0xC: // ORR
		result = lhs | shifted
	case 0xD: // MOV
		result = shifted
	case 0xE: // BIC
		result = lhs &^ shifted
	case 0xF: // MVN
		result = ^shifted
	}

	if setFlags {
		if rd == 15 {
			if idx := bankIndex(c.mode()); idx >= 0 {
				c.CPSR = c.SPSR[idx]
			}
		} else if arithmeticFlags {
			c.setNZ(result)
			switch opcode {
			case 0x2, 0xA: // SUB, CMP
				c.setFlag(cpsrC, lhs >= shifted)
				c.setFlag(cpsrV, (lhs^shifted)&0x80000000 != 0 && (lhs^result)&0x80000000 != 0)
			case 0x3, 0x7: // RSB, RSC (operands already swapped above)
				c.setFlag(cpsrC, lhs >= shifted)
				c.setFlag(cpsrV, (lhs^shifted)&0x80000000 != 0 && (lhs^result)&0x80000000 != 0)
			default: // ADD, ADC, SBC, CMN
				sum := uint64(lhs) + uint64(shifted)
				c.setFlag(cpsrC, sum > 0xFFFFFFFF)
				c.setFlag(cpsrV, (lhs^shifted)&0x80000000 == 0 && (lhs^result)&0x80000000 != 0)
			}
		} else {
			c.setNZ(result)
			c.setFlag(cpsrC, shiftCarry)
		}
	}

	if writeResult {
		if rd == 15 {
			c.R[15] = result &^ 3
		} else {
			c.R[rd] = result
		}
	}
	c.Cycles++
}
