package cpu

import "math/bits"

// ARM instruction classes. Classification keys on bits 27..20 and 7..4,
// in the same order the encodings overlap: more specific bit patterns
// first, data processing as the fallback.
const (
	armUnknown = iota
	armBranchExchange
	armBlockTransfer
	armBranch
	armSWI
	armCoprocessor
	armUndefined
	armSingleTransfer
	armSwap
	armMultiply
	armMultiplyLong
	armHalfwordTransfer
	armMRS
	armMSR
	armDataProcessing
)

// armClassify maps an opcode to its instruction class. Purely
// functional; pipeline slots cache the result per fetched word.
func armClassify(op uint32) int {
	switch {
	case op&0x0FFFFFF0 == 0x012FFF10:
		return armBranchExchange
	case op&0x0E000000 == 0x08000000:
		return armBlockTransfer
	case op&0x0E000000 == 0x0A000000:
		return armBranch
	case op&0x0F000000 == 0x0F000000:
		return armSWI
	case op&0x0E000000 == 0x0C000000, op&0x0F000000 == 0x0E000000:
		return armCoprocessor
	case op&0x0E000010 == 0x06000010:
		return armUndefined
	case op&0x0C000000 == 0x04000000:
		return armSingleTransfer
	case op&0x0FB00FF0 == 0x01000090:
		return armSwap
	case op&0x0FC000F0 == 0x00000090:
		return armMultiply
	case op&0x0F8000F0 == 0x00800090:
		return armMultiplyLong
	case op&0x0E400F90 == 0x00000090, op&0x0E400090 == 0x00400090:
		return armHalfwordTransfer
	case op&0x0FBF0FFF == 0x010F0000:
		return armMRS
	case op&0x0DB0F000 == 0x0120F000:
		return armMSR
	case op&0x0C000000 == 0x00000000:
		return armDataProcessing
	default:
		return armUnknown
	}
}

func (c *CPU) executeARM(op uint32, class int) {
	if !c.checkCondition(op >> 28) {
		return
	}

	switch class {
	case armBranchExchange:
		c.armBranchExchange(op)
	case armBlockTransfer:
		c.armBlockTransfer(op)
	case armBranch:
		c.armBranch(op)
	case armSWI:
		if c.hle {
			c.swi(int((op >> 16) & 0xFF))
		} else {
			c.exceptionSWI()
		}
	case armCoprocessor, armUndefined, armUnknown:
		c.exceptionUndefined()
	case armSingleTransfer:
		c.armSingleTransfer(op)
	case armSwap:
		c.armSwap(op)
	case armMultiply:
		c.armMultiply(op)
	case armMultiplyLong:
		c.armMultiplyLong(op)
	case armHalfwordTransfer:
		c.armHalfwordTransfer(op)
	case armMRS:
		c.armMRS(op)
	case armMSR:
		c.armMSR(op)
	case armDataProcessing:
		c.armDataProcessing(op)
	}
}

// armBranchExchange implements BX: the low bit of the target selects
// Thumb state.
func (c *CPU) armBranchExchange(op uint32) {
	value := c.Reg(int(op & 0xF))
	if value&1 != 0 {
		c.cpsr |= FlagT
		c.SetReg(15, value&^uint32(1))
	} else {
		c.cpsr &= ^FlagT
		c.SetReg(15, value&^uint32(3))
	}
}

// armBranch implements B and BL with the 24-bit signed word offset.
func (c *CPU) armBranch(op uint32) {
	pc := c.Reg(15)
	offset := op & 0xFFFFFF
	if offset&0x800000 != 0 {
		offset |= 0xFF000000
	}
	offset <<= 2
	if op&(1<<24) != 0 {
		c.SetReg(14, pc-4)
	}
	c.SetReg(15, pc+offset)
}

// armDataProcessing covers the sixteen ALU operations with every
// operand-2 form of the barrel shifter.
func (c *CPU) armDataProcessing(op uint32) {
	immediate := op&(1<<25) != 0
	opcode := (op >> 21) & 0xF
	setFlags := op&(1<<20) != 0
	rn := int((op >> 16) & 0xF)
	rd := int((op >> 12) & 0xF)

	operand1 := c.Reg(rn)
	var operand2 uint32
	var shifterCarry bool

	if immediate {
		rotate := (op >> 8) & 0xF * 2
		imm := op & 0xFF
		if rotate == 0 {
			operand2 = imm
			shifterCarry = c.flagSet(FlagC)
		} else {
			operand2, shifterCarry = ror(imm, rotate)
		}
	} else {
		shiftType := int((op >> 5) & 3)
		registerShift := op&(1<<4) != 0
		rm := int(op & 0xF)
		rmValue := c.Reg(rm)

		// With a register-specified shift the prefetch runs one extra
		// cycle, so r15 reads 12 ahead.
		if registerShift {
			if rn == 15 {
				operand1 += 4
			}
			if rm == 15 {
				rmValue += 4
			}
		}

		var amount uint32
		if registerShift {
			amount = c.Reg(int((op>>8)&0xF)) & 0xFF
		} else {
			amount = (op >> 7) & 0x1F
		}
		operand2, shifterCarry = c.shiftOp(rmValue, shiftType, amount, registerShift)
	}

	carryIn := uint32(0)
	if c.flagSet(FlagC) {
		carryIn = 1
	}

	writeback := true
	var result uint32

	switch opcode {
	case 0x0: // AND
		result = operand1 & operand2
		if setFlags {
			c.setLogicalFlags(result, shifterCarry)
		}
	case 0x1: // EOR
		result = operand1 ^ operand2
		if setFlags {
			c.setLogicalFlags(result, shifterCarry)
		}
	case 0x2: // SUB
		result = operand1 - operand2
		if setFlags {
			c.setArithmeticFlags(result, operand1 >= operand2, addOverflow(operand1, operand2, result, true))
		}
	case 0x3: // RSB
		result = operand2 - operand1
		if setFlags {
			c.setArithmeticFlags(result, operand2 >= operand1, addOverflow(operand2, operand1, result, true))
		}
	case 0x4: // ADD
		wide := uint64(operand1) + uint64(operand2)
		result = uint32(wide)
		if setFlags {
			c.setArithmeticFlags(result, wide > 0xFFFFFFFF, addOverflow(operand1, operand2, result, false))
		}
	case 0x5: // ADC
		wide := uint64(operand1) + uint64(operand2) + uint64(carryIn)
		result = uint32(wide)
		if setFlags {
			c.setArithmeticFlags(result, wide > 0xFFFFFFFF, addOverflow(operand1, operand2, result, false))
		}
	case 0x6: // SBC
		borrow := 1 - uint64(carryIn)
		result = uint32(uint64(operand1) - uint64(operand2) - borrow)
		if setFlags {
			carry := uint64(operand1) >= uint64(operand2)+borrow
			c.setArithmeticFlags(result, carry, addOverflow(operand1, operand2, result, true))
		}
	case 0x7: // RSC
		borrow := 1 - uint64(carryIn)
		result = uint32(uint64(operand2) - uint64(operand1) - borrow)
		if setFlags {
			carry := uint64(operand2) >= uint64(operand1)+borrow
			c.setArithmeticFlags(result, carry, addOverflow(operand2, operand1, result, true))
		}
	case 0x8: // TST
		writeback = false
		c.setLogicalFlags(operand1&operand2, shifterCarry)
	case 0x9: // TEQ
		writeback = false
		c.setLogicalFlags(operand1^operand2, shifterCarry)
	case 0xA: // CMP
		writeback = false
		result = operand1 - operand2
		c.setArithmeticFlags(result, operand1 >= operand2, addOverflow(operand1, operand2, result, true))
	case 0xB: // CMN
		writeback = false
		wide := uint64(operand1) + uint64(operand2)
		result = uint32(wide)
		c.setArithmeticFlags(result, wide > 0xFFFFFFFF, addOverflow(operand1, operand2, result, false))
	case 0xC: // ORR
		result = operand1 | operand2
		if setFlags {
			c.setLogicalFlags(result, shifterCarry)
		}
	case 0xD: // MOV
		result = operand2
		if setFlags {
			c.setLogicalFlags(result, shifterCarry)
		}
	case 0xE: // BIC
		result = operand1 & ^operand2
		if setFlags {
			c.setLogicalFlags(result, shifterCarry)
		}
	case 0xF: // MVN
		result = ^operand2
		if setFlags {
			c.setLogicalFlags(result, shifterCarry)
		}
	}

	if writeback {
		c.SetReg(rd, result)
	}
	if setFlags && rd == 15 {
		c.cpsr = c.spsrFor(c.Mode())
	}
}

// armMultiply implements MUL and MLA.
func (c *CPU) armMultiply(op uint32) {
	accumulate := op&(1<<21) != 0
	setFlags := op&(1<<20) != 0
	rd := int((op >> 16) & 0xF)
	rn := int((op >> 12) & 0xF)
	rs := int((op >> 8) & 0xF)
	rm := int(op & 0xF)

	result := c.Reg(rm) * c.Reg(rs)
	if accumulate {
		result += c.Reg(rn)
	}
	c.SetReg(rd, result)
	if setFlags {
		c.setNZ(result)
	}
}

// armMultiplyLong implements UMULL, UMLAL, SMULL and SMLAL.
func (c *CPU) armMultiplyLong(op uint32) {
	signed := op&(1<<22) != 0
	accumulate := op&(1<<21) != 0
	setFlags := op&(1<<20) != 0
	rdHi := int((op >> 16) & 0xF)
	rdLo := int((op >> 12) & 0xF)
	rs := int((op >> 8) & 0xF)
	rm := int(op & 0xF)

	var result uint64
	if signed {
		result = uint64(int64(int32(c.Reg(rm))) * int64(int32(c.Reg(rs))))
	} else {
		result = uint64(c.Reg(rm)) * uint64(c.Reg(rs))
	}
	if accumulate {
		result += uint64(c.Reg(rdHi))<<32 | uint64(c.Reg(rdLo))
	}

	c.SetReg(rdHi, uint32(result>>32))
	c.SetReg(rdLo, uint32(result))
	if setFlags {
		c.cpsr &= ^(FlagN | FlagZ)
		if result&(1<<63) != 0 {
			c.cpsr |= FlagN
		}
		if result == 0 {
			c.cpsr |= FlagZ
		}
	}
}

// armSingleTransfer implements LDR and STR with pre/post indexing and
// writeback. Misaligned word loads rotate the loaded value.
func (c *CPU) armSingleTransfer(op uint32) {
	register := op&(1<<25) != 0
	pre := op&(1<<24) != 0
	up := op&(1<<23) != 0
	byteWide := op&(1<<22) != 0
	writeback := op&(1<<21) != 0
	load := op&(1<<20) != 0
	rn := int((op >> 16) & 0xF)
	rd := int((op >> 12) & 0xF)

	var offset uint32
	if register {
		shiftType := int((op >> 5) & 3)
		amount := (op >> 7) & 0x1F
		offset, _ = c.shiftOp(c.Reg(int(op&0xF)), shiftType, amount, false)
	} else {
		offset = op & 0xFFF
	}

	base := c.Reg(rn)
	address := base
	if pre {
		if up {
			address += offset
		} else {
			address -= offset
		}
	}

	// Stores of r15 see PC+12.
	storeValue := c.Reg(rd)
	if rd == 15 {
		storeValue += 4
	}

	if writeback || !pre {
		if up {
			c.SetReg(rn, base+offset)
		} else {
			c.SetReg(rn, base-offset)
		}
	}

	if load {
		if byteWide {
			c.SetReg(rd, uint32(c.bus.Read8(address)))
		} else {
			value := c.bus.Read32(address &^ uint32(3))
			value, _ = ror(value, (address&3)*8)
			c.SetReg(rd, value)
		}
	} else {
		if byteWide {
			c.bus.Write8(address, byte(storeValue))
		} else {
			c.bus.Write32(address&^uint32(3), storeValue)
		}
	}
}

// armHalfwordTransfer implements LDRH/STRH and the signed byte/halfword
// loads, in both register and immediate offset forms.
func (c *CPU) armHalfwordTransfer(op uint32) {
	pre := op&(1<<24) != 0
	up := op&(1<<23) != 0
	immediate := op&(1<<22) != 0
	writeback := op&(1<<21) != 0
	load := op&(1<<20) != 0
	rn := int((op >> 16) & 0xF)
	rd := int((op >> 12) & 0xF)
	kind := (op >> 5) & 3

	var offset uint32
	if immediate {
		offset = ((op >> 8) & 0xF << 4) | (op & 0xF)
	} else {
		offset = c.Reg(int(op & 0xF))
	}

	base := c.Reg(rn)
	address := base
	if pre {
		if up {
			address += offset
		} else {
			address -= offset
		}
	}

	storeValue := c.Reg(rd)
	if rd == 15 {
		storeValue += 4
	}

	if writeback || !pre {
		if up {
			c.SetReg(rn, base+offset)
		} else {
			c.SetReg(rn, base-offset)
		}
	}

	if load {
		var value uint32
		switch kind {
		case 1: // LDRH
			value = uint32(c.bus.Read16(address &^ uint32(1)))
			if address&1 != 0 {
				value, _ = ror(value, 8)
			}
		case 2: // LDRSB
			value = uint32(int32(int8(c.bus.Read8(address))))
		case 3: // LDRSH
			if address&1 != 0 {
				value = uint32(int32(int8(c.bus.Read8(address))))
			} else {
				value = uint32(int32(int16(c.bus.Read16(address))))
			}
		}
		c.SetReg(rd, value)
	} else if kind == 1 { // STRH
		c.bus.Write16(address&^uint32(1), uint16(storeValue))
	}
}

// armSwap implements SWP and SWPB.
func (c *CPU) armSwap(op uint32) {
	byteWide := op&(1<<22) != 0
	rn := int((op >> 16) & 0xF)
	rd := int((op >> 12) & 0xF)
	rm := int(op & 0xF)

	address := c.Reg(rn)
	source := c.Reg(rm)
	if byteWide {
		value := uint32(c.bus.Read8(address))
		c.bus.Write8(address, byte(source))
		c.SetReg(rd, value)
	} else {
		value := c.bus.Read32(address &^ uint32(3))
		value, _ = ror(value, (address&3)*8)
		c.bus.Write32(address&^uint32(3), source)
		c.SetReg(rd, value)
	}
}

// armBlockTransfer implements LDM and STM with the register-list
// writeback corner cases: an empty list transfers r15 and steps the
// base by 0x40; storing a list whose first register is the base writes
// back after the transfer.
func (c *CPU) armBlockTransfer(op uint32) {
	pre := op&(1<<24) != 0
	up := op&(1<<23) != 0
	userBank := op&(1<<22) != 0
	writeback := op&(1<<21) != 0
	load := op&(1<<20) != 0
	rn := int((op >> 16) & 0xF)
	list := op & 0xFFFF

	base := c.Reg(rn)

	if list == 0 {
		var address uint32
		if up {
			address = base
			if pre {
				address += 4
			}
		} else {
			address = base - 0x40
			if !pre {
				address += 4
			}
		}
		if load {
			c.SetReg(15, c.bus.Read32(address))
		} else {
			c.bus.Write32(address, c.Reg(15)+4)
		}
		if writeback {
			if up {
				c.SetReg(rn, base+0x40)
			} else {
				c.SetReg(rn, base-0x40)
			}
		}
		return
	}

	count := uint32(bits.OnesCount32(list))
	firstReg := bits.TrailingZeros32(list)

	var address uint32
	if up {
		address = base
		if pre {
			address += 4
		}
	} else {
		if pre {
			address = base - 4*count
		} else {
			address = base - 4*(count-1)
		}
	}

	newBase := base + 4*count
	if !up {
		newBase = base - 4*count
	}

	if writeback && (load || firstReg != rn) {
		c.SetReg(rn, newBase)
	}

	for i := 0; i < 16; i++ {
		if list&(1<<i) == 0 {
			continue
		}
		if load {
			value := c.bus.Read32(address)
			if userBank {
				c.setUserReg(i, value)
				if i == 15 {
					c.cpsr = c.spsrFor(c.Mode())
					c.flushPipe = true
				}
			} else {
				c.SetReg(i, value)
			}
		} else {
			var value uint32
			if userBank {
				value = c.userReg(i)
			} else {
				value = c.Reg(i)
			}
			if i == 15 {
				value += 4
			}
			c.bus.Write32(address, value)
		}
		address += 4
	}

	if writeback && !load && firstReg == rn {
		c.SetReg(rn, newBase)
	}
}

// armMRS moves the CPSR or the current mode's SPSR into a register.
func (c *CPU) armMRS(op uint32) {
	useSPSR := op&(1<<22) != 0
	rd := int((op >> 12) & 0xF)
	if useSPSR {
		c.SetReg(rd, c.spsrFor(c.Mode()))
	} else {
		c.SetReg(rd, c.cpsr)
	}
}

// armMSR writes the CPSR or SPSR through the byte-field mask.
func (c *CPU) armMSR(op uint32) {
	immediate := op&(1<<25) != 0
	useSPSR := op&(1<<22) != 0

	var mask uint32
	if op&(1<<19) != 0 {
		mask |= 0xFF000000
	}
	if op&(1<<18) != 0 {
		mask |= 0x00FF0000
	}
	if op&(1<<17) != 0 {
		mask |= 0x0000FF00
	}
	if op&(1<<16) != 0 {
		mask |= 0x000000FF
	}

	var value uint32
	if immediate {
		value, _ = ror(op&0xFF, (op>>8)&0xF*2)
	} else {
		value = c.Reg(int(op & 0xF))
	}

	if useSPSR {
		mode := c.Mode()
		c.setSPSRFor(mode, (c.spsrFor(mode) & ^mask)|(value&mask))
		return
	}
	// User mode cannot touch the control field.
	if c.Mode() == ModeUser {
		mask &= 0xFF000000
	}
	c.cpsr = (c.cpsr & ^mask) | (value & mask)
}
