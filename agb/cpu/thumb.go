package cpu

import "math/bits"

// Thumb instruction classes, keyed on the upper bits of the opcode.
const (
	thumbUnknown = iota
	thumbSoftwareInterrupt
	thumbUnconditionalBranch
	thumbConditionalBranch
	thumbMultipleLoadStore
	thumbLongBranchLink
	thumbAddSP
	thumbPushPop
	thumbLoadStoreHalfword
	thumbSPRelativeLoadStore
	thumbLoadAddress
	thumbLoadStoreImmediate
	thumbLoadStoreRegister
	thumbLoadStoreSigned
	thumbPCRelativeLoad
	thumbHiRegisterOps
	thumbALU
	thumbMoveCompareAddSub
	thumbAddSubtract
	thumbMoveShifted
)

// thumbClassify maps a 16-bit opcode to its instruction class. The
// match order mirrors how the formats nest: SWI before conditional
// branch, add/subtract before move-shifted.
func thumbClassify(op uint16) int {
	switch {
	case op&0xFF00 == 0xDF00:
		return thumbSoftwareInterrupt
	case op&0xF800 == 0xE000:
		return thumbUnconditionalBranch
	case op&0xF000 == 0xD000:
		return thumbConditionalBranch
	case op&0xF000 == 0xC000:
		return thumbMultipleLoadStore
	case op&0xF000 == 0xF000:
		return thumbLongBranchLink
	case op&0xFF00 == 0xB000:
		return thumbAddSP
	case op&0xF600 == 0xB400:
		return thumbPushPop
	case op&0xF000 == 0x8000:
		return thumbLoadStoreHalfword
	case op&0xF000 == 0x9000:
		return thumbSPRelativeLoadStore
	case op&0xF000 == 0xA000:
		return thumbLoadAddress
	case op&0xE000 == 0x6000:
		return thumbLoadStoreImmediate
	case op&0xF200 == 0x5000:
		return thumbLoadStoreRegister
	case op&0xF200 == 0x5200:
		return thumbLoadStoreSigned
	case op&0xF800 == 0x4800:
		return thumbPCRelativeLoad
	case op&0xFC00 == 0x4400:
		return thumbHiRegisterOps
	case op&0xFC00 == 0x4000:
		return thumbALU
	case op&0xE000 == 0x2000:
		return thumbMoveCompareAddSub
	case op&0xF800 == 0x1800:
		return thumbAddSubtract
	case op&0xE000 == 0x0000:
		return thumbMoveShifted
	default:
		return thumbUnknown
	}
}

func (c *CPU) executeThumb(op uint16, class int) {
	switch class {
	case thumbSoftwareInterrupt:
		if c.hle {
			c.swi(int(op & 0xFF))
		} else {
			c.exceptionSWI()
		}
	case thumbUnconditionalBranch:
		c.thumbUnconditionalBranch(op)
	case thumbConditionalBranch:
		c.thumbConditionalBranch(op)
	case thumbMultipleLoadStore:
		c.thumbMultipleLoadStore(op)
	case thumbLongBranchLink:
		c.thumbLongBranchLink(op)
	case thumbAddSP:
		c.thumbAddSP(op)
	case thumbPushPop:
		c.thumbPushPop(op)
	case thumbLoadStoreHalfword:
		c.thumbLoadStoreHalfword(op)
	case thumbSPRelativeLoadStore:
		c.thumbSPRelativeLoadStore(op)
	case thumbLoadAddress:
		c.thumbLoadAddress(op)
	case thumbLoadStoreImmediate:
		c.thumbLoadStoreImmediate(op)
	case thumbLoadStoreRegister:
		c.thumbLoadStoreRegister(op)
	case thumbLoadStoreSigned:
		c.thumbLoadStoreSigned(op)
	case thumbPCRelativeLoad:
		c.thumbPCRelativeLoad(op)
	case thumbHiRegisterOps:
		c.thumbHiRegisterOps(op)
	case thumbALU:
		c.thumbALU(op)
	case thumbMoveCompareAddSub:
		c.thumbMoveCompareAddSub(op)
	case thumbAddSubtract:
		c.thumbAddSubtract(op)
	case thumbMoveShifted:
		c.thumbMoveShifted(op)
	default:
		c.exceptionUndefined()
	}
}

func (c *CPU) thumbUnconditionalBranch(op uint16) {
	offset := uint32(op & 0x7FF)
	if offset&0x400 != 0 {
		offset |= 0xFFFFF800
	}
	c.SetReg(15, c.Reg(15)+offset<<1)
}

func (c *CPU) thumbConditionalBranch(op uint16) {
	cond := uint32(op>>8) & 0xF
	if !c.checkCondition(cond) {
		return
	}
	offset := uint32(int32(int8(op))) << 1
	c.SetReg(15, c.Reg(15)+offset)
}

// thumbLongBranchLink implements the two-instruction BL pair: the first
// half stages the high offset in LR, the second jumps and leaves the
// return address (with the Thumb bit) in LR.
func (c *CPU) thumbLongBranchLink(op uint16) {
	offset := uint32(op) & 0x7FF
	if op&(1<<11) == 0 {
		if offset&0x400 != 0 {
			offset |= 0xFFFFF800
		}
		c.SetReg(14, c.Reg(15)+offset<<12)
		return
	}
	target := (c.Reg(14) + offset<<1) &^ uint32(1)
	ret := (c.Reg(15) - 2) | 1
	c.SetReg(15, target)
	c.SetReg(14, ret)
}

func (c *CPU) thumbMoveShifted(op uint16) {
	shiftType := int(op>>11) & 3
	amount := uint32(op>>6) & 0x1F
	rs := int(op>>3) & 7
	rd := int(op) & 7

	result, carry := c.shiftOp(c.Reg(rs), shiftType, amount, false)
	c.SetReg(rd, result)
	c.setLogicalFlags(result, carry)
}

func (c *CPU) thumbAddSubtract(op uint16) {
	kind := int(op>>9) & 3
	rs := int(op>>3) & 7
	rd := int(op) & 7
	left := c.Reg(rs)

	var right uint32
	if kind&2 == 0 {
		right = c.Reg(int(op>>6) & 7)
	} else {
		right = uint32(op>>6) & 7
	}

	if kind&1 == 0 { // ADD
		wide := uint64(left) + uint64(right)
		result := uint32(wide)
		c.SetReg(rd, result)
		c.setArithmeticFlags(result, wide > 0xFFFFFFFF, addOverflow(left, right, result, false))
	} else { // SUB
		result := left - right
		c.SetReg(rd, result)
		c.setArithmeticFlags(result, left >= right, addOverflow(left, right, result, true))
	}
}

func (c *CPU) thumbMoveCompareAddSub(op uint16) {
	kind := int(op>>11) & 3
	rd := int(op>>8) & 7
	imm := uint32(op & 0xFF)
	current := c.Reg(rd)

	switch kind {
	case 0: // MOV
		c.SetReg(rd, imm)
		c.setNZ(imm)
	case 1: // CMP
		result := current - imm
		c.setArithmeticFlags(result, current >= imm, addOverflow(current, imm, result, true))
	case 2: // ADD
		wide := uint64(current) + uint64(imm)
		result := uint32(wide)
		c.SetReg(rd, result)
		c.setArithmeticFlags(result, wide > 0xFFFFFFFF, addOverflow(current, imm, result, false))
	case 3: // SUB
		result := current - imm
		c.SetReg(rd, result)
		c.setArithmeticFlags(result, current >= imm, addOverflow(current, imm, result, true))
	}
}

func (c *CPU) thumbALU(op uint16) {
	kind := int(op>>6) & 0xF
	rs := int(op>>3) & 7
	rd := int(op) & 7
	source := c.Reg(rs)
	dest := c.Reg(rd)

	switch kind {
	case 0x0: // AND
		result := dest & source
		c.SetReg(rd, result)
		c.setNZ(result)
	case 0x1: // EOR
		result := dest ^ source
		c.SetReg(rd, result)
		c.setNZ(result)
	case 0x2: // LSL
		result, carry := c.shiftOp(dest, 0, source&0xFF, true)
		c.SetReg(rd, result)
		c.setLogicalFlags(result, carry)
	case 0x3: // LSR
		result, carry := c.shiftOp(dest, 1, source&0xFF, true)
		c.SetReg(rd, result)
		c.setLogicalFlags(result, carry)
	case 0x4: // ASR
		result, carry := c.shiftOp(dest, 2, source&0xFF, true)
		c.SetReg(rd, result)
		c.setLogicalFlags(result, carry)
	case 0x5: // ADC
		carryIn := uint64(0)
		if c.flagSet(FlagC) {
			carryIn = 1
		}
		wide := uint64(dest) + uint64(source) + carryIn
		result := uint32(wide)
		c.SetReg(rd, result)
		c.setArithmeticFlags(result, wide > 0xFFFFFFFF, addOverflow(dest, source, result, false))
	case 0x6: // SBC
		borrow := uint64(1)
		if c.flagSet(FlagC) {
			borrow = 0
		}
		result := uint32(uint64(dest) - uint64(source) - borrow)
		c.SetReg(rd, result)
		carry := uint64(dest) >= uint64(source)+borrow
		c.setArithmeticFlags(result, carry, addOverflow(dest, source, result, true))
	case 0x7: // ROR
		result, carry := c.shiftOp(dest, 3, source&0xFF, true)
		c.SetReg(rd, result)
		c.setLogicalFlags(result, carry)
	case 0x8: // TST
		c.setNZ(dest & source)
	case 0x9: // NEG
		result := -source
		c.SetReg(rd, result)
		c.setArithmeticFlags(result, source == 0, addOverflow(0, source, result, true))
	case 0xA: // CMP
		result := dest - source
		c.setArithmeticFlags(result, dest >= source, addOverflow(dest, source, result, true))
	case 0xB: // CMN
		wide := uint64(dest) + uint64(source)
		result := uint32(wide)
		c.setArithmeticFlags(result, wide > 0xFFFFFFFF, addOverflow(dest, source, result, false))
	case 0xC: // ORR
		result := dest | source
		c.SetReg(rd, result)
		c.setNZ(result)
	case 0xD: // MUL
		result := dest * source
		c.SetReg(rd, result)
		c.setNZ(result)
	case 0xE: // BIC
		result := dest & ^source
		c.SetReg(rd, result)
		c.setNZ(result)
	case 0xF: // MVN
		result := ^source
		c.SetReg(rd, result)
		c.setNZ(result)
	}
}

// thumbHiRegisterOps covers the ADD/CMP/MOV forms reaching r8..r15 and
// BX.
func (c *CPU) thumbHiRegisterOps(op uint16) {
	kind := int(op>>8) & 3
	rd := int(op) & 7
	rs := int(op>>3) & 7
	if op&(1<<7) != 0 {
		rd |= 8
	}
	if op&(1<<6) != 0 {
		rs |= 8
	}
	source := c.Reg(rs)
	dest := c.Reg(rd)

	switch kind {
	case 0: // ADD
		result := dest + source
		if rd == 15 {
			result &= ^uint32(1)
		}
		c.SetReg(rd, result)
	case 1: // CMP
		result := dest - source
		c.setArithmeticFlags(result, dest >= source, addOverflow(dest, source, result, true))
	case 2: // MOV
		if rd == 15 {
			source &= ^uint32(1)
		}
		c.SetReg(rd, source)
	case 3: // BX
		if source&1 != 0 {
			c.SetReg(15, source&^uint32(1))
		} else {
			c.cpsr &= ^FlagT
			c.SetReg(15, source&^uint32(3))
		}
	}
}

func (c *CPU) thumbPCRelativeLoad(op uint16) {
	rd := int(op>>8) & 7
	offset := uint32(op&0xFF) << 2
	address := (c.Reg(15) &^ uint32(3)) + offset
	c.SetReg(rd, c.bus.Read32(address))
}

func (c *CPU) thumbLoadStoreRegister(op uint16) {
	kind := int(op>>10) & 3
	ro := int(op>>6) & 7
	rb := int(op>>3) & 7
	rd := int(op) & 7
	address := c.Reg(rb) + c.Reg(ro)

	switch kind {
	case 0: // STR
		c.bus.Write32(address&^uint32(3), c.Reg(rd))
	case 1: // STRB
		c.bus.Write8(address, byte(c.Reg(rd)))
	case 2: // LDR
		value := c.bus.Read32(address &^ uint32(3))
		value, _ = ror(value, (address&3)*8)
		c.SetReg(rd, value)
	case 3: // LDRB
		c.SetReg(rd, uint32(c.bus.Read8(address)))
	}
}

func (c *CPU) thumbLoadStoreSigned(op uint16) {
	kind := int(op>>10) & 3
	ro := int(op>>6) & 7
	rb := int(op>>3) & 7
	rd := int(op) & 7
	address := c.Reg(rb) + c.Reg(ro)

	switch kind {
	case 0: // STRH
		c.bus.Write16(address&^uint32(1), uint16(c.Reg(rd)))
	case 1: // LDRSB
		c.SetReg(rd, uint32(int32(int8(c.bus.Read8(address)))))
	case 2: // LDRH
		value := uint32(c.bus.Read16(address &^ uint32(1)))
		if address&1 != 0 {
			value, _ = ror(value, 8)
		}
		c.SetReg(rd, value)
	case 3: // LDRSH
		if address&1 != 0 {
			c.SetReg(rd, uint32(int32(int8(c.bus.Read8(address)))))
		} else {
			c.SetReg(rd, uint32(int32(int16(c.bus.Read16(address)))))
		}
	}
}

func (c *CPU) thumbLoadStoreImmediate(op uint16) {
	kind := int(op>>11) & 3
	offset := uint32(op>>6) & 0x1F
	rb := int(op>>3) & 7
	rd := int(op) & 7
	base := c.Reg(rb)

	switch kind {
	case 0: // STR
		c.bus.Write32((base+offset<<2)&^uint32(3), c.Reg(rd))
	case 1: // LDR
		address := base + offset<<2
		value := c.bus.Read32(address &^ uint32(3))
		value, _ = ror(value, (address&3)*8)
		c.SetReg(rd, value)
	case 2: // STRB
		c.bus.Write8(base+offset, byte(c.Reg(rd)))
	case 3: // LDRB
		c.SetReg(rd, uint32(c.bus.Read8(base+offset)))
	}
}

func (c *CPU) thumbLoadStoreHalfword(op uint16) {
	load := op&(1<<11) != 0
	offset := uint32(op>>6) & 0x1F << 1
	rb := int(op>>3) & 7
	rd := int(op) & 7
	address := c.Reg(rb) + offset

	if load {
		value := uint32(c.bus.Read16(address &^ uint32(1)))
		if address&1 != 0 {
			value, _ = ror(value, 8)
		}
		c.SetReg(rd, value)
	} else {
		c.bus.Write16(address&^uint32(1), uint16(c.Reg(rd)))
	}
}

func (c *CPU) thumbSPRelativeLoadStore(op uint16) {
	load := op&(1<<11) != 0
	rd := int(op>>8) & 7
	offset := uint32(op&0xFF) << 2
	address := c.Reg(13) + offset

	if load {
		value := c.bus.Read32(address &^ uint32(3))
		value, _ = ror(value, (address&3)*8)
		c.SetReg(rd, value)
	} else {
		c.bus.Write32(address&^uint32(3), c.Reg(rd))
	}
}

func (c *CPU) thumbLoadAddress(op uint16) {
	sp := op&(1<<11) != 0
	rd := int(op>>8) & 7
	offset := uint32(op&0xFF) << 2

	if sp {
		c.SetReg(rd, c.Reg(13)+offset)
	} else {
		c.SetReg(rd, (c.Reg(15)&^uint32(2))+offset)
	}
}

func (c *CPU) thumbAddSP(op uint16) {
	offset := uint32(op&0x7F) << 2
	if op&(1<<7) != 0 {
		c.SetReg(13, c.Reg(13)-offset)
	} else {
		c.SetReg(13, c.Reg(13)+offset)
	}
}

func (c *CPU) thumbPushPop(op uint16) {
	pop := op&(1<<11) != 0
	pcLR := op&(1<<8) != 0
	list := op & 0xFF
	sp := c.Reg(13)

	if pop {
		for i := 0; i < 8; i++ {
			if list&(1<<i) != 0 {
				c.SetReg(i, c.bus.Read32(sp))
				sp += 4
			}
		}
		if pcLR {
			c.SetReg(15, c.bus.Read32(sp)&^uint32(1))
			sp += 4
		}
	} else {
		if pcLR {
			sp -= 4
			c.bus.Write32(sp, c.Reg(14))
		}
		for i := 7; i >= 0; i-- {
			if list&(1<<i) != 0 {
				sp -= 4
				c.bus.Write32(sp, c.Reg(i))
			}
		}
	}

	c.SetReg(13, sp)
}

// thumbMultipleLoadStore implements STMIA/LDMIA with the empty-list and
// base-in-list corner cases.
func (c *CPU) thumbMultipleLoadStore(op uint16) {
	load := op&(1<<11) != 0
	rb := int(op>>8) & 7
	list := op & 0xFF
	address := c.Reg(rb)

	if list == 0 {
		if load {
			c.SetReg(15, c.bus.Read32(address))
		} else {
			c.bus.Write32(address, c.Reg(15)+2)
		}
		c.SetReg(rb, address+0x40)
		return
	}

	firstReg := bits.TrailingZeros16(list)
	count := uint32(bits.OnesCount16(list))

	if !load && firstReg != rb {
		c.SetReg(rb, address+count*4)
	}

	for i := 0; i < 8; i++ {
		if list&(1<<i) == 0 {
			continue
		}
		if load {
			c.SetReg(i, c.bus.Read32(address))
		} else {
			c.bus.Write32(address, c.Reg(i))
		}
		address += 4
	}

	if load || firstReg == rb {
		c.SetReg(rb, address)
	}
}
