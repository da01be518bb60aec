package cpu

// buildInstLookup constructs the 256-entry opcode dispatch table. Reference:
// http://archive.6502.org/datasheets/rockwell_r650x_r651x.pdf
//
// Entries for opcodes this core does not implement are "XXX"; Step treats
// them as a halt condition (Non-goals: illegal/undefined opcodes are not
// emulated).
func (cpu *Cpu6502) buildInstLookup() [16 * 16]instruction {
	xxx := instruction{"XXX", cpu.opXXX, cpu.amIMP, 2}

	tbl := [16 * 16]instruction{}
	for i := range tbl {
		tbl[i] = xxx
	}

	set := func(op byte, name string, exec func(), mode func(), cycles byte) {
		tbl[op] = instruction{name, exec, mode, cycles}
	}

	set(0x00, "BRK", cpu.opBRK, cpu.amIMP, 7)
	set(0x01, "ORA", cpu.opORA, cpu.amIZX, 6)
	set(0x05, "ORA", cpu.opORA, cpu.amZP0, 3)
	set(0x06, "ASL", cpu.opASL, cpu.amZP0, 5)
	set(0x08, "PHP", cpu.opPHP, cpu.amIMP, 3)
	set(0x09, "ORA", cpu.opORA, cpu.amIMM, 2)
	set(0x0A, "ASL", cpu.opASL, cpu.amACC, 2)
	set(0x0D, "ORA", cpu.opORA, cpu.amABS, 4)
	set(0x0E, "ASL", cpu.opASL, cpu.amABS, 6)

	set(0x10, "BPL", cpu.opBPL, cpu.amREL, 2)
	set(0x11, "ORA", cpu.opORA, cpu.amIZY, 5)
	set(0x15, "ORA", cpu.opORA, cpu.amZPX, 4)
	set(0x16, "ASL", cpu.opASL, cpu.amZPX, 6)
	set(0x18, "CLC", cpu.opCLC, cpu.amIMP, 2)
	set(0x19, "ORA", cpu.opORA, cpu.amABY, 4)
	set(0x1D, "ORA", cpu.opORA, cpu.amABX, 4)
	set(0x1E, "ASL", cpu.opASL, cpu.amABX, 7)

	set(0x20, "JSR", cpu.opJSR, cpu.amABS, 6)
	set(0x21, "AND", cpu.opAND, cpu.amIZX, 6)
	set(0x24, "BIT", cpu.opBIT, cpu.amZP0, 3)
	set(0x25, "AND", cpu.opAND, cpu.amZP0, 3)
	set(0x26, "ROL", cpu.opROL, cpu.amZP0, 5)
	set(0x28, "PLP", cpu.opPLP, cpu.amIMP, 4)
	set(0x29, "AND", cpu.opAND, cpu.amIMM, 2)
	set(0x2A, "ROL", cpu.opROL, cpu.amACC, 2)
	set(0x2C, "BIT", cpu.opBIT, cpu.amABS, 4)
	set(0x2D, "AND", cpu.opAND, cpu.amABS, 4)
	set(0x2E, "ROL", cpu.opROL, cpu.amABS, 6)

	set(0x30, "BMI", cpu.opBMI, cpu.amREL, 2)
	set(0x31, "AND", cpu.opAND, cpu.amIZY, 5)
	set(0x35, "AND", cpu.opAND, cpu.amZPX, 4)
	set(0x36, "ROL", cpu.opROL, cpu.amZPX, 6)
	set(0x38, "SEC", cpu.opSEC, cpu.amIMP, 2)
	set(0x39, "AND", cpu.opAND, cpu.amABY, 4)
	set(0x3D, "AND", cpu.opAND, cpu.amABX, 4)
	set(0x3E, "ROL", cpu.opROL, cpu.amABX, 7)

	set(0x40, "RTI", cpu.opRTI, cpu.amIMP, 6)
	set(0x41, "EOR", cpu.opEOR, cpu.amIZX, 6)
	set(0x45, "EOR", cpu.opEOR, cpu.amZP0, 3)
	set(0x46, "LSR", cpu.opLSR, cpu.amZP0, 5)
	set(0x48, "PHA", cpu.opPHA, cpu.amIMP, 3)
	set(0x49, "EOR", cpu.opEOR, cpu.amIMM, 2)
	set(0x4A, "LSR", cpu.opLSR, cpu.amACC, 2)
	set(0x4C, "JMP", cpu.opJMP, cpu.amABS, 3)
	set(0x4D, "EOR", cpu.opEOR, cpu.amABS, 4)
	set(0x4E, "LSR", cpu.opLSR, cpu.amABS, 6)

	set(0x50, "BVC", cpu.opBVC, cpu.amREL, 2)
	set(0x51, "EOR", cpu.opEOR, cpu.amIZY, 5)
	set(0x55, "EOR", cpu.opEOR, cpu.amZPX, 4)
	set(0x56, "LSR", cpu.opLSR, cpu.amZPX, 6)
	set(0x58, "CLI", cpu.opCLI, cpu.amIMP, 2)
	set(0x59, "EOR", cpu.opEOR, cpu.amABY, 4)
	set(0x5D, "EOR", cpu.opEOR, cpu.amABX, 4)
	set(0x5E, "LSR", cpu.opLSR, cpu.amABX, 7)

	set(0x60, "RTS", cpu.opRTS, cpu.amIMP, 6)
	set(0x61, "ADC", cpu.opADC, cpu.amIZX, 6)
	set(0x65, "ADC", cpu.opADC, cpu.amZP0, 3)
	set(0x66, "ROR", cpu.opROR, cpu.amZP0, 5)
	set(0x68, "PLA", cpu.opPLA, cpu.amIMP, 4)
	set(0x69, "ADC", cpu.opADC, cpu.amIMM, 2)
	set(0x6A, "ROR", cpu.opROR, cpu.amACC, 2)
	set(0x6C, "JMP", cpu.opJMP, cpu.amIND, 5)
	set(0x6D, "ADC", cpu.opADC, cpu.amABS, 4)
	set(0x6E, "ROR", cpu.opROR, cpu.amABS, 6)

	set(0x70, "BVS", cpu.opBVS, cpu.amREL, 2)
	set(0x71, "ADC", cpu.opADC, cpu.amIZY, 5)
	set(0x75, "ADC", cpu.opADC, cpu.amZPX, 4)
	set(0x76, "ROR", cpu.opROR, cpu.amZPX, 6)
	set(0x78, "SEI", cpu.opSEI, cpu.amIMP, 2)
	set(0x79, "ADC", cpu.opADC, cpu.amABY, 4)
	set(0x7D, "ADC", cpu.opADC, cpu.amABX, 4)
	set(0x7E, "ROR", cpu.opROR, cpu.amABX, 7)

	set(0x81, "STA", cpu.opSTA, cpu.amIZX, 6)
	set(0x84, "STY", cpu.opSTY, cpu.amZP0, 3)
	set(0x85, "STA", cpu.opSTA, cpu.amZP0, 3)
	set(0x86, "STX", cpu.opSTX, cpu.amZP0, 3)
	set(0x88, "DEY", cpu.opDEY, cpu.amIMP, 2)
	set(0x8A, "TXA", cpu.opTXA, cpu.amIMP, 2)
	set(0x8C, "STY", cpu.opSTY, cpu.amABS, 4)
	set(0x8D, "STA", cpu.opSTA, cpu.amABS, 4)
	set(0x8E, "STX", cpu.opSTX, cpu.amABS, 4)

	set(0x90, "BCC", cpu.opBCC, cpu.amREL, 2)
	set(0x91, "STA", cpu.opSTA, cpu.amIZY, 6)
	set(0x94, "STY", cpu.opSTY, cpu.amZPX, 4)
	set(0x95, "STA", cpu.opSTA, cpu.amZPX, 4)
	set(0x96, "STX", cpu.opSTX, cpu.amZPY, 4)
	set(0x98, "TYA", cpu.opTYA, cpu.amIMP, 2)
	set(0x99, "STA", cpu.opSTA, cpu.amABY, 5)
	set(0x9A, "TXS", cpu.opTXS, cpu.amIMP, 2)
	set(0x9D, "STA", cpu.opSTA, cpu.amABX, 5)

	set(0xA0, "LDY", cpu.opLDY, cpu.amIMM, 2)
	set(0xA1, "LDA", cpu.opLDA, cpu.amIZX, 6)
	set(0xA2, "LDX", cpu.opLDX, cpu.amIMM, 2)
	set(0xA4, "LDY", cpu.opLDY, cpu.amZP0, 3)
	set(0xA5, "LDA", cpu.opLDA, cpu.amZP0, 3)
	set(0xA6, "LDX", cpu.opLDX, cpu.amZP0, 3)
	set(0xA8, "TAY", cpu.opTAY, cpu.amIMP, 2)
	set(0xA9, "LDA", cpu.opLDA, cpu.amIMM, 2)
	set(0xAA, "TAX", cpu.opTAX, cpu.amIMP, 2)
	set(0xAC, "LDY", cpu.opLDY, cpu.amABS, 4)
	set(0xAD, "LDA", cpu.opLDA, cpu.amABS, 4)
	set(0xAE, "LDX", cpu.opLDX, cpu.amABS, 4)

	set(0xB0, "BCS", cpu.opBCS, cpu.amREL, 2)
	set(0xB1, "LDA", cpu.opLDA, cpu.amIZY, 5)
	set(0xB4, "LDY", cpu.opLDY, cpu.amZPX, 4)
	set(0xB5, "LDA", cpu.opLDA, cpu.amZPX, 4)
	set(0xB6, "LDX", cpu.opLDX, cpu.amZPY, 4)
	set(0xB8, "CLV", cpu.opCLV, cpu.amIMP, 2)
	set(0xB9, "LDA", cpu.opLDA, cpu.amABY, 4)
	set(0xBA, "TSX", cpu.opTSX, cpu.amIMP, 2)
	set(0xBC, "LDY", cpu.opLDY, cpu.amABX, 4)
	set(0xBD, "LDA", cpu.opLDA, cpu.amABX, 4)
	set(0xBE, "LDX", cpu.opLDX, cpu.amABY, 4)

	set(0xC0, "CPY", cpu.opCPY, cpu.amIMM, 2)
	set(0xC1, "CMP", cpu.opCMP, cpu.amIZX, 6)
	set(0xC4, "CPY", cpu.opCPY, cpu.amZP0, 3)
	set(0xC5, "CMP", cpu.opCMP, cpu.amZP0, 3)
	set(0xC6, "DEC", cpu.opDEC, cpu.amZP0, 5)
	set(0xC8, "INY", cpu.opINY, cpu.amIMP, 2)
	set(0xC9, "CMP", cpu.opCMP, cpu.amIMM, 2)
	set(0xCA, "DEX", cpu.opDEX, cpu.amIMP, 2)
	set(0xCC, "CPY", cpu.opCPY, cpu.amABS, 4)
	set(0xCD, "CMP", cpu.opCMP, cpu.amABS, 4)
	set(0xCE, "DEC", cpu.opDEC, cpu.amABS, 6)

	set(0xD0, "BNE", cpu.opBNE, cpu.amREL, 2)
	set(0xD1, "CMP", cpu.opCMP, cpu.amIZY, 5)
	set(0xD5, "CMP", cpu.opCMP, cpu.amZPX, 4)
	set(0xD6, "DEC", cpu.opDEC, cpu.amZPX, 6)
	set(0xD8, "CLD", cpu.opCLD, cpu.amIMP, 2)
	set(0xD9, "CMP", cpu.opCMP, cpu.amABY, 4)
	set(0xDD, "CMP", cpu.opCMP, cpu.amABX, 4)
	set(0xDE, "DEC", cpu.opDEC, cpu.amABX, 7)

	set(0xE0, "CPX", cpu.opCPX, cpu.amIMM, 2)
	set(0xE1, "SBC", cpu.opSBC, cpu.amIZX, 6)
	set(0xE4, "CPX", cpu.opCPX, cpu.amZP0, 3)
	set(0xE5, "SBC", cpu.opSBC, cpu.amZP0, 3)
	set(0xE6, "INC", cpu.opINC, cpu.amZP0, 5)
	set(0xE8, "INX", cpu.opINX, cpu.amIMP, 2)
	set(0xE9, "SBC", cpu.opSBC, cpu.amIMM, 2)
	set(0xEA, "NOP", cpu.opNOP, cpu.amIMP, 2)
	set(0xEC, "CPX", cpu.opCPX, cpu.amABS, 4)
	set(0xED, "SBC", cpu.opSBC, cpu.amABS, 4)
	set(0xEE, "INC", cpu.opINC, cpu.amABS, 6)

	set(0xF0, "BEQ", cpu.opBEQ, cpu.amREL, 2)
	set(0xF1, "SBC", cpu.opSBC, cpu.amIZY, 5)
	set(0xF5, "SBC", cpu.opSBC, cpu.amZPX, 4)
	set(0xF6, "INC", cpu.opINC, cpu.amZPX, 6)
	set(0xF8, "SED", cpu.opSED, cpu.amIMP, 2)
	set(0xF9, "SBC", cpu.opSBC, cpu.amABY, 4)
	set(0xFD, "SBC", cpu.opSBC, cpu.amABX, 4)
	set(0xFE, "INC", cpu.opINC, cpu.amABX, 7)

	return tbl
}

func (cpu *Cpu6502) setZN(v byte) {
	cpu.setFlag(StatusFlagZ, v == 0)
	cpu.setFlag(StatusFlagN, v&0x80 != 0)
}

func (cpu *Cpu6502) writeResult(v byte) {
	if cpu.isImpliedAddr {
		cpu.A = v
	} else {
		cpu.write(cpu.addrAbs, v)
	}
}

// ADC - Add with Carry. §8 property 7.
func (cpu *Cpu6502) opADC() {
	cpu.fetch()

	sum := uint16(cpu.A) + uint16(cpu.fetched) + uint16(cpu.getFlag(StatusFlagC))
	result := byte(sum)

	cpu.setFlag(StatusFlagC, sum > 0xFF)
	cpu.setFlag(StatusFlagV, (cpu.A^result)&(cpu.fetched^result)&0x80 != 0)
	cpu.A = result
	cpu.setZN(cpu.A)
}

// SBC - Subtract with Carry (binary mode only, per Non-goals).
func (cpu *Cpu6502) opSBC() {
	cpu.fetch()

	inverted := cpu.fetched ^ 0xFF
	sum := uint16(cpu.A) + uint16(inverted) + uint16(cpu.getFlag(StatusFlagC))
	result := byte(sum)

	cpu.setFlag(StatusFlagC, sum > 0xFF)
	cpu.setFlag(StatusFlagV, (cpu.A^result)&(inverted^result)&0x80 != 0)
	cpu.A = result
	cpu.setZN(cpu.A)
}

func (cpu *Cpu6502) opAND() {
	cpu.fetch()
	cpu.A &= cpu.fetched
	cpu.setZN(cpu.A)
}

func (cpu *Cpu6502) opASL() {
	cpu.fetch()
	cpu.setFlag(StatusFlagC, cpu.fetched&0x80 != 0)
	result := cpu.fetched << 1
	cpu.writeResult(result)
	cpu.setZN(result)
}

func (cpu *Cpu6502) branchIf(cond bool) {
	if !cond {
		return
	}
	cpu.addrAbs = cpu.Pc + cpu.addrRel
	cpu.Pc = cpu.addrAbs
}

func (cpu *Cpu6502) opBCC() { cpu.branchIf(cpu.getFlag(StatusFlagC) == 0) }
func (cpu *Cpu6502) opBCS() { cpu.branchIf(cpu.getFlag(StatusFlagC) != 0) }
func (cpu *Cpu6502) opBEQ() { cpu.branchIf(cpu.getFlag(StatusFlagZ) != 0) }
func (cpu *Cpu6502) opBNE() { cpu.branchIf(cpu.getFlag(StatusFlagZ) == 0) }
func (cpu *Cpu6502) opBMI() { cpu.branchIf(cpu.getFlag(StatusFlagN) != 0) }
func (cpu *Cpu6502) opBPL() { cpu.branchIf(cpu.getFlag(StatusFlagN) == 0) }
func (cpu *Cpu6502) opBVC() { cpu.branchIf(cpu.getFlag(StatusFlagV) == 0) }
func (cpu *Cpu6502) opBVS() { cpu.branchIf(cpu.getFlag(StatusFlagV) != 0) }

func (cpu *Cpu6502) opBIT() {
	cpu.fetch()
	cpu.setFlag(StatusFlagZ, cpu.fetched&cpu.A == 0)
	cpu.setFlag(StatusFlagV, cpu.fetched&0x40 != 0)
	cpu.setFlag(StatusFlagN, cpu.fetched&0x80 != 0)
}

// BRK - Force Interrupt, pushing P with B set.
func (cpu *Cpu6502) opBRK() {
	cpu.Pc++ // BRK's operand byte is a padding byte, conventionally skipped.
	cpu.pushInterruptFrame(irqVectAddr, true)
}

func (cpu *Cpu6502) opCLC() { cpu.setFlag(StatusFlagC, false) }
func (cpu *Cpu6502) opCLD() { cpu.setFlag(StatusFlagD, false) }
func (cpu *Cpu6502) opCLI() { cpu.setFlag(StatusFlagI, false) }
func (cpu *Cpu6502) opCLV() { cpu.setFlag(StatusFlagV, false) }
func (cpu *Cpu6502) opSEC() { cpu.setFlag(StatusFlagC, true) }
func (cpu *Cpu6502) opSED() { cpu.setFlag(StatusFlagD, true) }
func (cpu *Cpu6502) opSEI() { cpu.setFlag(StatusFlagI, true) }

func (cpu *Cpu6502) compare(reg byte) {
	cpu.fetch()
	cpu.setFlag(StatusFlagC, reg >= cpu.fetched)
	cpu.setFlag(StatusFlagZ, reg == cpu.fetched)
	cpu.setFlag(StatusFlagN, (reg-cpu.fetched)&0x80 != 0)
}

func (cpu *Cpu6502) opCMP() { cpu.compare(cpu.A) }
func (cpu *Cpu6502) opCPX() { cpu.compare(cpu.X) }
func (cpu *Cpu6502) opCPY() { cpu.compare(cpu.Y) }

func (cpu *Cpu6502) opDEC() {
	cpu.fetch()
	cpu.fetched--
	cpu.write(cpu.addrAbs, cpu.fetched)
	cpu.setZN(cpu.fetched)
}

func (cpu *Cpu6502) opINC() {
	cpu.fetch()
	cpu.fetched++
	cpu.write(cpu.addrAbs, cpu.fetched)
	cpu.setZN(cpu.fetched)
}

func (cpu *Cpu6502) opDEX() { cpu.X--; cpu.setZN(cpu.X) }
func (cpu *Cpu6502) opDEY() { cpu.Y--; cpu.setZN(cpu.Y) }
func (cpu *Cpu6502) opINX() { cpu.X++; cpu.setZN(cpu.X) }
func (cpu *Cpu6502) opINY() { cpu.Y++; cpu.setZN(cpu.Y) }

func (cpu *Cpu6502) opEOR() {
	cpu.fetch()
	cpu.A ^= cpu.fetched
	cpu.setZN(cpu.A)
}

func (cpu *Cpu6502) opORA() {
	cpu.fetch()
	cpu.A |= cpu.fetched
	cpu.setZN(cpu.A)
}

func (cpu *Cpu6502) opJMP() { cpu.Pc = cpu.addrAbs }

func (cpu *Cpu6502) opJSR() {
	retAddr := cpu.Pc - 1
	cpu.stackPush(byte(retAddr >> 8))
	cpu.stackPush(byte(retAddr))
	cpu.Pc = cpu.addrAbs
}

func (cpu *Cpu6502) opRTS() {
	lo := cpu.stackPop()
	hi := cpu.stackPop()
	cpu.Pc = uint16(hi)<<8 | uint16(lo)
	cpu.Pc++
}

func (cpu *Cpu6502) opLDA() { cpu.fetch(); cpu.A = cpu.fetched; cpu.setZN(cpu.A) }
func (cpu *Cpu6502) opLDX() { cpu.fetch(); cpu.X = cpu.fetched; cpu.setZN(cpu.X) }
func (cpu *Cpu6502) opLDY() { cpu.fetch(); cpu.Y = cpu.fetched; cpu.setZN(cpu.Y) }

func (cpu *Cpu6502) opLSR() {
	cpu.fetch()
	cpu.setFlag(StatusFlagC, cpu.fetched&0x01 != 0)
	result := cpu.fetched >> 1
	cpu.writeResult(result)
	cpu.setZN(result)
}

func (cpu *Cpu6502) opROL() {
	cpu.fetch()
	carryIn := cpu.getFlag(StatusFlagC)
	cpu.setFlag(StatusFlagC, cpu.fetched&0x80 != 0)
	result := (cpu.fetched << 1) | carryIn
	cpu.writeResult(result)
	cpu.setZN(result)
}

func (cpu *Cpu6502) opROR() {
	cpu.fetch()
	carryIn := cpu.getFlag(StatusFlagC)
	cpu.setFlag(StatusFlagC, cpu.fetched&0x01 != 0)
	result := (cpu.fetched >> 1) | (carryIn << 7)
	cpu.writeResult(result)
	cpu.setZN(result)
}

func (cpu *Cpu6502) opNOP() {}
func (cpu *Cpu6502) opXXX() {}

func (cpu *Cpu6502) opPHA() { cpu.stackPush(cpu.A) }
func (cpu *Cpu6502) opPHP() { cpu.stackPush(cpu.StatusByte() | byte(StatusFlagB)) }

func (cpu *Cpu6502) opPLA() {
	cpu.A = cpu.stackPop()
	cpu.setZN(cpu.A)
}

func (cpu *Cpu6502) opPLP() {
	bFlag := cpu.getFlag(StatusFlagB) != 0
	cpu.Status = cpu.stackPop()
	cpu.setFlag(StatusFlagB, bFlag)
	cpu.setFlag(StatusFlagX, true)
}

func (cpu *Cpu6502) opRTI() {
	bFlag := cpu.getFlag(StatusFlagB) != 0
	cpu.Status = cpu.stackPop()
	cpu.setFlag(StatusFlagB, bFlag)
	cpu.setFlag(StatusFlagX, true)

	lo := cpu.stackPop()
	hi := cpu.stackPop()
	cpu.Pc = uint16(hi)<<8 | uint16(lo)
}

func (cpu *Cpu6502) opSTA() { cpu.write(cpu.addrAbs, cpu.A) }
func (cpu *Cpu6502) opSTX() { cpu.write(cpu.addrAbs, cpu.X) }
func (cpu *Cpu6502) opSTY() { cpu.write(cpu.addrAbs, cpu.Y) }

func (cpu *Cpu6502) opTAX() { cpu.X = cpu.A; cpu.setZN(cpu.X) }
func (cpu *Cpu6502) opTAY() { cpu.Y = cpu.A; cpu.setZN(cpu.Y) }
func (cpu *Cpu6502) opTSX() { cpu.X = cpu.Sp; cpu.setZN(cpu.X) }
func (cpu *Cpu6502) opTXA() { cpu.A = cpu.X; cpu.setZN(cpu.A) }
func (cpu *Cpu6502) opTXS() { cpu.Sp = cpu.X }
func (cpu *Cpu6502) opTYA() { cpu.A = cpu.Y; cpu.setZN(cpu.A) }
