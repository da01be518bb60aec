// Package cpu implements the MOS 6502 core (§4.4): register file, flag
// semantics, addressing modes, the instruction table, and reset/IRQ/NMI/BRK
// dispatch. Each Step executes one instruction atomically; the spec's
// non-goals exclude sub-cycle bus timing, so unlike a cycle-accurate core
// this one does not model partial-instruction clock ticks.
package cpu

import (
	"fmt"
	"log"

	"github.com/dasien/sixtwooh/bus"
)

const stackBase uint16 = 0x0100

const (
	resetVectAddr uint16 = 0xFFFC
	nmiVectAddr   uint16 = 0xFFFA
	irqVectAddr   uint16 = 0xFFFE
)

// RunState is the CPU's run-loop state (§4.4): Running until an
// unimplemented opcode is decoded, at which point it halts.
type RunState int

const (
	Running RunState = iota
	Halted
)

// Cpu6502 is the register file plus decode/execute engine.
type Cpu6502 struct {
	Pc     uint16 // Program Counter
	Sp     byte   // Stack Pointer: low 8 bits of next free stack location.
	A      byte   // Accumulator
	X      byte   // X index register
	Y      byte   // Y index register
	Status byte   // Processor status flags (NV1BDIZC)

	State RunState

	bus *bus.Bus

	// Internal state set by addressing-mode resolution and consumed by
	// instruction execution.
	opcode        byte
	addrAbs       uint16
	addrRel       uint16
	fetched       byte
	isImpliedAddr bool

	CycleCount uint64 // Total cycles attributed to executed instructions.

	lastDisasm string

	instLookup [16 * 16]instruction

	// traps lets a caller (the kernel package) bind a native handler to a
	// PC value instead of decoding whatever byte sits there. Step calls the
	// handler in place of fetch/decode/execute; the handler is responsible
	// for leaving the CPU in a state consistent with having "returned", the
	// same contract a real JSR/RTS pair gives the caller.
	traps map[uint16]func(*Cpu6502)

	// logger receives one line per executed instruction, mirroring
	// nes/cpu.go's per-Cycle state log. Nil by default; SetLogger opts in.
	logger *log.Logger
}

// New returns a Cpu6502 connected to b, with the instruction table
// populated and all registers zeroed (callers should follow with Reset or
// PowerOnReset before running code).
func New(b *bus.Bus) *Cpu6502 {
	cpu := &Cpu6502{bus: b, traps: make(map[uint16]func(*Cpu6502))}
	cpu.instLookup = cpu.buildInstLookup()
	return cpu
}

// SetLogger directs per-instruction state logging to l, the way
// nes/cpu.go's Logger field does for its own Cycle loop. Pass nil (the
// default) to disable logging entirely.
func (cpu *Cpu6502) SetLogger(l *log.Logger) {
	cpu.logger = l
}

// SetTrap binds fn as a native handler for PC == addr: the next Step that
// lands on addr runs fn instead of fetching an opcode there. Used to splice
// the kernel's Go-native jump-table routines into otherwise-ordinary 6502
// execution (spec §9 design note (b): re-implement the monitor, bound to
// the same jump-table contract, rather than assembling it to machine code).
func (cpu *Cpu6502) SetTrap(addr uint16, fn func(*Cpu6502)) {
	cpu.traps[addr] = fn
}

// ClearTrap removes any trap bound to addr.
func (cpu *Cpu6502) ClearTrap(addr uint16) {
	delete(cpu.traps, addr)
}

// Call pushes returnAddr (high then low, matching JSR's push of PC-1) and
// transfers control to addr, the way G:AAAA hands the CPU to user code
// with a path back into the monitor's reentry trap.
func (cpu *Cpu6502) Call(addr uint16, returnAddr uint16) {
	cpu.stackPush(byte(returnAddr >> 8))
	cpu.stackPush(byte(returnAddr))
	cpu.Pc = addr
	cpu.State = Running
}

// Return pops a return address pushed by JSR or Call and resumes there,
// the same stack discipline as RTS. Trap handlers call this once they've
// finished standing in for the ROM routine a JSR landed on.
func (cpu *Cpu6502) Return() {
	lo := cpu.stackPop()
	hi := cpu.stackPop()
	cpu.Pc = uint16(hi)<<8 | uint16(lo)
	cpu.Pc++
}

// MnemonicAt returns the instruction name for opcode, for a monitor-style
// disassembler that walks memory without executing it.
func (cpu *Cpu6502) MnemonicAt(opcode byte) string {
	return cpu.instLookup[opcode].name
}

func (cpu *Cpu6502) read(addr uint16) byte          { return cpu.bus.Read(addr) }
func (cpu *Cpu6502) write(addr uint16, data byte)   { cpu.bus.Write(addr, data) }
func (cpu *Cpu6502) readWord(addr uint16) uint16    { return cpu.bus.ReadWord(addr) }

func (cpu *Cpu6502) fetch() {
	if !cpu.isImpliedAddr {
		cpu.fetched = cpu.read(cpu.addrAbs)
	}
}

func (cpu *Cpu6502) stackPush(data byte) {
	cpu.write(stackBase|uint16(cpu.Sp), data)
	cpu.Sp--
}

func (cpu *Cpu6502) stackPop() byte {
	cpu.Sp++
	return cpu.read(stackBase | uint16(cpu.Sp))
}

////////////////////////////////////////////////////////////////
// Status flags

// SF6502 is a single bit of the 6502 status register.
type SF6502 byte

const (
	StatusFlagC SF6502 = 1 << iota // Carry
	StatusFlagZ                    // Zero
	StatusFlagI                    // Interrupt disable
	StatusFlagD                    // Decimal mode (accepted but not applied to ADC/SBC, per Non-goals)
	StatusFlagB                    // Break command
	StatusFlagX                    // Unused, always reads 1
	StatusFlagV                    // Overflow
	StatusFlagN                    // Negative
)

func (cpu *Cpu6502) getFlag(f SF6502) byte {
	return cpu.Status & byte(f)
}

func (cpu *Cpu6502) setFlag(f SF6502, set bool) {
	if set {
		cpu.Status |= byte(f)
	} else {
		cpu.Status &^= byte(f)
	}
}

// StatusByte returns the processor status byte with bit 5 forced to 1, as
// required whenever P is observed (§3 invariant, §8 property 1).
func (cpu *Cpu6502) StatusByte() byte {
	return cpu.Status | byte(StatusFlagX)
}

////////////////////////////////////////////////////////////////
// Reset / interrupts

// PowerOnReset clears the register file and vectors the program counter
// from $FFFC, per §4.5.
func (cpu *Cpu6502) PowerOnReset() {
	cpu.A, cpu.X, cpu.Y = 0, 0, 0
	cpu.doReset()
}

// TriggerReset vectors the program counter from $FFFC without clearing the
// accumulator/index registers (RAM is untouched at this layer regardless;
// any RAM clearing on power-on is the machine package's responsibility).
func (cpu *Cpu6502) TriggerReset() {
	cpu.doReset()
}

func (cpu *Cpu6502) doReset() {
	cpu.Status = byte(StatusFlagX) | byte(StatusFlagI)
	cpu.Sp = 0xFD
	cpu.Pc = cpu.readWord(resetVectAddr)
	cpu.opcode = 0
	cpu.addrAbs = 0
	cpu.addrRel = 0
	cpu.fetched = 0
	cpu.isImpliedAddr = false
	cpu.State = Running
}

// IRQ requests a maskable interrupt; it is a no-op while I is set. Pushes
// PC then P (with B clear), sets I, and vectors from $FFFE.
func (cpu *Cpu6502) IRQ() {
	if cpu.getFlag(StatusFlagI) != 0 {
		return
	}
	cpu.pushInterruptFrame(irqVectAddr, false)
}

// NMI requests a non-maskable interrupt. Pushes PC then P (with B clear),
// sets I, and vectors from $FFFA.
func (cpu *Cpu6502) NMI() {
	cpu.pushInterruptFrame(nmiVectAddr, false)
}

func (cpu *Cpu6502) pushInterruptFrame(vector uint16, bFlag bool) {
	cpu.stackPush(byte(cpu.Pc >> 8))
	cpu.stackPush(byte(cpu.Pc))

	status := cpu.StatusByte()
	if bFlag {
		status |= byte(StatusFlagB)
	} else {
		status &^= byte(StatusFlagB)
	}
	cpu.stackPush(status)

	cpu.setFlag(StatusFlagI, true)
	cpu.Pc = cpu.readWord(vector)
}

////////////////////////////////////////////////////////////////
// Instruction cycle

// Step fetches, decodes, and executes one instruction atomically. It
// returns true if the opcode was recognised, or false (and transitions the
// CPU to Halted) if it was not. Run treats a false return as a stop
// condition.
func (cpu *Cpu6502) Step() bool {
	if cpu.State == Halted {
		return false
	}

	if fn, ok := cpu.traps[cpu.Pc]; ok {
		trapPc := cpu.Pc
		fn(cpu)
		cpu.lastDisasm = fmt.Sprintf("%04X TRAP", trapPc)
		if cpu.logger != nil {
			cpu.logger.Print(cpu.lastDisasm + cpu.stateSuffix())
		}
		return true
	}

	oldPc := cpu.Pc
	cpu.opcode = cpu.read(cpu.Pc)
	cpu.Pc++

	inst := cpu.instLookup[cpu.opcode]
	if inst.name == "XXX" {
		cpu.State = Halted
		return false
	}

	cpu.isImpliedAddr = false
	inst.addrMode()
	inst.execute()

	cpu.CycleCount += uint64(inst.cycles)
	cpu.lastDisasm = fmt.Sprintf("%04X %02X - %s", oldPc, cpu.opcode, inst.name)

	if cpu.logger != nil {
		cpu.logger.Print(cpu.lastDisasm + cpu.stateSuffix())
	}

	return true
}

// stateSuffix renders the register snapshot appended to each logged
// instruction line, matching nes/cpu.go's "A:.. X:.. Y:.. P:.. SP:.. CYC:.."
// tail.
func (cpu *Cpu6502) stateSuffix() string {
	return fmt.Sprintf("\t\tA:%02X X:%02X Y:%02X P:%02X SP:%02X\tCYC:%d",
		cpu.A, cpu.X, cpu.Y, cpu.Status, cpu.Sp, cpu.CycleCount)
}

// Run advances the CPU up to n instructions, stopping early if the CPU
// halts on an unrecognised opcode.
func (cpu *Cpu6502) Run(n int) {
	for i := 0; i < n; i++ {
		if !cpu.Step() {
			return
		}
	}
}

////////////////////////////////////////////////////////////////
// Addressing modes
//
// Each addressing-mode function resolves cpu.addrAbs (or cpu.addrRel for
// branches) and advances the program counter past the operand bytes.

func (cpu *Cpu6502) amIMP() {
	cpu.isImpliedAddr = true
	cpu.fetched = cpu.A
}

func (cpu *Cpu6502) amIMM() {
	cpu.addrAbs = cpu.Pc
	cpu.Pc++
}

func (cpu *Cpu6502) amREL() {
	offset := cpu.read(cpu.Pc)
	cpu.Pc++

	cpu.addrRel = uint16(offset)
	if cpu.addrRel&0x80 != 0 {
		cpu.addrRel |= 0xFF00
	}
}

func (cpu *Cpu6502) amZP0() {
	cpu.addrAbs = uint16(cpu.read(cpu.Pc))
	cpu.Pc++
}

func (cpu *Cpu6502) amZPX() {
	cpu.addrAbs = uint16(cpu.read(cpu.Pc)+cpu.X) & 0x00FF
	cpu.Pc++
}

func (cpu *Cpu6502) amZPY() {
	cpu.addrAbs = uint16(cpu.read(cpu.Pc)+cpu.Y) & 0x00FF
	cpu.Pc++
}

func (cpu *Cpu6502) amABS() {
	cpu.addrAbs = cpu.readWord(cpu.Pc)
	cpu.Pc += 2
}

func (cpu *Cpu6502) amABX() {
	addr := cpu.readWord(cpu.Pc)
	cpu.Pc += 2
	cpu.addrAbs = addr + uint16(cpu.X)
}

func (cpu *Cpu6502) amABY() {
	addr := cpu.readWord(cpu.Pc)
	cpu.Pc += 2
	cpu.addrAbs = addr + uint16(cpu.Y)
}

// amIND implements JMP's indirect addressing including the classic page-wrap
// bug: if the pointer's low byte is $FF, the high byte is fetched from
// $xx00 of the same page instead of crossing into the next page.
func (cpu *Cpu6502) amIND() {
	ptr := cpu.readWord(cpu.Pc)
	cpu.Pc += 2

	lo := cpu.read(ptr)
	var hi byte
	if ptr&0x00FF == 0x00FF {
		hi = cpu.read(ptr & 0xFF00)
	} else {
		hi = cpu.read(ptr + 1)
	}
	cpu.addrAbs = uint16(hi)<<8 | uint16(lo)
}

func (cpu *Cpu6502) amIZX() {
	base := (cpu.read(cpu.Pc) + cpu.X) & 0x00FF
	cpu.Pc++

	lo := cpu.read(uint16(base))
	hi := cpu.read(uint16(base+1) & 0x00FF)
	cpu.addrAbs = uint16(hi)<<8 | uint16(lo)
}

func (cpu *Cpu6502) amIZY() {
	base := uint16(cpu.read(cpu.Pc))
	cpu.Pc++

	lo := cpu.read(base & 0x00FF)
	hi := cpu.read((base + 1) & 0x00FF)
	cpu.addrAbs = (uint16(hi)<<8 | uint16(lo)) + uint16(cpu.Y)
}

func (cpu *Cpu6502) amACC() {
	cpu.isImpliedAddr = true
	cpu.fetched = cpu.A
}

////////////////////////////////////////////////////////////////
// Instruction table

type instruction struct {
	name     string
	execute  func()
	addrMode func()
	cycles   byte
}

// Disassemble returns a short mnemonic for the most recently executed
// instruction, for a driver's debug display (§4.4 "Debug surface").
func (cpu *Cpu6502) Disassemble() string {
	return cpu.lastDisasm
}
