package cpu

import (
	"testing"

	"github.com/dasien/sixtwooh/bus"
)

func newTestCPU() (*Cpu6502, *bus.Bus) {
	b := bus.New()
	c := New(b)
	return c, b
}

// TestStatusByteBit5 checks §8 invariant 1: bit 5 of P always reads 1.
func TestStatusByteBit5(t *testing.T) {
	cpu, _ := newTestCPU()
	cpu.Status = 0x00
	if cpu.StatusByte()&byte(StatusFlagX) == 0 {
		t.Errorf("got bit5=0, want bit5=1")
	}
}

// TestOpADCFlagLaw checks §8 property 7 across representative operands.
func TestOpADCFlagLaw(t *testing.T) {
	tests := []struct {
		a, operand, carryIn byte
	}{
		{0x05, 0x03, 0}, // S6 first add
		{0x08, 0x30, 0}, // S6 second add
		{0xFF, 0x01, 0},
		{0x7F, 0x01, 0}, // signed overflow
		{0x80, 0xFF, 1},
	}

	for _, tt := range tests {
		cpu, b := newTestCPU()
		cpu.A = tt.a
		cpu.setFlag(StatusFlagC, tt.carryIn != 0)
		b.Write(0x0000, tt.operand)
		cpu.addrAbs = 0x0000
		cpu.isImpliedAddr = false

		sum := uint16(tt.a) + uint16(tt.operand) + uint16(tt.carryIn)
		wantA := byte(sum)
		wantC := sum >= 0x100
		wantZ := wantA == 0
		wantN := wantA&0x80 != 0

		cpu.opADC()

		if cpu.A != wantA {
			t.Errorf("A: got %#x, want %#x", cpu.A, wantA)
		}
		if (cpu.getFlag(StatusFlagC) != 0) != wantC {
			t.Errorf("C: got %v, want %v", cpu.getFlag(StatusFlagC) != 0, wantC)
		}
		if (cpu.getFlag(StatusFlagZ) != 0) != wantZ {
			t.Errorf("Z: got %v, want %v", cpu.getFlag(StatusFlagZ) != 0, wantZ)
		}
		if (cpu.getFlag(StatusFlagN) != 0) != wantN {
			t.Errorf("N: got %v, want %v", cpu.getFlag(StatusFlagN) != 0, wantN)
		}
	}
}

// TestScenarioS6 replays §8 scenario S6: LDA #$05; CLC; ADC #$03; CLC; ADC
// #$30 should leave A=0x38 with all of C/Z/N/V clear.
func TestScenarioS6(t *testing.T) {
	cpu, b := newTestCPU()

	program := []byte{
		0xA9, 0x05, // LDA #$05
		0x18,       // CLC
		0x69, 0x03, // ADC #$03
		0x18,       // CLC
		0x69, 0x30, // ADC #$30
	}
	b.Load(program, 0x0800)
	cpu.Pc = 0x0800
	cpu.State = Running

	end := uint16(0x0800 + len(program))
	for cpu.Pc < end {
		if !cpu.Step() {
			break
		}
	}

	if cpu.A != 0x38 {
		t.Errorf("A: got %#x, want 0x38", cpu.A)
	}
	if cpu.getFlag(StatusFlagC) != 0 {
		t.Errorf("C: got set, want clear")
	}
	if cpu.getFlag(StatusFlagZ) != 0 {
		t.Errorf("Z: got set, want clear")
	}
	if cpu.getFlag(StatusFlagN) != 0 {
		t.Errorf("N: got set, want clear")
	}
	if cpu.getFlag(StatusFlagV) != 0 {
		t.Errorf("V: got set, want clear")
	}
}

// TestBranchLaw checks §8 property 8: taken branches land at
// (PC_after_operand + d) mod 65536.
func TestBranchLaw(t *testing.T) {
	cpu, b := newTestCPU()

	// BNE with a negative offset (-2), looping in place; Z clear so it's taken.
	b.Write(0x1000, 0xD0) // BNE
	b.Write(0x1001, 0xFE) // -2
	cpu.Pc = 0x1000
	cpu.setFlag(StatusFlagZ, false)

	cpu.Step()

	want := uint16(0x1002-2) & 0xFFFF
	if cpu.Pc != want {
		t.Errorf("PC: got %#x, want %#x", cpu.Pc, want)
	}
}

// TestUnknownOpcodeHalts checks the Running->Halted transition.
func TestUnknownOpcodeHalts(t *testing.T) {
	cpu, b := newTestCPU()
	b.Write(0x2000, 0x02) // unimplemented opcode
	cpu.Pc = 0x2000
	cpu.State = Running

	ok := cpu.Step()
	if ok {
		t.Errorf("got recognised, want unrecognised opcode to halt")
	}
	if cpu.State != Halted {
		t.Errorf("State: got %v, want Halted", cpu.State)
	}

	// Run treats a halt as a stop condition and does not advance further.
	cpu.State = Running
	cpu.Pc = 0x2000
	cpu.Run(5)
	if cpu.State != Halted {
		t.Errorf("State after Run: got %v, want Halted", cpu.State)
	}
}

// TestResetVectors checks §4.5 for PowerOnReset: it vectors PC from $FFFC
// and sets I=1, D=0, SP=0xFD.
func TestResetVectors(t *testing.T) {
	cpu, b := newTestCPU()
	b.WriteWord(resetVectAddr, 0xF000)

	cpu.PowerOnReset()

	if cpu.Pc != 0xF000 {
		t.Errorf("PC: got %#x, want 0xF000", cpu.Pc)
	}
	if cpu.Sp != 0xFD {
		t.Errorf("SP: got %#x, want 0xFD", cpu.Sp)
	}
	if cpu.getFlag(StatusFlagI) == 0 {
		t.Errorf("I: got clear, want set")
	}
	if cpu.getFlag(StatusFlagD) != 0 {
		t.Errorf("D: got set, want clear")
	}
}

// TestResetIdempotence checks §8 invariant 9.
func TestResetIdempotence(t *testing.T) {
	cpu, b := newTestCPU()
	b.WriteWord(resetVectAddr, 0xF000)

	cpu.PowerOnReset()
	first := *cpu

	cpu.PowerOnReset()
	second := *cpu

	if first.Pc != second.Pc || first.Sp != second.Sp || first.Status != second.Status {
		t.Errorf("reset is not idempotent: %+v vs %+v", first, second)
	}
}

func TestOpAND(t *testing.T) {
	cpu, b := newTestCPU()
	cpu.A = 0xF0
	b.Write(0x0010, 0x3C)
	cpu.addrAbs = 0x0010
	cpu.isImpliedAddr = false

	before := cpu.A
	cpu.opAND()

	want := before & 0x3C
	if cpu.A != want {
		t.Errorf("A: got %#x, want %#x", cpu.A, want)
	}
	if (cpu.getFlag(StatusFlagZ) != 0) != (cpu.A == 0) {
		t.Errorf("Z flag inconsistent with A==0")
	}
	if (cpu.getFlag(StatusFlagN) != 0) != (cpu.A&0x80 != 0) {
		t.Errorf("N flag inconsistent with bit 7")
	}
}

func TestOpASLAccumulator(t *testing.T) {
	cpu, _ := newTestCPU()
	cpu.A = 0x81
	cpu.isImpliedAddr = true
	cpu.fetched = cpu.A

	cpu.opASL()

	if cpu.A != 0x02 {
		t.Errorf("A: got %#x, want 0x02", cpu.A)
	}
	if cpu.getFlag(StatusFlagC) == 0 {
		t.Errorf("C: got clear, want set (old bit 7 was 1)")
	}
}

func TestIndirectJMPPageWrapBug(t *testing.T) {
	cpu, b := newTestCPU()

	b.Write(0x30FF, 0x40) // low byte of target
	b.Write(0x3000, 0x80) // high byte fetched from $3000, NOT $3100
	b.Write(0x3100, 0xFF) // decoy: a correct (unbugged) implementation would read this

	cpu.Pc = 0x0000
	b.Write(0x0000, 0x6C) // JMP indirect
	b.WriteWord(0x0001, 0x30FF)

	cpu.Step()

	if cpu.Pc != 0x8040 {
		t.Errorf("PC: got %#x, want 0x8040 (page-wrap bug)", cpu.Pc)
	}
}

// TestTrapInterceptsBeforeFetch checks that a bound trap fires instead of
// decoding whatever opcode byte sits at its address.
func TestTrapInterceptsBeforeFetch(t *testing.T) {
	cpu, b := newTestCPU()

	b.Write(0x2000, 0xFF) // not a real opcode; only reached if the trap is skipped
	cpu.Pc = 0x2000

	fired := false
	cpu.SetTrap(0x2000, func(c *Cpu6502) {
		fired = true
		c.Pc = 0x3000
	})

	if ok := cpu.Step(); !ok {
		t.Fatalf("Step returned false for a trapped address")
	}
	if !fired {
		t.Fatalf("trap did not fire")
	}
	if cpu.Pc != 0x3000 {
		t.Errorf("PC: got %#x, want 0x3000 (set by the trap)", cpu.Pc)
	}
}

// TestCallAndReturnRoundTripThroughRealRTS checks that Call pushes a
// return address an ordinary RTS opcode pops correctly, the mechanism
// kernel.Monitor's G: command depends on.
func TestCallAndReturnRoundTripThroughRealRTS(t *testing.T) {
	cpu, b := newTestCPU()

	b.Write(0x0800, 0x60) // RTS
	cpu.Sp = 0xFF

	cpu.Call(0x0800, 0x0AFF)
	if cpu.Pc != 0x0800 {
		t.Fatalf("PC: got %#x, want 0x0800 after Call", cpu.Pc)
	}

	cpu.Step() // execute the RTS

	if cpu.Pc != 0x0B00 {
		t.Errorf("PC: got %#x, want 0x0B00 (0x0AFF+1) after RTS pops Call's return address", cpu.Pc)
	}
}

// TestReturnMatchesJSRPushOrder checks Return against a real JSR's push
// order (hi then lo) rather than against Call, so a bug shared between
// Call and Return wouldn't be masked.
func TestReturnMatchesJSRPushOrder(t *testing.T) {
	cpu, b := newTestCPU()

	cpu.Pc = 0x0400
	cpu.Sp = 0xFF
	b.Write(0x0400, 0x20) // JSR
	b.WriteWord(0x0401, 0x0900)

	cpu.Step() // execute the JSR, pushing 0x0402 (Pc-1 of the instruction after JSR)
	if cpu.Pc != 0x0900 {
		t.Fatalf("PC: got %#x, want 0x0900 after JSR", cpu.Pc)
	}

	cpu.Return()

	if cpu.Pc != 0x0403 {
		t.Errorf("PC: got %#x, want 0x0403 (JSR's return address, +1)", cpu.Pc)
	}
}
