// Package kernel re-implements the ROM-resident monitor in Go, bound to
// the same $FF00 jump-table ABI a real assembled kernel would expose
// (spec design note (b): re-implement rather than assemble to 6502
// machine code). The six jump-table entries are real three-byte JMP
// instructions pointing into the CODE segment; the addresses they jump
// to are bound as native traps on the CPU, so a 6502 program's `JSR
// $FF00` still executes as ordinary 6502 control flow up to the point
// the jump table hands it off.
package kernel

import (
	"github.com/dasien/sixtwooh/bus"
	"github.com/dasien/sixtwooh/cpu"
	"github.com/dasien/sixtwooh/romload"
)

// Jump table offsets (§6), exported so a driver or test can JSR into them
// from assembled 6502 code.
const (
	KPrintChar uint16 = 0xFF00
	KPrintStr  uint16 = 0xFF03
	KNewline   uint16 = 0xFF06
	KWaitKey   uint16 = 0xFF09
	KClear     uint16 = 0xFF0C
	KRand      uint16 = 0xFF0F
)

// monitorReentry is where G:'s return address points: the trap bound
// here is what gives control back to the monitor loop when user code
// executes RTS.
const monitorReentry uint16 = 0xF000

// Internal addresses the jump table's JMP instructions target. These
// never need to hold real opcodes since a trap intercepts them before
// Step decodes anything there.
const (
	internalPrintChar uint16 = 0xF100
	internalPrintStr  uint16 = 0xF110
	internalNewline   uint16 = 0xF120
	internalWaitKey   uint16 = 0xF130
	internalClear     uint16 = 0xF140
	internalRand      uint16 = 0xF150
)

// codeFillByte pads the otherwise-unused CODE segment. It is never
// fetched: every address a 6502 program can reach through the jump
// table or G:'s reentry point is trapped.
const codeFillByte byte = 0xEA

// Install builds the 4096-byte ROM image (CODE/JUMPS/VECS), loads it onto
// b via romload, and binds m's trap handlers onto c at the jump table's
// internal targets and at the monitor's reentry point. Call once per
// machine construction, before the first PowerOnReset.
func Install(b *bus.Bus, c *cpu.Cpu6502, m *Monitor) error {
	code := make([]byte, int(romload.JumpsStart-romload.CodeStart))
	for i := range code {
		code[i] = codeFillByte
	}

	jumps := buildJumps()
	vecs := buildVecs()

	segs := romload.DefaultSegments(len(code))
	if err := romload.Load(b, code, jumps, vecs, segs); err != nil {
		return err
	}

	c.SetTrap(monitorReentry, m.trapReentry)
	c.SetTrap(internalPrintChar, m.trapPrintChar)
	c.SetTrap(internalPrintStr, m.trapPrintStr)
	c.SetTrap(internalNewline, m.trapNewline)
	c.SetTrap(internalWaitKey, m.trapWaitKey)
	c.SetTrap(internalClear, m.trapClear)
	c.SetTrap(internalRand, m.trapRand)

	return nil
}

func buildJumps() []byte {
	targets := []uint16{
		internalPrintChar,
		internalPrintStr,
		internalNewline,
		internalWaitKey,
		internalClear,
		internalRand,
	}
	jumps := make([]byte, 0, 18)
	for _, t := range targets {
		jumps = append(jumps, 0x4C, byte(t), byte(t>>8)) // JMP abs
	}
	return jumps
}

func buildVecs() []byte {
	lo, hi := byte(monitorReentry&0xFF), byte(monitorReentry>>8)
	return []byte{lo, hi, lo, hi, lo, hi} // NMI, RESET, IRQ all reenter the monitor
}

// zpCursorCol and zpCursorRow mirror the kernel's zero-page cursor convention (§3):
// $D3 holds the column, $D6 the row.
const (
	zpCursorCol uint16 = 0x00D3
	zpCursorRow uint16 = 0x00D6
)

// zpPrintStrPtr is the zero-page pointer K_PRINT_STR reads its string
// address from (§6: "pointer is at zero-page $04/$05 low/high").
const zpPrintStrPtr uint16 = 0x0004

// zpRandBound is the zero-page byte K_RAND reads its inclusive upper
// bound from (§6: "$12 holds the inclusive upper bound").
const zpRandBound uint16 = 0x0012
