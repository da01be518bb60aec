// Package romload places the assembled CODE/JUMPS/VECS ROM segments into
// a bus's backing RAM when the machine is built, the way the kernel's own compiler
// toolchain would, were it the thing producing the map file.
package romload

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// ROMBase is the first address of the $F000-$FFFF ROM window.
const ROMBase uint16 = 0xF000

// ROMSize is the full size of the ROM window in bytes.
const ROMSize = 0x1000

// CodeStart, JumpsStart and VecsStart are the fixed segment boundaries
// from the ROM format: CODE runs up to (not including) JumpsStart, JUMPS
// is 18 bytes (six three-byte JMPs), VECS is the final 6 bytes.
const (
	CodeStart  uint16 = 0xF000
	JumpsStart uint16 = 0xFF00
	JumpsEnd   uint16 = 0xFF11
	VecsStart  uint16 = 0xFFFA
	VecsEnd    uint16 = 0xFFFF
)

// Segment is the (start, end, size) tuple the external map-file parser
// yields for each of CODE, JUMPS and VECS. Size is redundant with
// end-start+1 but is carried because that's the shape the toolchain
// hands the loader.
type Segment struct {
	Start uint16
	End   uint16
	Size  int
}

// RAM is the subset of bus.Bus that romload needs: a way to place raw
// bytes without going through device dispatch, matching how ROM is
// burned in rather than written through a peripheral.
type RAM interface {
	Load(data []byte, start uint16)
}

// Load copies the code, jumps and vecs segments into b at their fixed
// ROM addresses, using offset = segment.Start - 0xF000 as specified.
// Each slice's length must match its segment's declared size.
func Load(b RAM, code, jumps, vecs []byte, segs [3]Segment) error {
	named := map[string][]byte{"CODE": code, "JUMPS": jumps, "VECS": vecs}
	order := []string{"CODE", "JUMPS", "VECS"}

	for i, seg := range segs {
		name := order[i]
		data := named[name]
		if len(data) != seg.Size {
			return fmt.Errorf("romload: segment %s: got %d bytes, want %d", name, len(data), seg.Size)
		}
		if seg.Start < ROMBase || seg.End > ROMBase+(ROMSize-1) {
			return fmt.Errorf("romload: segment %s: range %#04x-%#04x outside ROM window", name, seg.Start, seg.End)
		}

		b.Load(data, seg.Start)
	}
	return nil
}

// DefaultSegments returns the standard CODE/JUMPS/VECS tuple used when no
// external map file overrides the layout: CODE from $F000 up to (not
// including) $FF00, JUMPS at $FF00-$FF11, VECS at $FFFA-$FFFF.
func DefaultSegments(codeLen int) [3]Segment {
	jumpsStart := JumpsStart
	return [3]Segment{
		{Start: CodeStart, End: jumpsStart - 1, Size: codeLen},
		{Start: JumpsStart, End: JumpsEnd, Size: int(JumpsEnd-JumpsStart) + 1},
		{Start: VecsStart, End: VecsEnd, Size: int(VecsEnd-VecsStart) + 1},
	}
}

// Assemble concatenates code, jumps and vecs into one 4096-byte ROM blob
// representing $F000-$FFFF, padding any gap between the end of code and
// the start of JUMPS with 0xFF (matching unprogrammed-ROM convention).
func Assemble(code, jumps, vecs []byte) ([]byte, error) {
	segs := DefaultSegments(len(code))

	var buf bytes.Buffer
	buf.Write(code)
	for buf.Len() < int(segs[1].Start-ROMBase) {
		buf.WriteByte(0xFF)
	}
	buf.Write(jumps)
	for buf.Len() < int(segs[2].Start-ROMBase) {
		buf.WriteByte(0xFF)
	}
	buf.Write(vecs)

	if buf.Len() != ROMSize {
		return nil, fmt.Errorf("romload: assembled ROM is %d bytes, want %d", buf.Len(), ROMSize)
	}
	return buf.Bytes(), nil
}

// ReadVectors extracts the NMI/RESET/IRQ vector words from a fully
// assembled 4096-byte ROM blob, matching the (NMI_L, NMI_H, RST_L, RST_H,
// IRQ_L, IRQ_H) layout of the VECS segment.
func ReadVectors(rom []byte) (nmi, reset, irq uint16, err error) {
	if len(rom) != ROMSize {
		return 0, 0, 0, fmt.Errorf("romload: ROM blob is %d bytes, want %d", len(rom), ROMSize)
	}
	vecs := rom[VecsStart-ROMBase : VecsEnd-ROMBase+1]
	r := bytes.NewReader(vecs)
	var words [3]uint16
	if err := binary.Read(r, binary.LittleEndian, &words); err != nil {
		return 0, 0, 0, err
	}
	return words[0], words[1], words[2], nil
}
