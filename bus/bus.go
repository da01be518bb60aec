// Package bus implements the flat 64 KiB address space shared by the CPU,
// the text screen, and the peripheral interface adapter.
package bus

// Region is anything that can claim a slice of the 16-bit address space and
// service reads and writes within it. The bus holds an ordered list of
// regions and falls through to RAM; overlapping ranges never occur.
type Region interface {
	// Claims reports whether addr belongs to this region.
	Claims(addr uint16) bool
	Read(addr uint16) byte
	Write(addr uint16, data byte)
}

// Bus is the flat 64 KiB address space. It dispatches every access, in
// order, to the PIA, the Screen, or RAM.
type Bus struct {
	ram     [64 * 1024]byte
	regions []Region
}

// New creates a Bus with no mapped devices beyond RAM. Use Attach to map a
// device's address range onto the bus.
func New() *Bus {
	return &Bus{}
}

// Attach registers a device's region on the bus. Order matters only in that
// the first region that claims an address wins; the spec's regions never
// overlap, so in practice order is irrelevant.
func (b *Bus) Attach(r Region) {
	b.regions = append(b.regions, r)
}

// Read returns the byte at addr, routed through whichever region claims it,
// or the RAM backing byte if none does.
func (b *Bus) Read(addr uint16) byte {
	for _, r := range b.regions {
		if r.Claims(addr) {
			return r.Read(addr)
		}
	}
	return b.ram[addr]
}

// Write stores data at addr, routed through whichever region claims it, or
// into the RAM backing byte if none does. Writes to a device region never
// touch the underlying RAM byte.
func (b *Bus) Write(addr uint16, data byte) {
	for _, r := range b.regions {
		if r.Claims(addr) {
			r.Write(addr, data)
			return
		}
	}
	b.ram[addr] = data
}

// ReadWord reads a little-endian 16-bit value: the low byte at addr, the
// high byte at addr+1. No page-wrap emulation is performed, so
// ReadWord(0xFFFF) reads $FFFF then $0000 in natural ascending order; each
// half is routed independently and so may touch two different devices.
func (b *Bus) ReadWord(addr uint16) uint16 {
	lo := b.Read(addr)
	hi := b.Read(addr + 1)
	return uint16(hi)<<8 | uint16(lo)
}

// WriteWord writes a little-endian 16-bit value: the low byte at addr, the
// high byte at addr+1.
func (b *Bus) WriteWord(addr uint16, data uint16) {
	b.Write(addr, byte(data))
	b.Write(addr+1, byte(data>>8))
}

// Load copies bytes into RAM starting at start, bypassing device regions.
// Used to place ROM segments when the machine is built; the bus performs no
// write-protection, so ROM regions may be freely rewritten.
func (b *Bus) Load(data []byte, start uint16) {
	for i, v := range data {
		b.ram[start+uint16(i)] = v
	}
}

// RAMByte reads the raw RAM backing byte at addr, bypassing any device that
// might otherwise claim the address. Used by reset/power-on plumbing and by
// tests that need to inspect RAM underneath the screen or PIA windows.
func (b *Bus) RAMByte(addr uint16) byte {
	return b.ram[addr]
}
