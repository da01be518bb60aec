package bus

import "testing"

type fakeDevice struct {
	lo, hi uint16
	cells  map[uint16]byte
}

func newFakeDevice(lo, hi uint16) *fakeDevice {
	return &fakeDevice{lo: lo, hi: hi, cells: map[uint16]byte{}}
}

func (d *fakeDevice) Claims(addr uint16) bool { return addr >= d.lo && addr <= d.hi }
func (d *fakeDevice) Read(addr uint16) byte   { return d.cells[addr] }
func (d *fakeDevice) Write(addr uint16, v byte) {
	d.cells[addr] = v
}

// TestRAMRoundTrip checks §8 invariant 4 for addresses outside any device
// region.
func TestRAMRoundTrip(t *testing.T) {
	b := New()
	for _, addr := range []uint16{0x0000, 0x00FF, 0x0100, 0x8000, 0xFFFF} {
		b.Write(addr, 0xAB)
		if got := b.Read(addr); got != 0xAB {
			t.Errorf("addr %#x: got %#x, want 0xAB", addr, got)
		}
	}
}

func TestDeviceDispatch(t *testing.T) {
	b := New()
	dev := newFakeDevice(0xD000, 0xD00F)
	b.Attach(dev)

	b.Write(0xD000, 0x42)
	if got := b.Read(0xD000); got != 0x42 {
		t.Errorf("got %#x, want 0x42", got)
	}
	// A write inside the device's range must not touch the RAM backing byte.
	if b.RAMByte(0xD000) == 0x42 {
		t.Errorf("device write leaked into RAM backing byte")
	}

	// Outside the device's range, RAM is used as normal.
	b.Write(0xC000, 0x99)
	if got := b.Read(0xC000); got != 0x99 {
		t.Errorf("got %#x, want 0x99", got)
	}
}

func TestReadWordLittleEndian(t *testing.T) {
	b := New()
	b.Write(0x2000, 0x34)
	b.Write(0x2001, 0x12)

	if got := b.ReadWord(0x2000); got != 0x1234 {
		t.Errorf("got %#x, want 0x1234", got)
	}
}

func TestWriteWordLittleEndian(t *testing.T) {
	b := New()
	b.WriteWord(0x3000, 0xBEEF)

	if got := b.Read(0x3000); got != 0xEF {
		t.Errorf("low byte: got %#x, want 0xEF", got)
	}
	if got := b.Read(0x3001); got != 0xBE {
		t.Errorf("high byte: got %#x, want 0xBE", got)
	}
}

// TestReadWordNoPageWrap checks §4.1's edge case: ReadWord(0xFFFF) reads
// $FFFF then $0000 in natural ascending order, no wraparound within a page.
func TestReadWordNoPageWrap(t *testing.T) {
	b := New()
	b.Write(0xFFFF, 0x11)
	b.Write(0x0000, 0x22)

	if got := b.ReadWord(0xFFFF); got != 0x2211 {
		t.Errorf("got %#x, want 0x2211", got)
	}
}

func TestLoadPlacesBytesInRAM(t *testing.T) {
	b := New()
	b.Load([]byte{0xDE, 0xAD, 0xBE, 0xEF}, 0xF000)

	for i, want := range []byte{0xDE, 0xAD, 0xBE, 0xEF} {
		if got := b.Read(0xF000 + uint16(i)); got != want {
			t.Errorf("offset %d: got %#x, want %#x", i, got, want)
		}
	}
}
