package romload

import (
	"testing"

	"github.com/dasien/sixtwooh/bus"
)

func TestLoadPlacesSegmentsAtFixedAddresses(t *testing.T) {
	b := bus.New()

	code := make([]byte, int(JumpsStart-CodeStart))
	code[0] = 0xEA // first CODE byte
	jumps := make([]byte, 18)
	jumps[0] = 0x4C // first JUMPS byte (JMP)
	vecs := []byte{0x00, 0xF0, 0x00, 0xF0, 0x00, 0xF0}

	segs := DefaultSegments(len(code))
	if err := Load(b, code, jumps, vecs, segs); err != nil {
		t.Fatalf("Load: %v", err)
	}

	if got := b.Read(CodeStart); got != 0xEA {
		t.Errorf("CODE[0]: got %#x, want 0xEA", got)
	}
	if got := b.Read(JumpsStart); got != 0x4C {
		t.Errorf("JUMPS[0]: got %#x, want 0x4C", got)
	}
	if got := b.Read(VecsStart); got != 0x00 {
		t.Errorf("VECS[0]: got %#x, want 0x00", got)
	}
	if got := b.ReadWord(0xFFFC); got != 0xF000 {
		t.Errorf("reset vector: got %#x, want 0xF000", got)
	}
}

func TestLoadRejectsWrongSize(t *testing.T) {
	b := bus.New()
	segs := DefaultSegments(10)

	err := Load(b, make([]byte, 5), make([]byte, 18), make([]byte, 6), segs)
	if err == nil {
		t.Fatal("expected an error for mismatched CODE length")
	}
}

func TestAssembleProducesFullSizeROM(t *testing.T) {
	code := make([]byte, 10)
	jumps := make([]byte, 18)
	vecs := []byte{0x00, 0xF0, 0x00, 0xF0, 0x00, 0xF0}

	rom, err := Assemble(code, jumps, vecs)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if len(rom) != ROMSize {
		t.Errorf("got %d bytes, want %d", len(rom), ROMSize)
	}

	nmi, reset, irq, err := ReadVectors(rom)
	if err != nil {
		t.Fatalf("ReadVectors: %v", err)
	}
	if nmi != 0xF000 || reset != 0xF000 || irq != 0xF000 {
		t.Errorf("vectors: got (%#x, %#x, %#x), want all 0xF000", nmi, reset, irq)
	}
}

func TestAssembleJumpsLandAtFF00(t *testing.T) {
	code := make([]byte, 5)
	jumps := make([]byte, 18)
	jumps[0] = 0x4C
	vecs := make([]byte, 6)

	rom, err := Assemble(code, jumps, vecs)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if got := rom[JumpsStart-ROMBase]; got != 0x4C {
		t.Errorf("JUMPS offset: got %#x, want 0x4C", got)
	}
}
