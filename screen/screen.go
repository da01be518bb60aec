// Package screen implements the 40x25 text video controller (§4.2): a
// 1000-byte framebuffer addressed at $0400-$07E7, cursor tracking, scroll,
// and a dirty flag consumed by the host driver.
package screen

const (
	// Cols is the number of character columns per row.
	Cols = 40
	// Rows is the number of character rows.
	Rows = 25
	// Size is the framebuffer length in bytes (Cols * Rows).
	Size = Cols * Rows

	// Base is the first address of the screen matrix on the bus.
	Base uint16 = 0x0400
	// End is the last address of the screen matrix on the bus.
	End uint16 = Base + Size - 1

	// SpaceChar is the fill byte used by Clear and ScrollUp.
	SpaceChar byte = 0x20
)

// Screen is the 40x25 character framebuffer, in row-major order
// (row*Cols + col), plus cursor position and a dirty flag.
type Screen struct {
	cells [Size]byte
	col   int
	row   int
	dirty bool
}

// New returns a Screen with the framebuffer cleared to spaces and the
// cursor homed at (0,0).
func New() *Screen {
	s := &Screen{}
	s.Clear()
	return s
}

func index(col, row int) int { return row*Cols + col }

// Claims reports whether addr falls within the screen matrix window; it
// also satisfies bus.Region so the screen can be attached directly to the
// bus.
func (s *Screen) Claims(addr uint16) bool {
	return addr >= Base && addr <= End
}

// Read returns the stored byte for a bus access within the screen window.
func (s *Screen) Read(addr uint16) byte {
	return s.cells[addr-Base]
}

// Write stores a byte for a bus access within the screen window and marks
// the screen dirty.
func (s *Screen) Write(addr uint16, data byte) {
	s.cells[addr-Base] = data
	s.dirty = true
}

// SetCursor moves the cursor to (col,row). Both the screen-editor contract
// (zero-page $D3/$D6) and direct callers use this; it is the single place
// the cursor-in-bounds invariant is enforced.
func (s *Screen) SetCursor(col, row int) {
	if col < 0 {
		col = 0
	}
	if col >= Cols {
		col = Cols - 1
	}
	if row < 0 {
		row = 0
	}
	if row >= Rows {
		row = Rows - 1
	}
	s.col, s.row = col, row
}

// Cursor returns the current cursor position.
func (s *Screen) Cursor() (col, row int) { return s.col, s.row }

// Clear fills the framebuffer with fillChar and homes the cursor, marking
// the screen dirty.
func (s *Screen) Clear(fillChar ...byte) {
	fill := SpaceChar
	if len(fillChar) > 0 {
		fill = fillChar[0]
	}
	for i := range s.cells {
		s.cells[i] = fill
	}
	s.col, s.row = 0, 0
	s.dirty = true
}

// ScrollUp moves rows 1..24 into rows 0..23 byte-for-byte and fills row 24
// with spaces, marking the screen dirty.
func (s *Screen) ScrollUp() {
	copy(s.cells[0:], s.cells[Cols:])
	for i := Size - Cols; i < Size; i++ {
		s.cells[i] = SpaceChar
	}
	s.dirty = true
}

// CharAt returns the byte at character cell (x,y).
func (s *Screen) CharAt(x, y int) byte {
	return s.cells[index(x, y)]
}

// SetCharAt writes the byte at character cell (x,y), marking the screen
// dirty.
func (s *Screen) SetCharAt(x, y int, b byte) {
	s.cells[index(x, y)] = b
	s.dirty = true
}

// TakeDirty returns whether the screen has been written to since the last
// call to TakeDirty, clearing the flag atomically relative to the caller.
func (s *Screen) TakeDirty() bool {
	d := s.dirty
	s.dirty = false
	return d
}

// Snapshot returns a defensive copy of the framebuffer for a host driver to
// render. It does not consult or clear the dirty flag.
func (s *Screen) Snapshot() [Size]byte {
	return s.cells
}
