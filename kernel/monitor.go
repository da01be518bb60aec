package kernel

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"

	"github.com/dasien/sixtwooh/bus"
	"github.com/dasien/sixtwooh/cpu"
	"github.com/dasien/sixtwooh/pia"
	"github.com/dasien/sixtwooh/screen"
)

// Mode is the monitor's input mode (§4.6).
type Mode int

const (
	ModeCommand Mode = iota
	ModeWrite
	ModeLoad
)

// Monitor is the Go-native re-implementation of the ROM monitor: a line
// editor and command dispatcher driven by PrintChar/HandleKey instead of
// by the CPU fetch-decode loop. It holds the same references the
// jump-table traps need (bus, screen, PIA, CPU) since a trap is really
// just a monitor method bound to a PC value.
type Monitor struct {
	bus *bus.Bus
	scr *screen.Screen
	pia *pia.PIA
	cpu *cpu.Cpu6502
	rng *rand.Rand

	mode   Mode
	target uint16

	line []byte

	writeAddr uint16

	loadTarget         uint16
	awaitingLoadResult bool

	logicalChars int

	breakpoint    uint16
	breakpointSet bool

	userRunning bool
}

// NewMonitor constructs a Monitor bound to the given components. Call
// kernel.Install afterward to assemble the ROM and bind the monitor's
// trap handlers onto c.
func NewMonitor(b *bus.Bus, scr *screen.Screen, p *pia.PIA, c *cpu.Cpu6502, seed int64) *Monitor {
	return &Monitor{
		bus:  b,
		scr:  scr,
		pia:  p,
		cpu:  c,
		rng:  rand.New(rand.NewSource(seed)),
		mode: ModeCommand,
	}
}

// Reset returns the monitor to its power-on state: Command mode, target
// $0000, and prints the initial prompt. Call after the CPU's own reset.
func (m *Monitor) Reset() {
	m.mode = ModeCommand
	m.target = 0
	m.line = nil
	m.writeAddr = 0
	m.loadTarget = 0
	m.awaitingLoadResult = false
	m.logicalChars = 0
	m.breakpointSet = false
	m.userRunning = false
	m.printPrompt()
}

// Running reports whether control currently belongs to user code started
// by G: (the CPU should keep stepping) or to the monitor's own input loop.
func (m *Monitor) Running() bool { return m.userRunning }

// Mode returns the monitor's current input mode, mostly useful for tests.
func (m *Monitor) Mode() Mode { return m.mode }

// Target returns the monitor's current target address, as shown in the
// prompt.
func (m *Monitor) Target() uint16 { return m.target }

// CheckBreakpoint stops a running program at its breakpoint address, if
// one is set, the way machine.Run checks it between instructions (§4.6
// "(added) breakpoint").
func (m *Monitor) CheckBreakpoint() {
	if m.userRunning && m.breakpointSet && m.cpu.Pc == m.breakpoint {
		m.trapReentry(m.cpu)
	}
}

// NotifyLoadComplete reports the result of an L: file-load request back
// to the monitor, once the machine's per-instruction file service has
// resolved it against the file store.
func (m *Monitor) NotifyLoadComplete(n int, err error) {
	m.awaitingLoadResult = false
	if err != nil {
		m.printLine("ERROR")
	} else {
		m.printLine(fmt.Sprintf("%d OK", n))
	}
	m.printPrompt()
}

////////////////////////////////////////////////////////////////
// Key handling / line editing

// HandleKey feeds one ASCII byte from the driver into the monitor's line
// editor, echoing it to the screen and dispatching a command once a CR
// completes the line.
func (m *Monitor) HandleKey(ascii byte) {
	switch ascii {
	case 0x08:
		m.backspace()
	case 0x0D:
		line := string(m.line)
		m.line = nil
		m.PrintChar(0x0D)
		m.dispatch(line)
	default:
		m.line = append(m.line, ascii)
		m.PrintChar(ascii)
	}
}

func (m *Monitor) backspace() {
	if len(m.line) == 0 {
		return
	}
	m.line = m.line[:len(m.line)-1]

	col, row := m.scr.Cursor()
	if col == 0 {
		if row > 0 {
			row--
			col = 39
		}
	} else {
		col--
	}
	m.scr.SetCharAt(col, row, screen.SpaceChar)
	m.scr.SetCursor(col, row)
	if m.logicalChars > 0 {
		m.logicalChars--
	}
	m.mirrorCursor()
}

////////////////////////////////////////////////////////////////
// Output (shared by the monitor's own echo and the K_PRINT_CHAR trap)

// PrintChar implements the K_PRINT_CHAR contract (§6): writes ascii at
// the cursor, advances it, wraps at column 39, scrolls on row 24
// overflow, and enforces the 80-character logical-line limit (§4.2, §8
// invariant 6). A CR ends the logical line instead of being printed.
func (m *Monitor) PrintChar(ascii byte) {
	if ascii == 0x0D {
		m.logicalChars = 0
		m.advanceLine()
		return
	}
	if m.logicalChars >= 80 {
		return
	}

	col, row := m.scr.Cursor()
	m.scr.SetCharAt(col, row, ascii)
	m.logicalChars++

	col++
	if col > 39 {
		col = 0
		row++
		if row > 24 {
			m.scr.ScrollUp()
			row = 24
		}
	}
	m.scr.SetCursor(col, row)
	m.mirrorCursor()
}

func (m *Monitor) advanceLine() {
	_, row := m.scr.Cursor()
	row++
	if row > 24 {
		m.scr.ScrollUp()
		row = 24
	}
	m.scr.SetCursor(0, row)
	m.mirrorCursor()
}

func (m *Monitor) mirrorCursor() {
	col, row := m.scr.Cursor()
	m.bus.Write(zpCursorCol, byte(col))
	m.bus.Write(zpCursorRow, byte(row))
}

func (m *Monitor) printLine(s string) {
	for i := 0; i < len(s); i++ {
		m.PrintChar(s[i])
	}
	m.PrintChar(0x0D)
}

func (m *Monitor) printError(msg string) {
	m.printLine(msg)
}

func (m *Monitor) printPrompt() {
	m.printLine(fmt.Sprintf("%04X>", m.target))
}

////////////////////////////////////////////////////////////////
// Jump-table traps

func (m *Monitor) trapReentry(c *cpu.Cpu6502) {
	m.userRunning = false
	m.logicalChars = 0
	m.printPrompt()
}

func (m *Monitor) trapPrintChar(c *cpu.Cpu6502) {
	m.PrintChar(c.A)
	c.Return()
}

func (m *Monitor) trapPrintStr(c *cpu.Cpu6502) {
	ptr := m.bus.ReadWord(zpPrintStrPtr)
	for {
		b := m.bus.Read(ptr)
		if b == 0x00 {
			break
		}
		m.PrintChar(b)
		ptr++
	}
	c.Return()
}

func (m *Monitor) trapNewline(c *cpu.Cpu6502) {
	m.logicalChars = 0
	m.advanceLine()
	c.Return()
}

// trapWaitKey implements K_WAIT_KEY's spin (§6): if no key is ready, it
// leaves PC at the trap address so the next Step retries, rather than
// blocking inside one instruction.
func (m *Monitor) trapWaitKey(c *cpu.Cpu6502) {
	if m.pia.Read(pia.KeyStatus)&0x01 == 0 {
		return
	}
	c.A = m.pia.Read(pia.KeyData)
	c.Return()
}

func (m *Monitor) trapClear(c *cpu.Cpu6502) {
	m.scr.Clear()
	m.logicalChars = 0
	m.mirrorCursor()
	c.Return()
}

func (m *Monitor) trapRand(c *cpu.Cpu6502) {
	upper := m.bus.Read(zpRandBound)
	if upper < 1 {
		upper = 1
	}
	c.A = byte(1 + m.rng.Intn(int(upper)))
	c.Return()
}

////////////////////////////////////////////////////////////////
// Command dispatch (§4.6)

func (m *Monitor) dispatch(line string) {
	trimmed := strings.TrimSpace(line)

	if strings.EqualFold(trimmed, "X:") {
		m.mode = ModeCommand
		m.printPrompt()
		return
	}

	switch m.mode {
	case ModeWrite:
		m.applyWriteLine(trimmed)
		m.printPrompt()
		return
	case ModeLoad:
		m.applyLoad(trimmed)
		m.mode = ModeCommand
		if !m.awaitingLoadResult {
			m.printPrompt()
		}
		return
	}

	if trimmed == "" {
		m.printPrompt()
		return
	}
	if len(trimmed) < 2 || trimmed[1] != ':' {
		m.printError("?CMD")
		return
	}

	letter := strings.ToUpper(trimmed[:1])
	rest := trimmed[2:]

	switch letter {
	case "W":
		m.cmdWrite(rest)
	case "R":
		m.cmdRead(rest)
	case "G":
		m.cmdGo(rest)
	case "L":
		m.cmdLoad(rest)
	case "F":
		m.cmdFill(rest)
	case "M":
		m.cmdMove(rest)
	case "K":
		m.cmdClear()
	case "S":
		m.cmdDumpStack()
	case "Z":
		m.cmdDumpZeroPage()
	case "T":
		m.cmdTarget()
	case "H":
		m.cmdHelp()
	case "D":
		m.cmdDisasm(rest)
	case "P":
		m.cmdRegisters()
	case "B":
		m.cmdBreakpoint(rest)
	default:
		m.printError("?CMD")
		return
	}

	if !m.userRunning {
		m.printPrompt()
	}
}

func (m *Monitor) cmdWrite(rest string) {
	fields := strings.Fields(rest)
	if len(fields) == 0 {
		m.printError("?ADDR")
		return
	}
	addr, err := parseHex16(fields[0])
	if err != nil {
		m.printError("?ADDR")
		return
	}

	if len(fields) == 1 {
		m.target = addr
		cur := m.bus.Read(addr)
		m.printLine(formatBytesLine(addr, []byte{cur}))
		m.mode = ModeWrite
		m.writeAddr = addr
		return
	}

	bs := make([]byte, 0, len(fields)-1)
	for _, f := range fields[1:] {
		v, err := parseHex8(f)
		if err != nil {
			m.printError("?BYTE")
			return
		}
		bs = append(bs, v)
	}
	m.writeBytesAt(addr, bs)
	m.target = addr + uint16(len(bs))
}

func (m *Monitor) applyWriteLine(line string) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return
	}
	bs := make([]byte, 0, len(fields))
	for _, f := range fields {
		v, err := parseHex8(f)
		if err != nil {
			m.printError("?BYTE")
			return
		}
		bs = append(bs, v)
	}
	m.writeBytesAt(m.writeAddr, bs)
	m.writeAddr += uint16(len(bs))
	m.target = m.writeAddr
}

func (m *Monitor) writeBytesAt(addr uint16, bs []byte) {
	old := make([]byte, len(bs))
	for i := range bs {
		old[i] = m.bus.Read(addr + uint16(i))
	}
	m.printLine(formatBytesLine(addr, old))
	for i, b := range bs {
		m.bus.Write(addr+uint16(i), b)
	}
	m.printLine(formatBytesLine(addr, bs))
}

func (m *Monitor) cmdRead(rest string) {
	parts := strings.SplitN(rest, "-", 2)
	start, err := parseHex16(parts[0])
	if err != nil {
		m.printError("?ADDR")
		return
	}

	if len(parts) == 1 {
		m.target = start
		m.printLine(formatBytesLine(start, []byte{m.bus.Read(start)}))
		return
	}

	end, err := parseHex16(parts[1])
	if err != nil || end < start {
		m.printError("?RANGE")
		return
	}
	m.target = start
	m.dumpRangeRows(start, end, 8)
}

func (m *Monitor) dumpRangeRows(start, end uint16, perRow int) {
	addr := uint32(start)
	last := uint32(end)
	for addr <= last {
		rowEnd := addr + uint32(perRow) - 1
		if rowEnd > last {
			rowEnd = last
		}
		bs := make([]byte, 0, perRow)
		for a := addr; a <= rowEnd; a++ {
			bs = append(bs, m.bus.Read(uint16(a)))
		}
		m.printLine(formatBytesLine(uint16(addr), bs))
		addr = rowEnd + 1
	}
}

func (m *Monitor) cmdGo(rest string) {
	addr, err := parseHex16(rest)
	if err != nil {
		m.printError("?ADDR")
		return
	}
	m.target = addr
	m.userRunning = true
	m.cpu.Call(addr, monitorReentry-1)
}

func (m *Monitor) cmdLoad(rest string) {
	addr, err := parseHex16(rest)
	if err != nil {
		m.printError("?ADDR")
		return
	}
	m.loadTarget = addr
	m.printLine("FILENAME?")
	m.mode = ModeLoad
}

func (m *Monitor) applyLoad(filename string) {
	if filename == "" || len(filename) > pia.NameLen-1 {
		m.printError("?NAME")
		return
	}
	for i := 0; i < len(filename); i++ {
		m.pia.Write(pia.NameBase+uint16(i), filename[i])
	}
	m.pia.Write(pia.NameBase+uint16(len(filename)), 0x00)
	m.pia.Write(pia.AddrLo, byte(m.loadTarget))
	m.pia.Write(pia.AddrHi, byte(m.loadTarget>>8))
	m.pia.Write(pia.Command, pia.CmdLoad)
	m.awaitingLoadResult = true
}

func (m *Monitor) cmdFill(rest string) {
	parts := strings.SplitN(rest, ",", 2)
	if len(parts) != 2 {
		m.printError("?FILL")
		return
	}
	start, end, ok := parseRange(parts[0])
	if !ok || start > end {
		m.printError("?RANGE")
		return
	}
	val, err := parseHex8(parts[1])
	if err != nil {
		m.printError("?VALUE")
		return
	}
	for a := uint32(start); a <= uint32(end); a++ {
		m.bus.Write(uint16(a), val)
	}
	m.target = start
	m.printLine("OK")
}

func (m *Monitor) cmdMove(rest string) {
	fields := strings.Split(rest, ",")
	if len(fields) != 3 {
		m.printError("?MOVE")
		return
	}
	start, end, ok := parseRange(fields[0])
	if !ok || start > end {
		m.printError("?RANGE")
		return
	}
	dest, err := parseHex16(fields[1])
	if err != nil {
		m.printError("?DEST")
		return
	}
	mode, err := parseHex8(fields[2])
	if err != nil || (mode != 0 && mode != 1) {
		m.printError("?MODE")
		return
	}

	length := uint32(end) - uint32(start) + 1
	buf := make([]byte, length)
	for i := uint32(0); i < length; i++ {
		buf[i] = m.bus.Read(start + uint16(i))
	}
	for i, b := range buf {
		m.bus.Write(dest+uint16(i), b)
	}
	if mode == 1 {
		for a := uint32(start); a <= uint32(end); a++ {
			m.bus.Write(uint16(a), 0x00)
		}
	}
	m.target = dest
	m.printLine("OK")
}

func (m *Monitor) cmdClear() {
	m.scr.Clear()
	m.logicalChars = 0
	m.mirrorCursor()
}

func (m *Monitor) cmdDumpStack() {
	m.dumpRangeRows(0x0100, 0x01FF, 16)
}

func (m *Monitor) cmdDumpZeroPage() {
	m.dumpRangeRows(0x0000, 0x00FF, 16)
}

func (m *Monitor) cmdTarget() {
	m.printLine(formatBytesLine(m.target, []byte{m.bus.Read(m.target)}))
}

func (m *Monitor) cmdHelp() {
	m.printLine("MONITOR: W R G L F M K S Z T H D P B X")
}

func (m *Monitor) cmdDisasm(rest string) {
	start, end, ok := parseRange(rest)
	if !ok {
		m.printError("?RANGE")
		return
	}
	m.target = start
	for addr := uint32(start); addr <= uint32(end); addr++ {
		op := m.bus.Read(uint16(addr))
		m.printLine(fmt.Sprintf("%04X: %02X %s", addr, op, m.cpu.MnemonicAt(op)))
	}
}

func (m *Monitor) cmdRegisters() {
	c := m.cpu
	m.printLine(fmt.Sprintf("A=%02X X=%02X Y=%02X SP=%02X PC=%04X P=%s",
		c.A, c.X, c.Y, c.Sp, c.Pc, flagString(c.StatusByte())))
}

func (m *Monitor) cmdBreakpoint(rest string) {
	rest = strings.TrimSpace(rest)
	if rest == "" {
		m.breakpointSet = false
		m.printLine("OK")
		return
	}
	addr, err := parseHex16(rest)
	if err != nil {
		m.printError("?ADDR")
		return
	}
	m.breakpoint = addr
	m.breakpointSet = true
	m.printLine("OK")
}

////////////////////////////////////////////////////////////////
// Parsing helpers

func parseHex16(s string) (uint16, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 16, 16)
	if err != nil {
		return 0, err
	}
	return uint16(v), nil
}

func parseHex8(s string) (byte, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 16, 8)
	if err != nil {
		return 0, err
	}
	return byte(v), nil
}

func parseRange(s string) (start, end uint16, ok bool) {
	parts := strings.SplitN(s, "-", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	st, err1 := parseHex16(parts[0])
	en, err2 := parseHex16(parts[1])
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return st, en, true
}

func formatBytesLine(addr uint16, bs []byte) string {
	parts := make([]string, len(bs))
	for i, b := range bs {
		parts[i] = fmt.Sprintf("%02X", b)
	}
	return fmt.Sprintf("%04X: %s", addr, strings.Join(parts, " "))
}

func flagString(p byte) string {
	const letters = "NV1BDIZC"
	out := make([]byte, 8)
	for i := 0; i < 8; i++ {
		bit := byte(1) << uint(7-i)
		if p&bit != 0 {
			out[i] = letters[i]
		} else {
			out[i] = '-'
		}
	}
	return string(out)
}
