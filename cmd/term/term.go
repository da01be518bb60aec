// Package term is a bubbletea TUI driver for the machine: it renders the
// 40x25 screen buffer, forwards key presses into machine.Machine, and
// drives the per-tick CPU stepping when user code is running. Grounded on
// hejops-gone/cpu/debugger.go's bubbletea model shape, generalized from a
// single-step debugger into a free-running terminal.
package term

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dasien/sixtwooh/machine"
	"github.com/dasien/sixtwooh/screen"
)

// stepsPerTick bounds how much CPU work one tick message drives, so the UI
// keeps redrawing even while user code runs a tight loop between
// K_WAIT_KEY calls.
const stepsPerTick = 2000

// tickInterval is how often the model re-steps the machine and redraws.
const tickInterval = 16 * time.Millisecond

var (
	borderStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(0, 1)
	cursorStyle = lipgloss.NewStyle().
			Reverse(true)
)

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

type model struct {
	mach *machine.Machine
}

// NewModel wraps mach in a bubbletea model ready to hand to tea.NewProgram.
func NewModel(mach *machine.Machine) tea.Model {
	return model{mach: mach}
}

func (m model) Init() tea.Cmd {
	return tick()
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		for _, ascii := range keyToASCII(msg) {
			m.mach.KeyPressed(ascii)
		}
		return m, nil

	case tickMsg:
		m.mach.Run(stepsPerTick)
		return m, tick()
	}
	return m, nil
}

func (m model) View() string {
	snap := m.mach.Screen.Snapshot()
	col, row := m.mach.Screen.Cursor()

	var b strings.Builder
	for r := 0; r < screen.Rows; r++ {
		for c := 0; c < screen.Cols; c++ {
			ch := snap[r*screen.Cols+c]
			if ch == 0x00 {
				ch = ' '
			}
			if c == col && r == row {
				b.WriteString(cursorStyle.Render(string(rune(ch))))
			} else {
				b.WriteByte(ch)
			}
		}
		b.WriteByte('\n')
	}

	status := fmt.Sprintf("PC:%04X A:%02X X:%02X Y:%02X SP:%02X running:%v  %s",
		m.mach.Cpu.Pc, m.mach.Cpu.A, m.mach.Cpu.X, m.mach.Cpu.Y, m.mach.Cpu.Sp, m.mach.Monitor.Running(),
		m.mach.Cpu.Disassemble())

	return lipgloss.JoinVertical(
		lipgloss.Left,
		borderStyle.Render(b.String()),
		status,
	)
}

// keyToASCII translates a bubbletea key event into zero or more ASCII
// bytes for KeyPressed. Printable runes pass through; Enter and Backspace
// map onto the monitor's CR/BS control codes (§4.6).
func keyToASCII(msg tea.KeyMsg) []byte {
	switch msg.Type {
	case tea.KeyEnter:
		return []byte{0x0D}
	case tea.KeyBackspace:
		return []byte{0x08}
	case tea.KeySpace:
		return []byte{' '}
	case tea.KeyRunes:
		out := make([]byte, 0, len(msg.Runes))
		for _, r := range msg.Runes {
			if r >= 0x20 && r < 0x7F {
				out = append(out, byte(r))
			}
		}
		return out
	}
	return nil
}
