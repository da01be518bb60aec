// Package machine is the composition root: it wires the CPU, bus, screen,
// and PIA together with the kernel monitor, and drives the per-instruction
// loop a host frontend (cmd/term, or a test) steps through §5's ordering:
// run the CPU when user code is in control, let the monitor handle keys
// directly otherwise, and service at most one PIA file-load request per
// instruction.
package machine

import (
	"errors"
	"log"

	"github.com/dasien/sixtwooh/bus"
	"github.com/dasien/sixtwooh/cpu"
	"github.com/dasien/sixtwooh/filestore"
	"github.com/dasien/sixtwooh/kernel"
	"github.com/dasien/sixtwooh/pia"
	"github.com/dasien/sixtwooh/screen"
)

// Machine owns every component of the system and the file store the PIA's
// load requests are serviced against.
type Machine struct {
	Bus     *bus.Bus
	Cpu     *cpu.Cpu6502
	Screen  *screen.Screen
	Pia     *pia.PIA
	Monitor *kernel.Monitor

	files filestore.FileStore
}

// New builds a machine with all devices attached and the kernel installed,
// but not yet powered on. files is consulted to service L: load requests;
// pass a filestore.MapStore for tests or a filestore.DirStore for a real
// directory of loadable programs.
func New(files filestore.FileStore, randSeed int64) (*Machine, error) {
	b := bus.New()
	scr := screen.New()
	p := pia.New()
	b.Attach(p)
	b.Attach(scr)

	c := cpu.New(b)
	m := kernel.NewMonitor(b, scr, p, c, randSeed)

	if err := kernel.Install(b, c, m); err != nil {
		return nil, err
	}

	return &Machine{
		Bus:     b,
		Cpu:     c,
		Screen:  scr,
		Pia:     p,
		Monitor: m,
		files:   files,
	}, nil
}

// SetLogger directs per-instruction CPU logging to l; nil (the default)
// disables it. The only ambient sink in the system runs through here, so
// cmd/sixtwooh/cmd/term configure it once at start-up rather than each
// package reaching for its own logger.
func (mach *Machine) SetLogger(l *log.Logger) {
	mach.Cpu.SetLogger(l)
}

// PowerOn resets the CPU and the monitor, landing in Command mode at the
// monitor prompt (§2).
func (mach *Machine) PowerOn() {
	mach.Cpu.PowerOnReset()
	mach.Monitor.Reset()
}

// Reset re-homes the machine to Command mode without clearing RAM, mirroring
// the 6502's own RESET behavior of leaving memory intact.
func (mach *Machine) Reset() {
	mach.Cpu.TriggerReset()
	mach.Monitor.Reset()
}

// KeyPressed delivers one ASCII key from the host driver. While user code
// is running, keys go to the PIA's FIFO for K_WAIT_KEY to consume; while
// the monitor has control, keys go straight to its line editor (§4.3, §5).
func (mach *Machine) KeyPressed(ascii byte) {
	if mach.Monitor.Running() {
		mach.Pia.EnqueueKey(ascii)
		return
	}
	mach.Monitor.HandleKey(ascii)
}

// Step advances the machine by exactly one CPU instruction when user code
// is running, then services at most one pending PIA file-load request
// (§4.3, §5: "the machine services file requests between instructions").
// It does not step the CPU when the monitor has control, since the monitor
// consumes keys synchronously rather than being driven by Step; the file
// request is still serviced in that case.
func (mach *Machine) Step() {
	if mach.Monitor.Running() {
		mach.Cpu.Step()
		mach.Monitor.CheckBreakpoint()
	}
	mach.serviceFileRequest()
}

// Run advances the machine by up to n Step calls, stopping early if the
// monitor regains control (i.e. user code returned or hit a breakpoint)
// and the caller has nothing left to drive the CPU with. It always returns
// after n steps or when the monitor takes control, whichever comes first,
// so a host driver can bound how much work one tick of its own loop does.
func (mach *Machine) Run(n int) {
	for i := 0; i < n; i++ {
		wasRunning := mach.Monitor.Running()
		mach.Step()
		if wasRunning && !mach.Monitor.Running() {
			return
		}
	}
}

// serviceFileRequest resolves one pending PIA load request, if any,
// against the machine's file store, copies the bytes onto the bus at the
// requested target address, and reports the outcome back through the PIA's
// result register and the monitor's load-completion hook.
func (mach *Machine) serviceFileRequest() {
	name, target, pending := mach.Pia.PendingRequest()
	if !pending {
		return
	}

	data, err := mach.files.OpenRead(name)
	if err != nil {
		mach.Pia.CompleteRequest(resultFor(err))
		mach.Monitor.NotifyLoadComplete(0, err)
		return
	}

	for i, b := range data {
		mach.Bus.Write(target+uint16(i), b)
	}

	mach.Pia.CompleteRequest(pia.ResultOK)
	mach.Monitor.NotifyLoadComplete(len(data), nil)
}

func resultFor(err error) byte {
	if errors.Is(err, filestore.ErrNotFound) {
		return pia.ResultNotFound
	}
	return pia.ResultReadError
}
