// Command sixtwooh boots the machine and starts the terminal driver.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/dasien/sixtwooh/cmd/term"
	"github.com/dasien/sixtwooh/filestore"
	"github.com/dasien/sixtwooh/machine"
)

func main() {
	var (
		progDir = flag.String("programs", "./programs", "directory of loadable programs for the L: command")
		seed    = flag.Int64("seed", time.Now().UnixNano(), "seed for K_RAND")
		cpuLog  = flag.Bool("cpulog", false, "log every executed instruction to ./logs")
	)
	flag.Parse()

	files := filestore.NewDirStore(*progDir)

	mach, err := machine.New(files, *seed)
	if err != nil {
		log.Fatalf("sixtwooh: %v", err)
	}

	if *cpuLog {
		mach.SetLogger(newCPULogger())
	}

	mach.PowerOn()

	if _, err := tea.NewProgram(term.NewModel(mach)).Run(); err != nil {
		log.Fatalf("sixtwooh: %v", err)
	}
}

// newCPULogger opens a timestamped log file under ./logs and returns a
// logger writing one line per executed instruction, the way nes/cpu.go
// sets up its own per-CPU log file. A logger can't be a file that failed
// to open, so this is a start-up fatal path like the rest of main.
func newCPULogger() *log.Logger {
	if err := os.MkdirAll("./logs", 0755); err != nil {
		log.Fatalf("sixtwooh: unable to create log directory: %v", err)
	}

	logPath := fmt.Sprintf("./logs/cpu%s.log", time.Now().Format("20060102-150405"))
	f, err := os.OpenFile(logPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0664)
	if err != nil {
		log.Fatalf("sixtwooh: unable to create CPU log file: %v", err)
	}

	return log.New(f, "", 0)
}
