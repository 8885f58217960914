// Command sigsegv sleeps for n seconds in one-second steps and then crashes
// itself with SIGSEGV. It exercises the shell's crash reporting.
package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"golang.org/x/sys/unix"
)

const (
	exitUsage       = 1
	exitRaiseFailed = 2
)

func main() {
	os.Exit(run(os.Args))
}

func run(args []string) int {
	if len(args) != 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <n>\n", args[0])
		return exitUsage
	}
	secs, err := strconv.Atoi(args[1])
	if err != nil || secs < 0 {
		fmt.Fprintf(os.Stderr, "Usage: %s <n>\n", args[0])
		return exitUsage
	}
	for i := 0; i < secs; i++ {
		time.Sleep(time.Second)
	}

	if err := crash(); err != nil {
		fmt.Fprintf(os.Stderr, "Problem crashing process %d: %v\n", unix.Getpid(), err)
		return exitRaiseFailed
	}
	fmt.Fprintf(os.Stderr, "Problem crashing process %d.\n", unix.Getpid())
	return exitRaiseFailed
}
