//go:build linux && (amd64 || arm64 || riscv64 || loong64 || ppc64le || s390x)

package main

import (
	"runtime"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"
)

// crash kills the process with SIGSEGV. The Go runtime catches SIGSEGV even
// when sent with kill and exits with status 2 instead, so the default
// disposition is restored first.
func crash() error {
	runtime.LockOSThread()
	if err := restoreDefault(unix.SIGSEGV); err != nil {
		return err
	}
	if err := unix.Tgkill(unix.Getpid(), unix.Gettid(), unix.SIGSEGV); err != nil {
		return err
	}
	// Delivery to the calling thread happens on return from the syscall;
	// this only runs if the signal was somehow not fatal.
	time.Sleep(time.Second)
	return nil
}

// sigactiont is the kernel's struct sigaction on 64-bit Linux. Only the
// all-zero value is ever passed, which means SIG_DFL with an empty mask
// whether or not the port has a restorer field.
type sigactiont struct {
	handler  uintptr
	flags    uint64
	restorer uintptr
	mask     uint64
}

// restoreDefault installs SIG_DFL for sig, bypassing the Go runtime's
// handler.
func restoreDefault(sig unix.Signal) error {
	var sa sigactiont // zero handler is SIG_DFL
	_, _, errno := unix.RawSyscall6(unix.SYS_RT_SIGACTION,
		uintptr(sig), uintptr(unsafe.Pointer(&sa)), 0, unsafe.Sizeof(sa.mask), 0, 0)
	if errno != 0 {
		return errno
	}
	return nil
}
