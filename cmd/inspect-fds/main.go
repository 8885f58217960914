// Command inspect-fds lists the open file descriptors of its own process,
// one per line as "fd access target". Run inside a pipeline, it shows which
// descriptors the shell let the command inherit.
//
// Linux only: it reads /proc/self/fd and /proc/self/fdinfo.
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"golang.org/x/sys/unix"
)

func main() {
	if err := run(os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "inspect-fds: %v\n", err)
		os.Exit(1)
	}
}

func run(w io.Writer) error {
	fds, err := openFDs()
	if err != nil {
		return err
	}

	pipes := map[string]*color.Color{}
	palette := []color.Attribute{color.FgHiRed, color.FgHiGreen, color.FgHiYellow, color.FgHiBlue, color.FgHiMagenta, color.FgHiCyan}
	for _, fd := range fds {
		target, err := readlink(fd)
		if err != nil {
			continue // closed since listing
		}
		if strings.HasPrefix(target, "pipe:") {
			c, ok := pipes[target]
			if !ok {
				c = color.New(palette[len(pipes)%len(palette)])
				pipes[target] = c
			}
			target = c.Sprintf("<pipe #%s>", strings.Trim(target[len("pipe:"):], "[]"))
		} else if strings.HasPrefix(target, "/dev/pts/") {
			target = "<terminal>"
		}
		fmt.Fprintf(w, "%d %s %s\n", fd, access(fd), target)
	}
	return nil
}

func readlink(fd int) (string, error) {
	return readlinkPath(filepath.Join("/proc/self/fd", strconv.Itoa(fd)))
}

// readlinkPath grows its buffer until the target fits; readlink(2)
// truncates silently.
func readlinkPath(path string) (string, error) {
	for size := 128; ; size *= 2 {
		buf := make([]byte, size)
		n, err := unix.Readlink(path, buf)
		if err != nil {
			return "", err
		}
		if n < size {
			return string(buf[:n]), nil
		}
	}
}

// openFDs lists /proc/self/fd with raw system calls. Going through os would
// start the runtime's poller, whose descriptors would then show up too.
func openFDs() ([]int, error) {
	dir, err := unix.Open("/proc/self/fd", unix.O_RDONLY|unix.O_DIRECTORY|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("open /proc/self/fd: %w", err)
	}
	defer unix.Close(dir)

	var names []string
	buf := make([]byte, 4096)
	for {
		n, err := unix.ReadDirent(dir, buf)
		if err != nil {
			return nil, fmt.Errorf("read /proc/self/fd: %w", err)
		}
		if n <= 0 {
			break
		}
		_, _, names = unix.ParseDirent(buf[:n], -1, names)
	}

	var fds []int
	for _, name := range names {
		fd, err := strconv.Atoi(name)
		if err != nil || fd == dir {
			continue
		}
		fds = append(fds, fd)
	}
	sort.Ints(fds)
	return fds, nil
}

// access reads the descriptor's open mode from /proc/self/fdinfo.
func access(fd int) string {
	data, err := readProc(filepath.Join("/proc/self/fdinfo", strconv.Itoa(fd)))
	if err != nil {
		return "(unknown)"
	}
	for _, line := range strings.Split(string(data), "\n") {
		field, value, ok := strings.Cut(line, ":")
		if !ok || field != "flags" {
			continue
		}
		flags, err := strconv.ParseInt(strings.TrimSpace(value), 8, 64)
		if err != nil {
			break
		}
		switch flags & unix.O_ACCMODE {
		case unix.O_WRONLY:
			return "(write)"
		case unix.O_RDWR:
			return "(read/write)"
		default:
			return "(read)"
		}
	}
	return "(unknown)"
}

func readProc(path string) ([]byte, error) {
	fd, err := unix.Open(path, unix.O_RDONLY|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, err
	}
	defer unix.Close(fd)
	buf := make([]byte, 1024)
	n, err := unix.Read(fd, buf)
	if err != nil {
		return nil, err
	}
	return buf[:n], nil
}
