// Copyright 2026 Marcelo Cantos
// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"fmt"
	"os"
)

// channel is one pipe between adjacent commands. Both ends are opened
// close-on-exec by os.Pipe, so a child only ever holds the ends it is
// explicitly handed.
type channel struct {
	r, w *os.File
}

// chain holds the N-1 channels of an N-command pipeline. Channel i carries
// command i's stdout to command i+1's stdin.
type chain struct {
	channels []channel
}

// newChain allocates every channel up front. On failure, channels already
// created are closed.
func newChain(n int) (*chain, error) {
	c := &chain{}
	if n < 2 {
		return c, nil
	}
	c.channels = make([]channel, 0, n-1)
	for i := 0; i < n-1; i++ {
		r, w, err := os.Pipe()
		if err != nil {
			c.close()
			return nil, fmt.Errorf("allocate channel %d: %w", i, err)
		}
		c.channels = append(c.channels, channel{r: r, w: w})
	}
	return c, nil
}

// len returns the number of channels.
func (c *chain) len() int { return len(c.channels) }

// streams returns the stdin and stdout command i should inherit. Positions
// without an upstream (or downstream) channel keep the shell's own stream.
func (c *chain) streams(i int, stdin, stdout *os.File) (in, out *os.File) {
	in, out = stdin, stdout
	if i > 0 {
		in = c.channels[i-1].r
	}
	if i < len(c.channels) {
		out = c.channels[i].w
	}
	return in, out
}

// release closes the parent's copies of the ends handed to command i. It
// must run once command i exists (or has failed to start) so that the only
// remaining writers of each channel are children; otherwise readers never
// see end-of-stream.
func (c *chain) release(i int) {
	if i > 0 {
		closeEnd(&c.channels[i-1].r)
	}
	if i < len(c.channels) {
		closeEnd(&c.channels[i].w)
	}
}

// close releases every end the parent still holds.
func (c *chain) close() {
	for i := range c.channels {
		closeEnd(&c.channels[i].r)
		closeEnd(&c.channels[i].w)
	}
}

// open reports how many channel ends the parent still holds.
func (c *chain) open() int {
	n := 0
	for _, ch := range c.channels {
		if ch.r != nil {
			n++
		}
		if ch.w != nil {
			n++
		}
	}
	return n
}

func closeEnd(f **os.File) {
	if *f != nil {
		(*f).Close()
		*f = nil
	}
}
