package audit

import (
	"bufio"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
)

const genesisInput = "stsh-genesis"

// maxEntrySize bounds one JSONL line when reading a log back.
const maxEntrySize = 1 << 20

// chain tracks the head of a hash chain: the last sequence number and
// hash. Create one with newChain.
type chain struct {
	seq  uint64
	head string
}

func newChain() chain {
	h := sha256.Sum256([]byte(genesisInput))
	return chain{head: fmt.Sprintf("%x", h)}
}

// seal links e onto the chain, setting its sequence, previous hash and
// hash, and advances the head.
func (c *chain) seal(e *Entry) {
	c.seq++
	e.Seq = c.seq
	e.PrevHash = c.head
	e.Hash = hashOf(*e)
	c.head = e.Hash
}

// follow checks that e is the next link, then advances the head.
func (c *chain) follow(e Entry) error {
	if e.Seq != c.seq+1 {
		return fmt.Errorf("sequence gap: expected %d, got %d", c.seq+1, e.Seq)
	}
	if e.PrevHash != c.head {
		return fmt.Errorf("prev_hash mismatch: expected %s, got %s", short(c.head), short(e.PrevHash))
	}
	if want := hashOf(e); e.Hash != want {
		return fmt.Errorf("hash mismatch: expected %s, got %s", short(want), short(e.Hash))
	}
	c.seq = e.Seq
	c.head = e.Hash
	return nil
}

// resume moves the head to e without checking it.
func (c *chain) resume(e Entry) {
	c.seq = e.Seq
	c.head = e.Hash
}

func hashOf(e Entry) string {
	e.Hash = ""
	data, _ := json.Marshal(e)
	return fmt.Sprintf("%x", sha256.Sum256(data))
}

func short(hash string) string {
	if len(hash) <= 16 {
		return hash
	}
	return hash[:16] + "..."
}

// eachEntry decodes r line by line, skipping blank lines. fn receives the
// 1-based line number.
func eachEntry(r io.Reader, fn func(line int, e Entry, err error) error) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxEntrySize)
	line := 0
	for sc.Scan() {
		line++
		if len(sc.Bytes()) == 0 {
			continue
		}
		var e Entry
		err := json.Unmarshal(sc.Bytes(), &e)
		if err := fn(line, e, err); err != nil {
			return err
		}
	}
	return sc.Err()
}
