// Copyright 2026 Marcelo Cantos
// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/anmitsu/go-shlex"
)

// word is one whitespace-separated token of an input line. op is set only
// when the token's leading operator character was written unquoted.
type word struct {
	text string
	op   string
}

// Parse tokenizes one input line with POSIX quoting rules and builds a
// Pipeline. It returns a nil Pipeline and nil error for a blank line.
//
// Operators count only when unquoted: `echo '|'` prints a bar and
// `grep '<div>' f` searches for a tag.
func Parse(line string) (*Pipeline, error) {
	words, err := splitWords(line)
	if err != nil {
		return nil, fmt.Errorf("syntax error: %w", err)
	}
	if len(words) == 0 {
		return nil, nil
	}
	return parseWords(words)
}

// ParseTokens builds a Pipeline from pre-tokenized args. Since quoting is
// already gone, any arg spelled like an operator acts as one.
func ParseTokens(args []string) (*Pipeline, error) {
	words := make([]word, len(args))
	for i, arg := range args {
		op, target := splitRedirect(arg)
		if arg == OpPipe {
			op = OpPipe
		}
		words[i] = word{text: arg, op: op}
		if op == OpRedirectIn || op == OpRedirectOut {
			words[i].text = target
		}
	}
	return parseWords(words)
}

func parseWords(words []word) (*Pipeline, error) {
	if len(words) == 0 {
		return nil, errEmptyPipeline
	}

	p := &Pipeline{}

	// First pass: extract redirects from the flat word list.
	// < <file> can appear anywhere (applies to the first command's stdin).
	// > <file> can appear anywhere (applies to the last command's stdout).
	filtered := make([]word, 0, len(words))
	for i := 0; i < len(words); i++ {
		w := words[i]
		if w.op != OpRedirectIn && w.op != OpRedirectOut {
			filtered = append(filtered, w)
			continue
		}
		target := w.text
		if target == "" {
			if i+1 >= len(words) || words[i+1].op != "" {
				return nil, fmt.Errorf("%s requires a file path", w.op)
			}
			i++
			target = words[i].text
		}
		dst := &p.Input
		if w.op == OpRedirectOut {
			dst = &p.Output
		}
		if *dst != "" {
			return nil, fmt.Errorf("multiple %s redirects", w.op)
		}
		*dst = target
	}

	// Second pass: split on | to get commands.
	var current []string
	for _, w := range filtered {
		if w.op != OpPipe {
			current = append(current, w.text)
			continue
		}
		if len(current) == 0 {
			return nil, fmt.Errorf("empty command before %s", OpPipe)
		}
		p.Commands = append(p.Commands, Command{Argv: current})
		current = nil
	}
	if len(current) == 0 {
		if len(p.Commands) == 0 {
			return nil, errEmptyPipeline
		}
		return nil, fmt.Errorf("empty command after %s", OpPipe)
	}
	p.Commands = append(p.Commands, Command{Argv: current})

	return p, nil
}

var (
	errNoClosing = errors.New("no closing quotation")
	errNoEscaped = errors.New("no escaped character")
)

// splitWords cuts line at unquoted whitespace, notes which words start
// with an unquoted operator, and unquotes each word with shlex.
func splitWords(line string) ([]word, error) {
	raws, err := rawWords(line)
	if err != nil {
		return nil, err
	}
	words := make([]word, 0, len(raws))
	for _, raw := range raws {
		var w word
		if raw == OpPipe {
			w.op = OpPipe
		} else if op, _ := splitRedirect(raw); op != "" {
			w.op = op
			raw = raw[len(op):]
		}
		if raw != "" {
			text, err := unquote(raw)
			if err != nil {
				return nil, err
			}
			w.text = text
		} else if w.op == "" {
			continue
		}
		if w.op == OpPipe {
			w.text = OpPipe
		}
		words = append(words, w)
	}
	return words, nil
}

// rawWords splits line at whitespace outside quotes, keeping each word's
// quotes and escapes intact.
func rawWords(line string) ([]string, error) {
	var (
		words  []string
		cur    strings.Builder
		inWord bool
		quote  rune
		escape bool
	)
	for _, r := range line {
		switch {
		case escape:
			escape = false
		case quote == '\'':
			if r == '\'' {
				quote = 0
			}
		case quote == '"':
			if r == '\\' {
				escape = true
			} else if r == '"' {
				quote = 0
			}
		case r == '\\':
			escape = true
		case r == '\'' || r == '"':
			quote = r
		case unicode.IsSpace(r):
			if inWord {
				words = append(words, cur.String())
				cur.Reset()
				inWord = false
			}
			continue
		}
		cur.WriteRune(r)
		inWord = true
	}
	if quote != 0 {
		return nil, errNoClosing
	}
	if escape {
		return nil, errNoEscaped
	}
	if inWord {
		words = append(words, cur.String())
	}
	return words, nil
}

// unquote removes one word's quoting. A word that unquotes to nothing, such
// as '', is an empty argument.
func unquote(raw string) (string, error) {
	parts, err := shlex.Split(raw, true)
	if err != nil {
		return "", err
	}
	return strings.Join(parts, ""), nil
}

// splitRedirect recognises "<", ">", and the attached forms "<file" and
// ">file".
func splitRedirect(tok string) (op, target string) {
	for _, o := range []string{OpRedirectIn, OpRedirectOut} {
		if strings.HasPrefix(tok, o) {
			return o, tok[len(o):]
		}
	}
	return "", ""
}
