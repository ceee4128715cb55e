// SPDX-License-Identifier: Apache-2.0

// Package trace runs scripted allocation sequences against a heap and
// renders the resulting block layout.
package trace

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// OpKind identifies a script command.
type OpKind int

const (
	OpAlloc OpKind = iota
	OpFree
	OpDump
	OpStats
	OpCheck
)

func (k OpKind) String() string {
	switch k {
	case OpAlloc:
		return "alloc"
	case OpFree:
		return "free"
	case OpDump:
		return "dump"
	case OpStats:
		return "stats"
	case OpCheck:
		return "check"
	default:
		return fmt.Sprintf("OpKind(%d)", int(k))
	}
}

// Free targets that do not name an allocation.
const (
	TargetNil   = "nil"
	TargetStray = "stray"
)

// Op is one parsed script line.
type Op struct {
	Line int
	Kind OpKind
	// Name is the allocation name for alloc and free, or TargetNil/TargetStray.
	Name string
	// Size is the requested size for alloc.
	Size int
	// Delta is the signed byte offset added to the named pointer for free.
	Delta int
}

// Parse reads a script. Each non-empty line holds one command:
//
//	alloc NAME SIZE
//	free NAME | free NAME+N | free NAME-N | free nil | free stray
//	dump
//	stats
//	check
//
// Text after '#' is ignored.
func Parse(r io.Reader) ([]Op, error) {
	var ops []Op
	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := sc.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		op, err := parseOp(fields)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		op.Line = lineNo
		ops = append(ops, op)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}
	return ops, nil
}

func parseOp(fields []string) (Op, error) {
	switch cmd := strings.ToLower(fields[0]); cmd {
	case "alloc":
		if len(fields) != 3 {
			return Op{}, fmt.Errorf("usage: alloc NAME SIZE")
		}
		if err := checkName(fields[1]); err != nil {
			return Op{}, err
		}
		size, err := strconv.Atoi(fields[2])
		if err != nil || size < 0 {
			return Op{}, fmt.Errorf("invalid size %q", fields[2])
		}
		return Op{Kind: OpAlloc, Name: fields[1], Size: size}, nil
	case "free":
		if len(fields) != 2 {
			return Op{}, fmt.Errorf("usage: free NAME[+N|-N]")
		}
		name, delta, err := parseTarget(fields[1])
		if err != nil {
			return Op{}, err
		}
		return Op{Kind: OpFree, Name: name, Delta: delta}, nil
	case "dump", "stats", "check":
		if len(fields) != 1 {
			return Op{}, fmt.Errorf("%s takes no arguments", cmd)
		}
		kind := map[string]OpKind{"dump": OpDump, "stats": OpStats, "check": OpCheck}[cmd]
		return Op{Kind: kind}, nil
	default:
		return Op{}, fmt.Errorf("unknown command %q", fields[0])
	}
}

func parseTarget(s string) (string, int, error) {
	name, off, sign := s, "", 1
	if before, after, ok := strings.Cut(s, "+"); ok {
		name, off = before, after
	} else if i := strings.LastIndexByte(s, '-'); i > 0 && isDigits(s[i+1:]) {
		name, off, sign = s[:i], s[i+1:], -1
	}
	if err := checkName(name); err != nil && name != TargetNil && name != TargetStray {
		return "", 0, err
	}
	if name != s && (name == TargetNil || name == TargetStray) {
		return "", 0, fmt.Errorf("cannot offset %s", name)
	}
	if name == s {
		return name, 0, nil
	}
	delta, err := strconv.Atoi(off)
	if err != nil || delta < 0 {
		return "", 0, fmt.Errorf("invalid offset %q", off)
	}
	return name, sign * delta, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func checkName(name string) error {
	if name == "" {
		return fmt.Errorf("empty name")
	}
	if name == TargetNil || name == TargetStray {
		return fmt.Errorf("%q is reserved", name)
	}
	if i := strings.LastIndexByte(name, '-'); i >= 0 && isDigits(name[i+1:]) {
		return fmt.Errorf("name %q ends in an offset", name)
	}
	for _, r := range name {
		if !(r == '_' || r == '-' || r >= '0' && r <= '9' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z') {
			return fmt.Errorf("invalid name %q", name)
		}
	}
	return nil
}
