package markdown

import (
	"bufio"
	"bytes"
	"errors"
	"strings"
)

// ErrUnterminatedFence indicates a fenced code block was opened but never closed.
//
// CommonMark would close the fence at EOF; this pipeline treats it as a render
// defect instead, so a truncated sample never publishes looking complete.
var ErrUnterminatedFence = errors.New("unterminated code fence")

// ValidateFences scans a body for fenced code blocks and reports an open
// fence with no matching close.
func ValidateFences(body []byte) error {
	var (
		open      bool
		fenceChar byte
		fenceLen  int
	)

	scanner := bufio.NewScanner(bytes.NewReader(body))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := trimIndent(scanner.Text())

		if !open {
			if ch, n, ok := fenceOpening(line); ok {
				open, fenceChar, fenceLen = true, ch, n
			}
			continue
		}

		if fenceClosing(line, fenceChar, fenceLen) {
			open = false
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}

	if open {
		return ErrUnterminatedFence
	}
	return nil
}

// trimIndent removes up to three leading spaces (CommonMark fence indentation).
func trimIndent(line string) string {
	for i := 0; i < 3 && strings.HasPrefix(line, " "); i++ {
		line = line[1:]
	}
	return line
}

// fenceOpening reports whether line opens a code fence, returning the fence
// character and run length. An info string may follow the fence.
func fenceOpening(line string) (byte, int, bool) {
	if line == "" {
		return 0, 0, false
	}
	ch := line[0]
	if ch != '`' && ch != '~' {
		return 0, 0, false
	}
	n := runLength(line, ch)
	if n < 3 {
		return 0, 0, false
	}
	// A backtick info string may not contain backticks.
	if ch == '`' && strings.Contains(line[n:], "`") {
		return 0, 0, false
	}
	return ch, n, true
}

// fenceClosing reports whether line closes a fence of the given character and
// minimum length. Only trailing spaces may follow a closing fence.
func fenceClosing(line string, fenceChar byte, fenceLen int) bool {
	if line == "" || line[0] != fenceChar {
		return false
	}
	n := runLength(line, fenceChar)
	if n < fenceLen {
		return false
	}
	return strings.TrimRight(line[n:], " ") == ""
}

func runLength(line string, ch byte) int {
	n := 0
	for n < len(line) && line[n] == ch {
		n++
	}
	return n
}
