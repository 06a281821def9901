package chat

import (
	"bufio"
	"context"
	"io"
	"sync"
)

// lineReader scans lines on a background goroutine so a blocked read does
// not hold up cancellation.
type lineReader struct {
	scanner *bufio.Scanner
	once    sync.Once
	lines   chan string
	err     error // set before lines is closed
}

func newLineReader(r io.Reader, maxLine int) *lineReader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLine)
	return &lineReader{scanner: scanner, lines: make(chan string)}
}

func (l *lineReader) run() {
	defer close(l.lines)
	for l.scanner.Scan() {
		l.lines <- l.scanner.Text()
	}
	l.err = l.scanner.Err()
}

// next returns the next line, io.EOF at end of input, or ctx's error.
func (l *lineReader) next(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	l.once.Do(func() { go l.run() })
	select {
	case line, ok := <-l.lines:
		if !ok {
			if l.err != nil {
				return "", l.err
			}
			return "", io.EOF
		}
		return line, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
