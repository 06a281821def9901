package exec

import (
	"bytes"
	"strings"
	"sync"
)

// tailBuffer keeps the last max bytes written to it and optionally splits
// the stream into lines for an observer.
type tailBuffer struct {
	mu       sync.Mutex
	max      int
	buf      []byte
	partial  bytes.Buffer
	observer func(string)
}

func newTailBuffer(max int, observer func(string)) *tailBuffer {
	return &tailBuffer{max: max, observer: observer}
}

// Write implements io.Writer.
func (t *tailBuffer) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.buf = append(t.buf, p...)
	if over := len(t.buf) - t.max; over > 0 {
		t.buf = append(t.buf[:0], t.buf[over:]...)
	}

	if t.observer != nil {
		t.partial.Write(p)
		for {
			data := t.partial.Bytes()
			i := bytes.IndexByte(data, '\n')
			if i < 0 {
				break
			}
			line := strings.TrimRight(string(data[:i]), "\r")
			t.partial.Next(i + 1)
			if line != "" {
				t.observer(line)
			}
		}
	}
	return len(p), nil
}

// flush delivers a trailing unterminated stderr line to the observer.
func (t *tailBuffer) flush() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.observer == nil || t.partial.Len() == 0 {
		return
	}
	line := strings.TrimRight(t.partial.String(), "\r")
	t.partial.Reset()
	if line != "" {
		t.observer(line)
	}
}

func (t *tailBuffer) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return string(t.buf)
}
