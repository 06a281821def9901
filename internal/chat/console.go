package chat

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/fatih/color"
	"golang.org/x/term"
)

// ConsolePlatform is an interactive terminal chat with a single conversation.
// Streaming edits that extend the previous text print only the new suffix;
// status lines are rewritten in place when attached to a terminal.
type ConsolePlatform struct {
	conversation string
	user         string
	limit        int
	tty          bool

	in *lineReader

	mu      sync.Mutex
	out     io.Writer
	nextID  int
	current string // id of the message being streamed
	printed string // text of current already on screen
	status  bool   // screen ends with an unterminated status line
}

// NewConsolePlatform creates a console chat reading in and writing out.
func NewConsolePlatform(conversation string, in io.Reader, out io.Writer, limit int) *ConsolePlatform {
	tty := false
	if f, ok := out.(*os.File); ok {
		tty = term.IsTerminal(int(f.Fd()))
	}
	user := os.Getenv("USER")
	if user == "" {
		user = "you"
	}
	return &ConsolePlatform{
		conversation: conversation,
		user:         user,
		limit:        limit,
		tty:          tty,
		in:           newLineReader(in, 1024*1024),
		out:          out,
	}
}

// Limit returns the configured message limit.
func (c *ConsolePlatform) Limit() int { return c.limit }

// Receive prompts for and reads the next line.
func (c *ConsolePlatform) Receive(ctx context.Context) (Inbound, error) {
	c.mu.Lock()
	c.closeCurrent()
	if c.tty {
		fmt.Fprint(c.out, color.HiBlackString(c.user+"> "))
	}
	c.mu.Unlock()

	line, err := c.in.next(ctx)
	if err != nil {
		return Inbound{}, err
	}
	return Inbound{Conversation: c.conversation, User: c.user, Text: line}, nil
}

// Send prints a new message.
func (c *ConsolePlatform) Send(_ context.Context, conversation, text string, _ Format) (MessageRef, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeCurrent()

	c.nextID++
	id := strconv.Itoa(c.nextID)
	c.current = id
	c.printed = text
	c.status = isStatus(text)
	fmt.Fprint(c.out, c.style(text))
	if !c.status {
		// command replies are never edited
		fmt.Fprintln(c.out)
		c.current = ""
	}
	return MessageRef{Conversation: conversation, ID: id}, nil
}

// Edit updates the message being streamed. Edits to older messages are
// printed as new text.
func (c *ConsolePlatform) Edit(_ context.Context, ref MessageRef, text string, _ Format) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ref.ID != c.current {
		c.closeCurrent()
		fmt.Fprintln(c.out, c.style(text))
		return nil
	}
	if text == c.printed {
		return ErrNotModified
	}

	switch {
	case c.status && isStatus(text):
		c.clearLine()
		fmt.Fprint(c.out, c.style(text))
		c.status = true
	case c.status:
		c.clearLine()
		fmt.Fprint(c.out, c.style(text))
		c.status = false
	case strings.HasPrefix(text, c.printed):
		fmt.Fprint(c.out, c.style(text[len(c.printed):]))
	default:
		fmt.Fprint(c.out, "\n"+color.HiBlackString("(edited)")+"\n"+c.style(text))
	}
	c.printed = text
	return nil
}

// closeCurrent terminates the streamed message line. Callers hold c.mu.
func (c *ConsolePlatform) closeCurrent() {
	if c.current == "" {
		return
	}
	fmt.Fprintln(c.out)
	c.current, c.printed, c.status = "", "", false
}

// clearLine removes an unterminated status line. Callers hold c.mu.
func (c *ConsolePlatform) clearLine() {
	if c.tty {
		fmt.Fprint(c.out, "\r\033[K")
		return
	}
	fmt.Fprintln(c.out)
}

func (c *ConsolePlatform) style(text string) string {
	switch {
	case strings.HasPrefix(text, errorPrefix):
		return color.RedString(text)
	case isStatus(text):
		return color.HiBlackString(text)
	}
	return text
}

func isStatus(text string) bool {
	return strings.HasPrefix(text, statusPrefix) && !strings.Contains(text, "\n")
}
