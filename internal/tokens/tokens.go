// Package tokens estimates prompt sizes using tiktoken-go.
package tokens

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"

	"github.com/joss/clibridge/internal/provider"
)

// messageOverhead approximates the role and framing of one message.
const messageOverhead = 4

// Counter provides token counting for messages and text.
// Uses cl100k_base encoding.
type Counter struct {
	enc  *tiktoken.Tiktoken
	once sync.Once
	err  error
}

var defaultCounter = &Counter{}

// Count returns the number of tokens in the given text.
func Count(text string) int {
	return defaultCounter.Count(text)
}

// CountMessages returns total tokens for a slice of messages.
func CountMessages(msgs []provider.Message) int {
	return defaultCounter.CountMessages(msgs)
}

// Count returns the number of tokens in the given text.
func (c *Counter) Count(text string) int {
	c.init()
	if c.err != nil || c.enc == nil {
		// encoding unavailable offline: roughly 4 bytes per token
		return (len(text) + 3) / 4
	}
	return len(c.enc.Encode(text, nil, nil))
}

// CountMessages returns total tokens for a slice of messages.
func (c *Counter) CountMessages(msgs []provider.Message) int {
	total := 0
	for _, m := range msgs {
		total += messageOverhead + c.Count(m.Content)
	}
	return total
}

func (c *Counter) init() {
	c.once.Do(func() {
		c.enc, c.err = tiktoken.GetEncoding("cl100k_base")
	})
}
