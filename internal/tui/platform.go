package tui

import (
	"context"
	"io"
	"strconv"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/joss/clibridge/internal/chat"
)

// sender delivers messages to a running program.
type sender interface {
	Send(msg tea.Msg)
}

// Platform is a chat.Platform and chat.Receiver backed by the Bubble Tea
// screen. Lines typed into the prompt are received as inbound messages and
// replies are drawn into the transcript.
type Platform struct {
	conversation string
	user         string
	limit        int

	out   sender
	inbox chan string
	done  chan struct{}

	mu     sync.Mutex
	nextID int
	texts  map[string]string
}

// NewPlatform creates a screen platform for one conversation.
func NewPlatform(conversation, user string, limit int) *Platform {
	return &Platform{
		conversation: conversation,
		user:         user,
		limit:        limit,
		inbox:        make(chan string, 1),
		done:         make(chan struct{}),
		texts:        make(map[string]string),
	}
}

// Limit returns the configured message limit.
func (p *Platform) Limit() int { return p.limit }

// Receive tells the screen it may accept input and waits for the next line.
// It returns io.EOF once the screen has closed.
func (p *Platform) Receive(ctx context.Context) (chat.Inbound, error) {
	select {
	case <-p.done:
		return chat.Inbound{}, io.EOF
	default:
	}
	p.out.Send(readyMsg{})

	select {
	case text := <-p.inbox:
		return chat.Inbound{Conversation: p.conversation, User: p.user, Text: text}, nil
	case <-p.done:
		return chat.Inbound{}, io.EOF
	case <-ctx.Done():
		return chat.Inbound{}, ctx.Err()
	}
}

// Send appends a bot message to the transcript.
func (p *Platform) Send(_ context.Context, conversation, text string, _ chat.Format) (chat.MessageRef, error) {
	p.mu.Lock()
	p.nextID++
	id := strconv.Itoa(p.nextID)
	p.texts[id] = text
	p.mu.Unlock()

	p.out.Send(sendMsg{id: id, text: text})
	return chat.MessageRef{Conversation: conversation, ID: id}, nil
}

// Edit replaces the text of a bot message.
func (p *Platform) Edit(_ context.Context, ref chat.MessageRef, text string, _ chat.Format) error {
	p.mu.Lock()
	if p.texts[ref.ID] == text {
		p.mu.Unlock()
		return chat.ErrNotModified
	}
	p.texts[ref.ID] = text
	p.mu.Unlock()

	p.out.Send(editMsg{id: ref.ID, text: text})
	return nil
}

// deliver queues a typed line. It reports false when a line is already
// waiting to be picked up.
func (p *Platform) deliver(text string) bool {
	select {
	case p.inbox <- text:
		return true
	default:
		return false
	}
}

// Run shows the screen and serves h until the user quits or ctx ends.
func (p *Platform) Run(parent context.Context, title string, h chat.Handler) error {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	program := tea.NewProgram(
		NewModel(title, p.deliver),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)
	p.out = program

	served := make(chan error, 1)
	go func() {
		served <- chat.Serve(ctx, p, h, chat.ServeOptions{Sequential: true})
	}()

	_, err := program.Run()
	close(p.done)
	cancel()
	serveErr := <-served

	if parent.Err() != nil && err != nil {
		// cancelled from outside; the program reports it as killed
		err = nil
	}
	if err != nil {
		return err
	}
	return serveErr
}
