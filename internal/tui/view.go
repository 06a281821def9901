package tui

import (
	"fmt"
	"strings"
)

// View renders the screen.
func (m Model) View() string {
	if m.quitting {
		return "Goodbye!\n"
	}
	if !m.ready {
		return fmt.Sprintf("\n  %s Starting...", m.spinner.View())
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("⚡ clibridge") + "  " + infoStyle.Render(m.title) + "\n\n")
	b.WriteString(m.viewport.View() + "\n")
	b.WriteString(m.renderStatus() + "\n")
	if m.busy {
		b.WriteString(fmt.Sprintf("  %s Waiting for reply...", m.spinner.View()))
	} else {
		b.WriteString(inputStyle.Width(m.width - 4).Render(m.input.View()))
	}
	return b.String()
}

func (m Model) renderStatus() string {
	parts := []string{fmt.Sprintf("%d messages", len(m.entries))}
	if m.busy {
		parts = append(parts, "PgUp/PgDn: scroll │ Esc: quit")
	} else {
		parts = append(parts, "Enter: send │ Ctrl+J: newline │ /help: commands │ Esc: quit")
	}
	return statusBarStyle.Width(m.width).Render(strings.Join(parts, " │ "))
}

func (m Model) renderTranscript() string {
	width := m.width - 2
	if width < 10 {
		width = 10
	}
	blocks := make([]string, 0, len(m.entries))
	for _, e := range m.entries {
		blocks = append(blocks, renderEntry(e, width))
	}
	return strings.Join(blocks, "\n\n")
}

func renderEntry(e entry, width int) string {
	if e.user {
		return userStyle.Render("you ›") + "\n" + textStyle.Width(width).Render(e.text)
	}
	body := textStyle
	switch {
	case strings.HasPrefix(e.text, "⏳"):
		body = thinkingStyle
	case strings.HasPrefix(e.text, "⚠"):
		body = errorStyle
	}
	return botStyle.Render("bot ›") + "\n" + body.Width(width).Render(e.text)
}
