// Package render provides output formatting for terminal and chat consumption.
package render

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/joss/clibridge/internal/provider"
	"github.com/joss/clibridge/internal/session"
	bstrings "github.com/joss/clibridge/internal/strings"
	"github.com/joss/clibridge/internal/tokens"
)

// Renderer handles output formatting.
type Renderer struct {
	pretty bool
	now    func() time.Time
}

// New creates a new renderer. pretty enables colors and headers.
func New(pretty bool) *Renderer {
	return &Renderer{pretty: pretty, now: time.Now}
}

// ProviderInfo describes one configured provider for listing.
type ProviderInfo struct {
	ID      string
	Name    string
	Bin     string
	Found   bool
	Effort  bool
	Default bool
}

// Session formats one conversation's state.
func (r *Renderer) Session(key string, s session.Session) string {
	var sb strings.Builder

	if r.pretty {
		sb.WriteString(color.CyanString("Conversation %s\n", key))
		sb.WriteString(strings.Repeat("─", 40) + "\n")
	} else {
		fmt.Fprintf(&sb, "conversation: %s\n", key)
	}

	fmt.Fprintf(&sb, "  provider: %s\n", s.Provider)
	fmt.Fprintf(&sb, "  models:   %s\n", overrides(s.Models))
	fmt.Fprintf(&sb, "  efforts:  %s\n", overrides(s.Efforts))
	fmt.Fprintf(&sb, "  history:  %d messages", len(s.History))
	if len(s.History) > 0 {
		fmt.Fprintf(&sb, " (~%d tokens)", tokens.CountMessages(s.History))
	}
	sb.WriteString("\n")
	if !s.UpdatedAt.IsZero() {
		fmt.Fprintf(&sb, "  updated:  %s ago", FormatDuration(r.now().Sub(s.UpdatedAt)))
	} else {
		sb.WriteString("  updated:  never")
	}
	return sb.String()
}

// History formats a conversation's messages, one per block.
func (r *Renderer) History(s session.Session, width int) string {
	if len(s.History) == 0 {
		return "No messages"
	}
	var sb strings.Builder
	for _, m := range s.History {
		label := string(m.Role)
		if r.pretty {
			switch m.Role {
			case provider.RoleUser:
				label = color.GreenString(label)
			case provider.RoleAssistant:
				label = color.BlueString(label)
			}
		}
		text := m.Content
		if width > 0 {
			text = bstrings.TruncateRunes(bstrings.Squash(text), width)
		}
		fmt.Fprintf(&sb, "%s: %s\n", label, text)
	}
	return strings.TrimRight(sb.String(), "\n")
}

// SessionList formats the summary table of all conversations.
func (r *Renderer) SessionList(sessions map[string]session.Session) string {
	if len(sessions) == 0 {
		return "No conversations"
	}
	keys := make([]string, 0, len(sessions))
	for k := range sessions {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	if r.pretty {
		sb.WriteString(color.CyanString("Conversations\n"))
		sb.WriteString(strings.Repeat("─", 60) + "\n")
	}
	for _, k := range keys {
		s := sessions[k]
		age := "never"
		if !s.UpdatedAt.IsZero() {
			age = FormatDuration(r.now().Sub(s.UpdatedAt))
		}
		if r.pretty {
			fmt.Fprintf(&sb, "%-24s %-8s %3d msgs  %s\n", k, s.Provider, len(s.History), color.HiBlackString(age))
		} else {
			fmt.Fprintf(&sb, "%s provider=%s messages=%d updated=%s\n", k, s.Provider, len(s.History), age)
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

// Providers formats the configured providers.
func (r *Renderer) Providers(infos []ProviderInfo) string {
	if len(infos) == 0 {
		return "No providers configured"
	}
	var sb strings.Builder
	if r.pretty {
		sb.WriteString(color.CyanString("Providers\n"))
		sb.WriteString(strings.Repeat("─", 40) + "\n")
	}
	for _, p := range infos {
		found := color.GreenString(BoolIcon(true))
		if !p.Found {
			found = color.RedString(BoolIcon(false))
		}
		var flags []string
		if p.Default {
			flags = append(flags, "default")
		}
		if p.Effort {
			flags = append(flags, "effort")
		}
		if r.pretty {
			fmt.Fprintf(&sb, "%s %-8s %-12s %s %s\n", found, p.ID, p.Name, color.HiBlackString(p.Bin), strings.Join(flags, ","))
		} else {
			fmt.Fprintf(&sb, "%s found=%v bin=%s flags=%s\n", p.ID, p.Found, p.Bin, strings.Join(flags, ","))
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

func overrides(m map[string]string) string {
	if len(m) == 0 {
		return "default"
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+m[k])
	}
	return strings.Join(parts, ", ")
}

// FormatDuration formats a duration in human-readable form.
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
}
