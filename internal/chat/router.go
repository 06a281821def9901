package chat

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sahilm/fuzzy"

	"github.com/joss/clibridge/internal/logging"
	"github.com/joss/clibridge/internal/orchestrator"
	"github.com/joss/clibridge/internal/provider"
	"github.com/joss/clibridge/internal/render"
)

type command struct {
	usage  string
	help   string
	run    func(ctx context.Context, in Inbound, arg string) (string, error)
	queued bool // waits for the conversation's in-flight request
}

// Router dispatches inbound messages: slash commands are answered directly,
// everything else is asked through the orchestrator with a LiveReply.
type Router struct {
	orch     *orchestrator.Orchestrator
	platform Platform
	interval time.Duration
	log      *logging.Logger
	commands map[string]command
}

// NewRouter creates a router replying on p. interval is the minimum gap
// between edits of a streaming reply.
func NewRouter(orch *orchestrator.Orchestrator, p Platform, interval time.Duration) *Router {
	r := &Router{
		orch:     orch,
		platform: p,
		interval: interval,
		log:      logging.New("chat"),
	}
	r.commands = map[string]command{
		"provider": {"/provider [name]", "show or switch the active provider", r.cmdProvider, true},
		"model":    {"/model [name|default]", "show or set the model for the active provider", r.cmdModel, true},
		"effort":   {"/effort [level|default]", "show or set reasoning effort (" + strings.Join(provider.ReasoningEfforts, ", ") + ")", r.cmdEffort, true},
		"reset":    {"/reset", "forget this conversation", r.cmdReset, true},
		"status":   {"/status", "show provider, overrides and history size", r.cmdStatus, false},
		"help":     {"/help", "list commands", r.cmdHelp, false},
	}
	return r
}

// Handle processes one inbound message. Failures are reported to the user;
// the returned error is only for platform send failures.
func (r *Router) Handle(ctx context.Context, in Inbound) error {
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil
	}
	if strings.HasPrefix(text, "/") {
		return r.handleCommand(ctx, in, text)
	}
	return r.ask(ctx, in, text)
}

func (r *Router) ask(ctx context.Context, in Inbound, text string) error {
	reply, err := StartReply(ctx, r.platform, in.Conversation, r.interval)
	if err != nil {
		return fmt.Errorf("send placeholder: %w", err)
	}
	if _, err := r.orch.AskStream(ctx, in.Conversation, text, reply.Callbacks()); err != nil {
		r.log.WithConversation(in.Conversation).Debug("ask_failed", map[string]interface{}{"error": err.Error()})
	}
	return nil
}

func (r *Router) handleCommand(ctx context.Context, in Inbound, text string) error {
	name, arg, _ := strings.Cut(strings.TrimPrefix(text, "/"), " ")
	name = strings.ToLower(name)
	// Telegram-style "/cmd@botname"
	name, _, _ = strings.Cut(name, "@")
	arg = strings.TrimSpace(arg)

	var out string
	cmd, ok := r.commands[name]
	if !ok {
		out = r.unknownCommand(name)
	} else {
		var err error
		out, err = r.runCommand(ctx, cmd, in, arg)
		if err != nil {
			out = errorPrefix + provider.Describe(err)
		}
	}
	_, err := r.platform.Send(ctx, in.Conversation, Truncate(out, r.platform.Limit()), FormatPlain)
	return err
}

func (r *Router) runCommand(ctx context.Context, cmd command, in Inbound, arg string) (string, error) {
	if !cmd.queued {
		return cmd.run(ctx, in, arg)
	}
	var out string
	err := r.orch.WithConversation(ctx, in.Conversation, func(ctx context.Context) error {
		var err error
		out, err = cmd.run(ctx, in, arg)
		return err
	})
	return out, err
}

func (r *Router) unknownCommand(name string) string {
	msg := fmt.Sprintf("unknown command /%s", name)
	if matches := fuzzy.Find(name, r.commandNames()); len(matches) > 0 {
		msg += fmt.Sprintf(" (did you mean /%s?)", matches[0].Str)
	}
	return msg + ". Try /help."
}

func (r *Router) commandNames() []string {
	names := make([]string, 0, len(r.commands))
	for n := range r.commands {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (r *Router) activeAdapter(key string) (provider.Adapter, error) {
	id := r.orch.Sessions().Provider(key)
	a, ok := r.orch.Registry().Get(id)
	if !ok {
		return nil, provider.Configf("provider %q is not configured", id)
	}
	return a, nil
}

func (r *Router) cmdProvider(ctx context.Context, in Inbound, arg string) (string, error) {
	sessions := r.orch.Sessions()
	available := r.orch.Registry().Available()
	if arg == "" {
		return fmt.Sprintf("provider: %s (available: %s)", sessions.Provider(in.Conversation), strings.Join(available, ", ")), nil
	}
	if err := sessions.SetProvider(ctx, in.Conversation, arg); err != nil {
		return "", err
	}
	return "provider set to " + sessions.Provider(in.Conversation), nil
}

func (r *Router) cmdModel(ctx context.Context, in Inbound, arg string) (string, error) {
	a, err := r.activeAdapter(in.Conversation)
	if err != nil {
		return "", err
	}
	sessions := r.orch.Sessions()
	if arg == "" {
		return fmt.Sprintf("%s model: %s", a.ID(), orDefault(sessions.Model(in.Conversation, a.ID()))), nil
	}
	if err := sessions.SetModel(ctx, in.Conversation, a.ID(), arg); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s model: %s", a.ID(), orDefault(sessions.Model(in.Conversation, a.ID()))), nil
}

func (r *Router) cmdEffort(ctx context.Context, in Inbound, arg string) (string, error) {
	a, err := r.activeAdapter(in.Conversation)
	if err != nil {
		return "", err
	}
	if !a.SupportsReasoningEffort() {
		return "", provider.Configf("%s does not support reasoning effort", a.Name())
	}
	sessions := r.orch.Sessions()
	if arg == "" {
		return fmt.Sprintf("%s effort: %s", a.ID(), orDefault(sessions.Effort(in.Conversation, a.ID()))), nil
	}
	if err := sessions.SetEffort(ctx, in.Conversation, a.ID(), arg); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s effort: %s", a.ID(), orDefault(sessions.Effort(in.Conversation, a.ID()))), nil
}

func (r *Router) cmdReset(ctx context.Context, in Inbound, _ string) (string, error) {
	if r.orch.Sessions().Reset(ctx, in.Conversation) {
		return "conversation reset", nil
	}
	return "nothing to reset", nil
}

func (r *Router) cmdStatus(_ context.Context, in Inbound, _ string) (string, error) {
	sessions := r.orch.Sessions()
	snap, ok := sessions.Snapshot(in.Conversation)
	if !ok {
		snap.Provider = sessions.Provider(in.Conversation)
	}
	return render.New(false).Session(in.Conversation, snap), nil
}

func (r *Router) cmdHelp(context.Context, Inbound, string) (string, error) {
	var sb strings.Builder
	sb.WriteString("commands:\n")
	for _, name := range r.commandNames() {
		c := r.commands[name]
		fmt.Fprintf(&sb, "  %-24s %s\n", c.usage, c.help)
	}
	sb.WriteString("anything else is sent to the active provider")
	return sb.String(), nil
}

func orDefault(v string) string {
	if v == "" {
		return "default"
	}
	return v
}
