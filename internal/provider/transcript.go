package provider

import "strings"

var roleLabels = map[Role]string{
	RoleSystem:    "System",
	RoleUser:      "User",
	RoleAssistant: "Assistant",
}

// RenderTranscript flattens messages into the single text blob a CLI provider
// reads from stdin: role-labelled turns ending with an open assistant section.
func RenderTranscript(messages []Message) string {
	var sb strings.Builder
	for _, m := range messages {
		label, ok := roleLabels[m.Role]
		if !ok {
			label = "User"
		}
		sb.WriteString(label)
		sb.WriteString(":\n")
		sb.WriteString(strings.TrimSpace(m.Content))
		sb.WriteString("\n\n")
	}
	sb.WriteString(roleLabels[RoleAssistant])
	sb.WriteString(":\n")
	return sb.String()
}
