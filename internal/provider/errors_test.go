package provider

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/joss/clibridge/internal/exec"
)

func TestExtractErrorMessage(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		stderr  string
		want    string
	}{
		{"nested error object", `{"error":{"message":"rate limited"}}`, "", "rate limited"},
		{"detail field", `{"detail":"not found"}`, "", "not found"},
		{"json string inside", `"{\"message\":\"quoted\"}"`, "", "quoted"},
		{"embedded json", `API Error: 529 {"type":"error","error":{"message":"Overloaded"}}`, "", "Overloaded"},
		{"raw text", "plain failure", "", "plain failure"},
		{"stderr fallback", "", "real problem\n[DEBUG] noise\n  at foo (bar.js:1)\n\n", "real problem"},
		{"stderr json line", "", `{"error":"bad key"}` + "\n", "bad key"},
		{"nothing", "", "WARN: chatty\n", "unknown error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractErrorMessage(tt.payload, tt.stderr))
		})
	}
}

func TestLastMeaningfulLine(t *testing.T) {
	stderr := "Error: auth failed\n(node:1234) Warning: deprecated\n(Use `node --trace-warnings ...` to show where)\n"
	assert.Equal(t, "Error: auth failed", LastMeaningfulLine(stderr))
	assert.Equal(t, "", LastMeaningfulLine(""))
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, "", Describe(nil))
	assert.Equal(t, "unknown provider", Describe(Configf("unknown provider")))
	assert.Equal(t, "could not start claude: not found",
		Describe(fmt.Errorf("ask: %w", &exec.SpawnError{Name: "claude", Err: errors.New("not found")})))
	assert.Equal(t, "codex error: bad", Describe(&ProtocolError{Provider: "codex", Message: "bad"}))
	assert.Equal(t, "claude exited with signal killed", Describe(&ExitError{Provider: "claude", Code: -1, Signal: "killed"}))
	assert.Equal(t, "provider produced no content", Describe(fmt.Errorf("x: %w", ErrEmptyReply)))
	assert.Equal(t, "request timed out", Describe(fmt.Errorf("claude: %w", context.DeadlineExceeded)))
	assert.Equal(t, "other", Describe(errors.New("other")))
}

func TestOverrideHelpers(t *testing.T) {
	assert.True(t, IsDefault(""))
	assert.True(t, IsDefault("  Default "))
	assert.False(t, IsDefault("gpt-5"))
	assert.True(t, ValidEffort("xhigh"))
	assert.False(t, ValidEffort("extreme"))
}
