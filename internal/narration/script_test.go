package narration

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reelgen/internal/services"
)

func TestSplitScript(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{name: "plain lines", raw: "Fresh bread daily.\nCome say hi.", want: []string{"Fresh bread daily.", "Come say hi."}},
		{name: "blank lines dropped", raw: "\n\nOne.\n\n  \nTwo.\n", want: []string{"One.", "Two."}},
		{name: "crlf", raw: "One.\r\nTwo.", want: []string{"One.", "Two."}},
		{name: "list markers", raw: "- One.\n* Two.\n1. Three.\n2) Four.", want: []string{"One.", "Two.", "Three.", "Four."}},
		{name: "quotes", raw: "\"One.\"\n“Two.”\n'Three.'", want: []string{"One.", "Two.", "Three."}},
		{name: "code fence", raw: "```text\nOne.\nTwo.\n```", want: []string{"One.", "Two."}},
		{name: "numbers kept mid sentence", raw: "Open 7 days a week.", want: []string{"Open 7 days a week."}},
		{name: "empty", raw: "  \n ", want: nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, SplitScript(tc.raw))
		})
	}
}

func TestSplitScriptNormalizesToNFC(t *testing.T) {
	got := SplitScript("Cafe\u0301 open.")
	require.Len(t, got, 1)
	assert.Equal(t, "Caf\u00e9 open.", got[0])
}

func TestPromptRenderDefault(t *testing.T) {
	prompt, err := NewPrompt("")
	require.NoError(t, err)

	text, err := prompt.Render("Harbor Cafe", "Sea views.", "review")
	require.NoError(t, err)
	assert.Contains(t, text, `"Harbor Cafe"`)
	assert.Contains(t, text, "About the business: Sea views.")
	assert.Contains(t, text, modeStyles["review"])
}

func TestPromptRenderDefaultsMode(t *testing.T) {
	prompt, err := NewPrompt("{{.Name}}|{{.Mode}}")
	require.NoError(t, err)

	text, err := prompt.Render("Shop", "", "")
	require.NoError(t, err)
	assert.Equal(t, "Shop|promo", text)
}

func TestNewPromptRejectsBadTemplate(t *testing.T) {
	_, err := NewPrompt("{{.Name")
	require.Error(t, err)
	assert.ErrorIs(t, err, services.ErrConfiguration)
}

type fakeChat struct {
	system string
	user   string
	reply  string
	err    error
}

func (f *fakeChat) CompleteText(_ context.Context, systemPrompt, userPrompt string) (string, error) {
	f.system = systemPrompt
	f.user = userPrompt
	return f.reply, f.err
}

func TestChatScriptWriterRendersPrompt(t *testing.T) {
	prompt, err := NewPrompt("Script for {{.Name}} ({{.Mode}})")
	require.NoError(t, err)
	chat := &fakeChat{reply: "Line one.\nLine two."}

	out, err := NewChatScriptWriter(chat, prompt).Generate(context.Background(), "Harbor Cafe", "", "story")
	require.NoError(t, err)
	assert.Equal(t, "Line one.\nLine two.", out)
	assert.Equal(t, "Script for Harbor Cafe (story)", chat.user)
	assert.Equal(t, chatSystemPrompt, chat.system)
}

func TestGeminiScriptWriterWrapsProviderError(t *testing.T) {
	prompt, err := NewPrompt("")
	require.NoError(t, err)
	var seen string
	writer := &GeminiScriptWriter{
		prompt: prompt,
		generate: func(_ context.Context, text string) (string, error) {
			seen = text
			return "", errors.New("quota exceeded")
		},
	}

	_, err = writer.Generate(context.Background(), "Shop", "", "promo")
	require.Error(t, err)
	assert.ErrorIs(t, err, services.ErrProvider)
	assert.True(t, strings.Contains(seen, `"Shop"`))
}

func TestNewGeminiScriptWriterRequiresKey(t *testing.T) {
	_, err := NewGeminiScriptWriter(context.Background(), " ", "gemini-2.0-flash", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, services.ErrConfiguration)
}
