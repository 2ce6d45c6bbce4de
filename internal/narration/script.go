package narration

import (
	"context"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
	"google.golang.org/genai"

	"reelgen/internal/services"
	"reelgen/internal/services/llm"
)

// ScriptWriter drafts a multi-line narration script.
type ScriptWriter interface {
	Generate(ctx context.Context, name, description, mode string) (string, error)
}

// SplitScript turns raw model output into clean segments: lines are NFC
// normalized and trimmed, list markers and wrapping quotes are removed, and
// empty lines are dropped.
func SplitScript(raw string) []string {
	raw = norm.NFC.String(strings.ReplaceAll(raw, "\r\n", "\n"))
	raw = llm.StripCodeFence(raw)
	var lines []string
	for _, line := range strings.Split(raw, "\n") {
		line = cleanLine(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func cleanLine(line string) string {
	line = strings.TrimSpace(line)
	line = trimListMarker(line)
	for {
		trimmed := trimQuotes(line)
		if trimmed == line {
			break
		}
		line = trimmed
	}
	return strings.TrimSpace(line)
}

func trimListMarker(line string) string {
	for _, marker := range []string{"- ", "* ", "• ", "– "} {
		if strings.HasPrefix(line, marker) {
			return strings.TrimSpace(line[len(marker):])
		}
	}
	digits := strings.IndexFunc(line, func(r rune) bool { return !unicode.IsDigit(r) })
	if digits > 0 && digits+1 < len(line) && (line[digits] == '.' || line[digits] == ')') && line[digits+1] == ' ' {
		return strings.TrimSpace(line[digits+2:])
	}
	return line
}

var quotePairs = [][2]string{{`"`, `"`}, {"'", "'"}, {"“", "”"}, {"‘", "’"}, {"«", "»"}}

func trimQuotes(line string) string {
	for _, pair := range quotePairs {
		if len(line) > len(pair[0])+len(pair[1]) && strings.HasPrefix(line, pair[0]) && strings.HasSuffix(line, pair[1]) {
			return strings.TrimSpace(line[len(pair[0]) : len(line)-len(pair[1])])
		}
	}
	return line
}

// GeminiScriptWriter drafts scripts with the Gemini API.
type GeminiScriptWriter struct {
	generate func(ctx context.Context, prompt string) (string, error)
	prompt   *Prompt
}

// NewGeminiScriptWriter creates a genai client for apiKey.
func NewGeminiScriptWriter(ctx context.Context, apiKey, model string, prompt *Prompt) (*GeminiScriptWriter, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, services.Wrap(services.ErrConfiguration, "", "gemini script", "api key required", nil)
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  strings.TrimSpace(apiKey),
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "", "gemini script", "create genai client", err)
	}
	return &GeminiScriptWriter{
		prompt: prompt,
		generate: func(ctx context.Context, text string) (string, error) {
			resp, err := client.Models.GenerateContent(ctx, model, genai.Text(text), nil)
			if err != nil {
				return "", err
			}
			return resp.Text(), nil
		},
	}, nil
}

// Generate renders the prompt and returns the model's text.
func (g *GeminiScriptWriter) Generate(ctx context.Context, name, description, mode string) (string, error) {
	prompt, err := g.prompt.Render(name, description, mode)
	if err != nil {
		return "", err
	}
	text, err := g.generate(ctx, prompt)
	if err != nil {
		return "", services.Wrap(services.ErrProvider, "", "gemini script", "generate content", err)
	}
	return text, nil
}

// ChatClient is the chat completion surface used by ChatScriptWriter.
type ChatClient interface {
	CompleteText(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// ChatScriptWriter drafts scripts through an OpenRouter-compatible chat API.
type ChatScriptWriter struct {
	client ChatClient
	prompt *Prompt
}

// NewChatScriptWriter wraps client.
func NewChatScriptWriter(client ChatClient, prompt *Prompt) *ChatScriptWriter {
	return &ChatScriptWriter{client: client, prompt: prompt}
}

const chatSystemPrompt = "You write short, natural voice-over scripts for social media video reels."

func (c *ChatScriptWriter) Generate(ctx context.Context, name, description, mode string) (string, error) {
	prompt, err := c.prompt.Render(name, description, mode)
	if err != nil {
		return "", err
	}
	return c.client.CompleteText(ctx, chatSystemPrompt, prompt)
}
