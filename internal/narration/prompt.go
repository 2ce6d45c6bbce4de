package narration

import (
	"strings"
	"text/template"

	"reelgen/internal/services"
	"reelgen/internal/task"
)

// DefaultScriptPrompt asks for one spoken sentence per line.
const DefaultScriptPrompt = `Write a voice-over script for a 20 to 30 second vertical video reel about "{{.Name}}".
{{if .Description}}About the business: {{.Description}}
{{end}}Style: {{.Style}}
Rules:
- Write 4 to 6 short lines, one spoken sentence per line.
- Plain text only. No numbering, no headings, no stage directions, no emojis.
- Do not wrap lines in quotes.`

var modeStyles = map[string]string{
	task.ModePromo:  "an upbeat promotional pitch that ends with a call to visit",
	task.ModeReview: "a first-person customer review with honest, specific details",
	task.ModeStory:  "a short story that follows a visitor through the place",
}

// PromptData is the template context for script prompts.
type PromptData struct {
	Name        string
	Description string
	Mode        string
	Style       string
}

// Prompt renders script prompts from a text/template.
type Prompt struct {
	tmpl *template.Template
}

// NewPrompt parses text, falling back to DefaultScriptPrompt when blank.
func NewPrompt(text string) (*Prompt, error) {
	if strings.TrimSpace(text) == "" {
		text = DefaultScriptPrompt
	}
	tmpl, err := template.New("script").Parse(text)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, string(task.StageGenerateScript), "parse prompt", "", err)
	}
	return &Prompt{tmpl: tmpl}, nil
}

// Render fills the template for one business.
func (p *Prompt) Render(name, description, mode string) (string, error) {
	if mode == "" {
		mode = task.ModePromo
	}
	var sb strings.Builder
	err := p.tmpl.Execute(&sb, PromptData{
		Name:        name,
		Description: description,
		Mode:        mode,
		Style:       modeStyles[mode],
	})
	if err != nil {
		return "", services.Wrap(services.ErrConfiguration, string(task.StageGenerateScript), "render prompt", "", err)
	}
	return strings.TrimSpace(sb.String()), nil
}
