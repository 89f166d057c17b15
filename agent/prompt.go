package agent

import (
	"embed"
	"text/template"

	"github.com/hupe1980/bleater/internal/util"
)

//go:embed templates/*.tmpl
var templates embed.FS

var (
	// DefaultSystemPrompt renders the session instruction block from SystemData.
	DefaultSystemPrompt = MustPrompt("system", mustReadTemplate("templates/system.tmpl"))
	// DefaultUserPrompt renders the per-round prompt from UserData.
	DefaultUserPrompt = MustPrompt("user", mustReadTemplate("templates/user.tmpl"))
)

// Prompt is a parsed text/template with the helpers of util.Funcs.
type Prompt struct {
	tmpl *template.Template
}

// NewPrompt parses text as a prompt template.
func NewPrompt(name, text string) (Prompt, error) {
	tmpl, err := util.ParseTemplate(name, text)
	if err != nil {
		return Prompt{}, err
	}
	return Prompt{tmpl: tmpl}, nil
}

// MustPrompt is like NewPrompt but panics on a parse error. Use it for
// templates known at compile time.
func MustPrompt(name, text string) Prompt {
	p, err := NewPrompt(name, text)
	if err != nil {
		panic(err)
	}
	return p
}

// IsZero reports whether the prompt holds no template.
func (p Prompt) IsZero() bool { return p.tmpl == nil }

// Render executes the template against data.
func (p Prompt) Render(data any) (string, error) {
	return util.RenderTemplate(p.tmpl, data)
}

func mustReadTemplate(name string) string {
	b, err := templates.ReadFile(name)
	if err != nil {
		panic(err)
	}
	return string(b)
}
