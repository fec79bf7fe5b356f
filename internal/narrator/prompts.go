package narrator

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"

	"github.com/greggjuri/chaos-dungeon/internal/game/engine"
)

//go:embed prompts/*.tmpl
var promptFS embed.FS

var prompts = template.Must(template.New("prompts").
	Funcs(template.FuncMap{"join": strings.Join}).
	ParseFS(promptFS, "prompts/*.tmpl"))

func render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := prompts.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("rendering %s: %w", name, err)
	}
	return buf.String(), nil
}

func systemPrompt() string {
	s, err := render("system.tmpl", nil)
	if err != nil {
		panic(err)
	}
	return s
}

func narratePrompt(req engine.NarrationRequest, scene string) (string, error) {
	outcome, err := json.MarshalIndent(req, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding outcome: %w", err)
	}
	return render("narrate.tmpl", struct {
		Scene       string
		Request     engine.NarrationRequest
		OutcomeJSON string
	}{Scene: scene, Request: req, OutcomeJSON: string(outcome)})
}

func intentPrompt(in IntentRequest, schema []byte) (string, error) {
	return render("intent.tmpl", struct {
		IntentRequest
		Schema string
	}{IntentRequest: in, Schema: string(schema)})
}

func hostilityPrompt(target, scene string) (string, error) {
	return render("hostility.tmpl", struct{ Target, Scene string }{target, scene})
}

// stripFences removes a surrounding Markdown code fence, if any.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
