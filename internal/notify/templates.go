// Package notify renders message templates and dispatches them to the
// outbound channels, routing the audience through the escalation tiers.
// Dispatch is strictly best-effort: failures are logged by the caller and
// never affect state transitions or ledger marks.
package notify

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"sync"
	"text/template"

	"tramita_backend/internal/settings"
	"tramita_backend/platform/logger"

	"gopkg.in/yaml.v3"
)

//go:embed templates.yaml
var defaultTemplatesYAML []byte

// storedTemplatePrefix namespaces template overrides in the settings table.
const storedTemplatePrefix = "tpl_"

// Templates resolves message templates by kind: stored override first,
// embedded default otherwise. Parsed templates are cached per kind.
type Templates struct {
	reader   settings.Reader
	log      *logger.Logger
	defaults map[string]string

	mu    sync.Mutex
	cache map[string]*template.Template
}

// NewTemplates loads the embedded default catalog. The reader is optional;
// without it only defaults are used.
func NewTemplates(reader settings.Reader, log *logger.Logger) (*Templates, error) {
	defaults := map[string]string{}
	if err := yaml.Unmarshal(defaultTemplatesYAML, &defaults); err != nil {
		return nil, fmt.Errorf("parse default templates: %w", err)
	}

	return &Templates{
		reader:   reader,
		log:      log,
		defaults: defaults,
		cache:    map[string]*template.Template{},
	}, nil
}

// Render produces the message body for a template kind with the given
// substitutions. A stored override that fails to parse falls back to the
// embedded default, mirroring how malformed thresholds are defaulted.
func (t *Templates) Render(ctx context.Context, kind string, data map[string]string) (string, error) {
	tmpl, err := t.lookup(ctx, kind)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render template %q: %w", kind, err)
	}
	return buf.String(), nil
}

func (t *Templates) lookup(ctx context.Context, kind string) (*template.Template, error) {
	// Stored overrides are parsed fresh so edits take effect next sweep.
	if text := t.storedOverride(ctx, kind); text != "" {
		tmpl, err := template.New(kind).Option("missingkey=zero").Parse(text)
		if err == nil {
			return tmpl, nil
		}
		t.log.Warn("stored template override unparseable, using default", "kind", kind, "error", err)
	}

	t.mu.Lock()
	cached, hit := t.cache[kind]
	t.mu.Unlock()
	if hit {
		return cached, nil
	}

	text, ok := t.defaults[kind]
	if !ok {
		return nil, fmt.Errorf("unknown template kind %q", kind)
	}

	tmpl, err := template.New(kind).Option("missingkey=zero").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("parse default template %q: %w", kind, err)
	}

	t.mu.Lock()
	t.cache[kind] = tmpl
	t.mu.Unlock()
	return tmpl, nil
}

func (t *Templates) storedOverride(ctx context.Context, kind string) string {
	if t.reader == nil {
		return ""
	}
	key := storedTemplatePrefix + kind
	values, err := t.reader.ReadSettings(ctx, []string{key})
	if err != nil {
		return ""
	}
	return values[key]
}
