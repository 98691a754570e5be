// Package render mounts card descriptors into the containers of a page.
//
// A descriptor is a JSON object naming a registered component and the data
// it renders with:
//
//	{"component": "medium-card", "data": {"title": "Lights", ...}}
//
// Components are html/template definitions; data fields that are themselves
// descriptors are rendered with the "mount" template function.
package render

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"strings"
	"sync"
)

//go:embed templates/*.gohtml
var templatesFS embed.FS

// DefaultComponents binds the built-in component names to their templates.
var DefaultComponents = map[string]string{
	"vertical-layout":    "#template-vertical-layout",
	"header-3":           "#template-h3",
	"paragraph":          "#template-paragraph",
	"weave-button":       "#template-button",
	"medium-card":        "#template-medium-card",
	"card-footer-status": "#template-card-footer-status",
	"weave-icon":         "#template-weave-icon",
}

// Registry binds component names to template definitions.
type Registry struct {
	tmpl *template.Template

	mu         sync.RWMutex
	components map[string]string
}

// NewRegistry parses the embedded component templates. No component is
// registered yet; see Register and RegisterDefaults.
func NewRegistry() (*Registry, error) {
	r := &Registry{components: make(map[string]string)}
	t, err := template.New("components").
		Option("missingkey=zero").
		Funcs(template.FuncMap{"mount": r.mountValue}).
		ParseFS(templatesFS, "templates/*.gohtml")
	if err != nil {
		return nil, fmt.Errorf("parse component templates: %w", err)
	}
	r.tmpl = t
	return r, nil
}

// Register binds name to the template addressed by selector ("#template-id").
func (r *Registry) Register(name, selector string) error {
	id := strings.TrimPrefix(strings.TrimSpace(selector), "#")
	if r.tmpl.Lookup(id) == nil {
		return fmt.Errorf("%w: %s", ErrUnknownTemplate, selector)
	}
	r.mu.Lock()
	r.components[name] = id
	r.mu.Unlock()
	return nil
}

// RegisterDefaults registers every entry of DefaultComponents.
func (r *Registry) RegisterDefaults() error {
	for name, selector := range DefaultComponents {
		if err := r.Register(name, selector); err != nil {
			return err
		}
	}
	return nil
}

// Len returns the number of registered components.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.components)
}

type descriptor struct {
	Component string `json:"component"`
	Data      any    `json:"data"`
}

// Render renders a raw card descriptor and returns its component name too.
func (r *Registry) Render(raw json.RawMessage) (template.HTML, string, error) {
	var d descriptor
	if err := json.Unmarshal(raw, &d); err != nil {
		return "", "", fmt.Errorf("%w: %w", ErrInvalidDescriptor, err)
	}
	html, err := r.render(d)
	return html, d.Component, err
}

func (r *Registry) render(d descriptor) (template.HTML, error) {
	if d.Component == "" {
		return "", fmt.Errorf("%w: missing component", ErrInvalidDescriptor)
	}
	r.mu.RLock()
	id, ok := r.components[d.Component]
	r.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownComponent, d.Component)
	}

	data := d.Data
	if data == nil {
		data = map[string]any{}
	}
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, id, data); err != nil {
		return "", fmt.Errorf("render %s: %w", d.Component, err)
	}
	return template.HTML(buf.String()), nil //nolint:gosec // produced by html/template
}

// mountValue renders a nested descriptor already decoded into a map.
func (r *Registry) mountValue(v any) (template.HTML, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return "", fmt.Errorf("%w: nested value is %T", ErrInvalidDescriptor, v)
	}
	name, _ := m["component"].(string)
	return r.render(descriptor{Component: name, Data: m["data"]})
}
