package render

import (
	"fmt"
	"html/template"
	"strings"
	"sync"
)

// Container is a singleton page region addressed by a CSS-like selector.
// It only ever grows.
type Container struct {
	selector  string
	fragments []template.HTML
}

// Selector returns the normalized selector.
func (c *Container) Selector() string { return c.selector }

// Document is a page made of named containers.
type Document struct {
	mu         sync.RWMutex
	containers map[string]*Container
}

// NewDocument declares the containers of a page.
func NewDocument(selectors ...string) *Document {
	d := &Document{containers: make(map[string]*Container, len(selectors))}
	for _, s := range selectors {
		s = normalizeSelector(s)
		d.containers[s] = &Container{selector: s}
	}
	return d
}

// Append adds a fragment at the end of the container.
func (d *Document) Append(selector string, fragment template.HTML) error {
	sel := normalizeSelector(selector)

	d.mu.Lock()
	defer d.mu.Unlock()
	c, ok := d.containers[sel]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownContainer, selector)
	}
	c.fragments = append(c.fragments, fragment)
	return nil
}

// Fragments returns a copy of the container's fragments in append order.
func (d *Document) Fragments(selector string) []template.HTML {
	d.mu.RLock()
	defer d.mu.RUnlock()
	c, ok := d.containers[normalizeSelector(selector)]
	if !ok {
		return nil
	}
	out := make([]template.HTML, len(c.fragments))
	copy(out, c.fragments)
	return out
}

// HTML joins the container's fragments.
func (d *Document) HTML(selector string) template.HTML {
	var b strings.Builder
	for _, f := range d.Fragments(selector) {
		b.WriteString(string(f))
	}
	return template.HTML(b.String()) //nolint:gosec // fragments come from html/template
}

// normalizeSelector collapses whitespace so ".a  .b" and ".a .b" match.
func normalizeSelector(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
