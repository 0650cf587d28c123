package template

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultYAML []byte

// Axis describes one graph axis. Nil Min/Max mean autoscale.
type Axis struct {
	Title string   `yaml:"title"`
	Min   *float64 `yaml:"min,omitempty"`
	Max   *float64 `yaml:"max,omitempty"`
}

// Template describes how a cycling graph is drawn.
type Template struct {
	Name      string   `yaml:"name"`
	XAxis     Axis     `yaml:"x_axis"`
	YAxis     Axis     `yaml:"y_axis"`
	LineWidth float64  `yaml:"line_width,omitempty"`
	Palette   []string `yaml:"palette,omitempty"`
}

// TraceColor returns the palette color for the n-th trace, cycling through
// the palette. Empty when the template has no palette.
func (t *Template) TraceColor(n int) string {
	if len(t.Palette) == 0 {
		return ""
	}
	return t.Palette[n%len(t.Palette)]
}

// Default returns the built-in charge/discharge template.
func Default() *Template {
	t, err := parse(defaultYAML, "default")
	if err != nil {
		// The embedded template is validated by tests.
		panic(fmt.Sprintf("built-in template: %v", err))
	}
	return t
}

// Load reads a template from a YAML file. A missing name falls back to the
// file's base name.
func Load(path string) (*Template, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read template: %w", err)
	}
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return parse(raw, base)
}

func parse(raw []byte, fallbackName string) (*Template, error) {
	var t Template
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return nil, fmt.Errorf("parse template: %w", err)
	}
	if t.Name == "" {
		t.Name = fallbackName
	}
	return &t, nil
}

// Registry holds the built-in template plus any templates found in a
// directory.
type Registry struct {
	templates map[string]*Template
	def       *Template
}

// NewRegistry loads *.yaml / *.yml templates from dir. An empty dir means
// built-in only; a missing dir is an error.
func NewRegistry(dir string) (*Registry, error) {
	r := &Registry{
		templates: make(map[string]*Template),
		def:       Default(),
	}
	r.templates[r.def.Name] = r.def

	if dir == "" {
		return r, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read templates dir: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		t, err := Load(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("template %s: %w", e.Name(), err)
		}
		r.templates[t.Name] = t
	}
	return r, nil
}

// Default returns the registry's built-in template.
func (r *Registry) Default() *Template {
	return r.def
}

// Names lists template names, built-in first, the rest sorted.
func (r *Registry) Names() []string {
	rest := make([]string, 0, len(r.templates))
	for name := range r.templates {
		if name != r.def.Name {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	return append([]string{r.def.Name}, rest...)
}

// Get resolves a template by name. An empty name resolves to the built-in
// template.
func (r *Registry) Get(name string) (*Template, error) {
	if name == "" {
		return r.def, nil
	}
	t, ok := r.templates[name]
	if !ok {
		return nil, fmt.Errorf("unknown template %q (available: %s)", name, strings.Join(r.Names(), ", "))
	}
	return t, nil
}
