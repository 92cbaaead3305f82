package render

import (
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"

	theme "github.com/goliatone/go-theme"
)

// ThemeConfig is the resolved theme handed to renderers.
type ThemeConfig struct {
	Theme   string
	Variant string
	Tokens  map[string]string
	// CSSVars maps --<token> to its value.
	CSSVars  map[string]string
	AssetURL func(key string) string
}

// SortedCSSVars returns the CSS custom properties in name order.
func (c *ThemeConfig) SortedCSSVars() []HiddenField {
	if c == nil {
		return nil
	}
	return SortedHiddenFields(c.CSSVars)
}

// ThemeFromSelection merges the manifest tokens with the selected variant's
// overrides.
func ThemeFromSelection(selection *theme.Selection) *ThemeConfig {
	if selection == nil || selection.Manifest == nil {
		return nil
	}
	manifest := selection.Manifest

	tokens := make(map[string]string, len(manifest.Tokens))
	for key, value := range manifest.Tokens {
		tokens[key] = value
	}
	assets := make(map[string]string, len(manifest.Assets.Files))
	for key, value := range manifest.Assets.Files {
		assets[key] = value
	}
	prefix := manifest.Assets.Prefix

	if variant, ok := manifest.Variants[selection.Variant]; ok {
		for key, value := range variant.Tokens {
			tokens[key] = value
		}
		for key, value := range variant.Assets.Files {
			assets[key] = value
		}
		if variant.Assets.Prefix != "" {
			prefix = variant.Assets.Prefix
		}
	}

	vars := make(map[string]string, len(tokens))
	for key, value := range tokens {
		vars["--"+strings.TrimPrefix(key, "--")] = value
	}

	return &ThemeConfig{
		Theme:   selection.Theme,
		Variant: selection.Variant,
		Tokens:  tokens,
		CSSVars: vars,
		AssetURL: func(key string) string {
			file, ok := assets[key]
			if !ok {
				return ""
			}
			if prefix == "" {
				return file
			}
			return path.Join(prefix, file)
		},
	}
}

type manifestRegistry interface {
	Register(manifest *theme.Manifest) error
}

// Themes selects tenant theme manifests by name and variant. It satisfies
// theme.ThemeSelector.
type Themes struct {
	mu             sync.RWMutex
	registry       manifestRegistry
	manifests      map[string]*theme.Manifest
	defaultTheme   string
	defaultVariant string
}

var _ theme.ThemeSelector = (*Themes)(nil)

// NewThemes registers manifests and records the defaults used for empty
// selections.
func NewThemes(defaultTheme, defaultVariant string, manifests ...*theme.Manifest) (*Themes, error) {
	t := &Themes{
		registry:       theme.NewRegistry(),
		manifests:      make(map[string]*theme.Manifest, len(manifests)),
		defaultTheme:   strings.TrimSpace(defaultTheme),
		defaultVariant: strings.TrimSpace(defaultVariant),
	}
	for _, manifest := range manifests {
		if err := t.Register(manifest); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// Register adds a manifest.
func (t *Themes) Register(manifest *theme.Manifest) error {
	if manifest == nil || strings.TrimSpace(manifest.Name) == "" {
		return fmt.Errorf("render: theme manifest name is required")
	}
	if err := t.registry.Register(manifest); err != nil {
		return fmt.Errorf("render: register theme %q: %w", manifest.Name, err)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.manifests[manifest.Name] = manifest
	if t.defaultTheme == "" {
		t.defaultTheme = manifest.Name
	}
	return nil
}

// Select implements theme.ThemeSelector.
func (t *Themes) Select(name, variant string, _ ...theme.QueryOption) (*theme.Selection, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	name = strings.TrimSpace(name)
	if name == "" {
		name = t.defaultTheme
		if strings.TrimSpace(variant) == "" {
			variant = t.defaultVariant
		}
	}
	manifest, ok := t.manifests[name]
	if !ok {
		return nil, fmt.Errorf("render: theme %q not found", name)
	}
	variant = strings.TrimSpace(variant)
	if variant != "" {
		if _, ok := manifest.Variants[variant]; !ok {
			return nil, fmt.Errorf("render: theme %q has no variant %q", name, variant)
		}
	}
	return &theme.Selection{Theme: name, Variant: variant, Manifest: manifest}, nil
}

// Resolve selects and flattens a theme in one step.
func (t *Themes) Resolve(name, variant string) (*ThemeConfig, error) {
	selection, err := t.Select(name, variant)
	if err != nil {
		return nil, err
	}
	return ThemeFromSelection(selection), nil
}

// Names lists the registered themes.
func (t *Themes) Names() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	names := make([]string, 0, len(t.manifests))
	for name := range t.manifests {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ManifestFromTokens builds a manifest from flat token maps, which is how
// tenant themes are declared in configuration.
func ManifestFromTokens(name string, tokens map[string]string, variants map[string]map[string]string) *theme.Manifest {
	manifest := &theme.Manifest{
		Name:     name,
		Version:  "1.0.0",
		Tokens:   tokens,
		Variants: make(map[string]theme.Variant, len(variants)),
	}
	if manifest.Tokens == nil {
		manifest.Tokens = map[string]string{}
	}
	for key, values := range variants {
		manifest.Variants[key] = theme.Variant{Tokens: values}
	}
	return manifest
}
