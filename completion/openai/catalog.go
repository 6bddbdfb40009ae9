package openai

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Provider is one OpenAI-compatible chat completions endpoint.
type Provider struct {
	Name      string `yaml:"name"`
	BaseURL   string `yaml:"base_url"`
	APIKeyEnv string `yaml:"api_key_env"`
	APIKey    string `yaml:"-"`
}

// Catalog lists providers in the order they should be tried.
type Catalog struct {
	Providers []Provider `yaml:"providers"`
}

// DefaultCatalog is used when no providers file exists.
func DefaultCatalog() Catalog {
	return Catalog{Providers: []Provider{
		{Name: "OpenAI", BaseURL: "https://api.openai.com/v1", APIKeyEnv: "OPENAI_API_KEY", APIKey: os.Getenv("OPENAI_API_KEY")},
	}}
}

// LoadCatalog reads a YAML providers file and resolves API keys from the
// environment.
func LoadCatalog(path string) (Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, err
	}
	return ParseCatalog(data)
}

func ParseCatalog(data []byte) (Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Catalog{}, fmt.Errorf("parse providers: %w", err)
	}

	seen := make(map[string]bool, len(c.Providers))
	for i, p := range c.Providers {
		if p.Name == "" || p.BaseURL == "" {
			return Catalog{}, fmt.Errorf("provider %d: name and base_url are required", i)
		}
		if seen[p.Name] {
			return Catalog{}, fmt.Errorf("provider %q listed twice", p.Name)
		}
		seen[p.Name] = true
		if p.APIKeyEnv != "" {
			c.Providers[i].APIKey = os.Getenv(p.APIKeyEnv)
		}
	}
	return c, nil
}

// Names returns provider names in catalog order.
func (c Catalog) Names() []string {
	names := make([]string, 0, len(c.Providers))
	for _, p := range c.Providers {
		names = append(names, p.Name)
	}
	return names
}

func (c Catalog) Lookup(name string) (Provider, bool) {
	for _, p := range c.Providers {
		if p.Name == name {
			return p, true
		}
	}
	return Provider{}, false
}
