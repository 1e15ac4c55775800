// Package templates is the payload template registry. It maps a policy code
// to a JSON Schema and validates draft payloads against it. The version and
// lifecycle engines never interpret payload shape themselves; all shape
// knowledge lives here, keyed by code.
package templates

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/zypocare/governance-backend/internal/platform/logger"
)

type Registry struct {
	log *logger.Logger

	mu      sync.RWMutex
	schemas map[string]*jsonschema.Schema
}

func NewRegistry(log *logger.Logger) *Registry {
	return &Registry{
		log:     log.With("service", "TemplateRegistry"),
		schemas: map[string]*jsonschema.Schema{},
	}
}

type registryFile struct {
	Templates map[string]map[string]interface{} `yaml:"templates"`
}

// LoadFromFile reads a YAML file mapping policy code to a JSON Schema body.
func LoadFromFile(log *logger.Logger, path string) (*Registry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read template registry file: %w", err)
	}
	var cfg registryFile
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parse template registry file: %w", err)
	}
	r := NewRegistry(log)
	for code, schema := range cfg.Templates {
		if err := r.Register(code, schema); err != nil {
			return nil, fmt.Errorf("register template %q: %w", code, err)
		}
	}
	r.log.Info("Template registry loaded", "path", path, "templates", len(cfg.Templates))
	return r, nil
}

func (r *Registry) Register(code string, schema map[string]interface{}) error {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return fmt.Errorf("template code is empty")
	}
	if len(schema) == 0 {
		return fmt.Errorf("template schema is empty")
	}
	data, err := json.Marshal(schema)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	resourceID := "governance://templates/" + strings.ToLower(code) + ".json"
	if err := compiler.AddResource(resourceID, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("add schema resource: %w", err)
	}
	compiled, err := compiler.Compile(resourceID)
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	r.mu.Lock()
	r.schemas[code] = compiled
	r.mu.Unlock()
	return nil
}

func (r *Registry) Has(code string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.schemas[strings.ToUpper(strings.TrimSpace(code))]
	return ok
}

// Validate checks a raw JSON payload against the schema registered for the
// code. Codes without a registered template validate trivially: the payload
// is opaque to governance and callers may store any well-formed document.
func (r *Registry) Validate(code string, payload []byte) error {
	if len(payload) == 0 {
		return nil
	}
	var value interface{}
	if err := json.Unmarshal(payload, &value); err != nil {
		return fmt.Errorf("payload is not valid JSON: %w", err)
	}
	r.mu.RLock()
	schema := r.schemas[strings.ToUpper(strings.TrimSpace(code))]
	r.mu.RUnlock()
	if schema == nil {
		return nil
	}
	if err := schema.Validate(value); err != nil {
		return fmt.Errorf("payload does not match template for %s: %w", code, err)
	}
	return nil
}
