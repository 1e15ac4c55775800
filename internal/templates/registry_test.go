package templates

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/zypocare/governance-backend/internal/platform/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	return log
}

func retentionSchema() map[string]interface{} {
	return map[string]interface{}{
		"type":                 "object",
		"required":             []interface{}{"opdYears", "ipdYears"},
		"additionalProperties": false,
		"properties": map[string]interface{}{
			"opdYears": map[string]interface{}{"type": "integer", "minimum": 0},
			"ipdYears": map[string]interface{}{"type": "integer", "minimum": 0},
		},
	}
}

func TestValidateAgainstRegisteredSchema(t *testing.T) {
	r := NewRegistry(testLogger(t))
	if err := r.Register("RETENTION_CLINICAL_RECORDS", retentionSchema()); err != nil {
		t.Fatalf("Register: %v", err)
	}

	if err := r.Validate("RETENTION_CLINICAL_RECORDS", []byte(`{"opdYears":5,"ipdYears":10}`)); err != nil {
		t.Fatalf("Validate valid payload: %v", err)
	}
	if err := r.Validate("RETENTION_CLINICAL_RECORDS", []byte(`{"opdYears":"five","ipdYears":10}`)); err == nil {
		t.Fatalf("Validate: expected type error")
	}
	if err := r.Validate("RETENTION_CLINICAL_RECORDS", []byte(`{"opdYears":5}`)); err == nil {
		t.Fatalf("Validate: expected missing-field error")
	}
}

func TestValidateUnknownCodeIsOpaque(t *testing.T) {
	r := NewRegistry(testLogger(t))
	if err := r.Validate("SOMETHING_ELSE", []byte(`{"anything":true}`)); err != nil {
		t.Fatalf("unknown code must validate trivially: %v", err)
	}
	if err := r.Validate("SOMETHING_ELSE", []byte(`{not json`)); err == nil {
		t.Fatalf("malformed JSON must fail even for unknown codes")
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "templates.yaml")
	content := `
templates:
  BREAK_GLASS:
    type: object
    required: [enabled]
    properties:
      enabled:
        type: boolean
      autoExpireMinutes:
        type: integer
        minimum: 1
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	r, err := LoadFromFile(testLogger(t), path)
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	if !r.Has("BREAK_GLASS") {
		t.Fatalf("Has: BREAK_GLASS not registered")
	}
	if err := r.Validate("BREAK_GLASS", []byte(`{"enabled":true,"autoExpireMinutes":60}`)); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if err := r.Validate("BREAK_GLASS", []byte(`{"autoExpireMinutes":0}`)); err == nil {
		t.Fatalf("Validate: expected schema violation")
	}
}
