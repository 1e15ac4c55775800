package services

import (
	"reflect"
	"testing"

	"gorm.io/datatypes"
)

func TestMergePayload(t *testing.T) {
	base := map[string]interface{}{
		"retention_years": float64(7),
		"exceptions": map[string]interface{}{
			"oncology":  float64(15),
			"paediatry": float64(25),
		},
		"tags": []interface{}{"clinical"},
	}
	override := map[string]interface{}{
		"exceptions": map[string]interface{}{
			"oncology": float64(20),
		},
		"tags": []interface{}{"clinical", "lagos"},
	}

	got := mergePayload(base, override)
	want := map[string]interface{}{
		"retention_years": float64(7),
		"exceptions": map[string]interface{}{
			"oncology":  float64(20),
			"paediatry": float64(25),
		},
		"tags": []interface{}{"clinical", "lagos"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("merge: want=%v got=%v", want, got)
	}

	// Non-map override replaces wholesale.
	if got := mergePayload(base, "off"); got != "off" {
		t.Fatalf("scalar override: got %v", got)
	}
	// Nil override keeps the base.
	if got := mergePayload(base, nil); !reflect.DeepEqual(got, base) {
		t.Fatalf("nil override: got %v", got)
	}
}

func TestDecodePayload(t *testing.T) {
	v, err := decodePayload(datatypes.JSON(`{"a":1}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	m, ok := v.(map[string]interface{})
	if !ok || m["a"] != float64(1) {
		t.Fatalf("decoded: %v", v)
	}

	v, err = decodePayload(nil)
	if err != nil {
		t.Fatalf("decode empty: %v", err)
	}
	if v != nil {
		t.Fatalf("empty payload decodes to nil, got %v", v)
	}

	if _, err := decodePayload(datatypes.JSON(`{`)); err == nil {
		t.Fatalf("malformed payload should error")
	}
}
