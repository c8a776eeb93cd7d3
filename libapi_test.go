package flowscope

import (
	"errors"
	"strings"
	"testing"
)

func TestScopeExports(t *testing.T) {
	scope, err := NewScope(Config{}, NopLogger(), ScopeDependencies{})
	if err != nil {
		t.Fatalf("unexpected error creating scope: %v", err)
	}

	native := NewTransformStream(func(chunk any) ([]any, error) {
		return []any{chunk}, nil
	}, nil)
	stage, err := scope.WrapTransform(native, "echo")
	if err != nil {
		t.Fatalf("unexpected error wrapping transform: %v", err)
	}
	if stage.Name() != "echo" {
		t.Fatalf("expected stage name echo, got %q", stage.Name())
	}

	if _, err := scope.InstrumentObject(native, "echo-again"); !errors.Is(err, ErrAlreadyInstrumented) {
		t.Fatalf("expected already instrumented error, got %v", err)
	}
}

func TestConfigValidationExport(t *testing.T) {
	if err := ValidateConfig(Config{DefaultHighWatermark: -1}); err == nil {
		t.Fatal("expected validation error")
	}
	if err := ValidateConfig(Config{}); err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}
}

func TestEncodingExportAliases(t *testing.T) {
	payload := map[string]string{"hello": "world"}
	if _, err := Marshal(payload); err != nil {
		t.Fatalf("marshal alias failed: %v", err)
	}
	if _, err := MarshalIndent(payload, "", "  "); err != nil {
		t.Fatalf("marshal indent alias failed: %v", err)
	}
	if err := Unmarshal([]byte(`{"hello":"world"}`), &payload); err != nil {
		t.Fatalf("unmarshal alias failed: %v", err)
	}
}

func TestIDExports(t *testing.T) {
	if id := CreateULID(); len(id) != 26 {
		t.Fatalf("expected 26 character ULID, got %q", id)
	}
	if name := NewStageName(); !strings.HasPrefix(name, "stage-") {
		t.Fatalf("expected generated stage name, got %q", name)
	}
}

func TestProvenanceExports(t *testing.T) {
	p := NewProvenance("x")
	if p.Label() != "value x" {
		t.Fatalf("unexpected label %q", p.Label())
	}
}

func TestMarshalModeExports(t *testing.T) {
	if ModeUnspecified.String() != "unspecified" {
		t.Fatalf("unexpected mode string %q", ModeUnspecified.String())
	}
}
