package validation

import (
	"strings"
	"testing"
	"time"

	"github.com/kbukum/rawes/errors"
)

func TestValidatorRequired(t *testing.T) {
	tests := []struct {
		value   string
		wantErr bool
	}{
		{"http://localhost:9200", false},
		{"", true},
		{"   ", true},
	}
	for _, tt := range tests {
		v := New().Required("url", tt.value)
		if v.HasErrors() != tt.wantErr {
			t.Errorf("Required(%q) HasErrors = %v, want %v", tt.value, v.HasErrors(), tt.wantErr)
		}
	}
}

func TestValidatorRange(t *testing.T) {
	v := New().Range("port", 9500, 1, 65535)
	if v.HasErrors() {
		t.Error("expected no errors in range")
	}
	v = New().Range("port", 70000, 1, 65535)
	if !v.HasErrors() {
		t.Error("expected error out of range")
	}
}

func TestValidatorOneOf(t *testing.T) {
	allowed := []string{"json", "yaml"}
	if New().OneOf("output", "yaml", allowed).HasErrors() {
		t.Error("yaml should be allowed")
	}
	if New().OneOf("output", "", allowed).HasErrors() {
		t.Error("empty value should be skipped")
	}
	v := New().OneOf("output", "xml", allowed)
	if !v.HasErrors() {
		t.Fatal("xml should be rejected")
	}
	if !strings.Contains(v.Errors()[0].Message, "json, yaml") {
		t.Errorf("message = %q", v.Errors()[0].Message)
	}
}

func TestValidatorCustomAndCheck(t *testing.T) {
	v := New().
		Custom(false, "password", "is required with username").
		Check("tls", nil).
		Check("retry", errors.Validation("max_attempts must be positive"))
	if len(v.Errors()) != 2 {
		t.Fatalf("errors = %d, want 2", len(v.Errors()))
	}
	if v.Errors()[1].Field != "retry" {
		t.Errorf("field = %q", v.Errors()[1].Field)
	}
}

func TestValidatorValidate(t *testing.T) {
	if err := New().Validate(); err != nil {
		t.Errorf("empty validator should pass, got %v", err)
	}

	err := New().Required("url", "").Required("path", "").Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.HasCode(err, errors.ErrCodeInvalidInput) {
		t.Errorf("code = %v, want INVALID_INPUT", err)
	}
	appErr, _ := errors.AsAppError(err)
	if fields, ok := appErr.Details["fields"].([]FieldError); !ok || len(fields) != 2 {
		t.Errorf("details fields = %v", appErr.Details["fields"])
	}
}

type sampleConfig struct {
	URL     string        `yaml:"url" validate:"required"`
	Timeout time.Duration `yaml:"timeout" validate:"gte=0"`
	Output  string        `mapstructure:"output" validate:"omitempty,oneof=json yaml"`
	MaxIdle int           `validate:"gte=0"`
}

func TestValidateStruct(t *testing.T) {
	tests := []struct {
		name       string
		cfg        sampleConfig
		wantFields []string
	}{
		{"valid", sampleConfig{URL: "localhost", Output: "json"}, nil},
		{"missing url", sampleConfig{}, []string{"url"}},
		{"negative timeout", sampleConfig{URL: "x", Timeout: -time.Second}, []string{"timeout"}},
		{"bad output", sampleConfig{URL: "x", Output: "xml"}, []string{"output"}},
		{"snake case fallback", sampleConfig{URL: "x", MaxIdle: -1}, []string{"max_idle"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.cfg)
			if len(tt.wantFields) == 0 {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected error")
			}
			appErr, ok := errors.AsAppError(err)
			if !ok || appErr.Code != errors.ErrCodeInvalidInput {
				t.Fatalf("error = %v, want INVALID_INPUT AppError", err)
			}
			fields := appErr.Details["fields"].([]FieldError)
			for i, want := range tt.wantFields {
				if fields[i].Field != want {
					t.Errorf("field[%d] = %q, want %q", i, fields[i].Field, want)
				}
			}
		})
	}
}
