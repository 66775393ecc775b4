package common

import (
	"strings"
	"testing"
)

func TestRequiredRejectsBlankAndNil(t *testing.T) {
	if err := Required("name", nil); err == nil {
		t.Fatalf("expected nil to fail Required")
	}
	if err := Required("name", "   "); err == nil {
		t.Fatalf("expected a blank string to fail Required")
	}
	if err := Required("name", "ok"); err != nil {
		t.Fatalf("expected a non-blank string to pass Required, got %v", err)
	}
}

func TestMinLengthAndMaxLength(t *testing.T) {
	if err := MinLength("name", "ab", 3); err == nil {
		t.Fatalf("expected MinLength to reject a too-short string")
	}
	if err := MinLength("name", "abc", 3); err != nil {
		t.Fatalf("expected MinLength to accept a string at the boundary, got %v", err)
	}
	if err := MaxLength("name", "abcd", 3); err == nil {
		t.Fatalf("expected MaxLength to reject a too-long string")
	}
	if err := MaxLength("name", "abc", 3); err != nil {
		t.Fatalf("expected MaxLength to accept a string at the boundary, got %v", err)
	}
}

func TestUUIDValidatesFormat(t *testing.T) {
	if err := UUID("id", "not-a-uuid"); err == nil {
		t.Fatalf("expected an invalid UUID to fail")
	}
	if err := UUID("id", "5f8a1e2e-8c3a-4e36-9f2a-7b1e6b1c9d4e"); err != nil {
		t.Fatalf("expected a valid UUID to pass, got %v", err)
	}
}

func TestIntRangeValidatesBounds(t *testing.T) {
	if err := IntRange("priority", 11, 0, 10); err == nil {
		t.Fatalf("expected a value above the range to fail")
	}
	if err := IntRange("priority", 5, 0, 10); err != nil {
		t.Fatalf("expected a value within range to pass, got %v", err)
	}
}

func TestValidatorAccumulatesErrorsAcrossFields(t *testing.T) {
	v := NewValidator()
	v.Field("name", "", Required)
	v.Field("priority", 99, func(field string, value interface{}) *ValidationError {
		return IntRange(field, value, 0, 10)
	})

	if !v.HasErrors() {
		t.Fatalf("expected accumulated validation errors")
	}
	if len(v.Errors()) != 2 {
		t.Fatalf("expected exactly 2 errors, got %d", len(v.Errors()))
	}
	if !strings.Contains(v.ErrorMessage(), "name") || !strings.Contains(v.ErrorMessage(), "priority") {
		t.Fatalf("expected both field names in the combined message, got %q", v.ErrorMessage())
	}
}

func TestValidateAndReturnErrorIsNilWithoutErrors(t *testing.T) {
	v := NewValidator()
	v.Field("name", "ok", Required)
	if err := ValidateAndReturnError(v); err != nil {
		t.Fatalf("expected no error for a valid field, got %v", err)
	}
}

func TestValidateAndReturnErrorWrapsValidatorErrors(t *testing.T) {
	v := NewValidator()
	v.Field("name", "", Required)
	err := ValidateAndReturnError(v)
	if err == nil {
		t.Fatalf("expected an error for an invalid field")
	}
}
