package errors

import (
	stdErrors "errors"
	"net/http"
	"testing"
)

func TestMetadataFor(t *testing.T) {
	tests := []struct {
		code   Code
		status int
	}{
		{CodeValidation, http.StatusBadRequest},
		{CodeUnauthorized, http.StatusUnauthorized},
		{CodeForbidden, http.StatusForbidden},
		{CodeNotFound, http.StatusNotFound},
		{CodeConflict, http.StatusConflict},
		{CodeNotReady, http.StatusServiceUnavailable},
		{CodeDependency, http.StatusServiceUnavailable},
		{CodeInternal, http.StatusInternalServerError},
		{Code("bogus"), http.StatusInternalServerError},
	}
	for _, tc := range tests {
		if got := MetadataFor(tc.code).HTTPStatus; got != tc.status {
			t.Fatalf("MetadataFor(%s) = %d, want %d", tc.code, got, tc.status)
		}
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := stdErrors.New("boom")
	err := Wrap(CodeDependency, cause, "sign url")

	if !stdErrors.Is(err, cause) {
		t.Fatalf("expected wrapped cause to survive errors.Is")
	}
	if err.Code() != CodeDependency {
		t.Fatalf("unexpected code %s", err.Code())
	}
	if err.Error() != "DEPENDENCY_ERROR: sign url" {
		t.Fatalf("unexpected error string %q", err.Error())
	}
}

func TestAsFindsTypedErrorInChain(t *testing.T) {
	inner := New(CodeConflict, "already purchased")
	wrapped := Wrap(CodeInternal, inner, "outer")

	typed := As(wrapped)
	if typed == nil {
		t.Fatal("expected typed error")
	}
	// As returns the outermost typed error.
	if typed.Code() != CodeInternal {
		t.Fatalf("unexpected code %s", typed.Code())
	}
	if !IsCode(inner, CodeConflict) {
		t.Fatal("IsCode should match the inner error code")
	}
	if IsCode(stdErrors.New("plain"), CodeConflict) {
		t.Fatal("IsCode should not match untyped errors")
	}
}

func TestWithDetails(t *testing.T) {
	err := New(CodeValidation, "validation failed").WithDetails(map[string]string{"content_id": "is required"})
	details, ok := err.Details().(map[string]string)
	if !ok || details["content_id"] != "is required" {
		t.Fatalf("unexpected details %v", err.Details())
	}
}
